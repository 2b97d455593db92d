package database

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDSN_URL(t *testing.T) {
	dsn := NormalizeDSN(` "postgres://user:secret@db:5432/cnpj" `, false, 2*time.Second)

	u, err := url.Parse(dsn)
	require.NoError(t, err)
	assert.Equal(t, "disable", u.Query().Get("sslmode"))
	assert.Equal(t, "2", u.Query().Get("connect_timeout"))
	assert.Equal(t, "/cnpj", u.Path)

	dsn = NormalizeDSN("postgresql://user@db/cnpj?sslmode=verify-full", true, 0)
	u, err = url.Parse(dsn)
	require.NoError(t, err)
	assert.Equal(t, "verify-full", u.Query().Get("sslmode"))
	assert.False(t, u.Query().Has("connect_timeout"))
}

func TestNormalizeDSN_KeyValue(t *testing.T) {
	dsn := NormalizeDSN("host=db   user=app password=secret dbname=cnpj", true, 3*time.Second)
	assert.Equal(t, "host=db user=app password=secret dbname=cnpj sslmode=require connect_timeout=3", dsn)

	dsn = NormalizeDSN("host=db sslmode=disable", true, 0)
	assert.Equal(t, "host=db sslmode=disable", dsn)

	assert.Empty(t, NormalizeDSN("  ", false, time.Second))
}

func TestMaskDSN(t *testing.T) {
	assert.Equal(t, "postgres://user:xxxxx@db:5432/cnpj", MaskDSN("postgres://user:secret@db:5432/cnpj"))
	assert.Equal(t, "postgres://user@db/cnpj", MaskDSN("postgres://user@db/cnpj"))
	assert.Equal(t, "host=db password=*** dbname=cnpj", MaskDSN("host=db password=secret dbname=cnpj"))
}
