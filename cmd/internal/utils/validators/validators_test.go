package validators

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_HasDigit(t *testing.T) {
	type body struct {
		CNPJ string `json:"cnpj" validate:"required,hasdigit"`
	}
	validate := New()

	assert.NoError(t, validate.Struct(&body{CNPJ: "11.222.333/0001-81"}))
	assert.NoError(t, validate.Struct(&body{CNPJ: "a1"}))

	err := validate.Struct(&body{CNPJ: "abc"})
	var ve validator.ValidationErrors
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "cnpj", ve[0].Field())
	assert.Equal(t, "hasdigit", ve[0].Tag())
}

func TestNew_ReportsQueryNames(t *testing.T) {
	type query struct {
		PageSize string `query:"pageSize" validate:"omitempty,number"`
	}

	err := New().Struct(&query{PageSize: "ten"})
	var ve validator.ValidationErrors
	require.ErrorAs(t, err, &ve)
	require.Len(t, ve, 1)
	assert.Equal(t, "pageSize", ve[0].Field())
	assert.NoError(t, New().Struct(&query{PageSize: "25"}))
}
