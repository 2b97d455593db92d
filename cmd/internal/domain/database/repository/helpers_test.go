package repository

import (
	"cnpjapi/cmd/internal/domain/entity"
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newSQLiteDB opens an isolated in-memory database with the schema applied.
func newSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&entity.Company{}, &entity.LookupCacheEntry{}))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return db
}

func newMockPostgresDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})
	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	return gormDB, mock, mockDB
}

func strPtr(s string) *string {
	return &s
}

func newCompany(cnpj, name string) *entity.Company {
	return &entity.Company{
		CNPJ:        cnpj,
		RazaoSocial: strPtr(name),
		Raw:         datatypes.JSON(`{"cnpj":"` + cnpj + `"}`),
	}
}

func mustUpsert(t *testing.T, repo *DefaultCompanyRepository, c *entity.Company) *entity.Company {
	t.Helper()
	saved, err := repo.Upsert(context.Background(), c)
	require.NoError(t, err)
	return saved
}

func setUpdatedAt(t *testing.T, db *gorm.DB, cnpj string, at time.Time) {
	t.Helper()
	err := db.Exec("UPDATE companies SET updated_at = ? WHERE cnpj = ?", at.UTC(), cnpj).Error
	require.NoError(t, err)
}
