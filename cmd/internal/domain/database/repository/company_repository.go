package repository

import (
	"cnpjapi/cmd/internal/domain/entity"
	"cnpjapi/cmd/internal/utils"
	"context"
	"math"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// upsertAssignments overwrites every mutable column and refreshes updated_at
// when the CNPJ already exists.
var upsertAssignments = append(
	clause.AssignmentColumns(entity.UpdatableColumns),
	clause.Assignment{Column: clause.Column{Name: "updated_at"}, Value: gorm.Expr("CURRENT_TIMESTAMP")},
)

type DefaultCompanyRepository struct {
	db *gorm.DB
}

func NewCompanyRepository(db *gorm.DB) *DefaultCompanyRepository {
	return &DefaultCompanyRepository{db: db}
}

// Upsert inserts the company or, on CNPJ conflict, updates the existing row.
// The stored row is returned with both timestamps as set by the database.
func (r *DefaultCompanyRepository) Upsert(ctx context.Context, company *entity.Company) (*entity.Company, error) {
	var saved entity.Company
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "cnpj"}},
			DoUpdates: upsertAssignments,
		}).Create(company).Error
		if err != nil {
			return err
		}

		return tx.Where("cnpj = ?", company.CNPJ).First(&saved).Error
	})
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

// Search returns one page of companies matching query, most recently
// updated first, along with the total number of matches.
func (r *DefaultCompanyRepository) Search(ctx context.Context, query string, page, pageSize int) ([]*entity.Company, int64, error) {
	base := r.matching(query)(r.db.WithContext(ctx).Model(&entity.Company{})).
		Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	companies := make([]*entity.Company, 0, pageSize)
	offset, ok := pageOffset(page, pageSize)
	if !ok || offset >= total {
		return companies, total, nil
	}

	err := base.
		Omit("raw").
		Order("updated_at DESC").
		Order("id DESC").
		Limit(pageSize).
		Offset(int(offset)).
		Find(&companies).Error
	if err != nil {
		return nil, 0, err
	}
	return companies, total, nil
}

// pageOffset reports false when page is below 1 or its offset overflows.
func pageOffset(page, pageSize int) (int64, bool) {
	if page < 1 || pageSize < 1 {
		return 0, false
	}
	skipped := int64(page - 1)
	if skipped > math.MaxInt64/int64(pageSize) {
		return 0, false
	}
	return skipped * int64(pageSize), true
}

// matching filters by CNPJ digits or razao_social. A query holding digits
// matches either column, otherwise only the name is compared.
func (r *DefaultCompanyRepository) matching(query string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if query == "" {
			return db
		}

		namePattern := "%" + query + "%"
		nameCond := r.caseInsensitiveLike("razao_social")

		digits := utils.DigitsOnly(query)
		if digits != "" {
			return db.Where("cnpj LIKE ? OR "+nameCond, "%"+digits+"%", namePattern)
		}
		return db.Where(nameCond, namePattern)
	}
}

func (r *DefaultCompanyRepository) caseInsensitiveLike(column string) string {
	if r.db.Dialector.Name() == "postgres" {
		return column + " ILIKE ?"
	}
	return "LOWER(" + column + ") LIKE LOWER(?)"
}
