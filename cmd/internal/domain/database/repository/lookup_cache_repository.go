package repository

import (
	"cnpjapi/cmd/internal/domain/entity"
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DefaultLookupCacheRepository struct {
	db *gorm.DB
}

func NewLookupCacheRepository(db *gorm.DB) *DefaultLookupCacheRepository {
	return &DefaultLookupCacheRepository{db: db}
}

func (r *DefaultLookupCacheRepository) FindByCNPJ(ctx context.Context, cnpj string) (*entity.LookupCacheEntry, error) {
	var entry entity.LookupCacheEntry
	err := r.db.WithContext(ctx).
		Where("cnpj = ?", cnpj).
		First(&entry).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *DefaultLookupCacheRepository) Save(ctx context.Context, entry *entity.LookupCacheEntry) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(entry).Error
}

func (r *DefaultLookupCacheRepository) DeleteExpired(ctx context.Context, before int64) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("cached_at < ?", before).
		Delete(&entity.LookupCacheEntry{})
	return res.RowsAffected, res.Error
}
