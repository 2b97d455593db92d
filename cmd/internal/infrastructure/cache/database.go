package cache

import (
	"cnpjapi/cmd/internal/domain/entity"
	"cnpjapi/cmd/internal/utils"
	"context"
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

type LookupCacheRepository interface {
	FindByCNPJ(ctx context.Context, cnpj string) (*entity.LookupCacheEntry, error)
	Save(ctx context.Context, entry *entity.LookupCacheEntry) error
}

// DatabaseCache keeps lookups in the lookup_cache table. Expired rows are
// ignored on read and removed by jobs.LookupCacheCleaner.
type DatabaseCache struct {
	repo LookupCacheRepository
	ttl  time.Duration
	now  func() int64
}

func NewDatabaseCache(repo LookupCacheRepository, ttl time.Duration) *DatabaseCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &DatabaseCache{repo: repo, ttl: ttl, now: utils.NowMillis}
}

func (d *DatabaseCache) Get(ctx context.Context, cnpj string) (*Entry, error) {
	row, err := d.repo.FindByCNPJ(ctx, cnpj)
	if err != nil || row == nil {
		return nil, err
	}

	if row.CachedAt < d.now()-d.ttl.Milliseconds() {
		return nil, nil
	}
	return &Entry{Found: row.Found, Payload: json.RawMessage(row.Payload)}, nil
}

func (d *DatabaseCache) Set(ctx context.Context, cnpj string, entry *Entry) error {
	return d.repo.Save(ctx, &entity.LookupCacheEntry{
		CNPJ:     cnpj,
		Found:    entry.Found,
		Payload:  datatypes.JSON(entry.Payload),
		CachedAt: d.now(),
	})
}
