package jobs

import (
	"cnpjapi/cmd/internal/utils"
	"context"
	"time"

	"github.com/labstack/gommon/log"
)

const CleanInterval = 1 * time.Hour

type LookupCacheRepository interface {
	DeleteExpired(ctx context.Context, before int64) (int64, error)
}

// LookupCacheCleaner sweeps database lookup cache rows older than the TTL.
type LookupCacheCleaner struct {
	repo     LookupCacheRepository
	ttl      time.Duration
	interval time.Duration
}

func NewLookupCacheCleaner(repo LookupCacheRepository, ttl time.Duration) *LookupCacheCleaner {
	return &LookupCacheCleaner{repo: repo, ttl: ttl, interval: CleanInterval}
}

func (c *LookupCacheCleaner) Start(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	log.Info("Lookup cache cleaner started")

	for {
		select {
		case <-ctx.Done():
			log.Info("Stopping lookup cache cleaner...")
			return
		case <-ticker.C:
			c.cleanup(ctx)
		}
	}
}

func (c *LookupCacheCleaner) cleanup(ctx context.Context) {
	cutoff := utils.NowMillis() - c.ttl.Milliseconds()

	deleted, err := c.repo.DeleteExpired(ctx, cutoff)
	if err != nil {
		log.Errorf("Cleaner: failed to delete expired lookup cache: %v", err)
		return
	}

	log.Debugf("Cleaner: swept %d lookup cache entries older than %d", deleted, cutoff)
}
