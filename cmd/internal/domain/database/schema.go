package database

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/labstack/gommon/log"
)

// Schema sets up the tables once the database can be reached. Failed
// attempts are retried on the next Ensure, a successful one is never
// repeated.
type Schema struct {
	apply func(ctx context.Context) error

	mu    sync.Mutex
	ready atomic.Bool
}

func newSchema(apply func(ctx context.Context) error) *Schema {
	return &Schema{apply: apply}
}

func (s *Schema) Ready() bool {
	return s.ready.Load()
}

func (s *Schema) Ensure(ctx context.Context) error {
	if s.ready.Load() {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ready.Load() {
		return nil
	}

	if err := s.apply(ctx); err != nil {
		return fmt.Errorf("setting up schema: %w", err)
	}
	s.ready.Store(true)
	log.Info("database schema is ready")
	return nil
}

// Await calls Ensure until it succeeds or ctx is done, doubling the wait
// between attempts up to maxDelay.
func (s *Schema) Await(ctx context.Context, delay, maxDelay time.Duration) error {
	for {
		err := s.Ensure(ctx)
		if err == nil {
			return nil
		}
		log.Warnf("database not ready, retrying in %s: %v", delay, err)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay = min(delay*2, maxDelay)
	}
}
