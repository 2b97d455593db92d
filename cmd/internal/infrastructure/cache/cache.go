package cache

import (
	"context"
	"encoding/json"
	"time"
)

const DefaultTTL = 10 * time.Hour

// Entry is a cached provider answer. Found=false records a provider 404 so
// repeated lookups for unknown CNPJs do not reach the provider.
type Entry struct {
	Found   bool            `json:"found"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// LookupCache stores provider answers by normalized CNPJ. Get returns
// (nil, nil) on a miss.
type LookupCache interface {
	Get(ctx context.Context, cnpj string) (*Entry, error)
	Set(ctx context.Context, cnpj string, entry *Entry) error
}
