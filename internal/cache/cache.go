package cache

import (
    "context"
    "time"

    "stockleague/internal/series"
    "stockleague/internal/twelvedata"
)

// Payload is one cycle snapshot plus cache metadata. It is the unit stored
// in every tier and the exact JSON body returned to clients.
type Payload struct {
    FetchedAt       time.Time                     `json:"fetchedAt"`
    CycleStartedAt  time.Time                     `json:"cycleStartedAt"`
    StartDate       string                        `json:"startDate"`
    EndDate         string                        `json:"endDate"`
    Interval        string                        `json:"interval"`
    Provider        string                        `json:"provider"`
    Symbols         []string                      `json:"symbols"`
    FetchedSymbols  []string                      `json:"fetchedSymbols"`
    Remaining       []string                      `json:"remainingSymbols"`
    Partial         bool                          `json:"partial"`
    NextFetchAfter  *time.Time                    `json:"nextFetchAfter"`
    BatchSize       int                           `json:"batchSize"`
    Series          map[string][]series.Point     `json:"series"`
    Errors          map[string]twelvedata.Failure `json:"errors"`
    Notice          string                        `json:"notice,omitempty"`
    CacheTTLSeconds int                           `json:"cacheTtlSeconds"`
    CacheExpiresAt  time.Time                     `json:"cacheExpiresAt"`
}

// Fresh reports whether the payload's own TTL has not lapsed.
func (p *Payload) Fresh(now time.Time) bool {
    return now.Before(p.CacheExpiresAt)
}

// Tier is one cache layer holding at most one payload per key with a TTL.
// A tier may keep returning an entry after its TTL lapsed (the resolver
// applies the freshness rule via the payload's own metadata), or drop it
// on its own like a provider-managed store; both behaviors are valid.
type Tier interface {
    Name() string
    Get(ctx context.Context, key string) (*Payload, bool, error)
    Put(ctx context.Context, key string, p *Payload, ttl time.Duration) error
}
