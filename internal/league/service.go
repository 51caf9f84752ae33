package league

import (
    "context"
    "log"
    "time"

    "golang.org/x/sync/errgroup"

    "stockleague/internal/cache"
    "stockleague/internal/cycle"
    "stockleague/internal/series"
    "stockleague/internal/twelvedata"
)

const (
    // ProviderName appears in every payload.
    ProviderName = "twelvedata"
    // ShortTTL caches total failures and error responses briefly so the
    // system retries soon instead of pinning an outage for a full day.
    ShortTTL = 60 * time.Second
    // DefaultTTL caches a completed cycle for the rest of the day.
    DefaultTTL = 24 * time.Hour
    // DefaultKey is the canonical request identity for the cache tiers.
    DefaultKey = "GET /api/league"
)

// Fetcher fetches one symbol's daily series; all failure modes come back
// as data inside the Result.
type Fetcher interface {
    FetchSeries(ctx context.Context, symbol, endDate string) twelvedata.Result
}

// Config tunes the service. Zero values fall back to defaults.
type Config struct {
    Symbols    []string      // roster, in output order
    StartDate  string        // season start, YYYY-MM-DD
    Interval   string        // bar interval reported in the payload
    TTL        time.Duration // cache TTL for a completed cycle
    BatchSize  int           // max upstream calls per invocation
    BatchDelay time.Duration // cool-down between batches
    Key        string        // cache key (canonical request identity)
    // MissingCredential short-circuits requests with a configuration
    // error response when the upstream credential is absent.
    MissingCredential bool
}

// Service answers "give me the league's close-price series" from two
// cache tiers and an in-flight fetch cycle. Tiers are consulted in
// priority order: index 0 is the fast in-process tier and is written
// synchronously, later tiers are shared and written fire-and-forget.
type Service struct {
    cfg   Config
    fetch Fetcher
    tiers []cache.Tier
    now   func() time.Time
}

func New(cfg Config, f Fetcher, tiers []cache.Tier) *Service {
    if cfg.StartDate == "" { cfg.StartDate = "2026-01-01" }
    if cfg.Interval == "" { cfg.Interval = "1day" }
    if cfg.TTL <= 0 { cfg.TTL = DefaultTTL }
    if cfg.BatchSize <= 0 { cfg.BatchSize = cycle.DefaultBatchSize }
    if cfg.BatchDelay <= 0 { cfg.BatchDelay = cycle.DefaultBatchDelay }
    if cfg.Key == "" { cfg.Key = DefaultKey }
    return &Service{cfg: cfg, fetch: f, tiers: tiers, now: time.Now}
}

// Get returns the current aggregated payload: a cached one when it is
// fresh and not due for resumption, otherwise the result of folding the
// next batch into the in-flight cycle (or starting a new one).
func (s *Service) Get(ctx context.Context) *cache.Payload {
    now := s.now().UTC()
    today := now.Format("2006-01-02")

    serve, base := s.resolve(ctx, now)
    if serve != nil { return serve }

    var st cycle.State
    switch {
    case base != nil:
        st = stateFromPayload(base)
    case today < s.cfg.StartDate:
        // Season gate: terminal empty payload until the calendar advances.
        st = cycle.NewNotStarted(s.cfg.Symbols, today, now)
        p := s.assemble(st, now)
        s.store(ctx, p)
        return p
    default:
        st = cycle.New(s.cfg.Symbols, today, now)
    }

    batch := cycle.NextBatch(st.Remaining, s.cfg.BatchSize)
    results := s.fetchBatch(ctx, batch, st.EndDate)
    st = cycle.Fold(st, s.cfg.Symbols, results, now, s.cfg.BatchDelay)

    p := s.assemble(st, now)
    s.store(ctx, p)
    return p
}

// resolve applies one freshness rule across the ordered tiers: serve a
// payload that is fresh and not yet eligible for resumption, use an
// in-progress payload past its cool-down as the resumption base, skip
// everything else. Tier errors are treated as misses.
func (s *Service) resolve(ctx context.Context, now time.Time) (serve, base *cache.Payload) {
    for _, tier := range s.tiers {
        p, ok, err := tier.Get(ctx, s.cfg.Key)
        if err != nil {
            log.Printf("cache %s get: %v", tier.Name(), err)
            continue
        }
        if !ok || p == nil { continue }
        if p.Fresh(now) && (!p.Partial || p.NextFetchAfter == nil || now.Before(*p.NextFetchAfter)) {
            return p, nil
        }
        if p.Partial {
            return nil, p
        }
        // Expired complete payload: nothing to resume, keep scanning.
    }
    return nil, nil
}

// fetchBatch fans out one upstream call per symbol and waits for all of
// them. A slow or failing symbol cannot lose the others' results because
// every outcome is carried as data.
func (s *Service) fetchBatch(ctx context.Context, symbols []string, endDate string) []twelvedata.Result {
    results := make([]twelvedata.Result, len(symbols))
    g, gctx := errgroup.WithContext(ctx)
    for i, sym := range symbols {
        i, sym := i, sym
        g.Go(func() error {
            results[i] = s.fetch.FetchSeries(gctx, sym, endDate)
            return nil
        })
    }
    _ = g.Wait()
    return results
}

// assemble computes the payload TTL from cycle state and stamps the cache
// metadata: total failure and partial progress expire quickly so the next
// request can retry or resume, only a complete cycle earns the full TTL.
func (s *Service) assemble(st cycle.State, now time.Time) *cache.Payload {
    ttl := s.cfg.TTL
    switch {
    case s.allFailed(st):
        ttl = ShortTTL
    case st.Partial:
        // Expire right when the next batch becomes eligible.
        ttl = st.NextFetchAfter.Sub(now)
        if ttl < ShortTTL { ttl = ShortTTL }
        if rem := ttl % time.Second; rem != 0 { ttl += time.Second - rem }
    case st.Notice == cycle.NoticeSeasonNotStarted:
        // Expire no later than the season start so the gate cannot keep
        // serving "not started" into the season.
        if start, err := time.Parse("2006-01-02", s.cfg.StartDate); err == nil {
            if until := start.Sub(now); until < ttl { ttl = until }
            if ttl < ShortTTL { ttl = ShortTTL }
            if rem := ttl % time.Second; rem != 0 { ttl += time.Second - rem }
        }
    }

    p := &cache.Payload{
        FetchedAt:       now,
        CycleStartedAt:  st.StartedAt,
        StartDate:       s.cfg.StartDate,
        EndDate:         st.EndDate,
        Interval:        s.cfg.Interval,
        Provider:        ProviderName,
        Symbols:         emptyIfNil(s.cfg.Symbols),
        FetchedSymbols:  emptyIfNil(st.FetchedSymbols),
        Remaining:       emptyIfNil(st.Remaining),
        Partial:         st.Partial,
        BatchSize:       s.cfg.BatchSize,
        Series:          st.Series,
        Errors:          st.Errors,
        Notice:          st.Notice,
        CacheTTLSeconds: int(ttl / time.Second),
        CacheExpiresAt:  now.Add(ttl),
    }
    if st.Partial {
        after := st.NextFetchAfter
        p.NextFetchAfter = &after
    }
    if p.Series == nil { p.Series = map[string][]series.Point{} }
    if p.Errors == nil { p.Errors = map[string]twelvedata.Failure{} }
    return p
}

// store writes the payload through the tiers: the fast tier synchronously
// on the response path, shared tiers fire-and-forget so a slow store
// cannot delay the response. Writes are best-effort.
func (s *Service) store(ctx context.Context, p *cache.Payload) {
    ttl := time.Duration(p.CacheTTLSeconds) * time.Second
    for i, tier := range s.tiers {
        if i == 0 {
            if err := tier.Put(ctx, s.cfg.Key, p, ttl); err != nil {
                log.Printf("cache %s put: %v", tier.Name(), err)
            }
            continue
        }
        tier := tier
        go func() {
            // Detached from the request context: the response may already
            // be written by the time this lands.
            wctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
            defer cancel()
            if err := tier.Put(wctx, s.cfg.Key, p, ttl); err != nil {
                log.Printf("cache %s put: %v", tier.Name(), err)
            }
        }()
    }
}

// allFailed reports whether every roster symbol ended this cycle in error.
func (s *Service) allFailed(st cycle.State) bool {
    if len(st.Errors) == 0 { return false }
    for _, sym := range s.cfg.Symbols {
        if _, ok := st.Errors[sym]; !ok { return false }
    }
    return true
}

func stateFromPayload(p *cache.Payload) cycle.State {
    st := cycle.State{
        StartedAt: p.CycleStartedAt,
        EndDate:   p.EndDate,
        Series:    p.Series,
        Errors:    p.Errors,
        Remaining: p.Remaining,
        Partial:   p.Partial,
        Notice:    p.Notice,
    }
    if p.NextFetchAfter != nil { st.NextFetchAfter = *p.NextFetchAfter }
    if st.Series == nil { st.Series = map[string][]series.Point{} }
    if st.Errors == nil { st.Errors = map[string]twelvedata.Failure{} }
    return st
}

func emptyIfNil(in []string) []string {
    if in == nil { return []string{} }
    return in
}
