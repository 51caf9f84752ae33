package cycle

import (
    "strings"
    "time"

    "stockleague/internal/series"
    "stockleague/internal/twelvedata"
)

const (
    // DefaultBatchSize bounds upstream calls per invocation when the
    // configured size is missing or non-positive.
    DefaultBatchSize = 8
    // DefaultBatchDelay spaces consecutive batches so the upstream
    // per-minute quota can reset between invocations.
    DefaultBatchDelay = 70 * time.Second
)

// NoticeNoData annotates a cycle that completed because the upstream has
// no data anywhere in the requested range (weekend, pre-open, holiday).
const NoticeNoData = "Upstream reports no data for the requested date range yet."

// NoticeSeasonNotStarted annotates the degenerate cycle served before the
// season start date.
const NoticeSeasonNotStarted = "Season has not started; no price data before the start date."

// State is a snapshot of one fetch cycle: the accumulated series and
// errors for an as-of date, plus what is still left to fetch. A State is
// a value; Fold returns a new one and never mutates its input.
type State struct {
    StartedAt      time.Time
    EndDate        string
    FetchedSymbols []string
    Series         map[string][]series.Point
    Errors         map[string]twelvedata.Failure
    Remaining      []string
    Partial        bool
    NextFetchAfter time.Time
    Notice         string
}

// New begins a cycle for endDate with the full roster remaining.
func New(roster []string, endDate string, now time.Time) State {
    return State{
        StartedAt: now,
        EndDate:   endDate,
        Series:    map[string][]series.Point{},
        Errors:    map[string]twelvedata.Failure{},
        Remaining: append([]string(nil), roster...),
        Partial:   true,
    }
}

// NewNotStarted is the terminal empty cycle served while endDate precedes
// the season start date. Nothing is fetched; the full roster stays listed
// as remaining so readers can see what the league will track.
func NewNotStarted(roster []string, endDate string, now time.Time) State {
    return State{
        StartedAt: now,
        EndDate:   endDate,
        Series:    map[string][]series.Point{},
        Errors:    map[string]twelvedata.Failure{},
        Remaining: append([]string(nil), roster...),
        Partial:   false,
        Notice:    NoticeSeasonNotStarted,
    }
}

// NextBatch selects the first size elements of remaining, in roster order.
// A non-positive size falls back to DefaultBatchSize. This is the only
// mechanism bounding upstream calls per invocation.
func NextBatch(remaining []string, size int) []string {
    if size <= 0 { size = DefaultBatchSize }
    if len(remaining) <= size {
        return append([]string(nil), remaining...)
    }
    return append([]string(nil), remaining[:size]...)
}

// Fold merges one batch of fetch results into the state and returns the
// successor snapshot. Within a cycle a later result for a symbol
// overwrites an earlier one, and a symbol is never counted as both a
// success and a failure. When the whole batch failed with the upstream
// no-data message the cycle completes with cleared errors instead of
// burning retries on a range that has nothing to return.
func Fold(s State, roster []string, results []twelvedata.Result, now time.Time, delay time.Duration) State {
    next := State{
        StartedAt: s.StartedAt,
        EndDate:   s.EndDate,
        Series:    make(map[string][]series.Point, len(s.Series)+len(results)),
        Errors:    make(map[string]twelvedata.Failure, len(s.Errors)),
        Notice:    s.Notice,
    }
    for sym, pts := range s.Series { next.Series[sym] = pts }
    for sym, f := range s.Errors { next.Errors[sym] = f }

    next.FetchedSymbols = make([]string, 0, len(results))
    for _, r := range results {
        next.FetchedSymbols = append(next.FetchedSymbols, r.Symbol)
        if r.OK() {
            next.Series[r.Symbol] = r.Points
            delete(next.Errors, r.Symbol)
        } else {
            next.Errors[r.Symbol] = *r.Err
            delete(next.Series, r.Symbol)
        }
    }

    if allNoData(results) {
        // Benign terminal condition: the market has nothing in range, so
        // every symbol is resolved and accumulated errors are dropped.
        next.Errors = map[string]twelvedata.Failure{}
        next.Remaining = nil
        next.Notice = NoticeNoData
    } else {
        for _, sym := range roster {
            if _, ok := next.Series[sym]; ok { continue }
            if _, ok := next.Errors[sym]; ok { continue }
            next.Remaining = append(next.Remaining, sym)
        }
    }

    next.Partial = len(next.Remaining) > 0
    if next.Partial {
        if delay <= 0 { delay = DefaultBatchDelay }
        next.NextFetchAfter = now.Add(delay)
    }
    return next
}

// allNoData reports whether the batch consists solely of failures carrying
// the upstream no-data message.
func allNoData(results []twelvedata.Result) bool {
    if len(results) == 0 { return false }
    for _, r := range results {
        if r.OK() || !strings.Contains(r.Err.Message, twelvedata.NoDataMessage) {
            return false
        }
    }
    return true
}

// Complete reports whether the cycle has resolved the whole roster.
func (s State) Complete() bool { return !s.Partial }

// Resumable reports whether an in-progress cycle may fetch its next batch.
// Before NextFetchAfter the snapshot must be served as-is.
func (s State) Resumable(now time.Time) bool {
    return s.Partial && !now.Before(s.NextFetchAfter)
}
