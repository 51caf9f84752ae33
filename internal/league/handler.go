package league

import (
    "encoding/json"
    "fmt"
    "net/http"
    "time"

    "stockleague/internal/cache"
)

// Handler serves the single read operation: the current aggregated
// payload. A missing upstream credential is a configuration error and
// never reaches the fetch path.
func (s *Service) Handler() http.Handler {
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        if r.Method != http.MethodGet {
            http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
            return
        }
        if s.cfg.MissingCredential {
            WriteError(w, http.StatusInternalServerError, "Missing TWELVE_DATA_API_KEY.", "set it in the environment or config file")
            return
        }
        p := s.Get(r.Context())
        WritePayload(w, p, s.now().UTC())
    })
}

// WritePayload emits the payload with a shared-cache directive covering
// its remaining TTL. A re-served payload keeps its body unchanged; only
// the directive's window shrinks as the expiry approaches.
func WritePayload(w http.ResponseWriter, p *cache.Payload, now time.Time) {
    w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=0, s-maxage=%d", remainingTTL(p, now)))
    w.WriteHeader(http.StatusOK)
    enc := json.NewEncoder(w)
    enc.SetEscapeHTML(false)
    _ = enc.Encode(p)
}

// WriteError emits the structured {error, details} body used for
// configuration and unexpected internal errors, cached only briefly.
func WriteError(w http.ResponseWriter, status int, msg, details string) {
    w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=0, s-maxage=%d", int(ShortTTL/time.Second)))
    w.WriteHeader(status)
    body := struct {
        Error   string `json:"error"`
        Details string `json:"details,omitempty"`
    }{Error: msg, Details: details}
    enc := json.NewEncoder(w)
    enc.SetEscapeHTML(false)
    _ = enc.Encode(body)
}

func remainingTTL(p *cache.Payload, now time.Time) int {
    secs := int(p.CacheExpiresAt.Sub(now) / time.Second)
    if secs < 0 { secs = 0 }
    return secs
}
