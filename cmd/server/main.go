package main

import (
    "compress/gzip"
    "context"
    "fmt"
    "io"
    "log"
    "net/http"
    "os"
    "os/signal"
    "strings"
    "sync"
    "syscall"
    "time"

    "github.com/joho/godotenv"
    "github.com/robfig/cron/v3"

    "stockleague/internal/cache"
    "stockleague/internal/config"
    "stockleague/internal/httpx"
    "stockleague/internal/league"
    "stockleague/internal/twelvedata"
)

func main() {
    // .env is optional; real deployments use the environment directly.
    _ = godotenv.Load()

    cfgPath := os.Getenv("CONFIG_FILE")
    cfg, err := config.Load(cfgPath)
    if err != nil { log.Fatalf("config: %v", err) }
    port := cfg.Server.Port

    if cfg.TwelveData.APIKey == "" {
        log.Println("warning: TWELVE_DATA_API_KEY not set; /api/league will return a configuration error")
    }

    httpClient := httpx.New(time.Duration(cfg.Server.RequestTimeoutSec) * time.Second)

    client, err := twelvedata.NewClient(
        cfg.TwelveData.APIKey,
        twelvedata.WithHTTPClient(httpClient),
        twelvedata.WithBaseURL(cfg.TwelveData.Endpoint),
        twelvedata.WithInterval(cfg.TwelveData.Interval),
        twelvedata.WithStartDate(cfg.TwelveData.StartDate),
        twelvedata.WithOutputSize(cfg.TwelveData.OutputSize),
    )
    if err != nil { log.Fatalf("twelvedata client: %v", err) }

    tiers := []cache.Tier{cache.NewMemory()}
    if cfg.League.SQLitePath != "" {
        shared, err := cache.NewSQLite(cfg.League.SQLitePath)
        if err != nil {
            log.Printf("warning: shared cache tier unavailable, continuing without it: %v", err)
        } else {
            defer shared.Close()
            tiers = append(tiers, shared)
            log.Printf("shared cache tier: sqlite at %s", cfg.League.SQLitePath)
        }
    }

    svc := league.New(league.Config{
        Symbols:           cfg.League.Symbols,
        StartDate:         cfg.TwelveData.StartDate,
        Interval:          cfg.TwelveData.Interval,
        TTL:               time.Duration(cfg.League.CacheTTLSeconds) * time.Second,
        BatchSize:         cfg.League.MaxSymbolsPerBatch,
        BatchDelay:        time.Duration(cfg.League.BatchDelaySeconds) * time.Second,
        MissingCredential: cfg.TwelveData.APIKey == "",
    }, client, tiers)

    // Optional cache warm: advances the in-flight cycle on a schedule so
    // the first reader of the day does not pay the batch cool-downs.
    var warm *cron.Cron
    if cfg.League.WarmCron != "" && cfg.TwelveData.APIKey != "" {
        warm = cron.New()
        if _, err := warm.AddFunc(cfg.League.WarmCron, func() {
            ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
            defer cancel()
            p := svc.Get(ctx)
            log.Printf("cache warm: partial=%v remaining=%d errors=%d", p.Partial, len(p.Remaining), len(p.Errors))
        }); err != nil {
            log.Fatalf("warm cron %q: %v", cfg.League.WarmCron, err)
        }
        warm.Start()
        log.Printf("cache warm scheduled: %q", cfg.League.WarmCron)
    }

    mux := http.NewServeMux()
    mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
        w.WriteHeader(http.StatusOK)
        _, _ = w.Write([]byte("ok"))
    })
    mux.Handle("/api/league", svc.Handler())

    srv := &http.Server{
        Addr:              ":" + port,
        Handler:           withJSONHeaders(withGzip(recoverPanic(mux))),
        ReadHeaderTimeout: 5 * time.Second,
        ReadTimeout:       15 * time.Second,
        WriteTimeout:      30 * time.Second,
        IdleTimeout:       60 * time.Second,
    }

    go func() {
        log.Printf("server listening on :%s", port)
        if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
            log.Fatalf("server: %v", err)
        }
    }()

    // graceful shutdown
    ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
    defer stop()
    <-ctx.Done()
    if warm != nil {
        warm.Stop()
    }
    shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
    defer cancel()
    _ = srv.Shutdown(shutdownCtx)
}

func withJSONHeaders(next http.Handler) http.Handler {
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        w.Header().Set("Content-Type", "application/json; charset=utf-8")
        // Basic CORS for browser usage; adjust as needed.
        w.Header().Set("Access-Control-Allow-Origin", "*")
        w.Header().Set("Access-Control-Allow-Methods", "GET,OPTIONS")
        w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
        if r.Method == http.MethodOptions {
            w.WriteHeader(http.StatusNoContent)
            return
        }
        next.ServeHTTP(w, r)
    })
}

// withGzip compresses response when client supports gzip.
func withGzip(next http.Handler) http.Handler {
    var gzPool = sync.Pool{New: func() any {
        // Prefer best speed to reduce CPU usage since payloads are JSON
        w, _ := gzip.NewWriterLevel(io.Discard, gzip.BestSpeed)
        return w
    }}
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
            next.ServeHTTP(w, r)
            return
        }
        gz := gzPool.Get().(*gzip.Writer)
        gz.Reset(w)
        defer func() {
            _ = gz.Close()
            gz.Reset(io.Discard)
            gzPool.Put(gz)
        }()
        w.Header().Set("Content-Encoding", "gzip")
        w.Header().Add("Vary", "Accept-Encoding")
        gw := gzipResponseWriter{ResponseWriter: w, Writer: gz}
        next.ServeHTTP(gw, r)
    })
}

type gzipResponseWriter struct {
    http.ResponseWriter
    Writer io.Writer
}

func (g gzipResponseWriter) Write(b []byte) (int, error) {
    return g.Writer.Write(b)
}

// recoverPanic protects handlers from panics and surfaces them as the
// structured error body, cached only briefly.
func recoverPanic(next http.Handler) http.Handler {
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        defer func() {
            if rec := recover(); rec != nil {
                log.Printf("panic serving %s: %v", r.URL.Path, rec)
                league.WriteError(w, http.StatusInternalServerError, "internal server error", fmt.Sprint(rec))
            }
        }()
        next.ServeHTTP(w, r)
    })
}
