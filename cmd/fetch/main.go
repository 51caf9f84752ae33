package main

import (
    "context"
    "encoding/json"
    "flag"
    "fmt"
    "log"
    "os"
    "time"

    "github.com/joho/godotenv"

    "stockleague/internal/cache"
    "stockleague/internal/config"
    "stockleague/internal/httpx"
    "stockleague/internal/league"
    "stockleague/internal/twelvedata"
)

// fetch runs the league fetch path from the command line: one invocation
// per call, or -follow to keep invoking until the cycle completes.
func main() {
    var configPath string
    var timeout int
    var follow bool

    flag.StringVar(&configPath, "config", getenv("CONFIG_FILE", ""), "path to config.json (optional)")
    flag.IntVar(&timeout, "timeout", getenvInt("REQUEST_TIMEOUT_SEC", 15), "request timeout seconds")
    flag.BoolVar(&follow, "follow", false, "keep fetching batches until the cycle completes")
    flag.Parse()

    _ = godotenv.Load()

    cfg, err := config.Load(configPath)
    if err != nil { log.Fatalf("config: %v", err) }
    if timeout > 0 { cfg.Server.RequestTimeoutSec = timeout }
    if cfg.TwelveData.APIKey == "" {
        log.Fatal("TWELVE_DATA_API_KEY not set")
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
            log.Printf("shared cache tier unavailable: %v", err)
        } else {
            defer shared.Close()
            tiers = append(tiers, shared)
        }
    }

    svc := league.New(league.Config{
        Symbols:    cfg.League.Symbols,
        StartDate:  cfg.TwelveData.StartDate,
        Interval:   cfg.TwelveData.Interval,
        TTL:        time.Duration(cfg.League.CacheTTLSeconds) * time.Second,
        BatchSize:  cfg.League.MaxSymbolsPerBatch,
        BatchDelay: time.Duration(cfg.League.BatchDelaySeconds) * time.Second,
    }, client, tiers)

    for {
        ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.RequestTimeoutSec)*time.Second*2)
        p := svc.Get(ctx)
        cancel()

        log.Printf("partial=%v fetched=%v remaining=%d errors=%d ttl=%ds",
            p.Partial, p.FetchedSymbols, len(p.Remaining), len(p.Errors), p.CacheTTLSeconds)

        if !follow || !p.Partial {
            b, _ := json.MarshalIndent(p, "", "  ")
            fmt.Println(string(b))
            if len(p.Errors) > 0 && len(p.Series) == 0 {
                os.Exit(1)
            }
            return
        }

        wait := time.Until(*p.NextFetchAfter) + time.Second
        if wait < time.Second { wait = time.Second }
        log.Printf("next batch eligible in %s", wait.Round(time.Second))
        time.Sleep(wait)
    }
}

func getenv(key, def string) string { if v := os.Getenv(key); v != "" { return v }; return def }
func getenvInt(key string, def int) int {
    if v := os.Getenv(key); v != "" {
        var x int
        _, _ = fmt.Sscanf(v, "%d", &x)
        if x != 0 { return x }
    }
    return def
}
