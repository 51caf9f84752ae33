package config

import (
    "encoding/json"
    "errors"
    "fmt"
    "os"
    "strings"
)

// DefaultSymbols is the league roster, in output order.
var DefaultSymbols = []string{
    "DC", "GOOG", "IBM", "SOFI", "NVDA", "AMZN", "LLY", "TTWO",
    "PLTR", "GOOGL", "AVGO", "MSFT", "AZO", "VZ", "HD",
}

type Server struct {
    Port              string `json:"port"`
    RequestTimeoutSec int    `json:"request_timeout_sec"`
}

type TwelveData struct {
    APIKey     string `json:"api_key"`
    Endpoint   string `json:"endpoint"`
    Interval   string `json:"interval"`
    StartDate  string `json:"start_date"`
    OutputSize int    `json:"output_size"`
}

type League struct {
    Symbols            []string `json:"symbols"`
    CacheTTLSeconds    int      `json:"cache_ttl_sec"`
    MaxSymbolsPerBatch int      `json:"max_symbols_per_batch"`
    BatchDelaySeconds  int      `json:"batch_delay_sec"`
    SQLitePath         string   `json:"sqlite_path"`
    WarmCron           string   `json:"warm_cron"`
}

type Config struct {
    Server     Server     `json:"server"`
    TwelveData TwelveData `json:"twelvedata"`
    League     League     `json:"league"`
}

func Default() Config {
    return Config{
        Server: Server{Port: "8080", RequestTimeoutSec: 10},
        TwelveData: TwelveData{
            Endpoint:   "https://api.twelvedata.com",
            Interval:   "1day",
            StartDate:  "2026-01-01",
            OutputSize: 120,
        },
        League: League{
            Symbols:            append([]string(nil), DefaultSymbols...),
            CacheTTLSeconds:    86400,
            MaxSymbolsPerBatch: 8,
            BatchDelaySeconds:  70,
        },
    }
}

// Load reads JSON config from path. If path is empty or file does not exist,
// it returns defaults. Environment variables override select fields for secrecy.
func Load(path string) (Config, error) {
    cfg := Default()
    if path == "" {
        if _, err := os.Stat("config.json"); err == nil {
            path = "config.json"
        }
    }
    if path != "" {
        b, err := os.ReadFile(path)
        if err != nil && !errors.Is(err, os.ErrNotExist) {
            return cfg, fmt.Errorf("read config: %w", err)
        }
        if err == nil {
            if err := json.Unmarshal(b, &cfg); err != nil {
                return cfg, fmt.Errorf("parse config: %w", err)
            }
        }
    }
    applyEnv(&cfg)
    return cfg, nil
}

func applyEnv(cfg *Config) {
    if v := os.Getenv("PORT"); v != "" { cfg.Server.Port = v }
    if v := os.Getenv("REQUEST_TIMEOUT_SEC"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x > 0 { cfg.Server.RequestTimeoutSec = x }
    }
    if v := os.Getenv("TWELVE_DATA_API_KEY"); v != "" { cfg.TwelveData.APIKey = v }
    if v := os.Getenv("TWELVE_DATA_ENDPOINT"); v != "" { cfg.TwelveData.Endpoint = v }
    if v := os.Getenv("INTERVAL"); v != "" { cfg.TwelveData.Interval = v }
    if v := os.Getenv("START_DATE"); v != "" { cfg.TwelveData.StartDate = v }
    if v := os.Getenv("OUTPUT_SIZE"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x > 0 { cfg.TwelveData.OutputSize = x }
    }
    if v := os.Getenv("SYMBOLS"); v != "" { cfg.League.Symbols = splitCSV(v) }
    if v := os.Getenv("CACHE_TTL_SECONDS"); v != "" {
        // Invalid or non-positive values keep the default so a bad TTL
        // can never disable caching outright.
        var x int; fmt.Sscanf(v, "%d", &x); if x > 0 { cfg.League.CacheTTLSeconds = x }
    }
    if v := os.Getenv("MAX_SYMBOLS_PER_BATCH"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x > 0 { cfg.League.MaxSymbolsPerBatch = x }
    }
    if v := os.Getenv("BATCH_DELAY_SECONDS"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x > 0 { cfg.League.BatchDelaySeconds = x }
    }
    if v := os.Getenv("SQLITE_PATH"); v != "" { cfg.League.SQLitePath = v }
    if v := os.Getenv("WARM_CRON"); v != "" { cfg.League.WarmCron = v }
}

func splitCSV(s string) []string {
    parts := strings.Split(s, ",")
    out := make([]string, 0, len(parts))
    for _, p := range parts {
        p = strings.TrimSpace(p)
        if p != "" { out = append(out, p) }
    }
    return out
}
