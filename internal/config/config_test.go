package config

import (
    "os"
    "path/filepath"
    "testing"
)

func TestLoad_DefaultsWhenNoFile(t *testing.T) {
    cfg, err := Load(filepath.Join(t.TempDir(), "missing.json"))
    if err != nil {
        t.Fatalf("load: %v", err)
    }
    if cfg.Server.Port != "8080" { t.Fatalf("port=%s", cfg.Server.Port) }
    if cfg.League.CacheTTLSeconds != 86400 { t.Fatalf("ttl=%d", cfg.League.CacheTTLSeconds) }
    if cfg.League.MaxSymbolsPerBatch != 8 { t.Fatalf("batch=%d", cfg.League.MaxSymbolsPerBatch) }
    if cfg.League.BatchDelaySeconds != 70 { t.Fatalf("delay=%d", cfg.League.BatchDelaySeconds) }
    if cfg.TwelveData.StartDate != "2026-01-01" { t.Fatalf("start=%s", cfg.TwelveData.StartDate) }
    if len(cfg.League.Symbols) != len(DefaultSymbols) {
        t.Fatalf("symbols=%v", cfg.League.Symbols)
    }
}

func TestLoad_FileAndEnvOverrides(t *testing.T) {
    path := filepath.Join(t.TempDir(), "config.json")
    body := []byte(`{
        "server": {"port": "9090"},
        "league": {"max_symbols_per_batch": 4, "symbols": ["GOOG", "IBM"]}
    }`)
    if err := os.WriteFile(path, body, 0o644); err != nil {
        t.Fatalf("write: %v", err)
    }

    t.Setenv("TWELVE_DATA_API_KEY", "secret")
    t.Setenv("CACHE_TTL_SECONDS", "120")
    t.Setenv("BATCH_DELAY_SECONDS", "35")

    cfg, err := Load(path)
    if err != nil {
        t.Fatalf("load: %v", err)
    }
    if cfg.Server.Port != "9090" { t.Fatalf("port=%s", cfg.Server.Port) }
    if cfg.League.MaxSymbolsPerBatch != 4 { t.Fatalf("batch=%d", cfg.League.MaxSymbolsPerBatch) }
    if len(cfg.League.Symbols) != 2 { t.Fatalf("symbols=%v", cfg.League.Symbols) }
    if cfg.TwelveData.APIKey != "secret" { t.Fatal("env key override lost") }
    if cfg.League.CacheTTLSeconds != 120 { t.Fatalf("ttl=%d", cfg.League.CacheTTLSeconds) }
    if cfg.League.BatchDelaySeconds != 35 { t.Fatalf("delay=%d", cfg.League.BatchDelaySeconds) }
}

func TestLoad_RejectsInvalidTTL(t *testing.T) {
    t.Setenv("CACHE_TTL_SECONDS", "not-a-number")
    cfg, err := Load(filepath.Join(t.TempDir(), "missing.json"))
    if err != nil {
        t.Fatalf("load: %v", err)
    }
    if cfg.League.CacheTTLSeconds != 86400 {
        t.Fatalf("invalid TTL must keep the default, got %d", cfg.League.CacheTTLSeconds)
    }

    t.Setenv("CACHE_TTL_SECONDS", "-5")
    cfg, _ = Load(filepath.Join(t.TempDir(), "missing.json"))
    if cfg.League.CacheTTLSeconds != 86400 {
        t.Fatalf("non-positive TTL must keep the default, got %d", cfg.League.CacheTTLSeconds)
    }
}
