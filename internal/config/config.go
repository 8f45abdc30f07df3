package config

import (
    "encoding/json"
    "errors"
    "fmt"
    "os"
    "strings"
)

type Server struct {
    Port              string `json:"port"`
    RequestTimeoutSec int    `json:"request_timeout_sec"`
}

type Gemini struct {
    APIKey                string  `json:"api_key"`
    Model                 string  `json:"model"`
    VisionModel           string  `json:"vision_model"`
    Temperature           float64 `json:"temperature"`
    MaxRequestsPerMinute  int     `json:"max_requests_per_minute"`
    MinRequestIntervalSec int     `json:"min_request_interval_sec"`
    Burst                 int     `json:"burst"`
    CacheTTLSeconds       int     `json:"cache_ttl_sec"`
    CacheMaxItems         int     `json:"cache_max_items"`
}

type Market struct {
    Currency   string `json:"currency"`
    TablesFile string `json:"tables_file"`
    Debug      bool   `json:"debug"`
}

type Config struct {
    Server Server `json:"server"`
    Gemini Gemini `json:"gemini"`
    Market Market `json:"market"`
}

func Default() Config {
    return Config{
        Server: Server{Port: "8080", RequestTimeoutSec: 60},
        Gemini: Gemini{
            Model:                "gemini-2.0-flash",
            VisionModel:          "gemini-2.0-flash",
            Temperature:          0.1,
            MaxRequestsPerMinute: 10,
            Burst:                2,
            CacheTTLSeconds:      300,
            CacheMaxItems:        1000,
        },
        Market: Market{Currency: "INR"},
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
    if v := os.Getenv("GEMINI_API_KEY"); v != "" { cfg.Gemini.APIKey = v }
    // GOOGLE_API_KEY is the name the Google SDK docs use
    if cfg.Gemini.APIKey == "" {
        if v := os.Getenv("GOOGLE_API_KEY"); v != "" { cfg.Gemini.APIKey = v }
    }
    if v := os.Getenv("GEMINI_MODEL"); v != "" { cfg.Gemini.Model = v }
    if v := os.Getenv("GEMINI_VISION_MODEL"); v != "" { cfg.Gemini.VisionModel = v }
    if v := os.Getenv("GEMINI_TEMPERATURE"); v != "" {
        var x float64; fmt.Sscanf(v, "%g", &x); if x > 0 { cfg.Gemini.Temperature = x }
    }
    if v := os.Getenv("GEMINI_MAX_RPM"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x >= 0 { cfg.Gemini.MaxRequestsPerMinute = x }
    }
    if v := os.Getenv("GEMINI_MIN_INTERVAL_SEC"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x >= 0 { cfg.Gemini.MinRequestIntervalSec = x }
    }
    if v := os.Getenv("GEMINI_BURST"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x > 0 { cfg.Gemini.Burst = x }
    }
    if v := os.Getenv("GEMINI_CACHE_TTL_SEC"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x >= 0 { cfg.Gemini.CacheTTLSeconds = x }
    }
    if v := os.Getenv("GEMINI_CACHE_MAX_ITEMS"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x > 0 { cfg.Gemini.CacheMaxItems = x }
    }
    if v := os.Getenv("CURRENCY"); v != "" { cfg.Market.Currency = v }
    if v := os.Getenv("TABLES_FILE"); v != "" { cfg.Market.TablesFile = v }
    if v := os.Getenv("DEBUG"); v != "" {
        switch strings.ToLower(v) {
        case "1","true","yes","y": cfg.Market.Debug = true
        case "0","false","no","n": cfg.Market.Debug = false
        }
    }
}
