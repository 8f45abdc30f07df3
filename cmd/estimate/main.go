package main

import (
    "context"
    "encoding/json"
    "flag"
    "fmt"
    "log"
    "os"
    "strings"
    "time"

    "github.com/joho/godotenv"
    "golang.org/x/sync/errgroup"

    "mandiprice/internal/config"
    "mandiprice/internal/httpx"
    "mandiprice/internal/market"
    "mandiprice/internal/market/fetch"
    "mandiprice/internal/market/lot"
    "mandiprice/internal/market/parse"
    "mandiprice/internal/market/quality"
    "mandiprice/internal/textsource"
    "mandiprice/internal/textsource/cache"
    geminisrc "mandiprice/internal/textsource/gemini"
    "mandiprice/internal/textsource/ratelimit"
    "mandiprice/internal/vision"
    geminivision "mandiprice/internal/vision/gemini"
)

// commonCommodities is shown in help output as a hint for spelling that
// matches what the official sources index.
var commonCommodities = []string{
    "Onion", "Potato", "Tomato", "Wheat", "Paddy (Rice)", "Maize", "Soybean", "Cotton",
    "Sugarcane", "Gram (Chana)", "Turmeric", "Ginger", "Garlic", "Coriander", "Mustard",
    "Apple", "Banana", "Mango", "Grapes", "Orange",
}

func main() {
    _ = godotenv.Load()

    var commoditiesCSV string
    var grade string
    var image string
    var timeout int
    var configPath string

    flag.StringVar(&commoditiesCSV, "commodities", getenv("COMMODITIES", "Onion"),
        "comma-separated commodity names (e.g., "+strings.Join(commonCommodities[:5], ",")+", ...)")
    flag.StringVar(&grade, "grade", getenv("GRADE", ""), "quality grade A/B/C (ignored when -image is set)")
    flag.StringVar(&image, "image", getenv("IMAGE", ""), "path or URL of a commodity image for quality grading (optional)")
    flag.IntVar(&timeout, "timeout", getenvInt("REQUEST_TIMEOUT_SEC", 120), "request timeout seconds")
    flag.StringVar(&configPath, "config", getenv("CONFIG_FILE", ""), "path to config.json (optional)")
    flag.Parse()

    cfg, err := config.Load(configPath)
    if err != nil { log.Fatalf("config: %v", err) }
    if timeout != 0 { cfg.Server.RequestTimeoutSec = timeout }
    tables, err := config.LoadTables(cfg.Market.TablesFile)
    if err != nil { log.Fatalf("tables: %v", err) }

    commodities := splitCSV(commoditiesCSV)
    if len(commodities) == 0 { log.Fatal("no commodities provided") }

    ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.RequestTimeoutSec)*time.Second)
    defer cancel()

    src, err := geminisrc.New(ctx, geminisrc.Config{
        APIKey:      cfg.Gemini.APIKey,
        Model:       cfg.Gemini.Model,
        Temperature: float32(cfg.Gemini.Temperature),
    })
    if err != nil { log.Fatalf("gemini: %v", err) }

    var s textsource.Source = src
    if cfg.Gemini.MaxRequestsPerMinute > 0 {
        rate := float64(cfg.Gemini.MaxRequestsPerMinute) / 60.0
        burst := cfg.Gemini.Burst
        if burst <= 0 { burst = 1 }
        s = &ratelimit.TokenBucketSource{S: s, TB: ratelimit.NewTokenBucket(rate, burst)}
    } else if cfg.Gemini.MinRequestIntervalSec > 0 {
        s = &ratelimit.MinInterval{S: s, Interval: time.Duration(cfg.Gemini.MinRequestIntervalSec) * time.Second}
    }
    if cfg.Gemini.CacheTTLSeconds > 0 {
        s = &cache.Source{S: s, TTL: time.Duration(cfg.Gemini.CacheTTLSeconds) * time.Second, MaxItems: cfg.Gemini.CacheMaxItems}
    }

    parser := parse.New(lot.New(tables.LotSize))
    fetcher := fetch.New(s, parser, fetch.Config{
        Currency: cfg.Market.Currency,
        Factors:  tables.QualityFactors,
        Debug:    cfg.Market.Debug,
    })

    qa := assessment(ctx, cfg, image, grade)

    // independent commodities run concurrently; no shared mutable state
    out := make([]market.AggregateEstimate, len(commodities))
    g, gctx := errgroup.WithContext(ctx)
    for i, c := range commodities {
        i, c := i, c
        g.Go(func() error {
            out[i] = fetcher.Estimate(gctx, c, qa)
            return nil
        })
    }
    _ = g.Wait()

    b, _ := json.MarshalIndent(struct {
        Estimates []market.AggregateEstimate `json:"estimates"`
    }{Estimates: out}, "", "  ")
    fmt.Println(string(b))
}

// assessment resolves the quality assessment: image analysis when an
// image is given, otherwise the bare grade flag, otherwise none.
func assessment(ctx context.Context, cfg config.Config, image, grade string) *market.QualityAssessment {
    if image != "" {
        analyzer, err := geminivision.New(ctx, geminivision.Config{APIKey: cfg.Gemini.APIKey, Model: cfg.Gemini.VisionModel})
        if err != nil {
            log.Printf("vision unavailable, proceeding without image grading: %v", err)
        } else {
            httpClient := httpx.New(time.Duration(cfg.Server.RequestTimeoutSec) * time.Second)
            data, mime, err := vision.LoadImage(ctx, httpClient, image)
            if err != nil {
                log.Printf("image load failed, proceeding without image grading: %v", err)
            } else if text, err := analyzer.Analyze(ctx, data, mime); err != nil {
                log.Printf("image analysis failed, proceeding without image grading: %v", err)
            } else if qa, err := quality.ParseAssessment(text); err != nil {
                log.Printf("assessment parse failed, proceeding without image grading: %v", err)
            } else {
                return &qa
            }
        }
    }
    if g := strings.TrimSpace(grade); g != "" {
        return &market.QualityAssessment{Grade: g}
    }
    return nil
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

func getenv(key, def string) string { if v := os.Getenv(key); v != "" { return v }; return def }
func getenvInt(key string, def int) int {
    if v := os.Getenv(key); v != "" {
        var x int
        _, _ = fmt.Sscanf(v, "%d", &x)
        if x != 0 { return x }
    }
    return def
}
