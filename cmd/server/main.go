package main

import (
    "compress/gzip"
    "context"
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

    "mandiprice/internal/config"
    "mandiprice/internal/httpx"
    "mandiprice/internal/market/fetch"
    "mandiprice/internal/market/lot"
    "mandiprice/internal/market/parse"
    "mandiprice/internal/textsource"
    "mandiprice/internal/textsource/cache"
    geminisrc "mandiprice/internal/textsource/gemini"
    "mandiprice/internal/textsource/ratelimit"
    "mandiprice/internal/vision"
    geminivision "mandiprice/internal/vision/gemini"
)

func main() {
    _ = godotenv.Load()

    cfgPath := os.Getenv("CONFIG_FILE")
    cfg, err := config.Load(cfgPath)
    if err != nil { log.Fatalf("config: %v", err) }
    tables, err := config.LoadTables(cfg.Market.TablesFile)
    if err != nil { log.Fatalf("tables: %v", err) }

    ctx := context.Background()
    src, err := geminisrc.New(ctx, geminisrc.Config{
        APIKey:      cfg.Gemini.APIKey,
        Model:       cfg.Gemini.Model,
        Temperature: float32(cfg.Gemini.Temperature),
    })
    if err != nil { log.Fatalf("gemini: %v", err) }

    var s textsource.Source = src
    // Prefer token bucket with burst if RPM is set, otherwise use min-interval
    if cfg.Gemini.MaxRequestsPerMinute > 0 {
        rate := float64(cfg.Gemini.MaxRequestsPerMinute) / 60.0
        burst := cfg.Gemini.Burst
        if burst <= 0 { burst = 1 }
        s = &ratelimit.TokenBucketSource{S: s, TB: ratelimit.NewTokenBucket(rate, burst)}
    } else if cfg.Gemini.MinRequestIntervalSec > 0 {
        interval := time.Duration(cfg.Gemini.MinRequestIntervalSec) * time.Second
        s = &ratelimit.MinInterval{S: s, Interval: interval}
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

    var analyzer vision.Analyzer
    if va, err := geminivision.New(ctx, geminivision.Config{APIKey: cfg.Gemini.APIKey, Model: cfg.Gemini.VisionModel}); err != nil {
        log.Printf("warning: vision analysis disabled: %v", err)
    } else {
        analyzer = va
    }

    httpClient := httpx.New(time.Duration(cfg.Server.RequestTimeoutSec) * time.Second)

    mux := http.NewServeMux()
    mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
        w.WriteHeader(http.StatusOK)
        _, _ = w.Write([]byte("ok"))
    })
    mux.HandleFunc("/api/estimate", func(w http.ResponseWriter, r *http.Request) {
        switch r.Method {
        case http.MethodGet:
            handleGetEstimates(w, r, fetcher)
        case http.MethodPost:
            handlePostEstimates(w, r, fetcher, analyzer, httpClient)
        default:
            http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
        }
    })

    srv := &http.Server{
        Addr:              ":" + cfg.Server.Port,
        Handler:           withJSONHeaders(withGzip(recoverPanic(limitBody(mux)))),
        ReadHeaderTimeout: 5 * time.Second,
        ReadTimeout:       15 * time.Second,
        WriteTimeout:      time.Duration(cfg.Server.RequestTimeoutSec+10) * time.Second,
        IdleTimeout:       60 * time.Second,
    }

    go func() {
        log.Printf("server listening on :%s", cfg.Server.Port)
        if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
            log.Fatalf("server: %v", err)
        }
    }()

    // graceful shutdown
    sctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
    defer stop()
    <-sctx.Done()
    shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
    defer cancel()
    _ = srv.Shutdown(shutdownCtx)
}

func withJSONHeaders(next http.Handler) http.Handler {
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        w.Header().Set("Content-Type", "application/json; charset=utf-8")
        // Basic CORS for browser usage; adjust as needed.
        w.Header().Set("Access-Control-Allow-Origin", "*")
        w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
        w.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
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

// limitBody caps request body size to avoid memory abuse.
func limitBody(next http.Handler) http.Handler {
    const maxBody = 1 << 20 // 1MB
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        if r.Method == http.MethodPost && r.Body != nil {
            r.Body = http.MaxBytesReader(w, r.Body, maxBody)
        }
        next.ServeHTTP(w, r)
    })
}

// recoverPanic protects handlers from panics.
func recoverPanic(next http.Handler) http.Handler {
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        defer func() {
            if rec := recover(); rec != nil {
                http.Error(w, "internal server error", http.StatusInternalServerError)
            }
        }()
        next.ServeHTTP(w, r)
    })
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
