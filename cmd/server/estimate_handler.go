package main

import (
    "context"
    "encoding/json"
    "log"
    "net/http"
    "strings"
    "sync"

    "github.com/google/uuid"

    "mandiprice/internal/httpx"
    "mandiprice/internal/market"
    "mandiprice/internal/market/fetch"
    "mandiprice/internal/market/quality"
    "mandiprice/internal/vision"
)

// maxCommodities bounds one request's fan-out; each commodity costs up
// to two agent queries.
const maxCommodities = 20

type estimatesResponse struct {
    Estimates []market.AggregateEstimate `json:"estimates"`
}

func handleGetEstimates(w http.ResponseWriter, r *http.Request, f *fetch.Fetcher) {
    q := r.URL.Query().Get("commodities")
    if strings.TrimSpace(q) == "" {
        http.Error(w, "missing commodities query param", http.StatusBadRequest)
        return
    }
    commodities := splitCSV(q)
    if len(commodities) > maxCommodities {
        http.Error(w, "too many commodities (max 20)", http.StatusBadRequest)
        return
    }
    var qa *market.QualityAssessment
    if g := strings.TrimSpace(r.URL.Query().Get("grade")); g != "" {
        qa = &market.QualityAssessment{Grade: g}
    }
    writeEstimates(w, r.Context(), f, commodities, qa)
}

type postBody struct {
    Commodities []string `json:"commodities"`
    Grade       string   `json:"grade"`
    ImageURL    string   `json:"image_url"`
}

func handlePostEstimates(w http.ResponseWriter, r *http.Request, f *fetch.Fetcher, analyzer vision.Analyzer, img *httpx.Client) {
    var b postBody
    dec := json.NewDecoder(r.Body)
    dec.DisallowUnknownFields()
    if err := dec.Decode(&b); err != nil {
        http.Error(w, "invalid JSON body", http.StatusBadRequest)
        return
    }
    if len(b.Commodities) == 0 {
        http.Error(w, "commodities cannot be empty", http.StatusBadRequest)
        return
    }
    if len(b.Commodities) > maxCommodities {
        http.Error(w, "too many commodities (max 20)", http.StatusBadRequest)
        return
    }

    reqID := uuid.NewString()
    var qa *market.QualityAssessment
    if b.ImageURL != "" && analyzer != nil {
        if got := assessImage(r.Context(), reqID, analyzer, img, b.ImageURL); got != nil {
            qa = got
        }
    }
    // image assessment wins over a caller-supplied grade
    if qa == nil && strings.TrimSpace(b.Grade) != "" {
        qa = &market.QualityAssessment{Grade: strings.TrimSpace(b.Grade)}
    }
    writeEstimates(w, r.Context(), f, b.Commodities, qa)
}

// assessImage runs the vision round trip. Any failure (load, analyze,
// missing Grade) drops the assessment and the request proceeds
// ungraded.
func assessImage(ctx context.Context, reqID string, analyzer vision.Analyzer, img *httpx.Client, ref string) *market.QualityAssessment {
    data, mime, err := vision.LoadImage(ctx, img, ref)
    if err != nil {
        log.Printf("[%s] image load failed, proceeding ungraded: %v", reqID, err)
        return nil
    }
    text, err := analyzer.Analyze(ctx, data, mime)
    if err != nil {
        log.Printf("[%s] %s analyze failed, proceeding ungraded: %v", reqID, analyzer.Name(), err)
        return nil
    }
    qa, err := quality.ParseAssessment(text)
    if err != nil {
        log.Printf("[%s] assessment parse failed, proceeding ungraded: %v", reqID, err)
        return nil
    }
    return &qa
}

// writeEstimates runs independent commodities concurrently; they share
// no state beyond the fetcher, which holds none per request.
func writeEstimates(w http.ResponseWriter, ctx context.Context, f *fetch.Fetcher, commodities []string, qa *market.QualityAssessment) {
    out := make([]market.AggregateEstimate, len(commodities))
    var wg sync.WaitGroup
    for i, c := range commodities {
        i, c := i, c
        wg.Add(1)
        go func() {
            defer wg.Done()
            out[i] = f.Estimate(ctx, c, qa)
        }()
    }
    wg.Wait()

    w.WriteHeader(http.StatusOK)
    enc := json.NewEncoder(w)
    enc.SetEscapeHTML(false)
    enc.Encode(estimatesResponse{Estimates: out})
}
