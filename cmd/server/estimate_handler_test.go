package main

import (
    "context"
    "encoding/json"
    "math"
    "net/http/httptest"
    "sync"
    "testing"

    "mandiprice/internal/market"
    "mandiprice/internal/market/fetch"
    "mandiprice/internal/market/lot"
    "mandiprice/internal/market/parse"
)

type fakeSource struct {
    mu      sync.Mutex
    answers []string
    calls   int
}

func (f *fakeSource) Name() string { return "fake" }
func (f *fakeSource) Query(_ context.Context, _ string) (string, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    i := f.calls
    if i >= len(f.answers) { i = len(f.answers) - 1 }
    f.calls++
    return f.answers[i], nil
}

func testFetcher(answers ...string) *fetch.Fetcher {
    return fetch.New(&fakeSource{answers: answers}, parse.New(lot.New(100)), fetch.Config{
        Factors: map[string]float64{"A": 1.15, "B": 1.0, "C": 0.85},
    })
}

func TestEstimates_SingleCommodity(t *testing.T) {
    f := testFetcher("PRICE_PER_KG: 23.50 | SOURCE: Agmarknet | DATE: 2024-05-01")
    rr := httptest.NewRecorder()
    writeEstimates(rr, t.Context(), f, []string{"Onion"}, nil)
    if rr.Code != 200 { t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String()) }
    var resp estimatesResponse
    if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil { t.Fatalf("decode: %v", err) }
    if len(resp.Estimates) != 1 { t.Fatalf("want 1 estimate: %+v", resp.Estimates) }
    got := resp.Estimates[0]
    if got.Availability != market.Available || got.PerKg != 23.50 || got.LatestDate != "2024-05-01" {
        t.Fatalf("unexpected: %+v", got)
    }
    if len(got.Sources) != 1 || got.Sources[0].Source != "Agmarknet" {
        t.Fatalf("unexpected sources: %+v", got.Sources)
    }
}

func TestEstimates_FallbackAnswerUsed(t *testing.T) {
    f := testFetcher(
        "Not available",
        "PRICE_PER_KG: 20 | SOURCE: X\nPRICE_PER_KG: 24 | SOURCE: Y",
    )
    rr := httptest.NewRecorder()
    writeEstimates(rr, t.Context(), f, []string{"Onion"}, nil)
    var resp estimatesResponse
    if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil { t.Fatalf("decode: %v", err) }
    got := resp.Estimates[0]
    if got.Availability != market.Available || got.PerKg != 22 {
        t.Fatalf("unexpected: %+v", got)
    }
}

func TestEstimates_GradeFromQueryParam(t *testing.T) {
    f := testFetcher("PRICE_PER_KG: 20 | SOURCE: X")
    rr := httptest.NewRecorder()
    req := httptest.NewRequest("GET", "/api/estimate?commodities=Onion&grade=A", nil)
    handleGetEstimates(rr, req, f)
    if rr.Code != 200 { t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String()) }
    var resp estimatesResponse
    if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil { t.Fatalf("decode: %v", err) }
    got := resp.Estimates[0]
    if got.Grade != "A" || math.Abs(got.PerKg-23.0) > 0.005 {
        t.Fatalf("unexpected: %+v", got)
    }
}

func TestEstimates_MissingCommoditiesParam(t *testing.T) {
    f := testFetcher("PRICE_PER_KG: 20 | SOURCE: X")
    rr := httptest.NewRecorder()
    req := httptest.NewRequest("GET", "/api/estimate", nil)
    handleGetEstimates(rr, req, f)
    if rr.Code != 400 { t.Fatalf("want 400, got %d", rr.Code) }
}

func TestEstimates_MultipleCommodities_OrderPreserved(t *testing.T) {
    f := testFetcher("PRICE_PER_KG: 20 | SOURCE: X")
    rr := httptest.NewRecorder()
    writeEstimates(rr, t.Context(), f, []string{"Onion", "Potato", "Tomato"}, nil)
    var resp estimatesResponse
    if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil { t.Fatalf("decode: %v", err) }
    if len(resp.Estimates) != 3 { t.Fatalf("want 3 estimates: %+v", resp.Estimates) }
    for i, want := range []string{"Onion", "Potato", "Tomato"} {
        if resp.Estimates[i].Commodity != want {
            t.Fatalf("order broken at %d: %+v", i, resp.Estimates)
        }
    }
}
