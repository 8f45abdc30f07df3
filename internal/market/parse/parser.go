package parse

import (
    "log"
    "strings"

    "mandiprice/internal/market"
    "mandiprice/internal/market/lot"
)

// Recognized entry keys. Per-quintal keys are normalized to per-kg at
// ingestion using the lot table; the aggregator never converts.
const (
    keyPricePerKg      = "PRICE_PER_KG"
    keyPricePerUnit    = "PRICE_PER_UNIT"
    keyPricePerQuintal = "PRICE_PER_QUINTAL"
    keyMinPriceKg      = "MIN_PRICE_KG"
    keyMaxPriceKg      = "MAX_PRICE_KG"
    keyMinPriceQuintal = "MIN_PRICE_QUINTAL"
    keyMaxPriceQuintal = "MAX_PRICE_QUINTAL"
    keySource          = "SOURCE"
    keyDate            = "DATE"
    keyLatestDate      = "LATEST_DATE"
)

// unavailableMarker short-circuits parsing when present anywhere in the
// answer, independent of line structure.
const unavailableMarker = "not available"

// Result is the outcome of parsing one answer block.
type Result struct {
    Records     []market.QuoteRecord
    LatestDate  string // block-level LATEST_DATE annotation, "" when absent
    Unavailable bool
}

// Parser turns one block of agent answer text into quote records.
// The grammar is newline-separated entries of pipe-delimited
// "KEY: value" fields; it is a fixed contract with the agent prompt.
type Parser struct {
    Lot   lot.Table
    Debug bool // log dropped lines
}

func New(l lot.Table) Parser { return Parser{Lot: l} }

// Block parses an answer block. Malformed entries and entries whose
// numeric fields fail extraction are dropped, never fatal; input order
// is preserved for the records that survive.
func (p Parser) Block(text string) Result {
    if strings.Contains(strings.ToLower(text), unavailableMarker) {
        return Result{Unavailable: true}
    }

    var res Result
    for _, line := range strings.Split(text, "\n") {
        line = strings.TrimSpace(line)
        if line == "" { continue }

        if v, ok := strings.CutPrefix(line, keyLatestDate+":"); ok {
            res.LatestDate = strings.TrimSpace(v)
            continue
        }

        fields := splitFields(line)
        rec, ok := p.classify(fields)
        if !ok {
            if p.Debug { log.Printf("parse: dropped line %q", line) }
            continue
        }
        res.Records = append(res.Records, rec)
    }
    return res
}

// splitFields splits a line on '|' and each piece on the first ':'.
// Unknown keys are retained in the map but ignored downstream.
func splitFields(line string) map[string]string {
    out := make(map[string]string)
    for _, piece := range strings.Split(line, "|") {
        k, v, ok := strings.Cut(piece, ":")
        if !ok { continue }
        out[strings.TrimSpace(k)] = strings.TrimSpace(v)
    }
    return out
}

// classify builds one record from a field map. A line is SinglePrice
// when a per-kg (or per-quintal) price is present, RangePrice when both
// range bounds are present; anything else is malformed.
func (p Parser) classify(fields map[string]string) (market.QuoteRecord, bool) {
    rec := market.QuoteRecord{Source: "Unknown"}
    if s, ok := fields[keySource]; ok && s != "" { rec.Source = s }
    rec.ObservedAt = fields[keyDate]

    if tok, ok := firstOf(fields, keyPricePerKg, keyPricePerUnit); ok {
        v, err := Number(tok)
        if err != nil { return rec, false }
        rec.Kind = market.KindSingle
        rec.PerKg = v
        return rec, true
    }
    if tok, ok := fields[keyPricePerQuintal]; ok {
        v, err := Number(tok)
        if err != nil { return rec, false }
        rec.Kind = market.KindSingle
        rec.PerKg = p.Lot.PerKg(v)
        return rec, true
    }

    if minTok, ok := fields[keyMinPriceKg]; ok {
        maxTok, ok := fields[keyMaxPriceKg]
        if !ok { return rec, false }
        return p.rangeRecord(rec, minTok, maxTok, false)
    }
    if minTok, ok := fields[keyMinPriceQuintal]; ok {
        maxTok, ok := fields[keyMaxPriceQuintal]
        if !ok { return rec, false }
        return p.rangeRecord(rec, minTok, maxTok, true)
    }
    return rec, false
}

func (p Parser) rangeRecord(rec market.QuoteRecord, minTok, maxTok string, perLot bool) (market.QuoteRecord, bool) {
    lo, err := Number(minTok)
    if err != nil { return rec, false }
    hi, err := Number(maxTok)
    if err != nil { return rec, false }
    if perLot {
        lo = p.Lot.PerKg(lo)
        hi = p.Lot.PerKg(hi)
    }
    // inverted bounds are corrected, never rejected
    if lo > hi { lo, hi = hi, lo }
    rec.Kind = market.KindRange
    rec.MinPerKg = lo
    rec.MaxPerKg = hi
    return rec, true
}

func firstOf(fields map[string]string, keys ...string) (string, bool) {
    for _, k := range keys {
        if v, ok := fields[k]; ok { return v, true }
    }
    return "", false
}
