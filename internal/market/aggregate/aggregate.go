package aggregate

import (
    "time"

    "mandiprice/internal/market"
    "mandiprice/internal/market/quality"
)

// maxSources caps how many contributing sources an estimate reports.
const maxSources = 3

// Input is one aggregation request. Records must already be normalized
// to per-kg; LatestDate is the block-level annotation when present.
type Input struct {
    Commodity  string
    Currency   string
    Records    []market.QuoteRecord
    LatestDate string
    Quality    *market.QualityAssessment
    Factors    map[string]float64
}

// Estimate combines quote records into one summary estimate. It is a
// pure function: same input, bit-identical output. The grade multiplier
// applies to the aggregate only; per-source values stay unadjusted.
func Estimate(in Input) market.AggregateEstimate {
    est := market.AggregateEstimate{
        Commodity:    in.Commodity,
        Currency:     in.Currency,
        Availability: market.Unavailable,
    }
    if est.Currency == "" { est.Currency = "INR" }
    if len(in.Records) == 0 {
        return est
    }
    est.Availability = market.Available
    if in.Quality != nil { est.Grade = in.Quality.Grade }

    var singles, ranges []market.QuoteRecord
    for _, r := range in.Records {
        switch r.Kind {
        case market.KindSingle:
            singles = append(singles, r)
        case market.KindRange:
            ranges = append(ranges, r)
        }
    }

    // A response is treated as homogeneous: once any single price
    // exists, ranges from the same answer are ignored.
    factor := quality.Factor(in.Quality, in.Factors)
    chosen := singles
    if len(singles) > 0 {
        var sum float64
        for _, r := range singles { sum += r.PerKg }
        est.Kind = market.KindSingle
        est.PerKg = sum / float64(len(singles)) * factor
    } else {
        chosen = ranges
        var sumMin, sumMax float64
        for _, r := range ranges {
            sumMin += r.MinPerKg
            sumMax += r.MaxPerKg
        }
        n := float64(len(ranges))
        est.Kind = market.KindRange
        est.MinPerKg = sumMin / n * factor
        est.MaxPerKg = sumMax / n * factor
    }

    for i, r := range chosen {
        if i == maxSources { break }
        est.Sources = append(est.Sources, market.ContributingSource{
            Kind:       r.Kind,
            PerKg:      r.PerKg,
            MinPerKg:   r.MinPerKg,
            MaxPerKg:   r.MaxPerKg,
            Source:     r.Source,
            ObservedAt: r.ObservedAt,
        })
    }

    est.LatestDate = latestDate(in.LatestDate, in.Records)
    return est
}

// dateLayouts are tried in order when resolving observed dates.
var dateLayouts = []string{
    "2006-01-02",
    "2006/01/02",
    "02-01-2006",
    "02/01/2006",
    "Jan 2, 2006",
    "2 Jan 2006",
    "January 2, 2006",
    "2 January 2006",
}

func parseDate(s string) (time.Time, bool) {
    for _, layout := range dateLayouts {
        if t, err := time.Parse(layout, s); err == nil { return t, true }
    }
    return time.Time{}, false
}

// latestDate resolves the most recent observation date: the block-level
// annotation wins; otherwise the maximum parsed calendar date across
// records; otherwise the lexicographic maximum of the raw date strings;
// otherwise absent.
func latestDate(annotation string, records []market.QuoteRecord) string {
    if annotation != "" { return annotation }

    var best string
    var bestTime time.Time
    parsed := false
    for _, r := range records {
        if r.ObservedAt == "" { continue }
        if t, ok := parseDate(r.ObservedAt); ok {
            if !parsed || t.After(bestTime) {
                parsed = true
                bestTime = t
                best = r.ObservedAt
            }
        }
    }
    if parsed { return best }

    for _, r := range records {
        if r.ObservedAt != "" && r.ObservedAt > best {
            best = r.ObservedAt
        }
    }
    return best
}
