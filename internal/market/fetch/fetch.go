package fetch

import (
    "context"
    "fmt"
    "log"

    "mandiprice/internal/market"
    "mandiprice/internal/market/aggregate"
    "mandiprice/internal/market/parse"
    "mandiprice/internal/textsource"
)

// The controller is a small finite-state machine so a further fallback
// tier is a state addition, not a refactor. At most two queries leave
// the process per price request.
type state int

const (
    stateInitial state = iota
    stateBroadened
)

type Config struct {
    Currency string             // default: INR
    Factors  map[string]float64 // grade -> price multiplier
    Debug    bool               // log discarded answers and transport errors
}

// Fetcher drives the two-stage query strategy against a text source and
// decides when data is genuinely unavailable. It holds no per-request
// state; one Fetcher is safe for concurrent requests.
type Fetcher struct {
    src    textsource.Source
    parser parse.Parser
    cfg    Config
}

func New(src textsource.Source, parser parse.Parser, cfg Config) *Fetcher {
    if cfg.Currency == "" { cfg.Currency = "INR" }
    parser.Debug = cfg.Debug
    return &Fetcher{src: src, parser: parser, cfg: cfg}
}

// Result is the final record set from whichever state terminated.
type Result struct {
    Records       []market.QuoteRecord
    LatestDate    string
    Availability  market.Availability
    FailureReason string // transport cause when the broadened query failed
}

// Fetch runs the state machine: the primary narrowly-scoped query, then
// one intentionally broader query when the first yields nothing. The
// broadened result replaces the initial one entirely; results are never
// merged across the two queries. Transport failures are treated like an
// unavailable answer at whichever state they occur.
func (f *Fetcher) Fetch(ctx context.Context, commodity, grade string) Result {
    res := Result{Availability: market.Unavailable}
    st := stateInitial
    for {
        var prompt string
        switch st {
        case stateInitial:
            prompt = primaryQuery(commodity, grade)
        case stateBroadened:
            prompt = broadenedQuery(commodity)
        }

        answer, err := f.src.Query(ctx, prompt)
        if err != nil {
            if f.cfg.Debug { log.Printf("fetch: %s query failed: %v", stateName(st), err) }
            if st == stateBroadened {
                res.FailureReason = err.Error()
                return res
            }
            st = stateBroadened
            continue
        }

        pr := f.parser.Block(answer)
        if len(pr.Records) > 0 {
            res.Records = pr.Records
            res.LatestDate = pr.LatestDate
            res.Availability = market.Available
            return res
        }
        if f.cfg.Debug { log.Printf("fetch: %s query for %q yielded no records", stateName(st), commodity) }
        if st == stateBroadened {
            return res
        }
        st = stateBroadened
    }
}

// Estimate runs the full flow for one commodity: fetch, then aggregate
// with the optional quality assessment. Aggregation never sees an
// assessment without a grade; callers enforce that at parse time.
func (f *Fetcher) Estimate(ctx context.Context, commodity string, qa *market.QualityAssessment) market.AggregateEstimate {
    grade := ""
    if qa != nil { grade = qa.Grade }
    res := f.Fetch(ctx, commodity, grade)
    est := aggregate.Estimate(aggregate.Input{
        Commodity:  commodity,
        Currency:   f.cfg.Currency,
        Records:    res.Records,
        LatestDate: res.LatestDate,
        Quality:    qa,
        Factors:    f.cfg.Factors,
    })
    est.FailureReason = res.FailureReason
    return est
}

func primaryQuery(commodity, grade string) string {
    q := fmt.Sprintf("Current wholesale price for %s in India from official sources", commodity)
    if grade != "" {
        q += fmt.Sprintf(" for quality similar to Grade %s", grade)
    }
    return q
}

func broadenedQuery(commodity string) string {
    return fmt.Sprintf("Latest mandi price range for %s in India from Agmarknet or eNAM", commodity)
}

func stateName(st state) string {
    if st == stateBroadened { return "broadened" }
    return "initial"
}
