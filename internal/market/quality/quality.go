package quality

import (
    "fmt"
    "strings"

    "mandiprice/internal/market"
)

// Vision answer keys, fixed contract with the quality prompt.
const (
    keyGrade         = "Grade"
    keyMoisture      = "Moisture"
    keyForeignMatter = "Foreign Matter"
    keyDamageDetails = "Damage Details"
    keyOverall       = "Overall Assessment"
)

// ParseAssessment parses the vision collaborator's "KEY: value"-per-line
// answer. A response missing Grade is a parse failure; an assessment
// without a grade must never reach the aggregator.
func ParseAssessment(text string) (market.QualityAssessment, error) {
    var qa market.QualityAssessment
    seen := false
    for _, line := range strings.Split(text, "\n") {
        k, v, ok := strings.Cut(line, ":")
        if !ok { continue }
        v = strings.TrimSpace(v)
        switch strings.TrimSpace(k) {
        case keyGrade:
            qa.Grade = v
            seen = v != ""
        case keyMoisture:
            qa.Moisture = v
        case keyForeignMatter:
            qa.ForeignMatter = v
        case keyDamageDetails:
            qa.DamageDetails = v
        case keyOverall:
            qa.Summary = v
        }
    }
    if !seen {
        return market.QualityAssessment{}, fmt.Errorf("quality: response has no Grade")
    }
    return qa, nil
}

// Factor returns the price multiplier for a grade from the convention
// table. Unrecognized grades (and a nil assessment) are a no-op 1.0.
func Factor(qa *market.QualityAssessment, factors map[string]float64) float64 {
    if qa == nil { return 1.0 }
    if f, ok := factors[strings.ToUpper(strings.TrimSpace(qa.Grade))]; ok { return f }
    return 1.0
}
