package market

// Kind distinguishes a single quoted price from a quoted range.
type Kind string

const (
    KindSingle Kind = "single"
    KindRange  Kind = "range"
)

// Availability reports whether any usable price data was found.
type Availability string

const (
    Available   Availability = "available"
    Unavailable Availability = "unavailable"
)

// QuoteRecord is one source's statement of price, already normalized
// to INR per kg. For KindRange, MinPerKg <= MaxPerKg always holds.
type QuoteRecord struct {
    Kind       Kind    `json:"kind"`
    PerKg      float64 `json:"per_kg,omitempty"`
    MinPerKg   float64 `json:"min_per_kg,omitempty"`
    MaxPerKg   float64 `json:"max_per_kg,omitempty"`
    Source     string  `json:"source"`
    ObservedAt string  `json:"observed_at,omitempty"` // free text, may not parse as a date
}

// QualityAssessment is the parsed output of the vision collaborator.
// Grade is the only field with numeric consequence; the rest is
// informational.
type QualityAssessment struct {
    Grade         string `json:"grade"`
    Moisture      string `json:"moisture,omitempty"`
    ForeignMatter string `json:"foreign_matter,omitempty"`
    DamageDetails string `json:"damage_details,omitempty"`
    Summary       string `json:"summary,omitempty"`
}

// ContributingSource is one record's pre-adjustment contribution to an
// estimate.
type ContributingSource struct {
    Kind       Kind    `json:"kind"`
    PerKg      float64 `json:"per_kg,omitempty"`
    MinPerKg   float64 `json:"min_per_kg,omitempty"`
    MaxPerKg   float64 `json:"max_per_kg,omitempty"`
    Source     string  `json:"source"`
    ObservedAt string  `json:"observed_at,omitempty"`
}

// AggregateEstimate is the engine's output for one commodity.
// Values are quality-adjusted; Sources keep the raw per-record values.
type AggregateEstimate struct {
    Commodity     string               `json:"commodity"`
    Availability  Availability         `json:"availability"`
    Kind          Kind                 `json:"kind,omitempty"`
    PerKg         float64              `json:"per_kg,omitempty"`
    MinPerKg      float64              `json:"min_per_kg,omitempty"`
    MaxPerKg      float64              `json:"max_per_kg,omitempty"`
    Currency      string               `json:"currency,omitempty"`
    Grade         string               `json:"grade,omitempty"`
    Sources       []ContributingSource `json:"sources,omitempty"`
    LatestDate    string               `json:"latest_date,omitempty"`
    FailureReason string               `json:"failure_reason,omitempty"`
}
