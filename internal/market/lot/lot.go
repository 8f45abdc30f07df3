package lot

// DefaultSize is the wholesale lot convention used by Indian mandis:
// prices are quoted per quintal, which is 100 kg.
const DefaultSize = 100

// Table converts a price quoted per bulk lot to a price per kg.
// The size is a market-convention fact and comes from the versioned
// convention tables, not from code.
type Table struct {
    Size float64
}

func New(size float64) Table {
    if size <= 0 { size = DefaultSize }
    return Table{Size: size}
}

// PerKg converts a per-lot price to a per-kg price. It is applied once,
// at ingestion, and never inside the aggregator.
func (t Table) PerKg(perLot float64) float64 {
    if t.Size <= 0 { return perLot / DefaultSize }
    return perLot / t.Size
}
