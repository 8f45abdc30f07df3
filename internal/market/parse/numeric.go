package parse

import (
    "errors"
    "fmt"
    "math"
    "strconv"
    "strings"
)

// ErrNumericParse reports that a token expected to contain a decimal
// number did not yield one after cleaning.
var ErrNumericParse = errors.New("numeric parse failed")

// Number extracts a decimal value from a noisy token. Digits and decimal
// points are kept in left-to-right order; currency symbols, commas,
// units and whitespace are dropped. The cleaned string must be a finite
// non-negative number with at most one decimal point.
func Number(token string) (float64, error) {
    var b strings.Builder
    dots := 0
    for _, r := range token {
        switch {
        case r >= '0' && r <= '9':
            b.WriteRune(r)
        case r == '.':
            dots++
            b.WriteRune(r)
        }
    }
    cleaned := b.String()
    if cleaned == "" {
        return 0, fmt.Errorf("%w: no digits in %q", ErrNumericParse, token)
    }
    if dots > 1 {
        return 0, fmt.Errorf("%w: multiple decimal points in %q", ErrNumericParse, token)
    }
    v, err := strconv.ParseFloat(cleaned, 64)
    if err != nil {
        return 0, fmt.Errorf("%w: %q", ErrNumericParse, token)
    }
    if v < 0 || math.IsInf(v, 0) || math.IsNaN(v) {
        return 0, fmt.Errorf("%w: %q is not a finite non-negative number", ErrNumericParse, token)
    }
    return v, nil
}
