package parse

import (
    "errors"
    "testing"
)

func TestNumber_DropsCurrencyAndUnits(t *testing.T) {
    cases := map[string]float64{
        "23.50":            23.50,
        "₹2,350.50 per kg": 2350.50,
        "INR 24/kg":        24,
        " 18 ":             18,
        "0":                0,
    }
    for tok, want := range cases {
        got, err := Number(tok)
        if err != nil {
            t.Fatalf("Number(%q): unexpected error %v", tok, err)
        }
        if got != want {
            t.Fatalf("Number(%q) = %v, want %v", tok, got, want)
        }
    }
}

func TestNumber_Failures(t *testing.T) {
    for _, tok := range []string{"", "no digits here", "1.2.3", "...", "-"} {
        if _, err := Number(tok); err == nil {
            t.Fatalf("Number(%q): want error, got none", tok)
        } else if !errors.Is(err, ErrNumericParse) {
            t.Fatalf("Number(%q): error %v is not ErrNumericParse", tok, err)
        }
    }
}
