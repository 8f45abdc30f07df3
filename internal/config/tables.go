package config

import (
    "errors"
    "fmt"
    "os"

    "gopkg.in/yaml.v2"
)

// Tables holds market-convention facts that change over time
// independently of code: the wholesale lot size and the grade-to-price
// multipliers. They ship as a versioned YAML file; missing file means
// compiled-in defaults.
type Tables struct {
    Version        int                `yaml:"version"`
    LotSize        float64            `yaml:"lot_size"`
    QualityFactors map[string]float64 `yaml:"quality_factors"`
}

func DefaultTables() Tables {
    return Tables{
        Version: 1,
        LotSize: 100, // quintal -> kg
        QualityFactors: map[string]float64{
            "A": 1.15,
            "B": 1.0,
            "C": 0.85,
        },
    }
}

// LoadTables reads the convention tables from path, falling back to
// defaults when path is empty or the file does not exist. Absent fields
// keep their default values.
func LoadTables(path string) (Tables, error) {
    t := DefaultTables()
    if path == "" {
        return t, nil
    }
    b, err := os.ReadFile(path)
    if errors.Is(err, os.ErrNotExist) {
        return t, nil
    }
    if err != nil {
        return t, fmt.Errorf("read tables: %w", err)
    }
    if err := yaml.Unmarshal(b, &t); err != nil {
        return t, fmt.Errorf("parse tables: %w", err)
    }
    if t.LotSize <= 0 { t.LotSize = DefaultTables().LotSize }
    if len(t.QualityFactors) == 0 { t.QualityFactors = DefaultTables().QualityFactors }
    return t, nil
}
