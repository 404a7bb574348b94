package domain

import "errors"

// Regime set validation errors.
var (
	ErrEmptyRegimeSet      = errors.New("regime set must contain at least one regime")
	ErrEmptyRegimeName     = errors.New("regime name must not be empty")
	ErrDuplicateRegimeName = errors.New("regime names must be unique within a run")
)

// Regime pairs a name with an expected annual return.
type Regime struct {
	Name       string
	MeanReturn float64 // expected annual return, may be negative
}

// RegimeSet is an insertion-ordered collection of regimes. Under the default
// per-run seed policy regimes consume one shared draw stream in declaration
// order, so order is part of the reproducibility contract; under per-regime
// reseeding it controls reporting order only.
type RegimeSet []Regime

// Validate checks the regime set is non-empty with unique, non-empty names.
func (rs RegimeSet) Validate() error {
	if len(rs) == 0 {
		return ErrEmptyRegimeSet
	}

	seen := make(map[string]struct{}, len(rs))
	for _, r := range rs {
		if r.Name == "" {
			return ErrEmptyRegimeName
		}
		if _, dup := seen[r.Name]; dup {
			return ErrDuplicateRegimeName
		}
		seen[r.Name] = struct{}{}
	}
	return nil
}
