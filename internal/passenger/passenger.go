package passenger

import (
	"errors"
	"fmt"
)

// Occupancy limits accepted by the booking site's search form.
const (
	MinAdults   = 1
	MaxAdults   = 8
	MaxMinors   = 4
	MaxMinorAge = 17
)

var (
	ErrInvalidPassengerCount = errors.New("invalid passenger count")
	ErrAgeCountMismatch      = errors.New("minor age count mismatch")
	ErrInvalidAge            = errors.New("invalid minor age")
)

// Config is a validated occupancy for one search request. It is built once
// per request and never mutated afterwards.
type Config struct {
	Adults    int   `json:"adults"`
	MinorAges []int `json:"minor_ages,omitempty"`
}

// Minors returns the number of minors travelling.
func (c Config) Minors() int {
	return len(c.MinorAges)
}

// New validates the raw occupancy and returns the immutable Config plus any
// non-fatal advisories for the caller to relay.
func New(adults, minors int, ages []int) (Config, []string, error) {
	if adults < MinAdults || adults > MaxAdults {
		return Config{}, nil, fmt.Errorf("%w: adults must be between %d and %d, got %d",
			ErrInvalidPassengerCount, MinAdults, MaxAdults, adults)
	}
	if minors < 0 || minors > MaxMinors {
		return Config{}, nil, fmt.Errorf("%w: minors must be between 0 and %d, got %d",
			ErrInvalidPassengerCount, MaxMinors, minors)
	}
	if len(ages) != minors {
		return Config{}, nil, fmt.Errorf("%w: declared %d minors but got %d ages",
			ErrAgeCountMismatch, minors, len(ages))
	}
	for _, age := range ages {
		if age < 0 || age > MaxMinorAge {
			return Config{}, nil, fmt.Errorf("%w: age %d outside [0,%d]",
				ErrInvalidAge, age, MaxMinorAge)
		}
	}

	var warnings []string
	if minors == MaxMinors {
		// Correlation precision drops with 4 minors in a single search; the
		// caller should suggest splitting, but we never reject.
		warnings = append(warnings,
			"Con 4 menores la cotización pierde precisión; recomendamos dividir en dos búsquedas de 2 adultos y 2 menores.")
	}

	cfg := Config{Adults: adults}
	if minors > 0 {
		cfg.MinorAges = make([]int, minors)
		copy(cfg.MinorAges, ages)
	}
	return cfg, warnings, nil
}
