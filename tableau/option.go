package tableau

import (
	"fmt"
	"math"
)

const (
	// DefaultEpsilon is the tolerance below which objective-row and
	// pivot-column entries are treated as zero.
	DefaultEpsilon = 1e-9

	// DefaultMaxIterations caps the number of pivots of a single solve.
	DefaultMaxIterations = 10000
)

type Option func(*Engine) error

func WithLogger(logger Logger) Option {
	return func(e *Engine) error {
		if logger == nil {
			return fmt.Errorf("nil logger")
		}

		e.logger = logger

		return nil
	}
}

// WithEpsilon sets the numeric tolerance. An objective-row entry only
// counts as negative below -eps, and a pivot-column entry only takes part
// in the ratio test above eps. Zero restores exact comparisons.
func WithEpsilon(eps float64) Option {
	return func(e *Engine) error {
		if eps < 0 || math.IsNaN(eps) || math.IsInf(eps, 0) {
			return fmt.Errorf("epsilon must be finite and non-negative, got %v", eps)
		}

		e.eps = eps

		return nil
	}
}

// WithMaxIterations caps the number of pivots. Zero removes the cap, which
// lets a cycling problem loop forever.
func WithMaxIterations(n int) Option {
	return func(e *Engine) error {
		if n < 0 {
			return fmt.Errorf("max iterations must be non-negative, got %d", n)
		}

		e.maxIterations = n

		return nil
	}
}
