package simplex

import (
	"fmt"
	"math"
)

type Option func(*Model) error

func WithLogger(logger Logger) Option {
	return func(m *Model) error {
		if logger == nil {
			return fmt.Errorf("nil logger")
		}
		m.logger = logger
		return nil
	}
}

// WithEpsilon sets the tolerance used when solving. See tableau.WithEpsilon.
func WithEpsilon(eps float64) Option {
	return func(m *Model) error {
		if eps < 0 || math.IsNaN(eps) || math.IsInf(eps, 0) {
			return fmt.Errorf("epsilon must be finite and non-negative, got %v", eps)
		}
		m.eps = eps
		return nil
	}
}

// WithMaxIterations caps the number of pivots per solve; zero disables
// the cap.
func WithMaxIterations(n int) Option {
	return func(m *Model) error {
		if n < 0 {
			return fmt.Errorf("max iterations must be non-negative, got %d", n)
		}
		m.maxIterations = n
		return nil
	}
}
