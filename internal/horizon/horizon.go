// Package horizon implements the prediction-horizon schedule T(t) used by
// the multiple-shooting solver: a fixed final length, or one that grows
// exponentially into its nominal value to avoid an ill-posed problem at
// t0.
package horizon

import (
	"fmt"
	"math"
)

// Horizon maps wall time to prediction-horizon length.
type Horizon struct {
	tf    float64
	alpha float64
	t0    float64
}

// New builds a horizon schedule. tf is the nominal (final) horizon length
// and must be positive. alpha is the growth rate; alpha == 0 means a
// constant horizon of length tf. t0 anchors the growth.
func New(tf, alpha, t0 float64) (*Horizon, error) {
	if tf <= 0 {
		return nil, fmt.Errorf("horizon: Tf must be positive, got %g", tf)
	}
	if alpha < 0 {
		return nil, fmt.Errorf("horizon: alpha must be non-negative, got %g", alpha)
	}
	return &Horizon{tf: tf, alpha: alpha, t0: t0}, nil
}

// T returns the horizon length at time t. Monotone non-decreasing, bounded
// by Tf, equal to 0 at t0 when alpha > 0.
func (h *Horizon) T(t float64) float64 {
	if h.alpha > 0 {
		return h.tf * (1.0 - math.Exp(-h.alpha*(t-h.t0)))
	}
	return h.tf
}

// Reset re-anchors the growth origin, e.g. when a solver is re-armed at a
// new initial time.
func (h *Horizon) Reset(t0 float64) {
	h.t0 = t0
}

// Tf returns the nominal final horizon length.
func (h *Horizon) Tf() float64 { return h.tf }
