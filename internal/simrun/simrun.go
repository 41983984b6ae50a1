// Package simrun is the forward-Euler simulation driver that closes the
// loop around an armed solver.Solver: at each sampling instant it asks the
// solver for the current optimal control, applies it to the plant's own
// dynamics for one step, and records the resulting trajectory. It is kept
// separate from internal/solver on purpose — the solver never simulates a
// plant, it only computes controls — the same separation the teacher
// repository draws between its Simulator (drives a plant forward) and its
// Controller interface (only computes an input).
package simrun

import (
	"context"
	"fmt"

	"github.com/san-kum/cgmres-mpc/internal/ocp"
	"github.com/san-kum/cgmres-mpc/internal/solver"
)

// Config holds the simulation's own timing, independent of the solver's
// internal discretization.
type Config struct {
	Dt       float64
	Duration float64
}

// Result collects the closed-loop trajectory produced by Run.
type Result struct {
	Times         []float64
	States        [][]float64
	Controls      [][]float64
	ResidualNorms []float64
	Warnings      []string
}

// Run drives problem p forward under solver s's control from x0 for
// cfg.Duration seconds in steps of cfg.Dt, returning the full closed-loop
// trajectory. s must already be armed (see solver.Solver.Solve). Run stops
// early, returning its partial Result, if ctx is canceled or the solver
// reports a numerical failure.
func Run(ctx context.Context, s *solver.Solver, p ocp.Problem, x0 []float64, cfg Config) (*Result, error) {
	if cfg.Dt <= 0 {
		return nil, fmt.Errorf("simrun: dt must be positive, got %g", cfg.Dt)
	}
	if cfg.Duration <= 0 {
		return nil, fmt.Errorf("simrun: duration must be positive, got %g", cfg.Duration)
	}

	steps := int(cfg.Duration / cfg.Dt)
	nx := len(x0)

	result := &Result{
		Times:    make([]float64, 0, steps+1),
		States:   make([][]float64, 0, steps+1),
		Controls: make([][]float64, 0, steps),
	}

	x := append([]float64{}, x0...)
	t := 0.0
	dx := make([]float64, nx)

	result.Times = append(result.Times, t)
	result.States = append(result.States, append([]float64{}, x...))

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		warn, err := s.Update(t, cfg.Dt, x)
		if err != nil {
			return result, fmt.Errorf("simrun: update at t=%g: %w", t, err)
		}
		if warn != nil {
			result.Warnings = append(result.Warnings, warn.Error())
		}
		result.ResidualNorms = append(result.ResidualNorms, s.LastResidualNorm())

		u0 := s.UOpt()
		uCopy := append([]float64{}, u0...)
		result.Controls = append(result.Controls, uCopy)

		p.EvalF(t, x, u0, dx)
		for k := 0; k < nx; k++ {
			x[k] += cfg.Dt * dx[k]
		}
		t += cfg.Dt

		result.Times = append(result.Times, t)
		result.States = append(result.States, append([]float64{}, x...))
	}

	return result, nil
}
