// Package ocp defines the capability set a user-supplied optimal control
// problem must implement to be driven by the solver packages in this
// module. The OCP itself — dimensions, dynamics, cost gradients, bound
// indices — is deliberately treated as an external collaborator: this
// package only declares the contract.
package ocp

import "fmt"

// Dimensions describes the static shape of an optimal control problem:
// state/control/equality-constraint widths and the bound-constrained
// control slots, indexed the way ubound_indices maps them into u.
type Dimensions struct {
	NX  int
	NU  int
	NC  int
	NH  int
	NUB int

	UBoundIndices []int
	UMin          []float64
	UMax          []float64
	DummyWeight   []float64
}

// NUC is the width of the concatenated control + equality-multiplier vector.
func (d Dimensions) NUC() int { return d.NU + d.NC }

// StageWidth is the number of unknowns contributed by one shooting stage:
// control + equality multipliers, the dummy input, and the slack multiplier
// per bounded control.
func (d Dimensions) StageWidth() int { return d.NUC() + 2*d.NUB }

// Validate checks internal consistency of the dimensions and bound arrays.
// It checks only the declared values: it never calls the OCP evaluators,
// so an evaluator that writes an output of the wrong length is not
// detected here.
func (d Dimensions) Validate() error {
	if d.NX <= 0 {
		return fmt.Errorf("ocp: nx must be positive, got %d", d.NX)
	}
	if d.NU <= 0 {
		return fmt.Errorf("ocp: nu must be positive, got %d", d.NU)
	}
	if d.NC < 0 {
		return fmt.Errorf("ocp: nc must be non-negative, got %d", d.NC)
	}
	if d.NUB < 0 {
		return fmt.Errorf("ocp: nub must be non-negative, got %d", d.NUB)
	}
	if len(d.UBoundIndices) != d.NUB {
		return fmt.Errorf("ocp: len(ubound_indices)=%d does not match nub=%d", len(d.UBoundIndices), d.NUB)
	}
	if len(d.UMin) != d.NUB || len(d.UMax) != d.NUB || len(d.DummyWeight) != d.NUB {
		return fmt.Errorf("ocp: umin/umax/dummy_weight must each have length nub=%d", d.NUB)
	}
	for i, idx := range d.UBoundIndices {
		if idx < 0 || idx >= d.NU {
			return fmt.Errorf("ocp: ubound_indices[%d]=%d out of range [0,%d)", i, idx, d.NU)
		}
	}
	for i := range d.UMin {
		if d.UMin[i] >= d.UMax[i] {
			return fmt.Errorf("ocp: umin[%d]=%g must be < umax[%d]=%g", i, d.UMin[i], i, d.UMax[i])
		}
	}
	return nil
}

// Problem is the capability set the core consumes. Any type implementing it
// — generated or hand-written — can be armed into internal/solver.Solver.
// All evaluators must be pure apart from Synchronize's documented mutation.
type Problem interface {
	Dims() Dimensions

	// Synchronize gives the OCP a chance to refresh externally held
	// references (e.g. a moving setpoint). Called exactly once per Update,
	// before the KKT residual is evaluated for that sample.
	Synchronize()

	// EvalF writes the state derivative dx = f(t, x, u), len(dx) == nx.
	EvalF(t float64, x, u, dx []float64)

	// EvalPhix writes the terminal cost gradient phix = dphi/dx(t, x),
	// len(phix) == nx.
	EvalPhix(t float64, x, phix []float64)

	// EvalHx writes the Hamiltonian state gradient hx = dH/dx(t, x, uc,
	// lmd), len(hx) == nx. uc concatenates control and equality
	// multipliers.
	EvalHx(t float64, x, uc, lmd, hx []float64)

	// EvalHu writes the Hamiltonian control gradient hu = dH/duc(t, x, uc,
	// lmd), len(hu) == nuc.
	EvalHu(t float64, x, uc, lmd, hu []float64)
}
