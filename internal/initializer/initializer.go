// Package initializer solves for a consistent initial decision vector U0
// before the continuation method starts stepping. The continuation/GMRES
// update law only ever takes a single linear step per sampling instant; it
// needs a starting U that already nearly satisfies the zero-horizon KKT
// residual, or the early updates diverge. This package runs an ordinary
// full-step Newton-GMRES iteration against the degenerate single-stage,
// zero-width residual (the same kkt.Residual used everywhere else, called
// with n=1 and deltaTau=0) until it converges or exhausts its iteration
// budget.
package initializer

import (
	"fmt"

	"github.com/san-kum/cgmres-mpc/internal/gmres"
	"github.com/san-kum/cgmres-mpc/internal/kkt"
	"github.com/san-kum/cgmres-mpc/internal/numvec"
	"github.com/san-kum/cgmres-mpc/internal/ocp"
)

// Config tunes the Newton-GMRES iteration.
type Config struct {
	MaxIter int
	Tol     float64 // converged once ||F|| < Tol
	Kmax    int     // GMRES Krylov subspace bound per Newton step
	FDEps   float64 // finite-difference step; 0 defaults to 1e-6
}

// ConvergenceWarning reports that Initialize exhausted its iteration budget
// without reaching Tol. It is deliberately not wrapped as an error: the
// caller receives its best-effort U0 along with the warning and decides
// whether to arm the solver anyway, matching the rest of this package's
// separation between usage errors and numerical shortfalls.
type ConvergenceWarning struct {
	Iterations   int
	ResidualNorm float64
}

func (w *ConvergenceWarning) Error() string {
	return fmt.Sprintf("initializer: did not converge after %d iterations, ||F||=%g", w.Iterations, w.ResidualNorm)
}

// Initialize iterates U in place starting from its current value, driving
// the zero-horizon residual F(t, x0, U) toward zero. It returns the final
// residual norm and, if the iteration budget was exhausted first, a
// ConvergenceWarning describing the shortfall.
func Initialize(p ocp.Problem, t float64, x0, U []float64, epsFB float64, cfg Config) (float64, *ConvergenceWarning, error) {
	res, err := kkt.New(p, 1, epsFB)
	if err != nil {
		return 0, nil, fmt.Errorf("initializer: %w", err)
	}
	dim := res.Dim()
	if len(U) != dim {
		return 0, nil, fmt.Errorf("initializer: U has wrong length: got %d, want %d", len(U), dim)
	}

	kmax := cfg.Kmax
	if kmax <= 0 {
		kmax = dim
	}
	solver, err := gmres.New(dim, kmax)
	if err != nil {
		return 0, nil, fmt.Errorf("initializer: %w", err)
	}

	fdEps := cfg.FDEps
	if fdEps == 0 {
		fdEps = 1e-6
	}

	F := make([]float64, dim)
	Fpert := make([]float64, dim)
	Uwork := make([]float64, dim)
	b := make([]float64, dim)

	op := func(v, out []float64) error {
		for k := range Uwork {
			Uwork[k] = U[k] + fdEps*v[k]
		}
		if err := res.Eval(t, 0, x0, Uwork, Fpert); err != nil {
			return err
		}
		for k := range out {
			out[k] = (Fpert[k] - F[k]) / fdEps
		}
		return nil
	}

	norm := 0.0
	for iter := 0; iter < cfg.MaxIter; iter++ {
		p.Synchronize()
		if err := res.Eval(t, 0, x0, U, F); err != nil {
			return 0, nil, err
		}
		norm = numvec.Norm(F)
		if norm < cfg.Tol {
			return norm, nil, nil
		}

		for k := range b {
			b[k] = -F[k]
		}
		result, err := solver.Solve(op, b, 0)
		if err != nil {
			return norm, nil, err
		}
		for k := range U {
			U[k] += result.Delta[k]
		}
	}

	if err := res.Eval(t, 0, x0, U, F); err != nil {
		return 0, nil, err
	}
	norm = numvec.Norm(F)
	if norm < cfg.Tol {
		return norm, nil, nil
	}
	return norm, &ConvergenceWarning{Iterations: cfg.MaxIter, ResidualNorm: norm}, nil
}
