// Package continuation implements the continuation/GMRES (C/GMRES) update
// law: instead of re-solving the KKT residual to convergence at every
// sampling instant, it takes a single Newton-like step that drives F toward
// zero at the stabilized rate dF/dt = -zeta*F, turning the nonlinear MPC
// problem into one linear solve per control update.
//
// The linear system's matrix is never formed. Its action on a trial
// direction v is approximated by a forward finite difference of the KKT
// residual along v, matching the matrix-free style of the original
// continuation/GMRES method and of the hand-written Jacobian-free
// derivative passes in this repository's other numerical packages.
package continuation

import (
	"fmt"

	"github.com/san-kum/cgmres-mpc/internal/gmres"
	"github.com/san-kum/cgmres-mpc/internal/horizon"
	"github.com/san-kum/cgmres-mpc/internal/kkt"
	"github.com/san-kum/cgmres-mpc/internal/numvec"
	"github.com/san-kum/cgmres-mpc/internal/ocp"
)

// Config holds the tunables of a single C/GMRES update.
type Config struct {
	// Zeta is the stabilization gain in dF/dt = -Zeta*F. Larger values
	// damp the residual faster but tighten the Zeta*h<2 stability bound.
	Zeta float64
	// FDEps is the finite-difference step used to approximate the
	// directional derivative of F. Zero means "use h", the classical
	// choice for C/GMRES.
	FDEps float64
	// Kmax bounds the Krylov subspace dimension per update.
	Kmax int
	// Tol is an optional early-termination threshold on the GMRES
	// residual estimate. Zero runs the full Kmax iterations.
	Tol float64
}

// Stepper performs repeated C/GMRES updates against a fixed problem and
// horizon policy. All workspace is allocated in New; Update performs no
// allocation.
type Stepper struct {
	problem ocp.Problem
	dims    ocp.Dimensions
	horizon *horizon.Horizon
	res     *kkt.Residual
	solver  *gmres.Solver
	cfg     Config

	n   int
	nx  int
	nu  int
	dim int

	dx      []float64
	xPred   []float64
	Fcur    []float64
	Fnext   []float64
	Fpert   []float64
	b       []float64
	Uwork   []float64
}

// New builds a Stepper for problem p, discretized into n shooting stages
// over the horizon policy h, using epsFB for the KKT residual's
// Fischer-Burmeister smoothing.
func New(p ocp.Problem, h *horizon.Horizon, n int, epsFB float64, cfg Config) (*Stepper, error) {
	if n <= 0 {
		return nil, ErrInvalidStageCount
	}
	res, err := kkt.New(p, n, epsFB)
	if err != nil {
		return nil, fmt.Errorf("continuation: %w", err)
	}
	if cfg.Kmax <= 0 {
		cfg.Kmax = res.Dim()
	}
	solver, err := gmres.New(res.Dim(), cfg.Kmax)
	if err != nil {
		return nil, fmt.Errorf("continuation: %w", err)
	}

	dims := p.Dims()
	dim := res.Dim()

	return &Stepper{
		problem: p,
		dims:    dims,
		horizon: h,
		res:     res,
		solver:  solver,
		cfg:     cfg,
		n:       n,
		nx:      dims.NX,
		nu:      dims.NU,
		dim:     dim,
		dx:      make([]float64, dims.NX),
		xPred:   make([]float64, dims.NX),
		Fcur:    make([]float64, dim),
		Fnext:   make([]float64, dim),
		Fpert:   make([]float64, dim),
		b:       make([]float64, dim),
		Uwork:   make([]float64, dim),
	}, nil
}

// Dim returns the dimension of the decision vector U.
func (s *Stepper) Dim() int { return s.dim }

// Residual exposes the underlying KKT residual evaluator, mainly so callers
// can read back the state/costate trajectories the last Update computed.
func (s *Stepper) Residual() *kkt.Residual { return s.res }

// Update advances the decision vector U by one control step of size h,
// starting from measured state x at time t. U is mutated in place. It
// returns the residual norm ||F(t,x,U)|| measured before the update (the
// quantity the solver reports as its convergence indicator), the first
// stage's control (a slice into U valid until the next Update call), and
// whether the inner GMRES solve broke down before exhausting Kmax — U is
// still advanced by its best partial solution in that case, per the
// underlying gmres.Solver.Solve contract.
func (s *Stepper) Update(t, h float64, x, U []float64) (u0 []float64, residualNorm float64, breakdown bool, err error) {
	if len(x) != s.nx {
		return nil, 0, false, fmt.Errorf("%w: got %d, want %d", ErrStateLength, len(x), s.nx)
	}
	if len(U) != s.dim {
		return nil, 0, false, fmt.Errorf("%w: got %d, want %d", ErrDecisionLength, len(U), s.dim)
	}
	if h <= 0 {
		return nil, 0, false, ErrInvalidStepSize
	}

	s.problem.Synchronize()

	deltaTauCur := s.horizon.T(t) / float64(s.n)
	if err := s.res.Eval(t, deltaTauCur, x, U, s.Fcur); err != nil {
		return nil, 0, false, err
	}
	residualNorm = numvec.Norm(s.Fcur)

	// Forward-Euler predictor for the state at t+h, using the current
	// first-stage control.
	s.problem.EvalF(t, x, U[:s.nu], s.dx)
	for k := 0; k < s.nx; k++ {
		s.xPred[k] = x[k] + h*s.dx[k]
	}

	tNext := t + h
	deltaTauNext := s.horizon.T(tNext) / float64(s.n)
	if err := s.res.Eval(tNext, deltaTauNext, s.xPred, U, s.Fnext); err != nil {
		return nil, 0, false, err
	}

	fdEps := s.cfg.FDEps
	if fdEps == 0 {
		fdEps = h
	}

	for k := 0; k < s.dim; k++ {
		s.b[k] = -s.cfg.Zeta*s.Fcur[k] - (s.Fnext[k]-s.Fcur[k])/h
	}

	op := func(v, out []float64) error {
		for k := 0; k < s.dim; k++ {
			s.Uwork[k] = U[k] + fdEps*v[k]
		}
		if err := s.res.Eval(tNext, deltaTauNext, s.xPred, s.Uwork, s.Fpert); err != nil {
			return err
		}
		for k := 0; k < s.dim; k++ {
			out[k] = (s.Fpert[k] - s.Fnext[k]) / fdEps
		}
		return nil
	}

	result, err := s.solver.Solve(op, s.b, s.cfg.Tol)
	if err != nil {
		return nil, 0, false, err
	}

	for k := 0; k < s.dim; k++ {
		U[k] += h * result.Delta[k]
	}

	return U[:s.nu], residualNorm, result.Breakdown, nil
}
