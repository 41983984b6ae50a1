// Package solver is the facade the rest of the program drives: it wraps
// the continuation stepper and the zero-horizon initializer behind a small
// arming state machine, the same shape as the original C/GMRES reference
// implementation's set_uc -> init_x_lmd -> init_dummy_mu -> update()*
// sequence, so a caller cannot accidentally step an unarmed solver.
package solver

import (
	"fmt"
	"math"

	"github.com/san-kum/cgmres-mpc/internal/continuation"
	"github.com/san-kum/cgmres-mpc/internal/horizon"
	"github.com/san-kum/cgmres-mpc/internal/initializer"
	"github.com/san-kum/cgmres-mpc/internal/numvec"
	"github.com/san-kum/cgmres-mpc/internal/ocp"
)

type armState int

const (
	stateConstructed armState = iota
	stateUCSet
	stateXLmdInit
	stateDummyInit
	stateArmed
	statePoisoned
)

// Settings collects every tunable of the solver facade: discretization,
// continuation gains, and the initializer's own convergence budget.
type Settings struct {
	N     int     // shooting stages per horizon
	EpsFB float64 // Fischer-Burmeister smoothing parameter
	Zeta  float64 // continuation stabilization gain
	FDEps float64 // finite-difference step for continuation's directional derivative; 0 means "use h"
	Kmax  int     // GMRES Krylov subspace bound per update; 0 means "use dim(U)"
	Tol   float64 // GMRES early-termination threshold; 0 runs the full Kmax iterations

	WarnThreshold float64 // Update residual norms above this emit a ConvergenceWarning; 0 disables the check

	InitMaxIter  int     // initializer Newton-GMRES iteration budget
	InitTol      float64 // initializer convergence tolerance on ||F||
	InitDummyEps float64 // floor applied to the dummy-input feasibility gap when a bound is (numerically) infeasible; 0 defaults to 1e-6
}

func (s Settings) validate() error {
	if s.N <= 0 {
		return fmt.Errorf("%w: N must be positive, got %d", ErrInvalidConfig, s.N)
	}
	if s.Zeta <= 0 {
		return fmt.Errorf("%w: Zeta must be positive, got %g", ErrInvalidConfig, s.Zeta)
	}
	if s.EpsFB < 0 {
		return fmt.Errorf("%w: EpsFB must be non-negative, got %g", ErrInvalidConfig, s.EpsFB)
	}
	if s.InitMaxIter <= 0 {
		return fmt.Errorf("%w: InitMaxIter must be positive, got %d", ErrInvalidConfig, s.InitMaxIter)
	}
	if s.InitTol <= 0 {
		return fmt.Errorf("%w: InitTol must be positive, got %g", ErrInvalidConfig, s.InitTol)
	}
	return nil
}

// Event is emitted on every successful Update, for whoever is watching
// Events() (the live TUI, a logger, a test). Emission is non-blocking: a
// full channel drops the event rather than stall the control loop.
type Event struct {
	Time         float64
	ResidualNorm float64
	Message      string
}

// Solver drives a single ocp.Problem through repeated control updates.
type Solver struct {
	problem  ocp.Problem
	horizon  *horizon.Horizon
	settings Settings
	dims     ocp.Dimensions

	stepper *continuation.Stepper

	stageWidth int
	dim        int

	ucGuess []float64 // template stage block: [u(nuc), v(nub), mu(nub)]
	U       []float64 // full decision trajectory, length dim

	t0    float64
	x0    []float64
	state armState

	lastResidualNorm float64
	events           chan Event
}

// New builds a Solver for problem p over horizon policy h. It performs no
// initialization beyond validating settings; the caller must still drive
// SetUC, InitXLmd, InitDummyMu, and Solve before the first Update.
func New(p ocp.Problem, h *horizon.Horizon, settings Settings) (*Solver, error) {
	if err := settings.validate(); err != nil {
		return nil, err
	}

	stepper, err := continuation.New(p, h, settings.N, settings.EpsFB, continuation.Config{
		Zeta:  settings.Zeta,
		FDEps: settings.FDEps,
		Kmax:  settings.Kmax,
		Tol:   settings.Tol,
	})
	if err != nil {
		return nil, err
	}

	dims := p.Dims()
	stageWidth := dims.StageWidth()

	return &Solver{
		problem:    p,
		horizon:    h,
		settings:   settings,
		dims:       dims,
		stepper:    stepper,
		stageWidth: stageWidth,
		dim:        stepper.Dim(),
		ucGuess:    make([]float64, stageWidth),
		U:          make([]float64, stepper.Dim()),
		x0:         make([]float64, dims.NX),
		state:      stateConstructed,
		events:     make(chan Event, 64),
	}, nil
}

// Dims returns the problem's dimension block.
func (s *Solver) Dims() ocp.Dimensions { return s.dims }

// Events returns the channel Update posts progress events to.
func (s *Solver) Events() <-chan Event { return s.events }

// LastResidualNorm returns ||F|| as measured by the most recent Update
// call, or zero if Update has not yet run.
func (s *Solver) LastResidualNorm() float64 { return s.lastResidualNorm }

// SetUC seeds the initial control/multiplier guess shared by every
// shooting stage before the zero-horizon initializer refines it. uc must
// have length Dims().NUC().
func (s *Solver) SetUC(uc []float64) error {
	if s.state != stateConstructed {
		return fmt.Errorf("%w: SetUC called out of order", ErrInvalidConfig)
	}
	if len(uc) != s.dims.NUC() {
		return fmt.Errorf("%w: uc has length %d, want %d", ErrInvalidConfig, len(uc), s.dims.NUC())
	}
	copy(s.ucGuess[:s.dims.NUC()], uc)
	s.state = stateUCSet
	return nil
}

// InitXLmd records the initial condition (t0, x0) and sanity-checks that
// the problem produces finite terminal-cost and Hamiltonian gradients
// there before any dummy-input bookkeeping happens.
func (s *Solver) InitXLmd(t0 float64, x0 []float64) error {
	if s.state != stateUCSet {
		return fmt.Errorf("%w: InitXLmd called out of order", ErrInvalidConfig)
	}
	if len(x0) != s.dims.NX {
		return fmt.Errorf("%w: x0 has length %d, want %d", ErrInvalidConfig, len(x0), s.dims.NX)
	}

	phix := make([]float64, s.dims.NX)
	s.problem.EvalPhix(t0, x0, phix)
	if !numvec.IsFinite(phix) {
		return fmt.Errorf("%w: phix(t0,x0) is not finite", ErrNumericalFailure)
	}

	hx := make([]float64, s.dims.NX)
	s.problem.EvalHx(t0, x0, s.ucGuess[:s.dims.NUC()], phix, hx)
	if !numvec.IsFinite(hx) {
		return fmt.Errorf("%w: Hx(t0,x0,uc,phix) is not finite", ErrNumericalFailure)
	}

	s.t0 = t0
	copy(s.x0, x0)
	s.state = stateXLmdInit
	return nil
}

// InitDummyMu computes the dummy input v and slack multiplier mu for every
// bounded control in the template stage block, from the current uc guess.
// If a bound is numerically infeasible (the feasibility gap a=(umax-u)(u-umin)
// is negative), a is clamped to InitDummyEps rather than taking a square
// root of a negative number, and a warning is posted to Events() — the
// arming sequence still proceeds, but the caller's uc guess put a bounded
// control outside its own bounds.
func (s *Solver) InitDummyMu() error {
	if s.state != stateXLmdInit {
		return fmt.Errorf("%w: InitDummyMu called out of order", ErrInvalidConfig)
	}

	floor := s.settings.InitDummyEps
	if floor <= 0 {
		floor = 1e-6
	}

	nuc := s.dims.NUC()
	for j := 0; j < s.dims.NUB; j++ {
		pos := s.dims.UBoundIndices[j]
		umin, umax := s.dims.UMin[j], s.dims.UMax[j]
		u := s.ucGuess[pos]

		a := (umax - u) * (u - umin)
		if a < 0 {
			s.emit(Event{Time: s.t0, Message: fmt.Sprintf(
				"init_dummy_mu: bound %d infeasible at arming (a=%g < 0); clamped to %g", j, a, floor)})
			a = floor
		}
		v := math.Sqrt(a)

		w := s.dims.DummyWeight[j]
		mu := 0.0
		if v > 1e-12 {
			mu = w / (2 * v)
		}

		s.ucGuess[nuc+j] = v
		s.ucGuess[nuc+s.dims.NUB+j] = mu
	}

	s.state = stateDummyInit
	return nil
}

// Solve runs the zero-horizon Newton-GMRES initializer against the
// template stage block, then tiles the refined block across every
// shooting stage to form the initial full-horizon decision trajectory.
// Once Solve returns without error, the solver is armed: Update can run.
func (s *Solver) Solve() error {
	if s.state != stateDummyInit {
		return fmt.Errorf("%w: Solve called out of order", ErrInvalidConfig)
	}

	_, warn, err := initializer.Initialize(s.problem, s.t0, s.x0, s.ucGuess, s.settings.EpsFB, initializer.Config{
		MaxIter: s.settings.InitMaxIter,
		Tol:     s.settings.InitTol,
		Kmax:    s.settings.Kmax,
	})
	if err != nil {
		return err
	}
	if warn != nil {
		s.emit(Event{Time: s.t0, Message: warn.Error()})
	}

	for i := 0; i < s.settings.N; i++ {
		copy(s.U[i*s.stageWidth:(i+1)*s.stageWidth], s.ucGuess)
	}

	s.state = stateArmed
	return nil
}

// Update advances the armed solver by one control step of size h from
// measured state x at time t. It returns a non-nil ConvergenceWarning
// (with a nil error) if the residual norm exceeded Settings.WarnThreshold,
// and a non-nil error if the solver was not armed, was poisoned by a prior
// numerical failure, or this update itself produced a non-finite residual
// or decision vector. A numerical failure poisons the Solver: every
// subsequent Update call returns ErrPoisoned without touching U again,
// until Rearm and a fresh SetUC/InitXLmd/InitDummyMu/Solve sequence clear
// the contaminated state.
func (s *Solver) Update(t, h float64, x []float64) (*ConvergenceWarning, error) {
	if s.state == statePoisoned {
		return nil, ErrPoisoned
	}
	if s.state != stateArmed {
		return nil, ErrNotArmed
	}
	if s.settings.Zeta*h >= 2 {
		s.emit(Event{Time: t, Message: fmt.Sprintf("zeta*h = %g >= 2: continuation step may be unstable", s.settings.Zeta*h)})
	}

	_, residualNorm, breakdown, err := s.stepper.Update(t, h, x, s.U)
	if err != nil {
		return nil, err
	}
	if breakdown {
		s.emit(Event{Time: t, Message: "gmres: krylov basis broke down before kmax; continuing with best partial solution"})
	}
	if math.IsNaN(residualNorm) || math.IsInf(residualNorm, 0) || !numvec.IsFinite(s.U) {
		s.state = statePoisoned
		s.emit(Event{Time: t, Message: "numerical failure: residual or decision vector non-finite; solver poisoned, call Rearm"})
		return nil, ErrNumericalFailure
	}

	s.lastResidualNorm = residualNorm
	s.emit(Event{Time: t, ResidualNorm: residualNorm})

	if s.settings.WarnThreshold > 0 && residualNorm > s.settings.WarnThreshold {
		return &ConvergenceWarning{Time: t, ResidualNorm: residualNorm, Threshold: s.settings.WarnThreshold}, nil
	}
	return nil, nil
}

// Rearm clears a poisoned (or simply armed) Solver back to its
// just-constructed state, zeroing the decision trajectory and the
// template stage guess. The caller must drive SetUC, InitXLmd,
// InitDummyMu, and Solve again before the next Update.
func (s *Solver) Rearm() {
	for i := range s.U {
		s.U[i] = 0
	}
	for i := range s.ucGuess {
		s.ucGuess[i] = 0
	}
	s.lastResidualNorm = 0
	s.state = stateConstructed
}

// UOpt returns the first shooting stage's optimal control, the input the
// caller should actually apply to the plant. The returned slice aliases
// internal state and is only valid until the next Update.
func (s *Solver) UOpt() []float64 {
	return s.U[:s.dims.NU]
}

// UCOpt returns a copy of the full optimized decision trajectory.
func (s *Solver) UCOpt() []float64 {
	out := make([]float64, len(s.U))
	copy(out, s.U)
	return out
}

func (s *Solver) emit(e Event) {
	select {
	case s.events <- e:
	default:
	}
}
