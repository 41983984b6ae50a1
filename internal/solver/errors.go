package solver

import "errors"

// Domain errors for the solver facade's state machine. Usage and
// configuration errors are caught here, at the boundary; numerical
// shortfalls inside an armed update surface as ConvergenceWarning values
// or ErrNumericalFailure, never as these.
var (
	// ErrNotArmed indicates Update was called before SetUC, InitXLmd,
	// InitDummyMu, and Solve had all completed successfully.
	ErrNotArmed = errors.New("solver: not armed (call SetUC, InitXLmd, InitDummyMu, Solve first)")

	// ErrInvalidConfig indicates a SolverSettings/HorizonConfig value
	// outside its valid range.
	ErrInvalidConfig = errors.New("solver: invalid configuration")

	// ErrNumericalFailure indicates the KKT residual or the Krylov solve
	// produced a non-finite value during an armed update. The Solver
	// transitions to a poisoned state when this is returned; call Rearm
	// and redrive SetUC/InitXLmd/InitDummyMu/Solve before updating again.
	ErrNumericalFailure = errors.New("solver: numerical failure (NaN or Inf in residual)")

	// ErrPoisoned indicates Update was called on a Solver that suffered a
	// prior ErrNumericalFailure and has not been re-armed since. The
	// contaminated decision trajectory is never stepped again; call Rearm.
	ErrPoisoned = errors.New("solver: poisoned by a prior numerical failure (call Rearm)")
)

// ConvergenceWarning reports that an update's residual norm exceeded the
// configured warning threshold. It is returned alongside a nil error: a
// slow-converging update is not by itself a failure, only a signal worth
// surfacing to whoever is watching Events().
type ConvergenceWarning struct {
	Time         float64
	ResidualNorm float64
	Threshold    float64
}

func (w *ConvergenceWarning) Error() string {
	return "solver: residual norm above warning threshold"
}
