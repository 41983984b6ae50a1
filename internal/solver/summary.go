package solver

import (
	"fmt"
	"strings"
)

// Summary renders a disp()-style human-readable dump of the solver's
// dimensions, continuation settings, and last-known residual norm: a
// one-shot snapshot rather than a per-update stream. "cgmres run" prints it
// after every batch (non-live) run.
func (s *Solver) Summary() string {
	var b strings.Builder

	fmt.Fprintf(&b, "cgmres solver\n")
	fmt.Fprintf(&b, "  dimensions: nx=%d nu=%d nc=%d nub=%d  (nuc=%d, stage width=%d)\n",
		s.dims.NX, s.dims.NU, s.dims.NC, s.dims.NUB, s.dims.NUC(), s.stageWidth)
	fmt.Fprintf(&b, "  horizon:    stages=%d Tf=%g\n", s.settings.N, s.horizon.Tf())
	fmt.Fprintf(&b, "  continuation: zeta=%g kmax=%d epsFB=%g\n", s.settings.Zeta, s.settings.Kmax, s.settings.EpsFB)
	fmt.Fprintf(&b, "  initializer: maxIter=%d tol=%g\n", s.settings.InitMaxIter, s.settings.InitTol)
	fmt.Fprintf(&b, "  state:      %s\n", s.state)
	fmt.Fprintf(&b, "  last ||F||: %g\n", s.lastResidualNorm)

	return b.String()
}

func (st armState) String() string {
	switch st {
	case stateConstructed:
		return "constructed"
	case stateUCSet:
		return "uc-set"
	case stateXLmdInit:
		return "x-lambda-initialized"
	case stateDummyInit:
		return "dummy-initialized"
	case stateArmed:
		return "armed"
	case statePoisoned:
		return "poisoned"
	default:
		return "unknown"
	}
}
