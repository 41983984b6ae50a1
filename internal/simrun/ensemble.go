package simrun

import (
	"context"
	"sync"

	"github.com/san-kum/cgmres-mpc/internal/ocp"
	"github.com/san-kum/cgmres-mpc/internal/solver"
)

// Member is one ensemble run's outcome.
type Member struct {
	Result *Result
	Err    error
}

// Build constructs the independent solver, problem, and initial state for
// ensemble member i. Each call must return a solver that is already armed
// (SetUC/InitXLmd/InitDummyMu/Solve already run) and owns no state shared
// with any other member, since members run concurrently.
type Build func(i int) (*solver.Solver, ocp.Problem, []float64)

// RunEnsemble runs n independent closed-loop simulations concurrently,
// each built fresh by build, and collects their results in order. One
// member's error does not cancel the others; check each Member.Err.
func RunEnsemble(ctx context.Context, build Build, n int, cfg Config) []Member {
	members := make([]Member, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			s, p, x0 := build(idx)
			res, err := Run(ctx, s, p, x0, cfg)
			members[idx] = Member{Result: res, Err: err}
		}(i)
	}
	wg.Wait()

	return members
}
