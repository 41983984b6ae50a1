package kkt

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/san-kum/cgmres-mpc/internal/ocp"
)

// linearProblem is a minimal OCP double: dx = A*x + B*u, quadratic cost,
// with one bounded control. Used to exercise the residual's rollout and
// dimensional contracts without pulling in a physical model.
type linearProblem struct {
	dims ocp.Dimensions
	a, b float64
	q, r float64
	sync int
}

func newLinearProblem() *linearProblem {
	return &linearProblem{
		dims: ocp.Dimensions{
			NX: 1, NU: 1, NC: 0, NH: 0, NUB: 1,
			UBoundIndices: []int{0},
			UMin:          []float64{-1},
			UMax:          []float64{1},
			DummyWeight:   []float64{0.1},
		},
		a: -1.0, b: 1.0, q: 1.0, r: 1.0,
	}
}

func (p *linearProblem) Dims() ocp.Dimensions { return p.dims }
func (p *linearProblem) Synchronize()         { p.sync++ }

func (p *linearProblem) EvalF(t float64, x, u, dx []float64) {
	dx[0] = p.a*x[0] + p.b*u[0]
}

func (p *linearProblem) EvalPhix(t float64, x, phix []float64) {
	phix[0] = p.q * x[0]
}

func (p *linearProblem) EvalHx(t float64, x, uc, lmd, hx []float64) {
	hx[0] = p.q*x[0] + p.a*lmd[0]
}

func (p *linearProblem) EvalHu(t float64, x, uc, lmd, hu []float64) {
	hu[0] = p.r*uc[0] + p.b*lmd[0]
}

func TestStateRolloutMatchesEulerStep(t *testing.T) {
	p := newLinearProblem()
	n := 4
	res, err := New(p, n, 1e-8)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	dim := res.Dim()
	U := make([]float64, dim)
	F := make([]float64, dim)
	for i := 0; i < n; i++ {
		U[i*res.StageWidth()] = 0.3 // u_i
		U[i*res.StageWidth()+1] = 1.0
		U[i*res.StageWidth()+2] = 0.0
	}

	x0 := []float64{0.5}
	deltaTau := 0.1
	if err := res.Eval(0, deltaTau, x0, U, F); err != nil {
		t.Fatalf("Eval: %v", err)
	}

	traj := res.StateTrajectory()
	x := x0[0]
	for i := 0; i < n; i++ {
		u := U[i*res.StageWidth()]
		want := x + deltaTau*(p.a*x+p.b*u)
		got := traj[i+1][0]
		if math.Abs(got-want) > 1e-12 {
			t.Fatalf("stage %d: x_{i+1} = %g, want %g (Euler step mismatch)", i, got, want)
		}
		x = want
	}
}

func TestTerminalCostateEqualsPhix(t *testing.T) {
	p := newLinearProblem()
	n := 3
	res, err := New(p, n, 1e-8)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	dim := res.Dim()
	U := make([]float64, dim)
	F := make([]float64, dim)
	for i := range U {
		U[i] = 0
	}
	for i := 0; i < n; i++ {
		U[i*res.StageWidth()+1] = 1.0 // v > 0
	}

	x0 := []float64{1.2}
	if err := res.Eval(0, 0.05, x0, U, F); err != nil {
		t.Fatalf("Eval: %v", err)
	}

	traj := res.StateTrajectory()
	lmd := res.CostateTrajectory()
	xN := traj[n][0]
	wantLmdN := p.q * xN
	if math.Abs(lmd[n][0]-wantLmdN) > 1e-12 {
		t.Errorf("lambda_N = %g, want phix(x_N) = %g", lmd[n][0], wantLmdN)
	}
}

func TestZeroHorizonCollapsesToTerminalStage(t *testing.T) {
	p := newLinearProblem()
	res, err := New(p, 1, 1e-8)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	dim := res.Dim()
	U := make([]float64, dim)
	U[0] = 0.2
	U[1] = 1.0
	F := make([]float64, dim)

	x0 := []float64{0.7}
	if err := res.Eval(0, 0, x0, U, F); err != nil {
		t.Fatalf("Eval: %v", err)
	}

	traj := res.StateTrajectory()
	if traj[1][0] != x0[0] {
		t.Errorf("x_1 = %g, want x0 = %g unchanged at deltaTau=0", traj[1][0], x0[0])
	}

	lmd := res.CostateTrajectory()
	wantLmd := p.q * x0[0]
	if math.Abs(lmd[0][0]-wantLmd) > 1e-12 {
		t.Errorf("lambda_0 = %g, want phix(x0) = %g", lmd[0][0], wantLmd)
	}
}

func TestDimensionalConsistency(t *testing.T) {
	p := newLinearProblem()
	n := 5
	res, err := New(p, n, 1e-8)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	wantDim := n * p.dims.StageWidth()
	if res.Dim() != wantDim {
		t.Fatalf("Dim() = %d, want %d", res.Dim(), wantDim)
	}

	x0 := []float64{0}
	badU := make([]float64, wantDim+1)
	F := make([]float64, wantDim)
	if err := res.Eval(0, 0.1, x0, badU, F); err == nil {
		t.Error("expected error for wrong-length U")
	}

	goodU := make([]float64, wantDim)
	badF := make([]float64, wantDim-1)
	if err := res.Eval(0, 0.1, x0, goodU, badF); err == nil {
		t.Error("expected error for wrong-length F")
	}

	badX0 := []float64{0, 0}
	if err := res.Eval(0, 0.1, badX0, goodU, F); err == nil {
		t.Error("expected error for wrong-length x0")
	}
}

func TestFBResidualVanishesAtFeasibleBound(t *testing.T) {
	p := newLinearProblem()
	res, err := New(p, 1, 0) // eps=0: exact complementarity test
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	dim := res.Dim()
	U := make([]float64, dim)
	// u at the upper bound (umax=1), mu=0, v=0: a=0, b=0 -> FB=0.
	U[0] = 1.0
	U[1] = 0.0
	U[2] = 0.0
	F := make([]float64, dim)

	if err := res.Eval(0, 0.1, []float64{0}, U, F); err != nil {
		t.Fatalf("Eval: %v", err)
	}

	fMu := F[2]
	if math.Abs(fMu) > 1e-9 {
		t.Errorf("F_mu at feasible bound = %g, want ~0", fMu)
	}
}

func TestStateAndCostateTrajectoriesAreDeterministic(t *testing.T) {
	// Residual.Eval reuses its scratch buffers across calls (spec.md §5's
	// allocation-free hot loop); a second Eval with identical inputs must
	// still reproduce identical trajectories rather than leaking state
	// from a prior call.
	p := newLinearProblem()
	n := 4
	res, err := New(p, n, 1e-8)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	dim := res.Dim()
	U := make([]float64, dim)
	for i := 0; i < n; i++ {
		U[i*res.StageWidth()] = 0.3
		U[i*res.StageWidth()+1] = 1.0
	}
	x0 := []float64{0.5}
	F := make([]float64, dim)

	if err := res.Eval(0, 0.1, x0, U, F); err != nil {
		t.Fatalf("first Eval: %v", err)
	}
	firstStates := cloneMatrix(res.StateTrajectory())
	firstCostates := cloneMatrix(res.CostateTrajectory())

	if err := res.Eval(0, 0.1, x0, U, F); err != nil {
		t.Fatalf("second Eval: %v", err)
	}
	if diff := cmp.Diff(firstStates, res.StateTrajectory()); diff != "" {
		t.Errorf("state trajectory differs across identical Eval calls (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(firstCostates, res.CostateTrajectory()); diff != "" {
		t.Errorf("costate trajectory differs across identical Eval calls (-first +second):\n%s", diff)
	}
}

func cloneMatrix(rows [][]float64) [][]float64 {
	out := make([][]float64, len(rows))
	for i, row := range rows {
		out[i] = append([]float64(nil), row...)
	}
	return out
}

func TestSynchronizeIsNotCalledByResidual(t *testing.T) {
	// The KKT residual is a pure function of (t, x0, U); synchronize() is a
	// solver-facade responsibility, called once per Update, never inside
	// Eval.
	p := newLinearProblem()
	res, _ := New(p, 2, 1e-8)
	U := make([]float64, res.Dim())
	F := make([]float64, res.Dim())
	_ = res.Eval(0, 0.1, []float64{0}, U, F)
	if p.sync != 0 {
		t.Errorf("Synchronize called %d times by Eval, want 0", p.sync)
	}
}
