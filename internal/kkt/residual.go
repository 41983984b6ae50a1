// Package kkt computes the multiple-shooting Karush-Kuhn-Tucker residual
// F(U; t, x0) that the continuation/GMRES method drives to zero. It is the
// central object of the solver: it rolls out state and costate trajectories
// across the horizon's stages, composes the control-stationarity,
// dummy-input, and Fischer-Burmeister rows for each bounded control, and
// flattens everything into a single dense residual vector.
//
// The same type serves the degenerate single-stage (N=1, deltaTau=0) path
// used by the zero-horizon initializer: passing n=1 and deltaTau=0 to Eval
// collapses the rollout to x[0]==x0 and lmd[0]==phix(t,x0), exactly
// matching the "terminal stage only" case of the zero-horizon OCP.
package kkt

import (
	"fmt"

	"github.com/san-kum/cgmres-mpc/internal/fb"
	"github.com/san-kum/cgmres-mpc/internal/ocp"
)

// Residual evaluates F(U; t, x0) for a fixed number of shooting stages.
// All workspace is allocated once in New and reused by every Eval call, so
// armed evaluation performs no heap allocation.
type Residual struct {
	problem ocp.Problem
	dims    ocp.Dimensions
	epsFB   float64

	n          int // number of shooting stages
	nx         int
	nuc        int
	nub        int
	stageWidth int
	dim        int

	xTraj   [][]float64 // n+1 states, each length nx
	lmdTraj [][]float64 // n+1 costates, each length nx
	hx      []float64   // scratch, length nx
	hu      []float64   // scratch, length nuc
	dx      []float64   // scratch, length nx
}

// New builds a residual evaluator for n shooting stages over problem p.
// epsFB is the Fischer-Burmeister smoothing parameter (spec: typically
// small and nonzero to keep the square root differentiable at the origin).
func New(p ocp.Problem, n int, epsFB float64) (*Residual, error) {
	dims := p.Dims()
	if err := dims.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDimensions, err)
	}
	if n <= 0 {
		return nil, ErrStageCount
	}

	nx := dims.NX
	nuc := dims.NUC()
	nub := dims.NUB
	stageWidth := dims.StageWidth()

	r := &Residual{
		problem:    p,
		dims:       dims,
		epsFB:      epsFB,
		n:          n,
		nx:         nx,
		nuc:        nuc,
		nub:        nub,
		stageWidth: stageWidth,
		dim:        n * stageWidth,
		xTraj:      make([][]float64, n+1),
		lmdTraj:    make([][]float64, n+1),
		hx:         make([]float64, nx),
		hu:         make([]float64, nuc),
		dx:         make([]float64, nx),
	}
	for i := range r.xTraj {
		r.xTraj[i] = make([]float64, nx)
		r.lmdTraj[i] = make([]float64, nx)
	}
	return r, nil
}

// Dim returns dim(U), the length of the decision vector and of F.
func (r *Residual) Dim() int { return r.dim }

// Stages returns the number of shooting stages this residual was built for.
func (r *Residual) Stages() int { return r.n }

// StageWidth returns the number of unknowns per shooting stage.
func (r *Residual) StageWidth() int { return r.stageWidth }

// StateTrajectory returns the state trajectory computed by the most recent
// Eval call: n+1 vectors of length nx, owned by the Residual (copy before
// mutating the next Eval).
func (r *Residual) StateTrajectory() [][]float64 { return r.xTraj }

// CostateTrajectory returns the costate trajectory computed by the most
// recent Eval call, analogous to StateTrajectory.
func (r *Residual) CostateTrajectory() [][]float64 { return r.lmdTraj }

func (r *Residual) stageOffset(i int) int { return i * r.stageWidth }

// stageSlices returns, for stage i of the flattened decision vector U, the
// (u, v, mu) sub-slices in the ordering spec'd for U: nuc control+multiplier
// components, then nub dummy inputs, then nub slack multipliers.
func (r *Residual) stageSlices(U []float64, i int) (u, v, mu []float64) {
	off := r.stageOffset(i)
	u = U[off : off+r.nuc]
	v = U[off+r.nuc : off+r.nuc+r.nub]
	mu = U[off+r.nuc+r.nub : off+r.nuc+2*r.nub]
	return
}

// Eval computes F(U; t, x0) for a horizon discretized into r.n stages of
// uniform width deltaTau, writing the result into F. F must have length
// r.Dim(). Passing n=1 and deltaTau=0 evaluates the zero-horizon (terminal
// stage only) residual used by the initializer.
func (r *Residual) Eval(t, deltaTau float64, x0, U, F []float64) error {
	if len(x0) != r.nx {
		return fmt.Errorf("%w: got %d, want %d", ErrStateLength, len(x0), r.nx)
	}
	if len(U) != r.dim {
		return fmt.Errorf("%w: got %d, want %d", ErrDecisionLength, len(U), r.dim)
	}
	if len(F) != r.dim {
		return fmt.Errorf("%w: got %d, want %d", ErrResidualLength, len(F), r.dim)
	}

	dims := r.dims
	p := r.problem

	// Forward state roll-out: x_{i+1} = x_i + deltaTau*f(t_i, x_i, u_i).
	copy(r.xTraj[0], x0)
	for i := 0; i < r.n; i++ {
		u, _, _ := r.stageSlices(U, i)
		ti := t + float64(i)*deltaTau
		p.EvalF(ti, r.xTraj[i], u[:dims.NU], r.dx)
		for k := 0; k < r.nx; k++ {
			r.xTraj[i+1][k] = r.xTraj[i][k] + deltaTau*r.dx[k]
		}
	}

	// Terminal costate: lambda_N = phix(t_N, x_N).
	tN := t + float64(r.n)*deltaTau
	p.EvalPhix(tN, r.xTraj[r.n], r.lmdTraj[r.n])

	// Backward costate roll-out and per-stage residual composition.
	for i := r.n - 1; i >= 0; i-- {
		u, v, mu := r.stageSlices(U, i)
		ti := t + float64(i)*deltaTau
		lmdNext := r.lmdTraj[i+1]

		p.EvalHx(ti, r.xTraj[i], u, lmdNext, r.hx)
		for k := 0; k < r.nx; k++ {
			r.lmdTraj[i][k] = lmdNext[k] + deltaTau*r.hx[k]
		}

		p.EvalHu(ti, r.xTraj[i], u, lmdNext, r.hu)

		off := r.stageOffset(i)
		fu := F[off : off+r.nuc]
		fv := F[off+r.nuc : off+r.nuc+r.nub]
		fmu := F[off+r.nuc+r.nub : off+r.nuc+2*r.nub]

		copy(fu, r.hu)
		for j := 0; j < r.nub; j++ {
			pos := dims.UBoundIndices[j]
			umin, umax := dims.UMin[j], dims.UMax[j]
			uj, vj, muj := u[pos], v[j], mu[j]

			fu[pos] += muj * fb.BoundGapDU(uj, umin, umax)
			fv[j] = fb.DummyStationarity(vj, muj, dims.DummyWeight[j])
			a := fb.BoundGap(uj, umin, umax, muj)
			b := vj * vj
			fmu[j] = fb.Value(a, b, r.epsFB)
		}
	}

	return nil
}
