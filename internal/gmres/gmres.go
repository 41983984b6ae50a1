// Package gmres implements a matrix-free, restart-free GMRES(kmax) solver
// for the linear systems the continuation method poses at each update: find
// delta such that A*delta ~= b, where A is never formed explicitly but only
// ever applied to a vector through an Operator (a finite-difference
// directional derivative of the KKT residual, in the caller's case).
//
// The implementation is the classical Saad-Schultz Arnoldi process with
// incremental Givens rotations, the same shape used by the original
// continuation/GMRES method this solver descends from: build an orthonormal
// Krylov basis one vector at a time, triangularize the Hessenberg matrix as
// it grows, and read the residual norm off the rotated right-hand side
// without ever forming the least-squares problem explicitly.
//
// All workspace is allocated once in New. Solve performs no allocation and
// is safe to call repeatedly against the same Solver with a fresh Operator
// and right-hand side each time.
package gmres

import (
	"math"

	"github.com/san-kum/cgmres-mpc/internal/numvec"
)

// breakdownFloor is the absolute threshold below which a newly orthogonalized
// Krylov vector is considered numerically zero. Below this floor the basis
// cannot be extended further; the solver truncates and returns its best
// partial solution rather than dividing by a near-zero norm.
const breakdownFloor = 1e-12

// Operator applies A to v, writing the result into out. Both slices have
// length dim; out must not alias v. An error aborts the solve immediately.
type Operator func(v, out []float64) error

// Result reports the outcome of a Solve call. Delta aliases the Solver's
// internal buffer and is only valid until the next Solve call.
type Result struct {
	Delta        []float64
	Iterations   int // number of Krylov basis vectors actually used
	ResidualNorm float64
	Breakdown    bool // true if the Krylov basis collapsed before kmax
}

// Solver holds the fixed-size workspace for GMRES(kmax) over a dim-
// dimensional linear system. Constructing a Solver allocates every buffer
// it will ever need; Solve reuses them on every call.
type Solver struct {
	dim, kmax int

	v [][]float64 // kmax+1 orthonormal basis vectors, length dim
	h [][]float64 // (kmax+1) x kmax upper Hessenberg matrix, row-major
	cs, sn []float64 // Givens rotation coefficients, length kmax
	g      []float64 // rotated right-hand side, length kmax+1
	y      []float64 // back-substitution solution, length kmax
	w      []float64 // scratch for A*v[j] and orthogonalization, length dim
	delta  []float64 // accumulated solution, length dim
}

// New allocates a GMRES(kmax) workspace for dim-dimensional systems.
func New(dim, kmax int) (*Solver, error) {
	if dim <= 0 {
		return nil, ErrInvalidDim
	}
	if kmax <= 0 {
		return nil, ErrInvalidKmax
	}

	s := &Solver{dim: dim, kmax: kmax}

	s.v = make([][]float64, kmax+1)
	for i := range s.v {
		s.v[i] = make([]float64, dim)
	}
	s.h = make([][]float64, kmax+1)
	for i := range s.h {
		s.h[i] = make([]float64, kmax)
	}
	s.cs = make([]float64, kmax)
	s.sn = make([]float64, kmax)
	s.g = make([]float64, kmax+1)
	s.y = make([]float64, kmax)
	s.w = make([]float64, dim)
	s.delta = make([]float64, dim)

	return s, nil
}

// Dim returns the dimension of the linear system.
func (s *Solver) Dim() int { return s.dim }

// Kmax returns the maximum Krylov subspace dimension.
func (s *Solver) Kmax() int { return s.kmax }

// Solve finds delta minimizing ||A*delta - b|| over the Krylov subspace
// generated from b, starting from delta=0 (so the initial residual is
// exactly b; the continuation method always solves a fresh system each
// update, never warm-starts). tol is an optional early-termination
// threshold on the residual estimate; pass 0 to always run the full kmax
// iterations (or until breakdown).
//
// The returned Result's Delta slice aliases s.delta and remains valid only
// until the next call to Solve.
func (s *Solver) Solve(a Operator, b []float64, tol float64) (Result, error) {
	if len(b) != s.dim {
		return Result{}, ErrRHSLength
	}

	for i := range s.delta {
		s.delta[i] = 0
	}

	beta := numvec.Norm(b)
	if beta < breakdownFloor {
		// b is already (numerically) zero: delta=0 solves it exactly.
		return Result{Delta: s.delta, Iterations: 0, ResidualNorm: beta}, nil
	}

	numvec.Scale(s.v[0], 1.0/beta, b)
	for i := range s.g {
		s.g[i] = 0
	}
	s.g[0] = beta

	k := 0
	breakdown := false

	for j := 0; j < s.kmax; j++ {
		if err := a(s.v[j], s.w); err != nil {
			return Result{}, err
		}

		// Modified Gram-Schmidt against the basis built so far.
		for i := 0; i <= j; i++ {
			s.h[i][j] = numvec.Dot(s.w, s.v[i])
			for d := 0; d < s.dim; d++ {
				s.w[d] -= s.h[i][j] * s.v[i][d]
			}
		}

		hNext := numvec.Norm(s.w)
		s.h[j+1][j] = hNext
		if hNext >= breakdownFloor {
			numvec.Scale(s.v[j+1], 1.0/hNext, s.w)
		}

		// Apply the previously accumulated rotations to column j.
		for i := 0; i < j; i++ {
			tmp := s.cs[i]*s.h[i][j] + s.sn[i]*s.h[i+1][j]
			s.h[i+1][j] = -s.sn[i]*s.h[i][j] + s.cs[i]*s.h[i+1][j]
			s.h[i][j] = tmp
		}

		// New rotation zeroing h[j+1][j].
		denom := math.Hypot(s.h[j][j], s.h[j+1][j])
		if denom < breakdownFloor {
			s.cs[j], s.sn[j] = 1, 0
		} else {
			s.cs[j] = s.h[j][j] / denom
			s.sn[j] = s.h[j+1][j] / denom
		}
		s.h[j][j] = s.cs[j]*s.h[j][j] + s.sn[j]*s.h[j+1][j]
		s.h[j+1][j] = 0

		g0 := s.g[j]
		s.g[j] = s.cs[j] * g0
		s.g[j+1] = -s.sn[j] * g0

		k = j + 1

		if hNext < breakdownFloor {
			// The Krylov subspace is exhausted: column j is already
			// folded into the rotated system above, and no further
			// basis vector can be added.
			breakdown = k < s.kmax
			break
		}

		if tol > 0 && math.Abs(s.g[k]) < tol {
			break
		}
	}

	s.backSolve(k)

	for d := 0; d < s.dim; d++ {
		acc := 0.0
		for i := 0; i < k; i++ {
			acc += s.v[i][d] * s.y[i]
		}
		s.delta[d] = acc
	}

	return Result{
		Delta:        s.delta,
		Iterations:   k,
		ResidualNorm: math.Abs(s.g[k]),
		Breakdown:    breakdown,
	}, nil
}

// backSolve solves the k x k upper triangular system H*y = g by back
// substitution, writing into s.y[0:k].
func (s *Solver) backSolve(k int) {
	for i := k - 1; i >= 0; i-- {
		sum := s.g[i]
		for col := i + 1; col < k; col++ {
			sum -= s.h[i][col] * s.y[col]
		}
		if math.Abs(s.h[i][i]) < breakdownFloor {
			s.y[i] = 0
			continue
		}
		s.y[i] = sum / s.h[i][i]
	}
}
