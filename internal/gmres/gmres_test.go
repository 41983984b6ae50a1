package gmres_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/cgmres-mpc/internal/gmres"
)

// denseOperator wraps a dense row-major matrix as a gmres.Operator, purely
// for testing: the solver itself never sees a matrix, only this closure.
func denseOperator(mat [][]float64) gmres.Operator {
	return func(v, out []float64) error {
		for i := range mat {
			sum := 0.0
			for j, mij := range mat[i] {
				sum += mij * v[j]
			}
			out[i] = sum
		}
		return nil
	}
}

var _ = Describe("GMRES", func() {
	It("rejects a non-positive dimension", func() {
		_, err := gmres.New(0, 4)
		Expect(err).To(MatchError(gmres.ErrInvalidDim))
	})

	It("rejects a non-positive kmax", func() {
		_, err := gmres.New(4, 0)
		Expect(err).To(MatchError(gmres.ErrInvalidKmax))
	})

	It("rejects a right-hand side of the wrong length", func() {
		s, err := gmres.New(3, 3)
		Expect(err).NotTo(HaveOccurred())
		_, err = s.Solve(denseOperator([][]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}), []float64{1, 2}, 0)
		Expect(err).To(MatchError(gmres.ErrRHSLength))
	})

	It("solves a diagonal SPD system exactly within dim iterations", func() {
		mat := [][]float64{
			{4, 0, 0},
			{0, 2, 0},
			{0, 0, 9},
		}
		b := []float64{8, 4, 18}
		s, err := gmres.New(3, 3)
		Expect(err).NotTo(HaveOccurred())

		res, err := s.Solve(denseOperator(mat), b, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Breakdown).To(BeFalse())
		Expect(res.Delta).To(HaveLen(3))
		Expect(res.Delta[0]).To(BeNumerically("~", 2, 1e-8))
		Expect(res.Delta[1]).To(BeNumerically("~", 2, 1e-8))
		Expect(res.Delta[2]).To(BeNumerically("~", 2, 1e-8))
		Expect(res.ResidualNorm).To(BeNumerically("<", 1e-8))
	})

	It("converges monotonically on a well-conditioned SPD system", func() {
		mat := [][]float64{
			{3, 1, 0, 0},
			{1, 4, 1, 0},
			{0, 1, 5, 1},
			{0, 0, 1, 6},
		}
		b := []float64{1, 2, 3, 4}

		residuals := make([]float64, 0, 4)
		for kmax := 1; kmax <= 4; kmax++ {
			s, err := gmres.New(4, kmax)
			Expect(err).NotTo(HaveOccurred())
			res, err := s.Solve(denseOperator(mat), b, 0)
			Expect(err).NotTo(HaveOccurred())
			residuals = append(residuals, res.ResidualNorm)
		}

		for i := 1; i < len(residuals); i++ {
			Expect(residuals[i]).To(BeNumerically("<=", residuals[i-1]+1e-12),
				"residual norm must not increase as kmax grows")
		}
		Expect(residuals[len(residuals)-1]).To(BeNumerically("<", 1e-8))
	})

	It("is deterministic across repeated solves of the same system", func() {
		mat := [][]float64{
			{2, 1},
			{1, 3},
		}
		b := []float64{5, 10}
		s, err := gmres.New(2, 2)
		Expect(err).NotTo(HaveOccurred())

		res1, err := s.Solve(denseOperator(mat), b, 0)
		Expect(err).NotTo(HaveOccurred())
		d1 := append([]float64{}, res1.Delta...)

		res2, err := s.Solve(denseOperator(mat), b, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(res2.Delta).To(Equal(d1))
	})

	It("returns the zero vector for a zero right-hand side without calling the operator", func() {
		called := false
		op := func(v, out []float64) error {
			called = true
			return nil
		}
		s, err := gmres.New(3, 3)
		Expect(err).NotTo(HaveOccurred())
		res, err := s.Solve(op, []float64{0, 0, 0}, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(called).To(BeFalse())
		Expect(res.Iterations).To(Equal(0))
		Expect(res.Delta).To(Equal([]float64{0, 0, 0}))
	})

	It("flags breakdown and returns a finite partial solution for a rank-deficient operator", func() {
		// A maps everything to the span of e0: the Krylov basis collapses
		// to dimension 2 (the span of b and e0) however large kmax is.
		mat := [][]float64{
			{1, 0, 0},
			{0, 0, 0},
			{0, 0, 0},
		}
		b := []float64{1, 1, 1}
		s, err := gmres.New(3, 5)
		Expect(err).NotTo(HaveOccurred())

		res, err := s.Solve(denseOperator(mat), b, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Breakdown).To(BeTrue())
		Expect(res.Iterations).To(BeNumerically("<", 5))
		for _, d := range res.Delta {
			Expect(math.IsNaN(d)).To(BeFalse())
			Expect(math.IsInf(d, 0)).To(BeFalse())
		}
	})

	It("stops early once the residual estimate drops below tol", func() {
		mat := [][]float64{
			{5, 0, 0, 0},
			{0, 5, 0, 0},
			{0, 0, 5, 0},
			{0, 0, 0, 5},
		}
		b := []float64{5, 5, 5, 5}
		s, err := gmres.New(4, 4)
		Expect(err).NotTo(HaveOccurred())

		res, err := s.Solve(denseOperator(mat), b, 1e-6)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Iterations).To(Equal(1), "a multiple-of-identity system should converge in one Krylov step")
	})

	It("propagates an error returned by the operator", func() {
		boom := func(v, out []float64) error { return errBoom }
		s, err := gmres.New(2, 2)
		Expect(err).NotTo(HaveOccurred())
		_, err = s.Solve(boom, []float64{1, 1}, 0)
		Expect(err).To(MatchError(errBoom))
	})
})

var errBoom = boomError{}

type boomError struct{}

func (boomError) Error() string { return "operator failure" }
