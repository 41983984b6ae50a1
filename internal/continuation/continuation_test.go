package continuation_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/cgmres-mpc/internal/continuation"
	"github.com/san-kum/cgmres-mpc/internal/horizon"
	"github.com/san-kum/cgmres-mpc/internal/ocp"
)

// scalarLQR is an unconstrained scalar linear-quadratic plant: dx = a*x+b*u,
// cost q*x^2 + r*u^2. No control bounds, so the KKT residual reduces to a
// single stationarity row per stage.
type scalarLQR struct {
	a, b, q, r float64
}

func (p *scalarLQR) Dims() ocp.Dimensions {
	return ocp.Dimensions{NX: 1, NU: 1, NC: 0, NH: 0, NUB: 0}
}
func (p *scalarLQR) Synchronize() {}
func (p *scalarLQR) EvalF(t float64, x, u, dx []float64) {
	dx[0] = p.a*x[0] + p.b*u[0]
}
func (p *scalarLQR) EvalPhix(t float64, x, phix []float64) {
	phix[0] = p.q * x[0]
}
func (p *scalarLQR) EvalHx(t float64, x, uc, lmd, hx []float64) {
	hx[0] = p.q*x[0] + p.a*lmd[0]
}
func (p *scalarLQR) EvalHu(t float64, x, uc, lmd, hu []float64) {
	hu[0] = p.r*uc[0] + p.b*lmd[0]
}

func newStepper() (*continuation.Stepper, *scalarLQR) {
	p := &scalarLQR{a: -0.5, b: 1.0, q: 1.0, r: 1.0}
	h, err := horizon.New(1.0, 0, 0)
	Expect(err).NotTo(HaveOccurred())
	cfg := continuation.Config{Zeta: 10, Kmax: 5}
	s, err := continuation.New(p, h, 5, 1e-8, cfg)
	Expect(err).NotTo(HaveOccurred())
	return s, p
}

var _ = Describe("Stepper.Update", func() {
	It("rejects a state vector of the wrong length", func() {
		s, _ := newStepper()
		U := make([]float64, s.Dim())
		_, _, _, err := s.Update(0, 0.01, []float64{0, 0}, U)
		Expect(err).To(MatchError(continuation.ErrStateLength))
	})

	It("rejects a decision vector of the wrong length", func() {
		s, _ := newStepper()
		_, _, _, err := s.Update(0, 0.01, []float64{1}, []float64{0, 0})
		Expect(err).To(MatchError(continuation.ErrDecisionLength))
	})

	It("rejects a non-positive step size", func() {
		s, _ := newStepper()
		U := make([]float64, s.Dim())
		_, _, _, err := s.Update(0, 0, []float64{1}, U)
		Expect(err).To(MatchError(continuation.ErrInvalidStepSize))
	})

	It("is deterministic for repeated identical updates from the same state", func() {
		s, _ := newStepper()
		U1 := make([]float64, s.Dim())
		U2 := make([]float64, s.Dim())
		u01, _, _, err := s.Update(0, 0.01, []float64{1.5}, U1)
		Expect(err).NotTo(HaveOccurred())
		a1 := append([]float64{}, u01...)

		u02, _, _, err := s.Update(0, 0.01, []float64{1.5}, U2)
		Expect(err).NotTo(HaveOccurred())
		Expect(u02).To(Equal(a1))
	})

	It("drives a stable closed loop's residual norm down as the controller warms up", func() {
		s, p := newStepper()
		U := make([]float64, s.Dim())
		x := []float64{2.0}
		h := 0.02

		var firstNorm, lastNorm float64
		t := 0.0
		for i := 0; i < 100; i++ {
			u0, residualNorm, _, err := s.Update(t, h, x, U)
			Expect(err).NotTo(HaveOccurred())
			if i == 0 {
				firstNorm = residualNorm
			}
			lastNorm = residualNorm

			dx := make([]float64, 1)
			p.EvalF(t, x, u0, dx)
			x[0] += h * dx[0]
			t += h
		}

		Expect(lastNorm).To(BeNumerically("<", firstNorm))
		Expect(math.IsNaN(x[0])).To(BeFalse())
		Expect(math.Abs(x[0])).To(BeNumerically("<", math.Abs(2.0)))
	})
})
