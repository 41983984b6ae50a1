// Package models provides concrete ocp.Problem implementations: physical
// systems whose dynamics and cost gradients are hand-derived the way the
// teacher repository hand-derives its physics models, rather than pulled
// from a symbolic-differentiation library.
package models

import (
	"math"

	"github.com/san-kum/cgmres-mpc/internal/ocp"
)

// CartPole is the classic cart-and-inverted-pole swing-up problem: drive
// the pole upright (theta -> pi) and the cart to a reference position
// while respecting a bounded actuation force.
//
// State is [cart position, pole angle, cart velocity, pole angular
// velocity]; the single control is the horizontal force on the cart.
type CartPole struct {
	CartMass   float64
	PoleMass   float64
	PoleLength float64
	Gravity    float64

	Q         [4]float64
	QTerminal [4]float64
	XRef      [4]float64
	R         [1]float64

	UMin, UMax, DummyWeight float64

	// externalReference, when set, overrides XRef[0] (the cart position
	// setpoint) on every Synchronize call. This is how a live controller
	// retargets the cart without rebuilding the problem.
	externalReference *float64
}

// NewCartPole returns a CartPole with the reference implementation's
// swing-up parameters: pole upright at x_ref=[0, pi, 0, 0], force bounded
// to +-15N.
func NewCartPole() *CartPole {
	return &CartPole{
		CartMass:    2,
		PoleMass:    0.2,
		PoleLength:  0.5,
		Gravity:     9.80665,
		Q:           [4]float64{2.5, 10, 0.01, 0.01},
		QTerminal:   [4]float64{2.5, 10, 0.01, 0.01},
		XRef:        [4]float64{0, math.Pi, 0, 0},
		R:           [1]float64{1},
		UMin:        -15.0,
		UMax:        15.0,
		DummyWeight: 0.1,
	}
}

// SetExternalReference installs a pointer the caller updates in place
// (e.g. from a joystick or a higher-level trajectory planner); Synchronize
// reads it every update so the cart's position setpoint can move without
// reconstructing the problem.
func (c *CartPole) SetExternalReference(cartPosition *float64) {
	c.externalReference = cartPosition
}

func (c *CartPole) Dims() ocp.Dimensions {
	return ocp.Dimensions{
		NX: 4, NU: 1, NC: 0, NH: 0, NUB: 1,
		UBoundIndices: []int{0},
		UMin:          []float64{c.UMin},
		UMax:          []float64{c.UMax},
		DummyWeight:   []float64{c.DummyWeight},
	}
}

func (c *CartPole) Synchronize() {
	if c.externalReference != nil {
		c.XRef[0] = *c.externalReference
	}
}

func (c *CartPole) EvalF(t float64, x, u, dx []float64) {
	mc, mp, l, g := c.CartMass, c.PoleMass, c.PoleLength, c.Gravity

	s := math.Sin(x[1])
	cs := math.Cos(x[1])
	den := 1.0 / (mc + mp*s*s)
	theta2 := l * x[1] * x[1]
	mps := mp * s

	dx[0] = x[2]
	dx[1] = x[3]
	dx[2] = den * (u[0] + mps*(g*cs+theta2))
	dx[3] = den * (-g*s*(mc+mp) - u[0]*cs - cs*theta2*mps) / l
}

func (c *CartPole) EvalPhix(t float64, x, phix []float64) {
	for i := 0; i < 4; i++ {
		phix[i] = c.QTerminal[i] * (x[i] - c.XRef[i])
	}
}

func (c *CartPole) EvalHx(t float64, x, uc, lmd, hx []float64) {
	mc, mp, l, g := c.CartMass, c.PoleMass, c.PoleLength, c.Gravity
	u0 := uc[0]

	s := math.Sin(x[1])
	cs := math.Cos(x[1])
	gcs := g * cs
	theta2 := x[1] * x[1]
	lth2 := l * theta2
	mpTerm := mp * (gcs + lth2)
	s2 := s * s
	den := mc + mp*s2
	mps := mp * s
	csmps := cs * mps
	invDen := 1.0 / den
	invDen2 := 2 * csmps / (den * den)
	gs := g * s
	mcp := mc + mp
	lmd3l := lmd[3] / l

	hx[0] = c.Q[0] * (x[0] - c.XRef[0])
	hx[1] = -lmd[2]*invDen2*(u0+s*mpTerm) +
		lmd[2]*invDen*(cs*mpTerm+mps*(2*l*x[1]-gs)) +
		c.Q[1]*(x[1]-c.XRef[1]) -
		invDen2*lmd3l*(-u0*cs-csmps*lth2-gs*mcp) +
		invDen*lmd3l*(l*mp*theta2*s2-2*l*x[1]*csmps-mp*cs*cs*lth2+u0*s-mcp*gcs)
	hx[2] = lmd[0] + c.Q[2]*(x[2]-c.XRef[2])
	hx[3] = lmd[1] + c.Q[3]*(x[3]-c.XRef[3])
}

func (c *CartPole) EvalHu(t float64, x, uc, lmd, hu []float64) {
	mc, mp, l := c.CartMass, c.PoleMass, c.PoleLength
	s := math.Sin(x[1])
	invDen := 1.0 / (mc + mp*s*s)
	hu[0] = lmd[2]*invDen + c.R[0]*uc[0] - lmd[3]*invDen*math.Cos(x[1])/l
}
