// Package fb implements the Fischer–Burmeister smoothing of the control
// bound complementarity condition used by the multiple-shooting KKT
// residual to encode (u_min <= u <= u_max) without an active-set switch.
package fb

import "math"

// Value evaluates the Fischer–Burmeister function
//
//	FB(a, b; eps) = a + b - sqrt(a^2 + b^2 + eps)
//
// FB(a, b; 0) == 0 if and only if a >= 0, b >= 0, and a*b == 0 — the
// classical complementarity condition. eps != 0 keeps the square root
// differentiable at the origin, which is what lets GMRES differentiate
// through it via finite differences.
func Value(a, b, eps float64) float64 {
	return a + b - math.Sqrt(a*a+b*b+eps)
}

// BoundGap computes a = (umax-u)(u-umin) + mu^2, the "a" argument of the
// Fischer–Burmeister pair for one bounded control component. a >= 0 when mu
// == 0 and u sits inside [umin, umax].
func BoundGap(u, umin, umax, mu float64) float64 {
	return (umax-u)*(u-umin) + mu*mu
}

// BoundGapDU returns d(BoundGap)/du = umax + umin - 2*u, the term by which
// the bound multiplier augments the control-stationarity row of the
// Hamiltonian for a bounded index.
func BoundGapDU(u, umin, umax float64) float64 {
	return umax + umin - 2*u
}

// DummyStationarity returns the dummy-input stationarity residual
// 2*v*mu - w, the first-order condition for the auxiliary cost w*v added to
// the Hamiltonian.
func DummyStationarity(v, mu, w float64) float64 {
	return 2*v*mu - w
}
