// Package numvec provides small, allocation-free vector helpers shared by
// the KKT residual and GMRES workspace. It generalizes the State vector
// arithmetic the teacher repository hand-rolls for fixed-size dynamical
// states to the larger, arena-sized decision and Krylov vectors this
// solver needs.
package numvec

import "math"

// IsFinite reports whether every component is finite; used to detect the
// NaN/Inf numerical-failure condition spec'd for the hot path.
func IsFinite(v []float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

// Norm returns the Euclidean norm of v.
func Norm(v []float64) float64 {
	return math.Sqrt(Dot(v, v))
}

// Dot returns the inner product of a and b over len(a) elements; panics if
// b is shorter than a, and ignores any extra elements of b.
func Dot(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// AXPY computes dst = a + alpha*b in place; dst may alias a.
func AXPY(dst, a []float64, alpha float64, b []float64) {
	for i := range dst {
		dst[i] = a[i] + alpha*b[i]
	}
}

// Sub computes dst = a - b in place.
func Sub(dst, a, b []float64) {
	for i := range dst {
		dst[i] = a[i] - b[i]
	}
}

// Scale computes dst = alpha*a in place; dst may alias a.
func Scale(dst []float64, alpha float64, a []float64) {
	for i := range dst {
		dst[i] = alpha * a[i]
	}
}
