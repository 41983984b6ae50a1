package models

import (
	"math"

	"github.com/san-kum/cgmres-mpc/internal/ocp"
)

// Hexacopter is a six-rotor aerial vehicle tracking a circular position
// trajectory in x/y (x = sin 2t, y = 1 - cos 2t) and an altitude reference
// z = AltitudeRef + 2 sin t, with every rotor's thrust bounded to its
// physically achievable range.
//
// State is [x, y, z, roll, pitch, yaw, vx, vy, vz, p, q, r] (p, q, r are
// body angular rates); the six controls are individual rotor thrusts.
type Hexacopter struct {
	Mass                   float64
	ArmLength              float64
	DragCoeff              float64 // yaw reaction-torque coefficient k
	Ixx, Iyy, Izz          float64
	Gamma                  float64 // yaw damping
	Gravity                float64
	AltitudeRef            float64

	Q, QTerminal [12]float64
	R            [6]float64

	UMin, UMax, DummyWeight float64
}

// NewHexacopter returns a Hexacopter with the reference implementation's
// hover-and-track parameters: six rotors individually bounded to
// [0.144, 6.0] newtons.
func NewHexacopter() *Hexacopter {
	return &Hexacopter{
		Mass:        1.44,
		ArmLength:   0.23,
		DragCoeff:   1.6e-9,
		Ixx:         0.0348,
		Iyy:         0.0459,
		Izz:         0.0977,
		Gamma:       0.01,
		Gravity:     9.80665,
		AltitudeRef: 5,
		Q:           [12]float64{1, 1, 1, 0.01, 0.01, 0, 0.01, 0.01, 0.01, 0.1, 0.1, 0.001},
		QTerminal:   [12]float64{1, 1, 1, 0.01, 0.01, 0, 0.01, 0.01, 0.01, 0.1, 0.1, 0.001},
		R:           [6]float64{0.01, 0.01, 0.01, 0.01, 0.01, 0.01},
		UMin:        0.144,
		UMax:        6.0,
		DummyWeight: 0.1,
	}
}

func (h *Hexacopter) Dims() ocp.Dimensions {
	umin := make([]float64, 6)
	umax := make([]float64, 6)
	weight := make([]float64, 6)
	indices := make([]int, 6)
	for i := 0; i < 6; i++ {
		umin[i], umax[i], weight[i], indices[i] = h.UMin, h.UMax, h.DummyWeight, i
	}
	return ocp.Dimensions{
		NX: 12, NU: 6, NC: 0, NH: 0, NUB: 6,
		UBoundIndices: indices,
		UMin:          umin,
		UMax:          umax,
		DummyWeight:   weight,
	}
}

// Synchronize is a no-op: the hexacopter's reference trajectory is a
// closed-form function of time baked into EvalPhix/EvalHx, not an
// external reference a supervisor retargets.
func (h *Hexacopter) Synchronize() {}

func (h *Hexacopter) EvalF(t float64, x, u, dx []float64) {
	sRoll, cRoll := math.Sin(x[3]), math.Cos(x[3])
	sPitch, cPitch := math.Sin(x[4]), math.Cos(x[4])
	sYaw, cYaw := math.Sin(x[5]), math.Cos(x[5])
	invM := 1.0 / h.Mass
	invIxx, invIyy, invIzz := 1.0/h.Ixx, 1.0/h.Iyy, 1.0/h.Izz
	sqrt3 := math.Sqrt(3)

	uSumOdd := u[0] + u[2] + u[4]
	uSum := u[1] + u[3] + u[5] + uSumOdd
	thrustAccel := invM * uSum
	halfU0 := 0.5 * u[0]

	p, q, r := x[9], x[10], x[11]

	dx[0] = x[6]
	dx[1] = x[7]
	dx[2] = x[8]
	dx[3] = x[9]
	dx[4] = x[10]
	dx[5] = x[11]
	dx[6] = thrustAccel * (sRoll*sYaw + cYaw*cRoll*sPitch)
	dx[7] = thrustAccel * (-sRoll*cYaw + sYaw*cRoll*sPitch)
	dx[8] = -h.Gravity + cRoll*invM*uSum*cPitch
	dx[9] = h.ArmLength*invIxx*(-u[1]-0.5*u[2]+0.5*u[3]+u[4]+0.5*u[5]-halfU0) + invIxx*q*r*(h.Iyy-h.Izz)
	dx[10] = h.ArmLength*invIyy*(0.5*u[2]*sqrt3+0.5*u[3]*sqrt3-0.5*u[5]*sqrt3-halfU0*sqrt3) + invIyy*r*p*(h.Izz-h.Ixx)
	dx[11] = invIzz*q*p*(h.Ixx-h.Iyy) + invIzz*(-h.Gamma*r+h.DragCoeff*(u[1]+u[3]+u[5]-uSumOdd))
}

func (h *Hexacopter) EvalPhix(t float64, x, phix []float64) {
	s2t, c2t := math.Sin(2*t), math.Cos(2*t)
	st, ct := math.Sin(t), math.Cos(t)
	qt := h.QTerminal

	phix[0] = qt[0] * (x[0] - s2t)
	phix[1] = qt[1] * (x[1] + c2t - 1)
	phix[2] = qt[2] * (x[2] - h.AltitudeRef - 2*st)
	phix[3] = qt[3] * x[3]
	phix[4] = qt[4] * x[4]
	phix[5] = qt[5] * x[5]
	phix[6] = qt[6] * (x[6] - 2*c2t)
	phix[7] = qt[7] * (x[7] - 2*s2t)
	phix[8] = qt[8] * (x[8] - 2*ct)
	phix[9] = qt[9] * x[9]
	phix[10] = qt[10] * x[10]
	phix[11] = qt[11] * x[11]
}

func (h *Hexacopter) EvalHx(t float64, x, uc, lmd, hx []float64) {
	s2t, c2t := math.Sin(2*t), math.Cos(2*t)
	st, ct := math.Sin(t), math.Cos(t)
	q := h.Q

	sRoll, cRoll := math.Sin(x[3]), math.Cos(x[3])
	sPitch, cPitch := math.Sin(x[4]), math.Cos(x[4])
	sYaw, cYaw := math.Sin(x[5]), math.Cos(x[5])

	uSum := uc[0] + uc[1] + uc[2] + uc[3] + uc[4] + uc[5]
	uOverM := uSum / h.Mass

	lmd6u := lmd[6] * uOverM
	lmd7u := lmd[7] * uOverM
	lmd8u := lmd[8] * uOverM

	cYawSRoll := cYaw * sRoll
	cYawCRoll := cYaw * cRoll
	sRollSYaw := sRoll * sYaw
	sYawCRoll := sYaw * cRoll

	x18 := lmd[10] * (h.Izz - h.Ixx) / h.Iyy
	x19 := lmd[11] / h.Izz
	x20 := x19 * (h.Ixx - h.Iyy)
	x21 := lmd[9] * (h.Iyy - h.Izz) / h.Ixx

	hx[0] = q[0] * (x[0] - s2t)
	hx[1] = q[1] * (x[1] + c2t - 1)
	hx[2] = q[2] * (x[2] - h.AltitudeRef - 2*st)
	hx[3] = q[3]*x[3] + lmd6u*(-cYawSRoll*sPitch+sYawCRoll) + lmd7u*(-cYawCRoll-sRollSYaw*sPitch) - sRoll*cPitch*lmd8u
	hx[4] = q[4]*x[4] + lmd6u*cYawCRoll*cPitch + lmd7u*sYawCRoll*cPitch - lmd8u*cRoll*sPitch
	hx[5] = q[5]*x[5] + lmd6u*(cYawSRoll-sYawCRoll*sPitch) + lmd7u*(cYawCRoll*sPitch+sRollSYaw)
	hx[6] = lmd[0] + q[6]*(x[6]-2*c2t)
	hx[7] = lmd[1] + q[7]*(x[7]-2*s2t)
	hx[8] = lmd[2] + q[8]*(x[8]-2*ct)
	hx[9] = lmd[3] + q[9]*x[9] + x18*x[11] + x20*x[10]
	hx[10] = lmd[4] + q[10]*x[10] + x20*x[9] + x21*x[11]
	hx[11] = -h.Gamma*x19 + lmd[5] + q[11]*x[11] + x18*x[9] + x21*x[10]
}

func (h *Hexacopter) EvalHu(t float64, x, uc, lmd, hu []float64) {
	r := h.R
	x0 := (1.0 / 3.0) * h.Gravity * h.Mass
	sqrt3 := math.Sqrt(3)

	x1 := 0.5 * sqrt3 * h.ArmLength * lmd[10] / h.Iyy
	x2 := -x1
	x3 := h.ArmLength * lmd[9] / h.Ixx
	x4 := 0.5 * x3
	x5 := h.DragCoeff * lmd[11] / h.Izz
	invM := 1.0 / h.Mass

	sRoll, cRoll := math.Sin(x[3]), math.Cos(x[3])
	sPitch := math.Sin(x[4])
	sYaw, cYaw := math.Sin(x[5]), math.Cos(x[5])

	x12 := lmd[6]*invM*(cRoll*sPitch*cYaw+sRoll*sYaw) + lmd[7]*invM*(cRoll*sPitch*sYaw-sRoll*cYaw) + lmd[8]*cRoll*invM*math.Cos(x[4])
	x13 := x12 - x5
	x14 := x13 - x4
	x15 := x12 + x5
	x16 := x15 + x4

	hu[0] = 0.5*r[0]*(2*uc[0]-x0) + x14 + x2
	hu[1] = 0.5*r[1]*(2*uc[1]-x0) + x15 - x3
	hu[2] = 0.5*r[2]*(2*uc[2]-x0) + x1 + x14
	hu[3] = 0.5*r[3]*(2*uc[3]-x0) + x1 + x16
	hu[4] = 0.5*r[4]*(2*uc[4]-x0) + x13 + x3
	hu[5] = 0.5*r[5]*(2*uc[5]-x0) + x16 + x2
}
