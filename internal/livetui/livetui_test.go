package livetui

import (
	"testing"

	"github.com/san-kum/cgmres-mpc/internal/horizon"
	"github.com/san-kum/cgmres-mpc/internal/ocp"
	"github.com/san-kum/cgmres-mpc/internal/solver"
)

type scalarLQR struct {
	a, b, q, r float64
}

func (p *scalarLQR) Dims() ocp.Dimensions {
	return ocp.Dimensions{NX: 1, NU: 1, NC: 0, NH: 0, NUB: 0}
}
func (p *scalarLQR) Synchronize()                               {}
func (p *scalarLQR) EvalF(t float64, x, u, dx []float64)         { dx[0] = p.a*x[0] + p.b*u[0] }
func (p *scalarLQR) EvalPhix(t float64, x, phix []float64)      { phix[0] = p.q * x[0] }
func (p *scalarLQR) EvalHx(t float64, x, uc, lmd, hx []float64) { hx[0] = p.q*x[0] + p.a*lmd[0] }
func (p *scalarLQR) EvalHu(t float64, x, uc, lmd, hu []float64) { hu[0] = p.r*uc[0] + p.b*lmd[0] }

func newArmedModel(t *testing.T) Model {
	t.Helper()
	p := &scalarLQR{a: -0.5, b: 1.0, q: 1.0, r: 1.0}
	h, err := horizon.New(1.0, 0, 0)
	if err != nil {
		t.Fatalf("horizon.New: %v", err)
	}
	s, err := solver.New(p, h, solver.Settings{
		N: 5, EpsFB: 1e-8, Zeta: 10, Kmax: 5,
		InitMaxIter: 20, InitTol: 1e-10,
	})
	if err != nil {
		t.Fatalf("solver.New: %v", err)
	}
	if err := s.SetUC([]float64{0}); err != nil {
		t.Fatalf("SetUC: %v", err)
	}
	if err := s.InitXLmd(0, []float64{1.0}); err != nil {
		t.Fatalf("InitXLmd: %v", err)
	}
	if err := s.InitDummyMu(); err != nil {
		t.Fatalf("InitDummyMu: %v", err)
	}
	if err := s.Solve(); err != nil {
		t.Fatalf("Solve: %v", err)
	}
	return New("scalar-lqr", s, p, []float64{1.0}, 0.02)
}

func TestStepAdvancesTimeAndHistory(t *testing.T) {
	m := newArmedModel(t)
	m.step()
	if m.t != 0.02 {
		t.Errorf("t = %g, want 0.02", m.t)
	}
	if len(m.residualHistory) != 1 {
		t.Errorf("len(residualHistory) = %d, want 1", len(m.residualHistory))
	}
	if len(m.stateHistory) != 1 {
		t.Errorf("len(stateHistory) = %d, want 1", len(m.stateHistory))
	}
}

func TestHistoryIsCapped(t *testing.T) {
	m := newArmedModel(t)
	for i := 0; i < historyCapacity+10; i++ {
		m.step()
	}
	if len(m.residualHistory) != historyCapacity {
		t.Errorf("len(residualHistory) = %d, want %d", len(m.residualHistory), historyCapacity)
	}
	if len(m.stateHistory) != historyCapacity {
		t.Errorf("len(stateHistory) = %d, want %d", len(m.stateHistory), historyCapacity)
	}
}

func TestViewRendersWithoutPanicking(t *testing.T) {
	m := newArmedModel(t)
	m.step()
	m.step()
	out := m.View()
	if out == "" {
		t.Error("View() returned empty string")
	}
}

func TestFormatVectorHandlesEmpty(t *testing.T) {
	if got := formatVector(nil); got != "-" {
		t.Errorf("formatVector(nil) = %q, want %q", got, "-")
	}
}
