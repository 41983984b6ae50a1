// Package livetui is a terminal dashboard for watching a solver.Solver
// drive a plant in real time: the continuation residual norm, the current
// state, and the active control, refreshed on every simulation tick. It
// is a far smaller descendant of the teacher's internal/viz.Model and
// internal/tui.LiveRenderer — no 3D camera, no GIF capture, no parameter
// tuning — built around the same bubbletea/lipgloss/asciigraph stack for
// the one job this module actually needs: watching convergence.
package livetui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/cgmres-mpc/internal/ocp"
	"github.com/san-kum/cgmres-mpc/internal/solver"
)

const historyCapacity = 200

var (
	headerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	statsStyle   = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(1, 2)
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(14)
	valueStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	graphStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

// TickMsg drives one simulation step.
type TickMsg time.Time

// Model is a bubbletea program that steps an armed solver against a
// plant's own dynamics and renders the closed loop as it runs.
type Model struct {
	name   string
	s      *solver.Solver
	p      ocp.Problem
	x      []float64
	u      []float64
	t, dt  float64
	dx     []float64
	running bool
	lastWarn string

	residualHistory []float64
	stateHistory    [][]float64
}

// New builds a live dashboard for an already-armed solver s driving
// problem p from x0, stepping every dt seconds of simulated time.
func New(name string, s *solver.Solver, p ocp.Problem, x0 []float64, dt float64) Model {
	x := append([]float64{}, x0...)
	return Model{
		name:    name,
		s:       s,
		p:       p,
		x:       x,
		dt:      dt,
		dx:      make([]float64, len(x0)),
		running: true,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Tick(time.Second/30, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		}
	case TickMsg:
		if m.running {
			m.step()
		}
		return m, tea.Tick(time.Second/30, func(t time.Time) tea.Msg { return TickMsg(t) })
	}
	return m, nil
}

func (m *Model) step() {
	warn, err := m.s.Update(m.t, m.dt, m.x)
	if err != nil {
		m.lastWarn = err.Error()
		m.running = false
		return
	}
	if warn != nil {
		m.lastWarn = warn.Error()
	} else {
		m.lastWarn = ""
	}

	m.residualHistory = append(m.residualHistory, m.s.LastResidualNorm())
	if len(m.residualHistory) > historyCapacity {
		m.residualHistory = m.residualHistory[1:]
	}

	m.u = append([]float64{}, m.s.UOpt()...)
	m.p.EvalF(m.t, m.x, m.u, m.dx)
	for k := range m.x {
		m.x[k] += m.dt * m.dx[k]
	}
	m.t += m.dt

	stateCopy := append([]float64{}, m.x...)
	m.stateHistory = append(m.stateHistory, stateCopy)
	if len(m.stateHistory) > historyCapacity {
		m.stateHistory = m.stateHistory[1:]
	}
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(strings.ToUpper(m.name)) + "\n")

	status := "RUNNING"
	if !m.running {
		status = "PAUSED"
	}
	b.WriteString(valueStyle.Render(status) + "\n\n")

	if len(m.residualHistory) > 1 {
		chart := asciigraph.Plot(m.residualHistory,
			asciigraph.Height(8), asciigraph.Width(50),
			asciigraph.Caption("continuation residual norm"))
		b.WriteString(graphStyle.Render(chart) + "\n\n")
	}

	b.WriteString(labelStyle.Render("Time") + valueStyle.Render(fmt.Sprintf("%.3fs", m.t)) + "\n")
	if n := len(m.residualHistory); n > 0 {
		b.WriteString(labelStyle.Render("Residual") + valueStyle.Render(fmt.Sprintf("%.3e", m.residualHistory[n-1])) + "\n")
	}

	b.WriteString(labelStyle.Render("State") + valueStyle.Render(formatVector(m.x)) + "\n")
	b.WriteString(labelStyle.Render("Control") + valueStyle.Render(formatVector(m.u)) + "\n")

	if m.lastWarn != "" {
		b.WriteString(warnStyle.Render(m.lastWarn) + "\n")
	}

	b.WriteString(helpStyle.Render("space: pause/resume   q: quit"))

	return statsStyle.Render(b.String())
}

func formatVector(v []float64) string {
	if len(v) == 0 {
		return "-"
	}
	parts := make([]string, len(v))
	for i, val := range v {
		parts[i] = fmt.Sprintf("%.3f", val)
	}
	return strings.Join(parts, " ")
}

// Run starts the bubbletea program and blocks until the user quits.
func Run(name string, s *solver.Solver, p ocp.Problem, x0 []float64, dt float64) error {
	_, err := tea.NewProgram(New(name, s, p, x0, dt)).Run()
	return err
}
