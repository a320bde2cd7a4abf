// dashboard is a terminal driving client: it embeds the simulation world,
// maps keys onto driver inputs and renders gauges with an RPM sparkline.
// Rendering and input stay out here; the kernel only sees DriveInput.
package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"apexdrive/internal/shared/types"
	"apexdrive/internal/sim"
)

const (
	frameInterval = 50 * time.Millisecond
	rpmHistoryLen = 120
)

var (
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 2)
	labelStyle = lipgloss.NewStyle().Faint(true)
	alertStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)
	helpStyle = lipgloss.NewStyle().Faint(true)
)

type frameMsg time.Time

type model struct {
	world *sim.World
	clock *sim.Clock
	last  time.Time

	input      types.DriveInput
	rpmHistory []float64
	state      types.SimState
}

func newModel() (model, error) {
	cfg := sim.DefaultConfig()
	if path := os.Getenv("SIM_CONFIG"); path != "" {
		loaded, err := sim.Load(path)
		if err != nil {
			return model{}, err
		}
		cfg = loaded
	}
	if err := cfg.Validate(); err != nil {
		return model{}, err
	}
	return model{
		world: sim.NewWorld("dashboard", cfg),
		clock: sim.NewClock(8),
		last:  time.Now(),
	}, nil
}

func (m model) Init() tea.Cmd {
	return frameTick()
}

func frameTick() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case frameMsg:
		now := time.Time(msg)
		elapsed := now.Sub(m.last).Seconds()
		m.last = now

		m.world.ApplyInput(m.input)
		m.clock.Advance(m.world, elapsed)
		m.input.Gear = ""
		m.input.Sequence++

		m.state = m.world.Snapshot()
		m.rpmHistory = append(m.rpmHistory, m.state.Engine.RPM)
		if len(m.rpmHistory) > rpmHistoryLen {
			m.rpmHistory = m.rpmHistory[1:]
		}
		return m, frameTick()

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "w":
			m.input.Throttle = minf(m.input.Throttle+0.1, 1)
		case "s":
			m.input.Throttle = maxf(m.input.Throttle-0.1, 0)
		case "b":
			m.input.Brake = !m.input.Brake
		case "c":
			m.input.ClutchHeld = !m.input.ClutchHeld
		case "left":
			m.input.SteerActive = true
			m.input.SteerAngle += 0.4
		case "right":
			m.input.SteerActive = true
			m.input.SteerAngle -= 0.4
		case "x":
			m.input.SteerActive = false
			m.input.SteerAngle = 0
		case "n":
			m.input.Gear = types.GearNeutral
		case "r":
			m.input.Gear = types.GearReverse
		case "1", "2", "3", "4", "5", "6":
			m.input.Gear = msg.String()
		}
		return m, nil
	}
	return m, nil
}

func (m model) View() string {
	e := m.state.Engine
	c := m.state.Car

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s   %s %5.0f   %s %5.1f km/h\n",
		labelStyle.Render("gear"), e.Gear,
		labelStyle.Render("rpm"), e.RPM,
		labelStyle.Render("speed"), c.SpeedMS*3.6)
	fmt.Fprintf(&b, "%s %s   %s %s   %s %s\n",
		labelStyle.Render("throttle"), bar(m.input.Throttle),
		labelStyle.Render("clutch"), bar(e.ClutchPedal),
		labelStyle.Render("bite"), bar(e.ClutchEngagement))
	fmt.Fprintf(&b, "%s %+.2f rad   %s FL %4.0f FR %4.0f RL %4.0f RR %4.0f\n",
		labelStyle.Render("wheel"), c.WheelAngle,
		labelStyle.Render("loads"),
		c.WheelLoads[0], c.WheelLoads[1], c.WheelLoads[2], c.WheelLoads[3])

	if e.Stalled {
		b.WriteString(alertStyle.Render("STALLED - blip throttle with partial clutch") + "\n")
	} else if !e.Running {
		b.WriteString(alertStyle.Render("ENGINE OFF") + "\n")
	}
	if m.input.Brake {
		b.WriteString(alertStyle.Render("BRAKE") + "\n")
	}

	if len(m.rpmHistory) > 1 {
		b.WriteString("\n")
		b.WriteString(asciigraph.Plot(m.rpmHistory, asciigraph.Height(8), asciigraph.Width(60)))
		b.WriteString("\n")
	}

	help := helpStyle.Render("w/s throttle · b brake · c clutch · arrows steer · x center · r/n/1-6 gear · q quit")
	return panelStyle.Render(b.String()) + "\n" + help + "\n"
}

func bar(v float64) string {
	const width = 10
	filled := int(v*width + 0.5)
	if filled > width {
		filled = width
	}
	return "[" + strings.Repeat("#", filled) + strings.Repeat(" ", width-filled) + "]"
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func main() {
	m, err := newModel()
	if err != nil {
		fmt.Fprintf(os.Stderr, "dashboard: %v\n", err)
		os.Exit(1)
	}
	if _, err := tea.NewProgram(m).Run(); err != nil {
		fmt.Fprintf(os.Stderr, "dashboard: %v\n", err)
		os.Exit(1)
	}
}
