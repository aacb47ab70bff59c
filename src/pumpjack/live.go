package main

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/llilyshkall/it-camp/src/animation"
	"github.com/llilyshkall/it-camp/src/config"
	"github.com/llilyshkall/it-camp/src/linkage"
)

const (
	liveFPS     = 30
	historySize = 90

	speedStep  = 0.1
	maxSpeed   = 3.0
	strokeStep = 1.0
	minStroke  = 8.0
	maxStroke  = 35.0
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("33"))
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("67")).
			Padding(0, 1)
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("160"))
)

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second/liveFPS, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// liveModel drives one animation from bubbletea ticks. The driver and its
// scheduler are only touched from Update, which bubbletea runs on a single
// goroutine.
type liveModel struct {
	d     *animation.Driver
	sched *animation.ManualScheduler
	start time.Time

	last    animation.Frame
	frames  int
	history []float64 // beam angle, degrees

	thetaLo, thetaHi float64
	err              error
}

func newLiveModel(cfg animation.Config, log zerolog.Logger, start time.Time) (*liveModel, error) {
	m := &liveModel{sched: &animation.ManualScheduler{}, start: start}
	out := animation.RendererFunc(m.record)

	d, err := animation.New(cfg, m.sched, out, log)
	if err != nil {
		return nil, err
	}
	m.d = d
	m.updateRange()
	d.Reset()
	return m, nil
}

func (m *liveModel) record(f animation.Frame) {
	m.last = f
	m.frames++
	m.history = append(m.history, f.BeamAngle*deg)
	if len(m.history) > historySize {
		m.history = m.history[len(m.history)-historySize:]
	}
}

func (m *liveModel) updateRange() {
	lo, hi := linkage.AngleRange(m.d.Geometry())
	m.thetaLo, m.thetaHi = lo*deg, hi*deg
}

func (m *liveModel) Init() tea.Cmd { return tick() }

func (m *liveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		m.sched.Fire(time.Time(msg).Sub(m.start))
		return m, tick()
	case tea.KeyMsg:
		return m, m.handleKey(msg.String())
	}
	return m, nil
}

func (m *liveModel) handleKey(key string) tea.Cmd {
	m.err = nil
	p := m.d.Params()
	switch key {
	case "q", "ctrl+c", "esc":
		m.d.Close()
		return tea.Quit
	case " ":
		if m.d.State() == animation.Running {
			m.d.Pause()
		} else {
			m.err = m.d.Start()
		}
	case "r":
		m.d.Reset()
	case "+", "=":
		m.err = m.d.SetSpeed(math.Min(maxSpeed, p.FrequencyHz+speedStep))
	case "-", "_":
		m.err = m.d.SetSpeed(math.Max(0, p.FrequencyHz-speedStep))
	case "]":
		m.setStroke(math.Min(maxStroke, p.StrokeDegrees+strokeStep))
	case "[":
		m.setStroke(math.Max(minStroke, p.StrokeDegrees-strokeStep))
	case "p":
		m.d.TogglePivotMarkers()
	}
	return nil
}

func (m *liveModel) setStroke(v float64) {
	if m.err = m.d.SetStroke(v); m.err == nil {
		m.updateRange()
	}
}

func (m *liveModel) View() string {
	p := m.d.Params()
	f := m.last

	row := func(label, value string) string {
		return labelStyle.Render(fmt.Sprintf("%-12s", label)) + value
	}
	stats := strings.Join([]string{
		row("state", m.d.State().String()),
		row("speed", fmt.Sprintf("%.2f Hz", p.FrequencyHz)),
		row("stroke", fmt.Sprintf("%.1f°", p.StrokeDegrees)),
		row("crank R", fmt.Sprintf("%.2f", m.d.Geometry().CrankRadius)),
		row("phase", fmt.Sprintf("%.2f rad", math.Mod(f.CrankPhase, 2*math.Pi))),
		row("beam", fmt.Sprintf("%+.2f°", f.BeamAngle*deg)),
		row("horsehead y", fmt.Sprintf("%.1f", f.Horsehead.Y)),
		row("rod top y", fmt.Sprintf("%.1f", f.RodTopY)),
		row("residual", fmt.Sprintf("%.1e", f.Residual)),
		row("pivots", fmt.Sprintf("%t", m.d.PivotMarkers())),
		row("frames", fmt.Sprintf("%d", m.frames)),
	}, "\n")

	body := panelStyle.Render(stats)
	if len(m.history) >= 2 {
		graph := asciigraph.Plot(m.history,
			asciigraph.Height(10),
			asciigraph.Width(historySize),
			asciigraph.LowerBound(m.thetaLo),
			asciigraph.UpperBound(m.thetaHi),
			asciigraph.Precision(1),
			asciigraph.Caption("beam angle (deg)"),
		)
		body = lipgloss.JoinHorizontal(lipgloss.Top, body, "  ", graph)
	}

	parts := []string{titleStyle.Render("pumpjack " + m.d.ID()[:8]), body}
	if m.err != nil {
		parts = append(parts, errStyle.Render(m.err.Error()))
	}
	parts = append(parts, helpStyle.Render("space start/pause · r reset · +/- speed · [/] stroke · p pivots · q quit"))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func newLiveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "live",
		Short: "Run the animation in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLive(a.settings, a.log)
		},
	}
}

func runLive(s config.Settings, log zerolog.Logger) error {
	// the console writer would tear the alternate screen
	log = log.Level(zerolog.Disabled)

	m, err := newLiveModel(s.AnimationConfig(), log, time.Now())
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
