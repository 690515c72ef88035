// Package tui is the interactive lab bench: a Bubble Tea program driving an
// experiment session, plus a plain-terminal galvanometer renderer.
package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/leaklab/internal/assistant"
	"github.com/san-kum/leaklab/internal/circuit"
	"github.com/san-kum/leaklab/internal/experiment"
	"github.com/san-kum/leaklab/internal/ledger"
	"github.com/san-kum/leaklab/internal/report"
)

const askTimeout = 2 * time.Minute

type focus int

const (
	focusBench focus = iota
	focusChat
)

type Options struct {
	// ExportDir receives reports saved with the e key
	ExportDir string
}

type model struct {
	session *experiment.Session
	opts    Options

	frame     time.Duration
	watchTick time.Duration

	focus   focus
	cursor  int
	input   textinput.Model
	spinner spinner.Model
	asking  bool

	status    string
	statusErr bool

	width  int
	height int
}

func New(session *experiment.Session, opts Options) tea.Model {
	return newModel(session, opts)
}

func newModel(session *experiment.Session, opts Options) model {
	input := textinput.New()
	input.Placeholder = "Ask the lab instructor…"
	input.CharLimit = 280
	input.Width = 60

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	cfg := session.Config()
	return model{
		session:   session,
		opts:      opts,
		frame:     cfg.FrameInterval(),
		watchTick: session.Stopwatch().Tick(),
		input:     input,
		spinner:   spin,
		width:     100,
		height:    40,
	}
}

// Run starts the program on the alternate screen and blocks until quit.
func Run(session *experiment.Session, opts Options) error {
	p := tea.NewProgram(New(session, opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

type frameMsg time.Time

type watchMsg time.Time

type answerMsg struct {
	reply string
}

type exportMsg struct {
	dir string
	err error
}

func frameTick(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg { return frameMsg(t) })
}

func watchTickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg { return watchMsg(t) })
}

// Init starts both clocks. They are separate ticks so the stopwatch display
// never drives the physics.
func (m model) Init() tea.Cmd {
	return tea.Batch(frameTick(m.frame), watchTickCmd(m.watchTick))
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case frameMsg:
		m.session.Advance()
		return m, frameTick(m.frame)
	case watchMsg:
		return m, watchTickCmd(m.watchTick)
	case spinner.TickMsg:
		if !m.asking {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case answerMsg:
		m.asking = false
		return m, nil
	case exportMsg:
		if msg.err != nil {
			m.setError(fmt.Sprintf("export failed: %v", msg.err))
		} else {
			m.setStatus("report saved to " + msg.dir)
		}
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.focus == focusChat {
			return m.chatKey(msg)
		}
		return m.benchKey(msg)
	}
	return m, nil
}

func (m model) benchKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "1":
		m.toggle(circuit.K1)
	case "2":
		m.toggle(circuit.K2)
	case " ":
		if m.session.Stopwatch().Toggle() {
			m.setStatus("stopwatch started")
		} else {
			m.setStatus("stopwatch stopped at " + m.session.Stopwatch().Format())
		}
	case "z":
		m.session.Stopwatch().Reset()
		m.setStatus("stopwatch zeroed")
	case "r":
		r := m.session.Record()
		m.cursor = len(m.session.Readings()) - 1
		m.setStatus(fmt.Sprintf("reading #%s: t=%.2fs θt=%.1f", r.ID, r.TimeSeconds, r.FinalDeflection))
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.session.Readings())-1 {
			m.cursor++
		}
	case "c":
		m.calculate()
	case "a":
		if err := m.session.CalculateAll(); err != nil {
			m.setError(describe(err))
		} else {
			m.setStatus("calculated every reading")
		}
	case "d":
		if r, ok := m.selectedReading(); ok {
			m.session.Delete(r.ID)
			m.clampCursor()
			m.setStatus(fmt.Sprintf("deleted reading #%s", r.ID))
		}
	case "f":
		fit, err := m.session.Fit()
		if err != nil {
			m.setError(describe(err))
		} else {
			m.setStatus(fmt.Sprintf("fit over %d readings: R = %.2f MΩ (r² %.4f)", fit.Points, fit.Resistance, fit.RSquared))
		}
	case "x":
		m.session.Reset()
		m.cursor = 0
		m.setStatus("bench reset")
	case "e":
		return m, exportCmd(m.session, m.opts.ExportDir)
	case "tab", "/":
		m.focus = focusChat
		cmd := m.input.Focus()
		return m, cmd
	}
	return m, nil
}

func (m model) chatKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc, tea.KeyTab:
		m.focus = focusBench
		m.input.Blur()
		return m, nil
	case tea.KeyEnter:
		value := strings.TrimSpace(m.input.Value())
		if value == "" {
			m.setStatus("type a question or press esc")
			return m, nil
		}
		p, err := m.session.Chat().Submit(value)
		if err != nil {
			m.setError(describe(err))
			return m, nil
		}
		m.input.SetValue("")
		m.asking = true
		return m, tea.Batch(m.spinner.Tick, askCmd(p, m.session.ContextSnapshot()))
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *model) toggle(sw circuit.Switch) {
	x := m.session.Toggle(sw)
	m.setStatus(fmt.Sprintf("%s (%s) %s", sw, sw.Role(), circuit.KeyLabel(x.Closed(sw))))
}

func (m *model) calculate() {
	r, ok := m.selectedReading()
	if !ok {
		m.setError("no reading selected")
		return
	}
	got, err := m.session.Calculate(r.ID)
	switch {
	case err != nil:
		m.setError(describe(err))
	case got.CalculatedR == nil:
		m.setStatus("no measurable leakage yet")
	default:
		m.setStatus(fmt.Sprintf("reading #%s: R = %s MΩ", got.ID, got.DisplayR()))
	}
}

func (m model) selectedReading() (ledger.Reading, bool) {
	rs := m.session.Readings()
	if m.cursor < 0 || m.cursor >= len(rs) {
		return ledger.Reading{}, false
	}
	return rs[m.cursor], true
}

func (m *model) clampCursor() {
	n := len(m.session.Readings())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *model) setStatus(s string) {
	m.status = s
	m.statusErr = false
}

func (m *model) setError(s string) {
	m.status = s
	m.statusErr = true
}

// describe turns session errors into a status line naming what is wrong.
func describe(err error) string {
	var inv *ledger.InvalidInputError
	switch {
	case errors.As(err, &inv):
		return fmt.Sprintf("cannot calculate: %s %s (%.2f)", inv.Field, inv.Reason, inv.Value)
	case errors.Is(err, ledger.ErrNotFound):
		return "that reading no longer exists"
	case errors.Is(err, assistant.ErrBusy):
		return "the instructor is still answering"
	default:
		return err.Error()
	}
}

func askCmd(p *assistant.Pending, snapshot string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), askTimeout)
		defer cancel()
		slog.Debug("Asking the instructor", "question", p.Question())
		return answerMsg{reply: p.Await(ctx, snapshot)}
	}
}

func exportCmd(s *experiment.Session, dir string) tea.Cmd {
	if dir == "" {
		dir = "."
	}
	return func() tea.Msg {
		out, err := report.NewExporter(dir).Save(report.Build(s))
		if err != nil {
			slog.Error("Export failed", "error", err)
		}
		return exportMsg{dir: out, err: err}
	}
}
