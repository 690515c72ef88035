package tui

import (
	"fmt"
	"strings"

	"github.com/guptarohit/asciigraph"
	"github.com/muesli/reflow/wordwrap"

	"github.com/san-kum/leaklab/internal/assistant"
	"github.com/san-kum/leaklab/internal/circuit"
)

const chatLines = 10

func (m model) View() string {
	var b strings.Builder

	b.WriteString(m.viewHeader())
	b.WriteString("\n")
	b.WriteString(m.viewBench())
	b.WriteString("\n")
	b.WriteString(m.viewTrace())
	b.WriteString("\n")
	b.WriteString(m.viewReadings())
	b.WriteString("\n")
	b.WriteString(m.viewChat())
	b.WriteString("\n")
	b.WriteString(m.viewStatus())
	b.WriteString("\n")
	b.WriteString(m.viewHelp())

	return b.String()
}

func (m model) contentWidth() int {
	w := m.width - 6
	if w < 50 {
		w = 50
	}
	return w
}

func (m model) viewHeader() string {
	x := m.session.State()
	icon := dim.Render("○")
	switch x.Phase() {
	case circuit.Charging:
		icon = green.Render("●")
	case circuit.Leaking:
		icon = yellow.Render("●")
	}
	return fmt.Sprintf("\n   %s %s  %s  %s\n",
		icon, title.Render("l e a k l a b"), dim.Render(x.Phase().String()), dimmer.Render(fmt.Sprintf("sim %.1fs", x.SimTime)))
}

func (m model) viewBench() string {
	x := m.session.State()
	w := m.session.Stopwatch()

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s %s    %s %s %s\n",
		white.Render("K1"), keyBadge(x.K1Closed), dim.Render("charge"),
		white.Render("K2"), keyBadge(x.K2Closed), dim.Render("leak"))

	watch := cyan.Render(w.Format())
	if w.Running() {
		watch += " " + green.Render("▶")
	} else {
		watch += " " + dim.Render("■")
	}
	fmt.Fprintf(&b, "%s %s\n", dim.Render("stopwatch"), watch)

	barWidth := m.contentWidth() - 24
	if barWidth > 60 {
		barWidth = 60
	}
	fmt.Fprintf(&b, "%s %s %s",
		dim.Render("θ"), gauge(x.Deflection(), barWidth),
		magenta.Render(fmt.Sprintf("%6.1f / %.0f", x.Voltage, x.MaxVoltage)))

	return panel.Render(b.String())
}

func (m model) viewTrace() string {
	width := m.contentWidth() - 10
	data := m.session.Trace().Voltages(width)
	if len(data) < 2 {
		return dimmer.Render("   waiting for the galvanometer to move…")
	}

	graph := asciigraph.Plot(data,
		asciigraph.Height(8),
		asciigraph.Width(width),
		asciigraph.LowerBound(0),
		asciigraph.UpperBound(m.session.State().MaxVoltage),
		asciigraph.Precision(0),
		asciigraph.Caption("deflection"),
	)
	return graph
}

func (m model) viewReadings() string {
	rs := m.session.Readings()

	var b strings.Builder
	b.WriteString(title.Render("readings") + "\n")
	b.WriteString(dim.Render(fmt.Sprintf("  %-4s %8s %8s %8s %10s", "#", "t (s)", "θ0", "θt", "R (MΩ)")) + "\n")

	if len(rs) == 0 {
		b.WriteString(dimmer.Render("  none yet, press r to record"))
		return b.String()
	}

	for i, r := range rs {
		row := fmt.Sprintf("%-4s %8.2f %8.1f %8.1f %10s", r.ID, r.TimeSeconds, r.InitialDeflection, r.FinalDeflection, r.DisplayR())
		if i == m.cursor {
			b.WriteString(selected.Render("▸ "+row) + "\n")
		} else {
			b.WriteString("  " + white.Render(row) + "\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m model) viewChat() string {
	wrap := m.contentWidth() - 8
	history := m.session.Chat().History()
	if len(history) > chatLines {
		history = history[len(history)-chatLines:]
	}

	var b strings.Builder
	b.WriteString(title.Render("instructor") + "\n")
	for _, msg := range history {
		text := wordwrap.String(msg.Text, wrap)
		if msg.Role == assistant.RoleUser {
			b.WriteString(userBubble.Render("you  "+indent(text)) + "\n")
		} else {
			b.WriteString(assistantBubble.Render("lab  "+indent(text)) + "\n")
		}
	}
	if m.asking {
		b.WriteString(dim.Render(fmt.Sprintf("%s thinking…", m.spinner.View())) + "\n")
	}

	if m.focus == focusChat {
		b.WriteString(m.input.View())
	} else {
		b.WriteString(dimmer.Render("press tab to ask a question"))
	}
	return b.String()
}

func indent(text string) string {
	return strings.ReplaceAll(text, "\n", "\n     ")
}

func (m model) viewStatus() string {
	if m.status == "" {
		return ""
	}
	if m.statusErr {
		return red.Render("  ! " + m.status)
	}
	return cyan.Render("  " + m.status)
}

func (m model) viewHelp() string {
	if m.focus == focusChat {
		return dim.Render("  enter ask   esc back   ctrl+c quit")
	}
	return dim.Render("  1/2 keys   space watch   z zero   r record   ↑↓ select   c calc   a calc all   f fit   d delete   x reset   e export   tab chat   q quit") + "\n" +
		separator(m.contentWidth())
}
