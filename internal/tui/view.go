package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"partchat/internal/chat"
	"partchat/internal/events"
	"partchat/internal/render"
)

const (
	compactWidth  = 64
	compactHeight = 24
	// border, header, chip rows, input and footer around the transcript
	chromeLines = 8
)

func (m Model) View() string {
	w, h := m.effectiveSize()
	// If the terminal is extremely small, render a stable hint instead of a broken layout.
	if w < 20 || h < 6 {
		return m.viewTooSmall(w, h)
	}
	if !m.session.WindowState().IsOpen() {
		return m.viewClosed(w, h)
	}
	panel := m.viewPanel()
	if m.session.WindowState() == chat.WindowExpanded {
		return panel
	}
	return lipgloss.Place(w, h, lipgloss.Right, lipgloss.Bottom, panel)
}

func (m Model) viewClosed(w, h int) string {
	bubble := m.th.Launcher.Render("PartSelect assistant")
	hint := m.th.Muted.Render(helpLine(m.keys.Open, m.keys.QuitIdle))
	if last, ok := m.alerts.Last(); ok && last.Code != "widget.started" {
		hint = m.th.Alert.Render(last.Message) + "\n" + hint
	}
	return lipgloss.Place(w, h, lipgloss.Right, lipgloss.Bottom, lipgloss.JoinVertical(lipgloss.Right, bubble, hint))
}

func (m Model) viewPanel() string {
	pw, ph := m.panelSize()
	inner := pw - 4

	lines := []string{
		m.viewHeader(inner),
		m.viewport.View(),
		m.viewChips(inner),
		m.input.View(),
		m.viewFooter(inner),
	}
	return m.th.Panel.Width(pw - 2).Height(ph - 2).Render(strings.Join(lines, "\n"))
}

func (m Model) viewHeader(width int) string {
	title := m.th.Header.Render("PartSelect Assistant")
	status := m.th.Muted.Render("● " + m.health.String())
	switch m.health {
	case healthOnline:
		status = m.th.Success.Render("● online")
	case healthOffline:
		status = m.th.Danger.Render("● offline")
	}
	gap := width - lipgloss.Width(title) - lipgloss.Width(status)
	if gap < 1 {
		gap = 1
	}
	return title + strings.Repeat(" ", gap) + status
}

func (m Model) viewChips(width int) string {
	chips := m.chips()
	if len(chips) == 0 {
		return "\n"
	}
	parts := make([]string, 0, len(chips))
	for i, c := range chips {
		label := "[" + c.label + "]"
		if m.focus == focusChips && i == m.chipIndex {
			parts = append(parts, m.th.ChipSelected.Render(label))
			continue
		}
		parts = append(parts, m.th.Chip.Render(label))
	}
	rows := strings.Split(lipgloss.NewStyle().Width(width).Render(strings.Join(parts, " ")), "\n")
	if len(rows) > 2 {
		rows = rows[:2]
	}
	for len(rows) < 2 {
		rows = append(rows, "")
	}
	return strings.Join(rows, "\n")
}

func (m Model) viewFooter(width int) string {
	help := helpLine(m.keys.Send, m.keys.Focus, m.keys.Expand, m.keys.Close)
	if last, ok := m.alerts.Last(); ok && last.Code != "widget.started" {
		msg := []rune(last.Message)
		if len(msg) > width {
			msg = msg[:width]
		}
		switch last.Severity {
		case events.SeverityError, events.SeverityCritical:
			return m.th.Danger.Render(string(msg))
		case events.SeverityWarn:
			return m.th.Alert.Render(string(msg))
		}
		return m.th.Muted.Render(string(msg))
	}
	return m.th.Muted.Render(help)
}

func helpLine(bindings ...key.Binding) string {
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return strings.Join(parts, " · ")
}

func (m Model) renderTranscript(msgs []chat.Message, width int) string {
	blocks := make([]string, 0, len(msgs)+1)
	for _, msg := range msgs {
		blocks = append(blocks, m.renderMessage(msg, width))
	}
	if m.session.Busy() {
		blocks = append(blocks, m.th.Muted.Render("Assistant is typing ")+m.spinner.View())
	}
	return strings.Join(blocks, "\n\n")
}

func (m Model) renderMessage(msg chat.Message, width int) string {
	v := m.render.Render(msg)
	label := m.th.Success.Render("Assistant")
	if msg.Role == chat.RoleUser {
		label = m.th.Accent.Render("You")
	}
	lines := []string{label}
	for _, p := range v.Paragraphs {
		lines = append(lines, wordwrap.String(p, width))
	}
	if v.Card != nil {
		lines = append(lines, m.renderCard(*v.Card, width))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderCard(c render.Card, width int) string {
	inner := width - 4
	if inner < 10 {
		inner = 10
	}
	var lines []string
	if c.Title != "" || c.Badge != nil {
		title := m.th.CardTitle.Render(c.Title)
		if c.Badge != nil {
			title += " " + m.th.badge(c.Badge.Class).Render(c.Badge.Text)
		}
		lines = append(lines, wordwrap.String(title, inner))
	}
	if c.Subtitle != "" {
		lines = append(lines, m.th.Muted.Render(c.Subtitle))
	}
	for _, f := range c.Fields {
		lines = append(lines, wordwrap.String(m.th.Muted.Render(f.Label+": ")+f.Value, inner))
	}
	if len(c.Actions) > 0 && len(lines) > 0 {
		lines = append(lines, "")
	}
	for _, a := range c.Actions {
		lines = append(lines, actionLabel(a))
	}
	return m.th.Card.Width(inner + 2).Render(strings.Join(lines, "\n"))
}

func actionLabel(a render.Action) string {
	if a.Kind == render.ActionNavigate {
		return "↗ " + a.Label
	}
	return "› " + a.Label
}

// syncViewport re-renders the transcript, following the newest turn when one
// was appended or the typing indicator changed.
func (m Model) syncViewport() Model {
	busy := m.session.Busy()
	m.viewport.SetContent(m.renderTranscript(m.session.Messages(), m.viewport.Width))
	if m.follow.Swap(false) || busy != m.renderedBusy {
		m.viewport.GotoBottom()
		m.renderedBusy = busy
	}
	return m
}

func (m Model) resize() Model {
	pw, ph := m.panelSize()
	m.viewport.Width = pw - 4
	m.viewport.Height = ph - chromeLines
	if m.viewport.Height < 3 {
		m.viewport.Height = 3
	}
	m.input.Width = pw - 4 - lipgloss.Width(m.input.Prompt) - 1
	m.follow.Store(true)
	return m.syncViewport()
}

func (m Model) panelSize() (int, int) {
	w, h := m.effectiveSize()
	if m.session.WindowState() == chat.WindowExpanded {
		return w, h
	}
	return min(w, compactWidth), min(h, compactHeight)
}

func (m Model) effectiveSize() (int, int) {
	w := m.width
	h := m.height
	// Smoke runs and headless sessions may not deliver a WindowSizeMsg; assume a sane default.
	if w <= 0 {
		w = 80
	}
	if h <= 0 {
		h = 24
	}
	return w, h
}

func (m Model) viewTooSmall(w, h int) string {
	lines := []string{
		m.th.Header.Render("PARTCHAT"),
		m.th.Alert.Render("Terminal too small"),
		m.th.Muted.Render(fmt.Sprintf("Minimum: 20x6. Current: %dx%d", w, h)),
	}
	return strings.Join(lines, "\n")
}
