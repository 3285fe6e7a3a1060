package tui

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"partchat/internal/events"
)

// busCommand is one JSONL line of {state_dir}/{session_id}/commands.jsonl.
type busCommand struct {
	Version int    `json:"version"`
	Type    string `json:"type"`
	Text    string `json:"text,omitempty"`
	ID      string `json:"id,omitempty"`
	Index   int    `json:"index,omitempty"`
	Keys    string `json:"keys,omitempty"`
	Source  string `json:"source,omitempty"` // cli|tui|system
}

func initCommandBus(path string) int64 {
	if strings.TrimSpace(path) == "" {
		return 0
	}
	_ = os.MkdirAll(filepath.Dir(path), 0o755)
	if _, err := os.Stat(path); err != nil {
		_ = os.WriteFile(path, []byte{}, 0o644)
	}
	return 0
}

func (m Model) consumeCommandBus() (Model, tea.Cmd) {
	if strings.TrimSpace(m.commandBusPath) == "" {
		return m, nil
	}
	cmds, newOffset := readBusCommands(m.commandBusPath, m.commandBusOffset)
	m.commandBusOffset = newOffset
	var outCmds []tea.Cmd
	for _, c := range cmds {
		var cmd tea.Cmd
		m, cmd = m.applyBusCommand(c)
		if cmd != nil {
			outCmds = append(outCmds, cmd)
		}
		if m.quitRequested {
			break
		}
	}
	if len(outCmds) == 0 {
		return m, nil
	}
	return m, tea.Batch(outCmds...)
}

func readBusCommands(path string, offset int64) ([]busCommand, int64) {
	f, err := os.Open(path)
	if err != nil {
		return nil, offset
	}
	defer f.Close()

	st, err := f.Stat()
	if err == nil && offset > st.Size() {
		offset = st.Size()
	}
	if offset > 0 {
		if _, err := f.Seek(offset, 0); err != nil {
			return nil, offset
		}
	}

	var cmds []busCommand
	reader := bufio.NewReader(f)
	cur := offset
	for {
		line, err := reader.ReadString('\n')
		// A trailing line without newline may still be mid-write; leave it for the next poll.
		if err != nil {
			break
		}
		cur += int64(len(line))
		txt := strings.TrimSpace(line)
		if txt == "" {
			continue
		}
		var c busCommand
		if json.Unmarshal([]byte(txt), &c) == nil && c.Version == 1 && strings.TrimSpace(c.Type) != "" {
			cmds = append(cmds, c)
		}
	}
	return cmds, cur
}

func (m Model) applyBusCommand(c busCommand) (Model, tea.Cmd) {
	src := strings.TrimSpace(c.Source)
	if src == "" {
		src = "cli"
	}
	prevSource := m.actionSource
	m.actionSource = src
	typ := strings.TrimSpace(strings.ToLower(c.Type))
	m.recentCommands = append(m.recentCommands, typ)
	if len(m.recentCommands) > 50 {
		m.recentCommands = m.recentCommands[len(m.recentCommands)-50:]
	}

	var cmd tea.Cmd
	switch typ {
	case "stop":
		m.alerts.Raise(events.SeverityInfo, "session.stop", "Stop requested", map[string]any{"source": src})
		m.quitRequested = true
		cmd = tea.Quit
	case "open":
		m, cmd = m.openWindow()
	case "close":
		m = m.closeWindow()
	case "expand":
		m = m.toggleExpand()
	case "send":
		m, cmd = m.send(c.Text)
	case "quick_action":
		id := strings.TrimSpace(nonEmpty(c.ID, c.Text))
		m.emitEvent("quick_action.select", src, map[string]any{"id": id}, "", "")
		m, cmd = m.selectQuickAction(id)
	case "example":
		m.emitEvent("example.select", src, map[string]any{"text": c.Text}, "", "")
		m, cmd = m.send(c.Text)
	case "action":
		card := m.latestCard()
		if card == nil || c.Index < 0 || c.Index >= len(card.Actions) {
			m.alerts.Raise(events.SeverityWarn, "command.action.missing", "No such card action", map[string]any{"index": c.Index})
			break
		}
		m, cmd = m.runAction(card.Actions[c.Index])
	case "key":
		var cmds []tea.Cmd
		for _, k := range splitKeys(c.Keys) {
			if m.quitRequested {
				break
			}
			var kc tea.Cmd
			m, kc = m.applySyntheticKey(k)
			if kc != nil {
				cmds = append(cmds, kc)
			}
		}
		if len(cmds) > 0 {
			cmd = tea.Batch(cmds...)
		}
	default:
		m.alerts.Raise(events.SeverityWarn, "command.unknown", "Unknown bus command type", map[string]any{"type": c.Type})
	}
	m.actionSource = prevSource
	return m, cmd
}

func splitKeys(keys string) []string {
	raw := strings.FieldsFunc(keys, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\n' || r == '\t'
	})
	out := make([]string, 0, len(raw))
	for _, t := range raw {
		s := strings.TrimSpace(t)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func (m Model) applySyntheticKey(token string) (Model, tea.Cmd) {
	t := strings.TrimSpace(token)
	if t == "" {
		return m, nil
	}

	var msg tea.KeyMsg
	switch strings.ToLower(t) {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "esc", "escape":
		msg = tea.KeyMsg{Type: tea.KeyEscape}
	case "up":
		msg = tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		msg = tea.KeyMsg{Type: tea.KeyDown}
	case "left":
		msg = tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		msg = tea.KeyMsg{Type: tea.KeyRight}
	case "tab":
		msg = tea.KeyMsg{Type: tea.KeyTab}
	case "backspace":
		msg = tea.KeyMsg{Type: tea.KeyBackspace}
	case "ctrl+e":
		msg = tea.KeyMsg{Type: tea.KeyCtrlE}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(t)}
	}

	next, cmd := m.Update(msg)
	if am, ok := next.(Model); ok {
		m = am
	}
	return m, cmd
}

func nonEmpty(v string, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
