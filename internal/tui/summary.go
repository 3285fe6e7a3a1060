package tui

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"partchat/internal/chat"
)

// Summary is the snapshot written to summary.json when a session ends.
type Summary struct {
	Version             int      `json:"version"`
	UpdatedAt           string   `json:"updatedAt"`
	SessionID           string   `json:"sessionId"`
	AppVersion          string   `json:"appVersion,omitempty"`
	Window              string   `json:"window"`
	Messages            int      `json:"messages"`
	UserTurns           int      `json:"userTurns"`
	Busy                bool     `json:"busy"`
	QuickActionsVisible bool     `json:"quickActionsVisible"`
	ActiveExamples      []string `json:"activeExamples"`
	Health              string   `json:"health"`
	RecentAlerts        any      `json:"recentAlerts"`
	RecentCommands      []string `json:"recentCommands"`
	EventsPath          string   `json:"eventsPath,omitempty"`
}

func (m Model) Summary() Summary {
	cmds := m.recentCommands
	if len(cmds) > 10 {
		cmds = cmds[len(cmds)-10:]
	}
	msgs := m.session.Messages()
	users := 0
	for _, msg := range msgs {
		if msg.Role == chat.RoleUser {
			users++
		}
	}
	return Summary{
		Version:             1,
		UpdatedAt:           time.Now().UTC().Format(time.RFC3339Nano),
		SessionID:           m.cfg.SessionID,
		AppVersion:          m.cfg.Version,
		Window:              m.session.WindowState().String(),
		Messages:            len(msgs),
		UserTurns:           users,
		Busy:                m.session.Busy(),
		QuickActionsVisible: m.session.QuickActionsVisible(),
		ActiveExamples:      append([]string{}, m.session.ActiveExamples()...),
		Health:              m.health.String(),
		RecentAlerts:        m.alerts.Recent(10),
		RecentCommands:      append([]string{}, cmds...),
		EventsPath:          m.events.Path(),
	}
}

// WriteSummary writes {state_dir}/{session_id}/summary.json. It is a no-op
// without a state dir or session id.
func WriteSummary(m Model) error {
	if m.cfg.StateDir == "" || m.cfg.SessionID == "" {
		return nil
	}
	dir := filepath.Join(m.cfg.StateDir, m.cfg.SessionID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(m.Summary(), "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "summary.json"), append(b, '\n'), 0o644)
}
