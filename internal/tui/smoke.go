package tui

import (
	"context"
	"encoding/json"

	tea "github.com/charmbracelet/bubbletea"

	"partchat/internal/chat"
)

type SmokeReport struct {
	View  string
	JSON  string
	OK    bool
	Final Model
}

// settle runs the in-flight exchange, if any, synchronously and folds the
// reply into the model. Smoke runs use it in place of the program loop.
func (m Model) settle() Model {
	if !m.hasPending {
		return m
	}
	p := m.pending
	reply, err := chat.Exchange(context.Background(), m.cfg.Client, p.Request)
	next, _ := m.Update(replyMsg{pending: p, reply: reply, err: err})
	return next.(Model)
}

func press(m Model, msgs ...tea.KeyMsg) Model {
	for _, k := range msgs {
		next, _ := m.Update(k)
		m = next.(Model)
	}
	return m
}

func typeText(m Model, text string) Model {
	return press(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)}, tea.KeyMsg{Type: tea.KeyEnter})
}

// RunSmoke drives a fresh widget through open, a quick action with starter
// text, one of its examples and a part lookup, using only key input.
func RunSmoke(m Model) SmokeReport {
	var (
		tab   = tea.KeyMsg{Type: tea.KeyTab}
		enter = tea.KeyMsg{Type: tea.KeyEnter}
	)

	m = press(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("o")})
	greeted := m.session.Store().Len() == 2 && m.session.QuickActionsVisible()

	before := m.session.Store().Len()
	m = press(m, tab, enter)
	starterShown := m.session.Store().Len() == before+1 && !m.session.QuickActionsVisible()
	examples := m.session.ActiveExamples()
	examplesShown := len(examples) > 0

	sentExample := ""
	busyDuring := false
	if examplesShown {
		sentExample = examples[0]
		m = press(m, tab, enter)
		busyDuring = m.session.Busy()
		m = m.settle()
	}
	exampleSent := busyDuring && !m.session.Busy() && len(m.session.ActiveExamples()) == 0

	m = typeText(m, "Tell me about part PS11752778")
	m = m.settle()
	card := m.latestCard()
	cardActions := 0
	if card != nil {
		cardActions = len(card.Actions)
	}

	ok := greeted && starterShown && examplesShown && exampleSent && cardActions > 0
	summary := map[string]any{
		"version":       1,
		"ok":            ok,
		"sessionId":     m.cfg.SessionID,
		"window":        m.session.WindowState().String(),
		"messages":      m.session.Store().Len(),
		"greeted":       greeted,
		"starterShown":  starterShown,
		"examplesShown": examplesShown,
		"sentExample":   sentExample,
		"exampleSent":   exampleSent,
		"cardActions":   cardActions,
	}
	b, _ := json.Marshal(summary)
	return SmokeReport{View: m.View(), JSON: string(b), OK: ok, Final: m}
}
