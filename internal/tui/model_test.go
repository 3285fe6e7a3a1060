package tui

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"partchat/internal/assistant"
	"partchat/internal/catalog"
	"partchat/internal/chat"
	"partchat/internal/events"
	"partchat/internal/render"
)

type clientFunc func(ctx context.Context, req chat.Request) (chat.Reply, error)

func (f clientFunc) Chat(ctx context.Context, req chat.Request) (chat.Reply, error) {
	return f(ctx, req)
}

type recordingNavigator struct {
	urls []string
}

func (n *recordingNavigator) Navigate(u string) error {
	n.urls = append(n.urls, u)
	return nil
}

func newTestModel(t *testing.T, client chat.Client, mutate ...func(*Config)) Model {
	t.Helper()
	dir := t.TempDir()
	sid := "sess_test"
	cfg := Config{
		StateDir:     dir,
		SessionID:    sid,
		CommandsPath: filepath.Join(dir, sid, "commands.jsonl"),
		Client:       client,
		Events:       events.New(dir, sid),
	}
	for _, fn := range mutate {
		fn(&cfg)
	}
	return New(cfg, chat.NewSession(catalog.Defaults()))
}

var (
	keyTab   = tea.KeyMsg{Type: tea.KeyTab}
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyEsc   = tea.KeyMsg{Type: tea.KeyEscape}
	keyRight = tea.KeyMsg{Type: tea.KeyRight}
	keyOpen  = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("o")}
)

func eventTypes(t *testing.T, m Model) []string {
	t.Helper()
	recs, err := events.ReadAll(m.events.Path())
	require.NoError(t, err)
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.Type)
	}
	return out
}

func TestModel_OpenGreets(t *testing.T) {
	m := newTestModel(t, assistant.Offline{})
	assert.Equal(t, chat.WindowClosed, m.session.WindowState())
	assert.Contains(t, m.View(), "PartSelect assistant")

	m = press(m, keyOpen)

	assert.Equal(t, chat.WindowCompact, m.session.WindowState())
	msgs := m.session.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, chat.GreetingText, msgs[0].Content)
	assert.Equal(t, chat.CapabilityText, msgs[1].Content)
	assert.True(t, m.session.QuickActionsVisible())
	assert.Contains(t, m.View(), "Hi! I'm the PartSelect")
	assert.Contains(t, eventTypes(t, m), "widget.open")
}

func TestModel_QuickActionWithStarterText(t *testing.T) {
	m := newTestModel(t, assistant.Offline{})
	m = press(m, keyOpen, keyTab)
	require.Equal(t, focusChips, m.focus)

	m = press(m, keyEnter)

	msgs := m.session.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, chat.RoleAssistant, msgs[2].Role)
	assert.Equal(t, catalog.Defaults()[0].StarterText, msgs[2].Content)
	assert.Equal(t, catalog.Defaults()[0].Examples, m.session.ActiveExamples())
	assert.False(t, m.session.QuickActionsVisible())
	assert.False(t, m.session.Busy())
	assert.Equal(t, focusInput, m.focus)
}

func TestModel_QuickActionWithoutStarterSendsLabel(t *testing.T) {
	var seen []string
	client := clientFunc(func(_ context.Context, req chat.Request) (chat.Reply, error) {
		seen = append(seen, req.Message)
		return chat.Reply{Text: "Which order number?"}, nil
	})
	m := newTestModel(t, client)
	m = press(m, keyOpen, keyTab, keyRight, keyRight, keyRight, keyEnter)

	require.True(t, m.session.Busy())
	m = m.settle()

	assert.Equal(t, []string{"Check my order status"}, seen)
	last, _ := m.session.Store().Last()
	assert.Equal(t, "Which order number?", last.Content)
}

func TestModel_ExampleSendsAndSettles(t *testing.T) {
	m := newTestModel(t, assistant.Offline{})
	m = press(m, keyOpen, keyTab, keyEnter)
	example := m.session.ActiveExamples()[0]

	m = press(m, keyTab, keyEnter)

	assert.True(t, m.session.Busy())
	assert.True(t, m.hasPending)
	last, _ := m.session.Store().Last()
	assert.Equal(t, chat.RoleUser, last.Role)
	assert.Equal(t, example, last.Content)
	assert.Contains(t, m.View(), "typing")

	m = m.settle()

	assert.False(t, m.session.Busy())
	assert.False(t, m.hasPending)
	assert.Empty(t, m.session.ActiveExamples())
	last, _ = m.session.Store().Last()
	assert.Equal(t, chat.RoleAssistant, last.Role)
	assert.Contains(t, eventTypes(t, m), "chat.reply")
}

func TestModel_EmptySendIsIgnored(t *testing.T) {
	m := newTestModel(t, assistant.Offline{})
	m = press(m, keyOpen)
	m = typeText(m, "   ")

	assert.Equal(t, 2, m.session.Store().Len())
	assert.False(t, m.session.Busy())
}

func TestModel_SendWhileBusyIsDropped(t *testing.T) {
	m := newTestModel(t, assistant.Offline{})
	m = press(m, keyOpen)
	m = typeText(m, "first")
	require.True(t, m.session.Busy())
	assert.Empty(t, m.input.Value())
	n := m.session.Store().Len()

	m = typeText(m, "second")

	assert.Equal(t, n, m.session.Store().Len())
	assert.Equal(t, "second", m.input.Value(), "dropped send keeps the draft")
	assert.NotContains(t, m.View(), "in flight")
	last, ok := m.alerts.Last()
	require.True(t, ok)
	assert.Equal(t, "widget.started", last.Code)
	assert.Contains(t, eventTypes(t, m), "chat.busy")

	m = m.settle()
	assert.False(t, m.session.Busy())
	assert.Equal(t, n+1, m.session.Store().Len())
	assert.NotContains(t, m.View(), "in flight")

	// The kept draft goes out once the reply has landed.
	m = press(m, keyEnter)
	require.True(t, m.session.Busy())
	m = m.settle()
	msgs := m.session.Messages()
	require.Len(t, msgs, n+3)
	assert.Equal(t, "second", msgs[n+1].Content)
	assert.Empty(t, m.input.Value())
}

func TestModel_FailedExchangeShowsOnlyFallback(t *testing.T) {
	client := clientFunc(func(context.Context, chat.Request) (chat.Reply, error) {
		return chat.Reply{}, &assistant.StatusError{Status: 502, Body: "bad gateway"}
	})
	m := newTestModel(t, client)
	m = press(m, keyOpen)
	m = typeText(m, "hello")
	m = m.settle()

	msgs := m.session.Messages()
	require.Len(t, msgs, 4)
	assert.Equal(t, "hello", msgs[2].Content)
	assert.Equal(t, chat.FallbackReply, msgs[3].Content)
	assert.False(t, m.session.Busy())

	view := m.View()
	assert.NotContains(t, view, "bad gateway")
	assert.NotContains(t, view, "failed")
	last, _ := m.alerts.Last()
	assert.Equal(t, "widget.started", last.Code)

	recs, err := events.ReadAll(m.events.Path())
	require.NoError(t, err)
	var fallback *events.Record
	for i := range recs {
		if recs[i].Type == "chat.fallback" {
			fallback = &recs[i]
		}
	}
	require.NotNil(t, fallback)
	payload, ok := fallback.Payload.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(502), payload["status"])
}

func TestModel_PanickingClientStillSettles(t *testing.T) {
	client := clientFunc(func(context.Context, chat.Request) (chat.Reply, error) {
		panic("boom")
	})
	m := newTestModel(t, client)
	m = press(m, keyOpen)
	m = typeText(m, "hello")
	m = m.settle()

	last, _ := m.session.Store().Last()
	assert.Equal(t, chat.FallbackReply, last.Content)
	assert.False(t, m.session.Busy())
}

func TestModel_StaleReplyIsIgnored(t *testing.T) {
	m := newTestModel(t, assistant.Offline{})
	m = press(m, keyOpen)
	n := m.session.Store().Len()

	next, _ := m.Update(replyMsg{pending: chat.Pending{CorrelationID: "old"}, reply: chat.Reply{Text: "late"}})
	m = next.(Model)

	assert.Equal(t, n, m.session.Store().Len())
}

func TestModel_ProductCardActions(t *testing.T) {
	var seen []string
	client := clientFunc(func(ctx context.Context, req chat.Request) (chat.Reply, error) {
		seen = append(seen, req.Message)
		return assistant.Offline{}.Chat(ctx, req)
	})
	nav := &recordingNavigator{}
	m := newTestModel(t, client, func(c *Config) { c.Navigator = nav })
	m = press(m, keyOpen)
	m = typeText(m, "Tell me about part PS11752778")
	m = m.settle()

	chips := m.chips()
	require.Len(t, chips, 2)
	assert.Equal(t, chipAction, chips[0].kind)
	assert.Equal(t, "Check compatibility", chips[0].label)
	assert.Equal(t, render.ActionNavigate, chips[1].action.Kind)
	assert.Contains(t, m.View(), "Part PS11752778")

	// Navigate action goes to the navigator without touching the log.
	n := m.session.Store().Len()
	m = press(m, keyTab, keyRight, keyEnter)
	assert.Equal(t, []string{"https://www.partselect.com/PS11752778.htm"}, nav.urls)
	assert.Equal(t, n, m.session.Store().Len())
	assert.Contains(t, eventTypes(t, m), "link.open")

	// Prompt action sends the synthesized question.
	m = press(m, keyEsc, keyTab, keyEnter)
	require.True(t, m.session.Busy())
	m = m.settle()
	require.Len(t, seen, 2)
	assert.Equal(t, render.CompatibilityPrompt("PS11752778"), seen[1])
}

func TestModel_NavigateWithoutNavigatorRaisesAlert(t *testing.T) {
	m := newTestModel(t, assistant.Offline{})
	m = press(m, keyOpen)
	m = typeText(m, "Where is order #42?")
	m = m.settle()

	card := m.latestCard()
	require.NotNil(t, card)
	var nav render.Action
	for _, a := range card.Actions {
		if a.Kind == render.ActionNavigate {
			nav = a
		}
	}
	require.Equal(t, render.DefaultReturnURL, nav.URL)

	m, _ = m.runAction(nav)

	alert, ok := m.alerts.Last()
	require.True(t, ok)
	assert.Equal(t, "link.open_failed", alert.Code)
}

func TestModel_WindowKeys(t *testing.T) {
	m := newTestModel(t, assistant.Offline{})
	m = press(m, keyOpen, tea.KeyMsg{Type: tea.KeyCtrlE})
	assert.Equal(t, chat.WindowExpanded, m.session.WindowState())

	m = press(m, tea.KeyMsg{Type: tea.KeyCtrlE})
	assert.Equal(t, chat.WindowCompact, m.session.WindowState())

	// Esc leaves chip focus before it closes the window.
	m = press(m, keyTab, keyEsc)
	assert.Equal(t, chat.WindowCompact, m.session.WindowState())
	assert.Equal(t, focusInput, m.focus)

	m = press(m, keyEsc)
	assert.Equal(t, chat.WindowClosed, m.session.WindowState())
	assert.Equal(t, 2, m.session.Store().Len())

	m = press(m, keyOpen)
	assert.Equal(t, 2, m.session.Store().Len(), "reopening does not greet twice")
}

func TestModel_QuitKeys(t *testing.T) {
	m := newTestModel(t, assistant.Offline{})
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	assert.True(t, next.(Model).QuitRequested())
	require.NotNil(t, cmd)

	// Inside an open window q is just text.
	m = press(m, keyOpen, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	assert.False(t, m.QuitRequested())
	assert.Equal(t, "q", m.input.Value())
}

func TestModel_HealthTransitions(t *testing.T) {
	m := newTestModel(t, assistant.Offline{})

	next, _ := m.Update(healthMsg{err: errors.New("dial tcp: refused")})
	m = next.(Model)
	assert.Equal(t, healthOffline, m.health)
	alert, _ := m.alerts.Last()
	assert.Equal(t, "assistant.offline", alert.Code)

	next, _ = m.Update(healthMsg{})
	m = next.(Model)
	assert.Equal(t, healthOnline, m.health)
	assert.Contains(t, eventTypes(t, m), "assistant.health")
}

func TestModel_ViewTooSmall(t *testing.T) {
	m := newTestModel(t, assistant.Offline{})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 10, Height: 4})
	assert.Contains(t, next.(Model).View(), "Terminal too small")
}

func TestModel_ViewportFollowsStoreAppends(t *testing.T) {
	m := newTestModel(t, assistant.Offline{})
	m = press(m, keyOpen)
	for i := 0; i < 30; i++ {
		m.session.Store().Append(chat.Message{Role: chat.RoleAssistant, Content: "line"})
	}
	m = m.syncViewport()
	require.True(t, m.viewport.AtBottom())

	m = press(m, tea.KeyMsg{Type: tea.KeyPgUp})
	require.False(t, m.viewport.AtBottom())

	// A re-render without new turns keeps the reader's position.
	m = m.syncViewport()
	assert.False(t, m.viewport.AtBottom())

	// Turns appended outside the model, e.g. by a Pipeline, still pull it down.
	m.session.Store().Append(chat.Message{Role: chat.RoleAssistant, Content: "newest"})
	m = m.syncViewport()
	assert.True(t, m.viewport.AtBottom())
}
