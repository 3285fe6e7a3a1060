// Package tui hosts the chat widget in a terminal: a launcher that opens into
// a compact or full-screen panel over a chat.Session.
package tui

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"partchat/internal/assistant"
	"partchat/internal/chat"
	"partchat/internal/events"
	"partchat/internal/render"
)

const healthInterval = 30 * time.Second

type HealthChecker interface {
	Health(ctx context.Context) error
}

type Config struct {
	StateDir     string
	SessionID    string
	CommandsPath string
	Version      string
	Client       chat.Client
	Health       HealthChecker
	Renderer     *render.Renderer
	Navigator    render.Navigator
	Events       *events.Logger
	Alerts       *events.Alerts
}

type focusArea int

const (
	focusInput focusArea = iota
	focusChips
)

type healthState int

const (
	healthUnknown healthState = iota
	healthOnline
	healthOffline
)

func (h healthState) String() string {
	switch h {
	case healthOnline:
		return "online"
	case healthOffline:
		return "offline"
	default:
		return "unknown"
	}
}

type chipKind int

const (
	chipQuickAction chipKind = iota
	chipExample
	chipAction
)

// chip is one activatable suggestion under the transcript.
type chip struct {
	kind   chipKind
	label  string
	id     string
	action render.Action
}

type replyMsg struct {
	pending chat.Pending
	reply   chat.Reply
	err     error
}

type healthMsg struct {
	err error
}

type Model struct {
	cfg    Config
	th     theme
	keys   keyMap
	render *render.Renderer

	width  int
	height int

	session *chat.Session
	events  *events.Logger
	alerts  *events.Alerts

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model

	focus     focusArea
	chipIndex int

	pending    chat.Pending
	hasPending bool

	// follow is set by the store's append hook and shared by every copy of
	// the model; syncViewport consumes it.
	follow       *atomic.Bool
	renderedBusy bool

	health          healthState
	healthInFlight  bool
	healthCheckedAt time.Time

	recentCommands   []string
	commandBusPath   string
	commandBusOffset int64
	actionSource     string // tui|cli
	quitRequested    bool

	now time.Time
}

func New(cfg Config, s *chat.Session) Model {
	in := textinput.New()
	in.Placeholder = "Ask about a part, a repair or an order"
	in.Prompt = "> "
	in.CharLimit = 2000
	in.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	r := cfg.Renderer
	if r == nil {
		r = render.New()
	}
	alerts := cfg.Alerts
	if alerts == nil {
		alerts = events.NewAlerts(cfg.Events)
	}

	m := Model{
		cfg:            cfg,
		th:             defaultTheme(),
		keys:           defaultKeyMap(),
		render:         r,
		session:        s,
		events:         cfg.Events,
		alerts:         alerts,
		input:          in,
		viewport:       viewport.New(compactWidth-4, compactHeight-chromeLines),
		spinner:        sp,
		recentCommands: []string{},
		commandBusPath: cfg.CommandsPath,
		actionSource:   "tui",
	}
	m.follow = &atomic.Bool{}
	follow := m.follow
	s.Store().OnAppend(func(chat.Message) { follow.Store(true) })
	m.input.PromptStyle = m.th.Input
	m.commandBusOffset = initCommandBus(cfg.CommandsPath)
	m.alerts.Raise(events.SeverityInfo, "widget.started", "Chat widget started", nil)
	return m.resize()
}

func (m Model) Session() *chat.Session { return m.session }

func (m Model) QuitRequested() bool { return m.quitRequested }

func (m Model) Init() tea.Cmd {
	return tickCmd()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch t := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = t.Width
		m.height = t.Height
		return m.resize(), nil
	case replyMsg:
		return m.onReply(t), nil
	case healthMsg:
		return m.onHealth(t), nil
	case spinner.TickMsg:
		if !m.session.Busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(t)
		return m.syncViewport(), cmd
	case time.Time:
		return m.onTick(t)
	case tea.KeyMsg:
		return m.onKey(t)
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg { return t })
}

func (m Model) onTick(now time.Time) (tea.Model, tea.Cmd) {
	m.now = now
	var cmds []tea.Cmd
	var cmd tea.Cmd
	m, cmd = m.consumeCommandBus()
	cmds = append(cmds, cmd)
	if m.quitRequested {
		return m, tea.Batch(cmds...)
	}
	m, cmd = m.maybeCheckHealth(now)
	cmds = append(cmds, cmd, tickCmd())
	return m, tea.Batch(cmds...)
}

func (m Model) onKey(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(k, m.keys.Quit) {
		m.quitRequested = true
		return m, tea.Quit
	}

	if !m.session.WindowState().IsOpen() {
		switch {
		case key.Matches(k, m.keys.QuitIdle):
			m.quitRequested = true
			return m, tea.Quit
		case key.Matches(k, m.keys.Open):
			return m.openWindow()
		}
		return m, nil
	}

	switch {
	case key.Matches(k, m.keys.Close):
		if m.focus == focusChips {
			return m.focusInput(), nil
		}
		return m.closeWindow(), nil
	case key.Matches(k, m.keys.Expand):
		return m.toggleExpand(), nil
	case key.Matches(k, m.keys.Focus):
		return m.toggleFocus(), nil
	case key.Matches(k, m.keys.ScrollUp):
		m.viewport.HalfViewUp()
		return m, nil
	case key.Matches(k, m.keys.ScrollDn):
		m.viewport.HalfViewDown()
		return m, nil
	}

	if m.focus == focusChips {
		chips := m.chips()
		switch {
		case key.Matches(k, m.keys.Prev):
			if len(chips) > 0 {
				m.chipIndex = (m.chipIndex - 1 + len(chips)) % len(chips)
			}
		case key.Matches(k, m.keys.Next):
			if len(chips) > 0 {
				m.chipIndex = (m.chipIndex + 1) % len(chips)
			}
		case key.Matches(k, m.keys.Send):
			if m.chipIndex < len(chips) {
				return m.activateChip(chips[m.chipIndex])
			}
		}
		return m, nil
	}

	if key.Matches(k, m.keys.Send) {
		text := m.input.Value()
		if strings.TrimSpace(text) == "" {
			return m, nil
		}
		// A dropped send keeps the draft.
		if !m.session.Busy() {
			m.input.SetValue("")
		}
		return m.send(text)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(k)
	return m, cmd
}

func (m Model) openWindow() (Model, tea.Cmd) {
	if m.session.WindowState().IsOpen() {
		return m, nil
	}
	m.session.Open()
	m.emitEvent("widget.open", m.actionSource, map[string]any{"state": m.session.WindowState().String()}, "", "")
	m = m.focusInput()
	return m.resize(), textinput.Blink
}

func (m Model) closeWindow() Model {
	if !m.session.WindowState().IsOpen() {
		return m
	}
	m.session.Close()
	m.emitEvent("widget.close", m.actionSource, map[string]any{"messages": len(m.session.Messages())}, "", "")
	return m.focusInput()
}

func (m Model) toggleExpand() Model {
	if !m.session.WindowState().IsOpen() {
		return m
	}
	m.session.ToggleExpand()
	m.emitEvent("widget.resize", m.actionSource, map[string]any{"state": m.session.WindowState().String()}, "", "")
	return m.resize()
}

func (m Model) toggleFocus() Model {
	if m.focus == focusChips {
		return m.focusInput()
	}
	if len(m.chips()) == 0 {
		return m
	}
	m.focus = focusChips
	m.chipIndex = 0
	m.input.Blur()
	return m
}

func (m Model) focusInput() Model {
	m.focus = focusInput
	m.chipIndex = 0
	m.input.Focus()
	return m
}

// send enters the send pipeline with text. A send while a reply is pending
// is dropped without any visible trace; only the journal records it.
func (m Model) send(text string) (Model, tea.Cmd) {
	if strings.TrimSpace(text) != "" && m.session.Busy() {
		m.emitEvent("chat.busy", m.actionSource, map[string]any{"text": strings.TrimSpace(text)}, m.pending.CorrelationID, "")
		return m, nil
	}
	p, ok := m.session.Begin(text)
	if !ok {
		return m, nil
	}
	return m.started(p)
}

func (m Model) started(p chat.Pending) (Model, tea.Cmd) {
	m.pending, m.hasPending = p, true
	m = m.focusInput()
	m.emitEvent("chat.send", m.actionSource, map[string]any{"text": p.Request.Message}, p.CorrelationID, "")
	m = m.syncViewport()
	return m, tea.Batch(exchangeCmd(m.cfg.Client, p), m.spinner.Tick)
}

func exchangeCmd(c chat.Client, p chat.Pending) tea.Cmd {
	return func() tea.Msg {
		reply, err := chat.Exchange(context.Background(), c, p.Request)
		return replyMsg{pending: p, reply: reply, err: err}
	}
}

func (m Model) onReply(r replyMsg) Model {
	msg, ok := m.session.Finish(r.pending, r.reply, r.err)
	if !ok {
		return m
	}
	if m.hasPending && m.pending.CorrelationID == r.pending.CorrelationID {
		m.pending, m.hasPending = chat.Pending{}, false
	}
	// The fallback turn is the only user-visible trace of a failure.
	if r.err != nil {
		payload := map[string]any{"error": r.err.Error()}
		var se *assistant.StatusError
		if errors.As(r.err, &se) {
			payload["status"] = se.Status
		}
		m.emitEvent("chat.fallback", "assistant", payload, r.pending.CorrelationID, "")
	} else {
		payload := map[string]any{"text": msg.Content}
		if msg.Metadata != nil {
			payload["metadata"] = msg.Metadata.Type()
		}
		m.emitEvent("chat.reply", "assistant", payload, r.pending.CorrelationID, "")
	}
	m.chipIndex = 0
	return m.syncViewport()
}

func (m Model) activateChip(c chip) (Model, tea.Cmd) {
	switch c.kind {
	case chipQuickAction:
		m.emitEvent("quick_action.select", m.actionSource, map[string]any{"id": c.id, "label": c.label}, "", "")
		return m.selectQuickAction(c.id)
	case chipExample:
		m.emitEvent("example.select", m.actionSource, map[string]any{"text": c.label}, "", "")
		return m.send(c.label)
	case chipAction:
		return m.runAction(c.action)
	default:
		return m, nil
	}
}

func (m Model) selectQuickAction(id string) (Model, tea.Cmd) {
	p, ok := m.session.SelectQuickAction(id)
	if ok {
		return m.started(p)
	}
	m = m.focusInput()
	return m.syncViewport(), nil
}

func (m Model) runAction(a render.Action) (Model, tea.Cmd) {
	var cmd tea.Cmd
	if a.Kind == render.ActionNavigate {
		m.emitEvent("link.open", m.actionSource, map[string]any{"url": a.URL, "label": a.Label}, "", "")
	}
	err := render.Dispatch(a, m.cfg.Navigator, func(text string) { m, cmd = m.send(text) })
	if err != nil {
		m.alerts.Raise(events.SeverityWarn, "link.open_failed", "Could not open link", map[string]any{"url": a.URL, "error": err.Error()})
	}
	return m, cmd
}

// chips lists what tab-focus can activate: quick actions before the first
// user turn, the active examples, and the actions of the newest card.
func (m Model) chips() []chip {
	var out []chip
	if m.session.QuickActionsVisible() {
		for _, a := range m.session.QuickActions() {
			out = append(out, chip{kind: chipQuickAction, label: a.Label, id: a.ID})
		}
	}
	for _, ex := range m.session.ActiveExamples() {
		out = append(out, chip{kind: chipExample, label: ex})
	}
	if card := m.latestCard(); card != nil {
		for _, a := range card.Actions {
			out = append(out, chip{kind: chipAction, label: a.Label, action: a})
		}
	}
	return out
}

func (m Model) latestCard() *render.Card {
	last, ok := m.session.Store().Last()
	if !ok || last.Role != chat.RoleAssistant || last.Metadata == nil {
		return nil
	}
	return m.render.Render(last).Card
}

func (m Model) maybeCheckHealth(now time.Time) (Model, tea.Cmd) {
	if m.cfg.Health == nil || m.healthInFlight {
		return m, nil
	}
	if !m.healthCheckedAt.IsZero() && now.Sub(m.healthCheckedAt) < healthInterval {
		return m, nil
	}
	m.healthInFlight = true
	m.healthCheckedAt = now
	h := m.cfg.Health
	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return healthMsg{err: h.Health(ctx)}
	}
}

func (m Model) onHealth(h healthMsg) Model {
	m.healthInFlight = false
	next := healthOnline
	if h.err != nil {
		next = healthOffline
	}
	if next == m.health {
		return m
	}
	prev := m.health
	m.health = next
	payload := map[string]any{"from": prev.String(), "to": next.String()}
	if h.err != nil {
		payload["error"] = h.err.Error()
		m.alerts.Raise(events.SeverityWarn, "assistant.offline", "Assistant service is unreachable", payload)
		return m
	}
	m.emitEvent("assistant.health", "system", payload, "", "")
	return m
}

func (m Model) emitEvent(eventType string, source string, payload any, correlationID string, causationID string) {
	if m.events == nil {
		return
	}
	m.events.Append(source, eventType, payload, correlationID, causationID)
}
