package chat

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	GreetingText   = "Hi! I'm the PartSelect assistant."
	CapabilityText = "I can help you find refrigerator and dishwasher parts, check whether a part fits your model, walk through repairs, and look up your orders. What are you working on?"
	FallbackReply  = "Sorry, I'm having trouble reaching the service right now. Please try again in a moment."
)

// Request is what the send pipeline hands to the assistant client.
type Request struct {
	Message             string
	ConversationSnippet string
}

// Reply is a decoded assistant response.
type Reply struct {
	Text     string
	Metadata Metadata
}

type Client interface {
	Chat(ctx context.Context, req Request) (Reply, error)
}

// Diagnostics receives the outcome of every completed exchange. err is the
// underlying failure, which is never shown to the user.
type Diagnostics interface {
	SendFinished(p Pending, elapsed time.Duration, err error)
}

// Pending is an exchange that has been started with Begin and must be
// completed with Finish.
type Pending struct {
	CorrelationID string
	Request       Request
	Started       time.Time
}

type Option func(*Session)

// WithSnippetTurns attaches the last n turns to each request as a
// conversation snippet. Zero disables it.
func WithSnippetTurns(n int) Option {
	return func(s *Session) { s.snippetTurns = n }
}

func WithDiagnostics(d ...Diagnostics) Option {
	return func(s *Session) { s.diags = append(s.diags, d...) }
}

func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// Session owns all widget state: the message log, suggestions, window and
// the busy gate. Hosts drive it through its transition methods only.
//
// The store's OnAppend hook runs while the session lock is held and must
// not call back into the Session.
type Session struct {
	mu           sync.Mutex
	store        *Store
	suggestions  Suggestions
	window       Window
	busy         bool
	inflight     string
	greeted      bool
	snippetTurns int
	diags        []Diagnostics
	now          func() time.Time
}

func NewSession(actions []QuickAction, opts ...Option) *Session {
	s := &Session{
		store:       NewStore(),
		suggestions: NewSuggestions(actions),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Session) Store() *Store { return s.store }

func (s *Session) Messages() []Message { return s.store.All() }

func (s *Session) WindowState() WindowState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.window.State()
}

func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

func (s *Session) QuickActions() []QuickAction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.suggestions.Actions()
}

func (s *Session) QuickActionsVisible() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.suggestions.QuickActionsVisible(s.store.HasUserTurn())
}

func (s *Session) ActiveExamples() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.suggestions.ActiveExamples()
}

// Open shows the widget. The first open of a session with an empty log
// posts the greeting and capability turns, in that order.
func (s *Session) Open() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.window = s.window.Open()
	if s.greeted {
		return
	}
	s.greeted = true
	if s.store.Len() == 0 {
		s.store.Append(Message{Role: RoleAssistant, Content: GreetingText})
		s.store.Append(Message{Role: RoleAssistant, Content: CapabilityText})
	}
}

// Close hides the widget. The conversation is kept.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.window = s.window.Close()
}

func (s *Session) ToggleExpand() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.window = s.window.ToggleExpand()
}

// SelectQuickAction applies a quick action. Actions with starter text post
// it as an assistant turn and surface their examples without any request;
// actions without one send their label. ok reports whether a request was
// started and must be run.
func (s *Session) SelectQuickAction(id string) (Pending, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.suggestions.QuickActionsVisible(s.store.HasUserTurn()) {
		return Pending{}, false
	}
	a, found := s.suggestions.Find(id)
	if !found {
		return Pending{}, false
	}
	if strings.TrimSpace(a.StarterText) == "" {
		return s.beginLocked(a.Label)
	}
	s.store.Append(Message{Role: RoleAssistant, Content: a.StarterText})
	s.suggestions = s.suggestions.Choose(a)
	return Pending{}, false
}

// SelectExample sends an example phrasing as the user's turn.
func (s *Session) SelectExample(text string) (Pending, bool) {
	return s.Begin(text)
}

// Begin starts an exchange: it appends the user turn and raises the busy
// flag. Empty text or a busy session make it a no-op.
func (s *Session) Begin(text string) (Pending, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.beginLocked(text)
}

func (s *Session) beginLocked(text string) (Pending, bool) {
	txt := strings.TrimSpace(text)
	if txt == "" || s.busy {
		return Pending{}, false
	}
	snippet := s.snippetLocked()
	s.store.Append(Message{Role: RoleUser, Content: txt})
	s.busy = true
	s.suggestions = s.suggestions.Sent()
	p := Pending{
		CorrelationID: uuid.NewString(),
		Request:       Request{Message: txt, ConversationSnippet: snippet},
		Started:       s.now(),
	}
	s.inflight = p.CorrelationID
	return p, true
}

// Finish completes the exchange started by Begin. A nil err appends the
// reply; any error appends FallbackReply. The busy flag is cleared on every
// path. Finishing an exchange that is not in flight does nothing.
func (s *Session) Finish(p Pending, reply Reply, err error) (Message, bool) {
	msg, ok := s.finishLocked(p, reply, err)
	if !ok {
		return Message{}, false
	}
	elapsed := s.now().Sub(p.Started)
	for _, d := range s.diags {
		d.SendFinished(p, elapsed, err)
	}
	return msg, true
}

func (s *Session) finishLocked(p Pending, reply Reply, err error) (Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.busy || p.CorrelationID == "" || p.CorrelationID != s.inflight {
		return Message{}, false
	}
	defer func() {
		s.inflight = ""
		s.busy = false
	}()
	if err != nil {
		return s.store.Append(Message{Role: RoleAssistant, Content: FallbackReply}), true
	}
	return s.store.Append(Message{Role: RoleAssistant, Content: reply.Text, Metadata: reply.Metadata}), true
}

func (s *Session) snippetLocked() string {
	if s.snippetTurns <= 0 {
		return ""
	}
	msgs := s.store.All()
	if len(msgs) > s.snippetTurns {
		msgs = msgs[len(msgs)-s.snippetTurns:]
	}
	lines := make([]string, 0, len(msgs))
	for _, m := range msgs {
		lines = append(lines, fmt.Sprintf("%s: %s", m.Role, strings.Join(m.Paragraphs(), " ")))
	}
	return strings.Join(lines, "\n")
}
