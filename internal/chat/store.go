package chat

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Store is the append-only conversation log. Insertion order is display
// order.
type Store struct {
	mu       sync.Mutex
	msgs     []Message
	entropy  *ulid.MonotonicEntropy
	lastMs   uint64
	now      func() time.Time
	onAppend func(Message)
}

func NewStore() *Store {
	return &Store{
		entropy: ulid.Monotonic(rand.Reader, 0),
		now:     time.Now,
	}
}

// OnAppend registers the scroll-to-latest hook. It runs after the message is
// visible to All, outside the store lock.
func (s *Store) OnAppend(fn func(Message)) {
	s.mu.Lock()
	s.onAppend = fn
	s.mu.Unlock()
}

// Append assigns a fresh id and stores m. Ids are strictly increasing even
// for appends within the same millisecond or across a clock step backwards.
func (s *Store) Append(m Message) Message {
	s.mu.Lock()
	m.ID = s.nextID()
	s.msgs = append(s.msgs, m)
	hook := s.onAppend
	s.mu.Unlock()

	if hook != nil {
		hook(m)
	}
	return m
}

func (s *Store) nextID() string {
	ms := ulid.Timestamp(s.now())
	if ms < s.lastMs {
		ms = s.lastMs
	}
	for {
		id, err := ulid.New(ms, s.entropy)
		if err == nil {
			s.lastMs = ms
			return id.String()
		}
		// Monotonic entropy exhausted for this millisecond.
		ms++
	}
}

// All returns a snapshot copy.
func (s *Store) All() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.msgs))
	copy(out, s.msgs)
	return out
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.msgs)
}

func (s *Store) Last() (Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.msgs) == 0 {
		return Message{}, false
	}
	return s.msgs[len(s.msgs)-1], true
}

func (s *Store) HasUserTurn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.msgs {
		if m.Role == RoleUser {
			return true
		}
	}
	return false
}
