// Package events keeps the per-session JSONL journal and the in-memory alert
// list shown by the terminal host.
package events

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"partchat/internal/assistant"
	"partchat/internal/chat"
)

type Logger struct {
	path string
	mu   sync.Mutex
	seq  uint64
	now  func() time.Time
}

type Record struct {
	Timestamp     string `json:"timestamp"`
	Seq           uint64 `json:"seq"`
	Source        string `json:"source"`
	Type          string `json:"type"`
	Payload       any    `json:"payload"`
	CorrelationID string `json:"correlation_id,omitempty"`
	CausationID   string `json:"causation_id,omitempty"`
}

// New journals to {stateDir}/{sessionID}/events.jsonl. An empty stateDir
// yields a nil Logger, which discards everything.
func New(stateDir string, sessionID string) *Logger {
	if stateDir == "" {
		return nil
	}
	if sessionID == "" {
		sessionID = "sess_unknown"
	}
	dir := filepath.Join(stateDir, sessionID)
	_ = os.MkdirAll(dir, 0o755)
	return &Logger{path: filepath.Join(dir, "events.jsonl"), now: time.Now}
}

func NewSessionID() string { return "sess_" + uuid.NewString() }

func (l *Logger) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

func (l *Logger) Append(source string, eventType string, payload any, correlationID string, causationID string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	l.seq++
	rec := Record{
		Timestamp:     l.now().UTC().Format(time.RFC3339Nano),
		Seq:           l.seq,
		Source:        source,
		Type:          eventType,
		Payload:       payload,
		CorrelationID: correlationID,
		CausationID:   causationID,
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return
	}
	_ = os.MkdirAll(filepath.Dir(l.path), 0o755)
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return
	}
	_, _ = f.Write(append(b, '\n'))
	_ = f.Close()
}

// SendFinished journals the outcome of one exchange. Failure details land
// here and nowhere user-visible.
func (l *Logger) SendFinished(p chat.Pending, elapsed time.Duration, err error) {
	if l == nil {
		return
	}
	payload := map[string]any{
		"elapsed_ms": elapsed.Milliseconds(),
		"chars":      len(p.Request.Message),
	}
	if err == nil {
		l.Append("pipeline", "chat.completed", payload, p.CorrelationID, "")
		return
	}
	payload["error"] = err.Error()
	var se *assistant.StatusError
	if errors.As(err, &se) {
		payload["status"] = se.Status
		payload["body"] = se.Body
		if se.RetryAfterMs > 0 {
			payload["retry_after_ms"] = se.RetryAfterMs
		}
	}
	var de *assistant.DecodeError
	if errors.As(err, &de) {
		payload["decode"] = true
	}
	l.Append("pipeline", "chat.failed", payload, p.CorrelationID, "")
}

// ReadAll loads a journal back, skipping lines that do not parse.
func ReadAll(path string) ([]Record, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var out []Record
	for _, line := range strings.Split(string(raw), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		var r Record
		if json.Unmarshal([]byte(line), &r) != nil {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}
