package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type Severity string

const (
	SeverityInfo     Severity = "INFO"
	SeverityWarn     Severity = "WARN"
	SeverityError    Severity = "ERROR"
	SeverityCritical Severity = "CRITICAL"
)

const maxAlerts = 50

type Alert struct {
	At            string         `json:"at"`
	Severity      Severity       `json:"severity"`
	Code          string         `json:"code"`
	Message       string         `json:"message"`
	Context       map[string]any `json:"context,omitempty"`
	CorrelationID string         `json:"correlation_id"`
}

// Alerts is a bounded list of operator-facing notices. Every alert is also
// journaled as a system.alert event.
type Alerts struct {
	mu     sync.Mutex
	list   []Alert
	logger *Logger
	now    func() time.Time
}

func NewAlerts(l *Logger) *Alerts {
	return &Alerts{logger: l, now: time.Now}
}

func (a *Alerts) Raise(sev Severity, code string, message string, context map[string]any) Alert {
	cid := uuid.NewString()
	al := Alert{
		At:            a.now().UTC().Format(time.RFC3339Nano),
		Severity:      sev,
		Code:          code,
		Message:       message,
		Context:       context,
		CorrelationID: cid,
	}
	a.mu.Lock()
	a.list = append(a.list, al)
	if len(a.list) > maxAlerts {
		a.list = a.list[len(a.list)-maxAlerts:]
	}
	a.mu.Unlock()

	a.logger.Append("system", "system.alert", map[string]any{
		"severity":       string(sev),
		"code":           code,
		"message":        message,
		"context":        context,
		"correlation_id": cid,
	}, cid, "")
	return al
}

// Recent returns up to n of the newest alerts, oldest first. n <= 0 means all.
func (a *Alerts) Recent(n int) []Alert {
	a.mu.Lock()
	defer a.mu.Unlock()
	list := a.list
	if n > 0 && len(list) > n {
		list = list[len(list)-n:]
	}
	out := make([]Alert, len(list))
	copy(out, list)
	return out
}

func (a *Alerts) Last() (Alert, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.list) == 0 {
		return Alert{}, false
	}
	return a.list[len(a.list)-1], true
}
