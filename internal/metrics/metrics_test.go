package metrics

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"partchat/internal/assistant"
	"partchat/internal/chat"
)

func scrape(t *testing.T, r *Recorder) string {
	t.Helper()
	srv := httptest.NewServer(r.Handler())
	defer srv.Close()
	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func TestRecorder_CountsSendsAndFailures(t *testing.T) {
	r := NewRecorder()
	p := chat.Pending{}
	r.SendFinished(p, 200*time.Millisecond, nil)
	r.SendFinished(p, time.Second, &assistant.StatusError{Status: 500})
	r.SendFinished(p, time.Second, fmt.Errorf("post: %w", context.DeadlineExceeded))
	r.SendFinished(p, time.Second, &assistant.DecodeError{Err: errors.New("eof")})
	r.SendFinished(p, time.Second, errors.New("connection refused"))

	body := scrape(t, r)
	assert.Contains(t, body, "partchat_sends_total 5")
	assert.Contains(t, body, `partchat_send_failures_total{cause="status"} 1`)
	assert.Contains(t, body, `partchat_send_failures_total{cause="timeout"} 1`)
	assert.Contains(t, body, `partchat_send_failures_total{cause="decode"} 1`)
	assert.Contains(t, body, `partchat_send_failures_total{cause="transport"} 1`)
	assert.Contains(t, body, "partchat_send_duration_seconds_count 5")
}

func TestRecorder_WiredIntoSession(t *testing.T) {
	r := NewRecorder()
	s := chat.NewSession(nil, chat.WithDiagnostics(r))
	chat.NewPipeline(s, assistant.Offline{}).Send(context.Background(), "hello")

	body := scrape(t, r)
	assert.Contains(t, body, "partchat_sends_total 1")
	assert.NotContains(t, body, "partchat_send_failures_total{")
}

func TestRecorder_NilIsSafe(t *testing.T) {
	var r *Recorder
	r.SendFinished(chat.Pending{}, time.Second, nil)
}

func TestRecorder_ServeStopsOnCancel(t *testing.T) {
	r := NewRecorder()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Serve(ctx, "127.0.0.1:0") }()
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
