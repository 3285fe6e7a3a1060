package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWindow_Transitions(t *testing.T) {
	tests := []struct {
		name  string
		steps func(Window) Window
		want  WindowState
	}{
		{"initial", func(w Window) Window { return w }, WindowClosed},
		{"open", func(w Window) Window { return w.Open() }, WindowCompact},
		{"open twice", func(w Window) Window { return w.Open().Open() }, WindowCompact},
		{"expand", func(w Window) Window { return w.Open().ToggleExpand() }, WindowExpanded},
		{"expand back", func(w Window) Window { return w.Open().ToggleExpand().ToggleExpand() }, WindowCompact},
		{"expand while closed", func(w Window) Window { return w.ToggleExpand() }, WindowClosed},
		{"close from expanded", func(w Window) Window { return w.Open().ToggleExpand().Close() }, WindowClosed},
		{"reopen after expanded close", func(w Window) Window { return w.Open().ToggleExpand().Close().Open() }, WindowCompact},
		{"open on expanded", func(w Window) Window { return w.Open().ToggleExpand().Open() }, WindowExpanded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.steps(Window{}).State())
		})
	}
}

func TestWindowState_String(t *testing.T) {
	assert.Equal(t, "closed", WindowClosed.String())
	assert.Equal(t, "open-compact", WindowCompact.String())
	assert.Equal(t, "open-expanded", WindowExpanded.String())
	assert.True(t, WindowExpanded.IsOpen())
	assert.False(t, WindowClosed.IsOpen())
}

func TestSession_CloseKeepsConversation(t *testing.T) {
	s := NewSession(nil)
	s.Open()
	s.ToggleExpand()
	assert.Equal(t, WindowExpanded, s.WindowState())
	s.Close()
	assert.Equal(t, WindowClosed, s.WindowState())
	assert.Len(t, s.Messages(), 2)
	s.Open()
	assert.Equal(t, WindowCompact, s.WindowState())
}
