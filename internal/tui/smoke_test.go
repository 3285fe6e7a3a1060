package tui

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"partchat/internal/assistant"
	"partchat/internal/events"
)

func TestRunSmoke(t *testing.T) {
	m := newTestModel(t, assistant.Offline{})
	m.cfg.Navigator = AlertNavigator(m.alerts)

	report := RunSmoke(m)

	require.True(t, report.OK, report.JSON)
	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(report.JSON), &got))
	assert.Equal(t, true, got["greeted"])
	assert.Equal(t, true, got["exampleSent"])
	assert.NotEmpty(t, report.View)
	assert.False(t, report.Final.session.Busy())
}

func TestAlertNavigator(t *testing.T) {
	a := events.NewAlerts(nil)
	require.NoError(t, AlertNavigator(a).Navigate("https://www.partselect.com/PS1.htm"))

	last, ok := a.Last()
	require.True(t, ok)
	assert.Equal(t, "link.opened", last.Code)
	assert.Equal(t, "https://www.partselect.com/PS1.htm", last.Context["url"])
}

func TestBrowserNavigator_RejectsNonHTTP(t *testing.T) {
	for _, u := range []string{"file:///etc/passwd", "javascript:alert(1)", "::"} {
		assert.Error(t, BrowserNavigator{}.Navigate(u), u)
	}
}
