package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allKeys = []string{
	"PARTCHAT_API_BASE_URL",
	"PARTCHAT_HTTP_TIMEOUT",
	"PARTCHAT_STATE_DIR",
	"PARTCHAT_CATALOG",
	"PARTCHAT_SEND_SNIPPET",
	"PARTCHAT_SNIPPET_TURNS",
	"PARTCHAT_METRICS_ADDR",
	"PARTCHAT_RETURN_URL",
	"PARTCHAT_DISABLE_NETWORK",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range allKeys {
		t.Setenv(k, "")
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000", cfg.APIBaseURL)
	assert.Equal(t, 30*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, ".partchat", cfg.StateDir)
	assert.Empty(t, cfg.CatalogPath)
	assert.False(t, cfg.SendSnippet)
	assert.Equal(t, 6, cfg.SnippetTurns)
	assert.Empty(t, cfg.MetricsAddr)
	assert.Equal(t, defaultReturnURL, cfg.ReturnURL)
	assert.False(t, cfg.DisableNetwork)
}

func TestFromEnv_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PARTCHAT_API_BASE_URL", "https://assist.example.com/")
	t.Setenv("PARTCHAT_HTTP_TIMEOUT", "45")
	t.Setenv("PARTCHAT_SEND_SNIPPET", "yes")
	t.Setenv("PARTCHAT_SNIPPET_TURNS", "4")
	t.Setenv("PARTCHAT_METRICS_ADDR", "127.0.0.1:9102")
	t.Setenv("PARTCHAT_DISABLE_NETWORK", "1")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "https://assist.example.com", cfg.APIBaseURL)
	assert.Equal(t, 45*time.Second, cfg.HTTPTimeout)
	assert.True(t, cfg.SendSnippet)
	assert.Equal(t, 4, cfg.SnippetTurns)
	assert.Equal(t, "127.0.0.1:9102", cfg.MetricsAddr)
	assert.True(t, cfg.DisableNetwork)
}

func TestFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		wantErr string
	}{
		{"relative base url", "PARTCHAT_API_BASE_URL", "localhost", "PARTCHAT_API_BASE_URL must be an absolute URL"},
		{"bad timeout", "PARTCHAT_HTTP_TIMEOUT", "soon", "PARTCHAT_HTTP_TIMEOUT"},
		{"negative timeout", "PARTCHAT_HTTP_TIMEOUT", "-5s", "PARTCHAT_HTTP_TIMEOUT must be greater than 0"},
		{"zero turns", "PARTCHAT_SNIPPET_TURNS", "0", "PARTCHAT_SNIPPET_TURNS must be at least 1"},
		{"non-numeric turns", "PARTCHAT_SNIPPET_TURNS", "six", "PARTCHAT_SNIPPET_TURNS"},
		{"metrics without port", "PARTCHAT_METRICS_ADDR", "localhost", "PARTCHAT_METRICS_ADDR must be host:port"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)
			_, err := FromEnv()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
