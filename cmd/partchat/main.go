package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"partchat/internal/assistant"
	"partchat/internal/catalog"
	"partchat/internal/chat"
	"partchat/internal/config"
	"partchat/internal/events"
	"partchat/internal/metrics"
	"partchat/internal/render"
	"partchat/internal/tui"
)

const version = "v0.1.0"

func main() {
	var smoke bool
	var serve bool
	var sessionOverride string
	flag.BoolVar(&smoke, "smoke", false, "run deterministic non-interactive smoke simulation")
	flag.BoolVar(&serve, "serve", false, "run headless command-bus driven session")
	flag.StringVar(&sessionOverride, "session-id", "", "override session id")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	actions, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	sessionID := strings.TrimSpace(sessionOverride)
	if sessionID == "" {
		sessionID = events.NewSessionID()
	}
	logger := events.New(cfg.StateDir, sessionID)
	alerts := events.NewAlerts(logger)
	recorder := metrics.NewRecorder()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if cfg.MetricsAddr != "" {
		go func() {
			if err := recorder.Serve(ctx, cfg.MetricsAddr); err != nil {
				alerts.Raise(events.SeverityError, "metrics.serve_failed", "Metrics endpoint failed", map[string]any{"addr": cfg.MetricsAddr, "error": err.Error()})
			}
		}()
	}

	opts := []chat.Option{chat.WithDiagnostics(logger, recorder)}
	if cfg.SendSnippet {
		opts = append(opts, chat.WithSnippetTurns(cfg.SnippetTurns))
	}
	session := chat.NewSession(actions, opts...)

	var client interface {
		chat.Client
		tui.HealthChecker
	}
	if cfg.DisableNetwork || smoke {
		client = assistant.Offline{}
	} else {
		client = assistant.NewClient(cfg.APIBaseURL, assistant.WithTimeout(cfg.HTTPTimeout))
	}

	var nav render.Navigator = tui.BrowserNavigator{}
	if smoke || serve {
		nav = tui.AlertNavigator(alerts)
	}

	m := tui.New(tui.Config{
		StateDir:     cfg.StateDir,
		SessionID:    sessionID,
		CommandsPath: filepath.Join(cfg.StateDir, sessionID, "commands.jsonl"),
		Version:      version,
		Client:       client,
		Health:       client,
		Renderer:     render.New(render.WithReturnURL(cfg.ReturnURL)),
		Navigator:    nav,
		Events:       logger,
		Alerts:       alerts,
	}, session)

	if smoke {
		outDir := os.Getenv("PARTCHAT_SMOKE_OUT_DIR")
		if strings.TrimSpace(outDir) == "" {
			outDir = filepath.Join(cfg.StateDir, "verify", "tui", fmt.Sprintf("run_%d", time.Now().UnixMilli()))
		}
		_ = os.MkdirAll(outDir, 0o755)
		report := tui.RunSmoke(m)
		_ = os.WriteFile(filepath.Join(outDir, "view.txt"), []byte(report.View+"\n"), 0o644)
		_ = os.WriteFile(filepath.Join(outDir, "summary.json"), []byte(report.JSON+"\n"), 0o644)
		_ = tui.WriteSummary(report.Final)
		if !report.OK {
			fmt.Fprintln(os.Stderr, "partchat-smoke-failed:", report.JSON)
			os.Exit(1)
		}
		fmt.Println("partchat-smoke-ok")
		return
	}

	var p *tea.Program
	if serve {
		p = tea.NewProgram(
			m,
			tea.WithoutRenderer(),
			tea.WithInput(bytes.NewReader(nil)),
			tea.WithOutput(io.Discard),
		)
	} else {
		p = tea.NewProgram(m, tea.WithAltScreen())
	}
	finalModel, err := p.Run()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if fm, ok := finalModel.(tui.Model); ok {
		if err := tui.WriteSummary(fm); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	}
}
