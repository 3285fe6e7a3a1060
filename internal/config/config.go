package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	APIBaseURL     string        `validate:"required,url"`
	HTTPTimeout    time.Duration `validate:"gt=0"`
	StateDir       string        `validate:"required"`
	CatalogPath    string
	SendSnippet    bool
	SnippetTurns   int    `validate:"min=1,max=50"`
	MetricsAddr    string `validate:"omitempty,hostname_port"`
	ReturnURL      string `validate:"required,url"`
	DisableNetwork bool
}

const (
	defaultBaseURL   = "http://localhost:8000"
	defaultReturnURL = "https://www.partselect.com/365-Day-Returns.htm"
)

var validate = validator.New()

// Load reads an optional .env file, then the PARTCHAT_* environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

func FromEnv() (*Config, error) {
	timeout, err := getEnvAsDuration("PARTCHAT_HTTP_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}
	turns, err := getEnvAsInt("PARTCHAT_SNIPPET_TURNS", 6)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		APIBaseURL:     strings.TrimRight(getEnv("PARTCHAT_API_BASE_URL", defaultBaseURL), "/"),
		HTTPTimeout:    timeout,
		StateDir:       getEnv("PARTCHAT_STATE_DIR", ".partchat"),
		CatalogPath:    getEnv("PARTCHAT_CATALOG", ""),
		SendSnippet:    envBool("PARTCHAT_SEND_SNIPPET"),
		SnippetTurns:   turns,
		MetricsAddr:    getEnv("PARTCHAT_METRICS_ADDR", ""),
		ReturnURL:      getEnv("PARTCHAT_RETURN_URL", defaultReturnURL),
		DisableNetwork: envBool("PARTCHAT_DISABLE_NETWORK"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return fmt.Errorf("config: %s", strings.Join(msgs, "; "))
}

var envNames = map[string]string{
	"APIBaseURL":   "PARTCHAT_API_BASE_URL",
	"HTTPTimeout":  "PARTCHAT_HTTP_TIMEOUT",
	"StateDir":     "PARTCHAT_STATE_DIR",
	"SnippetTurns": "PARTCHAT_SNIPPET_TURNS",
	"MetricsAddr":  "PARTCHAT_METRICS_ADDR",
	"ReturnURL":    "PARTCHAT_RETURN_URL",
}

func describe(fe validator.FieldError) string {
	name := envNames[fe.Field()]
	if name == "" {
		name = fe.Field()
	}
	switch fe.Tag() {
	case "required":
		return name + " is required"
	case "url":
		return name + " must be an absolute URL"
	case "hostname_port":
		return name + " must be host:port"
	case "gt":
		return name + " must be greater than " + fe.Param()
	case "min":
		return name + " must be at least " + fe.Param()
	case "max":
		return name + " must be at most " + fe.Param()
	default:
		return name + " is invalid"
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) (int, error) {
	value, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(value) == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return n, nil
}

// getEnvAsDuration accepts Go durations ("30s") or plain seconds ("30").
func getEnvAsDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value, exists := os.LookupEnv(key)
	value = strings.TrimSpace(value)
	if !exists || value == "" {
		return defaultValue, nil
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return d, nil
}

func envBool(name string) bool {
	v := strings.TrimSpace(os.Getenv(name))
	return v == "1" || strings.EqualFold(v, "true") || strings.EqualFold(v, "yes") || strings.EqualFold(v, "on")
}
