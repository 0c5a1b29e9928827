// Package config provides configuration for the chat bridge.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultInstructions biases the assistant towards short answers.
const DefaultInstructions = "Answer briefly and directly. Avoid unnecessary preambles."

// Assistant is the option block injected into the chat pipeline.
type Assistant struct {
	Credential  string
	AssistantID string
	BaseURL     string
	BetaHeader  string

	PollInterval time.Duration
	MaxWait      time.Duration

	// Instructions are sent with every run; empty omits them.
	Instructions  string
	MessagesLimit int

	// CallTimeout bounds each remote HTTP call.
	CallTimeout time.Duration

	// CancelOnTimeout issues a best-effort cancel for runs abandoned on timeout.
	CancelOnTimeout bool
}

// Retry configures backoff around status polls and the message fetch.
// MaxAttempts <= 1 disables retries.
type Retry struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// Config holds the bridge configuration.
type Config struct {
	// Server settings
	HTTPPort         int
	CORSAllowOrigins []string

	Assistant Assistant
	Retry     Retry

	// Journal
	JournalDSN string

	// Policy
	MaxMessageLength int

	// Mode selects the remote client; "MOCK" uses the in-process mock.
	Mode string

	// Logging
	LogLevel string
}

// Load loads configuration from environment variables.
func Load() *Config {
	return &Config{
		HTTPPort:         getEnvInt("HTTP_PORT", 8080),
		CORSAllowOrigins: getEnvList("CORS_ALLOW_ORIGINS", []string{"*"}),
		Assistant: Assistant{
			Credential:      getEnv("OPENAI_API_KEY", ""),
			AssistantID:     getEnv("OPENAI_ASSISTANT_ID", ""),
			BaseURL:         getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			BetaHeader:      getEnv("OPENAI_BETA", "assistants=v2"),
			PollInterval:    time.Duration(getEnvInt("POLL_INTERVAL_MS", 350)) * time.Millisecond,
			MaxWait:         time.Duration(getEnvInt("MAX_WAIT_MS", 20000)) * time.Millisecond,
			Instructions:    getEnvAllowEmpty("RUN_INSTRUCTIONS", DefaultInstructions),
			MessagesLimit:   getEnvInt("MESSAGES_LIMIT", 1),
			CallTimeout:     time.Duration(getEnvInt("UPSTREAM_TIMEOUT_MS", 15000)) * time.Millisecond,
			CancelOnTimeout: getEnvBool("CANCEL_ON_TIMEOUT", false),
		},
		Retry: Retry{
			MaxAttempts:    getEnvInt("RETRY_MAX_ATTEMPTS", 1),
			InitialBackoff: time.Duration(getEnvInt("RETRY_INITIAL_BACKOFF_MS", 100)) * time.Millisecond,
			MaxBackoff:     time.Duration(getEnvInt("RETRY_MAX_BACKOFF_MS", 2000)) * time.Millisecond,
		},
		JournalDSN:       getEnv("JOURNAL_DSN", ""),
		MaxMessageLength: getEnvInt("MAX_MESSAGE_LENGTH", 32768),
		Mode:             getEnv("BRIDGE_MODE", ""),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
	}
}

// Validate checks the settings the pipeline cannot run without.
func (c *Config) Validate() error {
	if c.Mode != "MOCK" {
		if c.Assistant.Credential == "" {
			return fmt.Errorf("OPENAI_API_KEY is required")
		}
		if c.Assistant.AssistantID == "" {
			return fmt.Errorf("OPENAI_ASSISTANT_ID is required")
		}
	}
	if c.Assistant.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %s", c.Assistant.PollInterval)
	}
	if c.Assistant.MaxWait <= 0 {
		return fmt.Errorf("max wait must be positive, got %s", c.Assistant.MaxWait)
	}
	if c.Assistant.MessagesLimit <= 0 {
		return fmt.Errorf("messages limit must be positive, got %d", c.Assistant.MessagesLimit)
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// getEnvAllowEmpty treats a variable set to "" as an explicit empty value.
func getEnvAllowEmpty(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

func getEnvList(key string, defaultVal []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	var out []string
	for _, item := range strings.Split(val, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}
