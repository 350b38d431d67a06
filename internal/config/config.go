// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	BotToken       string
	AllowedChatIDs []int64 // empty means every chat is allowed

	FacesDir    string
	DBPath      string
	CascadePath string

	SearchKey      string
	SearchEngineID string

	OpsPort string

	HTTPTimeout   time.Duration
	PollTimeout   time.Duration
	MaxCandidates int
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	allowed, err := parseChatIDs(getEnv("ALLOWED_CHAT_IDS", ""))
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	cfg := &Config{
		BotToken:       getEnv("BOT_TOKEN", ""),
		AllowedChatIDs: allowed,
		FacesDir:       getEnv("FACES_DIR", "./data/faces"),
		DBPath:         getEnv("DB_PATH", "./data/usage.db"),
		CascadePath:    getEnv("CASCADE_PATH", "./data/facefinder"),
		SearchKey:      getEnv("SEARCH_API_KEY", ""),
		SearchEngineID: getEnv("SEARCH_ENGINE_ID", ""),
		OpsPort:        getEnv("OPS_PORT", "8080"),
		HTTPTimeout:    getEnvDuration("HTTP_TIMEOUT", 30*time.Second),
		PollTimeout:    getEnvDuration("POLL_TIMEOUT", 50*time.Second),
		MaxCandidates:  getEnvInt("MAX_CANDIDATES", 5),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.BotToken == "" {
		return fmt.Errorf("BOT_TOKEN cannot be empty")
	}
	if c.FacesDir == "" {
		return fmt.Errorf("FACES_DIR cannot be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	if c.CascadePath == "" {
		return fmt.Errorf("CASCADE_PATH cannot be empty")
	}
	if c.OpsPort == "" {
		return fmt.Errorf("OPS_PORT cannot be empty")
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be > 0")
	}
	if c.PollTimeout <= 0 {
		return fmt.Errorf("POLL_TIMEOUT must be > 0")
	}
	if c.MaxCandidates <= 0 {
		return fmt.Errorf("MAX_CANDIDATES must be > 0")
	}
	return nil
}

// ChatAllowed reports whether the bot should serve the given chat. An
// empty allow list admits every chat.
func (c *Config) ChatAllowed(chatID int64) bool {
	if len(c.AllowedChatIDs) == 0 {
		return true
	}
	for _, id := range c.AllowedChatIDs {
		if id == chatID {
			return true
		}
	}
	return false
}

// parseChatIDs parses a ";"-separated list of chat IDs.
func parseChatIDs(value string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(value, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse ALLOWED_CHAT_IDS entry %q: %w", part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return d
}
