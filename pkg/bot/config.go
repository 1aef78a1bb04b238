// Copyright 2024-2026 Aiku AI

package bot

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed example-config.yaml
var ExampleConfig string

// Config holds the bot configuration.
type Config struct {
	// Homeserver is the Matrix homeserver URL the bot connects to.
	Homeserver string `yaml:"homeserver"`
	// UserID is the bot's own Matrix user ID.
	UserID string `yaml:"user_id"`
	// AccessToken authenticates the bot. The LINKBOT_ACCESS_TOKEN env
	// var overrides the file value so the token can stay out of the
	// config file.
	AccessToken string `yaml:"access_token"`

	// DatabasePath is the SQLite database file.
	DatabasePath string `yaml:"database_path"`

	// Admins lists operator user IDs. Admin commands are rejected for
	// everyone else.
	Admins []string `yaml:"admins"`

	// AdminAPIAddr is the listen address for the ops HTTP API serving
	// /healthz and /api/stats. Empty disables it.
	AdminAPIAddr string `yaml:"admin_api_addr"`

	// Greeting is the fallback !start greeting when none is stored.
	Greeting string `yaml:"greeting"`

	CaptchaLength     int `yaml:"captcha_length"`
	MinLoginLength    int `yaml:"min_login_length"`
	MinPasswordLength int `yaml:"min_password_length"`

	Broadcast BroadcastConfig `yaml:"broadcast"`
	Session   SessionConfig   `yaml:"session"`
}

// BroadcastConfig tunes the fan-out delivery engine.
type BroadcastConfig struct {
	// Delay is the fixed pause after every delivery attempt, a throttle
	// for the transport's rate limits.
	Delay time.Duration `yaml:"delay"`
	// ProgressEvery controls how often (in processed recipients) the
	// initiator gets an in-flight progress update.
	ProgressEvery int `yaml:"progress_every"`
}

// SessionConfig tunes session lifecycle policy.
type SessionConfig struct {
	// IdleTimeout resets an abandoned flow to idle on the subject's next
	// event. Zero means flows never expire.
	IdleTimeout time.Duration `yaml:"idle_timeout"`
}

// LoadConfig reads and validates a config file.
func LoadConfig(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.PostProcess(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// PostProcess applies env overrides, fills defaults and validates
// required fields.
func (c *Config) PostProcess() error {
	if token := os.Getenv("LINKBOT_ACCESS_TOKEN"); token != "" {
		c.AccessToken = token
	}
	if c.Homeserver == "" {
		return fmt.Errorf("homeserver is required")
	}
	if c.UserID == "" {
		return fmt.Errorf("user_id is required")
	}
	if c.AccessToken == "" {
		return fmt.Errorf("access_token is required")
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "linkbot.db"
	}
	if c.Greeting == "" {
		c.Greeting = "👋 Welcome! Use !login to sign in or !register to create an account."
	}
	if c.CaptchaLength <= 0 {
		c.CaptchaLength = 5
	}
	if c.MinLoginLength <= 0 {
		c.MinLoginLength = 3
	}
	if c.MinPasswordLength <= 0 {
		c.MinPasswordLength = 6
	}
	if c.Broadcast.Delay <= 0 {
		c.Broadcast.Delay = 100 * time.Millisecond
	}
	if c.Broadcast.ProgressEvery <= 0 {
		c.Broadcast.ProgressEvery = 10
	}
	if c.Session.IdleTimeout < 0 {
		c.Session.IdleTimeout = 0
	}
	return nil
}

// IsAdmin reports whether the identity is a configured operator.
func (c *Config) IsAdmin(identity Address) bool {
	for _, admin := range c.Admins {
		if Address(admin) == identity {
			return true
		}
	}
	return false
}
