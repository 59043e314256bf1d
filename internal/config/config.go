// Package config resolves client settings from the environment, an optional
// .env file and command-line flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"casefile/internal/protocol"
)

// EnvPrefix is prepended to every variable name below.
const EnvPrefix = "CASEFILE_"

// LogPlayerCommand selects the logging player instead of an external binary.
const LogPlayerCommand = "log"

type Config struct {
	ServerURL    string `env:"SERVER_URL"    envDefault:"ws://localhost:65432/ws"`
	Player       string `env:"PLAYER"        envDefault:"Marlow"`
	SessionID    string `env:"SESSION_ID"    envDefault:"demo-1"`
	SinglePlayer bool   `env:"SINGLE_PLAYER" envDefault:"true"`
	BotStyle     string `env:"BOT_STYLE"`
	AutoConnect  bool   `env:"AUTO_CONNECT"`

	VisionBase string `env:"VISION_BASE" envDefault:"http://localhost:8004"`
	AdminBase  string `env:"ADMIN_BASE"  envDefault:"http://localhost:8000"`
	AdminToken string `env:"ADMIN_TOKEN"`

	PlayerCommand   string `env:"PLAYER_COMMAND"   envDefault:"ffplay -nodisp -autoexit -loglevel quiet"`
	BackgroundMusic string `env:"BACKGROUND_MUSIC"`
	Voice           bool   `env:"VOICE"            envDefault:"true"`
	Music           bool   `env:"MUSIC"            envDefault:"true"`
	SFX             bool   `env:"SFX"              envDefault:"true"`

	LogFile  string `env:"LOG_FILE"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load reads envFile if it exists, then the process environment.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Normalize trims values and fills what may be derived. An empty session id
// becomes a fresh sess-<uuid>.
func (c *Config) Normalize() {
	c.ServerURL = strings.TrimSpace(c.ServerURL)
	c.Player = strings.TrimSpace(c.Player)
	c.SessionID = strings.TrimSpace(c.SessionID)
	c.BotStyle = strings.TrimSpace(c.BotStyle)
	c.VisionBase = strings.TrimRight(strings.TrimSpace(c.VisionBase), "/")
	c.AdminBase = strings.TrimRight(strings.TrimSpace(c.AdminBase), "/")
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	if c.SessionID == "" {
		c.SessionID = NewSessionID()
	}
	if c.BotStyle == "" {
		c.BotStyle = protocol.DefaultBotStyle
	}
}

// Validate checks the settings needed to play.
func (c Config) Validate() error {
	if c.Player == "" {
		return errors.New("player name is required")
	}
	return ValidateServerURL(c.ServerURL)
}

func ValidateServerURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("server url: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("server url %q: scheme must be ws or wss", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("server url %q: missing host", raw)
	}
	return nil
}

func NewSessionID() string {
	return "sess-" + uuid.NewString()
}
