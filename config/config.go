package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/mstoykov/envconfig"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config holds the settings of the contracts app and of the e2e suite.
//
// Values are resolved in this order, later wins: built-in defaults, the
// optional YAML file, environment variables (a .env file in the working
// directory is loaded first), command line flags.
type Config struct {
	App   AppConfig   `yaml:"app"`
	Auth  AuthConfig  `yaml:"auth"`
	Suite SuiteConfig `yaml:"suite"`
}

// AppConfig configures the contracts app. Environment prefix: CONTRACTS_.
type AppConfig struct {
	Addr     string   `yaml:"addr" split_words:"true"`
	Title    string   `yaml:"title" split_words:"true"`
	Database string   `yaml:"database" split_words:"true"`
	Features []string `yaml:"features" split_words:"true"`
	LogLevel string   `yaml:"log_level" split_words:"true"`
	// DebugSQL logs every statement.
	DebugSQL bool `yaml:"debug_sql" split_words:"true"`
}

// AuthConfig holds the single account of the contracts app. The suite logs in
// with the same credentials. Environment prefix: CONTRACTS_AUTH_.
type AuthConfig struct {
	// Mode is AuthBasic or AuthNone.
	Mode           string        `yaml:"mode" split_words:"true"`
	User           string        `yaml:"user" split_words:"true"`
	Password       string        `yaml:"password" split_words:"true"`
	SessionTimeout time.Duration `yaml:"session_timeout" split_words:"true"`
}

// SuiteConfig configures the e2e suite. Environment prefix: E2E_.
type SuiteConfig struct {
	BaseURL  string        `yaml:"base_url" split_words:"true"`
	Driver   string        `yaml:"driver" split_words:"true"`
	Headless bool          `yaml:"headless" split_words:"true"`
	SlowMo   time.Duration `yaml:"slow_mo" split_words:"true"`
	// ActionTimeout bounds one browser action of the real browser drivers.
	ActionTimeout time.Duration `yaml:"action_timeout" split_words:"true"`
	WaitInterval  time.Duration `yaml:"wait_interval" split_words:"true"`
	WaitTimeout   time.Duration `yaml:"wait_timeout" split_words:"true"`
	LocateTimeout time.Duration `yaml:"locate_timeout" split_words:"true"`
	LogLevel      string        `yaml:"log_level" split_words:"true"`
}

// Authentication modes of the contracts app.
const (
	AuthBasic = "basic"
	AuthNone  = "none"
)

// Drivers the suite can run on.
const (
	DriverStatic     = "static"
	DriverPlaywright = "playwright"
	DriverChromedp   = "chromedp"
)

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		App: AppConfig{
			Addr:     ":8080",
			Title:    "Contracts",
			Database: "file:contracts.db?_foreign_keys=on",
			Features: []string{"FT_Contracts"},
			LogLevel: "info",
		},
		Auth: AuthConfig{
			Mode:           AuthBasic,
			User:           "admin",
			Password:       "admin123",
			SessionTimeout: 24 * time.Hour,
		},
		Suite: SuiteConfig{
			BaseURL:       "http://localhost:8080",
			Driver:        DriverStatic,
			Headless:      true,
			ActionTimeout: time.Second,
			WaitInterval:  400 * time.Millisecond,
			WaitTimeout:   15 * time.Second,
			LocateTimeout: 5 * time.Second,
			LogLevel:      "info",
		},
	}
}

// Load resolves the configuration. path names an optional YAML file; a
// missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("reading config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config file %s: %w", path, err)
			}
		}
	}

	if err := envconfig.Process("CONTRACTS", &cfg.App); err != nil {
		return nil, fmt.Errorf("app config: %w", err)
	}
	if err := envconfig.Process("CONTRACTS_AUTH", &cfg.Auth); err != nil {
		return nil, fmt.Errorf("auth config: %w", err)
	}
	if err := envconfig.Process("E2E", &cfg.Suite); err != nil {
		return nil, fmt.Errorf("suite config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports settings no component can work with.
func (c *Config) Validate() error {
	switch c.Suite.Driver {
	case DriverStatic, DriverPlaywright, DriverChromedp:
	default:
		return fmt.Errorf("unknown driver %q", c.Suite.Driver)
	}
	if c.Suite.WaitInterval <= 0 {
		return fmt.Errorf("wait interval must be positive, got %s", c.Suite.WaitInterval)
	}
	switch c.Auth.Mode {
	case AuthBasic, AuthNone:
	default:
		return fmt.Errorf("unknown auth mode %q", c.Auth.Mode)
	}
	if c.Auth.Mode == AuthBasic && c.Auth.User == "" {
		return errors.New("auth user must not be empty")
	}
	return nil
}

// NewLogger returns a text logger at level; unknown levels fall back to info.
func NewLogger(level string) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		log.WithField("level", level).Warn("unknown log level, using info")
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)
	return log
}
