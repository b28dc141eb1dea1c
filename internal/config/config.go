package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Session backends.
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendKeyring  = "keyring"
	BackendMemory   = "memory"
)

type Config struct {
	API       APIConfig       `yaml:"api"`
	Session   SessionConfig   `yaml:"session"`
	Dashboard DashboardConfig `yaml:"dashboard"`
	Log       LogConfig       `yaml:"log"`
}

type APIConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

type SessionConfig struct {
	Backend  string         `yaml:"backend"`
	StateDir string         `yaml:"state_dir"`
	Postgres PostgresConfig `yaml:"postgres"`
	// Device scopes the postgres session rows, so several machines can share one database.
	Device string `yaml:"device"`
}

// PostgresConfig locates the shared session database. DSN wins when set;
// otherwise the connection string is built from the parts.
type PostgresConfig struct {
	DSN      string `yaml:"dsn"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

// ConnString returns a PostgreSQL connection string, or "" when nothing is configured.
func (p PostgresConfig) ConnString() string {
	if p.DSN != "" {
		return p.DSN
	}
	if p.Host == "" {
		return ""
	}
	port := p.Port
	if port == 0 {
		port = 5432
	}
	sslmode := p.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(p.User, p.Password),
		Host:     fmt.Sprintf("%s:%d", p.Host, port),
		Path:     "/" + p.Name,
		RawQuery: "sslmode=" + sslmode,
	}
	return u.String()
}

type DashboardConfig struct {
	Host      string          `yaml:"host"`
	Port      int             `yaml:"port"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	stateDir := defaultStateDir()
	device, _ := os.Hostname()
	if device == "" {
		device = "default"
	}
	return &Config{
		API: APIConfig{
			BaseURL: "http://127.0.0.1:8000",
			Timeout: 30 * time.Second,
		},
		Session: SessionConfig{
			Backend:  BackendSQLite,
			StateDir: stateDir,
			Device:   device,
		},
		Dashboard: DashboardConfig{
			Host: "127.0.0.1",
			Port: 8090,
			Tailscale: TailscaleConfig{
				Hostname: "ascend",
			},
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// DefaultPath returns the config file location under the user config directory.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(dir, "ascend", "config.yaml")
}

func defaultStateDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".ascend"
	}
	return filepath.Join(dir, "ascend")
}

// Load reads config from a YAML file over the defaults, then applies
// environment variable overrides. A missing file is not an error.
// Env vars use the prefix ASCEND_:
//
//	ASCEND_API_URL, ASCEND_API_TIMEOUT,
//	ASCEND_SESSION_BACKEND, ASCEND_STATE_DIR, ASCEND_POSTGRES_DSN, ASCEND_DEVICE,
//	ASCEND_DASHBOARD_HOST, ASCEND_DASHBOARD_PORT,
//	ASCEND_TAILSCALE_ENABLED, ASCEND_TAILSCALE_HOSTNAME,
//	ASCEND_LOG_LEVEL, ASCEND_LOG_FILE
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("reading config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config file: %w", err)
			}
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	cfg.resolvePaths()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("ASCEND_API_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv("ASCEND_API_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("ASCEND_API_TIMEOUT: %w", err)
		}
		cfg.API.Timeout = d
	}
	if v := os.Getenv("ASCEND_SESSION_BACKEND"); v != "" {
		cfg.Session.Backend = v
	}
	if v := os.Getenv("ASCEND_STATE_DIR"); v != "" {
		cfg.Session.StateDir = v
	}
	if v := os.Getenv("ASCEND_POSTGRES_DSN"); v != "" {
		cfg.Session.Postgres.DSN = v
	}
	if v := os.Getenv("ASCEND_DEVICE"); v != "" {
		cfg.Session.Device = v
	}
	if v := os.Getenv("ASCEND_DASHBOARD_HOST"); v != "" {
		cfg.Dashboard.Host = v
	}
	if v := os.Getenv("ASCEND_DASHBOARD_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Dashboard.Port = port
		}
	}
	if v := os.Getenv("ASCEND_TAILSCALE_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			cfg.Dashboard.Tailscale.Enabled = enabled
		}
	}
	if v := os.Getenv("ASCEND_TAILSCALE_HOSTNAME"); v != "" {
		cfg.Dashboard.Tailscale.Hostname = v
	}
	if v := os.Getenv("ASCEND_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("ASCEND_LOG_FILE"); v != "" {
		cfg.Log.File = v
	}
	return nil
}

// resolvePaths places unset state paths under the session state directory.
func (c *Config) resolvePaths() {
	if c.Session.StateDir == "" {
		return
	}
	if c.Dashboard.Tailscale.StateDir == "" {
		c.Dashboard.Tailscale.StateDir = filepath.Join(c.Session.StateDir, "tsnet")
	}
	if c.Log.File == "" {
		c.Log.File = filepath.Join(c.Session.StateDir, "ascend.log")
	}
}

func (c *Config) validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("api.base_url must be an absolute URL, got %q", c.API.BaseURL)
	}
	if c.API.Timeout < 0 {
		return fmt.Errorf("api.timeout must not be negative")
	}
	switch c.Session.Backend {
	case BackendSQLite:
		if c.Session.StateDir == "" {
			return fmt.Errorf("session.state_dir is required for the sqlite backend")
		}
	case BackendPostgres:
		if c.Session.Postgres.ConnString() == "" {
			return fmt.Errorf("session.postgres.dsn or session.postgres.host is required for the postgres backend")
		}
		if c.Session.Device == "" {
			return fmt.Errorf("session.device is required for the postgres backend")
		}
	case BackendKeyring, BackendMemory:
	default:
		return fmt.Errorf("session.backend must be one of sqlite, postgres, keyring, memory, got %q", c.Session.Backend)
	}
	if c.Dashboard.Port <= 0 || c.Dashboard.Port > 65535 {
		return fmt.Errorf("dashboard.port must be between 1 and 65535")
	}
	if c.Dashboard.Tailscale.Enabled && c.Dashboard.Tailscale.Hostname == "" {
		return fmt.Errorf("dashboard.tailscale.hostname is required when tailscale is enabled")
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error, got %q", c.Log.Level)
	}
	return nil
}
