package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const (
	DefaultPort           = "8080"
	DefaultDBPath         = "taskhome.db"
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "text"
	DefaultLoginPerMinute = 10
)

type Config struct {
	Port           string `toml:"port"`
	DBPath         string `toml:"db_path"`
	LogLevel       string `toml:"log_level"`
	LogFormat      string `toml:"log_format"`
	BaseURL        string `toml:"base_url"`
	LoginPerMinute int    `toml:"login_per_minute"`
	// TrustProxy takes client IPs from X-Forwarded-For and X-Real-IP.
	TrustProxy     bool   `toml:"trust_proxy"`
}

// Load builds the configuration. Sources, lowest priority first: built-in
// defaults, the TOML file named by TASKHOME_CONFIG, then the environment.
// A .env file in the working directory is loaded into the environment first
// when present; variables already set are not overridden.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:           DefaultPort,
		DBPath:         DefaultDBPath,
		LogLevel:       DefaultLogLevel,
		LogFormat:      DefaultLogFormat,
		LoginPerMinute: DefaultLoginPerMinute,
	}

	if path := os.Getenv("TASKHOME_CONFIG"); path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := loadFromEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFromEnv(cfg *Config) error {
	setString(&cfg.Port, "TASKHOME_PORT")
	setString(&cfg.DBPath, "TASKHOME_DB_PATH")
	setString(&cfg.LogLevel, "TASKHOME_LOG_LEVEL")
	setString(&cfg.LogFormat, "TASKHOME_LOG_FORMAT")
	setString(&cfg.BaseURL, "TASKHOME_BASE_URL")
	if v := strings.TrimSpace(os.Getenv("TASKHOME_LOGIN_PER_MINUTE")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse TASKHOME_LOGIN_PER_MINUTE %q: %w", v, err)
		}
		cfg.LoginPerMinute = n
	}
	if v := strings.TrimSpace(os.Getenv("TASKHOME_TRUST_PROXY")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("parse TASKHOME_TRUST_PROXY %q: %w", v, err)
		}
		cfg.TrustProxy = b
	}
	return nil
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func (c *Config) Validate() error {
	port, err := strconv.Atoi(c.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid port %q", c.Port)
	}
	if c.DBPath == "" {
		return fmt.Errorf("db_path is required")
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format %q: want text or json", c.LogFormat)
	}
	if c.LoginPerMinute <= 0 {
		return fmt.Errorf("login_per_minute must be positive, got %d", c.LoginPerMinute)
	}
	if c.BaseURL != "" {
		u, err := url.Parse(c.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid base URL %q", c.BaseURL)
		}
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}

// SecureCookies reports whether the server is reached over HTTPS.
func (c *Config) SecureCookies() bool {
	return strings.HasPrefix(strings.ToLower(c.BaseURL), "https://")
}
