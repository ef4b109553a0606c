package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"csd-portal/ops-portal/ops-portal-backend/internal/auth"
	"csd-portal/ops-portal/ops-portal-backend/internal/export"
	"csd-portal/ops-portal/ops-portal-backend/internal/fixtures"
	"csd-portal/ops-portal/ops-portal-backend/internal/session"
)

// Config represents the application configuration
type Config struct {
	Server   ServerConfig   `json:"server"`
	Logging  LoggingConfig  `json:"logging"`
	Security SecurityConfig `json:"security"`
	Sessions SessionsConfig `json:"sessions"`
	Pages    PagesConfig    `json:"pages"`
	Export   ExportConfig   `json:"export"`
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Host            string   `json:"host"`
	Port            int      `json:"port"`
	ReadTimeout     Duration `json:"read_timeout"`
	WriteTimeout    Duration `json:"write_timeout"`
	IdleTimeout     Duration `json:"idle_timeout"`
	ShutdownTimeout Duration `json:"shutdown_timeout"`
	AllowedOrigins  []string `json:"allowed_origins"`
}

// LoggingConfig
type LoggingConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"` // json, console
}

// SecurityConfig
type SecurityConfig struct {
	JWTSecret      string              `json:"jwt_secret"`
	Issuer         string              `json:"issuer"`
	TokenTTL       Duration            `json:"token_ttl"`
	Roles          map[string][]string `json:"roles,omitempty"`
	AllowDevTokens bool                `json:"allow_dev_tokens"`
}

// SessionsConfig
type SessionsConfig struct {
	IdleTTL      Duration `json:"idle_ttl"`
	ReapSchedule string   `json:"reap_schedule"`
}

// PagesConfig locates page definitions and sizes the fixture dataset
type PagesConfig struct {
	DefinitionsPath string `json:"definitions_path"`
	Seed            uint64 `json:"seed"`
	Size            int    `json:"size"`
}

// ExportConfig
type ExportConfig struct {
	PageSize    string `json:"page_size"`
	Orientation string `json:"orientation"`
	Author      string `json:"author"`
}

// Duration is a time.Duration read from JSON as either a Go duration
// string ("30m") or a number of nanoseconds.
type Duration time.Duration

// UnmarshalJSON implements json.Unmarshaler
func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		v, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = Duration(v)
		return nil
	}
	var n int64
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("invalid duration %s", b)
	}
	*d = Duration(n)
	return nil
}

// MarshalJSON implements json.Marshaler
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// Std returns the value as a time.Duration
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Default returns the configuration used when no file or environment
// override is present.
func Default() *Config {
	sessions := session.DefaultConfig()
	pdf := export.DefaultPDFOptions()
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     Duration(15 * time.Second),
			WriteTimeout:    Duration(30 * time.Second),
			IdleTimeout:     Duration(60 * time.Second),
			ShutdownTimeout: Duration(5 * time.Second),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Security: SecurityConfig{
			Issuer:   "ops-portal",
			TokenTTL: Duration(8 * time.Hour),
		},
		Sessions: SessionsConfig{
			IdleTTL:      Duration(sessions.IdleTTL),
			ReapSchedule: sessions.ReapSchedule,
		},
		Pages: PagesConfig{
			Seed: fixtures.DefaultSeed,
			Size: fixtures.DefaultSize,
		},
		Export: ExportConfig{
			PageSize:    pdf.PageSize,
			Orientation: pdf.Orientation,
		},
	}
}

// LoadConfig loads configuration from file and environment variables. A
// missing file is not an error; a malformed one is.
func LoadConfig(configPath string) (*Config, error) {
	config := Default()

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		switch {
		case err == nil:
			if err := json.Unmarshal(data, config); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		case !errors.Is(err, os.ErrNotExist):
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := overrideWithEnv(config); err != nil {
		return nil, err
	}
	return config, nil
}

func overrideWithEnv(config *Config) error {
	if host := os.Getenv("SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("invalid SERVER_PORT %q: %w", port, err)
		}
		config.Server.Port = p
	}
	if origins := os.Getenv("SERVER_ALLOWED_ORIGINS"); origins != "" {
		config.Server.AllowedOrigins = splitList(origins)
	}

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if format := os.Getenv("LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}

	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		config.Security.JWTSecret = secret
	}
	if issuer := os.Getenv("JWT_ISSUER"); issuer != "" {
		config.Security.Issuer = issuer
	}
	if dev := os.Getenv("AUTH_ALLOW_DEV_TOKENS"); dev != "" {
		b, err := strconv.ParseBool(dev)
		if err != nil {
			return fmt.Errorf("invalid AUTH_ALLOW_DEV_TOKENS %q: %w", dev, err)
		}
		config.Security.AllowDevTokens = b
	}

	if ttl := os.Getenv("SESSION_IDLE_TTL"); ttl != "" {
		d, err := time.ParseDuration(ttl)
		if err != nil {
			return fmt.Errorf("invalid SESSION_IDLE_TTL %q: %w", ttl, err)
		}
		config.Sessions.IdleTTL = Duration(d)
	}
	if schedule := os.Getenv("SESSION_REAP_SCHEDULE"); schedule != "" {
		config.Sessions.ReapSchedule = schedule
	}

	if path := os.Getenv("PAGES_DEFINITIONS_PATH"); path != "" {
		config.Pages.DefinitionsPath = path
	}
	if seed := os.Getenv("PAGES_SEED"); seed != "" {
		s, err := strconv.ParseUint(seed, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid PAGES_SEED %q: %w", seed, err)
		}
		config.Pages.Seed = s
	}
	if size := os.Getenv("PAGES_SIZE"); size != "" {
		s, err := strconv.Atoi(size)
		if err != nil {
			return fmt.Errorf("invalid PAGES_SIZE %q: %w", size, err)
		}
		config.Pages.Size = s
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// GetServerAddr returns the server address
func (c *ServerConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// AuthConfig converts the security section for the authorizer
func (c *SecurityConfig) AuthConfig() auth.Config {
	return auth.Config{
		Secret:         c.JWTSecret,
		Issuer:         c.Issuer,
		TokenTTL:       c.TokenTTL.Std(),
		Roles:          c.Roles,
		AllowDevTokens: c.AllowDevTokens,
	}
}

// SessionConfig converts the sessions section for the session manager
func (c *SessionsConfig) SessionConfig() session.Config {
	return session.Config{
		IdleTTL:      c.IdleTTL.Std(),
		ReapSchedule: c.ReapSchedule,
	}
}

// ExportOptions applies the export section to the default exporter options
func (c *ExportConfig) ExportOptions() export.Options {
	opts := export.DefaultOptions()
	if c.PageSize != "" {
		opts.PDF.PageSize = c.PageSize
	}
	if c.Orientation != "" {
		opts.PDF.Orientation = c.Orientation
	}
	if c.Author != "" {
		opts.PDF.Author = c.Author
	}
	return opts
}
