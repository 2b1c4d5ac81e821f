package internal

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Vault backends.
const (
	VaultBackendFS      = "fs"
	VaultBackendDropbox = "dropbox"
)

// Config represents the application configuration.
type Config struct {
	App      ApplicationConfig `yaml:"app"`
	Vault    VaultConfig       `yaml:"vault"`
	Journal  JournalConfig     `yaml:"journal"`
	Redis    RedisConfig       `yaml:"redis"`
	Cycle    CycleConfig       `yaml:"cycle"`
	Webhooks WebhooksConfig    `yaml:"webhooks"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Vault.Validate(); err != nil {
		return err
	}
	if err := c.Journal.Validate(); err != nil {
		return err
	}
	if c.Vault.Backend == VaultBackendDropbox {
		if err := c.Redis.Validate(); err != nil {
			return err
		}
	}
	return c.Cycle.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// VaultConfig selects and configures the document store backend.
type VaultConfig struct {
	Backend string        `yaml:"backend"`
	Path    string        `yaml:"path"` // fs backend: vault root directory
	Dropbox DropboxConfig `yaml:"dropbox"`
}

// Validate validates the vault configuration.
func (c *VaultConfig) Validate() error {
	if c.Backend == "" {
		c.Backend = VaultBackendFS
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Backend, validation.Required, validation.In(VaultBackendFS, VaultBackendDropbox)),
	); err != nil {
		return err
	}
	if c.Backend == VaultBackendFS && c.Path == "" {
		return fmt.Errorf("vault: backend is %q but path is empty", VaultBackendFS)
	}
	if c.Backend == VaultBackendDropbox {
		return c.Dropbox.Validate()
	}
	return nil
}

// DropboxConfig holds Dropbox app credentials and the vault root inside the
// Dropbox account.
type DropboxConfig struct {
	AppKey       string `yaml:"app_key"`
	AppSecret    string `yaml:"app_secret"`
	RefreshToken string `yaml:"refresh_token"`
	Root         string `yaml:"root"`
	MaxRetries   int    `yaml:"max_retries"`
}

// Validate validates the Dropbox configuration.
func (c *DropboxConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.AppKey, validation.Required),
		validation.Field(&c.AppSecret, validation.Required),
		validation.Field(&c.RefreshToken, validation.Required),
	)
}

// JournalConfig holds the SQLite event ledger configuration.
type JournalConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the journal configuration.
func (c *JournalConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// RedisConfig holds the Redis connection used for the Dropbox token cache.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// Validate validates the Redis configuration.
func (c *RedisConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Addr, validation.Required),
	)
}

// CycleConfig holds the calendar conventions of the vault.
type CycleConfig struct {
	RolloverHour  int    `yaml:"rollover_hour"`
	AnchorWeekday string `yaml:"anchor_weekday"`
	Timezone      string `yaml:"timezone"`
}

// Validate validates the cycle configuration.
func (c *CycleConfig) Validate() error {
	if c.AnchorWeekday == "" {
		c.AnchorWeekday = time.Wednesday.String()
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.RolloverHour, validation.Min(0), validation.Max(23)),
	); err != nil {
		return err
	}
	if _, err := c.Weekday(); err != nil {
		return err
	}
	_, err := c.Location()
	return err
}

// Weekday parses the configured anchor weekday name.
func (c *CycleConfig) Weekday() (time.Weekday, error) {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(c.AnchorWeekday, d.String()) {
			return d, nil
		}
	}
	return 0, fmt.Errorf("cycle: unknown anchor weekday %q", c.AnchorWeekday)
}

// Location resolves the configured timezone.
func (c *CycleConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("cycle: load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// WebhooksConfig holds per-source webhook verification secrets. An empty
// secret disables verification for that source.
type WebhooksConfig struct {
	TodoistSecret  string `yaml:"todoist_secret"`
	TelegramSecret string `yaml:"telegram_secret"`
	LinearSecret   string `yaml:"linear_secret"`
	GithubSecret   string `yaml:"github_secret"`
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Vault: VaultConfig{
			Backend: VaultBackendFS,
			Path:    "./vault",
		},
		Journal: JournalConfig{
			Path: "./laguz.db",
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		Cycle: CycleConfig{
			RolloverHour:  3,
			AnchorWeekday: time.Wednesday.String(),
			Timezone:      "UTC",
		},
	}
}
