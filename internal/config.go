package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/pictor/internal/bulkrename"
	"github.com/starford/pictor/internal/filename"
	"github.com/starford/pictor/internal/imageservice"
	"github.com/starford/pictor/internal/naming"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Vault   VaultConfig       `yaml:"vault"`
	SQLite  SQLiteConfig      `yaml:"sqlite"`
	Auth    AuthConfig        `yaml:"auth"`
	Naming  NamingConfig      `yaml:"naming"`
	Tracker TrackerConfig     `yaml:"tracker"`
	Bulk    BulkConfig        `yaml:"bulk"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Vault.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	if err := c.Naming.Validate(); err != nil {
		return err
	}
	if err := c.Tracker.Validate(); err != nil {
		return err
	}
	return c.Bulk.Validate()
}

// ServiceConfig converts the naming, tracker, and bulk sections into the
// image service's runtime configuration.
func (c *Config) ServiceConfig() imageservice.Config {
	return imageservice.Config{
		ImageFolder:      c.Naming.ImageFolder,
		Aggressive:       c.Naming.Aggressive,
		Policy:           naming.Policy(c.Naming.Policy),
		TimestampPattern: c.Naming.TimestampPattern,
		DebounceDelay:    time.Duration(c.Tracker.DebounceMS) * time.Millisecond,
		GuardTTL:         time.Duration(c.Tracker.GuardTTLMS) * time.Millisecond,
		DeleteAction:     c.Tracker.DeleteAction,
		DefaultFilter:    bulkrename.Filter(c.Bulk.DefaultFilter),
	}
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

// VaultConfig holds the path to the Markdown vault directory.
type VaultConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the vault configuration.
func (c *VaultConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	// Normalise empty mode to "disabled" for backward compatibility.
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NamingConfig controls how new image files are named.
type NamingConfig struct {
	Policy           string `yaml:"policy"`
	TimestampPattern string `yaml:"timestamp_pattern"`
	ImageFolder      string `yaml:"image_folder"`
	Aggressive       bool   `yaml:"aggressive"`
}

// Validate validates the naming configuration.
func (c *NamingConfig) Validate() error {
	if c.Policy == "" {
		c.Policy = string(naming.PolicySequential)
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Policy, validation.Required,
			validation.In(string(naming.PolicySequential), string(naming.PolicyTimestamp))),
	)
}

// TrackerConfig controls the link-removal tracker.
type TrackerConfig struct {
	DebounceMS   int    `yaml:"debounce_ms"`
	GuardTTLMS   int    `yaml:"guard_ttl_ms"`
	DeleteAction string `yaml:"delete_action"`
}

// Validate validates the tracker configuration.
func (c *TrackerConfig) Validate() error {
	if c.DeleteAction == "" {
		c.DeleteAction = imageservice.DeleteActionPrompt
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.DebounceMS, validation.Min(0)),
		validation.Field(&c.GuardTTLMS, validation.Min(0)),
		validation.Field(&c.DeleteAction, validation.Required,
			validation.In(imageservice.DeleteActionPrompt, imageservice.DeleteActionAuto, imageservice.DeleteActionNever)),
	)
}

// BulkConfig holds defaults for bulk rename operations.
type BulkConfig struct {
	DefaultFilter string `yaml:"default_filter"`
}

// Validate validates the bulk configuration.
func (c *BulkConfig) Validate() error {
	if c.DefaultFilter == "" {
		c.DefaultFilter = string(bulkrename.FilterGeneric)
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.DefaultFilter, validation.Required,
			validation.In(string(bulkrename.FilterAll), string(bulkrename.FilterGeneric))),
	)
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
			Path: "./vault",
		},
		SQLite: SQLiteConfig{
			Path: "./pictor.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Naming: NamingConfig{
			Policy:           string(naming.PolicySequential),
			TimestampPattern: filename.DefaultTimestampPattern,
			ImageFolder:      "attachments",
		},
		Tracker: TrackerConfig{
			DebounceMS:   300,
			GuardTTLMS:   1000,
			DeleteAction: imageservice.DeleteActionPrompt,
		},
		Bulk: BulkConfig{
			DefaultFilter: string(bulkrename.FilterGeneric),
		},
	}
}
