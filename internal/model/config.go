package model

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Configuration defaults.
const (
	DefaultBaseURL        = "https://www.teamkonekt.com/api"
	DefaultAuthScheme     = "Token"
	DefaultTimeoutSec     = 30
	DefaultPollIntervalMs = 2000
	DefaultTheme          = "default"
)

// APIConfig holds the connection settings for the TeamKonekt API.
type APIConfig struct {
	// BaseURL is the API root; resource paths are appended to it.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// AuthScheme prefixes the token in the Authorization header.
	AuthScheme string `mapstructure:"auth_scheme" yaml:"auth_scheme"`

	// TimeoutSec bounds a single HTTP request.
	TimeoutSec int `mapstructure:"timeout_sec" yaml:"timeout_sec"`
}

// Timeout returns TimeoutSec as a duration.
func (c APIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

// NotificationConfig controls badge polling.
type NotificationConfig struct {
	PollIntervalMs int `mapstructure:"poll_interval_ms" yaml:"poll_interval_ms"`
}

// PollInterval returns PollIntervalMs as a duration.
func (c NotificationConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	Theme string `mapstructure:"theme" yaml:"theme"`
}

// StoreConfig locates the local cache database.
type StoreConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// LogConfig locates the log file. The terminal is owned by the UI, so
// logs always go to a file.
type LogConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	API           APIConfig          `mapstructure:"api" yaml:"api"`
	Notifications NotificationConfig `mapstructure:"notifications" yaml:"notifications"`
	Display       DisplayConfig      `mapstructure:"display" yaml:"display"`
	Store         StoreConfig        `mapstructure:"store" yaml:"store"`
	Log           LogConfig          `mapstructure:"log" yaml:"log"`
}

// ConfigDir returns ~/.config/konekt, or the working directory when the
// home directory cannot be resolved.
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "konekt")
}

// DefaultConfigPath returns the default path for the configuration file.
func DefaultConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	dir := ConfigDir()
	return &AppConfig{
		API: APIConfig{
			BaseURL:    DefaultBaseURL,
			AuthScheme: DefaultAuthScheme,
			TimeoutSec: DefaultTimeoutSec,
		},
		Notifications: NotificationConfig{
			PollIntervalMs: DefaultPollIntervalMs,
		},
		Display: DisplayConfig{
			Theme: DefaultTheme,
		},
		Store: StoreConfig{
			Path: filepath.Join(dir, "konekt.db"),
		},
		Log: LogConfig{
			Path: filepath.Join(dir, "konekt.log"),
		},
	}
}

// newViper builds a viper instance with defaults and KONEKT_* environment
// overrides (e.g. KONEKT_API_BASE_URL).
func newViper(path string) *viper.Viper {
	def := defaultAppConfig()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("konekt")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("api.base_url", def.API.BaseURL)
	v.SetDefault("api.auth_scheme", def.API.AuthScheme)
	v.SetDefault("api.timeout_sec", def.API.TimeoutSec)
	v.SetDefault("notifications.poll_interval_ms", def.Notifications.PollIntervalMs)
	v.SetDefault("display.theme", def.Display.Theme)
	v.SetDefault("store.path", def.Store.Path)
	v.SetDefault("log.path", def.Log.Path)
	return v
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// A missing file is not an error: defaults and environment overrides apply.
func LoadConfig(path string) (*AppConfig, error) {
	v := newViper(path)

	if err := v.ReadInConfig(); err != nil {
		_, isPathErr := err.(*os.PathError)
		_, isNotFound := err.(viper.ConfigFileNotFoundError)
		if !isPathErr && !isNotFound {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	cfg.API.BaseURL = strings.TrimRight(cfg.API.BaseURL, "/")
	if cfg.API.AuthScheme == "" {
		cfg.API.AuthScheme = DefaultAuthScheme
	}
	if cfg.API.TimeoutSec <= 0 {
		cfg.API.TimeoutSec = DefaultTimeoutSec
	}
	if cfg.Notifications.PollIntervalMs <= 0 {
		cfg.Notifications.PollIntervalMs = DefaultPollIntervalMs
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("api", cfg.API)
	v.Set("notifications", cfg.Notifications)
	v.Set("display", cfg.Display)
	v.Set("store", cfg.Store)
	v.Set("log", cfg.Log)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
