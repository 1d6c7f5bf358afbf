// Package config provides configuration management using viper.
// It supports loading from YAML files and environment variable overrides.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Store backends.
const (
	BackendPlatform = "platform"
	BackendPostgres = "postgres"
	BackendSnapshot = "snapshot"
)

// Config holds all application configuration.
type Config struct {
	Platform PlatformConfig `mapstructure:"platform"`
	Store    StoreConfig    `mapstructure:"store"`
	Database DatabaseConfig `mapstructure:"database"`
	Rules    RulesConfig    `mapstructure:"rules"`
	Schedule ScheduleConfig `mapstructure:"schedule"`
	Log      LogConfig      `mapstructure:"log"`
}

// PlatformConfig holds storefront account configuration.
type PlatformConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	Username   string        `mapstructure:"username"`
	Password   string        `mapstructure:"password"`
	TOTP       string        `mapstructure:"totp"`
	CookiePath string        `mapstructure:"cookie_path"`
	Cookies    bool          `mapstructure:"cookies"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// StoreConfig selects where rewards and purchase history come from.
type StoreConfig struct {
	Backend  string `mapstructure:"backend"`
	Snapshot string `mapstructure:"snapshot"`
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	PoolSize        int           `mapstructure:"pool_size"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
}

// RulesConfig holds the reward rule file location.
type RulesConfig struct {
	Path string `mapstructure:"path"`
}

// ScheduleConfig holds periodic recalculation settings.
type ScheduleConfig struct {
	Spec     string `mapstructure:"spec"`
	Timezone string `mapstructure:"timezone"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DSN returns the PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name,
	)
}

// Load reads configuration from file and environment variables.
// It looks for config.yaml in the config directory.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Environment variables use underscore separator and uppercase
	// e.g., PLATFORM_USERNAME, PLATFORM_PASSWORD, DATABASE_HOST
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Config file is optional - env vars can provide all config
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Keys need a default so AutomaticEnv can override them.
	v.SetDefault("platform.base_url", "https://itch.io")
	v.SetDefault("platform.username", "")
	v.SetDefault("platform.password", "")
	v.SetDefault("platform.totp", "")
	v.SetDefault("platform.cookie_path", ".itch-cookies.yml")
	v.SetDefault("platform.cookies", true)
	v.SetDefault("platform.timeout", "30s")

	v.SetDefault("store.backend", BackendPlatform)
	v.SetDefault("store.snapshot", "")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "rewards")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "rewards")
	v.SetDefault("database.pool_size", 4)
	v.SetDefault("database.connect_timeout", "10s")
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "30m")

	v.SetDefault("rules.path", "itch-reward-config.yml")

	v.SetDefault("schedule.spec", "@hourly")
	v.SetDefault("schedule.timezone", "UTC")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// Validate checks option values that cannot be defaulted.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendPlatform, BackendPostgres:
	case BackendSnapshot:
		if c.Store.Snapshot == "" {
			return fmt.Errorf("store.snapshot is required for the %s backend", BackendSnapshot)
		}
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	return nil
}

// CookieFile returns the cookie file path, or "" when cookie storage is disabled.
func (p *PlatformConfig) CookieFile() string {
	if !p.Cookies {
		return ""
	}
	return p.CookiePath
}
