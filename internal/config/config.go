package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rebeliceyang/assetq/internal/db/discovery"
	"github.com/rebeliceyang/assetq/internal/models"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Database models.ConnectionConfig `mapstructure:"database"`
	Engine   EngineConfig            `mapstructure:"engine"`
	History  HistoryConfig           `mapstructure:"history"`
	Presets  PresetsConfig           `mapstructure:"presets"`
	Logging  LoggingConfig           `mapstructure:"logging"`
}

type EngineConfig struct {
	QueryTimeoutMS int `mapstructure:"query_timeout_ms"`
	DefaultPerPage int `mapstructure:"default_per_page"`
	MaxPerPage     int `mapstructure:"max_per_page"`
}

// QueryTimeout is the per-statement timeout
func (e EngineConfig) QueryTimeout() time.Duration {
	return time.Duration(e.QueryTimeoutMS) * time.Millisecond
}

type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type PresetsConfig struct {
	Path       string `mapstructure:"path"`
	MaxPerUser int    `mapstructure:"max_per_user"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// GetDefaults returns a Config with all default values
func GetDefaults() *Config {
	return &Config{
		Database: models.ConnectionConfig{
			SSLMode:  "prefer",
			MaxConns: 5,
			MinConns: 1,
		},
		Engine: EngineConfig{
			QueryTimeoutMS: 30000,
			DefaultPerPage: 20,
			MaxPerPage:     100,
		},
		History: HistoryConfig{
			Enabled: true,
			Path:    defaultDataPath("history.db"),
		},
		Presets: PresetsConfig{
			Path:       defaultDataPath("presets.yaml"),
			MaxPerUser: 20,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := GetDefaults()
	v.SetDefault("database.host", "")
	v.SetDefault("database.port", 0)
	v.SetDefault("database.name", "")
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.ssl_mode", d.Database.SSLMode)
	v.SetDefault("database.max_conns", d.Database.MaxConns)
	v.SetDefault("database.min_conns", d.Database.MinConns)
	v.SetDefault("engine.query_timeout_ms", d.Engine.QueryTimeoutMS)
	v.SetDefault("engine.default_per_page", d.Engine.DefaultPerPage)
	v.SetDefault("engine.max_per_page", d.Engine.MaxPerPage)
	v.SetDefault("history.enabled", d.History.Enabled)
	v.SetDefault("history.path", d.History.Path)
	v.SetDefault("presets.path", d.Presets.Path)
	v.SetDefault("presets.max_per_user", d.Presets.MaxPerUser)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
}

// Load loads configuration from files and the environment. An explicit
// path replaces the search of the default config locations.
func Load(path string) (*Config, error) {
	// A missing .env is fine
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigType("yaml")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")

		// Add config paths in priority order
		if configDir, err := GetConfigPath(); err == nil {
			v.AddConfigPath(configDir)
		}
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("ASSETQ")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Read config (it's okay if file doesn't exist, we have defaults)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	cfg.Database = discovery.Resolve(cfg.Database)
	return &cfg, nil
}

// GetConfigPath returns the user config directory path
func GetConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "assetq"), nil
}

func defaultDataPath(name string) string {
	dir, err := GetConfigPath()
	if err != nil {
		return name
	}
	return filepath.Join(dir, name)
}

// NewLogger builds the structured logger described by cfg
func NewLogger(cfg LoggingConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
