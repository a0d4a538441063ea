package discovery

import (
	"os"
	"strconv"

	"github.com/rebeliceyang/assetq/internal/models"
)

const defaultPort = 5432

// GetEnvironmentConfig gets connection config from the PG* environment
// variables. It returns nil when none of host, database and user is set.
func GetEnvironmentConfig() *models.ConnectionConfig {
	host := os.Getenv("PGHOST")
	database := os.Getenv("PGDATABASE")
	user := os.Getenv("PGUSER")

	if host == "" && database == "" && user == "" {
		return nil
	}

	return &models.ConnectionConfig{
		Host:     host,
		Port:     parsePort(os.Getenv("PGPORT")),
		Database: database,
		User:     user,
		Password: os.Getenv("PGPASSWORD"),
		SSLMode:  os.Getenv("PGSSLMODE"),
	}
}

// Resolve fills the unset fields of cfg from the environment, then applies
// defaults, then looks the password up in the password file
func Resolve(cfg models.ConnectionConfig) models.ConnectionConfig {
	if env := GetEnvironmentConfig(); env != nil {
		if cfg.Host == "" {
			cfg.Host = env.Host
		}
		if cfg.Port == 0 && os.Getenv("PGPORT") != "" {
			cfg.Port = env.Port
		}
		if cfg.Database == "" {
			cfg.Database = env.Database
		}
		if cfg.User == "" {
			cfg.User = env.User
		}
		if cfg.Password == "" {
			cfg.Password = env.Password
		}
		if cfg.SSLMode == "" {
			cfg.SSLMode = env.SSLMode
		}
	}

	// Set defaults
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		cfg.Port = defaultPort
	}
	if cfg.User == "" {
		cfg.User = os.Getenv("USER")
	}
	if cfg.Database == "" {
		cfg.Database = cfg.User
	}
	if cfg.SSLMode == "" {
		cfg.SSLMode = "prefer"
	}

	if cfg.Password == "" {
		cfg.Password = FindPassword(cfg.Host, cfg.Port, cfg.Database, cfg.User)
	}

	return cfg
}

func parsePort(s string) int {
	if s != "" {
		if p, err := strconv.Atoi(s); err == nil && p > 0 && p <= 65535 {
			return p
		}
	}
	return defaultPort
}
