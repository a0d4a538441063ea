package models

import (
	"fmt"
	"time"
)

// ConnectionConfig represents the PostgreSQL connection the engine queries
type ConnectionConfig struct {
	Host     string `mapstructure:"host" yaml:"host"`
	Port     int    `mapstructure:"port" yaml:"port"`
	Database string `mapstructure:"name" yaml:"database"`
	User     string `mapstructure:"user" yaml:"user"`
	Password string `mapstructure:"password" yaml:"password"`
	SSLMode  string `mapstructure:"ssl_mode" yaml:"ssl_mode"`
	MaxConns int32  `mapstructure:"max_conns" yaml:"max_conns"`
	MinConns int32  `mapstructure:"min_conns" yaml:"min_conns"`
}

// DSN returns a libpq style connection string
func (c ConnectionConfig) DSN() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "prefer"
	}

	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s database=%s sslmode=%s",
		c.Host,
		c.Port,
		c.User,
		c.Database,
		sslMode,
	)

	if c.Password != "" {
		dsn += fmt.Sprintf(" password=%s", c.Password)
	}

	return dsn
}

// String renders the connection without its password
func (c ConnectionConfig) String() string {
	return fmt.Sprintf("%s@%s:%d/%s", c.User, c.Host, c.Port, c.Database)
}

// Resolution is one recorded bulk selection resolution
type Resolution struct {
	ID             string        `json:"id"`
	OrganizationID string        `json:"organizationId"`
	Mode           Mode          `json:"mode"`
	Filters        string        `json:"filters,omitempty"`
	SelectAll      bool          `json:"selectAll"`
	Count          int           `json:"count"`
	Duration       time.Duration `json:"duration"`
	Success        bool          `json:"success"`
	Error          string        `json:"error,omitempty"`
	ResolvedAt     time.Time     `json:"resolvedAt"`
}
