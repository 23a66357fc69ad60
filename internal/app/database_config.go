package app

import (
	"strings"

	"github.com/kidslab/kidsmove/internal/database"
)

// ConnectionConfig converts DatabaseConfig into the database package representation.
func (c DatabaseConfig) ConnectionConfig() database.Config {
	cfg := database.Config{
		Driver:   strings.ToLower(strings.TrimSpace(c.Driver)),
		Path:     c.Path,
		DSN:      c.DSN,
		LogLevel: c.LogLevel,
	}

	var server DBAuthConfig
	switch cfg.Driver {
	case database.DriverPostgres, "postgresql":
		server = c.Postgres
	case database.DriverMySQL:
		server = c.MySQL
	default:
		return cfg
	}

	cfg.Host = server.Host
	cfg.Port = server.Port
	cfg.Name = server.Database
	cfg.User = server.Username
	cfg.Password = server.Password
	return cfg
}
