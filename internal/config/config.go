// Package config loads the service configuration from the environment once at
// startup. The result is passed by value to whoever needs it; nothing here is
// global.
package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/ovaphlow/pitchfork/service-crm-go/pkg/database"
	"github.com/ovaphlow/pitchfork/service-crm-go/pkg/utilities"
)

const minSecretLen = 16

type Config struct {
	Host string `env:"HOST" envDefault:"0.0.0.0"`
	Port int    `env:"PORT" envDefault:"5000"`

	// CORSOrigins lists the browser origins allowed to call the API.
	CORSOrigins     []string      `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"5s"`
	SnowflakeNode   int64         `env:"SNOWFLAKE_NODE" envDefault:"1"`

	Database database.Config
	Auth     AuthConfig
	Log      utilities.LogConfig
}

type AuthConfig struct {
	Secret     string        `env:"JWT_SECRET"`
	Expiry     time.Duration `env:"JWT_EXPIRES_IN" envDefault:"24h"`
	Issuer     string        `env:"JWT_ISSUER" envDefault:"service-crm-go"`
	BcryptCost int           `env:"BCRYPT_COST" envDefault:"12"`
}

// Addr is the listen address for http.Server.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Load parses the environment and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT must be in 1..65535, got %d", c.Port))
	}
	if c.Database.DSN == "" {
		errs = append(errs, errors.New("DATABASE_URL must not be empty"))
	}
	if c.Database.MaxConns <= 0 {
		errs = append(errs, errors.New("DATABASE_MAX_CONNS must be > 0"))
	}
	if len(c.Auth.Secret) < minSecretLen {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d bytes", minSecretLen))
	}
	if c.Auth.Expiry <= 0 {
		errs = append(errs, errors.New("JWT_EXPIRES_IN must be > 0"))
	}
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		errs = append(errs, fmt.Errorf("BCRYPT_COST must be in 4..31, got %d", c.Auth.BcryptCost))
	}
	if c.SnowflakeNode < 0 || c.SnowflakeNode > 1023 {
		errs = append(errs, fmt.Errorf("SNOWFLAKE_NODE must be in 0..1023, got %d", c.SnowflakeNode))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("SHUTDOWN_TIMEOUT must be > 0"))
	}
	return errors.Join(errs...)
}
