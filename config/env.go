package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Env carries secrets and deployment overrides from SVCADMIN_* variables.
type Env struct {
	JWTSecret      string `env:"SVCADMIN_JWT_SECRET"`
	JWTIssuer      string `env:"SVCADMIN_JWT_ISSUER"`
	JWTAudience    string `env:"SVCADMIN_JWT_AUDIENCE" envDefault:"svcadmin"`
	DatabaseDriver string `env:"SVCADMIN_DB_DRIVER"`
	DatabaseDSN    string `env:"SVCADMIN_DB_DSN"`
	ListenAddr     string `env:"SVCADMIN_LISTEN_ADDR"`
	LogLevel       string `env:"SVCADMIN_LOG_LEVEL" envDefault:"info"`
	BrowserBin     string `env:"SVCADMIN_BROWSER_BIN"`
}

// ParseEnv loads Env from the process environment.
func ParseEnv() (Env, error) {
	var e Env
	if err := env.Parse(&e); err != nil {
		return Env{}, fmt.Errorf("parse env: %w", err)
	}
	return e, nil
}

func (e Env) apply(c *Config) {
	if e.DatabaseDriver != "" {
		c.DatabaseDriver = e.DatabaseDriver
	}
	if e.DatabaseDSN != "" {
		c.DatabaseDSN = e.DatabaseDSN
	}
	if e.ListenAddr != "" {
		c.ListenAddr = e.ListenAddr
	}
	c.Env = e
}
