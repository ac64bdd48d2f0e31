package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config contains all configuration parameters for the signing daemon.
type Config struct {
	Port            string        `envconfig:"PORT" default:"9000"`
	AppName         string        `envconfig:"APP_NAME" default:"YuteBlockchain"`
	KeystoreScryptN int           `envconfig:"KEYSTORE_SCRYPT_N" default:"262144"`
	KeystoreScryptP int           `envconfig:"KEYSTORE_SCRYPT_P" default:"1"`
	RedisURL        string        `envconfig:"REDIS_URL"`
	NonceTTL        time.Duration `envconfig:"NONCE_TTL" default:"10m"`
	SessionSecret   string        `envconfig:"SESSION_SECRET"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"`
}

// Load reads an optional .env file and then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	cfg := &Config{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the services cannot run with.
func (c *Config) Validate() error {
	if c.AppName == "" {
		return errors.New("APP_NAME cannot be empty")
	}
	// scrypt needs N to be a power of two greater than 1
	if c.KeystoreScryptN < 2 || c.KeystoreScryptN&(c.KeystoreScryptN-1) != 0 {
		return fmt.Errorf("KEYSTORE_SCRYPT_N must be a power of two, got %d", c.KeystoreScryptN)
	}
	if c.KeystoreScryptP < 1 {
		return fmt.Errorf("KEYSTORE_SCRYPT_P must be positive, got %d", c.KeystoreScryptP)
	}
	if c.NonceTTL <= 0 {
		return fmt.Errorf("NONCE_TTL must be positive, got %s", c.NonceTTL)
	}
	return nil
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}
