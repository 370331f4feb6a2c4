// Package config loads service configuration from an optional .env file and
// WORKNEST_-prefixed environment variables into a typed struct.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/worknest/worknest/internal/database"
	"github.com/worknest/worknest/internal/storage"
)

// EnvPrefix is the environment variable prefix, e.g. WORKNEST_DB_HOST.
const EnvPrefix = "WORKNEST_"

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Port       int    `mapstructure:"port"`
	CORSOrigin string `mapstructure:"corsorigin"`
}

// CacheConfig holds the listing cache settings.
type CacheConfig struct {
	TTLSeconds int `mapstructure:"ttlseconds"`
}

// Config is the full service configuration.
type Config struct {
	Server  ServerConfig    `mapstructure:"server"`
	DB      database.Config `mapstructure:"db"`
	Storage storage.Config  `mapstructure:"storage"`
	Cache   CacheConfig     `mapstructure:"cache"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		Server: ServerConfig{Port: 3001, CORSOrigin: "http://localhost:5173"},
		DB: database.Config{
			Host:           "localhost",
			Port:           5432,
			User:           "worknest",
			Name:           "worknest",
			MigrationsPath: "migrations",
		},
		Cache: CacheConfig{TTLSeconds: 30},
	}
}

// Load populates cfg from .env and prefixed environment variables.
func Load(cfg *Config) error {
	v := viper.New()

	v.SetConfigFile(".env")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			if !os.IsNotExist(err) {
				return fmt.Errorf("read .env: %w", err)
			}
		}
	}

	// Viper's AutomaticEnv does not feed Unmarshal for keys it has never
	// seen, so env vars are set explicitly: WORKNEST_DB_HOST -> db.host.
	for _, envStr := range os.Environ() {
		pair := strings.SplitN(envStr, "=", 2)
		key, value := pair[0], pair[1]
		if !strings.HasPrefix(key, EnvPrefix) {
			continue
		}
		propKey := strings.TrimPrefix(key, EnvPrefix)
		propKey = strings.ToLower(strings.ReplaceAll(propKey, "_", "."))
		v.Set(propKey, value)
	}

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}
	return nil
}
