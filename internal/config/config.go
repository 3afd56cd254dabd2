package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	envPrefix                  = "GEARBOOK"
	defaultHTTPAddress         = "0.0.0.0:8080"
	defaultDatabaseDriver      = DriverSQLite
	defaultDatabasePath        = "gear_data.db"
	defaultDocumentPath        = "gear_data.json"
	defaultProofsDir           = "proofs"
	defaultFetchTimeoutSeconds = 15
	defaultLogLevel            = "info"
)

// Supported persistence drivers for the gear record store.
const (
	DriverSQLite   = "sqlite"
	DriverDocument = "document"
)

// AppConfig captures runtime configuration for the API server.
type AppConfig struct {
	HTTPAddress       string
	DatabaseDriver    string
	DatabasePath      string
	ProofsDir         string
	ProofFetchTimeout time.Duration
	LogLevel          string
}

// NewViper returns a viper instance with defaults and env bindings configured.
func NewViper() *viper.Viper {
	configViper := viper.New()
	ApplyDefaults(configViper)
	return configViper
}

// ApplyDefaults configures defaults and env bindings on the provided viper instance.
func ApplyDefaults(configViper *viper.Viper) {
	configViper.SetEnvPrefix(envPrefix)
	configViper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	configViper.AutomaticEnv()

	configViper.SetDefault("http.address", defaultHTTPAddress)
	configViper.SetDefault("database.driver", defaultDatabaseDriver)
	configViper.SetDefault("database.path", "")
	configViper.SetDefault("proofs.dir", defaultProofsDir)
	configViper.SetDefault("proofs.fetch_timeout_seconds", defaultFetchTimeoutSeconds)
	configViper.SetDefault("log.level", defaultLogLevel)
}

// Load parses runtime configuration from viper.
func Load(configViper *viper.Viper) (AppConfig, error) {
	cfg := AppConfig{
		HTTPAddress:       configViper.GetString("http.address"),
		DatabaseDriver:    strings.ToLower(strings.TrimSpace(configViper.GetString("database.driver"))),
		DatabasePath:      configViper.GetString("database.path"),
		ProofsDir:         configViper.GetString("proofs.dir"),
		ProofFetchTimeout: time.Duration(configViper.GetInt("proofs.fetch_timeout_seconds")) * time.Second,
		LogLevel:          configViper.GetString("log.level"),
	}

	if cfg.DatabasePath == "" {
		switch cfg.DatabaseDriver {
		case DriverDocument:
			cfg.DatabasePath = defaultDocumentPath
		default:
			cfg.DatabasePath = defaultDatabasePath
		}
	}

	if err := cfg.validate(); err != nil {
		return AppConfig{}, err
	}

	return cfg, nil
}

func (c AppConfig) validate() error {
	if c.DatabaseDriver != DriverSQLite && c.DatabaseDriver != DriverDocument {
		return fmt.Errorf("database.driver must be %q or %q, got %q", DriverSQLite, DriverDocument, c.DatabaseDriver)
	}
	if strings.TrimSpace(c.DatabasePath) == "" {
		return fmt.Errorf("database.path is required")
	}
	if strings.TrimSpace(c.ProofsDir) == "" {
		return fmt.Errorf("proofs.dir is required")
	}
	if c.ProofFetchTimeout <= 0 {
		return fmt.Errorf("proofs.fetch_timeout_seconds must be positive")
	}
	return nil
}
