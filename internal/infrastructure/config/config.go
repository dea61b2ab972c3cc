package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Snapshot source kinds selectable via SNAPSHOT_SOURCE.
const (
	SourceHTTP     = "http"
	SourcePostgres = "postgres"
)

// Config represents the application configuration
type Config struct {
	Source    string // which snapshot source to use: "http" or "postgres"
	Authority AuthorityConfig
	Database  DatabaseConfig
	Refresh   RefreshConfig
	Metrics   MetricsConfig
}

// AuthorityConfig represents the remote policy authority endpoint
type AuthorityConfig struct {
	BaseURL        string
	Token          string // bearer token, empty means no Authorization header
	TimeoutSeconds int
}

// RefreshConfig represents the periodic graph refresh behavior
type RefreshConfig struct {
	TTLSeconds int
	Channel    string // Postgres NOTIFY channel for instant refresh
}

// MetricsConfig represents the Prometheus metrics endpoint
type MetricsConfig struct {
	Port int
}

// DatabaseConfig represents database configuration for the postgres source
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// findProjectRoot finds the project root directory by looking for go.mod
func findProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	// Walk up the directory tree until we find go.mod
	for {
		goModPath := filepath.Join(dir, "go.mod")
		if _, err := os.Stat(goModPath); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached the root directory
			return "", fmt.Errorf("go.mod not found in any parent directory")
		}
		dir = parent
	}
}

// InitConfig initializes viper configuration
// env: environment name (dev, test, prod)
func InitConfig(env string) error {
	if env == "" {
		env = "dev"
	}

	// Find project root
	projectRoot, err := findProjectRoot()
	if err != nil {
		return fmt.Errorf("failed to find project root: %w", err)
	}

	// Set config file name based on environment
	viper.SetConfigName(fmt.Sprintf(".env.%s", env))
	viper.SetConfigType("env")
	viper.AddConfigPath(projectRoot) // Project root

	// Read config file (optional, ignore error if not found)
	_ = viper.ReadInConfig()

	// Environment variables take precedence over config file
	viper.AutomaticEnv()

	// Set default values
	viper.SetDefault("SNAPSHOT_SOURCE", SourceHTTP)
	viper.SetDefault("AUTHORITY_URL", "http://localhost:8080")
	viper.SetDefault("AUTHORITY_TIMEOUT_SECONDS", 30)
	viper.SetDefault("REFRESH_TTL_SECONDS", 300)
	viper.SetDefault("REFRESH_CHANNEL", "rbac_changed")
	viper.SetDefault("METRICS_PORT", 9090)
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", 15432)
	viper.SetDefault("DB_USER", "authgraph")
	viper.SetDefault("DB_NAME", "authgraph_dev")
	viper.SetDefault("DB_SSLMODE", "disable")

	return nil
}

// Load loads configuration from viper
func Load() (*Config, error) {
	source := viper.GetString("SNAPSHOT_SOURCE")
	if source != SourceHTTP && source != SourcePostgres {
		return nil, fmt.Errorf("SNAPSHOT_SOURCE must be %q or %q, got %q", SourceHTTP, SourcePostgres, source)
	}

	// DB_PASSWORD is required only when the postgres source is selected
	dbPassword := viper.GetString("DB_PASSWORD")
	if source == SourcePostgres && dbPassword == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required for the postgres source (set via environment variable or .env file)")
	}

	config := &Config{
		Source: source,
		Authority: AuthorityConfig{
			BaseURL:        viper.GetString("AUTHORITY_URL"),
			Token:          viper.GetString("AUTHORITY_TOKEN"),
			TimeoutSeconds: viper.GetInt("AUTHORITY_TIMEOUT_SECONDS"),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetInt("DB_PORT"),
			User:     viper.GetString("DB_USER"),
			Password: dbPassword,
			Database: viper.GetString("DB_NAME"),
			SSLMode:  viper.GetString("DB_SSLMODE"),
		},
		Refresh: RefreshConfig{
			TTLSeconds: viper.GetInt("REFRESH_TTL_SECONDS"),
			Channel:    viper.GetString("REFRESH_CHANNEL"),
		},
		Metrics: MetricsConfig{
			Port: viper.GetInt("METRICS_PORT"),
		},
	}

	return config, nil
}

// ConnectionString returns PostgreSQL connection string
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host,
		c.Port,
		c.User,
		c.Password,
		c.Database,
		c.SSLMode,
	)
}
