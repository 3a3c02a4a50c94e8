package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds the process configuration loaded from environment variables.
type Config struct {
	HTTPAddr       string `envconfig:"HTTP_ADDR" default:":8080"`
	MaxUploadBytes int64  `envconfig:"MAX_UPLOAD_BYTES" default:"10485760"`
	// MaxPayloadBytes bounds the analysis posted back for save and export.
	MaxPayloadBytes int64 `envconfig:"MAX_PAYLOAD_BYTES" default:"83886080"`

	StoreDriver         string `envconfig:"STORE_DRIVER" default:"sqlite"`
	SQLitePath          string `envconfig:"SQLITE_PATH" default:"./data/reports.db"`
	StoreConnectRetries int    `envconfig:"STORE_CONNECT_RETRIES" default:"3"`
	StoreRawData        bool   `envconfig:"STORE_RAW_DATA" default:"true"`

	PostgresHost     string `envconfig:"POSTGRES_HOST" default:"localhost"`
	PostgresPort     string `envconfig:"POSTGRES_PORT" default:"5432"`
	PostgresUser     string `envconfig:"POSTGRES_USER" default:"trainer"`
	PostgresPassword string `envconfig:"POSTGRES_PASSWORD" default:"trainer123"`
	PostgresDB       string `envconfig:"POSTGRES_DB" default:"training_db"`
	PostgresSSLMode  string `envconfig:"POSTGRES_SSLMODE" default:"disable"`

	ChromeBin      string        `envconfig:"CHROME_BIN"`
	PDFConcurrency int           `envconfig:"PDF_CONCURRENCY" default:"2"`
	PDFTimeout     time.Duration `envconfig:"PDF_TIMEOUT" default:"30s"`

	LogLevel           string `envconfig:"LOG_LEVEL" default:"info"`
	AnalysisConfigPath string `envconfig:"ANALYSIS_CONFIG"`
	Timezone           string `envconfig:"TIMEZONE" default:"Local"`
}

// Load reads the .env file, then the environment, and returns a populated Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("config: read environment: %w", err)
	}

	switch cfg.StoreDriver {
	case "sqlite", "postgres":
	default:
		return nil, fmt.Errorf("config: STORE_DRIVER must be sqlite or postgres, got %q", cfg.StoreDriver)
	}
	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return nil, fmt.Errorf("config: TIMEZONE: %w", err)
	}

	return &cfg, nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

// Location returns the zone used to group saved records by date.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}
