// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"log"
	"time"

	env "github.com/caarlos0/env/v6"
	validator "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds all runtime configuration for the service.
type Config struct {
	Port     string `env:"PORT" envDefault:"8080"`
	AppEnv   string `env:"APP_ENV" envDefault:"development"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`

	JWTSecret string        `env:"JWT_SECRET" envDefault:"change_me_in_production"`
	TokenTTL  time.Duration `env:"TOKEN_TTL" envDefault:"24h"`

	// Storage backend: "local" keeps bytes on disk with a retention window,
	// "remote" uses an S3-compatible bucket (MinIO locally, any S3 provider
	// in production).
	StorageBackend string        `env:"STORAGE_BACKEND" envDefault:"local" validate:"oneof=local remote"`
	LocalDir       string        `env:"LOCAL_STORAGE_DIR" envDefault:"/tmp/quickscan_uploads"`
	LocalMaxAge    time.Duration `env:"LOCAL_MAX_AGE" envDefault:"24h"`
	SweepInterval  time.Duration `env:"SWEEP_INTERVAL" envDefault:"1h"`

	StorageEndpoint  string        `env:"STORAGE_ENDPOINT" envDefault:"localhost:9000"`
	StorageAccessKey string        `env:"STORAGE_ACCESS_KEY" envDefault:"minioadmin"`
	StorageSecretKey string        `env:"STORAGE_SECRET_KEY" envDefault:"minioadmin"`
	StorageBucket    string        `env:"STORAGE_BUCKET" envDefault:"uploads"`
	StorageUseSSL    bool          `env:"STORAGE_USE_SSL" envDefault:"false"`
	StorageTimeout   time.Duration `env:"STORAGE_TIMEOUT" envDefault:"15s"`
	SignedURLTTL     time.Duration `env:"SIGNED_URL_TTL" envDefault:"1h"`

	MaxUploadSize int64 `env:"MAX_UPLOAD_SIZE" envDefault:"10485760"` // 10 MiB

	OpenAIAPIKey  string        `env:"OPENAI_API_KEY"`
	OpenAIBaseURL string        `env:"OPENAI_BASE_URL" envDefault:"https://api.openai.com"`
	OpenAIModel   string        `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	OpenAITimeout time.Duration `env:"OPENAI_TIMEOUT" envDefault:"30s"`
}

// Load reads configuration from a .env file (if present) and environment
// variables, then validates it.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, reading from environment")
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// IsProduction returns true when the app is running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}
