package config

import (
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/nfrund/topichub/internal/pubsub"
)

// Backend selects the group-membership implementation.
type Backend string

const (
	BackendMemory     Backend = "memory"     // single node, in process
	BackendRedis      Backend = "redis"      // shared Redis instance
	BackendReplicated Backend = "replicated" // replicated over the message bus
)

// Config holds all configuration for the application.
type Config struct {
	Namespace string  `env:"TOPICHUB_NAMESPACE" envDefault:"topichub" validate:"required,excludes=:"`
	Backend   Backend `env:"TOPICHUB_BACKEND" envDefault:"memory" validate:"oneof=memory redis replicated"`
	NodeID    string  `env:"TOPICHUB_NODE_ID"`

	RedisURL           string        `env:"TOPICHUB_REDIS_URL" envDefault:"redis://localhost:6379/0" validate:"required_if=Backend redis"`
	RedisRetryAttempts int           `env:"TOPICHUB_REDIS_RETRY_ATTEMPTS" envDefault:"3" validate:"min=1"`
	RedisRetryInterval time.Duration `env:"TOPICHUB_REDIS_RETRY_INTERVAL" envDefault:"2s"`

	CallTimeout time.Duration `env:"TOPICHUB_CALL_TIMEOUT" envDefault:"5s" validate:"gt=0"`
	MailboxSize int           `env:"TOPICHUB_MAILBOX_SIZE" envDefault:"256" validate:"min=1"`
	HTTPAddr    string        `env:"TOPICHUB_HTTP_ADDR" envDefault:":8080" validate:"required"`

	LogFormat string `env:"LOG_FORMAT" envDefault:"text" validate:"oneof=text json"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`

	Tracing pubsub.TracingConfig
}

// Load reads an optional .env file and then parses the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		// slog is not configured yet; the standard logger is fine for this one line.
		log.Println("No .env file found, relying on environment variables")
	}
	return Parse()
}

// Parse builds a Config from the current environment and validates it.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.NodeID == "" {
		cfg.NodeID = uuid.NewString()
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
