package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	ServerPort      int           `env:"PORT" env-default:"8080"`
	DatabaseURL     string        `env:"DATABASE_URL" env-default:"./kanban.db"`
	JWTSecret       string        `env:"JWT_SECRET" env-required:"true"`
	TokenTTL        time.Duration `env:"JWT_TTL" env-default:"24h"`
	BcryptCost      int           `env:"BCRYPT_COST" env-default:"10"`
	CORSOrigins     []string      `env:"CORS_ORIGINS" env-default:"*" env-separator:","`
	LogLevel        string        `env:"LOG_LEVEL" env-default:"info"`
	AppEnv          string        `env:"APP_ENV" env-default:"development"`
	MaintenanceCron string        `env:"MAINTENANCE_CRON" env-default:"@daily"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}
	if strings.TrimSpace(cfg.JWTSecret) == "" {
		return nil, fmt.Errorf("JWT_SECRET must not be empty")
	}
	if cfg.ServerPort <= 0 || cfg.ServerPort > 65535 {
		return nil, fmt.Errorf("invalid PORT %d", cfg.ServerPort)
	}
	if cfg.TokenTTL <= 0 {
		return nil, fmt.Errorf("JWT_TTL must be positive, got %s", cfg.TokenTTL)
	}
	for i, origin := range cfg.CORSOrigins {
		cfg.CORSOrigins[i] = strings.TrimSpace(origin)
	}
	return &cfg, nil
}

// IsProduction reports whether APP_ENV selects production behaviour.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// MaintenanceEnabled reports whether the maintenance job should be scheduled.
func (c *Config) MaintenanceEnabled() bool {
	spec := strings.TrimSpace(c.MaintenanceCron)
	return spec != "" && spec != "off"
}
