package config

import (
	"fmt"
	"os"
	"strings"
)

// Config aggregates every tunable part of the harness.
type Config struct {
	App    AppConfig
	DB     DBConfig
	Rabbit RabbitConfig
	Log    LogConfig
}

// AppConfig contains settings related to the HTTP server.
type AppConfig struct {
	Port string
	Env  string
}

// DBConfig represents the BRT PostgreSQL connection settings.
type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// DSN builds the postgres connection string from the individual fields.
func (db DBConfig) DSN() string {
	host := db.Host
	if host == "" {
		host = "localhost"
	}

	port := db.Port
	if port == "" {
		port = "5432"
	}

	sslMode := db.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		db.User,
		db.Password,
		host,
		port,
		db.Name,
		sslMode,
	)
}

// RabbitConfig represents the RabbitMQ broker settings.
type RabbitConfig struct {
	Host     string
	Port     string
	User     string
	Password string
}

// URL builds the amqp connection string from the individual fields.
func (r RabbitConfig) URL() string {
	host := r.Host
	if host == "" {
		host = "localhost"
	}

	port := r.Port
	if port == "" {
		port = "5672"
	}

	return fmt.Sprintf("amqp://%s:%s@%s:%s/", r.User, r.Password, host, port)
}

// LogConfig controls logger behavior.
type LogConfig struct {
	Level string
}

// Load reads environment variables and validates the final configuration.
func Load() (Config, error) {
	cfg := Config{
		App: AppConfig{
			Port: getEnv("APP_PORT", "8080"),
			Env:  getEnv("APP_ENV", "dev"),
		},
		DB: DBConfig{
			Host:     getEnv("BRT_DB_HOST", "localhost"),
			Port:     getEnv("BRT_DB_PORT", "5432"),
			User:     getEnv("BRT_DB_USER", ""),
			Password: getEnv("BRT_DB_PASS", ""),
			Name:     getEnv("BRT_DB_NAME", ""),
			SSLMode:  getEnv("BRT_DB_SSLMODE", "disable"),
		},
		Rabbit: RabbitConfig{
			Host:     getEnv("RABBITMQ_HOST", "localhost"),
			Port:     getEnv("RABBITMQ_PORT", "5672"),
			User:     getEnv("RABBITMQ_USER", ""),
			Password: getEnv("RABBITMQ_PASS", ""),
		},
		Log: LogConfig{
			Level: strings.ToLower(getEnv("LOG_LEVEL", "info")),
		},
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (cfg Config) validate() error {
	var missing []string

	if cfg.DB.User == "" {
		missing = append(missing, "BRT_DB_USER")
	}
	if cfg.DB.Password == "" {
		missing = append(missing, "BRT_DB_PASS")
	}
	if cfg.DB.Name == "" {
		missing = append(missing, "BRT_DB_NAME")
	}
	if cfg.Rabbit.User == "" {
		missing = append(missing, "RABBITMQ_USER")
	}
	if cfg.Rabbit.Password == "" {
		missing = append(missing, "RABBITMQ_PASS")
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	return nil
}

func getEnv(key, fallback string) string {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	return value
}
