package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const defaultJWTSecret = "change-me"

// Config holds application level configuration loaded from environment variables
// and an optional .env file.
type Config struct {
	ServerPort    string `mapstructure:"SERVER_PORT"`
	Env           string `mapstructure:"ENV"`
	DBDriver      string `mapstructure:"DB_DRIVER"`
	DatabaseDSN   string `mapstructure:"DATABASE_DSN"`
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisDB       int    `mapstructure:"REDIS_DB"`
	RedisPass     string `mapstructure:"REDIS_PASSWORD"`
	JWTSecret     string `mapstructure:"JWT_SECRET"`
	SwaggerHost   string `mapstructure:"SWAGGER_HOST"`
	KafkaBrokers  string `mapstructure:"KAFKA_BROKERS"`
	KafkaTopic    string `mapstructure:"KAFKA_TOPIC"`
	RabbitMQURL   string `mapstructure:"RABBITMQ_URL"`
	ArchiveBucket string `mapstructure:"ARCHIVE_BUCKET"`
	ArchiveQueue  string `mapstructure:"ARCHIVE_QUEUE"`
}

var keys = []string{
	"SERVER_PORT", "ENV", "DB_DRIVER", "DATABASE_DSN",
	"REDIS_ADDR", "REDIS_DB", "REDIS_PASSWORD",
	"JWT_SECRET", "SWAGGER_HOST",
	"KAFKA_BROKERS", "KAFKA_TOPIC",
	"RABBITMQ_URL",
	"ARCHIVE_BUCKET", "ARCHIVE_QUEUE",
}

// Load builds Config from environment with sensible defaults.
func Load() (*Config, error) {
	return load(".env")
}

func load(envFile string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(envFile)
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_DRIVER", "sqlite")
	v.SetDefault("DATABASE_DSN", "file:medisync.db?_pragma=foreign_keys(1)")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("JWT_SECRET", defaultJWTSecret)
	v.SetDefault("KAFKA_TOPIC", "medisync.changes")
	v.SetDefault("ARCHIVE_QUEUE", "medisync-discharges")

	// Unmarshal only sees env vars that are bound explicitly.
	for _, key := range keys {
		_ = v.BindEnv(key)
	}

	// A missing .env file is fine.
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.DBDriver = strings.ToLower(cfg.DBDriver)
	return cfg, nil
}

// IsDev reports whether the server runs in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Brokers splits KAFKA_BROKERS into addresses. Empty means the kafka feed is off.
func (c *Config) Brokers() []string {
	var brokers []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// Validate checks that the configuration is safe to run.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "mysql", "postgres", "sqlite", "memory":
	default:
		return fmt.Errorf("DB_DRIVER must be one of mysql, postgres, sqlite, memory; got %q", c.DBDriver)
	}
	if c.DBDriver != "memory" && c.DatabaseDSN == "" {
		return fmt.Errorf("DATABASE_DSN is required for DB_DRIVER=%s", c.DBDriver)
	}
	if c.IsProduction() && (c.JWTSecret == "" || c.JWTSecret == defaultJWTSecret) {
		return fmt.Errorf("JWT_SECRET must be set to a non-default value in production")
	}
	return nil
}
