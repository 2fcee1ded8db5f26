// Package config holds the runtime configuration and the fixed enumerations of the bot.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration of the bot process.
type Config struct {
	// Telegram
	BotToken      string
	AdminID       int64
	ChannelID     int64
	AdminUsername string
	Lang          string

	DescriptionMax int

	// HTTP surface
	HTTPAddr    string
	JWTSecret   string
	AdminAPIKey string

	// Archive (disabled when DBHost is empty)
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Feed relay (disabled when RedisAddr is empty)
	RedisAddr     string
	RedisPassword string

	// Logging
	LogLevel string
	LogFile  string

	ActorIdleTimeout time.Duration
}

// Load reads .env (if present) and the environment.
func Load() (*Config, error) {
	cfg := read()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadArchive reads the configuration for tools that only need the archive.
func LoadArchive() (*Config, error) {
	cfg := read()
	if !cfg.ArchiveEnabled() {
		return nil, errors.New("DB_HOST is not set")
	}
	return cfg, nil
}

func read() *Config {
	// .env є необов'язковим, у продакшені змінні приходять з оточення
	_ = godotenv.Load()

	return &Config{
		BotToken:         getEnv("TELEGRAM_BOT_TOKEN", ""),
		AdminID:          getInt64Env("ADMIN_ID", 0),
		ChannelID:        getInt64Env("CHANNEL_ID", 0),
		AdminUsername:    getEnv("ADMIN_USERNAME", ""),
		Lang:             getEnv("BOT_LANG", "ru"),
		DescriptionMax:   getIntEnv("DESCRIPTION_MAX", MaxDescriptionLength),
		HTTPAddr:         getEnv("HTTP_ADDR", ":8080"),
		JWTSecret:        getEnv("JWT_SECRET", ""),
		AdminAPIKey:      getEnv("ADMIN_API_KEY", ""),
		DBHost:           getEnv("DB_HOST", ""),
		DBPort:           getEnv("DB_PORT", "5432"),
		DBUser:           getEnv("DB_USER", "user"),
		DBPassword:       getEnv("DB_PASSWORD", ""),
		DBName:           getEnv("DB_NAME", "complaints"),
		RedisAddr:        getEnv("REDIS_ADDR", ""),
		RedisPassword:    getEnv("REDIS_PASSWORD", ""),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogFile:          getEnv("LOG_FILE", "bot.log"),
		ActorIdleTimeout: getDurationEnv("ACTOR_IDLE_TIMEOUT", 10*time.Minute),
	}
}

func (c *Config) validate() error {
	var errs []error
	if c.BotToken == "" {
		errs = append(errs, errors.New("TELEGRAM_BOT_TOKEN is not set"))
	}
	if c.AdminID == 0 {
		errs = append(errs, errors.New("ADMIN_ID is not set"))
	}
	if c.ChannelID == 0 {
		errs = append(errs, errors.New("CHANNEL_ID is not set"))
	}
	if c.DescriptionMax < MinDescriptionLength {
		errs = append(errs, fmt.Errorf("DESCRIPTION_MAX must be at least %d", MinDescriptionLength))
	}
	return errors.Join(errs...)
}

// DSN builds the Postgres connection string for the archive.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort)
}

// ArchiveEnabled reports whether a Postgres archive is configured.
func (c *Config) ArchiveEnabled() bool { return c.DBHost != "" }

// RelayEnabled reports whether the Redis feed relay is configured.
func (c *Config) RelayEnabled() bool { return c.RedisAddr != "" }

// ObjectionURL is the link published under every approved complaint.
func (c *Config) ObjectionURL() string {
	if c.AdminUsername == "" {
		return ""
	}
	return "https://t.me/" + c.AdminUsername
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnv gets an integer environment variable or returns a default value
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getInt64Env(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getDurationEnv gets a duration environment variable or returns a default value
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
