package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"wedding-planner-go/internal/models"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverRedis    = "redis"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Port    string
	AppName string

	StoreDriver   string
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	VAPIDPublicKey  string
	VAPIDPrivateKey string
	VAPIDSubject    string

	PushTTL         int
	PushConcurrency int
	PushSendTimeout time.Duration
	// PushTriggerSecret, when set, requires an HMAC signature on /sendPush.
	PushTriggerSecret string

	LogLevel  string
	LogFormat string
}

// Load reads .env (if present) and the process environment.
// The returned bool reports whether a .env file was loaded.
func Load() (Config, bool, error) {
	loadedEnv := godotenv.Load() == nil

	redisDB, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return Config{}, loadedEnv, fmt.Errorf("parse REDIS_DB: %w", err)
	}
	ttl, err := getEnvInt("PUSH_TTL", 30)
	if err != nil {
		return Config{}, loadedEnv, fmt.Errorf("parse PUSH_TTL: %w", err)
	}
	concurrency, err := getEnvInt("PUSH_CONCURRENCY", 1)
	if err != nil {
		return Config{}, loadedEnv, fmt.Errorf("parse PUSH_CONCURRENCY: %w", err)
	}
	timeout, err := getEnvDuration("PUSH_SEND_TIMEOUT", 10*time.Second)
	if err != nil {
		return Config{}, loadedEnv, fmt.Errorf("parse PUSH_SEND_TIMEOUT: %w", err)
	}

	cfg := Config{
		Port:              getEnv("PORT", "8080"),
		AppName:           getEnv("APP_NAME", models.DefaultAppName),
		StoreDriver:       strings.ToLower(getEnv("STORE_DRIVER", StoreDriverPostgres)),
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		RedisAddr:         getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:     getEnv("REDIS_PASSWORD", ""),
		RedisDB:           redisDB,
		VAPIDPublicKey:    getEnv("VAPID_PUBLIC_KEY", ""),
		VAPIDPrivateKey:   getEnv("VAPID_PRIVATE_KEY", ""),
		VAPIDSubject:      getEnv("VAPID_SUBJECT", "mailto:admin@example.com"),
		PushTTL:           ttl,
		PushConcurrency:   concurrency,
		PushSendTimeout:   timeout,
		PushTriggerSecret: getEnv("PUSH_TRIGGER_SECRET", ""),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFormat:         getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return Config{}, loadedEnv, err
	}
	return cfg, loadedEnv, nil
}

// HasVAPIDKeys is false when either key is blank. Deliveries will then fail
// at the push service, not at request validation.
func (c Config) HasVAPIDKeys() bool {
	return c.VAPIDPublicKey != "" && c.VAPIDPrivateKey != ""
}

func (c Config) validate() error {
	switch c.StoreDriver {
	case StoreDriverPostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL environment variable is required")
		}
	case StoreDriverRedis:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.PushTTL < 0 {
		return errors.New("PUSH_TTL must not be negative")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return time.ParseDuration(v)
}
