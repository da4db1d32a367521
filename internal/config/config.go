package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreDriverSQLite = "sqlite"
	StoreDriverMongo  = "mongo"
)

// AppConfig 汇总运行服务所需的基础配置。
type AppConfig struct {
	ListenAddr      string
	Port            string
	DatabasePath    string
	StoreDriver     string
	MongoURI        string
	MongoDatabase   string
	RedisURL        string
	SnapshotTTL     time.Duration
	SessionSecret   string
	CookieSecure    bool
	JWTSecret       string
	JWTTTL          time.Duration
	GinMode         string
	LogLevel        string
	LogFile         string
	DefaultLanguage string
	Timezone        string
}

// Load reads the configuration from the environment after loading an optional
// .env file, filling defaults for anything missing.
func Load() AppConfig {
	_ = godotenv.Load()

	port := envOr("PORT", "8080")

	listenAddr := strings.TrimSpace(os.Getenv("LISTEN_ADDR"))
	if listenAddr == "" {
		listenAddr = fmt.Sprintf(":%s", port)
	}

	sessionSecret := envOr("SESSION_SECRET", "taskify-dev-secret")

	return AppConfig{
		ListenAddr:      listenAddr,
		Port:            port,
		DatabasePath:    envOr("DATABASE_PATH", "taskify.db"),
		StoreDriver:     strings.ToLower(envOr("STORE_DRIVER", StoreDriverSQLite)),
		MongoURI:        strings.TrimSpace(os.Getenv("MONGO_URI")),
		MongoDatabase:   envOr("MONGO_DB", "taskify"),
		RedisURL:        strings.TrimSpace(os.Getenv("REDIS_URL")),
		SnapshotTTL:     envDuration("SNAPSHOT_TTL", 24*time.Hour),
		SessionSecret:   sessionSecret,
		CookieSecure:    envBool("COOKIE_SECURE", false),
		JWTSecret:       envOr("JWT_SECRET", sessionSecret),
		JWTTTL:          envDuration("JWT_TTL", 24*time.Hour),
		GinMode:         envOr("GIN_MODE", "release"),
		LogLevel:        envOr("LOG_LEVEL", "INFO"),
		LogFile:         strings.TrimSpace(os.Getenv("LOG_FILE")),
		DefaultLanguage: envOr("DEFAULT_LANGUAGE", "pt"),
		Timezone:        envOr("TIMEZONE", "Local"),
	}
}

// Validate 检查相互依赖的配置项。
func (c AppConfig) Validate() error {
	switch c.StoreDriver {
	case StoreDriverSQLite:
	case StoreDriverMongo:
		if c.MongoURI == "" {
			return errors.New("MONGO_URI is required when STORE_DRIVER=mongo")
		}
	default:
		return fmt.Errorf("unsupported STORE_DRIVER %q", c.StoreDriver)
	}

	if _, err := c.Location(); err != nil {
		return fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	return nil
}

// Location resolves Timezone; "Local" and empty map to time.Local.
func (c AppConfig) Location() (*time.Location, error) {
	name := strings.TrimSpace(c.Timezone)
	if name == "" || strings.EqualFold(name, "local") {
		return time.Local, nil
	}
	return time.LoadLocation(name)
}

func envOr(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func envBool(key string, fallback bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
