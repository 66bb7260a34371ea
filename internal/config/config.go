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

// Session backends.
const (
	SessionBackendRedis  = "redis"
	SessionBackendMemory = "memory"
)

// Config holds all service configuration loaded from environment variables.
type Config struct {
	Port string
	Env  string

	PostgresDSN string
	DBMigrate   bool

	SessionBackend      string
	SessionTTL          time.Duration
	SessionCookieSecure bool
	SessionMemorySize   int
	RedisAddr           string
	RedisPassword       string
	RedisDB             int

	CORSOrigin string

	PasswordScheme         string
	PasswordAllowLegacyMD5 bool

	// Avatar storage is disabled when MinioEndpoint is empty.
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	// Activity logging is disabled when MongoURI is empty.
	MongoURI string
	MongoDB  string
}

// Load reads the configuration from the environment. A .env file in the
// working directory is applied first if present; real environment
// variables win over it.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:                   getenv("PORT", "8080"),
		Env:                    getenv("APP_ENV", "development"),
		PostgresDSN:            getenv("POSTGRES_DSN", ""),
		DBMigrate:              getbool("DB_MIGRATE", false),
		SessionBackend:         strings.ToLower(getenv("SESSION_BACKEND", SessionBackendRedis)),
		SessionTTL:             getduration("SESSION_TTL", 24*time.Hour),
		SessionCookieSecure:    getbool("SESSION_COOKIE_SECURE", false),
		SessionMemorySize:      getint("SESSION_MEMORY_SIZE", 10000),
		RedisAddr:              getenv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:          getenv("REDIS_PASSWORD", ""),
		RedisDB:                getint("REDIS_DB", 0),
		CORSOrigin:             getenv("CORS_ORIGIN", "http://localhost:3000"),
		PasswordScheme:         strings.ToLower(getenv("PASSWORD_SCHEME", "argon2id")),
		PasswordAllowLegacyMD5: getbool("PASSWORD_ALLOW_LEGACY_MD5", false),
		MinioEndpoint:          getenv("MINIO_ENDPOINT", ""),
		MinioAccessKey:         getenv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey:         getenv("MINIO_SECRET_KEY", ""),
		MinioBucket:            getenv("MINIO_BUCKET", "community-avatars"),
		MinioUseSSL:            getbool("MINIO_USE_SSL", false),
		MongoURI:               getenv("MONGO_URI", ""),
		MongoDB:                getenv("MONGO_DB", "community"),
	}
}

// IsProd reports whether the service runs in production mode.
func (c *Config) IsProd() bool {
	return strings.HasPrefix(strings.ToLower(c.Env), "prod")
}

// Validate checks that the required settings are present and consistent.
func (c *Config) Validate() error {
	var errs []error
	if c.PostgresDSN == "" {
		errs = append(errs, errors.New("POSTGRES_DSN is required"))
	}
	switch c.SessionBackend {
	case SessionBackendRedis:
		if c.RedisAddr == "" {
			errs = append(errs, errors.New("REDIS_ADDR is required for the redis session backend"))
		}
	case SessionBackendMemory:
		if c.SessionMemorySize <= 0 {
			errs = append(errs, errors.New("SESSION_MEMORY_SIZE must be positive"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown SESSION_BACKEND %q", c.SessionBackend))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}
	return errors.Join(errs...)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getbool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(getenv(key, strconv.FormatBool(fallback)))
	if err != nil {
		return fallback
	}
	return v
}

func getint(key string, fallback int) int {
	v, err := strconv.Atoi(getenv(key, strconv.Itoa(fallback)))
	if err != nil {
		return fallback
	}
	return v
}

func getduration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(getenv(key, fallback.String()))
	if err != nil {
		return fallback
	}
	return v
}
