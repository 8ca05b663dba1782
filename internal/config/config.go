package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/peterbiondo/solar-calculator-proxy/internal/domain"
)

// Token cache backends.
const (
	TokenCacheMemory = "memory"
	TokenCacheRedis  = "redis"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Logger   LoggerConfig
	CRM      CRMConfig
	Cache    CacheConfig
	Redis    RedisConfig
	Upstream UpstreamConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name    string
	Env     string
	Host    string
	Port    string
	Version string
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// CRMConfig holds the OAuth client credentials, the site the contacts belong
// to, and the externally-assigned id for each allowed tag name.
type CRMConfig struct {
	ClientID     string
	ClientSecret string
	SiteID       string
	TagIDs       map[string]string
}

// CacheConfig selects the token cache backend.
type CacheConfig struct {
	Backend string
}

// UpstreamConfig bounds outbound HTTP calls.
type UpstreamConfig struct {
	TimeoutSeconds int
}

// RedisConfig holds Redis connection values for the shared token cache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	backend := getEnv("TOKEN_CACHE", TokenCacheMemory)
	if backend != TokenCacheMemory && backend != TokenCacheRedis {
		return nil, fmt.Errorf("invalid TOKEN_CACHE: %q", backend)
	}

	cfg := &Config{
		App: AppConfig{
			Name:    getEnv("APP_NAME", "solar-calculator-proxy"),
			Env:     getEnv("APP_ENV", "development"),
			Host:    getEnv("APP_HOST", "0.0.0.0"),
			Port:    getEnv("APP_PORT", "8080"),
			Version: getEnv("APP_VERSION", "dev"),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		CRM: CRMConfig{
			ClientID:     os.Getenv("CRM_CLIENT_ID"),
			ClientSecret: os.Getenv("CRM_CLIENT_SECRET"),
			SiteID:       os.Getenv("CRM_SITE_ID"),
			TagIDs: map[string]string{
				domain.TagContractor: os.Getenv("TAG_ID_CONTRACTOR"),
				domain.TagDIY:        os.Getenv("TAG_ID_DIY"),
				domain.TagWaitlist:   os.Getenv("TAG_ID_WAITLIST"),
			},
		},
		Cache: CacheConfig{
			Backend: backend,
		},
		Upstream: UpstreamConfig{
			TimeoutSeconds: getEnvAsInt("UPSTREAM_TIMEOUT_SECONDS", 10),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// Timeout returns the per-call deadline for the CRM and the automation endpoint.
func (u UpstreamConfig) Timeout() time.Duration {
	if u.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(u.TimeoutSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}
