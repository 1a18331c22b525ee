package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	apperrors "sjsage522/bestpick/pkg/errors"
)

// Page sources understood by the trigger
const (
	SourceHTTP     = "http"
	SourceFile     = "file"
	SourceRod      = "rod"
	SourceChromedp = "chromedp"
)

// Config represents the application configuration
type Config struct {
	// Presenter configuration
	HTTPAddr       string
	AllowedOrigins []string
	RateLimitRPS   float64
	RateLimitBurst int

	// Page source configuration
	PageSource   string
	FetchTimeout time.Duration
	BlockTime    time.Duration

	// Memcache configuration, empty address disables the rate limit cache
	MemcacheAddr string

	// Redis configuration, empty address disables the stream transport
	RedisAddr            string
	RedisDB              int
	RedisStream          string
	RedisStreamMaxLength int

	// Environment
	Environment string
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() *Config {
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	streamMaxLength, _ := strconv.Atoi(getEnv("REDIS_STREAM_MAX_LENGTH", "100"))
	fetchTimeout, _ := strconv.Atoi(getEnv("FETCH_TIMEOUT_SECONDS", "15"))
	blockTime, _ := strconv.Atoi(getEnv("BLOCK_TIME_SECONDS", "300"))
	rateLimitRPS, _ := strconv.ParseFloat(getEnv("RATE_LIMIT_RPS", "1"), 64)
	rateLimitBurst, _ := strconv.Atoi(getEnv("RATE_LIMIT_BURST", "3"))

	return &Config{
		HTTPAddr:             getEnv("HTTP_ADDR", ":8080"),
		AllowedOrigins:       splitList(getEnv("ALLOWED_ORIGINS", "moz-extension://*,chrome-extension://*")),
		RateLimitRPS:         rateLimitRPS,
		RateLimitBurst:       rateLimitBurst,
		PageSource:           strings.ToLower(getEnv("PAGE_SOURCE", SourceHTTP)),
		FetchTimeout:         time.Duration(fetchTimeout) * time.Second,
		BlockTime:            time.Duration(blockTime) * time.Second,
		MemcacheAddr:         getEnv("MEMCACHE_ADDR", ""),
		RedisAddr:            getEnv("REDIS_ADDR", ""),
		RedisDB:              redisDB,
		RedisStream:          getEnv("REDIS_STREAM", "bestpick:results"),
		RedisStreamMaxLength: streamMaxLength,
		Environment:          getEnv("BESTPICK_ENVIRONMENT", "development"),
	}
}

// Validate checks the configuration for values the services cannot start with
func (c *Config) Validate() error {
	switch c.PageSource {
	case SourceHTTP, SourceFile, SourceRod, SourceChromedp:
	default:
		return apperrors.NewConfiguration(fmt.Sprintf("unknown page source %q", c.PageSource), nil)
	}
	if c.FetchTimeout <= 0 {
		return apperrors.NewConfiguration("FETCH_TIMEOUT_SECONDS must be positive", nil)
	}
	if c.BlockTime < 0 {
		return apperrors.NewConfiguration("BLOCK_TIME_SECONDS must not be negative", nil)
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return apperrors.NewConfiguration("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive", nil)
	}
	if c.RedisAddr != "" && c.RedisStream == "" {
		return apperrors.NewConfiguration("REDIS_STREAM is required when REDIS_ADDR is set", nil)
	}
	return nil
}

// IsProduction reports whether the application runs in production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
