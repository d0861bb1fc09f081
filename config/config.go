package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	perrors "sjsage522/shiftcodeworker/pkg/errors"
)

const (
	// DefaultURL is the wiki page listing the current SHiFT codes
	DefaultURL = "https://www.ign.com/wikis/borderlands-4/Borderlands_4_SHiFT_Codes"
	// DefaultCSVPath is where codes are recorded when nothing else is configured
	DefaultCSVPath = "shift_codes.csv"
	// DefaultClassTag is the element holding a code on the source page
	DefaultClassTag = "span"
	// DefaultExpiredHeading labels the section listing expired codes
	DefaultExpiredHeading = "All Expired SHiFT Codes"
	// DefaultActiveHeading labels the section whose table shows when codes expire
	DefaultActiveHeading = "All Active"

	// BoundaryRank ends the expired section at the next heading of equal or higher rank
	BoundaryRank = "rank"
	// BoundaryAny ends the expired section at the next heading of any level
	BoundaryAny = "any"
)

// DefaultClassTokens are the stable styling classes of a code element.
// Framework generated class names are left out on purpose.
var DefaultClassTokens = []string{"task-name", "bold", "small"}

// Config represents the application configuration
type Config struct {
	// Source and store
	URL     string
	CSVPath string
	DryRun  bool

	// Targeted scan
	UseClassHint          bool
	ClassTag              string
	ClassTokens           []string
	RequireAllClassTokens bool

	// Expired section
	IncludeExpired  bool
	ExpiredHeading  string
	ExpiredBoundary string
	ActiveHeading   string

	// Fetch behaviour
	FetchTimeout    time.Duration
	FetchMaxRetries int
	FetchBackoff    time.Duration

	// Redis stream notification, disabled when RedisAddr is empty
	RedisAddr            string
	RedisDB              int
	RedisStream          string
	RedisStreamMaxLength int

	// Memcache rate-limit block, disabled when MemcacheAddr is empty
	MemcacheAddr   string
	RateLimitBlock time.Duration

	// Discord notification, disabled when empty
	DiscordWebhookURL string

	// Environment
	Environment string
	Verbose     bool
	Pause       bool
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() *Config {
	timeout, _ := strconv.Atoi(getEnv("FETCH_TIMEOUT_SECONDS", "10"))
	retries, _ := strconv.Atoi(getEnv("FETCH_MAX_RETRIES", "3"))
	backoff, _ := strconv.Atoi(getEnv("FETCH_BACKOFF_MS", "500"))
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	streamMax, _ := strconv.Atoi(getEnv("REDIS_STREAM_MAX_LENGTH", "1000"))
	block, _ := strconv.Atoi(getEnv("RATE_LIMIT_BLOCK_SECONDS", "300"))

	return &Config{
		URL:                  getEnv("SHIFT_URL", DefaultURL),
		CSVPath:              getEnv("SHIFT_CSV", DefaultCSVPath),
		UseClassHint:         true,
		ClassTag:             getEnv("SHIFT_CLASS_TAG", DefaultClassTag),
		ClassTokens:          splitList(getEnv("SHIFT_CLASS_TOKENS", strings.Join(DefaultClassTokens, ","))),
		ExpiredHeading:       getEnv("EXPIRED_HEADING", DefaultExpiredHeading),
		ExpiredBoundary:      getEnv("EXPIRED_BOUNDARY", BoundaryRank),
		ActiveHeading:        getEnv("ACTIVE_HEADING", DefaultActiveHeading),
		FetchTimeout:         time.Duration(timeout) * time.Second,
		FetchMaxRetries:      retries,
		FetchBackoff:         time.Duration(backoff) * time.Millisecond,
		RedisAddr:            os.Getenv("REDIS_ADDR"),
		RedisDB:              redisDB,
		RedisStream:          getEnv("REDIS_STREAM", "shiftcodes"),
		RedisStreamMaxLength: streamMax,
		MemcacheAddr:         os.Getenv("MEMCACHE_ADDR"),
		RateLimitBlock:       time.Duration(block) * time.Second,
		DiscordWebhookURL:    os.Getenv("DISCORD_WEBHOOK_URL"),
		Environment:          getEnv("SHIFT_ENVIRONMENT", "development"),
	}
}

// Validate checks the configuration for values a run cannot work with
func (c *Config) Validate() error {
	if strings.TrimSpace(c.URL) == "" {
		return perrors.NewConfiguration("url is required", nil)
	}
	u, err := url.Parse(c.URL)
	if err != nil {
		return perrors.NewConfiguration("invalid url", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return perrors.NewConfiguration(fmt.Sprintf("unsupported url scheme %q", u.Scheme), nil)
	}
	if strings.TrimSpace(c.CSVPath) == "" {
		return perrors.NewConfiguration("csv path is required", nil)
	}
	if c.UseClassHint && strings.TrimSpace(c.ClassTag) == "" {
		return perrors.NewConfiguration("class tag is required unless the class hint is disabled", nil)
	}
	if c.ExpiredBoundary != BoundaryRank && c.ExpiredBoundary != BoundaryAny {
		return perrors.NewConfiguration(fmt.Sprintf("unknown expired boundary %q (want %q or %q)", c.ExpiredBoundary, BoundaryRank, BoundaryAny), nil)
	}
	if c.FetchTimeout <= 0 {
		return perrors.NewConfiguration("fetch timeout must be positive", nil)
	}
	if c.FetchMaxRetries < 0 {
		return perrors.NewConfiguration("fetch retries must not be negative", nil)
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// splitList splits a comma separated list, dropping empty items
func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
