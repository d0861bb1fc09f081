package config

import (
	"testing"
	"time"

	perrors "sjsage522/shiftcodeworker/pkg/errors"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig(t *testing.T) {
	// Test with default values
	config := LoadConfig()
	assert.Equal(t, DefaultURL, config.URL)
	assert.Equal(t, "shift_codes.csv", config.CSVPath)
	assert.True(t, config.UseClassHint)
	assert.Equal(t, "span", config.ClassTag)
	assert.Equal(t, []string{"task-name", "bold", "small"}, config.ClassTokens)
	assert.Equal(t, BoundaryRank, config.ExpiredBoundary)
	assert.Equal(t, DefaultActiveHeading, config.ActiveHeading)
	assert.Equal(t, 10*time.Second, config.FetchTimeout)
	assert.Equal(t, 3, config.FetchMaxRetries)
	assert.Equal(t, 500*time.Millisecond, config.FetchBackoff)
	assert.Empty(t, config.RedisAddr)
	assert.Empty(t, config.MemcacheAddr)
	assert.Equal(t, 5*time.Minute, config.RateLimitBlock)

	// Test with environment variables
	t.Setenv("SHIFT_URL", "https://example.com/codes")
	t.Setenv("SHIFT_CSV", "/tmp/codes.csv")
	t.Setenv("SHIFT_CLASS_TAG", "code")
	t.Setenv("SHIFT_CLASS_TOKENS", " shift-code , ,mono")
	t.Setenv("EXPIRED_BOUNDARY", "any")
	t.Setenv("ACTIVE_HEADING", "Current Codes")
	t.Setenv("FETCH_TIMEOUT_SECONDS", "30")
	t.Setenv("FETCH_MAX_RETRIES", "5")
	t.Setenv("REDIS_ADDR", "redis.example.com:6379")
	t.Setenv("REDIS_DB", "2")

	config = LoadConfig()
	assert.Equal(t, "https://example.com/codes", config.URL)
	assert.Equal(t, "/tmp/codes.csv", config.CSVPath)
	assert.Equal(t, "code", config.ClassTag)
	assert.Equal(t, []string{"shift-code", "mono"}, config.ClassTokens)
	assert.Equal(t, BoundaryAny, config.ExpiredBoundary)
	assert.Equal(t, "Current Codes", config.ActiveHeading)
	assert.Equal(t, 30*time.Second, config.FetchTimeout)
	assert.Equal(t, 5, config.FetchMaxRetries)
	assert.Equal(t, "redis.example.com:6379", config.RedisAddr)
	assert.Equal(t, 2, config.RedisDB)
}

func TestValidate(t *testing.T) {
	valid := LoadConfig()
	assert.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"empty url", func(c *Config) { c.URL = " " }},
		{"ftp url", func(c *Config) { c.URL = "ftp://example.com/codes" }},
		{"empty csv", func(c *Config) { c.CSVPath = "" }},
		{"empty class tag", func(c *Config) { c.ClassTag = "" }},
		{"unknown boundary", func(c *Config) { c.ExpiredBoundary = "sibling" }},
		{"zero timeout", func(c *Config) { c.FetchTimeout = 0 }},
		{"negative retries", func(c *Config) { c.FetchMaxRetries = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := LoadConfig()
			tt.mutate(c)
			err := c.Validate()
			assert.Error(t, err)
			assert.True(t, perrors.Is(err, perrors.ErrorTypeConfiguration))
		})
	}

	// An empty class tag is fine when the targeted scan is off
	c := LoadConfig()
	c.ClassTag = ""
	c.UseClassHint = false
	assert.NoError(t, c.Validate())
}
