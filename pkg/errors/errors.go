package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeNetwork represents a page fetch that failed after retries
	ErrorTypeNetwork ErrorType = "network"
	// ErrorTypeRateLimit represents a fetch rejected with 429 or blocked by an earlier one
	ErrorTypeRateLimit ErrorType = "rate_limit"
	// ErrorTypeParsing represents HTML parsing problems and extraction warnings
	ErrorTypeParsing ErrorType = "parsing"
	// ErrorTypeStoreRead represents an unreadable store or a malformed store row
	ErrorTypeStoreRead ErrorType = "store_read"
	// ErrorTypeStoreWrite represents a failed append to the store
	ErrorTypeStoreWrite ErrorType = "store_write"
	// ErrorTypeCache represents cache-related errors
	ErrorTypeCache ErrorType = "cache"
	// ErrorTypePublisher represents publisher-related errors
	ErrorTypePublisher ErrorType = "publisher"
	// ErrorTypeConfiguration represents configuration errors
	ErrorTypeConfiguration ErrorType = "configuration"
)

// ScrapeError represents an error raised while collecting codes
type ScrapeError struct {
	Type    ErrorType
	Source  string
	Message string
	Err     error
	Time    time.Time
}

// Error implements the error interface
func (e *ScrapeError) Error() string {
	if e.Source == "" {
		if e.Err != nil {
			return fmt.Sprintf("[%s] %s - %v", e.Type, e.Message, e.Err)
		}
		return fmt.Sprintf("[%s] %s", e.Type, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s - %v", e.Type, e.Source, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, e.Source, e.Message)
}

// Unwrap returns the underlying error
func (e *ScrapeError) Unwrap() error {
	return e.Err
}

// IsRetryable returns true if the error is retryable
func (e *ScrapeError) IsRetryable() bool {
	switch e.Type {
	case ErrorTypeNetwork:
		return true
	default:
		return false
	}
}

// IsFatal reports whether the error must abort a run
func (e *ScrapeError) IsFatal() bool {
	switch e.Type {
	case ErrorTypeParsing, ErrorTypePublisher, ErrorTypeCache:
		return false
	default:
		return true
	}
}

// TypeOf returns the ErrorType of the first ScrapeError in err's chain
func TypeOf(err error) (ErrorType, bool) {
	var se *ScrapeError
	if stderrors.As(err, &se) {
		return se.Type, true
	}
	return "", false
}

// Is reports whether err carries a ScrapeError of the given type
func Is(err error, errType ErrorType) bool {
	t, ok := TypeOf(err)
	return ok && t == errType
}

// New creates a new ScrapeError
func New(errType ErrorType, source, message string, err error) *ScrapeError {
	return &ScrapeError{
		Type:    errType,
		Source:  source,
		Message: message,
		Err:     err,
		Time:    time.Now(),
	}
}

// NewFetch creates a new network error
func NewFetch(url, message string, err error) *ScrapeError {
	return New(ErrorTypeNetwork, url, message, err)
}

// NewRateLimit creates a new rate limit error
func NewRateLimit(url string, duration time.Duration) *ScrapeError {
	message := "rate limited"
	if duration > 0 {
		message = fmt.Sprintf("rate limited for %v", duration)
	}
	return New(ErrorTypeRateLimit, url, message, nil)
}

// NewParseWarning creates a new parsing error
func NewParseWarning(source, message string) *ScrapeError {
	return New(ErrorTypeParsing, source, message, nil)
}

// NewParsing creates a parsing error wrapping err
func NewParsing(source, message string, err error) *ScrapeError {
	return New(ErrorTypeParsing, source, message, err)
}

// NewStoreRead creates a new store read error
func NewStoreRead(path, message string, err error) *ScrapeError {
	return New(ErrorTypeStoreRead, path, message, err)
}

// NewStoreWrite creates a new store write error
func NewStoreWrite(path, message string, err error) *ScrapeError {
	return New(ErrorTypeStoreWrite, path, message, err)
}

// NewCache creates a new cache error
func NewCache(key, message string, err error) *ScrapeError {
	return New(ErrorTypeCache, key, message, err)
}

// NewPublisher creates a new publisher error
func NewPublisher(publisher, message string, err error) *ScrapeError {
	return New(ErrorTypePublisher, publisher, message, err)
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *ScrapeError {
	return New(ErrorTypeConfiguration, "", message, err)
}
