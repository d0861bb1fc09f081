package helpers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"sjsage522/shiftcodeworker/logger"
	perrors "sjsage522/shiftcodeworker/pkg/errors"

	"github.com/go-resty/resty/v2"
	"golang.org/x/net/html/charset"
)

// UserAgent is sent with every page request
const UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Page is a fetched document converted to UTF-8
type Page struct {
	URL        string
	StatusCode int
	Body       []byte
	// Encoding is the charset the body was decoded from
	Encoding string
}

// Reader returns the UTF-8 body as a reader
func (p *Page) Reader() io.Reader {
	return bytes.NewReader(p.Body)
}

// FetchOptions configures a PageFetcher
type FetchOptions struct {
	Timeout      time.Duration
	MaxRetries   int
	RetryWait    time.Duration
	RetryMaxWait time.Duration
}

// DefaultFetchOptions mirrors the defaults of the config package
func DefaultFetchOptions() FetchOptions {
	return FetchOptions{
		Timeout:      10 * time.Second,
		MaxRetries:   3,
		RetryWait:    500 * time.Millisecond,
		RetryMaxWait: 10 * time.Second,
	}
}

// PageFetcher downloads pages with a browser identity and retries transient failures
type PageFetcher struct {
	client *resty.Client
	log    *logger.Logger
}

// NewPageFetcher creates a new page fetcher
func NewPageFetcher(opts FetchOptions) *PageFetcher {
	log := logger.ForFetcher()

	client := resty.New()
	client.SetTimeout(opts.Timeout)
	client.SetHeader("User-Agent", UserAgent)
	client.SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	client.SetHeader("Accept-Language", "en-US,en;q=0.9")
	client.SetHeader("Cache-Control", "no-cache")
	client.SetHeader("Pragma", "no-cache")

	// resty backs off exponentially with jitter between RetryWait and RetryMaxWait
	client.SetRetryCount(opts.MaxRetries)
	client.SetRetryWaitTime(opts.RetryWait)
	client.SetRetryMaxWaitTime(opts.RetryMaxWait)
	client.AddRetryCondition(isTransient)
	client.SetLogger(&restyLogger{log: log})
	client.AddRetryHook(func(res *resty.Response, err error) {
		event := log.Warn().Int("attempt", attempts(res))
		if err != nil {
			event = event.Err(err)
		} else {
			event = event.Int("status", res.StatusCode())
		}
		event.Msg("Transient fetch failure, retrying")
	})

	return &PageFetcher{client: client, log: log}
}

// isTransient reports whether a response or error should be retried:
// transport errors and timeouts, 429 and any 5xx.
func isTransient(res *resty.Response, err error) bool {
	if err != nil {
		return true
	}
	if res == nil {
		return false
	}
	status := res.StatusCode()
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}

// Fetch sends a GET request to url and returns the body decoded to UTF-8
func (f *PageFetcher) Fetch(ctx context.Context, url string) (*Page, error) {
	res, err := f.client.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		return nil, perrors.NewFetch(url, fmt.Sprintf("request failed after %d attempt(s)", attempts(res)), err)
	}

	status := res.StatusCode()
	switch {
	case status == http.StatusTooManyRequests:
		return nil, perrors.NewRateLimit(url, retryAfter(res))
	case status >= http.StatusInternalServerError:
		return nil, perrors.NewFetch(url, fmt.Sprintf("giving up after %d attempt(s)", attempts(res)),
			fmt.Errorf("unexpected status code: %d", status))
	case status < http.StatusOK || status >= http.StatusMultipleChoices:
		return nil, perrors.NewFetch(url, "request rejected",
			fmt.Errorf("unexpected status code: %d", status))
	}

	body, name, err := decodeUTF8(res.Body(), res.Header().Get("Content-Type"))
	if err != nil {
		return nil, perrors.NewFetch(url, "failed to decode response body", err)
	}

	f.log.Debug().
		Str("url", url).
		Int("status", status).
		Int("bytes", len(body)).
		Str("encoding", name).
		Msg("Fetched page")

	return &Page{
		URL:        url,
		StatusCode: status,
		Body:       body,
		Encoding:   name,
	}, nil
}

func attempts(res *resty.Response) int {
	if res == nil || res.Request == nil {
		return 1
	}
	return res.Request.Attempt
}

func retryAfter(res *resty.Response) time.Duration {
	value := strings.TrimSpace(res.Header().Get("Retry-After"))
	if value == "" {
		return 0
	}
	var seconds int
	if _, err := fmt.Sscanf(value, "%d", &seconds); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	return 0
}

// decodeUTF8 determines the encoding from the Content-Type header and body
// content and converts the body to UTF-8 when needed.
func decodeUTF8(body []byte, contentType string) ([]byte, string, error) {
	encoding, name, _ := charset.DetermineEncoding(body, contentType)

	// If already UTF-8, return as is
	if strings.EqualFold(name, "utf-8") {
		return body, name, nil
	}

	utf8Reader := encoding.NewDecoder().Reader(bytes.NewReader(body))
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, utf8Reader); err != nil {
		return nil, name, fmt.Errorf("failed to read converted UTF-8 body: %w", err)
	}

	return buf.Bytes(), name, nil
}

// restyLogger routes resty's own messages through the component logger
type restyLogger struct {
	log *logger.Logger
}

func (l *restyLogger) Errorf(format string, v ...interface{}) {
	l.log.Error().Msgf(strings.TrimSpace(format), v...)
}

func (l *restyLogger) Warnf(format string, v ...interface{}) {
	l.log.Warn().Msgf(strings.TrimSpace(format), v...)
}

func (l *restyLogger) Debugf(format string, v ...interface{}) {
	l.log.Debug().Msgf(strings.TrimSpace(format), v...)
}
