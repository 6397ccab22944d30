package trace

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the adsbexchange globe_history archive root.
	DefaultBaseURL = "https://globe.adsbexchange.com/globe_history"

	// DefaultTimeout for archive requests
	DefaultTimeout = 10 * time.Second

	// The archive serves trace files to the globe UI; requests without a
	// browser user agent and referer are rejected.
	DefaultUserAgent = "Mozilla/5.0"
	DefaultReferer   = "https://globe.adsbexchange.com/"
)

// Config contains configuration for the archive client.
type Config struct {
	BaseURL           string
	UserAgent         string
	Referer           string
	Timeout           time.Duration
	RequestsPerSecond float64
	Retry             RetryConfig
}

// DefaultConfig returns sensible defaults for the public archive.
func DefaultConfig() Config {
	return Config{
		BaseURL:           DefaultBaseURL,
		UserAgent:         DefaultUserAgent,
		Referer:           DefaultReferer,
		Timeout:           DefaultTimeout,
		RequestsPerSecond: 1.0,
		Retry:             DefaultRetryConfig(),
	}
}

// Client fetches daily trace files from the adsbexchange archive.
// It implements the Source interface.
type Client struct {
	baseURL    string
	userAgent  string
	referer    string
	httpClient *http.Client
	limiter    *rate.Limiter
	retry      RetryConfig
}

// NewClient creates an archive client with rate limiting.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Referer == "" {
		cfg.Referer = DefaultReferer
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RequestsPerSecond == 0 {
		cfg.RequestsPerSecond = 1.0
	}
	if cfg.Retry.MaxRetries == 0 {
		cfg.Retry = DefaultRetryConfig()
	}

	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		userAgent: cfg.UserAgent,
		referer:   cfg.Referer,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		retry:   cfg.Retry,
	}
}

// FetchDay returns all reports for one aircraft on one UTC day.
// Retries transient failures with exponential backoff; a missing trace file
// (HTTP 404) means the aircraft did not fly that day and returns (nil, nil).
func (c *Client) FetchDay(ctx context.Context, icaoHex string, day time.Time) ([]Report, error) {
	payload, err := RetryWithBackoffResult(ctx, c.retry, func() ([]byte, error) {
		return c.FetchDayRaw(ctx, icaoHex, day)
	})
	if err != nil {
		return nil, err
	}
	if payload == nil {
		return nil, nil
	}
	return ParseTrace(payload)
}

// FetchDayRaw fetches the raw daily trace payload without parsing it.
// Returns (nil, nil) when the archive has no file for the day. The cache
// layer stores these payloads verbatim so a yearly history is fetched once.
func (c *Client) FetchDayRaw(ctx context.Context, icaoHex string, day time.Time) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	url, err := c.traceURL(icaoHex, day)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Referer", c.referer)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, nil // no trace for this day, not an error
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &RateLimitError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header),
			Message:    "archive rate limit exceeded",
		}
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("archive returned status %d: %s", resp.StatusCode, string(body))
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return payload, nil
}

// Close cleanly shuts down the client. The archive uses plain HTTP GETs,
// so this is a no-op.
func (c *Client) Close() error {
	return nil
}

// traceURL builds the archive path for one aircraft-day. Trace files are
// sharded by the last two characters of the lowercased ICAO hex address.
func (c *Client) traceURL(icaoHex string, day time.Time) (string, error) {
	icao := strings.ToLower(strings.TrimSpace(icaoHex))
	if len(icao) < 2 {
		return "", fmt.Errorf("invalid ICAO hex address %q", icaoHex)
	}
	day = day.UTC()
	return fmt.Sprintf("%s/%04d/%02d/%02d/traces/%s/trace_full_%s.json",
		c.baseURL, day.Year(), int(day.Month()), day.Day(), icao[len(icao)-2:], icao), nil
}

// traceFile mirrors the JSON shape of a globe_history daily trace.
// Each trace record is a positional array: seconds offset from the file
// timestamp, latitude, longitude, then fields we do not use, with an
// optional details object at index 8 that carries the flight callsign.
type traceFile struct {
	ICAO      string          `json:"icao"`
	Timestamp float64         `json:"timestamp"`
	Trace     [][]interface{} `json:"trace"`
}

// ParseTrace decodes a raw daily trace payload into reports.
// Records without a usable position are skipped.
func ParseTrace(payload []byte) ([]Report, error) {
	var file traceFile
	if err := json.Unmarshal(payload, &file); err != nil {
		return nil, fmt.Errorf("parse trace payload: %w", err)
	}

	base := time.UnixMilli(int64(file.Timestamp * 1000)).UTC()

	reports := make([]Report, 0, len(file.Trace))
	for _, rec := range file.Trace {
		if len(rec) < 3 {
			continue
		}

		offset, ok := rec[0].(float64)
		if !ok {
			continue
		}
		lat, latOK := rec[1].(float64)
		lon, lonOK := rec[2].(float64)
		if !latOK || !lonOK {
			continue
		}

		r := Report{
			Timestamp: base.Add(time.Duration(offset * float64(time.Second))),
			Latitude:  lat,
			Longitude: lon,
		}

		// Only some records carry a details object with flight identification.
		if len(rec) > 8 {
			if details, ok := rec[8].(map[string]interface{}); ok {
				if flight, ok := details["flight"].(string); ok {
					r.Callsign = strings.TrimSpace(flight)
				}
			}
		}

		reports = append(reports, r)
	}

	return reports, nil
}

// RateLimitError represents an HTTP 429 response with retry information.
type RateLimitError struct {
	StatusCode int
	RetryAfter time.Duration
	Message    string
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("%s (retry after %v)", e.Message, e.RetryAfter)
	}
	return e.Message
}

// IsRateLimitError checks if an error is a rate limit error.
func IsRateLimitError(err error) (*RateLimitError, bool) {
	if rle, ok := err.(*RateLimitError); ok {
		return rle, true
	}
	return nil, false
}

// parseRetryAfter extracts the Retry-After header value.
// Supports both delay-seconds and HTTP-date formats; returns 0 if absent.
func parseRetryAfter(headers http.Header) time.Duration {
	retryAfter := headers.Get("Retry-After")
	if retryAfter == "" {
		return 0
	}

	if seconds, err := strconv.Atoi(retryAfter); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}

	if retryTime, err := http.ParseTime(retryAfter); err == nil {
		if d := time.Until(retryTime); d > 0 {
			return d
		}
	}

	return 0
}
