// Package remote implements the face and document comparator contracts
// against an external comparison service. Outbound calls carry a client-side
// rate limit, bounded retries with backoff, and a circuit breaker so a dead
// comparator degrades factors instead of stalling mark attempts.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/avast/retry-go/v5"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"rollcall/internal/comparator"
	"rollcall/pkg/platform/sentinel"
)

const (
	defaultAttempts    = 3
	defaultCallTimeout = 10 * time.Second
)

// Client calls the remote comparison service. It satisfies both the Face and
// Document comparator contracts.
type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	limiter    *rate.Limiter
	logger     *slog.Logger
	attempts   int
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithLogger sets the logger for degraded-path warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithAttempts overrides the retry budget per call.
func WithAttempts(attempts int) Option {
	return func(c *Client) {
		if attempts > 0 {
			c.attempts = attempts
		}
	}
}

// WithRateLimit overrides the client-side request rate.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// NewClient constructs a remote comparator client for the given base URL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultCallTimeout},
		limiter:    rate.NewLimiter(rate.Limit(50), 10),
		attempts:   defaultAttempts,
	}

	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "remote-comparator",
		MaxRequests: 3,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
	})

	for _, opt := range opts {
		opt(c)
	}

	return c
}

type faceRequest struct {
	StoredTemplate []byte `json:"stored_template"`
	Sample         []byte `json:"sample"`
}

type faceResponse struct {
	Matched    bool    `json:"matched"`
	Confidence float64 `json:"confidence"`
}

// Compare implements comparator.Face over the wire.
func (c *Client) Compare(ctx context.Context, storedTemplate, sample []byte) (comparator.FaceResult, error) {
	var resp faceResponse
	err := c.call(ctx, "/v1/compare/face", faceRequest{
		StoredTemplate: storedTemplate,
		Sample:         sample,
	}, &resp)
	if err != nil {
		return comparator.FaceResult{}, err
	}
	return comparator.FaceResult{Matched: resp.Matched, Confidence: resp.Confidence}, nil
}

type documentRequest struct {
	Sample       []byte `json:"sample"`
	ExpectedID   string `json:"expected_id"`
	ExpectedName string `json:"expected_name"`
}

type documentResponse struct {
	Matched    bool              `json:"matched"`
	Confidence float64           `json:"confidence"`
	Fields     map[string]string `json:"fields"`
}

// ExtractAndCompare implements comparator.Document over the wire.
func (c *Client) ExtractAndCompare(ctx context.Context, sample []byte, expectedID, expectedName string) (comparator.DocumentResult, error) {
	var resp documentResponse
	err := c.call(ctx, "/v1/compare/document", documentRequest{
		Sample:       sample,
		ExpectedID:   expectedID,
		ExpectedName: expectedName,
	}, &resp)
	if err != nil {
		return comparator.DocumentResult{}, err
	}
	return comparator.DocumentResult{
		Matched:    resp.Matched,
		Confidence: resp.Confidence,
		Fields:     resp.Fields,
	}, nil
}

func (c *Client) call(ctx context.Context, path string, reqBody, respBody any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("comparator rate limit: %w", err)
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal comparator request: %w", err)
	}

	result, err := c.breaker.Execute(func() (any, error) {
		var raw []byte
		retryErr := retry.New(
			retry.Context(ctx),
			retry.Attempts(uint(c.attempts)),
		).Do(func() error {
			callCtx, cancel := context.WithTimeout(ctx, defaultCallTimeout)
			defer cancel()

			var callErr error
			raw, callErr = c.post(callCtx, path, payload)
			return callErr
		})
		return raw, retryErr
	})
	if err != nil {
		if c.logger != nil {
			c.logger.WarnContext(ctx, "remote comparator call failed",
				"path", path,
				"error", err,
			)
		}
		return fmt.Errorf("remote comparator: %w: %w", sentinel.ErrUnavailable, err)
	}

	if err := json.Unmarshal(result.([]byte), respBody); err != nil {
		return fmt.Errorf("decode comparator response: %w", err)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, payload []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, retry.Unrecoverable(fmt.Errorf("build comparator request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("comparator request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read comparator response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return body, nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		// Client errors will not heal on retry.
		return nil, retry.Unrecoverable(fmt.Errorf("comparator rejected request: status %d", resp.StatusCode))
	default:
		return nil, fmt.Errorf("comparator returned status %d", resp.StatusCode)
	}
}
