package carriers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/upb/quote-gateway/internal/observability"
)

// maxResponseBytes caps how much of a carrier response body is read
const maxResponseBytes = 4 << 20

// Client binds one carrier configuration to an HTTP transport.
// It does not retry and does not rate-limit.
type Client struct {
	config     ProviderConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a client for a single carrier. A nil httpClient uses a
// fresh http.Client; the per-call timeout is applied through the request context.
func NewClient(config ProviderConfig, httpClient *http.Client, logger *zap.Logger) *Client {
	config = config.withDefaults()
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		config:     config,
		httpClient: httpClient,
		logger:     logger.With(zap.String("provider", config.Key())),
	}
}

// Name returns the carrier name
func (c *Client) Name() string {
	return c.config.Key()
}

// Send issues one request against the carrier and returns the raw status and body.
// Non-2xx statuses are not errors at this level.
func (c *Client) Send(ctx context.Context, method, path string, body any) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return 0, nil, NewProviderError(c.Name(), CodeProviderRequest, "failed to marshal request", 0, err)
		}
		reader = bytes.NewReader(payload)
	}

	callCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(callCtx, method, c.url(path), reader)
	if err != nil {
		return 0, nil, NewProviderError(c.Name(), CodeProviderRequest, "failed to create request", 0, err)
	}

	httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	c.logger.Info("Carrier request",
		zap.String("method", method),
		zap.String("path", path),
	)

	startTime := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		observability.ObserveCarrierRequest(c.Name(), 0, startTime)
		c.logger.Warn("Carrier request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Duration("latency", time.Since(startTime)),
			zap.Error(err),
		)
		return 0, nil, c.transportError(callCtx, err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
	observability.ObserveCarrierRequest(c.Name(), httpResp.StatusCode, startTime)
	if err != nil {
		c.logger.Warn("Failed to read carrier response",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", httpResp.StatusCode),
			zap.Error(err),
		)
		return httpResp.StatusCode, nil, c.transportError(callCtx, err)
	}

	c.logger.Info("Carrier response",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", httpResp.StatusCode),
		zap.Duration("latency", time.Since(startTime)),
	)

	return httpResp.StatusCode, respBody, nil
}

func (c *Client) url(path string) string {
	if path == "" {
		return c.config.BaseURL
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.config.BaseURL + path
}

// transportError classifies a failed round trip. Only the per-call deadline
// counts as a timeout; parent cancellation is a request failure.
func (c *Client) transportError(callCtx context.Context, err error) error {
	if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		return NewProviderError(c.Name(), CodeProviderTimeout, "provider request timed out", 0, err)
	}
	return NewProviderError(c.Name(), CodeProviderRequest, "provider request failed", 0, err)
}
