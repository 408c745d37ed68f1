package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tms-platform/tracking-service/internal/application"
	"github.com/tms-platform/tracking-service/pkg/logging"
	"github.com/tms-platform/tracking-service/pkg/metrics"
	"github.com/tms-platform/tracking-service/pkg/resilience"
)

// Idempotency key prefixes. Keys are composed from the entity's natural keys
// plus a change fingerprint, so redelivery of an unchanged state reuses the
// same key and the remote side deduplicates it.
const (
	ackKeyPrefix      = "tms-ack"
	progressKeyPrefix = "tms-progress"
)

// Config holds external sync client configuration
type Config struct {
	Enabled        bool
	BaseURL        string
	APIKey         string
	MaxRetries     int
	BaseDelay      time.Duration
	RequestTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Enabled:        false,
		BaseURL:        "http://localhost:8090",
		MaxRetries:     3,
		BaseDelay:      200 * time.Millisecond,
		RequestTimeout: 5 * time.Second,
	}
}

// Client propagates tracking state to the external logistics platform. When
// disabled every method is a no-op returning well-formed defaults. Requests
// are retried on transport failures and retryable status codes with
// exponential backoff plus jitter, behind a circuit breaker.
type Client struct {
	config         *Config
	httpClient     *http.Client
	circuitBreaker *resilience.CircuitBreaker
	metrics        *metrics.Metrics
	logger         *logging.Logger
}

// NewClient creates a new sync client
func NewClient(config *Config, m *metrics.Metrics, logger *logging.Logger) *Client {
	if config == nil {
		config = DefaultConfig()
	}

	var slogLogger *slog.Logger
	if logger != nil && logger.Logger != nil {
		slogLogger = logger.Logger
	} else {
		slogLogger = slog.Default()
	}

	cbConfig := &resilience.CircuitBreakerConfig{
		Name:                  "external-sync",
		MaxRequests:           3,
		Interval:              60 * time.Second,
		Timeout:               30 * time.Second,
		FailureThreshold:      5,
		SuccessThreshold:      2,
		FailureRatioThreshold: 0.5,
		MinRequestsToTrip:     10,
	}

	return &Client{
		config:         config,
		httpClient:     &http.Client{Timeout: config.RequestTimeout},
		circuitBreaker: resilience.NewCircuitBreaker(cbConfig, slogLogger),
		metrics:        m,
		logger:         logger,
	}
}

// AcknowledgeEvent notifies the external platform of an ingested event. An
// "already processed" conflict from the remote side counts as success.
func (c *Client) AcknowledgeEvent(ctx context.Context, ack application.EventAck) error {
	if !c.config.Enabled {
		return nil
	}

	key := fmt.Sprintf("%s:%s:%s:%s", ackKeyPrefix, ack.FormCode, ack.EventType, ack.EventID)
	payload := map[string]interface{}{
		"externalId":    ack.EventID,
		"formCode":      ack.FormCode,
		"eventType":     ack.EventType,
		"shipmentCode":  ack.ShipmentCode,
		"warehouseCode": ack.WarehouseCode,
		"timestamps": map[string]interface{}{
			"recordedAt": ack.RecordedAt.UTC().Format(time.RFC3339),
		},
	}

	return c.post(ctx, "ack_event", "/api/v1/events/ack", key, payload, true)
}

// PushRouteProgress pushes a shipment's current route position. The leg index
// is the change fingerprint: repeating an unchanged position reuses the key.
func (c *Client) PushRouteProgress(ctx context.Context, progress application.RouteProgress) error {
	if !c.config.Enabled {
		return nil
	}

	key := fmt.Sprintf("%s:%s:%d:%d", progressKeyPrefix, progress.ShipmentCode, progress.LegIndex, progress.UpdatedAt.UTC().Unix())
	payload := map[string]interface{}{
		"externalId": progress.ShipmentCode,
		"routeCode":  progress.RouteCode,
		"legIndex":   progress.LegIndex,
		"routePath":  progress.RoutePath,
		"timestamps": map[string]interface{}{
			"updatedAt": progress.UpdatedAt.UTC().Format(time.RFC3339),
		},
	}

	return c.post(ctx, "push_progress", "/api/v1/shipments/progress", key, payload, false)
}

// FetchAnalytics pulls aggregate metrics for an organization and window
func (c *Client) FetchAnalytics(ctx context.Context, query application.AnalyticsQuery) (*application.AnalyticsReport, error) {
	if !c.config.Enabled {
		return &application.AnalyticsReport{}, nil
	}

	params := url.Values{}
	params.Set("org", query.OrgID)
	if len(query.Warehouses) > 0 {
		params.Set("warehouses", strings.Join(query.Warehouses, ","))
	}
	if !query.From.IsZero() {
		params.Set("from", query.From.UTC().Format(time.RFC3339))
	}
	if !query.To.IsZero() {
		params.Set("to", query.To.UTC().Format(time.RFC3339))
	}

	var report application.AnalyticsReport
	err := c.execute(ctx, "fetch_analytics", func(attemptCtx context.Context) (*http.Response, error) {
		req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, c.config.BaseURL+"/api/v1/analytics?"+params.Encode(), nil)
		if err != nil {
			return nil, err
		}
		c.setHeaders(req, "")
		return c.httpClient.Do(req)
	}, false, &report)
	if err != nil {
		return nil, err
	}
	return &report, nil
}

func (c *Client) post(ctx context.Context, operation, path, idempotencyKey string, payload map[string]interface{}, conflictIsSuccess bool) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", operation, err)
	}

	return c.execute(ctx, operation, func(attemptCtx context.Context) (*http.Response, error) {
		req, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, c.config.BaseURL+path, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		c.setHeaders(req, idempotencyKey)
		return c.httpClient.Do(req)
	}, conflictIsSuccess, nil)
}

// execute runs one logical call with bounded retries inside the circuit
// breaker. Total attempts never exceed MaxRetries+1; the delay before attempt
// n is base*2^(n-1) plus random jitter.
func (c *Client) execute(ctx context.Context, operation string, do func(context.Context) (*http.Response, error), conflictIsSuccess bool, out interface{}) error {
	start := time.Now()

	_, err := c.circuitBreaker.Execute(ctx, func() (interface{}, error) {
		var lastErr error

		for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
			if attempt > 0 {
				c.recordRetry(operation)
				select {
				case <-time.After(c.backoffDelay(attempt)):
				case <-ctx.Done():
					return nil, ctx.Err()
				}
			}

			resp, err := do(ctx)
			if err != nil {
				// network abort or timeout: retryable
				lastErr = err
				continue
			}

			status := resp.StatusCode
			if status == http.StatusConflict && conflictIsSuccess {
				// remote already processed this key
				drain(resp)
				c.finish(ctx, operation, status, attempt+1, start, true)
				return nil, nil
			}
			if status >= 200 && status < 300 {
				if out != nil {
					if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
						resp.Body.Close()
						return nil, fmt.Errorf("failed to decode %s response: %w", operation, err)
					}
				}
				drain(resp)
				c.finish(ctx, operation, status, attempt+1, start, true)
				return nil, nil
			}

			drain(resp)
			if !retryableStatus(status) {
				c.finish(ctx, operation, status, attempt+1, start, false)
				return nil, fmt.Errorf("sync %s failed with status %d", operation, status)
			}
			lastErr = fmt.Errorf("sync %s failed with retryable status %d", operation, status)
		}

		c.finish(ctx, operation, 0, c.config.MaxRetries+1, start, false)
		return nil, fmt.Errorf("sync %s exhausted %d attempts: %w", operation, c.config.MaxRetries+1, lastErr)
	})

	return err
}

func (c *Client) backoffDelay(attempt int) time.Duration {
	return resilience.Backoff(c.config.BaseDelay, attempt)
}

func (c *Client) setHeaders(req *http.Request, idempotencyKey string) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}
}

func (c *Client) finish(ctx context.Context, operation string, status, attempts int, start time.Time, success bool) {
	duration := time.Since(start)
	if c.metrics != nil {
		c.metrics.RecordSyncRequest(operation, success, duration)
	}
	if c.logger != nil {
		c.logger.SyncCall(ctx, operation, status, attempts, duration, success)
	}
}

func (c *Client) recordRetry(operation string) {
	if c.metrics != nil {
		c.metrics.RecordSyncRetry(operation)
	}
}

// retryableStatus reports whether the response status is worth retrying
func retryableStatus(status int) bool {
	switch status {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

func drain(resp *http.Response) {
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}
