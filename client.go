// Package humanrail is a Go client for the HumanRail escalation API.
//
// HumanRail routes tasks to vetted human reviewers when automated systems hit
// confidence or risk thresholds. The client delegates a task, waits for its
// outcome either by polling or through signed webhooks, and verifies those
// webhooks against replay.
//
// Basic usage:
//
//	client := humanrail.NewClient("hr_live_...")
//	task, err := client.CreateTask(ctx, humanrail.TaskCreateRequest{
//	    IdempotencyKey: "order-12345-refund",
//	    TaskType:       "refund_eligibility",
//	    Payload:        map[string]any{"orderId": "order-12345"},
//	    OutputSchema:   map[string]any{"type": "object"},
//	    Payout:         humanrail.Payout{Currency: humanrail.PayoutCurrencyUSD, MaxAmount: 0.50},
//	})
//
// Every outbound call runs through a shared retry policy; failures surface as
// typed errors (AuthenticationError, RateLimitError, ...) that callers can
// branch on with errors.As or the Is* helpers.
package humanrail

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	stdhttp "net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/prime001/humanrail-sdk/internal/platform/httpclient"
	"github.com/prime001/humanrail-sdk/pkg/retry"
)

const (
	defaultBaseURL = "https://api.humanrail.io/v1"
	defaultTimeout = 30 * time.Second
	sdkVersion     = "0.1.0"
	userAgent      = "humanrail-sdk-go/" + sdkVersion
)

var validate = validator.New()

// ClientOption is a functional option for configuring the Client.
type ClientOption func(*Client)

// WithBaseURL sets the API base URL.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithMaxRetries sets the number of retries after the first attempt.
func WithMaxRetries(n int) ClientOption {
	return func(c *Client) {
		if n >= 0 {
			c.policy.MaxRetries = n
		}
	}
}

// WithBackoff sets the retry backoff curve.
func WithBackoff(kind retry.Backoff) ClientOption {
	return func(c *Client) {
		c.policy.Backoff = kind
	}
}

// WithRetryPolicy replaces the whole retry policy.
func WithRetryPolicy(p retry.Policy) ClientOption {
	return func(c *Client) {
		c.policy = p
	}
}

// WithLogger sets the logger for request diagnostics. The client is silent
// by default; observability belongs to the surrounding application.
func WithLogger(l *slog.Logger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// WithTransport sets a custom transport. Used by tests to stub the network.
func WithTransport(rt stdhttp.RoundTripper) ClientOption {
	return func(c *Client) {
		c.transport = rt
	}
}

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *stdhttp.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// Client is the HumanRail API client. It is safe for concurrent use; any
// number of operations may run in parallel, each retrying independently.
type Client struct {
	apiKey  string
	baseURL string
	timeout time.Duration
	policy  retry.Policy
	log     *slog.Logger

	transport  stdhttp.RoundTripper
	httpClient *stdhttp.Client
	http       *httpclient.Client
}

// NewClient creates a new HumanRail client.
//
// The apiKey is required; obtain one from the HumanRail dashboard. Use
// functional options to customize behaviour:
//
//	client := humanrail.NewClient("hr_live_...",
//	    humanrail.WithTimeout(10*time.Second),
//	    humanrail.WithMaxRetries(5),
//	)
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		timeout: defaultTimeout,
		policy:  retry.DefaultPolicy(),
		log:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}

	hopts := []httpclient.Option{
		httpclient.WithTimeout(c.timeout),
		httpclient.WithLogger(c.log),
		httpclient.WithHeaders(map[string]string{
			"Authorization": "Bearer " + c.apiKey,
			"Content-Type":  "application/json",
			"Accept":        "application/json",
			"User-Agent":    userAgent,
		}),
		// List filters and cursors ride in the query string; log only the path.
		httpclient.WithURLRedactor(func(u *url.URL) string {
			r := *u
			r.User = nil
			r.RawQuery = ""
			return r.String()
		}),
	}
	if c.httpClient != nil {
		hopts = append(hopts, httpclient.WithHTTPClient(c.httpClient))
	}
	if c.transport != nil {
		hopts = append(hopts, httpclient.WithTransport(c.transport))
	}
	c.http = httpclient.New(hopts...)
	return c
}

// CreateTask creates a new task for human review.
//
// The request is validated locally first; violations surface as a
// ValidationError without any network traffic. If a task with the same
// IdempotencyKey already exists, the existing task is returned, and the key
// is forwarded unchanged on every retry attempt so the server recognizes
// them as duplicates.
func (c *Client) CreateTask(ctx context.Context, req TaskCreateRequest) (*Task, error) {
	if req.RiskTier == "" {
		req.RiskTier = RiskTierMedium
	}
	if req.SLASeconds == 0 {
		req.SLASeconds = 600
	}
	if err := validate.Struct(&req); err != nil {
		return nil, &ValidationError{APIError: APIError{
			Message: fmt.Sprintf("invalid task create request: %v", err),
			Err:     err,
		}}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("humanrail: failed to marshal request: %w", err)
	}

	respBody, err := c.doRequest(ctx, stdhttp.MethodPost, "/tasks", body, req.IdempotencyKey)
	if err != nil {
		return nil, err
	}

	var task Task
	if err := json.Unmarshal(respBody, &task); err != nil {
		return nil, fmt.Errorf("humanrail: failed to unmarshal response: %w", err)
	}
	return &task, nil
}

// GetTask retrieves a task by its ID.
func (c *Client) GetTask(ctx context.Context, taskID string) (*Task, error) {
	path := fmt.Sprintf("/tasks/%s", url.PathEscape(taskID))

	respBody, err := c.doRequest(ctx, stdhttp.MethodGet, path, nil, "")
	if err != nil {
		return nil, err
	}

	var task Task
	if err := json.Unmarshal(respBody, &task); err != nil {
		return nil, fmt.Errorf("humanrail: failed to unmarshal response: %w", err)
	}
	return &task, nil
}

// CancelTask cancels a task that has not yet reached a terminal state.
//
// Tasks in posted or assigned status can be cancelled; cancelling a task
// already in a terminal state returns a ConflictError.
func (c *Client) CancelTask(ctx context.Context, taskID string) (*TaskCancelResult, error) {
	path := fmt.Sprintf("/tasks/%s/cancel", url.PathEscape(taskID))

	respBody, err := c.doRequest(ctx, stdhttp.MethodPost, path, nil, "")
	if err != nil {
		return nil, err
	}

	var result TaskCancelResult
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("humanrail: failed to unmarshal response: %w", err)
	}
	return &result, nil
}

// ListTasks lists tasks with optional filters and pagination.
func (c *Client) ListTasks(ctx context.Context, params TaskListParams) (*TaskListResponse, error) {
	query := url.Values{}
	if params.Status != "" {
		query.Set("status", string(params.Status))
	}
	if params.TaskType != "" {
		query.Set("task_type", params.TaskType)
	}
	if params.Limit > 0 {
		query.Set("limit", strconv.Itoa(params.Limit))
	}
	if params.After != "" {
		query.Set("after", params.After)
	}
	if params.CreatedAfter != "" {
		query.Set("created_after", params.CreatedAfter)
	}
	if params.CreatedBefore != "" {
		query.Set("created_before", params.CreatedBefore)
	}

	path := "/tasks"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	respBody, err := c.doRequest(ctx, stdhttp.MethodGet, path, nil, "")
	if err != nil {
		return nil, err
	}

	var result TaskListResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("humanrail: failed to unmarshal response: %w", err)
	}
	return &result, nil
}

// GenerateIdempotencyKey derives a deterministic idempotency key from a
// namespace and identifying parts, so that repeated calls for the same
// logical operation always produce the same key.
//
//	key := humanrail.GenerateIdempotencyKey("order-service", "order-12345", "refund-check")
//	// => "order-service:a1b2c3d4..."
func GenerateIdempotencyKey(namespace string, parts ...string) string {
	hash := sha256.Sum256([]byte(strings.Join(parts, ":")))
	return fmt.Sprintf("%s:%x", namespace, hash[:16])
}

// doRequest runs one logical operation through the retry executor. Each
// attempt builds a fresh request; the Idempotency-Key header, when set, is
// carried on every attempt.
func (c *Client) doRequest(ctx context.Context, method, path string, body []byte, idempotencyKey string) ([]byte, error) {
	return retry.Execute(ctx, c.policy, func(ctx context.Context, attempt int) retry.Outcome {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}

		req, err := stdhttp.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return retry.Fatal(&APIError{
				Message: fmt.Sprintf("failed to build request for %s %s", method, path),
				Err:     err,
			})
		}
		if idempotencyKey != "" {
			req.Header.Set("Idempotency-Key", idempotencyKey)
		}

		resp, err := c.http.Do(ctx, req)
		if err != nil {
			return c.transportOutcome(method, path, err)
		}
		// Drain whatever a failed read leaves behind so the connection
		// goes back to the pool.
		defer httpclient.DrainAndClose(resp.Body)

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return retry.Retryable(&APIError{
				Message: fmt.Sprintf("failed to read response body: %s", err.Error()),
				Err:     err,
			}, 0)
		}

		requestID := resp.Header.Get("X-Request-Id")

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return retry.Success(respBody)
		}

		var errorBody *APIErrorResponse
		if err := json.Unmarshal(respBody, &errorBody); err != nil {
			errorBody = nil
		}
		retryAfter := httpclient.ParseRetryAfter(resp.Header.Get("Retry-After"))

		typed := Classify(resp.StatusCode, errorBody, requestID, retryAfter)
		if IsRetryableStatus(resp.StatusCode) {
			return retry.Retryable(typed, retryAfter)
		}
		return retry.Fatal(typed)
	})
}

// transportOutcome maps a transport-level failure to an attempt outcome.
// Timeouts and network failures are retryable; a cancelled context is not,
// since the caller has already given up.
func (c *Client) transportOutcome(method, path string, err error) retry.Outcome {
	if errors.Is(err, context.Canceled) {
		return retry.Fatal(err)
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return retry.Retryable(&TimeoutError{
			APIError: APIError{
				Message: fmt.Sprintf("request to %s %s timed out after %s", method, path, c.timeout),
				Err:     err,
			},
			Timeout: c.timeout,
		}, 0)
	}

	return retry.Retryable(&APIError{
		Message: fmt.Sprintf("request to %s %s failed: %s", method, path, err.Error()),
		Err:     err,
	}, 0)
}
