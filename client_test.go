package humanrail_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	humanrail "github.com/prime001/humanrail-sdk"
	"github.com/prime001/humanrail-sdk/pkg/retry"
)

// fastPolicy retries without delay so tests stay quick.
func fastPolicy(maxRetries int) retry.Policy {
	return retry.Policy{
		MaxRetries: maxRetries,
		Backoff:    retry.BackoffNone,
		BaseDelay:  time.Millisecond,
		MaxDelay:   time.Second,
	}
}

func newTestClient(srvURL string, maxRetries int) *humanrail.Client {
	return humanrail.NewClient("hr_test_key",
		humanrail.WithBaseURL(srvURL),
		humanrail.WithRetryPolicy(fastPolicy(maxRetries)),
	)
}

func validCreateRequest() humanrail.TaskCreateRequest {
	return humanrail.TaskCreateRequest{
		IdempotencyKey: "order-1-refund",
		TaskType:       "refund_eligibility",
		Payload:        map[string]any{"orderId": "order-1"},
		OutputSchema:   map[string]any{"type": "object"},
		Payout:         humanrail.Payout{Currency: humanrail.PayoutCurrencyUSD, MaxAmount: 0.5},
	}
}

func writeTask(w http.ResponseWriter, status humanrail.TaskStatus) {
	task := humanrail.Task{
		ID:             "task_1",
		IdempotencyKey: "order-1-refund",
		Status:         status,
		TaskType:       "refund_eligibility",
	}
	_ = json.NewEncoder(w).Encode(task)
}

func TestCreateTask(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/tasks", r.URL.Path)
		require.Equal(t, "Bearer hr_test_key", r.Header.Get("Authorization"))
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.Equal(t, "order-1-refund", r.Header.Get("Idempotency-Key"))

		var req humanrail.TaskCreateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "refund_eligibility", req.TaskType)
		// Defaults are filled in before sending.
		assert.Equal(t, humanrail.RiskTierMedium, req.RiskTier)
		assert.Equal(t, 600, req.SLASeconds)

		writeTask(w, humanrail.TaskStatusPosted)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, 0)
	task, err := client.CreateTask(context.Background(), validCreateRequest())
	require.NoError(t, err)
	assert.Equal(t, "task_1", task.ID)
	assert.Equal(t, humanrail.TaskStatusPosted, task.Status)
}

func TestCreateTask_ValidatesBeforeSending(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, 0)

	req := validCreateRequest()
	req.TaskType = ""
	_, err := client.CreateTask(context.Background(), req)
	require.Error(t, err)
	assert.True(t, humanrail.IsValidation(err))
	assert.Equal(t, 0, requests, "invalid request must not touch the network")
}

func TestCreateTask_IdempotencyKeyForwardedOnRetries(t *testing.T) {
	var keys []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		keys = append(keys, r.Header.Get("Idempotency-Key"))
		if len(keys) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		writeTask(w, humanrail.TaskStatusPosted)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, 3)
	_, err := client.CreateTask(context.Background(), validCreateRequest())
	require.NoError(t, err)

	require.Len(t, keys, 3)
	for i, key := range keys {
		assert.Equal(t, "order-1-refund", key, "attempt %d", i)
	}
}

func TestGetTask_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Request-Id", "req_abc")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"type":"not_found","message":"no such task"},"requestId":"req_abc"}`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, 3)
	_, err := client.GetTask(context.Background(), "task_missing")
	require.Error(t, err)

	var notFound *humanrail.TaskNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, 404, notFound.StatusCode)
	assert.Equal(t, "req_abc", notFound.RequestID)
	assert.Contains(t, notFound.Message, "no such task")
}

func TestGetTask_FatalErrorNotRetried(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"type":"authentication_error","message":"bad key"}}`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, 5)
	_, err := client.GetTask(context.Background(), "task_1")
	require.Error(t, err)
	assert.True(t, humanrail.IsAuthentication(err))
	assert.Equal(t, 1, attempts)
}

func TestGetTask_RetriesExhaustedSurfaceLastError(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, 2)
	_, err := client.GetTask(context.Background(), "task_1")
	require.Error(t, err)

	var srvErr *humanrail.ServerError
	require.ErrorAs(t, err, &srvErr, "the last typed error surfaces verbatim")
	assert.Equal(t, 502, srvErr.StatusCode)
	assert.Equal(t, 3, attempts)
}

func TestGetTask_RateLimitCarriesRetryAfter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "2")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, 0)
	_, err := client.GetTask(context.Background(), "task_1")
	require.Error(t, err)

	var rl *humanrail.RateLimitError
	require.ErrorAs(t, err, &rl)
	assert.Equal(t, 2*time.Second, rl.RetryAfter)
}

func TestCancelTask(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/tasks/task_1/cancel", r.URL.Path)
		_ = json.NewEncoder(w).Encode(humanrail.TaskCancelResult{
			ID:     "task_1",
			Status: humanrail.TaskStatusCancelled,
		})
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, 0)
	result, err := client.CancelTask(context.Background(), "task_1")
	require.NoError(t, err)
	assert.Equal(t, humanrail.TaskStatusCancelled, result.Status)
}

func TestListTasks_QueryParams(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "posted", q.Get("status"))
		assert.Equal(t, "refund_eligibility", q.Get("task_type"))
		assert.Equal(t, "50", q.Get("limit"))
		assert.Equal(t, "task_9", q.Get("after"))
		_ = json.NewEncoder(w).Encode(humanrail.TaskListResponse{
			Data:       []humanrail.Task{{ID: "task_10"}},
			HasMore:    true,
			NextCursor: "task_10",
		})
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, 0)
	resp, err := client.ListTasks(context.Background(), humanrail.TaskListParams{
		Status:   humanrail.TaskStatusPosted,
		TaskType: "refund_eligibility",
		Limit:    50,
		After:    "task_9",
	})
	require.NoError(t, err)
	require.Len(t, resp.Data, 1)
	assert.True(t, resp.HasMore)
	assert.Equal(t, "task_10", resp.NextCursor)
}

func TestGetTask_NetworkErrorRetried(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeTask(w, humanrail.TaskStatusPosted)
	}))
	// Closing the server makes the first client fail at the transport level.
	srv.Close()

	client := newTestClient(srv.URL, 1)
	_, err := client.GetTask(context.Background(), "task_1")
	require.Error(t, err)

	var apiErr *humanrail.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Contains(t, apiErr.Message, "failed")
}

func TestGenerateIdempotencyKey(t *testing.T) {
	key1 := humanrail.GenerateIdempotencyKey("order-service", "order-1", "refund")
	key2 := humanrail.GenerateIdempotencyKey("order-service", "order-1", "refund")
	key3 := humanrail.GenerateIdempotencyKey("order-service", "order-2", "refund")

	assert.Equal(t, key1, key2, "same inputs must produce the same key")
	assert.NotEqual(t, key1, key3)
	assert.Contains(t, key1, "order-service:")
}

func TestRequestLogOmitsQueryString(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(humanrail.TaskListResponse{})
	}))
	defer srv.Close()

	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	client := humanrail.NewClient("hr_test_key",
		humanrail.WithBaseURL(srv.URL),
		humanrail.WithRetryPolicy(fastPolicy(0)),
		humanrail.WithLogger(log),
	)
	_, err := client.ListTasks(context.Background(), humanrail.TaskListParams{
		Status: humanrail.TaskStatusPosted,
		Limit:  5,
		After:  "task_42",
	})
	require.NoError(t, err)

	logged := buf.String()
	assert.Contains(t, logged, "/tasks")
	assert.NotContains(t, logged, "status=", "list filters stay out of request logs")
	assert.NotContains(t, logged, "task_42", "pagination cursors stay out of request logs")
}
