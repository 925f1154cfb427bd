package humanrail

import "time"

// TaskStatus is the position of a task in the review pipeline.
//
// Lifecycle: posted → assigned → submitted → verified.
// Terminal states: verified, failed, cancelled, expired.
type TaskStatus string

const (
	TaskStatusPosted    TaskStatus = "posted"
	TaskStatusAssigned  TaskStatus = "assigned"
	TaskStatusSubmitted TaskStatus = "submitted"
	TaskStatusVerified  TaskStatus = "verified"
	TaskStatusFailed    TaskStatus = "failed"
	TaskStatusCancelled TaskStatus = "cancelled"
	TaskStatusExpired   TaskStatus = "expired"
)

// IsTerminal reports whether no further status transition can occur.
func (s TaskStatus) IsTerminal() bool {
	switch s {
	case TaskStatusVerified, TaskStatusFailed, TaskStatusCancelled, TaskStatusExpired:
		return true
	default:
		return false
	}
}

// RiskTier selects the reviewer pool and verification depth.
type RiskTier string

const (
	RiskTierLow      RiskTier = "low"
	RiskTierMedium   RiskTier = "medium"
	RiskTierHigh     RiskTier = "high"
	RiskTierCritical RiskTier = "critical"
)

// PayoutCurrency is the currency for reviewer payouts.
type PayoutCurrency string

const (
	PayoutCurrencyUSD  PayoutCurrency = "USD"
	PayoutCurrencySATS PayoutCurrency = "SATS"
	PayoutCurrencyBTC  PayoutCurrency = "BTC"
)

// PayoutRail is the payment rail used for payouts.
type PayoutRail string

const (
	PayoutRailLightning PayoutRail = "lightning"
	PayoutRailStrike    PayoutRail = "strike"
	PayoutRailInternal  PayoutRail = "internal"
)

// Payout is the payout configuration for a task.
type Payout struct {
	Currency PayoutCurrency `json:"currency" validate:"required,oneof=USD SATS BTC"`
	// MaxAmount is the most the caller is willing to pay for this task.
	MaxAmount float64 `json:"maxAmount" validate:"required,gt=0"`
}

// PayoutResult describes an executed payout.
type PayoutResult struct {
	ID       string         `json:"id"`
	Amount   float64        `json:"amount"`
	Currency PayoutCurrency `json:"currency"`
	Rail     PayoutRail     `json:"rail"`
	// PaidAt is the ISO 8601 timestamp of the payout execution.
	PaidAt string `json:"paidAt"`
}

// TaskCreateRequest is the request body for CreateTask.
//
// The validate tags are enforced client-side before any request is sent;
// a violation surfaces as a ValidationError without touching the network.
type TaskCreateRequest struct {
	// IdempotencyKey makes repeated creates of the same logical task safe.
	IdempotencyKey string `json:"idempotencyKey" validate:"required"`
	// TaskType identifies the kind of review, e.g. "refund_eligibility".
	TaskType string `json:"taskType" validate:"required"`
	// RiskTier defaults to medium when empty.
	RiskTier RiskTier `json:"riskTier,omitempty" validate:"omitempty,oneof=low medium high critical"`
	// SLASeconds defaults to 600 when zero.
	SLASeconds int `json:"slaSeconds,omitempty" validate:"omitempty,gt=0"`
	// Payload is arbitrary context shown to the reviewer.
	Payload map[string]any `json:"payload" validate:"required"`
	// OutputSchema is the JSON Schema the reviewer's output must satisfy.
	OutputSchema map[string]any `json:"outputSchema" validate:"required"`
	Payout       Payout         `json:"payout"`
	// CallbackURL receives signed webhook events for this task.
	CallbackURL string `json:"callbackUrl,omitempty" validate:"omitempty,url"`
	// Metadata is caller-side tracking data, never shown to reviewers.
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Task is a unit of work delegated to human review.
type Task struct {
	ID             string         `json:"id"`
	IdempotencyKey string         `json:"idempotencyKey"`
	Status         TaskStatus     `json:"status"`
	TaskType       string         `json:"taskType"`
	RiskTier       RiskTier       `json:"riskTier"`
	SLASeconds     int            `json:"slaSeconds"`
	Payload        map[string]any `json:"payload"`
	OutputSchema   map[string]any `json:"outputSchema"`
	Payout         Payout         `json:"payout"`
	CallbackURL    string         `json:"callbackUrl,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	// Output is the verified reviewer output; present only when Status is verified.
	Output map[string]any `json:"output,omitempty"`
	// PayoutResult is present once the reviewer was paid.
	PayoutResult *PayoutResult `json:"payoutResult,omitempty"`
	// FailureReason is present when Status is failed.
	FailureReason string `json:"failureReason,omitempty"`
	CreatedAt     string `json:"createdAt"`
	UpdatedAt     string `json:"updatedAt"`
	ExpiresAt     string `json:"expiresAt"`
}

// TaskCancelResult is the response of CancelTask.
type TaskCancelResult struct {
	ID          string     `json:"id"`
	Status      TaskStatus `json:"status"`
	CancelledAt string     `json:"cancelledAt"`
}

// TaskListParams filters and paginates ListTasks.
type TaskListParams struct {
	Status   TaskStatus
	TaskType string
	// Limit caps the page size; the server defaults to 20 when zero.
	Limit int
	// After is the pagination cursor from a previous page.
	After         string
	CreatedAfter  string
	CreatedBefore string
}

// TaskListResponse is one page of tasks.
type TaskListResponse struct {
	Data    []Task `json:"data"`
	HasMore bool   `json:"hasMore"`
	// NextCursor is passed as TaskListParams.After for the next page.
	NextCursor string `json:"nextCursor,omitempty"`
}

// WaitOptions configures WaitForCompletion.
type WaitOptions struct {
	// PollInterval is the pause between status reads. Defaults to 2s.
	PollInterval time.Duration
	// Timeout bounds the whole wait. Defaults to 10 minutes.
	Timeout time.Duration
}

// WebhookEventType is the type of a webhook event.
type WebhookEventType string

const (
	WebhookEventTaskPosted    WebhookEventType = "task.posted"
	WebhookEventTaskAssigned  WebhookEventType = "task.assigned"
	WebhookEventTaskSubmitted WebhookEventType = "task.submitted"
	WebhookEventTaskVerified  WebhookEventType = "task.verified"
	WebhookEventTaskFailed    WebhookEventType = "task.failed"
	WebhookEventTaskCancelled WebhookEventType = "task.cancelled"
	WebhookEventTaskExpired   WebhookEventType = "task.expired"
)

// WebhookEvent is a signed notification delivered to the callback URL.
type WebhookEvent struct {
	ID        string           `json:"id"`
	Type      WebhookEventType `json:"type"`
	CreatedAt string           `json:"createdAt"`
	// Data is the task snapshot at the time of the event.
	Data Task `json:"data"`
}

// APIErrorResponse is the error body returned by the API.
type APIErrorResponse struct {
	Error struct {
		Type    string         `json:"type"`
		Message string         `json:"message"`
		Code    string         `json:"code,omitempty"`
		Details map[string]any `json:"details,omitempty"`
	} `json:"error"`
	RequestID string `json:"requestId"`
}
