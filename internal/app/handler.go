package app

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	humanrail "github.com/prime001/humanrail-sdk"
	"github.com/prime001/humanrail-sdk/internal/eventstore"
	"github.com/prime001/humanrail-sdk/internal/notify"
)

// WebhookHandler verifies, deduplicates and records incoming deliveries.
type WebhookHandler struct {
	secret    string
	tolerance time.Duration
	store     eventstore.Store
	notifier  notify.Notifier // may be nil
	log       *slog.Logger
}

// NewWebhookHandler creates a WebhookHandler. notifier may be nil.
func NewWebhookHandler(secret string, tolerance time.Duration, store eventstore.Store, notifier notify.Notifier, log *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		secret:    secret,
		tolerance: tolerance,
		store:     store,
		notifier:  notifier,
		log:       log,
	}
}

// Routes registers the handler's endpoints on r.
func (h *WebhookHandler) Routes(r *gin.Engine) {
	r.POST("/webhooks/humanrail", h.handleWebhook)
	r.GET("/healthz", h.handleHealth)
}

func (h *WebhookHandler) handleWebhook(c *gin.Context) {
	reqID := uuid.NewString()
	log := h.log.With("request_id", reqID)

	body, err := c.GetRawData()
	if err != nil {
		log.Warn("body read failed", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}

	// Verification runs on the raw bytes: re-serialized JSON would not
	// match the MAC the sender computed.
	sig := c.GetHeader(humanrail.SignatureHeader)
	if !humanrail.VerifyWebhookSignature(body, sig, h.secret, h.tolerance) {
		log.Warn("signature rejected", "remote", c.ClientIP())
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid signature"})
		return
	}

	var ev humanrail.WebhookEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		log.Warn("malformed event payload", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed payload"})
		return
	}
	if ev.ID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing event id"})
		return
	}

	inserted, err := h.store.InsertEvent(c.Request.Context(), &ev, body)
	if err != nil {
		log.Error("event insert failed", "event_id", ev.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storage failure"})
		return
	}
	if !inserted {
		log.Debug("duplicate delivery", "event_id", ev.ID)
		c.JSON(http.StatusOK, gin.H{"received": true, "duplicate": true})
		return
	}

	if err := h.store.UpsertTask(c.Request.Context(), &ev.Data); err != nil {
		log.Error("task upsert failed", "task_id", ev.Data.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storage failure"})
		return
	}

	log.Info("event recorded",
		"event_id", ev.ID,
		"type", string(ev.Type),
		"task_id", ev.Data.ID,
		"status", string(ev.Data.Status),
	)

	if h.notifier != nil && ev.Data.Status.IsTerminal() {
		if err := h.notifier.TaskTerminal(c.Request.Context(), &ev.Data); err != nil {
			// Notification is best effort; the event is already recorded.
			log.Warn("notification failed", "task_id", ev.Data.ID, "error", err)
		}
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}

func (h *WebhookHandler) handleHealth(c *gin.Context) {
	if err := h.store.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
