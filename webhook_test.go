package humanrail_test

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	humanrail "github.com/prime001/humanrail-sdk"
)

const webhookSecret = "whsec_test"

func TestVerifyWebhookSignature_RoundTrip(t *testing.T) {
	payload := []byte(`{"id":"evt_1","type":"task.verified"}`)
	now := time.Now().Unix()

	sig := humanrail.ConstructWebhookSignature(payload, webhookSecret, now)
	assert.True(t, humanrail.VerifyWebhookSignature(payload, sig, webhookSecret, 5*time.Minute))
}

func TestVerifyWebhookSignature_WrongSecret(t *testing.T) {
	payload := []byte("abc")
	sig := humanrail.ConstructWebhookSignature(payload, "secret-a", time.Now().Unix())
	assert.False(t, humanrail.VerifyWebhookSignature(payload, sig, "secret-b", 5*time.Minute))
}

func TestVerifyWebhookSignature_MutatedPayload(t *testing.T) {
	sig := humanrail.ConstructWebhookSignature([]byte("abc"), webhookSecret, time.Now().Unix())
	assert.True(t, humanrail.VerifyWebhookSignature([]byte("abc"), sig, webhookSecret, 5*time.Minute))
	assert.False(t, humanrail.VerifyWebhookSignature([]byte("abd"), sig, webhookSecret, 5*time.Minute))
}

func TestVerifyWebhookSignature_Freshness(t *testing.T) {
	payload := []byte("abc")
	tolerance := 300 * time.Second

	// Just inside the window.
	fresh := humanrail.ConstructWebhookSignature(payload, webhookSecret, time.Now().Unix()-299)
	assert.True(t, humanrail.VerifyWebhookSignature(payload, fresh, webhookSecret, tolerance))

	// Just outside the window.
	stale := humanrail.ConstructWebhookSignature(payload, webhookSecret, time.Now().Unix()-301)
	assert.False(t, humanrail.VerifyWebhookSignature(payload, stale, webhookSecret, tolerance))

	// Future timestamps beyond the window are rejected too: clock skew must
	// not become a replay loophole.
	future := humanrail.ConstructWebhookSignature(payload, webhookSecret, time.Now().Unix()+301)
	assert.False(t, humanrail.VerifyWebhookSignature(payload, future, webhookSecret, tolerance))

	// Zero tolerance disables the freshness check.
	old := humanrail.ConstructWebhookSignature(payload, webhookSecret, time.Now().Unix()-86400)
	assert.True(t, humanrail.VerifyWebhookSignature(payload, old, webhookSecret, 0))
}

func TestVerifyWebhookSignature_MalformedInput(t *testing.T) {
	payload := []byte("abc")
	valid := humanrail.ConstructWebhookSignature(payload, webhookSecret, time.Now().Unix())

	tests := []struct {
		name      string
		payload   []byte
		signature string
		secret    string
	}{
		{"empty payload", nil, valid, webhookSecret},
		{"empty signature", payload, "", webhookSecret},
		{"empty secret", payload, valid, ""},
		{"missing v1 field", payload, fmt.Sprintf("t=%d", time.Now().Unix()), webhookSecret},
		{"missing t field", payload, "v1=deadbeef", webhookSecret},
		{"non-numeric timestamp", payload, "t=notanumber,v1=deadbeef", webhookSecret},
		{"non-hex mac", payload, fmt.Sprintf("t=%d,v1=zzzz", time.Now().Unix()), webhookSecret},
		{"garbage header", payload, "totally-not-a-signature", webhookSecret},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Must return false, never panic.
			assert.False(t, humanrail.VerifyWebhookSignature(tt.payload, tt.signature, tt.secret, 5*time.Minute))
		})
	}
}

func TestParseWebhookEvent(t *testing.T) {
	event := humanrail.WebhookEvent{
		ID:   "evt_1",
		Type: humanrail.WebhookEventTaskVerified,
		Data: humanrail.Task{ID: "task_1", Status: humanrail.TaskStatusVerified},
	}
	payload, err := json.Marshal(event)
	require.NoError(t, err)

	sig := humanrail.ConstructWebhookSignature(payload, webhookSecret, time.Now().Unix())

	parsed, err := humanrail.ParseWebhookEvent(payload, sig, webhookSecret, 5*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "evt_1", parsed.ID)
	assert.Equal(t, humanrail.WebhookEventTaskVerified, parsed.Type)
	assert.Equal(t, humanrail.TaskStatusVerified, parsed.Data.Status)
}

func TestParseWebhookEvent_BadSignature(t *testing.T) {
	payload := []byte(`{"id":"evt_1"}`)
	sig := humanrail.ConstructWebhookSignature(payload, "other-secret", time.Now().Unix())

	_, err := humanrail.ParseWebhookEvent(payload, sig, webhookSecret, 5*time.Minute)
	assert.ErrorIs(t, err, humanrail.ErrSignatureInvalid)
}

func TestParseWebhookEvent_ReserializationBreaksSignature(t *testing.T) {
	// The signature covers the raw bytes; a semantically equal but
	// re-serialized body must fail verification.
	original := []byte(`{"id": "evt_1", "type": "task.verified"}`)
	sig := humanrail.ConstructWebhookSignature(original, webhookSecret, time.Now().Unix())

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(original, &decoded))
	reserialized, err := json.Marshal(decoded)
	require.NoError(t, err)

	_, err = humanrail.ParseWebhookEvent(reserialized, sig, webhookSecret, 5*time.Minute)
	assert.ErrorIs(t, err, humanrail.ErrSignatureInvalid)
}

func TestTaskStatus_IsTerminal(t *testing.T) {
	terminal := []humanrail.TaskStatus{
		humanrail.TaskStatusVerified,
		humanrail.TaskStatusFailed,
		humanrail.TaskStatusCancelled,
		humanrail.TaskStatusExpired,
	}
	for _, s := range terminal {
		assert.True(t, s.IsTerminal(), "status %s", s)
	}

	nonTerminal := []humanrail.TaskStatus{
		humanrail.TaskStatusPosted,
		humanrail.TaskStatusAssigned,
		humanrail.TaskStatusSubmitted,
	}
	for _, s := range nonTerminal {
		assert.False(t, s.IsTerminal(), "status %s", s)
	}
}
