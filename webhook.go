package humanrail

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SignatureHeader is the HTTP header carrying the webhook signature,
// formatted as t=<unix-seconds>,v1=<hex HMAC-SHA256>.
const SignatureHeader = "x-escalation-signature"

// ErrSignatureInvalid is returned by ParseWebhookEvent when the signature is
// missing, malformed, stale or does not match the payload.
var ErrSignatureInvalid = errors.New("humanrail: webhook signature verification failed")

// VerifyWebhookSignature verifies the authenticity and freshness of a
// webhook delivery.
//
// payload must be the raw received body bytes: re-serializing a parsed JSON
// structure changes the bytes and invalidates the signature. The signed
// payload is "<timestamp>.<body>" and the MAC is HMAC-SHA256 under the
// organization's webhook secret. Signatures whose timestamp differs from the
// current time by more than tolerance are rejected in either direction,
// which defends against both replayed and clock-skewed deliveries; a
// tolerance of 0 disables the freshness check.
//
// The function never panics on malformed input; any parse failure simply
// yields false.
func VerifyWebhookSignature(payload []byte, signature, secret string, tolerance time.Duration) bool {
	if len(payload) == 0 || signature == "" || secret == "" {
		return false
	}

	var timestampStr, providedMAC string
	for _, part := range strings.Split(signature, ",") {
		part = strings.TrimSpace(part)
		switch {
		case strings.HasPrefix(part, "t="):
			timestampStr = part[2:]
		case strings.HasPrefix(part, "v1="):
			providedMAC = part[3:]
		}
	}
	if timestampStr == "" || providedMAC == "" {
		return false
	}

	timestamp, err := strconv.ParseInt(timestampStr, 10, 64)
	if err != nil {
		return false
	}

	if tolerance > 0 {
		age := time.Now().Unix() - timestamp
		if age < 0 {
			age = -age
		}
		if age > int64(tolerance.Seconds()) {
			return false
		}
	}

	providedBytes, err := hex.DecodeString(providedMAC)
	if err != nil {
		return false
	}

	return hmac.Equal(providedBytes, computeMAC(payload, secret, timestampStr))
}

// ConstructWebhookSignature produces a signature header for the given
// payload, in the same format the service emits. Intended for test fixtures
// and local tooling; do not use it to fake deliveries in production. A zero
// timestamp means the current time.
func ConstructWebhookSignature(payload []byte, secret string, timestamp int64) string {
	if timestamp == 0 {
		timestamp = time.Now().Unix()
	}
	ts := strconv.FormatInt(timestamp, 10)
	return fmt.Sprintf("t=%s,v1=%s", ts, hex.EncodeToString(computeMAC(payload, secret, ts)))
}

// ParseWebhookEvent verifies a webhook delivery against its raw body and
// unmarshals the event. It returns ErrSignatureInvalid when verification
// fails, before any of the payload is interpreted.
func ParseWebhookEvent(payload []byte, signature, secret string, tolerance time.Duration) (*WebhookEvent, error) {
	if !VerifyWebhookSignature(payload, signature, secret, tolerance) {
		return nil, ErrSignatureInvalid
	}

	var event WebhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("humanrail: failed to unmarshal webhook event: %w", err)
	}
	return &event, nil
}

// computeMAC computes HMAC-SHA256(secret, "<timestamp>.<payload>").
func computeMAC(payload []byte, secret, timestamp string) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte{'.'})
	mac.Write(payload)
	return mac.Sum(nil)
}
