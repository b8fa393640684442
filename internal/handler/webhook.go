package handler

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/sakif/taskvault/internal/service"
)

// WebhookHandler is the payment provider's entry point. It bypasses the auth
// gate entirely — providers don't hold sessions — and instead verifies an
// HMAC signature over the raw body when a shared secret is configured.
type WebhookHandler struct {
	webhookService *service.WebhookService
	secret         string
	logger         *slog.Logger
}

// NewWebhookHandler creates a WebhookHandler. An empty secret disables
// signature verification (local development against provider CLIs that
// don't sign).
func NewWebhookHandler(webhookService *service.WebhookService, secret string, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		webhookService: webhookService,
		secret:         secret,
		logger:         logger,
	}
}

// HandleWebhook ingests one provider event.
//
// HTTP: POST /api/webhooks/payment
// Body: {"id": "evt_...", "type": "subscription.created", "data": {...}}
//
// 200 {"success": true} for applied events AND for unrecognized types — the
// provider retries anything non-2xx, and an event type we don't know about
// is not a delivery failure. 400 for malformed payloads, 401 for bad
// signatures.
func (h *WebhookHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid_body", Message: "could not read request body"})
		return
	}

	if h.secret != "" && !h.verifySignature(body, r.Header.Get("X-Webhook-Signature")) {
		h.logger.Warn("webhook signature verification failed")
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "invalid_signature", Message: "webhook signature verification failed"})
		return
	}

	var event service.WebhookEvent
	if err := json.NewDecoder(bytes.NewReader(body)).Decode(&event); err != nil {
		h.logger.Warn("invalid webhook JSON", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid_json", Message: "request body must be valid JSON"})
		return
	}

	if err := h.webhookService.Process(r.Context(), event); err != nil {
		h.logger.Error("webhook processing failed",
			slog.String("eventID", event.ID),
			slog.String("type", event.Type),
			slog.String("error", err.Error()),
		)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

// verifySignature checks a hex-encoded HMAC-SHA256 of the raw body.
// hmac.Equal compares in constant time.
func (h *WebhookHandler) verifySignature(body []byte, signature string) bool {
	if signature == "" {
		return false
	}

	provided, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(h.secret))
	mac.Write(body)
	expected := mac.Sum(nil)

	return hmac.Equal(provided, expected)
}
