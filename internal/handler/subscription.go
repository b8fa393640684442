package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/sakif/taskvault/internal/apperror"
	"github.com/sakif/taskvault/internal/auth"
	"github.com/sakif/taskvault/internal/service"
)

// SubscriptionHandler exposes the premium-status read and the checkout/portal
// redirects. All three routes require authentication; the subscription rows
// themselves are only ever written by the webhook handler.
type SubscriptionHandler struct {
	subService *service.SubscriptionService
	logger     *slog.Logger
}

// NewSubscriptionHandler creates a SubscriptionHandler.
func NewSubscriptionHandler(subService *service.SubscriptionService, logger *slog.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{
		subService: subService,
		logger:     logger,
	}
}

type createCheckoutRequest struct {
	PriceID    string `json:"priceId"`
	SuccessURL string `json:"successUrl"`
	CancelURL  string `json:"cancelUrl"`
}

type checkoutResponse struct {
	CheckoutURL string `json:"checkoutUrl"`
}

type portalResponse struct {
	PortalURL string `json:"portalUrl"`
}

// HandleGetSubscription returns the caller's active subscription, or JSON
// null when there is none — "no subscription" is a normal answer, not a 404.
//
// HTTP: GET /api/subscription
func (h *SubscriptionHandler) HandleGetSubscription(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	sub, err := h.subService.GetActive(r.Context(), user.ID)
	if err != nil {
		h.logger.Error("failed to get subscription", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	if sub == nil {
		// Encode an explicit null body rather than sending no body.
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("null\n"))
		return
	}

	writeJSON(w, http.StatusOK, sub)
}

// HandleCreateCheckout builds a provider checkout URL for the caller.
//
// HTTP: POST /api/checkout
// Body: {"priceId": "...", "successUrl": "...", "cancelUrl": "..."}
func (h *SubscriptionHandler) HandleCreateCheckout(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	var req createCheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid checkout JSON", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid_json", Message: "request body must be valid JSON"})
		return
	}

	url, err := h.subService.CreateCheckout(r.Context(), user.ID, req.PriceID, req.SuccessURL, req.CancelURL)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, checkoutResponse{CheckoutURL: url})
}

// HandleCreatePortal builds a provider billing-portal URL for the caller.
//
// HTTP: POST /api/portal
//
// 404 when the caller has no subscription history — there is no customer
// record for the portal to show.
func (h *SubscriptionHandler) HandleCreatePortal(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	url, err := h.subService.CreatePortal(r.Context(), user.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, portalResponse{PortalURL: url})
}
