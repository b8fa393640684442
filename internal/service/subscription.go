package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/rs/xid"
	"github.com/sakif/taskvault/internal/apperror"
	"github.com/sakif/taskvault/internal/model"
	"github.com/sakif/taskvault/internal/repository"
)

// PaymentConfig points at the payment provider's hosted pages.
//
// The provider is an external collaborator: this service only constructs
// redirect URLs and reads back the subscription rows that the provider's
// webhooks have written. It never mutates subscription state itself.
type PaymentConfig struct {
	CheckoutBaseURL string // e.g. https://checkout.dodopayments.com/pay
	PortalBaseURL   string // e.g. https://portal.dodopayments.com/session
}

// SubscriptionService answers premium-status queries and builds the
// checkout/portal redirects that hand a user over to the payment provider.
type SubscriptionService struct {
	subs   repository.SubscriptionRepository
	users  repository.UserRepository
	config PaymentConfig
	logger *slog.Logger
}

// NewSubscriptionService creates a SubscriptionService.
func NewSubscriptionService(
	subs repository.SubscriptionRepository,
	users repository.UserRepository,
	config PaymentConfig,
	logger *slog.Logger,
) *SubscriptionService {
	return &SubscriptionService{
		subs:   subs,
		users:  users,
		config: config,
		logger: logger,
	}
}

// GetActive returns the user's active subscription, or nil when the user has
// none — nil here is the "not premium" answer, not an error.
func (s *SubscriptionService) GetActive(ctx context.Context, userID string) (*model.Subscription, error) {
	sub, err := s.subs.GetActiveSubscription(ctx, userID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting active subscription: %w", err)
	}
	return sub, nil
}

// CreateCheckout builds a provider checkout URL for the authenticated user.
//
// The user's email and name ride along so the provider can prefill its form;
// the success/cancel URLs are where the provider sends the browser afterward.
// The user row is re-read so a deleted account can't start a checkout.
func (s *SubscriptionService) CreateCheckout(ctx context.Context, userID, priceID, successURL, cancelURL string) (string, error) {
	if priceID == "" {
		return "", apperror.ValidationFailed("priceId", "priceId is required")
	}
	if !validHTTPURL(successURL) {
		return "", apperror.ValidationFailed("successUrl", "successUrl must be a valid http(s) URL")
	}
	if !validHTTPURL(cancelURL) {
		return "", apperror.ValidationFailed("cancelUrl", "cancelUrl must be a valid http(s) URL")
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("loading user for checkout: %w", err)
	}

	// Each checkout gets its own session ID so the provider's callbacks can
	// be correlated with this attempt.
	checkoutID := "cs_" + xid.New().String()

	query := url.Values{}
	query.Set("price_id", priceID)
	query.Set("success_url", successURL)
	query.Set("cancel_url", cancelURL)
	query.Set("customer_email", user.Email)
	query.Set("customer_name", user.Name)

	checkoutURL := fmt.Sprintf("%s/%s?%s", s.config.CheckoutBaseURL, checkoutID, query.Encode())

	s.logger.Info("checkout created",
		slog.String("userID", userID),
		slog.String("checkoutID", checkoutID),
	)

	return checkoutURL, nil
}

// CreatePortal builds a provider billing-portal URL for the user.
//
// The portal needs the provider's customer ID, which only exists once a
// subscription row has been written by a webhook. Active subscriptions are
// preferred; with none, the most recent row of any status still identifies
// the customer. A user with no subscription history gets ErrNotFound.
func (s *SubscriptionService) CreatePortal(ctx context.Context, userID string) (string, error) {
	sub, err := s.subs.GetActiveSubscription(ctx, userID)
	if errors.Is(err, apperror.ErrNotFound) {
		sub, err = s.subs.GetLatestSubscription(ctx, userID)
	}
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return "", apperror.NotFound("subscription", userID)
		}
		return "", fmt.Errorf("loading subscription for portal: %w", err)
	}

	query := url.Values{}
	query.Set("customer_id", sub.CustomerID)

	portalURL := fmt.Sprintf("%s?%s", s.config.PortalBaseURL, query.Encode())

	s.logger.Info("portal session created",
		slog.String("userID", userID),
		slog.String("customerID", sub.CustomerID),
	)

	return portalURL, nil
}

func validHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
