package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sakif/taskvault/internal/apperror"
	"github.com/sakif/taskvault/internal/model"
	"github.com/sakif/taskvault/internal/repository"
)

// Recognized webhook event types. Anything else is acknowledged and ignored —
// the provider adds event types over time and an unknown type must never
// break ingestion.
const (
	EventSubscriptionCreated  = "subscription.created"
	EventSubscriptionUpdated  = "subscription.updated"
	EventSubscriptionCanceled = "subscription.canceled"
	EventPaymentSucceeded     = "payment.succeeded"
	EventPaymentFailed        = "payment.failed"
)

// WebhookEvent is the envelope the payment provider delivers: a type tag and
// an open payload. The payload's required fields depend on the type, so each
// variant is validated into a typed value before any store access — presence
// checks live here at the boundary, not scattered through the appliers.
type WebhookEvent struct {
	ID   string         `json:"id"`
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}

// WebhookService applies provider events to the subscription ledger.
//
// It is a stateless, idempotent transducer: every action is an insert or an
// absolute overwrite, never an increment, so redelivering an event is safe.
// It deliberately has no connection to the auth gate — the provider
// authenticates with a signature at the transport layer, not with a session.
type WebhookService struct {
	subs   repository.SubscriptionRepository
	logger *slog.Logger
}

// NewWebhookService creates a WebhookService.
func NewWebhookService(subs repository.SubscriptionRepository, logger *slog.Logger) *WebhookService {
	return &WebhookService{
		subs:   subs,
		logger: logger,
	}
}

// Process dispatches one event to its applier.
func (s *WebhookService) Process(ctx context.Context, event WebhookEvent) error {
	s.logger.Info("processing webhook event",
		slog.String("eventID", event.ID),
		slog.String("type", event.Type),
	)

	switch event.Type {
	case EventSubscriptionCreated:
		return s.applyCreated(ctx, event.Data)
	case EventSubscriptionUpdated:
		return s.applyUpdated(ctx, event.Data)
	case EventSubscriptionCanceled:
		return s.applyCanceled(ctx, event.Data)
	case EventPaymentSucceeded:
		return s.applyPaymentOutcome(ctx, event.Data, true)
	case EventPaymentFailed:
		return s.applyPaymentOutcome(ctx, event.Data, false)
	default:
		s.logger.Info("unhandled webhook event type",
			slog.String("type", event.Type),
		)
		return nil
	}
}

// applyCreated inserts a new subscription row. Every field is required; the
// provider owns the row's identity.
func (s *WebhookService) applyCreated(ctx context.Context, data map[string]any) error {
	sub := &model.Subscription{}
	var err error

	if sub.ID, err = requireString(data, "id"); err != nil {
		return err
	}
	if sub.UserID, err = requireString(data, "user_id"); err != nil {
		return err
	}
	if sub.CustomerID, err = requireString(data, "customer_id"); err != nil {
		return err
	}
	status, err := requireString(data, "status")
	if err != nil {
		return err
	}
	sub.Status = model.SubscriptionStatus(status)
	if !model.ValidSubscriptionStatus(sub.Status) {
		return apperror.MalformedEvent(fmt.Sprintf("unknown subscription status %q", status))
	}
	if sub.PriceID, err = requireString(data, "price_id"); err != nil {
		return err
	}
	if sub.CurrentPeriodStart, err = requireTime(data, "current_period_start"); err != nil {
		return err
	}
	if sub.CurrentPeriodEnd, err = requireTime(data, "current_period_end"); err != nil {
		return err
	}

	if err := s.subs.CreateSubscription(ctx, sub); err != nil {
		return fmt.Errorf("applying subscription.created: %w", err)
	}
	return nil
}

// applyUpdated merges the optional fields of an update event. An event that
// names a subscription but changes nothing is a successful no-op.
func (s *WebhookService) applyUpdated(ctx context.Context, data map[string]any) error {
	id, err := requireString(data, "id")
	if err != nil {
		return err
	}

	var patch model.SubscriptionPatch

	if raw, ok := data["status"]; ok {
		str, ok := raw.(string)
		if !ok || !model.ValidSubscriptionStatus(model.SubscriptionStatus(str)) {
			return apperror.MalformedEvent(fmt.Sprintf("invalid subscription status %v", raw))
		}
		status := model.SubscriptionStatus(str)
		patch.Status = &status
	}
	if _, ok := data["current_period_start"]; ok {
		t, err := requireTime(data, "current_period_start")
		if err != nil {
			return err
		}
		patch.CurrentPeriodStart = &t
	}
	if _, ok := data["current_period_end"]; ok {
		t, err := requireTime(data, "current_period_end")
		if err != nil {
			return err
		}
		patch.CurrentPeriodEnd = &t
	}

	if patch.Empty() {
		return nil
	}

	if err := s.subs.UpdateSubscriptionFields(ctx, id, patch, time.Now()); err != nil {
		return fmt.Errorf("applying subscription.updated: %w", err)
	}
	return nil
}

// applyCanceled sets the subscription's status to canceled. Already-canceled
// rows stay canceled; unknown ids are a no-op.
func (s *WebhookService) applyCanceled(ctx context.Context, data map[string]any) error {
	id, err := requireString(data, "id")
	if err != nil {
		return err
	}

	if err := s.subs.SetSubscriptionStatus(ctx, id, model.SubscriptionCanceled, time.Now()); err != nil {
		return fmt.Errorf("applying subscription.canceled: %w", err)
	}
	return nil
}

// applyPaymentOutcome reacts to a payment result. A payment without a
// subscription_id is a one-off purchase — nothing to update, report success.
// Otherwise the subscription becomes active (paid) or past_due (failed),
// unconditionally overwriting whatever status it had.
func (s *WebhookService) applyPaymentOutcome(ctx context.Context, data map[string]any, succeeded bool) error {
	raw, ok := data["subscription_id"]
	if !ok {
		return nil
	}
	id, ok := raw.(string)
	if !ok || id == "" {
		return nil
	}

	status := model.SubscriptionPastDue
	if succeeded {
		status = model.SubscriptionActive
	}

	if err := s.subs.SetSubscriptionStatus(ctx, id, status, time.Now()); err != nil {
		return fmt.Errorf("applying payment outcome: %w", err)
	}
	return nil
}

// requireString pulls a non-empty string field out of the payload or fails
// with MalformedEvent.
func requireString(data map[string]any, key string) (string, error) {
	raw, ok := data[key]
	if !ok {
		return "", apperror.MalformedEvent(fmt.Sprintf("missing required field %q", key))
	}
	str, ok := raw.(string)
	if !ok || str == "" {
		return "", apperror.MalformedEvent(fmt.Sprintf("field %q must be a non-empty string", key))
	}
	return str, nil
}

// requireTime pulls a timestamp field. The provider sends either RFC 3339
// strings or unix-seconds numbers (JSON numbers arrive as float64).
func requireTime(data map[string]any, key string) (time.Time, error) {
	raw, ok := data[key]
	if !ok {
		return time.Time{}, apperror.MalformedEvent(fmt.Sprintf("missing required field %q", key))
	}

	switch v := raw.(type) {
	case string:
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return time.Time{}, apperror.MalformedEvent(fmt.Sprintf("field %q is not a valid timestamp", key))
		}
		return t, nil
	case float64:
		return time.Unix(int64(v), 0).UTC(), nil
	default:
		return time.Time{}, apperror.MalformedEvent(fmt.Sprintf("field %q is not a valid timestamp", key))
	}
}
