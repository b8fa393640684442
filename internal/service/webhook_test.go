package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sakif/taskvault/internal/apperror"
	"github.com/sakif/taskvault/internal/model"
)

func newWebhookTestService(t *testing.T) (*WebhookService, *mockSubscriptionRepo) {
	t.Helper()
	subs := newMockSubscriptionRepo()
	return NewWebhookService(subs, newTestLogger()), subs
}

// createdEvent builds a complete, valid subscription.created payload.
func createdEvent() WebhookEvent {
	return WebhookEvent{
		ID:   "evt_1",
		Type: EventSubscriptionCreated,
		Data: map[string]any{
			"id":                   "sub_100",
			"user_id":              "user-1",
			"customer_id":          "cus_100",
			"status":               "active",
			"price_id":             "price_basic",
			"current_period_start": "2026-08-01T00:00:00Z",
			"current_period_end":   "2026-09-01T00:00:00Z",
		},
	}
}

func TestWebhookCreated(t *testing.T) {
	svc, subs := newWebhookTestService(t)

	if err := svc.Process(context.Background(), createdEvent()); err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	sub, err := subs.GetActiveSubscription(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("GetActiveSubscription() error = %v", err)
	}
	if sub.ID != "sub_100" {
		t.Errorf("ID = %q, want %q", sub.ID, "sub_100")
	}
	if sub.CustomerID != "cus_100" {
		t.Errorf("CustomerID = %q, want %q", sub.CustomerID, "cus_100")
	}
	wantStart, _ := time.Parse(time.RFC3339, "2026-08-01T00:00:00Z")
	if !sub.CurrentPeriodStart.Equal(wantStart) {
		t.Errorf("CurrentPeriodStart = %v, want %v", sub.CurrentPeriodStart, wantStart)
	}
}

// Timestamps arrive either as RFC 3339 strings or unix-seconds numbers.
func TestWebhookCreated_UnixTimestamps(t *testing.T) {
	svc, subs := newWebhookTestService(t)

	event := createdEvent()
	event.Data["current_period_start"] = float64(1754006400) // 2025-08-01T00:00:00Z
	event.Data["current_period_end"] = float64(1756684800)

	if err := svc.Process(context.Background(), event); err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	sub, err := subs.GetActiveSubscription(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("GetActiveSubscription() error = %v", err)
	}
	if sub.CurrentPeriodStart.Unix() != 1754006400 {
		t.Errorf("CurrentPeriodStart = %v, want unix 1754006400", sub.CurrentPeriodStart)
	}
}

func TestWebhookCreated_MissingFields(t *testing.T) {
	svc, _ := newWebhookTestService(t)

	for _, field := range []string{"id", "user_id", "customer_id", "status", "price_id", "current_period_start", "current_period_end"} {
		event := createdEvent()
		delete(event.Data, field)

		err := svc.Process(context.Background(), event)
		if !errors.Is(err, apperror.ErrMalformedEvent) {
			t.Errorf("missing %q: error = %v, want ErrMalformedEvent", field, err)
		}
	}
}

func TestWebhookCreated_UnknownStatus(t *testing.T) {
	svc, _ := newWebhookTestService(t)

	event := createdEvent()
	event.Data["status"] = "paused"

	err := svc.Process(context.Background(), event)
	if !errors.Is(err, apperror.ErrMalformedEvent) {
		t.Errorf("error = %v, want ErrMalformedEvent", err)
	}
}

func TestWebhookCreated_BadTimestamp(t *testing.T) {
	svc, _ := newWebhookTestService(t)

	event := createdEvent()
	event.Data["current_period_end"] = "next tuesday"

	err := svc.Process(context.Background(), event)
	if !errors.Is(err, apperror.ErrMalformedEvent) {
		t.Errorf("error = %v, want ErrMalformedEvent", err)
	}
}

// Redelivering a created event for an already-stored subscription is a
// conflict, not a silent duplicate.
func TestWebhookCreated_Replay(t *testing.T) {
	svc, _ := newWebhookTestService(t)
	ctx := context.Background()

	if err := svc.Process(ctx, createdEvent()); err != nil {
		t.Fatalf("first Process() error = %v", err)
	}
	err := svc.Process(ctx, createdEvent())
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("replay: error = %v, want ErrConflict", err)
	}
}

func TestWebhookUpdated(t *testing.T) {
	svc, subs := newWebhookTestService(t)
	ctx := context.Background()
	seedSubscription(t, subs, "sub_upd", "user-1", "cus_1", model.SubscriptionActive)

	event := WebhookEvent{
		ID:   "evt_2",
		Type: EventSubscriptionUpdated,
		Data: map[string]any{
			"id":                 "sub_upd",
			"status":             "past_due",
			"current_period_end": "2026-10-01T00:00:00Z",
		},
	}
	if err := svc.Process(ctx, event); err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	sub, err := subs.GetLatestSubscription(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetLatestSubscription() error = %v", err)
	}
	if sub.Status != model.SubscriptionPastDue {
		t.Errorf("Status = %q, want %q", sub.Status, model.SubscriptionPastDue)
	}
	wantEnd, _ := time.Parse(time.RFC3339, "2026-10-01T00:00:00Z")
	if !sub.CurrentPeriodEnd.Equal(wantEnd) {
		t.Errorf("CurrentPeriodEnd = %v, want %v", sub.CurrentPeriodEnd, wantEnd)
	}
}

func TestWebhookUpdated_MissingID(t *testing.T) {
	svc, _ := newWebhookTestService(t)

	event := WebhookEvent{
		ID:   "evt_3",
		Type: EventSubscriptionUpdated,
		Data: map[string]any{"status": "active"},
	}
	err := svc.Process(context.Background(), event)
	if !errors.Is(err, apperror.ErrMalformedEvent) {
		t.Errorf("error = %v, want ErrMalformedEvent", err)
	}
}

// An update for a subscription this system never stored succeeds as a no-op.
func TestWebhookUpdated_UnknownSubscription(t *testing.T) {
	svc, _ := newWebhookTestService(t)

	event := WebhookEvent{
		ID:   "evt_4",
		Type: EventSubscriptionUpdated,
		Data: map[string]any{"id": "sub_ghost", "status": "active"},
	}
	if err := svc.Process(context.Background(), event); err != nil {
		t.Errorf("error = %v, want nil no-op", err)
	}
}

// An update naming a subscription but carrying nothing to change is fine.
func TestWebhookUpdated_NoFields(t *testing.T) {
	svc, subs := newWebhookTestService(t)
	seedSubscription(t, subs, "sub_noop", "user-1", "cus_1", model.SubscriptionActive)

	event := WebhookEvent{
		ID:   "evt_5",
		Type: EventSubscriptionUpdated,
		Data: map[string]any{"id": "sub_noop"},
	}
	if err := svc.Process(context.Background(), event); err != nil {
		t.Errorf("error = %v, want nil", err)
	}
}

func TestWebhookCanceled(t *testing.T) {
	svc, subs := newWebhookTestService(t)
	ctx := context.Background()
	seedSubscription(t, subs, "sub_cancel", "user-1", "cus_1", model.SubscriptionActive)

	event := WebhookEvent{
		ID:   "evt_6",
		Type: EventSubscriptionCanceled,
		Data: map[string]any{"id": "sub_cancel"},
	}
	if err := svc.Process(ctx, event); err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	sub, err := subs.GetLatestSubscription(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetLatestSubscription() error = %v", err)
	}
	if sub.Status != model.SubscriptionCanceled {
		t.Errorf("Status = %q, want %q", sub.Status, model.SubscriptionCanceled)
	}

	// Cancellation events are redeliverable.
	if err := svc.Process(ctx, event); err != nil {
		t.Errorf("redelivered cancel: error = %v, want nil", err)
	}
}

func TestWebhookPaymentSucceeded_Reactivates(t *testing.T) {
	svc, subs := newWebhookTestService(t)
	ctx := context.Background()
	seedSubscription(t, subs, "sub_pay", "user-1", "cus_1", model.SubscriptionPastDue)

	event := WebhookEvent{
		ID:   "evt_7",
		Type: EventPaymentSucceeded,
		Data: map[string]any{"subscription_id": "sub_pay"},
	}
	if err := svc.Process(ctx, event); err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	sub, err := subs.GetActiveSubscription(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetActiveSubscription() error = %v", err)
	}
	if sub.ID != "sub_pay" {
		t.Errorf("ID = %q, want %q", sub.ID, "sub_pay")
	}
}

func TestWebhookPaymentFailed_MarksPastDue(t *testing.T) {
	svc, subs := newWebhookTestService(t)
	ctx := context.Background()
	seedSubscription(t, subs, "sub_fail", "user-1", "cus_1", model.SubscriptionActive)

	event := WebhookEvent{
		ID:   "evt_8",
		Type: EventPaymentFailed,
		Data: map[string]any{"subscription_id": "sub_fail"},
	}
	if err := svc.Process(ctx, event); err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	sub, err := subs.GetLatestSubscription(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetLatestSubscription() error = %v", err)
	}
	if sub.Status != model.SubscriptionPastDue {
		t.Errorf("Status = %q, want %q", sub.Status, model.SubscriptionPastDue)
	}
}

// A payment with no subscription_id is a one-off purchase: acknowledged,
// nothing touched.
func TestWebhookPayment_NoSubscriptionID(t *testing.T) {
	svc, subs := newWebhookTestService(t)
	ctx := context.Background()
	seedSubscription(t, subs, "sub_keep", "user-1", "cus_1", model.SubscriptionActive)

	for _, data := range []map[string]any{
		{},
		{"subscription_id": ""},
	} {
		event := WebhookEvent{ID: "evt_9", Type: EventPaymentSucceeded, Data: data}
		if err := svc.Process(ctx, event); err != nil {
			t.Errorf("Process(%v) error = %v, want nil", data, err)
		}
	}

	sub, err := subs.GetLatestSubscription(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetLatestSubscription() error = %v", err)
	}
	if sub.Status != model.SubscriptionActive {
		t.Errorf("Status = %q, want untouched %q", sub.Status, model.SubscriptionActive)
	}
}

func TestWebhookUnknownType(t *testing.T) {
	svc, _ := newWebhookTestService(t)

	event := WebhookEvent{
		ID:   "evt_10",
		Type: "invoice.finalized",
		Data: map[string]any{"whatever": true},
	}
	if err := svc.Process(context.Background(), event); err != nil {
		t.Errorf("unknown event type: error = %v, want nil", err)
	}
}
