package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sakif/taskvault/internal/apperror"
	"github.com/sakif/taskvault/internal/model"
	"github.com/sakif/taskvault/internal/repository"
)

// compile-time check that *DB implements repository.SubscriptionRepository
var _ repository.SubscriptionRepository = (*DB)(nil)

// CreateSubscription inserts a subscription row verbatim. Unlike the other
// entities, the ID is NOT generated here — it comes from the payment provider
// and is the key that later updated/canceled/payment events refer to.
//
// Replaying the same subscription.created event hits the primary key and
// surfaces as ErrConflict, which the ingestor treats as a delivery-level
// failure rather than silently inserting a duplicate.
func (db *DB) CreateSubscription(ctx context.Context, sub *model.Subscription) error {
	now := time.Now()
	sub.CreatedAt = now
	sub.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO subscriptions (id, user_id, customer_id, status, price_id,
		                            current_period_start, current_period_end, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sub.ID,
		sub.UserID,
		sub.CustomerID,
		string(sub.Status),
		sub.PriceID,
		sub.CurrentPeriodStart,
		sub.CurrentPeriodEnd,
		sub.CreatedAt,
		sub.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("subscription", fmt.Sprintf("id %s already exists", sub.ID))
		}
		return fmt.Errorf("sqlite: inserting subscription %s: %w", sub.ID, err)
	}

	return nil
}

// GetActiveSubscription returns the first active subscription for a user.
//
// A user can legitimately hold several active rows (plan change mid-period,
// provider retries); ordering by created_at then id makes "first" a stable
// tie-break rather than whatever the engine happens to return.
func (db *DB) GetActiveSubscription(ctx context.Context, userID string) (*model.Subscription, error) {
	return db.getSubscription(ctx,
		`WHERE user_id = ? AND status = 'active' ORDER BY created_at, id LIMIT 1`,
		userID,
	)
}

// GetLatestSubscription returns the user's most recent subscription row
// regardless of status.
func (db *DB) GetLatestSubscription(ctx context.Context, userID string) (*model.Subscription, error) {
	return db.getSubscription(ctx,
		`WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT 1`,
		userID,
	)
}

func (db *DB) getSubscription(ctx context.Context, tail string, args ...any) (*model.Subscription, error) {
	var sub model.Subscription
	var status string

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, user_id, customer_id, status, price_id,
		        current_period_start, current_period_end, created_at, updated_at
		 FROM subscriptions `+tail,
		args...,
	).Scan(
		&sub.ID,
		&sub.UserID,
		&sub.CustomerID,
		&status,
		&sub.PriceID,
		&sub.CurrentPeriodStart,
		&sub.CurrentPeriodEnd,
		&sub.CreatedAt,
		&sub.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("subscription", "user")
		}
		return nil, fmt.Errorf("sqlite: getting subscription: %w", err)
	}

	sub.Status = model.SubscriptionStatus(status)
	return &sub, nil
}

// UpdateSubscriptionFields merges only the fields present in the patch.
//
// Zero rows matched is a deliberate no-op: the provider can deliver events
// for subscriptions created before this system existed, and replaying an
// update must never fail.
func (db *DB) UpdateSubscriptionFields(ctx context.Context, id string, patch model.SubscriptionPatch, now time.Time) error {
	if patch.Empty() {
		return nil
	}

	set := "updated_at = ?"
	args := []any{now}

	if patch.Status != nil {
		set += ", status = ?"
		args = append(args, string(*patch.Status))
	}
	if patch.CurrentPeriodStart != nil {
		set += ", current_period_start = ?"
		args = append(args, *patch.CurrentPeriodStart)
	}
	if patch.CurrentPeriodEnd != nil {
		set += ", current_period_end = ?"
		args = append(args, *patch.CurrentPeriodEnd)
	}

	args = append(args, id)

	_, err := db.conn.ExecContext(ctx,
		`UPDATE subscriptions SET `+set+` WHERE id = ?`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating subscription %s: %w", id, err)
	}

	return nil
}

// SetSubscriptionStatus unconditionally overwrites the status. Setting the
// same status twice is harmless, which is what makes cancellation and
// payment-outcome events safe to redeliver.
func (db *DB) SetSubscriptionStatus(ctx context.Context, id string, status model.SubscriptionStatus, now time.Time) error {
	_, err := db.conn.ExecContext(ctx,
		`UPDATE subscriptions SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), now, id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: setting subscription %s status: %w", id, err)
	}
	return nil
}
