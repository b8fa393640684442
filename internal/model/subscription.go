package model

import "time"

// SubscriptionStatus enumerates the provider-defined subscription states.
type SubscriptionStatus string

const (
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionInactive SubscriptionStatus = "inactive"
	SubscriptionCanceled SubscriptionStatus = "canceled"
	SubscriptionPastDue  SubscriptionStatus = "past_due"
)

// ValidSubscriptionStatus reports whether s is one of the known states.
func ValidSubscriptionStatus(s SubscriptionStatus) bool {
	switch s {
	case SubscriptionActive, SubscriptionInactive, SubscriptionCanceled, SubscriptionPastDue:
		return true
	}
	return false
}

// Subscription is one billing record for a user.
//
// A user may have any number of rows (historical plus current); "premium"
// means at least one row is active. Rows are created and transitioned
// exclusively by payment-provider webhook events — user actions only trigger
// checkout/portal redirects that eventually *cause* those events.
//
// The ID and CustomerID come from the payment provider, which is why we store
// them verbatim instead of generating our own.
type Subscription struct {
	ID                 string             `json:"id"`
	UserID             string             `json:"userId"`
	CustomerID         string             `json:"customerId"`
	Status             SubscriptionStatus `json:"status"`
	PriceID            string             `json:"priceId"`
	CurrentPeriodStart time.Time          `json:"currentPeriodStart"`
	CurrentPeriodEnd   time.Time          `json:"currentPeriodEnd"`
	CreatedAt          time.Time          `json:"createdAt"`
	UpdatedAt          time.Time          `json:"updatedAt"`
}

// SubscriptionPatch carries the updatable fields of a subscription.updated
// event. Nil means "not present in the event payload".
type SubscriptionPatch struct {
	Status             *SubscriptionStatus
	CurrentPeriodStart *time.Time
	CurrentPeriodEnd   *time.Time
}

// Empty reports whether the patch carries no updatable field.
func (p SubscriptionPatch) Empty() bool {
	return p.Status == nil && p.CurrentPeriodStart == nil && p.CurrentPeriodEnd == nil
}
