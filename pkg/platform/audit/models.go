// Package audit captures key user and payment actions as events. Events are
// emitted from domain logic, queued through a worker, and land either in the
// in-process store or a Kafka topic depending on deployment.
package audit

import (
	"context"
	"time"
)

// EventCategory classifies audit events for routing and retention.
type EventCategory string

const (
	// CategorySecurity covers events relevant to security monitoring:
	// failed logins, forced logouts, throttling.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers routine activity useful for debugging:
	// logins, logouts, payment lifecycle.
	CategoryOperations EventCategory = "operations"
)

// Action names every event this gateway emits.
type Action string

const (
	ActionLogin          Action = "login"
	ActionLoginFailed    Action = "login_failed"
	ActionRegister       Action = "register"
	ActionLogout         Action = "logout"
	ActionSessionExpired Action = "session_expired"
	ActionRateLimited    Action = "rate_limited"

	ActionPaymentInitialized Action = "payment_initialized"
	ActionPaymentVerified    Action = "payment_verified"
	ActionPaymentFailed      Action = "payment_failed"
)

var actionCategories = map[Action]EventCategory{
	ActionLoginFailed:    CategorySecurity,
	ActionSessionExpired: CategorySecurity,
	ActionRateLimited:    CategorySecurity,
}

// CategoryOf returns the category for an action, defaulting to operations.
func CategoryOf(action Action) EventCategory {
	if c, ok := actionCategories[action]; ok {
		return c
	}
	return CategoryOperations
}

// Event is one audited occurrence. Keep it transport-agnostic so stores and
// sinks can fan out.
type Event struct {
	Category  EventCategory `json:"category"`
	Action    Action        `json:"action"`
	Timestamp time.Time     `json:"timestamp"`
	UserID    string        `json:"user_id,omitempty"`
	SessionID string        `json:"session_id,omitempty"`
	Email     string        `json:"email,omitempty"`
	RequestID string        `json:"request_id,omitempty"`
	Detail    string        `json:"detail,omitempty"`
}

// NewEvent builds an event with its category derived from the action.
func NewEvent(action Action) Event {
	return Event{
		Category:  CategoryOf(action),
		Action:    action,
		Timestamp: time.Now().UTC(),
	}
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// Publisher accepts events from domain logic. Implementations must be safe
// for concurrent use and must never block the caller's request path for long.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}
