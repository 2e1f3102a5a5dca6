// Package queue defines the account activity messages exchanged over the
// message broker and the consumer that records them.
package queue

import "time"

// ActivityQueueName is the durable queue account events are routed to.
const ActivityQueueName = "account.activity"

// Account activity event types.
const (
	EventRegistered      = "account.registered"
	EventLoggedIn        = "account.logged_in"
	EventActivityChanged = "account.active_changed"
)

// AccountEvent is published whenever the credential store changes or
// verifies an account.  It carries enough for downstream consumers to log
// or notify without querying the primary database.
type AccountEvent struct {
	Type       string    `json:"type"`
	AccountID  uint64    `json:"account_id"`
	Email      string    `json:"email"`
	Active     *bool     `json:"active,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
