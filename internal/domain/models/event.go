// internal/domain/models/event.go
package models

import "time"

// CurrentEventID is the key of the one active round.
// The service runs exactly one matching round at a time.
const CurrentEventID = "current"

// Event status values.
const (
	EventOpen     = "open"
	EventMatched  = "matched"
	EventNotified = "notified"
)

// Event is the singleton gift exchange round.
type Event struct {
	ID         string     `bson:"_id" json:"id"`
	Name       string     `bson:"name" json:"name"`
	Status     string     `bson:"status" json:"status"`
	RunID      string     `bson:"run_id,omitempty" json:"run_id,omitempty"`
	MatchedAt  *time.Time `bson:"matched_at,omitempty" json:"matched_at,omitempty"`
	NotifyAt   *time.Time `bson:"notify_at,omitempty" json:"notify_at,omitempty"`
	NotifiedAt *time.Time `bson:"notified_at,omitempty" json:"notified_at,omitempty"`
	UpdatedAt  time.Time  `bson:"updated_at" json:"updated_at"`

	// DispatchLeaseUntil is held while a scheduled dispatch is running.
	DispatchLeaseUntil *time.Time `bson:"dispatch_lease_until,omitempty" json:"-"`
}

// DueForNotification reports whether a scheduled auto-notify should fire at now.
func (e Event) DueForNotification(now time.Time) bool {
	return e.Status == EventMatched && e.NotifyAt != nil && !now.Before(*e.NotifyAt)
}
