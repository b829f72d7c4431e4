// internal/domain/models/assignment.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Assignment pairs a giver with a receiver for one event.
//
// The full set for an event is created as a batch by a matching run and
// replaced wholesale by the next run. The notification dispatcher and the
// reminder sweep mutate the lifecycle fields in place.
type Assignment struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	EventID    string             `bson:"event_id" json:"event_id"`
	RunID      string             `bson:"run_id" json:"run_id"`
	GiverID    primitive.ObjectID `bson:"giver_id" json:"giver_id"`
	ReceiverID primitive.ObjectID `bson:"receiver_id" json:"receiver_id"`

	Notified   bool       `bson:"notified" json:"notified"`
	NotifiedAt *time.Time `bson:"notified_at,omitempty" json:"notified_at,omitempty"`

	GiftSent   bool       `bson:"gift_sent" json:"gift_sent"`
	GiftSentAt *time.Time `bson:"gift_sent_at,omitempty" json:"gift_sent_at,omitempty"`

	LastReminderAt *time.Time `bson:"last_reminder_at,omitempty" json:"last_reminder_at,omitempty"`
	NextReminderAt *time.Time `bson:"next_reminder_at,omitempty" json:"next_reminder_at,omitempty"`

	ReceiverNotified bool `bson:"receiver_notified" json:"receiver_notified"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// ReminderEligible reports whether the reminder sweep should look at a.
func (a Assignment) ReminderEligible() bool {
	return a.Notified && !a.GiftSent
}

// AwaitingConfirmation reports whether an inbound yes/no from the giver
// should be read as a gift confirmation.
func (a Assignment) AwaitingConfirmation() bool {
	return a.Notified && !a.GiftSent && a.LastReminderAt != nil
}
