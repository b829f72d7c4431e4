// internal/domain/models/contact.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Contact status values. Completed and declined are terminal.
const (
	ContactImported   = "imported"
	ContactInvited    = "invited"
	ContactInProgress = "in_progress"
	ContactCompleted  = "completed"
	ContactDeclined   = "declined"
)

var contactRank = map[string]int{
	ContactImported:   0,
	ContactInvited:    1,
	ContactInProgress: 2,
	ContactCompleted:  3,
	ContactDeclined:   3,
}

// ContactStatusAdvances reports whether moving from -> to is allowed.
// Status only moves forward and never leaves a terminal status.
func ContactStatusAdvances(from, to string) bool {
	if from == ContactCompleted || from == ContactDeclined {
		return false
	}
	fr, ok1 := contactRank[from]
	tr, ok2 := contactRank[to]
	return ok1 && ok2 && tr > fr
}

// Contact is a directory-sourced candidate who is not yet a Participant.
type Contact struct {
	ID            primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Email         string              `bson:"email" json:"email"`
	DisplayName   string              `bson:"display_name,omitempty" json:"display_name,omitempty"`
	ChatUserID    string              `bson:"chat_user_id" json:"chat_user_id"`
	Status        string              `bson:"status" json:"status"`
	InvitedAt     *time.Time          `bson:"invited_at,omitempty" json:"invited_at,omitempty"`
	RespondedAt   *time.Time          `bson:"responded_at,omitempty" json:"responded_at,omitempty"`
	ParticipantID *primitive.ObjectID `bson:"participant_id,omitempty" json:"participant_id,omitempty"`
	CreatedAt     time.Time           `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time           `bson:"updated_at" json:"updated_at"`
}
