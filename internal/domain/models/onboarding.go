// internal/domain/models/onboarding.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OnboardingFields holds the participant details collected so far.
// A nil field has not been collected yet.
type OnboardingFields struct {
	Name       *string `bson:"name,omitempty" json:"name,omitempty"`
	Country    *string `bson:"country,omitempty" json:"country,omitempty"`
	City       *string `bson:"city,omitempty" json:"city,omitempty"`
	PostalCode *string `bson:"postal_code,omitempty" json:"postal_code,omitempty"`
	Street     *string `bson:"street,omitempty" json:"street,omitempty"`
	Phone      *string `bson:"phone,omitempty" json:"phone,omitempty"`
	Notes      *string `bson:"notes,omitempty" json:"notes,omitempty"`
}

// OnboardingSession is the conversation state for one contact.
type OnboardingSession struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ContactID  primitive.ObjectID `bson:"contact_id" json:"contact_id"`
	ChatUserID string             `bson:"chat_user_id" json:"chat_user_id"`
	State      string             `bson:"state" json:"state"`
	Fields     OnboardingFields   `bson:"fields" json:"fields"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time          `bson:"updated_at" json:"updated_at"`
}
