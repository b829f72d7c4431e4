// internal/domain/models/participant.go
package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Participant is a person enrolled in the gift exchange.
//
// Participants are created by the admin API or when an onboarding
// conversation completes. They are never deleted implicitly.
type Participant struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FullName   string             `bson:"full_name" json:"full_name"`
	FullNameCI string             `bson:"full_name_ci" json:"-"` // lowercase, diacritics-stripped
	Email      string             `bson:"email,omitempty" json:"email,omitempty"`
	ChatUserID string             `bson:"chat_user_id,omitempty" json:"chat_user_id,omitempty"`

	// Postal address as discrete fields plus the denormalized Address line.
	Street     string `bson:"street" json:"street"`
	City       string `bson:"city" json:"city"`
	PostalCode string `bson:"postal_code" json:"postal_code"`
	Country    string `bson:"country" json:"country"`
	Address    string `bson:"address" json:"address"`

	Phone string  `bson:"phone,omitempty" json:"phone,omitempty"`
	Notes *string `bson:"notes,omitempty" json:"notes,omitempty"`

	TimeZone  *string `bson:"time_zone,omitempty" json:"time_zone,omitempty"`   // IANA name
	UTCOffset *int    `bson:"utc_offset,omitempty" json:"utc_offset,omitempty"` // seconds east of UTC

	ContactID *primitive.ObjectID `bson:"contact_id,omitempty" json:"contact_id,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Matchable reports whether the participant has a name and a deliverable
// address, the minimum needed to take part in a matching run.
func (p Participant) Matchable() bool {
	return strings.TrimSpace(p.FullName) != "" && strings.TrimSpace(p.Address) != ""
}

// Zone returns the participant's IANA time zone name, or "" if unknown.
func (p Participant) Zone() string {
	if p.TimeZone == nil {
		return ""
	}
	return *p.TimeZone
}

// FormatAddress builds the denormalized single-line address.
func FormatAddress(street, postalCode, city, country string) string {
	var parts []string
	if s := strings.TrimSpace(street); s != "" {
		parts = append(parts, s)
	}
	locality := strings.TrimSpace(strings.TrimSpace(postalCode) + " " + strings.TrimSpace(city))
	if locality != "" {
		parts = append(parts, locality)
	}
	if c := strings.TrimSpace(country); c != "" {
		parts = append(parts, c)
	}
	return strings.Join(parts, ", ")
}
