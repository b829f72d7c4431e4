// internal/domain/models/exclusion.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Exclusion forbids GiverID from being matched to ReceiverID.
// It is directional; a two-way exclusion is stored as two documents.
type Exclusion struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	GiverID    primitive.ObjectID `bson:"giver_id" json:"giver_id"`
	ReceiverID primitive.ObjectID `bson:"receiver_id" json:"receiver_id"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
}
