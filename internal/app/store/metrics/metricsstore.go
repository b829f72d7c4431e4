package metricsstore

import (
	"context"

	"github.com/dalemusser/santahub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Counts is the progress summary of the current gift exchange.
type Counts struct {
	Participants int64 `json:"participants"`
	Exclusions   int64 `json:"exclusions"`
	Assignments  int64 `json:"assignments"`
	Notified     int64 `json:"notified"`
	Reminded     int64 `json:"reminded"`
	GiftsSent    int64 `json:"gifts_sent"`
}

// FetchCounts returns the totals shown on the organizer dashboard.
// Intentionally tolerant: on error it returns 0 for that counter.
// Assignment counts cover the current event only.
func FetchCounts(ctx context.Context, db *mongo.Database) Counts {
	var out Counts
	count := func(coll string, filter bson.M, dst *int64) {
		if n, err := db.Collection(coll).CountDocuments(ctx, filter); err == nil {
			*dst = n
		}
	}

	count("participants", bson.M{}, &out.Participants)
	count("exclusions", bson.M{}, &out.Exclusions)

	event := bson.M{"event_id": models.CurrentEventID}
	count("assignments", event, &out.Assignments)
	count("assignments", bson.M{"event_id": models.CurrentEventID, "notified": true}, &out.Notified)
	count("assignments", bson.M{
		"event_id":         models.CurrentEventID,
		"last_reminder_at": bson.M{"$exists": true},
	}, &out.Reminded)
	count("assignments", bson.M{"event_id": models.CurrentEventID, "gift_sent": true}, &out.GiftsSent)

	return out
}
