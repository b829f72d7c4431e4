// internal/app/store/events/eventstore.go
package eventstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/santahub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNotMatched is returned when an operation needs a matched event.
var ErrNotMatched = errors.New("no matching has been run for the current event")

// Store holds the singleton current event document.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("events")}
}

// Current returns the current event, or a fresh open one if none is stored.
func (s *Store) Current(ctx context.Context) (models.Event, error) {
	var e models.Event
	err := s.c.FindOne(ctx, bson.M{"_id": models.CurrentEventID}).Decode(&e)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Event{ID: models.CurrentEventID, Status: models.EventOpen}, nil
	}
	if err != nil {
		return models.Event{}, err
	}
	return e, nil
}

// SetName renames the current event.
func (s *Store) SetName(ctx context.Context, name string) error {
	_, err := s.c.UpdateOne(ctx,
		bson.M{"_id": models.CurrentEventID},
		bson.M{
			"$set":         bson.M{"name": name, "updated_at": time.Now().UTC()},
			"$setOnInsert": bson.M{"status": models.EventOpen},
		},
		options.Update().SetUpsert(true),
	)
	return err
}

// MarkMatched records a completed matching run. Any pending schedule and
// earlier notification stamp are cleared: the new assignments have not been
// sent yet.
func (s *Store) MarkMatched(ctx context.Context, runID string, at time.Time) error {
	_, err := s.c.UpdateOne(ctx,
		bson.M{"_id": models.CurrentEventID},
		bson.M{
			"$set": bson.M{
				"status":     models.EventMatched,
				"run_id":     runID,
				"matched_at": at.UTC(),
				"updated_at": time.Now().UTC(),
			},
			"$unset": bson.M{"notify_at": "", "notified_at": "", "dispatch_lease_until": ""},
		},
		options.Update().SetUpsert(true),
	)
	return err
}

// Schedule sets (or, with nil, clears) the automatic notification time.
func (s *Store) Schedule(ctx context.Context, notifyAt *time.Time) (models.Event, error) {
	update := bson.M{"$set": bson.M{"updated_at": time.Now().UTC()}}
	if notifyAt != nil {
		update["$set"].(bson.M)["notify_at"] = notifyAt.UTC()
	} else {
		update["$unset"] = bson.M{"notify_at": ""}
	}

	var e models.Event
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": models.CurrentEventID, "status": models.EventMatched},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&e)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Event{}, ErrNotMatched
	}
	if err != nil {
		return models.Event{}, err
	}
	return e, nil
}

// ClaimScheduled takes the dispatch lease when notify_at is due at now and
// no other caller holds an unexpired lease. The schedule itself stays set
// until ReleaseSchedule reports the dispatch as done.
func (s *Store) ClaimScheduled(ctx context.Context, now time.Time, lease time.Duration) (bool, error) {
	now = now.UTC()
	res, err := s.c.UpdateOne(ctx,
		bson.M{
			"_id":       models.CurrentEventID,
			"status":    models.EventMatched,
			"notify_at": bson.M{"$lte": now},
			"$or": bson.A{
				bson.M{"dispatch_lease_until": bson.M{"$exists": false}},
				bson.M{"dispatch_lease_until": nil},
				bson.M{"dispatch_lease_until": bson.M{"$lte": now}},
			},
		},
		bson.M{"$set": bson.M{
			"dispatch_lease_until": now.Add(lease),
			"updated_at":           time.Now().UTC(),
		}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

// ReleaseSchedule drops the dispatch lease. With done set the schedule is
// cleared too; otherwise it stays armed for the next check.
func (s *Store) ReleaseSchedule(ctx context.Context, done bool) error {
	unset := bson.M{"dispatch_lease_until": ""}
	if done {
		unset["notify_at"] = ""
	}
	_, err := s.c.UpdateOne(ctx,
		bson.M{"_id": models.CurrentEventID},
		bson.M{
			"$unset": unset,
			"$set":   bson.M{"updated_at": time.Now().UTC()},
		},
	)
	return err
}

// MarkNotified records that assignments of the current run were dispatched.
func (s *Store) MarkNotified(ctx context.Context, at time.Time) error {
	_, err := s.c.UpdateOne(ctx,
		bson.M{"_id": models.CurrentEventID},
		bson.M{"$set": bson.M{
			"status":      models.EventNotified,
			"notified_at": at.UTC(),
			"updated_at":  time.Now().UTC(),
		}},
	)
	return err
}
