// internal/app/store/assignments/assignmentstore.go
package assignmentstore

import (
	"context"
	"time"

	"github.com/dalemusser/santahub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("assignments")}
}

// ReplaceAll deletes the event's assignments and inserts list in their
// place. Run it inside txn.Run so readers never see a mix of two runs.
func (s *Store) ReplaceAll(ctx context.Context, eventID, runID string, list []models.Assignment) ([]models.Assignment, error) {
	if _, err := s.c.DeleteMany(ctx, bson.M{"event_id": eventID}); err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}

	now := time.Now().UTC()
	out := make([]models.Assignment, len(list))
	docs := make([]interface{}, len(list))
	for i, a := range list {
		a.ID = primitive.NewObjectID()
		a.EventID = eventID
		a.RunID = runID
		a.Notified, a.NotifiedAt = false, nil
		a.GiftSent, a.GiftSentAt = false, nil
		a.LastReminderAt, a.NextReminderAt = nil, nil
		a.ReceiverNotified = false
		a.CreatedAt = now
		out[i] = a
		docs[i] = a
	}
	if _, err := s.c.InsertMany(ctx, docs); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]models.Assignment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.Assignment
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListByEvent returns every assignment of the event.
func (s *Store) ListByEvent(ctx context.Context, eventID string) ([]models.Assignment, error) {
	return s.find(ctx, bson.M{"event_id": eventID})
}

// ListPendingNotification returns the event's assignments not yet notified.
func (s *Store) ListPendingNotification(ctx context.Context, eventID string) ([]models.Assignment, error) {
	return s.find(ctx, bson.M{"event_id": eventID, "notified": false})
}

// ListAwaitingGift returns the event's notified assignments without a confirmed gift.
func (s *Store) ListAwaitingGift(ctx context.Context, eventID string) ([]models.Assignment, error) {
	return s.find(ctx, bson.M{"event_id": eventID, "notified": true, "gift_sent": false})
}

// FindAwaitingConfirmation returns the giver's assignment that a yes/no
// reply would confirm: notified, not gift-sent, reminded at least once.
// It returns mongo.ErrNoDocuments when there is none.
func (s *Store) FindAwaitingConfirmation(ctx context.Context, eventID string, giverID primitive.ObjectID) (models.Assignment, error) {
	var a models.Assignment
	err := s.c.FindOne(ctx, bson.M{
		"event_id":         eventID,
		"giver_id":         giverID,
		"notified":         true,
		"gift_sent":        false,
		"last_reminder_at": bson.M{"$type": "date"},
	}).Decode(&a)
	if err != nil {
		return models.Assignment{}, err
	}
	return a, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Assignment, error) {
	var a models.Assignment
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&a); err != nil {
		return models.Assignment{}, err
	}
	return a, nil
}

// updated runs a conditional update and reports whether it matched.
func (s *Store) updated(ctx context.Context, filter, update bson.M) (bool, error) {
	res, err := s.c.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

// MarkNotified stamps the notification if it has not happened yet.
func (s *Store) MarkNotified(ctx context.Context, id primitive.ObjectID, at time.Time) (bool, error) {
	return s.updated(ctx,
		bson.M{"_id": id, "notified": false},
		bson.M{"$set": bson.M{"notified": true, "notified_at": at.UTC()}},
	)
}

// ScheduleReminder sets next_reminder_at if it is not set yet.
func (s *Store) ScheduleReminder(ctx context.Context, id primitive.ObjectID, at time.Time) (bool, error) {
	return s.updated(ctx,
		bson.M{"_id": id, "next_reminder_at": bson.M{"$not": bson.M{"$type": "date"}}},
		bson.M{"$set": bson.M{"next_reminder_at": at.UTC()}},
	)
}

// RecordReminder stamps last_reminder_at and moves next_reminder_at from
// due to next, only while next_reminder_at still equals due and the gift
// is unconfirmed.
func (s *Store) RecordReminder(ctx context.Context, id primitive.ObjectID, due, sentAt, next time.Time) (bool, error) {
	return s.updated(ctx,
		bson.M{"_id": id, "next_reminder_at": due.UTC(), "gift_sent": false},
		bson.M{"$set": bson.M{"last_reminder_at": sentAt.UTC(), "next_reminder_at": next.UTC()}},
	)
}

// MarkGiftSent records the giver's confirmation once.
func (s *Store) MarkGiftSent(ctx context.Context, id primitive.ObjectID, at time.Time) (bool, error) {
	return s.updated(ctx,
		bson.M{"_id": id, "gift_sent": false},
		bson.M{"$set": bson.M{"gift_sent": true, "gift_sent_at": at.UTC()}},
	)
}

// ClaimReceiverNotification flips receiver_notified for a gift-sent
// assignment. Exactly one caller ever gets true for a given assignment.
func (s *Store) ClaimReceiverNotification(ctx context.Context, id primitive.ObjectID) (bool, error) {
	return s.updated(ctx,
		bson.M{"_id": id, "gift_sent": true, "receiver_notified": false},
		bson.M{"$set": bson.M{"receiver_notified": true}},
	)
}
