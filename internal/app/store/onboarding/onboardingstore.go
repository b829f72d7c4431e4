// internal/app/store/onboarding/onboardingstore.go
package onboardingstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/santahub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrSessionExists is returned when the contact already has a session.
var ErrSessionExists = errors.New("an onboarding session already exists for this contact")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("onboarding_sessions")}
}

// Create starts a session for a contact. A contact has at most one session.
func (s *Store) Create(ctx context.Context, contactID primitive.ObjectID, chatUserID, state string) (models.OnboardingSession, error) {
	now := time.Now().UTC()
	sess := models.OnboardingSession{
		ID:         primitive.NewObjectID(),
		ContactID:  contactID,
		ChatUserID: chatUserID,
		State:      state,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if _, err := s.c.InsertOne(ctx, sess); err != nil {
		if wafflemongo.IsDup(err) {
			return models.OnboardingSession{}, ErrSessionExists
		}
		return models.OnboardingSession{}, err
	}
	return sess, nil
}

func (s *Store) ByContact(ctx context.Context, contactID primitive.ObjectID) (models.OnboardingSession, error) {
	var sess models.OnboardingSession
	if err := s.c.FindOne(ctx, bson.M{"contact_id": contactID}).Decode(&sess); err != nil {
		return models.OnboardingSession{}, err
	}
	return sess, nil
}

// LatestByChatUser returns the chat user's most recently updated session,
// or mongo.ErrNoDocuments.
func (s *Store) LatestByChatUser(ctx context.Context, chatUserID string) (models.OnboardingSession, error) {
	var sess models.OnboardingSession
	err := s.c.FindOne(ctx,
		bson.M{"chat_user_id": chatUserID},
		options.FindOne().SetSort(bson.D{{Key: "updated_at", Value: -1}, {Key: "_id", Value: -1}}),
	).Decode(&sess)
	if err != nil {
		return models.OnboardingSession{}, err
	}
	return sess, nil
}

// Save writes the new state and fields only if the session is still in
// fromState. It reports whether the write happened; false means another
// handler moved the session first.
func (s *Store) Save(ctx context.Context, id primitive.ObjectID, fromState, toState string, fields models.OnboardingFields) (bool, error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "state": fromState},
		bson.M{"$set": bson.M{
			"state":      toState,
			"fields":     fields,
			"updated_at": time.Now().UTC(),
		}},
	)
	if err != nil {
		return false, err
	}
	return res.MatchedCount == 1, nil
}

// ListByState returns the sessions in state, oldest first.
func (s *Store) ListByState(ctx context.Context, state string) ([]models.OnboardingSession, error) {
	cur, err := s.c.Find(ctx, bson.M{"state": state}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.OnboardingSession
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
