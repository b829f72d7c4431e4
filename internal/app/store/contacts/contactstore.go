// internal/app/store/contacts/contactstore.go
package contactstore

import (
	"context"
	"errors"
	"strings"
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
	return &Store{c: db.Collection("contacts")}
}

// Import stores a contact for email unless one exists already. It reports
// whether a new contact was created; an existing contact is returned as is.
func (s *Store) Import(ctx context.Context, email, chatUserID, displayName string) (models.Contact, bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	now := time.Now().UTC()
	c := models.Contact{
		ID:          primitive.NewObjectID(),
		Email:       email,
		DisplayName: displayName,
		ChatUserID:  chatUserID,
		Status:      models.ContactImported,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	res, err := s.c.UpdateOne(ctx,
		bson.M{"email": email},
		bson.M{"$setOnInsert": c},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return models.Contact{}, false, err
	}
	if res.UpsertedCount == 1 {
		return c, true, nil
	}
	existing, err := s.ByEmail(ctx, email)
	return existing, false, err
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Contact, error) {
	var c models.Contact
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		return models.Contact{}, err
	}
	return c, nil
}

func (s *Store) ByEmail(ctx context.Context, email string) (models.Contact, error) {
	var c models.Contact
	err := s.c.FindOne(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(email))}).Decode(&c)
	if err != nil {
		return models.Contact{}, err
	}
	return c, nil
}

// ListByStatus returns contacts in any of statuses, oldest first. No
// statuses means all contacts.
func (s *Store) ListByStatus(ctx context.Context, statuses ...string) ([]models.Contact, error) {
	filter := bson.M{}
	if len(statuses) > 0 {
		filter["status"] = bson.M{"$in": statuses}
	}
	cur, err := s.c.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.Contact
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// predecessors lists the statuses from which to may be reached.
func predecessors(to string) []string {
	var out []string
	for _, from := range []string{
		models.ContactImported, models.ContactInvited, models.ContactInProgress,
		models.ContactCompleted, models.ContactDeclined,
	} {
		if models.ContactStatusAdvances(from, to) {
			out = append(out, from)
		}
	}
	return out
}

// Advance moves the contact to status to if that is a forward move from its
// current status. It reports whether the contact changed. Invited stamps
// invited_at; completed and declined stamp responded_at.
func (s *Store) Advance(ctx context.Context, id primitive.ObjectID, to string, at time.Time) (bool, error) {
	from := predecessors(to)
	if len(from) == 0 {
		return false, errors.New("contactstore: unknown or unreachable status " + to)
	}
	set := bson.M{"status": to, "updated_at": time.Now().UTC()}
	switch to {
	case models.ContactInvited:
		set["invited_at"] = at.UTC()
	case models.ContactCompleted, models.ContactDeclined:
		set["responded_at"] = at.UTC()
	}

	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "status": bson.M{"$in": from}},
		bson.M{"$set": set},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

// LinkParticipant records the participant created from this contact.
func (s *Store) LinkParticipant(ctx context.Context, id, participantID primitive.ObjectID) error {
	_, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"participant_id": participantID, "updated_at": time.Now().UTC()}},
	)
	return err
}

// CountByStatus returns the number of contacts per status.
func (s *Store) CountByStatus(ctx context.Context) (map[string]int64, error) {
	cur, err := s.c.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$status", "n": bson.M{"$sum": 1}}}},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := map[string]int64{}
	for cur.Next(ctx) {
		var row struct {
			Status string `bson:"_id"`
			N      int64  `bson:"n"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		out[row.Status] = row.N
	}
	return out, cur.Err()
}
