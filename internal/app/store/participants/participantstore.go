// internal/app/store/participants/participantstore.go
package participantstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/santahub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrDuplicateParticipant = errors.New("a participant with this email or chat user already exists")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("participants")}
}

// prepare fills the derived fields.
func prepare(p *models.Participant) {
	p.FullName = strings.TrimSpace(p.FullName)
	p.FullNameCI = text.Fold(p.FullName)
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
	if p.Address == "" {
		p.Address = models.FormatAddress(p.Street, p.PostalCode, p.City, p.Country)
	}
}

// Create inserts a new participant.
func (s *Store) Create(ctx context.Context, p models.Participant) (models.Participant, error) {
	now := time.Now().UTC()
	p.ID = primitive.NewObjectID()
	prepare(&p)
	p.CreatedAt = now
	p.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, p); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Participant{}, ErrDuplicateParticipant
		}
		return models.Participant{}, err
	}
	return p, nil
}

// UpsertByChatUser creates the participant for p.ChatUserID or overwrites
// the details of the existing one. It returns the stored document.
func (s *Store) UpsertByChatUser(ctx context.Context, p models.Participant) (models.Participant, error) {
	if p.ChatUserID == "" {
		return models.Participant{}, errors.New("participantstore: chat user id required")
	}
	now := time.Now().UTC()
	prepare(&p)

	set := bson.M{
		"full_name":    p.FullName,
		"full_name_ci": p.FullNameCI,
		"street":       p.Street,
		"city":         p.City,
		"postal_code":  p.PostalCode,
		"country":      p.Country,
		"address":      p.Address,
		"phone":        p.Phone,
		"updated_at":   now,
	}
	unset := bson.M{}
	optional := map[string]any{
		"email":      p.Email,
		"notes":      p.Notes,
		"time_zone":  p.TimeZone,
		"utc_offset": p.UTCOffset,
		"contact_id": p.ContactID,
	}
	for k, v := range optional {
		switch x := v.(type) {
		case string:
			if x != "" {
				set[k] = x
			}
		case *string:
			if x != nil {
				set[k] = *x
			} else {
				unset[k] = ""
			}
		case *int:
			if x != nil {
				set[k] = *x
			} else {
				unset[k] = ""
			}
		case *primitive.ObjectID:
			if x != nil {
				set[k] = *x
			}
		}
	}

	update := bson.M{
		"$set":         set,
		"$setOnInsert": bson.M{"_id": primitive.NewObjectID(), "created_at": now},
	}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	var out models.Participant
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"chat_user_id": p.ChatUserID},
		update,
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&out)
	if err != nil {
		if wafflemongo.IsDup(err) {
			return models.Participant{}, ErrDuplicateParticipant
		}
		return models.Participant{}, err
	}
	return out, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Participant, error) {
	var p models.Participant
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return models.Participant{}, err
	}
	return p, nil
}

// ByChatUserID returns mongo.ErrNoDocuments when the chat user is not a participant.
func (s *Store) ByChatUserID(ctx context.Context, chatUserID string) (models.Participant, error) {
	var p models.Participant
	if err := s.c.FindOne(ctx, bson.M{"chat_user_id": chatUserID}).Decode(&p); err != nil {
		return models.Participant{}, err
	}
	return p, nil
}

// ByIDs loads participants keyed by id. Unknown ids are absent from the map.
func (s *Store) ByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Participant, error) {
	out := make(map[primitive.ObjectID]models.Participant, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var p models.Participant
		if err := cur.Decode(&p); err != nil {
			return nil, err
		}
		out[p.ID] = p
	}
	return out, cur.Err()
}

// List returns every participant in name order.
func (s *Store) List(ctx context.Context) ([]models.Participant, error) {
	opts := options.Find().SetSort(bson.D{{Key: "full_name_ci", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.Participant
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListMatchable returns the participants eligible for a matching run.
func (s *Store) ListMatchable(ctx context.Context) ([]models.Participant, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, p := range all {
		if p.Matchable() {
			out = append(out, p)
		}
	}
	return out, nil
}

// Delete removes a participant by ID. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
