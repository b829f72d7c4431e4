// internal/app/store/exclusions/exclusionstore.go
package exclusionstore

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

var (
	ErrSelfExclusion      = errors.New("a participant cannot be excluded from themselves")
	ErrDuplicateExclusion = errors.New("this exclusion already exists")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("exclusions")}
}

// Add stores giver -> receiver, and receiver -> giver too when bothWays is
// set. Orderings that already exist are skipped; ErrDuplicateExclusion is
// returned only when nothing new was stored.
func (s *Store) Add(ctx context.Context, giverID, receiverID primitive.ObjectID, bothWays bool) ([]models.Exclusion, error) {
	if giverID == receiverID {
		return nil, ErrSelfExclusion
	}

	pairs := [][2]primitive.ObjectID{{giverID, receiverID}}
	if bothWays {
		pairs = append(pairs, [2]primitive.ObjectID{receiverID, giverID})
	}

	now := time.Now().UTC()
	var added []models.Exclusion
	for _, p := range pairs {
		e := models.Exclusion{
			ID:         primitive.NewObjectID(),
			GiverID:    p[0],
			ReceiverID: p[1],
			CreatedAt:  now,
		}
		if _, err := s.c.InsertOne(ctx, e); err != nil {
			if wafflemongo.IsDup(err) {
				continue
			}
			return added, err
		}
		added = append(added, e)
	}
	if len(added) == 0 {
		return nil, ErrDuplicateExclusion
	}
	return added, nil
}

// List returns every exclusion, oldest first.
func (s *Store) List(ctx context.Context) ([]models.Exclusion, error) {
	cur, err := s.c.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.Exclusion
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes one ordering by ID. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// DeleteForParticipant removes every exclusion naming id on either side.
func (s *Store) DeleteForParticipant(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"$or": bson.A{
		bson.M{"giver_id": id},
		bson.M{"receiver_id": id},
	}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
