// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called at startup. Each ensure* function is idempotent.
We aggregate errors so any problem is visible and startup can fail fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	for _, step := range []struct {
		name string
		fn   func(context.Context, *mongo.Database) error
	}{
		{"participants", ensureParticipants},
		{"exclusions", ensureExclusions},
		{"assignments", ensureAssignments},
		{"contacts", ensureContacts},
		{"onboarding_sessions", ensureOnboardingSessions},
	} {
		if err := step.fn(ctx, db); err != nil {
			problems = append(problems, step.name+": "+err.Error())
		}
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Core helper: reconcile a set of desired indexes for one collection         */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func sameBoolPtr(a, b *bool) bool {
	av := false
	bv := false
	if a != nil {
		av = *a
	}
	if b != nil {
		bv = *b
	}
	return av == bv
}

// Best-effort duplicate-detector (works cross-vendors)
func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 { // E11000 duplicate key error index
				return true
			}
		}
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 11000 {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "E11000") || strings.Contains(strings.ToLower(s), "duplicate key")
}

func listIndexes(ctx context.Context, coll *mongo.Collection) map[string]existingIndex {
	existing := map[string]existingIndex{} // sig -> index
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return existing
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			zap.L().Warn("failed to decode existing index",
				zap.String("collection", coll.Name()),
				zap.Error(err))
			continue
		}
		existing[keySig(idx.Key)] = idx
	}
	return existing
}

// recreate drops the index named old and creates m in its place.
func recreate(ctx context.Context, coll *mongo.Collection, old string, m mongo.IndexModel, unique bool) error {
	if _, err := coll.Indexes().DropOne(ctx, old); err != nil {
		return fmt.Errorf("drop %s failed: %w", old, err)
	}
	if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
		if unique && isDuplicateKeyErr(err) {
			return errors.New("cannot create unique index (duplicates present)")
		}
		return err
	}
	return nil
}

func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	var errs []string

	for _, m := range models {
		var desiredName string
		unique := false
		if m.Options != nil {
			if m.Options.Name != nil {
				desiredName = *m.Options.Name
			}
			unique = m.Options.Unique != nil && *m.Options.Unique
		}
		desiredSig := keySig(m.Keys.(bson.D))
		start := time.Now()
		fields := []zap.Field{
			zap.String("collection", coll.Name()),
			zap.String("name", desiredName),
			zap.String("keys", desiredSig),
			zap.Bool("unique", unique),
		}

		ex, ok := listIndexes(ctx, coll)[desiredSig]
		switch {
		case ok && sameBoolPtr(&unique, ex.Unique) && (desiredName == "" || ex.Name == desiredName):
			zap.L().Debug("reusing existing index", fields...)
			continue

		case ok:
			// Same keys, different name or uniqueness: align with the desired definition.
			if err := recreate(ctx, coll, ex.Name, m, unique); err != nil {
				zap.L().Warn("index recreate failed", append(fields, zap.Error(err))...)
				errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), desiredName, err))
				continue
			}
			zap.L().Info("index recreated", append(fields, zap.Duration("took", time.Since(start)))...)

		default:
			if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
				zap.L().Warn("index ensure failed", append(fields, zap.Error(err))...)
				errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), desiredName, err))
				continue
			}
			zap.L().Info("index ensured", append(fields, zap.Duration("took", time.Since(start)))...)
		}
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Collection-specific index sets                                              */
/* -------------------------------------------------------------------------- */

func ensureParticipants(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("participants")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// One participant per chat identity; admin-created rows may have none.
		{
			Keys: bson.D{{Key: "chat_user_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_participants_chatuser").
				SetPartialFilterExpression(bson.M{"chat_user_id": bson.M{"$type": "string"}}),
		},
		{
			Keys: bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_participants_email").
				SetPartialFilterExpression(bson.M{"email": bson.M{"$type": "string"}}),
		},
		// Listing in name order
		{
			Keys:    bson.D{{Key: "full_name_ci", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("idx_participants_fullnameci__id"),
		},
	})
}

func ensureExclusions(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("exclusions")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "giver_id", Value: 1}, {Key: "receiver_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_exclusions_giver_receiver"),
		},
		{
			Keys:    bson.D{{Key: "receiver_id", Value: 1}},
			Options: options.Index().SetName("idx_exclusions_receiver"),
		},
	})
}

func ensureAssignments(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("assignments")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Exactly one assignment per giver and per receiver within an event.
		{
			Keys:    bson.D{{Key: "event_id", Value: 1}, {Key: "giver_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_assignments_event_giver"),
		},
		{
			Keys:    bson.D{{Key: "event_id", Value: 1}, {Key: "receiver_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_assignments_event_receiver"),
		},
		// Reminder sweep: notified, not yet gift-sent
		{
			Keys: bson.D{
				{Key: "event_id", Value: 1},
				{Key: "notified", Value: 1},
				{Key: "gift_sent", Value: 1},
			},
			Options: options.Index().SetName("idx_assignments_event_notified_giftsent"),
		},
	})
}

func ensureContacts(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("contacts")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_contacts_email"),
		},
		{
			Keys:    bson.D{{Key: "chat_user_id", Value: 1}},
			Options: options.Index().SetName("idx_contacts_chatuser"),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("idx_contacts_status__id"),
		},
	})
}

func ensureOnboardingSessions(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("onboarding_sessions")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// One session per contact
		{
			Keys:    bson.D{{Key: "contact_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_onboarding_contact"),
		},
		{
			Keys:    bson.D{{Key: "chat_user_id", Value: 1}, {Key: "updated_at", Value: -1}},
			Options: options.Index().SetName("idx_onboarding_chatuser_updated"),
		},
	})
}
