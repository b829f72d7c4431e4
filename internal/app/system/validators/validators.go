// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"strings"

	"github.com/dalemusser/santahub/internal/app/system/onboarding"
	"github.com/dalemusser/santahub/internal/domain/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// EnsureAll creates collections (if missing) and tries to attach JSON-Schema
// validators. On servers that don't support collMod/validators (e.g. some
// DocumentDB versions), we log and skip gracefully.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	// helper: ensure collection exists (with truthful logging) and then validator (if provided)
	ensure := func(coll string, schema bson.M) {
		if _, err := ensureCollection(ctx, db, coll); err != nil {
			problems = append(problems, coll+": "+err.Error())
			return
		}
		if schema == nil {
			return
		}
		if err := setValidator(ctx, db, coll, schema); err != nil {
			// DocumentDB or other deployments may not support collMod/validators.
			if isNoSuchCommand(err) || isNotImplemented(err) {
				zap.L().Info("validator skipped (unsupported)", zap.String("collection", coll))
				return
			}
			problems = append(problems, coll+": "+err.Error())
		}
	}

	ensure("participants", participantsSchema())
	ensure("exclusions", exclusionsSchema())
	ensure("events", eventsSchema())
	ensure("assignments", assignmentsSchema())
	ensure("contacts", contactsSchema())
	ensure("onboarding_sessions", onboardingSessionsSchema())

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* ---------------------- collection helpers & logging ---------------------- */

// collectionExists returns true when <name> already exists.
// Uses ListCollectionNames to avoid "created collection" log when it didn't.
func collectionExists(ctx context.Context, db *mongo.Database, name string) (bool, error) {
	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if n == name {
			return true, nil
		}
	}
	return false, nil
}

// ensureCollection idempotently makes sure <name> exists.
// Returns created==true only if we actually created it.
func ensureCollection(ctx context.Context, db *mongo.Database, name string) (created bool, err error) {
	exists, listErr := collectionExists(ctx, db, name)
	if listErr == nil && exists {
		zap.L().Info("collection exists", zap.String("collection", name))
		return false, nil
	}
	// If listing failed, fall back to create-and-handle-race.
	if err := db.CreateCollection(ctx, name); err != nil {
		// NamespaceExists / already exists is fine (race or prior run).
		if isNamespaceExistsErr(err) {
			zap.L().Info("collection exists", zap.String("collection", name))
			return false, nil
		}
		zap.L().Warn("createCollection failed", zap.String("collection", name), zap.Error(err))
		return false, err
	}
	zap.L().Info("created collection", zap.String("collection", name))
	return true, nil
}

/* ------------------------------ validators ------------------------------- */

func setValidator(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	var out bson.M
	if err := db.RunCommand(ctx, cmd).Decode(&out); err != nil {
		return err
	}
	zap.L().Info("validator ensured", zap.String("collection", name))
	return nil
}

/* ------------------------- error helpers ------------------------- */

func isNamespaceExistsErr(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 48 || strings.Contains(strings.ToLower(ce.Message), "already exists")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "already exists") || strings.Contains(s, "namespace exists")
}

func isNoSuchCommand(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 59 || strings.Contains(strings.ToLower(ce.Message), "no such command")) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "no such command")
}

func isNotImplemented(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 115 ||
		strings.Contains(strings.ToLower(ce.Message), "not implemented") ||
		strings.Contains(strings.ToLower(ce.Message), "not supported")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "not implemented") || strings.Contains(s, "not supported")
}

/* ------------------------- JSON-Schema docs ---------------------- */

var nonBlank = bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"}

func participantsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"full_name", "full_name_ci", "address", "created_at"},
			"properties": bson.M{
				"full_name":    nonBlank,
				"full_name_ci": nonBlank,
				"address":      bson.M{"bsonType": "string"},
				"email":        bson.M{"bsonType": "string"},
				"chat_user_id": bson.M{"bsonType": "string"},
				"notes":        bson.M{"bsonType": bson.A{"string", "null"}},
				"time_zone":    bson.M{"bsonType": bson.A{"string", "null"}},
				"utc_offset":   bson.M{"bsonType": bson.A{"int", "long", "null"}},
				"contact_id":   bson.M{"bsonType": bson.A{"objectId", "null"}},
				"created_at":   bson.M{"bsonType": "date"},
			},
		},
	}
}

func exclusionsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"giver_id", "receiver_id"},
			"properties": bson.M{
				"giver_id":    bson.M{"bsonType": "objectId"},
				"receiver_id": bson.M{"bsonType": "objectId"},
				"created_at":  bson.M{"bsonType": "date"},
			},
		},
	}
}

func eventsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"status"},
			"properties": bson.M{
				"status":      bson.M{"enum": bson.A{models.EventOpen, models.EventMatched, models.EventNotified}},
				"run_id":      bson.M{"bsonType": "string"},
				"notify_at":   bson.M{"bsonType": bson.A{"date", "null"}},
				"notified_at": bson.M{"bsonType": bson.A{"date", "null"}},

				"dispatch_lease_until": bson.M{"bsonType": bson.A{"date", "null"}},
			},
		},
	}
}

func assignmentsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"event_id", "run_id", "giver_id", "receiver_id", "notified", "gift_sent", "receiver_notified"},
			"properties": bson.M{
				"event_id":          nonBlank,
				"run_id":            nonBlank,
				"giver_id":          bson.M{"bsonType": "objectId"},
				"receiver_id":       bson.M{"bsonType": "objectId"},
				"notified":          bson.M{"bsonType": "bool"},
				"gift_sent":         bson.M{"bsonType": "bool"},
				"receiver_notified": bson.M{"bsonType": "bool"},
				"notified_at":       bson.M{"bsonType": bson.A{"date", "null"}},
				"gift_sent_at":      bson.M{"bsonType": bson.A{"date", "null"}},
				"last_reminder_at":  bson.M{"bsonType": bson.A{"date", "null"}},
				"next_reminder_at":  bson.M{"bsonType": bson.A{"date", "null"}},
			},
		},
	}
}

func contactsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"email", "chat_user_id", "status"},
			"properties": bson.M{
				"email":        nonBlank,
				"chat_user_id": nonBlank,
				"status": bson.M{"enum": bson.A{
					models.ContactImported, models.ContactInvited, models.ContactInProgress,
					models.ContactCompleted, models.ContactDeclined,
				}},
				"participant_id": bson.M{"bsonType": bson.A{"objectId", "null"}},
			},
		},
	}
}

func onboardingSessionsSchema() bson.M {
	stateEnum := bson.A{}
	for _, st := range onboarding.States() {
		stateEnum = append(stateEnum, string(st))
	}
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"contact_id", "chat_user_id", "state"},
			"properties": bson.M{
				"contact_id":   bson.M{"bsonType": "objectId"},
				"chat_user_id": nonBlank,
				"state":        bson.M{"bsonType": "string", "enum": stateEnum},
				"fields":       bson.M{"bsonType": "object"},
			},
		},
	}
}
