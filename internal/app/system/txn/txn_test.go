package txn_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/dalemusser/santahub/internal/app/system/txn"
	"github.com/dalemusser/santahub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func TestIsNotSupported(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"unrelated", errors.New("connection reset by peer"), false},
		{"illegal operation code", mongo.CommandError{Code: 20, Message: "Transaction numbers are only allowed on a replica set member or mongos"}, true},
		{"legacy code", mongo.CommandError{Code: 51}, true},
		{"not supported in transaction", mongo.CommandError{Code: 263}, true},
		{"duplicate key code", mongo.CommandError{Code: 11000, Message: "E11000 duplicate key"}, false},
		{"wrapped command error", fmt.Errorf("replace assignments: %w", mongo.CommandError{Code: 20}), true},
		{"two hints", errors.New("Transaction numbers require a Replica Set"), true},
		{"one hint", errors.New("transaction aborted"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := txn.IsNotSupported(tt.err); got != tt.want {
				t.Errorf("IsNotSupported(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestRun_CommitsWrites(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	err := txn.Run(ctx, db, zap.NewNop(), func(ctx context.Context) error {
		if _, err := db.Collection("assignments").InsertOne(ctx, bson.M{"giver": "a"}); err != nil {
			return err
		}
		_, err := db.Collection("events").InsertOne(ctx, bson.M{"_id": "current"})
		return err
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	n, err := db.Collection("assignments").CountDocuments(ctx, bson.M{})
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 assignment, got %d", n)
	}
}

func TestRun_ReturnsFunctionError(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	boom := errors.New("boom")
	err := txn.Run(ctx, db, zap.NewNop(), func(ctx context.Context) error { return boom })
	if !errors.Is(err, boom) {
		t.Errorf("expected boom, got %v", err)
	}
}
