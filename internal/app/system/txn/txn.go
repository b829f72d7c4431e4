// Package txn runs a group of writes in a MongoDB transaction when the
// deployment supports one.
//
// Standalone servers (the usual development setup) reject transactions.
// There Run logs once per call and executes the function without a
// transaction, which keeps behavior correct for a single process.
package txn

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Server error codes meaning "transactions are not available here".
var notSupportedCodes = map[int32]bool{
	20:  true, // IllegalOperation
	51:  true, // IllegalOperation on older servers
	263: true, // OperationNotSupportedInTransaction
}

var notSupportedHints = []string{
	"transaction",
	"replica set",
	"session",
	"not supported",
	"illegal operation",
}

// IsNotSupported reports whether err means the deployment cannot run
// transactions.
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) {
		if notSupportedCodes[ce.Code] {
			return true
		}
	}
	msg := strings.ToLower(err.Error())
	hits := 0
	for _, h := range notSupportedHints {
		if strings.Contains(msg, h) {
			hits++
		}
	}
	return hits >= 2
}

// Run executes fn inside a transaction on db's client. The ctx passed to
// fn carries the session and must be used for every write in the group.
func Run(ctx context.Context, db *mongo.Database, log *zap.Logger, fn func(ctx context.Context) error) error {
	sess, err := db.Client().StartSession()
	if err != nil {
		if IsNotSupported(err) {
			log.Debug("sessions not supported; running without transaction", zap.Error(err))
			return fn(ctx)
		}
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	if err != nil && IsNotSupported(err) {
		log.Debug("transactions not supported; running without transaction", zap.Error(err))
		return fn(ctx)
	}
	return err
}
