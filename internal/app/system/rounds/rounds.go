// Package rounds runs a matching round: it loads the matchable
// participants and the exclusions, asks the matching engine for a pairing
// and replaces the current event's assignments with the result.
package rounds

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dalemusser/santahub/internal/app/system/matching"
	"github.com/dalemusser/santahub/internal/app/system/txn"
	"github.com/dalemusser/santahub/internal/domain/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// DefaultMinParticipants is the smallest group a round is run for.
const DefaultMinParticipants = 3

// ErrRunInProgress is returned when a round is requested while another is running.
var ErrRunInProgress = errors.New("rounds: a matching run is already in progress")

type ParticipantStore interface {
	ListMatchable(ctx context.Context) ([]models.Participant, error)
}

type ExclusionStore interface {
	List(ctx context.Context) ([]models.Exclusion, error)
}

type AssignmentStore interface {
	ReplaceAll(ctx context.Context, eventID, runID string, list []models.Assignment) ([]models.Assignment, error)
}

type EventStore interface {
	MarkMatched(ctx context.Context, runID string, at time.Time) error
}

// Atomic runs fn so that its writes become visible together.
type Atomic func(ctx context.Context, fn func(ctx context.Context) error) error

// MongoAtomic runs fn in a MongoDB transaction where the deployment
// supports one.
func MongoAtomic(db *mongo.Database, log *zap.Logger) Atomic {
	return func(ctx context.Context, fn func(ctx context.Context) error) error {
		return txn.Run(ctx, db, log, fn)
	}
}

// Result describes a completed run.
type Result struct {
	RunID       string              `json:"run_id"`
	Assignments []models.Assignment `json:"assignments"`
}

// Service runs matching rounds for the current event.
type Service struct {
	Participants ParticipantStore
	Exclusions   ExclusionStore
	Assignments  AssignmentStore
	Events       EventStore
	Atomic       Atomic
	Log          *zap.Logger

	MinParticipants int
	MatchOptions    []matching.Option

	mu sync.Mutex
}

func (s *Service) minParticipants() int {
	if s.MinParticipants > 0 {
		return s.MinParticipants
	}
	return DefaultMinParticipants
}

// Run computes a fresh pairing and replaces the current assignments.
//
// matching.ErrTooFewParticipants and matching.ErrInfeasible are returned
// wrapped; in both cases the stored assignments are left as they were.
func (s *Service) Run(ctx context.Context) (Result, error) {
	if !s.mu.TryLock() {
		return Result{}, ErrRunInProgress
	}
	defer s.mu.Unlock()

	people, err := s.Participants.ListMatchable(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("load participants: %w", err)
	}
	if n, min := len(people), s.minParticipants(); n < min {
		return Result{}, fmt.Errorf("%w: %d matchable, need %d", matching.ErrTooFewParticipants, n, min)
	}

	excl, err := s.Exclusions.List(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("load exclusions: %w", err)
	}

	ids := make([]string, len(people))
	for i, p := range people {
		ids[i] = p.ID.Hex()
	}
	pairs := make([]matching.Pair, len(excl))
	for i, e := range excl {
		pairs[i] = matching.Pair{Giver: e.GiverID.Hex(), Receiver: e.ReceiverID.Hex()}
	}

	matched, err := matching.Match(ids, pairs, s.MatchOptions...)
	if err != nil {
		s.Log.Warn("matching failed",
			zap.Int("participants", len(ids)),
			zap.Int("exclusions", len(pairs)),
			zap.Error(err))
		return Result{}, err
	}

	list := make([]models.Assignment, len(matched))
	for i, p := range matched {
		g, err := primitive.ObjectIDFromHex(p.Giver)
		if err != nil {
			return Result{}, err
		}
		r, err := primitive.ObjectIDFromHex(p.Receiver)
		if err != nil {
			return Result{}, err
		}
		list[i] = models.Assignment{GiverID: g, ReceiverID: r}
	}

	runID := uuid.NewString()
	var stored []models.Assignment
	err = s.atomic(ctx, func(ctx context.Context) error {
		var err error
		stored, err = s.Assignments.ReplaceAll(ctx, models.CurrentEventID, runID, list)
		if err != nil {
			return err
		}
		return s.Events.MarkMatched(ctx, runID, time.Now().UTC())
	})
	if err != nil {
		return Result{}, fmt.Errorf("store assignments: %w", err)
	}

	s.Log.Info("matching run complete",
		zap.String("run_id", runID),
		zap.Int("assignments", len(stored)),
		zap.Int("exclusions", len(pairs)))
	return Result{RunID: runID, Assignments: stored}, nil
}

func (s *Service) atomic(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.Atomic == nil {
		return fn(ctx)
	}
	return s.Atomic(ctx, fn)
}
