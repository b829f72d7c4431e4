package rounds

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/dalemusser/santahub/internal/app/store/assignments"
	"github.com/dalemusser/santahub/internal/app/store/events"
	"github.com/dalemusser/santahub/internal/app/store/exclusions"
	"github.com/dalemusser/santahub/internal/app/store/participants"
	"github.com/dalemusser/santahub/internal/app/system/matching"
	"github.com/dalemusser/santahub/internal/domain/models"
	"github.com/dalemusser/santahub/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type memParticipants []models.Participant

func (m memParticipants) ListMatchable(ctx context.Context) ([]models.Participant, error) {
	return m, nil
}

type memExclusions []models.Exclusion

func (m memExclusions) List(ctx context.Context) ([]models.Exclusion, error) { return m, nil }

type memAssignments struct {
	runID string
	rows  []models.Assignment
	fail  error
}

func (m *memAssignments) ReplaceAll(ctx context.Context, eventID, runID string, list []models.Assignment) ([]models.Assignment, error) {
	if m.fail != nil {
		return nil, m.fail
	}
	m.runID = runID
	m.rows = nil
	for _, a := range list {
		a.ID = primitive.NewObjectID()
		a.EventID, a.RunID = eventID, runID
		m.rows = append(m.rows, a)
	}
	return m.rows, nil
}

type memEvents struct{ runID string }

func (m *memEvents) MarkMatched(ctx context.Context, runID string, at time.Time) error {
	m.runID = runID
	return nil
}

func people(n int) memParticipants {
	out := make(memParticipants, n)
	for i := range out {
		out[i] = models.Participant{ID: primitive.NewObjectID(), FullName: "P", Address: "A"}
	}
	return out
}

func newService(p memParticipants, ex memExclusions, seed int64) (*Service, *memAssignments, *memEvents) {
	as := &memAssignments{}
	ev := &memEvents{}
	return &Service{
		Participants: p,
		Exclusions:   ex,
		Assignments:  as,
		Events:       ev,
		Log:          zap.NewNop(),
		MatchOptions: []matching.Option{matching.WithRand(rand.New(rand.NewSource(seed)))},
	}, as, ev
}

func TestRun_FourWithOneExclusion(t *testing.T) {
	p := people(4)
	ex := memExclusions{{GiverID: p[0].ID, ReceiverID: p[1].ID}}

	for seed := int64(0); seed < 50; seed++ {
		s, as, ev := newService(p, ex, seed)
		res, err := s.Run(context.Background())
		require.NoError(t, err)
		require.Len(t, res.Assignments, 4)
		assert.Equal(t, res.RunID, as.runID)
		assert.Equal(t, res.RunID, ev.runID)

		givers := map[primitive.ObjectID]bool{}
		receivers := map[primitive.ObjectID]bool{}
		for _, a := range res.Assignments {
			assert.NotEqual(t, a.GiverID, a.ReceiverID)
			assert.False(t, a.GiverID == p[0].ID && a.ReceiverID == p[1].ID, "excluded pair used")
			givers[a.GiverID] = true
			receivers[a.ReceiverID] = true
		}
		assert.Len(t, givers, 4)
		assert.Len(t, receivers, 4)
	}
}

func TestRun_TooFew(t *testing.T) {
	s, as, ev := newService(people(2), nil, 1)

	_, err := s.Run(context.Background())
	assert.ErrorIs(t, err, matching.ErrTooFewParticipants)
	assert.Empty(t, as.rows)
	assert.Empty(t, ev.runID)
}

func TestRun_MinParticipantsConfigurable(t *testing.T) {
	s, _, _ := newService(people(3), nil, 1)
	s.MinParticipants = 4

	_, err := s.Run(context.Background())
	assert.ErrorIs(t, err, matching.ErrTooFewParticipants)
}

func TestRun_InfeasibleKeepsPreviousAssignments(t *testing.T) {
	p := people(3)
	// Nobody may give to p[0].
	ex := memExclusions{
		{GiverID: p[1].ID, ReceiverID: p[0].ID},
		{GiverID: p[2].ID, ReceiverID: p[0].ID},
	}
	s, as, _ := newService(p, ex, 1)
	previous := []models.Assignment{{ID: primitive.NewObjectID()}}
	as.rows = previous

	_, err := s.Run(context.Background())
	assert.ErrorIs(t, err, matching.ErrInfeasible)
	assert.Equal(t, previous, as.rows)
}

func TestRun_StoreFailure(t *testing.T) {
	s, as, ev := newService(people(3), nil, 1)
	as.fail = errors.New("boom")
	var atomicCalls int
	s.Atomic = func(ctx context.Context, fn func(ctx context.Context) error) error {
		atomicCalls++
		return fn(ctx)
	}

	_, err := s.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, as.fail)
	assert.Equal(t, 1, atomicCalls)
	assert.Empty(t, ev.runID)
}

func TestRun_WithMongo(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	log := zap.NewNop()

	ps := participantstore.New(db)
	var ids []primitive.ObjectID
	for _, name := range []string{"Ada", "Bo", "Cy", "Di"} {
		p, err := ps.Create(ctx, models.Participant{FullName: name, Street: "Main Street 1", City: "Berlin", PostalCode: "10115", Country: "Germany"})
		if err != nil {
			t.Fatalf("Create(%s): %v", name, err)
		}
		ids = append(ids, p.ID)
	}
	xs := exclusionstore.New(db)
	if _, err := xs.Add(ctx, ids[0], ids[1], true); err != nil {
		t.Fatalf("Add exclusion: %v", err)
	}

	as := assignmentstore.New(db)
	es := eventstore.New(db)
	s := &Service{
		Participants: ps,
		Exclusions:   xs,
		Assignments:  as,
		Events:       es,
		Atomic:       MongoAtomic(db, log),
		Log:          log,
	}

	first, err := s.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	second, err := s.Run(ctx)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if first.RunID == second.RunID {
		t.Fatalf("run ids should differ")
	}

	stored, err := as.ListByEvent(ctx, models.CurrentEventID)
	if err != nil {
		t.Fatalf("ListByEvent: %v", err)
	}
	if len(stored) != 4 {
		t.Fatalf("stored %d assignments, want 4", len(stored))
	}
	for _, a := range stored {
		if a.RunID != second.RunID {
			t.Errorf("assignment %s has run %s, want %s", a.ID.Hex(), a.RunID, second.RunID)
		}
	}

	ev, err := es.Current(ctx)
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if ev.Status != models.EventMatched || ev.RunID != second.RunID {
		t.Errorf("event = %+v, want matched with run %s", ev, second.RunID)
	}
}
