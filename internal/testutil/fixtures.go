package testutil

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/santahub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateParticipant inserts a matchable participant. chatUserID may be empty.
func (f *Fixtures) CreateParticipant(ctx context.Context, name, chatUserID string) models.Participant {
	f.t.Helper()

	now := time.Now().UTC()
	p := models.Participant{
		ID:         primitive.NewObjectID(),
		FullName:   name,
		FullNameCI: text.Fold(name),
		ChatUserID: chatUserID,
		Street:     "Main Street 1",
		City:       "Berlin",
		PostalCode: "10115",
		Country:    "Germany",
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if chatUserID != "" {
		p.Email = strings.ToLower(chatUserID) + "@example.com"
	}
	p.Address = models.FormatAddress(p.Street, p.PostalCode, p.City, p.Country)

	if _, err := f.db.Collection("participants").InsertOne(ctx, p); err != nil {
		f.t.Fatalf("failed to create test participant: %v", err)
	}
	return p
}

// CreateContact inserts a contact in the given status.
func (f *Fixtures) CreateContact(ctx context.Context, email, chatUserID, status string) models.Contact {
	f.t.Helper()

	now := time.Now().UTC()
	c := models.Contact{
		ID:          primitive.NewObjectID(),
		Email:       email,
		DisplayName: strings.Split(email, "@")[0],
		ChatUserID:  chatUserID,
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := f.db.Collection("contacts").InsertOne(ctx, c); err != nil {
		f.t.Fatalf("failed to create test contact: %v", err)
	}
	return c
}

// CreateSession inserts an onboarding session for a contact.
func (f *Fixtures) CreateSession(ctx context.Context, c models.Contact, state string) models.OnboardingSession {
	f.t.Helper()

	now := time.Now().UTC()
	s := models.OnboardingSession{
		ID:         primitive.NewObjectID(),
		ContactID:  c.ID,
		ChatUserID: c.ChatUserID,
		State:      state,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if _, err := f.db.Collection("onboarding_sessions").InsertOne(ctx, s); err != nil {
		f.t.Fatalf("failed to create test session: %v", err)
	}
	return s
}

// CreateAssignment inserts an assignment for the current event.
func (f *Fixtures) CreateAssignment(ctx context.Context, giver, receiver models.Participant, notified bool) models.Assignment {
	f.t.Helper()

	now := time.Now().UTC()
	a := models.Assignment{
		ID:         primitive.NewObjectID(),
		EventID:    models.CurrentEventID,
		RunID:      "test-run",
		GiverID:    giver.ID,
		ReceiverID: receiver.ID,
		Notified:   notified,
		CreatedAt:  now,
	}
	if notified {
		a.NotifiedAt = &now
	}
	if _, err := f.db.Collection("assignments").InsertOne(ctx, a); err != nil {
		f.t.Fatalf("failed to create test assignment: %v", err)
	}
	return a
}
