package event_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	apierrors "github.com/dalemusser/santahub/internal/app/features/errors"
	"github.com/dalemusser/santahub/internal/app/features/event"
	"github.com/dalemusser/santahub/internal/domain/models"
	"github.com/dalemusser/santahub/internal/testutil"
	"go.uber.org/zap"
)

func newHandler(t *testing.T) *event.Handler {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	return event.NewHandler(db, apierrors.NewErrorLogger(logger), logger)
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) models.Event {
	t.Helper()
	var ev models.Event
	if err := json.Unmarshal(rec.Body.Bytes(), &ev); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	return ev
}

func TestServeGet_DefaultsToOpen(t *testing.T) {
	h := newHandler(t)

	rec := httptest.NewRecorder()
	h.ServeGet(rec, httptest.NewRequest("GET", "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if ev := decode(t, rec); ev.Status != models.EventOpen {
		t.Errorf("expected status %q, got %q", models.EventOpen, ev.Status)
	}
}

func TestServeSchedule_RequiresMatchedEvent(t *testing.T) {
	h := newHandler(t)

	body := `{"notify_at":"2025-12-15T09:00:00Z"}`
	rec := httptest.NewRecorder()
	h.ServeSchedule(rec, httptest.NewRequest("PUT", "/schedule", strings.NewReader(body)))
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected status %d, got %d", http.StatusConflict, rec.Code)
	}

	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := h.Events.MarkMatched(ctx, "run-1", time.Now()); err != nil {
		t.Fatalf("MarkMatched failed: %v", err)
	}

	rec = httptest.NewRecorder()
	h.ServeSchedule(rec, httptest.NewRequest("PUT", "/schedule", strings.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}
	ev := decode(t, rec)
	want := time.Date(2025, 12, 15, 9, 0, 0, 0, time.UTC)
	if ev.NotifyAt == nil || !ev.NotifyAt.Equal(want) {
		t.Errorf("expected notify_at %v, got %v", want, ev.NotifyAt)
	}

	rec = httptest.NewRecorder()
	h.ServeSchedule(rec, httptest.NewRequest("PUT", "/schedule", strings.NewReader(`{"notify_at":null}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if ev := decode(t, rec); ev.NotifyAt != nil {
		t.Errorf("expected schedule cleared, got %v", ev.NotifyAt)
	}
}

func TestServeName(t *testing.T) {
	h := newHandler(t)

	rec := httptest.NewRecorder()
	h.ServeName(rec, httptest.NewRequest("PUT", "/name", strings.NewReader(`{"name":"Office Secret Santa"}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	ev := decode(t, rec)
	if ev.Name != "Office Secret Santa" || ev.Status != models.EventOpen {
		t.Errorf("unexpected event %+v", ev)
	}

	rec = httptest.NewRecorder()
	h.ServeName(rec, httptest.NewRequest("PUT", "/name", strings.NewReader(`{"name":""}`)))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
	}
}
