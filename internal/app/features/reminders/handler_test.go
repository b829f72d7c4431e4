package reminders_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	apierrors "github.com/dalemusser/santahub/internal/app/features/errors"
	"github.com/dalemusser/santahub/internal/app/features/reminders"
	sweep "github.com/dalemusser/santahub/internal/app/system/reminders"
	"go.uber.org/zap"
)

type fakeSweeper struct {
	rep sweep.Report
	err error
}

func (f fakeSweeper) Sweep(ctx context.Context) (sweep.Report, error) { return f.rep, f.err }

func newHandler(s fakeSweeper) *reminders.Handler {
	logger := zap.NewNop()
	return reminders.NewHandler(s, apierrors.NewErrorLogger(logger), logger)
}

func TestServeSweep(t *testing.T) {
	h := newHandler(fakeSweeper{rep: sweep.Report{Scheduled: 2, Sent: 1}})

	rec := httptest.NewRecorder()
	h.ServeSweep(rec, httptest.NewRequest("POST", "/sweep", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	var rep sweep.Report
	if err := json.Unmarshal(rec.Body.Bytes(), &rep); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if rep != (sweep.Report{Scheduled: 2, Sent: 1}) {
		t.Errorf("unexpected report %+v", rep)
	}
}

func TestServeSweep_Running(t *testing.T) {
	h := newHandler(fakeSweeper{err: sweep.ErrSweepRunning})

	rec := httptest.NewRecorder()
	h.ServeSweep(rec, httptest.NewRequest("POST", "/sweep", nil))
	if rec.Code != http.StatusConflict {
		t.Errorf("expected status %d, got %d", http.StatusConflict, rec.Code)
	}
}
