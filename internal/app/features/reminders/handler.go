// internal/app/features/reminders/handler.go
package reminders

import (
	"context"
	"errors"
	"net/http"

	apierrors "github.com/dalemusser/santahub/internal/app/features/errors"
	sweep "github.com/dalemusser/santahub/internal/app/system/reminders"
	"go.uber.org/zap"
)

// Sweeper runs one reminder pass.
type Sweeper interface {
	Sweep(ctx context.Context) (sweep.Report, error)
}

type Handler struct {
	Reminders Sweeper
	ErrLog    *apierrors.ErrorLogger
	Log       *zap.Logger
}

func NewHandler(s Sweeper, errLog *apierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{Reminders: s, ErrLog: errLog, Log: logger}
}

// ServeSweep handles POST /admin/reminders/sweep.
func (h *Handler) ServeSweep(w http.ResponseWriter, r *http.Request) {
	rep, err := h.Reminders.Sweep(r.Context())
	if errors.Is(err, sweep.ErrSweepRunning) {
		apierrors.JSON(w, http.StatusConflict, "a reminder sweep is already running")
		return
	}
	if err != nil {
		h.ErrLog.Internal(w, r, "reminder sweep failed", err)
		return
	}
	apierrors.WriteJSON(w, http.StatusOK, rep)
}
