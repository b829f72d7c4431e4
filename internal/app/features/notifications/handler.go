// internal/app/features/notifications/handler.go
package notifications

import (
	"context"
	"errors"
	"net/http"

	apierrors "github.com/dalemusser/santahub/internal/app/features/errors"
	"github.com/dalemusser/santahub/internal/app/system/notify"
	"go.uber.org/zap"
)

// Dispatcher sends assignment notifications.
type Dispatcher interface {
	Dispatch(ctx context.Context) (notify.Report, error)
}

type Handler struct {
	Notify Dispatcher
	ErrLog *apierrors.ErrorLogger
	Log    *zap.Logger
}

func NewHandler(d Dispatcher, errLog *apierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{Notify: d, ErrLog: errLog, Log: logger}
}

// ServeSend handles POST /admin/notifications/send.
func (h *Handler) ServeSend(w http.ResponseWriter, r *http.Request) {
	rep, err := h.Notify.Dispatch(r.Context())
	switch {
	case errors.Is(err, notify.ErrDispatchRunning):
		apierrors.JSON(w, http.StatusConflict, "notifications are already being sent")
		return
	case errors.Is(err, notify.ErrNotMatched):
		apierrors.JSON(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		h.ErrLog.Internal(w, r, "failed to send notifications", err)
		return
	}
	apierrors.WriteJSON(w, http.StatusOK, rep)
}
