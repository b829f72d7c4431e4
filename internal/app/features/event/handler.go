// internal/app/features/event/handler.go
package event

import (
	"errors"
	"net/http"
	"time"

	apierrors "github.com/dalemusser/santahub/internal/app/features/errors"
	eventstore "github.com/dalemusser/santahub/internal/app/store/events"
	"github.com/dalemusser/santahub/internal/app/system/inputval"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the current event admin endpoints.
type Handler struct {
	Events *eventstore.Store
	ErrLog *apierrors.ErrorLogger
	Log    *zap.Logger
}

func NewHandler(db *mongo.Database, errLog *apierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Events: eventstore.New(db),
		ErrLog: errLog,
		Log:    logger,
	}
}

// ServeGet handles GET /admin/event.
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	ev, err := h.Events.Current(r.Context())
	if err != nil {
		h.ErrLog.Internal(w, r, "failed to load event", err)
		return
	}
	apierrors.WriteJSON(w, http.StatusOK, ev)
}

// A null notify_at clears the schedule.
type scheduleRequest struct {
	NotifyAt *time.Time `json:"notify_at"`
}

// ServeSchedule handles PUT /admin/event/schedule.
func (h *Handler) ServeSchedule(w http.ResponseWriter, r *http.Request) {
	var req scheduleRequest
	if err := inputval.DecodeJSON(r, &req); err != nil {
		apierrors.BadRequest(w, err)
		return
	}
	ev, err := h.Events.Schedule(r.Context(), req.NotifyAt)
	if errors.Is(err, eventstore.ErrNotMatched) {
		apierrors.JSON(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		h.ErrLog.Internal(w, r, "failed to schedule notification", err)
		return
	}
	if req.NotifyAt != nil {
		h.Log.Info("notification scheduled", zap.Time("notify_at", req.NotifyAt.UTC()))
	} else {
		h.Log.Info("notification schedule cleared")
	}
	apierrors.WriteJSON(w, http.StatusOK, ev)
}

type nameRequest struct {
	Name string `json:"name" validate:"required,max=200"`
}

// ServeName handles PUT /admin/event/name.
func (h *Handler) ServeName(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if err := inputval.DecodeJSON(r, &req); err != nil {
		apierrors.BadRequest(w, err)
		return
	}
	if err := h.Events.SetName(r.Context(), req.Name); err != nil {
		h.ErrLog.Internal(w, r, "failed to rename event", err)
		return
	}
	h.ServeGet(w, r)
}
