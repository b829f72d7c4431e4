// internal/app/features/matching/handler.go
package matching

import (
	"context"
	"errors"
	"net/http"
	"time"

	apierrors "github.com/dalemusser/santahub/internal/app/features/errors"
	assignmentstore "github.com/dalemusser/santahub/internal/app/store/assignments"
	participantstore "github.com/dalemusser/santahub/internal/app/store/participants"
	engine "github.com/dalemusser/santahub/internal/app/system/matching"
	"github.com/dalemusser/santahub/internal/app/system/rounds"
	"github.com/dalemusser/santahub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Runner runs a matching round for the current event.
type Runner interface {
	Run(ctx context.Context) (rounds.Result, error)
}

// Handler serves the matching admin endpoints.
type Handler struct {
	Rounds       Runner
	Assignments  *assignmentstore.Store
	Participants *participantstore.Store
	ErrLog       *apierrors.ErrorLogger
	Log          *zap.Logger
}

func NewHandler(db *mongo.Database, runner Runner, errLog *apierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Rounds:       runner,
		Assignments:  assignmentstore.New(db),
		Participants: participantstore.New(db),
		ErrLog:       errLog,
		Log:          logger,
	}
}

type runResponse struct {
	RunID string `json:"run_id"`
	Count int    `json:"count"`
}

// ServeRun handles POST /admin/matching/run.
func (h *Handler) ServeRun(w http.ResponseWriter, r *http.Request) {
	res, err := h.Rounds.Run(r.Context())
	switch {
	case errors.Is(err, rounds.ErrRunInProgress):
		apierrors.JSON(w, http.StatusConflict, "a matching run is already in progress")
		return
	case errors.Is(err, engine.ErrTooFewParticipants):
		apierrors.JSON(w, http.StatusUnprocessableEntity, err.Error())
		return
	case errors.Is(err, engine.ErrInfeasible):
		apierrors.JSON(w, http.StatusUnprocessableEntity,
			"no valid assignment exists with the current exclusions; loosen exclusions and retry")
		return
	case err != nil:
		h.ErrLog.Internal(w, r, "matching run failed", err)
		return
	}
	apierrors.WriteJSON(w, http.StatusOK, runResponse{RunID: res.RunID, Count: len(res.Assignments)})
}

type assignmentRow struct {
	ID           primitive.ObjectID `json:"id"`
	RunID        string             `json:"run_id"`
	GiverID      primitive.ObjectID `json:"giver_id"`
	GiverName    string             `json:"giver_name"`
	ReceiverID   primitive.ObjectID `json:"receiver_id"`
	ReceiverName string             `json:"receiver_name"`
	Notified     bool               `json:"notified"`
	GiftSent     bool               `json:"gift_sent"`
	GiftSentAt   *time.Time         `json:"gift_sent_at,omitempty"`
	LastReminder *time.Time         `json:"last_reminder_at,omitempty"`
}

type assignmentsResponse struct {
	Assignments []assignmentRow `json:"assignments"`
}

// ServeAssignments handles GET /admin/matching/assignments.
func (h *Handler) ServeAssignments(w http.ResponseWriter, r *http.Request) {
	list, err := h.Assignments.ListByEvent(r.Context(), models.CurrentEventID)
	if err != nil {
		h.ErrLog.Internal(w, r, "failed to load assignments", err)
		return
	}

	ids := make([]primitive.ObjectID, 0, len(list)*2)
	for _, a := range list {
		ids = append(ids, a.GiverID, a.ReceiverID)
	}
	people, err := h.Participants.ByIDs(r.Context(), ids)
	if err != nil {
		h.ErrLog.Internal(w, r, "failed to load participants", err)
		return
	}

	rows := make([]assignmentRow, len(list))
	for i, a := range list {
		rows[i] = assignmentRow{
			ID:           a.ID,
			RunID:        a.RunID,
			GiverID:      a.GiverID,
			GiverName:    people[a.GiverID].FullName,
			ReceiverID:   a.ReceiverID,
			ReceiverName: people[a.ReceiverID].FullName,
			Notified:     a.Notified,
			GiftSent:     a.GiftSent,
			GiftSentAt:   a.GiftSentAt,
			LastReminder: a.LastReminderAt,
		}
	}
	apierrors.WriteJSON(w, http.StatusOK, assignmentsResponse{Assignments: rows})
}
