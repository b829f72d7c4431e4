// internal/app/features/participants/handler.go
package participants

import (
	"errors"
	"net/http"

	apierrors "github.com/dalemusser/santahub/internal/app/features/errors"
	exclusionstore "github.com/dalemusser/santahub/internal/app/store/exclusions"
	participantstore "github.com/dalemusser/santahub/internal/app/store/participants"
	"github.com/dalemusser/santahub/internal/app/system/inputval"
	"github.com/dalemusser/santahub/internal/app/system/normalize"
	"github.com/dalemusser/santahub/internal/app/system/timezones"
	"github.com/dalemusser/santahub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the participant admin endpoints.
type Handler struct {
	Participants *participantstore.Store
	Exclusions   *exclusionstore.Store
	ErrLog       *apierrors.ErrorLogger
	Log          *zap.Logger
}

func NewHandler(db *mongo.Database, errLog *apierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Participants: participantstore.New(db),
		Exclusions:   exclusionstore.New(db),
		ErrLog:       errLog,
		Log:          logger,
	}
}

type listResponse struct {
	Participants []models.Participant `json:"participants"`
}

// ServeList handles GET /admin/participants.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	list, err := h.Participants.List(r.Context())
	if err != nil {
		h.ErrLog.Internal(w, r, "failed to load participants", err)
		return
	}
	if list == nil {
		list = []models.Participant{}
	}
	apierrors.WriteJSON(w, http.StatusOK, listResponse{Participants: list})
}

type createRequest struct {
	FullName   string  `json:"full_name" validate:"required,max=200"`
	Email      string  `json:"email" validate:"omitempty,email"`
	ChatUserID string  `json:"chat_user_id" validate:"max=64"`
	Street     string  `json:"street" validate:"required,max=200"`
	City       string  `json:"city" validate:"required,max=100"`
	PostalCode string  `json:"postal_code" validate:"required,max=20"`
	Country    string  `json:"country" validate:"required,max=100"`
	Phone      string  `json:"phone" validate:"max=40"`
	Notes      *string `json:"notes" validate:"omitempty,max=1000"`
	TimeZone   string  `json:"time_zone"`
}

// ServeCreate handles POST /admin/participants.
func (h *Handler) ServeCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := inputval.DecodeJSON(r, &req); err != nil {
		apierrors.BadRequest(w, err)
		return
	}
	if req.TimeZone != "" && !timezones.Valid(req.TimeZone) {
		apierrors.BadRequest(w, inputval.FieldErrors{"time_zone": "must be an IANA time zone"})
		return
	}

	p := models.Participant{
		FullName:   normalize.Title(req.FullName),
		Email:      normalize.Email(req.Email),
		ChatUserID: req.ChatUserID,
		Street:     normalize.Text(req.Street),
		City:       normalize.Title(req.City),
		PostalCode: normalize.Upper(req.PostalCode),
		Country:    normalize.Title(req.Country),
		Phone:      normalize.Text(req.Phone),
		Notes:      req.Notes,
	}
	if req.TimeZone != "" {
		p.TimeZone = &req.TimeZone
	}

	created, err := h.Participants.Create(r.Context(), p)
	if errors.Is(err, participantstore.ErrDuplicateParticipant) {
		apierrors.JSON(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		h.ErrLog.Internal(w, r, "failed to create participant", err)
		return
	}
	h.Log.Info("participant created", zap.String("participant_id", created.ID.Hex()))
	apierrors.WriteJSON(w, http.StatusCreated, created)
}

// ServeDelete handles DELETE /admin/participants/{id}. Exclusions naming the
// participant go with it; existing assignments are left until the next run.
func (h *Handler) ServeDelete(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		apierrors.JSON(w, http.StatusBadRequest, "bad participant id")
		return
	}
	n, err := h.Participants.Delete(r.Context(), id)
	if err != nil {
		h.ErrLog.Internal(w, r, "failed to delete participant", err)
		return
	}
	if n == 0 {
		apierrors.JSON(w, http.StatusNotFound, "participant not found")
		return
	}
	removed, err := h.Exclusions.DeleteForParticipant(r.Context(), id)
	if err != nil {
		h.ErrLog.Internal(w, r, "participant deleted but exclusions were not", err)
		return
	}
	h.Log.Info("participant deleted",
		zap.String("participant_id", id.Hex()),
		zap.Int64("exclusions_removed", removed))
	w.WriteHeader(http.StatusNoContent)
}
