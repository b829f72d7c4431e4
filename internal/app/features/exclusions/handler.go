// internal/app/features/exclusions/handler.go
package exclusions

import (
	"errors"
	"net/http"

	apierrors "github.com/dalemusser/santahub/internal/app/features/errors"
	exclusionstore "github.com/dalemusser/santahub/internal/app/store/exclusions"
	participantstore "github.com/dalemusser/santahub/internal/app/store/participants"
	"github.com/dalemusser/santahub/internal/app/system/inputval"
	"github.com/dalemusser/santahub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the exclusion admin endpoints.
type Handler struct {
	Exclusions   *exclusionstore.Store
	Participants *participantstore.Store
	ErrLog       *apierrors.ErrorLogger
	Log          *zap.Logger
}

func NewHandler(db *mongo.Database, errLog *apierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Exclusions:   exclusionstore.New(db),
		Participants: participantstore.New(db),
		ErrLog:       errLog,
		Log:          logger,
	}
}

type createRequest struct {
	GiverID    string `json:"giver_id" validate:"required,objectid"`
	ReceiverID string `json:"receiver_id" validate:"required,objectid,nefield=GiverID"`
	BothWays   bool   `json:"both_ways"`
}

type createResponse struct {
	Exclusions []models.Exclusion `json:"exclusions"`
}

// ServeCreate handles POST /admin/exclusions.
func (h *Handler) ServeCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := inputval.DecodeJSON(r, &req); err != nil {
		apierrors.BadRequest(w, err)
		return
	}
	giverID, _ := primitive.ObjectIDFromHex(req.GiverID)
	receiverID, _ := primitive.ObjectIDFromHex(req.ReceiverID)

	for _, id := range []primitive.ObjectID{giverID, receiverID} {
		if _, err := h.Participants.GetByID(r.Context(), id); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				apierrors.JSON(w, http.StatusNotFound, "participant "+id.Hex()+" not found")
				return
			}
			h.ErrLog.Internal(w, r, "failed to load participant", err)
			return
		}
	}

	added, err := h.Exclusions.Add(r.Context(), giverID, receiverID, req.BothWays)
	switch {
	case errors.Is(err, exclusionstore.ErrSelfExclusion):
		apierrors.JSON(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, exclusionstore.ErrDuplicateExclusion):
		apierrors.JSON(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		h.ErrLog.Internal(w, r, "failed to store exclusion", err)
		return
	}

	h.Log.Info("exclusion added",
		zap.String("giver_id", req.GiverID),
		zap.String("receiver_id", req.ReceiverID),
		zap.Int("stored", len(added)))
	apierrors.WriteJSON(w, http.StatusCreated, createResponse{Exclusions: added})
}

// ServeList handles GET /admin/exclusions.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	list, err := h.Exclusions.List(r.Context())
	if err != nil {
		h.ErrLog.Internal(w, r, "failed to load exclusions", err)
		return
	}
	if list == nil {
		list = []models.Exclusion{}
	}
	apierrors.WriteJSON(w, http.StatusOK, createResponse{Exclusions: list})
}

// ServeDelete handles DELETE /admin/exclusions/{id}.
func (h *Handler) ServeDelete(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		apierrors.JSON(w, http.StatusBadRequest, "bad exclusion id")
		return
	}
	n, err := h.Exclusions.Delete(r.Context(), id)
	if err != nil {
		h.ErrLog.Internal(w, r, "failed to delete exclusion", err)
		return
	}
	if n == 0 {
		apierrors.JSON(w, http.StatusNotFound, "exclusion not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
