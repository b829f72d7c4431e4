// internal/app/features/contacts/handler.go
package contacts

import (
	"context"
	"errors"
	"net/http"
	"strings"

	apierrors "github.com/dalemusser/santahub/internal/app/features/errors"
	contactstore "github.com/dalemusser/santahub/internal/app/store/contacts"
	"github.com/dalemusser/santahub/internal/app/system/enrollment"
	"github.com/dalemusser/santahub/internal/app/system/inputval"
	"github.com/dalemusser/santahub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Enroller imports and invites contacts.
type Enroller interface {
	Import(ctx context.Context, emails []string) enrollment.ImportReport
	Invite(ctx context.Context) (enrollment.InviteReport, error)
}

// Handler serves the contact admin endpoints.
type Handler struct {
	Enroll   Enroller
	Contacts *contactstore.Store
	ErrLog   *apierrors.ErrorLogger
	Log      *zap.Logger
}

// NewHandler constructs a contacts Handler.
func NewHandler(db *mongo.Database, enroll Enroller, errLog *apierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Enroll:   enroll,
		Contacts: contactstore.New(db),
		ErrLog:   errLog,
		Log:      logger,
	}
}

type importRequest struct {
	Emails []string `json:"emails" validate:"required,min=1,max=1000"`
}

// ServeImport handles POST /admin/contacts/import.
func (h *Handler) ServeImport(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if err := inputval.DecodeJSON(r, &req); err != nil {
		apierrors.BadRequest(w, err)
		return
	}
	apierrors.WriteJSON(w, http.StatusOK, h.Enroll.Import(r.Context(), req.Emails))
}

// ServeInvite handles POST /admin/contacts/invite.
func (h *Handler) ServeInvite(w http.ResponseWriter, r *http.Request) {
	rep, err := h.Enroll.Invite(r.Context())
	if errors.Is(err, enrollment.ErrInviteRunning) {
		apierrors.JSON(w, http.StatusConflict, "invites are already being sent")
		return
	}
	if err != nil {
		h.ErrLog.Internal(w, r, "failed to send invites", err)
		return
	}
	apierrors.WriteJSON(w, http.StatusOK, rep)
}

type listResponse struct {
	Contacts []models.Contact `json:"contacts"`
	Counts   map[string]int64 `json:"counts"`
}

var statuses = map[string]bool{
	models.ContactImported:   true,
	models.ContactInvited:    true,
	models.ContactInProgress: true,
	models.ContactCompleted:  true,
	models.ContactDeclined:   true,
}

// ServeList handles GET /admin/contacts?status=imported,invited.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	var filter []string
	if raw := r.URL.Query().Get("status"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			s = strings.TrimSpace(s)
			if !statuses[s] {
				apierrors.JSON(w, http.StatusBadRequest, "unknown status "+s)
				return
			}
			filter = append(filter, s)
		}
	}

	list, err := h.Contacts.ListByStatus(r.Context(), filter...)
	if err != nil {
		h.ErrLog.Internal(w, r, "failed to load contacts", err)
		return
	}
	counts, err := h.Contacts.CountByStatus(r.Context())
	if err != nil {
		h.ErrLog.Internal(w, r, "failed to count contacts", err)
		return
	}
	if list == nil {
		list = []models.Contact{}
	}
	apierrors.WriteJSON(w, http.StatusOK, listResponse{Contacts: list, Counts: counts})
}
