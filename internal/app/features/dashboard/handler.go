// internal/app/features/dashboard/handler.go
package dashboard

import (
	"net/http"

	apierrors "github.com/dalemusser/santahub/internal/app/features/errors"
	contactstore "github.com/dalemusser/santahub/internal/app/store/contacts"
	eventstore "github.com/dalemusser/santahub/internal/app/store/events"
	metricsstore "github.com/dalemusser/santahub/internal/app/store/metrics"
	"github.com/dalemusser/santahub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	DB     *mongo.Database
	ErrLog *apierrors.ErrorLogger
	Log    *zap.Logger
}

func NewHandler(db *mongo.Database, errLog *apierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:     db,
		ErrLog: errLog,
		Log:    logger,
	}
}

type dashboardResponse struct {
	Event    models.Event        `json:"event"`
	Counts   metricsstore.Counts `json:"counts"`
	Contacts map[string]int64    `json:"contacts"`
}

// ServeDashboard handles GET /admin/dashboard: the current event plus
// enrollment and gift progress totals.
func (h *Handler) ServeDashboard(w http.ResponseWriter, r *http.Request) {
	ev, err := eventstore.New(h.DB).Current(r.Context())
	if err != nil {
		h.ErrLog.Internal(w, r, "failed to load event", err)
		return
	}
	contacts, err := contactstore.New(h.DB).CountByStatus(r.Context())
	if err != nil {
		h.ErrLog.Internal(w, r, "failed to count contacts", err)
		return
	}
	apierrors.WriteJSON(w, http.StatusOK, dashboardResponse{
		Event:    ev,
		Counts:   metricsstore.FetchCounts(r.Context(), h.DB),
		Contacts: contacts,
	})
}
