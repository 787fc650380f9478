package audit

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/wardenhq/warden/pkg/handlers"
	"github.com/wardenhq/warden/pkg/pagination"
	"github.com/wardenhq/warden/pkg/routes"
)

// Handler provides HTTP endpoints for the classification audit trail.
// All routes are administrator-only; registration wraps them with role
// middleware.
type Handler struct {
	rec        Recorder
	logger     *slog.Logger
	pagination pagination.Config
}

// NewHandler creates a Handler with the given recorder, logger, and pagination config.
func NewHandler(rec Recorder, logger *slog.Logger, pagination pagination.Config) *Handler {
	return &Handler{
		rec:        rec,
		logger:     logger.With("handler", "audit"),
		pagination: pagination,
	}
}

// Routes returns the route group definition for audit endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/attachments",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/{id}/audit", Handler: h.Trail},
		},
	}
}

// Trail returns the audit entries for one attachment, newest first.
func (h *Handler) Trail(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidAttachment)
		return
	}

	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)

	result, err := h.rec.Trail(r.Context(), id, page)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}
