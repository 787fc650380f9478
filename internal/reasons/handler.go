package reasons

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/wardenhq/warden/pkg/handlers"
	"github.com/wardenhq/warden/pkg/pagination"
	"github.com/wardenhq/warden/pkg/routes"
)

// Handler provides HTTP endpoints for catalog operations.
type Handler struct {
	sys        System
	logger     *slog.Logger
	pagination pagination.Config
}

// ActiveResponse is the public catalog payload consumed by the UI layer.
type ActiveResponse struct {
	SecurityReasons []Reason `json:"security_reasons"`
}

// SearchRequest combines pagination and filter criteria for the search endpoint.
type SearchRequest struct {
	pagination.PageRequest
	Filters
}

// NewHandler creates a Handler with the given system, logger, and pagination config.
func NewHandler(sys System, logger *slog.Logger, pagination pagination.Config) *Handler {
	return &Handler{
		sys:        sys,
		logger:     logger.With("handler", "reasons"),
		pagination: pagination,
	}
}

// Routes returns the route group definition for catalog endpoints.
// Administrative routes are wrapped with role middleware at registration.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/security",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/reasons", Handler: h.Active},
		},
	}
}

// AdminRoutes returns the route group for administrator-only catalog management.
func (h *Handler) AdminRoutes() routes.Group {
	return routes.Group{
		Prefix: "/security",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/reasons/catalog", Handler: h.List},
			{Method: "POST", Pattern: "/reasons/search", Handler: h.Search},
			{Method: "GET", Pattern: "/reasons/{id}", Handler: h.Find},
			{Method: "POST", Pattern: "/reasons", Handler: h.Create},
			{Method: "POST", Pattern: "/reasons/{id}/retire", Handler: h.Retire},
		},
	}
}

// Active returns every non-retired reason. No side effects; open to any caller.
func (h *Handler) Active(w http.ResponseWriter, r *http.Request) {
	items, err := h.sys.Active(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, ActiveResponse{SecurityReasons: items})
}

// List returns a paginated catalog listing with optional query parameter filters.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)
	filters := FiltersFromQuery(r.URL.Query())

	result, err := h.sys.List(r.Context(), page, filters)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Search accepts a JSON body with pagination and filter criteria.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalid)
		return
	}

	req.PageRequest.Normalize(h.pagination)

	result, err := h.sys.List(r.Context(), req.PageRequest, req.Filters)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Find returns a single catalog entry by its numeric path parameter.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalid)
		return
	}

	reason, err := h.sys.Find(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, reason)
}

// Create adds a new catalog entry.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var cmd CreateCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalid)
		return
	}

	reason, err := h.sys.Create(r.Context(), cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, reason)
}

// Retire withdraws a catalog entry from future classification use.
func (h *Handler) Retire(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalid)
		return
	}

	reason, err := h.sys.Retire(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, reason)
}
