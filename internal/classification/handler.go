package classification

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/wardenhq/warden/internal/auth"
	"github.com/wardenhq/warden/pkg/handlers"
	"github.com/wardenhq/warden/pkg/routes"
)

// Registry exposes the attachment registry lookups the handler needs to
// confirm that every attachment in a scoped batch belongs to the scope
// named in the URL.
type Registry interface {
	// MissingInProject returns the subset of attachmentIDs not owned by the project.
	MissingInProject(ctx context.Context, projectID uuid.UUID, attachmentIDs []int64) ([]int64, error)
	// MissingInSurvey returns the subset of attachmentIDs not owned by the survey.
	MissingInSurvey(ctx context.Context, surveyID uuid.UUID, attachmentIDs []int64) ([]int64, error)
}

// Handler provides HTTP endpoints for classification operations. All routes
// are reviewer-facing; registration wraps them with role middleware.
type Handler struct {
	sys      System
	registry Registry
	logger   *slog.Logger
	cfg      Config
}

// NewHandler creates a Handler with the given system, registry, logger, and config.
func NewHandler(sys System, registry Registry, logger *slog.Logger, cfg Config) *Handler {
	return &Handler{
		sys:      sys,
		registry: registry,
		logger:   logger.With("handler", "classification"),
		cfg:      cfg,
	}
}

// Routes returns the route group definition for classification endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "/project/{project_id}/attachments/security/add", Handler: h.ProjectAdd},
			{Method: "POST", Pattern: "/project/{project_id}/attachments/security/remove", Handler: h.ProjectRemove},
			{Method: "POST", Pattern: "/survey/{survey_id}/attachments/security/add", Handler: h.SurveyAdd},
			{Method: "POST", Pattern: "/survey/{survey_id}/attachments/security/remove", Handler: h.SurveyRemove},
			{Method: "POST", Pattern: "/attachments/{id}/security/review", Handler: h.Review},
			{Method: "GET", Pattern: "/attachments/{id}/security", Handler: h.Status},
		},
	}
}

// ProjectAdd applies the cross product of reason ids to attachment ids owned
// by the project, as one atomic batch.
func (h *Handler) ProjectAdd(w http.ResponseWriter, r *http.Request) {
	h.applyScoped(w, r, "project_id", true, h.registry.MissingInProject)
}

// ProjectRemove removes the cross product of reason ids from attachment ids
// owned by the project, as one atomic batch.
func (h *Handler) ProjectRemove(w http.ResponseWriter, r *http.Request) {
	h.applyScoped(w, r, "project_id", false, h.registry.MissingInProject)
}

// SurveyAdd is the survey-scoped equivalent of ProjectAdd.
func (h *Handler) SurveyAdd(w http.ResponseWriter, r *http.Request) {
	h.applyScoped(w, r, "survey_id", true, h.registry.MissingInSurvey)
}

// SurveyRemove is the survey-scoped equivalent of ProjectRemove.
func (h *Handler) SurveyRemove(w http.ResponseWriter, r *http.Request) {
	h.applyScoped(w, r, "survey_id", false, h.registry.MissingInSurvey)
}

// Review stamps an attachment as reviewed with no tag changes.
func (h *Handler) Review(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidRequest)
		return
	}

	var req ReviewRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidRequest)
			return
		}
	}

	outcome, err := h.sys.MarkReviewed(r.Context(), actor, id, req.ExpectedRevision)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, outcome)
}

// Status returns the current classification status of one attachment.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidRequest)
		return
	}

	status, err := h.sys.StateOf(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, status)
}

type missingFunc func(ctx context.Context, scopeID uuid.UUID, attachmentIDs []int64) ([]int64, error)

func (h *Handler) applyScoped(w http.ResponseWriter, r *http.Request, param string, add bool, missing missingFunc) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	scopeID, err := uuid.Parse(r.PathValue(param))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidRequest)
		return
	}

	var req CrossProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidRequest)
		return
	}

	if len(req.AttachmentIDs) == 0 {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrEmptyBatch)
		return
	}
	// Both directions need reasons to work with. A remove with nothing to
	// remove would otherwise commit as a bare review stamp; the review
	// endpoint exists for that intent.
	if len(req.SecurityIDs) == 0 {
		handlers.RespondError(w, h.logger, http.StatusBadRequest,
			fmt.Errorf("%w: security_ids required", ErrInvalidRequest))
		return
	}

	outside, err := missing(r.Context(), scopeID, req.AttachmentIDs)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}
	if len(outside) > 0 {
		opErr := &OperationError{AttachmentID: outside[0], Err: ErrUnknownAttachment}
		handlers.RespondError(w, h.logger, MapHTTPStatus(opErr), opErr)
		return
	}

	result, err := h.sys.ApplyBatch(r.Context(), actor, req.Operations(add))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

func (h *Handler) actor(w http.ResponseWriter, r *http.Request) (string, bool) {
	p := auth.PrincipalFromContext(r.Context())
	if p == nil {
		handlers.RespondError(w, h.logger, http.StatusUnauthorized, auth.ErrInvalidToken)
		return "", false
	}
	return p.Subject, true
}
