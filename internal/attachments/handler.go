package attachments

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/wardenhq/warden/internal/access"
	"github.com/wardenhq/warden/internal/auth"
	"github.com/wardenhq/warden/internal/classification"
	"github.com/wardenhq/warden/internal/obs"
	"github.com/wardenhq/warden/pkg/handlers"
	"github.com/wardenhq/warden/pkg/pagination"
	"github.com/wardenhq/warden/pkg/routes"
)

// Handler provides HTTP endpoints for attachment operations. Metadata and
// content reads are gated through the access policy on every request.
type Handler struct {
	sys           System
	classifier    classification.System
	logger        *slog.Logger
	pagination    pagination.Config
	maxUploadSize int64
}

// SearchRequest combines pagination and filter criteria for the search endpoint.
type SearchRequest struct {
	pagination.PageRequest
	Filters
}

// NewHandler creates a Handler with the given registry, classifier, logger,
// pagination config, and upload size limit.
func NewHandler(
	sys System,
	classifier classification.System,
	logger *slog.Logger,
	pagination pagination.Config,
	maxUploadSize int64,
) *Handler {
	return &Handler{
		sys:           sys,
		classifier:    classifier,
		logger:        logger.With("handler", "attachments"),
		pagination:    pagination,
		maxUploadSize: maxUploadSize,
	}
}

// Routes returns the route group definition for attachment endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/attachments",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List},
			{Method: "POST", Pattern: "/search", Handler: h.Search},
			{Method: "GET", Pattern: "/{id}", Handler: h.Find},
			{Method: "GET", Pattern: "/{id}/download", Handler: h.Download},
		},
	}
}

// UploadRoutes returns the scoped upload route group. Registration wraps it
// with reviewer/participant authentication.
func (h *Handler) UploadRoutes() routes.Group {
	return routes.Group{
		Prefix: "",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "/project/{project_id}/attachments", Handler: h.UploadProject},
			{Method: "POST", Pattern: "/survey/{survey_id}/attachments", Handler: h.UploadSurvey},
		},
	}
}

// AdminRoutes returns the administrator-only route group.
func (h *Handler) AdminRoutes() routes.Group {
	return routes.Group{
		Prefix: "/attachments",
		Routes: []routes.Route{
			{Method: "DELETE", Pattern: "/{id}", Handler: h.Delete},
		},
	}
}

// List returns a paginated attachment listing. Rows carry their derived
// security state; entries the caller may not see metadata for are omitted.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)
	filters := FiltersFromQuery(r.URL.Query())
	h.list(w, r, page, filters)
}

// Search accepts a JSON body with pagination and filter criteria.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidFile)
		return
	}

	req.PageRequest.Normalize(h.pagination)
	h.list(w, r, req.PageRequest, req.Filters)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, page pagination.PageRequest, filters Filters) {
	result, err := h.sys.List(r.Context(), page, filters)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	ids := make([]int64, len(result.Data))
	for i, a := range result.Data {
		ids[i] = a.ID
	}

	statuses, err := h.classifier.StatesOf(r.Context(), ids)
	if err != nil {
		handlers.RespondError(w, h.logger, classification.MapHTTPStatus(err), err)
		return
	}

	p := auth.PrincipalFromContext(r.Context())
	views := make([]View, 0, len(result.Data))
	for i, a := range result.Data {
		decision, err := h.decide(r, p, &a, statuses[i].State)
		if err != nil {
			handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
			return
		}
		if !decision.Metadata {
			continue
		}
		views = append(views, View{Attachment: a, SecurityState: statuses[i].State})
	}

	filtered := pagination.NewPageResult(views, result.Total, result.Page, result.PageSize)
	handlers.RespondJSON(w, http.StatusOK, filtered)
}

// Find returns attachment metadata when the access policy allows it.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	a, state, decision, ok := h.gate(w, r)
	if !ok {
		return
	}

	obs.Decision("metadata", decision.Metadata)
	if !decision.Metadata {
		h.deny(w, r)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, View{Attachment: *a, SecurityState: state})
}

// Download streams attachment content when the access policy allows it.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	a, _, decision, ok := h.gate(w, r)
	if !ok {
		return
	}

	obs.Decision("content", decision.Content)
	if !decision.Content {
		h.deny(w, r)
		return
	}

	body, err := h.sys.Open(r.Context(), a)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", a.ContentType)
	w.Header().Set("Content-Length", strconv.FormatInt(a.SizeBytes, 10))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", a.FileName))
	w.WriteHeader(http.StatusOK)
	io.Copy(w, body)
}

// UploadProject registers an uploaded file against a project.
func (h *Handler) UploadProject(w http.ResponseWriter, r *http.Request) {
	projectID, err := uuid.Parse(r.PathValue("project_id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidScope)
		return
	}
	h.upload(w, r, &projectID, nil)
}

// UploadSurvey registers an uploaded file against a survey.
func (h *Handler) UploadSurvey(w http.ResponseWriter, r *http.Request) {
	surveyID, err := uuid.Parse(r.PathValue("survey_id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidScope)
		return
	}
	h.upload(w, r, nil, &surveyID)
}

// Delete removes an attachment and its classification state.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidFile)
		return
	}

	if err := h.sys.Delete(r.Context(), id); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) upload(w http.ResponseWriter, r *http.Request, projectID, surveyID *uuid.UUID) {
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		handlers.RespondError(w, h.logger, http.StatusRequestEntityTooLarge, ErrFileTooLarge)
		return
	}

	fileType := r.FormValue("file_type")
	if !ValidFileType(fileType) {
		handlers.RespondError(w, h.logger, http.StatusBadRequest,
			fmt.Errorf("%w: unknown file type %q", ErrInvalidFile, fileType))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidFile)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidFile)
		return
	}

	contentType := detectContentType(header.Header.Get("Content-Type"), data)
	pageCount := extractPDFPageCount(h.logger, data, contentType)

	cmd := CreateCommand{
		Data:        data,
		FileName:    header.Filename,
		FileType:    fileType,
		ContentType: contentType,
		ProjectID:   projectID,
		SurveyID:    surveyID,
		PageCount:   pageCount,
	}

	a, err := h.sys.Create(r.Context(), cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	// A fresh upload has never met the engine; state is SUBMITTED.
	handlers.RespondJSON(w, http.StatusCreated, View{
		Attachment:    *a,
		SecurityState: classification.StateSubmitted,
	})
}

// gate loads the attachment and evaluates the access policy for the caller.
// Responds on failure and reports ok=false.
func (h *Handler) gate(w http.ResponseWriter, r *http.Request) (*Attachment, classification.State, access.Decision, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidFile)
		return nil, 0, access.Decision{}, false
	}

	a, err := h.sys.Find(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return nil, 0, access.Decision{}, false
	}

	status, err := h.classifier.StateOf(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, classification.MapHTTPStatus(err), err)
		return nil, 0, access.Decision{}, false
	}

	p := auth.PrincipalFromContext(r.Context())
	decision, err := h.decide(r, p, a, status.State)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return nil, 0, access.Decision{}, false
	}

	return a, status.State, decision, true
}

func (h *Handler) decide(r *http.Request, p *auth.Principal, a *Attachment, state classification.State) (access.Decision, error) {
	participant := false
	if p != nil && !p.Administrator() {
		member, err := h.sys.IsParticipant(r.Context(), p.Subject, a)
		if err != nil {
			return access.Decision{}, err
		}
		participant = member
	}

	return access.Evaluate(p, participant, state), nil
}

// deny responds 401 for anonymous callers and 403 for authenticated ones.
func (h *Handler) deny(w http.ResponseWriter, r *http.Request) {
	status := http.StatusForbidden
	if auth.PrincipalFromContext(r.Context()) == nil {
		status = http.StatusUnauthorized
	}
	handlers.RespondError(w, h.logger, status, ErrDenied)
}

func detectContentType(header string, data []byte) string {
	header = strings.TrimSpace(header)
	if header != "" && header != "application/octet-stream" {
		return header
	}
	return http.DetectContentType(data)
}

func extractPDFPageCount(logger *slog.Logger, data []byte, contentType string) *int {
	if contentType != "application/pdf" {
		return nil
	}

	count, err := api.PageCount(bytes.NewReader(data), nil)
	if err != nil {
		logger.Warn("failed to extract PDF page count", "error", err)
		return nil
	}

	return &count
}
