package attachments

import (
	"net/url"

	"github.com/google/uuid"

	"github.com/wardenhq/warden/pkg/query"
	"github.com/wardenhq/warden/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "attachment", "a").
	Project("attachment_id", "ID").
	Project("project_id", "ProjectID").
	Project("survey_id", "SurveyID").
	Project("file_name", "FileName").
	Project("file_type", "FileType").
	Project("content_type", "ContentType").
	Project("size_bytes", "SizeBytes").
	Project("page_count", "PageCount").
	Project("storage_key", "StorageKey").
	Project("uploaded_at", "UploadedAt").
	Project("updated_at", "UpdatedAt")

var defaultSort = query.SortField{
	Field:      "UploadedAt",
	Descending: true,
}

// Filters contains optional filtering criteria for attachment queries.
// Nil fields are ignored. ProjectID and SurveyID restrict to an owning scope.
type Filters struct {
	ProjectID *uuid.UUID `json:"project_id,omitempty"`
	SurveyID  *uuid.UUID `json:"survey_id,omitempty"`
	FileType  *string    `json:"file_type,omitempty"`
	FileName  *string    `json:"file_name,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("ProjectID", f.ProjectID).
		WhereEquals("SurveyID", f.SurveyID).
		WhereEquals("FileType", f.FileType).
		WhereContains("FileName", f.FileName)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if p := values.Get("project_id"); p != "" {
		if id, err := uuid.Parse(p); err == nil {
			f.ProjectID = &id
		}
	}

	if s := values.Get("survey_id"); s != "" {
		if id, err := uuid.Parse(s); err == nil {
			f.SurveyID = &id
		}
	}

	if ft := values.Get("file_type"); ft != "" {
		f.FileType = &ft
	}

	if fn := values.Get("file_name"); fn != "" {
		f.FileName = &fn
	}

	return f
}

func scanAttachment(s repository.Scanner) (Attachment, error) {
	var a Attachment
	err := s.Scan(
		&a.ID,
		&a.ProjectID,
		&a.SurveyID,
		&a.FileName,
		&a.FileType,
		&a.ContentType,
		&a.SizeBytes,
		&a.PageCount,
		&a.StorageKey,
		&a.UploadedAt,
		&a.UpdatedAt,
	)
	return a, err
}
