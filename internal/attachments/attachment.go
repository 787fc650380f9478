// Package attachments implements the attachment registry for Warden.
// It owns attachment identity and file metadata, stores content in blob
// storage, and gates every metadata and content read through the access
// policy evaluator.
package attachments

import (
	"time"

	"github.com/google/uuid"

	"github.com/wardenhq/warden/internal/classification"
)

// File types accepted by the registry.
const (
	FileTypeReport = "report"
	FileTypeData   = "data"
	FileTypeOther  = "other"
)

// Attachment represents a registered file with its metadata and blob storage
// reference. Exactly one of ProjectID and SurveyID is set (owning scope).
type Attachment struct {
	ID          int64      `json:"attachment_id"`
	ProjectID   *uuid.UUID `json:"project_id,omitempty"`
	SurveyID    *uuid.UUID `json:"survey_id,omitempty"`
	FileName    string     `json:"file_name"`
	FileType    string     `json:"file_type"`
	ContentType string     `json:"content_type"`
	SizeBytes   int64      `json:"size_bytes"`
	PageCount   *int       `json:"page_count"`
	StorageKey  string     `json:"storage_key"`
	UploadedAt  time.Time  `json:"uploaded_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// View pairs an attachment with its derived security state for API responses.
// The state is computed at read time, never stored.
type View struct {
	Attachment
	SecurityState classification.State `json:"security_state"`
}

// CreateCommand carries the data needed to upload and register an attachment.
// Data holds the raw file bytes. PageCount is optional and extracted by the
// caller for PDF reports; nil values are stored as NULL.
type CreateCommand struct {
	Data        []byte
	FileName    string
	FileType    string
	ContentType string
	ProjectID   *uuid.UUID
	SurveyID    *uuid.UUID
	PageCount   *int
}

// ValidFileType reports whether t is one of the accepted file types.
func ValidFileType(t string) bool {
	return t == FileTypeReport || t == FileTypeData || t == FileTypeOther
}
