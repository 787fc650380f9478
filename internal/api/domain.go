package api

import (
	"github.com/wardenhq/warden/internal/attachments"
	"github.com/wardenhq/warden/internal/audit"
	"github.com/wardenhq/warden/internal/classification"
	"github.com/wardenhq/warden/internal/config"
	"github.com/wardenhq/warden/internal/reasons"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Reasons        reasons.System
	Attachments    attachments.System
	Classification classification.System
	Audit          audit.Recorder
}

// NewDomain creates all domain systems from the API runtime. The attachment
// registry doubles as the classification engine's scope registry.
func NewDomain(cfg *config.Config, runtime *Runtime) *Domain {
	db := runtime.Database.Connection()

	reasonsSystem := reasons.New(db, runtime.Logger, runtime.Pagination)

	attachmentsSystem := attachments.New(
		db,
		runtime.Storage,
		runtime.Logger,
		runtime.Pagination,
	)

	recorder := audit.New(db, runtime.Logger, runtime.Pagination)

	classificationSystem := classification.New(
		db,
		recorder,
		attachmentsSystem,
		runtime.Logger,
		cfg.Classification,
	)

	return &Domain{
		Reasons:        reasonsSystem,
		Attachments:    attachmentsSystem,
		Classification: classificationSystem,
		Audit:          recorder,
	}
}
