package reasons

import (
	"net/url"
	"strconv"

	"github.com/wardenhq/warden/pkg/query"
	"github.com/wardenhq/warden/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "security_reason", "r").
	Project("reason_id", "ID").
	Project("category", "Category").
	Project("title", "Title").
	Project("description", "Description").
	Project("expiry_date", "ExpiryDate").
	Project("retired_at", "RetiredAt").
	Project("created_at", "CreatedAt")

var defaultSort = query.SortField{
	Field:      "Category",
	Descending: false,
}

// Filters contains optional filtering criteria for catalog queries.
// Nil fields are ignored. Retired=false restricts to active entries.
type Filters struct {
	Category *string `json:"category,omitempty"`
	Title    *string `json:"title,omitempty"`
	Retired  *bool   `json:"retired,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	b.WhereEquals("Category", f.Category).
		WhereContains("Title", f.Title)

	if f.Retired != nil && !*f.Retired {
		b.WhereNullable("RetiredAt", nil)
	}

	return b
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if c := values.Get("category"); c != "" {
		f.Category = &c
	}

	if t := values.Get("title"); t != "" {
		f.Title = &t
	}

	if r := values.Get("retired"); r != "" {
		if v, err := strconv.ParseBool(r); err == nil {
			f.Retired = &v
		}
	}

	return f
}

func scanReason(s repository.Scanner) (Reason, error) {
	var r Reason
	err := s.Scan(
		&r.ID,
		&r.Category,
		&r.Title,
		&r.Description,
		&r.ExpiryDate,
		&r.RetiredAt,
		&r.CreatedAt,
	)
	return r, err
}
