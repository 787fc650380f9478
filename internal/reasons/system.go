package reasons

import (
	"context"

	"github.com/wardenhq/warden/pkg/pagination"
)

// System defines the public contract for catalog operations.
type System interface {
	Handler() *Handler

	// List returns catalog entries, including retired ones when requested
	// via filters, for administrative review.
	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Reason], error)

	// Active returns every non-retired reason. Backs the public
	// GET /security/reasons surface.
	Active(ctx context.Context) ([]Reason, error)

	Find(ctx context.Context, id int64) (*Reason, error)
	Create(ctx context.Context, cmd CreateCommand) (*Reason, error)
	Retire(ctx context.Context, id int64) (*Reason, error)
}
