package api

import (
	"net/http"

	"github.com/wardenhq/warden/internal/auth"
	"github.com/wardenhq/warden/internal/config"
	"github.com/wardenhq/warden/pkg/routes"
)

func registerRoutes(
	mux *http.ServeMux,
	domain *Domain,
	cfg *config.Config,
	runtime *Runtime,
) {
	maxUpload := cfg.API.MaxUploadSizeBytes()

	reasonsHandler := domain.Reasons.Handler()
	attachmentsHandler := domain.Attachments.Handler(maxUpload, domain.Classification)
	classificationHandler := domain.Classification.Handler()
	auditHandler := domain.Audit.Handler()

	reviewerOnly := auth.RequireRole(
		runtime.Logger,
		auth.RoleReviewer, auth.RoleDataAdmin, auth.RoleSystemAdmin,
	)
	adminOnly := auth.RequireRole(
		runtime.Logger,
		auth.RoleDataAdmin, auth.RoleSystemAdmin,
	)

	routes.Register(
		mux,
		reasonsHandler.Routes(),
		attachmentsHandler.Routes(),
		guard(reviewerOnly, attachmentsHandler.UploadRoutes()),
		guard(reviewerOnly, classificationHandler.Routes()),
		guard(adminOnly, reasonsHandler.AdminRoutes()),
		guard(adminOnly, attachmentsHandler.AdminRoutes()),
		guard(adminOnly, auditHandler.Routes()),
	)
}

// guard wraps every route in a group (and its children) with the given middleware.
func guard(mw func(http.Handler) http.Handler, group routes.Group) routes.Group {
	wrapped := routes.Group{
		Prefix: group.Prefix,
		Routes: make([]routes.Route, len(group.Routes)),
	}

	for i, route := range group.Routes {
		handler := mw(http.HandlerFunc(route.Handler))
		wrapped.Routes[i] = routes.Route{
			Method:  route.Method,
			Pattern: route.Pattern,
			Handler: handler.ServeHTTP,
		}
	}

	for _, child := range group.Children {
		wrapped.Children = append(wrapped.Children, guard(mw, child))
	}

	return wrapped
}
