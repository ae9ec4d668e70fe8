// internal/app/features/admin/routes.go
package admin

import (
	"github.com/dalemusser/basecamp/internal/app/system/auth"
	"github.com/dalemusser/basecamp/internal/app/system/authz"
	"github.com/go-chi/chi/v5"
)

// Routes returns the admin router, mounted at /api/v1/admin. Every route
// requires the global admin role.
func Routes(h *Handler, mw *auth.Middleware, guard *authz.Guard) chi.Router {
	r := chi.NewRouter()
	r.Use(mw.RequireUser, guard.RequireGlobalAdmin)

	r.Get("/users", h.ListUsers)
	r.Get("/audit", h.ListAudit)

	return r
}
