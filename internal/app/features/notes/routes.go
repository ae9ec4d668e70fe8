// internal/app/features/notes/routes.go
package notes

import (
	"github.com/dalemusser/basecamp/internal/app/system/auth"
	"github.com/dalemusser/basecamp/internal/app/system/authz"
	"github.com/go-chi/chi/v5"
)

// Routes returns the note router, mounted at /api/v1/notes. Members read;
// project admins write.
func Routes(h *Handler, mw *auth.Middleware, guard *authz.Guard) chi.Router {
	r := chi.NewRouter()
	r.Use(mw.RequireUser)

	r.Route("/{projectID}", func(pr chi.Router) {
		pr.With(guard.RequireProjectMember).Get("/", h.List)
		pr.With(guard.RequireProjectMember).Get("/n/{noteID}", h.Get)
		pr.With(guard.RequireProjectAdmin).Post("/", h.Create)
		pr.With(guard.RequireProjectAdmin).Put("/n/{noteID}", h.Update)
		pr.With(guard.RequireProjectAdmin).Delete("/n/{noteID}", h.Delete)
	})

	return r
}
