// internal/app/features/projects/routes.go
package projects

import (
	"github.com/dalemusser/basecamp/internal/app/system/auth"
	"github.com/dalemusser/basecamp/internal/app/system/authz"
	"github.com/go-chi/chi/v5"
)

// Routes returns the project router, mounted at /api/v1/projects.
func Routes(h *Handler, mw *auth.Middleware, guard *authz.Guard) chi.Router {
	r := chi.NewRouter()
	r.Use(mw.RequireUser)

	r.Get("/", h.List)
	r.Post("/", h.Create)

	r.Route("/{projectID}", func(pr chi.Router) {
		pr.Group(func(member chi.Router) {
			member.Use(guard.RequireProjectMember)
			member.Get("/", h.Get)
			member.Get("/members", h.ListMembers)
		})
		pr.Group(func(admin chi.Router) {
			admin.Use(guard.RequireProjectAdmin)
			admin.Put("/", h.Update)
			admin.Delete("/", h.Delete)
			admin.Post("/members", h.AddMember)
			admin.Put("/members/{userID}", h.UpdateMemberRole)
			admin.Delete("/members/{userID}", h.RemoveMember)
		})
	})

	return r
}
