// internal/app/features/tasks/routes.go
package tasks

import (
	"github.com/dalemusser/basecamp/internal/app/system/auth"
	"github.com/dalemusser/basecamp/internal/app/system/authz"
	"github.com/go-chi/chi/v5"
)

// Routes returns the task router, mounted at /api/v1/tasks. Members may
// read and edit tasks and subtasks; creating and deleting them takes a
// project admin.
func Routes(h *Handler, mw *auth.Middleware, guard *authz.Guard) chi.Router {
	r := chi.NewRouter()
	r.Use(mw.RequireUser)

	r.Route("/{projectID}", func(pr chi.Router) {
		pr.Group(func(member chi.Router) {
			member.Use(guard.RequireProjectMember)
			member.Get("/", h.List)
			member.Get("/t/{taskID}", h.Get)
			member.Put("/t/{taskID}", h.Update)
			member.Put("/t/{taskID}/st/{subTaskID}", h.UpdateSubtask)
		})
		pr.Group(func(admin chi.Router) {
			admin.Use(guard.RequireProjectAdmin)
			admin.Post("/", h.Create)
			admin.Delete("/t/{taskID}", h.Delete)
			admin.Post("/t/{taskID}/subtasks", h.CreateSubtask)
			admin.Delete("/t/{taskID}/st/{subTaskID}", h.DeleteSubtask)
		})
	})

	return r
}
