package projects

import (
	"context"
	"net/http"

	projectstore "github.com/dalemusser/basecamp/internal/app/store/projects"
	"github.com/dalemusser/basecamp/internal/app/system/auth"
	"github.com/dalemusser/basecamp/internal/app/system/authz"
	"github.com/dalemusser/basecamp/internal/app/system/respond"
	"github.com/dalemusser/basecamp/internal/app/system/timeouts"
	"github.com/dalemusser/basecamp/internal/domain/models"
)

// List handles GET /. Returns the projects the caller owns or belongs to.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	ps, err := h.Projects.ListForUser(ctx, actor.ID)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	out, err := h.views(ctx, ps)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, out, "Projects fetched successfully")
}

type createInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Status      string `json:"status"`
}

// Create handles POST /. The caller becomes owner and first Admin.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.CurrentUser(r)

	var in createInput
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	p, err := h.Projects.Create(ctx, models.Project{
		Name:        in.Name,
		Description: in.Description,
		Status:      in.Status,
		OwnerID:     actor.ID,
	})
	if err != nil {
		respond.Error(w, r, h.Log, storeError(err))
		return
	}
	h.Audit.ProjectCreated(ctx, r, actor.ID, p.ID, p.Name)

	out, err := h.view(ctx, &p)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.Created(w, out, "Project created successfully")
}

// Get handles GET /{projectID}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	p, _ := authz.ProjectFrom(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	out, err := h.view(ctx, p)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, out, "Project fetched successfully")
}

type updateInput struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
}

// Update handles PUT /{projectID}. Omitted fields keep their value.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.CurrentUser(r)
	p, _ := authz.ProjectFrom(r)

	var in updateInput
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	u := projectstore.Update{
		Name:        in.Name,
		Description: in.Description,
		Status:      in.Status,
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	updated, err := h.Projects.Update(ctx, p.ID, u)
	if err != nil {
		respond.Error(w, r, h.Log, storeError(err))
		return
	}
	h.Audit.ProjectUpdated(ctx, r, actor.ID, p.ID)

	out, err := h.view(ctx, updated)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, out, "Project updated successfully")
}

// Delete handles DELETE /{projectID}. Tasks and notes are not removed.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.CurrentUser(r)
	p, _ := authz.ProjectFrom(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Projects.Delete(ctx, p.ID); err != nil {
		respond.Error(w, r, h.Log, storeError(err))
		return
	}
	h.Audit.ProjectDeleted(ctx, r, actor.ID, p.ID)

	respond.OK(w, empty{}, "Project deleted successfully")
}
