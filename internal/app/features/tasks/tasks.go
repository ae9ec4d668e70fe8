package tasks

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/basecamp/internal/app/system/apierr"
	"github.com/dalemusser/basecamp/internal/app/system/authz"
	"github.com/dalemusser/basecamp/internal/app/system/respond"
	"github.com/dalemusser/basecamp/internal/app/system/timeouts"
	"github.com/dalemusser/basecamp/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
)

const msgTaskNotFound = "Task not found"

// List handles GET /{projectID}. Tasks are returned in creation order.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	p, _ := authz.ProjectFrom(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	ts, err := h.Tasks.ListByProject(ctx, p.ID)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	out, err := h.views(ctx, ts)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, out, "Project tasks fetched successfully")
}

// Create handles POST /{projectID}.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	p, _ := authz.ProjectFrom(r)

	var in taskInput
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	u, err := in.update()
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	t, err := h.Tasks.Create(ctx, models.Task{
		ProjectID:   p.ID,
		Title:       deref(u.Title),
		Description: deref(u.Description),
		Status:      deref(u.Status),
		Priority:    deref(u.Priority),
		AssignedTo:  u.AssignedTo,
		DueDate:     u.DueDate,
	})
	if err != nil {
		respond.Error(w, r, h.Log, validationError(err))
		return
	}
	out, err := h.view(ctx, &t)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.Created(w, out, "Task created successfully")
}

// Get handles GET /{projectID}/t/{taskID}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	p, _ := authz.ProjectFrom(r)
	taskID, err := pathID(r, "taskID", msgTaskNotFound)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	t, err := h.Tasks.Get(ctx, p.ID, taskID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		respond.Error(w, r, h.Log, apierr.NotFound(msgTaskNotFound))
		return
	}
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	out, err := h.view(ctx, t)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, out, "Task fetched successfully")
}

// Update handles PUT /{projectID}/t/{taskID}. Only the fields sent change.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	p, _ := authz.ProjectFrom(r)
	taskID, err := pathID(r, "taskID", msgTaskNotFound)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	var in taskInput
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	u, err := in.update()
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	t, err := h.Tasks.Update(ctx, p.ID, taskID, u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		respond.Error(w, r, h.Log, apierr.NotFound(msgTaskNotFound))
		return
	}
	if err != nil {
		respond.Error(w, r, h.Log, validationError(err))
		return
	}
	out, err := h.view(ctx, t)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, out, "Task updated successfully")
}

// Delete handles DELETE /{projectID}/t/{taskID}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	p, _ := authz.ProjectFrom(r)
	taskID, err := pathID(r, "taskID", msgTaskNotFound)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	err = h.Tasks.Delete(ctx, p.ID, taskID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		respond.Error(w, r, h.Log, apierr.NotFound(msgTaskNotFound))
		return
	}
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, empty{}, "Task deleted successfully")
}
