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

const (
	msgParentNotFound  = "Parent task not found"
	msgSubtaskNotFound = "Subtask not found"
)

// CreateSubtask handles POST /{projectID}/t/{taskID}/subtasks and returns
// the parent task.
func (h *Handler) CreateSubtask(w http.ResponseWriter, r *http.Request) {
	p, _ := authz.ProjectFrom(r)
	taskID, err := pathID(r, "taskID", msgParentNotFound)
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

	t, err := h.Tasks.AddSubtask(ctx, p.ID, taskID, models.Subtask{
		Title:       deref(u.Title),
		Description: deref(u.Description),
		Status:      deref(u.Status),
		AssignedTo:  u.AssignedTo,
		DueDate:     u.DueDate,
	})
	if errors.Is(err, mongo.ErrNoDocuments) {
		respond.Error(w, r, h.Log, apierr.NotFound(msgParentNotFound))
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
	respond.Created(w, out, "Subtask created successfully")
}

// UpdateSubtask handles PUT /{projectID}/t/{taskID}/st/{subTaskID}. The
// subtask must belong to that task in that project.
func (h *Handler) UpdateSubtask(w http.ResponseWriter, r *http.Request) {
	p, _ := authz.ProjectFrom(r)
	taskID, err := pathID(r, "taskID", msgSubtaskNotFound)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	subID, err := pathID(r, "subTaskID", msgSubtaskNotFound)
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

	st, err := h.Tasks.UpdateSubtask(ctx, p.ID, taskID, subID, u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		respond.Error(w, r, h.Log, apierr.NotFound(msgSubtaskNotFound))
		return
	}
	if err != nil {
		respond.Error(w, r, h.Log, validationError(err))
		return
	}
	a, err := h.assignees(ctx, []models.Task{{Subtasks: []models.Subtask{*st}}})
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, viewSubtask(*st, a), "Subtask updated successfully")
}

// DeleteSubtask handles DELETE /{projectID}/t/{taskID}/st/{subTaskID}.
func (h *Handler) DeleteSubtask(w http.ResponseWriter, r *http.Request) {
	p, _ := authz.ProjectFrom(r)
	taskID, err := pathID(r, "taskID", msgSubtaskNotFound)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	subID, err := pathID(r, "subTaskID", msgSubtaskNotFound)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	err = h.Tasks.DeleteSubtask(ctx, p.ID, taskID, subID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		respond.Error(w, r, h.Log, apierr.NotFound(msgSubtaskNotFound))
		return
	}
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, empty{}, "Subtask deleted successfully")
}
