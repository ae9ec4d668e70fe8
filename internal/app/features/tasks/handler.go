// internal/app/features/tasks/handler.go
package tasks

import (
	"context"
	"errors"
	"net/http"
	"time"

	taskstore "github.com/dalemusser/basecamp/internal/app/store/tasks"
	userstore "github.com/dalemusser/basecamp/internal/app/store/users"
	"github.com/dalemusser/basecamp/internal/app/system/apierr"
	"github.com/dalemusser/basecamp/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Handler serves /api/v1/tasks. The project in the path has already been
// loaded and checked by the authz guard.
type Handler struct {
	Tasks *taskstore.Store
	Users *userstore.Store
	Log   *zap.Logger
}

func NewHandler(tasks *taskstore.Store, users *userstore.Store, logger *zap.Logger) *Handler {
	return &Handler{Tasks: tasks, Users: users, Log: logger}
}

type subtaskView struct {
	ID          primitive.ObjectID `json:"_id"`
	Title       string             `json:"title"`
	Description string             `json:"description,omitempty"`
	Status      string             `json:"status"`
	AssignedTo  *models.UserRef    `json:"assignedTo,omitempty"`
	DueDate     *time.Time         `json:"dueDate,omitempty"`
	CreatedAt   time.Time          `json:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt"`
}

type taskView struct {
	ID          primitive.ObjectID `json:"_id"`
	Project     primitive.ObjectID `json:"project"`
	Title       string             `json:"title"`
	Description string             `json:"description,omitempty"`
	Status      string             `json:"status"`
	Priority    string             `json:"priority"`
	AssignedTo  *models.UserRef    `json:"assignedTo,omitempty"`
	DueDate     *time.Time         `json:"dueDate,omitempty"`
	Subtasks    []subtaskView      `json:"subtasks"`
	CreatedAt   time.Time          `json:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt"`
}

// assignees resolves every assignee referenced by ts in one lookup.
type assignees map[primitive.ObjectID]models.UserRef

func (a assignees) ref(id *primitive.ObjectID) *models.UserRef {
	if id == nil {
		return nil
	}
	if r, ok := a[*id]; ok {
		return &r
	}
	return &models.UserRef{ID: *id}
}

func (h *Handler) assignees(ctx context.Context, ts []models.Task) (assignees, error) {
	seen := map[primitive.ObjectID]bool{}
	var ids []primitive.ObjectID
	add := func(id *primitive.ObjectID) {
		if id != nil && !seen[*id] {
			seen[*id] = true
			ids = append(ids, *id)
		}
	}
	for _, t := range ts {
		add(t.AssignedTo)
		for _, st := range t.Subtasks {
			add(st.AssignedTo)
		}
	}
	refs, err := h.Users.Refs(ctx, ids)
	return assignees(refs), err
}

func viewSubtask(st models.Subtask, a assignees) subtaskView {
	return subtaskView{
		ID:          st.ID,
		Title:       st.Title,
		Description: st.Description,
		Status:      st.Status,
		AssignedTo:  a.ref(st.AssignedTo),
		DueDate:     st.DueDate,
		CreatedAt:   st.CreatedAt,
		UpdatedAt:   st.UpdatedAt,
	}
}

func viewTask(t models.Task, a assignees) taskView {
	subs := make([]subtaskView, 0, len(t.Subtasks))
	for _, st := range t.Subtasks {
		subs = append(subs, viewSubtask(st, a))
	}
	return taskView{
		ID:          t.ID,
		Project:     t.ProjectID,
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status,
		Priority:    t.Priority,
		AssignedTo:  a.ref(t.AssignedTo),
		DueDate:     t.DueDate,
		Subtasks:    subs,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func (h *Handler) views(ctx context.Context, ts []models.Task) ([]taskView, error) {
	a, err := h.assignees(ctx, ts)
	if err != nil {
		return nil, err
	}
	out := make([]taskView, 0, len(ts))
	for _, t := range ts {
		out = append(out, viewTask(t, a))
	}
	return out, nil
}

func (h *Handler) view(ctx context.Context, t *models.Task) (taskView, error) {
	vs, err := h.views(ctx, []models.Task{*t})
	if err != nil {
		return taskView{}, err
	}
	return vs[0], nil
}

// taskInput is shared by create and update; nil fields were not sent.
type taskInput struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Status      *string    `json:"status"`
	Priority    *string    `json:"priority"`
	AssignedTo  *string    `json:"assignedTo"`
	DueDate     *time.Time `json:"dueDate"`
}

func (in taskInput) update() (taskstore.Update, error) {
	u := taskstore.Update{
		Title:       in.Title,
		Description: in.Description,
		Status:      in.Status,
		Priority:    in.Priority,
		DueDate:     in.DueDate,
	}
	if in.AssignedTo != nil && *in.AssignedTo != "" {
		id, err := primitive.ObjectIDFromHex(*in.AssignedTo)
		if err != nil {
			return taskstore.Update{}, apierr.BadRequest("Invalid assignee")
		}
		u.AssignedTo = &id
	}
	return u, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// pathID parses a URL param; malformed ids are reported as notFound.
func pathID(r *http.Request, key, notFound string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, key))
	if err != nil {
		return primitive.NilObjectID, apierr.NotFound(notFound)
	}
	return id, nil
}

// validationError maps taskstore input errors to 400s. Other errors are
// returned unchanged.
func validationError(err error) error {
	switch {
	case errors.Is(err, taskstore.ErrTitleRequired):
		return apierr.BadRequest("Title is required")
	case errors.Is(err, taskstore.ErrBadStatus):
		return apierr.BadRequest("Invalid status")
	case errors.Is(err, taskstore.ErrBadPriority):
		return apierr.BadRequest("Invalid priority")
	}
	return err
}

type empty struct{}
