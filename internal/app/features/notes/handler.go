// internal/app/features/notes/handler.go
package notes

import (
	"context"
	"errors"
	"net/http"
	"strings"

	notestore "github.com/dalemusser/basecamp/internal/app/store/notes"
	"github.com/dalemusser/basecamp/internal/app/system/apierr"
	"github.com/dalemusser/basecamp/internal/app/system/auth"
	"github.com/dalemusser/basecamp/internal/app/system/authz"
	"github.com/dalemusser/basecamp/internal/app/system/respond"
	"github.com/dalemusser/basecamp/internal/app/system/timeouts"
	"github.com/dalemusser/basecamp/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const msgNoteNotFound = "Note not found"

// Handler serves /api/v1/notes.
type Handler struct {
	Notes *notestore.Store
	Log   *zap.Logger
}

func NewHandler(notes *notestore.Store, logger *zap.Logger) *Handler {
	return &Handler{Notes: notes, Log: logger}
}

func noteID(r *http.Request) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "noteID"))
	if err != nil {
		return primitive.NilObjectID, apierr.NotFound(msgNoteNotFound)
	}
	return id, nil
}

func storeError(err error) error {
	switch {
	case errors.Is(err, notestore.ErrContentRequired):
		return apierr.BadRequest("Content is required")
	case errors.Is(err, mongo.ErrNoDocuments):
		return apierr.NotFound(msgNoteNotFound)
	}
	return err
}

// List handles GET /{projectID}, newest first. A project without notes
// yields an empty array.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	p, _ := authz.ProjectFrom(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	ns, err := h.Notes.ListByProject(ctx, p.ID)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, ns, "Notes fetched successfully")
}

type noteInput struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

// Create handles POST /{projectID}. A missing title is derived from the
// content.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.CurrentUser(r)
	p, _ := authz.ProjectFrom(r)

	var in noteInput
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if in.Content == nil || strings.TrimSpace(*in.Content) == "" {
		respond.Error(w, r, h.Log, apierr.BadRequest("Content is required"))
		return
	}
	n := models.Note{ProjectID: p.ID, Content: *in.Content, CreatedBy: actor.ID}
	if in.Title != nil {
		n.Title = *in.Title
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	created, err := h.Notes.Create(ctx, n)
	if err != nil {
		respond.Error(w, r, h.Log, storeError(err))
		return
	}
	respond.Created(w, created, "Note created successfully")
}

// Get handles GET /{projectID}/n/{noteID}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	p, _ := authz.ProjectFrom(r)
	id, err := noteID(r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	n, err := h.Notes.Get(ctx, p.ID, id)
	if err != nil {
		respond.Error(w, r, h.Log, storeError(err))
		return
	}
	respond.OK(w, n, "Note fetched successfully")
}

// Update handles PUT /{projectID}/n/{noteID}. Only title and content can
// change.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	p, _ := authz.ProjectFrom(r)
	id, err := noteID(r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	var in noteInput
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	n, err := h.Notes.Update(ctx, p.ID, id, in.Title, in.Content)
	if err != nil {
		respond.Error(w, r, h.Log, storeError(err))
		return
	}
	respond.OK(w, n, "Note updated successfully")
}

// Delete handles DELETE /{projectID}/n/{noteID}. The note must belong to
// the project in the path.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	p, _ := authz.ProjectFrom(r)
	id, err := noteID(r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Notes.Delete(ctx, p.ID, id); err != nil {
		respond.Error(w, r, h.Log, storeError(err))
		return
	}
	respond.OK(w, nil, "Note deleted successfully")
}
