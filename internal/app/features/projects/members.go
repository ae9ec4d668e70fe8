package projects

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dalemusser/basecamp/internal/app/system/apierr"
	"github.com/dalemusser/basecamp/internal/app/system/auth"
	"github.com/dalemusser/basecamp/internal/app/system/authz"
	"github.com/dalemusser/basecamp/internal/app/system/normalize"
	"github.com/dalemusser/basecamp/internal/app/system/respond"
	"github.com/dalemusser/basecamp/internal/app/system/timeouts"
	"github.com/dalemusser/basecamp/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ListMembers handles GET /{projectID}/members.
func (h *Handler) ListMembers(w http.ResponseWriter, r *http.Request) {
	p, _ := authz.ProjectFrom(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	out, err := h.view(ctx, p)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, out.Members, "Members fetched successfully")
}

type addMemberInput struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

// AddMember handles POST /{projectID}/members. The user is looked up by
// email; an empty role means Member.
func (h *Handler) AddMember(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.CurrentUser(r)
	p, _ := authz.ProjectFrom(r)

	var in addMemberInput
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	email := normalize.Email(in.Email)
	if email == "" {
		respond.Error(w, r, h.Log, apierr.BadRequest("Email is required"))
		return
	}
	role := strings.TrimSpace(in.Role)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, email)
	if errors.Is(err, mongo.ErrNoDocuments) {
		respond.Error(w, r, h.Log, apierr.NotFound("User not found"))
		return
	}
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	updated, err := h.Projects.AddMember(ctx, p.ID, u.ID, role)
	if err != nil {
		respond.Error(w, r, h.Log, storeError(err))
		return
	}
	added, _ := updated.Member(u.ID)
	h.Audit.MemberAdded(ctx, r, actor.ID, p.ID, u.ID, added.Role)

	h.respondProject(w, r, updated, "Member added successfully")
}

// memberParam parses {userID}. A malformed id cannot match any entry.
func memberParam(r *http.Request) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "userID"))
	if err != nil {
		return primitive.NilObjectID, apierr.NotFound("Member not found")
	}
	return id, nil
}

type roleInput struct {
	Role string `json:"role"`
}

// UpdateMemberRole handles PUT /{projectID}/members/{userID}.
func (h *Handler) UpdateMemberRole(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.CurrentUser(r)
	p, _ := authz.ProjectFrom(r)

	userID, err := memberParam(r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	var in roleInput
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	updated, previous, err := h.Projects.UpdateMemberRole(ctx, p.ID, userID, strings.TrimSpace(in.Role))
	if err != nil {
		respond.Error(w, r, h.Log, storeError(err))
		return
	}
	if m, _ := updated.Member(userID); m.Role != previous {
		h.Audit.MemberRoleChanged(ctx, r, actor.ID, p.ID, userID, previous, m.Role)
	}
	h.respondProject(w, r, updated, "Member role updated")
}

// RemoveMember handles DELETE /{projectID}/members/{userID}. Removing a
// user who is not on the roster succeeds and changes nothing.
func (h *Handler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.CurrentUser(r)
	p, _ := authz.ProjectFrom(r)

	userID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "userID"))
	if err != nil {
		// Nothing on the roster can match.
		h.respondProject(w, r, p, "Member removed successfully")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	_, wasMember := p.Member(userID)
	updated, err := h.Projects.RemoveMember(ctx, p.ID, userID)
	if err != nil {
		respond.Error(w, r, h.Log, storeError(err))
		return
	}
	if wasMember {
		h.Audit.MemberRemoved(ctx, r, actor.ID, p.ID, userID)
	}
	h.respondProject(w, r, updated, "Member removed successfully")
}

func (h *Handler) respondProject(w http.ResponseWriter, r *http.Request, p *models.Project, message string) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	out, err := h.view(ctx, p)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, out, message)
}
