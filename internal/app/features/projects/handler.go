// internal/app/features/projects/handler.go
package projects

import (
	"context"
	"errors"
	"time"

	projectstore "github.com/dalemusser/basecamp/internal/app/store/projects"
	userstore "github.com/dalemusser/basecamp/internal/app/store/users"
	"github.com/dalemusser/basecamp/internal/app/system/apierr"
	"github.com/dalemusser/basecamp/internal/app/system/auditlog"
	"github.com/dalemusser/basecamp/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves /api/v1/projects. Access checks run in the authz guard
// before any handler here is reached.
type Handler struct {
	Projects *projectstore.Store
	Users    *userstore.Store
	Audit    *auditlog.Logger
	Log      *zap.Logger
}

func NewHandler(projects *projectstore.Store, users *userstore.Store, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Projects: projects,
		Users:    users,
		Audit:    audit,
		Log:      logger,
	}
}

// memberView is a roster entry with its user populated.
type memberView struct {
	User models.UserRef `json:"user"`
	Role string         `json:"role"`
}

type projectView struct {
	ID          primitive.ObjectID `json:"_id"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Owner       primitive.ObjectID `json:"owner"`
	Status      string             `json:"status"`
	Members     []memberView       `json:"members"`
	CreatedAt   time.Time          `json:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt"`
}

// views populates the rosters of ps with one user lookup. Members whose
// account is gone keep their id and nothing else.
func (h *Handler) views(ctx context.Context, ps []models.Project) ([]projectView, error) {
	seen := map[primitive.ObjectID]bool{}
	var ids []primitive.ObjectID
	for _, p := range ps {
		for _, m := range p.Members {
			if !seen[m.UserID] {
				seen[m.UserID] = true
				ids = append(ids, m.UserID)
			}
		}
	}
	refs, err := h.Users.Refs(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]projectView, 0, len(ps))
	for _, p := range ps {
		members := make([]memberView, 0, len(p.Members))
		for _, m := range p.Members {
			ref, ok := refs[m.UserID]
			if !ok {
				ref = models.UserRef{ID: m.UserID}
			}
			members = append(members, memberView{User: ref, Role: m.Role})
		}
		out = append(out, projectView{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			Owner:       p.OwnerID,
			Status:      p.Status,
			Members:     members,
			CreatedAt:   p.CreatedAt,
			UpdatedAt:   p.UpdatedAt,
		})
	}
	return out, nil
}

func (h *Handler) view(ctx context.Context, p *models.Project) (projectView, error) {
	vs, err := h.views(ctx, []models.Project{*p})
	if err != nil {
		return projectView{}, err
	}
	return vs[0], nil
}

// storeError maps projectstore failures onto client errors. Anything it
// does not recognise is returned unchanged and becomes a 500.
func storeError(err error) error {
	switch {
	case errors.Is(err, projectstore.ErrNameRequired):
		return apierr.BadRequest("Project name is required")
	case errors.Is(err, projectstore.ErrBadStatus):
		return apierr.BadRequest("Invalid project status")
	case errors.Is(err, projectstore.ErrBadRole):
		return apierr.BadRequest("Invalid member role")
	case errors.Is(err, projectstore.ErrAlreadyMember):
		return apierr.BadRequest("User already a member")
	case errors.Is(err, projectstore.ErrMemberNotFound):
		return apierr.NotFound("Member not found")
	case errors.Is(err, mongo.ErrNoDocuments):
		return apierr.NotFound("Project not found")
	}
	return err
}

type empty struct{}
