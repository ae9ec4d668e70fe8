// internal/app/system/authz/authz.go
package authz

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/basecamp/internal/app/system/apierr"
	"github.com/dalemusser/basecamp/internal/app/system/auth"
	"github.com/dalemusser/basecamp/internal/app/system/respond"
	"github.com/dalemusser/basecamp/internal/app/system/timeouts"
	"github.com/dalemusser/basecamp/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Client-facing denial messages.
const (
	MsgProjectNotFound = "Project not found"
	MsgNotMember       = "Access denied — not a project member"
	MsgNotProjectAdmin = "Access denied — project admins only"
	MsgAdminsOnly      = "Access denied — Admins only"
)

// IsGlobalAdmin reports whether actor holds the platform-wide admin role.
func IsGlobalAdmin(actor *models.User) bool {
	return actor != nil && actor.Role == models.RoleAdmin
}

// CanAccessProject reports whether actor may read p: the owner, any listed
// member, or a global admin.
func CanAccessProject(p models.Project, actor *models.User) bool {
	if actor == nil {
		return false
	}
	if p.OwnerID == actor.ID || IsGlobalAdmin(actor) {
		return true
	}
	_, ok := p.Member(actor.ID)
	return ok
}

// CanManageProject reports whether actor may administer p: the owner, a
// member with the Admin role, or a global admin.
func CanManageProject(p models.Project, actor *models.User) bool {
	if actor == nil {
		return false
	}
	if p.OwnerID == actor.ID || IsGlobalAdmin(actor) {
		return true
	}
	m, ok := p.Member(actor.ID)
	return ok && m.Role == models.MemberRoleAdmin
}

// ProjectLoader fetches a project. Unknown ids yield mongo.ErrNoDocuments.
type ProjectLoader interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Project, error)
}

// Guard evaluates project-scoped checks against the stored project. Nothing
// is cached; every call reads the project again.
type Guard struct {
	Projects ProjectLoader
	Log      *zap.Logger
}

func NewGuard(projects ProjectLoader, log *zap.Logger) *Guard {
	return &Guard{Projects: projects, Log: log}
}

func (g *Guard) load(ctx context.Context, projectID primitive.ObjectID) (*models.Project, error) {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	p, err := g.Projects.GetByID(ctx, projectID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apierr.NotFound(MsgProjectNotFound)
	}
	if err != nil {
		return nil, apierr.Internal(err)
	}
	return p, nil
}

// ProjectMember returns the project when actor may read it. The error is an
// *apierr.Error: 404 when the project does not exist, 403 otherwise.
func (g *Guard) ProjectMember(ctx context.Context, projectID primitive.ObjectID, actor *models.User) (*models.Project, error) {
	p, err := g.load(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !CanAccessProject(*p, actor) {
		return nil, apierr.Forbidden(MsgNotMember)
	}
	return p, nil
}

// ProjectAdmin is ProjectMember with the stricter CanManageProject check.
func (g *Guard) ProjectAdmin(ctx context.Context, projectID primitive.ObjectID, actor *models.User) (*models.Project, error) {
	p, err := g.load(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !CanManageProject(*p, actor) {
		return nil, apierr.Forbidden(MsgNotProjectAdmin)
	}
	return p, nil
}

/* ------------------------------ middleware ------------------------------ */

type ctxKey string

const projectKey ctxKey = "authzProject"

// ProjectFrom returns the project loaded by RequireProjectMember or
// RequireProjectAdmin.
func ProjectFrom(r *http.Request) (*models.Project, bool) {
	p, ok := r.Context().Value(projectKey).(*models.Project)
	return p, ok && p != nil
}

// WithProject returns a copy of r carrying p, as the project middleware does.
func WithProject(r *http.Request, p *models.Project) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), projectKey, p))
}

type check func(ctx context.Context, projectID primitive.ObjectID, actor *models.User) (*models.Project, error)

func (g *Guard) require(c check) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := auth.CurrentUser(r)
			if !ok {
				respond.Error(w, r, g.Log, apierr.Unauthorized("Unauthorised access"))
				return
			}
			// Malformed ids cannot name a stored project.
			projectID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "projectID"))
			if err != nil {
				respond.Error(w, r, g.Log, apierr.NotFound(MsgProjectNotFound))
				return
			}
			p, err := c(r.Context(), projectID, actor)
			if err != nil {
				respond.Error(w, r, g.Log, err)
				return
			}
			next.ServeHTTP(w, WithProject(r, p))
		})
	}
}

// RequireProjectMember gates a route on CanAccessProject for {projectID}.
func (g *Guard) RequireProjectMember(next http.Handler) http.Handler {
	return g.require(g.ProjectMember)(next)
}

// RequireProjectAdmin gates a route on CanManageProject for {projectID}.
func (g *Guard) RequireProjectAdmin(next http.Handler) http.Handler {
	return g.require(g.ProjectAdmin)(next)
}

// RequireGlobalAdmin allows only users with the global admin role.
func (g *Guard) RequireGlobalAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := auth.CurrentUser(r)
		if !ok {
			respond.Error(w, r, g.Log, apierr.Unauthorized("Unauthorised access"))
			return
		}
		if !IsGlobalAdmin(actor) {
			respond.Error(w, r, g.Log, apierr.Forbidden(MsgAdminsOnly))
			return
		}
		next.ServeHTTP(w, r)
	})
}
