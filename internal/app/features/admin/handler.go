// internal/app/features/admin/handler.go
package admin

import (
	"context"
	"net/http"
	"time"

	"github.com/dalemusser/basecamp/internal/app/store/audit"
	userstore "github.com/dalemusser/basecamp/internal/app/store/users"
	"github.com/dalemusser/basecamp/internal/app/system/apierr"
	"github.com/dalemusser/basecamp/internal/app/system/paging"
	"github.com/dalemusser/basecamp/internal/app/system/respond"
	"github.com/dalemusser/basecamp/internal/app/system/timeouts"
	"github.com/dalemusser/basecamp/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Handler serves the global-admin endpoints under /api/v1/admin.
type Handler struct {
	Users *userstore.Store
	Audit *audit.Store
	Log   *zap.Logger
}

func NewHandler(users *userstore.Store, auditStore *audit.Store, logger *zap.Logger) *Handler {
	return &Handler{Users: users, Audit: auditStore, Log: logger}
}

type page[T any] struct {
	Items []T         `json:"items"`
	Page  paging.Meta `json:"page"`
}

// ListUsers handles GET /users?limit=&offset=, newest accounts first.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	pg := paging.Parse(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	users, err := h.Users.List(ctx, pg.Limit, pg.Offset)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	total, err := h.Users.Count(ctx)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, page[models.User]{Items: users, Page: pg.Meta(len(users), total)}, "Users fetched successfully")
}

func optionalID(r *http.Request, key string) (*primitive.ObjectID, error) {
	s := query.Get(r, key)
	if s == "" {
		return nil, nil
	}
	id, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		return nil, apierr.BadRequest("Invalid " + key + " id")
	}
	return &id, nil
}

// ListAudit handles GET /audit. Filters: category, type, user, project and
// since (RFC 3339); paging as for ListUsers.
func (h *Handler) ListAudit(w http.ResponseWriter, r *http.Request) {
	pg := paging.Parse(r)
	f := audit.QueryFilter{
		Category:  query.Get(r, "category"),
		EventType: query.Get(r, "type"),
		Limit:     pg.Limit,
		Offset:    pg.Offset,
	}

	var err error
	if f.UserID, err = optionalID(r, "user"); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if f.ProjectID, err = optionalID(r, "project"); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if s := query.Get(r, "since"); s != "" {
		since, perr := time.Parse(time.RFC3339, s)
		if perr != nil {
			respond.Error(w, r, h.Log, apierr.BadRequest("Invalid since timestamp"))
			return
		}
		f.Since = &since
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	events, err := h.Audit.Query(ctx, f)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	total, err := h.Audit.Count(ctx, f)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, page[audit.Event]{Items: events, Page: pg.Meta(len(events), total)}, "Audit events fetched successfully")
}
