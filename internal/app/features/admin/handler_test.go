package admin_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/basecamp/internal/app/features/admin"
	"github.com/dalemusser/basecamp/internal/app/store/audit"
	projectstore "github.com/dalemusser/basecamp/internal/app/store/projects"
	userstore "github.com/dalemusser/basecamp/internal/app/store/users"
	"github.com/dalemusser/basecamp/internal/app/system/auth"
	"github.com/dalemusser/basecamp/internal/app/system/authz"
	"github.com/dalemusser/basecamp/internal/app/system/paging"
	"github.com/dalemusser/basecamp/internal/domain/models"
	"github.com/dalemusser/basecamp/internal/testutil"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newRouter(t *testing.T, db *mongo.Database) http.Handler {
	t.Helper()
	tok := testutil.Tokens()
	users := userstore.New(db)
	logger := zap.NewNop()
	h := admin.NewHandler(users, audit.New(db), logger)

	r := chi.NewRouter()
	r.Mount("/admin", admin.Routes(h, auth.NewMiddleware(tok, users, logger), authz.NewGuard(projectstore.New(db), logger)))
	return r
}

func get(router http.Handler, as *models.User, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if as != nil {
		req = testutil.WithBearer(req, *as)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

type usersPage struct {
	Items []models.User `json:"items"`
	Page  paging.Meta   `json:"page"`
}

func TestListUsers(t *testing.T) {
	db := testutil.SetupTestDB(t)
	router := newRouter(t, db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	root := fx.CreateAdmin(ctx, "root", "root@example.com")
	plain := fx.CreateUser(ctx, "plain", "plain@example.com", models.RoleUser)
	fx.CreateUser(ctx, "third", "third@example.com", models.RoleUser)

	testutil.AssertStatus(t, get(router, nil, "/admin/users"), http.StatusUnauthorized)

	rec := get(router, &plain, "/admin/users")
	testutil.AssertStatus(t, rec, http.StatusForbidden)
	if env := testutil.DecodeEnvelope(t, rec, nil); env.Message != authz.MsgAdminsOnly {
		t.Errorf("message: got %q", env.Message)
	}

	rec = get(router, &root, "/admin/users?limit=2")
	testutil.AssertStatus(t, rec, http.StatusOK)
	var pg usersPage
	testutil.DecodeEnvelope(t, rec, &pg)
	if len(pg.Items) != 2 || pg.Page.Total != 3 || !pg.Page.HasNext || pg.Page.HasPrev {
		t.Errorf("unexpected first page: %d items, meta %+v", len(pg.Items), pg.Page)
	}

	rec = get(router, &root, "/admin/users?limit=2&offset=2")
	testutil.AssertStatus(t, rec, http.StatusOK)
	testutil.DecodeEnvelope(t, rec, &pg)
	if len(pg.Items) != 1 || pg.Page.HasNext || !pg.Page.HasPrev {
		t.Errorf("unexpected second page: %d items, meta %+v", len(pg.Items), pg.Page)
	}
	if pg.Items[0].Username != "root" {
		t.Errorf("expected oldest account last, got %q", pg.Items[0].Username)
	}
}

func TestListAudit(t *testing.T) {
	db := testutil.SetupTestDB(t)
	router := newRouter(t, db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	root := fx.CreateAdmin(ctx, "root", "root@example.com")

	store := audit.New(db)
	pid := primitive.NewObjectID()
	logEvent(t, ctx, store, audit.Event{Category: audit.CategoryAuth, EventType: audit.EventLoginSuccess, UserID: &root.ID})
	logEvent(t, ctx, store, audit.Event{Category: audit.CategoryProject, EventType: audit.EventMemberAdded, ProjectID: &pid})
	logEvent(t, ctx, store, audit.Event{Category: audit.CategoryProject, EventType: audit.EventMemberRemoved, ProjectID: &pid})

	rec := get(router, &root, "/admin/audit?project="+pid.Hex())
	testutil.AssertStatus(t, rec, http.StatusOK)
	var pg struct {
		Items []audit.Event `json:"items"`
		Page  paging.Meta   `json:"page"`
	}
	testutil.DecodeEnvelope(t, rec, &pg)
	if len(pg.Items) != 2 || pg.Page.Total != 2 {
		t.Fatalf("expected 2 project events, got %d (total %d)", len(pg.Items), pg.Page.Total)
	}

	rec = get(router, &root, "/admin/audit?category=auth&type="+audit.EventLoginSuccess)
	testutil.AssertStatus(t, rec, http.StatusOK)
	testutil.DecodeEnvelope(t, rec, &pg)
	if len(pg.Items) != 1 || pg.Items[0].UserID == nil || *pg.Items[0].UserID != root.ID {
		t.Errorf("unexpected auth events: %+v", pg.Items)
	}

	testutil.AssertStatus(t, get(router, &root, "/admin/audit?user=nope"), http.StatusBadRequest)
	testutil.AssertStatus(t, get(router, &root, "/admin/audit?since=yesterday"), http.StatusBadRequest)
}

func logEvent(t *testing.T, ctx context.Context, store *audit.Store, e audit.Event) {
	t.Helper()
	if err := store.Log(ctx, e); err != nil {
		t.Fatalf("audit Log: %v", err)
	}
}
