package tasks_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/basecamp/internal/app/features/tasks"
	projectstore "github.com/dalemusser/basecamp/internal/app/store/projects"
	taskstore "github.com/dalemusser/basecamp/internal/app/store/tasks"
	userstore "github.com/dalemusser/basecamp/internal/app/store/users"
	"github.com/dalemusser/basecamp/internal/app/system/auth"
	"github.com/dalemusser/basecamp/internal/app/system/authz"
	"github.com/dalemusser/basecamp/internal/domain/models"
	"github.com/dalemusser/basecamp/internal/testutil"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type env struct {
	router http.Handler
	tasks  *taskstore.Store
	fx     *testutil.Fixtures

	owner, member, stranger models.User
	project                 models.Project
}

func setup(t *testing.T, db *mongo.Database) env {
	t.Helper()
	tok := testutil.Tokens()
	users := userstore.New(db)
	ts := taskstore.New(db)
	logger := zap.NewNop()

	h := tasks.NewHandler(ts, users, logger)
	r := chi.NewRouter()
	r.Mount("/tasks", tasks.Routes(h, auth.NewMiddleware(tok, users, logger), authz.NewGuard(projectstore.New(db), logger)))

	e := env{router: r, tasks: ts, fx: testutil.NewFixtures(t, db)}
	ctx, cancel := testutil.TestContext()
	defer cancel()
	e.owner = e.fx.CreateUser(ctx, "owner", "owner@example.com", models.RoleUser)
	e.member = e.fx.CreateUser(ctx, "member", "member@example.com", models.RoleUser)
	e.stranger = e.fx.CreateUser(ctx, "stranger", "stranger@example.com", models.RoleUser)
	e.project = e.fx.CreateProject(ctx, "P", e.owner.ID, models.ProjectMember{UserID: e.member.ID, Role: models.MemberRoleMember})
	return e
}

func (e env) do(as models.User, method, path string, body any) *httptest.ResponseRecorder {
	req := testutil.WithBearer(testutil.NewJSONRequest(method, path, body), as)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e env) base() string { return "/tasks/" + e.project.ID.Hex() }

type subtask struct {
	ID          primitive.ObjectID `json:"_id"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Status      string             `json:"status"`
	AssignedTo  *models.UserRef    `json:"assignedTo"`
}

type task struct {
	ID          primitive.ObjectID `json:"_id"`
	Project     primitive.ObjectID `json:"project"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Status      string             `json:"status"`
	Priority    string             `json:"priority"`
	AssignedTo  *models.UserRef    `json:"assignedTo"`
	DueDate     *time.Time         `json:"dueDate"`
	Subtasks    []subtask          `json:"subtasks"`
}

func TestCreate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	e := setup(t, db)

	due := time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC)
	rec := e.do(e.owner, http.MethodPost, e.base(), map[string]any{
		"title":      "Write docs",
		"priority":   models.PriorityHigh,
		"assignedTo": e.member.ID.Hex(),
		"dueDate":    due,
	})
	testutil.AssertStatus(t, rec, http.StatusCreated)

	var got task
	env := testutil.DecodeEnvelope(t, rec, &got)
	if env.Message != "Task created successfully" {
		t.Errorf("message: got %q", env.Message)
	}
	if got.Project != e.project.ID || got.Status != models.TaskPending || got.Priority != models.PriorityHigh {
		t.Errorf("unexpected task: %+v", got)
	}
	if got.AssignedTo == nil || got.AssignedTo.Username != "member" {
		t.Errorf("assignee not populated: %+v", got.AssignedTo)
	}
	if got.DueDate == nil || !got.DueDate.Equal(due) {
		t.Errorf("dueDate: got %v", got.DueDate)
	}
	if got.Subtasks == nil {
		t.Error("subtasks should be an empty array")
	}
}

func TestCreate_StoresTextAsSent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	e := setup(t, db)

	rec := e.do(e.owner, http.MethodPost, e.base(), map[string]any{
		"title":       "Use the <title> tag",
		"description": "if a<b and c>d then swap",
	})
	testutil.AssertStatus(t, rec, http.StatusCreated)
	var created task
	testutil.DecodeEnvelope(t, rec, &created)
	path := e.base() + "/t/" + created.ID.Hex()

	rec = e.do(e.member, http.MethodGet, path, nil)
	testutil.AssertStatus(t, rec, http.StatusOK)
	var got task
	testutil.DecodeEnvelope(t, rec, &got)
	if got.Title != "Use the <title> tag" || got.Description != "if a<b and c>d then swap" {
		t.Errorf("task text changed: title %q, description %q", got.Title, got.Description)
	}

	rec = e.do(e.owner, http.MethodPut, path, map[string]any{"description": "<script>x</script> & more"})
	testutil.AssertStatus(t, rec, http.StatusOK)
	testutil.DecodeEnvelope(t, rec, &got)
	if got.Description != "<script>x</script> & more" {
		t.Errorf("updated description: got %q", got.Description)
	}

	rec = e.do(e.owner, http.MethodPost, path+"/subtasks", map[string]any{"title": "a<b", "description": "c>d"})
	testutil.AssertStatus(t, rec, http.StatusCreated)
	var parent task
	testutil.DecodeEnvelope(t, rec, &parent)
	if len(parent.Subtasks) != 1 || parent.Subtasks[0].Title != "a<b" || parent.Subtasks[0].Description != "c>d" {
		t.Errorf("subtask text changed: %+v", parent.Subtasks)
	}
}

func TestCreate_Rejected(t *testing.T) {
	db := testutil.SetupTestDB(t)
	e := setup(t, db)

	tests := []struct {
		name   string
		as     models.User
		path   string
		body   map[string]any
		status int
	}{
		{"member cannot create", e.member, e.base(), map[string]any{"title": "T"}, http.StatusForbidden},
		{"stranger cannot create", e.stranger, e.base(), map[string]any{"title": "T"}, http.StatusForbidden},
		{"unknown project", e.owner, "/tasks/" + primitive.NewObjectID().Hex(), map[string]any{"title": "T"}, http.StatusNotFound},
		{"blank title", e.owner, e.base(), map[string]any{"title": " "}, http.StatusBadRequest},
		{"bad status", e.owner, e.base(), map[string]any{"title": "T", "status": "Done"}, http.StatusBadRequest},
		{"bad priority", e.owner, e.base(), map[string]any{"title": "T", "priority": "Urgent"}, http.StatusBadRequest},
		{"bad assignee", e.owner, e.base(), map[string]any{"title": "T", "assignedTo": "nope"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testutil.AssertStatus(t, e.do(tt.as, http.MethodPost, tt.path, tt.body), tt.status)
		})
	}
}

func TestListAndGet(t *testing.T) {
	db := testutil.SetupTestDB(t)
	e := setup(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	first := e.fx.CreateTask(ctx, e.project.ID, "first")
	e.fx.CreateTask(ctx, e.project.ID, "second")
	other := e.fx.CreateProject(ctx, "Other", e.owner.ID)
	foreign := e.fx.CreateTask(ctx, other.ID, "foreign")

	rec := e.do(e.member, http.MethodGet, e.base(), nil)
	testutil.AssertStatus(t, rec, http.StatusOK)
	var list []task
	testutil.DecodeEnvelope(t, rec, &list)
	if len(list) != 2 || list[0].Title != "first" || list[1].Title != "second" {
		t.Fatalf("unexpected list: %+v", list)
	}

	testutil.AssertStatus(t, e.do(e.stranger, http.MethodGet, e.base(), nil), http.StatusForbidden)

	rec = e.do(e.member, http.MethodGet, e.base()+"/t/"+first.ID.Hex(), nil)
	testutil.AssertStatus(t, rec, http.StatusOK)

	// A task from another project is not visible through this one.
	rec = e.do(e.owner, http.MethodGet, e.base()+"/t/"+foreign.ID.Hex(), nil)
	testutil.AssertStatus(t, rec, http.StatusNotFound)
	if env := testutil.DecodeEnvelope(t, rec, nil); env.Message != "Task not found" {
		t.Errorf("message: got %q", env.Message)
	}
	testutil.AssertStatus(t, e.do(e.owner, http.MethodGet, e.base()+"/t/garbage", nil), http.StatusNotFound)
}

func TestUpdateAndDelete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	e := setup(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	tk := e.fx.CreateTask(ctx, e.project.ID, "T")
	path := e.base() + "/t/" + tk.ID.Hex()

	rec := e.do(e.member, http.MethodPut, path, map[string]any{"status": models.TaskInProgress})
	testutil.AssertStatus(t, rec, http.StatusOK)
	var got task
	testutil.DecodeEnvelope(t, rec, &got)
	if got.Status != models.TaskInProgress || got.Title != "T" {
		t.Errorf("unexpected task after update: %+v", got)
	}

	testutil.AssertStatus(t, e.do(e.member, http.MethodPut, path, map[string]any{"priority": "Urgent"}), http.StatusBadRequest)
	testutil.AssertStatus(t, e.do(e.member, http.MethodPut, e.base()+"/t/"+primitive.NewObjectID().Hex(),
		map[string]any{"title": "x"}), http.StatusNotFound)

	testutil.AssertStatus(t, e.do(e.member, http.MethodDelete, path, nil), http.StatusForbidden)
	testutil.AssertStatus(t, e.do(e.owner, http.MethodDelete, path, nil), http.StatusOK)
	testutil.AssertStatus(t, e.do(e.owner, http.MethodDelete, path, nil), http.StatusNotFound)
}

func TestSubtasks(t *testing.T) {
	db := testutil.SetupTestDB(t)
	e := setup(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	tk := e.fx.CreateTask(ctx, e.project.ID, "T")
	path := e.base() + "/t/" + tk.ID.Hex()

	rec := e.do(e.owner, http.MethodPost, e.base()+"/t/"+primitive.NewObjectID().Hex()+"/subtasks", map[string]any{"title": "S"})
	testutil.AssertStatus(t, rec, http.StatusNotFound)
	if env := testutil.DecodeEnvelope(t, rec, nil); env.Message != "Parent task not found" {
		t.Errorf("message: got %q", env.Message)
	}
	testutil.AssertStatus(t, e.do(e.member, http.MethodPost, path+"/subtasks", map[string]any{"title": "S"}), http.StatusForbidden)

	rec = e.do(e.owner, http.MethodPost, path+"/subtasks", map[string]any{"title": "S", "assignedTo": e.member.ID.Hex()})
	testutil.AssertStatus(t, rec, http.StatusCreated)
	var parent task
	testutil.DecodeEnvelope(t, rec, &parent)
	if len(parent.Subtasks) != 1 {
		t.Fatalf("expected one subtask, got %d", len(parent.Subtasks))
	}
	st := parent.Subtasks[0]
	if st.Status != models.TaskPending || st.AssignedTo == nil || st.AssignedTo.Email != "member@example.com" {
		t.Errorf("unexpected subtask: %+v", st)
	}

	rec = e.do(e.member, http.MethodPut, path+"/st/"+st.ID.Hex(), map[string]any{"status": models.TaskCompleted})
	testutil.AssertStatus(t, rec, http.StatusOK)
	var updated subtask
	testutil.DecodeEnvelope(t, rec, &updated)
	if updated.ID != st.ID || updated.Status != models.TaskCompleted || updated.Title != "S" {
		t.Errorf("unexpected subtask after update: %+v", updated)
	}

	testutil.AssertStatus(t, e.do(e.member, http.MethodPut, path+"/st/"+st.ID.Hex(), map[string]any{"status": "Done"}), http.StatusBadRequest)
	testutil.AssertStatus(t, e.do(e.member, http.MethodDelete, path+"/st/"+st.ID.Hex(), nil), http.StatusForbidden)
	testutil.AssertStatus(t, e.do(e.owner, http.MethodDelete, path+"/st/"+st.ID.Hex(), nil), http.StatusOK)

	rec = e.do(e.owner, http.MethodDelete, path+"/st/"+st.ID.Hex(), nil)
	testutil.AssertStatus(t, rec, http.StatusNotFound)
	if env := testutil.DecodeEnvelope(t, rec, nil); env.Message != "Subtask not found" {
		t.Errorf("message: got %q", env.Message)
	}
}

func TestUpdateSubtask_ScopedToParent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	e := setup(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	a := e.fx.CreateTask(ctx, e.project.ID, "A", "a1")
	b := e.fx.CreateTask(ctx, e.project.ID, "B", "b1")

	// b1 addressed through task A does not exist.
	rec := e.do(e.owner, http.MethodPut, e.base()+"/t/"+a.ID.Hex()+"/st/"+b.Subtasks[0].ID.Hex(),
		map[string]any{"title": "hijacked"})
	testutil.AssertStatus(t, rec, http.StatusNotFound)

	got, err := e.tasks.Get(ctx, e.project.ID, b.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Subtasks[0].Title != "b1" {
		t.Errorf("sibling subtask mutated: %q", got.Subtasks[0].Title)
	}

	// And a subtask is not reachable through another project.
	other := e.fx.CreateProject(ctx, "Other", e.owner.ID)
	rec = e.do(e.owner, http.MethodPut, "/tasks/"+other.ID.Hex()+"/t/"+a.ID.Hex()+"/st/"+a.Subtasks[0].ID.Hex(),
		map[string]any{"title": "hijacked"})
	testutil.AssertStatus(t, rec, http.StatusNotFound)
}
