package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/basecamp/internal/app/system/normalize"
	"github.com/dalemusser/basecamp/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

// DefaultPassword is the password of every fixture user.
const DefaultPassword = "password123"

// WithChiURLParams adds chi URL parameters (key, value pairs) to the
// request context for handler tests that call methods directly.
func WithChiURLParams(r *http.Request, kv ...string) *http.Request {
	rctx := chi.NewRouteContext()
	for i := 0; i+1 < len(kv); i += 2 {
		rctx.URLParams.Add(kv[i], kv[i+1])
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser inserts a verified user with DefaultPassword.
func (f *Fixtures) CreateUser(ctx context.Context, username, email, role string) models.User {
	f.t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.MinCost)
	if err != nil {
		f.t.Fatalf("failed to hash fixture password: %v", err)
	}

	now := time.Now().UTC()
	u := models.User{
		ID:              primitive.NewObjectID(),
		Username:        normalize.Username(username),
		Email:           normalize.Email(email),
		FullName:        username,
		Avatar:          models.Avatar{URL: models.DefaultAvatarURL},
		Role:            role,
		IsEmailVerified: true,
		PasswordHash:    string(hash),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

// CreateAdmin inserts a user with the global admin role.
func (f *Fixtures) CreateAdmin(ctx context.Context, username, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, username, email, models.RoleAdmin)
}

// CreateProject inserts a project owned by owner. The owner is listed as
// Admin followed by any extra members.
func (f *Fixtures) CreateProject(ctx context.Context, name string, owner primitive.ObjectID, members ...models.ProjectMember) models.Project {
	f.t.Helper()

	now := time.Now().UTC()
	p := models.Project{
		ID:        primitive.NewObjectID(),
		Name:      name,
		OwnerID:   owner,
		Members:   append([]models.ProjectMember{{UserID: owner, Role: models.MemberRoleAdmin}}, members...),
		Status:    models.ProjectActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("projects").InsertOne(ctx, p); err != nil {
		f.t.Fatalf("failed to create test project: %v", err)
	}
	return p
}

// CreateTask inserts a pending task in project with the given subtask titles.
func (f *Fixtures) CreateTask(ctx context.Context, projectID primitive.ObjectID, title string, subtaskTitles ...string) models.Task {
	f.t.Helper()

	now := time.Now().UTC()
	t := models.Task{
		ID:        primitive.NewObjectID(),
		ProjectID: projectID,
		Title:     title,
		Status:    models.TaskPending,
		Priority:  models.PriorityMedium,
		Subtasks:  []models.Subtask{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, st := range subtaskTitles {
		t.Subtasks = append(t.Subtasks, models.Subtask{
			ID:        primitive.NewObjectID(),
			Title:     st,
			Status:    models.TaskPending,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	if _, err := f.db.Collection("tasks").InsertOne(ctx, t); err != nil {
		f.t.Fatalf("failed to create test task: %v", err)
	}
	return t
}

// CreateNote inserts a note whose title is its content.
func (f *Fixtures) CreateNote(ctx context.Context, projectID, createdBy primitive.ObjectID, content string) models.Note {
	f.t.Helper()

	now := time.Now().UTC()
	n := models.Note{
		ID:        primitive.NewObjectID(),
		ProjectID: projectID,
		Title:     content,
		Content:   content,
		CreatedBy: createdBy,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("notes").InsertOne(ctx, n); err != nil {
		f.t.Fatalf("failed to create test note: %v", err)
	}
	return n
}
