package projectstore_test

import (
	"errors"
	"testing"
	"time"

	projectstore "github.com/dalemusser/basecamp/internal/app/store/projects"
	"github.com/dalemusser/basecamp/internal/domain/models"
	"github.com/dalemusser/basecamp/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestStore_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := projectstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := primitive.NewObjectID()
	p, err := store.Create(ctx, models.Project{Name: "  Apollo  ", OwnerID: owner})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if p.Name != "Apollo" {
		t.Errorf("Name: got %q, want Apollo", p.Name)
	}
	if p.Status != models.ProjectActive {
		t.Errorf("Status: got %q, want %q", p.Status, models.ProjectActive)
	}
	if len(p.Members) != 1 || p.Members[0].UserID != owner || p.Members[0].Role != models.MemberRoleAdmin {
		t.Errorf("expected owner as sole Admin member, got %+v", p.Members)
	}

	got, err := store.GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.OwnerID != owner {
		t.Errorf("OwnerID: got %s, want %s", got.OwnerID.Hex(), owner.Hex())
	}
}

func TestStore_Create_Validation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := projectstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Create(ctx, models.Project{Name: "   ", OwnerID: primitive.NewObjectID()}); !errors.Is(err, projectstore.ErrNameRequired) {
		t.Errorf("blank name: expected ErrNameRequired, got %v", err)
	}
	if _, err := store.Create(ctx, models.Project{Name: "X", Status: "Archived", OwnerID: primitive.NewObjectID()}); !errors.Is(err, projectstore.ErrBadStatus) {
		t.Errorf("bad status: expected ErrBadStatus, got %v", err)
	}
}

func TestStore_ListForUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := projectstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	alice := primitive.NewObjectID()
	bob := primitive.NewObjectID()

	owned := fixtures.CreateProject(ctx, "Owned", alice)
	time.Sleep(5 * time.Millisecond)
	joined := fixtures.CreateProject(ctx, "Joined", bob, models.ProjectMember{UserID: alice, Role: models.MemberRoleMember})
	fixtures.CreateProject(ctx, "Other", bob)

	list, err := store.ListForUser(ctx, alice)
	if err != nil {
		t.Fatalf("ListForUser failed: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 projects, got %d", len(list))
	}
	if list[0].ID != joined.ID || list[1].ID != owned.ID {
		t.Errorf("expected newest first: got %s, %s", list[0].Name, list[1].Name)
	}

	none, err := store.ListForUser(ctx, primitive.NewObjectID())
	if err != nil {
		t.Fatalf("ListForUser failed: %v", err)
	}
	if none == nil || len(none) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", none)
	}
}

func TestStore_Update(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := projectstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	p := fixtures.CreateProject(ctx, "Before", primitive.NewObjectID())
	name := "After"
	status := models.ProjectOnHold

	got, err := store.Update(ctx, p.ID, projectstore.Update{Name: &name, Status: &status})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if got.Name != "After" || got.Status != models.ProjectOnHold {
		t.Errorf("got name %q status %q", got.Name, got.Status)
	}

	// Any status may follow any other.
	back := models.ProjectActive
	if _, err := store.Update(ctx, p.ID, projectstore.Update{Status: &back}); err != nil {
		t.Errorf("status back to Active failed: %v", err)
	}

	bad := "Archived"
	if _, err := store.Update(ctx, p.ID, projectstore.Update{Status: &bad}); !errors.Is(err, projectstore.ErrBadStatus) {
		t.Errorf("expected ErrBadStatus, got %v", err)
	}
	if _, err := store.Update(ctx, primitive.NewObjectID(), projectstore.Update{Name: &name}); !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("expected mongo.ErrNoDocuments, got %v", err)
	}
}

func TestStore_Delete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := projectstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	p := fixtures.CreateProject(ctx, "Doomed", primitive.NewObjectID())
	task := fixtures.CreateTask(ctx, p.ID, "survivor")

	if err := store.Delete(ctx, p.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.GetByID(ctx, p.ID); !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("expected project gone, got %v", err)
	}
	if err := store.Delete(ctx, p.ID); !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("second delete: expected mongo.ErrNoDocuments, got %v", err)
	}

	// No cascade.
	n, err := db.Collection("tasks").CountDocuments(ctx, bson.M{"_id": task.ID})
	if err != nil || n != 1 {
		t.Errorf("expected task to remain, count=%d err=%v", n, err)
	}
}

func TestStore_Members(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := projectstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := primitive.NewObjectID()
	bob := primitive.NewObjectID()
	p := fixtures.CreateProject(ctx, "Team", owner)

	got, err := store.AddMember(ctx, p.ID, bob, "")
	if err != nil {
		t.Fatalf("AddMember failed: %v", err)
	}
	m, ok := got.Member(bob)
	if !ok || m.Role != models.MemberRoleMember {
		t.Errorf("expected bob as Member, got %+v (ok=%v)", m, ok)
	}

	if _, err := store.AddMember(ctx, p.ID, bob, models.MemberRoleAdmin); !errors.Is(err, projectstore.ErrAlreadyMember) {
		t.Errorf("expected ErrAlreadyMember, got %v", err)
	}
	if _, err := store.AddMember(ctx, p.ID, primitive.NewObjectID(), "Owner"); !errors.Is(err, projectstore.ErrBadRole) {
		t.Errorf("expected ErrBadRole, got %v", err)
	}

	got, prev, err := store.UpdateMemberRole(ctx, p.ID, bob, models.MemberRoleAdmin)
	if err != nil {
		t.Fatalf("UpdateMemberRole failed: %v", err)
	}
	if prev != models.MemberRoleMember {
		t.Errorf("previous role: got %q", prev)
	}
	if m, _ := got.Member(bob); m.Role != models.MemberRoleAdmin {
		t.Errorf("expected Admin, got %q", m.Role)
	}
	if _, _, err := store.UpdateMemberRole(ctx, p.ID, primitive.NewObjectID(), models.MemberRoleAdmin); !errors.Is(err, projectstore.ErrMemberNotFound) {
		t.Errorf("expected ErrMemberNotFound, got %v", err)
	}

	got, err = store.RemoveMember(ctx, p.ID, bob)
	if err != nil {
		t.Fatalf("RemoveMember failed: %v", err)
	}
	if _, ok := got.Member(bob); ok {
		t.Error("expected bob removed")
	}

	// Removing a non-member is a no-op.
	got, err = store.RemoveMember(ctx, p.ID, bob)
	if err != nil {
		t.Fatalf("RemoveMember of non-member failed: %v", err)
	}
	if len(got.Members) != 1 {
		t.Errorf("expected only the owner to remain, got %+v", got.Members)
	}

	stored, _ := store.GetByID(ctx, p.ID)
	if len(stored.Members) != 1 || stored.Members[0].UserID != owner {
		t.Errorf("stored roster: %+v", stored.Members)
	}

	if _, err := store.AddMember(ctx, primitive.NewObjectID(), bob, ""); !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("unknown project: expected mongo.ErrNoDocuments, got %v", err)
	}
}
