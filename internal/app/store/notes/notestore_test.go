package notestore_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	notestore "github.com/dalemusser/basecamp/internal/app/store/notes"
	"github.com/dalemusser/basecamp/internal/domain/models"
	"github.com/dalemusser/basecamp/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestDeriveTitle(t *testing.T) {
	fifty := strings.Repeat("a", 50)
	fiftyOne := strings.Repeat("b", 51)
	accents := strings.Repeat("é", 60)

	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"short", "hello", "hello"},
		{"exactly fifty", fifty, fifty},
		{"fifty one", fiftyOne, strings.Repeat("b", 47) + "..."},
		{"multibyte", accents, strings.Repeat("é", 47) + "..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := notestore.DeriveTitle(tt.content); got != tt.want {
				t.Errorf("DeriveTitle = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStore_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := notestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	pid := primitive.NewObjectID()
	author := primitive.NewObjectID()
	long := strings.Repeat("x", 80)

	n, err := store.Create(ctx, models.Note{ProjectID: pid, Content: long, CreatedBy: author})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if n.Title != strings.Repeat("x", 47)+"..." {
		t.Errorf("derived title: got %q", n.Title)
	}

	titled, err := store.Create(ctx, models.Note{ProjectID: pid, Title: "Kept", Content: long, CreatedBy: author})
	if err != nil {
		t.Fatalf("Create with title failed: %v", err)
	}
	if titled.Title != "Kept" {
		t.Errorf("explicit title: got %q", titled.Title)
	}

	if _, err := store.Create(ctx, models.Note{ProjectID: pid, Content: "  ", CreatedBy: author}); !errors.Is(err, notestore.ErrContentRequired) {
		t.Errorf("expected ErrContentRequired, got %v", err)
	}
}

func TestStore_ListByProject_NewestFirst(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := notestore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	pid := primitive.NewObjectID()
	author := primitive.NewObjectID()
	fixtures.CreateNote(ctx, pid, author, "old")
	time.Sleep(5 * time.Millisecond)
	newest := fixtures.CreateNote(ctx, pid, author, "new")
	fixtures.CreateNote(ctx, primitive.NewObjectID(), author, "elsewhere")

	list, err := store.ListByProject(ctx, pid)
	if err != nil {
		t.Fatalf("ListByProject failed: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 notes, got %d", len(list))
	}
	if list[0].ID != newest.ID {
		t.Errorf("expected newest first, got %q", list[0].Content)
	}

	empty, err := store.ListByProject(ctx, primitive.NewObjectID())
	if err != nil || empty == nil || len(empty) != 0 {
		t.Errorf("expected empty non-nil list, got %v, %v", empty, err)
	}
}

func TestStore_Update(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := notestore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	pid := primitive.NewObjectID()
	n := fixtures.CreateNote(ctx, pid, primitive.NewObjectID(), "body")

	content := "new body"
	got, err := store.Update(ctx, pid, n.ID, nil, &content)
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if got.Content != "new body" || got.Title != "body" {
		t.Errorf("got title %q content %q", got.Title, got.Content)
	}

	blank := ""
	got, err = store.Update(ctx, pid, n.ID, &blank, nil)
	if err != nil {
		t.Fatalf("Update title failed: %v", err)
	}
	if got.Title != "new body" {
		t.Errorf("cleared title should derive from content, got %q", got.Title)
	}

	if _, err := store.Update(ctx, pid, n.ID, nil, &blank); !errors.Is(err, notestore.ErrContentRequired) {
		t.Errorf("expected ErrContentRequired, got %v", err)
	}
	if _, err := store.Update(ctx, primitive.NewObjectID(), n.ID, nil, &content); !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("other project: expected mongo.ErrNoDocuments, got %v", err)
	}
}

func TestStore_Delete_RequiresMatchingProject(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := notestore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	pid := primitive.NewObjectID()
	n := fixtures.CreateNote(ctx, pid, primitive.NewObjectID(), "keep me")

	if err := store.Delete(ctx, primitive.NewObjectID(), n.ID); !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("expected mongo.ErrNoDocuments, got %v", err)
	}
	if _, err := store.Get(ctx, pid, n.ID); err != nil {
		t.Errorf("note should survive mismatched delete: %v", err)
	}
	if err := store.Delete(ctx, pid, n.ID); err != nil {
		t.Errorf("Delete failed: %v", err)
	}
}
