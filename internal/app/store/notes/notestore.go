package notestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/basecamp/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrContentRequired is returned when a note would have blank content.
var ErrContentRequired = errors.New("content is required")

// Title derivation limits, counted in runes.
const (
	titleMax    = 50
	titleCut    = 47
	titleSuffix = "..."
)

// DeriveTitle builds a title from content: content that fits in 50 runes
// is used as is, longer content is cut to 47 runes plus "...".
func DeriveTitle(content string) string {
	r := []rune(content)
	if len(r) <= titleMax {
		return content
	}
	return string(r[:titleCut]) + titleSuffix
}

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("notes")}
}

// Create inserts n. A blank title is derived from the content.
func (s *Store) Create(ctx context.Context, n models.Note) (models.Note, error) {
	if strings.TrimSpace(n.Content) == "" {
		return models.Note{}, ErrContentRequired
	}
	n.Title = strings.TrimSpace(n.Title)
	if n.Title == "" {
		n.Title = DeriveTitle(n.Content)
	}

	now := time.Now().UTC()
	n.ID = primitive.NewObjectID()
	n.CreatedAt = now
	n.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, n); err != nil {
		return models.Note{}, err
	}
	return n, nil
}

// ListByProject returns the project's notes, newest first.
func (s *Store) ListByProject(ctx context.Context, projectID primitive.ObjectID) ([]models.Note, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := s.c.Find(ctx, bson.M{"project_id": projectID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Note{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) Get(ctx context.Context, projectID, noteID primitive.ObjectID) (*models.Note, error) {
	var n models.Note
	if err := s.c.FindOne(ctx, bson.M{"_id": noteID, "project_id": projectID}).Decode(&n); err != nil {
		return nil, err
	}
	return &n, nil
}

// Update changes title and/or content; nil leaves a field alone. Clearing
// the title derives it again from the resulting content.
func (s *Store) Update(ctx context.Context, projectID, noteID primitive.ObjectID, title, content *string) (*models.Note, error) {
	cur, err := s.Get(ctx, projectID, noteID)
	if err != nil {
		return nil, err
	}

	set := bson.M{"updated_at": time.Now().UTC()}
	body := cur.Content
	if content != nil {
		if strings.TrimSpace(*content) == "" {
			return nil, ErrContentRequired
		}
		body = *content
		set["content"] = body
	}
	if title != nil {
		t := strings.TrimSpace(*title)
		if t == "" {
			t = DeriveTitle(body)
		}
		set["title"] = t
	}

	var n models.Note
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	filter := bson.M{"_id": noteID, "project_id": projectID}
	if err := s.c.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&n); err != nil {
		return nil, err
	}
	return &n, nil
}

// Delete removes the note only when it belongs to projectID.
func (s *Store) Delete(ctx context.Context, projectID, noteID primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": noteID, "project_id": projectID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
