package projectstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/basecamp/internal/app/system/normalize"
	"github.com/dalemusser/basecamp/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Lookups that find nothing return mongo.ErrNoDocuments.

var (
	ErrNameRequired   = errors.New("project name is required")
	ErrBadStatus      = errors.New("invalid project status")
	ErrBadRole        = errors.New("invalid member role")
	ErrAlreadyMember  = errors.New("user already a member")
	ErrMemberNotFound = errors.New("member not found")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("projects")}
}

// Create inserts p with its owner as the sole Admin member.
func (s *Store) Create(ctx context.Context, p models.Project) (models.Project, error) {
	p.Name = normalize.Name(p.Name)
	if p.Name == "" {
		return models.Project{}, ErrNameRequired
	}
	if p.Status == "" {
		p.Status = models.ProjectActive
	}
	if !models.IsValidProjectStatus(p.Status) {
		return models.Project{}, ErrBadStatus
	}

	now := time.Now().UTC()
	p.ID = primitive.NewObjectID()
	p.Members = []models.ProjectMember{{UserID: p.OwnerID, Role: models.MemberRoleAdmin}}
	p.CreatedAt = now
	p.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, p); err != nil {
		return models.Project{}, err
	}
	return p, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Project, error) {
	var p models.Project
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ListForUser returns projects owned by userID or listing it as a member,
// newest first.
func (s *Store) ListForUser(ctx context.Context, userID primitive.ObjectID) ([]models.Project, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"owner": userID},
		bson.M{"members.user": userID},
	}}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})

	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Project{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Update carries optional metadata changes. Nil fields are left alone.
type Update struct {
	Name        *string
	Description *string
	Status      *string
}

// Update applies u and returns the stored result. Any status in
// models.ProjectStatuses may follow any other.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, u Update) (*models.Project, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if u.Name != nil {
		name := normalize.Name(*u.Name)
		if name == "" {
			return nil, ErrNameRequired
		}
		set["name"] = name
	}
	if u.Description != nil {
		set["description"] = *u.Description
	}
	if u.Status != nil {
		if !models.IsValidProjectStatus(*u.Status) {
			return nil, ErrBadStatus
		}
		set["status"] = *u.Status
	}

	var p models.Project
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	if err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Delete removes the project document only. Tasks and notes that reference
// it are left in place.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

/* ------------------------------- members -------------------------------- */

// Member edits read the project, change the roster in memory and write the
// whole array back. Concurrent edits are last-writer-wins.
func (s *Store) editMembers(ctx context.Context, id primitive.ObjectID, edit func(p *models.Project) error) (*models.Project, error) {
	p, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := edit(p); err != nil {
		return nil, err
	}
	if p.Members == nil {
		p.Members = []models.ProjectMember{}
	}
	p.UpdatedAt = time.Now().UTC()

	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"members":    p.Members,
		"updated_at": p.UpdatedAt,
	}})
	if err != nil {
		return nil, err
	}
	if res.MatchedCount == 0 {
		return nil, mongo.ErrNoDocuments
	}
	return p, nil
}

// AddMember appends userID with role. An empty role means Member.
func (s *Store) AddMember(ctx context.Context, id, userID primitive.ObjectID, role string) (*models.Project, error) {
	if role == "" {
		role = models.MemberRoleMember
	}
	if !models.IsValidMemberRole(role) {
		return nil, ErrBadRole
	}
	return s.editMembers(ctx, id, func(p *models.Project) error {
		if _, ok := p.Member(userID); ok {
			return ErrAlreadyMember
		}
		p.Members = append(p.Members, models.ProjectMember{UserID: userID, Role: role})
		return nil
	})
}

// UpdateMemberRole changes the role of an existing entry and reports the
// role it replaced.
func (s *Store) UpdateMemberRole(ctx context.Context, id, userID primitive.ObjectID, role string) (*models.Project, string, error) {
	if !models.IsValidMemberRole(role) {
		return nil, "", ErrBadRole
	}
	var previous string
	p, err := s.editMembers(ctx, id, func(p *models.Project) error {
		for i := range p.Members {
			if p.Members[i].UserID == userID {
				previous = p.Members[i].Role
				p.Members[i].Role = role
				return nil
			}
		}
		return ErrMemberNotFound
	})
	if err != nil {
		return nil, "", err
	}
	return p, previous, nil
}

// RemoveMember filters userID out of the roster. Removing a user who is not
// listed succeeds without change.
func (s *Store) RemoveMember(ctx context.Context, id, userID primitive.ObjectID) (*models.Project, error) {
	return s.editMembers(ctx, id, func(p *models.Project) error {
		kept := p.Members[:0]
		for _, m := range p.Members {
			if m.UserID != userID {
				kept = append(kept, m)
			}
		}
		p.Members = kept
		return nil
	})
}
