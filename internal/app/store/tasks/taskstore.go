package taskstore

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

// Every lookup is scoped by project. A task or subtask that exists under a
// different project is reported as mongo.ErrNoDocuments.

var (
	ErrTitleRequired = errors.New("title is required")
	ErrBadStatus     = errors.New("invalid status")
	ErrBadPriority   = errors.New("invalid priority")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("tasks")}
}

func newSubtask(st models.Subtask, now time.Time) (models.Subtask, error) {
	st.Title = normalize.Name(st.Title)
	if st.Title == "" {
		return models.Subtask{}, ErrTitleRequired
	}
	if st.Status == "" {
		st.Status = models.TaskPending
	}
	if !models.IsValidTaskStatus(st.Status) {
		return models.Subtask{}, ErrBadStatus
	}
	st.ID = primitive.NewObjectID()
	st.CreatedAt = now
	st.UpdatedAt = now
	return st, nil
}

// Create inserts t under t.ProjectID. The caller checks the project exists.
func (s *Store) Create(ctx context.Context, t models.Task) (models.Task, error) {
	t.Title = normalize.Name(t.Title)
	if t.Title == "" {
		return models.Task{}, ErrTitleRequired
	}
	if t.Status == "" {
		t.Status = models.TaskPending
	}
	if !models.IsValidTaskStatus(t.Status) {
		return models.Task{}, ErrBadStatus
	}
	if t.Priority == "" {
		t.Priority = models.PriorityMedium
	}
	if !models.IsValidTaskPriority(t.Priority) {
		return models.Task{}, ErrBadPriority
	}

	now := time.Now().UTC()
	subtasks := make([]models.Subtask, 0, len(t.Subtasks))
	for _, st := range t.Subtasks {
		st, err := newSubtask(st, now)
		if err != nil {
			return models.Task{}, err
		}
		subtasks = append(subtasks, st)
	}
	t.Subtasks = subtasks
	t.ID = primitive.NewObjectID()
	t.CreatedAt = now
	t.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, t); err != nil {
		return models.Task{}, err
	}
	return t, nil
}

// ListByProject returns the project's tasks in creation order.
func (s *Store) ListByProject(ctx context.Context, projectID primitive.ObjectID) ([]models.Task, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"project": projectID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Task{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) Get(ctx context.Context, projectID, taskID primitive.ObjectID) (*models.Task, error) {
	var t models.Task
	if err := s.c.FindOne(ctx, bson.M{"_id": taskID, "project": projectID}).Decode(&t); err != nil {
		return nil, err
	}
	return &t, nil
}

// Update carries optional field changes. Nil fields are left alone.
type Update struct {
	Title       *string
	Description *string
	Status      *string
	Priority    *string
	AssignedTo  *primitive.ObjectID
	DueDate     *time.Time
}

func (u Update) set(prefix string, withPriority bool) (bson.M, error) {
	set := bson.M{}
	if u.Title != nil {
		title := normalize.Name(*u.Title)
		if title == "" {
			return nil, ErrTitleRequired
		}
		set[prefix+"title"] = title
	}
	if u.Description != nil {
		set[prefix+"description"] = *u.Description
	}
	if u.Status != nil {
		if !models.IsValidTaskStatus(*u.Status) {
			return nil, ErrBadStatus
		}
		set[prefix+"status"] = *u.Status
	}
	if withPriority && u.Priority != nil {
		if !models.IsValidTaskPriority(*u.Priority) {
			return nil, ErrBadPriority
		}
		set[prefix+"priority"] = *u.Priority
	}
	if u.AssignedTo != nil {
		set[prefix+"assigned_to"] = *u.AssignedTo
	}
	if u.DueDate != nil {
		set[prefix+"due_date"] = u.DueDate.UTC()
	}
	set[prefix+"updated_at"] = time.Now().UTC()
	return set, nil
}

func (s *Store) Update(ctx context.Context, projectID, taskID primitive.ObjectID, u Update) (*models.Task, error) {
	set, err := u.set("", true)
	if err != nil {
		return nil, err
	}
	var t models.Task
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	filter := bson.M{"_id": taskID, "project": projectID}
	if err := s.c.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *Store) Delete(ctx context.Context, projectID, taskID primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": taskID, "project": projectID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

/* ------------------------------- subtasks ------------------------------- */

// AddSubtask appends st to the task and returns the updated task.
func (s *Store) AddSubtask(ctx context.Context, projectID, taskID primitive.ObjectID, st models.Subtask) (*models.Task, error) {
	now := time.Now().UTC()
	st, err := newSubtask(st, now)
	if err != nil {
		return nil, err
	}

	var t models.Task
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	filter := bson.M{"_id": taskID, "project": projectID}
	upd := bson.M{
		"$push": bson.M{"subtasks": st},
		"$set":  bson.M{"updated_at": now},
	}
	if err := s.c.FindOneAndUpdate(ctx, filter, upd, opts).Decode(&t); err != nil {
		return nil, err
	}
	return &t, nil
}

func subtaskFilter(projectID, taskID, subtaskID primitive.ObjectID) bson.M {
	return bson.M{"_id": taskID, "project": projectID, "subtasks._id": subtaskID}
}

// UpdateSubtask merges the provided fields into one subtask of one task.
// Priority does not apply to subtasks and is ignored.
func (s *Store) UpdateSubtask(ctx context.Context, projectID, taskID, subtaskID primitive.ObjectID, u Update) (*models.Subtask, error) {
	set, err := u.set("subtasks.$.", false)
	if err != nil {
		return nil, err
	}
	set["updated_at"] = set["subtasks.$.updated_at"]

	var t models.Task
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err = s.c.FindOneAndUpdate(ctx, subtaskFilter(projectID, taskID, subtaskID), bson.M{"$set": set}, opts).Decode(&t)
	if err != nil {
		return nil, err
	}
	st := t.Subtask(subtaskID)
	if st == nil {
		return nil, mongo.ErrNoDocuments
	}
	return st, nil
}

func (s *Store) DeleteSubtask(ctx context.Context, projectID, taskID, subtaskID primitive.ObjectID) error {
	upd := bson.M{
		"$pull": bson.M{"subtasks": bson.M{"_id": subtaskID}},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	}
	res, err := s.c.UpdateOne(ctx, subtaskFilter(projectID, taskID, subtaskID), upd)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
