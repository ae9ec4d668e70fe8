// internal/domain/models/task.go
package models

import (
	"slices"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Task and subtask statuses.
const (
	TaskPending    = "Pending"
	TaskInProgress = "In Progress"
	TaskCompleted  = "Completed"
)

// TaskStatuses lists the accepted values of Task.Status and Subtask.Status.
var TaskStatuses = []string{TaskPending, TaskInProgress, TaskCompleted}

// Task priorities.
const (
	PriorityLow    = "Low"
	PriorityMedium = "Medium"
	PriorityHigh   = "High"
)

// TaskPriorities lists the accepted values of Task.Priority.
var TaskPriorities = []string{PriorityLow, PriorityMedium, PriorityHigh}

// Subtask is embedded in its parent Task. Its ID is only meaningful within
// that parent.
type Subtask struct {
	ID          primitive.ObjectID  `bson:"_id" json:"_id"`
	Title       string              `bson:"title" json:"title"`
	Description string              `bson:"description,omitempty" json:"description,omitempty"`
	Status      string              `bson:"status" json:"status"`
	AssignedTo  *primitive.ObjectID `bson:"assigned_to,omitempty" json:"assignedTo,omitempty"`
	DueDate     *time.Time          `bson:"due_date,omitempty" json:"dueDate,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// Task belongs to a project and owns its subtasks.
type Task struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"_id"`
	ProjectID   primitive.ObjectID  `bson:"project" json:"project"`
	Title       string              `bson:"title" json:"title"`
	Description string              `bson:"description,omitempty" json:"description,omitempty"`
	Status      string              `bson:"status" json:"status"`
	Priority    string              `bson:"priority" json:"priority"`
	AssignedTo  *primitive.ObjectID `bson:"assigned_to,omitempty" json:"assignedTo,omitempty"`
	DueDate     *time.Time          `bson:"due_date,omitempty" json:"dueDate,omitempty"`
	Subtasks    []Subtask           `bson:"subtasks" json:"subtasks"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// Subtask returns a pointer into t.Subtasks for id, or nil.
func (t *Task) Subtask(id primitive.ObjectID) *Subtask {
	for i := range t.Subtasks {
		if t.Subtasks[i].ID == id {
			return &t.Subtasks[i]
		}
	}
	return nil
}

// IsValidTaskStatus reports whether s is one of TaskStatuses.
func IsValidTaskStatus(s string) bool {
	return slices.Contains(TaskStatuses, s)
}

// IsValidTaskPriority reports whether p is one of TaskPriorities.
func IsValidTaskPriority(p string) bool {
	return slices.Contains(TaskPriorities, p)
}
