// internal/domain/models/project.go
package models

import (
	"slices"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Project statuses. Any status may be set on update; there are no
// enforced transitions.
const (
	ProjectActive    = "Active"
	ProjectCompleted = "Completed"
	ProjectOnHold    = "On Hold"
)

// ProjectStatuses lists the accepted values of Project.Status.
var ProjectStatuses = []string{ProjectActive, ProjectCompleted, ProjectOnHold}

// Project-scoped roles. "user" is accepted for compatibility with older
// documents and carries the same rights as Member.
const (
	MemberRoleAdmin  = "Admin"
	MemberRoleMember = "Member"
	MemberRoleUser   = "user"
)

// MemberRoles lists the accepted values of ProjectMember.Role.
var MemberRoles = []string{MemberRoleAdmin, MemberRoleMember, MemberRoleUser}

// ProjectMember is an entry in a project's embedded roster. Entries have
// no identifier of their own; (project, user) uniqueness is enforced by the
// operations that mutate the list.
type ProjectMember struct {
	UserID primitive.ObjectID `bson:"user" json:"user"`
	Role   string             `bson:"role" json:"role"`
}

// Project owns its member roster.
type Project struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description" json:"description"`
	OwnerID     primitive.ObjectID `bson:"owner" json:"owner"`
	Members     []ProjectMember    `bson:"members" json:"members"`
	Status      string             `bson:"status" json:"status"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// Member returns the roster entry for userID, if any.
func (p Project) Member(userID primitive.ObjectID) (ProjectMember, bool) {
	for _, m := range p.Members {
		if m.UserID == userID {
			return m, true
		}
	}
	return ProjectMember{}, false
}

// IsValidProjectStatus reports whether s is one of ProjectStatuses.
func IsValidProjectStatus(s string) bool {
	return slices.Contains(ProjectStatuses, s)
}

// IsValidMemberRole reports whether r is one of MemberRoles.
func IsValidMemberRole(r string) bool {
	return slices.Contains(MemberRoles, r)
}
