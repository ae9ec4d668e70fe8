// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Global roles. These are platform-wide and distinct from the per-project
// roles stored on Project.Members.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// DefaultAvatarURL is assigned to users registered without an avatar.
const DefaultAvatarURL = "https://placehold.co/600x400"

// Avatar points at a user's profile image.
type Avatar struct {
	URL       string `bson:"url" json:"url"`
	LocalPath string `bson:"local_path" json:"localPath"`
}

// User is the credential record.
//
// Secret material (password hash, refresh token, verification and reset
// token hashes) is tagged json:"-" so no read path can serialize it.
type User struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Username        string             `bson:"username" json:"username"` // lowercase
	Email           string             `bson:"email" json:"email"`       // lowercase, trimmed
	FullName        string             `bson:"full_name" json:"fullName"`
	Avatar          Avatar             `bson:"avatar" json:"avatar"`
	Role            string             `bson:"role" json:"role"` // user | admin
	IsEmailVerified bool               `bson:"is_email_verified" json:"isEmailVerified"`

	PasswordHash string `bson:"password_hash" json:"-"`
	RefreshToken string `bson:"refresh_token,omitempty" json:"-"`

	EmailVerificationToken  string     `bson:"email_verification_token,omitempty" json:"-"`
	EmailVerificationExpiry *time.Time `bson:"email_verification_expiry,omitempty" json:"-"`
	ForgotPasswordToken     string     `bson:"forgot_password_token,omitempty" json:"-"`
	ForgotPasswordExpiry    *time.Time `bson:"forgot_password_expiry,omitempty" json:"-"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// IsAdmin reports whether the user holds the global admin role.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// UserRef is the populated form of a user reference: the handful of
// public fields other aggregates embed in their responses.
type UserRef struct {
	ID       primitive.ObjectID `bson:"_id" json:"_id"`
	Username string             `bson:"username" json:"username"`
	Email    string             `bson:"email" json:"email"`
	FullName string             `bson:"full_name" json:"fullName,omitempty"`
}

// Ref returns the public reference form of u.
func (u User) Ref() UserRef {
	return UserRef{ID: u.ID, Username: u.Username, Email: u.Email, FullName: u.FullName}
}
