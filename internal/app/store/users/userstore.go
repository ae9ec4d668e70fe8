package userstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/basecamp/internal/app/system/normalize"
	"github.com/dalemusser/basecamp/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Lookups that find nothing return mongo.ErrNoDocuments.

var (
	// ErrDuplicate is returned when the email or username is already taken.
	ErrDuplicate = errors.New("user with given email or username already exists")
	errBadRole   = errors.New(`role must be "user"|"admin"`)
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

// GetByID loads a user by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail looks up a user by normalized email.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Taken reports whether either the email or the username is in use.
func (s *Store) Taken(ctx context.Context, email, username string) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{"$or": bson.A{
		bson.M{"email": normalize.Email(email)},
		bson.M{"username": normalize.Username(username)},
	}}, options.FindOne().SetProjection(bson.M{"_id": 1})).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	return err == nil, err
}

// Create inserts a new user. PasswordHash must already be set.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	u.ID = primitive.NewObjectID()
	u.Email = normalize.Email(u.Email)
	u.Username = normalize.Username(u.Username)
	u.FullName = normalize.Name(u.FullName)
	u.Role = normalize.Role(u.Role)
	if u.Role == "" {
		u.Role = models.RoleUser
	}
	if u.Role != models.RoleUser && u.Role != models.RoleAdmin {
		return models.User{}, errBadRole
	}
	if u.Avatar.URL == "" {
		u.Avatar.URL = models.DefaultAvatarURL
	}

	taken, err := s.Taken(ctx, u.Email, u.Username)
	if err != nil {
		return models.User{}, err
	}
	if taken {
		return models.User{}, ErrDuplicate
	}

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	// The unique indexes catch a concurrent insert that passed the check above.
	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicate
		}
		return models.User{}, err
	}
	return u, nil
}

func (s *Store) update(ctx context.Context, id primitive.ObjectID, set, unset bson.M) error {
	if set == nil {
		set = bson.M{}
	}
	set["updated_at"] = time.Now().UTC()
	upd := bson.M{"$set": set}
	if len(unset) > 0 {
		upd["$unset"] = unset
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, upd)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// SetRefreshToken persists the single active refresh token. An empty token
// removes it, invalidating every outstanding refresh token for the user.
func (s *Store) SetRefreshToken(ctx context.Context, id primitive.ObjectID, token string) error {
	if token == "" {
		return s.update(ctx, id, nil, bson.M{"refresh_token": ""})
	}
	return s.update(ctx, id, bson.M{"refresh_token": token}, nil)
}

// ErrRefreshMismatch is returned by RotateRefreshToken when the presented
// token is not the one currently stored.
var ErrRefreshMismatch = errors.New("refresh token does not match")

// RotateRefreshToken swaps current for next in one conditional write. Only
// one of several concurrent rotations of the same token can succeed.
func (s *Store) RotateRefreshToken(ctx context.Context, id primitive.ObjectID, current, next string) error {
	if current == "" {
		return ErrRefreshMismatch
	}
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "refresh_token": current},
		bson.M{"$set": bson.M{"refresh_token": next, "updated_at": time.Now().UTC()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrRefreshMismatch
	}
	return nil
}

// SetPassword replaces the password hash.
func (s *Store) SetPassword(ctx context.Context, id primitive.ObjectID, hash string) error {
	return s.update(ctx, id, bson.M{"password_hash": hash}, nil)
}

// SetRole changes the global role.
func (s *Store) SetRole(ctx context.Context, id primitive.ObjectID, role string) error {
	return s.update(ctx, id, bson.M{"role": role}, nil)
}

// SetEmailVerification stores a pending verification token hash.
func (s *Store) SetEmailVerification(ctx context.Context, id primitive.ObjectID, hash string, expires time.Time) error {
	return s.update(ctx, id, bson.M{
		"email_verification_token":  hash,
		"email_verification_expiry": expires,
	}, nil)
}

// SetForgotPassword stores a pending reset token hash.
func (s *Store) SetForgotPassword(ctx context.Context, id primitive.ObjectID, hash string, expires time.Time) error {
	return s.update(ctx, id, bson.M{
		"forgot_password_token":  hash,
		"forgot_password_expiry": expires,
	}, nil)
}

// consume atomically matches an unexpired token hash, applies set and
// clears the token. A token can therefore succeed at most once.
func (s *Store) consume(ctx context.Context, tokenField, expiryField, hash string, now time.Time, set, unset bson.M) (*models.User, error) {
	if hash == "" {
		return nil, mongo.ErrNoDocuments
	}
	set["updated_at"] = now.UTC()
	unset[tokenField] = ""
	unset[expiryField] = ""

	filter := bson.M{
		tokenField:  hash,
		expiryField: bson.M{"$gt": now},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var u models.User
	err := s.c.FindOneAndUpdate(ctx, filter, bson.M{"$set": set, "$unset": unset}, opts).Decode(&u)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// VerifyEmail marks the owner of an unexpired verification token verified.
func (s *Store) VerifyEmail(ctx context.Context, hash string, now time.Time) (*models.User, error) {
	return s.consume(ctx, "email_verification_token", "email_verification_expiry", hash, now,
		bson.M{"is_email_verified": true}, bson.M{})
}

// ResetPassword sets a new password hash for the owner of an unexpired
// reset token. The refresh token is cleared so other sessions must log in
// again.
func (s *Store) ResetPassword(ctx context.Context, hash, newPasswordHash string, now time.Time) (*models.User, error) {
	return s.consume(ctx, "forgot_password_token", "forgot_password_expiry", hash, now,
		bson.M{"password_hash": newPasswordHash}, bson.M{"refresh_token": ""})
}

// List returns users newest first.
func (s *Store) List(ctx context.Context, limit, offset int64) ([]models.User, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(limit).
		SetSkip(offset)
	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.User{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Count returns the total number of users.
func (s *Store) Count(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{})
}

// Refs loads the public reference form of each id. Unknown ids are absent
// from the result.
func (s *Store) Refs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.UserRef, error) {
	out := make(map[primitive.ObjectID]models.UserRef, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	opts := options.Find().SetProjection(bson.M{"username": 1, "email": 1, "full_name": 1})
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var r models.UserRef
		if err := cur.Decode(&r); err != nil {
			return nil, err
		}
		out[r.ID] = r
	}
	return out, cur.Err()
}
