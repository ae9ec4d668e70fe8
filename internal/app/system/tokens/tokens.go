// Package tokens issues and verifies the three kinds of credential the API
// hands out: short-lived access tokens, rotating refresh tokens and
// single-use temporary tokens for email verification and password reset.
package tokens

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/basecamp/internal/domain/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Default lifetimes.
const (
	DefaultAccessTTL  = 24 * time.Hour
	DefaultRefreshTTL = 240 * time.Hour
	DefaultTempTTL    = 20 * time.Minute
)

// tempTokenBytes is the entropy of a temporary token before hex encoding.
const tempTokenBytes = 20

var (
	ErrEmptySecret  = errors.New("tokens: signing secret is empty")
	ErrSameSecret   = errors.New("tokens: access and refresh secrets must differ")
	ErrInvalidToken = errors.New("tokens: invalid or expired token")
)

// Config holds the secrets and lifetimes. Zero durations take the defaults.
type Config struct {
	AccessSecret  string
	AccessTTL     time.Duration
	RefreshSecret string
	RefreshTTL    time.Duration
	TempTTL       time.Duration
}

// Validate reports configuration that would make every token unsafe.
func (c Config) Validate() error {
	if c.AccessSecret == "" || c.RefreshSecret == "" {
		return ErrEmptySecret
	}
	if c.AccessSecret == c.RefreshSecret {
		return ErrSameSecret
	}
	return nil
}

// AccessClaims is the payload of an access token.
type AccessClaims struct {
	UserID   string `json:"_id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// RefreshClaims is the payload of a refresh token. The registered ID (jti)
// is random so two tokens minted in the same second still differ.
type RefreshClaims struct {
	UserID string `json:"_id"`
	jwt.RegisteredClaims
}

// Temporary is a freshly minted single-use token. Plain goes to the user;
// only Hash and ExpiresAt are persisted.
type Temporary struct {
	Plain     string
	Hash      string
	ExpiresAt time.Time
}

// Service signs and verifies tokens. It is safe for concurrent use.
type Service struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	tempTTL       time.Duration

	// Now is the clock used for issuing and validating. Tests override it.
	Now func() time.Time
}

// New builds a Service from cfg.
func New(cfg Config) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Service{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     orDefault(cfg.AccessTTL, DefaultAccessTTL),
		refreshTTL:    orDefault(cfg.RefreshTTL, DefaultRefreshTTL),
		tempTTL:       orDefault(cfg.TempTTL, DefaultTempTTL),
		Now:           time.Now,
	}
	return s, nil
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}

// AccessTTL is the lifetime of access tokens (used for cookie Max-Age).
func (s *Service) AccessTTL() time.Duration { return s.accessTTL }

// RefreshTTL is the lifetime of refresh tokens.
func (s *Service) RefreshTTL() time.Duration { return s.refreshTTL }

// TempTTL is the lifetime of verification and reset tokens.
func (s *Service) TempTTL() time.Duration { return s.tempTTL }

func (s *Service) registered(ttl time.Duration, subject string) jwt.RegisteredClaims {
	now := s.Now()
	return jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}

// IssueAccess signs an access token for u.
func (s *Service) IssueAccess(u models.User) (string, error) {
	claims := AccessClaims{
		UserID:           u.ID.Hex(),
		Email:            u.Email,
		Username:         u.Username,
		Role:             u.Role,
		RegisteredClaims: s.registered(s.accessTTL, u.ID.Hex()),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.accessSecret)
}

// IssueRefresh signs a refresh token for userID.
func (s *Service) IssueRefresh(userID primitive.ObjectID) (string, error) {
	claims := RefreshClaims{
		UserID:           userID.Hex(),
		RegisteredClaims: s.registered(s.refreshTTL, userID.Hex()),
	}
	claims.ID = uuid.NewString()
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.refreshSecret)
}

func (s *Service) parse(raw string, claims jwt.Claims, secret []byte) error {
	p := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.Now),
	)
	tok, err := p.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return secret, nil
	})
	if err != nil || !tok.Valid {
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return nil
}

// ParseAccess verifies an access token's signature and expiry.
func (s *Service) ParseAccess(raw string) (*AccessClaims, error) {
	var c AccessClaims
	if err := s.parse(raw, &c, s.accessSecret); err != nil {
		return nil, err
	}
	if _, err := primitive.ObjectIDFromHex(c.UserID); err != nil {
		return nil, ErrInvalidToken
	}
	return &c, nil
}

// ParseRefresh verifies a refresh token's signature and expiry and returns
// the user it was issued to. Callers must still compare raw with the value
// persisted on the user.
func (s *Service) ParseRefresh(raw string) (primitive.ObjectID, error) {
	var c RefreshClaims
	if err := s.parse(raw, &c, s.refreshSecret); err != nil {
		return primitive.NilObjectID, err
	}
	id, err := primitive.ObjectIDFromHex(c.UserID)
	if err != nil {
		return primitive.NilObjectID, ErrInvalidToken
	}
	return id, nil
}

// NewTemporary mints a single-use token.
func (s *Service) NewTemporary() (Temporary, error) {
	b := make([]byte, tempTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return Temporary{}, err
	}
	plain := hex.EncodeToString(b)
	return Temporary{
		Plain:     plain,
		Hash:      HashTemporary(plain),
		ExpiresAt: s.Now().Add(s.tempTTL),
	}, nil
}

// HashTemporary returns the persisted form of a temporary token.
func HashTemporary(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return hex.EncodeToString(sum[:])
}
