// Package auth authenticates API requests from access tokens and carries
// the resulting user through the request context.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/basecamp/internal/app/system/apierr"
	"github.com/dalemusser/basecamp/internal/app/system/respond"
	"github.com/dalemusser/basecamp/internal/app/system/timeouts"
	"github.com/dalemusser/basecamp/internal/app/system/tokens"
	"github.com/dalemusser/basecamp/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Cookie names.
const (
	AccessCookie  = "accessToken"
	RefreshCookie = "refreshToken"
)

// UserLoader fetches the current state of a user. Unknown ids yield
// mongo.ErrNoDocuments.
type UserLoader interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the authenticated user placed in context by
// Middleware.RequireUser.
func CurrentUser(r *http.Request) (*models.User, bool) {
	u, ok := r.Context().Value(currentUserKey).(*models.User)
	return u, ok && u != nil
}

// WithUser returns a copy of r carrying u as the current user. RequireUser
// ignores any user already in context and always checks the token.
func WithUser(r *http.Request, u *models.User) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

// Middleware verifies access tokens and loads the user fresh on every
// request, so role changes and password resets apply immediately.
type Middleware struct {
	Tokens *tokens.Service
	Users  UserLoader
	Log    *zap.Logger
}

// NewMiddleware constructs the authentication middleware.
func NewMiddleware(tok *tokens.Service, users UserLoader, log *zap.Logger) *Middleware {
	return &Middleware{Tokens: tok, Users: users, Log: log}
}

// TokenFromRequest reads the access token from the accessToken cookie or an
// Authorization: Bearer header, in that order.
func TokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(AccessCookie); err == nil && c.Value != "" {
		return c.Value
	}
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// RequireUser rejects requests without a valid access token with 401.
func (m *Middleware) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := TokenFromRequest(r)
		if raw == "" {
			respond.Error(w, r, m.Log, apierr.Unauthorized("Unauthorised access"))
			return
		}
		claims, err := m.Tokens.ParseAccess(raw)
		if err != nil {
			respond.Error(w, r, m.Log, apierr.Unauthorized("Invalid access token"))
			return
		}
		id, _ := primitive.ObjectIDFromHex(claims.UserID)

		ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
		u, err := m.Users.GetByID(ctx, id)
		cancel()
		if errors.Is(err, mongo.ErrNoDocuments) {
			respond.Error(w, r, m.Log, apierr.Unauthorized("Invalid access token"))
			return
		}
		if err != nil {
			respond.Error(w, r, m.Log, err)
			return
		}

		next.ServeHTTP(w, WithUser(r, u))
	})
}

// CookieOptions controls the attributes of the auth cookies.
type CookieOptions struct {
	Secure     bool
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

func setCookie(w http.ResponseWriter, name, value string, maxAge time.Duration, secure bool) {
	c := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	switch {
	case maxAge > 0:
		c.MaxAge = int(maxAge / time.Second)
	case maxAge < 0:
		c.MaxAge = -1 // delete
	}
	http.SetCookie(w, c)
}

// SetAuthCookies writes both token cookies.
func SetAuthCookies(w http.ResponseWriter, access, refresh string, opts CookieOptions) {
	setCookie(w, AccessCookie, access, opts.AccessTTL, opts.Secure)
	setCookie(w, RefreshCookie, refresh, opts.RefreshTTL, opts.Secure)
}

// ClearAuthCookies expires both token cookies.
func ClearAuthCookies(w http.ResponseWriter, secure bool) {
	setCookie(w, AccessCookie, "", -1, secure)
	setCookie(w, RefreshCookie, "", -1, secure)
}
