package users

import (
	"context"
	"errors"
	"net/http"

	userstore "github.com/dalemusser/basecamp/internal/app/store/users"
	"github.com/dalemusser/basecamp/internal/app/system/apierr"
	"github.com/dalemusser/basecamp/internal/app/system/auth"
	"github.com/dalemusser/basecamp/internal/app/system/authutil"
	"github.com/dalemusser/basecamp/internal/app/system/normalize"
	"github.com/dalemusser/basecamp/internal/app/system/respond"
	"github.com/dalemusser/basecamp/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type loginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var in loginInput
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	email := normalize.Email(in.Email)
	if email == "" {
		respond.Error(w, r, h.Log, apierr.BadRequest("Email is required"))
		return
	}
	if in.Password == "" {
		respond.Error(w, r, h.Log, apierr.BadRequest("Password is required"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if ok, reason := h.Limiter.Check(r, email); !ok {
		h.Audit.LoginFailedRateLimit(ctx, r, email)
		respond.Error(w, r, h.Log, apierr.TooManyRequests(reason))
		return
	}

	u, err := h.Users.GetByEmail(ctx, email)
	if errors.Is(err, mongo.ErrNoDocuments) {
		h.Audit.LoginFailedUserNotFound(ctx, r, email)
		respond.Error(w, r, h.Log, apierr.BadRequest("User does not exist"))
		return
	}
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if !authutil.CheckPassword(u.PasswordHash, in.Password) {
		h.Audit.LoginFailedWrongPassword(ctx, r, u.ID)
		respond.Error(w, r, h.Log, apierr.BadRequest("Invalid credentials"))
		return
	}

	access, refresh, err := h.issueSession(ctx, w, u)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	h.Limiter.ResetEmail(email)
	h.Audit.LoginSuccess(ctx, r, u.ID, u.Email)

	respond.OK(w, map[string]any{
		"user":         u,
		"accessToken":  access,
		"refreshToken": refresh,
	}, "User logged in successfully")
}

// Logout handles POST /logout. The stored refresh token is removed so no
// outstanding refresh token can be used again.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Users.SetRefreshToken(ctx, u.ID, ""); err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		respond.Error(w, r, h.Log, err)
		return
	}
	auth.ClearAuthCookies(w, h.Config.Cookies.Secure)
	h.Audit.Logout(ctx, r, u.ID)

	respond.OK(w, empty{}, "User logged out")
}

// Me handles GET /me and POST /current-user.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)
	respond.OK(w, u, "Current user fetched successfully")
}

type refreshInput struct {
	RefreshToken string `json:"refreshToken"`
}

// RefreshToken handles POST /refresh-token. The presented token must be the
// one stored on the user; it is replaced by a new one on success.
func (h *Handler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var raw string
	if c, err := r.Cookie(auth.RefreshCookie); err == nil {
		raw = c.Value
	}
	if raw == "" {
		var in refreshInput
		if err := respond.Decode(r, &in); err != nil {
			respond.Error(w, r, h.Log, err)
			return
		}
		raw = in.RefreshToken
	}
	if raw == "" {
		respond.Error(w, r, h.Log, apierr.Unauthorized("Unauthorised access"))
		return
	}

	userID, err := h.Tokens.ParseRefresh(raw)
	if err != nil {
		respond.Error(w, r, h.Log, apierr.Unauthorized("Invalid refresh token"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.GetByID(ctx, userID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		respond.Error(w, r, h.Log, apierr.Unauthorized("Invalid refresh token"))
		return
	}
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	access, err := h.Tokens.IssueAccess(*u)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	next, err := h.Tokens.IssueRefresh(u.ID)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if err := h.Users.RotateRefreshToken(ctx, u.ID, raw, next); err != nil {
		if errors.Is(err, userstore.ErrRefreshMismatch) {
			h.Audit.RefreshRejected(ctx, r, u.ID)
			h.Log.Info("refresh token rejected", zap.String("user_id", u.ID.Hex()))
			respond.Error(w, r, h.Log, apierr.Unauthorized("Refresh token is expired"))
			return
		}
		respond.Error(w, r, h.Log, err)
		return
	}
	h.setCookies(w, access, next)
	h.Audit.TokenRefreshed(ctx, r, u.ID)

	respond.OK(w, map[string]any{
		"accessToken":  access,
		"refreshToken": next,
	}, "Access token refreshed")
}
