package users

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/basecamp/internal/app/system/apierr"
	"github.com/dalemusser/basecamp/internal/app/system/auth"
	"github.com/dalemusser/basecamp/internal/app/system/mailer"
	"github.com/dalemusser/basecamp/internal/app/system/respond"
	"github.com/dalemusser/basecamp/internal/app/system/timeouts"
	"github.com/dalemusser/basecamp/internal/app/system/tokens"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
)

// VerifyEmail handles GET /verify-email/{token}.
func (h *Handler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	plain := chi.URLParam(r, "token")
	if plain == "" {
		respond.Error(w, r, h.Log, apierr.BadRequest("Email verification token is missing"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.VerifyEmail(ctx, tokens.HashTemporary(plain), h.now())
	if errors.Is(err, mongo.ErrNoDocuments) {
		respond.Error(w, r, h.Log, apierr.BadRequest("Token is invalid or expired"))
		return
	}
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	h.Audit.EmailVerified(ctx, r, u.ID)

	respond.OK(w, map[string]bool{"isEmailVerified": true}, "Email is verified")
}

// ResendVerification handles POST /resend-email-verification.
func (h *Handler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	cur, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.GetByID(ctx, cur.ID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		respond.Error(w, r, h.Log, apierr.NotFound("User does not exist"))
		return
	}
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if u.IsEmailVerified {
		respond.Error(w, r, h.Log, apierr.Conflict("Email is already verified"))
		return
	}

	tmp, err := h.Tokens.NewTemporary()
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if err := h.Users.SetEmailVerification(ctx, u.ID, tmp.Hash, tmp.ExpiresAt); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	h.send(ctx, u.Email, mailer.BuildVerificationEmail(h.Config.SiteName, u.Username,
		h.verificationLink(r, tmp.Plain), h.Tokens.TempTTL()))

	respond.Created(w, empty{}, "Mail has been sent to your email ID")
}
