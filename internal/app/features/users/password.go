package users

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/basecamp/internal/app/system/apierr"
	"github.com/dalemusser/basecamp/internal/app/system/auth"
	"github.com/dalemusser/basecamp/internal/app/system/authutil"
	"github.com/dalemusser/basecamp/internal/app/system/mailer"
	"github.com/dalemusser/basecamp/internal/app/system/normalize"
	"github.com/dalemusser/basecamp/internal/app/system/respond"
	"github.com/dalemusser/basecamp/internal/app/system/timeouts"
	"github.com/dalemusser/basecamp/internal/app/system/tokens"
	"github.com/dalemusser/waffle/toolkit/validate"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
)

type forgotInput struct {
	Email string `json:"email"`
}

// ForgotPassword handles POST /forgot-password. Unknown addresses get a 404.
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var in forgotInput
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	email := normalize.Email(in.Email)
	if email == "" || !validate.SimpleEmailValid(email) {
		respond.Error(w, r, h.Log, errInvalidInput([]apierr.FieldError{{Field: "email", Message: "Email is invalid"}}))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, email)
	if errors.Is(err, mongo.ErrNoDocuments) {
		respond.Error(w, r, h.Log, apierr.NotFound("User does not exist"))
		return
	}
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	tmp, err := h.Tokens.NewTemporary()
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if err := h.Users.SetForgotPassword(ctx, u.ID, tmp.Hash, tmp.ExpiresAt); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	h.send(ctx, u.Email, mailer.BuildPasswordResetEmail(h.Config.SiteName, u.Username,
		h.resetLink(r, tmp.Plain), h.Tokens.TempTTL()))
	h.Audit.PasswordResetRequested(ctx, r, u.ID)

	respond.OK(w, empty{}, "Password reset mail has been sent to your mail")
}

type resetInput struct {
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

// ResetPassword handles POST /reset-password/{token}.
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var in resetInput
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if in.NewPassword != in.ConfirmPassword {
		respond.Error(w, r, h.Log, apierr.BadRequest("Passwords do not match"))
		return
	}
	if err := authutil.ValidatePassword(in.NewPassword); err != nil {
		respond.Error(w, r, h.Log, apierr.BadRequest(err.Error()))
		return
	}
	hash, err := authutil.HashPassword(in.NewPassword)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.ResetPassword(ctx, tokens.HashTemporary(chi.URLParam(r, "token")), hash, h.now())
	if errors.Is(err, mongo.ErrNoDocuments) {
		respond.Error(w, r, h.Log, apierr.BadRequest("Token is invalid or expired"))
		return
	}
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	h.Audit.PasswordReset(ctx, r, u.ID)

	respond.OK(w, empty{}, "Password reset successfully")
}

type changeInput struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

// ChangePassword handles POST /change-password.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var in changeInput
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	var fields []apierr.FieldError
	if in.OldPassword == "" {
		fields = append(fields, apierr.FieldError{Field: "oldPassword", Message: "Old password is required"})
	}
	if err := authutil.ValidatePassword(in.NewPassword); err != nil {
		fields = append(fields, apierr.FieldError{Field: "newPassword", Message: err.Error()})
	}
	if len(fields) > 0 {
		respond.Error(w, r, h.Log, errInvalidInput(fields))
		return
	}

	cur, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.GetByID(ctx, cur.ID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		respond.Error(w, r, h.Log, apierr.NotFound("User not found"))
		return
	}
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if !authutil.CheckPassword(u.PasswordHash, in.OldPassword) {
		respond.Error(w, r, h.Log, apierr.BadRequest("Invalid old password"))
		return
	}

	hash, err := authutil.HashPassword(in.NewPassword)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if err := h.Users.SetPassword(ctx, u.ID, hash); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	h.Audit.PasswordChanged(ctx, r, u.ID)

	respond.OK(w, empty{}, "Password changed successfully")
}
