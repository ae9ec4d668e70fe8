package users

import (
	"context"
	"errors"
	"net/http"
	"strings"

	userstore "github.com/dalemusser/basecamp/internal/app/store/users"
	"github.com/dalemusser/basecamp/internal/app/system/apierr"
	"github.com/dalemusser/basecamp/internal/app/system/authutil"
	"github.com/dalemusser/basecamp/internal/app/system/mailer"
	"github.com/dalemusser/basecamp/internal/app/system/normalize"
	"github.com/dalemusser/basecamp/internal/app/system/respond"
	"github.com/dalemusser/basecamp/internal/app/system/timeouts"
	"github.com/dalemusser/basecamp/internal/domain/models"
	"github.com/dalemusser/waffle/toolkit/validate"
	"go.uber.org/zap"
)

// MinUsernameLength is the shortest accepted username.
const MinUsernameLength = 3

type registerInput struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
	FullName string `json:"fullName"`
	Role     string `json:"role"`
}

// errInvalidInput is the 422 returned with per-field problems.
func errInvalidInput(fields []apierr.FieldError) error {
	return apierr.New(http.StatusUnprocessableEntity, "Received data is not valid").WithFields(fields...)
}

func (in *registerInput) validate() []apierr.FieldError {
	var errs []apierr.FieldError
	in.Email = normalize.Email(in.Email)
	in.Username = normalize.Username(in.Username)
	in.Role = normalize.Role(in.Role)

	switch {
	case in.Email == "":
		errs = append(errs, apierr.FieldError{Field: "email", Message: "Email is required"})
	case !validate.SimpleEmailValid(in.Email):
		errs = append(errs, apierr.FieldError{Field: "email", Message: "Email is invalid"})
	}
	switch {
	case in.Username == "":
		errs = append(errs, apierr.FieldError{Field: "username", Message: "Username is required"})
	case len([]rune(in.Username)) < MinUsernameLength:
		errs = append(errs, apierr.FieldError{Field: "username", Message: "Username must be at least 3 characters long"})
	case strings.ContainsAny(in.Username, " \t\r\n"):
		errs = append(errs, apierr.FieldError{Field: "username", Message: "Username must not contain spaces"})
	}
	if err := authutil.ValidatePassword(in.Password); err != nil {
		errs = append(errs, apierr.FieldError{Field: "password", Message: err.Error()})
	}
	if in.Role != "" && in.Role != models.RoleUser && in.Role != models.RoleAdmin {
		errs = append(errs, apierr.FieldError{Field: "role", Message: `Role must be "user" or "admin"`})
	}
	return errs
}

// Register handles POST /register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var in registerInput
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if errs := in.validate(); len(errs) > 0 {
		respond.Error(w, r, h.Log, errInvalidInput(errs))
		return
	}

	role := models.RoleUser
	if in.Role == models.RoleAdmin {
		if h.Config.AllowAdminSignup {
			role = models.RoleAdmin
		} else {
			h.Log.Info("admin role requested at signup; assigning user", zap.String("email", in.Email))
		}
	}

	hash, err := authutil.HashPassword(in.Password)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	// The verification token goes in with the user in a single insert.
	tmp, err := h.Tokens.NewTemporary()
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	u, err := h.Users.Create(ctx, models.User{
		Email:                   in.Email,
		Username:                in.Username,
		FullName:                in.FullName,
		Role:                    role,
		PasswordHash:            hash,
		EmailVerificationToken:  tmp.Hash,
		EmailVerificationExpiry: &tmp.ExpiresAt,
	})
	if errors.Is(err, userstore.ErrDuplicate) {
		respond.Error(w, r, h.Log, apierr.Conflict("User with given email or username already exists"))
		return
	}
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	h.send(ctx, u.Email, mailer.BuildVerificationEmail(h.Config.SiteName, u.Username,
		h.verificationLink(r, tmp.Plain), h.Tokens.TempTTL()))
	h.Audit.Registered(ctx, r, u.ID, u.Email)

	respond.Created(w, map[string]any{"user": u},
		"User registered successfully and verification email has been sent to your email")
}
