// internal/app/features/users/routes.go
package users

import (
	"github.com/dalemusser/basecamp/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the account router, mounted at /api/v1/users.
func Routes(h *Handler, mw *auth.Middleware) chi.Router {
	r := chi.NewRouter()

	r.Post("/register", h.Register)
	r.Post("/login", h.Login)
	r.Post("/refresh-token", h.RefreshToken)
	r.Post("/forgot-password", h.ForgotPassword)
	r.Post("/reset-password/{token}", h.ResetPassword)
	r.Get("/verify-email/{token}", h.VerifyEmail)

	r.Group(func(pr chi.Router) {
		pr.Use(mw.RequireUser)
		pr.Get("/me", h.Me)
		pr.Post("/current-user", h.Me)
		pr.Post("/logout", h.Logout)
		pr.Post("/change-password", h.ChangePassword)
		pr.Post("/resend-email-verification", h.ResendVerification)
		pr.Post("/resendEmailVerificationCode", h.ResendVerification)
	})

	return r
}
