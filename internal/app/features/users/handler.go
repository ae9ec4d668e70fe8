// internal/app/features/users/handler.go
package users

import (
	"context"
	"net/http"
	"strings"
	"time"

	userstore "github.com/dalemusser/basecamp/internal/app/store/users"
	"github.com/dalemusser/basecamp/internal/app/system/auditlog"
	"github.com/dalemusser/basecamp/internal/app/system/auth"
	"github.com/dalemusser/basecamp/internal/app/system/mailer"
	"github.com/dalemusser/basecamp/internal/app/system/ratelimit"
	"github.com/dalemusser/basecamp/internal/app/system/tokens"
	"github.com/dalemusser/basecamp/internal/domain/models"
	"go.uber.org/zap"
)

// Config holds the settings the account endpoints need beyond their
// collaborators.
type Config struct {
	SiteName string
	// BaseURL prefixes verification links. Blank derives it from the request.
	BaseURL string
	// ForgotPasswordURL is where reset links point; the plain token is
	// appended as a final path segment.
	ForgotPasswordURL string
	// AllowAdminSignup lets registration honour role "admin" in the body.
	AllowAdminSignup bool
	Cookies          auth.CookieOptions
}

// Handler serves /api/v1/users.
type Handler struct {
	Users   *userstore.Store
	Tokens  *tokens.Service
	Mail    mailer.Sender
	Audit   *auditlog.Logger
	Limiter *ratelimit.LoginLimiter
	Config  Config
	Log     *zap.Logger

	now func() time.Time
}

func NewHandler(users *userstore.Store, tok *tokens.Service, mail mailer.Sender, audit *auditlog.Logger,
	limiter *ratelimit.LoginLimiter, cfg Config, logger *zap.Logger) *Handler {
	if cfg.SiteName == "" {
		cfg.SiteName = "Basecamp"
	}
	return &Handler{
		Users:   users,
		Tokens:  tok,
		Mail:    mail,
		Audit:   audit,
		Limiter: limiter,
		Config:  cfg,
		Log:     logger,
		now:     time.Now,
	}
}

func (h *Handler) baseURL(r *http.Request) string {
	if h.Config.BaseURL != "" {
		return strings.TrimRight(h.Config.BaseURL, "/")
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}

func (h *Handler) verificationLink(r *http.Request, plain string) string {
	return h.baseURL(r) + "/api/v1/users/verify-email/" + plain
}

func (h *Handler) resetLink(r *http.Request, plain string) string {
	if h.Config.ForgotPasswordURL != "" {
		return strings.TrimRight(h.Config.ForgotPasswordURL, "/") + "/" + plain
	}
	return h.baseURL(r) + "/api/v1/users/reset-password/" + plain
}

// send delivers msg and logs failures. Account flows never fail because
// mail could not be sent.
func (h *Handler) send(ctx context.Context, to string, msg mailer.Email) {
	msg.To = to
	if err := h.Mail.Send(ctx, msg); err != nil {
		h.Log.Warn("email send failed",
			zap.String("to", to),
			zap.String("subject", msg.Subject),
			zap.Error(err))
	}
}

// issueSession mints a fresh token pair, persists the refresh token and
// sets both cookies.
func (h *Handler) issueSession(ctx context.Context, w http.ResponseWriter, u *models.User) (access, refresh string, err error) {
	access, err = h.Tokens.IssueAccess(*u)
	if err != nil {
		return "", "", err
	}
	refresh, err = h.Tokens.IssueRefresh(u.ID)
	if err != nil {
		return "", "", err
	}
	if err := h.Users.SetRefreshToken(ctx, u.ID, refresh); err != nil {
		return "", "", err
	}
	h.setCookies(w, access, refresh)
	return access, refresh, nil
}

func (h *Handler) setCookies(w http.ResponseWriter, access, refresh string) {
	opts := h.Config.Cookies
	opts.AccessTTL = h.Tokens.AccessTTL()
	opts.RefreshTTL = h.Tokens.RefreshTTL()
	auth.SetAuthCookies(w, access, refresh, opts)
}

// empty is the data value of responses that carry no payload.
type empty struct{}
