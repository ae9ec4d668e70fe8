// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	adminfeature "github.com/dalemusser/basecamp/internal/app/features/admin"
	healthfeature "github.com/dalemusser/basecamp/internal/app/features/health"
	notesfeature "github.com/dalemusser/basecamp/internal/app/features/notes"
	projectsfeature "github.com/dalemusser/basecamp/internal/app/features/projects"
	tasksfeature "github.com/dalemusser/basecamp/internal/app/features/tasks"
	usersfeature "github.com/dalemusser/basecamp/internal/app/features/users"
	auditstore "github.com/dalemusser/basecamp/internal/app/store/audit"
	notestore "github.com/dalemusser/basecamp/internal/app/store/notes"
	projectstore "github.com/dalemusser/basecamp/internal/app/store/projects"
	taskstore "github.com/dalemusser/basecamp/internal/app/store/tasks"
	userstore "github.com/dalemusser/basecamp/internal/app/store/users"
	"github.com/dalemusser/basecamp/internal/app/system/auditlog"
	"github.com/dalemusser/basecamp/internal/app/system/auth"
	"github.com/dalemusser/basecamp/internal/app/system/authz"
	"github.com/dalemusser/basecamp/internal/app/system/mailer"
	"github.com/dalemusser/basecamp/internal/app/system/ratelimit"
	"github.com/dalemusser/basecamp/internal/app/system/tokens"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 16 << 10

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// the Startup hook have completed. Every feature lives under /api/v1.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	mail := mailer.New(mailer.Config{
		Host:     appCfg.MailSMTPHost,
		Port:     appCfg.MailSMTPPort,
		Username: appCfg.MailSMTPUser,
		Password: appCfg.MailSMTPPass,
		From:     appCfg.MailFrom,
		FromName: appCfg.MailFromName,
	}, logger)
	if !mail.Enabled() {
		logger.Warn("mail_smtp_host not set; outgoing mail will only be logged")
	}
	return buildRouter(coreCfg, appCfg, deps, mail, logger)
}

// buildRouter assembles stores, services and feature routers around the
// given mail sender.
func buildRouter(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, mail mailer.Sender, logger *zap.Logger) (http.Handler, error) {
	tok, err := tokens.New(appCfg.tokenConfig())
	if err != nil {
		logger.Error("token service init failed", zap.Error(err))
		return nil, err
	}

	db := deps.MongoDatabase
	users := userstore.New(db)
	projects := projectstore.New(db)
	tasks := taskstore.New(db)
	notes := notestore.New(db)
	auditEvents := auditstore.New(db)

	audit := auditlog.New(auditEvents, logger, auditlog.Config{
		Auth:    appCfg.AuditLogAuth,
		Project: appCfg.AuditLogProject,
	})

	mw := auth.NewMiddleware(tok, users, logger)
	guard := authz.NewGuard(projects, logger)

	// Secure cookies are enabled in production mode.
	cookies := auth.CookieOptions{
		Secure:     coreCfg != nil && coreCfg.Env == "prod",
		AccessTTL:  tok.AccessTTL(),
		RefreshTTL: tok.RefreshTTL(),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	if appCfg.TrustProxyHeaders {
		r.Use(middleware.RealIP)
	}
	r.Use(middleware.RequestSize(maxBodyBytes))

	r.Route("/api/v1", func(api chi.Router) {
		healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
		api.Mount("/health", healthfeature.Routes(healthHandler))
		api.Mount("/healthcheck", healthfeature.Routes(healthHandler))

		usersHandler := usersfeature.NewHandler(users, tok, mail, audit,
			ratelimit.NewLoginLimiter(appCfg.LoginRateLimit),
			usersfeature.Config{
				SiteName:          appCfg.SiteName,
				BaseURL:           appCfg.BaseURL,
				ForgotPasswordURL: appCfg.ForgotPasswordURL,
				AllowAdminSignup:  appCfg.AllowAdminSignup,
				Cookies:           cookies,
			}, logger)
		api.Mount("/users", usersfeature.Routes(usersHandler, mw))

		projectsHandler := projectsfeature.NewHandler(projects, users, audit, logger)
		api.Mount("/projects", projectsfeature.Routes(projectsHandler, mw, guard))

		tasksHandler := tasksfeature.NewHandler(tasks, users, logger)
		api.Mount("/tasks", tasksfeature.Routes(tasksHandler, mw, guard))

		notesHandler := notesfeature.NewHandler(notes, logger)
		api.Mount("/notes", notesfeature.Routes(notesHandler, mw, guard))

		adminHandler := adminfeature.NewHandler(users, auditEvents, logger)
		api.Mount("/admin", adminfeature.Routes(adminHandler, mw, guard))
	})

	return r, nil
}
