// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"

	"github.com/dalemusser/basecamp/internal/app/system/auditlog"
	"github.com/dalemusser/basecamp/internal/app/system/tokens"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for Basecamp.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, access_token_secret, etc.
//   - Environment variables: BASECAMP_MONGO_URI, BASECAMP_ACCESS_TOKEN_SECRET, etc.
//   - Command-line flags: --mongo_uri, --access_token_secret, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "basecamp", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	// Tokens
	{Name: "access_token_secret", Default: "", Desc: "Signing secret for access tokens (required)"},
	{Name: "access_token_expiry", Default: "24h", Desc: "Access token lifetime (e.g., 24h, 15m)"},
	{Name: "refresh_token_secret", Default: "", Desc: "Signing secret for refresh tokens (required, distinct from access)"},
	{Name: "refresh_token_expiry", Default: "240h", Desc: "Refresh token lifetime"},
	{Name: "temp_token_expiry", Default: "20m", Desc: "Lifetime of email verification and password reset tokens"},

	// Accounts
	{Name: "allow_admin_signup", Default: false, Desc: "Allow registration with role 'admin'"},
	{Name: "login_rate_limit", Default: 10, Desc: "Login attempts per IP per minute (0 disables)"},
	{Name: "trust_proxy_headers", Default: false, Desc: "Take the client IP from X-Forwarded-For/X-Real-IP (only behind a trusted proxy)"},
	{Name: "admin_email", Default: "", Desc: "Email of an existing account to promote to global admin on startup"},
	{Name: "site_name", Default: "Basecamp", Desc: "Site name used in emails"},
	{Name: "forgot_password_redirect_url", Default: "", Desc: "Front-end URL that receives password reset tokens"},

	// Email/SMTP configuration
	{Name: "mail_smtp_host", Default: "", Desc: "SMTP server host (blank logs mail instead of sending)"},
	{Name: "mail_smtp_port", Default: 587, Desc: "SMTP server port"},
	{Name: "mail_smtp_user", Default: "", Desc: "SMTP username"},
	{Name: "mail_smtp_pass", Default: "", Desc: "SMTP password"},
	{Name: "mail_from", Default: "noreply@basecamp.local", Desc: "From email address"},
	{Name: "mail_from_name", Default: "Basecamp", Desc: "From display name"},

	// Base URL for email links
	{Name: "base_url", Default: "", Desc: "Base URL for verification links (blank derives from request)"},

	// Audit logging settings
	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_project", Default: "all", Desc: "Project event logging: 'all' (db+log), 'db', 'log', or 'off'"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig merges .env files, config files,
// BASECAMP_* environment variables and flags, with precedence
// flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "BASECAMP", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		// Tokens
		AccessTokenSecret:  appValues.String("access_token_secret"),
		AccessTokenExpiry:  appValues.Duration("access_token_expiry", tokens.DefaultAccessTTL),
		RefreshTokenSecret: appValues.String("refresh_token_secret"),
		RefreshTokenExpiry: appValues.Duration("refresh_token_expiry", tokens.DefaultRefreshTTL),
		TempTokenExpiry:    appValues.Duration("temp_token_expiry", tokens.DefaultTempTTL),

		// Accounts
		AllowAdminSignup:  appValues.Bool("allow_admin_signup"),
		LoginRateLimit:    appValues.Int("login_rate_limit"),
		TrustProxyHeaders: appValues.Bool("trust_proxy_headers"),
		AdminEmail:        appValues.String("admin_email"),
		SiteName:          appValues.String("site_name"),
		ForgotPasswordURL: appValues.String("forgot_password_redirect_url"),

		// Email/SMTP
		MailSMTPHost: appValues.String("mail_smtp_host"),
		MailSMTPPort: appValues.Int("mail_smtp_port"),
		MailSMTPUser: appValues.String("mail_smtp_user"),
		MailSMTPPass: appValues.String("mail_smtp_pass"),
		MailFrom:     appValues.String("mail_from"),
		MailFromName: appValues.String("mail_from_name"),

		BaseURL: appValues.String("base_url"),

		// Audit logging
		AuditLogAuth:    appValues.String("audit_log_auth"),
		AuditLogProject: appValues.String("audit_log_project"),
	}

	return coreCfg, appCfg, nil
}

// tokenConfig maps the app config onto the token service settings.
func (c AppConfig) tokenConfig() tokens.Config {
	return tokens.Config{
		AccessSecret:  c.AccessTokenSecret,
		AccessTTL:     c.AccessTokenExpiry,
		RefreshSecret: c.RefreshTokenSecret,
		RefreshTTL:    c.RefreshTokenExpiry,
		TempTTL:       c.TempTokenExpiry,
	}
}

// ValidateConfig performs app-specific config validation.
//
// Startup aborts on a malformed MongoDB URI, missing or shared token
// secrets, or an unknown audit mode.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	if err := appCfg.tokenConfig().Validate(); err != nil {
		logger.Error("invalid token configuration", zap.Error(err))
		return fmt.Errorf("access_token_secret/refresh_token_secret: %w", err)
	}

	for key, mode := range map[string]string{
		"audit_log_auth":    appCfg.AuditLogAuth,
		"audit_log_project": appCfg.AuditLogProject,
	} {
		if !auditlog.ValidMode(mode) {
			return fmt.Errorf("%s must be one of all, db, log, off (got %q)", key, mode)
		}
	}

	if appCfg.LoginRateLimit < 0 {
		return fmt.Errorf("login_rate_limit must not be negative")
	}

	return nil
}
