// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// WAFFLE's CoreConfig covers the framework-level settings (ports, TLS,
// logging, CORS, body limits). Everything below is Basecamp's own and is
// loaded in LoadConfig.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Token configuration. Access and refresh secrets must differ.
	AccessTokenSecret  string
	AccessTokenExpiry  time.Duration
	RefreshTokenSecret string
	RefreshTokenExpiry time.Duration
	TempTokenExpiry    time.Duration // email verification and password reset links
	AllowAdminSignup   bool          // honour role "admin" on registration
	LoginRateLimit     int           // login attempts per IP per minute; 0 disables
	TrustProxyHeaders  bool          // client IP from forwarding headers; only behind a proxy that sets them
	AdminEmail         string        // existing account promoted to global admin at startup
	SiteName           string        // used in email subjects and bodies
	ForgotPasswordURL  string        // front-end page that receives reset tokens
	BaseURL            string        // prefix for verification links; blank derives from request

	// Email/SMTP configuration. Blank host logs messages instead of sending.
	MailSMTPHost string
	MailSMTPPort int
	MailSMTPUser string
	MailSMTPPass string
	MailFrom     string
	MailFromName string

	// Audit logging: "all", "db", "log" or "off".
	AuditLogAuth    string
	AuditLogProject string
}
