// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"errors"

	userstore "github.com/dalemusser/basecamp/internal/app/store/users"
	"github.com/dalemusser/basecamp/internal/app/system/normalize"
	"github.com/dalemusser/basecamp/internal/app/system/timeouts"
	"github.com/dalemusser/basecamp/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if n := timeouts.ConfigureFromEnv(); n > 0 {
		cur := timeouts.Current()
		logger.Info("timeouts configured from environment",
			zap.Duration("ping", cur.Ping),
			zap.Duration("short", cur.Short),
			zap.Duration("medium", cur.Medium),
			zap.Duration("long", cur.Long))
	}

	if appCfg.AdminEmail != "" {
		if err := ensureAdmin(ctx, deps, appCfg.AdminEmail, logger); err != nil {
			return err
		}
	}
	return nil
}

// ensureAdmin promotes the account registered under email to global admin.
// Accounts are never created here since there is no password to give them;
// a missing account is logged and startup continues.
func ensureAdmin(ctx context.Context, deps DBDeps, email string, logger *zap.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	users := userstore.New(deps.MongoDatabase)
	email = normalize.Email(email)

	u, err := users.GetByEmail(ctx, email)
	if errors.Is(err, mongo.ErrNoDocuments) {
		logger.Warn("admin_email has no account yet; register it and restart to promote",
			zap.String("email", email))
		return nil
	}
	if err != nil {
		logger.Error("admin lookup failed", zap.String("email", email), zap.Error(err))
		return err
	}

	if u.Role == models.RoleAdmin {
		logger.Debug("admin already present", zap.String("email", email))
		return nil
	}

	if err := users.SetRole(ctx, u.ID, models.RoleAdmin); err != nil {
		logger.Error("admin promotion failed", zap.String("email", email), zap.Error(err))
		return err
	}
	logger.Info("promoted user to global admin",
		zap.String("email", email),
		zap.String("user_id", u.ID.Hex()),
		zap.String("previous_role", u.Role))
	return nil
}
