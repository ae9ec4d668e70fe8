// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"

	"github.com/dalemusser/basecamp/internal/app/store/audit"
	"github.com/dalemusser/basecamp/internal/app/system/ratelimit"
	"github.com/go-chi/chi/v5/middleware"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Destination modes for a category.
const (
	ModeAll = "all" // MongoDB + zap
	ModeDB  = "db"  // MongoDB only
	ModeLog = "log" // zap only
	ModeOff = "off"
)

// Config selects where each category goes.
type Config struct {
	// Auth covers registration, login, logout, tokens, passwords and verification.
	Auth string
	// Project covers project lifecycle and membership changes.
	Project string
}

// ValidMode reports whether m is a recognised mode.
func ValidMode(m string) bool {
	switch m {
	case ModeAll, ModeDB, ModeLog, ModeOff:
		return true
	}
	return false
}

// Logger writes audit events to zap and/or the audit store.
// A nil *Logger is a no-op.
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{store: store, zapLog: zapLog, config: config}
}

func (l *Logger) mode(category string) string {
	var m string
	switch category {
	case audit.CategoryAuth:
		m = l.config.Auth
	case audit.CategoryProject:
		m = l.config.Project
	}
	if !ValidMode(m) {
		return ModeAll
	}
	return m
}

func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}
	if event.RequestID != "" {
		fields = append(fields, zap.String("request_id", event.RequestID))
	}
	if event.UserID != nil {
		fields = append(fields, zap.String("user_id", event.UserID.Hex()))
	}
	if event.ActorID != nil {
		fields = append(fields, zap.String("actor_id", event.ActorID.Hex()))
	}
	if event.ProjectID != nil {
		fields = append(fields, zap.String("project_id", event.ProjectID.Hex()))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records event according to its category's mode. Store failures are
// logged and otherwise ignored.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}
	m := l.mode(event.Category)
	if m == ModeOff {
		return
	}
	if m == ModeAll || m == ModeLog {
		l.logToZap(event)
	}
	if (m == ModeAll || m == ModeDB) && l.store != nil {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType))
		}
	}
}

func fromRequest(r *http.Request, category, eventType string) audit.Event {
	return audit.Event{
		Category:  category,
		EventType: eventType,
		IP:        ratelimit.ClientIP(r),
		UserAgent: r.UserAgent(),
		RequestID: middleware.GetReqID(r.Context()),
		Success:   true,
	}
}

func idPtr(id primitive.ObjectID) *primitive.ObjectID { return &id }

/* ----------------------------- auth events ----------------------------- */

func (l *Logger) Registered(ctx context.Context, r *http.Request, userID primitive.ObjectID, email string) {
	e := fromRequest(r, audit.CategoryAuth, audit.EventRegistered)
	e.UserID = idPtr(userID)
	e.Details = map[string]string{"email": email}
	l.Log(ctx, e)
}

func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, userID primitive.ObjectID, email string) {
	e := fromRequest(r, audit.CategoryAuth, audit.EventLoginSuccess)
	e.UserID = idPtr(userID)
	e.Details = map[string]string{"email": email}
	l.Log(ctx, e)
}

func (l *Logger) LoginFailedUserNotFound(ctx context.Context, r *http.Request, attemptedEmail string) {
	e := fromRequest(r, audit.CategoryAuth, audit.EventLoginFailedUserNotFound)
	e.Success = false
	e.FailureReason = "user not found"
	e.Details = map[string]string{"attempted_email": attemptedEmail}
	l.Log(ctx, e)
}

func (l *Logger) LoginFailedWrongPassword(ctx context.Context, r *http.Request, userID primitive.ObjectID) {
	e := fromRequest(r, audit.CategoryAuth, audit.EventLoginFailedWrongPassword)
	e.UserID = idPtr(userID)
	e.Success = false
	e.FailureReason = "wrong password"
	l.Log(ctx, e)
}

func (l *Logger) LoginFailedRateLimit(ctx context.Context, r *http.Request, attemptedEmail string) {
	e := fromRequest(r, audit.CategoryAuth, audit.EventLoginFailedRateLimit)
	e.Success = false
	e.FailureReason = "rate limited"
	e.Details = map[string]string{"attempted_email": attemptedEmail}
	l.Log(ctx, e)
}

func (l *Logger) Logout(ctx context.Context, r *http.Request, userID primitive.ObjectID) {
	e := fromRequest(r, audit.CategoryAuth, audit.EventLogout)
	e.UserID = idPtr(userID)
	l.Log(ctx, e)
}

func (l *Logger) TokenRefreshed(ctx context.Context, r *http.Request, userID primitive.ObjectID) {
	e := fromRequest(r, audit.CategoryAuth, audit.EventTokenRefreshed)
	e.UserID = idPtr(userID)
	l.Log(ctx, e)
}

// RefreshRejected records a refresh attempt with a token that verified but
// did not match the stored one, which indicates reuse of a rotated token.
func (l *Logger) RefreshRejected(ctx context.Context, r *http.Request, userID primitive.ObjectID) {
	e := fromRequest(r, audit.CategoryAuth, audit.EventRefreshRejected)
	e.UserID = idPtr(userID)
	e.Success = false
	e.FailureReason = "refresh token mismatch"
	l.Log(ctx, e)
}

func (l *Logger) EmailVerified(ctx context.Context, r *http.Request, userID primitive.ObjectID) {
	e := fromRequest(r, audit.CategoryAuth, audit.EventEmailVerified)
	e.UserID = idPtr(userID)
	l.Log(ctx, e)
}

func (l *Logger) PasswordChanged(ctx context.Context, r *http.Request, userID primitive.ObjectID) {
	e := fromRequest(r, audit.CategoryAuth, audit.EventPasswordChanged)
	e.UserID = idPtr(userID)
	l.Log(ctx, e)
}

func (l *Logger) PasswordResetRequested(ctx context.Context, r *http.Request, userID primitive.ObjectID) {
	e := fromRequest(r, audit.CategoryAuth, audit.EventPasswordResetRequested)
	e.UserID = idPtr(userID)
	l.Log(ctx, e)
}

func (l *Logger) PasswordReset(ctx context.Context, r *http.Request, userID primitive.ObjectID) {
	e := fromRequest(r, audit.CategoryAuth, audit.EventPasswordReset)
	e.UserID = idPtr(userID)
	l.Log(ctx, e)
}

/* ---------------------------- project events ---------------------------- */

func (l *Logger) projectEvent(ctx context.Context, r *http.Request, eventType string, actorID, projectID primitive.ObjectID, userID *primitive.ObjectID, details map[string]string) {
	e := fromRequest(r, audit.CategoryProject, eventType)
	e.ActorID = idPtr(actorID)
	e.ProjectID = idPtr(projectID)
	e.UserID = userID
	e.Details = details
	l.Log(ctx, e)
}

func (l *Logger) ProjectCreated(ctx context.Context, r *http.Request, actorID, projectID primitive.ObjectID, name string) {
	l.projectEvent(ctx, r, audit.EventProjectCreated, actorID, projectID, nil, map[string]string{"name": name})
}

func (l *Logger) ProjectUpdated(ctx context.Context, r *http.Request, actorID, projectID primitive.ObjectID) {
	l.projectEvent(ctx, r, audit.EventProjectUpdated, actorID, projectID, nil, nil)
}

func (l *Logger) ProjectDeleted(ctx context.Context, r *http.Request, actorID, projectID primitive.ObjectID) {
	l.projectEvent(ctx, r, audit.EventProjectDeleted, actorID, projectID, nil, nil)
}

func (l *Logger) MemberAdded(ctx context.Context, r *http.Request, actorID, projectID, userID primitive.ObjectID, role string) {
	l.projectEvent(ctx, r, audit.EventMemberAdded, actorID, projectID, idPtr(userID), map[string]string{"role": role})
}

func (l *Logger) MemberRoleChanged(ctx context.Context, r *http.Request, actorID, projectID, userID primitive.ObjectID, from, to string) {
	l.projectEvent(ctx, r, audit.EventMemberRoleChanged, actorID, projectID, idPtr(userID), map[string]string{"from": from, "to": to})
}

func (l *Logger) MemberRemoved(ctx context.Context, r *http.Request, actorID, projectID, userID primitive.ObjectID) {
	l.projectEvent(ctx, r, audit.EventMemberRemoved, actorID, projectID, idPtr(userID), nil)
}
