package health

import (
	"context"
	"net/http"
	"time"

	"github.com/dalemusser/basecamp/internal/app/system/apierr"
	"github.com/dalemusser/basecamp/internal/app/system/respond"
	"github.com/dalemusser/basecamp/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Handler holds dependencies needed for health checks.
type Handler struct {
	Client  *mongo.Client
	Log     *zap.Logger
	started time.Time
}

// NewHandler constructs a health Handler with the Mongo client and logger.
func NewHandler(client *mongo.Client, logger *zap.Logger) *Handler {
	return &Handler{
		Client:  client,
		Log:     logger,
		started: time.Now(),
	}
}

type healthResponse struct {
	Database string `json:"database"`
	Uptime   string `json:"uptime"`
}

// Serve handles GET /health.
//
// On success: 200 and
//
//	{ "status":200, "data":{"database":"connected","uptime":"1h2m3s"}, "message":"Server is running", "success":true }
//
// On DB failure: 503 "Database unavailable". The driver error is logged,
// never returned.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Ping())
	defer cancel()

	if err := h.Client.Ping(ctx, readpref.Primary()); err != nil {
		h.Log.Error("health-check: mongo ping failed", zap.Error(err))
		respond.Error(w, r, h.Log, apierr.New(http.StatusServiceUnavailable, "Database unavailable"))
		return
	}

	respond.OK(w, healthResponse{
		Database: "connected",
		Uptime:   time.Since(h.started).Round(time.Second).String(),
	}, "Server is running")
}
