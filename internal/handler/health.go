package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/anandpillai/loantrack/pkg/response"
)

const readinessCheckTimeout = 5 * time.Second

type HealthHandler struct {
	db    *sqlx.DB
	redis *redis.Client
}

func NewHealthHandler(db *sqlx.DB, redis *redis.Client) *HealthHandler {
	return &HealthHandler{
		db:    db,
		redis: redis,
	}
}

type HealthStatus struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// Health reports liveness only; it never touches the database or Redis so a
// degraded dependency does not get the process restarted.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	response.Success(w, HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
	})
}

// Ready reports whether the service can take traffic: the database must
// answer, the loan schema must be migrated clean, and Redis must answer
// (the stats cache is advisory, so a Redis failure degrades rather than
// fails readiness).
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	status := HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Checks:    make(map[string]string),
	}

	ctx, cancel := context.WithTimeout(r.Context(), readinessCheckTimeout)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		status.Status = "error"
		status.Checks["database"] = "failed: " + err.Error()
	} else {
		status.Checks["database"] = "ok"
		status.Checks["schema"] = h.checkSchema(ctx)
		if status.Checks["schema"] != "ok" {
			status.Status = "error"
		}
	}

	if err := h.redis.Ping(ctx).Err(); err != nil {
		status.Checks["redis"] = "degraded: " + err.Error()
	} else {
		status.Checks["redis"] = "ok"
	}

	if status.Status == "error" {
		response.Error(w, http.StatusServiceUnavailable, "Service not ready", nil)
		return
	}

	response.Success(w, status)
}

// checkSchema reads the golang-migrate bookkeeping table. A dirty flag means a
// migration died mid-flight and the loan tables cannot be trusted.
func (h *HealthHandler) checkSchema(ctx context.Context) string {
	var state struct {
		Version int  `db:"version"`
		Dirty   bool `db:"dirty"`
	}
	if err := h.db.GetContext(ctx, &state, "SELECT version, dirty FROM schema_migrations"); err != nil {
		return "failed: " + err.Error()
	}
	if state.Dirty {
		return fmt.Sprintf("dirty at version %d", state.Version)
	}
	return "ok"
}
