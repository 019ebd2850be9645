package handlers

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"

	"patvault/internal/pkg/errors"
)

type HealthHandler struct {
	db    *sql.DB
	redis *redis.Client
}

// NewHealthHandler accepts a nil redis client when the service runs
// without a cache backend.
func NewHealthHandler(db *sql.DB, rdb *redis.Client) *HealthHandler {
	return &HealthHandler{db: db, redis: rdb}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	checks := map[string]string{}

	if err := h.db.PingContext(r.Context()); err != nil {
		checks["database"] = "unavailable"
		status = http.StatusServiceUnavailable
	} else {
		checks["database"] = "ok"
	}

	if h.redis == nil {
		checks["cache"] = "disabled"
	} else if err := h.redis.Ping(r.Context()).Err(); err != nil {
		// The cache degrades to direct database lookups, so a dead
		// redis does not make the service unhealthy.
		checks["cache"] = "unavailable"
	} else {
		checks["cache"] = "ok"
	}

	errors.WriteJSON(w, status, map[string]any{
		"status":    statusWord(status),
		"timestamp": time.Now().Unix(),
		"checks":    checks,
	})
}

func statusWord(code int) string {
	if code == http.StatusOK {
		return "healthy"
	}
	return "degraded"
}
