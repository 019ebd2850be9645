package audit

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"patvault/internal/platform/models"
	"patvault/internal/platform/repositories"
)

// Recorder appends authorization outcomes to the audit log. Entries are
// immutable once written. A failed write is logged and dropped; audit is
// observability, not a gate on the request.
type Recorder struct {
	repo *repositories.AuditLogRepository
}

func NewRecorder(repo *repositories.AuditLogRepository) *Recorder {
	return &Recorder{repo: repo}
}

func (r *Recorder) Record(ctx context.Context, entry *models.AuditLog) {
	if entry.ID == "" {
		entry.ID = "audit_" + uuid.NewString()
	}

	if err := r.repo.Insert(entry); err != nil {
		log.Error().Err(err).Str("token_id", entry.TokenID).Msg("failed to write audit log entry")
	}
}

func (r *Recorder) ListByToken(ctx context.Context, tokenID string, limit, offset int) ([]*models.AuditLog, int, error) {
	if limit <= 0 {
		limit = 100
	}
	if limit > 1000 {
		limit = 1000
	}
	if offset < 0 {
		offset = 0
	}
	return r.repo.ListByToken(tokenID, limit, offset)
}
