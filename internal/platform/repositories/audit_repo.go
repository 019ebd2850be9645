package repositories

import (
	"database/sql"

	"patvault/internal/platform/models"
)

type AuditLogRepository struct {
	db *sql.DB
}

func NewAuditLogRepository(db *sql.DB) *AuditLogRepository {
	return &AuditLogRepository{db: db}
}

func (r *AuditLogRepository) Insert(entry *models.AuditLog) error {
	var reason sql.NullString
	if entry.Reason != "" {
		reason = sql.NullString{String: entry.Reason, Valid: true}
	}

	_, err := r.db.Exec(`
		INSERT INTO audit_logs (id, token_id, timestamp, ip_address, method, endpoint, status_code, authorized, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, entry.ID, entry.TokenID, entry.Timestamp, entry.IPAddress, entry.Method, entry.Endpoint, entry.StatusCode, entry.Authorized, reason)
	return err
}

func (r *AuditLogRepository) ListByToken(tokenID string, limit, offset int) ([]*models.AuditLog, int, error) {
	var total int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM audit_logs WHERE token_id = ?`, tokenID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Query(`
		SELECT id, token_id, timestamp, ip_address, method, endpoint, status_code, authorized, reason
		FROM audit_logs WHERE token_id = ? ORDER BY timestamp DESC LIMIT ? OFFSET ?
	`, tokenID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var entries []*models.AuditLog
	for rows.Next() {
		entry := &models.AuditLog{}
		var reason sql.NullString
		if err := rows.Scan(&entry.ID, &entry.TokenID, &entry.Timestamp, &entry.IPAddress, &entry.Method, &entry.Endpoint, &entry.StatusCode, &entry.Authorized, &reason); err != nil {
			return nil, 0, err
		}
		if reason.Valid {
			entry.Reason = reason.String
		}
		entries = append(entries, entry)
	}
	return entries, total, rows.Err()
}
