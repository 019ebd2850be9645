package repositories

import (
	"database/sql"
	"encoding/json"

	"patvault/internal/platform/models"
)

type TokenRepository struct {
	db *sql.DB
}

func NewTokenRepository(db *sql.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

const tokenColumns = `id, user_id, name, prefix, secret_hash, scopes, allowed_ips, revoked, created_at, expires_at, last_used_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanToken(row rowScanner) (*models.Token, error) {
	var t models.Token
	var scopesStr string
	var allowedIPs sql.NullString
	var lastUsedAt sql.NullInt64

	err := row.Scan(&t.ID, &t.UserID, &t.Name, &t.Prefix, &t.SecretHash, &scopesStr, &allowedIPs, &t.Revoked, &t.CreatedAt, &t.ExpiresAt, &lastUsedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(scopesStr), &t.Scopes); err != nil {
		return nil, err
	}
	if allowedIPs.Valid && allowedIPs.String != "" {
		if err := json.Unmarshal([]byte(allowedIPs.String), &t.AllowedIPs); err != nil {
			return nil, err
		}
	}
	if lastUsedAt.Valid {
		t.LastUsedAt = new(int64)
		*t.LastUsedAt = lastUsedAt.Int64
	}

	return &t, nil
}

func marshalIPs(ips []string) (interface{}, error) {
	if len(ips) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(ips)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (r *TokenRepository) Create(t *models.Token) error {
	scopesJSON, err := json.Marshal(t.Scopes)
	if err != nil {
		return err
	}
	ipsValue, err := marshalIPs(t.AllowedIPs)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(`
		INSERT INTO tokens (id, user_id, name, prefix, secret_hash, scopes, allowed_ips, revoked, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, t.ID, t.UserID, t.Name, t.Prefix, t.SecretHash, string(scopesJSON), ipsValue, t.Revoked, t.CreatedAt, t.ExpiresAt)
	return err
}

// FindByPrefix returns every token sharing a lookup prefix. Prefixes are not
// unique, so callers must verify the full secret hash against each candidate.
func (r *TokenRepository) FindByPrefix(prefix string) ([]*models.Token, error) {
	rows, err := r.db.Query(`SELECT `+tokenColumns+` FROM tokens WHERE prefix = ?`, prefix)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tokens []*models.Token
	for rows.Next() {
		t, err := scanToken(rows)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}

func (r *TokenRepository) GetByID(id string) (*models.Token, error) {
	t, err := scanToken(r.db.QueryRow(`SELECT `+tokenColumns+` FROM tokens WHERE id = ?`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return t, nil
}

// GetByIDAndUser scopes reads to the owning user. A token belonging to
// another user comes back as not found.
func (r *TokenRepository) GetByIDAndUser(id, userID string) (*models.Token, error) {
	t, err := scanToken(r.db.QueryRow(`SELECT `+tokenColumns+` FROM tokens WHERE id = ? AND user_id = ?`, id, userID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return t, nil
}

func (r *TokenRepository) ListByUser(userID string) ([]*models.Token, error) {
	rows, err := r.db.Query(`SELECT `+tokenColumns+` FROM tokens WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tokens []*models.Token
	for rows.Next() {
		t, err := scanToken(rows)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}

func (r *TokenRepository) SetRevoked(id string) error {
	_, err := r.db.Exec(`UPDATE tokens SET revoked = 1 WHERE id = ?`, id)
	return err
}

// UpdateSecret replaces the secret material in place and resets usage tracking.
func (r *TokenRepository) UpdateSecret(t *models.Token) error {
	_, err := r.db.Exec(`
		UPDATE tokens SET prefix = ?, secret_hash = ?, created_at = ?, expires_at = ?, last_used_at = NULL
		WHERE id = ?
	`, t.Prefix, t.SecretHash, t.CreatedAt, t.ExpiresAt, t.ID)
	return err
}

func (r *TokenRepository) UpdateAllowedIPs(id string, ips []string) error {
	ipsValue, err := marshalIPs(ips)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(`UPDATE tokens SET allowed_ips = ? WHERE id = ?`, ipsValue, id)
	return err
}

func (r *TokenRepository) UpdateLastUsed(id string, usedAt int64) error {
	_, err := r.db.Exec(`UPDATE tokens SET last_used_at = ? WHERE id = ?`, usedAt, id)
	return err
}

// DeleteExpired removes tokens whose expiry passed before the cutoff.
// Used by the reporting CLI, never by the request path.
func (r *TokenRepository) DeleteExpired(cutoff int64) (int64, error) {
	res, err := r.db.Exec(`DELETE FROM tokens WHERE expires_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
