package models

type User struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	FullName     string `json:"full_name"`
	IsActive     bool   `json:"is_active"`
	CreatedAt    int64  `json:"created_at"`
	UpdatedAt    int64  `json:"updated_at"`
}

type Token struct {
	ID         string   `json:"id"`
	UserID     string   `json:"user_id"`
	Name       string   `json:"name"`
	Prefix     string   `json:"prefix"`
	SecretHash string   `json:"-"`
	Scopes     []string `json:"scopes"`                // JSON array in DB
	AllowedIPs []string `json:"allowed_ips,omitempty"` // nil = unrestricted
	Revoked    bool     `json:"revoked"`
	CreatedAt  int64    `json:"created_at"`
	ExpiresAt  int64    `json:"expires_at"`
	LastUsedAt *int64   `json:"last_used_at,omitempty"`
}

type AuditLog struct {
	ID         string `json:"id"`
	TokenID    string `json:"token_id"`
	Timestamp  int64  `json:"timestamp"`
	IPAddress  string `json:"ip_address"`
	Method     string `json:"method"`
	Endpoint   string `json:"endpoint"`
	StatusCode int    `json:"status_code"`
	Authorized bool   `json:"authorized"`
	Reason     string `json:"reason,omitempty"`
}
