package repositories

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"patvault/internal/platform/models"
)

func TestAuditLogRepository_Insert(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewAuditLogRepository(db)

	entry := &models.AuditLog{
		ID:         "audit_1",
		TokenID:    "tok_1",
		Timestamp:  1756400000,
		IPAddress:  "10.0.0.1",
		Method:     "GET",
		Endpoint:   "/api/v1/workspaces",
		StatusCode: 403,
		Authorized: false,
		Reason:     "insufficient permissions",
	}

	mock.ExpectExec("INSERT INTO audit_logs").
		WithArgs(entry.ID, entry.TokenID, entry.Timestamp, entry.IPAddress, entry.Method, entry.Endpoint, entry.StatusCode, entry.Authorized, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Insert(entry); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestAuditLogRepository_ListByToken(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewAuditLogRepository(db)

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM audit_logs").
		WithArgs("tok_1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	rows := sqlmock.NewRows([]string{"id", "token_id", "timestamp", "ip_address", "method", "endpoint", "status_code", "authorized", "reason"}).
		AddRow("audit_2", "tok_1", 1756400100, "10.0.0.1", "GET", "/api/v1/users/me", 200, true, nil).
		AddRow("audit_1", "tok_1", 1756400000, "10.0.0.1", "GET", "/api/v1/workspaces", 401, false, "token expired")

	mock.ExpectQuery("SELECT id, token_id, timestamp").
		WithArgs("tok_1", 100, 0).
		WillReturnRows(rows)

	entries, total, err := repo.ListByToken("tok_1", 100, 0)
	if err != nil {
		t.Fatalf("ListByToken failed: %v", err)
	}
	if total != 2 {
		t.Errorf("Expected total 2, got %d", total)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}
	if entries[0].Reason != "" {
		t.Errorf("NULL reason must scan to empty string, got %q", entries[0].Reason)
	}
	if entries[1].Reason != "token expired" {
		t.Errorf("Expected reason 'token expired', got %q", entries[1].Reason)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}
