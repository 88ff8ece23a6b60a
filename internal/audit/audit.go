package audit

import (
	"context"
	"database/sql"
	"log"
	"time"

	"stockwatch/internal/models"
	"stockwatch/internal/websocket"
)

// Action constants.
const (
	ActionCreate = "CREATE"
	ActionUpdate = "UPDATE"
	ActionDelete = "DELETE"
	ActionImport = "IMPORT"
	ActionExport = "EXPORT"
	ActionConfig = "CONFIG"
)

// Log records a change in the audit trail and announces it to WebSocket
// clients. Failures are logged, never returned: auditing must not block the
// operation it describes.
func Log(ctx context.Context, db *sql.DB, hub *websocket.Hub, action, module, recordID, summary string) {
	_, err := db.ExecContext(ctx, "INSERT INTO audit_log (action, module, record_id, summary, created_at) VALUES (?, ?, ?, ?, ?)",
		action, module, recordID, summary, time.Now().Format(models.TimeLayout))
	if err != nil {
		log.Printf("audit log error: %v", err)
	}
	if hub != nil {
		if err := hub.BroadcastChange(module, action, recordID); err != nil {
			log.Printf("audit broadcast error: %v", err)
		}
	}
}

// Recent returns the latest audit entries, newest first.
func Recent(ctx context.Context, db *sql.DB, limit int) ([]models.AuditEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := db.QueryContext(ctx, "SELECT id, action, module, record_id, COALESCE(summary,''), created_at FROM audit_log ORDER BY id DESC LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	entries := []models.AuditEntry{}
	for rows.Next() {
		var e models.AuditEntry
		if err := rows.Scan(&e.ID, &e.Action, &e.Module, &e.RecordID, &e.Summary, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
