package store

import (
	"context"
	"fmt"

	"stockwatch/internal/models"
)

// InsertNotification stores an alert. Every call inserts a row; alerts are
// not de-duplicated.
func (s *Store) InsertNotification(ctx context.Context, a models.Alert) (int64, error) {
	created := a.CreatedAt
	if created == "" {
		created = s.now()
	}
	res, err := s.DB.ExecContext(ctx, `INSERT INTO notifications (type, severity, title, message, item_name, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`, a.Kind, a.Severity, a.Title, a.Message, a.ItemName, a.DurationMS, created)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListNotifications returns the most recent notifications, newest first.
func (s *Store) ListNotifications(ctx context.Context, unreadOnly bool, limit int) ([]models.Notification, error) {
	q := `SELECT id, type, severity, title, message, item_name, duration_ms, read_at, created_at FROM notifications`
	if unreadOnly {
		q += ` WHERE read_at IS NULL`
	}
	q += ` ORDER BY created_at DESC, id DESC LIMIT ?`
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.DB.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	notifs := []models.Notification{}
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.Type, &n.Severity, &n.Title, &n.Message, &n.ItemName, &n.DurationMS, &n.ReadAt, &n.CreatedAt); err != nil {
			return nil, err
		}
		notifs = append(notifs, n)
	}
	return notifs, rows.Err()
}

// MarkNotificationRead stamps a notification as read.
func (s *Store) MarkNotificationRead(ctx context.Context, id int) error {
	res, err := s.DB.ExecContext(ctx, "UPDATE notifications SET read_at=? WHERE id=?", s.now(), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: notification %d", ErrNotFound, id)
	}
	return nil
}
