package repository

import (
	"context"
	"database/sql"

	"github.com/abrezinsky/surveydesk/internal/models"
	"github.com/abrezinsky/surveydesk/internal/paginator"
)

// CreateNotification stores a notification for one user
func (r *Repository) CreateNotification(ctx context.Context, n models.Notification) (int64, error) {
	if n.Type == "" {
		n.Type = "info"
	}
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO notifications (user_id, title, message, type) VALUES (?, ?, ?, ?)
	`, n.UserID, n.Title, n.Message, n.Type)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// ListNotifications returns a page of a user's notifications, newest first
func (r *Repository) ListNotifications(ctx context.Context, userID int, unreadOnly bool, page, limit int) (*paginator.Page[models.Notification], error) {
	query := `SELECT id, user_id, title, message, type, read, created_at FROM notifications WHERE user_id = ?`
	if unreadOnly {
		query += ` AND read = 0`
	}
	query += ` ORDER BY id DESC`

	return paginator.Query(ctx, r.db, query, []any{userID}, page, limit, func(rows *sql.Rows) (models.Notification, error) {
		var n models.Notification
		var createdAt sql.NullString
		err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.Type, &n.Read, &createdAt)
		n.CreatedAt = createdAt.String
		return n, err
	})
}

// CountUnread returns the number of unread notifications for a user
func (r *Repository) CountUnread(ctx context.Context, userID int) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM notifications WHERE user_id = ? AND read = 0`, userID).Scan(&n)
	return n, err
}

// MarkRead marks one of the user's notifications read
func (r *Repository) MarkRead(ctx context.Context, userID, id int) error {
	return affectedOrNotFound(r.db.ExecContext(ctx,
		`UPDATE notifications SET read = 1 WHERE id = ? AND user_id = ?`, id, userID))
}

// MarkAllRead marks all of a user's notifications read and returns how many changed
func (r *Repository) MarkAllRead(ctx context.Context, userID int) (int64, error) {
	result, err := r.db.ExecContext(ctx, `UPDATE notifications SET read = 1 WHERE user_id = ? AND read = 0`, userID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
