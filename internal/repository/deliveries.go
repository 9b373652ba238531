package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/abrezinsky/surveydesk/internal/models"
	"github.com/abrezinsky/surveydesk/internal/paginator"
)

// DeliveryFilter narrows ListDeliveries
type DeliveryFilter struct {
	Status   string
	SeasonID int
	UserID   int
	// Query matches user email, user name or reward name
	Query string
}

const deliveryColumns = `d.id, d.user_id, u.email, u.name, d.reward_id, rw.name, rw.season_id,
	d.status, d.shipping_address, d.tracking_number, d.notes, d.created_at, d.updated_at`

const deliveryFrom = ` FROM deliveries d
	JOIN users u ON u.id = d.user_id
	JOIN rewards rw ON rw.id = d.reward_id`

func scanDelivery(row interface{ Scan(...any) error }) (*models.Delivery, error) {
	var d models.Delivery
	var createdAt, updatedAt sql.NullString
	if err := row.Scan(&d.ID, &d.UserID, &d.UserEmail, &d.UserName, &d.RewardID, &d.RewardName, &d.SeasonID,
		&d.Status, &d.ShippingAddress, &d.TrackingNumber, &d.Notes, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	d.CreatedAt = createdAt.String
	d.UpdatedAt = updatedAt.String
	return &d, nil
}

// CreateDelivery records a reward claim; claiming the same reward twice returns ErrDuplicate
func (r *Repository) CreateDelivery(ctx context.Context, d models.Delivery) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO deliveries (user_id, reward_id, status, shipping_address, notes)
		VALUES (?, ?, ?, ?, ?)
	`, d.UserID, d.RewardID, d.Status, d.ShippingAddress, d.Notes)
	if isUniqueViolation(err) {
		return 0, ErrDuplicate
	}
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// GetDelivery retrieves a delivery with user and reward details
func (r *Repository) GetDelivery(ctx context.Context, id int) (*models.Delivery, error) {
	d, err := scanDelivery(r.db.QueryRowContext(ctx, `SELECT `+deliveryColumns+deliveryFrom+` WHERE d.id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return d, err
}

// ListDeliveries returns a page of deliveries, newest first
func (r *Repository) ListDeliveries(ctx context.Context, f DeliveryFilter, page, limit int) (*paginator.Page[models.Delivery], error) {
	var where []string
	var args []any
	if f.Status != "" {
		where = append(where, `d.status = ?`)
		args = append(args, f.Status)
	}
	if f.SeasonID > 0 {
		where = append(where, `rw.season_id = ?`)
		args = append(args, f.SeasonID)
	}
	if f.UserID > 0 {
		where = append(where, `d.user_id = ?`)
		args = append(args, f.UserID)
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		where = append(where, `(u.email LIKE ? OR u.name LIKE ? OR rw.name LIKE ?)`)
		like := "%" + q + "%"
		args = append(args, like, like, like)
	}

	query := `SELECT ` + deliveryColumns + deliveryFrom
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY d.id DESC`

	return paginator.Query(ctx, r.db, query, args, page, limit, func(rows *sql.Rows) (models.Delivery, error) {
		d, err := scanDelivery(rows)
		if err != nil {
			return models.Delivery{}, err
		}
		return *d, nil
	})
}

// ListClaimedRewardIDs returns the rewards a user has claimed in a season
func (r *Repository) ListClaimedRewardIDs(ctx context.Context, userID, seasonID int) (map[int]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT d.reward_id, d.status FROM deliveries d
		JOIN rewards rw ON rw.id = d.reward_id
		WHERE d.user_id = ? AND rw.season_id = ?
	`, userID, seasonID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	claimed := make(map[int]string)
	for rows.Next() {
		var id int
		var status string
		if err := rows.Scan(&id, &status); err != nil {
			return nil, err
		}
		claimed[id] = status
	}
	return claimed, rows.Err()
}

// UpdateDeliveryStatus sets status, tracking number and notes
func (r *Repository) UpdateDeliveryStatus(ctx context.Context, id int, status, trackingNumber, notes string) error {
	return affectedOrNotFound(r.db.ExecContext(ctx, `
		UPDATE deliveries SET status = ?, tracking_number = ?, notes = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, status, trackingNumber, notes, id))
}
