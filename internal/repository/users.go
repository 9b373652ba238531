package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/abrezinsky/surveydesk/internal/models"
	"github.com/abrezinsky/surveydesk/internal/paginator"
)

const userColumns = `id, email, name, password_hash, role, xp, created_at`

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	var u models.User
	var createdAt sql.NullString
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Role, &u.XP, &createdAt); err != nil {
		return nil, err
	}
	u.CreatedAt = createdAt.String
	return &u, nil
}

// CreateUser inserts a user. A taken email returns ErrDuplicate.
func (r *Repository) CreateUser(ctx context.Context, u models.User) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO users (email, name, password_hash, role) VALUES (?, ?, ?, ?)
	`, strings.TrimSpace(u.Email), u.Name, u.PasswordHash, u.Role)
	if isUniqueViolation(err) {
		return 0, ErrDuplicate
	}
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// GetUser retrieves a user by ID
func (r *Repository) GetUser(ctx context.Context, id int) (*models.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return u, err
}

// GetUserByEmail retrieves a user by email (case-insensitive)
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, strings.TrimSpace(email)))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return u, err
}

// UpdatePassword replaces a user's password hash
func (r *Repository) UpdatePassword(ctx context.Context, userID int, hash string) error {
	return affectedOrNotFound(r.db.ExecContext(ctx, `UPDATE users SET password_hash = ? WHERE id = ?`, hash, userID))
}

// UpdateUserRole changes a user's role
func (r *Repository) UpdateUserRole(ctx context.Context, userID int, role string) error {
	return affectedOrNotFound(r.db.ExecContext(ctx, `UPDATE users SET role = ? WHERE id = ?`, role, userID))
}

// AddXP adds xp to a user's total
func (r *Repository) AddXP(ctx context.Context, userID, xp int) error {
	return affectedOrNotFound(r.db.ExecContext(ctx, `UPDATE users SET xp = xp + ? WHERE id = ?`, xp, userID))
}

// ListUserIDs returns the IDs of all users, or only those with role when set
func (r *Repository) ListUserIDs(ctx context.Context, role string) ([]int, error) {
	query := `SELECT id FROM users`
	var args []any
	if role != "" {
		query += ` WHERE role = ?`
		args = append(args, role)
	}
	query += ` ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListUsers returns a page of users, newest first, optionally filtered by email/name
func (r *Repository) ListUsers(ctx context.Context, search string, page, limit int) (*paginator.Page[models.User], error) {
	query := `SELECT ` + userColumns + ` FROM users`
	var args []any
	if search = strings.TrimSpace(search); search != "" {
		query += ` WHERE email LIKE ? OR name LIKE ?`
		like := "%" + search + "%"
		args = append(args, like, like)
	}
	query += ` ORDER BY id DESC`

	return paginator.Query(ctx, r.db, query, args, page, limit, func(rows *sql.Rows) (models.User, error) {
		u, err := scanUser(rows)
		if err != nil {
			return models.User{}, err
		}
		return *u, nil
	})
}

// Leaderboard returns users ordered by XP desc then ID, with ranks filled in
func (r *Repository) Leaderboard(ctx context.Context, page, limit int) (*paginator.Page[models.LeaderboardEntry], error) {
	result, err := paginator.Query(ctx, r.db,
		`SELECT id, name, xp FROM users ORDER BY xp DESC, id ASC`, nil, page, limit,
		func(rows *sql.Rows) (models.LeaderboardEntry, error) {
			var e models.LeaderboardEntry
			err := rows.Scan(&e.UserID, &e.Name, &e.XP)
			return e, err
		})
	if err != nil {
		return nil, err
	}

	_, size := paginator.Clamp(page, limit)
	offset := (result.CurrentPage - 1) * size
	for i := range result.Items {
		result.Items[i].Rank = offset + i + 1
	}
	return result, nil
}

// UserRank returns the 1-based leaderboard position of a user
func (r *Repository) UserRank(ctx context.Context, userID int) (int, error) {
	var rank int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) + 1 FROM users o, users u
		WHERE u.id = ? AND (o.xp > u.xp OR (o.xp = u.xp AND o.id < u.id))
	`, userID).Scan(&rank)
	return rank, err
}
