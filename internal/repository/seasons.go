package repository

import (
	"context"
	"database/sql"

	"github.com/abrezinsky/surveydesk/internal/models"
)

const seasonColumns = `id, name, description, starts_at, ends_at, active, premium_price_cents`

func scanSeason(row interface{ Scan(...any) error }) (*models.Season, error) {
	var s models.Season
	if err := row.Scan(&s.ID, &s.Name, &s.Description, &s.StartsAt, &s.EndsAt, &s.Active, &s.PremiumPriceCents); err != nil {
		return nil, err
	}
	return &s, nil
}

// ==================== Season Methods ====================

// CreateSeason inserts an inactive season
func (r *Repository) CreateSeason(ctx context.Context, s models.Season) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO seasons (name, description, starts_at, ends_at, premium_price_cents)
		VALUES (?, ?, ?, ?, ?)
	`, s.Name, s.Description, s.StartsAt, s.EndsAt, s.PremiumPriceCents)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// GetSeason retrieves a season
func (r *Repository) GetSeason(ctx context.Context, id int) (*models.Season, error) {
	s, err := scanSeason(r.db.QueryRowContext(ctx, `SELECT `+seasonColumns+` FROM seasons WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return s, err
}

// GetActiveSeason returns the active season, or ErrNotFound
func (r *Repository) GetActiveSeason(ctx context.Context) (*models.Season, error) {
	s, err := scanSeason(r.db.QueryRowContext(ctx, `SELECT `+seasonColumns+` FROM seasons WHERE active = 1 LIMIT 1`))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return s, err
}

// ListSeasons returns all seasons, newest first
func (r *Repository) ListSeasons(ctx context.Context) ([]models.Season, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+seasonColumns+` FROM seasons ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	seasons := []models.Season{}
	for rows.Next() {
		s, err := scanSeason(rows)
		if err != nil {
			return nil, err
		}
		seasons = append(seasons, *s)
	}
	return seasons, rows.Err()
}

// UpdateSeason updates a season's fields (not its active flag)
func (r *Repository) UpdateSeason(ctx context.Context, s models.Season) error {
	return affectedOrNotFound(r.db.ExecContext(ctx, `
		UPDATE seasons SET name = ?, description = ?, starts_at = ?, ends_at = ?, premium_price_cents = ?
		WHERE id = ?
	`, s.Name, s.Description, s.StartsAt, s.EndsAt, s.PremiumPriceCents, s.ID))
}

// DeleteSeason deletes a season with its rewards
func (r *Repository) DeleteSeason(ctx context.Context, id int) error {
	return affectedOrNotFound(r.db.ExecContext(ctx, `DELETE FROM seasons WHERE id = ?`, id))
}

// ActivateSeason makes id the only active season
func (r *Repository) ActivateSeason(ctx context.Context, id int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `UPDATE seasons SET active = 0 WHERE active = 1`); err != nil {
		return err
	}
	if err := affectedOrNotFound(tx.ExecContext(ctx, `UPDATE seasons SET active = 1 WHERE id = ?`, id)); err != nil {
		return err
	}
	return tx.Commit()
}

// ==================== Reward Methods ====================

const rewardColumns = `id, season_id, tier, xp_required, name, description, kind, premium`

func scanReward(row interface{ Scan(...any) error }) (*models.Reward, error) {
	var rw models.Reward
	if err := row.Scan(&rw.ID, &rw.SeasonID, &rw.Tier, &rw.XPRequired, &rw.Name, &rw.Description, &rw.Kind, &rw.Premium); err != nil {
		return nil, err
	}
	return &rw, nil
}

// CreateReward inserts a reward
func (r *Repository) CreateReward(ctx context.Context, rw models.Reward) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO rewards (season_id, tier, xp_required, name, description, kind, premium)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, rw.SeasonID, rw.Tier, rw.XPRequired, rw.Name, rw.Description, rw.Kind, rw.Premium)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// GetReward retrieves a reward
func (r *Repository) GetReward(ctx context.Context, id int) (*models.Reward, error) {
	rw, err := scanReward(r.db.QueryRowContext(ctx, `SELECT `+rewardColumns+` FROM rewards WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return rw, err
}

// ListRewards returns a season's rewards by tier
func (r *Repository) ListRewards(ctx context.Context, seasonID int) ([]models.Reward, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+rewardColumns+` FROM rewards WHERE season_id = ? ORDER BY tier, premium, id`, seasonID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rewards := []models.Reward{}
	for rows.Next() {
		rw, err := scanReward(rows)
		if err != nil {
			return nil, err
		}
		rewards = append(rewards, *rw)
	}
	return rewards, rows.Err()
}

// UpdateReward updates a reward
func (r *Repository) UpdateReward(ctx context.Context, rw models.Reward) error {
	return affectedOrNotFound(r.db.ExecContext(ctx, `
		UPDATE rewards SET tier = ?, xp_required = ?, name = ?, description = ?, kind = ?, premium = ?
		WHERE id = ?
	`, rw.Tier, rw.XPRequired, rw.Name, rw.Description, rw.Kind, rw.Premium, rw.ID))
}

// DeleteReward deletes a reward
func (r *Repository) DeleteReward(ctx context.Context, id int) error {
	return affectedOrNotFound(r.db.ExecContext(ctx, `DELETE FROM rewards WHERE id = ?`, id))
}

// ==================== Purchase Methods ====================

// CreatePurchase records a premium pass purchase; a repeat returns ErrDuplicate
func (r *Repository) CreatePurchase(ctx context.Context, p models.Purchase) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO purchases (user_id, season_id, amount_cents) VALUES (?, ?, ?)
	`, p.UserID, p.SeasonID, p.AmountCents)
	if isUniqueViolation(err) {
		return 0, ErrDuplicate
	}
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// HasPurchase reports whether a user bought the premium pass for a season
func (r *Repository) HasPurchase(ctx context.Context, userID, seasonID int) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM purchases WHERE user_id = ? AND season_id = ?`, userID, seasonID).Scan(&n)
	return n > 0, err
}

// ListPurchases returns a user's purchases, newest first
func (r *Repository) ListPurchases(ctx context.Context, userID int) ([]models.Purchase, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, season_id, amount_cents, created_at
		FROM purchases WHERE user_id = ? ORDER BY id DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	purchases := []models.Purchase{}
	for rows.Next() {
		var p models.Purchase
		var createdAt sql.NullString
		if err := rows.Scan(&p.ID, &p.UserID, &p.SeasonID, &p.AmountCents, &createdAt); err != nil {
			return nil, err
		}
		p.CreatedAt = createdAt.String
		purchases = append(purchases, p)
	}
	return purchases, rows.Err()
}
