package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/abrezinsky/surveydesk/internal/models"
)

// ==================== OTP Methods ====================

// SaveOTP stores a code for (email, purpose), replacing any previous one
func (r *Repository) SaveOTP(ctx context.Context, otp models.OTP) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO otp_codes (email, purpose, code_hash, expires_at, attempts, verified)
		VALUES (?, ?, ?, ?, 0, 0)
		ON CONFLICT(email, purpose) DO UPDATE SET
			code_hash = excluded.code_hash, expires_at = excluded.expires_at, attempts = 0, verified = 0
	`, strings.TrimSpace(otp.Email), otp.Purpose, otp.CodeHash, otp.ExpiresAt)
	return err
}

// GetOTP retrieves the pending code for (email, purpose)
func (r *Repository) GetOTP(ctx context.Context, email, purpose string) (*models.OTP, error) {
	var otp models.OTP
	err := r.db.QueryRowContext(ctx, `
		SELECT email, purpose, code_hash, expires_at, attempts, verified
		FROM otp_codes WHERE email = ? AND purpose = ?
	`, strings.TrimSpace(email), purpose).Scan(&otp.Email, &otp.Purpose, &otp.CodeHash, &otp.ExpiresAt, &otp.Attempts, &otp.Verified)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &otp, nil
}

// IncrementOTPAttempts records a failed attempt
func (r *Repository) IncrementOTPAttempts(ctx context.Context, email, purpose string) error {
	return affectedOrNotFound(r.db.ExecContext(ctx,
		`UPDATE otp_codes SET attempts = attempts + 1 WHERE email = ? AND purpose = ?`, strings.TrimSpace(email), purpose))
}

// MarkOTPVerified flags a code as successfully verified
func (r *Repository) MarkOTPVerified(ctx context.Context, email, purpose string) error {
	return affectedOrNotFound(r.db.ExecContext(ctx,
		`UPDATE otp_codes SET verified = 1 WHERE email = ? AND purpose = ?`, strings.TrimSpace(email), purpose))
}

// DeleteOTP removes the code for (email, purpose)
func (r *Repository) DeleteOTP(ctx context.Context, email, purpose string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM otp_codes WHERE email = ? AND purpose = ?`, strings.TrimSpace(email), purpose)
	return err
}

// ==================== Passkey Methods ====================

// CreatePasskey stores a device public key
func (r *Repository) CreatePasskey(ctx context.Context, p models.Passkey) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO passkeys (user_id, name, public_key) VALUES (?, ?, ?)
	`, p.UserID, p.Name, p.PublicKey)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// GetPasskey retrieves a passkey
func (r *Repository) GetPasskey(ctx context.Context, id int) (*models.Passkey, error) {
	var p models.Passkey
	var createdAt sql.NullString
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, public_key, created_at FROM passkeys WHERE id = ?
	`, id).Scan(&p.ID, &p.UserID, &p.Name, &p.PublicKey, &createdAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	p.CreatedAt = createdAt.String
	return &p, nil
}

// ListPasskeys returns a user's passkeys
func (r *Repository) ListPasskeys(ctx context.Context, userID int) ([]models.Passkey, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, name, public_key, created_at FROM passkeys WHERE user_id = ? ORDER BY id
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := []models.Passkey{}
	for rows.Next() {
		var p models.Passkey
		var createdAt sql.NullString
		if err := rows.Scan(&p.ID, &p.UserID, &p.Name, &p.PublicKey, &createdAt); err != nil {
			return nil, err
		}
		p.CreatedAt = createdAt.String
		keys = append(keys, p)
	}
	return keys, rows.Err()
}

// DeletePasskey removes one of a user's passkeys
func (r *Repository) DeletePasskey(ctx context.Context, userID, id int) error {
	return affectedOrNotFound(r.db.ExecContext(ctx, `DELETE FROM passkeys WHERE id = ? AND user_id = ?`, id, userID))
}

// CreateChallenge stores a passkey login challenge
func (r *Repository) CreateChallenge(ctx context.Context, c models.PasskeyChallenge) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO passkey_challenges (id, user_id, challenge, expires_at) VALUES (?, ?, ?, ?)
	`, c.ID, c.UserID, c.Challenge, c.ExpiresAt)
	return err
}

// TakeChallenge returns and deletes a challenge so it can be used only once.
// Expired challenges are purged on the way.
func (r *Repository) TakeChallenge(ctx context.Context, id string) (*models.PasskeyChallenge, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var c models.PasskeyChallenge
	err = tx.QueryRowContext(ctx, `
		SELECT id, user_id, challenge, expires_at FROM passkey_challenges WHERE id = ?
	`, id).Scan(&c.ID, &c.UserID, &c.Challenge, &c.ExpiresAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM passkey_challenges WHERE id = ? OR expires_at < ?`, id, r.clock().Unix()); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &c, nil
}
