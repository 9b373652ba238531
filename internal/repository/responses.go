package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/abrezinsky/surveydesk/internal/models"
)

// CreateResponse stores a response and, for a logged-in respondent, credits
// xp in the same transaction. A second response by the same user returns
// ErrDuplicate and credits nothing.
func (r *Repository) CreateResponse(ctx context.Context, resp models.Response, xp int) (int64, error) {
	answers, err := json.Marshal(resp.Answers)
	if err != nil {
		return 0, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		INSERT INTO responses (survey_id, user_id, answers) VALUES (?, ?, ?)
	`, resp.SurveyID, nullInt(resp.UserID), string(answers))
	if isUniqueViolation(err) {
		return 0, ErrDuplicate
	}
	if err != nil {
		return 0, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}

	if resp.UserID != nil && xp > 0 {
		if _, err := tx.ExecContext(ctx, `UPDATE users SET xp = xp + ? WHERE id = ?`, xp, *resp.UserID); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// CountResponses returns the number of responses to a survey
func (r *Repository) CountResponses(ctx context.Context, surveyID int) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM responses WHERE survey_id = ?`, surveyID).Scan(&n)
	return n, err
}

// HasResponded reports whether a user already answered a survey
func (r *Repository) HasResponded(ctx context.Context, surveyID, userID int) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM responses WHERE survey_id = ? AND user_id = ?`, surveyID, userID).Scan(&n)
	return n > 0, err
}

// ListResponses returns all responses to a survey in submission order
func (r *Repository) ListResponses(ctx context.Context, surveyID int) ([]models.Response, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, survey_id, user_id, answers, created_at
		FROM responses WHERE survey_id = ? ORDER BY id
	`, surveyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	responses := []models.Response{}
	for rows.Next() {
		var resp models.Response
		var userID sql.NullInt64
		var answers string
		var createdAt sql.NullString
		if err := rows.Scan(&resp.ID, &resp.SurveyID, &userID, &answers, &createdAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(answers), &resp.Answers); err != nil {
			return nil, err
		}
		resp.UserID = intPtr(userID)
		resp.CreatedAt = createdAt.String
		responses = append(responses, resp)
	}
	return responses, rows.Err()
}
