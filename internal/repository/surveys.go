package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/abrezinsky/surveydesk/internal/models"
	"github.com/abrezinsky/surveydesk/internal/paginator"
)

// SurveyFilter narrows ListSurveys
type SurveyFilter struct {
	Published  *bool
	QuickPoll  *bool
	CreatedBy  int
	BusinessID int
	Search     string
}

const surveyColumns = `s.id, s.uuid, s.title, s.description, s.participant_min, s.participant_max,
	s.published, s.is_quick_poll, s.business_id, s.created_by, s.created_at, s.updated_at,
	(SELECT COUNT(*) FROM responses rs WHERE rs.survey_id = s.id)`

func scanSurvey(row interface{ Scan(...any) error }) (*models.Survey, error) {
	var s models.Survey
	var min, max, business sql.NullInt64
	var createdAt, updatedAt sql.NullString
	if err := row.Scan(&s.ID, &s.UUID, &s.Title, &s.Description, &min, &max,
		&s.Published, &s.IsQuickPoll, &business, &s.CreatedBy, &createdAt, &updatedAt, &s.ResponseCount); err != nil {
		return nil, err
	}
	s.ParticipantMin = intPtr(min)
	s.ParticipantMax = intPtr(max)
	s.BusinessID = intPtr(business)
	s.CreatedAt = createdAt.String
	s.UpdatedAt = updatedAt.String
	return &s, nil
}

// SaveSurvey inserts (ID == 0) or updates a survey and replaces its whole
// question list in one transaction. Returns the survey ID.
func (r *Repository) SaveSurvey(ctx context.Context, s *models.Survey) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	id := int64(s.ID)
	if id == 0 {
		result, err := tx.ExecContext(ctx, `
			INSERT INTO surveys (uuid, title, description, participant_min, participant_max,
				published, is_quick_poll, business_id, created_by)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, s.UUID, s.Title, s.Description, nullInt(s.ParticipantMin), nullInt(s.ParticipantMax),
			s.Published, s.IsQuickPoll, nullInt(s.BusinessID), s.CreatedBy)
		if isUniqueViolation(err) {
			return 0, ErrDuplicate
		}
		if err != nil {
			return 0, err
		}
		if id, err = result.LastInsertId(); err != nil {
			return 0, err
		}
	} else {
		err := affectedOrNotFound(tx.ExecContext(ctx, `
			UPDATE surveys SET title = ?, description = ?, participant_min = ?, participant_max = ?,
				business_id = ?, updated_at = CURRENT_TIMESTAMP
			WHERE id = ?
		`, s.Title, s.Description, nullInt(s.ParticipantMin), nullInt(s.ParticipantMax), nullInt(s.BusinessID), id))
		if err != nil {
			return 0, err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM questions WHERE survey_id = ?`, id); err != nil {
			return 0, err
		}
	}

	if err := insertQuestions(ctx, tx, id, s.Questions); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

func insertQuestions(ctx context.Context, tx *sql.Tx, surveyID int64, qs []models.Question) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO questions (uuid, survey_id, sequence_number, type, text, options, required,
			conditional_logic_rules, branch)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, q := range qs {
		options := q.Options
		if options == nil {
			options = []string{}
		}
		optionsJSON, err := json.Marshal(options)
		if err != nil {
			return err
		}
		var rules sql.NullString
		if q.ConditionalLogicRules != nil {
			b, err := json.Marshal(q.ConditionalLogicRules)
			if err != nil {
				return err
			}
			rules = sql.NullString{String: string(b), Valid: true}
		}
		var branch sql.NullString
		if len(q.Branch) > 0 {
			branch = sql.NullString{String: string(q.Branch), Valid: true}
		}

		if _, err := stmt.ExecContext(ctx, q.UUID, surveyID, q.SequenceNumber, q.Type, q.Text,
			string(optionsJSON), q.Required, rules, branch); err != nil {
			return fmt.Errorf("insert question %d: %w", q.SequenceNumber, err)
		}
	}
	return nil
}

// GetSurvey retrieves a survey with its questions
func (r *Repository) GetSurvey(ctx context.Context, id int) (*models.Survey, error) {
	return r.getSurvey(ctx, `s.id = ?`, id)
}

// GetSurveyByUUID retrieves a survey with its questions by public UUID
func (r *Repository) GetSurveyByUUID(ctx context.Context, uuid string) (*models.Survey, error) {
	return r.getSurvey(ctx, `s.uuid = ?`, uuid)
}

func (r *Repository) getSurvey(ctx context.Context, where string, arg any) (*models.Survey, error) {
	s, err := scanSurvey(r.db.QueryRowContext(ctx, `SELECT `+surveyColumns+` FROM surveys s WHERE `+where, arg))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	s.Questions, err = r.ListQuestions(ctx, s.ID)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// ListQuestions returns a survey's questions in sequence order
func (r *Repository) ListQuestions(ctx context.Context, surveyID int) ([]models.Question, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, uuid, survey_id, sequence_number, type, text, options, required,
			conditional_logic_rules, branch
		FROM questions WHERE survey_id = ?
		ORDER BY sequence_number
	`, surveyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	questions := []models.Question{}
	for rows.Next() {
		var q models.Question
		var options string
		var rules, branch sql.NullString
		if err := rows.Scan(&q.ID, &q.UUID, &q.SurveyID, &q.SequenceNumber, &q.Type, &q.Text,
			&options, &q.Required, &rules, &branch); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(options), &q.Options); err != nil {
			return nil, fmt.Errorf("question %d options: %w", q.ID, err)
		}
		if rules.Valid && rules.String != "" && rules.String != "null" {
			q.ConditionalLogicRules = &models.ConditionalLogicRules{}
			if err := json.Unmarshal([]byte(rules.String), q.ConditionalLogicRules); err != nil {
				return nil, fmt.Errorf("question %d rules: %w", q.ID, err)
			}
		}
		if branch.Valid && branch.String != "" {
			q.Branch = json.RawMessage(branch.String)
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// ListSurveys returns a page of surveys without questions, newest first
func (r *Repository) ListSurveys(ctx context.Context, f SurveyFilter, page, limit int) (*paginator.Page[models.Survey], error) {
	var where []string
	var args []any
	if f.Published != nil {
		where = append(where, `s.published = ?`)
		args = append(args, *f.Published)
	}
	if f.QuickPoll != nil {
		where = append(where, `s.is_quick_poll = ?`)
		args = append(args, *f.QuickPoll)
	}
	if f.CreatedBy > 0 {
		where = append(where, `s.created_by = ?`)
		args = append(args, f.CreatedBy)
	}
	if f.BusinessID > 0 {
		where = append(where, `s.business_id = ?`)
		args = append(args, f.BusinessID)
	}
	if search := strings.TrimSpace(f.Search); search != "" {
		where = append(where, `(s.title LIKE ? OR s.description LIKE ?)`)
		like := "%" + search + "%"
		args = append(args, like, like)
	}

	query := `SELECT ` + surveyColumns + ` FROM surveys s`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY s.id DESC`

	return paginator.Query(ctx, r.db, query, args, page, limit, func(rows *sql.Rows) (models.Survey, error) {
		s, err := scanSurvey(rows)
		if err != nil {
			return models.Survey{}, err
		}
		s.Questions = []models.Question{}
		return *s, nil
	})
}

// SetPublished publishes or unpublishes a survey
func (r *Repository) SetPublished(ctx context.Context, id int, published bool) error {
	return affectedOrNotFound(r.db.ExecContext(ctx,
		`UPDATE surveys SET published = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, published, id))
}

// DeleteSurvey deletes a survey with its questions and responses
func (r *Repository) DeleteSurvey(ctx context.Context, id int) error {
	return affectedOrNotFound(r.db.ExecContext(ctx, `DELETE FROM surveys WHERE id = ?`, id))
}
