package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/abrezinsky/surveydesk/internal/models"
	"github.com/abrezinsky/surveydesk/internal/paginator"
)

const bankColumns = `id, uuid, type, text, options, category, created_by, created_at`

func scanBankItem(row interface{ Scan(...any) error }) (*models.QuestionBankItem, error) {
	var item models.QuestionBankItem
	var options string
	var createdAt sql.NullString
	if err := row.Scan(&item.ID, &item.UUID, &item.Type, &item.Text, &options,
		&item.Category, &item.CreatedBy, &createdAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(options), &item.Options); err != nil {
		return nil, err
	}
	item.CreatedAt = createdAt.String
	return &item, nil
}

// CreateBankItem inserts a question bank item
func (r *Repository) CreateBankItem(ctx context.Context, item models.QuestionBankItem) (int64, error) {
	options, err := json.Marshal(nonNil(item.Options))
	if err != nil {
		return 0, err
	}
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO question_bank (uuid, type, text, options, category, created_by)
		VALUES (?, ?, ?, ?, ?, ?)
	`, item.UUID, item.Type, item.Text, string(options), item.Category, item.CreatedBy)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// GetBankItem retrieves a question bank item
func (r *Repository) GetBankItem(ctx context.Context, id int) (*models.QuestionBankItem, error) {
	item, err := scanBankItem(r.db.QueryRowContext(ctx, `SELECT `+bankColumns+` FROM question_bank WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return item, err
}

// UpdateBankItem updates a question bank item
func (r *Repository) UpdateBankItem(ctx context.Context, item models.QuestionBankItem) error {
	options, err := json.Marshal(nonNil(item.Options))
	if err != nil {
		return err
	}
	return affectedOrNotFound(r.db.ExecContext(ctx, `
		UPDATE question_bank SET type = ?, text = ?, options = ?, category = ? WHERE id = ?
	`, item.Type, item.Text, string(options), item.Category, item.ID))
}

// DeleteBankItem deletes a question bank item
func (r *Repository) DeleteBankItem(ctx context.Context, id int) error {
	return affectedOrNotFound(r.db.ExecContext(ctx, `DELETE FROM question_bank WHERE id = ?`, id))
}

// ListBankItems returns a page of bank items, optionally in one category
func (r *Repository) ListBankItems(ctx context.Context, category string, page, limit int) (*paginator.Page[models.QuestionBankItem], error) {
	query := `SELECT ` + bankColumns + ` FROM question_bank`
	var args []any
	if category != "" {
		query += ` WHERE category = ?`
		args = append(args, category)
	}
	query += ` ORDER BY category, id`

	return paginator.Query(ctx, r.db, query, args, page, limit, func(rows *sql.Rows) (models.QuestionBankItem, error) {
		item, err := scanBankItem(rows)
		if err != nil {
			return models.QuestionBankItem{}, err
		}
		return *item, nil
	})
}

// ListBankCategories returns the distinct categories in use
func (r *Repository) ListBankCategories(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT category FROM question_bank WHERE category != '' ORDER BY category`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := []string{}
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
