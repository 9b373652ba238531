package repository

import (
	"context"
	"database/sql"

	"github.com/abrezinsky/surveydesk/internal/models"
	"github.com/abrezinsky/surveydesk/internal/paginator"
)

// Idea list orders
const (
	IdeaSortTop = "top"
	IdeaSortNew = "new"
)

const ideaColumns = `i.id, i.title, i.description, i.author_id, u.name, i.status, i.created_at,
	(SELECT COUNT(*) FROM idea_votes v WHERE v.idea_id = i.id),
	EXISTS(SELECT 1 FROM idea_votes v WHERE v.idea_id = i.id AND v.user_id = ?)`

func scanIdea(row interface{ Scan(...any) error }) (*models.Idea, error) {
	var idea models.Idea
	var createdAt sql.NullString
	if err := row.Scan(&idea.ID, &idea.Title, &idea.Description, &idea.AuthorID, &idea.AuthorName,
		&idea.Status, &createdAt, &idea.Votes, &idea.Voted); err != nil {
		return nil, err
	}
	idea.CreatedAt = createdAt.String
	return &idea, nil
}

// CreateIdea inserts an idea in status open
func (r *Repository) CreateIdea(ctx context.Context, idea models.Idea) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO ideas (title, description, author_id, status) VALUES (?, ?, ?, ?)
	`, idea.Title, idea.Description, idea.AuthorID, models.IdeaOpen)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// GetIdea retrieves an idea; Voted reflects viewerID (0 for anonymous)
func (r *Repository) GetIdea(ctx context.Context, id, viewerID int) (*models.Idea, error) {
	idea, err := scanIdea(r.db.QueryRowContext(ctx, `
		SELECT `+ideaColumns+` FROM ideas i JOIN users u ON u.id = i.author_id WHERE i.id = ?
	`, viewerID, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return idea, err
}

// ListIdeas returns a page of ideas ordered by votes (top) or recency (new)
func (r *Repository) ListIdeas(ctx context.Context, sort, status string, viewerID, page, limit int) (*paginator.Page[models.Idea], error) {
	query := `SELECT ` + ideaColumns + ` FROM ideas i JOIN users u ON u.id = i.author_id`
	args := []any{viewerID}
	if status != "" {
		query += ` WHERE i.status = ?`
		args = append(args, status)
	}
	if sort == IdeaSortNew {
		query += ` ORDER BY i.id DESC`
	} else {
		query += ` ORDER BY (SELECT COUNT(*) FROM idea_votes v WHERE v.idea_id = i.id) DESC, i.id DESC`
	}

	return paginator.Query(ctx, r.db, query, args, page, limit, func(rows *sql.Rows) (models.Idea, error) {
		idea, err := scanIdea(rows)
		if err != nil {
			return models.Idea{}, err
		}
		return *idea, nil
	})
}

// ToggleVote adds the user's vote, or removes it if present. Returns the
// new voted state and vote count.
func (r *Repository) ToggleVote(ctx context.Context, ideaID, userID int) (bool, int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, 0, err
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM ideas WHERE id = ?`, ideaID).Scan(&exists); err != nil {
		return false, 0, err
	}
	if exists == 0 {
		return false, 0, ErrNotFound
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM idea_votes WHERE idea_id = ? AND user_id = ?`, ideaID, userID)
	if err != nil {
		return false, 0, err
	}
	removed, err := result.RowsAffected()
	if err != nil {
		return false, 0, err
	}
	voted := removed == 0
	if voted {
		if _, err := tx.ExecContext(ctx, `INSERT INTO idea_votes (idea_id, user_id) VALUES (?, ?)`, ideaID, userID); err != nil {
			return false, 0, err
		}
	}

	var votes int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM idea_votes WHERE idea_id = ?`, ideaID).Scan(&votes); err != nil {
		return false, 0, err
	}
	if err := tx.Commit(); err != nil {
		return false, 0, err
	}
	return voted, votes, nil
}

// AddIdeaComment inserts a comment
func (r *Repository) AddIdeaComment(ctx context.Context, c models.IdeaComment) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO idea_comments (idea_id, author_id, body) VALUES (?, ?, ?)
	`, c.IdeaID, c.AuthorID, c.Body)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// ListIdeaComments returns an idea's comments, oldest first
func (r *Repository) ListIdeaComments(ctx context.Context, ideaID int) ([]models.IdeaComment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.id, c.idea_id, c.author_id, u.name, c.body, c.created_at
		FROM idea_comments c JOIN users u ON u.id = c.author_id
		WHERE c.idea_id = ? ORDER BY c.id
	`, ideaID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := []models.IdeaComment{}
	for rows.Next() {
		var c models.IdeaComment
		var createdAt sql.NullString
		if err := rows.Scan(&c.ID, &c.IdeaID, &c.AuthorID, &c.AuthorName, &c.Body, &createdAt); err != nil {
			return nil, err
		}
		c.CreatedAt = createdAt.String
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// UpdateIdeaStatus changes an idea's status
func (r *Repository) UpdateIdeaStatus(ctx context.Context, id int, status string) error {
	return affectedOrNotFound(r.db.ExecContext(ctx, `UPDATE ideas SET status = ? WHERE id = ?`, status, id))
}

// ==================== Bug Report Methods ====================

// CreateBugReport inserts a bug report in status open
func (r *Repository) CreateBugReport(ctx context.Context, b models.BugReport) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO bug_reports (user_id, title, description, severity, page_url, status)
		VALUES (?, ?, ?, ?, ?, 'open')
	`, nullInt(b.UserID), b.Title, b.Description, b.Severity, b.PageURL)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// ListBugReports returns a page of bug reports, newest first
func (r *Repository) ListBugReports(ctx context.Context, status string, page, limit int) (*paginator.Page[models.BugReport], error) {
	query := `SELECT id, user_id, title, description, severity, page_url, status, created_at FROM bug_reports`
	var args []any
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY id DESC`

	return paginator.Query(ctx, r.db, query, args, page, limit, func(rows *sql.Rows) (models.BugReport, error) {
		var b models.BugReport
		var userID sql.NullInt64
		var createdAt sql.NullString
		err := rows.Scan(&b.ID, &userID, &b.Title, &b.Description, &b.Severity, &b.PageURL, &b.Status, &createdAt)
		b.UserID = intPtr(userID)
		b.CreatedAt = createdAt.String
		return b, err
	})
}

// UpdateBugReportStatus changes a bug report's status
func (r *Repository) UpdateBugReportStatus(ctx context.Context, id int, status string) error {
	return affectedOrNotFound(r.db.ExecContext(ctx, `UPDATE bug_reports SET status = ? WHERE id = ?`, status, id))
}
