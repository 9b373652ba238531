package paginator

import (
	"context"
	"database/sql"
	"fmt"
)

// Default and maximum page sizes
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Page is one page of a listing
type Page[T any] struct {
	Items       []T  `json:"items"`
	CurrentPage int  `json:"current_page"`
	TotalPages  int  `json:"total_pages"`
	PrevPage    *int `json:"prev_page"`
	NextPage    *int `json:"next_page"`
	TotalItems  int  `json:"total_items"`
}

// Querier is the subset of *sql.DB and *sql.Tx used for paging
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// ScanFunc reads one item from the current row
type ScanFunc[T any] func(rows *sql.Rows) (T, error)

// Clamp normalizes page and limit
func Clamp(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return page, limit
}

// Query pages through the rows of query. The query must not carry its own
// LIMIT or OFFSET; ORDER BY is kept.
func Query[T any](ctx context.Context, db Querier, query string, args []any, page, limit int, scan ScanFunc[T]) (*Page[T], error) {
	page, limit = Clamp(page, limit)
	offset := (page - 1) * limit

	var totalItems int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM (%s) AS total_count", query)
	if err := db.QueryRowContext(ctx, countQuery, args...).Scan(&totalItems); err != nil {
		return nil, err
	}

	pagedArgs := append(append([]any(nil), args...), limit, offset)
	rows, err := db.QueryContext(ctx, query+" LIMIT ? OFFSET ?", pagedArgs...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []T{}
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return build(items, page, limit, totalItems), nil
}

// Slice pages through an in-memory list
func Slice[T any](all []T, page, limit int) *Page[T] {
	page, limit = Clamp(page, limit)

	start := (page - 1) * limit
	if start > len(all) {
		start = len(all)
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}

	items := append([]T{}, all[start:end]...)
	return build(items, page, limit, len(all))
}

func build[T any](items []T, page, limit, totalItems int) *Page[T] {
	totalPages := (totalItems + limit - 1) / limit

	var prevPage, nextPage *int
	if page > 1 {
		p := page - 1
		prevPage = &p
	}
	if page < totalPages {
		p := page + 1
		nextPage = &p
	}

	return &Page[T]{
		Items:       items,
		CurrentPage: page,
		TotalPages:  totalPages,
		PrevPage:    prevPage,
		NextPage:    nextPage,
		TotalItems:  totalItems,
	}
}
