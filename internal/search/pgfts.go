package search

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// PgFTS implements Searcher using PostgreSQL full-text search as a fallback.
type PgFTS struct {
	db *sql.DB
}

// NewPgFTS creates a PostgreSQL FTS searcher.
func NewPgFTS(db *sql.DB) *PgFTS {
	return &PgFTS{db: db}
}

// Healthy always returns true — if Postgres is down, the whole app is down.
func (p *PgFTS) Healthy() bool {
	return true
}

// Search queries the issues table with plainto_tsquery and ts_rank, using
// ts_headline for snippets.
func (p *PgFTS) Search(q Query) ([]Result, int, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, 0, nil
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	where := "fts @@ plainto_tsquery('english', $1)"
	args := []any{q.Text}
	if q.FilterStatus != "" {
		where += " AND status = $2"
		args = append(args, q.FilterStatus)
	}

	ctx := context.Background()

	var total int
	countSQL := "SELECT count(*) FROM issues WHERE " + where
	if err := p.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("pgfts count: %w", err)
	}

	dataSQL := fmt.Sprintf(`
		SELECT id, title,
			ts_headline('english', description, plainto_tsquery('english', $1), 'MaxFragments=1,MaxWords=30') AS snippet,
			status
		FROM issues
		WHERE %s
		ORDER BY ts_rank(fts, plainto_tsquery('english', $1)) DESC
		LIMIT %d OFFSET %d`, where, limit, offset)

	rows, err := p.db.QueryContext(ctx, dataSQL, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("pgfts query: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		if err := rows.Scan(&r.ID, &r.Title, &r.Snippet, &r.Status); err != nil {
			return nil, 0, fmt.Errorf("pgfts scan: %w", err)
		}
		results = append(results, r)
	}

	return results, total, rows.Err()
}

// LoadAllRecords returns all issues for full reindexing into Meilisearch.
func (p *PgFTS) LoadAllRecords(ctx context.Context) ([]IssueRecord, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT id, title, description, status FROM issues`)
	if err != nil {
		return nil, fmt.Errorf("load issues: %w", err)
	}
	defer rows.Close()

	records := make([]IssueRecord, 0)
	for rows.Next() {
		var r IssueRecord
		if err := rows.Scan(&r.ID, &r.Title, &r.Description, &r.Status); err != nil {
			return nil, fmt.Errorf("scan issue: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
