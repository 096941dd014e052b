package search

import (
	"context"
	"strings"

	"civicport/api/internal/store"
)

// IssueLister is the subset of the issue store the linear searcher needs.
type IssueLister interface {
	ListIssues(ctx context.Context) ([]store.Issue, error)
}

// Linear implements Searcher with a case-insensitive substring scan over the
// issue list. It backs demo deployments that have neither Meilisearch nor
// Postgres.
type Linear struct {
	issues IssueLister
}

// NewLinear creates a linear-scan searcher over the given store.
func NewLinear(issues IssueLister) *Linear {
	return &Linear{issues: issues}
}

// Healthy always returns true.
func (l *Linear) Healthy() bool {
	return true
}

// Search scans all issues for the query text in title or description.
func (l *Linear) Search(q Query) ([]Result, int, error) {
	text := strings.ToLower(strings.TrimSpace(q.Text))
	if text == "" {
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

	issues, err := l.issues.ListIssues(context.Background())
	if err != nil {
		return nil, 0, err
	}

	var matches []Result
	for _, issue := range issues {
		if q.FilterStatus != "" && issue.Status != q.FilterStatus {
			continue
		}
		if !strings.Contains(strings.ToLower(issue.Title), text) &&
			!strings.Contains(strings.ToLower(issue.Description), text) {
			continue
		}
		matches = append(matches, Result{
			ID:      issue.ID,
			Title:   issue.Title,
			Snippet: issue.Description,
			Status:  issue.Status,
		})
	}

	total := len(matches)
	if offset >= total {
		return []Result{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return matches[offset:end], total, nil
}
