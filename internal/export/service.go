package export

import (
	"context"
	"fmt"
	"time"

	"civicport/api/internal/store"
)

// DataStore defines the data access the report builder needs.
type DataStore interface {
	ListIssues(ctx context.Context) ([]store.Issue, error)
	SummaryCounts(ctx context.Context) (total int, resolved int, err error)
	CountUsers(ctx context.Context) (int, error)
}

// Service generates the admin issue report.
type Service struct {
	store DataStore
	now   func() time.Time
}

// NewService creates a new export service
func NewService(st DataStore) *Service {
	return &Service{store: st, now: time.Now}
}

// Export generates the issue report in the requested format.
func (s *Service) Export(ctx context.Context, req Request) (*Result, error) {
	issues, err := s.store.ListIssues(ctx)
	if err != nil {
		return nil, fmt.Errorf("list issues: %w", err)
	}
	total, resolved, err := s.store.SummaryCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("summary counts: %w", err)
	}
	users, err := s.store.CountUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}

	data := TemplateData{
		Title:          "Civic Portal Issue Report",
		GeneratedAt:    s.now(),
		RequestedBy:    req.RequestedBy,
		TotalIssues:    total,
		ActiveUsers:    users,
		ResolvedIssues: resolved,
		Issues:         make([]ReportIssue, 0, len(issues)),
	}
	for _, issue := range issues {
		data.Issues = append(data.Issues, ReportIssue{
			ID:          issue.ID,
			Title:       issue.Title,
			Description: issue.Description,
			Status:      issue.Status,
			Upvotes:     issue.Upvotes,
			Author:      issue.Author,
			Date:        issue.Date,
		})
	}

	html, err := RenderReportHTML(data)
	if err != nil {
		return nil, fmt.Errorf("render template: %w", err)
	}

	switch req.Format {
	case FormatPDF:
		return exportPDF(html, data.Title)
	case FormatDOCX:
		return exportDOCX(html, data.Title)
	default:
		return nil, fmt.Errorf("unsupported format: %s", req.Format)
	}
}
