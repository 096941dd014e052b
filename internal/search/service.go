package search

import "log"

// Service is the facade that tries Meilisearch first and falls back to the
// secondary searcher (Postgres FTS in production, a linear scan in demo mode).
type Service struct {
	meili    *Meili
	fallback Searcher
}

// NewService creates a search service. meili may be nil if Meilisearch is not
// configured.
func NewService(meili *Meili, fallback Searcher) *Service {
	return &Service{meili: meili, fallback: fallback}
}

// Search tries Meilisearch if healthy, otherwise uses the fallback.
func (s *Service) Search(q Query) Response {
	if s.meili != nil && s.meili.Healthy() {
		results, total, err := s.meili.Search(q)
		if err == nil {
			return Response{Results: nonNil(results), Total: total, Query: q.Text}
		}
		log.Printf("search: meilisearch error, falling back: %v", err)
	}

	results, total, err := s.fallback.Search(q)
	if err != nil {
		log.Printf("search: fallback error: %v", err)
		return Response{Results: []Result{}, Total: 0, Query: q.Text}
	}
	return Response{Results: nonNil(results), Total: total, Query: q.Text}
}

// IndexIssue indexes an issue (fire-and-forget to Meilisearch).
func (s *Service) IndexIssue(record IssueRecord) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.IndexIssue(record); err != nil {
			log.Printf("search: index issue %d: %v", record.ID, err)
		}
	}()
}

// ReindexAll pushes all issues into Meilisearch. Called during Bootstrap.
func (s *Service) ReindexAll(records []IssueRecord) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	if err := s.meili.IndexIssues(records); err != nil {
		log.Printf("search: reindex issues: %v", err)
	}
}

func nonNil(r []Result) []Result {
	if r == nil {
		return []Result{}
	}
	return r
}
