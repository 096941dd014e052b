package search

// Result is a single issue hit returned to the caller.
type Result struct {
	ID      int64  `json:"id"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	Status  string `json:"status"`
}

// Query describes a search request over the issue list.
type Query struct {
	Text         string
	FilterStatus string // empty = all statuses
	Limit        int
	Offset       int
}

// Response is the envelope returned by the search endpoint.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}

// Searcher can execute a full-text search over issues.
type Searcher interface {
	Search(q Query) ([]Result, int, error)
	Healthy() bool
}

// IssueRecord is the data indexed per issue.
type IssueRecord struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
}
