// Package dashboard computes role-specific view models over the issue list.
// Projection is pure: no I/O, no hidden state, issue order preserved.
package dashboard

import (
	"civicport/api/internal/rbac"
	"civicport/api/internal/store"
)

// Action names referenced by view models. The review/approve/reject actions
// are presentation stubs: the API records them but they change no issue state.
const (
	ActionUpvote  = "upvote"
	ActionReview  = "review"
	ActionApprove = "approve"
	ActionReject  = "reject"
)

// Field describes one input of the citizen submission form.
type Field struct {
	Name     string `json:"name"`
	Label    string `json:"label"`
	Required bool   `json:"required"`
}

// Form is the submission-form descriptor on the citizen dashboard.
type Form struct {
	Action string  `json:"action"`
	Fields []Field `json:"fields"`
}

// Card is an issue rendered for the citizen grid or the moderation queue.
type Card struct {
	ID          int64    `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Status      string   `json:"status"`
	Upvotes     int      `json:"upvotes"`
	Actions     []string `json:"actions"`
}

// Row is an issue rendered for the politician review table.
type Row struct {
	ID      int64    `json:"id"`
	Title   string   `json:"title"`
	Status  string   `json:"status"`
	Upvotes int      `json:"upvotes"`
	Actions []string `json:"actions"`
}

// StatBox is one tile of the admin statistics view.
type StatBox struct {
	Label string `json:"label"`
	Value int    `json:"value"`
}

// Stats carries the aggregate numbers the admin view projects. ActiveUsers
// comes from the identity store, not from the issue list.
type Stats struct {
	TotalIssues    int
	ActiveUsers    int
	ResolvedIssues int
}

// View is the projected dashboard for one role. Exactly one of the section
// fields is populated per role.
type View struct {
	Role  string    `json:"role"`
	Form  *Form     `json:"form,omitempty"`
	Cards []Card    `json:"cards,omitempty"`
	Rows  []Row     `json:"rows,omitempty"`
	Stats []StatBox `json:"stats,omitempty"`
}

// Project maps (role, issues, stats) to the view model for that role.
func Project(role rbac.Role, issues []store.Issue, stats Stats) View {
	view := View{Role: string(role)}
	switch role {
	case rbac.RoleCitizen:
		view.Form = &Form{
			Action: "submit",
			Fields: []Field{
				{Name: "title", Label: "Issue title", Required: true},
				{Name: "description", Label: "Description", Required: true},
			},
		}
		view.Cards = cards(issues, []string{ActionUpvote})
	case rbac.RolePolitician:
		rows := make([]Row, 0, len(issues))
		for _, issue := range issues {
			rows = append(rows, Row{
				ID:      issue.ID,
				Title:   issue.Title,
				Status:  issue.Status,
				Upvotes: issue.Upvotes,
				Actions: []string{ActionReview},
			})
		}
		view.Rows = rows
	case rbac.RoleModerator:
		view.Cards = cards(issues, []string{ActionApprove, ActionReject})
	case rbac.RoleAdmin:
		view.Stats = []StatBox{
			{Label: "Total Issues", Value: stats.TotalIssues},
			{Label: "Active Users", Value: stats.ActiveUsers},
			{Label: "Resolved Issues", Value: stats.ResolvedIssues},
		}
	}
	return view
}

func cards(issues []store.Issue, actions []string) []Card {
	items := make([]Card, 0, len(issues))
	for _, issue := range issues {
		items = append(items, Card{
			ID:          issue.ID,
			Title:       issue.Title,
			Description: issue.Description,
			Status:      issue.Status,
			Upvotes:     issue.Upvotes,
			Actions:     actions,
		})
	}
	return items
}
