package dashboard

import (
	"reflect"
	"testing"

	"civicport/api/internal/rbac"
	"civicport/api/internal/store"
)

func demoIssues() []store.Issue {
	issues := store.SeedIssues()
	for i := range issues {
		issues[i].ID = int64(i + 1)
	}
	return issues
}

func TestCitizenViewHasFormAndCards(t *testing.T) {
	view := Project(rbac.RoleCitizen, demoIssues(), Stats{})

	if view.Form == nil {
		t.Fatal("expected citizen view to carry a submission form")
	}
	if len(view.Form.Fields) != 2 {
		t.Fatalf("expected 2 form fields, got %d", len(view.Form.Fields))
	}
	for _, field := range view.Form.Fields {
		if !field.Required {
			t.Errorf("expected field %s to be required", field.Name)
		}
	}

	if len(view.Cards) != 3 {
		t.Fatalf("expected 3 cards, got %d", len(view.Cards))
	}
	first := view.Cards[0]
	if first.Title != "Road Maintenance" || first.Description != "Pothole on Main St" || first.Upvotes != 23 {
		t.Errorf("unexpected first card: %+v", first)
	}
	if !reflect.DeepEqual(first.Actions, []string{ActionUpvote}) {
		t.Errorf("expected upvote action, got %v", first.Actions)
	}
	if view.Rows != nil || view.Stats != nil {
		t.Error("citizen view should not carry rows or stats")
	}
}

func TestPoliticianViewIsTable(t *testing.T) {
	view := Project(rbac.RolePolitician, demoIssues(), Stats{})

	if len(view.Rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(view.Rows))
	}
	for i, row := range view.Rows {
		if row.ID != int64(i+1) {
			t.Errorf("row %d out of insertion order: id %d", i, row.ID)
		}
		if !reflect.DeepEqual(row.Actions, []string{ActionReview}) {
			t.Errorf("expected review action, got %v", row.Actions)
		}
	}
	if view.Form != nil || view.Cards != nil || view.Stats != nil {
		t.Error("politician view should only carry rows")
	}
}

func TestModeratorViewHasApproveReject(t *testing.T) {
	view := Project(rbac.RoleModerator, demoIssues(), Stats{})

	if len(view.Cards) != 3 {
		t.Fatalf("expected 3 cards, got %d", len(view.Cards))
	}
	if !reflect.DeepEqual(view.Cards[0].Actions, []string{ActionApprove, ActionReject}) {
		t.Errorf("expected approve/reject actions, got %v", view.Cards[0].Actions)
	}
	if view.Form != nil {
		t.Error("moderator view should not carry a submission form")
	}
}

func TestAdminViewStats(t *testing.T) {
	view := Project(rbac.RoleAdmin, demoIssues(), Stats{TotalIssues: 3, ActiveUsers: 245, ResolvedIssues: 1})

	want := []StatBox{
		{Label: "Total Issues", Value: 3},
		{Label: "Active Users", Value: 245},
		{Label: "Resolved Issues", Value: 1},
	}
	if !reflect.DeepEqual(view.Stats, want) {
		t.Fatalf("expected %v, got %v", want, view.Stats)
	}
	if view.Form != nil || view.Cards != nil || view.Rows != nil {
		t.Error("admin view should only carry stats")
	}
}

func TestProjectionIsPure(t *testing.T) {
	issues := demoIssues()
	stats := Stats{TotalIssues: 3, ActiveUsers: 10, ResolvedIssues: 1}

	for _, role := range []rbac.Role{rbac.RoleCitizen, rbac.RolePolitician, rbac.RoleModerator, rbac.RoleAdmin} {
		first := Project(role, issues, stats)
		second := Project(role, issues, stats)
		if !reflect.DeepEqual(first, second) {
			t.Errorf("role %s: identical inputs projected different views", role)
		}
	}

	// Projection must not touch its input.
	if issues[0].Upvotes != 23 || len(issues) != 3 {
		t.Error("projection mutated the issue list")
	}
}

func TestProjectionPreservesInsertionOrder(t *testing.T) {
	issues := demoIssues()
	view := Project(rbac.RoleCitizen, issues, Stats{})
	for i, card := range view.Cards {
		if card.ID != issues[i].ID {
			t.Fatalf("card %d: expected id %d, got %d", i, issues[i].ID, card.ID)
		}
	}
}
