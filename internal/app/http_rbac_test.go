package app

import (
	"net/http"
	"testing"
)

func assertForbidden(t *testing.T, p *testPortal, method, path, token string, body any) {
	t.Helper()
	rr := p.do(t, method, path, token, body)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("%s %s: expected status 403, got %d body=%s", method, path, rr.Code, rr.Body.String())
	}
	payload := decodeJSON(t, rr)
	if payload["code"] != "FORBIDDEN" {
		t.Fatalf("expected code FORBIDDEN, got %v", payload["code"])
	}
}

func TestCitizenPermissions(t *testing.T) {
	p := newTestPortal(t)
	token := p.login(t, "cit@example.com", "citizen")

	if rr := p.do(t, http.MethodPost, "/api/issues/1/upvote", token, nil); rr.Code != http.StatusOK {
		t.Fatalf("citizen upvote: expected 200, got %d", rr.Code)
	}
	assertForbidden(t, p, http.MethodPost, "/api/issues/1/review", token, nil)
	assertForbidden(t, p, http.MethodPost, "/api/issues/1/approve", token, nil)
	assertForbidden(t, p, http.MethodGet, "/api/admin/moderation-log", token, nil)
	assertForbidden(t, p, http.MethodGet, "/api/admin/report", token, nil)
}

func TestPoliticianPermissions(t *testing.T) {
	p := newTestPortal(t)
	token := p.login(t, "pol@example.com", "politician")

	if rr := p.do(t, http.MethodPost, "/api/issues/1/review", token, nil); rr.Code != http.StatusOK {
		t.Fatalf("politician review: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	assertForbidden(t, p, http.MethodPost, "/api/issues", token, map[string]string{
		"title": "x", "description": "y",
	})
	assertForbidden(t, p, http.MethodPost, "/api/issues/1/approve", token, nil)
	assertForbidden(t, p, http.MethodGet, "/api/admin/report", token, nil)
}

func TestModeratorPermissions(t *testing.T) {
	p := newTestPortal(t)
	token := p.login(t, "mod@example.com", "moderator")

	for _, action := range []string{"approve", "reject"} {
		rr := p.do(t, http.MethodPost, "/api/issues/2/"+action, token, nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("moderator %s: expected 200, got %d body=%s", action, rr.Code, rr.Body.String())
		}
		payload := decodeJSON(t, rr)
		if payload["action"] != action {
			t.Errorf("expected action %s echoed, got %v", action, payload["action"])
		}
	}

	if rr := p.do(t, http.MethodGet, "/api/admin/moderation-log", token, nil); rr.Code != http.StatusOK {
		t.Fatalf("moderator moderation-log: expected 200, got %d", rr.Code)
	}

	assertForbidden(t, p, http.MethodPost, "/api/issues", token, map[string]string{
		"title": "x", "description": "y",
	})
	assertForbidden(t, p, http.MethodPost, "/api/issues/1/review", token, nil)
	assertForbidden(t, p, http.MethodGet, "/api/admin/report", token, nil)
}

func TestAdminPermissions(t *testing.T) {
	p := newTestPortal(t)
	token := p.login(t, "root@example.com", "admin")

	for _, probe := range []struct {
		method string
		path   string
		body   any
	}{
		{http.MethodPost, "/api/issues", map[string]string{"title": "t", "description": "d"}},
		{http.MethodPost, "/api/issues/1/upvote", nil},
		{http.MethodPost, "/api/issues/1/review", nil},
		{http.MethodPost, "/api/issues/1/approve", nil},
		{http.MethodGet, "/api/admin/moderation-log", nil},
	} {
		rr := p.do(t, probe.method, probe.path, token, probe.body)
		if rr.Code != http.StatusOK && rr.Code != http.StatusCreated {
			t.Fatalf("admin %s %s: expected success, got %d body=%s", probe.method, probe.path, rr.Code, rr.Body.String())
		}
	}
}

func TestModerationLogOrderAndActor(t *testing.T) {
	p := newTestPortal(t)
	mod := p.login(t, "mod@example.com", "moderator")
	pol := p.login(t, "pol@example.com", "politician")

	if rr := p.do(t, http.MethodPost, "/api/issues/1/approve", mod, nil); rr.Code != http.StatusOK {
		t.Fatalf("approve: %d", rr.Code)
	}
	if rr := p.do(t, http.MethodPost, "/api/issues/2/review", pol, nil); rr.Code != http.StatusOK {
		t.Fatalf("review: %d", rr.Code)
	}

	rr := p.do(t, http.MethodGet, "/api/admin/moderation-log", mod, nil)
	payload := decodeJSON(t, rr)
	events, _ := payload["events"].([]any)
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}

	// Newest first.
	first, _ := events[0].(map[string]any)
	if first["action"] != "review" || first["actor"] != "pol@example.com" {
		t.Errorf("unexpected newest event: %v", first)
	}
}
