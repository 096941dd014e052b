package app

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"testing"
	"time"

	"civicport/api/internal/config"
	"civicport/api/internal/rbac"
	"civicport/api/internal/store"
)

type fakeStore struct {
	listIssuesFn            func(context.Context) ([]store.Issue, error)
	getIssueFn              func(context.Context, int64) (store.Issue, error)
	insertIssueFn           func(context.Context, store.Issue) (store.Issue, error)
	upvoteIssueFn           func(context.Context, int64) (store.Issue, error)
	summaryCountsFn         func(context.Context) (int, int, error)
	countUsersFn            func(context.Context) (int, error)
	getUserByEmailFn        func(context.Context, string) (store.User, error)
	getUserByIDFn           func(context.Context, string) (store.User, error)
	insertModerationEventFn func(context.Context, store.ModerationEvent) error
	listModerationEventsFn  func(context.Context, int) ([]store.ModerationEvent, error)
}

func (f *fakeStore) ListIssues(ctx context.Context) ([]store.Issue, error) {
	if f.listIssuesFn != nil {
		return f.listIssuesFn(ctx)
	}
	return nil, nil
}
func (f *fakeStore) GetIssue(ctx context.Context, id int64) (store.Issue, error) {
	if f.getIssueFn != nil {
		return f.getIssueFn(ctx, id)
	}
	return store.Issue{}, store.ErrIssueNotFound
}
func (f *fakeStore) InsertIssue(ctx context.Context, issue store.Issue) (store.Issue, error) {
	if f.insertIssueFn != nil {
		return f.insertIssueFn(ctx, issue)
	}
	issue.ID = 1
	return issue, nil
}
func (f *fakeStore) UpvoteIssue(ctx context.Context, id int64) (store.Issue, error) {
	if f.upvoteIssueFn != nil {
		return f.upvoteIssueFn(ctx, id)
	}
	return store.Issue{}, store.ErrIssueNotFound
}
func (f *fakeStore) SummaryCounts(ctx context.Context) (int, int, error) {
	if f.summaryCountsFn != nil {
		return f.summaryCountsFn(ctx)
	}
	return 0, 0, nil
}
func (f *fakeStore) CountUsers(ctx context.Context) (int, error) {
	if f.countUsersFn != nil {
		return f.countUsersFn(ctx)
	}
	return 0, nil
}
func (f *fakeStore) GetUserByEmail(ctx context.Context, email string) (store.User, error) {
	if f.getUserByEmailFn != nil {
		return f.getUserByEmailFn(ctx, email)
	}
	return store.User{}, sql.ErrNoRows
}
func (f *fakeStore) GetUserByID(ctx context.Context, id string) (store.User, error) {
	if f.getUserByIDFn != nil {
		return f.getUserByIDFn(ctx, id)
	}
	return store.User{ID: id, Email: "user@example.com", Role: "citizen"}, nil
}
func (f *fakeStore) CreateUser(context.Context, store.User) error         { return nil }
func (f *fakeStore) UpdateUserRole(context.Context, string, string) error { return nil }
func (f *fakeStore) SaveRefreshSession(context.Context, string, string, string, time.Time) error {
	return nil
}
func (f *fakeStore) LookupRefreshSession(context.Context, string) (store.User, error) {
	return store.User{}, sql.ErrNoRows
}
func (f *fakeStore) RevokeRefreshSession(context.Context, string) error         { return nil }
func (f *fakeStore) RevokeAccessToken(context.Context, string, time.Time) error { return nil }
func (f *fakeStore) IsAccessTokenRevoked(context.Context, string) (bool, error) { return false, nil }
func (f *fakeStore) InsertModerationEvent(ctx context.Context, event store.ModerationEvent) error {
	if f.insertModerationEventFn != nil {
		return f.insertModerationEventFn(ctx, event)
	}
	return nil
}
func (f *fakeStore) ListModerationEvents(ctx context.Context, limit int) ([]store.ModerationEvent, error) {
	if f.listModerationEventsFn != nil {
		return f.listModerationEventsFn(ctx, limit)
	}
	return nil, nil
}
func (f *fakeStore) Ping(context.Context) error { return nil }

func newTestService(st dataStore) *Service {
	return New(config.Config{
		JWTSecret:  "test-secret",
		AccessTTL:  time.Hour,
		RefreshTTL: 24 * time.Hour,
	}, st)
}

func assertDomainError(t *testing.T, err error, status int, code string) {
	t.Helper()
	var domainErr *DomainError
	if !errors.As(err, &domainErr) {
		t.Fatalf("expected DomainError, got %v", err)
	}
	if domainErr.Status != status || domainErr.Code != code {
		t.Fatalf("expected %d %s, got %d %s", status, code, domainErr.Status, domainErr.Code)
	}
}

func TestLoginRegistersAndAuthenticates(t *testing.T) {
	svc := newTestService(store.NewSeededMemStore())
	ctx := context.Background()

	session, err := svc.Login(ctx, "new@example.com", "hunter2", "citizen")
	if err != nil {
		t.Fatalf("first login: %v", err)
	}
	if session.Token == "" || session.RefreshToken == "" {
		t.Fatal("expected access and refresh tokens")
	}
	if session.Role != "citizen" {
		t.Errorf("expected role citizen, got %q", session.Role)
	}

	// Same credentials sign in to the same account.
	again, err := svc.Login(ctx, "new@example.com", "hunter2", "politician")
	if err != nil {
		t.Fatalf("second login: %v", err)
	}
	if again.UserID != session.UserID {
		t.Errorf("expected same account, got %q vs %q", again.UserID, session.UserID)
	}
	if again.Role != "politician" {
		t.Errorf("expected role chosen at login, got %q", again.Role)
	}

	_, err = svc.Login(ctx, "new@example.com", "wrong", "citizen")
	assertDomainError(t, err, http.StatusUnauthorized, "INVALID_CREDENTIALS")
}

func TestLoginValidation(t *testing.T) {
	svc := newTestService(store.NewSeededMemStore())
	ctx := context.Background()

	_, err := svc.Login(ctx, "not an email", "pw", "citizen")
	assertDomainError(t, err, http.StatusUnprocessableEntity, "INVALID_EMAIL")

	_, err = svc.Login(ctx, "ok@example.com", "pw", "")
	assertDomainError(t, err, http.StatusUnprocessableEntity, "MISSING_ROLE")

	_, err = svc.Login(ctx, "ok@example.com", "pw", "overlord")
	assertDomainError(t, err, http.StatusUnprocessableEntity, "MISSING_ROLE")

	_, err = svc.Login(ctx, "ok@example.com", "", "citizen")
	assertDomainError(t, err, http.StatusUnauthorized, "INVALID_CREDENTIALS")
}

func TestRefreshRotatesTokenAndKeepsRole(t *testing.T) {
	svc := newTestService(store.NewSeededMemStore())
	ctx := context.Background()

	session, err := svc.Login(ctx, "pol@example.com", "pw", "politician")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	refreshed, err := svc.Refresh(ctx, session.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if refreshed.UserID != session.UserID {
		t.Errorf("expected same user after refresh")
	}
	if refreshed.Role != "politician" {
		t.Errorf("expected role to survive refresh, got %q", refreshed.Role)
	}
	if refreshed.RefreshToken == session.RefreshToken {
		t.Error("expected refresh token rotation")
	}

	// The consumed token is gone.
	_, err = svc.Refresh(ctx, session.RefreshToken)
	assertDomainError(t, err, http.StatusUnauthorized, "UNAUTHORIZED")
}

func TestLogoutRevokesAccessToken(t *testing.T) {
	svc := newTestService(store.NewSeededMemStore())
	ctx := context.Background()

	session, err := svc.Login(ctx, "bye@example.com", "pw", "citizen")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := svc.SessionFromToken(ctx, session.Token); err != nil {
		t.Fatalf("session before logout: %v", err)
	}

	if err := svc.Logout(ctx, session, session.RefreshToken); err != nil {
		t.Fatalf("logout: %v", err)
	}

	if _, err := svc.SessionFromToken(ctx, session.Token); err == nil {
		t.Fatal("expected revoked access token to be rejected")
	}
	if _, err := svc.Refresh(ctx, session.RefreshToken); err == nil {
		t.Fatal("expected revoked refresh token to be rejected")
	}
}

func TestSubmitValidatesInput(t *testing.T) {
	svc := newTestService(store.NewSeededMemStore())
	session := Session{Email: "c@example.com", Role: "citizen"}

	_, err := svc.Submit(context.Background(), session, "  ", "something")
	assertDomainError(t, err, http.StatusUnprocessableEntity, "VALIDATION_ERROR")

	_, err = svc.Submit(context.Background(), session, "title", "")
	assertDomainError(t, err, http.StatusUnprocessableEntity, "VALIDATION_ERROR")
}

func TestSubmitAndUpvoteLifecycle(t *testing.T) {
	svc := newTestService(store.NewSeededMemStore())
	ctx := context.Background()
	session := Session{Email: "jane@example.com", Role: "citizen"}

	payload, err := svc.Submit(ctx, session, "Broken bench", "Bench at the bus stop is broken")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if payload["id"] != int64(4) {
		t.Errorf("expected id 4 after three seeds, got %v", payload["id"])
	}
	if payload["status"] != store.StatusNew || payload["upvotes"] != 0 {
		t.Errorf("new issues start as new/0, got %v/%v", payload["status"], payload["upvotes"])
	}
	if payload["author"] != "jane@example.com" {
		t.Errorf("expected session user as author, got %v", payload["author"])
	}

	for i := 1; i <= 3; i++ {
		payload, err = svc.Upvote(ctx, 4)
		if err != nil {
			t.Fatalf("upvote %d: %v", i, err)
		}
		if payload["upvotes"] != i {
			t.Errorf("expected %d upvotes, got %v", i, payload["upvotes"])
		}
	}

	_, err = svc.Upvote(ctx, 999)
	assertDomainError(t, err, http.StatusNotFound, "NOT_FOUND")
}

func TestDashboardAdminStats(t *testing.T) {
	st := store.NewSeededMemStore()
	svc := newTestService(st)
	ctx := context.Background()

	if _, err := svc.Login(ctx, "admin@example.com", "pw", "admin"); err != nil {
		t.Fatalf("login: %v", err)
	}

	view, err := svc.Dashboard(ctx, Session{Email: "admin@example.com", Role: "admin"})
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if len(view.Stats) != 3 {
		t.Fatalf("expected 3 stat boxes, got %d", len(view.Stats))
	}
	if view.Stats[0].Value != 3 {
		t.Errorf("expected 3 total issues, got %d", view.Stats[0].Value)
	}
	if view.Stats[1].Value != 1 {
		t.Errorf("expected 1 registered user, got %d", view.Stats[1].Value)
	}
	if view.Stats[2].Value != 1 {
		t.Errorf("expected 1 resolved issue, got %d", view.Stats[2].Value)
	}
}

func TestDashboardUnknownRoleFallsBackToCitizen(t *testing.T) {
	svc := newTestService(store.NewSeededMemStore())

	view, err := svc.Dashboard(context.Background(), Session{Role: "overlord"})
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if view.Role != string(rbac.RoleCitizen) {
		t.Errorf("expected citizen fallback, got %q", view.Role)
	}
	if view.Form == nil {
		t.Error("expected citizen submission form")
	}
}

func TestModerateRecordsAuditEvent(t *testing.T) {
	st := store.NewSeededMemStore()
	svc := newTestService(st)
	ctx := context.Background()
	session := Session{Email: "mod@example.com", Role: "moderator"}

	payload, err := svc.Moderate(ctx, session, 1, "approve")
	if err != nil {
		t.Fatalf("moderate: %v", err)
	}
	if payload["ok"] != true || payload["action"] != "approve" {
		t.Errorf("unexpected payload: %v", payload)
	}

	// The action is audit-only: issue status is unchanged.
	issue, err := st.GetIssue(ctx, 1)
	if err != nil {
		t.Fatalf("get issue: %v", err)
	}
	if issue.Status != store.StatusNew {
		t.Errorf("moderation must not change status, got %q", issue.Status)
	}

	events, err := svc.ModerationLog(ctx, 10)
	if err != nil {
		t.Fatalf("moderation log: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0]["actor"] != "mod@example.com" || events[0]["action"] != "approve" {
		t.Errorf("unexpected event: %v", events[0])
	}

	_, err = svc.Moderate(ctx, session, 42, "reject")
	assertDomainError(t, err, http.StatusNotFound, "NOT_FOUND")
}

func TestBootstrapSeedsEmptyStore(t *testing.T) {
	st := store.NewMemStore()
	svc := newTestService(st)
	ctx := context.Background()

	if err := svc.Bootstrap(ctx); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	issues, err := st.ListIssues(ctx)
	if err != nil {
		t.Fatalf("list issues: %v", err)
	}
	if len(issues) != 3 {
		t.Fatalf("expected 3 seeded issues, got %d", len(issues))
	}

	// A second bootstrap does not duplicate the seeds.
	if err := svc.Bootstrap(ctx); err != nil {
		t.Fatalf("second bootstrap: %v", err)
	}
	issues, _ = st.ListIssues(ctx)
	if len(issues) != 3 {
		t.Fatalf("expected seeds to be idempotent, got %d issues", len(issues))
	}
}

func TestServiceSurfacesStoreErrors(t *testing.T) {
	boom := errors.New("store down")
	svc := newTestService(&fakeStore{
		listIssuesFn: func(context.Context) ([]store.Issue, error) { return nil, boom },
	})

	if _, err := svc.ListIssues(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected store error to surface, got %v", err)
	}
	if _, err := svc.Dashboard(context.Background(), Session{Role: "citizen"}); !errors.Is(err, boom) {
		t.Fatalf("expected store error from dashboard, got %v", err)
	}
}
