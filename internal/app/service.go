package app

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"civicport/api/internal/auth"
	"civicport/api/internal/authpw"
	"civicport/api/internal/config"
	"civicport/api/internal/dashboard"
	"civicport/api/internal/export"
	"civicport/api/internal/media"
	"civicport/api/internal/rbac"
	"civicport/api/internal/search"
	"civicport/api/internal/store"
	"civicport/api/internal/util"
)

type Session struct {
	Token        string
	RefreshToken string
	UserID       string
	Email        string
	Role         string
	JTI          string
	ExpiresAt    time.Time
}

type dataStore interface {
	ListIssues(context.Context) ([]store.Issue, error)
	GetIssue(context.Context, int64) (store.Issue, error)
	InsertIssue(context.Context, store.Issue) (store.Issue, error)
	UpvoteIssue(context.Context, int64) (store.Issue, error)
	SummaryCounts(context.Context) (int, int, error)
	CountUsers(context.Context) (int, error)
	GetUserByEmail(ctx context.Context, email string) (store.User, error)
	GetUserByID(ctx context.Context, id string) (store.User, error)
	CreateUser(ctx context.Context, user store.User) error
	UpdateUserRole(ctx context.Context, userID, role string) error
	SaveRefreshSession(ctx context.Context, tokenHash, userID, role string, expiresAt time.Time) error
	LookupRefreshSession(ctx context.Context, tokenHash string) (store.User, error)
	RevokeRefreshSession(ctx context.Context, tokenHash string) error
	RevokeAccessToken(ctx context.Context, jti string, exp time.Time) error
	IsAccessTokenRevoked(ctx context.Context, jti string) (bool, error)
	InsertModerationEvent(context.Context, store.ModerationEvent) error
	ListModerationEvents(context.Context, int) ([]store.ModerationEvent, error)
	Ping(ctx context.Context) error
}

// refreshSessionStore is the durable (user, role) store keyed by refresh token
// hash. Redis in production; when absent the primary store fills the role.
type refreshSessionStore interface {
	SaveRefreshSession(ctx context.Context, tokenHash, userID, role string, expiresAt time.Time) error
	LookupRefreshSession(ctx context.Context, tokenHash string) (store.User, error)
	RevokeRefreshSession(ctx context.Context, tokenHash string) error
	Ping(ctx context.Context) error
}

type Service struct {
	cfg      config.Config
	store    dataStore
	auth     *authpw.Service
	sessions refreshSessionStore
	search   *search.Service
	photos   *media.Store
	exporter *export.Service
}

func New(cfg config.Config, st dataStore) *Service {
	return &Service{
		cfg:      cfg,
		store:    st,
		auth:     authpw.NewService(st),
		exporter: export.NewService(st),
	}
}

// UseSessionStore routes refresh sessions through an external store instead
// of the primary one.
func (s *Service) UseSessionStore(sessions refreshSessionStore) {
	s.sessions = sessions
}

func (s *Service) UseSearch(svc *search.Service) {
	s.search = svc
}

func (s *Service) UseMedia(photos *media.Store) {
	s.photos = photos
}

// Bootstrap seeds the demo issues into an empty store and pushes the issue
// list into the search index.
func (s *Service) Bootstrap(ctx context.Context) error {
	issues, err := s.store.ListIssues(ctx)
	if err != nil {
		return err
	}
	if len(issues) == 0 {
		for _, issue := range store.SeedIssues() {
			inserted, err := s.store.InsertIssue(ctx, issue)
			if err != nil {
				return err
			}
			issues = append(issues, inserted)
		}
	}

	if s.search != nil {
		records := make([]search.IssueRecord, 0, len(issues))
		for _, issue := range issues {
			records = append(records, issueRecord(issue))
		}
		s.search.ReindexAll(records)
	}
	return nil
}

// Login validates the (email, password, role) triple and issues a session.
// Unknown emails register on first login.
func (s *Service) Login(ctx context.Context, email, password, role string) (Session, error) {
	user, err := s.auth.Authenticate(ctx, email, password, role)
	if err != nil {
		switch {
		case errors.Is(err, authpw.ErrInvalidEmail):
			return Session{}, domainError(http.StatusUnprocessableEntity, "INVALID_EMAIL", "Please enter a valid email address", nil)
		case errors.Is(err, authpw.ErrMissingRole):
			return Session{}, domainError(http.StatusUnprocessableEntity, "MISSING_ROLE", "Please select a role", nil)
		case errors.Is(err, authpw.ErrInvalidCredentials):
			return Session{}, domainError(http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password", nil)
		}
		return Session{}, err
	}
	return s.issueSession(ctx, user)
}

// Refresh rotates a refresh token. The stored session carries the role chosen
// at login, so the restored session has the same role even if the user row
// has moved on.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	tokenHash := auth.HashToken(refreshToken)
	record, err := s.sessionStore().LookupRefreshSession(ctx, tokenHash)
	if err != nil {
		return Session{}, domainError(http.StatusUnauthorized, "UNAUTHORIZED", "Refresh token invalid", nil)
	}
	if err := s.sessionStore().RevokeRefreshSession(ctx, tokenHash); err != nil {
		return Session{}, err
	}

	user, err := s.store.GetUserByID(ctx, record.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Session{}, domainError(http.StatusUnauthorized, "UNAUTHORIZED", "Refresh token invalid", nil)
		}
		return Session{}, err
	}
	user.Role = record.Role
	return s.issueSession(ctx, user)
}

func (s *Service) issueSession(ctx context.Context, user store.User) (Session, error) {
	now := time.Now()
	expiresAt := now.Add(s.cfg.AccessTTL)
	jti := util.NewID("jti")

	token, err := auth.IssueToken([]byte(s.cfg.JWTSecret), auth.Claims{
		Sub:   user.ID,
		Email: user.Email,
		Role:  user.Role,
		JTI:   jti,
		Exp:   expiresAt.Unix(),
	})
	if err != nil {
		return Session{}, err
	}

	refresh := util.NewID("rft") + util.NewID("")
	refreshExpires := now.Add(s.cfg.RefreshTTL)
	if err := s.sessionStore().SaveRefreshSession(ctx, auth.HashToken(refresh), user.ID, user.Role, refreshExpires); err != nil {
		return Session{}, err
	}

	return Session{
		Token:        token,
		RefreshToken: refresh,
		UserID:       user.ID,
		Email:        user.Email,
		Role:         user.Role,
		JTI:          jti,
		ExpiresAt:    expiresAt,
	}, nil
}

// SessionFromToken validates an access token. The role comes from the token
// claims because the role is part of the session, not the account.
func (s *Service) SessionFromToken(ctx context.Context, token string) (Session, error) {
	claims, err := auth.ParseToken([]byte(s.cfg.JWTSecret), token)
	if err != nil {
		return Session{}, err
	}
	revoked, err := s.store.IsAccessTokenRevoked(ctx, claims.JTI)
	if err != nil {
		return Session{}, err
	}
	if revoked {
		return Session{}, auth.ErrInvalidToken
	}

	user, err := s.store.GetUserByID(ctx, claims.Sub)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Session{}, auth.ErrInvalidToken
		}
		return Session{}, err
	}

	return Session{
		Token:     token,
		UserID:    user.ID,
		Email:     user.Email,
		Role:      claims.Role,
		JTI:       claims.JTI,
		ExpiresAt: time.Unix(claims.Exp, 0),
	}, nil
}

func (s *Service) Logout(ctx context.Context, session Session, refreshToken string) error {
	if session.JTI != "" {
		_ = s.store.RevokeAccessToken(ctx, session.JTI, session.ExpiresAt)
	}
	if refreshToken != "" {
		_ = s.sessionStore().RevokeRefreshSession(ctx, auth.HashToken(refreshToken))
	}
	return nil
}

func (s *Service) Can(role string, action rbac.Action) bool {
	return rbac.Can(rbac.Normalize(role), action)
}

func (s *Service) ListIssues(ctx context.Context) ([]map[string]any, error) {
	issues, err := s.store.ListIssues(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(issues))
	for _, issue := range issues {
		items = append(items, issuePayload(issue))
	}
	return items, nil
}

func (s *Service) GetIssue(ctx context.Context, id int64) (map[string]any, error) {
	issue, err := s.store.GetIssue(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrIssueNotFound) {
			return nil, domainError(http.StatusNotFound, "NOT_FOUND", "Issue not found", nil)
		}
		return nil, err
	}
	return issuePayload(issue), nil
}

// Submit creates a new issue authored by the session user. New issues always
// start as "new" with zero upvotes.
func (s *Service) Submit(ctx context.Context, session Session, title, description string) (map[string]any, error) {
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)
	fields := map[string]string{}
	if title == "" {
		fields["title"] = "required"
	}
	if description == "" {
		fields["description"] = "required"
	}
	if len(fields) > 0 {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Title and description are required", fields)
	}

	issue, err := s.store.InsertIssue(ctx, store.Issue{
		Title:       title,
		Description: description,
		Status:      store.StatusNew,
		Upvotes:     0,
		Author:      session.Email,
		Date:        time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	if s.search != nil {
		s.search.IndexIssue(issueRecord(issue))
	}
	return issuePayload(issue), nil
}

// Upvote bumps the counter by one. There is no per-user vote tracking.
func (s *Service) Upvote(ctx context.Context, id int64) (map[string]any, error) {
	issue, err := s.store.UpvoteIssue(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrIssueNotFound) {
			return nil, domainError(http.StatusNotFound, "NOT_FOUND", "Issue not found", nil)
		}
		return nil, err
	}
	if s.search != nil {
		s.search.IndexIssue(issueRecord(issue))
	}
	return issuePayload(issue), nil
}

// Dashboard projects the issue list into the view model for the session role.
func (s *Service) Dashboard(ctx context.Context, session Session) (dashboard.View, error) {
	role := rbac.Normalize(session.Role)

	issues, err := s.store.ListIssues(ctx)
	if err != nil {
		return dashboard.View{}, err
	}

	var stats dashboard.Stats
	if role == rbac.RoleAdmin {
		total, resolved, err := s.store.SummaryCounts(ctx)
		if err != nil {
			return dashboard.View{}, err
		}
		users, err := s.store.CountUsers(ctx)
		if err != nil {
			return dashboard.View{}, err
		}
		stats = dashboard.Stats{TotalIssues: total, ActiveUsers: users, ResolvedIssues: resolved}
	}

	return dashboard.Project(role, issues, stats), nil
}

// Moderate records a review/approve/reject action against an issue. The
// action is audit-only: it does not change the issue status.
func (s *Service) Moderate(ctx context.Context, session Session, issueID int64, action string) (map[string]any, error) {
	issue, err := s.store.GetIssue(ctx, issueID)
	if err != nil {
		if errors.Is(err, store.ErrIssueNotFound) {
			return nil, domainError(http.StatusNotFound, "NOT_FOUND", "Issue not found", nil)
		}
		return nil, err
	}

	if err := s.store.InsertModerationEvent(ctx, store.ModerationEvent{
		IssueID: issue.ID,
		Action:  action,
		Actor:   session.Email,
	}); err != nil {
		return nil, err
	}

	return map[string]any{
		"ok":     true,
		"action": action,
		"issue":  issuePayload(issue),
	}, nil
}

func (s *Service) ModerationLog(ctx context.Context, limit int) ([]map[string]any, error) {
	events, err := s.store.ListModerationEvents(ctx, limit)
	if err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(events))
	for _, event := range events {
		items = append(items, map[string]any{
			"id":        event.ID,
			"issueId":   event.IssueID,
			"action":    event.Action,
			"actor":     event.Actor,
			"createdAt": event.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return items, nil
}

func (s *Service) Search(q search.Query) search.Response {
	if s.search == nil {
		return search.Response{Results: []search.Result{}, Total: 0, Query: q.Text}
	}
	return s.search.Search(q)
}

// ExportReport renders the admin issue report.
func (s *Service) ExportReport(ctx context.Context, session Session, format export.Format) (*export.Result, error) {
	result, err := s.exporter.Export(ctx, export.Request{
		Format:      format,
		RequestedBy: session.Email,
	})
	if err != nil {
		if errors.Is(err, export.ErrPDFDependencyMissing) || errors.Is(err, export.ErrDOCXDependencyMissing) {
			return nil, domainError(http.StatusServiceUnavailable, "EXPORT_UNAVAILABLE", "Export dependencies not installed", nil)
		}
		return nil, err
	}
	return result, nil
}

// UploadPhoto attaches a photo to an issue.
func (s *Service) UploadPhoto(ctx context.Context, issueID int64, filename, contentType string, r io.Reader, size int64) (*media.Photo, error) {
	if _, err := s.store.GetIssue(ctx, issueID); err != nil {
		if errors.Is(err, store.ErrIssueNotFound) {
			return nil, domainError(http.StatusNotFound, "NOT_FOUND", "Issue not found", nil)
		}
		return nil, err
	}

	photo, err := s.photos.UploadIssuePhoto(ctx, issueID, filename, contentType, r, size)
	if err != nil {
		if errors.Is(err, media.ErrNotConfigured) {
			return nil, domainError(http.StatusServiceUnavailable, "MEDIA_UNAVAILABLE", "Photo storage not configured", nil)
		}
		return nil, err
	}
	return photo, nil
}

func (s *Service) ListPhotos(ctx context.Context, issueID int64) ([]media.Photo, error) {
	if _, err := s.store.GetIssue(ctx, issueID); err != nil {
		if errors.Is(err, store.ErrIssueNotFound) {
			return nil, domainError(http.StatusNotFound, "NOT_FOUND", "Issue not found", nil)
		}
		return nil, err
	}

	photos, err := s.photos.ListIssuePhotos(ctx, issueID)
	if err != nil {
		if errors.Is(err, media.ErrNotConfigured) {
			return nil, domainError(http.StatusServiceUnavailable, "MEDIA_UNAVAILABLE", "Photo storage not configured", nil)
		}
		return nil, err
	}
	return photos, nil
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// PingSessions reports the health of the external session store, or nil when
// sessions live in the primary store.
func (s *Service) PingSessions(ctx context.Context) error {
	if s.sessions == nil {
		return nil
	}
	return s.sessions.Ping(ctx)
}

func (s *Service) sessionStore() refreshSessionStore {
	if s.sessions != nil {
		return s.sessions
	}
	return s.store
}

func issuePayload(issue store.Issue) map[string]any {
	return map[string]any{
		"id":          issue.ID,
		"title":       issue.Title,
		"description": issue.Description,
		"status":      issue.Status,
		"upvotes":     issue.Upvotes,
		"author":      issue.Author,
		"date":        issue.Date.Format("2006-01-02"),
	}
}

func issueRecord(issue store.Issue) search.IssueRecord {
	return search.IssueRecord{
		ID:          issue.ID,
		Title:       issue.Title,
		Description: issue.Description,
		Status:      issue.Status,
	}
}
