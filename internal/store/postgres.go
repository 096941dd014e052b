package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrIssueNotFound is returned by issue lookups and upvotes for unknown ids.
var ErrIssueNotFound = errors.New("issue not found")

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

func (s *PostgresStore) ListIssues(ctx context.Context) ([]Issue, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, description, status, upvotes, author, created_on
		FROM issues
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("list issues: %w", err)
	}
	defer rows.Close()

	items := make([]Issue, 0)
	for rows.Next() {
		var issue Issue
		if err := rows.Scan(&issue.ID, &issue.Title, &issue.Description, &issue.Status, &issue.Upvotes, &issue.Author, &issue.Date); err != nil {
			return nil, fmt.Errorf("scan issue: %w", err)
		}
		items = append(items, issue)
	}
	return items, rows.Err()
}

func (s *PostgresStore) GetIssue(ctx context.Context, id int64) (Issue, error) {
	var issue Issue
	err := s.db.QueryRowContext(ctx, `
		SELECT id, title, description, status, upvotes, author, created_on
		FROM issues
		WHERE id = $1
	`, id).Scan(&issue.ID, &issue.Title, &issue.Description, &issue.Status, &issue.Upvotes, &issue.Author, &issue.Date)
	if errors.Is(err, sql.ErrNoRows) {
		return Issue{}, ErrIssueNotFound
	}
	if err != nil {
		return Issue{}, fmt.Errorf("get issue: %w", err)
	}
	return issue, nil
}

// InsertIssue appends a new issue. The id is assigned by the sequence and the
// stored record is returned.
func (s *PostgresStore) InsertIssue(ctx context.Context, issue Issue) (Issue, error) {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO issues (title, description, status, upvotes, author, created_on)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, issue.Title, issue.Description, issue.Status, issue.Upvotes, issue.Author, issue.Date).Scan(&issue.ID)
	if err != nil {
		return Issue{}, fmt.Errorf("insert issue: %w", err)
	}
	return issue, nil
}

// UpvoteIssue increments the counter by exactly one. Repeated calls keep
// incrementing; there is no duplicate-vote prevention.
func (s *PostgresStore) UpvoteIssue(ctx context.Context, id int64) (Issue, error) {
	var issue Issue
	err := s.db.QueryRowContext(ctx, `
		UPDATE issues SET upvotes = upvotes + 1
		WHERE id = $1
		RETURNING id, title, description, status, upvotes, author, created_on
	`, id).Scan(&issue.ID, &issue.Title, &issue.Description, &issue.Status, &issue.Upvotes, &issue.Author, &issue.Date)
	if errors.Is(err, sql.ErrNoRows) {
		return Issue{}, ErrIssueNotFound
	}
	if err != nil {
		return Issue{}, fmt.Errorf("upvote issue: %w", err)
	}
	return issue, nil
}

// SummaryCounts returns the totals behind the admin dashboard: all issues and
// resolved issues.
func (s *PostgresStore) SummaryCounts(ctx context.Context) (total int, resolved int, err error) {
	err = s.db.QueryRowContext(ctx, `
		SELECT count(*), count(*) FILTER (WHERE status = 'resolved')
		FROM issues
	`).Scan(&total, &resolved)
	if err != nil {
		return 0, 0, fmt.Errorf("summary counts: %w", err)
	}
	return total, resolved, nil
}

func (s *PostgresStore) CountUsers(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM users`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (User, error) {
	var user User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, role, created_at FROM users WHERE email = $1
	`, email).Scan(&user.ID, &user.Email, &user.PasswordHash, &user.Role, &user.CreatedAt)
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func (s *PostgresStore) GetUserByID(ctx context.Context, id string) (User, error) {
	var user User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, role, created_at FROM users WHERE id = $1
	`, id).Scan(&user.ID, &user.Email, &user.PasswordHash, &user.Role, &user.CreatedAt)
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func (s *PostgresStore) CreateUser(ctx context.Context, user User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, password_hash, role)
		VALUES ($1, $2, $3, $4)
	`, user.ID, user.Email, user.PasswordHash, user.Role)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// UpdateUserRole records the role most recently chosen at login.
func (s *PostgresStore) UpdateUserRole(ctx context.Context, userID, role string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE users SET role = $2 WHERE id = $1`, userID, role)
	if err != nil {
		return fmt.Errorf("update user role: %w", err)
	}
	return nil
}

// Refresh sessions persist the (user, role) pair across restarts. The role
// travels with the session row because it is chosen per login, not per user.

func (s *PostgresStore) SaveRefreshSession(ctx context.Context, tokenHash, userID, role string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO refresh_sessions (token_hash, user_id, role, expires_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (token_hash) DO UPDATE SET user_id=EXCLUDED.user_id, role=EXCLUDED.role, expires_at=EXCLUDED.expires_at, revoked_at=NULL
	`, tokenHash, userID, role, expiresAt)
	if err != nil {
		return fmt.Errorf("save refresh session: %w", err)
	}
	return nil
}

func (s *PostgresStore) LookupRefreshSession(ctx context.Context, tokenHash string) (User, error) {
	const query = `
		SELECT u.id, u.email, rs.role
		FROM refresh_sessions rs
		JOIN users u ON u.id = rs.user_id
		WHERE rs.token_hash = $1
			AND rs.revoked_at IS NULL
			AND rs.expires_at > NOW()
	`
	var user User
	err := s.db.QueryRowContext(ctx, query, tokenHash).Scan(&user.ID, &user.Email, &user.Role)
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func (s *PostgresStore) RevokeRefreshSession(ctx context.Context, tokenHash string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE refresh_sessions SET revoked_at=NOW() WHERE token_hash=$1`, tokenHash)
	if err != nil {
		return fmt.Errorf("revoke refresh session: %w", err)
	}
	return nil
}

func (s *PostgresStore) RevokeAccessToken(ctx context.Context, jti string, exp time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO revoked_access_tokens (jti, expires_at)
		VALUES ($1, $2)
		ON CONFLICT (jti) DO NOTHING
	`, jti, exp)
	if err != nil {
		return fmt.Errorf("revoke access token: %w", err)
	}
	return nil
}

func (s *PostgresStore) IsAccessTokenRevoked(ctx context.Context, jti string) (bool, error) {
	var revoked bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM revoked_access_tokens WHERE jti=$1)`, jti).Scan(&revoked)
	if err != nil {
		return false, fmt.Errorf("check revoked token: %w", err)
	}
	return revoked, nil
}

func (s *PostgresStore) InsertModerationEvent(ctx context.Context, event ModerationEvent) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO moderation_events (issue_id, action, actor)
		VALUES ($1, $2, $3)
	`, event.IssueID, event.Action, event.Actor)
	if err != nil {
		return fmt.Errorf("insert moderation event: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListModerationEvents(ctx context.Context, limit int) ([]ModerationEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, issue_id, action, actor, created_at
		FROM moderation_events
		ORDER BY id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list moderation events: %w", err)
	}
	defer rows.Close()

	items := make([]ModerationEvent, 0)
	for rows.Next() {
		var event ModerationEvent
		if err := rows.Scan(&event.ID, &event.IssueID, &event.Action, &event.Actor, &event.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan moderation event: %w", err)
		}
		items = append(items, event)
	}
	return items, rows.Err()
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
