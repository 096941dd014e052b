package store

import (
	"context"
	"database/sql"
	"sync"
	"time"
)

// MemStore keeps the whole portal state in memory. It backs demo deployments
// (no DATABASE_URL) and tests, and implements the same contract as
// PostgresStore: insertion-ordered issues, sequence-assigned ids, refresh
// sessions, and the moderation log. Nothing survives a process restart except
// what the Redis session store holds.
type MemStore struct {
	mu         sync.Mutex
	issues     []Issue
	nextID     int64
	users      map[string]User // keyed by email
	refresh    map[string]refreshRecord
	revoked    map[string]time.Time // jti -> expiry
	moderation []ModerationEvent
	nextEvent  int64
}

type refreshRecord struct {
	userID    string
	role      string
	expiresAt time.Time
}

func NewMemStore() *MemStore {
	return &MemStore{
		nextID:    1,
		nextEvent: 1,
		users:     make(map[string]User),
		refresh:   make(map[string]refreshRecord),
		revoked:   make(map[string]time.Time),
	}
}

// NewSeededMemStore returns a MemStore preloaded with the three demo issues.
func NewSeededMemStore() *MemStore {
	s := NewMemStore()
	for _, issue := range SeedIssues() {
		issue.ID = s.nextID
		s.nextID++
		s.issues = append(s.issues, issue)
	}
	return s
}

// SeedIssues returns the demo records, ids unassigned.
func SeedIssues() []Issue {
	date := func(value string) time.Time {
		t, _ := time.Parse("2006-01-02", value)
		return t
	}
	return []Issue{
		{Title: "Road Maintenance", Description: "Pothole on Main St", Status: StatusNew, Upvotes: 23, Author: "John Doe", Date: date("2024-01-15")},
		{Title: "Street Lighting", Description: "Dark area at Park Ave", Status: StatusInReview, Upvotes: 15, Author: "Jane Smith", Date: date("2024-01-14")},
		{Title: "Park Cleaning", Description: "Litter in Central Park", Status: StatusResolved, Upvotes: 8, Author: "Bob Johnson", Date: date("2024-01-10")},
	}
}

func (s *MemStore) ListIssues(ctx context.Context) ([]Issue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]Issue, len(s.issues))
	copy(items, s.issues)
	return items, nil
}

func (s *MemStore) GetIssue(ctx context.Context, id int64) (Issue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, issue := range s.issues {
		if issue.ID == id {
			return issue, nil
		}
	}
	return Issue{}, ErrIssueNotFound
}

func (s *MemStore) InsertIssue(ctx context.Context, issue Issue) (Issue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	issue.ID = s.nextID
	s.nextID++
	s.issues = append(s.issues, issue)
	return issue, nil
}

func (s *MemStore) UpvoteIssue(ctx context.Context, id int64) (Issue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.issues {
		if s.issues[i].ID == id {
			s.issues[i].Upvotes++
			return s.issues[i], nil
		}
	}
	return Issue{}, ErrIssueNotFound
}

func (s *MemStore) SummaryCounts(ctx context.Context) (total int, resolved int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, issue := range s.issues {
		total++
		if issue.Status == StatusResolved {
			resolved++
		}
	}
	return total, resolved, nil
}

func (s *MemStore) CountUsers(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users), nil
}

func (s *MemStore) GetUserByEmail(ctx context.Context, email string) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[email]
	if !ok {
		return User{}, sql.ErrNoRows
	}
	return user, nil
}

func (s *MemStore) GetUserByID(ctx context.Context, id string) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.ID == id {
			return user, nil
		}
	}
	return User{}, sql.ErrNoRows
}

func (s *MemStore) CreateUser(ctx context.Context, user User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	s.users[user.Email] = user
	return nil
}

func (s *MemStore) UpdateUserRole(ctx context.Context, userID, role string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for email, user := range s.users {
		if user.ID == userID {
			user.Role = role
			s.users[email] = user
			return nil
		}
	}
	return nil
}

func (s *MemStore) SaveRefreshSession(ctx context.Context, tokenHash, userID, role string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresh[tokenHash] = refreshRecord{userID: userID, role: role, expiresAt: expiresAt}
	return nil
}

func (s *MemStore) LookupRefreshSession(ctx context.Context, tokenHash string) (User, error) {
	s.mu.Lock()
	record, ok := s.refresh[tokenHash]
	s.mu.Unlock()
	if !ok || time.Now().After(record.expiresAt) {
		return User{}, sql.ErrNoRows
	}
	user, err := s.GetUserByID(ctx, record.userID)
	if err != nil {
		return User{}, err
	}
	user.Role = record.role
	return user, nil
}

func (s *MemStore) RevokeRefreshSession(ctx context.Context, tokenHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.refresh, tokenHash)
	return nil
}

func (s *MemStore) RevokeAccessToken(ctx context.Context, jti string, exp time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[jti] = exp
	return nil
}

func (s *MemStore) IsAccessTokenRevoked(ctx context.Context, jti string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.revoked[jti]
	return ok, nil
}

func (s *MemStore) InsertModerationEvent(ctx context.Context, event ModerationEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	event.ID = s.nextEvent
	s.nextEvent++
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	s.moderation = append(s.moderation, event)
	return nil
}

func (s *MemStore) ListModerationEvents(ctx context.Context, limit int) ([]ModerationEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit <= 0 || limit > len(s.moderation) {
		limit = len(s.moderation)
	}
	items := make([]ModerationEvent, 0, limit)
	for i := len(s.moderation) - 1; i >= 0 && len(items) < limit; i-- {
		items = append(items, s.moderation[i])
	}
	return items, nil
}

func (s *MemStore) Ping(ctx context.Context) error {
	return nil
}
