package store

import "time"

// Issue statuses. Issues are created as StatusNew; the other statuses are
// applied by operators outside the portal API (seed data uses all three).
const (
	StatusNew      = "new"
	StatusInReview = "in-review"
	StatusResolved = "resolved"
)

type Issue struct {
	ID          int64
	Title       string
	Description string
	Status      string
	Upvotes     int
	Author      string
	Date        time.Time
}

type User struct {
	ID           string
	Email        string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
}

// ModerationEvent records a review/approve/reject action. These actions have
// no effect on issue state; the event row is the extension point.
type ModerationEvent struct {
	ID        int64
	IssueID   int64
	Action    string
	Actor     string
	CreatedAt time.Time
}
