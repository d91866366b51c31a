package invitation

import "time"

// Invitation statuses
const (
	StatusPending  = "pending"
	StatusAccepted = "accepted"
)

// How long an invitation stays valid after being sent
const TTL = 7 * 24 * time.Hour

// Invitation represents a pending or accepted invitation to a circle
type Invitation struct {
	ID          int64     `json:"id" db:"id"`
	CircleID    int64     `json:"circle_id" db:"circle_id"`
	Email       string    `json:"email" db:"email"`
	Token       string    `json:"-" db:"token"`
	Status      string    `json:"status" db:"status"`
	InvitedByID int64     `json:"invited_by_id" db:"invited_by_id"`
	ExpiresAt   time.Time `json:"expires_at" db:"expires_at"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`

	// Joined fields
	CircleName  string `json:"-" db:"circle_name"`
	InviterName string `json:"-" db:"inviter_name"`
}

// Expired reports whether the invitation's deadline has passed. Expiry is
// lazy; rows are never flipped by a background job.
func (i *Invitation) Expired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}
