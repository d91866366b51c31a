package circle

import "time"

// MemberRole represents the role of a circle member
type MemberRole string

const (
	RoleAdmin  MemberRole = "admin"
	RoleMember MemberRole = "member"
)

// Circle represents a private group of users who co-write stories
type Circle struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	CreatedByID *int64    `json:"created_by_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`

	// Populated on demand
	StoriesCount int `json:"stories_count"`
}

// Member represents a user's membership in a circle
type Member struct {
	ID        int64      `json:"id"`
	CircleID  int64      `json:"circle_id"`
	UserID    int64      `json:"user_id"`
	Role      MemberRole `json:"role"`
	CreatedAt time.Time  `json:"created_at"`

	// Populated from JOIN
	UserName  string `json:"user_name,omitempty"`
	UserEmail string `json:"user_email,omitempty"`
}
