package story

import "time"

// Story statuses
const (
	StatusActive    = "active"
	StatusCompleted = "completed"
)

// Story represents a story in the system
type Story struct {
	ID          int64     `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Prompt      *string   `json:"prompt,omitempty" db:"prompt"`
	CircleID    int64     `json:"circle_id" db:"circle_id"`
	StartedByID *int64    `json:"started_by_id,omitempty" db:"started_by_id"`
	Status      string    `json:"status" db:"status"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`

	// Joined fields
	StartedByName      string `json:"-" db:"started_by_name"`
	ContributionsCount int    `json:"contributions_count" db:"contributions_count"`
	WordCount          int    `json:"word_count" db:"word_count"`
}

// Active reports whether the story still accepts turns
func (s *Story) Active() bool {
	return s.Status == StatusActive
}
