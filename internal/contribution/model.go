package contribution

import "time"

// Contribution is one turn's worth of text appended to a story.
//
// UserID is the attributed author: the user the text appears to be written
// by. WrittenByID is set only when a super admin wrote the text while
// impersonating someone else.
type Contribution struct {
	ID          int64      `json:"id"`
	StoryID     int64      `json:"story_id"`
	UserID      int64      `json:"user_id"`
	Content     string     `json:"content"`
	WordCount   int        `json:"word_count"`
	Position    int        `json:"position"`
	WrittenByID *int64     `json:"written_by_id,omitempty"`
	WrittenAt   *time.Time `json:"written_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`

	// Populated from JOIN
	UserName       string `json:"user_name,omitempty"`
	UserEmail      string `json:"user_email,omitempty"`
	WrittenByName  string `json:"written_by_name,omitempty"`
	WrittenByEmail string `json:"written_by_email,omitempty"`
}

// Impersonated reports whether the contribution was written by someone
// other than its attributed author
func (c *Contribution) Impersonated() bool {
	return c.WrittenByID != nil && *c.WrittenByID != c.UserID
}

// EffectiveTimestamp is the backdated written_at when set, otherwise the
// creation time
func (c *Contribution) EffectiveTimestamp() time.Time {
	if c.WrittenAt != nil {
		return *c.WrittenAt
	}
	return c.CreatedAt
}
