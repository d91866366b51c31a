package contribution

import "time"

// CreateContributionRequest represents the request to append a contribution.
// UserID and WrittenAt are honored only for super admins: UserID attributes
// the text to another user (impersonation), WrittenAt backdates it.
type CreateContributionRequest struct {
	Content   string     `json:"content" validate:"required,min=1,max=10000"`
	UserID    *int64     `json:"user_id,omitempty"`
	WrittenAt *time.Time `json:"written_at,omitempty"`
}

// UpdateContributionRequest represents an author editing their own text
type UpdateContributionRequest struct {
	Content string `json:"content" validate:"required,min=1,max=10000"`
}

// AdminUpdateContributionRequest is the privileged edit: content, attributed
// user, and written_at may all be changed
type AdminUpdateContributionRequest struct {
	Content   *string    `json:"content,omitempty"`
	UserID    *int64     `json:"user_id,omitempty"`
	WrittenAt *time.Time `json:"written_at,omitempty"`
}

// AuthorResponse identifies a user in contribution payloads
type AuthorResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ContributionResponse is the wire shape of a contribution. Impersonated
// and WrittenBy appear only in renderings for elevated viewers.
type ContributionResponse struct {
	ID           int64           `json:"id"`
	StoryID      int64           `json:"story_id"`
	UserID       int64           `json:"user_id"`
	Content      string          `json:"content"`
	WordCount    int             `json:"word_count"`
	Position     int             `json:"position"`
	CreatedAt    string          `json:"created_at"`
	WrittenAt    *string         `json:"written_at,omitempty"`
	User         AuthorResponse  `json:"user"`
	Impersonated bool            `json:"impersonated,omitempty"`
	WrittenBy    *AuthorResponse `json:"written_by,omitempty"`
}

const timestampFormat = "2006-01-02T15:04:05Z07:00"

// ToResponse converts a Contribution to its wire shape. Impersonation
// fields are included only when the viewer is elevated.
func (c *Contribution) ToResponse(elevated bool) *ContributionResponse {
	resp := &ContributionResponse{
		ID:        c.ID,
		StoryID:   c.StoryID,
		UserID:    c.UserID,
		Content:   c.Content,
		WordCount: c.WordCount,
		Position:  c.Position,
		CreatedAt: c.CreatedAt.Format(timestampFormat),
		User: AuthorResponse{
			ID:    c.UserID,
			Name:  c.UserName,
			Email: c.UserEmail,
		},
	}

	if c.WrittenAt != nil {
		formatted := c.WrittenAt.Format(timestampFormat)
		resp.WrittenAt = &formatted
	}

	if elevated && c.Impersonated() {
		resp.Impersonated = true
		resp.WrittenBy = &AuthorResponse{
			ID:    *c.WrittenByID,
			Name:  c.WrittenByName,
			Email: c.WrittenByEmail,
		}
	}

	return resp
}
