package circle

// CreateCircleRequest represents the request to create a new circle
type CreateCircleRequest struct {
	Name        string  `json:"name" validate:"required,min=2,max=100"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=500"`
}

// UpdateCircleRequest represents the request to update a circle
type UpdateCircleRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=500"`
}

// MemberResponse represents a member in a circle response
type MemberResponse struct {
	ID       int64      `json:"id"`
	UserID   int64      `json:"user_id"`
	CircleID int64      `json:"circle_id"`
	Role     MemberRole `json:"role"`
	JoinedAt string     `json:"joined_at"`
	User     MemberUser `json:"user"`
}

// MemberUser identifies the member's user record
type MemberUser struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// CircleResponse represents the response for a circle
type CircleResponse struct {
	ID           int64             `json:"id"`
	Name         string            `json:"name"`
	Description  *string           `json:"description,omitempty"`
	CreatedByID  *int64            `json:"created_by_id,omitempty"`
	CreatedAt    string            `json:"created_at"`
	StoriesCount int               `json:"stories_count"`
	Members      []*MemberResponse `json:"members,omitempty"`
}

const timestampFormat = "2006-01-02T15:04:05Z07:00"

// ToResponse converts a Circle model to a CircleResponse DTO
func (c *Circle) ToResponse() *CircleResponse {
	return &CircleResponse{
		ID:           c.ID,
		Name:         c.Name,
		Description:  c.Description,
		CreatedByID:  c.CreatedByID,
		CreatedAt:    c.CreatedAt.Format(timestampFormat),
		StoriesCount: c.StoriesCount,
	}
}

// ToResponse converts a Member model to a MemberResponse DTO
func (m *Member) ToResponse() *MemberResponse {
	return &MemberResponse{
		ID:       m.ID,
		UserID:   m.UserID,
		CircleID: m.CircleID,
		Role:     m.Role,
		JoinedAt: m.CreatedAt.Format(timestampFormat),
		User: MemberUser{
			ID:    m.UserID,
			Name:  m.UserName,
			Email: m.UserEmail,
		},
	}
}
