package user

// RegisterRequest represents the request to create an account
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Password string `json:"password" validate:"required,min=8"`
}

// LoginRequest represents the request to authenticate
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UserResponse represents the response for a user
type UserResponse struct {
	ID           int64  `json:"id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	IsSuperAdmin bool   `json:"is_super_admin"`
	CreatedAt    string `json:"created_at"`
}

// AuthResponse carries a signed token together with its user
type AuthResponse struct {
	Token string        `json:"token"`
	User  *UserResponse `json:"user"`
}

// AdminUserResponse is the admin listing entry with activity counts
type AdminUserResponse struct {
	*UserResponse
	CirclesCount       int `json:"circles_count"`
	ContributionsCount int `json:"contributions_count"`
}

// UserCircle is a circle membership in the admin user detail
type UserCircle struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

// UserContribution is a recent contribution in the admin user detail
type UserContribution struct {
	ID         int64  `json:"id"`
	StoryID    int64  `json:"story_id"`
	StoryTitle string `json:"story_title"`
	WordCount  int    `json:"word_count"`
	Position   int    `json:"position"`
	CreatedAt  string `json:"created_at"`
}

// AdminUserDetailResponse is the full admin view of one user
type AdminUserDetailResponse struct {
	*AdminUserResponse
	Circles             []*UserCircle       `json:"circles"`
	RecentContributions []*UserContribution `json:"recent_contributions"`
}

const timestampFormat = "2006-01-02T15:04:05Z07:00"

// ToResponse converts a User model to a UserResponse DTO
func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		IsSuperAdmin: u.IsSuperAdmin,
		CreatedAt:    u.CreatedAt.Format(timestampFormat),
	}
}

// ToAdminResponse converts a User model to an admin listing entry
func (u *User) ToAdminResponse() *AdminUserResponse {
	return &AdminUserResponse{
		UserResponse:       u.ToResponse(),
		CirclesCount:       u.CirclesCount,
		ContributionsCount: u.ContributionsCount,
	}
}
