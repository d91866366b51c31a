package invitation

// CreateInvitationRequest represents the request to invite someone to a circle
type CreateInvitationRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// InvitationResponse represents an invitation as seen by circle members
type InvitationResponse struct {
	ID        int64  `json:"id"`
	CircleID  int64  `json:"circle_id"`
	Email     string `json:"email"`
	Status    string `json:"status"`
	ExpiresAt string `json:"expires_at"`
	CreatedAt string `json:"created_at"`
}

// LookupResponse is the unauthenticated preview shown on the accept page
type LookupResponse struct {
	Email       string `json:"email"`
	CircleName  string `json:"circle_name"`
	InviterName string `json:"inviter_name"`
}

// AcceptResponse confirms a joined circle
type AcceptResponse struct {
	CircleID   int64  `json:"circle_id"`
	CircleName string `json:"circle_name"`
}

const timestampFormat = "2006-01-02T15:04:05Z07:00"

// ToResponse converts an Invitation model to an InvitationResponse DTO
func (i *Invitation) ToResponse() *InvitationResponse {
	return &InvitationResponse{
		ID:        i.ID,
		CircleID:  i.CircleID,
		Email:     i.Email,
		Status:    i.Status,
		ExpiresAt: i.ExpiresAt.Format(timestampFormat),
		CreatedAt: i.CreatedAt.Format(timestampFormat),
	}
}

// ToLookupResponse renders the preview for an unauthenticated token lookup
func (i *Invitation) ToLookupResponse() *LookupResponse {
	return &LookupResponse{
		Email:       i.Email,
		CircleName:  i.CircleName,
		InviterName: i.InviterName,
	}
}
