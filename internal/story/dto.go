package story

import (
	"github.com/cowriteapp/cowrite/internal/contribution"
)

// CreateStoryRequest represents the request to start a story
type CreateStoryRequest struct {
	Title          string  `json:"title" validate:"required,min=2,max=200"`
	Prompt         *string `json:"prompt,omitempty"`
	InitialContent *string `json:"initial_content,omitempty"`
}

// MemberOption is a circle member rendered for privileged story views
type MemberOption struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// StoryResponse represents the response for a story
type StoryResponse struct {
	ID                 int64                                `json:"id"`
	Title              string                               `json:"title"`
	Prompt             *string                              `json:"prompt,omitempty"`
	CircleID           int64                                `json:"circle_id"`
	StartedByID        *int64                               `json:"started_by_id,omitempty"`
	Status             string                               `json:"status"`
	CreatedAt          string                               `json:"created_at"`
	ContributionsCount int                                  `json:"contributions_count"`
	WordCount          int                                  `json:"word_count"`
	Contributions      []*contribution.ContributionResponse `json:"contributions,omitempty"`
	CircleMembers      []*MemberOption                      `json:"circle_members,omitempty"`
}

const timestampFormat = "2006-01-02T15:04:05Z07:00"

// ToResponse converts a Story model to a StoryResponse DTO
func (s *Story) ToResponse() *StoryResponse {
	return &StoryResponse{
		ID:                 s.ID,
		Title:              s.Title,
		Prompt:             s.Prompt,
		CircleID:           s.CircleID,
		StartedByID:        s.StartedByID,
		Status:             s.Status,
		CreatedAt:          s.CreatedAt.Format(timestampFormat),
		ContributionsCount: s.ContributionsCount,
		WordCount:          s.WordCount,
	}
}
