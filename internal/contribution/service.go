package contribution

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/cowriteapp/cowrite/internal/auth"
	"github.com/cowriteapp/cowrite/internal/broadcast"
)

// Common errors
var (
	ErrNotFound       = errors.New("contribution not found")
	ErrStoryNotFound  = errors.New("story not found")
	ErrStoryNotActive = errors.New("this story is no longer accepting contributions")
	ErrNotAuthorized  = errors.New("not authorized to perform this action")
	ErrValidation     = errors.New("content must be between 1 and 10,000 characters")
	ErrConflict       = errors.New("could not assign a position, please retry")
)

const (
	maxContentLength = 10000

	// Attempts before a position-assignment race is surfaced to the caller
	maxPositionAttempts = 3
)

// Store persists contributions. Insert and DeleteAndRenumber are atomic
// with respect to concurrent submissions against the same story.
type Store interface {
	Insert(ctx context.Context, params *InsertParams) (*Contribution, error)
	GetByID(ctx context.Context, id int64) (*Contribution, error)
	ListByStory(ctx context.Context, storyID int64) ([]*Contribution, error)
	UpdateContent(ctx context.Context, id int64, content string, wordCount int) (*Contribution, error)
	AdminUpdate(ctx context.Context, id int64, params *AdminUpdateParams) (*Contribution, error)
	DeleteAndRenumber(ctx context.Context, id int64) error
}

// Authorizer gates submissions by circle membership
type Authorizer interface {
	CanViewStory(ctx context.Context, principal *auth.Principal, storyID int64) error
}

// Publisher fans events out to live story viewers
type Publisher interface {
	Publish(storyID int64, msg broadcast.Message)
}

// Service is the turn-taking sequencer: it validates, attributes, positions
// and persists contributions, and broadcasts the result.
type Service struct {
	store  Store
	authz  Authorizer
	hub    Publisher
	logger *zap.Logger
}

// NewService creates a new contribution service with dependencies injected
func NewService(store Store, authz Authorizer, hub Publisher, logger *zap.Logger) *Service {
	return &Service{store: store, authz: authz, hub: hub, logger: logger}
}

// Submit appends a contribution to a story.
//
// Regular users write as themselves and only while the story is active.
// Super admins may additionally submit to completed stories, attribute the
// text to another user (the submission is then marked as written by the
// admin), and backdate it with written_at.
func (s *Service) Submit(ctx context.Context, principal *auth.Principal, storyID int64, req *CreateContributionRequest) (*Contribution, error) {
	if err := validateContent(req.Content); err != nil {
		return nil, err
	}

	if err := s.authz.CanViewStory(ctx, principal, storyID); err != nil {
		return nil, err
	}

	params := &InsertParams{
		StoryID:        storyID,
		UserID:         principal.ID,
		Content:        req.Content,
		WordCount:      CountWords(req.Content),
		AllowCompleted: principal.Elevated(),
	}

	if principal.Elevated() {
		if req.UserID != nil {
			params.UserID = *req.UserID
			params.WrittenByID = &principal.ID
		}
		params.WrittenAt = req.WrittenAt
	}

	created, err := s.insertWithRetry(ctx, params)
	if err != nil {
		return nil, err
	}

	s.publish(broadcast.EventNewContribution, created)
	return created, nil
}

// insertWithRetry retries lost position-assignment races transparently
func (s *Service) insertWithRetry(ctx context.Context, params *InsertParams) (*Contribution, error) {
	var lastErr error
	for attempt := 1; attempt <= maxPositionAttempts; attempt++ {
		created, err := s.store.Insert(ctx, params)
		if err == nil {
			return created, nil
		}
		if !errors.Is(err, errPositionConflict) {
			return nil, err
		}
		lastErr = err
		s.logger.Debug("position conflict, retrying",
			zap.Int64("story_id", params.StoryID),
			zap.Int("attempt", attempt))
	}

	s.logger.Warn("position conflict retries exhausted",
		zap.Int64("story_id", params.StoryID),
		zap.Error(lastErr))
	return nil, ErrConflict
}

// Edit replaces a contribution's content. Ordinary users may only edit
// their own contributions; super admins may edit any.
func (s *Service) Edit(ctx context.Context, principal *auth.Principal, id int64, req *UpdateContributionRequest) (*Contribution, error) {
	if err := validateContent(req.Content); err != nil {
		return nil, err
	}

	existing, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrNotFound
	}

	if existing.UserID != principal.ID && !principal.Elevated() {
		return nil, ErrNotAuthorized
	}

	updated, err := s.store.UpdateContent(ctx, id, req.Content, CountWords(req.Content))
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrNotFound
	}

	s.publish(broadcast.EventContributionUpdated, updated)
	return updated, nil
}

// AdminEdit is the privileged edit: content, attributed user and written_at
// may all change. The acting admin is recorded as the actual writer.
func (s *Service) AdminEdit(ctx context.Context, principal *auth.Principal, id int64, req *AdminUpdateContributionRequest) (*Contribution, error) {
	if !principal.Elevated() {
		return nil, ErrNotAuthorized
	}

	existing, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrNotFound
	}

	params := &AdminUpdateParams{
		UserID:      req.UserID,
		WrittenByID: &principal.ID,
		WrittenAt:   req.WrittenAt,
	}

	if req.Content != nil {
		if err := validateContent(*req.Content); err != nil {
			return nil, err
		}
		wordCount := CountWords(*req.Content)
		params.Content = req.Content
		params.WordCount = &wordCount
	}

	updated, err := s.store.AdminUpdate(ctx, id, params)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrNotFound
	}

	s.publish(broadcast.EventContributionUpdated, updated)
	return updated, nil
}

// Delete removes a contribution and renumbers the story's remaining
// contributions into a dense 1..N sequence. Privileged only.
func (s *Service) Delete(ctx context.Context, principal *auth.Principal, id int64) error {
	if !principal.Elevated() {
		return ErrNotAuthorized
	}

	return s.store.DeleteAndRenumber(ctx, id)
}

// ListByStory returns a story's contributions ordered by position. Callers
// are responsible for authorization.
func (s *Service) ListByStory(ctx context.Context, storyID int64) ([]*Contribution, error) {
	return s.store.ListByStory(ctx, storyID)
}

// publish fans the event out to live viewers. Fire-and-forget: the mutation
// has already committed and a delivery failure never rolls it back.
func (s *Service) publish(eventType string, c *Contribution) {
	if s.hub == nil {
		return
	}
	s.hub.Publish(c.StoryID, broadcast.Message{
		Public:   broadcast.Event{Type: eventType, Contribution: c.ToResponse(false)},
		Elevated: broadcast.Event{Type: eventType, Contribution: c.ToResponse(true)},
	})
}

func validateContent(content string) error {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" || utf8.RuneCountInString(trimmed) > maxContentLength {
		return ErrValidation
	}
	return nil
}
