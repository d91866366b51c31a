package story

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/cowriteapp/cowrite/internal/auth"
	"github.com/cowriteapp/cowrite/internal/contribution"
)

// Common errors
var (
	ErrNotFound         = errors.New("story not found")
	ErrInvalidTitle     = errors.New("title must be between 2 and 200 characters")
	ErrAlreadyCompleted = errors.New("story is already completed")
)

// Store persists stories
type Store interface {
	Create(ctx context.Context, circleID int64, title string, prompt *string, starterID int64) (*Story, error)
	GetByID(ctx context.Context, id int64) (*Story, error)
	ListByCircle(ctx context.Context, circleID int64) ([]*Story, error)
	ListAll(ctx context.Context) ([]*Story, error)
	Complete(ctx context.Context, id int64) (bool, error)
	CircleMemberOptions(ctx context.Context, storyID int64) ([]*MemberOption, error)
}

// Authorizer gates story reads and mutations
type Authorizer interface {
	CanCreateStory(ctx context.Context, principal *auth.Principal, circleID int64) error
	CanViewCircle(ctx context.Context, principal *auth.Principal, circleID int64) error
	CanViewStory(ctx context.Context, principal *auth.Principal, storyID int64) error
}

// Sequencer appends and lists contributions; the story service uses it for
// optional opening contributions and for assembling story detail
type Sequencer interface {
	Submit(ctx context.Context, principal *auth.Principal, storyID int64, req *contribution.CreateContributionRequest) (*contribution.Contribution, error)
	ListByStory(ctx context.Context, storyID int64) ([]*contribution.Contribution, error)
}

// Service handles story business logic
type Service struct {
	store     Store
	authz     Authorizer
	sequencer Sequencer
	logger    *zap.Logger
}

// NewService creates a new story service with dependencies injected
func NewService(store Store, authz Authorizer, sequencer Sequencer, logger *zap.Logger) *Service {
	return &Service{store: store, authz: authz, sequencer: sequencer, logger: logger}
}

// Create starts a story in a circle. When initial content is given the
// starter's opening contribution is submitted through the sequencer, so it
// gets position 1 and a word count like any other turn.
func (s *Service) Create(ctx context.Context, principal *auth.Principal, circleID int64, req *CreateStoryRequest) (*Story, error) {
	if err := s.authz.CanCreateStory(ctx, principal, circleID); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(req.Title)
	if n := utf8.RuneCountInString(title); n < 2 || n > 200 {
		return nil, ErrInvalidTitle
	}

	created, err := s.store.Create(ctx, circleID, title, req.Prompt, principal.ID)
	if err != nil {
		return nil, err
	}

	if req.InitialContent != nil && strings.TrimSpace(*req.InitialContent) != "" {
		_, err := s.sequencer.Submit(ctx, principal, created.ID, &contribution.CreateContributionRequest{
			Content: *req.InitialContent,
		})
		if err != nil {
			// The story exists either way; surface the contribution failure
			// so the caller can retry the opening turn.
			s.logger.Warn("opening contribution failed",
				zap.Int64("story_id", created.ID),
				zap.Error(err))
			return nil, err
		}
		return s.store.GetByID(ctx, created.ID)
	}

	return created, nil
}

// Get retrieves a story with its ordered contributions. Privileged viewers
// also get the circle's member list for attribution.
func (s *Service) Get(ctx context.Context, principal *auth.Principal, id int64) (*Story, []*contribution.Contribution, []*MemberOption, error) {
	if err := s.authz.CanViewStory(ctx, principal, id); err != nil {
		return nil, nil, nil, err
	}

	story, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, nil, nil, err
	}
	if story == nil {
		return nil, nil, nil, ErrNotFound
	}

	contributions, err := s.sequencer.ListByStory(ctx, id)
	if err != nil {
		return nil, nil, nil, err
	}

	var members []*MemberOption
	if principal.Elevated() {
		members, err = s.store.CircleMemberOptions(ctx, id)
		if err != nil {
			return nil, nil, nil, err
		}
	}

	return story, contributions, members, nil
}

// ListByCircle retrieves the stories of a circle; requires membership or
// elevation
func (s *Service) ListByCircle(ctx context.Context, principal *auth.Principal, circleID int64) ([]*Story, error) {
	if err := s.authz.CanViewCircle(ctx, principal, circleID); err != nil {
		return nil, err
	}

	return s.store.ListByCircle(ctx, circleID)
}

// Complete marks a story as completed. The transition is one-way; completing
// an already completed story fails.
func (s *Service) Complete(ctx context.Context, principal *auth.Principal, id int64) (*Story, error) {
	if err := s.authz.CanViewStory(ctx, principal, id); err != nil {
		return nil, err
	}

	flipped, err := s.store.Complete(ctx, id)
	if err != nil {
		return nil, err
	}
	if !flipped {
		story, err := s.store.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if story == nil {
			return nil, ErrNotFound
		}
		return nil, ErrAlreadyCompleted
	}

	return s.store.GetByID(ctx, id)
}

// ListAll retrieves every story (admin view)
func (s *Service) ListAll(ctx context.Context) ([]*Story, error) {
	return s.store.ListAll(ctx)
}

// AdminGet retrieves any story with contributions, bypassing membership
// checks. Callers must already have verified elevation.
func (s *Service) AdminGet(ctx context.Context, id int64) (*Story, []*contribution.Contribution, []*MemberOption, error) {
	story, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, nil, nil, err
	}
	if story == nil {
		return nil, nil, nil, ErrNotFound
	}

	contributions, err := s.sequencer.ListByStory(ctx, id)
	if err != nil {
		return nil, nil, nil, err
	}

	members, err := s.store.CircleMemberOptions(ctx, id)
	if err != nil {
		return nil, nil, nil, err
	}

	return story, contributions, members, nil
}
