package invitation

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cowriteapp/cowrite/internal/auth"
	"github.com/cowriteapp/cowrite/internal/mailer"
)

// Common errors
var (
	ErrNotFound      = errors.New("invitation not found")
	ErrExpired       = errors.New("invitation has expired")
	ErrAlreadyUsed   = errors.New("invitation has already been used")
	ErrAlreadyMember = errors.New("user is already a member of this circle")
	ErrInvalidEmail  = errors.New("invalid email address")
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Store persists invitations
type Store interface {
	Create(ctx context.Context, circleID int64, email, token string, invitedByID int64, expiresAt time.Time) (*Invitation, error)
	GetByToken(ctx context.Context, token string) (*Invitation, error)
	MemberExists(ctx context.Context, circleID, userID int64) (bool, error)
	Accept(ctx context.Context, token string, userID int64) (bool, error)
}

// Authorizer gates invitation creation
type Authorizer interface {
	CanViewCircle(ctx context.Context, principal *auth.Principal, circleID int64) error
}

// Service handles invitation business logic
type Service struct {
	store  Store
	authz  Authorizer
	mailer mailer.Mailer
	logger *zap.Logger
	appURL string
	now    func() time.Time
}

// NewService creates a new invitation service with dependencies injected
func NewService(store Store, authz Authorizer, m mailer.Mailer, logger *zap.Logger, appURL string) *Service {
	return &Service{
		store:  store,
		authz:  authz,
		mailer: m,
		logger: logger,
		appURL: strings.TrimRight(appURL, "/"),
		now:    time.Now,
	}
}

// Create issues a pending invitation and sends the invite mail in the
// background. Any circle member may invite.
func (s *Service) Create(ctx context.Context, principal *auth.Principal, circleID int64, req *CreateInvitationRequest) (*Invitation, error) {
	if err := s.authz.CanViewCircle(ctx, principal, circleID); err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !emailPattern.MatchString(email) {
		return nil, ErrInvalidEmail
	}

	token, err := NewToken()
	if err != nil {
		return nil, err
	}

	inv, err := s.store.Create(ctx, circleID, email, token, principal.ID, s.now().Add(TTL))
	if err != nil {
		return nil, err
	}

	// Mail delivery must not block or fail the request.
	go func() {
		err := s.mailer.SendInvitation(context.Background(), mailer.Invite{
			Email:       inv.Email,
			CircleName:  inv.CircleName,
			InviterName: inv.InviterName,
			AcceptURL:   s.appURL + "/invitations/" + inv.Token,
		})
		if err != nil {
			s.logger.Warn("invitation mail failed",
				zap.String("email", inv.Email),
				zap.Error(err))
		}
	}()

	return inv, nil
}

// Lookup retrieves an invitation preview by token. Unauthenticated; the
// token itself is the credential.
func (s *Service) Lookup(ctx context.Context, token string) (*Invitation, error) {
	inv, err := s.store.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, ErrNotFound
	}
	if inv.Status != StatusPending {
		return nil, ErrAlreadyUsed
	}
	if inv.Expired(s.now()) {
		return nil, ErrExpired
	}

	return inv, nil
}

// Accept enrolls the calling user into the invitation's circle. Each
// invitation admits exactly one user exactly once.
func (s *Service) Accept(ctx context.Context, principal *auth.Principal, token string) (*AcceptResponse, error) {
	inv, err := s.Lookup(ctx, token)
	if err != nil {
		return nil, err
	}

	member, err := s.store.MemberExists(ctx, inv.CircleID, principal.ID)
	if err != nil {
		return nil, err
	}
	if member {
		return nil, ErrAlreadyMember
	}

	won, err := s.store.Accept(ctx, token, principal.ID)
	if err != nil {
		return nil, err
	}
	if !won {
		// A racing accept got there first.
		return nil, ErrAlreadyUsed
	}

	return &AcceptResponse{CircleID: inv.CircleID, CircleName: inv.CircleName}, nil
}
