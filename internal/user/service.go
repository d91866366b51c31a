package user

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"github.com/cowriteapp/cowrite/internal/auth"
)

// Common errors
var (
	ErrNotFound           = errors.New("user not found")
	ErrEmailTaken         = errors.New("email is already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrInvalidName        = errors.New("name must be between 2 and 100 characters")
	ErrInvalidPassword    = errors.New("password must be at least 8 characters")
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

const recentContributionsLimit = 20

// Store persists users
type Store interface {
	Create(ctx context.Context, email, name, passwordDigest string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
	Delete(ctx context.Context, id int64) error
	ListAll(ctx context.Context) ([]*User, error)
	CirclesForUser(ctx context.Context, userID int64) ([]*UserCircle, error)
	RecentContributions(ctx context.Context, userID int64, limit int) ([]*UserContribution, error)
}

// TokenIssuer signs tokens for authenticated users
type TokenIssuer interface {
	Issue(userID int64) (string, error)
}

// Service handles user business logic
type Service struct {
	store  Store
	tokens TokenIssuer
}

// NewService creates a new user service with dependencies injected
func NewService(store Store, tokens TokenIssuer) *Service {
	return &Service{store: store, tokens: tokens}
}

// Register creates an account and returns it with a signed token
func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*User, string, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !emailPattern.MatchString(email) {
		return nil, "", ErrInvalidEmail
	}

	name := strings.TrimSpace(req.Name)
	if n := utf8.RuneCountInString(name); n < 2 || n > 100 {
		return nil, "", ErrInvalidName
	}

	if len(req.Password) < 8 {
		return nil, "", ErrInvalidPassword
	}

	digest, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}

	created, err := s.store.Create(ctx, email, name, string(digest))
	if err != nil {
		return nil, "", err
	}

	token, err := s.tokens.Issue(created.ID)
	if err != nil {
		return nil, "", err
	}

	return created, token, nil
}

// Login authenticates by email and password and returns a signed token.
// Unknown emails and wrong passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, req *LoginRequest) (*User, string, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	found, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		return nil, "", err
	}
	if found == nil {
		return nil, "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(found.PasswordDigest), []byte(req.Password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(found.ID)
	if err != nil {
		return nil, "", err
	}

	return found, token, nil
}

// Get retrieves a user by ID
func (s *Service) Get(ctx context.Context, id int64) (*User, error) {
	found, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, ErrNotFound
	}

	return found, nil
}

// ResolvePrincipal loads the principal for a verified token subject
func (s *Service) ResolvePrincipal(ctx context.Context, userID int64) (*auth.Principal, error) {
	found, err := s.store.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, ErrNotFound
	}

	return &auth.Principal{
		ID:         found.ID,
		Email:      found.Email,
		Name:       found.Name,
		SuperAdmin: found.IsSuperAdmin,
	}, nil
}

// Impersonate issues a token for the target user. Callers must already have
// verified elevation; the issued token carries the target's identity.
func (s *Service) Impersonate(ctx context.Context, targetID int64) (*User, string, error) {
	target, err := s.Get(ctx, targetID)
	if err != nil {
		return nil, "", err
	}

	token, err := s.tokens.Issue(target.ID)
	if err != nil {
		return nil, "", err
	}

	return target, token, nil
}

// AdminList retrieves every user with activity counts
func (s *Service) AdminList(ctx context.Context) ([]*User, error) {
	return s.store.ListAll(ctx)
}

// AdminGet retrieves a user with their circles and recent contributions
func (s *Service) AdminGet(ctx context.Context, id int64) (*AdminUserDetailResponse, error) {
	found, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	circles, err := s.store.CirclesForUser(ctx, id)
	if err != nil {
		return nil, err
	}

	contributions, err := s.store.RecentContributions(ctx, id, recentContributionsLimit)
	if err != nil {
		return nil, err
	}

	found.CirclesCount = len(circles)
	return &AdminUserDetailResponse{
		AdminUserResponse:   found.ToAdminResponse(),
		Circles:             circles,
		RecentContributions: contributions,
	}, nil
}

// AdminDelete removes a user
func (s *Service) AdminDelete(ctx context.Context, id int64) error {
	return s.store.Delete(ctx, id)
}
