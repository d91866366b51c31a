package circle

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/cowriteapp/cowrite/internal/auth"
)

// Common errors
var (
	ErrNotFound           = errors.New("circle not found")
	ErrInvalidName        = errors.New("name must be between 2 and 100 characters")
	ErrInvalidDescription = errors.New("description must be at most 500 characters")
)

// Store persists circles and memberships
type Store interface {
	CreateWithAdmin(ctx context.Context, name string, description *string, creatorID int64) (*Circle, error)
	GetByID(ctx context.Context, id int64) (*Circle, error)
	ListByUserID(ctx context.Context, userID int64) ([]*Circle, error)
	ListAll(ctx context.Context) ([]*Circle, error)
	Update(ctx context.Context, id int64, req *UpdateCircleRequest) (*Circle, error)
	Delete(ctx context.Context, id int64) error
	GetMembers(ctx context.Context, circleID int64) ([]*Member, error)
}

// Authorizer gates circle reads and mutations
type Authorizer interface {
	CanViewCircle(ctx context.Context, principal *auth.Principal, circleID int64) error
	CanManageCircle(ctx context.Context, principal *auth.Principal, circleID int64) error
}

// Service handles circle business logic
type Service struct {
	store Store
	authz Authorizer
}

// NewService creates a new circle service with dependencies injected
func NewService(store Store, authz Authorizer) *Service {
	return &Service{store: store, authz: authz}
}

// Create creates a circle with the creator as its admin member
func (s *Service) Create(ctx context.Context, principal *auth.Principal, req *CreateCircleRequest) (*Circle, error) {
	name := strings.TrimSpace(req.Name)
	if n := utf8.RuneCountInString(name); n < 2 || n > 100 {
		return nil, ErrInvalidName
	}
	if req.Description != nil && utf8.RuneCountInString(*req.Description) > 500 {
		return nil, ErrInvalidDescription
	}

	return s.store.CreateWithAdmin(ctx, name, req.Description, principal.ID)
}

// Get retrieves a circle with its members; requires membership or elevation
func (s *Service) Get(ctx context.Context, principal *auth.Principal, id int64) (*Circle, []*Member, error) {
	if err := s.authz.CanViewCircle(ctx, principal, id); err != nil {
		return nil, nil, err
	}

	circle, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if circle == nil {
		return nil, nil, ErrNotFound
	}

	members, err := s.store.GetMembers(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	return circle, members, nil
}

// List retrieves the circles the principal belongs to
func (s *Service) List(ctx context.Context, principal *auth.Principal) ([]*Circle, error) {
	return s.store.ListByUserID(ctx, principal.ID)
}

// Update renames or re-describes a circle; requires circle-admin or elevation
func (s *Service) Update(ctx context.Context, principal *auth.Principal, id int64, req *UpdateCircleRequest) (*Circle, error) {
	if err := s.authz.CanManageCircle(ctx, principal, id); err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if n := utf8.RuneCountInString(name); n < 2 || n > 100 {
			return nil, ErrInvalidName
		}
		req.Name = &name
	}
	if req.Description != nil && utf8.RuneCountInString(*req.Description) > 500 {
		return nil, ErrInvalidDescription
	}

	circle, err := s.store.Update(ctx, id, req)
	if err != nil {
		return nil, err
	}
	if circle == nil {
		return nil, ErrNotFound
	}

	return circle, nil
}

// Delete removes a circle and everything it owns; requires circle-admin or
// elevation
func (s *Service) Delete(ctx context.Context, principal *auth.Principal, id int64) error {
	if err := s.authz.CanManageCircle(ctx, principal, id); err != nil {
		return err
	}

	return s.store.Delete(ctx, id)
}

// ListAll retrieves every circle (admin view)
func (s *Service) ListAll(ctx context.Context) ([]*Circle, error) {
	return s.store.ListAll(ctx)
}

// AdminGet retrieves any circle with members, bypassing membership checks.
// Callers must already have verified elevation.
func (s *Service) AdminGet(ctx context.Context, id int64) (*Circle, []*Member, error) {
	circle, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if circle == nil {
		return nil, nil, ErrNotFound
	}

	members, err := s.store.GetMembers(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	return circle, members, nil
}

// AdminDelete removes any circle (admin view)
func (s *Service) AdminDelete(ctx context.Context, id int64) error {
	return s.store.Delete(ctx, id)
}
