// Package policy holds the membership and authorization capability checks.
//
// Authorization rules:
//   - Super admins pass every check.
//   - Reading a circle or story requires circle membership.
//   - Managing a circle (rename, delete) requires the admin member role.
//   - Creating stories and contributions requires circle membership.
//
// Every denial is ErrForbidden with a generic message; checks never reveal
// whether the denied resource exists.
package policy

import (
	"context"
	"errors"

	"github.com/cowriteapp/cowrite/internal/auth"
)

// Common errors
var (
	ErrForbidden = errors.New("not authorized to perform this action")
	ErrNotFound  = errors.New("resource not found")
)

// Store provides the minimal membership data needed for authorization checks
type Store interface {
	// MemberRole returns the role of the user in the circle, and whether a
	// membership row exists at all.
	MemberRole(ctx context.Context, circleID, userID int64) (string, bool, error)
	// StoryCircle resolves a story to its owning circle. Returns ErrNotFound
	// for unknown stories.
	StoryCircle(ctx context.Context, storyID int64) (int64, error)
}

// Policy evaluates per-request capability checks
type Policy struct {
	store Store
}

// New creates a policy evaluator backed by the given store
func New(store Store) *Policy {
	return &Policy{store: store}
}

// IsMember reports whether the user belongs to the circle
func (p *Policy) IsMember(ctx context.Context, userID, circleID int64) (bool, error) {
	_, found, err := p.store.MemberRole(ctx, circleID, userID)
	return found, err
}

// IsCircleAdmin reports whether the user is an admin member of the circle
func (p *Policy) IsCircleAdmin(ctx context.Context, userID, circleID int64) (bool, error) {
	role, found, err := p.store.MemberRole(ctx, circleID, userID)
	if err != nil {
		return false, err
	}
	return found && role == "admin", nil
}

// CanViewCircle requires membership or elevated privilege
func (p *Policy) CanViewCircle(ctx context.Context, principal *auth.Principal, circleID int64) error {
	if principal == nil {
		return ErrForbidden
	}
	if principal.SuperAdmin {
		return nil
	}
	member, err := p.IsMember(ctx, principal.ID, circleID)
	if err != nil {
		return err
	}
	if !member {
		return ErrForbidden
	}
	return nil
}

// CanManageCircle requires the circle-admin role or elevated privilege
func (p *Policy) CanManageCircle(ctx context.Context, principal *auth.Principal, circleID int64) error {
	if principal == nil {
		return ErrForbidden
	}
	if principal.SuperAdmin {
		return nil
	}
	admin, err := p.IsCircleAdmin(ctx, principal.ID, circleID)
	if err != nil {
		return err
	}
	if !admin {
		return ErrForbidden
	}
	return nil
}

// CanCreateStory requires membership or elevated privilege
func (p *Policy) CanCreateStory(ctx context.Context, principal *auth.Principal, circleID int64) error {
	return p.CanViewCircle(ctx, principal, circleID)
}

// CanViewStory requires membership of the story's circle or elevated
// privilege. Unknown stories surface ErrNotFound for every caller.
func (p *Policy) CanViewStory(ctx context.Context, principal *auth.Principal, storyID int64) error {
	circleID, err := p.store.StoryCircle(ctx, storyID)
	if err != nil {
		return err
	}
	return p.CanViewCircle(ctx, principal, circleID)
}
