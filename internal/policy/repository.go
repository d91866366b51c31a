package policy

import (
	"context"
	"database/sql"
	"fmt"
)

// Repository answers membership queries directly against the database
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new policy repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// MemberRole returns the role of the user in the circle, if any
func (r *Repository) MemberRole(ctx context.Context, circleID, userID int64) (string, bool, error) {
	query := `
		SELECT role
		FROM circle_members
		WHERE circle_id = $1 AND user_id = $2
	`

	var role string
	err := r.db.QueryRowContext(ctx, query, circleID, userID).Scan(&role)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to get member role: %w", err)
	}

	return role, true, nil
}

// StoryCircle resolves a story to its owning circle
func (r *Repository) StoryCircle(ctx context.Context, storyID int64) (int64, error) {
	query := `SELECT circle_id FROM stories WHERE id = $1`

	var circleID int64
	err := r.db.QueryRowContext(ctx, query, storyID).Scan(&circleID)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("failed to resolve story circle: %w", err)
	}

	return circleID, nil
}
