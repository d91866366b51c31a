package invitation

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Repository handles invitation data persistence
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new invitation repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a pending invitation
func (r *Repository) Create(ctx context.Context, circleID int64, email, token string, invitedByID int64, expiresAt time.Time) (*Invitation, error) {
	inv := &Invitation{}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO invitations (circle_id, email, token, invited_by_id, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, circle_id, email, token, status, invited_by_id, expires_at, created_at
	`, circleID, email, token, invitedByID, expiresAt).Scan(
		&inv.ID,
		&inv.CircleID,
		&inv.Email,
		&inv.Token,
		&inv.Status,
		&inv.InvitedByID,
		&inv.ExpiresAt,
		&inv.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create invitation: %w", err)
	}

	err = r.db.QueryRowContext(ctx, `
		SELECT c.name, u.name
		FROM circles c, users u
		WHERE c.id = $1 AND u.id = $2
	`, circleID, invitedByID).Scan(&inv.CircleName, &inv.InviterName)
	if err != nil {
		return nil, fmt.Errorf("failed to load invitation names: %w", err)
	}

	return inv, nil
}

// GetByToken retrieves an invitation with its circle and inviter names
func (r *Repository) GetByToken(ctx context.Context, token string) (*Invitation, error) {
	query := `
		SELECT i.id, i.circle_id, i.email, i.token, i.status, i.invited_by_id,
		       i.expires_at, i.created_at, c.name, u.name
		FROM invitations i
		JOIN circles c ON i.circle_id = c.id
		JOIN users u ON i.invited_by_id = u.id
		WHERE i.token = $1
	`

	inv := &Invitation{}
	err := r.db.QueryRowContext(ctx, query, token).Scan(
		&inv.ID,
		&inv.CircleID,
		&inv.Email,
		&inv.Token,
		&inv.Status,
		&inv.InvitedByID,
		&inv.ExpiresAt,
		&inv.CreatedAt,
		&inv.CircleName,
		&inv.InviterName,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get invitation: %w", err)
	}

	return inv, nil
}

// MemberExists reports whether the user already belongs to the circle
func (r *Repository) MemberExists(ctx context.Context, circleID, userID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM circle_members WHERE circle_id = $1 AND user_id = $2
		)
	`, circleID, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check membership: %w", err)
	}

	return exists, nil
}

// Accept flips a pending invitation to accepted and enrolls the user, in a
// single transaction. The status flip is a compare-and-swap; of two racing
// accepts only one sees a row updated, the other reports false.
func (r *Repository) Accept(ctx context.Context, token string, userID int64) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var circleID int64
	err = tx.QueryRowContext(ctx, `
		UPDATE invitations SET status = $2
		WHERE token = $1 AND status = $3
		RETURNING circle_id
	`, token, StatusAccepted, StatusPending).Scan(&circleID)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("failed to accept invitation: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO circle_members (circle_id, user_id, role)
		VALUES ($1, $2, 'member')
	`, circleID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to add member: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit acceptance: %w", err)
	}

	return true, nil
}
