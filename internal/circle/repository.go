package circle

import (
	"context"
	"database/sql"
	"fmt"
)

// Repository handles circle data persistence
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new circle repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// CreateWithAdmin inserts a circle and its creator's admin membership in a
// single transaction. A circle must never exist without its creator as an
// admin member.
func (r *Repository) CreateWithAdmin(ctx context.Context, name string, description *string, creatorID int64) (*Circle, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	circle := &Circle{}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO circles (name, description, created_by_id)
		VALUES ($1, $2, $3)
		RETURNING id, name, description, created_by_id, created_at
	`, name, description, creatorID).Scan(
		&circle.ID,
		&circle.Name,
		&circle.Description,
		&circle.CreatedByID,
		&circle.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create circle: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO circle_members (circle_id, user_id, role)
		VALUES ($1, $2, $3)
	`, circle.ID, creatorID, RoleAdmin)
	if err != nil {
		return nil, fmt.Errorf("failed to add creator as admin: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit circle creation: %w", err)
	}

	return circle, nil
}

// GetByID retrieves a circle with its stories count
func (r *Repository) GetByID(ctx context.Context, id int64) (*Circle, error) {
	query := `
		SELECT c.id, c.name, c.description, c.created_by_id, c.created_at,
		       (SELECT COUNT(*) FROM stories s WHERE s.circle_id = c.id)
		FROM circles c
		WHERE c.id = $1
	`

	circle := &Circle{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&circle.ID,
		&circle.Name,
		&circle.Description,
		&circle.CreatedByID,
		&circle.CreatedAt,
		&circle.StoriesCount,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get circle: %w", err)
	}

	return circle, nil
}

// ListByUserID retrieves all circles the user is a member of
func (r *Repository) ListByUserID(ctx context.Context, userID int64) ([]*Circle, error) {
	query := `
		SELECT c.id, c.name, c.description, c.created_by_id, c.created_at,
		       (SELECT COUNT(*) FROM stories s WHERE s.circle_id = c.id)
		FROM circles c
		JOIN circle_members cm ON c.id = cm.circle_id
		WHERE cm.user_id = $1
		ORDER BY c.created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list circles: %w", err)
	}
	defer rows.Close()

	var circles []*Circle
	for rows.Next() {
		circle := &Circle{}
		if err := rows.Scan(
			&circle.ID,
			&circle.Name,
			&circle.Description,
			&circle.CreatedByID,
			&circle.CreatedAt,
			&circle.StoriesCount,
		); err != nil {
			return nil, fmt.Errorf("failed to scan circle: %w", err)
		}
		circles = append(circles, circle)
	}

	return circles, nil
}

// ListAll retrieves every circle, newest first (admin view)
func (r *Repository) ListAll(ctx context.Context) ([]*Circle, error) {
	query := `
		SELECT c.id, c.name, c.description, c.created_by_id, c.created_at,
		       (SELECT COUNT(*) FROM stories s WHERE s.circle_id = c.id)
		FROM circles c
		ORDER BY c.created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list circles: %w", err)
	}
	defer rows.Close()

	var circles []*Circle
	for rows.Next() {
		circle := &Circle{}
		if err := rows.Scan(
			&circle.ID,
			&circle.Name,
			&circle.Description,
			&circle.CreatedByID,
			&circle.CreatedAt,
			&circle.StoriesCount,
		); err != nil {
			return nil, fmt.Errorf("failed to scan circle: %w", err)
		}
		circles = append(circles, circle)
	}

	return circles, nil
}

// Update modifies an existing circle
func (r *Repository) Update(ctx context.Context, id int64, req *UpdateCircleRequest) (*Circle, error) {
	query := `
		UPDATE circles
		SET name = COALESCE($2, name),
		    description = COALESCE($3, description)
		WHERE id = $1
		RETURNING id, name, description, created_by_id, created_at
	`

	circle := &Circle{}
	err := r.db.QueryRowContext(ctx, query, id, req.Name, req.Description).Scan(
		&circle.ID,
		&circle.Name,
		&circle.Description,
		&circle.CreatedByID,
		&circle.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update circle: %w", err)
	}

	return circle, nil
}

// Delete removes a circle; members, stories and invitations cascade
func (r *Repository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM circles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete circle: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

// GetMembers retrieves all members of a circle with their user fields
func (r *Repository) GetMembers(ctx context.Context, circleID int64) ([]*Member, error) {
	query := `
		SELECT cm.id, cm.circle_id, cm.user_id, cm.role, cm.created_at, u.name, u.email
		FROM circle_members cm
		JOIN users u ON cm.user_id = u.id
		WHERE cm.circle_id = $1
		ORDER BY cm.created_at
	`

	rows, err := r.db.QueryContext(ctx, query, circleID)
	if err != nil {
		return nil, fmt.Errorf("failed to get members: %w", err)
	}
	defer rows.Close()

	var members []*Member
	for rows.Next() {
		member := &Member{}
		if err := rows.Scan(
			&member.ID,
			&member.CircleID,
			&member.UserID,
			&member.Role,
			&member.CreatedAt,
			&member.UserName,
			&member.UserEmail,
		); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, member)
	}

	return members, nil
}
