package user

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
)

// Repository handles user data persistence
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new user repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new user
func (r *Repository) Create(ctx context.Context, email, name, passwordDigest string) (*User, error) {
	user := &User{}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO users (email, name, password_digest)
		VALUES ($1, $2, $3)
		RETURNING id, email, name, password_digest, is_super_admin, created_at
	`, email, name, passwordDigest).Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.PasswordDigest,
		&user.IsSuperAdmin,
		&user.CreatedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// GetByEmail retrieves a user by email
func (r *Repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	user := &User{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, email, name, password_digest, is_super_admin, created_at
		FROM users
		WHERE email = $1
	`, email).Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.PasswordDigest,
		&user.IsSuperAdmin,
		&user.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

// GetByID retrieves a user by ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*User, error) {
	user := &User{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, email, name, password_digest, is_super_admin, created_at
		FROM users
		WHERE id = $1
	`, id).Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.PasswordDigest,
		&user.IsSuperAdmin,
		&user.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

// Delete removes a user; memberships and contributions cascade, authored
// circles and stories keep their rows with the reference nulled
func (r *Repository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
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

// ListAll retrieves every user with activity counts (admin view)
func (r *Repository) ListAll(ctx context.Context) ([]*User, error) {
	query := `
		SELECT u.id, u.email, u.name, u.password_digest, u.is_super_admin, u.created_at,
		       (SELECT COUNT(*) FROM circle_members cm WHERE cm.user_id = u.id),
		       (SELECT COUNT(*) FROM contributions c WHERE c.user_id = u.id)
		FROM users u
		ORDER BY u.created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		user := &User{}
		if err := rows.Scan(
			&user.ID,
			&user.Email,
			&user.Name,
			&user.PasswordDigest,
			&user.IsSuperAdmin,
			&user.CreatedAt,
			&user.CirclesCount,
			&user.ContributionsCount,
		); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	return users, nil
}

// CirclesForUser retrieves the circles a user belongs to with their role
func (r *Repository) CirclesForUser(ctx context.Context, userID int64) ([]*UserCircle, error) {
	query := `
		SELECT c.id, c.name, cm.role
		FROM circles c
		JOIN circle_members cm ON cm.circle_id = c.id
		WHERE cm.user_id = $1
		ORDER BY c.created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user circles: %w", err)
	}
	defer rows.Close()

	var circles []*UserCircle
	for rows.Next() {
		c := &UserCircle{}
		if err := rows.Scan(&c.ID, &c.Name, &c.Role); err != nil {
			return nil, fmt.Errorf("failed to scan user circle: %w", err)
		}
		circles = append(circles, c)
	}

	return circles, nil
}

// RecentContributions retrieves a user's latest contributions with story
// titles (admin detail)
func (r *Repository) RecentContributions(ctx context.Context, userID int64, limit int) ([]*UserContribution, error) {
	query := `
		SELECT c.id, c.story_id, s.title, c.word_count, c.position, c.created_at
		FROM contributions c
		JOIN stories s ON c.story_id = s.id
		WHERE c.user_id = $1
		ORDER BY c.created_at DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list contributions: %w", err)
	}
	defer rows.Close()

	var contributions []*UserContribution
	for rows.Next() {
		var createdAt sql.NullTime
		c := &UserContribution{}
		if err := rows.Scan(&c.ID, &c.StoryID, &c.StoryTitle, &c.WordCount, &c.Position, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan contribution: %w", err)
		}
		if createdAt.Valid {
			c.CreatedAt = createdAt.Time.Format(timestampFormat)
		}
		contributions = append(contributions, c)
	}

	return contributions, nil
}
