package contribution

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// InsertParams carries a fully-resolved submission into the store.
// Attribution and privilege decisions happen in the service; the store only
// enforces the story gate and position atomicity.
type InsertParams struct {
	StoryID        int64
	UserID         int64
	Content        string
	WordCount      int
	WrittenByID    *int64
	WrittenAt      *time.Time
	AllowCompleted bool
}

// AdminUpdateParams carries a privileged partial update
type AdminUpdateParams struct {
	Content     *string
	WordCount   *int
	UserID      *int64
	WrittenByID *int64
	WrittenAt   *time.Time
}

// errPositionConflict signals a lost position-assignment race; the service
// retries these transparently.
var errPositionConflict = errors.New("position already taken")

// Repository handles contribution data persistence
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new contribution repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const contributionColumns = `
	c.id, c.story_id, c.user_id, c.content, c.word_count, c.position,
	c.written_by_id, c.written_at, c.created_at,
	u.name, u.email, COALESCE(w.name, ''), COALESCE(w.email, '')
`

const contributionJoins = `
	FROM contributions c
	JOIN users u ON c.user_id = u.id
	LEFT JOIN users w ON c.written_by_id = w.id
`

func scanContribution(row interface {
	Scan(dest ...interface{}) error
}) (*Contribution, error) {
	c := &Contribution{}
	err := row.Scan(
		&c.ID,
		&c.StoryID,
		&c.UserID,
		&c.Content,
		&c.WordCount,
		&c.Position,
		&c.WrittenByID,
		&c.WrittenAt,
		&c.CreatedAt,
		&c.UserName,
		&c.UserEmail,
		&c.WrittenByName,
		&c.WrittenByEmail,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Insert appends a contribution with the next position in its story.
//
// The story row is locked for the duration of the transaction so the
// max-position read and the insert are atomic; the deferred unique
// constraint on (story_id, position) is the backstop if two transactions
// slip past each other, surfacing as errPositionConflict at commit.
func (r *Repository) Insert(ctx context.Context, params *InsertParams) (*Contribution, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var status string
	err = tx.QueryRowContext(ctx,
		`SELECT status FROM stories WHERE id = $1 FOR UPDATE`,
		params.StoryID,
	).Scan(&status)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrStoryNotFound
		}
		return nil, fmt.Errorf("failed to lock story: %w", err)
	}

	if status != "active" && !params.AllowCompleted {
		return nil, ErrStoryNotActive
	}

	query := `
		INSERT INTO contributions (story_id, user_id, content, word_count, position, written_by_id, written_at)
		VALUES ($1, $2, $3, $4,
			(SELECT COALESCE(MAX(position), 0) + 1 FROM contributions WHERE story_id = $1),
			$5, $6)
		RETURNING id
	`

	var id int64
	err = tx.QueryRowContext(ctx, query,
		params.StoryID,
		params.UserID,
		params.Content,
		params.WordCount,
		params.WrittenByID,
		params.WrittenAt,
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, errPositionConflict
		}
		return nil, fmt.Errorf("failed to insert contribution: %w", err)
	}

	if err := tx.Commit(); err != nil {
		// Deferred constraints are checked here
		if isUniqueViolation(err) {
			return nil, errPositionConflict
		}
		return nil, fmt.Errorf("failed to commit contribution: %w", err)
	}

	return r.GetByID(ctx, id)
}

// GetByID retrieves a contribution with its author fields joined
func (r *Repository) GetByID(ctx context.Context, id int64) (*Contribution, error) {
	query := `SELECT ` + contributionColumns + contributionJoins + ` WHERE c.id = $1`

	c, err := scanContribution(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get contribution: %w", err)
	}

	return c, nil
}

// ListByStory retrieves a story's contributions ordered by position
func (r *Repository) ListByStory(ctx context.Context, storyID int64) ([]*Contribution, error) {
	query := `SELECT ` + contributionColumns + contributionJoins + `
		WHERE c.story_id = $1
		ORDER BY c.position ASC`

	rows, err := r.db.QueryContext(ctx, query, storyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list contributions: %w", err)
	}
	defer rows.Close()

	var contributions []*Contribution
	for rows.Next() {
		c, err := scanContribution(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan contribution: %w", err)
		}
		contributions = append(contributions, c)
	}

	return contributions, nil
}

// UpdateContent replaces a contribution's content and word count. Position
// and story association are immutable.
func (r *Repository) UpdateContent(ctx context.Context, id int64, content string, wordCount int) (*Contribution, error) {
	query := `UPDATE contributions SET content = $2, word_count = $3 WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, content, wordCount)
	if err != nil {
		return nil, fmt.Errorf("failed to update contribution: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return nil, nil
	}

	return r.GetByID(ctx, id)
}

// AdminUpdate applies a privileged partial update
func (r *Repository) AdminUpdate(ctx context.Context, id int64, params *AdminUpdateParams) (*Contribution, error) {
	query := `
		UPDATE contributions
		SET content = COALESCE($2, content),
		    word_count = COALESCE($3, word_count),
		    user_id = COALESCE($4, user_id),
		    written_by_id = COALESCE($5, written_by_id),
		    written_at = COALESCE($6, written_at)
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, id,
		params.Content,
		params.WordCount,
		params.UserID,
		params.WrittenByID,
		params.WrittenAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update contribution: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return nil, nil
	}

	return r.GetByID(ctx, id)
}

// DeleteAndRenumber removes a contribution and renumbers the story's
// remaining contributions into a dense 1..N sequence, preserving relative
// order. Runs in one transaction, serialized against concurrent inserts by
// the story row lock.
func (r *Repository) DeleteAndRenumber(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var storyID int64
	err = tx.QueryRowContext(ctx,
		`SELECT story_id FROM contributions WHERE id = $1`, id,
	).Scan(&storyID)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		return fmt.Errorf("failed to find contribution: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`SELECT id FROM stories WHERE id = $1 FOR UPDATE`, storyID,
	); err != nil {
		return fmt.Errorf("failed to lock story: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM contributions WHERE id = $1`, id,
	); err != nil {
		return fmt.Errorf("failed to delete contribution: %w", err)
	}

	renumber := `
		UPDATE contributions c
		SET position = numbered.rn
		FROM (
			SELECT id, ROW_NUMBER() OVER (ORDER BY position ASC) AS rn
			FROM contributions
			WHERE story_id = $1
		) numbered
		WHERE c.id = numbered.id AND c.position <> numbered.rn
	`
	if _, err := tx.ExecContext(ctx, renumber, storyID); err != nil {
		return fmt.Errorf("failed to renumber contributions: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit delete: %w", err)
	}

	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
