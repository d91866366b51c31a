package story

import (
	"context"
	"database/sql"
	"fmt"
)

// Repository handles story data persistence
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new story repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const storySelect = `
	SELECT s.id, s.title, s.prompt, s.circle_id, s.started_by_id, s.status, s.created_at,
	       (SELECT COUNT(*) FROM contributions c WHERE c.story_id = s.id),
	       (SELECT COALESCE(SUM(c.word_count), 0) FROM contributions c WHERE c.story_id = s.id)
	FROM stories s
`

func scanStory(row interface{ Scan(...interface{}) error }) (*Story, error) {
	story := &Story{}
	err := row.Scan(
		&story.ID,
		&story.Title,
		&story.Prompt,
		&story.CircleID,
		&story.StartedByID,
		&story.Status,
		&story.CreatedAt,
		&story.ContributionsCount,
		&story.WordCount,
	)
	if err != nil {
		return nil, err
	}
	return story, nil
}

// Create inserts a new story
func (r *Repository) Create(ctx context.Context, circleID int64, title string, prompt *string, starterID int64) (*Story, error) {
	story := &Story{}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO stories (title, prompt, circle_id, started_by_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, title, prompt, circle_id, started_by_id, status, created_at
	`, title, prompt, circleID, starterID).Scan(
		&story.ID,
		&story.Title,
		&story.Prompt,
		&story.CircleID,
		&story.StartedByID,
		&story.Status,
		&story.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create story: %w", err)
	}

	return story, nil
}

// GetByID retrieves a story with its contribution count and total word count
func (r *Repository) GetByID(ctx context.Context, id int64) (*Story, error) {
	story, err := scanStory(r.db.QueryRowContext(ctx, storySelect+`WHERE s.id = $1`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get story: %w", err)
	}

	return story, nil
}

// ListByCircle retrieves all stories in a circle, newest first
func (r *Repository) ListByCircle(ctx context.Context, circleID int64) ([]*Story, error) {
	rows, err := r.db.QueryContext(ctx, storySelect+`WHERE s.circle_id = $1 ORDER BY s.created_at DESC`, circleID)
	if err != nil {
		return nil, fmt.Errorf("failed to list stories: %w", err)
	}
	defer rows.Close()

	return collectStories(rows)
}

// ListAll retrieves every story, newest first (admin view)
func (r *Repository) ListAll(ctx context.Context) ([]*Story, error) {
	rows, err := r.db.QueryContext(ctx, storySelect+`ORDER BY s.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list stories: %w", err)
	}
	defer rows.Close()

	return collectStories(rows)
}

func collectStories(rows *sql.Rows) ([]*Story, error) {
	var stories []*Story
	for rows.Next() {
		story, err := scanStory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan story: %w", err)
		}
		stories = append(stories, story)
	}

	return stories, nil
}

// Complete flips a story from active to completed. Returns false when the
// story does not exist or was already completed.
func (r *Repository) Complete(ctx context.Context, id int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE stories SET status = $2 WHERE id = $1 AND status = $3
	`, id, StatusCompleted, StatusActive)
	if err != nil {
		return false, fmt.Errorf("failed to complete story: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return affected > 0, nil
}

// CircleMemberOptions retrieves the members of a story's circle, used by
// privileged viewers to pick an attribution target
func (r *Repository) CircleMemberOptions(ctx context.Context, storyID int64) ([]*MemberOption, error) {
	query := `
		SELECT u.id, u.name, u.email
		FROM users u
		JOIN circle_members cm ON cm.user_id = u.id
		JOIN stories s ON s.circle_id = cm.circle_id
		WHERE s.id = $1
		ORDER BY u.name
	`

	rows, err := r.db.QueryContext(ctx, query, storyID)
	if err != nil {
		return nil, fmt.Errorf("failed to get circle members: %w", err)
	}
	defer rows.Close()

	var options []*MemberOption
	for rows.Next() {
		opt := &MemberOption{}
		if err := rows.Scan(&opt.ID, &opt.Name, &opt.Email); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		options = append(options, opt)
	}

	return options, nil
}
