package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/auralearn/companion-api/internal/domain"
	"github.com/auralearn/companion-api/pkg/database"
	"github.com/google/uuid"
)

// progressRepository implements ProgressRepository interface
type progressRepository struct {
	db *database.Postgres
}

// NewProgressRepository creates a new progress repository
func NewProgressRepository(db *database.Postgres) ProgressRepository {
	return &progressRepository{db: db}
}

const progressColumns = `id, user_id, namespace, journey_id, current_step, completed, completed_at, last_accessed_at`

// Get retrieves the cursor for one (user, namespace, journey)
func (r *progressRepository) Get(ctx context.Context, userID string, ns domain.Namespace, journeyID string) (*domain.JourneyProgress, error) {
	query := `
		SELECT ` + progressColumns + `
		FROM journey_progress
		WHERE user_id = $1 AND namespace = $2 AND journey_id = $3
	`

	progress, err := scanProgress(r.db.DB.QueryRowContext(ctx, query, userID, ns, journeyID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("progress for journey %s not found: %w", journeyID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get journey progress: %w", err)
	}

	return progress, nil
}

// ListByUser retrieves all cursors for a user within one namespace
func (r *progressRepository) ListByUser(ctx context.Context, userID string, ns domain.Namespace) ([]*domain.JourneyProgress, error) {
	query := `
		SELECT ` + progressColumns + `
		FROM journey_progress
		WHERE user_id = $1 AND namespace = $2
		ORDER BY last_accessed_at DESC
	`

	rows, err := r.db.DB.QueryContext(ctx, query, userID, ns)
	if err != nil {
		return nil, fmt.Errorf("failed to list journey progress: %w", err)
	}
	defer rows.Close()

	var result []*domain.JourneyProgress
	for rows.Next() {
		progress, err := scanProgress(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan journey progress: %w", err)
		}
		result = append(result, progress)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate journey progress: %w", err)
	}

	return result, nil
}

// Upsert inserts or updates the cursor in a single statement. The
// uniqueness constraint on (user_id, namespace, journey_id) makes
// concurrent writers converge on one row. completed_at keeps the first
// completion time; last_accessed_at is refreshed on every call.
func (r *progressRepository) Upsert(ctx context.Context, userID string, ns domain.Namespace, journeyID string, currentStep int, completed bool) (*domain.JourneyProgress, error) {
	query := `
		INSERT INTO journey_progress (id, user_id, namespace, journey_id, current_step, completed, completed_at, last_accessed_at)
		VALUES ($1, $2, $3, $4, $5, $6, CASE WHEN $6 THEN $7::timestamptz ELSE NULL END, $7)
		ON CONFLICT (user_id, namespace, journey_id) DO UPDATE
		SET current_step = EXCLUDED.current_step,
		    completed = EXCLUDED.completed,
		    completed_at = CASE
		        WHEN journey_progress.completed_at IS NOT NULL THEN journey_progress.completed_at
		        WHEN EXCLUDED.completed THEN EXCLUDED.last_accessed_at
		        ELSE NULL
		    END,
		    last_accessed_at = EXCLUDED.last_accessed_at
		RETURNING ` + progressColumns

	now := time.Now()
	progress, err := scanProgress(r.db.DB.QueryRowContext(ctx, query,
		uuid.New().String(),
		userID,
		ns,
		journeyID,
		currentStep,
		completed,
		now,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to upsert journey progress: %w", err)
	}

	return progress, nil
}

// CountCompleted counts a user's completed journeys in one namespace
func (r *progressRepository) CountCompleted(ctx context.Context, userID string, ns domain.Namespace) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM journey_progress
		WHERE user_id = $1 AND namespace = $2 AND completed
	`

	var count int
	if err := r.db.DB.QueryRowContext(ctx, query, userID, ns).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count completed journeys: %w", err)
	}

	return count, nil
}

// RecordStep appends one step-completion event
func (r *progressRepository) RecordStep(ctx context.Context, step *domain.StepCompletion) error {
	query := `
		INSERT INTO step_completions (id, user_id, namespace, journey_id, step_index, time_spent_seconds, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	if step.ID == "" {
		step.ID = uuid.New().String()
	}
	if step.CompletedAt.IsZero() {
		step.CompletedAt = time.Now()
	}

	_, err := r.db.DB.ExecContext(ctx, query,
		step.ID,
		step.UserID,
		step.Namespace,
		step.JourneyID,
		step.StepIndex,
		step.TimeSpentSeconds,
		step.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record step completion: %w", err)
	}

	return nil
}

// ListSteps retrieves the step events for one (user, namespace, journey)
func (r *progressRepository) ListSteps(ctx context.Context, userID string, ns domain.Namespace, journeyID string) ([]*domain.StepCompletion, error) {
	query := `
		SELECT id, user_id, namespace, journey_id, step_index, time_spent_seconds, completed_at
		FROM step_completions
		WHERE user_id = $1 AND namespace = $2 AND journey_id = $3
		ORDER BY completed_at
	`

	rows, err := r.db.DB.QueryContext(ctx, query, userID, ns, journeyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list step completions: %w", err)
	}
	defer rows.Close()

	var result []*domain.StepCompletion
	for rows.Next() {
		step := &domain.StepCompletion{}
		var timeSpent sql.NullInt64

		err := rows.Scan(
			&step.ID,
			&step.UserID,
			&step.Namespace,
			&step.JourneyID,
			&step.StepIndex,
			&timeSpent,
			&step.CompletedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan step completion: %w", err)
		}

		if timeSpent.Valid {
			seconds := int(timeSpent.Int64)
			step.TimeSpentSeconds = &seconds
		}

		result = append(result, step)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate step completions: %w", err)
	}

	return result, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProgress(row rowScanner) (*domain.JourneyProgress, error) {
	progress := &domain.JourneyProgress{}
	var completedAt sql.NullTime

	err := row.Scan(
		&progress.ID,
		&progress.UserID,
		&progress.Namespace,
		&progress.JourneyID,
		&progress.CurrentStep,
		&progress.Completed,
		&completedAt,
		&progress.LastAccessedAt,
	)
	if err != nil {
		return nil, err
	}

	if completedAt.Valid {
		progress.CompletedAt = &completedAt.Time
	}

	return progress, nil
}
