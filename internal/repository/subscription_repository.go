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

// subscriptionRepository implements SubscriptionRepository interface
type subscriptionRepository struct {
	db *database.Postgres
}

// NewSubscriptionRepository creates a new subscription repository
func NewSubscriptionRepository(db *database.Postgres) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

// Create inserts the user's subscription row. Re-running registration
// side effects is safe: an existing row is left untouched.
func (r *subscriptionRepository) Create(ctx context.Context, sub *domain.Subscription) error {
	query := `
		INSERT INTO subscriptions (id, user_id, plan, status, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO NOTHING
	`

	if sub.ID == "" {
		sub.ID = uuid.New().String()
	}
	if sub.Plan == "" {
		sub.Plan = domain.PlanFree
	}
	if sub.Status == "" {
		sub.Status = domain.SubscriptionActive
	}
	if sub.UpdatedAt.IsZero() {
		sub.UpdatedAt = time.Now()
	}

	_, err := r.db.DB.ExecContext(ctx, query,
		sub.ID,
		sub.UserID,
		sub.Plan,
		sub.Status,
		sub.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create subscription: %w", err)
	}

	return nil
}

// GetByUserID retrieves a user's subscription
func (r *subscriptionRepository) GetByUserID(ctx context.Context, userID string) (*domain.Subscription, error) {
	query := `
		SELECT id, user_id, plan, status, updated_at
		FROM subscriptions
		WHERE user_id = $1
	`

	sub := &domain.Subscription{}
	err := r.db.DB.QueryRowContext(ctx, query, userID).Scan(
		&sub.ID,
		&sub.UserID,
		&sub.Plan,
		&sub.Status,
		&sub.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("subscription for user %s not found: %w", userID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}

	return sub, nil
}

// Update writes plan and status and stamps updated_at
func (r *subscriptionRepository) Update(ctx context.Context, sub *domain.Subscription) error {
	query := `
		UPDATE subscriptions
		SET plan = $2, status = $3, updated_at = $4
		WHERE user_id = $1
	`

	sub.UpdatedAt = time.Now()

	result, err := r.db.DB.ExecContext(ctx, query, sub.UserID, sub.Plan, sub.Status, sub.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update subscription: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("subscription for user %s not found: %w", sub.UserID, ErrNotFound)
	}

	return nil
}
