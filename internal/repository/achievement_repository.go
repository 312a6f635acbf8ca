package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/auralearn/companion-api/internal/domain"
	"github.com/auralearn/companion-api/pkg/database"
	"github.com/google/uuid"
)

// achievementRepository implements AchievementRepository interface
type achievementRepository struct {
	db *database.Postgres
}

// NewAchievementRepository creates a new achievement repository
func NewAchievementRepository(db *database.Postgres) AchievementRepository {
	return &achievementRepository{db: db}
}

// Grant inserts the achievement unless the user already holds it. The
// uniqueness constraint on (user_id, achievement_type) makes concurrent
// grants collapse to a single row; the loser's insert is a no-op.
func (r *achievementRepository) Grant(ctx context.Context, userID, achievementType string, metadata json.RawMessage) (bool, error) {
	query := `
		INSERT INTO achievements (id, user_id, achievement_type, metadata, granted_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, achievement_type) DO NOTHING
	`

	if metadata == nil {
		metadata = json.RawMessage(`{}`)
	}

	result, err := r.db.DB.ExecContext(ctx, query,
		uuid.New().String(),
		userID,
		achievementType,
		[]byte(metadata),
		time.Now(),
	)
	if err != nil {
		return false, fmt.Errorf("failed to grant achievement: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}

// ListByUser retrieves all achievements a user holds
func (r *achievementRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Achievement, error) {
	query := `
		SELECT id, user_id, achievement_type, metadata, granted_at
		FROM achievements
		WHERE user_id = $1
		ORDER BY granted_at
	`

	rows, err := r.db.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list achievements: %w", err)
	}
	defer rows.Close()

	var result []*domain.Achievement
	for rows.Next() {
		achievement := &domain.Achievement{}
		var metadata []byte

		err := rows.Scan(
			&achievement.ID,
			&achievement.UserID,
			&achievement.Type,
			&metadata,
			&achievement.GrantedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan achievement: %w", err)
		}

		achievement.Metadata = json.RawMessage(metadata)
		result = append(result, achievement)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate achievements: %w", err)
	}

	return result, nil
}
