package repository

import (
	"context"
	"encoding/json"

	"github.com/auralearn/companion-api/internal/domain"
)

// UserRepository defines methods for user operations
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
}

// SessionRepository defines methods for bearer-session operations
type SessionRepository interface {
	Create(ctx context.Context, session *domain.Session) error
	GetByToken(ctx context.Context, token string) (*domain.Session, error)
	GetTokensByUserID(ctx context.Context, userID string) ([]string, error)
	DeleteByToken(ctx context.Context, token string) error
	// DeleteByUserID removes every session the user holds and returns
	// the tokens that were deleted so caches can be invalidated.
	DeleteByUserID(ctx context.Context, userID string) ([]string, error)
}

// ProgressRepository defines methods for journey cursors and step events
type ProgressRepository interface {
	Get(ctx context.Context, userID string, ns domain.Namespace, journeyID string) (*domain.JourneyProgress, error)
	ListByUser(ctx context.Context, userID string, ns domain.Namespace) ([]*domain.JourneyProgress, error)
	// Upsert atomically inserts or updates the (user, namespace,
	// journey) row and returns the resulting state.
	Upsert(ctx context.Context, userID string, ns domain.Namespace, journeyID string, currentStep int, completed bool) (*domain.JourneyProgress, error)
	CountCompleted(ctx context.Context, userID string, ns domain.Namespace) (int, error)
	RecordStep(ctx context.Context, step *domain.StepCompletion) error
	ListSteps(ctx context.Context, userID string, ns domain.Namespace, journeyID string) ([]*domain.StepCompletion, error)
}

// AchievementRepository defines methods for achievement grants
type AchievementRepository interface {
	// Grant inserts the achievement if the user does not already hold
	// it. Returns false when the grant was a no-op.
	Grant(ctx context.Context, userID, achievementType string, metadata json.RawMessage) (bool, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.Achievement, error)
}

// SubscriptionRepository defines methods for subscription records
type SubscriptionRepository interface {
	Create(ctx context.Context, sub *domain.Subscription) error
	GetByUserID(ctx context.Context, userID string) (*domain.Subscription, error)
	Update(ctx context.Context, sub *domain.Subscription) error
}
