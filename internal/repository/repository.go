package repository

import (
	"github.com/auralearn/companion-api/pkg/database"
)

// Repositories holds all repository interfaces
type Repositories struct {
	User         UserRepository
	Session      SessionRepository
	Progress     ProgressRepository
	Achievement  AchievementRepository
	Subscription SubscriptionRepository
}

// NewRepositories creates all repositories
func NewRepositories(db *database.Postgres) *Repositories {
	return &Repositories{
		User:         NewUserRepository(db),
		Session:      NewSessionRepository(db),
		Progress:     NewProgressRepository(db),
		Achievement:  NewAchievementRepository(db),
		Subscription: NewSubscriptionRepository(db),
	}
}
