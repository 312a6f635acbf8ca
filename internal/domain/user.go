package domain

import "time"

// User represents a registered app user
type User struct {
	ID                  string    `json:"id" db:"id"`
	Email               string    `json:"email" db:"email"`
	PasswordHash        string    `json:"-" db:"password_hash"`
	DisplayName         string    `json:"display_name" db:"display_name"`
	PhoneNumber         *string   `json:"phone_number" db:"phone_number"`
	PreferredLanguage   string    `json:"preferred_language" db:"preferred_language"`
	OnboardingCompleted bool      `json:"onboarding_completed" db:"onboarding_completed"`
	CreatedAt           time.Time `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time `json:"updated_at" db:"updated_at"`
}

// Subscription represents a user's plan. One row per user.
type Subscription struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Plan      string    `json:"plan" db:"plan"`
	Status    string    `json:"status" db:"status"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Default subscription values for freshly registered users and for
// users with no subscription row.
const (
	PlanFree           = "free"
	SubscriptionActive = "active"
)
