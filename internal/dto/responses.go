package dto

import (
	"time"

	"github.com/auralearn/companion-api/internal/domain"
)

// UserInfo is the client-facing user shape. The password hash is never
// part of any response type.
type UserInfo struct {
	ID                  string  `json:"id"`
	Email               string  `json:"email"`
	DisplayName         string  `json:"displayName"`
	PhoneNumber         *string `json:"phoneNumber"`
	PreferredLanguage   string  `json:"preferredLanguage"`
	OnboardingCompleted bool    `json:"onboardingCompleted"`
	CreatedAt           string  `json:"createdAt"`
	UpdatedAt           string  `json:"updatedAt"`
}

// NewUserInfo converts a domain user to its response shape.
func NewUserInfo(u *domain.User) UserInfo {
	return UserInfo{
		ID:                  u.ID,
		Email:               u.Email,
		DisplayName:         u.DisplayName,
		PhoneNumber:         u.PhoneNumber,
		PreferredLanguage:   u.PreferredLanguage,
		OnboardingCompleted: u.OnboardingCompleted,
		CreatedAt:           u.CreatedAt.Format(time.RFC3339),
		UpdatedAt:           u.UpdatedAt.Format(time.RFC3339),
	}
}

// AuthResponse is returned by register and login. This is the only
// place the session token appears.
type AuthResponse struct {
	User      UserInfo  `json:"user"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// SubscriptionInfo is the client-facing subscription shape.
type SubscriptionInfo struct {
	Plan   string `json:"plan"`
	Status string `json:"status"`
}

// MeResponse is returned by GET /auth/me.
type MeResponse struct {
	User         UserInfo         `json:"user"`
	Subscription SubscriptionInfo `json:"subscription"`
}

// UserResponse wraps a user for profile mutations.
type UserResponse struct {
	User UserInfo `json:"user"`
}

// ProgressResponse wraps a single journey cursor.
type ProgressResponse struct {
	Progress *domain.JourneyProgress `json:"progress"`
}

// ProgressListResponse wraps all of a user's cursors in one namespace.
type ProgressListResponse struct {
	Progress []*domain.JourneyProgress `json:"progress"`
}

// ProgressDetailResponse is returned by GET /progress/:journeyId.
type ProgressDetailResponse struct {
	Progress        *domain.JourneyProgress  `json:"progress"`
	StepCompletions []*domain.StepCompletion `json:"stepCompletions"`
}

// StepCompletionResponse wraps one recorded step event.
type StepCompletionResponse struct {
	Completion *domain.StepCompletion `json:"completion"`
}

// AchievementsResponse wraps a user's achievement grants.
type AchievementsResponse struct {
	Achievements []*domain.Achievement `json:"achievements"`
}

// StatsSummaryResponse aggregates a user's progress rows.
type StatsSummaryResponse struct {
	TotalJourneys      int        `json:"totalJourneys"`
	CompletedJourneys  int        `json:"completedJourneys"`
	InProgressJourneys int        `json:"inProgressJourneys"`
	LastAccessedAt     *time.Time `json:"lastAccessedAt"`
}

// SuccessResponse represents a success response
type SuccessResponse struct {
	Success bool `json:"success"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string      `json:"error"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}
