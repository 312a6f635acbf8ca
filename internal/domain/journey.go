package domain

import (
	"encoding/json"
	"time"
)

// Namespace separates journey catalogs that share the progress tables.
// Journey ids are unique within a namespace, not across them.
type Namespace string

const (
	NamespaceCore  Namespace = "core"
	NamespaceGmail Namespace = "gmail"
)

// JourneyProgress is the per-(user, journey) cursor. At most one row
// exists per (user_id, namespace, journey_id).
type JourneyProgress struct {
	ID             string     `json:"-" db:"id"`
	UserID         string     `json:"-" db:"user_id"`
	Namespace      Namespace  `json:"-" db:"namespace"`
	JourneyID      string     `json:"journeyId" db:"journey_id"`
	CurrentStep    int        `json:"currentStep" db:"current_step"`
	Completed      bool       `json:"completed" db:"completed"`
	CompletedAt    *time.Time `json:"completedAt" db:"completed_at"`
	LastAccessedAt time.Time  `json:"lastAccessedAt" db:"last_accessed_at"`
}

// StepCompletion is an append-only event. Revisiting a step records a
// new row; nothing is deduplicated.
type StepCompletion struct {
	ID               string    `json:"id" db:"id"`
	UserID           string    `json:"-" db:"user_id"`
	Namespace        Namespace `json:"-" db:"namespace"`
	JourneyID        string    `json:"journeyId" db:"journey_id"`
	StepIndex        int       `json:"stepIndex" db:"step_index"`
	TimeSpentSeconds *int      `json:"timeSpentSeconds" db:"time_spent_seconds"`
	CompletedAt      time.Time `json:"completedAt" db:"completed_at"`
}

// Achievement types granted by the service.
const (
	AchievementOnboardingComplete   = "onboarding_complete"
	AchievementFirstJourneyComplete = "first_journey_complete"
	AchievementAllJourneysComplete  = "all_journeys_complete"
	AchievementFirstGmailJourney    = "first_gmail_journey_complete"
	AchievementAllGmailJourneys     = "all_gmail_journeys_complete"
)

// Achievement is a durable badge grant. At most one per
// (user, achievement_type).
type Achievement struct {
	ID        string          `json:"id" db:"id"`
	UserID    string          `json:"-" db:"user_id"`
	Type      string          `json:"type" db:"achievement_type"`
	Metadata  json.RawMessage `json:"metadata" db:"metadata"`
	GrantedAt time.Time       `json:"grantedAt" db:"granted_at"`
}
