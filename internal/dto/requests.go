package dto

// RegisterRequest represents a registration request
type RegisterRequest struct {
	Email             string  `json:"email" binding:"required,email"`
	Password          string  `json:"password" binding:"required,min=8"`
	DisplayName       string  `json:"displayName" binding:"required"`
	PhoneNumber       *string `json:"phoneNumber"`
	PreferredLanguage string  `json:"preferredLanguage"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// UpdateProfileRequest carries a partial profile update. Nil fields are
// left untouched.
type UpdateProfileRequest struct {
	DisplayName       *string `json:"displayName"`
	PhoneNumber       *string `json:"phoneNumber"`
	PreferredLanguage *string `json:"preferredLanguage"`
}

// UpsertProgressRequest updates the journey cursor. CurrentStep is a
// pointer so that an explicit 0 passes required-field binding.
type UpsertProgressRequest struct {
	CurrentStep *int  `json:"currentStep" binding:"required,gte=0"`
	Completed   *bool `json:"completed"`
}

// StepCompletionRequest records one step-completion event.
type StepCompletionRequest struct {
	TimeSpentSeconds *int `json:"timeSpentSeconds" binding:"omitempty,gte=0"`
}
