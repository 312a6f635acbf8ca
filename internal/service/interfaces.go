package service

import (
	"context"

	"github.com/auralearn/companion-api/internal/domain"
	"github.com/auralearn/companion-api/internal/dto"
)

// AuthService defines account and session operations
type AuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error)
	Authenticate(ctx context.Context, token string) (*domain.User, *domain.Session, error)
	Logout(ctx context.Context, token string) error
	LogoutAll(ctx context.Context, userID string) error
	GetProfile(ctx context.Context, userID string) (*dto.MeResponse, error)
	UpdateProfile(ctx context.Context, userID string, req *dto.UpdateProfileRequest) (*domain.User, error)
	CompleteOnboarding(ctx context.Context, userID string) (*domain.User, error)
}

// ProgressService defines journey-progress and achievement operations
// within a single namespace passed per call.
type ProgressService interface {
	List(ctx context.Context, userID string, ns domain.Namespace) ([]*domain.JourneyProgress, error)
	Detail(ctx context.Context, userID string, ns domain.Namespace, journeyID string) (*domain.JourneyProgress, []*domain.StepCompletion, error)
	Upsert(ctx context.Context, userID string, ns domain.Namespace, journeyID string, currentStep int, completed bool) (*domain.JourneyProgress, error)
	RecordStep(ctx context.Context, userID string, ns domain.Namespace, journeyID string, stepIndex int, timeSpentSeconds *int) (*domain.StepCompletion, error)
	Achievements(ctx context.Context, userID string) ([]*domain.Achievement, error)
	Stats(ctx context.Context, userID string, ns domain.Namespace) (*dto.StatsSummaryResponse, error)
}
