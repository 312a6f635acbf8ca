package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/auralearn/companion-api/internal/domain"
	"github.com/auralearn/companion-api/internal/dto"
	"github.com/auralearn/companion-api/internal/repository"
	"github.com/auralearn/companion-api/internal/utils"
	"go.uber.org/zap"
)

const defaultLanguage = "en"

// authService implements AuthService interface
type authService struct {
	userRepo     repository.UserRepository
	sessionRepo  repository.SessionRepository
	subRepo      repository.SubscriptionRepository
	achieveRepo  repository.AchievementRepository
	sessionCache *SessionCache
	bcryptCost   int
	sessionTTL   time.Duration
}

// NewAuthService creates a new auth service
func NewAuthService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	subRepo repository.SubscriptionRepository,
	achieveRepo repository.AchievementRepository,
	sessionCache *SessionCache,
	bcryptCost int,
	sessionTTL time.Duration,
) AuthService {
	return &authService{
		userRepo:     userRepo,
		sessionRepo:  sessionRepo,
		subRepo:      subRepo,
		achieveRepo:  achieveRepo,
		sessionCache: sessionCache,
		bcryptCost:   bcryptCost,
		sessionTTL:   sessionTTL,
	}
}

// Register creates the user, an initial session, and the default free
// subscription. The subscription insert is conflict-free so a retried
// registration after a partial failure cannot duplicate it.
func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	email := utils.SanitizeEmail(req.Email)

	_, err := s.userRepo.GetByEmail(ctx, email)
	if err == nil {
		return nil, ErrEmailTaken
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to check user existence: %w", err)
	}

	passwordHash, err := utils.HashPassword(req.Password, s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	language := req.PreferredLanguage
	if language == "" {
		language = defaultLanguage
	}

	user := &domain.User{
		Email:             email,
		PasswordHash:      passwordHash,
		DisplayName:       req.DisplayName,
		PhoneNumber:       req.PhoneNumber,
		PreferredLanguage: language,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	session, err := s.createSession(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	if err := s.subRepo.Create(ctx, &domain.Subscription{UserID: user.ID}); err != nil {
		return nil, fmt.Errorf("failed to create subscription: %w", err)
	}

	return &dto.AuthResponse{
		User:      dto.NewUserInfo(user),
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
	}, nil
}

// Login authenticates a user and issues a fresh session. Existing
// sessions stay valid.
func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, utils.SanitizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !utils.CheckPasswordHash(req.Password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	session, err := s.createSession(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	return &dto.AuthResponse{
		User:      dto.NewUserInfo(user),
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
	}, nil
}

// Authenticate resolves a bearer token to its session and user.
// Expired sessions are deleted on read.
func (s *authService) Authenticate(ctx context.Context, token string) (*domain.User, *domain.Session, error) {
	session, err := s.sessionCache.Get(ctx, token)
	if err != nil {
		// A degraded cache must not take authentication down.
		zap.L().Warn("session cache read failed", zap.Error(err))
		session = nil
	}

	if session == nil {
		session, err = s.sessionRepo.GetByToken(ctx, token)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, nil, ErrInvalidSession
			}
			return nil, nil, fmt.Errorf("failed to get session: %w", err)
		}
	}

	if session.IsExpired() {
		s.dropSession(ctx, token)
		return nil, nil, ErrInvalidSession
	}

	user, err := s.userRepo.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrUserNotFound
		}
		return nil, nil, fmt.Errorf("failed to get user: %w", err)
	}

	if err := s.sessionCache.Set(ctx, session); err != nil {
		zap.L().Warn("session cache write failed", zap.Error(err))
	}

	return user, session, nil
}

// Logout revokes the current session. Cache invalidation happens
// before the row delete so no window serves a revoked token.
func (s *authService) Logout(ctx context.Context, token string) error {
	if err := s.sessionCache.Invalidate(ctx, token); err != nil {
		return err
	}

	if err := s.sessionRepo.DeleteByToken(ctx, token); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	return nil
}

// LogoutAll revokes every session the user holds. Cache invalidation
// happens before the row deletes, same ordering as Logout.
func (s *authService) LogoutAll(ctx context.Context, userID string) error {
	tokens, err := s.sessionRepo.GetTokensByUserID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to list user sessions: %w", err)
	}

	for _, token := range tokens {
		if err := s.sessionCache.Invalidate(ctx, token); err != nil {
			return err
		}
	}

	deleted, err := s.sessionRepo.DeleteByUserID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to delete user sessions: %w", err)
	}

	// Covers sessions created between the listing and the delete.
	for _, token := range deleted {
		if err := s.sessionCache.Invalidate(ctx, token); err != nil {
			zap.L().Warn("session cache invalidation failed", zap.Error(err))
		}
	}

	return nil
}

// GetProfile returns the user together with their subscription,
// defaulting to an active free plan when no row exists.
func (s *authService) GetProfile(ctx context.Context, userID string) (*dto.MeResponse, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	subscription := dto.SubscriptionInfo{
		Plan:   domain.PlanFree,
		Status: domain.SubscriptionActive,
	}
	if sub, err := s.subRepo.GetByUserID(ctx, userID); err == nil {
		subscription.Plan = sub.Plan
		subscription.Status = sub.Status
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}

	return &dto.MeResponse{
		User:         dto.NewUserInfo(user),
		Subscription: subscription,
	}, nil
}

// UpdateProfile applies a partial preference update.
func (s *authService) UpdateProfile(ctx context.Context, userID string, req *dto.UpdateProfileRequest) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if req.DisplayName != nil {
		user.DisplayName = *req.DisplayName
	}
	if req.PhoneNumber != nil {
		user.PhoneNumber = req.PhoneNumber
	}
	if req.PreferredLanguage != nil {
		user.PreferredLanguage = *req.PreferredLanguage
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return user, nil
}

// CompleteOnboarding marks onboarding done and grants the badge. Both
// steps are idempotent, so repeated calls settle in the same state.
func (s *authService) CompleteOnboarding(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	user.OnboardingCompleted = true
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	if _, err := s.achieveRepo.Grant(ctx, userID, domain.AchievementOnboardingComplete, nil); err != nil {
		return nil, fmt.Errorf("failed to grant onboarding achievement: %w", err)
	}

	return user, nil
}

func (s *authService) createSession(ctx context.Context, userID string) (*domain.Session, error) {
	token, err := utils.GenerateSessionToken()
	if err != nil {
		return nil, err
	}

	session := &domain.Session{
		UserID:    userID,
		Token:     token,
		ExpiresAt: time.Now().Add(s.sessionTTL),
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return session, nil
}

func (s *authService) dropSession(ctx context.Context, token string) {
	if err := s.sessionCache.Invalidate(ctx, token); err != nil {
		zap.L().Warn("session cache invalidation failed", zap.Error(err))
	}
	if err := s.sessionRepo.DeleteByToken(ctx, token); err != nil && !errors.Is(err, repository.ErrNotFound) {
		zap.L().Warn("expired session delete failed", zap.Error(err))
	}
}
