package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/auralearn/companion-api/internal/domain"
	"github.com/auralearn/companion-api/internal/dto"
	"github.com/auralearn/companion-api/internal/repository"
	"go.uber.org/zap"
)

// progressService implements ProgressService interface
type progressService struct {
	progressRepo repository.ProgressRepository
	achieveRepo  repository.AchievementRepository
	coreTotal    int
	gmailTotal   int
}

// NewProgressService creates a new progress service
func NewProgressService(
	progressRepo repository.ProgressRepository,
	achieveRepo repository.AchievementRepository,
	coreTotal, gmailTotal int,
) ProgressService {
	return &progressService{
		progressRepo: progressRepo,
		achieveRepo:  achieveRepo,
		coreTotal:    coreTotal,
		gmailTotal:   gmailTotal,
	}
}

// List returns all of the user's cursors in the namespace.
func (s *progressService) List(ctx context.Context, userID string, ns domain.Namespace) ([]*domain.JourneyProgress, error) {
	return s.progressRepo.ListByUser(ctx, userID, ns)
}

// Detail returns the cursor and step events for one journey. A journey
// the user has never touched yields a zero-value cursor without
// creating a row.
func (s *progressService) Detail(ctx context.Context, userID string, ns domain.Namespace, journeyID string) (*domain.JourneyProgress, []*domain.StepCompletion, error) {
	progress, err := s.progressRepo.Get(ctx, userID, ns, journeyID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, nil, err
		}
		progress = &domain.JourneyProgress{
			UserID:    userID,
			Namespace: ns,
			JourneyID: journeyID,
		}
	}

	steps, err := s.progressRepo.ListSteps(ctx, userID, ns, journeyID)
	if err != nil {
		return nil, nil, err
	}

	return progress, steps, nil
}

// Upsert advances (or rewinds; steps are not monotonic) the cursor and
// evaluates achievement thresholds when the journey is completed.
func (s *progressService) Upsert(ctx context.Context, userID string, ns domain.Namespace, journeyID string, currentStep int, completed bool) (*domain.JourneyProgress, error) {
	progress, err := s.progressRepo.Upsert(ctx, userID, ns, journeyID, currentStep, completed)
	if err != nil {
		return nil, err
	}

	if completed {
		if err := s.evaluateThresholds(ctx, userID, ns, journeyID); err != nil {
			// The cursor update already happened; a failed grant is
			// retried on the next completing upsert.
			zap.L().Error("achievement threshold evaluation failed",
				zap.String("user_id", userID),
				zap.String("journey_id", journeyID),
				zap.Error(err),
			)
		}
	}

	return progress, nil
}

// RecordStep appends one step event.
func (s *progressService) RecordStep(ctx context.Context, userID string, ns domain.Namespace, journeyID string, stepIndex int, timeSpentSeconds *int) (*domain.StepCompletion, error) {
	step := &domain.StepCompletion{
		UserID:           userID,
		Namespace:        ns,
		JourneyID:        journeyID,
		StepIndex:        stepIndex,
		TimeSpentSeconds: timeSpentSeconds,
	}

	if err := s.progressRepo.RecordStep(ctx, step); err != nil {
		return nil, err
	}

	return step, nil
}

// Achievements returns all of the user's grants across namespaces.
func (s *progressService) Achievements(ctx context.Context, userID string) ([]*domain.Achievement, error) {
	return s.achieveRepo.ListByUser(ctx, userID)
}

// Stats folds the user's cursors into a summary.
func (s *progressService) Stats(ctx context.Context, userID string, ns domain.Namespace) (*dto.StatsSummaryResponse, error) {
	rows, err := s.progressRepo.ListByUser(ctx, userID, ns)
	if err != nil {
		return nil, err
	}

	summary := &dto.StatsSummaryResponse{TotalJourneys: len(rows)}
	var lastAccessed time.Time
	for _, row := range rows {
		if row.Completed {
			summary.CompletedJourneys++
		} else {
			summary.InProgressJourneys++
		}
		if row.LastAccessedAt.After(lastAccessed) {
			lastAccessed = row.LastAccessedAt
		}
	}
	if !lastAccessed.IsZero() {
		summary.LastAccessedAt = &lastAccessed
	}

	return summary, nil
}

// evaluateThresholds grants the first/all achievements for the
// namespace. The count is re-read per completing call; the unique
// constraint on grants makes concurrent evaluation harmless.
func (s *progressService) evaluateThresholds(ctx context.Context, userID string, ns domain.Namespace, journeyID string) error {
	completedCount, err := s.progressRepo.CountCompleted(ctx, userID, ns)
	if err != nil {
		return err
	}

	firstType, allType, total := domain.AchievementFirstJourneyComplete, domain.AchievementAllJourneysComplete, s.coreTotal
	if ns == domain.NamespaceGmail {
		firstType, allType, total = domain.AchievementFirstGmailJourney, domain.AchievementAllGmailJourneys, s.gmailTotal
	}

	metadata, err := json.Marshal(map[string]string{"journey_id": journeyID})
	if err != nil {
		return fmt.Errorf("failed to encode achievement metadata: %w", err)
	}

	if completedCount >= 1 {
		if _, err := s.achieveRepo.Grant(ctx, userID, firstType, metadata); err != nil {
			return err
		}
	}

	if completedCount >= total {
		if _, err := s.achieveRepo.Grant(ctx, userID, allType, metadata); err != nil {
			return err
		}
	}

	return nil
}
