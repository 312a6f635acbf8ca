package handler

import (
	"net/http"
	"strconv"

	"github.com/auralearn/companion-api/internal/domain"
	"github.com/auralearn/companion-api/internal/dto"
	"github.com/auralearn/companion-api/internal/service"
	"github.com/gin-gonic/gin"
)

// ProgressHandler handles journey-progress requests for one namespace.
// The same handler type backs both /progress (core) and /gmail-progress
// (gmail); journey ids in requests and responses are never prefixed.
type ProgressHandler struct {
	progressService service.ProgressService
	namespace       domain.Namespace
}

// NewProgressHandler creates a progress handler bound to a namespace
func NewProgressHandler(progressService service.ProgressService, namespace domain.Namespace) *ProgressHandler {
	return &ProgressHandler{
		progressService: progressService,
		namespace:       namespace,
	}
}

// List returns all of the caller's cursors in the namespace
// @Summary List journey progress
// @Tags progress
// @Security BearerAuth
// @Produce json
// @Success 200 {object} dto.ProgressListResponse
// @Router /progress [get]
func (h *ProgressHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	progress, err := h.progressService.List(c.Request.Context(), userID, h.namespace)
	if err != nil {
		internalError(c, err)
		return
	}

	if progress == nil {
		progress = []*domain.JourneyProgress{}
	}

	c.JSON(http.StatusOK, dto.ProgressListResponse{Progress: progress})
}

// Get returns one journey's cursor and step events. Untouched journeys
// yield a zero-value cursor, never a 404.
// @Summary Get journey progress
// @Tags progress
// @Security BearerAuth
// @Produce json
// @Success 200 {object} dto.ProgressDetailResponse
// @Router /progress/{journeyId} [get]
func (h *ProgressHandler) Get(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	journeyID := c.Param("journeyId")

	progress, steps, err := h.progressService.Detail(c.Request.Context(), userID, h.namespace, journeyID)
	if err != nil {
		internalError(c, err)
		return
	}

	if steps == nil {
		steps = []*domain.StepCompletion{}
	}

	c.JSON(http.StatusOK, dto.ProgressDetailResponse{
		Progress:        progress,
		StepCompletions: steps,
	})
}

// Upsert updates the journey cursor and evaluates achievements
// @Summary Upsert journey progress
// @Tags progress
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.UpsertProgressRequest true "Progress update"
// @Success 200 {object} dto.ProgressResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /progress/{journeyId} [put]
func (h *ProgressHandler) Upsert(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req dto.UpsertProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "Validation failed",
			Message: err.Error(),
		})
		return
	}

	completed := false
	if req.Completed != nil {
		completed = *req.Completed
	}

	progress, err := h.progressService.Upsert(c.Request.Context(), userID, h.namespace, c.Param("journeyId"), *req.CurrentStep, completed)
	if err != nil {
		internalError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ProgressResponse{Progress: progress})
}

// RecordStep appends one step-completion event
// @Summary Record step completion
// @Tags progress
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.StepCompletionRequest true "Step completion"
// @Success 200 {object} dto.StepCompletionResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /progress/{journeyId}/steps/{stepIndex} [post]
func (h *ProgressHandler) RecordStep(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	stepIndex, err := strconv.Atoi(c.Param("stepIndex"))
	if err != nil || stepIndex < 0 {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "Validation failed",
			Message: "stepIndex must be a non-negative integer",
		})
		return
	}

	// The body is optional; an absent body means no elapsed time.
	var req dto.StepCompletionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{
				Error:   "Validation failed",
				Message: err.Error(),
			})
			return
		}
	}

	completion, err := h.progressService.RecordStep(c.Request.Context(), userID, h.namespace, c.Param("journeyId"), stepIndex, req.TimeSpentSeconds)
	if err != nil {
		internalError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.StepCompletionResponse{Completion: completion})
}

// Achievements returns all grants the caller holds
// @Summary List achievements
// @Tags progress
// @Security BearerAuth
// @Produce json
// @Success 200 {object} dto.AchievementsResponse
// @Router /progress/achievements/all [get]
func (h *ProgressHandler) Achievements(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	achievements, err := h.progressService.Achievements(c.Request.Context(), userID)
	if err != nil {
		internalError(c, err)
		return
	}

	if achievements == nil {
		achievements = []*domain.Achievement{}
	}

	c.JSON(http.StatusOK, dto.AchievementsResponse{Achievements: achievements})
}

// Stats returns the caller's progress summary for the namespace
// @Summary Progress statistics
// @Tags progress
// @Security BearerAuth
// @Produce json
// @Success 200 {object} dto.StatsSummaryResponse
// @Router /progress/stats/summary [get]
func (h *ProgressHandler) Stats(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	summary, err := h.progressService.Stats(c.Request.Context(), userID, h.namespace)
	if err != nil {
		internalError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}
