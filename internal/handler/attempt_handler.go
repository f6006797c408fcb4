package handler

import (
	"quiz-engine/internal/domain"
	"quiz-engine/internal/dto"
	"quiz-engine/internal/logger"
	"quiz-engine/internal/middleware"
	"quiz-engine/internal/service"
	"quiz-engine/internal/validation"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// AttemptHandler handles the attempt lifecycle endpoints.
type AttemptHandler struct {
	attemptService service.AttemptService
	validator      *validation.Validator
}

func NewAttemptHandler(attemptService service.AttemptService) *AttemptHandler {
	return &AttemptHandler{
		attemptService: attemptService,
		validator:      validation.NewValidator(),
	}
}

// currentUserID extracts the authenticated user from the request context.
func currentUserID(c *fiber.Ctx) (string, error) {
	userID, ok := c.Locals(middleware.UserIDKey).(string)
	if !ok || userID == "" {
		logger.Get().Warn("User ID not found in context", zap.String("path", c.Path()))
		return "", domain.NewUnauthorizedError("User ID not found in context")
	}
	return userID, nil
}

// attemptIDFromCtx prefers the ID checked by the validation middleware.
func attemptIDFromCtx(c *fiber.Ctx) string {
	if id, ok := c.Locals(middleware.ValidatedAttemptIDKey).(string); ok && id != "" {
		return id
	}
	return c.Params("id")
}

func quizIDFromCtx(c *fiber.Ctx) string {
	if id, ok := c.Locals(middleware.ValidatedQuizIDKey).(string); ok && id != "" {
		return id
	}
	return c.Params("quizId")
}

// StartAttempt opens a new attempt on a quiz.
// @Summary Start Attempt
// @Description Starts a new attempt for the authenticated user, subject to availability, concurrency and attempt limits.
// @Tags attempts
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param request body dto.StartAttemptRequest true "Quiz to attempt"
// @Success 201 {object} dto.AttemptResponse
// @Failure 400 {object} middleware.ValidationErrorResponse "Invalid request"
// @Failure 401 {object} middleware.ErrorResponse "Unauthorized"
// @Failure 403 {object} middleware.ErrorResponse "Quiz not available"
// @Failure 404 {object} middleware.ErrorResponse "Quiz not found"
// @Failure 409 {object} middleware.ErrorResponse "Attempts exhausted or concurrency limit reached"
// @Failure 500 {object} middleware.ErrorResponse "Internal server error"
// @Router /attempts [post]
func (h *AttemptHandler) StartAttempt(c *fiber.Ctx) error {
	appLogger := logger.Get()
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	var req dto.StartAttemptRequest
	if err := c.BodyParser(&req); err != nil {
		appLogger.Warn("Failed to parse start attempt request", zap.Error(err))
		return domain.NewInvalidInputError("Invalid request body")
	}
	if errs := h.validator.ValidateStartAttemptRequest(req.QuizID); len(errs) > 0 {
		return errs
	}

	resp, err := h.attemptService.StartAttempt(c.Context(), userID, req.QuizID)
	if err != nil {
		return err
	}

	appLogger.Info("Attempt started",
		zap.String("attempt_id", resp.ID),
		zap.String("quiz_id", resp.QuizID),
		zap.String("user_id", userID))
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// SubmitAnswer records an answer for one question of a running attempt.
// @Summary Submit Answer
// @Description Evaluates and stores the submitted value for a question. Resubmitting the same question overwrites the previous answer.
// @Tags attempts
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param id path string true "Attempt ID"
// @Param request body dto.SubmitAnswerRequest true "Answer payload"
// @Success 200 {object} dto.SubmitAnswerResponse
// @Failure 400 {object} middleware.ValidationErrorResponse "Invalid request"
// @Failure 401 {object} middleware.ErrorResponse "Unauthorized"
// @Failure 404 {object} middleware.ErrorResponse "Attempt or question not found"
// @Failure 409 {object} middleware.ErrorResponse "Attempt is no longer active"
// @Failure 500 {object} middleware.ErrorResponse "Internal server error"
// @Router /attempts/{id}/answers [post]
func (h *AttemptHandler) SubmitAnswer(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	attemptID := attemptIDFromCtx(c)

	var req dto.SubmitAnswerRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Get().Warn("Failed to parse answer request",
			zap.String("attempt_id", attemptID), zap.Error(err))
		return domain.NewInvalidInputError("Invalid request body")
	}
	if errs := h.validator.ValidateSubmitAnswerRequest(req.QuestionID, req.Value); len(errs) > 0 {
		return errs
	}

	resp, err := h.attemptService.SubmitAnswer(c.Context(), userID, attemptID, req.QuestionID, req.Value)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// CompleteAttempt finalizes an attempt and returns its score.
// @Summary Complete Attempt
// @Description Scores the attempt over all questions and closes it. Completing an already completed attempt returns the stored result.
// @Tags attempts
// @Security ApiKeyAuth
// @Produce json
// @Param id path string true "Attempt ID"
// @Success 200 {object} dto.CompleteAttemptResponse
// @Failure 401 {object} middleware.ErrorResponse "Unauthorized"
// @Failure 404 {object} middleware.ErrorResponse "Attempt not found"
// @Failure 409 {object} middleware.ErrorResponse "Attempt is no longer active"
// @Failure 500 {object} middleware.ErrorResponse "Internal server error"
// @Router /attempts/{id}/complete [post]
func (h *AttemptHandler) CompleteAttempt(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	attemptID := attemptIDFromCtx(c)

	resp, err := h.attemptService.CompleteAttempt(c.Context(), userID, attemptID)
	if err != nil {
		return err
	}

	logger.Get().Info("Attempt completed",
		zap.String("attempt_id", attemptID),
		zap.String("user_id", userID),
		zap.Float64("score", resp.Score))
	return c.JSON(resp)
}

// GetRemainingTime reports the seconds left before the attempt deadline.
// @Summary Get Remaining Time
// @Description Returns the remaining seconds for a timed attempt. Null means the quiz has no time limit.
// @Tags attempts
// @Security ApiKeyAuth
// @Produce json
// @Param id path string true "Attempt ID"
// @Success 200 {object} dto.RemainingTimeResponse
// @Failure 401 {object} middleware.ErrorResponse "Unauthorized"
// @Failure 404 {object} middleware.ErrorResponse "Attempt not found"
// @Failure 500 {object} middleware.ErrorResponse "Internal server error"
// @Router /attempts/{id}/remaining-time [get]
func (h *AttemptHandler) GetRemainingTime(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	resp, err := h.attemptService.GetRemainingTime(c.Context(), userID, attemptIDFromCtx(c))
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// RecordFocus marks the attempt window as focused.
// @Summary Record Focus
// @Description Marks the start of an engaged session on the attempt.
// @Tags attempts
// @Security ApiKeyAuth
// @Param id path string true "Attempt ID"
// @Success 204 "No Content"
// @Failure 401 {object} middleware.ErrorResponse "Unauthorized"
// @Failure 404 {object} middleware.ErrorResponse "Attempt not found"
// @Failure 409 {object} middleware.ErrorResponse "Attempt is no longer active"
// @Failure 500 {object} middleware.ErrorResponse "Internal server error"
// @Router /attempts/{id}/focus [post]
func (h *AttemptHandler) RecordFocus(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	if err := h.attemptService.RecordFocus(c.Context(), userID, attemptIDFromCtx(c)); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// RecordBlur closes the current engaged session on the attempt.
// @Summary Record Blur
// @Description Folds the open focus session into the accumulated active time and returns the new total.
// @Tags attempts
// @Security ApiKeyAuth
// @Produce json
// @Param id path string true "Attempt ID"
// @Success 200 {object} dto.BlurResponse
// @Failure 401 {object} middleware.ErrorResponse "Unauthorized"
// @Failure 404 {object} middleware.ErrorResponse "Attempt not found"
// @Failure 409 {object} middleware.ErrorResponse "Attempt is no longer active"
// @Failure 500 {object} middleware.ErrorResponse "Internal server error"
// @Router /attempts/{id}/blur [post]
func (h *AttemptHandler) RecordBlur(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	resp, err := h.attemptService.RecordBlur(c.Context(), userID, attemptIDFromCtx(c))
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// GetAttemptResult returns the attempt with its per-question review.
// @Summary Get Attempt Result
// @Description Returns the attempt state, score when completed, and the recorded answers.
// @Tags attempts
// @Security ApiKeyAuth
// @Produce json
// @Param id path string true "Attempt ID"
// @Success 200 {object} dto.AttemptResultResponse
// @Failure 401 {object} middleware.ErrorResponse "Unauthorized"
// @Failure 404 {object} middleware.ErrorResponse "Attempt not found"
// @Failure 500 {object} middleware.ErrorResponse "Internal server error"
// @Router /attempts/{id} [get]
func (h *AttemptHandler) GetAttemptResult(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	resp, err := h.attemptService.GetAttemptResult(c.Context(), userID, attemptIDFromCtx(c))
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// ListAttempts returns the caller's attempt history for one quiz.
// @Summary List Attempts
// @Description Returns the authenticated user's attempts on the quiz, newest first.
// @Tags attempts
// @Security ApiKeyAuth
// @Produce json
// @Param quizId path string true "Quiz ID"
// @Success 200 {object} dto.AttemptListResponse
// @Failure 400 {object} middleware.ValidationErrorResponse "Invalid quiz ID"
// @Failure 401 {object} middleware.ErrorResponse "Unauthorized"
// @Failure 500 {object} middleware.ErrorResponse "Internal server error"
// @Router /quizzes/{quizId}/attempts [get]
func (h *AttemptHandler) ListAttempts(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	resp, err := h.attemptService.ListAttempts(c.Context(), userID, quizIDFromCtx(c))
	if err != nil {
		return err
	}
	return c.JSON(resp)
}
