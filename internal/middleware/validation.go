package middleware

import (
	"quiz-engine/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// Locals keys for validated path parameters
const (
	ValidatedAttemptIDKey = "validated_attempt_id"
	ValidatedQuizIDKey    = "validated_quiz_id"
)

// ValidationMiddleware provides request validation middleware
type ValidationMiddleware struct {
	validator *validation.Validator
}

// NewValidationMiddleware creates a new validation middleware instance
func NewValidationMiddleware() *ValidationMiddleware {
	return &ValidationMiddleware{
		validator: validation.NewValidator(),
	}
}

// ValidateAttemptID validates the :id path parameter
func (vm *ValidationMiddleware) ValidateAttemptID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		attemptID := c.Params("id")

		if errors := vm.validator.ValidateAttemptID(attemptID); len(errors) > 0 {
			return errors // This will be handled by ErrorHandler middleware
		}

		// Store validated value in context for handlers to use
		c.Locals(ValidatedAttemptIDKey, attemptID)
		return c.Next()
	}
}

// ValidateQuizID validates the :quizId path parameter
func (vm *ValidationMiddleware) ValidateQuizID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		quizID := c.Params("quizId")

		if errors := vm.validator.ValidateQuizID(quizID); len(errors) > 0 {
			return errors
		}

		c.Locals(ValidatedQuizIDKey, quizID)
		return c.Next()
	}
}
