package middleware_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"quiz-engine/internal/domain"
	"quiz-engine/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

func TestHTTPStatusFor(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"No Error", nil, http.StatusOK},
		{"Validation Errors", domain.ValidationErrors{domain.ValidationError{Field: "quiz_id", Message: "is required"}}, http.StatusBadRequest},
		{"Quiz Not Found", domain.NewQuizNotFoundError("q1"), http.StatusNotFound},
		{"Attempt Not Found", domain.NewAttemptNotFoundError("a1"), http.StatusNotFound},
		{"Quiz Not Available", domain.NewQuizNotAvailableError("inactive"), http.StatusForbidden},
		{"Attempts Exhausted", domain.NewAttemptsExhaustedError(3), http.StatusConflict},
		{"Concurrency Limit", domain.NewConcurrencyLimitError(2), http.StatusConflict},
		{"Attempt Not Active", domain.NewAttemptNotActiveError("a1"), http.StatusConflict},
		{"Invalid Input", domain.NewInvalidInputError("bad body"), http.StatusBadRequest},
		{"Unauthorized", domain.NewUnauthorizedError("no user"), http.StatusUnauthorized},
		{"Fiber Error", fiber.NewError(fiber.StatusTeapot, "teapot"), fiber.StatusTeapot},
		{"Unknown Error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, middleware.HTTPStatusFor(tc.err))
		})
	}
}

func TestErrorHandlerResponses(t *testing.T) {
	newApp := func(h fiber.Handler) *fiber.App {
		app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler()})
		app.Get("/boom", h)
		return app
	}

	fetch := func(t *testing.T, app *fiber.App) (*http.Response, middleware.ErrorResponse) {
		t.Helper()
		resp, err := app.Test(httptest.NewRequest("GET", "/boom", nil), -1)
		assert.NoError(t, err)
		var body middleware.ErrorResponse
		assert.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		_ = resp.Body.Close()
		return resp, body
	}

	t.Run("Domain Error Carries Its Context", func(t *testing.T) {
		app := newApp(func(c *fiber.Ctx) error {
			return domain.NewConcurrencyLimitError(2)
		})

		resp, body := fetch(t, app)
		assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
		assert.Equal(t, string(domain.CodeConcurrencyLimit), body.Code)
		assert.EqualValues(t, 2, body.Details["max_concurrent"])
	})

	t.Run("Unknown Errors Become Internal", func(t *testing.T) {
		app := newApp(func(c *fiber.Ctx) error {
			return errors.New("boom")
		})

		resp, body := fetch(t, app)
		assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
		assert.Equal(t, string(domain.CodeInternal), body.Code)
	})
}
