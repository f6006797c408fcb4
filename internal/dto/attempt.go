package dto

import (
	"encoding/json"
	"time"
)

// StartAttemptRequest represents the request body for starting an attempt
// @Description Request body for starting a quiz attempt
type StartAttemptRequest struct {
	QuizID string `json:"quiz_id"`
}

// AttemptResponse represents a freshly started attempt in the API response
// @Description Attempt handle returned on admission
type AttemptResponse struct {
	ID               string    `json:"id"`
	QuizID           string    `json:"quiz_id"`
	StartedAt        time.Time `json:"started_at"`
	TimeLimitMinutes int       `json:"time_limit_minutes"`
	// RemainingSeconds is null when the quiz has no time limit.
	RemainingSeconds *int64 `json:"remaining_seconds"`
}

// SubmitAnswerRequest represents a submitted answer in the API request
// @Description Request body for submitting an answer
type SubmitAnswerRequest struct {
	QuestionID string          `json:"question_id"`
	Value      json.RawMessage `json:"value"`
}

// SubmitAnswerResponse represents the outcome of an answer submission
type SubmitAnswerResponse struct {
	Accepted  bool `json:"accepted"`
	IsCorrect bool `json:"is_correct"`
}

// CompleteAttemptResponse represents the final result of an attempt
type CompleteAttemptResponse struct {
	Score          float64 `json:"score"`
	Classification string  `json:"classification,omitempty"`
}

// RemainingTimeResponse reports the seconds left on a running attempt.
// RemainingSeconds is null when the quiz has no time limit.
type RemainingTimeResponse struct {
	RemainingSeconds *int64 `json:"remaining_seconds"`
}

// BlurResponse reports the accumulated active time after a blur event
type BlurResponse struct {
	ActiveSeconds int64 `json:"active_seconds"`
}

// AnswerReview represents one answered question in the attempt result
type AnswerReview struct {
	QuestionID   string          `json:"question_id"`
	Submitted    json.RawMessage `json:"submitted"`
	IsCorrect    bool            `json:"is_correct"`
	PointsEarned float64         `json:"points_earned"`
}

// AttemptResultResponse represents an attempt with its per-question review
// @Description Attempt result including submitted answers
type AttemptResultResponse struct {
	ID             string         `json:"id"`
	QuizID         string         `json:"quiz_id"`
	Completed      bool           `json:"completed"`
	Score          *float64       `json:"score,omitempty"`
	Classification string         `json:"classification,omitempty"`
	StartedAt      time.Time      `json:"started_at"`
	EndedAt        *time.Time     `json:"ended_at,omitempty"`
	ActiveSeconds  int64          `json:"active_seconds"`
	Answers        []AnswerReview `json:"answers"`
}

// AttemptSummary represents one attempt in a list response
type AttemptSummary struct {
	ID             string     `json:"id"`
	Completed      bool       `json:"completed"`
	Score          *float64   `json:"score,omitempty"`
	Classification string     `json:"classification,omitempty"`
	StartedAt      time.Time  `json:"started_at"`
	EndedAt        *time.Time `json:"ended_at,omitempty"`
}

// AttemptListResponse represents a learner's attempts on one quiz
type AttemptListResponse struct {
	QuizID   string           `json:"quiz_id"`
	Attempts []AttemptSummary `json:"attempts"`
}

// ErrorResponse represents an error in the API response
type ErrorResponse struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Status  int                    `json:"status"`
	Details map[string]interface{} `json:"details,omitempty"`
}
