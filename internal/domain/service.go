package domain

import (
	"context"
	"time"
)

// TransactionManager runs a function inside one database transaction.
// Repository calls made with the ctx it passes join that transaction.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// QuizRepository defines the interface for quiz and question persistence.
type QuizRepository interface {
	// GetQuizByID retrieves quiz settings, or nil when absent.
	GetQuizByID(ctx context.Context, id string) (*Quiz, error)

	// GetQuestionsByQuizID retrieves the quiz's questions with their
	// answer keys, ordered by position.
	GetQuestionsByQuizID(ctx context.Context, quizID string) ([]Question, error)

	// LockQuiz takes a row lock on the quiz for the rest of the current
	// transaction. Admission serializes on this lock.
	LockQuiz(ctx context.Context, id string) error
}

// AttemptRepository defines the interface for attempt and answer persistence.
type AttemptRepository interface {
	CreateAttempt(ctx context.Context, attempt *Attempt) error

	// GetAttemptByID retrieves an attempt, or nil when absent.
	GetAttemptByID(ctx context.Context, id string) (*Attempt, error)

	// GetAttemptForUpdate retrieves an attempt under a row lock so
	// concurrent submissions on the same attempt serialize.
	GetAttemptForUpdate(ctx context.Context, id string) (*Attempt, error)

	UpdateAttempt(ctx context.Context, attempt *Attempt) error

	// CountActiveSince counts the learner's uncompleted attempts on the
	// quiz started after the given instant.
	CountActiveSince(ctx context.Context, userID, quizID string, since time.Time) (int, error)

	// CountCompleted counts the learner's completed attempts on the quiz.
	CountCompleted(ctx context.Context, userID, quizID string) (int, error)

	// ListByUserAndQuiz returns the learner's attempts on the quiz,
	// newest first.
	ListByUserAndQuiz(ctx context.Context, userID, quizID string) ([]Attempt, error)

	// FindInactiveIDs returns ids of the learner's uncompleted attempts
	// on the quiz with no activity since the cutoff.
	FindInactiveIDs(ctx context.Context, userID, quizID string, cutoff time.Time) ([]string, error)

	// FindExpiredIDs returns ids of uncompleted attempts on time-limited
	// quizzes whose limit plus grace has passed.
	FindExpiredIDs(ctx context.Context, now time.Time) ([]string, error)

	// FindStaleIDs returns ids of uncompleted attempts with no activity
	// since the cutoff, across all quizzes.
	FindStaleIDs(ctx context.Context, cutoff time.Time) ([]string, error)

	// DeleteAttempt removes the attempt row. Answers must be deleted
	// first; the store does not cascade.
	DeleteAttempt(ctx context.Context, id string) error

	UpsertAnswer(ctx context.Context, answer *AttemptAnswer) error
	ListAnswers(ctx context.Context, attemptID string) ([]AttemptAnswer, error)
	DeleteAnswersByAttemptID(ctx context.Context, attemptID string) (int64, error)

	// DeleteOrphanedAnswers removes answer rows whose attempt no longer
	// exists and returns how many were removed.
	DeleteOrphanedAnswers(ctx context.Context) (int64, error)
}

// EligibilityChecker is the delegated capability check consulted during
// admission. Enrollment, publication and role policy live with the
// caller, not in this engine.
type EligibilityChecker interface {
	CanAccess(ctx context.Context, userID, quizID string) (bool, error)
}

// AttemptReclaimer deletes a learner's inactive attempts on one quiz.
// The guard uses it inside the admission transaction; the sweeper
// implements it alongside the global sweep.
type AttemptReclaimer interface {
	ReclaimInactive(ctx context.Context, userID, quizID string, olderThan time.Duration) (int, error)
}
