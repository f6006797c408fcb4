package service

import (
	"context"
	"time"

	"quiz-engine/internal/domain"

	"github.com/stretchr/testify/mock"
)

// --- MockTransactionManager ---
// Runs the function directly; repository mocks see the same ctx.
type MockTransactionManager struct {
	mock.Mock
}

func (m *MockTransactionManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	args := m.Called(ctx, fn)
	if args.Error(0) != nil {
		return args.Error(0)
	}
	return fn(ctx)
}

// --- MockQuizRepository ---
type MockQuizRepository struct {
	mock.Mock
}

func (m *MockQuizRepository) GetQuizByID(ctx context.Context, id string) (*domain.Quiz, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Quiz), args.Error(1)
}

func (m *MockQuizRepository) GetQuestionsByQuizID(ctx context.Context, quizID string) ([]domain.Question, error) {
	args := m.Called(ctx, quizID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Question), args.Error(1)
}

func (m *MockQuizRepository) LockQuiz(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// --- MockAttemptRepository ---
type MockAttemptRepository struct {
	mock.Mock
}

func (m *MockAttemptRepository) CreateAttempt(ctx context.Context, attempt *domain.Attempt) error {
	args := m.Called(ctx, attempt)
	return args.Error(0)
}

func (m *MockAttemptRepository) GetAttemptByID(ctx context.Context, id string) (*domain.Attempt, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Attempt), args.Error(1)
}

func (m *MockAttemptRepository) GetAttemptForUpdate(ctx context.Context, id string) (*domain.Attempt, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Attempt), args.Error(1)
}

func (m *MockAttemptRepository) UpdateAttempt(ctx context.Context, attempt *domain.Attempt) error {
	args := m.Called(ctx, attempt)
	return args.Error(0)
}

func (m *MockAttemptRepository) CountActiveSince(ctx context.Context, userID, quizID string, since time.Time) (int, error) {
	args := m.Called(ctx, userID, quizID, since)
	return args.Int(0), args.Error(1)
}

func (m *MockAttemptRepository) CountCompleted(ctx context.Context, userID, quizID string) (int, error) {
	args := m.Called(ctx, userID, quizID)
	return args.Int(0), args.Error(1)
}

func (m *MockAttemptRepository) ListByUserAndQuiz(ctx context.Context, userID, quizID string) ([]domain.Attempt, error) {
	args := m.Called(ctx, userID, quizID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Attempt), args.Error(1)
}

func (m *MockAttemptRepository) FindInactiveIDs(ctx context.Context, userID, quizID string, cutoff time.Time) ([]string, error) {
	args := m.Called(ctx, userID, quizID, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockAttemptRepository) FindExpiredIDs(ctx context.Context, now time.Time) ([]string, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockAttemptRepository) FindStaleIDs(ctx context.Context, cutoff time.Time) ([]string, error) {
	args := m.Called(ctx, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockAttemptRepository) DeleteAttempt(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockAttemptRepository) UpsertAnswer(ctx context.Context, answer *domain.AttemptAnswer) error {
	args := m.Called(ctx, answer)
	return args.Error(0)
}

func (m *MockAttemptRepository) ListAnswers(ctx context.Context, attemptID string) ([]domain.AttemptAnswer, error) {
	args := m.Called(ctx, attemptID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AttemptAnswer), args.Error(1)
}

func (m *MockAttemptRepository) DeleteAnswersByAttemptID(ctx context.Context, attemptID string) (int64, error) {
	args := m.Called(ctx, attemptID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAttemptRepository) DeleteOrphanedAnswers(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// --- MockEligibilityChecker ---
type MockEligibilityChecker struct {
	mock.Mock
}

func (m *MockEligibilityChecker) CanAccess(ctx context.Context, userID, quizID string) (bool, error) {
	args := m.Called(ctx, userID, quizID)
	return args.Bool(0), args.Error(1)
}

// --- MockAttemptReclaimer ---
type MockAttemptReclaimer struct {
	mock.Mock
}

func (m *MockAttemptReclaimer) ReclaimInactive(ctx context.Context, userID, quizID string, olderThan time.Duration) (int, error) {
	args := m.Called(ctx, userID, quizID, olderThan)
	return args.Int(0), args.Error(1)
}

// --- MockCache ---
type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockCache) Set(ctx context.Context, key string, value string, expiration time.Duration) error {
	args := m.Called(ctx, key, value, expiration)
	return args.Error(0)
}

func (m *MockCache) SetNX(ctx context.Context, key string, value string, expiration time.Duration) (bool, error) {
	args := m.Called(ctx, key, value, expiration)
	return args.Bool(0), args.Error(1)
}

func (m *MockCache) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockCache) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// --- MockSnapshotService ---
type MockSnapshotService struct {
	mock.Mock
}

func (m *MockSnapshotService) GetSnapshot(ctx context.Context, quizID string) (*domain.QuizSnapshot, error) {
	args := m.Called(ctx, quizID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.QuizSnapshot), args.Error(1)
}

func (m *MockSnapshotService) Invalidate(ctx context.Context, quizID string) error {
	args := m.Called(ctx, quizID)
	return args.Error(0)
}

// Interface guards
var (
	_ domain.TransactionManager = (*MockTransactionManager)(nil)
	_ domain.QuizRepository     = (*MockQuizRepository)(nil)
	_ domain.AttemptRepository  = (*MockAttemptRepository)(nil)
	_ domain.EligibilityChecker = (*MockEligibilityChecker)(nil)
	_ domain.AttemptReclaimer   = (*MockAttemptReclaimer)(nil)
	_ domain.Cache              = (*MockCache)(nil)
	_ SnapshotService           = (*MockSnapshotService)(nil)
)
