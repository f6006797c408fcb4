package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"quiz-engine/internal/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newSweeperForTest() (SweeperService, *MockTransactionManager, *MockAttemptRepository, *MockCache) {
	txManager := new(MockTransactionManager)
	attemptRepo := new(MockAttemptRepository)
	mockCache := new(MockCache)
	svc := NewSweeperService(txManager, attemptRepo, mockCache, testEngineConfig())
	return svc, txManager, attemptRepo, mockCache
}

func TestSweep(t *testing.T) {
	ctx := context.Background()
	leaseKey := cache.GenerateCacheKey("sweeper", "lease", "global")

	t.Run("Skips When The Lease Is Held", func(t *testing.T) {
		svc, _, attemptRepo, mockCache := newSweeperForTest()
		mockCache.On("SetNX", ctx, leaseKey, mock.AnythingOfType("string"), 10*time.Minute).Return(false, nil).Once()

		result, err := svc.Sweep(ctx)

		assert.NoError(t, err)
		assert.True(t, result.Skipped)
		assert.Zero(t, result.Expired)
		assert.Zero(t, result.Stale)
		assert.Zero(t, result.OrphanedAnswers)
		attemptRepo.AssertNotCalled(t, "FindExpiredIDs", mock.Anything, mock.Anything)
	})

	t.Run("Reclaims Expired Then Stale Then Orphans", func(t *testing.T) {
		svc, txManager, attemptRepo, mockCache := newSweeperForTest()
		mockCache.On("SetNX", ctx, leaseKey, mock.AnythingOfType("string"), 10*time.Minute).Return(true, nil).Once()
		txManager.On("WithTransaction", mock.Anything, mock.Anything).Return(nil)
		attemptRepo.On("FindExpiredIDs", ctx, mock.AnythingOfType("time.Time")).Return([]string{"att-1", "att-2"}, nil).Once()
		attemptRepo.On("FindStaleIDs", ctx, mock.AnythingOfType("time.Time")).Return([]string{"att-3"}, nil).Once()
		for _, id := range []string{"att-1", "att-2", "att-3"} {
			attemptRepo.On("DeleteAnswersByAttemptID", mock.Anything, id).Return(int64(2), nil).Once()
			attemptRepo.On("DeleteAttempt", mock.Anything, id).Return(nil).Once()
		}
		attemptRepo.On("DeleteOrphanedAnswers", ctx).Return(int64(4), nil).Once()

		result, err := svc.Sweep(ctx)

		assert.NoError(t, err)
		assert.False(t, result.Skipped)
		assert.Equal(t, 2, result.Expired)
		assert.Equal(t, 1, result.Stale)
		assert.Equal(t, 4, result.OrphanedAnswers)
		assert.Zero(t, result.Errors)
		attemptRepo.AssertExpectations(t)
	})

	t.Run("A Failing Attempt Is Counted And Skipped", func(t *testing.T) {
		svc, txManager, attemptRepo, mockCache := newSweeperForTest()
		mockCache.On("SetNX", ctx, leaseKey, mock.AnythingOfType("string"), 10*time.Minute).Return(true, nil).Once()
		txManager.On("WithTransaction", mock.Anything, mock.Anything).Return(nil)
		attemptRepo.On("FindExpiredIDs", ctx, mock.AnythingOfType("time.Time")).Return([]string{"att-1", "att-2"}, nil).Once()
		attemptRepo.On("DeleteAnswersByAttemptID", mock.Anything, "att-1").Return(int64(0), errors.New("deadlock")).Once()
		attemptRepo.On("DeleteAnswersByAttemptID", mock.Anything, "att-2").Return(int64(1), nil).Once()
		attemptRepo.On("DeleteAttempt", mock.Anything, "att-2").Return(nil).Once()
		attemptRepo.On("FindStaleIDs", ctx, mock.AnythingOfType("time.Time")).Return([]string{}, nil).Once()
		attemptRepo.On("DeleteOrphanedAnswers", ctx).Return(int64(0), nil).Once()

		result, err := svc.Sweep(ctx)

		assert.NoError(t, err)
		assert.Equal(t, 1, result.Expired)
		assert.Equal(t, 1, result.Errors)
		attemptRepo.AssertExpectations(t)
	})

	t.Run("Second Run With Nothing New Reports All Zeros", func(t *testing.T) {
		svc, txManager, attemptRepo, mockCache := newSweeperForTest()
		mockCache.On("SetNX", ctx, leaseKey, mock.AnythingOfType("string"), 10*time.Minute).Return(true, nil).Twice()
		txManager.On("WithTransaction", mock.Anything, mock.Anything).Return(nil)
		attemptRepo.On("FindExpiredIDs", ctx, mock.AnythingOfType("time.Time")).Return([]string{"att-1"}, nil).Once()
		attemptRepo.On("DeleteAnswersByAttemptID", mock.Anything, "att-1").Return(int64(3), nil).Once()
		attemptRepo.On("DeleteAttempt", mock.Anything, "att-1").Return(nil).Once()
		attemptRepo.On("FindStaleIDs", ctx, mock.AnythingOfType("time.Time")).Return([]string{}, nil).Once()
		attemptRepo.On("DeleteOrphanedAnswers", ctx).Return(int64(0), nil).Once()
		attemptRepo.On("FindExpiredIDs", ctx, mock.AnythingOfType("time.Time")).Return([]string{}, nil).Once()
		attemptRepo.On("FindStaleIDs", ctx, mock.AnythingOfType("time.Time")).Return([]string{}, nil).Once()
		attemptRepo.On("DeleteOrphanedAnswers", ctx).Return(int64(0), nil).Once()

		first, err := svc.Sweep(ctx)
		assert.NoError(t, err)
		assert.Equal(t, 1, first.Expired)

		second, err := svc.Sweep(ctx)
		assert.NoError(t, err)
		assert.Zero(t, second.Expired)
		assert.Zero(t, second.Stale)
		assert.Zero(t, second.OrphanedAnswers)
		assert.Zero(t, second.Errors)
		assert.False(t, second.Skipped)
	})

	t.Run("Lease Errors Abort The Run", func(t *testing.T) {
		svc, _, attemptRepo, mockCache := newSweeperForTest()
		mockCache.On("SetNX", ctx, leaseKey, mock.AnythingOfType("string"), 10*time.Minute).Return(false, errors.New("redis down")).Once()

		result, err := svc.Sweep(ctx)

		assert.Error(t, err)
		assert.Nil(t, result)
		attemptRepo.AssertNotCalled(t, "FindExpiredIDs", mock.Anything, mock.Anything)
	})

	t.Run("A Failing Listing Is Counted, The Other Phases Still Run", func(t *testing.T) {
		svc, txManager, attemptRepo, mockCache := newSweeperForTest()
		mockCache.On("SetNX", ctx, leaseKey, mock.AnythingOfType("string"), 10*time.Minute).Return(true, nil).Once()
		txManager.On("WithTransaction", mock.Anything, mock.Anything).Return(nil)
		attemptRepo.On("FindExpiredIDs", ctx, mock.AnythingOfType("time.Time")).Return(nil, errors.New("db down")).Once()
		attemptRepo.On("FindStaleIDs", ctx, mock.AnythingOfType("time.Time")).Return([]string{"att-3"}, nil).Once()
		attemptRepo.On("DeleteAnswersByAttemptID", mock.Anything, "att-3").Return(int64(0), nil).Once()
		attemptRepo.On("DeleteAttempt", mock.Anything, "att-3").Return(nil).Once()
		attemptRepo.On("DeleteOrphanedAnswers", ctx).Return(int64(0), nil).Once()

		result, err := svc.Sweep(ctx)

		assert.NoError(t, err)
		assert.Equal(t, 1, result.Errors)
		assert.Equal(t, 1, result.Stale)
		attemptRepo.AssertExpectations(t)
	})
}

func TestReclaimInactive(t *testing.T) {
	ctx := context.Background()

	t.Run("Deletes Answers Then Attempts And Counts", func(t *testing.T) {
		svc, _, attemptRepo, mockCache := newSweeperForTest()
		attemptRepo.On("FindInactiveIDs", ctx, "user-1", "quiz-1", mock.AnythingOfType("time.Time")).Return([]string{"att-1", "att-2"}, nil).Once()
		for _, id := range []string{"att-1", "att-2"} {
			attemptRepo.On("DeleteAnswersByAttemptID", ctx, id).Return(int64(1), nil).Once()
			attemptRepo.On("DeleteAttempt", ctx, id).Return(nil).Once()
		}

		reclaimed, err := svc.ReclaimInactive(ctx, "user-1", "quiz-1", 30*time.Minute)

		assert.NoError(t, err)
		assert.Equal(t, 2, reclaimed)
		// The narrow path joins the caller's transaction and never
		// touches the global lease.
		mockCache.AssertNotCalled(t, "SetNX", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		attemptRepo.AssertExpectations(t)
	})

	t.Run("Nothing Inactive", func(t *testing.T) {
		svc, _, attemptRepo, _ := newSweeperForTest()
		attemptRepo.On("FindInactiveIDs", ctx, "user-1", "quiz-1", mock.AnythingOfType("time.Time")).Return([]string{}, nil).Once()

		reclaimed, err := svc.ReclaimInactive(ctx, "user-1", "quiz-1", 30*time.Minute)

		assert.NoError(t, err)
		assert.Zero(t, reclaimed)
		attemptRepo.AssertNotCalled(t, "DeleteAttempt", mock.Anything, mock.Anything)
	})

	t.Run("A Delete Failure Stops The Pass", func(t *testing.T) {
		svc, _, attemptRepo, _ := newSweeperForTest()
		attemptRepo.On("FindInactiveIDs", ctx, "user-1", "quiz-1", mock.AnythingOfType("time.Time")).Return([]string{"att-1", "att-2"}, nil).Once()
		attemptRepo.On("DeleteAnswersByAttemptID", ctx, "att-1").Return(int64(0), errors.New("locked")).Once()

		reclaimed, err := svc.ReclaimInactive(ctx, "user-1", "quiz-1", 30*time.Minute)

		assert.Error(t, err)
		assert.Zero(t, reclaimed)
		attemptRepo.AssertNotCalled(t, "DeleteAttempt", mock.Anything, mock.Anything)
	})
}
