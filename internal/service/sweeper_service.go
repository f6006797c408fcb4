package service

import (
	"context"
	"time"

	"quiz-engine/internal/cache"
	"quiz-engine/internal/config"
	"quiz-engine/internal/domain"
	"quiz-engine/internal/logger"
	"quiz-engine/internal/monitoring"
	"quiz-engine/internal/util"

	"go.uber.org/zap"
)

const (
	sweepService         = "sweeper"
	sweepLeaseObjectType = "lease"
	sweepLeaseIdentifier = "global"
)

// SweepResult reports what one sweep pass did. Zero counts with
// Skipped=false mean there was nothing to reclaim; Errors counts
// attempts whose deletion failed and will be retried next run.
type SweepResult struct {
	Expired         int  `json:"expired"`
	Stale           int  `json:"stale"`
	OrphanedAnswers int  `json:"orphaned_answers"`
	Errors          int  `json:"errors"`
	Skipped         bool `json:"skipped"`
}

// SweeperService reclaims dead attempts: time-expired ones, stale ones
// and answer rows whose attempt is gone. It also serves the admission
// guard's narrow per-learner reclamation.
type SweeperService interface {
	Sweep(ctx context.Context) (*SweepResult, error)
	ReclaimInactive(ctx context.Context, userID, quizID string, olderThan time.Duration) (int, error)
}

// sweeperServiceImpl implements SweeperService
type sweeperServiceImpl struct {
	txManager   domain.TransactionManager
	attemptRepo domain.AttemptRepository
	cache       domain.Cache
	engineCfg   config.EngineConfig
}

// NewSweeperService creates a new instance of sweeperServiceImpl
func NewSweeperService(
	txManager domain.TransactionManager,
	attemptRepo domain.AttemptRepository,
	cacheClient domain.Cache,
	engineCfg config.EngineConfig,
) SweeperService {
	return &sweeperServiceImpl{
		txManager:   txManager,
		attemptRepo: attemptRepo,
		cache:       cacheClient,
		engineCfg:   engineCfg,
	}
}

// Sweep runs one global reclamation pass under a Redis lease so
// overlapping scheduled runs skip instead of double-processing. Once
// the lease is held the pass always completes: a failure on one attempt
// is logged, counted in Errors and left for the next run. Expired
// attempts go first, then stale ones, then orphaned answer rows. The
// lease expires by TTL; there is no explicit release.
func (s *sweeperServiceImpl) Sweep(ctx context.Context) (*SweepResult, error) {
	result := &SweepResult{}

	leaseKey := cache.GenerateCacheKey(sweepService, sweepLeaseObjectType, sweepLeaseIdentifier)
	acquired, err := s.cache.SetNX(ctx, leaseKey, util.NewULID(), s.engineCfg.SweepLeaseTTL)
	if err != nil {
		return nil, err
	}
	if !acquired {
		result.Skipped = true
		logger.Get().Info("Sweep skipped, lease already held", zap.String("key", leaseKey))
		return result, nil
	}

	now := time.Now()

	expiredIDs, err := s.attemptRepo.FindExpiredIDs(ctx, now)
	if err != nil {
		result.Errors++
		logger.Get().Error("Failed to list expired attempts", zap.Error(err))
	}
	for _, id := range expiredIDs {
		if err := s.deleteAttemptTx(ctx, id); err != nil {
			result.Errors++
			logger.Get().Error("Failed to reclaim expired attempt",
				zap.String("attemptID", id), zap.Error(err))
			continue
		}
		result.Expired++
	}

	staleIDs, err := s.attemptRepo.FindStaleIDs(ctx, now.Add(-s.engineCfg.StaleWindow))
	if err != nil {
		result.Errors++
		logger.Get().Error("Failed to list stale attempts", zap.Error(err))
	}
	for _, id := range staleIDs {
		if err := s.deleteAttemptTx(ctx, id); err != nil {
			result.Errors++
			logger.Get().Error("Failed to reclaim stale attempt",
				zap.String("attemptID", id), zap.Error(err))
			continue
		}
		result.Stale++
	}

	orphaned, err := s.attemptRepo.DeleteOrphanedAnswers(ctx)
	if err != nil {
		result.Errors++
		logger.Get().Error("Failed to delete orphaned answers", zap.Error(err))
	} else {
		result.OrphanedAnswers = int(orphaned)
	}

	monitoring.RecordSweepDeletions("expired", result.Expired)
	monitoring.RecordSweepDeletions("stale", result.Stale)
	monitoring.RecordSweepDeletions("orphaned_answers", result.OrphanedAnswers)

	logger.Get().Info("Sweep finished",
		zap.Int("expired", result.Expired),
		zap.Int("stale", result.Stale),
		zap.Int("orphanedAnswers", result.OrphanedAnswers),
		zap.Int("errors", result.Errors))
	return result, nil
}

// deleteAttemptTx removes one attempt and its answers in a transaction
// of its own. Answers go first; the store does not cascade.
func (s *sweeperServiceImpl) deleteAttemptTx(ctx context.Context, attemptID string) error {
	return s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if _, err := s.attemptRepo.DeleteAnswersByAttemptID(txCtx, attemptID); err != nil {
			return err
		}
		return s.attemptRepo.DeleteAttempt(txCtx, attemptID)
	})
}

// ReclaimInactive deletes the learner's attempts on one quiz that have
// seen no activity for olderThan. It joins the caller's transaction and
// takes no lease; the admission guard invokes it while holding the quiz
// row lock.
func (s *sweeperServiceImpl) ReclaimInactive(ctx context.Context, userID, quizID string, olderThan time.Duration) (int, error) {
	cutoff := time.Now().Add(-olderThan)
	ids, err := s.attemptRepo.FindInactiveIDs(ctx, userID, quizID, cutoff)
	if err != nil {
		return 0, err
	}

	reclaimed := 0
	for _, id := range ids {
		if _, err := s.attemptRepo.DeleteAnswersByAttemptID(ctx, id); err != nil {
			return reclaimed, err
		}
		if err := s.attemptRepo.DeleteAttempt(ctx, id); err != nil {
			return reclaimed, err
		}
		reclaimed++
	}

	monitoring.RecordSweepDeletions("reclaimed", reclaimed)
	return reclaimed, nil
}
