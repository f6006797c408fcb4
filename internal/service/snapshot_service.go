package service

import (
	"context"
	"encoding/json"
	"time"

	"quiz-engine/internal/cache"
	"quiz-engine/internal/domain"
	"quiz-engine/internal/logger"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	snapshotService    = "quiz"
	snapshotObjectType = "snapshot"
)

// SnapshotService resolves a quiz into its immutable snapshot: validated
// settings plus the full question set with answer keys. Snapshots are
// cached; Invalidate must be called whenever quiz content changes.
type SnapshotService interface {
	GetSnapshot(ctx context.Context, quizID string) (*domain.QuizSnapshot, error)
	Invalidate(ctx context.Context, quizID string) error
}

// snapshotServiceImpl implements SnapshotService
type snapshotServiceImpl struct {
	quizRepo domain.QuizRepository
	cache    domain.Cache
	ttl      time.Duration
	sfGroup  singleflight.Group
}

// NewSnapshotService creates a new instance of snapshotServiceImpl
func NewSnapshotService(quizRepo domain.QuizRepository, cacheClient domain.Cache, ttl time.Duration) SnapshotService {
	return &snapshotServiceImpl{
		quizRepo: quizRepo,
		cache:    cacheClient,
		ttl:      ttl,
	}
}

// GetSnapshot returns the cached snapshot when present, otherwise loads
// it from the repository. Concurrent misses for the same quiz collapse
// into a single load.
func (s *snapshotServiceImpl) GetSnapshot(ctx context.Context, quizID string) (*domain.QuizSnapshot, error) {
	cacheKey := cache.GenerateCacheKey(snapshotService, snapshotObjectType, quizID)

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, cacheKey)
		if err == nil {
			var snapshot domain.QuizSnapshot
			if unmarshalErr := json.Unmarshal([]byte(cached), &snapshot); unmarshalErr == nil {
				return &snapshot, nil
			}
			logger.Get().Warn("Failed to unmarshal cached quiz snapshot, reloading",
				zap.String("key", cacheKey), zap.String("quizID", quizID))
		} else if err != domain.ErrCacheMiss {
			logger.Get().Error("Snapshot cache lookup failed",
				zap.Error(err), zap.String("key", cacheKey), zap.String("quizID", quizID))
		}
	}

	res, err, _ := s.sfGroup.Do(cacheKey, func() (interface{}, error) {
		return s.loadSnapshot(ctx, quizID, cacheKey)
	})
	if err != nil {
		return nil, err
	}
	return res.(*domain.QuizSnapshot), nil
}

func (s *snapshotServiceImpl) loadSnapshot(ctx context.Context, quizID, cacheKey string) (*domain.QuizSnapshot, error) {
	quiz, err := s.quizRepo.GetQuizByID(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if quiz == nil {
		return nil, domain.NewQuizNotFoundError(quizID)
	}
	if err := quiz.Validate(); err != nil {
		logger.Get().Error("Quiz settings failed validation",
			zap.String("quizID", quizID), zap.Error(err))
		return nil, domain.NewInvalidQuizConfigError(quizID, err)
	}

	questions, err := s.quizRepo.GetQuestionsByQuizID(ctx, quizID)
	if err != nil {
		return nil, err
	}

	snapshot := &domain.QuizSnapshot{
		Quiz:      *quiz,
		Questions: questions,
	}

	if s.cache != nil {
		if data, marshalErr := json.Marshal(snapshot); marshalErr == nil {
			if setErr := s.cache.Set(ctx, cacheKey, string(data), s.ttl); setErr != nil {
				logger.Get().Warn("Failed to cache quiz snapshot",
					zap.Error(setErr), zap.String("key", cacheKey), zap.String("quizID", quizID))
			}
		}
	}

	return snapshot, nil
}

// Invalidate drops the cached snapshot for the quiz.
func (s *snapshotServiceImpl) Invalidate(ctx context.Context, quizID string) error {
	if s.cache == nil {
		return nil
	}
	cacheKey := cache.GenerateCacheKey(snapshotService, snapshotObjectType, quizID)
	if err := s.cache.Delete(ctx, cacheKey); err != nil {
		logger.Get().Error("Failed to invalidate quiz snapshot cache",
			zap.Error(err), zap.String("key", cacheKey), zap.String("quizID", quizID))
		return err
	}
	logger.Get().Info("Quiz snapshot invalidated", zap.String("quizID", quizID))
	return nil
}
