package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"quiz-engine/internal/config"
	"quiz-engine/internal/domain"
	"quiz-engine/internal/dto"
	"quiz-engine/internal/evaluator"
	"quiz-engine/internal/logger"
	"quiz-engine/internal/monitoring"
	"quiz-engine/internal/scoring"
	"quiz-engine/internal/util"

	"go.uber.org/zap"
)

// AttemptService drives the attempt lifecycle: guarded admission,
// answer submission, completion, time queries and focus tracking.
type AttemptService interface {
	StartAttempt(ctx context.Context, userID, quizID string) (*dto.AttemptResponse, error)
	SubmitAnswer(ctx context.Context, userID, attemptID, questionID string, value json.RawMessage) (*dto.SubmitAnswerResponse, error)
	CompleteAttempt(ctx context.Context, userID, attemptID string) (*dto.CompleteAttemptResponse, error)
	GetRemainingTime(ctx context.Context, userID, attemptID string) (*dto.RemainingTimeResponse, error)
	RecordFocus(ctx context.Context, userID, attemptID string) error
	RecordBlur(ctx context.Context, userID, attemptID string) (*dto.BlurResponse, error)
	GetAttemptResult(ctx context.Context, userID, attemptID string) (*dto.AttemptResultResponse, error)
	ListAttempts(ctx context.Context, userID, quizID string) (*dto.AttemptListResponse, error)
}

// attemptServiceImpl implements AttemptService
type attemptServiceImpl struct {
	txManager   domain.TransactionManager
	quizRepo    domain.QuizRepository
	attemptRepo domain.AttemptRepository
	snapshots   SnapshotService
	eligibility domain.EligibilityChecker
	reclaimer   domain.AttemptReclaimer
	engineCfg   config.EngineConfig
}

// NewAttemptService creates a new instance of attemptServiceImpl
func NewAttemptService(
	txManager domain.TransactionManager,
	quizRepo domain.QuizRepository,
	attemptRepo domain.AttemptRepository,
	snapshots SnapshotService,
	eligibility domain.EligibilityChecker,
	reclaimer domain.AttemptReclaimer,
	engineCfg config.EngineConfig,
) AttemptService {
	return &attemptServiceImpl{
		txManager:   txManager,
		quizRepo:    quizRepo,
		attemptRepo: attemptRepo,
		snapshots:   snapshots,
		eligibility: eligibility,
		reclaimer:   reclaimer,
		engineCfg:   engineCfg,
	}
}

// StartAttempt admits the learner onto the quiz. The whole guard runs in
// one transaction opened with a lock on the quiz row, so two simultaneous
// admissions for the same quiz serialize and cannot both pass the cap
// check. Steps, in order: purge the learner's stale attempts, count
// recent active ones, reclaim-and-recount once when at the cap, verify
// availability, verify remaining attempts, insert.
func (s *attemptServiceImpl) StartAttempt(ctx context.Context, userID, quizID string) (*dto.AttemptResponse, error) {
	var resp *dto.AttemptResponse

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.quizRepo.LockQuiz(txCtx, quizID); err != nil {
			return err
		}

		snapshot, err := s.snapshots.GetSnapshot(txCtx, quizID)
		if err != nil {
			return err
		}
		quiz := &snapshot.Quiz
		now := time.Now()

		purged, err := s.reclaimer.ReclaimInactive(txCtx, userID, quizID, s.engineCfg.StaleWindow)
		if err != nil {
			return err
		}
		if purged > 0 {
			logger.Get().Info("Purged stale attempts during admission",
				zap.String("userID", userID), zap.String("quizID", quizID), zap.Int("purged", purged))
		}

		since := now.Add(-s.engineCfg.ActiveCountWindow)
		active, err := s.attemptRepo.CountActiveSince(txCtx, userID, quizID, since)
		if err != nil {
			return err
		}

		if active >= quiz.MaxConcurrent {
			reclaimed, err := s.reclaimer.ReclaimInactive(txCtx, userID, quizID, s.engineCfg.AdmissionReclaimWindow)
			if err != nil {
				return err
			}
			// Nothing reclaimed means the count cannot have changed
			// under the quiz lock.
			if reclaimed > 0 {
				active, err = s.attemptRepo.CountActiveSince(txCtx, userID, quizID, since)
				if err != nil {
					return err
				}
			}
			if active >= quiz.MaxConcurrent {
				return domain.NewConcurrencyLimitError(quiz.MaxConcurrent)
			}
		}

		if !quiz.AvailableAt(now) {
			return domain.NewQuizNotAvailableError("quiz is not open for attempts")
		}
		if s.eligibility != nil {
			eligible, err := s.eligibility.CanAccess(txCtx, userID, quizID)
			if err != nil {
				return err
			}
			if !eligible {
				return domain.NewQuizNotAvailableError("learner is not eligible for this quiz")
			}
		}

		if quiz.AttemptsAllowed != domain.UnlimitedAttempts {
			completed, err := s.attemptRepo.CountCompleted(txCtx, userID, quizID)
			if err != nil {
				return err
			}
			if completed >= quiz.AttemptsAllowed {
				return domain.NewAttemptsExhaustedError(quiz.AttemptsAllowed)
			}
		}

		attempt := domain.NewAttempt(util.NewULID(), userID, quizID, now)
		if err := s.attemptRepo.CreateAttempt(txCtx, attempt); err != nil {
			return err
		}

		resp = &dto.AttemptResponse{
			ID:               attempt.ID,
			QuizID:           attempt.QuizID,
			StartedAt:        attempt.StartedAt,
			TimeLimitMinutes: quiz.TimeLimitMinutes,
			RemainingSeconds: attempt.RemainingSecondsAt(now, quiz.TimeLimitMinutes),
		}
		return nil
	})
	if err != nil {
		var domainErr *domain.DomainError
		if errors.As(err, &domainErr) {
			switch domainErr.Code {
			case domain.CodeQuizNotAvailable, domain.CodeAttemptsExhausted, domain.CodeConcurrencyLimit:
				monitoring.RecordAttemptDenied(string(domainErr.Code))
				logger.Get().Info("Attempt admission denied",
					zap.String("userID", userID), zap.String("quizID", quizID),
					zap.String("code", string(domainErr.Code)))
			}
		}
		return nil, err
	}

	monitoring.RecordAttemptStarted()
	logger.Get().Info("Attempt started",
		zap.String("attemptID", resp.ID), zap.String("userID", userID), zap.String("quizID", quizID))
	return resp, nil
}

// SubmitAnswer evaluates and upserts one answer. The attempt row lock
// serializes concurrent submissions on the same attempt; expiry is
// re-checked under the lock so answers cannot land after the deadline.
func (s *attemptServiceImpl) SubmitAnswer(ctx context.Context, userID, attemptID, questionID string, value json.RawMessage) (*dto.SubmitAnswerResponse, error) {
	var resp *dto.SubmitAnswerResponse

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		now := time.Now()
		attempt, snapshot, err := s.requireRunning(txCtx, userID, attemptID, now)
		if err != nil {
			return err
		}

		question := snapshot.QuestionByID(questionID)
		if question == nil {
			return domain.NewQuestionNotFoundError(questionID)
		}

		correct := evaluator.Evaluate(question, value)
		var points float64
		if correct {
			points = question.Points
		}

		answer := &domain.AttemptAnswer{
			ID:           util.NewULID(),
			AttemptID:    attempt.ID,
			QuestionID:   question.ID,
			Submitted:    value,
			IsCorrect:    correct,
			PointsEarned: points,
		}
		if err := s.attemptRepo.UpsertAnswer(txCtx, answer); err != nil {
			return err
		}

		attempt.Touch(now)
		if err := s.attemptRepo.UpdateAttempt(txCtx, attempt); err != nil {
			return err
		}

		resp = &dto.SubmitAnswerResponse{Accepted: true, IsCorrect: correct}
		return nil
	})
	if err != nil {
		return nil, err
	}

	monitoring.RecordAnswerSubmitted(resp.IsCorrect)
	return resp, nil
}

// CompleteAttempt finalizes the attempt: every quiz question is scored,
// unanswered ones as incorrect, and for leveled quizzes a classification
// band is derived. Completing an already-completed attempt returns the
// stored result without mutating anything.
func (s *attemptServiceImpl) CompleteAttempt(ctx context.Context, userID, attemptID string) (*dto.CompleteAttemptResponse, error) {
	var resp *dto.CompleteAttemptResponse
	var alreadyCompleted bool

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		attempt, err := s.loadOwnedAttemptForUpdate(txCtx, userID, attemptID)
		if err != nil {
			return err
		}
		if attempt.Completed {
			alreadyCompleted = true
			resp = &dto.CompleteAttemptResponse{
				Score:          attempt.Score,
				Classification: attempt.Classification,
			}
			return nil
		}

		snapshot, err := s.snapshots.GetSnapshot(txCtx, attempt.QuizID)
		if err != nil {
			return err
		}
		now := time.Now()
		if attempt.IsExpiredAt(now, snapshot.Quiz.TimeLimitMinutes) {
			return domain.NewAttemptNotActiveError(attemptID)
		}

		answers, err := s.attemptRepo.ListAnswers(txCtx, attempt.ID)
		if err != nil {
			return err
		}
		correctByQuestion := make(map[string]bool, len(answers))
		for _, answer := range answers {
			correctByQuestion[answer.QuestionID] = answer.IsCorrect
		}

		tally := scoring.NewTally()
		for i := range snapshot.Questions {
			question := &snapshot.Questions[i]
			tally.Record(question, correctByQuestion[question.ID])
		}

		score := tally.Score()
		var classification string
		if snapshot.Quiz.Leveled && snapshot.Quiz.Thresholds != nil {
			classification = string(tally.Classify(*snapshot.Quiz.Thresholds))
		}

		attempt.Complete(now, score, classification)
		if err := s.attemptRepo.UpdateAttempt(txCtx, attempt); err != nil {
			return err
		}

		resp = &dto.CompleteAttemptResponse{Score: score, Classification: classification}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !alreadyCompleted {
		monitoring.RecordAttemptCompleted()
		logger.Get().Info("Attempt completed",
			zap.String("attemptID", attemptID), zap.String("userID", userID),
			zap.Float64("score", resp.Score), zap.String("classification", resp.Classification))
	}
	return resp, nil
}

// GetRemainingTime reports the seconds left before the raw time limit.
// RemainingSeconds is nil for quizzes without a limit and zero once the
// attempt is completed.
func (s *attemptServiceImpl) GetRemainingTime(ctx context.Context, userID, attemptID string) (*dto.RemainingTimeResponse, error) {
	attempt, err := s.loadOwnedAttempt(ctx, userID, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.Completed {
		var zero int64
		return &dto.RemainingTimeResponse{RemainingSeconds: &zero}, nil
	}

	snapshot, err := s.snapshots.GetSnapshot(ctx, attempt.QuizID)
	if err != nil {
		return nil, err
	}
	return &dto.RemainingTimeResponse{
		RemainingSeconds: attempt.RemainingSecondsAt(time.Now(), snapshot.Quiz.TimeLimitMinutes),
	}, nil
}

// RecordFocus marks the start of an engaged session on the attempt.
func (s *attemptServiceImpl) RecordFocus(ctx context.Context, userID, attemptID string) error {
	return s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		now := time.Now()
		attempt, _, err := s.requireRunning(txCtx, userID, attemptID, now)
		if err != nil {
			return err
		}
		attempt.ApplyFocus(now)
		return s.attemptRepo.UpdateAttempt(txCtx, attempt)
	})
}

// RecordBlur closes the open session and returns the accumulated active
// time. A blur without a preceding focus changes nothing.
func (s *attemptServiceImpl) RecordBlur(ctx context.Context, userID, attemptID string) (*dto.BlurResponse, error) {
	var resp *dto.BlurResponse

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		now := time.Now()
		attempt, _, err := s.requireRunning(txCtx, userID, attemptID, now)
		if err != nil {
			return err
		}
		attempt.ApplyBlur(now)
		if err := s.attemptRepo.UpdateAttempt(txCtx, attempt); err != nil {
			return err
		}
		resp = &dto.BlurResponse{ActiveSeconds: attempt.ActiveSeconds}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// GetAttemptResult returns the attempt with its per-question review.
func (s *attemptServiceImpl) GetAttemptResult(ctx context.Context, userID, attemptID string) (*dto.AttemptResultResponse, error) {
	attempt, err := s.loadOwnedAttempt(ctx, userID, attemptID)
	if err != nil {
		return nil, err
	}
	answers, err := s.attemptRepo.ListAnswers(ctx, attempt.ID)
	if err != nil {
		return nil, err
	}

	reviews := make([]dto.AnswerReview, 0, len(answers))
	for _, answer := range answers {
		reviews = append(reviews, dto.AnswerReview{
			QuestionID:   answer.QuestionID,
			Submitted:    answer.Submitted,
			IsCorrect:    answer.IsCorrect,
			PointsEarned: answer.PointsEarned,
		})
	}

	resp := &dto.AttemptResultResponse{
		ID:             attempt.ID,
		QuizID:         attempt.QuizID,
		Completed:      attempt.Completed,
		Classification: attempt.Classification,
		StartedAt:      attempt.StartedAt,
		EndedAt:        attempt.EndedAt,
		ActiveSeconds:  attempt.ActiveSeconds,
		Answers:        reviews,
	}
	if attempt.Completed {
		score := attempt.Score
		resp.Score = &score
	}
	return resp, nil
}

// ListAttempts returns the learner's attempts on the quiz, newest first.
func (s *attemptServiceImpl) ListAttempts(ctx context.Context, userID, quizID string) (*dto.AttemptListResponse, error) {
	attempts, err := s.attemptRepo.ListByUserAndQuiz(ctx, userID, quizID)
	if err != nil {
		return nil, err
	}

	summaries := make([]dto.AttemptSummary, 0, len(attempts))
	for i := range attempts {
		attempt := &attempts[i]
		summary := dto.AttemptSummary{
			ID:             attempt.ID,
			Completed:      attempt.Completed,
			Classification: attempt.Classification,
			StartedAt:      attempt.StartedAt,
			EndedAt:        attempt.EndedAt,
		}
		if attempt.Completed {
			score := attempt.Score
			summary.Score = &score
		}
		summaries = append(summaries, summary)
	}

	return &dto.AttemptListResponse{QuizID: quizID, Attempts: summaries}, nil
}

// loadOwnedAttempt fetches the attempt and verifies ownership. A foreign
// attempt id is reported as not found rather than forbidden.
func (s *attemptServiceImpl) loadOwnedAttempt(ctx context.Context, userID, attemptID string) (*domain.Attempt, error) {
	attempt, err := s.attemptRepo.GetAttemptByID(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt == nil || attempt.UserID != userID {
		return nil, domain.NewAttemptNotFoundError(attemptID)
	}
	return attempt, nil
}

// loadOwnedAttemptForUpdate is loadOwnedAttempt under the attempt row
// lock, for the mutating paths.
func (s *attemptServiceImpl) loadOwnedAttemptForUpdate(ctx context.Context, userID, attemptID string) (*domain.Attempt, error) {
	attempt, err := s.attemptRepo.GetAttemptForUpdate(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt == nil || attempt.UserID != userID {
		return nil, domain.NewAttemptNotFoundError(attemptID)
	}
	return attempt, nil
}

// requireRunning loads the owned attempt under lock and rejects it when
// completed or past its deadline.
func (s *attemptServiceImpl) requireRunning(ctx context.Context, userID, attemptID string, now time.Time) (*domain.Attempt, *domain.QuizSnapshot, error) {
	attempt, err := s.loadOwnedAttemptForUpdate(ctx, userID, attemptID)
	if err != nil {
		return nil, nil, err
	}
	snapshot, err := s.snapshots.GetSnapshot(ctx, attempt.QuizID)
	if err != nil {
		return nil, nil, err
	}
	if !attempt.IsActive() || attempt.IsExpiredAt(now, snapshot.Quiz.TimeLimitMinutes) {
		return nil, nil, domain.NewAttemptNotActiveError(attemptID)
	}
	return attempt, snapshot, nil
}
