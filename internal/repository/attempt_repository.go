package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"quiz-engine/internal/domain"
	"quiz-engine/internal/repository/models"
	"quiz-engine/internal/util"
)

// sqlxAttemptRepository implements domain.AttemptRepository using sqlx.
type sqlxAttemptRepository struct {
	db *sqlx.DB
}

// NewSQLXAttemptRepository creates a new instance of sqlxAttemptRepository.
func NewSQLXAttemptRepository(db *sqlx.DB) domain.AttemptRepository {
	return &sqlxAttemptRepository{db: db}
}

const attemptSelectColumns = `
		id "id",
		user_id "user_id",
		quiz_id "quiz_id",
		score "score",
		classification "classification",
		completed "completed",
		started_at "started_at",
		ended_at "ended_at",
		last_activity_at "last_activity_at",
		active_seconds "active_seconds",
		focused "focused",
		last_focus_at "last_focus_at",
		created_at "created_at",
		updated_at "updated_at"`

func toDomainAttempt(m *models.Attempt) *domain.Attempt {
	if m == nil {
		return nil
	}
	return &domain.Attempt{
		ID:             m.ID,
		UserID:         m.UserID,
		QuizID:         m.QuizID,
		Score:          m.Score.Float64,
		Classification: m.Classification.String,
		Completed:      m.Completed,
		StartedAt:      m.StartedAt,
		EndedAt:        util.NullTimeToTimePtr(m.EndedAt),
		LastActivityAt: m.LastActivityAt,
		ActiveSeconds:  m.ActiveSeconds,
		Focused:        m.Focused,
		LastFocusAt:    util.NullTimeToTimePtr(m.LastFocusAt),
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

func fromDomainAttempt(a *domain.Attempt) *models.Attempt {
	if a == nil {
		return nil
	}
	return &models.Attempt{
		ID:             a.ID,
		UserID:         a.UserID,
		QuizID:         a.QuizID,
		Score:          sql.NullFloat64{Float64: a.Score, Valid: a.Completed},
		Classification: util.StringToNullString(a.Classification),
		Completed:      a.Completed,
		StartedAt:      a.StartedAt,
		EndedAt:        util.TimePtrToNullTime(a.EndedAt),
		LastActivityAt: a.LastActivityAt,
		ActiveSeconds:  a.ActiveSeconds,
		Focused:        a.Focused,
		LastFocusAt:    util.TimePtrToNullTime(a.LastFocusAt),
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}

func toDomainAttemptAnswer(m *models.AttemptAnswer) *domain.AttemptAnswer {
	if m == nil {
		return nil
	}
	return &domain.AttemptAnswer{
		ID:           m.ID,
		AttemptID:    m.AttemptID,
		QuestionID:   m.QuestionID,
		Submitted:    []byte(m.Submitted),
		IsCorrect:    m.IsCorrect,
		PointsEarned: m.PointsEarned,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

// CreateAttempt inserts a new attempt row.
func (r *sqlxAttemptRepository) CreateAttempt(ctx context.Context, attempt *domain.Attempt) error {
	executor := GetExecutor(ctx, r.db)
	m := fromDomainAttempt(attempt)

	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	m.UpdatedAt = time.Now()

	query := `INSERT INTO attempts (id, user_id, quiz_id, score, classification, completed, started_at, ended_at, last_activity_at, active_seconds, focused, last_focus_at, created_at, updated_at)
	          VALUES (:1, :2, :3, :4, :5, :6, :7, :8, :9, :10, :11, :12, :13, :14)`

	_, err := executor.ExecContext(ctx, query,
		m.ID,
		m.UserID,
		m.QuizID,
		m.Score,
		m.Classification,
		m.Completed,
		m.StartedAt,
		m.EndedAt,
		m.LastActivityAt,
		m.ActiveSeconds,
		m.Focused,
		m.LastFocusAt,
		m.CreatedAt,
		m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create attempt: %w", err)
	}
	return nil
}

// GetAttemptByID returns the attempt, or nil when no row exists.
func (r *sqlxAttemptRepository) GetAttemptByID(ctx context.Context, id string) (*domain.Attempt, error) {
	executor := GetExecutor(ctx, r.db)

	query := `SELECT ` + attemptSelectColumns + `
	FROM attempts
	WHERE id = :1`

	var m models.Attempt
	err := executor.GetContext(ctx, &m, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get attempt by ID %s: %w", id, err)
	}
	return toDomainAttempt(&m), nil
}

// GetAttemptForUpdate returns the attempt under a row lock so that
// submissions and completion serialize per attempt.
func (r *sqlxAttemptRepository) GetAttemptForUpdate(ctx context.Context, id string) (*domain.Attempt, error) {
	executor := GetExecutor(ctx, r.db)

	query := `SELECT ` + attemptSelectColumns + `
	FROM attempts
	WHERE id = :1
	FOR UPDATE`

	var m models.Attempt
	err := executor.GetContext(ctx, &m, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get attempt %s for update: %w", id, err)
	}
	return toDomainAttempt(&m), nil
}

// UpdateAttempt persists the mutable attempt fields.
func (r *sqlxAttemptRepository) UpdateAttempt(ctx context.Context, attempt *domain.Attempt) error {
	executor := GetExecutor(ctx, r.db)
	m := fromDomainAttempt(attempt)
	m.UpdatedAt = time.Now()

	query := `UPDATE attempts SET
		score = :1,
		classification = :2,
		completed = :3,
		ended_at = :4,
		last_activity_at = :5,
		active_seconds = :6,
		focused = :7,
		last_focus_at = :8,
		updated_at = :9
	WHERE id = :10`

	_, err := executor.ExecContext(ctx, query,
		m.Score,
		m.Classification,
		m.Completed,
		m.EndedAt,
		m.LastActivityAt,
		m.ActiveSeconds,
		m.Focused,
		m.LastFocusAt,
		m.UpdatedAt,
		m.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update attempt %s: %w", attempt.ID, err)
	}
	return nil
}

// CountActiveSince counts a learner's open attempts on a quiz started
// at or after the given instant.
func (r *sqlxAttemptRepository) CountActiveSince(ctx context.Context, userID, quizID string, since time.Time) (int, error) {
	executor := GetExecutor(ctx, r.db)

	query := `SELECT COUNT(*) FROM attempts
	WHERE user_id = :1 AND quiz_id = :2 AND completed = 0 AND started_at >= :3`

	var count int
	if err := executor.GetContext(ctx, &count, query, userID, quizID, since); err != nil {
		return 0, fmt.Errorf("failed to count active attempts: %w", err)
	}
	return count, nil
}

// CountCompleted counts a learner's completed attempts on a quiz.
func (r *sqlxAttemptRepository) CountCompleted(ctx context.Context, userID, quizID string) (int, error) {
	executor := GetExecutor(ctx, r.db)

	query := `SELECT COUNT(*) FROM attempts
	WHERE user_id = :1 AND quiz_id = :2 AND completed = 1`

	var count int
	if err := executor.GetContext(ctx, &count, query, userID, quizID); err != nil {
		return 0, fmt.Errorf("failed to count completed attempts: %w", err)
	}
	return count, nil
}

// ListByUserAndQuiz returns a learner's attempts on a quiz, newest first.
func (r *sqlxAttemptRepository) ListByUserAndQuiz(ctx context.Context, userID, quizID string) ([]domain.Attempt, error) {
	executor := GetExecutor(ctx, r.db)

	query := `SELECT ` + attemptSelectColumns + `
	FROM attempts
	WHERE user_id = :1 AND quiz_id = :2
	ORDER BY started_at DESC`

	var ms []models.Attempt
	if err := executor.SelectContext(ctx, &ms, query, userID, quizID); err != nil {
		return nil, fmt.Errorf("failed to list attempts: %w", err)
	}

	attempts := make([]domain.Attempt, 0, len(ms))
	for i := range ms {
		attempts = append(attempts, *toDomainAttempt(&ms[i]))
	}
	return attempts, nil
}

// FindInactiveIDs returns IDs of a learner's open attempts on a quiz
// whose last activity is strictly before the cutoff.
func (r *sqlxAttemptRepository) FindInactiveIDs(ctx context.Context, userID, quizID string, cutoff time.Time) ([]string, error) {
	executor := GetExecutor(ctx, r.db)

	query := `SELECT id "id" FROM attempts
	WHERE user_id = :1 AND quiz_id = :2 AND completed = 0 AND last_activity_at < :3
	ORDER BY last_activity_at`

	var ids []string
	if err := executor.SelectContext(ctx, &ids, query, userID, quizID, cutoff); err != nil {
		return nil, fmt.Errorf("failed to find inactive attempts: %w", err)
	}
	return ids, nil
}

// FindExpiredIDs returns IDs of open attempts whose quiz time limit,
// plus the submission grace period, has elapsed. Quizzes without a
// time limit never expire.
func (r *sqlxAttemptRepository) FindExpiredIDs(ctx context.Context, now time.Time) ([]string, error) {
	executor := GetExecutor(ctx, r.db)

	query := `SELECT a.id "id" FROM attempts a
	JOIN quizzes q ON a.quiz_id = q.id
	WHERE a.completed = 0
	  AND q.time_limit_minutes > 0
	  AND a.started_at + NUMTODSINTERVAL(q.time_limit_minutes, 'MINUTE') + INTERVAL '120' SECOND <= :1
	ORDER BY a.started_at`

	var ids []string
	if err := executor.SelectContext(ctx, &ids, query, now); err != nil {
		return nil, fmt.Errorf("failed to find expired attempts: %w", err)
	}
	return ids, nil
}

// FindStaleIDs returns IDs of open attempts across all quizzes whose
// last activity is strictly before the cutoff.
func (r *sqlxAttemptRepository) FindStaleIDs(ctx context.Context, cutoff time.Time) ([]string, error) {
	executor := GetExecutor(ctx, r.db)

	query := `SELECT id "id" FROM attempts
	WHERE completed = 0 AND last_activity_at < :1
	ORDER BY last_activity_at`

	var ids []string
	if err := executor.SelectContext(ctx, &ids, query, cutoff); err != nil {
		return nil, fmt.Errorf("failed to find stale attempts: %w", err)
	}
	return ids, nil
}

// DeleteAttempt removes one attempt row.
func (r *sqlxAttemptRepository) DeleteAttempt(ctx context.Context, id string) error {
	executor := GetExecutor(ctx, r.db)

	query := `DELETE FROM attempts WHERE id = :1`

	if _, err := executor.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to delete attempt %s: %w", id, err)
	}
	return nil
}

// UpsertAnswer stores a submission for one question of an attempt.
// Resubmitting the same question replaces the stored answer.
func (r *sqlxAttemptRepository) UpsertAnswer(ctx context.Context, answer *domain.AttemptAnswer) error {
	executor := GetExecutor(ctx, r.db)
	now := time.Now()

	query := `MERGE INTO attempt_answers aa
	USING (SELECT :1 attempt_id, :2 question_id FROM dual) src
	ON (aa.attempt_id = src.attempt_id AND aa.question_id = src.question_id)
	WHEN MATCHED THEN UPDATE SET
		aa.submitted = :3,
		aa.is_correct = :4,
		aa.points_earned = :5,
		aa.updated_at = :6
	WHEN NOT MATCHED THEN INSERT (id, attempt_id, question_id, submitted, is_correct, points_earned, created_at, updated_at)
	VALUES (:7, :8, :9, :10, :11, :12, :13, :14)`

	_, err := executor.ExecContext(ctx, query,
		answer.AttemptID,
		answer.QuestionID,
		string(answer.Submitted),
		answer.IsCorrect,
		answer.PointsEarned,
		now,
		answer.ID,
		answer.AttemptID,
		answer.QuestionID,
		string(answer.Submitted),
		answer.IsCorrect,
		answer.PointsEarned,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert answer for attempt %s question %s: %w", answer.AttemptID, answer.QuestionID, err)
	}
	return nil
}

// ListAnswers returns all stored answers of an attempt.
func (r *sqlxAttemptRepository) ListAnswers(ctx context.Context, attemptID string) ([]domain.AttemptAnswer, error) {
	executor := GetExecutor(ctx, r.db)

	query := `SELECT
		id "id",
		attempt_id "attempt_id",
		question_id "question_id",
		submitted "submitted",
		is_correct "is_correct",
		points_earned "points_earned",
		created_at "created_at",
		updated_at "updated_at"
	FROM attempt_answers
	WHERE attempt_id = :1
	ORDER BY created_at`

	var ms []models.AttemptAnswer
	if err := executor.SelectContext(ctx, &ms, query, attemptID); err != nil {
		return nil, fmt.Errorf("failed to list answers for attempt %s: %w", attemptID, err)
	}

	answers := make([]domain.AttemptAnswer, 0, len(ms))
	for i := range ms {
		answers = append(answers, *toDomainAttemptAnswer(&ms[i]))
	}
	return answers, nil
}

// DeleteAnswersByAttemptID removes all answers of an attempt and
// reports how many rows were deleted. Answers are always deleted
// before their attempt inside the same transaction.
func (r *sqlxAttemptRepository) DeleteAnswersByAttemptID(ctx context.Context, attemptID string) (int64, error) {
	executor := GetExecutor(ctx, r.db)

	query := `DELETE FROM attempt_answers WHERE attempt_id = :1`

	res, err := executor.ExecContext(ctx, query, attemptID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete answers for attempt %s: %w", attemptID, err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read deleted answer count: %w", err)
	}
	return deleted, nil
}

// DeleteOrphanedAnswers removes answers whose attempt no longer exists.
func (r *sqlxAttemptRepository) DeleteOrphanedAnswers(ctx context.Context) (int64, error) {
	executor := GetExecutor(ctx, r.db)

	query := `DELETE FROM attempt_answers aa
	WHERE NOT EXISTS (SELECT 1 FROM attempts a WHERE a.id = aa.attempt_id)`

	res, err := executor.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to delete orphaned answers: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read orphaned answer count: %w", err)
	}
	return deleted, nil
}
