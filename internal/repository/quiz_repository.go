package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"quiz-engine/internal/domain"
	"quiz-engine/internal/repository/models"
	"quiz-engine/internal/util"
)

// sqlxQuizRepository implements domain.QuizRepository using sqlx.
type sqlxQuizRepository struct {
	db *sqlx.DB
}

// NewSQLXQuizRepository creates a new instance of sqlxQuizRepository.
func NewSQLXQuizRepository(db *sqlx.DB) domain.QuizRepository {
	return &sqlxQuizRepository{db: db}
}

const quizSelectColumns = `
		id "id",
		title "title",
		description "description",
		time_limit_minutes "time_limit_minutes",
		attempts_allowed "attempts_allowed",
		max_concurrent "max_concurrent",
		passing_score "passing_score",
		randomize_questions "randomize_questions",
		sequential "sequential",
		leveled "leveled",
		level2_threshold "level2_threshold",
		level1_threshold "level1_threshold",
		below_level1_threshold "below_level1_threshold",
		total_threshold "total_threshold",
		active "active",
		available_from "available_from",
		available_until "available_until",
		created_at "created_at",
		updated_at "updated_at"`

func toDomainQuiz(m *models.Quiz) *domain.Quiz {
	if m == nil {
		return nil
	}
	quiz := &domain.Quiz{
		ID:                 m.ID,
		Title:              m.Title,
		Description:        m.Description.String,
		TimeLimitMinutes:   m.TimeLimitMinutes,
		AttemptsAllowed:    m.AttemptsAllowed,
		MaxConcurrent:      m.MaxConcurrent,
		PassingScore:       m.PassingScore,
		RandomizeQuestions: m.RandomizeQuestions,
		Sequential:         m.Sequential,
		Leveled:            m.Leveled,
		Active:             m.Active,
		AvailableFrom:      util.NullTimeToTimePtr(m.AvailableFrom),
		AvailableUntil:     util.NullTimeToTimePtr(m.AvailableUntil),
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
	if m.Leveled {
		// NULL thresholds map to zero and fail quiz validation later.
		quiz.Thresholds = &domain.LevelThresholds{
			Level2:      m.Level2Threshold.Float64,
			Level1:      m.Level1Threshold.Float64,
			BelowLevel1: m.BelowL1Threshold.Float64,
			Total:       m.TotalThreshold.Float64,
		}
	}
	return quiz
}

func toDomainQuestion(m *models.Question, choices []models.QuestionChoice, pairs []models.QuestionPair) domain.Question {
	q := domain.Question{
		ID:            m.ID,
		QuizID:        m.QuizID,
		Type:          domain.QuestionType(m.QuestionType),
		Text:          m.QuestionText,
		Points:        m.Points,
		Position:      m.Position,
		Level:         domain.QuestionLevel(m.QuestionLevel.String),
		CaseSensitive: m.CaseSensitive,
		Blanks:        m.Blanks,
	}
	for _, c := range choices {
		q.Choices = append(q.Choices, domain.Choice{
			ID:       c.ID,
			Text:     c.ChoiceText,
			Correct:  c.IsCorrect,
			Position: c.Position,
		})
	}
	for _, p := range pairs {
		q.Pairs = append(q.Pairs, domain.MatchingPair{
			Left:     p.LeftItem,
			Right:    p.RightItem,
			Position: p.Position,
		})
	}
	return q
}

// GetQuizByID returns the quiz row, or nil when no quiz exists.
func (r *sqlxQuizRepository) GetQuizByID(ctx context.Context, id string) (*domain.Quiz, error) {
	executor := GetExecutor(ctx, r.db)

	query := `SELECT ` + quizSelectColumns + `
	FROM quizzes
	WHERE id = :1`

	var m models.Quiz
	err := executor.GetContext(ctx, &m, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get quiz by ID %s: %w", id, err)
	}
	return toDomainQuiz(&m), nil
}

// GetQuestionsByQuizID loads all questions of a quiz together with
// their choices and pairs, ordered by position.
func (r *sqlxQuizRepository) GetQuestionsByQuizID(ctx context.Context, quizID string) ([]domain.Question, error) {
	executor := GetExecutor(ctx, r.db)

	questionQuery := `SELECT
		id "id",
		quiz_id "quiz_id",
		question_type "question_type",
		question_text "question_text",
		points "points",
		position "position",
		question_level "question_level",
		case_sensitive "case_sensitive",
		blanks "blanks",
		created_at "created_at",
		updated_at "updated_at"
	FROM questions
	WHERE quiz_id = :1
	ORDER BY position`

	var questionModels []models.Question
	if err := executor.SelectContext(ctx, &questionModels, questionQuery, quizID); err != nil {
		return nil, fmt.Errorf("failed to get questions for quiz %s: %w", quizID, err)
	}
	if len(questionModels) == 0 {
		return nil, nil
	}

	choiceQuery := `SELECT
		c.id "id",
		c.question_id "question_id",
		c.choice_text "choice_text",
		c.is_correct "is_correct",
		c.position "position"
	FROM question_choices c
	JOIN questions q ON c.question_id = q.id
	WHERE q.quiz_id = :1
	ORDER BY c.question_id, c.position`

	var choiceModels []models.QuestionChoice
	if err := executor.SelectContext(ctx, &choiceModels, choiceQuery, quizID); err != nil {
		return nil, fmt.Errorf("failed to get choices for quiz %s: %w", quizID, err)
	}

	pairQuery := `SELECT
		p.id "id",
		p.question_id "question_id",
		p.left_item "left_item",
		p.right_item "right_item",
		p.position "position"
	FROM question_pairs p
	JOIN questions q ON p.question_id = q.id
	WHERE q.quiz_id = :1
	ORDER BY p.question_id, p.position`

	var pairModels []models.QuestionPair
	if err := executor.SelectContext(ctx, &pairModels, pairQuery, quizID); err != nil {
		return nil, fmt.Errorf("failed to get pairs for quiz %s: %w", quizID, err)
	}

	choicesByQuestion := make(map[string][]models.QuestionChoice)
	for _, c := range choiceModels {
		choicesByQuestion[c.QuestionID] = append(choicesByQuestion[c.QuestionID], c)
	}
	pairsByQuestion := make(map[string][]models.QuestionPair)
	for _, p := range pairModels {
		pairsByQuestion[p.QuestionID] = append(pairsByQuestion[p.QuestionID], p)
	}

	questions := make([]domain.Question, 0, len(questionModels))
	for i := range questionModels {
		m := &questionModels[i]
		questions = append(questions, toDomainQuestion(m, choicesByQuestion[m.ID], pairsByQuestion[m.ID]))
	}
	return questions, nil
}

// LockQuiz takes a row lock on the quiz for the duration of the
// enclosing transaction. Concurrent attempt admission for the same
// quiz serializes on this lock.
func (r *sqlxQuizRepository) LockQuiz(ctx context.Context, id string) error {
	executor := GetExecutor(ctx, r.db)

	query := `SELECT id "id" FROM quizzes WHERE id = :1 FOR UPDATE`

	var lockedID string
	err := executor.GetContext(ctx, &lockedID, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.NewQuizNotFoundError(id)
		}
		return fmt.Errorf("failed to lock quiz %s: %w", id, err)
	}
	return nil
}
