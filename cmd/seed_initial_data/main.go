package main

import (
	"context"
	"fmt"
	"os"

	"quiz-engine/internal/config"
	"quiz-engine/internal/database"
	"quiz-engine/internal/domain"
	"quiz-engine/internal/logger"
	"quiz-engine/internal/repository/models"
	"quiz-engine/internal/util"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

const demoQuizTitle = "Solar System Basics"

type seedChoice struct {
	Text    string
	Correct bool
}

type seedPair struct {
	Left  string
	Right string
}

type seedQuestion struct {
	Type          domain.QuestionType
	Text          string
	Points        float64
	Level         domain.QuestionLevel
	CaseSensitive bool
	Blanks        []string
	Choices       []seedChoice
	Pairs         []seedPair
}

func main() {
	ctx := context.Background()
	cfg, err := config.LoadConfig()
	if err != nil {
		// Logger is not up yet, fall back to stdout.
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Initialize(cfg.Logger); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	log := logger.Get()

	log.Info("Starting demo data seeding...")
	db, err := database.NewSQLXOracleDB(cfg.GetDSN())
	if err != nil {
		log.Fatal("Failed to connect to Oracle database", zap.Error(err))
	}
	defer db.Close()

	if err := seedDemoQuiz(ctx, db, log); err != nil {
		log.Fatal("Seeding failed, transaction rolled back", zap.Error(err))
	}
	log.Info("Demo data seeding completed.")
}

// seedDemoQuiz inserts one quiz exercising every question type. The whole
// quiz lands in a single transaction so a failed run leaves nothing behind.
func seedDemoQuiz(ctx context.Context, db *sqlx.DB, log *zap.Logger) (err error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		} else if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				log.Error("Failed to rollback transaction", zap.Error(rbErr))
			}
		} else if cErr := tx.Commit(); cErr != nil {
			err = cErr
		}
	}()

	var existing int
	if err = tx.GetContext(ctx, &existing,
		"SELECT COUNT(*) FROM quizzes WHERE title = :1", demoQuizTitle); err != nil {
		return fmt.Errorf("failed to check for existing demo quiz: %w", err)
	}
	if existing > 0 {
		log.Info("Demo quiz already present, nothing to do.", zap.String("title", demoQuizTitle))
		return nil
	}

	quizID := util.NewULID()
	_, err = tx.ExecContext(ctx, `INSERT INTO quizzes (
			id, title, description, time_limit_minutes, attempts_allowed, max_concurrent,
			passing_score, randomize_questions, sequential, leveled,
			level2_threshold, level1_threshold, below_level1_threshold, total_threshold, active
		) VALUES (:1, :2, :3, :4, :5, :6, :7, :8, :9, :10, :11, :12, :13, :14, :15)`,
		quizID, demoQuizTitle,
		"A short tour of the planets that exercises every question type.",
		30, 3, 25, 60.0,
		false, false, true,
		80.0, 50.0, 30.0, 60.0,
		true)
	if err != nil {
		return fmt.Errorf("failed to insert quiz: %w", err)
	}
	log.Info("Created demo quiz.", zap.String("id", quizID), zap.String("title", demoQuizTitle))

	for i, q := range demoQuestions() {
		if err = insertQuestion(ctx, tx, quizID, i+1, q); err != nil {
			return err
		}
		log.Info("Created question.",
			zap.Int("position", i+1),
			zap.String("type", string(q.Type)))
	}
	return nil
}

func insertQuestion(ctx context.Context, tx *sqlx.Tx, quizID string, position int, q seedQuestion) error {
	questionID := util.NewULID()

	// Oracle stores the blank answer key as JSON in a CLOB, NULL when unused.
	var blanks interface{}
	if len(q.Blanks) > 0 {
		blanks = models.StringSlice(q.Blanks)
	}
	var level interface{}
	if q.Level != domain.LevelNone {
		level = string(q.Level)
	}

	_, err := tx.ExecContext(ctx, `INSERT INTO questions (
			id, quiz_id, question_type, question_text, points, position, question_level, case_sensitive, blanks
		) VALUES (:1, :2, :3, :4, :5, :6, :7, :8, :9)`,
		questionID, quizID, string(q.Type), q.Text, q.Points, position, level, q.CaseSensitive, blanks)
	if err != nil {
		return fmt.Errorf("failed to insert question %d: %w", position, err)
	}

	for ci, c := range q.Choices {
		_, err := tx.ExecContext(ctx, `INSERT INTO question_choices (id, question_id, choice_text, is_correct, position)
			VALUES (:1, :2, :3, :4, :5)`,
			util.NewULID(), questionID, c.Text, c.Correct, ci+1)
		if err != nil {
			return fmt.Errorf("failed to insert choice %d of question %d: %w", ci+1, position, err)
		}
	}

	for pi, p := range q.Pairs {
		_, err := tx.ExecContext(ctx, `INSERT INTO question_pairs (id, question_id, left_item, right_item, position)
			VALUES (:1, :2, :3, :4, :5)`,
			util.NewULID(), questionID, p.Left, p.Right, pi+1)
		if err != nil {
			return fmt.Errorf("failed to insert pair %d of question %d: %w", pi+1, position, err)
		}
	}
	return nil
}

// demoQuestions covers all seven question types with working answer keys.
func demoQuestions() []seedQuestion {
	return []seedQuestion{
		{
			Type:   domain.QuestionSingleChoice,
			Text:   "Which planet is closest to the Sun?",
			Points: 1,
			Level:  domain.LevelBelowOne,
			Choices: []seedChoice{
				{Text: "Mercury", Correct: true},
				{Text: "Venus"},
				{Text: "Earth"},
			},
		},
		{
			Type:   domain.QuestionTrueFalse,
			Text:   "The Sun is a star.",
			Points: 1,
			Level:  domain.LevelBelowOne,
			Blanks: []string{"true"},
		},
		{
			Type:   domain.QuestionMultiSelect,
			Text:   "Which of these are gas giants?",
			Points: 2,
			Level:  domain.LevelOne,
			Choices: []seedChoice{
				{Text: "Jupiter", Correct: true},
				{Text: "Saturn", Correct: true},
				{Text: "Mars"},
				{Text: "Venus"},
			},
		},
		{
			Type:   domain.QuestionFillBlank,
			Text:   "The planet known for its red color is ____.",
			Points: 1,
			Level:  domain.LevelOne,
			Blanks: []string{"Mars"},
		},
		{
			Type:   domain.QuestionMultiBlank,
			Text:   "The two largest planets are ____ and ____.",
			Points: 2,
			Level:  domain.LevelTwo,
			Blanks: []string{"Jupiter", "Saturn"},
		},
		{
			Type:   domain.QuestionMatching,
			Text:   "Match each planet with its feature.",
			Points: 2,
			Level:  domain.LevelTwo,
			Pairs: []seedPair{
				{Left: "Mars", Right: "Iron oxide dust"},
				{Left: "Saturn", Right: "Prominent rings"},
				{Left: "Earth", Right: "Liquid surface water"},
			},
		},
		{
			Type:   domain.QuestionDragDrop,
			Text:   "Arrange the inner planets by distance from the Sun.",
			Points: 2,
			Level:  domain.LevelTwo,
			Pairs: []seedPair{
				{Left: "1", Right: "Mercury"},
				{Left: "2", Right: "Venus"},
				{Left: "3", Right: "Earth"},
				{Left: "4", Right: "Mars"},
			},
		},
	}
}
