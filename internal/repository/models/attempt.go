package models

import (
	"database/sql"
	"time"
)

// Attempt mirrors the attempts table.
type Attempt struct {
	ID             string          `db:"id"`
	UserID         string          `db:"user_id"`
	QuizID         string          `db:"quiz_id"`
	Score          sql.NullFloat64 `db:"score"`
	Classification sql.NullString  `db:"classification"`
	Completed      bool            `db:"completed"`
	StartedAt      time.Time       `db:"started_at"`
	EndedAt        sql.NullTime    `db:"ended_at"`
	LastActivityAt time.Time       `db:"last_activity_at"`
	ActiveSeconds  int64           `db:"active_seconds"`
	Focused        bool            `db:"focused"`
	LastFocusAt    sql.NullTime    `db:"last_focus_at"`
	CreatedAt      time.Time       `db:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at"`
}

// AttemptAnswer mirrors the attempt_answers table. Submitted holds the
// raw answer payload as JSON in a CLOB.
type AttemptAnswer struct {
	ID           string    `db:"id"`
	AttemptID    string    `db:"attempt_id"`
	QuestionID   string    `db:"question_id"`
	Submitted    string    `db:"submitted"`
	IsCorrect    bool      `db:"is_correct"`
	PointsEarned float64   `db:"points_earned"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}
