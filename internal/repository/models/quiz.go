package models

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// StringSlice stores a string array as a JSON document in a CLOB column.
type StringSlice []string

// Value implements the driver.Valuer interface
func (s StringSlice) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	jsonData, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(jsonData), nil
}

// Scan implements the sql.Scanner interface
func (s *StringSlice) Scan(value interface{}) error {
	if value == nil {
		*s = StringSlice{}
		return nil
	}

	var bytesToParse []byte

	switch v := value.(type) {
	case []byte:
		bytesToParse = v
	case string:
		bytesToParse = []byte(v)
	default:
		return errors.New("StringSlice Scan: unsupported type " + fmt.Sprintf("%T", value))
	}

	if len(bytesToParse) == 0 || string(bytesToParse) == "null" {
		*s = StringSlice{}
		return nil
	}

	return json.Unmarshal(bytesToParse, s)
}

// Quiz mirrors the quizzes table. Boolean columns are NUMBER(1).
type Quiz struct {
	ID                 string          `db:"id"`
	Title              string          `db:"title"`
	Description        sql.NullString  `db:"description"`
	TimeLimitMinutes   int             `db:"time_limit_minutes"`
	AttemptsAllowed    int             `db:"attempts_allowed"`
	MaxConcurrent      int             `db:"max_concurrent"`
	PassingScore       float64         `db:"passing_score"`
	RandomizeQuestions bool            `db:"randomize_questions"`
	Sequential         bool            `db:"sequential"`
	Leveled            bool            `db:"leveled"`
	Level2Threshold    sql.NullFloat64 `db:"level2_threshold"`
	Level1Threshold    sql.NullFloat64 `db:"level1_threshold"`
	BelowL1Threshold   sql.NullFloat64 `db:"below_level1_threshold"`
	TotalThreshold     sql.NullFloat64 `db:"total_threshold"`
	Active             bool            `db:"active"`
	AvailableFrom      sql.NullTime    `db:"available_from"`
	AvailableUntil     sql.NullTime    `db:"available_until"`
	CreatedAt          time.Time       `db:"created_at"`
	UpdatedAt          time.Time       `db:"updated_at"`
}

// Question mirrors the questions table. Blanks holds the ordered
// answer key for blank style questions as JSON in a CLOB.
type Question struct {
	ID            string         `db:"id"`
	QuizID        string         `db:"quiz_id"`
	QuestionType  string         `db:"question_type"`
	QuestionText  string         `db:"question_text"`
	Points        float64        `db:"points"`
	Position      int            `db:"position"`
	QuestionLevel sql.NullString `db:"question_level"`
	CaseSensitive bool           `db:"case_sensitive"`
	Blanks        StringSlice    `db:"blanks"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
}

// QuestionChoice mirrors the question_choices table.
type QuestionChoice struct {
	ID         string `db:"id"`
	QuestionID string `db:"question_id"`
	ChoiceText string `db:"choice_text"`
	IsCorrect  bool   `db:"is_correct"`
	Position   int    `db:"position"`
}

// QuestionPair mirrors the question_pairs table used by matching and
// drag and drop questions.
type QuestionPair struct {
	ID         string `db:"id"`
	QuestionID string `db:"question_id"`
	LeftItem   string `db:"left_item"`
	RightItem  string `db:"right_item"`
	Position   int    `db:"position"`
}
