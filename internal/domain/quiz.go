package domain

import (
	"fmt"
	"time"
)

// QuestionType identifies the answer form a question expects.
type QuestionType string

const (
	QuestionSingleChoice QuestionType = "single_choice"
	QuestionMultiSelect  QuestionType = "multi_select"
	QuestionTrueFalse    QuestionType = "true_false"
	QuestionFillBlank    QuestionType = "fill_blank"
	QuestionMultiBlank   QuestionType = "multi_blank"
	QuestionMatching     QuestionType = "matching"
	QuestionDragDrop     QuestionType = "drag_drop"
)

// KnownQuestionTypes lists every type the evaluator understands.
var KnownQuestionTypes = []QuestionType{
	QuestionSingleChoice,
	QuestionMultiSelect,
	QuestionTrueFalse,
	QuestionFillBlank,
	QuestionMultiBlank,
	QuestionMatching,
	QuestionDragDrop,
}

// QuestionLevel tags a question for leveled classification.
type QuestionLevel string

const (
	LevelNone     QuestionLevel = ""
	LevelTwo      QuestionLevel = "level_2"
	LevelOne      QuestionLevel = "level_1"
	LevelBelowOne QuestionLevel = "below_level_1"
)

// Band is the classification outcome of a leveled quiz.
type Band string

// Classification bands produced for leveled quizzes.
const (
	BandLevel2      Band = "Level 2"
	BandLevel1      Band = "Level 1"
	BandBelowLevel1 Band = "Below Level 1"
)

// UnlimitedAttempts is the attempts_allowed sentinel for no cap.
const UnlimitedAttempts = -1

// LevelThresholds holds the four percentage cutoffs of a leveled quiz.
// The three level thresholds must be strictly descending.
type LevelThresholds struct {
	Level2      float64
	Level1      float64
	BelowLevel1 float64
	Total       float64
}

// Validate checks presence, range and strict descending order.
func (t *LevelThresholds) Validate() error {
	for name, v := range map[string]float64{
		"level_2":       t.Level2,
		"level_1":       t.Level1,
		"below_level_1": t.BelowLevel1,
		"total":         t.Total,
	} {
		if v <= 0 || v > 100 {
			return fmt.Errorf("threshold %s must be within (0, 100], got %.2f", name, v)
		}
	}
	if !(t.Level2 > t.Level1 && t.Level1 > t.BelowLevel1) {
		return fmt.Errorf("level thresholds must be strictly descending: %.2f > %.2f > %.2f",
			t.Level2, t.Level1, t.BelowLevel1)
	}
	return nil
}

// Quiz carries the resolved settings that govern attempts on it.
type Quiz struct {
	ID                 string
	Title              string
	Description        string
	TimeLimitMinutes   int // 0 means no time limit
	AttemptsAllowed    int // UnlimitedAttempts means no cap
	MaxConcurrent      int
	PassingScore       float64
	RandomizeQuestions bool
	Sequential         bool
	Leveled            bool
	Thresholds         *LevelThresholds
	Active             bool
	AvailableFrom      *time.Time
	AvailableUntil     *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Validate rejects configurations the engine cannot run. It is called
// once when the quiz settings are resolved, never per request.
func (q *Quiz) Validate() error {
	if q.TimeLimitMinutes < 0 {
		return fmt.Errorf("time limit must not be negative, got %d", q.TimeLimitMinutes)
	}
	if q.AttemptsAllowed < UnlimitedAttempts || q.AttemptsAllowed == 0 {
		return fmt.Errorf("attempts allowed must be positive or %d for unlimited, got %d", UnlimitedAttempts, q.AttemptsAllowed)
	}
	if q.MaxConcurrent <= 0 {
		return fmt.Errorf("max concurrent attempts must be positive, got %d", q.MaxConcurrent)
	}
	if q.Leveled {
		if q.Thresholds == nil {
			return fmt.Errorf("leveled quiz requires all four thresholds")
		}
		if err := q.Thresholds.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// AvailableAt reports whether the quiz itself admits attempts at the
// given instant. Role/enrollment eligibility is the EligibilityChecker's
// job, not the quiz's.
func (q *Quiz) AvailableAt(now time.Time) bool {
	if !q.Active {
		return false
	}
	if q.AvailableFrom != nil && now.Before(*q.AvailableFrom) {
		return false
	}
	if q.AvailableUntil != nil && now.After(*q.AvailableUntil) {
		return false
	}
	return true
}

// Choice is one selectable option of a choice question.
type Choice struct {
	ID       string
	Text     string
	Correct  bool
	Position int
}

// MatchingPair is one canonical left/right pairing of a matching or
// drag-drop question.
type MatchingPair struct {
	Left     string
	Right    string
	Position int
}

// Question is one scored item of a quiz together with its answer key.
type Question struct {
	ID            string
	QuizID        string
	Type          QuestionType
	Text          string
	Points        float64
	Position      int
	Level         QuestionLevel
	CaseSensitive bool

	// Answer key material; which slice is populated depends on Type.
	Choices []Choice
	Blanks  []string
	Pairs   []MatchingPair
}

// CorrectChoiceIDs returns the ids of all choices marked correct.
func (q *Question) CorrectChoiceIDs() []string {
	var ids []string
	for _, c := range q.Choices {
		if c.Correct {
			ids = append(ids, c.ID)
		}
	}
	return ids
}

// QuizSnapshot is the immutable resolved view of a quiz used by
// admission and evaluation: validated settings plus the full question
// set with keys.
type QuizSnapshot struct {
	Quiz      Quiz
	Questions []Question
}

// QuestionByID finds a question of this snapshot, or nil.
func (s *QuizSnapshot) QuestionByID(id string) *Question {
	for i := range s.Questions {
		if s.Questions[i].ID == id {
			return &s.Questions[i]
		}
	}
	return nil
}

// TotalPoints sums the point values of every question.
func (s *QuizSnapshot) TotalPoints() float64 {
	var total float64
	for _, q := range s.Questions {
		total += q.Points
	}
	return total
}
