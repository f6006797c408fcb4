// Package scoring aggregates per-question correctness into an attempt
// score and, for leveled quizzes, a proficiency band.
package scoring

import (
	"math"

	"quiz-engine/internal/domain"
)

// Round2 rounds to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Score returns the percentage of earned points out of total points,
// rounded to two decimals. A quiz with no points scores 0.
func Score(earned, total float64) float64 {
	if total <= 0 {
		return 0
	}
	return Round2(earned / total * 100)
}

// Tally accumulates question results for one attempt. Every recorded
// question contributes to the denominator whether or not it was
// answered correctly.
type Tally struct {
	earned      float64
	total       float64
	levelEarned map[domain.QuestionLevel]float64
	levelTotal  map[domain.QuestionLevel]float64
}

func NewTally() *Tally {
	return &Tally{
		levelEarned: make(map[domain.QuestionLevel]float64),
		levelTotal:  make(map[domain.QuestionLevel]float64),
	}
}

// Record adds one question outcome. Unanswered questions are recorded
// with correct=false so their points still count toward the totals.
func (t *Tally) Record(q *domain.Question, correct bool) {
	if q == nil || q.Points <= 0 {
		return
	}
	t.total += q.Points
	t.levelTotal[q.Level] += q.Points
	if correct {
		t.earned += q.Points
		t.levelEarned[q.Level] += q.Points
	}
}

// Earned returns the points earned so far.
func (t *Tally) Earned() float64 { return t.earned }

// Total returns the points available so far.
func (t *Tally) Total() float64 { return t.total }

// Score returns the overall percentage score.
func (t *Tally) Score() float64 {
	return Score(t.earned, t.total)
}

// LevelPercent returns the percentage earned within one level, or 0
// when the level carries no points.
func (t *Tally) LevelPercent(level domain.QuestionLevel) float64 {
	return Score(t.levelEarned[level], t.levelTotal[level])
}

// Classify maps the tally onto a proficiency band. The rules are
// ordered and the first match wins, which settles the case where a
// result satisfies more than one rule.
func (t *Tally) Classify(th domain.LevelThresholds) domain.Band {
	overall := t.Score()
	l2 := t.LevelPercent(domain.LevelTwo)
	l1 := t.LevelPercent(domain.LevelOne)
	bl1 := t.LevelPercent(domain.LevelBelowOne)

	switch {
	case l2 >= th.Level2 && overall >= th.Total && l1 >= th.Level1:
		return domain.BandLevel2
	case l1 >= th.Level1 && l2 < th.Level2 && bl1 >= th.BelowLevel1:
		return domain.BandLevel1
	default:
		return domain.BandBelowLevel1
	}
}
