package domain

import (
	"encoding/json"
	"time"
)

// ExpiryGrace is the fixed buffer past the time limit before an attempt
// is treated as expired.
const ExpiryGrace = 120 * time.Second

// Attempt is one learner's pass through a quiz. It is created only by
// guard admission, mutated by submission and focus events, completed at
// most once, and hard-deleted by the sweeper when expired or stale.
type Attempt struct {
	ID             string
	UserID         string
	QuizID         string
	Score          float64
	Classification string
	Completed      bool
	StartedAt      time.Time
	EndedAt        *time.Time
	LastActivityAt time.Time
	ActiveSeconds  int64
	Focused        bool
	LastFocusAt    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewAttempt creates an Active attempt starting now.
func NewAttempt(id, userID, quizID string, now time.Time) *Attempt {
	return &Attempt{
		ID:             id,
		UserID:         userID,
		QuizID:         quizID,
		StartedAt:      now,
		LastActivityAt: now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// IsActive reports whether the attempt can still accept events.
// Expiration is a separate, time-derived predicate.
func (a *Attempt) IsActive() bool {
	return !a.Completed
}

// ExpiresAt returns the instant the attempt expires. ok is false when
// the quiz has no time limit and the attempt never time-expires.
func (a *Attempt) ExpiresAt(timeLimitMinutes int) (time.Time, bool) {
	if timeLimitMinutes <= 0 {
		return time.Time{}, false
	}
	limit := time.Duration(timeLimitMinutes) * time.Minute
	return a.StartedAt.Add(limit + ExpiryGrace), true
}

// IsExpiredAt reports whether elapsed wall-clock time has reached the
// limit plus grace. Zero limit never expires.
func (a *Attempt) IsExpiredAt(now time.Time, timeLimitMinutes int) bool {
	deadline, ok := a.ExpiresAt(timeLimitMinutes)
	if !ok {
		return false
	}
	return !now.Before(deadline)
}

// IsStaleAt reports whether the attempt has seen no activity for the
// given window. Staleness is independent of the time limit.
func (a *Attempt) IsStaleAt(now time.Time, window time.Duration) bool {
	return now.Sub(a.LastActivityAt) >= window
}

// RemainingSecondsAt returns the seconds left before the raw time limit
// (the grace buffer is not advertised), clamped at zero. nil means the
// quiz has no limit.
func (a *Attempt) RemainingSecondsAt(now time.Time, timeLimitMinutes int) *int64 {
	if timeLimitMinutes <= 0 {
		return nil
	}
	deadline := a.StartedAt.Add(time.Duration(timeLimitMinutes) * time.Minute)
	remaining := int64(deadline.Sub(now).Seconds())
	if remaining < 0 {
		remaining = 0
	}
	return &remaining
}

// Touch records activity at the given instant.
func (a *Attempt) Touch(now time.Time) {
	a.LastActivityAt = now
	a.UpdatedAt = now
}

// ApplyFocus marks the start of an engaged session.
func (a *Attempt) ApplyFocus(at time.Time) {
	focusAt := at
	a.Focused = true
	a.LastFocusAt = &focusAt
	a.Touch(at)
}

// ApplyBlur closes the open session and returns the seconds added to
// ActiveSeconds. A blur without a preceding focus adds nothing, which
// keeps repeated blur events harmless. Negative deltas from skewed
// event clocks clamp to zero so the counter never decreases.
func (a *Attempt) ApplyBlur(at time.Time) int64 {
	var added int64
	if a.Focused && a.LastFocusAt != nil {
		added = int64(at.Sub(*a.LastFocusAt).Seconds())
		if added < 0 {
			added = 0
		}
		a.ActiveSeconds += added
	}
	a.Focused = false
	a.Touch(at)
	return added
}

// CurrentSessionSecondsAt returns the length of the open focus session
// without mutating any state, or zero when not focused.
func (a *Attempt) CurrentSessionSecondsAt(at time.Time) int64 {
	if !a.Focused || a.LastFocusAt == nil {
		return 0
	}
	secs := int64(at.Sub(*a.LastFocusAt).Seconds())
	if secs < 0 {
		return 0
	}
	return secs
}

// Complete finalizes the attempt with its score and, for leveled
// quizzes, a classification band. An open focus session is folded into
// ActiveSeconds first. Completing an already-completed attempt is a
// no-op.
func (a *Attempt) Complete(now time.Time, score float64, classification string) {
	if a.Completed {
		return
	}
	if a.Focused {
		a.ApplyBlur(now)
	}
	endedAt := now
	a.Score = score
	a.Classification = classification
	a.Completed = true
	a.EndedAt = &endedAt
	a.Touch(now)
}

// AttemptAnswer is one submitted answer of an attempt. There is at most
// one row per (attempt, question); resubmission replaces it.
type AttemptAnswer struct {
	ID           string
	AttemptID    string
	QuestionID   string
	Submitted    json.RawMessage
	IsCorrect    bool
	PointsEarned float64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
