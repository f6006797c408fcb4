package domain

import (
	"testing"
	"time"
)

var attemptStart = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func newTestAttempt() *Attempt {
	return NewAttempt("attempt1", "user1", "quiz1", attemptStart)
}

func TestNewAttempt(t *testing.T) {
	a := newTestAttempt()
	if !a.IsActive() {
		t.Error("new attempt should be active")
	}
	if !a.StartedAt.Equal(attemptStart) || !a.LastActivityAt.Equal(attemptStart) {
		t.Errorf("start/activity timestamps = %v/%v, want %v", a.StartedAt, a.LastActivityAt, attemptStart)
	}
	if a.EndedAt != nil {
		t.Error("new attempt should not have an end time")
	}
	if a.ActiveSeconds != 0 || a.Focused {
		t.Errorf("new attempt tracker state = %ds focused=%v, want 0s unfocused", a.ActiveSeconds, a.Focused)
	}
}

func TestAttempt_IsExpiredAt_Boundary(t *testing.T) {
	const limitMinutes = 30
	limit := time.Duration(limitMinutes) * time.Minute

	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"well within limit", attemptStart.Add(limit / 2), false},
		{"at limit, inside grace", attemptStart.Add(limit), false},
		{"119s past limit", attemptStart.Add(limit + 119*time.Second), false},
		{"120s past limit", attemptStart.Add(limit + 120*time.Second), true},
		{"121s past limit", attemptStart.Add(limit + 121*time.Second), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestAttempt()
			if got := a.IsExpiredAt(tt.at, limitMinutes); got != tt.want {
				t.Errorf("IsExpiredAt(%v) = %v, want %v", tt.at, got, tt.want)
			}
		})
	}
}

func TestAttempt_IsExpiredAt_ZeroLimitNeverExpires(t *testing.T) {
	a := newTestAttempt()
	farFuture := attemptStart.Add(1000 * time.Hour)
	if a.IsExpiredAt(farFuture, 0) {
		t.Error("attempt with zero time limit must never time-expire")
	}
	if _, ok := a.ExpiresAt(0); ok {
		t.Error("ExpiresAt(0) should report no deadline")
	}
}

func TestAttempt_IsStaleAt(t *testing.T) {
	a := newTestAttempt()
	window := 2 * time.Hour

	if a.IsStaleAt(attemptStart.Add(window-time.Second), window) {
		t.Error("attempt inside the inactivity window should not be stale")
	}
	if !a.IsStaleAt(attemptStart.Add(window), window) {
		t.Error("attempt at the inactivity window should be stale")
	}

	a.Touch(attemptStart.Add(90 * time.Minute))
	if a.IsStaleAt(attemptStart.Add(window), window) {
		t.Error("activity must reset the staleness clock")
	}
}

func TestAttempt_RemainingSecondsAt(t *testing.T) {
	a := newTestAttempt()

	if got := a.RemainingSecondsAt(attemptStart.Add(time.Minute), 0); got != nil {
		t.Errorf("RemainingSecondsAt with no limit = %v, want nil", *got)
	}

	got := a.RemainingSecondsAt(attemptStart.Add(10*time.Minute), 30)
	if got == nil || *got != 20*60 {
		t.Errorf("RemainingSecondsAt mid-attempt = %v, want 1200", got)
	}

	got = a.RemainingSecondsAt(attemptStart.Add(31*time.Minute), 30)
	if got == nil || *got != 0 {
		t.Errorf("RemainingSecondsAt past limit = %v, want 0", got)
	}
}

func TestAttempt_FocusBlurAccumulation(t *testing.T) {
	a := newTestAttempt()
	t0 := attemptStart.Add(5 * time.Minute)

	a.ApplyFocus(t0)
	if !a.Focused {
		t.Fatal("ApplyFocus should mark the attempt focused")
	}

	added := a.ApplyBlur(t0.Add(45 * time.Second))
	if added != 45 || a.ActiveSeconds != 45 {
		t.Errorf("blur after 45s added %d (total %d), want 45", added, a.ActiveSeconds)
	}
	if a.Focused {
		t.Error("ApplyBlur should clear the focused flag")
	}

	// A second blur without an intervening focus adds nothing.
	added = a.ApplyBlur(t0.Add(90 * time.Second))
	if added != 0 || a.ActiveSeconds != 45 {
		t.Errorf("repeated blur added %d (total %d), want 0 added", added, a.ActiveSeconds)
	}
}

func TestAttempt_CurrentSessionSecondsDoesNotMutate(t *testing.T) {
	a := newTestAttempt()
	t0 := attemptStart.Add(time.Minute)

	if got := a.CurrentSessionSecondsAt(t0); got != 0 {
		t.Errorf("session seconds while unfocused = %d, want 0", got)
	}

	a.ApplyFocus(t0)
	if got := a.CurrentSessionSecondsAt(t0.Add(30 * time.Second)); got != 30 {
		t.Errorf("session seconds = %d, want 30", got)
	}
	if a.ActiveSeconds != 0 {
		t.Errorf("CurrentSessionSecondsAt mutated ActiveSeconds to %d", a.ActiveSeconds)
	}
	if got := a.CurrentSessionSecondsAt(t0.Add(40 * time.Second)); got != 40 {
		t.Errorf("session seconds after repeated reads = %d, want 40", got)
	}
}

// Accumulated active time is intended to stay below wall-clock duration
// but is deliberately not clamped to it: focus/blur instants come from
// the caller and may be skewed.
func TestAttempt_ActiveTimeNotClampedToWallClock(t *testing.T) {
	a := newTestAttempt()

	a.ApplyFocus(attemptStart)
	a.ApplyBlur(attemptStart.Add(60 * time.Second))
	a.ApplyFocus(attemptStart.Add(10 * time.Second))
	a.ApplyBlur(attemptStart.Add(100 * time.Second))

	wallClock := int64(100)
	if a.ActiveSeconds <= wallClock {
		t.Errorf("expected skewed events to push ActiveSeconds (%d) past wall clock (%d)", a.ActiveSeconds, wallClock)
	}

	// Skew in the other direction must not decrease the counter.
	before := a.ActiveSeconds
	a.ApplyFocus(attemptStart.Add(200 * time.Second))
	a.ApplyBlur(attemptStart.Add(150 * time.Second))
	if a.ActiveSeconds != before {
		t.Errorf("negative focus delta changed ActiveSeconds from %d to %d", before, a.ActiveSeconds)
	}
}

func TestAttempt_Complete(t *testing.T) {
	a := newTestAttempt()
	endAt := attemptStart.Add(20 * time.Minute)

	a.ApplyFocus(attemptStart.Add(10 * time.Minute))
	a.Complete(endAt, 87.5, BandLevel2)

	if a.IsActive() {
		t.Error("completed attempt should not be active")
	}
	if a.Score != 87.5 || a.Classification != BandLevel2 {
		t.Errorf("score/classification = %v/%q, want 87.5/%q", a.Score, a.Classification, BandLevel2)
	}
	if a.EndedAt == nil || !a.EndedAt.Equal(endAt) {
		t.Errorf("EndedAt = %v, want %v", a.EndedAt, endAt)
	}
	if a.Focused {
		t.Error("completion should close the open focus session")
	}
	if a.ActiveSeconds != 600 {
		t.Errorf("completion folded %d active seconds, want 600", a.ActiveSeconds)
	}
}

func TestAttempt_CompleteIsIdempotent(t *testing.T) {
	a := newTestAttempt()
	endAt := attemptStart.Add(15 * time.Minute)

	a.Complete(endAt, 60, "")
	later := endAt.Add(time.Hour)
	a.Complete(later, 10, BandBelowLevel1)

	if a.Score != 60 || a.Classification != "" {
		t.Errorf("second Complete changed score/classification to %v/%q", a.Score, a.Classification)
	}
	if !a.EndedAt.Equal(endAt) {
		t.Errorf("second Complete moved EndedAt to %v", a.EndedAt)
	}
}
