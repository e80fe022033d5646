package models

import "testing"

func TestCanTransitionTo(t *testing.T) {
	cases := []struct {
		from    CompetitionStatus
		to      CompetitionStatus
		allowed bool
	}{
		{CompetitionStatusDraft, CompetitionStatusScheduled, true},
		{CompetitionStatusScheduled, CompetitionStatusActive, true},
		{CompetitionStatusActive, CompetitionStatusClosed, true},
		{CompetitionStatusClosed, CompetitionStatusDrawing, true},
		{CompetitionStatusDrawing, CompetitionStatusDrawn, true},
		{CompetitionStatusDrawn, CompetitionStatusCompleted, true},

		// No skipping forward
		{CompetitionStatusDraft, CompetitionStatusActive, false},
		{CompetitionStatusActive, CompetitionStatusDrawing, false},
		{CompetitionStatusClosed, CompetitionStatusDrawn, false},

		// No moving backward
		{CompetitionStatusActive, CompetitionStatusScheduled, false},
		{CompetitionStatusDrawn, CompetitionStatusDrawing, false},

		// Cancellation from non-terminal states only
		{CompetitionStatusDraft, CompetitionStatusCancelled, true},
		{CompetitionStatusActive, CompetitionStatusCancelled, true},
		{CompetitionStatusDrawing, CompetitionStatusCancelled, true},
		{CompetitionStatusDrawn, CompetitionStatusCancelled, false},
		{CompetitionStatusCompleted, CompetitionStatusCancelled, false},
		{CompetitionStatusCancelled, CompetitionStatusDraft, false},
	}

	for _, tc := range cases {
		c := &Competition{Status: tc.from}
		if got := c.CanTransitionTo(tc.to); got != tc.allowed {
			t.Errorf("%s -> %s: got %v, want %v", tc.from, tc.to, got, tc.allowed)
		}
	}
}

func TestPoolLocked(t *testing.T) {
	c := &Competition{PoolStatus: PoolStatusDraft}
	if c.PoolLocked() {
		t.Error("draft pool reported locked")
	}
	c.PoolStatus = PoolStatusLocked
	if !c.PoolLocked() {
		t.Error("locked pool reported unlocked")
	}
}
