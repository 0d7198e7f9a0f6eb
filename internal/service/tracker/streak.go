// Package tracker holds the pure computations behind the dashboard: the
// daily streak counter, deadline aggregation and course progress. Nothing in
// here performs I/O; callers pass "today" explicitly.
package tracker

import (
	"time"

	"github.com/p-chth/KaoDuenMate-VER2/internal/models"
	"github.com/p-chth/KaoDuenMate-VER2/pkg/dates"
)

// RecordActivity advances the streak for a qualifying activity on today.
// At most one increment happens per calendar day: when LastStreakUpdate is
// already today the state is returned unchanged and changed is false.
func RecordActivity(s models.StreakState, today time.Time) (next models.StreakState, changed bool) {
	today = dates.Normalize(today)
	todayStr := dates.Format(today)

	if s.LastStreakUpdate == todayStr {
		return s, false
	}

	next = s
	if next.Streak < 0 {
		next.Streak = 0
	}

	if continuesStreak(s.LastActiveDate, today) {
		next.Streak++
	} else {
		next.Streak = 1
	}

	next.LastActiveDate = todayStr
	next.LastStreakUpdate = todayStr

	return next, true
}

// CheckAndReset is the passive decay applied when a profile is loaded. A user
// whose last activity is older than yesterday drops to zero. It does not
// count as an activity, so LastStreakUpdate is cleared rather than set.
func CheckAndReset(s models.StreakState, today time.Time) (next models.StreakState, changed bool) {
	today = dates.Normalize(today)

	last, err := dates.Parse(s.LastActiveDate)
	if err != nil {
		// unset or malformed: nothing to decay
		return s, false
	}

	if !last.Before(dates.AddDays(today, -1)) {
		return s, false
	}

	return models.StreakState{
		Streak:           0,
		LastActiveDate:   dates.Format(today),
		LastStreakUpdate: "",
	}, true
}

// continuesStreak reports whether lastActive is yesterday or later.
// Dates after today (clock skew between devices) count as today.
func continuesStreak(lastActive string, today time.Time) bool {
	last, err := dates.Parse(lastActive)
	if err != nil {
		return false
	}
	return !last.Before(dates.AddDays(today, -1))
}
