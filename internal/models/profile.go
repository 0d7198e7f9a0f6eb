package models

// UserProfile is the singleton users/{uid} document. LastActiveDate and
// LastStreakUpdate are YYYY-MM-DD strings; empty means unset.
type UserProfile struct {
	UserID           string `json:"-" db:"uid"`
	Title            string `json:"title" db:"title"`
	FirstName        string `json:"firstName" db:"first_name"`
	LastName         string `json:"lastName" db:"last_name"`
	StudentID        string `json:"studentId" db:"student_id"`
	Email            string `json:"email" db:"email"`
	Streak           int    `json:"streak" db:"streak"`
	LastActiveDate   string `json:"lastActiveDate" db:"last_active_date"`
	LastStreakUpdate string `json:"lastStreakUpdate" db:"last_streak_update"`
}

// StreakState is the part of the profile the streak engine owns.
type StreakState struct {
	Streak           int    `json:"streak"`
	LastActiveDate   string `json:"lastActiveDate"`
	LastStreakUpdate string `json:"lastStreakUpdate"`
}

func (p UserProfile) StreakState() StreakState {
	return StreakState{
		Streak:           p.Streak,
		LastActiveDate:   p.LastActiveDate,
		LastStreakUpdate: p.LastStreakUpdate,
	}
}

func (p UserProfile) WithStreak(s StreakState) UserProfile {
	p.Streak = s.Streak
	p.LastActiveDate = s.LastActiveDate
	p.LastStreakUpdate = s.LastStreakUpdate
	return p
}
