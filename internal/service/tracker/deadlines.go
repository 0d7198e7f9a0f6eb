package tracker

import (
	"slices"
	"time"

	"github.com/p-chth/KaoDuenMate-VER2/internal/models"
	"github.com/p-chth/KaoDuenMate-VER2/pkg/dates"
)

const (
	WeekDays = 7

	unnamedAssignment = "Unnamed Assignment"
	unnamedExam       = "Unnamed Exam"
)

// UpcomingDeadlines merges assignments and exams into one list ordered by
// days left. Items due today or earlier are not upcoming and are dropped, as
// are items with an empty or malformed date. Ties keep input order, with
// assignments ahead of exams.
func UpcomingDeadlines(assignments []models.Assignment, exams []models.Exam, today time.Time) []models.Deadline {
	all := toDeadlines(assignments, exams, today)

	upcoming := make([]models.Deadline, 0, len(all))
	for _, d := range all {
		if d.DaysLeft > 0 {
			upcoming = append(upcoming, d)
		}
	}

	slices.SortStableFunc(upcoming, func(a, b models.Deadline) int {
		return a.DaysLeft - b.DaysLeft
	})

	return upcoming
}

// SplitNearest separates the head of a sorted deadline list from at most
// restLimit following entries. A negative restLimit keeps the whole tail.
func SplitNearest(deadlines []models.Deadline, restLimit int) (*models.Deadline, []models.Deadline) {
	if len(deadlines) == 0 {
		return nil, []models.Deadline{}
	}

	nearest := deadlines[0]
	rest := deadlines[1:]
	if restLimit >= 0 && len(rest) > restLimit {
		rest = rest[:restLimit]
	}

	out := make([]models.Deadline, len(rest))
	copy(out, rest)
	return &nearest, out
}

// BucketByNext7Days returns exactly seven buckets starting at today. An item
// lands in a bucket when its parsed date equals the bucket date.
func BucketByNext7Days(assignments []models.Assignment, exams []models.Exam, today time.Time) []models.DayBucket {
	today = dates.Normalize(today)

	buckets := make([]models.DayBucket, WeekDays)
	index := make(map[string]int, WeekDays)

	for i := 0; i < WeekDays; i++ {
		day := dates.AddDays(today, i)
		key := dates.Format(day)
		buckets[i] = models.DayBucket{
			Date:        key,
			Label:       dates.Label(day),
			Assignments: []models.Assignment{},
			Exams:       []models.Exam{},
		}
		index[key] = i
	}

	for _, a := range assignments {
		if i, ok := index[dateKey(a.DueDate)]; ok {
			buckets[i].Assignments = append(buckets[i].Assignments, a)
		}
	}
	for _, e := range exams {
		if i, ok := index[dateKey(e.ExamDate)]; ok {
			buckets[i].Exams = append(buckets[i].Exams, e)
		}
	}

	return buckets
}

// DueOn lists the assignments due exactly on day.
func DueOn(assignments []models.Assignment, day time.Time) []models.Assignment {
	key := dates.Format(dates.Normalize(day))

	due := make([]models.Assignment, 0)
	for _, a := range assignments {
		if dateKey(a.DueDate) == key {
			due = append(due, a)
		}
	}
	return due
}

// EventsByDate groups every dated assignment and exam by its normalized date
// for the month calendar.
func EventsByDate(assignments []models.Assignment, exams []models.Exam) map[string][]models.CalendarEvent {
	events := make(map[string][]models.CalendarEvent)

	for _, a := range assignments {
		key := dateKey(a.DueDate)
		if key == "" {
			continue
		}
		events[key] = append(events[key], models.CalendarEvent{
			ID:      a.ID,
			Summary: "Assignment: " + a.Name,
			Kind:    models.DeadlineAssignment,
		})
	}
	for _, e := range exams {
		key := dateKey(e.ExamDate)
		if key == "" {
			continue
		}
		events[key] = append(events[key], models.CalendarEvent{
			ID:      e.ID,
			Summary: "Exam: " + e.CourseName,
			Kind:    models.DeadlineExam,
		})
	}

	return events
}

// DDay counts the days until the earliest dated assignment or exam, clamped
// at zero when that date has already passed. ok is false when nothing has a
// valid date.
func DDay(assignments []models.Assignment, exams []models.Exam, today time.Time) (days int, ok bool) {
	all := toDeadlines(assignments, exams, today)
	if len(all) == 0 {
		return 0, false
	}

	earliest := all[0].DaysLeft
	for _, d := range all[1:] {
		if d.DaysLeft < earliest {
			earliest = d.DaysLeft
		}
	}

	if earliest < 0 {
		earliest = 0
	}
	return earliest, true
}

func toDeadlines(assignments []models.Assignment, exams []models.Exam, today time.Time) []models.Deadline {
	out := make([]models.Deadline, 0, len(assignments)+len(exams))

	for _, a := range assignments {
		due, err := dates.Parse(a.DueDate)
		if err != nil {
			continue
		}
		out = append(out, models.Deadline{
			ID:       a.ID,
			Name:     orDefault(a.Name, unnamedAssignment),
			Date:     dates.Format(due),
			Kind:     models.DeadlineAssignment,
			DaysLeft: dates.DaysBetween(today, due),
		})
	}

	for _, e := range exams {
		on, err := dates.Parse(e.ExamDate)
		if err != nil {
			continue
		}
		out = append(out, models.Deadline{
			ID:       e.ID,
			Name:     orDefault(e.CourseName, unnamedExam),
			Date:     dates.Format(on),
			Kind:     models.DeadlineExam,
			DaysLeft: dates.DaysBetween(today, on),
		})
	}

	return out
}

// dateKey is the canonical "YYYY-MM-DD" form of s, or "" when s is malformed.
func dateKey(s string) string {
	d, err := dates.Parse(s)
	if err != nil {
		return ""
	}
	return dates.Format(d)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
