package models

type DeadlineKind string

const (
	DeadlineAssignment DeadlineKind = "assignment"
	DeadlineExam       DeadlineKind = "exam"
)

// Deadline is an assignment or exam reduced for aggregation.
type Deadline struct {
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	Date     string       `json:"date"`
	Kind     DeadlineKind `json:"kind"`
	DaysLeft int          `json:"daysLeft"`
}

// DayBucket holds everything due on one calendar date.
type DayBucket struct {
	Date        string       `json:"date"`
	Label       string       `json:"label"`
	Assignments []Assignment `json:"assignments"`
	Exams       []Exam       `json:"exams"`
}

// Items returns the bucket contents as deadlines, assignments first.
func (b DayBucket) Items() []Deadline {
	items := make([]Deadline, 0, len(b.Assignments)+len(b.Exams))
	for _, a := range b.Assignments {
		items = append(items, Deadline{ID: a.ID, Name: a.Name, Date: a.DueDate, Kind: DeadlineAssignment})
	}
	for _, e := range b.Exams {
		items = append(items, Deadline{ID: e.ID, Name: e.CourseName, Date: e.ExamDate, Kind: DeadlineExam})
	}
	return items
}

// CalendarEvent is one marker on the month calendar.
type CalendarEvent struct {
	ID      string       `json:"id"`
	Summary string       `json:"summary"`
	Kind    DeadlineKind `json:"kind"`
}

type CourseProgress struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Progress float64 `json:"progress"`
	Percent  int     `json:"percent"`
	Done     int     `json:"done"`
	Total    int     `json:"total"`
}
