package models

// Data Transfer Objects

type CreateProfileRequest struct {
	Title     string `json:"title"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	StudentID string `json:"studentId"`
	Email     string `json:"email"`
}

// UpdateProfileRequest carries only the fields the user may edit. Nil means
// "leave as is".
type UpdateProfileRequest struct {
	Title     *string `json:"title,omitempty"`
	FirstName *string `json:"firstName,omitempty"`
	LastName  *string `json:"lastName,omitempty"`
	StudentID *string `json:"studentId,omitempty"`
}

func (r UpdateProfileRequest) Fields() map[string]string {
	fields := make(map[string]string)
	if r.Title != nil {
		fields["title"] = *r.Title
	}
	if r.FirstName != nil {
		fields["firstName"] = *r.FirstName
	}
	if r.LastName != nil {
		fields["lastName"] = *r.LastName
	}
	if r.StudentID != nil {
		fields["studentId"] = *r.StudentID
	}
	return fields
}

type CreateAssignmentRequest struct {
	ID      string `json:"id,omitempty"`
	Name    string `json:"name"`
	DueDate string `json:"dueDate"`
}

type CreateExamRequest struct {
	ID         string `json:"id,omitempty"`
	CourseName string `json:"courseName"`
	ExamDate   string `json:"examDate"`
}

type CreateCourseRequest struct {
	ID    string `json:"id,omitempty"`
	Title string `json:"title"`
}

type AddTopicRequest struct {
	ID    string `json:"id,omitempty"`
	Title string `json:"title"`
}

type SetTopicDoneRequest struct {
	Done bool `json:"done"`
}

type TopicToggleResponse struct {
	Course      Course       `json:"course"`
	Completed   bool         `json:"completed"`
	Streak      *StreakState `json:"streak,omitempty"`
	StreakError string       `json:"streak_error,omitempty"`
}

type FinishAssignmentResponse struct {
	AssignmentID string       `json:"assignment_id"`
	Streak       *StreakState `json:"streak,omitempty"`
	StreakError  string       `json:"streak_error,omitempty"`
}

// HomeDashboard is what the home screen renders.
type HomeDashboard struct {
	Today          string           `json:"today"`
	Streak         int              `json:"streak"`
	Nearest        *Deadline        `json:"nearest,omitempty"`
	Upcoming       []Deadline       `json:"upcoming"`
	TodayTasks     []Assignment     `json:"today_tasks"`
	CourseProgress []CourseProgress `json:"course_progress"`
}

// ProfileStats is the profile card: D-Day, open assignments, overall progress.
type ProfileStats struct {
	Today           string  `json:"today"`
	Streak          int     `json:"streak"`
	DDay            *int    `json:"d_day"`
	AssignmentsLeft int     `json:"assignments_left"`
	OverallProgress float64 `json:"overall_progress"`
	OverallPercent  int     `json:"overall_percent"`
}

type ProgressResponse struct {
	Courses         []CourseProgress `json:"courses"`
	OverallProgress float64          `json:"overall_progress"`
	OverallPercent  int              `json:"overall_percent"`
}

// Snapshot is the full state of a user's data, sent when a feed opens.
type Snapshot struct {
	Profile     UserProfile  `json:"profile"`
	Assignments []Assignment `json:"assignments"`
	Exams       []Exam       `json:"exams"`
	Courses     []Course     `json:"courses"`
}
