package models

type Exam struct {
	ID         string `json:"id" db:"id"`
	CourseName string `json:"courseName" db:"course_name"`
	ExamDate   string `json:"examDate" db:"exam_date"` // YYYY-MM-DD
}
