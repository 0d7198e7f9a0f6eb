package models

// Assignment is stored at users/{uid}/assignments/{id}. Finishing an
// assignment deletes it.
type Assignment struct {
	ID      string `json:"id" db:"id"`
	Name    string `json:"name" db:"name"`
	DueDate string `json:"dueDate" db:"due_date"` // YYYY-MM-DD
}
