package models

import "encoding/json"

type Collection string

const (
	CollectionAssignments Collection = "assignments"
	CollectionExams       Collection = "exams"
	CollectionCourses     Collection = "courses"
	CollectionProfile     Collection = "profile"
)

func (c Collection) Valid() bool {
	switch c {
	case CollectionAssignments, CollectionExams, CollectionCourses, CollectionProfile:
		return true
	default:
		return false
	}
}

type ChangeOp string

const (
	OpUpsert ChangeOp = "upsert"
	OpDelete ChangeOp = "delete"
)

// ChangeEvent is published after every successful write to a user's data.
// Document holds the full new document for upserts and is empty for deletes.
type ChangeEvent struct {
	UserID     string          `json:"user_id"`
	Collection Collection      `json:"collection"`
	Op         ChangeOp        `json:"op"`
	DocID      string          `json:"doc_id"`
	Document   json.RawMessage `json:"document,omitempty"`
	Timestamp  int64           `json:"timestamp"`
}
