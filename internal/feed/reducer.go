package feed

import (
	"encoding/json"
	"fmt"

	"github.com/p-chth/KaoDuenMate-VER2/internal/models"
)

// The states below are immutable snapshots. Apply always returns a fresh
// value and leaves the receiver untouched, so a holder can swap the whole
// value atomically. Events for another collection return the receiver as is.

type AssignmentsState []models.Assignment

func (s AssignmentsState) Apply(event models.ChangeEvent) (AssignmentsState, error) {
	if event.Collection != models.CollectionAssignments {
		return s, nil
	}
	next, err := applyList(s, event, func(a models.Assignment) string { return a.ID })
	return AssignmentsState(next), err
}

type ExamsState []models.Exam

func (s ExamsState) Apply(event models.ChangeEvent) (ExamsState, error) {
	if event.Collection != models.CollectionExams {
		return s, nil
	}
	next, err := applyList(s, event, func(e models.Exam) string { return e.ID })
	return ExamsState(next), err
}

type CoursesState []models.Course

func (s CoursesState) Apply(event models.ChangeEvent) (CoursesState, error) {
	if event.Collection != models.CollectionCourses {
		return s, nil
	}
	next, err := applyList(s, event, func(c models.Course) string { return c.ID })
	if err != nil {
		return s, err
	}
	for i := range next {
		next[i] = next[i].Clone()
	}
	return CoursesState(next), nil
}

// ProfileState is the singleton profile; a delete resets it to zero values.
type ProfileState struct {
	Profile models.UserProfile
	Exists  bool
}

func (s ProfileState) Apply(event models.ChangeEvent) (ProfileState, error) {
	if event.Collection != models.CollectionProfile {
		return s, nil
	}

	switch event.Op {
	case models.OpUpsert:
		var p models.UserProfile
		if err := json.Unmarshal(event.Document, &p); err != nil {
			return s, fmt.Errorf("failed to decode profile document: %w", err)
		}
		p.UserID = event.UserID
		return ProfileState{Profile: p, Exists: true}, nil
	case models.OpDelete:
		return ProfileState{Profile: models.UserProfile{UserID: event.UserID}}, nil
	default:
		return s, fmt.Errorf("unknown change op %q", event.Op)
	}
}

// applyList copies list, then replaces, appends or removes the document
// named by event.DocID.
func applyList[T any](list []T, event models.ChangeEvent, idOf func(T) string) ([]T, error) {
	switch event.Op {
	case models.OpUpsert:
		var doc T
		if err := json.Unmarshal(event.Document, &doc); err != nil {
			return list, fmt.Errorf("failed to decode %s document %s: %w", event.Collection, event.DocID, err)
		}

		next := make([]T, len(list), len(list)+1)
		copy(next, list)
		for i := range next {
			if idOf(next[i]) == event.DocID {
				next[i] = doc
				return next, nil
			}
		}
		return append(next, doc), nil

	case models.OpDelete:
		next := make([]T, 0, len(list))
		for _, item := range list {
			if idOf(item) != event.DocID {
				next = append(next, item)
			}
		}
		return next, nil

	default:
		return list, fmt.Errorf("unknown change op %q", event.Op)
	}
}
