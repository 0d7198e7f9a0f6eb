package repository

import (
	"context"
	"errors"

	"github.com/p-chth/KaoDuenMate-VER2/internal/models"
)

// ErrNotFound is returned by updates and deletes that matched no document.
// Lookups return (nil, nil) instead.
var ErrNotFound = errors.New("document not found")

type AssignmentRepository interface {
	GetAll(ctx context.Context, userID string) ([]models.Assignment, error)
	Get(ctx context.Context, userID, id string) (*models.Assignment, error)
	Set(ctx context.Context, userID string, a *models.Assignment) error
	Delete(ctx context.Context, userID, id string) error
}

type ExamRepository interface {
	GetAll(ctx context.Context, userID string) ([]models.Exam, error)
	Get(ctx context.Context, userID, id string) (*models.Exam, error)
	Set(ctx context.Context, userID string, e *models.Exam) error
	Delete(ctx context.Context, userID, id string) error
}

type CourseRepository interface {
	GetAll(ctx context.Context, userID string) ([]models.Course, error)
	Get(ctx context.Context, userID, id string) (*models.Course, error)
	Set(ctx context.Context, userID string, c *models.Course) error
	UpdateTitle(ctx context.Context, userID, id, title string) error
	UpdateTopics(ctx context.Context, userID, id string, topics []models.Topic) error
	Delete(ctx context.Context, userID, id string) error
}

type ProfileRepository interface {
	Get(ctx context.Context, userID string) (*models.UserProfile, error)
	Set(ctx context.Context, p *models.UserProfile) error
	// UpdateFields writes a partial set of string fields keyed by their
	// document names (firstName, lastName, studentId, title, email).
	UpdateFields(ctx context.Context, userID string, fields map[string]string) error
	// UpdateStreak stores s only if the stored lastStreakUpdate still equals
	// expected. A missing profile counts as lastStreakUpdate "" and is
	// created. ok is false when another writer got there first.
	UpdateStreak(ctx context.Context, userID, expected string, s models.StreakState) (ok bool, err error)
}

// Store bundles the four collections of one backend.
type Store struct {
	Assignments AssignmentRepository
	Exams       ExamRepository
	Courses     CourseRepository
	Profiles    ProfileRepository
}

// profileColumns maps editable document fields to their column names.
var profileColumns = map[string]string{
	"title":     "title",
	"firstName": "first_name",
	"lastName":  "last_name",
	"studentId": "student_id",
	"email":     "email",
}
