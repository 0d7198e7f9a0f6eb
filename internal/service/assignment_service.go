package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/p-chth/KaoDuenMate-VER2/internal/feed"
	"github.com/p-chth/KaoDuenMate-VER2/internal/models"
	"github.com/p-chth/KaoDuenMate-VER2/internal/repository"
	"github.com/p-chth/KaoDuenMate-VER2/pkg/dates"
)

type AssignmentService interface {
	GetAssignments(ctx context.Context, userID string) ([]models.Assignment, error)
	CreateAssignment(ctx context.Context, userID string, req *models.CreateAssignmentRequest) (*models.Assignment, error)
	DeleteAssignment(ctx context.Context, userID, id string) error
	// FinishAssignment removes the assignment and counts it as today's
	// activity. A failed streak write is reported in the response, not as
	// an error.
	FinishAssignment(ctx context.Context, userID, id string) (*models.FinishAssignmentResponse, error)
}

type assignmentService struct {
	assignmentRepo repository.AssignmentRepository
	profiles       ProfileService
	notifier       notifier
	logger         zerolog.Logger
}

func NewAssignmentService(assignmentRepo repository.AssignmentRepository, profiles ProfileService, publisher feed.Publisher, logger zerolog.Logger) AssignmentService {
	return &assignmentService{
		assignmentRepo: assignmentRepo,
		profiles:       profiles,
		notifier:       notifier{publisher: publisher, logger: logger},
		logger:         logger,
	}
}

func (s *assignmentService) GetAssignments(ctx context.Context, userID string) ([]models.Assignment, error) {
	assignments, err := s.assignmentRepo.GetAll(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get assignments: %w", err)
	}
	return assignments, nil
}

func (s *assignmentService) CreateAssignment(ctx context.Context, userID string, req *models.CreateAssignmentRequest) (*models.Assignment, error) {
	due, err := dates.Parse(req.DueDate)
	if err != nil {
		return nil, invalid("dueDate: %v", err)
	}

	assignment := &models.Assignment{
		ID:      newID(req.ID),
		Name:    strings.TrimSpace(req.Name),
		DueDate: dates.Format(due),
	}

	if err := s.assignmentRepo.Set(ctx, userID, assignment); err != nil {
		return nil, fmt.Errorf("failed to create assignment: %w", err)
	}

	s.logger.Info().
		Str("user_id", userID).
		Str("assignment_id", assignment.ID).
		Str("due_date", assignment.DueDate).
		Msg("Assignment created")

	s.notifier.upsert(ctx, userID, models.CollectionAssignments, assignment.ID, assignment)

	return assignment, nil
}

func (s *assignmentService) DeleteAssignment(ctx context.Context, userID, id string) error {
	if err := s.assignmentRepo.Delete(ctx, userID, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound("assignment", id)
		}
		return fmt.Errorf("failed to delete assignment: %w", err)
	}

	s.logger.Info().
		Str("user_id", userID).
		Str("assignment_id", id).
		Msg("Assignment deleted")

	s.notifier.remove(ctx, userID, models.CollectionAssignments, id)

	return nil
}

func (s *assignmentService) FinishAssignment(ctx context.Context, userID, id string) (*models.FinishAssignmentResponse, error) {
	if err := s.DeleteAssignment(ctx, userID, id); err != nil {
		return nil, err
	}

	resp := &models.FinishAssignmentResponse{AssignmentID: id}

	streak, err := s.profiles.RecordActivity(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).
			Str("user_id", userID).
			Str("assignment_id", id).
			Msg("Failed to record activity for finished assignment")
		resp.StreakError = err.Error()
		return resp, nil
	}

	resp.Streak = &streak
	return resp, nil
}

// newID keeps a caller-supplied ID and otherwise mints a time-ordered one.
func newID(supplied string) string {
	if id := strings.TrimSpace(supplied); id != "" {
		return id
	}
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
