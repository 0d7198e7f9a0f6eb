package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/p-chth/KaoDuenMate-VER2/internal/feed"
	"github.com/p-chth/KaoDuenMate-VER2/internal/models"
	"github.com/p-chth/KaoDuenMate-VER2/internal/repository"
	"github.com/p-chth/KaoDuenMate-VER2/pkg/dates"
)

type ExamService interface {
	GetExams(ctx context.Context, userID string) ([]models.Exam, error)
	CreateExam(ctx context.Context, userID string, req *models.CreateExamRequest) (*models.Exam, error)
	DeleteExam(ctx context.Context, userID, id string) error
}

type examService struct {
	examRepo repository.ExamRepository
	notifier notifier
	logger   zerolog.Logger
}

func NewExamService(examRepo repository.ExamRepository, publisher feed.Publisher, logger zerolog.Logger) ExamService {
	return &examService{
		examRepo: examRepo,
		notifier: notifier{publisher: publisher, logger: logger},
		logger:   logger,
	}
}

func (s *examService) GetExams(ctx context.Context, userID string) ([]models.Exam, error) {
	exams, err := s.examRepo.GetAll(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get exams: %w", err)
	}
	return exams, nil
}

func (s *examService) CreateExam(ctx context.Context, userID string, req *models.CreateExamRequest) (*models.Exam, error) {
	day, err := dates.Parse(req.ExamDate)
	if err != nil {
		return nil, invalid("examDate: %v", err)
	}

	exam := &models.Exam{
		ID:         newID(req.ID),
		CourseName: strings.TrimSpace(req.CourseName),
		ExamDate:   dates.Format(day),
	}

	if err := s.examRepo.Set(ctx, userID, exam); err != nil {
		return nil, fmt.Errorf("failed to create exam: %w", err)
	}

	s.logger.Info().
		Str("user_id", userID).
		Str("exam_id", exam.ID).
		Str("exam_date", exam.ExamDate).
		Msg("Exam created")

	s.notifier.upsert(ctx, userID, models.CollectionExams, exam.ID, exam)

	return exam, nil
}

func (s *examService) DeleteExam(ctx context.Context, userID, id string) error {
	if err := s.examRepo.Delete(ctx, userID, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound("exam", id)
		}
		return fmt.Errorf("failed to delete exam: %w", err)
	}

	s.logger.Info().
		Str("user_id", userID).
		Str("exam_id", id).
		Msg("Exam deleted")

	s.notifier.remove(ctx, userID, models.CollectionExams, id)

	return nil
}
