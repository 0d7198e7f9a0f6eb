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
	"github.com/p-chth/KaoDuenMate-VER2/internal/service/tracker"
)

type CourseService interface {
	GetCourses(ctx context.Context, userID string) ([]models.Course, error)
	CreateCourse(ctx context.Context, userID string, req *models.CreateCourseRequest) (*models.Course, error)
	RenameCourse(ctx context.Context, userID, id, title string) (*models.Course, error)
	DeleteCourse(ctx context.Context, userID, id string) error
	AddTopic(ctx context.Context, userID, courseID string, req *models.AddTopicRequest) (*models.Course, error)
	RemoveTopic(ctx context.Context, userID, courseID, topicID string) (*models.Course, error)
	// SetTopicDone flips a topic's flag. Only a false to true transition
	// counts as today's activity.
	SetTopicDone(ctx context.Context, userID, courseID, topicID string, done bool) (*models.TopicToggleResponse, error)
}

type courseService struct {
	courseRepo repository.CourseRepository
	profiles   ProfileService
	locks      *keyedMutex
	notifier   notifier
	logger     zerolog.Logger
}

func NewCourseService(courseRepo repository.CourseRepository, profiles ProfileService, publisher feed.Publisher, logger zerolog.Logger) CourseService {
	return &courseService{
		courseRepo: courseRepo,
		profiles:   profiles,
		locks:      newKeyedMutex(),
		notifier:   notifier{publisher: publisher, logger: logger},
		logger:     logger,
	}
}

func (s *courseService) GetCourses(ctx context.Context, userID string) ([]models.Course, error) {
	courses, err := s.courseRepo.GetAll(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get courses: %w", err)
	}
	return courses, nil
}

func (s *courseService) CreateCourse(ctx context.Context, userID string, req *models.CreateCourseRequest) (*models.Course, error) {
	course := &models.Course{
		ID:     newID(req.ID),
		Title:  strings.TrimSpace(req.Title),
		Topics: []models.Topic{},
	}

	if err := s.courseRepo.Set(ctx, userID, course); err != nil {
		return nil, fmt.Errorf("failed to create course: %w", err)
	}

	s.logger.Info().
		Str("user_id", userID).
		Str("course_id", course.ID).
		Msg("Course created")

	s.notifier.upsert(ctx, userID, models.CollectionCourses, course.ID, course)

	return course, nil
}

func (s *courseService) RenameCourse(ctx context.Context, userID, id, title string) (*models.Course, error) {
	unlock := s.locks.Lock(userID + "/" + id)
	defer unlock()

	if err := s.courseRepo.UpdateTitle(ctx, userID, id, strings.TrimSpace(title)); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound("course", id)
		}
		return nil, fmt.Errorf("failed to rename course: %w", err)
	}

	course, err := s.get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	s.notifier.upsert(ctx, userID, models.CollectionCourses, id, course)

	return course, nil
}

func (s *courseService) DeleteCourse(ctx context.Context, userID, id string) error {
	unlock := s.locks.Lock(userID + "/" + id)
	defer unlock()

	if err := s.courseRepo.Delete(ctx, userID, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound("course", id)
		}
		return fmt.Errorf("failed to delete course: %w", err)
	}

	s.logger.Info().
		Str("user_id", userID).
		Str("course_id", id).
		Msg("Course deleted")

	s.notifier.remove(ctx, userID, models.CollectionCourses, id)

	return nil
}

func (s *courseService) AddTopic(ctx context.Context, userID, courseID string, req *models.AddTopicRequest) (*models.Course, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, invalid("topic title is required")
	}

	return s.editTopics(ctx, userID, courseID, func(c *models.Course) error {
		topic := models.Topic{ID: newID(req.ID), Title: title}
		if c.FindTopic(topic.ID) >= 0 {
			return invalid("topic %s already exists", topic.ID)
		}
		c.Topics = append(c.Topics, topic)
		return nil
	})
}

func (s *courseService) RemoveTopic(ctx context.Context, userID, courseID, topicID string) (*models.Course, error) {
	return s.editTopics(ctx, userID, courseID, func(c *models.Course) error {
		i := c.FindTopic(topicID)
		if i < 0 {
			return notFound("topic", topicID)
		}
		c.Topics = append(c.Topics[:i], c.Topics[i+1:]...)
		return nil
	})
}

func (s *courseService) SetTopicDone(ctx context.Context, userID, courseID, topicID string, done bool) (*models.TopicToggleResponse, error) {
	var before bool

	course, err := s.editTopics(ctx, userID, courseID, func(c *models.Course) error {
		i := c.FindTopic(topicID)
		if i < 0 {
			return notFound("topic", topicID)
		}
		before = c.Topics[i].Done
		c.Topics[i].Done = done
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp := &models.TopicToggleResponse{
		Course:    *course,
		Completed: tracker.IsCompletion(before, done),
	}
	if !resp.Completed {
		return resp, nil
	}

	streak, err := s.profiles.RecordActivity(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).
			Str("user_id", userID).
			Str("course_id", courseID).
			Str("topic_id", topicID).
			Msg("Failed to record activity for completed topic")
		resp.StreakError = err.Error()
		return resp, nil
	}

	resp.Streak = &streak
	return resp, nil
}

// editTopics runs a read-modify-write of one course's topics under the
// course lock and publishes the result.
func (s *courseService) editTopics(ctx context.Context, userID, courseID string, edit func(*models.Course) error) (*models.Course, error) {
	unlock := s.locks.Lock(userID + "/" + courseID)
	defer unlock()

	course, err := s.get(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}

	updated := course.Clone()
	if err := edit(&updated); err != nil {
		return nil, err
	}

	if err := s.courseRepo.UpdateTopics(ctx, userID, courseID, updated.Topics); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound("course", courseID)
		}
		return nil, fmt.Errorf("failed to update topics: %w", err)
	}

	s.logger.Debug().
		Str("user_id", userID).
		Str("course_id", courseID).
		Int("topics", len(updated.Topics)).
		Msg("Course topics updated")

	s.notifier.upsert(ctx, userID, models.CollectionCourses, courseID, updated)

	return &updated, nil
}

func (s *courseService) get(ctx context.Context, userID, id string) (*models.Course, error) {
	course, err := s.courseRepo.Get(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get course: %w", err)
	}
	if course == nil {
		return nil, notFound("course", id)
	}
	return course, nil
}
