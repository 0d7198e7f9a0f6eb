package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/p-chth/KaoDuenMate-VER2/internal/models"
	"github.com/p-chth/KaoDuenMate-VER2/internal/repository"
	"github.com/p-chth/KaoDuenMate-VER2/internal/service/tracker"
	"github.com/p-chth/KaoDuenMate-VER2/pkg/dates"
)

// DashboardOptions tunes the home screen.
type DashboardOptions struct {
	// UpcomingLimit caps the deadlines shown after the nearest one.
	UpcomingLimit int
	// CountAppOpen makes opening the home screen a qualifying activity.
	CountAppOpen bool
}

// DashboardService serves the read-only views derived by the tracker.
type DashboardService interface {
	Home(ctx context.Context, userID string) (*models.HomeDashboard, error)
	Deadlines(ctx context.Context, userID string) ([]models.Deadline, error)
	Week(ctx context.Context, userID string) ([]models.DayBucket, error)
	Calendar(ctx context.Context, userID string) (map[string][]models.CalendarEvent, error)
	Progress(ctx context.Context, userID string) (*models.ProgressResponse, error)
	Stats(ctx context.Context, userID string) (*models.ProfileStats, error)
	Snapshot(ctx context.Context, userID string) (*models.Snapshot, error)
}

type dashboardService struct {
	store    *repository.Store
	profiles ProfileService
	clock    dates.Clock
	opts     DashboardOptions
	logger   zerolog.Logger
}

func NewDashboardService(store *repository.Store, profiles ProfileService, clock dates.Clock, opts DashboardOptions, logger zerolog.Logger) DashboardService {
	return &dashboardService{
		store:    store,
		profiles: profiles,
		clock:    clock,
		opts:     opts,
		logger:   logger,
	}
}

// userData is everything one user owns. Which fields get loaded depends on
// the view.
type userData struct {
	profile     *models.UserProfile
	assignments []models.Assignment
	exams       []models.Exam
	courses     []models.Course
}

type loadSet struct {
	profile, assignments, exams, courses bool
}

func (s *dashboardService) load(ctx context.Context, userID string, want loadSet) (*userData, error) {
	var data userData
	g, ctx := errgroup.WithContext(ctx)

	if want.profile {
		g.Go(func() error {
			p, err := s.profiles.GetProfile(ctx, userID)
			data.profile = p
			return err
		})
	}
	if want.assignments {
		g.Go(func() error {
			a, err := s.store.Assignments.GetAll(ctx, userID)
			if err != nil {
				return fmt.Errorf("failed to get assignments: %w", err)
			}
			data.assignments = a
			return nil
		})
	}
	if want.exams {
		g.Go(func() error {
			e, err := s.store.Exams.GetAll(ctx, userID)
			if err != nil {
				return fmt.Errorf("failed to get exams: %w", err)
			}
			data.exams = e
			return nil
		})
	}
	if want.courses {
		g.Go(func() error {
			c, err := s.store.Courses.GetAll(ctx, userID)
			if err != nil {
				return fmt.Errorf("failed to get courses: %w", err)
			}
			data.courses = c
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &data, nil
}

func (s *dashboardService) Home(ctx context.Context, userID string) (*models.HomeDashboard, error) {
	if s.opts.CountAppOpen {
		if _, err := s.profiles.RecordActivity(ctx, userID); err != nil {
			s.logger.Error().Err(err).
				Str("user_id", userID).
				Msg("Failed to record app open")
		}
	}

	data, err := s.load(ctx, userID, loadSet{profile: true, assignments: true, exams: true, courses: true})
	if err != nil {
		return nil, err
	}

	today := s.clock.Today()
	upcoming := tracker.UpcomingDeadlines(data.assignments, data.exams, today)
	nearest, rest := tracker.SplitNearest(upcoming, s.opts.UpcomingLimit)

	return &models.HomeDashboard{
		Today:          dates.Format(today),
		Streak:         data.profile.Streak,
		Nearest:        nearest,
		Upcoming:       rest,
		TodayTasks:     tracker.DueOn(data.assignments, today),
		CourseProgress: tracker.CourseSummaries(data.courses),
	}, nil
}

func (s *dashboardService) Deadlines(ctx context.Context, userID string) ([]models.Deadline, error) {
	data, err := s.load(ctx, userID, loadSet{assignments: true, exams: true})
	if err != nil {
		return nil, err
	}
	return tracker.UpcomingDeadlines(data.assignments, data.exams, s.clock.Today()), nil
}

func (s *dashboardService) Week(ctx context.Context, userID string) ([]models.DayBucket, error) {
	data, err := s.load(ctx, userID, loadSet{assignments: true, exams: true})
	if err != nil {
		return nil, err
	}
	return tracker.BucketByNext7Days(data.assignments, data.exams, s.clock.Today()), nil
}

func (s *dashboardService) Calendar(ctx context.Context, userID string) (map[string][]models.CalendarEvent, error) {
	data, err := s.load(ctx, userID, loadSet{assignments: true, exams: true})
	if err != nil {
		return nil, err
	}
	return tracker.EventsByDate(data.assignments, data.exams), nil
}

func (s *dashboardService) Progress(ctx context.Context, userID string) (*models.ProgressResponse, error) {
	data, err := s.load(ctx, userID, loadSet{courses: true})
	if err != nil {
		return nil, err
	}

	overall := tracker.OverallProgress(data.courses)
	return &models.ProgressResponse{
		Courses:         tracker.CourseSummaries(data.courses),
		OverallProgress: overall,
		OverallPercent:  tracker.Percent(overall),
	}, nil
}

func (s *dashboardService) Stats(ctx context.Context, userID string) (*models.ProfileStats, error) {
	data, err := s.load(ctx, userID, loadSet{profile: true, assignments: true, exams: true, courses: true})
	if err != nil {
		return nil, err
	}

	today := s.clock.Today()
	overall := tracker.OverallProgress(data.courses)
	stats := &models.ProfileStats{
		Today:           dates.Format(today),
		Streak:          data.profile.Streak,
		AssignmentsLeft: len(data.assignments),
		OverallProgress: overall,
		OverallPercent:  tracker.Percent(overall),
	}

	if days, ok := tracker.DDay(data.assignments, data.exams, today); ok {
		stats.DDay = &days
	}

	return stats, nil
}

func (s *dashboardService) Snapshot(ctx context.Context, userID string) (*models.Snapshot, error) {
	data, err := s.load(ctx, userID, loadSet{profile: true, assignments: true, exams: true, courses: true})
	if err != nil {
		return nil, err
	}

	return &models.Snapshot{
		Profile:     *data.profile,
		Assignments: data.assignments,
		Exams:       data.exams,
		Courses:     data.courses,
	}, nil
}
