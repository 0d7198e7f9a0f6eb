package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/p-chth/KaoDuenMate-VER2/internal/feed"
	"github.com/p-chth/KaoDuenMate-VER2/internal/models"
	"github.com/p-chth/KaoDuenMate-VER2/internal/repository"
	"github.com/p-chth/KaoDuenMate-VER2/internal/service/tracker"
	"github.com/p-chth/KaoDuenMate-VER2/pkg/dates"
)

var studentIDPattern = regexp.MustCompile(`^[0-9]{10}$`)

type ProfileService interface {
	// GetProfile returns the stored profile after passive streak decay. A
	// user without a profile gets a zero-valued one.
	GetProfile(ctx context.Context, userID string) (*models.UserProfile, error)
	CreateProfile(ctx context.Context, userID string, req *models.CreateProfileRequest) (*models.UserProfile, error)
	UpdateProfile(ctx context.Context, userID string, req *models.UpdateProfileRequest) (*models.UserProfile, error)
	// RecordActivity counts a qualifying activity for today. Calling it
	// again on the same day leaves the streak unchanged.
	RecordActivity(ctx context.Context, userID string) (models.StreakState, error)
}

type profileService struct {
	profileRepo repository.ProfileRepository
	clock       dates.Clock
	locks       *keyedMutex
	notifier    notifier
	logger      zerolog.Logger
}

func NewProfileService(profileRepo repository.ProfileRepository, clock dates.Clock, publisher feed.Publisher, logger zerolog.Logger) ProfileService {
	return &profileService{
		profileRepo: profileRepo,
		clock:       clock,
		locks:       newKeyedMutex(),
		notifier:    notifier{publisher: publisher, logger: logger},
		logger:      logger,
	}
}

func (s *profileService) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	profile, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	current := profile.StreakState()
	next, changed := tracker.CheckAndReset(current, s.clock.Today())
	if !changed {
		return profile, nil
	}

	ok, err := s.profileRepo.UpdateStreak(ctx, userID, current.LastStreakUpdate, next)
	if err != nil {
		return nil, fmt.Errorf("failed to reset streak: %w", err)
	}
	if !ok {
		// another process wrote first; its version wins
		return s.load(ctx, userID)
	}

	updated := profile.WithStreak(next)

	s.logger.Info().
		Str("user_id", userID).
		Int("previous_streak", current.Streak).
		Msg("Streak reset after inactivity")

	s.notifier.upsert(ctx, userID, models.CollectionProfile, userID, updated)

	return &updated, nil
}

func (s *profileService) RecordActivity(ctx context.Context, userID string) (models.StreakState, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	profile, err := s.load(ctx, userID)
	if err != nil {
		return models.StreakState{}, err
	}

	current := profile.StreakState()
	next, changed := tracker.RecordActivity(current, s.clock.Today())
	if !changed {
		return current, nil
	}

	ok, err := s.profileRepo.UpdateStreak(ctx, userID, current.LastStreakUpdate, next)
	if err != nil {
		return models.StreakState{}, fmt.Errorf("failed to update streak: %w", err)
	}
	if !ok {
		stored, err := s.load(ctx, userID)
		if err != nil {
			return models.StreakState{}, err
		}
		s.logger.Debug().
			Str("user_id", userID).
			Msg("Streak already advanced by another writer")
		return stored.StreakState(), nil
	}

	s.logger.Info().
		Str("user_id", userID).
		Int("streak", next.Streak).
		Msg("Activity recorded")

	s.notifier.upsert(ctx, userID, models.CollectionProfile, userID, profile.WithStreak(next))

	return next, nil
}

func (s *profileService) CreateProfile(ctx context.Context, userID string, req *models.CreateProfileRequest) (*models.UserProfile, error) {
	fields := map[string]string{
		"title":     strings.TrimSpace(req.Title),
		"firstName": strings.TrimSpace(req.FirstName),
		"lastName":  strings.TrimSpace(req.LastName),
		"studentId": strings.TrimSpace(req.StudentID),
		"email":     strings.TrimSpace(req.Email),
	}
	if err := validateProfileFields(fields, true); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(userID)
	defer unlock()

	existing, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	profile := *existing
	profile.Title = fields["title"]
	profile.FirstName = fields["firstName"]
	profile.LastName = fields["lastName"]
	profile.StudentID = fields["studentId"]
	profile.Email = fields["email"]

	if err := s.profileRepo.Set(ctx, &profile); err != nil {
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}

	s.logger.Info().
		Str("user_id", userID).
		Str("student_id", profile.StudentID).
		Msg("Profile created")

	s.notifier.upsert(ctx, userID, models.CollectionProfile, userID, profile)

	return &profile, nil
}

func (s *profileService) UpdateProfile(ctx context.Context, userID string, req *models.UpdateProfileRequest) (*models.UserProfile, error) {
	fields := req.Fields()
	for k, v := range fields {
		fields[k] = strings.TrimSpace(v)
	}
	if len(fields) == 0 {
		return nil, invalid("no fields to update")
	}
	if err := validateProfileFields(fields, false); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(userID)
	defer unlock()

	if err := s.profileRepo.UpdateFields(ctx, userID, fields); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound("profile", userID)
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	profile, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("user_id", userID).
		Int("fields", len(fields)).
		Msg("Profile updated")

	s.notifier.upsert(ctx, userID, models.CollectionProfile, userID, profile)

	return profile, nil
}

// load never returns a nil profile.
func (s *profileService) load(ctx context.Context, userID string) (*models.UserProfile, error) {
	profile, err := s.profileRepo.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	if profile == nil {
		return &models.UserProfile{UserID: userID}, nil
	}
	profile.UserID = userID
	return profile, nil
}

// validateProfileFields checks that present fields are non-empty and that a
// student ID is exactly ten digits. With all set, every field is required.
func validateProfileFields(fields map[string]string, all bool) error {
	required := []string{"title", "firstName", "lastName", "studentId", "email"}
	for _, k := range required {
		v, ok := fields[k]
		if !ok && !all {
			continue
		}
		if v == "" {
			return invalid("%s is required", k)
		}
	}

	if id, ok := fields["studentId"]; ok && !studentIDPattern.MatchString(id) {
		return invalid("studentId must be exactly 10 digits")
	}

	return nil
}
