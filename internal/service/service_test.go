package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/p-chth/KaoDuenMate-VER2/internal/feed"
	"github.com/p-chth/KaoDuenMate-VER2/internal/models"
	"github.com/p-chth/KaoDuenMate-VER2/internal/repository"
	"github.com/p-chth/KaoDuenMate-VER2/pkg/dates"
)

const uid = "user-1"

var today = dates.MustParse("2025-05-18")

// fixture wires every service over an in-memory store.
type fixture struct {
	store       *repository.Store
	clock       *dates.FixedClock
	hub         *feed.Hub
	profiles    ProfileService
	assignments AssignmentService
	exams       ExamService
	courses     CourseService
	dashboard   DashboardService
}

func newFixture(opts DashboardOptions) *fixture {
	log := zerolog.Nop()
	store := repository.NewMemoryStore()
	clock := &dates.FixedClock{Day: today}
	hub := feed.NewHub(64, log)

	profiles := NewProfileService(store.Profiles, clock, hub, log)
	return &fixture{
		store:       store,
		clock:       clock,
		hub:         hub,
		profiles:    profiles,
		assignments: NewAssignmentService(store.Assignments, profiles, hub, log),
		exams:       NewExamService(store.Exams, hub, log),
		courses:     NewCourseService(store.Courses, profiles, hub, log),
		dashboard:   NewDashboardService(store, profiles, clock, opts, log),
	}
}

func (f *fixture) advance(days int) {
	f.clock.Day = dates.AddDays(f.clock.Day, days)
}

// drain collects what is already buffered on a subscription.
func drain(sub *feed.Subscription) []models.ChangeEvent {
	var out []models.ChangeEvent
	for {
		select {
		case ev := <-sub.Events():
			out = append(out, ev)
		case <-time.After(20 * time.Millisecond):
			return out
		}
	}
}

var errStoreDown = errors.New("store down")

// brokenProfiles fails every streak write.
type brokenProfiles struct {
	repository.ProfileRepository
}

func (brokenProfiles) UpdateStreak(context.Context, string, string, models.StreakState) (bool, error) {
	return false, errStoreDown
}

// racingProfiles lets a competing writer land right before our CAS.
type racingProfiles struct {
	repository.ProfileRepository
	competitor models.StreakState
	fired      bool
}

func (r *racingProfiles) UpdateStreak(ctx context.Context, userID, expected string, s models.StreakState) (bool, error) {
	if !r.fired {
		r.fired = true
		if _, err := r.ProfileRepository.UpdateStreak(ctx, userID, expected, r.competitor); err != nil {
			return false, err
		}
	}
	return r.ProfileRepository.UpdateStreak(ctx, userID, expected, s)
}
