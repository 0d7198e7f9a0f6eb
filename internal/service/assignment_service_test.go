package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/p-chth/KaoDuenMate-VER2/internal/models"
)

func TestCreateAssignment(t *testing.T) {
	ctx := context.Background()
	f := newFixture(DashboardOptions{})
	sub := f.hub.Subscribe(uid, models.CollectionAssignments)
	defer sub.Close()

	a, err := f.assignments.CreateAssignment(ctx, uid, &models.CreateAssignmentRequest{Name: "Lab 1", DueDate: " 2025-05-20 "})
	require.NoError(t, err)
	assert.NotEmpty(t, a.ID)
	assert.Equal(t, "2025-05-20", a.DueDate)

	withID, err := f.assignments.CreateAssignment(ctx, uid, &models.CreateAssignmentRequest{ID: "1715000000000", DueDate: "2025-05-21"})
	require.NoError(t, err)
	assert.Equal(t, "1715000000000", withID.ID)

	list, err := f.assignments.GetAssignments(ctx, uid)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	events := drain(sub)
	require.Len(t, events, 2)
	assert.Equal(t, models.OpUpsert, events[0].Op)
	assert.Equal(t, a.ID, events[0].DocID)
}

func TestCreateAssignment_RejectsBadDate(t *testing.T) {
	f := newFixture(DashboardOptions{})

	for _, due := range []string{"", "tomorrow", "2025-13-01", "18/05/2025"} {
		_, err := f.assignments.CreateAssignment(context.Background(), uid, &models.CreateAssignmentRequest{Name: "x", DueDate: due})
		assert.ErrorIs(t, err, ErrInvalidInput, due)
	}
}

func TestDeleteAssignment(t *testing.T) {
	ctx := context.Background()
	f := newFixture(DashboardOptions{})

	assert.ErrorIs(t, f.assignments.DeleteAssignment(ctx, uid, "nope"), ErrNotFound)

	a, err := f.assignments.CreateAssignment(ctx, uid, &models.CreateAssignmentRequest{DueDate: "2025-05-20"})
	require.NoError(t, err)
	require.NoError(t, f.assignments.DeleteAssignment(ctx, uid, a.ID))

	list, err := f.assignments.GetAssignments(ctx, uid)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestFinishAssignment_RecordsActivity(t *testing.T) {
	ctx := context.Background()
	f := newFixture(DashboardOptions{})

	a, err := f.assignments.CreateAssignment(ctx, uid, &models.CreateAssignmentRequest{DueDate: "2025-05-20"})
	require.NoError(t, err)

	resp, err := f.assignments.FinishAssignment(ctx, uid, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, resp.AssignmentID)
	require.NotNil(t, resp.Streak)
	assert.Equal(t, 1, resp.Streak.Streak)
	assert.Empty(t, resp.StreakError)

	_, err = f.assignments.FinishAssignment(ctx, uid, a.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFinishAssignment_StreakFailureIsNotFatal(t *testing.T) {
	ctx := context.Background()
	f := newFixture(DashboardOptions{})
	profiles := NewProfileService(brokenProfiles{f.store.Profiles}, f.clock, nil, zerolog.Nop())
	assignments := NewAssignmentService(f.store.Assignments, profiles, nil, zerolog.Nop())

	a, err := assignments.CreateAssignment(ctx, uid, &models.CreateAssignmentRequest{DueDate: "2025-05-20"})
	require.NoError(t, err)

	resp, err := assignments.FinishAssignment(ctx, uid, a.ID)
	require.NoError(t, err)
	assert.Nil(t, resp.Streak)
	assert.Contains(t, resp.StreakError, "store down")

	left, err := assignments.GetAssignments(ctx, uid)
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestExamService(t *testing.T) {
	ctx := context.Background()
	f := newFixture(DashboardOptions{})

	e, err := f.exams.CreateExam(ctx, uid, &models.CreateExamRequest{CourseName: "Physics", ExamDate: "2025-06-01"})
	require.NoError(t, err)

	_, err = f.exams.CreateExam(ctx, uid, &models.CreateExamRequest{CourseName: "Bad", ExamDate: "June"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	list, err := f.exams.GetExams(ctx, uid)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Physics", list[0].CourseName)

	require.NoError(t, f.exams.DeleteExam(ctx, uid, e.ID))
	assert.ErrorIs(t, f.exams.DeleteExam(ctx, uid, e.ID), ErrNotFound)
}
