package feed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/p-chth/KaoDuenMate-VER2/internal/models"
)

func TestAssignmentsState_Apply(t *testing.T) {
	initial := AssignmentsState{{ID: "a1", Name: "HW1", DueDate: "2025-05-20"}}

	added, err := initial.Apply(mustEvent(t, "u1", models.CollectionAssignments, models.OpUpsert, "a2",
		models.Assignment{ID: "a2", Name: "HW2", DueDate: "2025-05-21"}))
	require.NoError(t, err)
	assert.Len(t, added, 2)
	assert.Len(t, initial, 1)

	replaced, err := added.Apply(mustEvent(t, "u1", models.CollectionAssignments, models.OpUpsert, "a1",
		models.Assignment{ID: "a1", Name: "HW1 v2", DueDate: "2025-05-22"}))
	require.NoError(t, err)
	assert.Equal(t, "HW1 v2", replaced[0].Name)
	assert.Equal(t, "HW1", added[0].Name)

	removed, err := replaced.Apply(mustEvent(t, "u1", models.CollectionAssignments, models.OpDelete, "a1", nil))
	require.NoError(t, err)
	require.Len(t, removed, 1)
	assert.Equal(t, "a2", removed[0].ID)
	assert.Len(t, replaced, 2)
}

func TestAssignmentsState_IgnoresOtherCollections(t *testing.T) {
	s := AssignmentsState{{ID: "a1"}}
	next, err := s.Apply(mustEvent(t, "u1", models.CollectionExams, models.OpDelete, "a1", nil))
	require.NoError(t, err)
	assert.Equal(t, s, next)
}

func TestExamsState_Apply(t *testing.T) {
	var s ExamsState
	next, err := s.Apply(mustEvent(t, "u1", models.CollectionExams, models.OpUpsert, "e1",
		models.Exam{ID: "e1", CourseName: "Chem", ExamDate: "2025-06-01"}))
	require.NoError(t, err)
	require.Len(t, next, 1)
	assert.Equal(t, "Chem", next[0].CourseName)
	assert.Nil(t, s)
}

func TestCoursesState_DoesNotShareTopics(t *testing.T) {
	s := CoursesState{{ID: "c1", Title: "Math", Topics: []models.Topic{{ID: "t1"}}}}

	next, err := s.Apply(mustEvent(t, "u1", models.CollectionCourses, models.OpUpsert, "c2",
		models.Course{ID: "c2", Title: "Bio"}))
	require.NoError(t, err)

	next[0].Topics[0].Done = true
	assert.False(t, s[0].Topics[0].Done)
}

func TestProfileState_Apply(t *testing.T) {
	var s ProfileState
	next, err := s.Apply(mustEvent(t, "u1", models.CollectionProfile, models.OpUpsert, "u1",
		models.UserProfile{FirstName: "Ann", Streak: 3}))
	require.NoError(t, err)
	assert.True(t, next.Exists)
	assert.Equal(t, "u1", next.Profile.UserID)
	assert.Equal(t, 3, next.Profile.Streak)
	assert.False(t, s.Exists)

	cleared, err := next.Apply(mustEvent(t, "u1", models.CollectionProfile, models.OpDelete, "u1", nil))
	require.NoError(t, err)
	assert.False(t, cleared.Exists)
	assert.Zero(t, cleared.Profile.Streak)
}

func TestApply_Errors(t *testing.T) {
	s := AssignmentsState{{ID: "a1"}}

	_, err := s.Apply(models.ChangeEvent{Collection: models.CollectionAssignments, Op: models.OpUpsert, DocID: "a1", Document: []byte("{")})
	assert.Error(t, err)

	_, err = s.Apply(models.ChangeEvent{Collection: models.CollectionAssignments, Op: "merge", DocID: "a1"})
	assert.Error(t, err)

	_, err = ProfileState{}.Apply(models.ChangeEvent{Collection: models.CollectionProfile, Op: "merge"})
	assert.Error(t, err)
}
