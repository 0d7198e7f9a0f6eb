package tracker

import (
	"math"

	"github.com/p-chth/KaoDuenMate-VER2/internal/models"
)

const untitledCourse = "Untitled"

// CourseProgress is the share of done topics, 0 for a course without topics.
func CourseProgress(course models.Course) float64 {
	return ratio(countDone(course.Topics), len(course.Topics))
}

// OverallProgress is the share of done topics across every course.
func OverallProgress(courses []models.Course) float64 {
	done, total := 0, 0
	for _, c := range courses {
		done += countDone(c.Topics)
		total += len(c.Topics)
	}
	return ratio(done, total)
}

// Percent rounds a ratio in [0,1] to a whole percentage.
func Percent(r float64) int {
	return int(math.Round(r * 100))
}

func CourseSummaries(courses []models.Course) []models.CourseProgress {
	out := make([]models.CourseProgress, 0, len(courses))
	for _, c := range courses {
		p := CourseProgress(c)
		out = append(out, models.CourseProgress{
			ID:       c.ID,
			Name:     orDefault(c.Title, untitledCourse),
			Progress: p,
			Percent:  Percent(p),
			Done:     countDone(c.Topics),
			Total:    len(c.Topics),
		})
	}
	return out
}

// IsCompletion reports a topic transition that counts as streak activity.
// Only false -> true qualifies.
func IsCompletion(before, after bool) bool {
	return !before && after
}

func countDone(topics []models.Topic) int {
	n := 0
	for _, t := range topics {
		if t.Done {
			n++
		}
	}
	return n
}

func ratio(done, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(done) / float64(total)
}
