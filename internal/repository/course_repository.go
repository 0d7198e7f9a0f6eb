package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/p-chth/KaoDuenMate-VER2/internal/models"
)

type courseRepository struct {
	*PostgresRepository
}

func NewCourseRepository(db *sql.DB, logger zerolog.Logger) CourseRepository {
	return &courseRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

func (r *courseRepository) GetAll(ctx context.Context, userID string) ([]models.Course, error) {
	query := `
		SELECT id, title, topics
		FROM courses
		WHERE user_id = $1
		ORDER BY created_at, id
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	courses := make([]models.Course, 0)
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		courses = append(courses, *c)
	}

	return courses, rows.Err()
}

func (r *courseRepository) Get(ctx context.Context, userID, id string) (*models.Course, error) {
	query := `
		SELECT id, title, topics
		FROM courses
		WHERE user_id = $1 AND id = $2
	`

	c, err := scanCourse(r.db.QueryRowContext(ctx, query, userID, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}

	return c, err
}

func (r *courseRepository) Set(ctx context.Context, userID string, c *models.Course) error {
	topics, err := encodeTopics(c.Topics)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO courses (user_id, id, title, topics, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		ON CONFLICT (user_id, id) DO UPDATE SET
			title = EXCLUDED.title,
			topics = EXCLUDED.topics,
			updated_at = NOW()
	`

	_, err = r.db.ExecContext(ctx, query, userID, c.ID, c.Title, topics)
	return err
}

func (r *courseRepository) UpdateTitle(ctx context.Context, userID, id, title string) error {
	query := `
		UPDATE courses
		SET title = $1, updated_at = NOW()
		WHERE user_id = $2 AND id = $3
	`

	res, err := r.db.ExecContext(ctx, query, title, userID, id)
	if err != nil {
		return err
	}
	return expectOne(res)
}

func (r *courseRepository) UpdateTopics(ctx context.Context, userID, id string, topics []models.Topic) error {
	encoded, err := encodeTopics(topics)
	if err != nil {
		return err
	}

	query := `
		UPDATE courses
		SET topics = $1, updated_at = NOW()
		WHERE user_id = $2 AND id = $3
	`

	res, err := r.db.ExecContext(ctx, query, encoded, userID, id)
	if err != nil {
		return err
	}
	return expectOne(res)
}

func (r *courseRepository) Delete(ctx context.Context, userID, id string) error {
	query := `DELETE FROM courses WHERE user_id = $1 AND id = $2`

	res, err := r.db.ExecContext(ctx, query, userID, id)
	if err != nil {
		return err
	}
	return expectOne(res)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCourse(row rowScanner) (*models.Course, error) {
	var (
		c   models.Course
		raw []byte
	)
	if err := row.Scan(&c.ID, &c.Title, &raw); err != nil {
		return nil, err
	}

	c.Topics = make([]models.Topic, 0)
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &c.Topics); err != nil {
			return nil, fmt.Errorf("failed to decode topics of course %s: %w", c.ID, err)
		}
	}

	return &c, nil
}

func encodeTopics(topics []models.Topic) ([]byte, error) {
	if topics == nil {
		topics = []models.Topic{}
	}
	b, err := json.Marshal(topics)
	if err != nil {
		return nil, fmt.Errorf("failed to encode topics: %w", err)
	}
	return b, nil
}
