package repository

import (
	"context"
	"database/sql"

	"github.com/rs/zerolog"

	"github.com/p-chth/KaoDuenMate-VER2/internal/models"
)

type examRepository struct {
	*PostgresRepository
}

func NewExamRepository(db *sql.DB, logger zerolog.Logger) ExamRepository {
	return &examRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

func (r *examRepository) GetAll(ctx context.Context, userID string) ([]models.Exam, error) {
	query := `
		SELECT id, course_name, exam_date
		FROM exams
		WHERE user_id = $1
		ORDER BY created_at, id
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	exams := make([]models.Exam, 0)
	for rows.Next() {
		var e models.Exam
		if err := rows.Scan(&e.ID, &e.CourseName, &e.ExamDate); err != nil {
			return nil, err
		}
		exams = append(exams, e)
	}

	return exams, rows.Err()
}

func (r *examRepository) Get(ctx context.Context, userID, id string) (*models.Exam, error) {
	query := `
		SELECT id, course_name, exam_date
		FROM exams
		WHERE user_id = $1 AND id = $2
	`

	e := &models.Exam{}
	err := r.db.QueryRowContext(ctx, query, userID, id).Scan(&e.ID, &e.CourseName, &e.ExamDate)
	if err == sql.ErrNoRows {
		return nil, nil
	}

	return e, err
}

func (r *examRepository) Set(ctx context.Context, userID string, e *models.Exam) error {
	query := `
		INSERT INTO exams (user_id, id, course_name, exam_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		ON CONFLICT (user_id, id) DO UPDATE SET
			course_name = EXCLUDED.course_name,
			exam_date = EXCLUDED.exam_date,
			updated_at = NOW()
	`

	_, err := r.db.ExecContext(ctx, query, userID, e.ID, e.CourseName, e.ExamDate)
	return err
}

func (r *examRepository) Delete(ctx context.Context, userID, id string) error {
	query := `DELETE FROM exams WHERE user_id = $1 AND id = $2`

	res, err := r.db.ExecContext(ctx, query, userID, id)
	if err != nil {
		return err
	}
	return expectOne(res)
}
