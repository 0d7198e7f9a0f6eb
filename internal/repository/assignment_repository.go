package repository

import (
	"context"
	"database/sql"

	"github.com/rs/zerolog"

	"github.com/p-chth/KaoDuenMate-VER2/internal/models"
)

type assignmentRepository struct {
	*PostgresRepository
}

func NewAssignmentRepository(db *sql.DB, logger zerolog.Logger) AssignmentRepository {
	return &assignmentRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

func (r *assignmentRepository) GetAll(ctx context.Context, userID string) ([]models.Assignment, error) {
	query := `
		SELECT id, name, due_date
		FROM assignments
		WHERE user_id = $1
		ORDER BY created_at, id
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	assignments := make([]models.Assignment, 0)
	for rows.Next() {
		var a models.Assignment
		if err := rows.Scan(&a.ID, &a.Name, &a.DueDate); err != nil {
			return nil, err
		}
		assignments = append(assignments, a)
	}

	return assignments, rows.Err()
}

func (r *assignmentRepository) Get(ctx context.Context, userID, id string) (*models.Assignment, error) {
	query := `
		SELECT id, name, due_date
		FROM assignments
		WHERE user_id = $1 AND id = $2
	`

	a := &models.Assignment{}
	err := r.db.QueryRowContext(ctx, query, userID, id).Scan(&a.ID, &a.Name, &a.DueDate)
	if err == sql.ErrNoRows {
		return nil, nil
	}

	return a, err
}

func (r *assignmentRepository) Set(ctx context.Context, userID string, a *models.Assignment) error {
	query := `
		INSERT INTO assignments (user_id, id, name, due_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		ON CONFLICT (user_id, id) DO UPDATE SET
			name = EXCLUDED.name,
			due_date = EXCLUDED.due_date,
			updated_at = NOW()
	`

	_, err := r.db.ExecContext(ctx, query, userID, a.ID, a.Name, a.DueDate)
	return err
}

func (r *assignmentRepository) Delete(ctx context.Context, userID, id string) error {
	query := `DELETE FROM assignments WHERE user_id = $1 AND id = $2`

	res, err := r.db.ExecContext(ctx, query, userID, id)
	if err != nil {
		return err
	}
	return expectOne(res)
}
