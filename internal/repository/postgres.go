package repository

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
)

type PostgresRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewPostgresRepository(db *sql.DB, logger zerolog.Logger) *PostgresRepository {
	return &PostgresRepository{
		db:     db,
		logger: logger,
	}
}

// NewPostgresStore wires every collection to the same connection pool.
func NewPostgresStore(db *sql.DB, logger zerolog.Logger) *Store {
	return &Store{
		Assignments: NewAssignmentRepository(db, logger),
		Exams:       NewExamRepository(db, logger),
		Courses:     NewCourseRepository(db, logger),
		Profiles:    NewProfileRepository(db, logger),
	}
}

func (r *PostgresRepository) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return r.db.PingContext(ctx)
}

// expectOne turns a zero-row write into ErrNotFound.
func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
