package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/p-chth/KaoDuenMate-VER2/internal/models"
)

type profileRepository struct {
	*PostgresRepository
}

func NewProfileRepository(db *sql.DB, logger zerolog.Logger) ProfileRepository {
	return &profileRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

func (r *profileRepository) Get(ctx context.Context, userID string) (*models.UserProfile, error) {
	query := `
		SELECT uid, title, first_name, last_name, student_id, email,
		       streak, last_active_date, last_streak_update
		FROM users
		WHERE uid = $1
	`

	p := &models.UserProfile{}
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&p.UserID, &p.Title, &p.FirstName, &p.LastName, &p.StudentID, &p.Email,
		&p.Streak, &p.LastActiveDate, &p.LastStreakUpdate,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}

	return p, err
}

func (r *profileRepository) Set(ctx context.Context, p *models.UserProfile) error {
	query := `
		INSERT INTO users (uid, title, first_name, last_name, student_id, email,
		                   streak, last_active_date, last_streak_update, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
		ON CONFLICT (uid) DO UPDATE SET
			title = EXCLUDED.title,
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			student_id = EXCLUDED.student_id,
			email = EXCLUDED.email,
			streak = EXCLUDED.streak,
			last_active_date = EXCLUDED.last_active_date,
			last_streak_update = EXCLUDED.last_streak_update,
			updated_at = NOW()
	`

	_, err := r.db.ExecContext(ctx, query,
		p.UserID, p.Title, p.FirstName, p.LastName, p.StudentID, p.Email,
		p.Streak, p.LastActiveDate, p.LastStreakUpdate,
	)
	return err
}

func (r *profileRepository) UpdateFields(ctx context.Context, userID string, fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		if _, ok := profileColumns[k]; !ok {
			return fmt.Errorf("unknown profile field %q", k)
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	sets := make([]string, 0, len(keys)+1)
	args := make([]interface{}, 0, len(keys)+1)
	for i, k := range keys {
		sets = append(sets, fmt.Sprintf("%s = $%d", profileColumns[k], i+1))
		args = append(args, fields[k])
	}
	sets = append(sets, "updated_at = NOW()")
	args = append(args, userID)

	query := fmt.Sprintf(`UPDATE users SET %s WHERE uid = $%d`, strings.Join(sets, ", "), len(args))

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	return expectOne(res)
}

func (r *profileRepository) UpdateStreak(ctx context.Context, userID, expected string, s models.StreakState) (bool, error) {
	query := `
		INSERT INTO users (uid, streak, last_active_date, last_streak_update, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		ON CONFLICT (uid) DO UPDATE SET
			streak = EXCLUDED.streak,
			last_active_date = EXCLUDED.last_active_date,
			last_streak_update = EXCLUDED.last_streak_update,
			updated_at = NOW()
		WHERE users.last_streak_update = $5
	`

	res, err := r.db.ExecContext(ctx, query, userID, s.Streak, s.LastActiveDate, s.LastStreakUpdate, expected)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		r.logger.Debug().
			Str("user_id", userID).
			Str("expected", expected).
			Msg("Streak update lost to a concurrent writer")
	}

	return n > 0, nil
}
