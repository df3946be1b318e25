package postgres

import (
	"context"
	"database/sql"
	"time"

	"meetingscheduler/internal/domain"
)

type activityRepository struct {
	DB *sql.DB
}

// NewActivityRepository stores one row per recorded activity.
func NewActivityRepository(db *sql.DB) domain.ActivityRepository {
	return &activityRepository{DB: db}
}

func (r *activityRepository) Record(ctx context.Context, kind domain.ActivityKind, at time.Time) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO activity (kind, occurred_at) VALUES ($1, $2)`, string(kind), at)
	return err
}

func (r *activityRepository) CountSince(ctx context.Context, kind domain.ActivityKind, since time.Time) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM activity WHERE kind = $1 AND occurred_at >= $2`, string(kind), since).Scan(&n)
	return n, err
}
