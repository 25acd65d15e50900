package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type CalendarRepository interface {
	ReplaceForCabin(ctx context.Context, cabinID int64, source string, dates []time.Time, syncedAt time.Time) error
	ListDates(ctx context.Context, cabinID int64) ([]time.Time, error)
	HasBlockedInRange(ctx context.Context, cabinID int64, start, end time.Time) (bool, error)
}

type calendarRepository struct {
	pool *pgxpool.Pool
}

func NewCalendarRepository(pool *pgxpool.Pool) CalendarRepository {
	return &calendarRepository{pool: pool}
}

// ReplaceForCabin swaps the cabin's cached dates for one source in a single
// transaction and stamps last_ical_sync, so a failed sync never leaves a
// half-replaced set behind.
func (r *calendarRepository) ReplaceForCabin(ctx context.Context, cabinID int64, source string, dates []time.Time, syncedAt time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`DELETE FROM cached_calendar_dates WHERE cabin_id=$1 AND source=$2`,
		cabinID, source,
	); err != nil {
		return err
	}

	for _, d := range dates {
		if _, err := tx.Exec(ctx,
			`INSERT INTO cached_calendar_dates (cabin_id, blocked_date, source, synced_at)
			 VALUES ($1,$2,$3,$4)
			 ON CONFLICT (cabin_id, blocked_date, source) DO UPDATE SET synced_at=$4`,
			cabinID, d, source, syncedAt,
		); err != nil {
			return err
		}
	}

	if _, err := tx.Exec(ctx,
		`UPDATE cabins SET last_ical_sync=$2 WHERE id=$1`,
		cabinID, syncedAt,
	); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *calendarRepository) ListDates(ctx context.Context, cabinID int64) ([]time.Time, error) {
	const q = `SELECT blocked_date FROM cached_calendar_dates WHERE cabin_id=$1 ORDER BY blocked_date`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, cabinID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var dates []time.Time
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}

// HasBlockedInRange reports whether any cached date falls inside [start, end).
func (r *calendarRepository) HasBlockedInRange(ctx context.Context, cabinID int64, start, end time.Time) (bool, error) {
	const q = `SELECT EXISTS (
		SELECT 1 FROM cached_calendar_dates
		WHERE cabin_id=$1 AND blocked_date >= $2 AND blocked_date < $3
	)`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var exists bool
	err := r.pool.QueryRow(ctx, q, cabinID, start, end).Scan(&exists)
	return exists, err
}
