package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/naodludzie/backend/internal/domain"
)

type BookingRepository interface {
	Create(ctx context.Context, req *domain.CreateBookingRequest, guestID *int64, hostID int64) (*domain.BookingRequest, error)
	GetByID(ctx context.Context, id int64) (*domain.BookingRequest, error)
	ListByHost(ctx context.Context, hostID int64, limit, offset int, status *domain.BookingStatus) ([]domain.BookingRequest, error)
	ListByGuest(ctx context.Context, guestID int64, limit, offset int) ([]domain.BookingRequest, error)
	OverlapsApproved(ctx context.Context, cabinID int64, start, end time.Time) (bool, error)
	ListApprovedFrom(ctx context.Context, cabinID int64, from time.Time) ([]domain.BookingRequest, error)
	Reject(ctx context.Context, id int64, comment string) (*domain.BookingRequest, error)
	ApproveIfAvailable(ctx context.Context, id int64, comment string) (*domain.BookingRequest, bool, error)
	ExpireStale(ctx context.Context, cutoff time.Time) ([]domain.BookingRequest, error)
}

type bookingRepository struct {
	pool *pgxpool.Pool
}

func NewBookingRepository(pool *pgxpool.Pool) BookingRepository {
	return &bookingRepository{pool: pool}
}

const bookingCols = `id, cabin_id, guest_id, host_id,
guest_name, guest_email, start_date, end_date,
guests_count, message, status, host_comment,
created_at, updated_at`

func scanBooking(row pgx.Row) (*domain.BookingRequest, error) {
	var b domain.BookingRequest
	err := row.Scan(
		&b.ID, &b.CabinID, &b.GuestID, &b.HostID,
		&b.GuestName, &b.GuestEmail, &b.StartDate, &b.EndDate,
		&b.GuestsCount, &b.Message, &b.Status, &b.HostComment,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *bookingRepository) Create(ctx context.Context, req *domain.CreateBookingRequest, guestID *int64, hostID int64) (*domain.BookingRequest, error) {
	const q = `INSERT INTO booking_requests (
		cabin_id, guest_id, host_id,
		guest_name, guest_email, start_date, end_date,
		guests_count, message, status
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,'pending')
	RETURNING ` + bookingCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanBooking(r.pool.QueryRow(ctx, q,
		req.CabinID, guestID, hostID,
		req.GuestName, req.GuestEmail, req.StartDate, req.EndDate,
		req.GuestsCount, req.Message,
	))
}

func (r *bookingRepository) GetByID(ctx context.Context, id int64) (*domain.BookingRequest, error) {
	const q = `SELECT ` + bookingCols + ` FROM booking_requests WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	b, err := scanBooking(r.pool.QueryRow(ctx, q, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return b, err
}

func (r *bookingRepository) ListByHost(ctx context.Context, hostID int64, limit, offset int, status *domain.BookingStatus) ([]domain.BookingRequest, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	q := `SELECT ` + bookingCols + ` FROM booking_requests WHERE host_id=$1`
	args := []any{hostID}
	if status != nil {
		q += ` AND status=$2 ORDER BY created_at DESC LIMIT $3 OFFSET $4`
		args = append(args, *status, limit, offset)
	} else {
		q += ` ORDER BY created_at DESC LIMIT $2 OFFSET $3`
		args = append(args, limit, offset)
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectBookings(rows)
}

func (r *bookingRepository) ListByGuest(ctx context.Context, guestID int64, limit, offset int) ([]domain.BookingRequest, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	const q = `SELECT ` + bookingCols + ` FROM booking_requests WHERE guest_id=$1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	rows, err := r.pool.Query(ctx, q, guestID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectBookings(rows)
}

func collectBookings(rows pgx.Rows) ([]domain.BookingRequest, error) {
	var bookings []domain.BookingRequest
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

// OverlapsApproved reports whether any approved request for the cabin
// intersects [start, end).
func (r *bookingRepository) OverlapsApproved(ctx context.Context, cabinID int64, start, end time.Time) (bool, error) {
	const q = `SELECT EXISTS (
		SELECT 1 FROM booking_requests
		WHERE cabin_id=$1 AND status='approved'
		  AND start_date < $3 AND end_date > $2
	)`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var exists bool
	err := r.pool.QueryRow(ctx, q, cabinID, start, end).Scan(&exists)
	return exists, err
}

// ListApprovedFrom returns approved requests whose stay has not ended
// before the given date, oldest stay first.
func (r *bookingRepository) ListApprovedFrom(ctx context.Context, cabinID int64, from time.Time) ([]domain.BookingRequest, error) {
	const q = `SELECT ` + bookingCols + ` FROM booking_requests
		WHERE cabin_id=$1 AND status='approved' AND end_date > $2
		ORDER BY start_date`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	rows, err := r.pool.Query(ctx, q, cabinID, from)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectBookings(rows)
}

func (r *bookingRepository) Reject(ctx context.Context, id int64, comment string) (*domain.BookingRequest, error) {
	const q = `UPDATE booking_requests
		SET status='rejected', host_comment=$2, updated_at=now()
		WHERE id=$1 AND status='pending'
		RETURNING ` + bookingCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	b, err := scanBooking(r.pool.QueryRow(ctx, q, id, comment))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return b, err
}

// ApproveIfAvailable flips a pending request to approved only when no
// other approved request overlaps its dates. The conditional write is the
// serialization point against two overlapping approvals. The second return
// value distinguishes "dates taken" (true) from "not pending" (false) when
// no row was updated.
func (r *bookingRepository) ApproveIfAvailable(ctx context.Context, id int64, comment string) (*domain.BookingRequest, bool, error) {
	const q = `UPDATE booking_requests br
		SET status='approved', host_comment=$2, updated_at=now()
		WHERE br.id=$1 AND br.status='pending'
		  AND NOT EXISTS (
			SELECT 1 FROM booking_requests o
			WHERE o.cabin_id=br.cabin_id AND o.id<>br.id AND o.status='approved'
			  AND o.start_date < br.end_date AND o.end_date > br.start_date
		  )
		RETURNING ` + bookingCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	b, err := scanBooking(r.pool.QueryRow(ctx, q, id, comment))
	if err == pgx.ErrNoRows {
		const check = `SELECT EXISTS (
			SELECT 1 FROM booking_requests br
			JOIN booking_requests o ON o.cabin_id=br.cabin_id AND o.id<>br.id AND o.status='approved'
			  AND o.start_date < br.end_date AND o.end_date > br.start_date
			WHERE br.id=$1 AND br.status='pending'
		)`
		var conflicted bool
		if cerr := r.pool.QueryRow(ctx, check, id).Scan(&conflicted); cerr != nil {
			return nil, false, cerr
		}
		return nil, conflicted, nil
	}
	return b, false, err
}

// ExpireStale rejects every pending request created before the cutoff and
// returns the affected rows. Re-running once drained is a no-op.
func (r *bookingRepository) ExpireStale(ctx context.Context, cutoff time.Time) ([]domain.BookingRequest, error) {
	const q = `UPDATE booking_requests
		SET status='rejected', host_comment='expired', updated_at=now()
		WHERE status='pending' AND created_at < $1
		RETURNING ` + bookingCols

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	rows, err := r.pool.Query(ctx, q, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectBookings(rows)
}
