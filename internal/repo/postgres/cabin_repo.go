package postgres

import (
	"context"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/naodludzie/backend/internal/domain"
)

type ListCabinsFilter struct {
	Voivodeship    string
	Category       string
	FeaturedOnly   bool
	LastMinuteOnly bool
	MaxGuests      int
	Limit          int
	Offset         int
}

type CabinRepository interface {
	Create(ctx context.Context, c *domain.Cabin) (*domain.Cabin, error)
	GetByID(ctx context.Context, id int64) (*domain.Cabin, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Cabin, error)
	Update(ctx context.Context, c *domain.Cabin) (*domain.Cabin, error)
	ListActive(ctx context.Context, filter ListCabinsFilter) ([]domain.Cabin, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]domain.Cabin, error)
	ListWithFeeds(ctx context.Context) ([]domain.Cabin, error)
	UpdateStatus(ctx context.Context, id int64, from, to domain.CabinStatus, expiresAt *time.Time) (*domain.Cabin, error)
	DemoteExpired(ctx context.Context, now time.Time) ([]domain.Cabin, error)
	SetOnlinePayments(ctx context.Context, id int64, enabled bool) error
	MarkVerificationTransferSent(ctx context.Context, id int64) (bool, error)
	ApproveManualVerification(ctx context.Context, id int64) (*domain.Cabin, error)
	SetImages(ctx context.Context, id int64, images []domain.CabinImage) error
	SlugExists(ctx context.Context, slug string) (bool, error)
}

type cabinRepository struct {
	pool *pgxpool.Pool
}

func NewCabinRepository(pool *pgxpool.Pool) CabinRepository {
	return &cabinRepository{pool: pool}
}

const cabinCols = `id, slug, owner_id, title, description,
address, voivodeship, lat, lon,
price_per_night, min_nights, max_guests, bedrooms, bathrooms, area_m2,
amenities, category, extra_fees, images,
light_pollution, building_density, road_density, neighbors_distance,
status, expires_at, is_featured,
ical_url, last_ical_sync, last_minute_dates,
online_payments_enabled, verification_transfer_sent, manual_payment_verified,
created_at, updated_at`

func scanCabin(row pgx.Row) (*domain.Cabin, error) {
	var c domain.Cabin
	err := row.Scan(
		&c.ID, &c.Slug, &c.OwnerID, &c.Title, &c.Description,
		&c.Address, &c.Voivodeship, &c.Lat, &c.Lon,
		&c.PricePerNight, &c.MinNights, &c.MaxGuests, &c.Bedrooms, &c.Bathrooms, &c.AreaM2,
		&c.Amenities, &c.Category, &c.ExtraFees, &c.Images,
		&c.OffGrid.LightPollution, &c.OffGrid.BuildingDensity, &c.OffGrid.RoadDensity, &c.OffGrid.NeighborsDist,
		&c.Status, &c.ExpiresAt, &c.IsFeatured,
		&c.ICalURL, &c.LastICalSync, &c.LastMinuteDates,
		&c.OnlinePaymentsEnabled, &c.VerificationTransferSent, &c.ManualPaymentVerified,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func collectCabins(rows pgx.Rows) ([]domain.Cabin, error) {
	var cabins []domain.Cabin
	for rows.Next() {
		c, err := scanCabin(rows)
		if err != nil {
			return nil, err
		}
		cabins = append(cabins, *c)
	}
	return cabins, rows.Err()
}

func (r *cabinRepository) Create(ctx context.Context, c *domain.Cabin) (*domain.Cabin, error) {
	const q = `INSERT INTO cabins (
		slug, owner_id, title, description,
		address, voivodeship, lat, lon,
		price_per_night, min_nights, max_guests, bedrooms, bathrooms, area_m2,
		amenities, category, extra_fees, images,
		light_pollution, building_density, road_density, neighbors_distance,
		status, ical_url, last_minute_dates
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,'pending',$23,$24)
	RETURNING ` + cabinCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanCabin(r.pool.QueryRow(ctx, q,
		c.Slug, c.OwnerID, c.Title, c.Description,
		c.Address, c.Voivodeship, c.Lat, c.Lon,
		c.PricePerNight, c.MinNights, c.MaxGuests, c.Bedrooms, c.Bathrooms, c.AreaM2,
		c.Amenities, c.Category, c.ExtraFees, c.Images,
		c.OffGrid.LightPollution, c.OffGrid.BuildingDensity, c.OffGrid.RoadDensity, c.OffGrid.NeighborsDist,
		c.ICalURL, c.LastMinuteDates,
	))
}

func (r *cabinRepository) GetByID(ctx context.Context, id int64) (*domain.Cabin, error) {
	const q = `SELECT ` + cabinCols + ` FROM cabins WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	c, err := scanCabin(r.pool.QueryRow(ctx, q, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return c, err
}

func (r *cabinRepository) GetBySlug(ctx context.Context, slug string) (*domain.Cabin, error) {
	const q = `SELECT ` + cabinCols + ` FROM cabins WHERE slug=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	c, err := scanCabin(r.pool.QueryRow(ctx, q, slug))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return c, err
}

// Update writes the host-editable fields. Status, payment flags and sync
// stamps have their own mutators.
func (r *cabinRepository) Update(ctx context.Context, c *domain.Cabin) (*domain.Cabin, error) {
	const q = `UPDATE cabins SET
		title=$2, description=$3,
		address=$4, voivodeship=$5, lat=$6, lon=$7,
		price_per_night=$8, min_nights=$9, max_guests=$10,
		bedrooms=$11, bathrooms=$12, area_m2=$13,
		amenities=$14, category=$15, extra_fees=$16, images=$17,
		light_pollution=$18, building_density=$19, road_density=$20, neighbors_distance=$21,
		ical_url=$22, last_minute_dates=$23, updated_at=now()
	WHERE id=$1
	RETURNING ` + cabinCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	cabin, err := scanCabin(r.pool.QueryRow(ctx, q,
		c.ID, c.Title, c.Description,
		c.Address, c.Voivodeship, c.Lat, c.Lon,
		c.PricePerNight, c.MinNights, c.MaxGuests,
		c.Bedrooms, c.Bathrooms, c.AreaM2,
		c.Amenities, c.Category, c.ExtraFees, c.Images,
		c.OffGrid.LightPollution, c.OffGrid.BuildingDensity, c.OffGrid.RoadDensity, c.OffGrid.NeighborsDist,
		c.ICalURL, c.LastMinuteDates,
	))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return cabin, err
}

func (r *cabinRepository) ListActive(ctx context.Context, filter ListCabinsFilter) ([]domain.Cabin, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	q := `SELECT ` + cabinCols + ` FROM cabins WHERE status='active'`
	args := []any{}
	n := 0
	next := func() string {
		n++
		return "$" + strconv.Itoa(n)
	}

	if filter.Voivodeship != "" {
		q += ` AND voivodeship=` + next()
		args = append(args, filter.Voivodeship)
	}
	if filter.Category != "" {
		q += ` AND category=` + next()
		args = append(args, filter.Category)
	}
	if filter.MaxGuests > 0 {
		q += ` AND max_guests >= ` + next()
		args = append(args, filter.MaxGuests)
	}
	if filter.FeaturedOnly {
		q += ` AND is_featured`
	}
	if filter.LastMinuteOnly {
		q += ` AND EXISTS (SELECT 1 FROM unnest(last_minute_dates) d WHERE d >= CURRENT_DATE)`
	}
	q += ` ORDER BY is_featured DESC, created_at DESC LIMIT ` + next()
	args = append(args, limit)
	q += ` OFFSET ` + next()
	args = append(args, offset)

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectCabins(rows)
}

func (r *cabinRepository) ListByOwner(ctx context.Context, ownerID int64) ([]domain.Cabin, error) {
	const q = `SELECT ` + cabinCols + ` FROM cabins WHERE owner_id=$1 ORDER BY created_at DESC`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	rows, err := r.pool.Query(ctx, q, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectCabins(rows)
}

func (r *cabinRepository) ListWithFeeds(ctx context.Context) ([]domain.Cabin, error) {
	const q = `SELECT ` + cabinCols + ` FROM cabins WHERE ical_url <> '' ORDER BY id`
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectCabins(rows)
}

// UpdateStatus transitions a cabin conditionally on its current status.
// Returns nil when the cabin was not in the expected state.
func (r *cabinRepository) UpdateStatus(ctx context.Context, id int64, from, to domain.CabinStatus, expiresAt *time.Time) (*domain.Cabin, error) {
	const q = `UPDATE cabins
		SET status=$3, expires_at=COALESCE($4, expires_at), updated_at=now()
		WHERE id=$1 AND status=$2
		RETURNING ` + cabinCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	c, err := scanCabin(r.pool.QueryRow(ctx, q, id, from, to, expiresAt))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return c, err
}

// DemoteExpired drops active cabins past their 60-day window back to
// pending and returns them for host notification.
func (r *cabinRepository) DemoteExpired(ctx context.Context, now time.Time) ([]domain.Cabin, error) {
	const q = `UPDATE cabins
		SET status='pending', updated_at=now()
		WHERE status='active' AND expires_at IS NOT NULL AND expires_at < $1
		RETURNING ` + cabinCols

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	rows, err := r.pool.Query(ctx, q, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectCabins(rows)
}

func (r *cabinRepository) SetOnlinePayments(ctx context.Context, id int64, enabled bool) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	_, err := r.pool.Exec(ctx,
		`UPDATE cabins SET online_payments_enabled=$2, updated_at=now() WHERE id=$1`,
		id, enabled)
	return err
}

func (r *cabinRepository) MarkVerificationTransferSent(ctx context.Context, id int64) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := r.pool.Exec(ctx,
		`UPDATE cabins SET verification_transfer_sent=true, updated_at=now()
		 WHERE id=$1 AND NOT verification_transfer_sent`,
		id)
	if err != nil {
		return false, err
	}
	return res.RowsAffected() > 0, nil
}

// ApproveManualVerification flips both the verified flag and the payment
// gate in one statement; they must never diverge.
func (r *cabinRepository) ApproveManualVerification(ctx context.Context, id int64) (*domain.Cabin, error) {
	const q = `UPDATE cabins
		SET manual_payment_verified=true, online_payments_enabled=true, updated_at=now()
		WHERE id=$1 AND verification_transfer_sent
		RETURNING ` + cabinCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	c, err := scanCabin(r.pool.QueryRow(ctx, q, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return c, err
}

func (r *cabinRepository) SetImages(ctx context.Context, id int64, images []domain.CabinImage) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	_, err := r.pool.Exec(ctx,
		`UPDATE cabins SET images=$2, updated_at=now() WHERE id=$1`,
		id, images)
	return err
}

func (r *cabinRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM cabins WHERE slug=$1)`, slug).Scan(&exists)
	return exists, err
}
