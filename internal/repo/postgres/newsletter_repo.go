package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type NewsletterRepository interface {
	Subscribe(ctx context.Context, email string) (bool, error)
}

type newsletterRepository struct {
	pool *pgxpool.Pool
}

func NewNewsletterRepository(pool *pgxpool.Pool) NewsletterRepository {
	return &newsletterRepository{pool: pool}
}

// Subscribe records an address, reporting false when it was already there.
func (r *newsletterRepository) Subscribe(ctx context.Context, email string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := r.pool.Exec(ctx,
		`INSERT INTO newsletter_subscribers (email) VALUES (lower($1))
		 ON CONFLICT (email) DO NOTHING`, email)
	if err != nil {
		return false, err
	}
	return res.RowsAffected() > 0, nil
}
