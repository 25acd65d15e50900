package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/naodludzie/backend/internal/domain"
)

type StripeAccountRepository interface {
	Create(ctx context.Context, acct *domain.HostStripeAccount) (*domain.HostStripeAccount, error)
	GetByUserID(ctx context.Context, userID int64) (*domain.HostStripeAccount, error)
	UpdateStatus(ctx context.Context, userID int64, chargesEnabled, payoutsEnabled, onboardingCompleted bool) (*domain.HostStripeAccount, error)
}

type stripeAccountRepository struct {
	pool *pgxpool.Pool
}

func NewStripeAccountRepository(pool *pgxpool.Pool) StripeAccountRepository {
	return &stripeAccountRepository{pool: pool}
}

const stripeAccountCols = `user_id, stripe_account_id, account_type, business_name,
charges_enabled, payouts_enabled, onboarding_completed, created_at, updated_at`

func scanStripeAccount(row pgx.Row) (*domain.HostStripeAccount, error) {
	var a domain.HostStripeAccount
	err := row.Scan(
		&a.UserID, &a.StripeAccountID, &a.AccountType, &a.BusinessName,
		&a.ChargesEnabled, &a.PayoutsEnabled, &a.OnboardingCompleted,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *stripeAccountRepository) Create(ctx context.Context, acct *domain.HostStripeAccount) (*domain.HostStripeAccount, error) {
	const q = `INSERT INTO host_stripe_accounts (
		user_id, stripe_account_id, account_type, business_name,
		charges_enabled, payouts_enabled, onboarding_completed
	) VALUES ($1,$2,$3,$4,false,false,false)
	RETURNING ` + stripeAccountCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanStripeAccount(r.pool.QueryRow(ctx, q,
		acct.UserID, acct.StripeAccountID, acct.AccountType, acct.BusinessName,
	))
}

func (r *stripeAccountRepository) GetByUserID(ctx context.Context, userID int64) (*domain.HostStripeAccount, error) {
	const q = `SELECT ` + stripeAccountCols + ` FROM host_stripe_accounts WHERE user_id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	a, err := scanStripeAccount(r.pool.QueryRow(ctx, q, userID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return a, err
}

func (r *stripeAccountRepository) UpdateStatus(ctx context.Context, userID int64, chargesEnabled, payoutsEnabled, onboardingCompleted bool) (*domain.HostStripeAccount, error) {
	const q = `UPDATE host_stripe_accounts
		SET charges_enabled=$2, payouts_enabled=$3, onboarding_completed=$4, updated_at=now()
		WHERE user_id=$1
		RETURNING ` + stripeAccountCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	a, err := scanStripeAccount(r.pool.QueryRow(ctx, q, userID, chargesEnabled, payoutsEnabled, onboardingCompleted))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return a, err
}
