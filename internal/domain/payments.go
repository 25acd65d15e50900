package domain

import "time"

type StripeAccountType string

const (
	StripeAccountIndividual StripeAccountType = "individual"
	StripeAccountCompany    StripeAccountType = "company"
)

// HostStripeAccount is one Stripe Connect account per host.
type HostStripeAccount struct {
	UserID              int64             `json:"user_id"`
	StripeAccountID     string            `json:"stripe_account_id"`
	AccountType         StripeAccountType `json:"account_type"`
	BusinessName        string            `json:"business_name,omitempty"`
	ChargesEnabled      bool              `json:"charges_enabled"`
	PayoutsEnabled      bool              `json:"payouts_enabled"`
	OnboardingCompleted bool              `json:"onboarding_completed"`
	CreatedAt           time.Time         `json:"created_at"`
	UpdatedAt           time.Time         `json:"updated_at"`
}

// Usable reports whether the account can take charges for the platform.
func (a *HostStripeAccount) Usable() bool {
	return a.ChargesEnabled
}

type CheckoutSession struct {
	SessionID   string `json:"session_id"`
	CheckoutURL string `json:"checkout_url"`
	TotalGrosze int64  `json:"total_grosze"`
	FeeGrosze   int64  `json:"fee_grosze"`
}
