// Package stripegw wraps the Stripe Connect surface the platform uses:
// connected accounts, onboarding links and split-payment checkouts.
package stripegw

import (
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/account"
	"github.com/stripe/stripe-go/v76/accountlink"
	"github.com/stripe/stripe-go/v76/checkout/session"

	"github.com/naodludzie/backend/internal/domain"
)

// Gateway abstracts the payment processor for the payment service.
type Gateway interface {
	CreateAccount(accountType domain.StripeAccountType, email, businessName string) (string, error)
	OnboardingLink(accountID, refreshURL, returnURL string) (string, error)
	AccountStatus(accountID string) (AccountStatus, error)
	CreateCheckout(p CheckoutParams) (CheckoutResult, error)
}

type AccountStatus struct {
	ChargesEnabled   bool
	PayoutsEnabled   bool
	DetailsSubmitted bool
}

type CheckoutParams struct {
	AmountGrosze       int64
	ApplicationFee     int64
	DestinationAccount string
	ProductName        string
	CustomerEmail      string
	SuccessURL         string
	CancelURL          string
}

type CheckoutResult struct {
	SessionID   string
	CheckoutURL string
}

type Client struct{}

// NewClient sets the global Stripe key and returns the gateway.
func NewClient(secretKey string) *Client {
	stripe.Key = secretKey
	return &Client{}
}

func (c *Client) CreateAccount(accountType domain.StripeAccountType, email, businessName string) (string, error) {
	params := &stripe.AccountParams{
		Type:         stripe.String(string(stripe.AccountTypeExpress)),
		Email:        stripe.String(email),
		BusinessType: stripe.String(string(accountType)),
		Capabilities: &stripe.AccountCapabilitiesParams{
			CardPayments: &stripe.AccountCapabilitiesCardPaymentsParams{
				Requested: stripe.Bool(true),
			},
			Transfers: &stripe.AccountCapabilitiesTransfersParams{
				Requested: stripe.Bool(true),
			},
		},
	}
	if businessName != "" {
		params.BusinessProfile = &stripe.AccountBusinessProfileParams{
			Name: stripe.String(businessName),
		}
	}

	acct, err := account.New(params)
	if err != nil {
		return "", fmt.Errorf("%w: creating connect account: %v", domain.ErrUpstream, err)
	}
	return acct.ID, nil
}

func (c *Client) OnboardingLink(accountID, refreshURL, returnURL string) (string, error) {
	link, err := accountlink.New(&stripe.AccountLinkParams{
		Account:    stripe.String(accountID),
		RefreshURL: stripe.String(refreshURL),
		ReturnURL:  stripe.String(returnURL),
		Type:       stripe.String("account_onboarding"),
	})
	if err != nil {
		return "", fmt.Errorf("%w: creating onboarding link: %v", domain.ErrUpstream, err)
	}
	return link.URL, nil
}

func (c *Client) AccountStatus(accountID string) (AccountStatus, error) {
	acct, err := account.GetByID(accountID, nil)
	if err != nil {
		return AccountStatus{}, fmt.Errorf("%w: fetching account status: %v", domain.ErrUpstream, err)
	}
	return AccountStatus{
		ChargesEnabled:   acct.ChargesEnabled,
		PayoutsEnabled:   acct.PayoutsEnabled,
		DetailsSubmitted: acct.DetailsSubmitted,
	}, nil
}

// CreateCheckout builds a hosted checkout session that splits the charge at
// settlement: the application fee stays with the platform, the rest is
// transferred to the host's connected account.
func (c *Client) CreateCheckout(p CheckoutParams) (CheckoutResult, error) {
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(string(stripe.CurrencyPLN)),
					UnitAmount: stripe.Int64(p.AmountGrosze),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(p.ProductName),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			ApplicationFeeAmount: stripe.Int64(p.ApplicationFee),
			TransferData: &stripe.CheckoutSessionPaymentIntentDataTransferDataParams{
				Destination: stripe.String(p.DestinationAccount),
			},
		},
		SuccessURL: stripe.String(p.SuccessURL),
		CancelURL:  stripe.String(p.CancelURL),
	}
	if p.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(p.CustomerEmail)
	}

	sess, err := session.New(params)
	if err != nil {
		return CheckoutResult{}, fmt.Errorf("%w: creating checkout session: %v", domain.ErrUpstream, err)
	}
	return CheckoutResult{SessionID: sess.ID, CheckoutURL: sess.URL}, nil
}
