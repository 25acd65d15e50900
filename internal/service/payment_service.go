package service

import (
	"context"
	"fmt"

	"github.com/naodludzie/backend/internal/domain"
	"github.com/naodludzie/backend/internal/platform/stripegw"
	"github.com/naodludzie/backend/internal/repo/postgres"
	"github.com/naodludzie/backend/pkg/config"
	"github.com/naodludzie/backend/pkg/events"
	"github.com/naodludzie/backend/pkg/logger"
)

// The manual verification path advertises a 5% commission in its terms
// copy while the Stripe settlement path enforces the configured 7%. The
// discrepancy comes from the business side and is preserved on purpose.
const manualPathAdvertisedCommission = "5%"

const verificationTransferAmount = "1 zł"

type PaymentService interface {
	StartOnboarding(ctx context.Context, hostID int64, accountType domain.StripeAccountType, businessName string) (string, error)
	RefreshAccountStatus(ctx context.Context, hostID int64) (*domain.HostStripeAccount, error)
	SetOnlinePayments(ctx context.Context, hostID, cabinID int64, enabled bool) (*domain.Cabin, error)
	CreateCheckout(ctx context.Context, requestID int64) (*domain.CheckoutSession, error)
	VerificationInstructions() map[string]string
	MarkVerificationTransferSent(ctx context.Context, hostID, cabinID int64) error
	ApproveManualVerification(ctx context.Context, cabinID int64) (*domain.Cabin, error)
}

type paymentService struct {
	stripeRepo  postgres.StripeAccountRepository
	cabinRepo   postgres.CabinRepository
	bookingRepo postgres.BookingRepository
	userRepo    postgres.UserRepository
	gateway     stripegw.Gateway
	eventBus    events.Publisher
	cfg         *config.Config
}

func NewPaymentService(
	stripeRepo postgres.StripeAccountRepository,
	cabinRepo postgres.CabinRepository,
	bookingRepo postgres.BookingRepository,
	userRepo postgres.UserRepository,
	gateway stripegw.Gateway,
	eventBus events.Publisher,
	cfg *config.Config,
) PaymentService {
	return &paymentService{
		stripeRepo:  stripeRepo,
		cabinRepo:   cabinRepo,
		bookingRepo: bookingRepo,
		userRepo:    userRepo,
		gateway:     gateway,
		eventBus:    eventBus,
		cfg:         cfg,
	}
}

// StartOnboarding creates the host's connected account on first call and
// returns a fresh onboarding URL either way.
func (s *paymentService) StartOnboarding(ctx context.Context, hostID int64, accountType domain.StripeAccountType, businessName string) (string, error) {
	if accountType != domain.StripeAccountIndividual && accountType != domain.StripeAccountCompany {
		return "", fmt.Errorf("%w: account type must be individual or company", domain.ErrValidation)
	}

	host, err := s.userRepo.FindByID(ctx, hostID)
	if err != nil {
		return "", fmt.Errorf("failed to load host: %w", err)
	}
	if host == nil {
		return "", fmt.Errorf("%w: host %d", domain.ErrNotFound, hostID)
	}

	acct, err := s.stripeRepo.GetByUserID(ctx, hostID)
	if err != nil {
		return "", fmt.Errorf("failed to load stripe account: %w", err)
	}

	if acct == nil {
		accountID, err := s.gateway.CreateAccount(accountType, host.Email, businessName)
		if err != nil {
			return "", err
		}
		acct, err = s.stripeRepo.Create(ctx, &domain.HostStripeAccount{
			UserID:          hostID,
			StripeAccountID: accountID,
			AccountType:     accountType,
			BusinessName:    businessName,
		})
		if err != nil {
			return "", fmt.Errorf("failed to persist stripe account: %w", err)
		}
	}

	return s.gateway.OnboardingLink(acct.StripeAccountID,
		s.cfg.Stripe.OnboardingRefreshURL, s.cfg.Stripe.OnboardingReturnURL)
}

// RefreshAccountStatus polls Stripe and stores the new capability flags.
func (s *paymentService) RefreshAccountStatus(ctx context.Context, hostID int64) (*domain.HostStripeAccount, error) {
	acct, err := s.stripeRepo.GetByUserID(ctx, hostID)
	if err != nil {
		return nil, fmt.Errorf("failed to load stripe account: %w", err)
	}
	if acct == nil {
		return nil, fmt.Errorf("%w: no connect account, start onboarding first", domain.ErrConfiguration)
	}

	status, err := s.gateway.AccountStatus(acct.StripeAccountID)
	if err != nil {
		return nil, err
	}

	updated, err := s.stripeRepo.UpdateStatus(ctx, hostID, status.ChargesEnabled, status.PayoutsEnabled, status.DetailsSubmitted)
	if err != nil {
		return nil, fmt.Errorf("failed to update stripe account: %w", err)
	}

	hostEmail := ""
	if host, err := s.userRepo.FindByID(ctx, hostID); err == nil && host != nil {
		hostEmail = host.Email
	}
	event := events.PaymentAccountUpdatedEvent{
		HostID:         hostID,
		HostEmail:      hostEmail,
		ChargesEnabled: status.ChargesEnabled,
		PayoutsEnabled: status.PayoutsEnabled,
	}
	if err := s.eventBus.Publish(ctx, events.PaymentAccountUpdated, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish account updated event", "error", err, "host_id", hostID)
	}

	return updated, nil
}

// SetOnlinePayments flips the listing's payment gate. Enabling requires a
// usable settlement path: Stripe charges enabled or a verified manual
// transfer.
func (s *paymentService) SetOnlinePayments(ctx context.Context, hostID, cabinID int64, enabled bool) (*domain.Cabin, error) {
	cabin, err := s.cabinRepo.GetByID(ctx, cabinID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cabin: %w", err)
	}
	if cabin == nil {
		return nil, fmt.Errorf("%w: cabin %d", domain.ErrNotFound, cabinID)
	}
	if cabin.OwnerID != hostID {
		return nil, fmt.Errorf("%w: not the cabin owner", domain.ErrAuthorization)
	}

	if enabled && !cabin.ManualPaymentVerified {
		acct, err := s.stripeRepo.GetByUserID(ctx, hostID)
		if err != nil {
			return nil, fmt.Errorf("failed to load stripe account: %w", err)
		}
		if acct == nil || !acct.Usable() {
			return nil, fmt.Errorf("%w: no usable payment method; finish Stripe onboarding or manual verification", domain.ErrConfiguration)
		}
	}

	if err := s.cabinRepo.SetOnlinePayments(ctx, cabinID, enabled); err != nil {
		return nil, fmt.Errorf("failed to update cabin: %w", err)
	}
	cabin.OnlinePaymentsEnabled = enabled
	return cabin, nil
}

// CreateCheckout builds a Stripe Checkout session for an approved request.
// The total is recomputed from the listing's current price; nothing was
// frozen at request time.
func (s *paymentService) CreateCheckout(ctx context.Context, requestID int64) (*domain.CheckoutSession, error) {
	booking, err := s.bookingRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to load booking request: %w", err)
	}
	if booking == nil {
		return nil, fmt.Errorf("%w: booking request %d", domain.ErrNotFound, requestID)
	}
	if booking.Status != domain.BookingApproved {
		return nil, fmt.Errorf("%w: only approved requests can be paid", domain.ErrInvalidState)
	}

	cabin, err := s.cabinRepo.GetByID(ctx, booking.CabinID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cabin: %w", err)
	}
	if cabin == nil {
		return nil, fmt.Errorf("%w: cabin %d", domain.ErrNotFound, booking.CabinID)
	}
	if !cabin.OnlinePaymentsEnabled {
		return nil, fmt.Errorf("%w: listing does not take online payments", domain.ErrConfiguration)
	}

	acct, err := s.stripeRepo.GetByUserID(ctx, cabin.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load stripe account: %w", err)
	}
	if acct == nil || !acct.Usable() {
		return nil, fmt.Errorf("%w: host cannot take card payments yet", domain.ErrConfiguration)
	}

	quote := domain.QuotePrice(cabin, booking.Nights(), booking.IsAnonymous(), s.cfg.Platform.AnonymousMarkup)
	totalGrosze := domain.ToGrosze(quote.Total)
	feeGrosze := domain.ApplicationFee(totalGrosze, s.cfg.Platform.FeePercent)

	result, err := s.gateway.CreateCheckout(stripegw.CheckoutParams{
		AmountGrosze:       totalGrosze,
		ApplicationFee:     feeGrosze,
		DestinationAccount: acct.StripeAccountID,
		ProductName:        fmt.Sprintf("%s: %s – %s", cabin.Title, booking.StartDate.Format(dateLayout), booking.EndDate.Format(dateLayout)),
		CustomerEmail:      booking.GuestEmail,
		SuccessURL:         s.cfg.Stripe.CheckoutSuccessURL,
		CancelURL:          s.cfg.Stripe.CheckoutCancelURL,
	})
	if err != nil {
		return nil, err
	}

	event := events.PaymentCheckoutCreatedEvent{
		RequestID:   booking.ID,
		CabinID:     cabin.ID,
		SessionID:   result.SessionID,
		TotalGrosze: totalGrosze,
		FeeGrosze:   feeGrosze,
	}
	if err := s.eventBus.Publish(ctx, events.PaymentCheckoutCreated, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish checkout created event", "error", err, "request_id", booking.ID)
	}

	return &domain.CheckoutSession{
		SessionID:   result.SessionID,
		CheckoutURL: result.CheckoutURL,
		TotalGrosze: totalGrosze,
		FeeGrosze:   feeGrosze,
	}, nil
}

// VerificationInstructions returns the fixed bank-transfer instructions
// shown to hosts choosing the manual path.
func (s *paymentService) VerificationInstructions() map[string]string {
	return map[string]string{
		"recipient":  "NaOdludzie Sp. z o.o.",
		"account":    "PL61 1090 1014 0000 0712 1981 2874",
		"amount":     verificationTransferAmount,
		"title":      "Weryfikacja konta gospodarza",
		"commission": manualPathAdvertisedCommission,
		"note":       "Prześlij " + verificationTransferAmount + " z konta, na które mają trafiać wypłaty. Prowizja serwisu wynosi " + manualPathAdvertisedCommission + ".",
	}
}

// MarkVerificationTransferSent records the host's claim that the 1 zł
// transfer went out. Requires accepted terms; an admin reviews afterwards.
func (s *paymentService) MarkVerificationTransferSent(ctx context.Context, hostID, cabinID int64) error {
	cabin, err := s.cabinRepo.GetByID(ctx, cabinID)
	if err != nil {
		return fmt.Errorf("failed to load cabin: %w", err)
	}
	if cabin == nil {
		return fmt.Errorf("%w: cabin %d", domain.ErrNotFound, cabinID)
	}
	if cabin.OwnerID != hostID {
		return fmt.Errorf("%w: not the cabin owner", domain.ErrAuthorization)
	}

	host, err := s.userRepo.FindByID(ctx, hostID)
	if err != nil {
		return fmt.Errorf("failed to load host: %w", err)
	}
	if host == nil || !host.TermsAccepted {
		return fmt.Errorf("%w: accept the terms before submitting the verification transfer", domain.ErrValidation)
	}

	marked, err := s.cabinRepo.MarkVerificationTransferSent(ctx, cabinID)
	if err != nil {
		return fmt.Errorf("failed to mark transfer sent: %w", err)
	}
	if !marked {
		return fmt.Errorf("%w: verification transfer already submitted", domain.ErrInvalidState)
	}
	return nil
}

// ApproveManualVerification is the admin review step; it flips both the
// verified flag and the listing's payment gate.
func (s *paymentService) ApproveManualVerification(ctx context.Context, cabinID int64) (*domain.Cabin, error) {
	cabin, err := s.cabinRepo.ApproveManualVerification(ctx, cabinID)
	if err != nil {
		return nil, fmt.Errorf("failed to approve verification: %w", err)
	}
	if cabin == nil {
		return nil, fmt.Errorf("%w: no submitted verification transfer for this cabin", domain.ErrInvalidState)
	}

	hostEmail := ""
	if host, err := s.userRepo.FindByID(ctx, cabin.OwnerID); err == nil && host != nil {
		hostEmail = host.Email
	}
	event := events.ManualVerificationApprovedEvent{
		CabinID:    cabin.ID,
		CabinTitle: cabin.Title,
		HostEmail:  hostEmail,
	}
	if err := s.eventBus.Publish(ctx, events.ManualVerificationApproved, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish manual verification event", "error", err, "cabin_id", cabin.ID)
	}

	return cabin, nil
}
