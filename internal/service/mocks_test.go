package service

import (
	"context"
	"time"

	"github.com/naodludzie/backend/internal/domain"
	"github.com/naodludzie/backend/internal/platform/stripegw"
	"github.com/naodludzie/backend/internal/repo/postgres"
	"github.com/naodludzie/backend/pkg/config"
)

// ---------- Mocks ----------

type mockEventBus struct {
	published []publishedEvent
	err       error
}

type publishedEvent struct {
	subject string
	data    interface{}
}

func (m *mockEventBus) Publish(_ context.Context, subject string, data interface{}) error {
	if m.err != nil {
		return m.err
	}
	m.published = append(m.published, publishedEvent{subject: subject, data: data})
	return nil
}

func (m *mockEventBus) Close() error { return nil }

func (m *mockEventBus) subjects() []string {
	out := make([]string, len(m.published))
	for i, p := range m.published {
		out[i] = p.subject
	}
	return out
}

type mockCabinRepo struct {
	cabins    map[int64]*domain.Cabin
	demoted   []domain.Cabin
	slugTaken map[string]bool
}

func newMockCabinRepo(cabins ...*domain.Cabin) *mockCabinRepo {
	m := &mockCabinRepo{cabins: make(map[int64]*domain.Cabin), slugTaken: make(map[string]bool)}
	for _, c := range cabins {
		m.cabins[c.ID] = c
	}
	return m
}

func (m *mockCabinRepo) Create(_ context.Context, c *domain.Cabin) (*domain.Cabin, error) {
	c.ID = int64(len(m.cabins) + 1)
	c.Status = domain.CabinPending
	m.cabins[c.ID] = c
	return c, nil
}

func (m *mockCabinRepo) GetByID(_ context.Context, id int64) (*domain.Cabin, error) {
	return m.cabins[id], nil
}

func (m *mockCabinRepo) GetBySlug(_ context.Context, slug string) (*domain.Cabin, error) {
	for _, c := range m.cabins {
		if c.Slug == slug {
			return c, nil
		}
	}
	return nil, nil
}

func (m *mockCabinRepo) Update(_ context.Context, c *domain.Cabin) (*domain.Cabin, error) {
	m.cabins[c.ID] = c
	return c, nil
}

func (m *mockCabinRepo) ListActive(context.Context, postgres.ListCabinsFilter) ([]domain.Cabin, error) {
	return nil, nil
}

func (m *mockCabinRepo) ListByOwner(context.Context, int64) ([]domain.Cabin, error) { return nil, nil }

func (m *mockCabinRepo) ListWithFeeds(_ context.Context) ([]domain.Cabin, error) {
	var out []domain.Cabin
	for _, c := range m.cabins {
		if c.ICalURL != "" {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *mockCabinRepo) UpdateStatus(_ context.Context, id int64, from, to domain.CabinStatus, expiresAt *time.Time) (*domain.Cabin, error) {
	c := m.cabins[id]
	if c == nil || c.Status != from {
		return nil, nil
	}
	c.Status = to
	c.ExpiresAt = expiresAt
	return c, nil
}

func (m *mockCabinRepo) DemoteExpired(context.Context, time.Time) ([]domain.Cabin, error) {
	return m.demoted, nil
}

func (m *mockCabinRepo) SetOnlinePayments(_ context.Context, id int64, enabled bool) error {
	if c := m.cabins[id]; c != nil {
		c.OnlinePaymentsEnabled = enabled
	}
	return nil
}

func (m *mockCabinRepo) MarkVerificationTransferSent(_ context.Context, id int64) (bool, error) {
	c := m.cabins[id]
	if c == nil || c.VerificationTransferSent {
		return false, nil
	}
	c.VerificationTransferSent = true
	return true, nil
}

func (m *mockCabinRepo) ApproveManualVerification(_ context.Context, id int64) (*domain.Cabin, error) {
	c := m.cabins[id]
	if c == nil || !c.VerificationTransferSent {
		return nil, nil
	}
	c.ManualPaymentVerified = true
	c.OnlinePaymentsEnabled = true
	return c, nil
}

func (m *mockCabinRepo) SetImages(_ context.Context, id int64, images []domain.CabinImage) error {
	if c := m.cabins[id]; c != nil {
		c.Images = images
	}
	return nil
}

func (m *mockCabinRepo) SlugExists(_ context.Context, slug string) (bool, error) {
	if m.slugTaken[slug] {
		return true, nil
	}
	for _, c := range m.cabins {
		if c.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

type mockBookingRepo struct {
	bookings    map[int64]*domain.BookingRequest
	overlaps    bool
	approveLost bool
	expired     []domain.BookingRequest
	created     *domain.BookingRequest
}

func newMockBookingRepo(bookings ...*domain.BookingRequest) *mockBookingRepo {
	m := &mockBookingRepo{bookings: make(map[int64]*domain.BookingRequest)}
	for _, b := range bookings {
		m.bookings[b.ID] = b
	}
	return m
}

func (m *mockBookingRepo) Create(_ context.Context, req *domain.CreateBookingRequest, guestID *int64, hostID int64) (*domain.BookingRequest, error) {
	b := &domain.BookingRequest{
		ID:          int64(len(m.bookings) + 1),
		CabinID:     req.CabinID,
		GuestID:     guestID,
		HostID:      hostID,
		GuestName:   req.GuestName,
		GuestEmail:  req.GuestEmail,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		GuestsCount: req.GuestsCount,
		Message:     req.Message,
		Status:      domain.BookingPending,
		CreatedAt:   time.Now(),
	}
	m.bookings[b.ID] = b
	m.created = b
	return b, nil
}

func (m *mockBookingRepo) GetByID(_ context.Context, id int64) (*domain.BookingRequest, error) {
	return m.bookings[id], nil
}

func (m *mockBookingRepo) ListByHost(context.Context, int64, int, int, *domain.BookingStatus) ([]domain.BookingRequest, error) {
	return nil, nil
}

func (m *mockBookingRepo) ListByGuest(context.Context, int64, int, int) ([]domain.BookingRequest, error) {
	return nil, nil
}

func (m *mockBookingRepo) OverlapsApproved(context.Context, int64, time.Time, time.Time) (bool, error) {
	return m.overlaps, nil
}

func (m *mockBookingRepo) ListApprovedFrom(_ context.Context, cabinID int64, from time.Time) ([]domain.BookingRequest, error) {
	var out []domain.BookingRequest
	for _, b := range m.bookings {
		if b.CabinID == cabinID && b.Status == domain.BookingApproved && b.EndDate.After(from) {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (m *mockBookingRepo) Reject(_ context.Context, id int64, comment string) (*domain.BookingRequest, error) {
	b := m.bookings[id]
	if b == nil || b.Status != domain.BookingPending {
		return nil, nil
	}
	b.Status = domain.BookingRejected
	b.HostComment = comment
	return b, nil
}

func (m *mockBookingRepo) ApproveIfAvailable(_ context.Context, id int64, comment string) (*domain.BookingRequest, bool, error) {
	if m.approveLost {
		return nil, true, nil
	}
	b := m.bookings[id]
	if b == nil || b.Status != domain.BookingPending {
		return nil, false, nil
	}
	b.Status = domain.BookingApproved
	b.HostComment = comment
	return b, false, nil
}

// ExpireStale drains the staged list, mirroring the real conditional
// UPDATE that only touches rows still pending.
func (m *mockBookingRepo) ExpireStale(context.Context, time.Time) ([]domain.BookingRequest, error) {
	out := m.expired
	m.expired = nil
	return out, nil
}

type mockCalendarRepo struct {
	blocked  bool
	dates    []time.Time
	replaced map[int64][]time.Time
}

func newMockCalendarRepo() *mockCalendarRepo {
	return &mockCalendarRepo{replaced: make(map[int64][]time.Time)}
}

func (m *mockCalendarRepo) ReplaceForCabin(_ context.Context, cabinID int64, _ string, dates []time.Time, _ time.Time) error {
	m.replaced[cabinID] = dates
	return nil
}

func (m *mockCalendarRepo) ListDates(context.Context, int64) ([]time.Time, error) {
	return m.dates, nil
}

func (m *mockCalendarRepo) HasBlockedInRange(context.Context, int64, time.Time, time.Time) (bool, error) {
	return m.blocked, nil
}

type mockUserRepo struct {
	users map[int64]*domain.User
}

func newMockUserRepo(users ...*domain.User) *mockUserRepo {
	m := &mockUserRepo{users: make(map[int64]*domain.User)}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

func (m *mockUserRepo) Create(_ context.Context, email, name, hash, role string) (*domain.User, error) {
	u := &domain.User{ID: int64(len(m.users) + 1), Email: email, Name: name, PasswordHash: hash, Role: role}
	m.users[u.ID] = u
	return u, nil
}

func (m *mockUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (m *mockUserRepo) FindByID(_ context.Context, id int64) (*domain.User, error) {
	return m.users[id], nil
}

func (m *mockUserRepo) AcceptTerms(_ context.Context, id int64) error {
	if u := m.users[id]; u != nil {
		u.TermsAccepted = true
	}
	return nil
}

type mockStripeRepo struct {
	accounts map[int64]*domain.HostStripeAccount
}

func newMockStripeRepo(accounts ...*domain.HostStripeAccount) *mockStripeRepo {
	m := &mockStripeRepo{accounts: make(map[int64]*domain.HostStripeAccount)}
	for _, a := range accounts {
		m.accounts[a.UserID] = a
	}
	return m
}

func (m *mockStripeRepo) Create(_ context.Context, acct *domain.HostStripeAccount) (*domain.HostStripeAccount, error) {
	m.accounts[acct.UserID] = acct
	return acct, nil
}

func (m *mockStripeRepo) GetByUserID(_ context.Context, userID int64) (*domain.HostStripeAccount, error) {
	return m.accounts[userID], nil
}

func (m *mockStripeRepo) UpdateStatus(_ context.Context, userID int64, charges, payouts, onboarding bool) (*domain.HostStripeAccount, error) {
	a := m.accounts[userID]
	if a == nil {
		return nil, nil
	}
	a.ChargesEnabled = charges
	a.PayoutsEnabled = payouts
	a.OnboardingCompleted = onboarding
	return a, nil
}

type mockGateway struct {
	lastCheckout stripegw.CheckoutParams
	checkoutErr  error
	status       stripegw.AccountStatus
}

func (m *mockGateway) CreateAccount(domain.StripeAccountType, string, string) (string, error) {
	return "acct_test", nil
}

func (m *mockGateway) OnboardingLink(string, string, string) (string, error) {
	return "https://connect.stripe.com/setup/test", nil
}

func (m *mockGateway) AccountStatus(string) (stripegw.AccountStatus, error) {
	return m.status, nil
}

func (m *mockGateway) CreateCheckout(p stripegw.CheckoutParams) (stripegw.CheckoutResult, error) {
	if m.checkoutErr != nil {
		return stripegw.CheckoutResult{}, m.checkoutErr
	}
	m.lastCheckout = p
	return stripegw.CheckoutResult{SessionID: "cs_test", CheckoutURL: "https://checkout.stripe.com/test"}, nil
}

func testConfig() *config.Config {
	cfg := config.Load()
	cfg.Platform.FeePercent = 0.07
	cfg.Platform.AnonymousMarkup = 0.07
	cfg.Platform.RequestExpiry = 24 * time.Hour
	return cfg
}
