package service

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/naodludzie/backend/internal/domain"
	"github.com/naodludzie/backend/internal/repo/postgres"
	"github.com/naodludzie/backend/pkg/config"
	"github.com/naodludzie/backend/pkg/events"
	"github.com/naodludzie/backend/pkg/logger"
)

type CabinService interface {
	Create(ctx context.Context, ownerID int64, cabin *domain.Cabin) (*domain.Cabin, error)
	Update(ctx context.Context, ownerID int64, cabin *domain.Cabin) (*domain.Cabin, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Cabin, error)
	GetForOwner(ctx context.Context, ownerID, cabinID int64) (*domain.Cabin, error)
	ListActive(ctx context.Context, filter postgres.ListCabinsFilter) ([]domain.Cabin, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]domain.Cabin, error)
	Review(ctx context.Context, cabinID int64, approve bool, reason string) (*domain.Cabin, error)
	ExpireStale(ctx context.Context, now time.Time) (int, error)
	OptimizeImage(ctx context.Context, ownerID, cabinID int64, imageURL string) (string, error)
}

type cabinService struct {
	cabinRepo postgres.CabinRepository
	userRepo  postgres.UserRepository
	eventBus  events.Publisher
	cfg       *config.Config
}

func NewCabinService(
	cabinRepo postgres.CabinRepository,
	userRepo postgres.UserRepository,
	eventBus events.Publisher,
	cfg *config.Config,
) CabinService {
	return &cabinService{
		cabinRepo: cabinRepo,
		userRepo:  userRepo,
		eventBus:  eventBus,
		cfg:       cfg,
	}
}

func (s *cabinService) Create(ctx context.Context, ownerID int64, cabin *domain.Cabin) (*domain.Cabin, error) {
	if err := validateCabin(cabin); err != nil {
		return nil, err
	}

	slug, err := s.uniqueSlug(ctx, cabin.Title)
	if err != nil {
		return nil, err
	}
	cabin.Slug = slug
	cabin.OwnerID = ownerID

	created, err := s.cabinRepo.Create(ctx, cabin)
	if err != nil {
		return nil, fmt.Errorf("failed to create cabin: %w", err)
	}
	return created, nil
}

func (s *cabinService) Update(ctx context.Context, ownerID int64, cabin *domain.Cabin) (*domain.Cabin, error) {
	existing, err := s.cabinRepo.GetByID(ctx, cabin.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cabin: %w", err)
	}
	if existing == nil {
		return nil, fmt.Errorf("%w: cabin %d", domain.ErrNotFound, cabin.ID)
	}
	if existing.OwnerID != ownerID {
		return nil, fmt.Errorf("%w: not the cabin owner", domain.ErrAuthorization)
	}

	if err := validateCabin(cabin); err != nil {
		return nil, err
	}

	updated, err := s.cabinRepo.Update(ctx, cabin)
	if err != nil {
		return nil, fmt.Errorf("failed to update cabin: %w", err)
	}
	return updated, nil
}

func validateCabin(c *domain.Cabin) error {
	if strings.TrimSpace(c.Title) == "" {
		return fmt.Errorf("%w: title is required", domain.ErrValidation)
	}
	if c.PricePerNight <= 0 {
		return fmt.Errorf("%w: price per night must be positive", domain.ErrValidation)
	}
	if c.MaxGuests < 1 {
		return fmt.Errorf("%w: max guests must be at least 1", domain.ErrValidation)
	}
	if c.MinNights < 1 {
		c.MinNights = 1
	}

	mains := 0
	for _, img := range c.Images {
		if img.IsMain {
			mains++
		}
	}
	if mains > 1 {
		return fmt.Errorf("%w: at most one image may be flagged main", domain.ErrValidation)
	}

	for _, score := range []int{c.OffGrid.LightPollution, c.OffGrid.BuildingDensity, c.OffGrid.RoadDensity, c.OffGrid.NeighborsDist} {
		if score < 0 || score > 10 {
			return fmt.Errorf("%w: off-grid scores must be between 0 and 10", domain.ErrValidation)
		}
	}

	for _, fee := range c.ExtraFees {
		if fee.Unit != domain.FeePerDay && fee.Unit != domain.FeeOneTime {
			return fmt.Errorf("%w: fee unit must be per_day or one_time", domain.ErrValidation)
		}
		if fee.Amount < 0 {
			return fmt.Errorf("%w: fee amount cannot be negative", domain.ErrValidation)
		}
	}

	return nil
}

var slugStrip = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases a title, transliterates Polish diacritics and keeps
// the result URL-safe.
func Slugify(title string) string {
	replacer := strings.NewReplacer(
		"ą", "a", "ć", "c", "ę", "e", "ł", "l", "ń", "n",
		"ó", "o", "ś", "s", "ź", "z", "ż", "z",
	)
	slug := replacer.Replace(strings.ToLower(title))
	slug = slugStrip.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		slug = "cabin"
	}
	return slug
}

func (s *cabinService) uniqueSlug(ctx context.Context, title string) (string, error) {
	base := Slugify(title)
	slug := base
	for i := 2; ; i++ {
		exists, err := s.cabinRepo.SlugExists(ctx, slug)
		if err != nil {
			return "", fmt.Errorf("failed to check slug: %w", err)
		}
		if !exists {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
}

func (s *cabinService) GetBySlug(ctx context.Context, slug string) (*domain.Cabin, error) {
	cabin, err := s.cabinRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("failed to load cabin: %w", err)
	}
	if cabin == nil {
		return nil, fmt.Errorf("%w: cabin %q", domain.ErrNotFound, slug)
	}
	return cabin, nil
}

func (s *cabinService) GetForOwner(ctx context.Context, ownerID, cabinID int64) (*domain.Cabin, error) {
	cabin, err := s.cabinRepo.GetByID(ctx, cabinID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cabin: %w", err)
	}
	if cabin == nil {
		return nil, fmt.Errorf("%w: cabin %d", domain.ErrNotFound, cabinID)
	}
	if cabin.OwnerID != ownerID {
		return nil, fmt.Errorf("%w: not the cabin owner", domain.ErrAuthorization)
	}
	return cabin, nil
}

func (s *cabinService) ListActive(ctx context.Context, filter postgres.ListCabinsFilter) ([]domain.Cabin, error) {
	return s.cabinRepo.ListActive(ctx, filter)
}

func (s *cabinService) ListByOwner(ctx context.Context, ownerID int64) ([]domain.Cabin, error) {
	return s.cabinRepo.ListByOwner(ctx, ownerID)
}

// Review is the admin decision on a pending listing. Activation opens the
// 60-day visibility window.
func (s *cabinService) Review(ctx context.Context, cabinID int64, approve bool, reason string) (*domain.Cabin, error) {
	to := domain.CabinRejected
	var expiresAt *time.Time
	if approve {
		to = domain.CabinActive
		t := time.Now().Add(s.cfg.Platform.ListingActiveWindow)
		expiresAt = &t
	}

	cabin, err := s.cabinRepo.UpdateStatus(ctx, cabinID, domain.CabinPending, to, expiresAt)
	if err != nil {
		return nil, fmt.Errorf("failed to update cabin status: %w", err)
	}
	if cabin == nil {
		return nil, fmt.Errorf("%w: cabin is not awaiting review", domain.ErrInvalidState)
	}

	s.publishStatusChange(ctx, cabin, reason)
	return cabin, nil
}

// ExpireStale demotes active listings past their window back to pending and
// notifies their hosts. Idempotent across runs.
func (s *cabinService) ExpireStale(ctx context.Context, now time.Time) (int, error) {
	demoted, err := s.cabinRepo.DemoteExpired(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("failed to demote expired cabins: %w", err)
	}

	for i := range demoted {
		s.publishStatusChange(ctx, &demoted[i], "listing visibility window elapsed")
	}

	return len(demoted), nil
}

func (s *cabinService) publishStatusChange(ctx context.Context, cabin *domain.Cabin, reason string) {
	hostEmail := ""
	if host, err := s.userRepo.FindByID(ctx, cabin.OwnerID); err == nil && host != nil {
		hostEmail = host.Email
	}

	event := events.CabinStatusChangedEvent{
		CabinID:    cabin.ID,
		CabinTitle: cabin.Title,
		HostEmail:  hostEmail,
		Status:     string(cabin.Status),
		Reason:     reason,
	}
	if err := s.eventBus.Publish(ctx, events.CabinStatusChanged, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish cabin status event", "error", err, "cabin_id", cabin.ID)
	}
}

// OptimizeImage rewrites one of the cabin's image URLs through the resize
// proxy, which re-encodes to WebP on delivery.
func (s *cabinService) OptimizeImage(ctx context.Context, ownerID, cabinID int64, imageURL string) (string, error) {
	cabin, err := s.GetForOwner(ctx, ownerID, cabinID)
	if err != nil {
		return "", err
	}

	found := false
	optimized := s.cfg.Platform.ImageProxyURL + "/?url=" + url.QueryEscape(imageURL) + "&output=webp&q=80"
	for i, img := range cabin.Images {
		if img.URL == imageURL {
			cabin.Images[i].URL = optimized
			found = true
			break
		}
	}
	if !found {
		return "", fmt.Errorf("%w: image not attached to this cabin", domain.ErrNotFound)
	}

	if err := s.cabinRepo.SetImages(ctx, cabinID, cabin.Images); err != nil {
		return "", fmt.Errorf("failed to store optimized image: %w", err)
	}
	return optimized, nil
}
