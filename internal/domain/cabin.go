package domain

import "time"

type CabinStatus string

const (
	CabinPending  CabinStatus = "pending"
	CabinActive   CabinStatus = "active"
	CabinRejected CabinStatus = "rejected"
)

func ParseCabinStatus(s string) (CabinStatus, bool) {
	switch CabinStatus(s) {
	case CabinPending, CabinActive, CabinRejected:
		return CabinStatus(s), true
	default:
		return "", false
	}
}

type FeeUnit string

const (
	FeePerDay  FeeUnit = "per_day"
	FeeOneTime FeeUnit = "one_time"
)

// ExtraFee is an optional charge attached to a cabin, e.g. firewood or
// bed linen. Stored as an ordered jsonb list on the cabin row.
type ExtraFee struct {
	Name    string  `json:"name"`
	Amount  float64 `json:"amount"`
	Unit    FeeUnit `json:"unit"`
	Enabled bool    `json:"enabled"`
}

type CabinImage struct {
	URL    string `json:"url"`
	IsMain bool   `json:"is_main"`
}

// OffGridScore holds the four host-assigned 1-10 sub-scores. Total is
// derived, never stored independently.
type OffGridScore struct {
	LightPollution  int `json:"light_pollution"`
	BuildingDensity int `json:"building_density"`
	RoadDensity     int `json:"road_density"`
	NeighborsDist   int `json:"neighbors_distance"`
}

// Total averages the sub-scores, truncated to one decimal.
func (s OffGridScore) Total() float64 {
	sum := s.LightPollution + s.BuildingDensity + s.RoadDensity + s.NeighborsDist
	return float64(sum*10/4) / 10
}

type Cabin struct {
	ID          int64  `json:"id"`
	Slug        string `json:"slug"`
	OwnerID     int64  `json:"owner_id"`
	Title       string `json:"title"`
	Description string `json:"description"`

	Address     string  `json:"address"`
	Voivodeship string  `json:"voivodeship"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`

	PricePerNight float64 `json:"price_per_night"`
	MinNights     int     `json:"min_nights"`
	MaxGuests     int     `json:"max_guests"`
	Bedrooms      int     `json:"bedrooms"`
	Bathrooms     int     `json:"bathrooms"`
	AreaM2        int     `json:"area_m2"`

	Amenities []string     `json:"amenities"`
	Category  string       `json:"category"`
	ExtraFees []ExtraFee   `json:"extra_fees"`
	Images    []CabinImage `json:"images"`
	OffGrid   OffGridScore `json:"off_grid"`

	Status     CabinStatus `json:"status"`
	ExpiresAt  *time.Time  `json:"expires_at,omitempty"`
	IsFeatured bool        `json:"is_featured"`

	ICalURL         string      `json:"ical_url,omitempty"`
	LastICalSync    *time.Time  `json:"last_ical_sync,omitempty"`
	LastMinuteDates []time.Time `json:"last_minute_dates,omitempty"`

	OnlinePaymentsEnabled    bool `json:"online_payments_enabled"`
	VerificationTransferSent bool `json:"verification_transfer_sent"`
	ManualPaymentVerified    bool `json:"manual_payment_verified"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MainImage returns the URL of the image flagged main, or the first image.
func (c *Cabin) MainImage() string {
	for _, img := range c.Images {
		if img.IsMain {
			return img.URL
		}
	}
	if len(c.Images) > 0 {
		return c.Images[0].URL
	}
	return ""
}

// EnabledFees filters the fee list down to fees the host switched on.
func (c *Cabin) EnabledFees() []ExtraFee {
	var fees []ExtraFee
	for _, f := range c.ExtraFees {
		if f.Enabled {
			fees = append(fees, f)
		}
	}
	return fees
}
