package domain

import "math"

// Quote is the guest-facing price breakdown computed at display time.
// Nothing here is persisted; the charge is recomputed from the listing's
// current price at payment time.
type Quote struct {
	Nights        int     `json:"nights"`
	PricePerNight float64 `json:"price_per_night"`
	NightsTotal   float64 `json:"nights_total"`
	FeesTotal     float64 `json:"fees_total"`
	Total         float64 `json:"total"`
	Anonymous     bool    `json:"anonymous"`
}

// QuotePrice prices a stay of nights nights. Anonymous guests see a
// per-night price inflated by markup and rounded to whole zloty; extra
// fees are charged at face value either way, per-day fees multiplied by
// the night count.
func QuotePrice(cabin *Cabin, nights int, anonymous bool, markup float64) Quote {
	perNight := cabin.PricePerNight
	if anonymous {
		perNight = math.Round(perNight * (1 + markup))
	}

	nightsTotal := perNight * float64(nights)

	var feesTotal float64
	for _, fee := range cabin.EnabledFees() {
		switch fee.Unit {
		case FeePerDay:
			feesTotal += fee.Amount * float64(nights)
		default:
			feesTotal += fee.Amount
		}
	}

	return Quote{
		Nights:        nights,
		PricePerNight: perNight,
		NightsTotal:   nightsTotal,
		FeesTotal:     feesTotal,
		Total:         nightsTotal + feesTotal,
		Anonymous:     anonymous,
	}
}

// ToGrosze converts a zloty amount to minor units.
func ToGrosze(zloty float64) int64 {
	return int64(math.Round(zloty * 100))
}

// ApplicationFee computes the platform's cut of a total, both in grosze.
func ApplicationFee(totalGrosze int64, feePercent float64) int64 {
	return int64(math.Round(float64(totalGrosze) * feePercent))
}
