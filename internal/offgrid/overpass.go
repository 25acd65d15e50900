// Package offgrid computes remoteness scores for a cabin location from
// OpenStreetMap data queried through the Overpass API.
package offgrid

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/naodludzie/backend/internal/domain"
)

type Scorer interface {
	Score(ctx context.Context, lat, lng float64) (domain.OffGridScore, error)
}

type overpassScorer struct {
	client  *http.Client
	baseURL string
}

func NewScorer(baseURL string, timeout time.Duration) Scorer {
	return &overpassScorer{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

type overpassResponse struct {
	Elements []struct {
		Type string  `json:"type"`
		Lat  float64 `json:"lat"`
		Lon  float64 `json:"lon"`
		Center *struct {
			Lat float64 `json:"lat"`
			Lon float64 `json:"lon"`
		} `json:"center"`
	} `json:"elements"`
}

type queryResult struct {
	kind     string
	elements overpassResponse
	err      error
}

// Score runs the three Overpass counts concurrently and derives the four
// subscores. Light pollution is approximated from building density since
// no satellite layer is queried here.
func (s *overpassScorer) Score(ctx context.Context, lat, lng float64) (domain.OffGridScore, error) {
	queries := map[string]string{
		"buildings": fmt.Sprintf(
			`[out:json][timeout:12];(way["building"](around:1000,%f,%f););out center;`, lat, lng),
		"roads": fmt.Sprintf(
			`[out:json][timeout:12];(way["highway"~"^(motorway|trunk|primary|secondary|tertiary)$"](around:2000,%f,%f););out center;`, lat, lng),
		"neighbors": fmt.Sprintf(
			`[out:json][timeout:12];(way["building"]["building"!="shed"](around:3000,%f,%f););out center;`, lat, lng),
	}

	results := make(chan queryResult, len(queries))
	for kind, query := range queries {
		go func(kind, query string) {
			resp, err := s.run(ctx, query)
			results <- queryResult{kind: kind, elements: resp, err: err}
		}(kind, query)
	}

	byKind := make(map[string]overpassResponse, len(queries))
	for range queries {
		res := <-results
		if res.err != nil {
			return domain.OffGridScore{}, res.err
		}
		byKind[res.kind] = res.elements
	}

	buildings := len(byKind["buildings"].Elements)
	roads := len(byKind["roads"].Elements)
	nearest := nearestDistanceMeters(lat, lng, byKind["neighbors"])

	score := domain.OffGridScore{
		BuildingDensity: densityScore(buildings, 50),
		RoadDensity:     densityScore(roads, 10),
		NeighborsDist:   distanceScore(nearest),
	}
	score.LightPollution = score.BuildingDensity
	return score, nil
}

func (s *overpassScorer) run(ctx context.Context, query string) (overpassResponse, error) {
	var parsed overpassResponse

	body := strings.NewReader(url.Values{"data": {query}}.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL, body)
	if err != nil {
		return parsed, fmt.Errorf("%w: building overpass request: %v", domain.ErrUpstream, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return parsed, fmt.Errorf("%w: overpass query: %v", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return parsed, fmt.Errorf("%w: overpass returned status %d", domain.ErrUpstream, resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return parsed, fmt.Errorf("%w: reading overpass response: %v", domain.ErrUpstream, err)
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return parsed, fmt.Errorf("%w: decoding overpass response: %v", domain.ErrUpstream, err)
	}
	return parsed, nil
}

// densityScore maps a feature count onto 1..10 where 10 means nothing
// around. saturation is the count at which the score bottoms out.
func densityScore(count, saturation int) int {
	if count <= 0 {
		return 10
	}
	if count >= saturation {
		return 1
	}
	score := 10 - int(math.Round(float64(count)/float64(saturation)*9))
	if score < 1 {
		score = 1
	}
	return score
}

// distanceScore maps distance to the nearest neighboring building onto
// 1..10. Anything past 2km counts as fully remote.
func distanceScore(meters float64) int {
	if meters <= 0 {
		return 10 // no neighbors found within the search radius
	}
	if meters >= 2000 {
		return 10
	}
	score := 1 + int(math.Round(meters/2000*9))
	if score > 10 {
		score = 10
	}
	return score
}

func nearestDistanceMeters(lat, lng float64, resp overpassResponse) float64 {
	nearest := -1.0
	for _, el := range resp.Elements {
		elat, elng := el.Lat, el.Lon
		if el.Center != nil {
			elat, elng = el.Center.Lat, el.Center.Lon
		}
		if elat == 0 && elng == 0 {
			continue
		}
		d := haversineMeters(lat, lng, elat, elng)
		if d < 25 {
			continue // the cabin's own building
		}
		if nearest < 0 || d < nearest {
			nearest = d
		}
	}
	return nearest
}

func haversineMeters(lat1, lng1, lat2, lng2 float64) float64 {
	const earthRadius = 6371000.0
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }

	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return earthRadius * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
