package offgrid

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/naodludzie/backend/internal/domain"
)

func TestDensityScore(t *testing.T) {
	cases := []struct {
		count, saturation, want int
	}{
		{0, 50, 10},
		{50, 50, 1},
		{100, 50, 1},
		{25, 50, 5},
	}
	for _, c := range cases {
		if got := densityScore(c.count, c.saturation); got != c.want {
			t.Errorf("densityScore(%d, %d) = %d, want %d", c.count, c.saturation, got, c.want)
		}
	}
}

func TestDistanceScore(t *testing.T) {
	cases := []struct {
		meters float64
		want   int
	}{
		{-1, 10}, // no neighbors at all
		{2500, 10},
		{100, 1},
		{1000, 6},
	}
	for _, c := range cases {
		if got := distanceScore(c.meters); got != c.want {
			t.Errorf("distanceScore(%v) = %d, want %d", c.meters, got, c.want)
		}
	}
}

func TestHaversine(t *testing.T) {
	// Warsaw Palace of Culture to Old Town is roughly 2.3 km.
	d := haversineMeters(52.2319, 21.0067, 52.2497, 21.0122)
	if d < 2000 || d > 2600 {
		t.Errorf("distance = %v m, expected around 2300", d)
	}
}

func TestScoreFansOutThreeQueries(t *testing.T) {
	var queries atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		queries.Add(1)
		w.Write([]byte(`{"elements":[]}`))
	}))
	defer srv.Close()

	scorer := NewScorer(srv.URL, 2*time.Second)
	score, err := scorer.Score(context.Background(), 52.0, 21.0)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}

	if got := queries.Load(); got != 3 {
		t.Errorf("made %d overpass queries, want 3", got)
	}
	// Empty map data means fully remote on every axis.
	if score.BuildingDensity != 10 || score.RoadDensity != 10 || score.NeighborsDist != 10 {
		t.Errorf("score = %+v, want all 10s", score)
	}
	if score.LightPollution != score.BuildingDensity {
		t.Error("light pollution approximates building density")
	}
}

func TestScoreSurfacesUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	scorer := NewScorer(srv.URL, 2*time.Second)
	if _, err := scorer.Score(context.Background(), 52.0, 21.0); !errors.Is(err, domain.ErrUpstream) {
		t.Errorf("err = %v, want ErrUpstream", err)
	}
}
