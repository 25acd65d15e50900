package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/naodludzie/backend/internal/domain"
	mw "github.com/naodludzie/backend/internal/http/middleware"
	"github.com/naodludzie/backend/internal/http/response"
	"github.com/naodludzie/backend/internal/offgrid"
	"github.com/naodludzie/backend/internal/repo/postgres"
	"github.com/naodludzie/backend/internal/service"
	"github.com/naodludzie/backend/pkg/auth"
)

type CabinsHandler struct {
	cabins    service.CabinService
	bookings  service.BookingService
	calendars service.CalendarService
	scorer    offgrid.Scorer
	jwtSecret string
}

func NewCabinsHandler(
	cabins service.CabinService,
	bookings service.BookingService,
	calendars service.CalendarService,
	scorer offgrid.Scorer,
	jwtSecret string,
) *CabinsHandler {
	return &CabinsHandler{
		cabins:    cabins,
		bookings:  bookings,
		calendars: calendars,
		scorer:    scorer,
		jwtSecret: jwtSecret,
	}
}

func (h *CabinsHandler) Routes() chi.Router {
	r := chi.NewRouter()

	// Public catalogue
	r.Get("/", h.list)
	r.Get("/{slug}", h.getBySlug)
	r.Get("/{slug}/blocked-dates", h.blockedDates)
	r.With(mw.OptionalJWT(h.jwtSecret)).Get("/{slug}/quote", h.quote)

	// Host management
	r.Group(func(r chi.Router) {
		r.Use(mw.RequireJWT(h.jwtSecret), mw.RequireRole(auth.RoleHost, auth.RoleAdmin))
		r.Post("/", h.create)
		r.Get("/mine", h.listMine)
		r.Put("/{id}", h.update)
		r.Post("/{id}/calendar/test", h.testFeed)
		r.Post("/{id}/calendar/sync", h.syncFeed)
		r.Post("/{id}/offgrid-score", h.computeOffGrid)
		r.Post("/{id}/images/optimize", h.optimizeImage)
	})

	// Admin review
	r.Group(func(r chi.Router) {
		r.Use(mw.RequireJWT(h.jwtSecret), mw.RequireRole(auth.RoleAdmin))
		r.Post("/{id}/review", h.review)
	})

	return r
}

func (h *CabinsHandler) list(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)
	q := r.URL.Query()
	maxGuests, _ := strconv.Atoi(q.Get("guests"))

	filter := postgres.ListCabinsFilter{
		Voivodeship:    q.Get("voivodeship"),
		Category:       q.Get("category"),
		FeaturedOnly:   q.Get("featured") == "true",
		LastMinuteOnly: q.Get("last_minute") == "true",
		MaxGuests:      maxGuests,
		Limit:          limit,
		Offset:         offset,
	}

	cabins, err := h.cabins.ListActive(r.Context(), filter)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, map[string]interface{}{"cabins": cabins})
}

func (h *CabinsHandler) getBySlug(w http.ResponseWriter, r *http.Request) {
	cabin, ok := h.activeBySlug(w, r)
	if !ok {
		return
	}
	response.WriteJSON(w, http.StatusOK, cabin)
}

// activeBySlug resolves the slug on the public routes. Pending and rejected
// listings are indistinguishable from missing ones.
func (h *CabinsHandler) activeBySlug(w http.ResponseWriter, r *http.Request) (*domain.Cabin, bool) {
	cabin, err := h.cabins.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		response.FromError(w, err)
		return nil, false
	}
	if cabin.Status != domain.CabinActive {
		response.NotFound(w, "cabin not found")
		return nil, false
	}
	return cabin, true
}

func (h *CabinsHandler) blockedDates(w http.ResponseWriter, r *http.Request) {
	cabin, ok := h.activeBySlug(w, r)
	if !ok {
		return
	}

	dates, err := h.bookings.BlockedDates(r.Context(), cabin.ID)
	if err != nil {
		response.FromError(w, err)
		return
	}
	writeDates(w, dates)
}

// quote prices a stay without creating anything. Anonymous callers see the
// marked-up nightly rate.
func (h *CabinsHandler) quote(w http.ResponseWriter, r *http.Request) {
	cabin, ok := h.activeBySlug(w, r)
	if !ok {
		return
	}

	start, okStart := parseDate(r.URL.Query().Get("start"))
	end, okEnd := parseDate(r.URL.Query().Get("end"))
	if !okStart || !okEnd {
		response.BadRequest(w, "start and end must be YYYY-MM-DD dates")
		return
	}

	quote, err := h.bookings.Quote(r.Context(), cabin.ID, start, end, mw.Claims(r) != nil)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, quote)
}

func (h *CabinsHandler) create(w http.ResponseWriter, r *http.Request) {
	var in domain.Cabin
	if !decode(r, &in) {
		response.BadRequest(w, "invalid request body")
		return
	}

	claims := mw.Claims(r)
	cabin, err := h.cabins.Create(r.Context(), claims.Sub, &in)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusCreated, cabin)
}

func (h *CabinsHandler) listMine(w http.ResponseWriter, r *http.Request) {
	claims := mw.Claims(r)
	cabins, err := h.cabins.ListByOwner(r.Context(), claims.Sub)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, map[string]interface{}{"cabins": cabins})
}

func (h *CabinsHandler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		response.BadRequest(w, "invalid cabin id")
		return
	}

	var in domain.Cabin
	if !decode(r, &in) {
		response.BadRequest(w, "invalid request body")
		return
	}
	in.ID = id

	claims := mw.Claims(r)
	cabin, err := h.cabins.Update(r.Context(), claims.Sub, &in)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, cabin)
}

// testFeed dry-runs an iCal URL before the host saves it. Always 200; the
// verdict is in the body.
func (h *CabinsHandler) testFeed(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		response.BadRequest(w, "invalid cabin id")
		return
	}

	claims := mw.Claims(r)
	if _, err := h.cabins.GetForOwner(r.Context(), claims.Sub, id); err != nil {
		response.FromError(w, err)
		return
	}

	var in struct {
		URL string `json:"url"`
	}
	if !decode(r, &in) || in.URL == "" {
		response.BadRequest(w, "feed url is required")
		return
	}

	response.WriteJSON(w, http.StatusOK, h.calendars.TestFeed(r.Context(), in.URL))
}

func (h *CabinsHandler) syncFeed(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		response.BadRequest(w, "invalid cabin id")
		return
	}

	claims := mw.Claims(r)
	if _, err := h.cabins.GetForOwner(r.Context(), claims.Sub, id); err != nil {
		response.FromError(w, err)
		return
	}

	dates, err := h.calendars.SyncOne(r.Context(), id)
	if err != nil {
		response.FromError(w, err)
		return
	}
	writeDates(w, dates)
}

func (h *CabinsHandler) computeOffGrid(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		response.BadRequest(w, "invalid cabin id")
		return
	}

	claims := mw.Claims(r)
	cabin, err := h.cabins.GetForOwner(r.Context(), claims.Sub, id)
	if err != nil {
		response.FromError(w, err)
		return
	}
	if cabin.Lat == 0 && cabin.Lon == 0 {
		response.BadRequest(w, "cabin has no coordinates")
		return
	}

	score, err := h.scorer.Score(r.Context(), cabin.Lat, cabin.Lon)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"off_grid": score,
		"total":    score.Total(),
	})
}

func (h *CabinsHandler) optimizeImage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		response.BadRequest(w, "invalid cabin id")
		return
	}

	var in struct {
		URL string `json:"url"`
	}
	if !decode(r, &in) || in.URL == "" {
		response.BadRequest(w, "image url is required")
		return
	}

	claims := mw.Claims(r)
	optimized, err := h.cabins.OptimizeImage(r.Context(), claims.Sub, id, in.URL)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, map[string]string{"url": optimized})
}

func (h *CabinsHandler) review(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		response.BadRequest(w, "invalid cabin id")
		return
	}

	var in struct {
		Approve bool   `json:"approve"`
		Reason  string `json:"reason"`
	}
	if !decode(r, &in) {
		response.BadRequest(w, "invalid request body")
		return
	}

	cabin, err := h.cabins.Review(r.Context(), id, in.Approve, in.Reason)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, cabin)
}
