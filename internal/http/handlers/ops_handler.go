package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/naodludzie/backend/internal/http/response"
	"github.com/naodludzie/backend/internal/service"
	"github.com/naodludzie/backend/pkg/middleware"
)

// OpsHandler exposes the sweep operations to trusted automation behind the
// service-role key. The cron sweeper calls the same service methods; these
// endpoints exist for manual runs and external schedulers.
type OpsHandler struct {
	bookings   service.BookingService
	cabins     service.CabinService
	calendars  service.CalendarService
	serviceKey string
}

func NewOpsHandler(
	bookings service.BookingService,
	cabins service.CabinService,
	calendars service.CalendarService,
	serviceKey string,
) *OpsHandler {
	return &OpsHandler{
		bookings:   bookings,
		cabins:     cabins,
		calendars:  calendars,
		serviceKey: serviceKey,
	}
}

func (h *OpsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.ServiceRole(h.serviceKey))
	r.Post("/bookings/expire", h.expireBookings)
	r.Post("/cabins/expire", h.expireCabins)
	r.Post("/calendars/sync", h.syncCalendars)
	return r
}

func (h *OpsHandler) expireBookings(w http.ResponseWriter, r *http.Request) {
	count, err := h.bookings.ExpireStale(r.Context(), time.Now())
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, map[string]int{"expired": count})
}

func (h *OpsHandler) expireCabins(w http.ResponseWriter, r *http.Request) {
	count, err := h.cabins.ExpireStale(r.Context(), time.Now())
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, map[string]int{"demoted": count})
}

func (h *OpsHandler) syncCalendars(w http.ResponseWriter, r *http.Request) {
	reports, err := h.calendars.SyncAll(r.Context())
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, map[string]interface{}{"reports": reports})
}
