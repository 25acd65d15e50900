package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/naodludzie/backend/internal/domain"
	mw "github.com/naodludzie/backend/internal/http/middleware"
	"github.com/naodludzie/backend/internal/http/response"
	"github.com/naodludzie/backend/internal/service"
	"github.com/naodludzie/backend/pkg/auth"
)

type BookingsHandler struct {
	bookings  service.BookingService
	chat      service.ChatService
	jwtSecret string
}

func NewBookingsHandler(bookings service.BookingService, chat service.ChatService, jwtSecret string) *BookingsHandler {
	return &BookingsHandler{bookings: bookings, chat: chat, jwtSecret: jwtSecret}
}

func (h *BookingsHandler) Routes() chi.Router {
	r := chi.NewRouter()

	// Anyone can request; a token upgrades the request to a linked guest.
	r.With(mw.OptionalJWT(h.jwtSecret)).Post("/", h.create)

	r.Group(func(r chi.Router) {
		r.Use(mw.RequireJWT(h.jwtSecret))
		r.Get("/{id}", h.get)
		r.Get("/mine", h.listMine)
		r.Post("/{id}/chat", h.sendMessage)
		r.Get("/{id}/chat", h.listMessages)
	})

	r.Group(func(r chi.Router) {
		r.Use(mw.RequireJWT(h.jwtSecret), mw.RequireRole(auth.RoleHost, auth.RoleAdmin))
		r.Get("/host", h.listForHost)
		r.Post("/{id}/decision", h.decide)
	})

	return r
}

func (h *BookingsHandler) create(w http.ResponseWriter, r *http.Request) {
	var in struct {
		CabinID     int64  `json:"cabin_id"`
		GuestName   string `json:"guest_name"`
		GuestEmail  string `json:"guest_email"`
		StartDate   string `json:"start_date"`
		EndDate     string `json:"end_date"`
		GuestsCount int    `json:"guests_count"`
		Message     string `json:"message"`
	}
	if !decode(r, &in) {
		response.BadRequest(w, "invalid request body")
		return
	}

	start, okStart := parseDate(in.StartDate)
	end, okEnd := parseDate(in.EndDate)
	if !okStart || !okEnd {
		response.BadRequest(w, "start_date and end_date must be YYYY-MM-DD dates")
		return
	}

	req := domain.CreateBookingRequest{
		CabinID:     in.CabinID,
		GuestName:   in.GuestName,
		GuestEmail:  in.GuestEmail,
		StartDate:   start,
		EndDate:     end,
		GuestsCount: in.GuestsCount,
		Message:     in.Message,
	}

	var guestID *int64
	if claims := mw.Claims(r); claims != nil {
		guestID = &claims.Sub
		if req.GuestEmail == "" {
			req.GuestEmail = claims.Email
		}
	}

	booking, err := h.bookings.Create(r.Context(), &req, guestID)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusCreated, booking)
}

func (h *BookingsHandler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		response.BadRequest(w, "invalid request id")
		return
	}

	claims := mw.Claims(r)
	booking, err := h.bookings.GetForParticipant(r.Context(), id, claims.Sub)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, booking)
}

func (h *BookingsHandler) listMine(w http.ResponseWriter, r *http.Request) {
	claims := mw.Claims(r)
	limit, offset := parsePagination(r)

	bookings, err := h.bookings.ListByGuest(r.Context(), claims.Sub, limit, offset)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, map[string]interface{}{"requests": bookings})
}

func (h *BookingsHandler) listForHost(w http.ResponseWriter, r *http.Request) {
	claims := mw.Claims(r)
	limit, offset := parsePagination(r)

	var status *domain.BookingStatus
	if s := r.URL.Query().Get("status"); s != "" {
		parsed, ok := domain.ParseBookingStatus(s)
		if !ok {
			response.BadRequest(w, "unknown status filter")
			return
		}
		status = &parsed
	}

	bookings, err := h.bookings.ListByHost(r.Context(), claims.Sub, limit, offset, status)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, map[string]interface{}{"requests": bookings})
}

// decide moves a pending request to approved or rejected. An approval that
// lost the race to another overlapping approval comes back as a conflict.
func (h *BookingsHandler) decide(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		response.BadRequest(w, "invalid request id")
		return
	}

	var in struct {
		Status  string `json:"status"`
		Comment string `json:"comment"`
	}
	if !decode(r, &in) {
		response.BadRequest(w, "invalid request body")
		return
	}
	status, ok := domain.ParseBookingStatus(in.Status)
	if !ok {
		response.BadRequest(w, "status must be approved or rejected")
		return
	}

	claims := mw.Claims(r)
	booking, err := h.bookings.Transition(r.Context(), id, claims.Sub, status, in.Comment)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, booking)
}

func (h *BookingsHandler) sendMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		response.BadRequest(w, "invalid request id")
		return
	}

	var in struct {
		Message string `json:"message"`
	}
	if !decode(r, &in) {
		response.BadRequest(w, "invalid request body")
		return
	}

	claims := mw.Claims(r)
	msg, err := h.chat.Send(r.Context(), id, claims.Sub, in.Message)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusCreated, msg)
}

func (h *BookingsHandler) listMessages(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		response.BadRequest(w, "invalid request id")
		return
	}

	claims := mw.Claims(r)
	limit, offset := parsePagination(r)
	messages, err := h.chat.List(r.Context(), id, claims.Sub, limit, offset)
	if err != nil {
		response.FromError(w, err)
		return
	}
	if messages == nil {
		messages = []domain.ChatMessage{}
	}
	response.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"messages":   messages,
		"fetched_at": time.Now().UTC(),
	})
}
