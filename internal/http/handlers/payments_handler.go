package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/naodludzie/backend/internal/domain"
	mw "github.com/naodludzie/backend/internal/http/middleware"
	"github.com/naodludzie/backend/internal/http/response"
	"github.com/naodludzie/backend/internal/service"
	"github.com/naodludzie/backend/pkg/auth"
)

type PaymentsHandler struct {
	payments  service.PaymentService
	jwtSecret string
}

func NewPaymentsHandler(payments service.PaymentService, jwtSecret string) *PaymentsHandler {
	return &PaymentsHandler{payments: payments, jwtSecret: jwtSecret}
}

func (h *PaymentsHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(mw.RequireJWT(h.jwtSecret), mw.RequireRole(auth.RoleHost, auth.RoleAdmin))
		r.Post("/onboarding", h.startOnboarding)
		r.Post("/account/refresh", h.refreshAccount)
		r.Get("/manual/instructions", h.verificationInstructions)
		r.Post("/manual/{cabinID}/transfer-sent", h.markTransferSent)
		r.Post("/cabins/{cabinID}/online", h.setOnlinePayments)
	})

	r.Group(func(r chi.Router) {
		r.Use(mw.RequireJWT(h.jwtSecret))
		r.Post("/checkout/{requestID}", h.createCheckout)
	})

	r.Group(func(r chi.Router) {
		r.Use(mw.RequireJWT(h.jwtSecret), mw.RequireRole(auth.RoleAdmin))
		r.Post("/manual/{cabinID}/approve", h.approveManualVerification)
	})

	return r
}

func (h *PaymentsHandler) startOnboarding(w http.ResponseWriter, r *http.Request) {
	var in struct {
		AccountType  string `json:"account_type"`
		BusinessName string `json:"business_name"`
	}
	if !decode(r, &in) {
		response.BadRequest(w, "invalid request body")
		return
	}

	claims := mw.Claims(r)
	url, err := h.payments.StartOnboarding(r.Context(), claims.Sub, domain.StripeAccountType(in.AccountType), in.BusinessName)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, map[string]string{"onboarding_url": url})
}

func (h *PaymentsHandler) refreshAccount(w http.ResponseWriter, r *http.Request) {
	claims := mw.Claims(r)
	acct, err := h.payments.RefreshAccountStatus(r.Context(), claims.Sub)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, acct)
}

func (h *PaymentsHandler) setOnlinePayments(w http.ResponseWriter, r *http.Request) {
	cabinID, ok := pathID(r, "cabinID")
	if !ok {
		response.BadRequest(w, "invalid cabin id")
		return
	}

	var in struct {
		Enabled bool `json:"enabled"`
	}
	if !decode(r, &in) {
		response.BadRequest(w, "invalid request body")
		return
	}

	claims := mw.Claims(r)
	cabin, err := h.payments.SetOnlinePayments(r.Context(), claims.Sub, cabinID, in.Enabled)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, cabin)
}

// createCheckout opens a hosted payment page for an approved request.
func (h *PaymentsHandler) createCheckout(w http.ResponseWriter, r *http.Request) {
	requestID, ok := pathID(r, "requestID")
	if !ok {
		response.BadRequest(w, "invalid request id")
		return
	}

	session, err := h.payments.CreateCheckout(r.Context(), requestID)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusCreated, session)
}

func (h *PaymentsHandler) verificationInstructions(w http.ResponseWriter, r *http.Request) {
	response.WriteJSON(w, http.StatusOK, h.payments.VerificationInstructions())
}

func (h *PaymentsHandler) markTransferSent(w http.ResponseWriter, r *http.Request) {
	cabinID, ok := pathID(r, "cabinID")
	if !ok {
		response.BadRequest(w, "invalid cabin id")
		return
	}

	claims := mw.Claims(r)
	if err := h.payments.MarkVerificationTransferSent(r.Context(), claims.Sub, cabinID); err != nil {
		response.FromError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusAccepted, map[string]string{"message": "verification transfer recorded, awaiting review"})
}

func (h *PaymentsHandler) approveManualVerification(w http.ResponseWriter, r *http.Request) {
	cabinID, ok := pathID(r, "cabinID")
	if !ok {
		response.BadRequest(w, "invalid cabin id")
		return
	}

	cabin, err := h.payments.ApproveManualVerification(r.Context(), cabinID)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, cabin)
}
