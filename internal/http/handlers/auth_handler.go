package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	mw "github.com/naodludzie/backend/internal/http/middleware"
	"github.com/naodludzie/backend/internal/http/response"
	"github.com/naodludzie/backend/internal/service"
)

type AuthHandler struct {
	auth      service.AuthService
	jwtSecret string
}

func NewAuthHandler(auth service.AuthService, jwtSecret string) *AuthHandler {
	return &AuthHandler{auth: auth, jwtSecret: jwtSecret}
}

func (h *AuthHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/register", h.register)
	r.Post("/login", h.login)

	r.Group(func(r chi.Router) {
		r.Use(mw.RequireJWT(h.jwtSecret))
		r.Get("/me", h.me)
		r.Post("/accept-terms", h.acceptTerms)
	})
	return r
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string `json:"email"`
		Name     string `json:"name"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if !decode(r, &in) {
		response.BadRequest(w, "invalid request body")
		return
	}
	if in.Role == "" {
		in.Role = "guest"
	}

	user, token, err := h.auth.Register(r.Context(), in.Email, in.Name, in.Password, in.Role)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"user":         user,
		"access_token": token,
	})
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decode(r, &in) || in.Email == "" || in.Password == "" {
		response.BadRequest(w, "email and password are required")
		return
	}

	user, token, err := h.auth.Login(r.Context(), in.Email, in.Password)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"user":         user,
		"access_token": token,
	})
}

func (h *AuthHandler) me(w http.ResponseWriter, r *http.Request) {
	claims := mw.Claims(r)
	user, err := h.auth.GetUser(r.Context(), claims.Sub)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, user)
}

func (h *AuthHandler) acceptTerms(w http.ResponseWriter, r *http.Request) {
	claims := mw.Claims(r)
	if err := h.auth.AcceptTerms(r.Context(), claims.Sub); err != nil {
		response.FromError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, map[string]string{"message": "terms accepted"})
}
