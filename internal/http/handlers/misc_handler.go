package handlers

import (
	"fmt"
	"html"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/naodludzie/backend/internal/domain"
	"github.com/naodludzie/backend/internal/http/response"
	"github.com/naodludzie/backend/internal/service"
)

type MiscHandler struct {
	misc    service.MiscService
	cabins  service.CabinService
	baseURL string
}

func NewMiscHandler(misc service.MiscService, cabins service.CabinService, baseURL string) *MiscHandler {
	return &MiscHandler{misc: misc, cabins: cabins, baseURL: baseURL}
}

func (h *MiscHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/contact", h.contact)
	r.Post("/newsletter", h.subscribe)
	r.Get("/og/cabins/{slug}", h.ogCabin)
	return r
}

func (h *MiscHandler) contact(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Name    string `json:"name"`
		Email   string `json:"email"`
		Subject string `json:"subject"`
		Message string `json:"message"`
	}
	if !decode(r, &in) {
		response.BadRequest(w, "invalid request body")
		return
	}

	if err := h.misc.Contact(r.Context(), in.Name, in.Email, in.Subject, in.Message); err != nil {
		response.FromError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusAccepted, map[string]string{"message": "message received"})
}

func (h *MiscHandler) subscribe(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email string `json:"email"`
	}
	if !decode(r, &in) {
		response.BadRequest(w, "invalid request body")
		return
	}

	added, err := h.misc.SubscribeNewsletter(r.Context(), in.Email)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, map[string]bool{"subscribed": true, "new": added})
}

var crawlerMarkers = []string{
	"facebookexternalhit", "twitterbot", "linkedinbot", "whatsapp",
	"telegrambot", "slackbot", "discordbot", "pinterest",
}

func isCrawler(userAgent string) bool {
	ua := strings.ToLower(userAgent)
	for _, marker := range crawlerMarkers {
		if strings.Contains(ua, marker) {
			return true
		}
	}
	return false
}

// ogCabin serves link-preview metadata for a listing: share crawlers get an
// HTML page with og: meta tags, everything else gets the same fields as JSON.
func (h *MiscHandler) ogCabin(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	target := h.baseURL + "/cabins/" + slug

	cabin, err := h.cabins.GetBySlug(r.Context(), slug)
	if err != nil {
		response.FromError(w, err)
		return
	}
	if cabin.Status != domain.CabinActive {
		response.NotFound(w, "cabin not found")
		return
	}

	description := []rune(cabin.Description)
	if len(description) > 200 {
		description = append(description[:200], '…')
	}

	if !isCrawler(r.UserAgent()) {
		response.WriteJSON(w, http.StatusOK, map[string]string{
			"title":       cabin.Title,
			"description": string(description),
			"image":       cabin.MainImage(),
			"url":         target,
		})
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, `<!DOCTYPE html>
<html lang="pl">
<head>
<meta charset="utf-8">
<title>%s | NaOdludzie</title>
<meta property="og:type" content="website">
<meta property="og:title" content="%s">
<meta property="og:description" content="%s">
<meta property="og:image" content="%s">
<meta property="og:url" content="%s">
<meta name="twitter:card" content="summary_large_image">
</head>
<body></body>
</html>
`,
		html.EscapeString(cabin.Title),
		html.EscapeString(cabin.Title),
		html.EscapeString(string(description)),
		html.EscapeString(cabin.MainImage()),
		html.EscapeString(target))
}
