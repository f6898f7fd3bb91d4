package http

import (
	"net/http"
	"strings"

	"brainbuster-service/internal/app"
	"brainbuster-service/internal/auth"
	"brainbuster-service/internal/domain"
	"github.com/go-chi/chi/v5"
)

// GameHandler serves the single-player session API.
type GameHandler struct {
	games *app.GameService
}

func NewGameHandler(games *app.GameService) *GameHandler {
	return &GameHandler{games: games}
}

// Routes mounts under /api/sp/sessions.
func (h *GameHandler) Routes(r chi.Router) {
	r.Post("/", h.Create)
	r.Route("/{sessionID}", func(r chi.Router) {
		r.Get("/", h.Summary)
		r.Post("/start", h.Start)
		r.Get("/current", h.Current)
		r.Post("/answer", h.Answer)
	})
}

// Create binds the session to the authenticated username, if any.
func (h *GameHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	created, err := h.games.Create(r.Context(), req, auth.UsernameFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *GameHandler) Start(w http.ResponseWriter, r *http.Request) {
	res, err := h.games.Start(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *GameHandler) Current(w http.ResponseWriter, r *http.Request) {
	q, err := h.games.Current(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

type answerRequest struct {
	ChoiceID string `json:"choiceId"`
}

func (h *GameHandler) Answer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if strings.TrimSpace(req.ChoiceID) == "" {
		writeError(w, domain.Invalid("choiceId", "must not be blank"))
		return
	}
	res, err := h.games.Answer(r.Context(), chi.URLParam(r, "sessionID"), req.ChoiceID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *GameHandler) Summary(w http.ResponseWriter, r *http.Request) {
	s, err := h.games.Summary(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}
