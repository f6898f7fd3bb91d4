package http

import (
	"net/http"

	"brainbuster-service/internal/app"
	"brainbuster-service/internal/auth"
	"brainbuster-service/internal/domain"
	"github.com/go-chi/chi/v5"
)

// UserHandler serves registration, login and high scores.
type UserHandler struct {
	users *app.UserService
}

func NewUserHandler(users *app.UserService) *UserHandler {
	return &UserHandler{users: users}
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type validateRequest struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

// AuthRoutes mounts under /api/auth; all public.
func (h *UserHandler) AuthRoutes(r chi.Router) {
	r.Post("/register", h.Register)
	r.Post("/login", h.Login)
	r.Post("/refresh", h.Refresh)
	r.Post("/validate", h.Validate)
}

// UserRoutes mounts under /api/users; the caller must already require authentication.
func (h *UserHandler) UserRoutes(r chi.Router) {
	r.Get("/me", h.Me)
	r.Get("/me/highscore", h.MyHighScore)
	r.Get("/highscores", h.HighScores)
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireRole(domain.RoleAdmin))
		r.Get("/", h.List)
		r.Delete("/{id}", h.Delete)
	})
}

// AdminRoutes mounts under /api/admin; the caller must already require authentication.
func (h *UserHandler) AdminRoutes(r chi.Router) {
	r.Use(auth.RequireRole(domain.RoleAdmin))
	r.Post("/users", h.CreateAdmin)
}

func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var c credentials
	if err := decodeJSON(r, &c); err != nil {
		writeError(w, err)
		return
	}
	res, err := h.users.Register(r.Context(), c.Username, c.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var c credentials
	if err := decodeJSON(r, &c); err != nil {
		writeError(w, err)
		return
	}
	res, err := h.users.Login(r.Context(), c.Username, c.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *UserHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	res, err := h.users.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *UserHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.users.Validate(r.Context(), req.Token, req.Username))
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	u, err := h.users.Me(r.Context(), auth.UsernameFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *UserHandler) MyHighScore(w http.ResponseWriter, r *http.Request) {
	e, err := h.users.HighScore(r.Context(), auth.UsernameFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (h *UserHandler) HighScores(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 10)
	if err != nil {
		writeError(w, err)
		return
	}
	top, err := h.users.HighScores(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, top)
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.users.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *UserHandler) CreateAdmin(w http.ResponseWriter, r *http.Request) {
	var c credentials
	if err := decodeJSON(r, &c); err != nil {
		writeError(w, err)
		return
	}
	u, err := h.users.CreateAdmin(r.Context(), c.Username, c.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}
