package http

import (
	"net/http"

	"brainbuster-service/internal/app"
	"brainbuster-service/internal/auth"
	"brainbuster-service/internal/domain"
	"github.com/go-chi/chi/v5"
)

// QuestionHandler serves the question bank.
type QuestionHandler struct {
	questions *app.QuestionService
}

func NewQuestionHandler(questions *app.QuestionService) *QuestionHandler {
	return &QuestionHandler{questions: questions}
}

// Routes mounts under /api/questions; the caller must already require authentication.
func (h *QuestionHandler) Routes(r chi.Router) {
	r.Get("/search", h.Search)
	r.Get("/{id}", h.Get)
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireRole(domain.RoleAdmin))
		r.Post("/", h.Create)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
	})
}

// Search returns a page when page or size is given, otherwise a plain list.
func (h *QuestionHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.QuestionFilter{
		Category:   q.Get("category"),
		Difficulty: q.Get("difficulty"),
		Type:       q.Get("type"),
		Text:       q.Get("q"),
	}
	sort := q.Get("sort")

	if !q.Has("page") && !q.Has("size") {
		list, err := h.questions.List(r.Context(), filter, sort)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
		return
	}

	page, err := queryInt(r, "page", 0)
	if err != nil {
		writeError(w, err)
		return
	}
	size, err := queryInt(r, "size", app.DefaultPageSize)
	if err != nil {
		writeError(w, err)
		return
	}
	res, err := h.questions.Search(r.Context(), filter, domain.PageRequest{Page: page, Size: size, Sort: sort})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *QuestionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	q, err := h.questions.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (h *QuestionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in domain.Question
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}
	q, err := h.questions.Create(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, q)
}

func (h *QuestionHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	var in domain.Question
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}
	q, err := h.questions.Update(r.Context(), id, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (h *QuestionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.questions.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
