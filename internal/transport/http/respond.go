package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"brainbuster-service/internal/auth"
	"brainbuster-service/internal/domain"
)

// errorResponse is the JSON body of every failed request.
type errorResponse struct {
	Status    int    `json:"status"`
	Error     string `json:"error"`
	Message   string `json:"message"`
	Field     string `json:"field,omitempty"`
	Requested *int   `json:"requested,omitempty"`
	Available *int   `json:"available,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}

// statusFor maps domain errors to HTTP statuses. Unknown errors are 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrQuestionNotFound),
		errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInsufficientQuestions):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidCredentials), errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func errorBody(err error) errorResponse {
	status := statusFor(err)
	body := errorResponse{Status: status, Error: http.StatusText(status), Message: err.Error()}
	if status == http.StatusInternalServerError {
		log.Printf("internal error: %v", err)
		body.Message = "internal error"
	}

	var insufficient *domain.InsufficientQuestionsError
	if errors.As(err, &insufficient) {
		body.Requested = &insufficient.Requested
		body.Available = &insufficient.Available
	}
	var invalid *domain.ValidationError
	if errors.As(err, &invalid) {
		body.Field = invalid.Field
	}
	return body
}

func writeError(w http.ResponseWriter, err error) {
	body := errorBody(err)
	writeJSON(w, body.Status, body)
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return domain.Invalid("", "malformed JSON body: "+err.Error())
	}
	return nil
}

func pathID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.Invalid("id", "must be a positive integer")
	}
	return id, nil
}

func queryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.Invalid(name, "must be an integer")
	}
	return n, nil
}
