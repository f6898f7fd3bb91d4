package http

import (
	"net/http"
	"time"

	"brainbuster-service/internal/app"
	"brainbuster-service/internal/auth"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterConfig carries everything the HTTP surface needs.
type RouterConfig struct {
	Games          *app.GameService
	Questions      *app.QuestionService
	Users          *app.UserService
	Tokens         *auth.Tokens
	CORSOrigins    []string
	RequestTimeout time.Duration
}

// NewRouter builds the chi router. The websocket route sits outside the request timeout.
func NewRouter(cfg RouterConfig) http.Handler {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	optional := auth.Middleware(cfg.Tokens, false)
	required := auth.Middleware(cfg.Tokens, true)

	r.With(optional).Get("/ws/sessions/{sessionID}", NewWSHandler(cfg.Games).ServeWS)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(cfg.RequestTimeout))

		games := NewGameHandler(cfg.Games)
		r.With(optional).Route("/api/sp/sessions", games.Routes)

		users := NewUserHandler(cfg.Users)
		r.Route("/api/auth", users.AuthRoutes)
		r.With(required).Route("/api/users", users.UserRoutes)
		r.With(required).Route("/api/admin", users.AdminRoutes)

		r.With(required).Route("/api/questions", NewQuestionHandler(cfg.Questions).Routes)
	})
	return r
}
