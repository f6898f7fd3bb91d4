package testutil

import (
	"context"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"brainbuster-service/internal/app"
	"brainbuster-service/internal/auth"
	"brainbuster-service/internal/domain"
	"brainbuster-service/internal/infra/memory"
	transport "brainbuster-service/internal/transport/http"
)

// Stack is a fully wired in-memory service behind an httptest server.
type Stack struct {
	Server    *httptest.Server
	Games     *app.GameService
	Questions *app.QuestionService
	Users     *app.UserService
	UserStore *memory.UserStore
	Sessions  *memory.SessionStore
	Tokens    *auth.Tokens
}

// URL returns the base URL of the test server.
func (s *Stack) URL() string { return s.Server.URL }

// NewStack seeds the given questions, creates an admin "admin"/"admin123" and starts the
// score reporter. Everything is torn down with the test.
func NewStack(t testing.TB, questions ...domain.Question) *Stack {
	t.Helper()

	questionStore := memory.NewQuestionStore()
	cache := memory.NewQuestionCache(questionStore, time.Minute)
	questionSvc := app.NewQuestionService(questionStore, cache)
	if _, err := questionSvc.Seed(context.Background(), questions); err != nil {
		t.Fatalf("seed questions: %v", err)
	}

	users := memory.NewUserStore()
	tokens := auth.NewTokens("test-secret", time.Hour, 24*time.Hour)
	userSvc := app.NewUserService(users, auth.NewHasher(4), tokens)
	if err := userSvc.EnsureAdmin(context.Background(), "admin", "admin123"); err != nil {
		t.Fatalf("ensure admin: %v", err)
	}

	reporter := app.NewScoreReporter(users, 0)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = reporter.Run(ctx)
	}()

	rnd := app.NewRand(42)
	sessions := memory.NewSessionStore()
	games := app.NewGameService(
		sessions,
		app.NewSampler(cache, rnd, app.DefaultPoolSize),
		app.NewShuffler(rnd, nil),
		app.WithFinishListener(reporter),
	)

	server := httptest.NewServer(transport.NewRouter(transport.RouterConfig{
		Games:     games,
		Questions: questionSvc,
		Users:     userSvc,
		Tokens:    tokens,
	}))
	t.Cleanup(func() {
		server.Close()
		cancel()
		<-done
	})

	return &Stack{
		Server:    server,
		Games:     games,
		Questions: questionSvc,
		Users:     userSvc,
		UserStore: users,
		Sessions:  sessions,
		Tokens:    tokens,
	}
}

// SampleQuestions returns n distinct valid questions in category "General", difficulty
// "easy". Question i has correct answer "right-i".
func SampleQuestions(n int) []domain.Question {
	qs := make([]domain.Question, 0, n)
	for i := 1; i <= n; i++ {
		qs = append(qs, Question(i, "General", "easy"))
	}
	return qs
}

// Question builds a multiple-choice question numbered i.
func Question(i int, category, difficulty string) domain.Question {
	n := strconv.Itoa(i)
	return domain.Question{
		Type:             "multiple",
		Difficulty:       difficulty,
		Category:         category,
		Question:         "Question " + n + "?",
		CorrectAnswer:    "right-" + n,
		IncorrectAnswers: []string{"wrong-" + n + "-a", "wrong-" + n + "-b", "wrong-" + n + "-c"},
	}
}
