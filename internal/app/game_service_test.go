package app_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"brainbuster-service/internal/app"
	"brainbuster-service/internal/domain"
	"brainbuster-service/internal/infra/memory"
	"brainbuster-service/internal/testutil"
)

type recordingListener struct {
	mu     sync.Mutex
	events []domain.SessionFinished
}

func (l *recordingListener) SessionFinished(e domain.SessionFinished) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func (l *recordingListener) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.events)
}

func newTestService(n int, opts ...app.GameOption) (*app.GameService, *memory.SessionStore) {
	store := memory.NewSessionStore()
	questions := memory.NewQuestionStore(testutil.SampleQuestions(n)...)
	rnd := app.NewRand(11)
	return app.NewGameService(store, app.NewSampler(questions, rnd, 0), app.NewShuffler(rnd, nil), opts...), store
}

func pick(t *testing.T, q domain.QuestionPayload, prefix string) string {
	t.Helper()
	for _, c := range q.Choices {
		if strings.HasPrefix(c.Text, prefix) {
			return c.ChoiceID
		}
	}
	t.Fatalf("no %q choice in %+v", prefix, q.Choices)
	return ""
}

func TestSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	listener := &recordingListener{}
	clock := testutil.NewFakeClock(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC))
	service, _ := newTestService(3, app.WithFinishListener(listener), app.WithClock(clock.Now), app.WithSessionIDs(func() string { return "s-1" }))

	created, err := service.Create(ctx, domain.CreateSessionRequest{NumQuestions: 2}, "alice")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.SessionID != "s-1" || created.State != domain.StateCreated || created.TotalQuestions != 2 {
		t.Fatalf("unexpected create %+v", created)
	}

	if _, err := service.Current(ctx, "s-1"); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict before start, got %v", err)
	}

	started, err := service.Start(ctx, "s-1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if started.State != domain.StateRunning || started.Current.Index != 0 {
		t.Fatalf("unexpected start %+v", started)
	}

	res, err := service.Answer(ctx, "s-1", pick(t, started.Current, "right-"))
	if err != nil {
		t.Fatalf("answer 1: %v", err)
	}
	if !res.Correct || res.NextIndex == nil || *res.NextIndex != 1 {
		t.Fatalf("unexpected answer 1 %+v", res)
	}

	// restart returns the current question without resetting progress
	again, err := service.Start(ctx, "s-1")
	if err != nil {
		t.Fatalf("restart: %v", err)
	}
	if again.Current.Index != 1 {
		t.Fatalf("expected restart at index 1, got %d", again.Current.Index)
	}

	clock.Advance(time.Minute)
	res, err = service.Answer(ctx, "s-1", pick(t, *res.Next, "wrong-"))
	if err != nil {
		t.Fatalf("answer 2: %v", err)
	}
	if res.Correct || res.State != domain.StateFinished || res.Next != nil || res.NextIndex != nil {
		t.Fatalf("unexpected answer 2 %+v", res)
	}

	if listener.count() != 1 {
		t.Fatalf("expected one finish event, got %d", listener.count())
	}
	event := listener.events[0]
	if event.Username != "alice" || event.CorrectAnswers != 1 || event.Total != 2 || !event.FinishedAt.Equal(clock.Now()) {
		t.Fatalf("unexpected finish event %+v", event)
	}

	if _, err := service.Start(ctx, "s-1"); !errors.Is(err, domain.ErrSessionFinished) {
		t.Fatalf("expected finished conflict, got %v", err)
	}
	if _, err := service.Answer(ctx, "s-1", "any"); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict after finish, got %v", err)
	}
	if listener.count() != 1 {
		t.Fatalf("finish must be emitted once, got %d", listener.count())
	}

	summary, err := service.Summary(ctx, "s-1")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.Answered != 2 || summary.CorrectAnswers != 1 || summary.State != domain.StateFinished {
		t.Fatalf("unexpected summary %+v", summary)
	}
}

func TestUnknownSession(t *testing.T) {
	service, _ := newTestService(1)
	ctx := context.Background()
	if _, err := service.Start(ctx, "nope"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("start: expected not found, got %v", err)
	}
	if _, err := service.Current(ctx, "nope"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("current: expected not found, got %v", err)
	}
	if _, err := service.Answer(ctx, "nope", "c"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("answer: expected not found, got %v", err)
	}
	if _, err := service.Summary(ctx, "nope"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("summary: expected not found, got %v", err)
	}
}

func TestCreateFailuresStoreNothing(t *testing.T) {
	service, store := newTestService(3)
	ctx := context.Background()

	if _, err := service.Create(ctx, domain.CreateSessionRequest{NumQuestions: 5}, ""); !errors.Is(err, domain.ErrInsufficientQuestions) {
		t.Fatalf("expected insufficient questions, got %v", err)
	}
	if _, err := service.Create(ctx, domain.CreateSessionRequest{NumQuestions: 101}, ""); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if store.Count() != 0 {
		t.Fatalf("expected no stored sessions, got %d", store.Count())
	}
}

func TestStartEmptySession(t *testing.T) {
	service, store := newTestService(1)
	store.Add(app.NewSession("empty", "", nil))

	_, err := service.Start(context.Background(), "empty")
	var insufficient *domain.InsufficientQuestionsError
	if !errors.As(err, &insufficient) || insufficient.Requested != 1 || insufficient.Available != 0 {
		t.Fatalf("expected insufficient 1/0, got %v", err)
	}
}

func TestConcurrentAnswersSingleWinner(t *testing.T) {
	listener := &recordingListener{}
	service, _ := newTestService(1, app.WithFinishListener(listener))
	ctx := context.Background()

	created, err := service.Create(ctx, domain.CreateSessionRequest{NumQuestions: 1}, "bob")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	started, err := service.Start(ctx, created.SessionID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	choice := pick(t, started.Current, "right-")

	const workers = 32
	var wg sync.WaitGroup
	var mu sync.Mutex
	wins, conflicts := 0, 0
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := service.Answer(ctx, created.SessionID, choice)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, domain.ErrConflict):
				conflicts++
			default:
				t.Errorf("unexpected error %v", err)
			}
		}()
	}
	wg.Wait()

	if wins != 1 || conflicts != workers-1 {
		t.Fatalf("expected exactly one winner, got wins=%d conflicts=%d", wins, conflicts)
	}
	if listener.count() != 1 {
		t.Fatalf("expected one finish event, got %d", listener.count())
	}
	summary, _ := service.Summary(ctx, created.SessionID)
	if summary.CorrectAnswers != 1 {
		t.Fatalf("expected 1 correct answer, got %d", summary.CorrectAnswers)
	}
}

func TestConcurrentAnswersDoNotSpillIntoNextQuestion(t *testing.T) {
	service, _ := newTestService(3)
	ctx := context.Background()

	created, err := service.Create(ctx, domain.CreateSessionRequest{NumQuestions: 3}, "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	started, err := service.Start(ctx, created.SessionID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	choice := pick(t, started.Current, "right-")

	const workers = 16
	var wg sync.WaitGroup
	var mu sync.Mutex
	wins, answered := 0, 0
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := service.Answer(ctx, created.SessionID, choice)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, domain.ErrAlreadyAnswered):
				answered++
			default:
				t.Errorf("unexpected error %v", err)
			}
		}()
	}
	wg.Wait()

	if wins != 1 || answered != workers-1 {
		t.Fatalf("expected one winner and already-answered conflicts, got wins=%d answered=%d", wins, answered)
	}
	summary, err := service.Summary(ctx, created.SessionID)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.State != domain.StateRunning || summary.CurrentIndex != 1 || summary.Answered != 1 || summary.CorrectAnswers != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}
}

func TestResubmittedChoiceIsRejected(t *testing.T) {
	service, _ := newTestService(2)
	ctx := context.Background()

	created, _ := service.Create(ctx, domain.CreateSessionRequest{NumQuestions: 2}, "")
	started, err := service.Start(ctx, created.SessionID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	first := pick(t, started.Current, "wrong-")
	if _, err := service.Answer(ctx, created.SessionID, first); err != nil {
		t.Fatalf("answer: %v", err)
	}
	if _, err := service.Answer(ctx, created.SessionID, first); !errors.Is(err, domain.ErrAlreadyAnswered) {
		t.Fatalf("expected already answered, got %v", err)
	}

	// an id unknown to the session still counts as a wrong answer on the current question
	res, err := service.Answer(ctx, created.SessionID, "no-such-choice")
	if err != nil {
		t.Fatalf("answer unknown choice: %v", err)
	}
	if res.Correct || res.Index != 1 || res.State != domain.StateFinished {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestPayloadDoesNotAliasSession(t *testing.T) {
	service, _ := newTestService(1)
	ctx := context.Background()
	created, _ := service.Create(ctx, domain.CreateSessionRequest{NumQuestions: 1}, "")
	started, err := service.Start(ctx, created.SessionID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	started.Current.Choices[0].ChoiceID = "tampered"

	current, err := service.Current(ctx, created.SessionID)
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if current.Choices[0].ChoiceID == "tampered" {
		t.Fatalf("payload aliases session state")
	}
}

func TestRunSweeperEvictsIdleSessions(t *testing.T) {
	store := memory.NewSessionStore()
	stale := time.Now().Add(-time.Hour)
	store.Add(app.NewSessionWithClock("stale", "", nil, func() time.Time { return stale }))
	store.Add(app.NewSession("fresh", "", nil))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.RunSweeper(ctx, store, 30*time.Minute, 5*time.Millisecond) }()

	testutil.Eventually(t, 2*time.Second, 5*time.Millisecond, func() bool {
		_, ok := store.Get("stale")
		return !ok
	}, "stale session not evicted")
	if _, ok := store.Get("fresh"); !ok {
		t.Fatalf("fresh session evicted")
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("sweeper: %v", err)
	}
}
