package acceptance

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"brainbuster-service/internal/client"
	"brainbuster-service/internal/domain"
	"brainbuster-service/internal/testutil"
	"github.com/cucumber/godog"
	"github.com/google/uuid"
)

// scenarioState holds one scenario's server, client and last responses.
type scenarioState struct {
	t        testing.TB
	stack    *testutil.Stack
	client   *client.Client
	created  domain.SessionCreated
	started  domain.QuestionPayload
	current  domain.QuestionPayload
	answer   domain.AnswerResult
	lastErr  error
	accepted int
}

func initializeScenario(t testing.TB, ctx *godog.ScenarioContext) {
	s := &scenarioState{t: t}
	ctx.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		*s = scenarioState{t: t}
		return ctx, nil
	})

	ctx.Step(`^a question bank with (\d+) questions$`, s.givenQuestionBank)
	ctx.Step(`^I am registered as "([^"]+)"$`, s.givenRegistered)
	ctx.Step(`^I create a session with (\d+) questions$`, s.whenCreateSession)
	ctx.Step(`^I start the session$`, s.whenStartSession)
	ctx.Step(`^I answer (correctly|incorrectly)$`, s.whenAnswer)
	ctx.Step(`^(\d+) answers arrive at the same time$`, s.whenConcurrentAnswers)
	ctx.Step(`^I play a session of (\d+) questions with (\d+) correct answers$`, s.whenPlaySession)
	ctx.Step(`^the session has (\d+) questions$`, s.thenSessionHas)
	ctx.Step(`^the session state is "([^"]+)"$`, s.thenSessionState)
	ctx.Step(`^the current question is number (\d+) of (\d+)$`, s.thenCurrentQuestion)
	ctx.Step(`^the answer is (correct|wrong)$`, s.thenAnswerIs)
	ctx.Step(`^the next question is number (\d+)$`, s.thenNextQuestion)
	ctx.Step(`^the summary shows (\d+) correct answers? out of (\d+)$`, s.thenSummary)
	ctx.Step(`^the summary shows at most (\d+) correct answers? out of (\d+)$`, s.thenSummaryAtMost)
	ctx.Step(`^the request fails with status (\d+)$`, s.thenRequestFails)
	ctx.Step(`^the error reports (\d+) requested and (\d+) available$`, s.thenErrorReports)
	ctx.Step(`^starting again returns the same question$`, s.thenStartIsIdempotent)
	ctx.Step(`^exactly (\d+) answers? (?:is|are) accepted$`, s.thenAccepted)
	ctx.Step(`^every choice id is opaque$`, s.thenChoicesOpaque)
	ctx.Step(`^my high score (?:becomes|stays) (\d+)$`, s.thenHighScore)
}

func (s *scenarioState) givenQuestionBank(n int) error {
	s.stack = testutil.NewStack(s.t, testutil.SampleQuestions(n)...)
	s.client = client.New(s.stack.URL())
	return nil
}

func (s *scenarioState) givenRegistered(username string) error {
	_, err := s.client.Register(context.Background(), username, "secret1")
	return err
}

func (s *scenarioState) whenCreateSession(n int) error {
	s.created, s.lastErr = s.client.CreateSession(context.Background(), domain.CreateSessionRequest{NumQuestions: n})
	return nil
}

func (s *scenarioState) whenStartSession() error {
	res, err := s.client.Start(context.Background(), s.created.SessionID)
	if err != nil {
		return err
	}
	s.started = res.Current
	s.current = res.Current
	return nil
}

func (s *scenarioState) whenAnswer(how string) error {
	choiceID, err := pickChoice(s.current, how == "correctly")
	if err != nil {
		return err
	}
	res, err := s.client.Answer(context.Background(), s.created.SessionID, choiceID)
	s.lastErr = err
	if err != nil {
		return nil
	}
	s.answer = res
	if res.Next != nil {
		s.current = *res.Next
	}
	return nil
}

func (s *scenarioState) whenConcurrentAnswers(n int) error {
	choiceID, err := pickChoice(s.current, true)
	if err != nil {
		return err
	}
	var (
		wg       sync.WaitGroup
		accepted atomic.Int32
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.client.Answer(context.Background(), s.created.SessionID, choiceID); err == nil {
				accepted.Add(1)
			}
		}()
	}
	wg.Wait()
	s.accepted = int(accepted.Load())
	return nil
}

func (s *scenarioState) whenPlaySession(total, correct int) error {
	ctx := context.Background()
	created, err := s.client.CreateSession(ctx, domain.CreateSessionRequest{NumQuestions: total})
	if err != nil {
		return err
	}
	started, err := s.client.Start(ctx, created.SessionID)
	if err != nil {
		return err
	}
	current := started.Current
	for i := 0; i < total; i++ {
		choiceID, err := pickChoice(current, i < correct)
		if err != nil {
			return err
		}
		res, err := s.client.Answer(ctx, created.SessionID, choiceID)
		if err != nil {
			return err
		}
		if res.Next != nil {
			current = *res.Next
		}
	}
	return nil
}

func (s *scenarioState) thenSessionHas(n int) error {
	if s.lastErr != nil {
		return s.lastErr
	}
	if s.created.TotalQuestions != n {
		return fmt.Errorf("expected %d questions, got %d", n, s.created.TotalQuestions)
	}
	return nil
}

func (s *scenarioState) thenSessionState(state string) error {
	summary, err := s.client.Summary(context.Background(), s.created.SessionID)
	if err != nil {
		return err
	}
	if string(summary.State) != state {
		return fmt.Errorf("expected state %s, got %s", state, summary.State)
	}
	return nil
}

func (s *scenarioState) thenCurrentQuestion(number, total int) error {
	if s.current.Index+1 != number || s.current.Total != total {
		return fmt.Errorf("expected question %d of %d, got %d of %d", number, total, s.current.Index+1, s.current.Total)
	}
	return nil
}

func (s *scenarioState) thenAnswerIs(verdict string) error {
	if s.lastErr != nil {
		return s.lastErr
	}
	if s.answer.Correct != (verdict == "correct") {
		return fmt.Errorf("expected answer to be %s", verdict)
	}
	return nil
}

func (s *scenarioState) thenNextQuestion(number int) error {
	if s.answer.NextIndex == nil || *s.answer.NextIndex+1 != number {
		return fmt.Errorf("expected next question %d, got %v", number, s.answer.NextIndex)
	}
	return nil
}

func (s *scenarioState) thenSummary(correct, total int) error {
	summary, err := s.client.Summary(context.Background(), s.created.SessionID)
	if err != nil {
		return err
	}
	if summary.CorrectAnswers != correct || summary.TotalQuestions != total {
		return fmt.Errorf("expected %d/%d, got %d/%d", correct, total, summary.CorrectAnswers, summary.TotalQuestions)
	}
	return nil
}

func (s *scenarioState) thenSummaryAtMost(correct, total int) error {
	summary, err := s.client.Summary(context.Background(), s.created.SessionID)
	if err != nil {
		return err
	}
	if summary.CorrectAnswers > correct || summary.TotalQuestions != total {
		return fmt.Errorf("expected at most %d/%d, got %d/%d", correct, total, summary.CorrectAnswers, summary.TotalQuestions)
	}
	return nil
}

func (s *scenarioState) thenRequestFails(status int) error {
	var apiErr *client.APIError
	if !errors.As(s.lastErr, &apiErr) {
		return fmt.Errorf("expected an API error, got %v", s.lastErr)
	}
	if apiErr.Status != status {
		return fmt.Errorf("expected status %d, got %d", status, apiErr.Status)
	}
	return nil
}

func (s *scenarioState) thenErrorReports(requested, available int) error {
	var apiErr *client.APIError
	if !errors.As(s.lastErr, &apiErr) || apiErr.Requested == nil || apiErr.Available == nil {
		return fmt.Errorf("expected shortfall details, got %v", s.lastErr)
	}
	if *apiErr.Requested != requested || *apiErr.Available != available {
		return fmt.Errorf("expected %d/%d, got %d/%d", requested, available, *apiErr.Requested, *apiErr.Available)
	}
	return nil
}

func (s *scenarioState) thenStartIsIdempotent() error {
	res, err := s.client.Start(context.Background(), s.created.SessionID)
	if err != nil {
		return err
	}
	if res.Current.QuestionID != s.started.QuestionID || res.Current.Index != s.started.Index {
		return fmt.Errorf("start moved the session: %+v", res.Current)
	}
	for i, c := range res.Current.Choices {
		if c != s.started.Choices[i] {
			return fmt.Errorf("choices changed between starts")
		}
	}
	return nil
}

func (s *scenarioState) thenAccepted(n int) error {
	if s.accepted != n {
		return fmt.Errorf("expected %d accepted answers, got %d", n, s.accepted)
	}
	return nil
}

func (s *scenarioState) thenChoicesOpaque() error {
	for _, c := range s.current.Choices {
		if _, err := uuid.Parse(c.ChoiceID); err != nil {
			return fmt.Errorf("choice id %q is not opaque: %v", c.ChoiceID, err)
		}
	}

	resp, err := http.Get(s.stack.URL() + "/api/sp/sessions/" + s.created.SessionID + "/current")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if strings.Contains(strings.ToLower(string(body)), "correct") {
		return fmt.Errorf("question payload leaks correctness: %s", body)
	}
	return nil
}

func (s *scenarioState) thenHighScore(score int) error {
	var last int
	return poll(2*time.Second, func() (bool, error) {
		entry, err := s.client.MyHighScore(context.Background())
		if err != nil {
			return false, err
		}
		last = entry.Score
		return last == score, nil
	}, func() error {
		return fmt.Errorf("expected high score %d, got %d", score, last)
	})
}

// poll retries fn until it succeeds or timeout elapses.
func poll(timeout time.Duration, fn func() (bool, error), onTimeout func() error) error {
	deadline := time.Now().Add(timeout)
	for {
		ok, err := fn()
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		if time.Now().After(deadline) {
			return onTimeout()
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func pickChoice(q domain.QuestionPayload, correct bool) (string, error) {
	prefix := "wrong-"
	if correct {
		prefix = "right-"
	}
	for _, c := range q.Choices {
		if strings.HasPrefix(c.Text, prefix) {
			return c.ChoiceID, nil
		}
	}
	return "", fmt.Errorf("no %q choice in question %d", prefix, q.QuestionID)
}
