package app

import (
	"context"
	"time"

	"brainbuster-service/internal/domain"
)

// SessionRepository abstracts where sessions live (in-memory, Redis-tracked, etc).
type SessionRepository interface {
	Add(session *Session)
	Get(id string) (*Session, bool)
}

// FinishListener receives one event per finished session. Implementations must not block.
type FinishListener interface {
	SessionFinished(event domain.SessionFinished)
}

// GameService contains the single-player session use cases.
type GameService struct {
	sessions SessionRepository
	sampler  *Sampler
	shuffler *Shuffler
	listener FinishListener
	newID    func() string
	now      func() time.Time
}

// GameOption customizes a GameService.
type GameOption func(*GameService)

// WithFinishListener registers the consumer of finish events.
func WithFinishListener(l FinishListener) GameOption {
	return func(s *GameService) { s.listener = l }
}

// WithSessionIDs replaces the session id generator.
func WithSessionIDs(newID func() string) GameOption {
	return func(s *GameService) { s.newID = newID }
}

// WithClock is test-only for deterministic timestamps.
func WithClock(now func() time.Time) GameOption {
	return func(s *GameService) { s.now = now }
}

func NewGameService(store SessionRepository, sampler *Sampler, shuffler *Shuffler, opts ...GameOption) *GameService {
	s := &GameService{
		sessions: store,
		sampler:  sampler,
		shuffler: shuffler,
		newID:    NewID,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create samples and shuffles the questions of a new session. Nothing is stored when
// sampling fails.
func (s *GameService) Create(ctx context.Context, req domain.CreateSessionRequest, player string) (domain.SessionCreated, error) {
	if err := req.Validate(); err != nil {
		return domain.SessionCreated{}, err
	}

	picked, err := s.sampler.Sample(ctx, req.Category, req.Difficulty, req.NumQuestions)
	if err != nil {
		return domain.SessionCreated{}, err
	}

	session := NewSessionWithClock(s.newID(), player, s.shuffler.ToSessionQuestions(picked), s.now)
	s.sessions.Add(session)

	return domain.SessionCreated{
		SessionID:      session.ID(),
		State:          domain.StateCreated,
		TotalQuestions: len(picked),
	}, nil
}

// Start moves a created session to RUNNING; on a running session it returns the current
// question without touching progress.
func (s *GameService) Start(_ context.Context, id string) (domain.StartResult, error) {
	session, err := s.get(id)
	if err != nil {
		return domain.StartResult{}, err
	}
	payload, err := session.start()
	if err != nil {
		return domain.StartResult{}, err
	}
	return domain.StartResult{State: domain.StateRunning, Current: payload}, nil
}

// Current returns the question awaiting an answer.
func (s *GameService) Current(_ context.Context, id string) (domain.QuestionPayload, error) {
	session, err := s.get(id)
	if err != nil {
		return domain.QuestionPayload{}, err
	}
	return session.currentQuestion()
}

// Answer scores the current question once and advances the session.
func (s *GameService) Answer(_ context.Context, id, choiceID string) (domain.AnswerResult, error) {
	session, err := s.get(id)
	if err != nil {
		return domain.AnswerResult{}, err
	}

	result, finished, err := session.answer(choiceID)
	if err != nil {
		return domain.AnswerResult{}, err
	}
	if finished != nil && s.listener != nil {
		s.listener.SessionFinished(*finished)
	}
	return result, nil
}

// Summary returns a snapshot of the session.
func (s *GameService) Summary(_ context.Context, id string) (domain.SessionSummary, error) {
	session, err := s.get(id)
	if err != nil {
		return domain.SessionSummary{}, err
	}
	return session.summary(), nil
}

func (s *GameService) get(id string) (*Session, error) {
	session, ok := s.sessions.Get(id)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}
