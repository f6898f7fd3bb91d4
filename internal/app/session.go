package app

import (
	"sync"
	"time"

	"brainbuster-service/internal/domain"
)

// Session is one player's run through a fixed sequence of questions. All mutation goes
// through the session mutex, so concurrent calls on one session are serialized while
// different sessions proceed in parallel.
type Session struct {
	id        string
	player    string
	createdAt time.Time
	now       func() time.Time

	mu         sync.Mutex
	state      domain.SessionState
	questions  []SessionQuestion
	current    int
	correct    int
	lastAccess time.Time
}

// NewSession is exported for infrastructure layers and tests that need to seed sessions.
func NewSession(id, player string, questions []SessionQuestion) *Session {
	return NewSessionWithClock(id, player, questions, time.Now)
}

// NewSessionWithClock allows deterministic timestamps in tests.
func NewSessionWithClock(id, player string, questions []SessionQuestion, now func() time.Time) *Session {
	created := now()
	return &Session{
		id:         id,
		player:     player,
		createdAt:  created,
		now:        now,
		state:      domain.StateCreated,
		questions:  questions,
		lastAccess: created,
	}
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Player returns the username the session was created for, empty for anonymous play.
func (s *Session) Player() string { return s.player }

// LastAccess reports when the session was last read or mutated.
func (s *Session) LastAccess() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAccess
}

// State reports the lifecycle state.
func (s *Session) State() domain.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) start() (domain.QuestionPayload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastAccess = s.now()

	switch s.state {
	case domain.StateFinished:
		return domain.QuestionPayload{}, domain.ErrSessionFinished
	case domain.StateRunning:
		if s.current >= len(s.questions) {
			return domain.QuestionPayload{}, domain.ErrNoMoreQuestions
		}
		return s.payloadLocked(s.current), nil
	}

	if len(s.questions) == 0 {
		return domain.QuestionPayload{}, &domain.InsufficientQuestionsError{Requested: domain.MinQuestions, Available: 0}
	}
	s.state = domain.StateRunning
	s.current = 0
	return s.payloadLocked(0), nil
}

func (s *Session) currentQuestion() (domain.QuestionPayload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastAccess = s.now()

	if err := s.playableLocked(); err != nil {
		return domain.QuestionPayload{}, err
	}
	return s.payloadLocked(s.current), nil
}

// answer records the first answer to the current question. The returned event is non-nil
// exactly when this call finished the session.
func (s *Session) answer(choiceID string) (domain.AnswerResult, *domain.SessionFinished, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.lastAccess = now

	if err := s.playableLocked(); err != nil {
		return domain.AnswerResult{}, nil, err
	}

	q := &s.questions[s.current]
	if q.answered || s.answeredChoiceLocked(choiceID) {
		return domain.AnswerResult{}, nil, domain.ErrAlreadyAnswered
	}

	correct := q.correctChoiceID == choiceID
	q.answered = true
	if correct {
		s.correct++
	}

	idx := s.current
	next := idx + 1
	if next >= len(s.questions) {
		s.state = domain.StateFinished
		event := &domain.SessionFinished{
			SessionID:      s.id,
			Username:       s.player,
			CorrectAnswers: s.correct,
			Total:          len(s.questions),
			FinishedAt:     now,
		}
		return domain.AnswerResult{Correct: correct, Index: idx, State: s.state}, event, nil
	}

	s.current = next
	payload := s.payloadLocked(next)
	return domain.AnswerResult{
		Correct:   correct,
		Index:     idx,
		NextIndex: &next,
		State:     s.state,
		Next:      &payload,
	}, nil, nil
}

func (s *Session) summary() domain.SessionSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastAccess = s.now()

	answered := 0
	for i := range s.questions {
		if s.questions[i].answered {
			answered++
		}
	}
	return domain.SessionSummary{
		SessionID:      s.id,
		State:          s.state,
		CurrentIndex:   s.current,
		TotalQuestions: len(s.questions),
		Answered:       answered,
		CorrectAnswers: s.correct,
	}
}

// answeredChoiceLocked reports whether choiceID belongs to a question already answered.
// Such an answer was meant for an earlier step and must not land on the current one.
func (s *Session) answeredChoiceLocked(choiceID string) bool {
	for i := 0; i < s.current; i++ {
		if !s.questions[i].answered {
			continue
		}
		for _, c := range s.questions[i].Choices {
			if c.ChoiceID == choiceID {
				return true
			}
		}
	}
	return false
}

func (s *Session) playableLocked() error {
	if s.state != domain.StateRunning {
		return domain.ErrSessionNotRunning
	}
	if s.current >= len(s.questions) {
		return domain.ErrNoMoreQuestions
	}
	return nil
}

// payloadLocked copies the choices so callers never alias session state.
func (s *Session) payloadLocked(index int) domain.QuestionPayload {
	q := s.questions[index]
	choices := make([]domain.Choice, len(q.Choices))
	copy(choices, q.Choices)
	return domain.QuestionPayload{
		QuestionID: q.QuestionID,
		Prompt:     q.Prompt,
		Choices:    choices,
		Index:      index,
		Total:      len(s.questions),
	}
}
