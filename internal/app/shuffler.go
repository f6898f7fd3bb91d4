package app

import (
	"strings"

	"brainbuster-service/internal/domain"
)

// SessionQuestion is a question as fixed inside a session. The correct choice id is
// unexported and never leaves the package.
type SessionQuestion struct {
	QuestionID int64
	Prompt     string
	Choices    []domain.Choice

	correctChoiceID string
	answered        bool
}

// Shuffler turns bank questions into session questions with opaque, randomly ordered choices.
type Shuffler struct {
	rnd   Rand
	newID func() string
}

func NewShuffler(rnd Rand, newID func() string) *Shuffler {
	if rnd == nil {
		rnd = NewTimeSeededRand()
	}
	if newID == nil {
		newID = NewID
	}
	return &Shuffler{rnd: rnd, newID: newID}
}

// ToSessionQuestion builds the choice list. Blank incorrect answers are dropped; a question
// left with only its correct answer is still served as a single-choice question.
func (s *Shuffler) ToSessionQuestion(q domain.Question) SessionQuestion {
	correctID := s.newID()
	choices := make([]domain.Choice, 0, len(q.IncorrectAnswers)+1)
	choices = append(choices, domain.Choice{ChoiceID: correctID, Text: q.CorrectAnswer})
	for _, wrong := range q.IncorrectAnswers {
		if strings.TrimSpace(wrong) == "" {
			continue
		}
		choices = append(choices, domain.Choice{ChoiceID: s.newID(), Text: wrong})
	}

	s.rnd.Shuffle(len(choices), func(i, j int) {
		choices[i], choices[j] = choices[j], choices[i]
	})

	return SessionQuestion{
		QuestionID:      q.ID,
		Prompt:          q.Question,
		Choices:         choices,
		correctChoiceID: correctID,
	}
}

// ToSessionQuestions maps a sampled slice in order.
func (s *Shuffler) ToSessionQuestions(questions []domain.Question) []SessionQuestion {
	out := make([]SessionQuestion, 0, len(questions))
	for _, q := range questions {
		out = append(out, s.ToSessionQuestion(q))
	}
	return out
}
