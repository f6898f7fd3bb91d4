package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"brainbuster-service/internal/domain"
)

// Paging limits for question searches served to clients.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// QuestionStore persists the question bank.
type QuestionStore interface {
	QuestionSource
	Get(ctx context.Context, id int64) (domain.Question, error)
	Create(ctx context.Context, q domain.Question) (domain.Question, error)
	Update(ctx context.Context, q domain.Question) (domain.Question, error)
	Delete(ctx context.Context, id int64) error
}

// PoolInvalidator drops cached sampling pools after the bank changes.
type PoolInvalidator interface {
	Invalidate(ctx context.Context) error
}

// QuestionService contains the question bank use cases.
type QuestionService struct {
	store QuestionStore
	pools PoolInvalidator
}

// NewQuestionService wires the store; pools may be nil when sampling is uncached.
func NewQuestionService(store QuestionStore, pools PoolInvalidator) *QuestionService {
	return &QuestionService{store: store, pools: pools}
}

func (s *QuestionService) Get(ctx context.Context, id int64) (domain.Question, error) {
	return s.store.Get(ctx, id)
}

// Search serves one clamped page.
func (s *QuestionService) Search(ctx context.Context, filter domain.QuestionFilter, page domain.PageRequest) (domain.Page[domain.Question], error) {
	if page.Page < 0 {
		page.Page = 0
	}
	switch {
	case page.Size <= 0:
		page.Size = DefaultPageSize
	case page.Size > MaxPageSize:
		page.Size = MaxPageSize
	}
	return s.store.Search(ctx, filter.Normalized(), page)
}

// List returns up to DefaultPoolSize matching questions without paging metadata.
func (s *QuestionService) List(ctx context.Context, filter domain.QuestionFilter, sort string) ([]domain.Question, error) {
	page, err := s.store.Search(ctx, filter.Normalized(), domain.PageRequest{Page: 0, Size: DefaultPoolSize, Sort: sort})
	if err != nil {
		return nil, err
	}
	return page.Content, nil
}

// Create requires at least one usable incorrect answer.
func (s *QuestionService) Create(ctx context.Context, in domain.Question) (domain.Question, error) {
	q, err := normalizeQuestion(in)
	if err != nil {
		return domain.Question{}, err
	}
	if len(q.IncorrectAnswers) == 0 {
		return domain.Question{}, domain.Invalid("incorrectAnswers", "at least one incorrect answer different from the correct answer is required")
	}
	q.ID = 0

	created, err := s.store.Create(ctx, q)
	if err != nil {
		return domain.Question{}, err
	}
	s.invalidate(ctx)
	return created, nil
}

// Update replaces every field of the question, incorrect answers included.
func (s *QuestionService) Update(ctx context.Context, id int64, in domain.Question) (domain.Question, error) {
	q, err := normalizeQuestion(in)
	if err != nil {
		return domain.Question{}, err
	}
	q.ID = id

	updated, err := s.store.Update(ctx, q)
	if err != nil {
		return domain.Question{}, err
	}
	s.invalidate(ctx)
	return updated, nil
}

func (s *QuestionService) Delete(ctx context.Context, id int64) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *QuestionService) invalidate(ctx context.Context) {
	if s.pools == nil {
		return
	}
	if err := s.pools.Invalidate(ctx); err != nil {
		log.Printf("invalidate question pools: %v", err)
	}
}

// normalizeQuestion trims every field and keeps the distinct, non-blank incorrect answers
// that differ from the correct one, in their original order.
func normalizeQuestion(in domain.Question) (domain.Question, error) {
	q := domain.Question{
		ID:            in.ID,
		Type:          strings.TrimSpace(in.Type),
		Difficulty:    strings.TrimSpace(in.Difficulty),
		Category:      strings.TrimSpace(in.Category),
		Question:      strings.TrimSpace(in.Question),
		CorrectAnswer: strings.TrimSpace(in.CorrectAnswer),
	}
	required := []struct{ field, value string }{
		{"type", q.Type},
		{"difficulty", q.Difficulty},
		{"category", q.Category},
		{"question", q.Question},
		{"correctAnswer", q.CorrectAnswer},
	}
	for _, r := range required {
		if r.value == "" {
			return domain.Question{}, domain.Invalid(r.field, "must not be blank")
		}
	}

	seen := make(map[string]struct{}, len(in.IncorrectAnswers))
	q.IncorrectAnswers = make([]string, 0, len(in.IncorrectAnswers))
	for _, raw := range in.IncorrectAnswers {
		wrong := strings.TrimSpace(raw)
		if wrong == "" || wrong == q.CorrectAnswer {
			continue
		}
		if _, dup := seen[wrong]; dup {
			continue
		}
		seen[wrong] = struct{}{}
		q.IncorrectAnswers = append(q.IncorrectAnswers, wrong)
	}
	return q, nil
}

// Seed creates every question in qs, skipping invalid ones. It returns how many were stored.
func (s *QuestionService) Seed(ctx context.Context, qs []domain.Question) (int, error) {
	stored := 0
	for i, in := range qs {
		if _, err := s.Create(ctx, in); err != nil {
			if errors.Is(err, domain.ErrValidation) {
				log.Printf("seed: skip question %d: %v", i+1, err)
				continue
			}
			return stored, fmt.Errorf("seed question %d: %w", i+1, err)
		}
		stored++
	}
	return stored, nil
}

// Count returns the size of the bank.
func (s *QuestionService) Count(ctx context.Context) (int, error) {
	page, err := s.store.Search(ctx, domain.QuestionFilter{}, domain.PageRequest{Size: 1})
	if err != nil {
		return 0, err
	}
	return page.TotalElements, nil
}
