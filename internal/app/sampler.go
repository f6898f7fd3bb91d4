package app

import (
	"context"
	"fmt"
	"strings"

	"brainbuster-service/internal/domain"
)

// DefaultPoolSize is how many matching questions the sampler loads before drawing.
const DefaultPoolSize = 1000

// QuestionSource is the read side of the question store used for sampling.
type QuestionSource interface {
	Search(ctx context.Context, filter domain.QuestionFilter, page domain.PageRequest) (domain.Page[domain.Question], error)
}

// Sampler draws distinct random questions matching a category/difficulty filter.
type Sampler struct {
	source   QuestionSource
	rnd      Rand
	poolSize int
}

func NewSampler(source QuestionSource, rnd Rand, poolSize int) *Sampler {
	if poolSize <= 0 {
		poolSize = DefaultPoolSize
	}
	if rnd == nil {
		rnd = NewTimeSeededRand()
	}
	return &Sampler{source: source, rnd: rnd, poolSize: poolSize}
}

// Sample returns exactly count questions, or an *InsufficientQuestionsError when the
// matching pool is smaller than count.
func (s *Sampler) Sample(ctx context.Context, category, difficulty string, count int) ([]domain.Question, error) {
	if count < 1 {
		return nil, domain.Invalid("numQuestions", "must be positive")
	}

	filter := domain.QuestionFilter{
		Category:   strings.TrimSpace(category),
		Difficulty: strings.TrimSpace(difficulty),
	}
	page, err := s.source.Search(ctx, filter, domain.PageRequest{Page: 0, Size: s.poolSize})
	if err != nil {
		return nil, fmt.Errorf("load question pool: %w", err)
	}

	// copy so shuffling never reorders a cached slice
	pool := make([]domain.Question, len(page.Content))
	copy(pool, page.Content)
	if len(pool) < count {
		return nil, &domain.InsufficientQuestionsError{Requested: count, Available: len(pool)}
	}

	s.rnd.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})
	return pool[:count], nil
}
