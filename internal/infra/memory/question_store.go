package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"brainbuster-service/internal/domain"
)

// QuestionStore is an in-memory question bank (useful for tests/demos and the memory driver).
type QuestionStore struct {
	mu        sync.RWMutex
	nextID    int64
	questions map[int64]domain.Question
}

func NewQuestionStore(seed ...domain.Question) *QuestionStore {
	s := &QuestionStore{questions: make(map[int64]domain.Question)}
	for _, q := range seed {
		_, _ = s.Create(context.Background(), q)
	}
	return s
}

func (s *QuestionStore) Get(_ context.Context, id int64) (domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.questions[id]
	if !ok {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	return cloneQuestion(q), nil
}

// Create assigns the next id unless q carries an unused positive one.
func (s *QuestionStore) Create(_ context.Context, q domain.Question) (domain.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.questions[q.ID]; q.ID <= 0 || taken {
		s.nextID++
		q.ID = s.nextID
	} else if q.ID > s.nextID {
		s.nextID = q.ID
	}
	s.questions[q.ID] = cloneQuestion(q)
	return cloneQuestion(q), nil
}

func (s *QuestionStore) Update(_ context.Context, q domain.Question) (domain.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.questions[q.ID]; !ok {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	s.questions[q.ID] = cloneQuestion(q)
	return cloneQuestion(q), nil
}

func (s *QuestionStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.questions[id]; !ok {
		return domain.ErrQuestionNotFound
	}
	delete(s.questions, id)
	return nil
}

// Search filters, sorts and pages the bank.
func (s *QuestionStore) Search(_ context.Context, filter domain.QuestionFilter, page domain.PageRequest) (domain.Page[domain.Question], error) {
	s.mu.RLock()
	matched := make([]domain.Question, 0, len(s.questions))
	for _, q := range s.questions {
		if filter.Matches(q) {
			matched = append(matched, q)
		}
	}
	s.mu.RUnlock()

	field, desc := page.SortField()
	sort.SliceStable(matched, func(i, j int) bool {
		c := compareQuestions(matched[i], matched[j], field)
		if c == 0 {
			c = compareInt64(matched[i].ID, matched[j].ID)
		}
		if desc {
			return c > 0
		}
		return c < 0
	})

	total := len(matched)
	from := page.Offset()
	if from > total {
		from = total
	}
	to := total
	if page.Size > 0 && from+page.Size < total {
		to = from + page.Size
	}
	content := make([]domain.Question, 0, to-from)
	for _, q := range matched[from:to] {
		content = append(content, cloneQuestion(q))
	}
	return domain.NewPage(content, page, total), nil
}

func compareQuestions(a, b domain.Question, field string) int {
	switch field {
	case "type":
		return strings.Compare(strings.ToLower(a.Type), strings.ToLower(b.Type))
	case "difficulty":
		return strings.Compare(strings.ToLower(a.Difficulty), strings.ToLower(b.Difficulty))
	case "category":
		return strings.Compare(strings.ToLower(a.Category), strings.ToLower(b.Category))
	case "question":
		return strings.Compare(strings.ToLower(a.Question), strings.ToLower(b.Question))
	default:
		return compareInt64(a.ID, b.ID)
	}
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func cloneQuestion(q domain.Question) domain.Question {
	q.IncorrectAnswers = append([]string(nil), q.IncorrectAnswers...)
	return q
}
