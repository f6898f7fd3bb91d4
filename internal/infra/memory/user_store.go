package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"brainbuster-service/internal/domain"
)

// UserStore keeps users in memory. Usernames are unique case-insensitively.
type UserStore struct {
	mu     sync.RWMutex
	nextID int64
	byID   map[int64]domain.User
	byName map[string]int64
}

func NewUserStore() *UserStore {
	return &UserStore{
		byID:   make(map[int64]domain.User),
		byName: make(map[string]int64),
	}
}

func (s *UserStore) Create(_ context.Context, user domain.User) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(user.Username)
	if _, taken := s.byName[key]; taken {
		return domain.User{}, domain.ErrUsernameTaken
	}
	s.nextID++
	user.ID = s.nextID
	s.byID[user.ID] = user
	s.byName[key] = user.ID
	return user, nil
}

func (s *UserStore) FindByUsername(_ context.Context, username string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byName[strings.ToLower(username)]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return s.byID[id], nil
}

func (s *UserStore) FindByID(_ context.Context, id int64) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.byID[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return user, nil
}

// List returns users ordered by id.
func (s *UserStore) List(_ context.Context) ([]domain.User, error) {
	s.mu.RLock()
	users := make([]domain.User, 0, len(s.byID))
	for _, u := range s.byID {
		users = append(users, u)
	}
	s.mu.RUnlock()
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (s *UserStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.byID[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	delete(s.byID, id)
	delete(s.byName, strings.ToLower(user.Username))
	return nil
}

// UpdateHighScore stores score only when it beats the current value.
func (s *UserStore) UpdateHighScore(_ context.Context, username string, score int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byName[strings.ToLower(username)]
	if !ok {
		return false, domain.ErrUserNotFound
	}
	user := s.byID[id]
	if score <= user.HighScore {
		return false, nil
	}
	user.HighScore = score
	s.byID[id] = user
	return true, nil
}

// TopHighScores ranks by score desc, then username.
func (s *UserStore) TopHighScores(ctx context.Context, limit int) ([]domain.HighScoreEntry, error) {
	users, _ := s.List(ctx)
	sort.SliceStable(users, func(i, j int) bool {
		if users[i].HighScore != users[j].HighScore {
			return users[i].HighScore > users[j].HighScore
		}
		return users[i].Username < users[j].Username
	})
	if limit > 0 && len(users) > limit {
		users = users[:limit]
	}
	out := make([]domain.HighScoreEntry, 0, len(users))
	for _, u := range users {
		out = append(out, domain.HighScoreEntry{Username: u.Username, Score: u.HighScore})
	}
	return out, nil
}
