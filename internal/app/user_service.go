package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"brainbuster-service/internal/domain"
)

// UserStore persists registered users.
type UserStore interface {
	HighScoreStore
	Create(ctx context.Context, user domain.User) (domain.User, error)
	FindByID(ctx context.Context, id int64) (domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	Delete(ctx context.Context, id int64) error
	TopHighScores(ctx context.Context, limit int) ([]domain.HighScoreEntry, error)
}

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) bool
}

// TokenIssuer issues and verifies access/refresh token pairs.
type TokenIssuer interface {
	IssuePair(username, role string) (access, refresh string, err error)
	RefreshSubject(token string) (string, error)
	AccessValid(token, username string) bool
}

// UserService contains registration, authentication and high score use cases.
type UserService struct {
	users  UserStore
	hasher PasswordHasher
	tokens TokenIssuer
	now    func() time.Time
}

func NewUserService(users UserStore, hasher PasswordHasher, tokens TokenIssuer) *UserService {
	return &UserService{users: users, hasher: hasher, tokens: tokens, now: time.Now}
}

// Register creates a regular user and signs them in.
func (s *UserService) Register(ctx context.Context, username, password string) (domain.AuthResult, error) {
	user, err := s.create(ctx, username, password, domain.RoleUser)
	if err != nil {
		return domain.AuthResult{}, err
	}
	return s.signIn(user, "Registration successful")
}

// Login verifies credentials. Unknown users and wrong passwords are indistinguishable.
func (s *UserService) Login(ctx context.Context, username, password string) (domain.AuthResult, error) {
	user, err := s.users.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.AuthResult{}, domain.ErrInvalidCredentials
		}
		return domain.AuthResult{}, err
	}
	if !s.hasher.Compare(user.PasswordHash, password) {
		return domain.AuthResult{}, domain.ErrInvalidCredentials
	}
	return s.signIn(user, "Login successful")
}

// Refresh trades a refresh token for a new pair.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (domain.AuthResult, error) {
	username, err := s.tokens.RefreshSubject(refreshToken)
	if err != nil {
		return domain.AuthResult{}, domain.ErrInvalidCredentials
	}
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.AuthResult{}, domain.ErrInvalidCredentials
		}
		return domain.AuthResult{}, err
	}
	return s.signIn(user, "Token refreshed")
}

// Validate reports whether token is a live access token for an existing username.
func (s *UserService) Validate(ctx context.Context, token, username string) bool {
	if _, err := s.users.FindByUsername(ctx, username); err != nil {
		return false
	}
	return s.tokens.AccessValid(token, username)
}

func (s *UserService) Me(ctx context.Context, username string) (domain.User, error) {
	return s.users.FindByUsername(ctx, username)
}

func (s *UserService) HighScore(ctx context.Context, username string) (domain.HighScoreEntry, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return domain.HighScoreEntry{}, err
	}
	return domain.HighScoreEntry{Username: user.Username, Score: user.HighScore}, nil
}

// HighScores returns the leaderboard, best first.
func (s *UserService) HighScores(ctx context.Context, limit int) ([]domain.HighScoreEntry, error) {
	if limit <= 0 || limit > MaxPageSize {
		limit = 10
	}
	return s.users.TopHighScores(ctx, limit)
}

func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	return s.users.List(ctx)
}

func (s *UserService) Delete(ctx context.Context, id int64) error {
	return s.users.Delete(ctx, id)
}

// CreateAdmin registers a user with the admin role.
func (s *UserService) CreateAdmin(ctx context.Context, username, password string) (domain.User, error) {
	return s.create(ctx, username, password, domain.RoleAdmin)
}

// EnsureAdmin creates the bootstrap admin unless the username already exists.
func (s *UserService) EnsureAdmin(ctx context.Context, username, password string) error {
	if strings.TrimSpace(username) == "" {
		return nil
	}
	_, err := s.users.FindByUsername(ctx, strings.TrimSpace(username))
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return err
	}
	if _, err := s.CreateAdmin(ctx, username, password); err != nil && !errors.Is(err, domain.ErrUsernameTaken) {
		return fmt.Errorf("bootstrap admin: %w", err)
	}
	return nil
}

func (s *UserService) create(ctx context.Context, username, password, role string) (domain.User, error) {
	username = strings.TrimSpace(username)
	if n := utf8.RuneCountInString(username); n < 3 || n > 50 {
		return domain.User{}, domain.Invalid("username", "must be between 3 and 50 characters")
	}
	if utf8.RuneCountInString(password) < 6 {
		return domain.User{}, domain.Invalid("password", "must be at least 6 characters")
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}
	return s.users.Create(ctx, domain.User{
		Username:     username,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    s.now().UTC(),
	})
}

func (s *UserService) signIn(user domain.User, message string) (domain.AuthResult, error) {
	access, refresh, err := s.tokens.IssuePair(user.Username, user.Role)
	if err != nil {
		return domain.AuthResult{}, fmt.Errorf("issue tokens: %w", err)
	}
	return domain.AuthResult{Token: access, RefreshToken: refresh, User: user, Message: message}, nil
}
