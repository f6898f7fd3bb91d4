package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"brainbuster-service/internal/domain"
)

// UserStore keeps users in SQLite. Usernames are unique case-insensitively.
type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

const userColumns = `id, username, password_hash, role, high_score, created_at`

func (s *UserStore) Create(ctx context.Context, user domain.User) (domain.User, error) {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (username, password_hash, role, high_score, created_at) VALUES (?, ?, ?, ?, ?)`,
		user.Username, user.PasswordHash, user.Role, user.HighScore, user.CreatedAt.UnixMilli())
	if err != nil {
		if isUniqueViolation(err) {
			return domain.User{}, domain.ErrUsernameTaken
		}
		return domain.User{}, fmt.Errorf("create user: %w", err)
	}
	if user.ID, err = res.LastInsertId(); err != nil {
		return domain.User{}, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func (s *UserStore) FindByUsername(ctx context.Context, username string) (domain.User, error) {
	return s.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE username = ? COLLATE NOCASE`, username)
}

func (s *UserStore) FindByID(ctx context.Context, id int64) (domain.User, error) {
	return s.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

func (s *UserStore) List(ctx context.Context) ([]domain.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()
	users := []domain.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *UserStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// UpdateHighScore only ever raises the stored value.
func (s *UserStore) UpdateHighScore(ctx context.Context, username string, score int) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET high_score = ? WHERE username = ? COLLATE NOCASE AND high_score < ?`,
		score, username, score)
	if err != nil {
		return false, fmt.Errorf("update high score: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return true, nil
	}
	if _, err := s.FindByUsername(ctx, username); err != nil {
		return false, err
	}
	return false, nil
}

func (s *UserStore) TopHighScores(ctx context.Context, limit int) ([]domain.HighScoreEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT username, high_score FROM users ORDER BY high_score DESC, username ASC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("top high scores: %w", err)
	}
	defer rows.Close()
	out := []domain.HighScoreEntry{}
	for rows.Next() {
		var e domain.HighScoreEntry
		if err := rows.Scan(&e.Username, &e.Score); err != nil {
			return nil, fmt.Errorf("scan high score: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *UserStore) findOne(ctx context.Context, query string, arg any) (domain.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("find user: %w", err)
	}
	return u, nil
}

func scanUser(row scanner) (domain.User, error) {
	var u domain.User
	var created int64
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.HighScore, &created); err != nil {
		return domain.User{}, err
	}
	u.CreatedAt = time.UnixMilli(created).UTC()
	return u, nil
}
