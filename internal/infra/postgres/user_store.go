package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"brainbuster-service/internal/domain"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"
)

type userRow struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           int64     `bun:"id,pk,autoincrement"`
	Username     string    `bun:"username,notnull"`
	PasswordHash string    `bun:"password_hash,notnull"`
	Role         string    `bun:"role,notnull"`
	HighScore    int       `bun:"high_score,notnull"`
	CreatedAt    time.Time `bun:"created_at,notnull"`
}

func (r userRow) toDomain() domain.User {
	return domain.User{
		ID:           r.ID,
		Username:     r.Username,
		PasswordHash: r.PasswordHash,
		Role:         r.Role,
		HighScore:    r.HighScore,
		CreatedAt:    r.CreatedAt,
	}
}

// UserStore persists users through bun.
type UserStore struct {
	db *bun.DB
}

func NewUserStore(db *bun.DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) Create(ctx context.Context, user domain.User) (domain.User, error) {
	row := userRow{
		Username:     user.Username,
		PasswordHash: user.PasswordHash,
		Role:         user.Role,
		HighScore:    user.HighScore,
		CreatedAt:    user.CreatedAt,
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	if _, err := s.db.NewInsert().Model(&row).Returning("id").Exec(ctx); err != nil {
		var pgErr pgdriver.Error
		if errors.As(err, &pgErr) && pgErr.Field('C') == "23505" {
			return domain.User{}, domain.ErrUsernameTaken
		}
		return domain.User{}, fmt.Errorf("create user: %w", err)
	}
	return row.toDomain(), nil
}

func (s *UserStore) FindByUsername(ctx context.Context, username string) (domain.User, error) {
	var row userRow
	err := s.db.NewSelect().Model(&row).Where("lower(username) = lower(?)", username).Limit(1).Scan(ctx)
	return s.found(row, err)
}

func (s *UserStore) FindByID(ctx context.Context, id int64) (domain.User, error) {
	var row userRow
	err := s.db.NewSelect().Model(&row).Where("id = ?", id).Scan(ctx)
	return s.found(row, err)
}

func (s *UserStore) List(ctx context.Context) ([]domain.User, error) {
	var rows []userRow
	if err := s.db.NewSelect().Model(&rows).Order("id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	users := make([]domain.User, 0, len(rows))
	for _, r := range rows {
		users = append(users, r.toDomain())
	}
	return users, nil
}

func (s *UserStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.NewDelete().Model((*userRow)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// UpdateHighScore writes score only when it beats the stored value, in one statement, so
// concurrent finishes can never lower it.
func (s *UserStore) UpdateHighScore(ctx context.Context, username string, score int) (bool, error) {
	res, err := s.db.NewUpdate().
		Model((*userRow)(nil)).
		Set("high_score = ?", score).
		Where("lower(username) = lower(?)", username).
		Where("high_score < ?", score).
		Exec(ctx)
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
	var out []domain.HighScoreEntry
	err := s.db.NewSelect().
		Model((*userRow)(nil)).
		Column("username").
		ColumnExpr("high_score AS score").
		Order("high_score DESC", "username ASC").
		Limit(limit).
		Scan(ctx, &out)
	if err != nil {
		return nil, fmt.Errorf("top high scores: %w", err)
	}
	if out == nil {
		out = []domain.HighScoreEntry{}
	}
	return out, nil
}

func (s *UserStore) found(row userRow, err error) (domain.User, error) {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("find user: %w", err)
	}
	return row.toDomain(), nil
}
