package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"brainbuster-service/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// QuestionStore keeps the question bank in Postgres. Incorrect answers live in their own
// table, ordered by position.
type QuestionStore struct {
	pool *pgxpool.Pool
}

func NewQuestionStore(pool *pgxpool.Pool) *QuestionStore {
	return &QuestionStore{pool: pool}
}

const selectQuestion = `
SELECT q.id, q.type, q.difficulty, q.category, q.question, q.correct_answer,
       COALESCE(array_agg(a.answer ORDER BY a.position) FILTER (WHERE a.answer IS NOT NULL), '{}')
FROM questions q
LEFT JOIN question_incorrect_answers a ON a.question_id = q.id`

func (s *QuestionStore) Get(ctx context.Context, id int64) (domain.Question, error) {
	row := s.pool.QueryRow(ctx, selectQuestion+` WHERE q.id = $1 GROUP BY q.id`, id)
	q, err := scanQuestion(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	if err != nil {
		return domain.Question{}, fmt.Errorf("get question: %w", err)
	}
	return q, nil
}

func (s *QuestionStore) Create(ctx context.Context, q domain.Question) (domain.Question, error) {
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx,
			`INSERT INTO questions (type, difficulty, category, question, correct_answer)
			 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
			q.Type, q.Difficulty, q.Category, q.Question, q.CorrectAnswer,
		).Scan(&q.ID); err != nil {
			return err
		}
		return insertAnswers(ctx, tx, q.ID, q.IncorrectAnswers)
	})
	if err != nil {
		return domain.Question{}, fmt.Errorf("create question: %w", err)
	}
	return q, nil
}

func (s *QuestionStore) Update(ctx context.Context, q domain.Question) (domain.Question, error) {
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE questions SET type = $2, difficulty = $3, category = $4, question = $5, correct_answer = $6
			 WHERE id = $1`,
			q.ID, q.Type, q.Difficulty, q.Category, q.Question, q.CorrectAnswer,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrQuestionNotFound
		}
		if _, err := tx.Exec(ctx, `DELETE FROM question_incorrect_answers WHERE question_id = $1`, q.ID); err != nil {
			return err
		}
		return insertAnswers(ctx, tx, q.ID, q.IncorrectAnswers)
	})
	if errors.Is(err, domain.ErrQuestionNotFound) {
		return domain.Question{}, err
	}
	if err != nil {
		return domain.Question{}, fmt.Errorf("update question: %w", err)
	}
	return q, nil
}

func (s *QuestionStore) Delete(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM questions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete question: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrQuestionNotFound
	}
	return nil
}

// Search filters in SQL; the sort column comes from a fixed whitelist.
func (s *QuestionStore) Search(ctx context.Context, filter domain.QuestionFilter, page domain.PageRequest) (domain.Page[domain.Question], error) {
	where, args := whereClause(filter)

	var total int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM questions q`+where, args...).Scan(&total); err != nil {
		return domain.Page[domain.Question]{}, fmt.Errorf("count questions: %w", err)
	}

	field, desc := page.SortField()
	order := "q." + field
	if field != "id" {
		order = "lower(q." + field + ")"
	}
	dir := "ASC"
	if desc {
		dir = "DESC"
	}
	query := fmt.Sprintf("%s%s GROUP BY q.id ORDER BY %s %s, q.id %s", selectQuestion, where, order, dir, dir)
	if page.Size > 0 {
		args = append(args, page.Size, page.Offset())
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return domain.Page[domain.Question]{}, fmt.Errorf("search questions: %w", err)
	}
	defer rows.Close()

	var content []domain.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return domain.Page[domain.Question]{}, fmt.Errorf("scan question: %w", err)
		}
		content = append(content, q)
	}
	if err := rows.Err(); err != nil {
		return domain.Page[domain.Question]{}, fmt.Errorf("search questions: %w", err)
	}
	return domain.NewPage(content, page, total), nil
}

func whereClause(f domain.QuestionFilter) (string, []interface{}) {
	var conds []string
	var args []interface{}
	add := func(cond, value string) {
		args = append(args, value)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.Category != "" {
		add("lower(q.category) = lower($%d)", f.Category)
	}
	if f.Difficulty != "" {
		add("lower(q.difficulty) = lower($%d)", f.Difficulty)
	}
	if f.Type != "" {
		add("lower(q.type) = lower($%d)", f.Type)
	}
	if f.Text != "" {
		add("strpos(lower(q.question), lower($%d)) > 0", f.Text)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func insertAnswers(ctx context.Context, tx pgx.Tx, questionID int64, answers []string) error {
	if len(answers) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for i, a := range answers {
		batch.Queue(`INSERT INTO question_incorrect_answers (question_id, position, answer) VALUES ($1, $2, $3)`, questionID, i, a)
	}
	br := tx.SendBatch(ctx, batch)
	defer br.Close()
	for range answers {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

func (s *QuestionStore) inTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func scanQuestion(row pgx.Row) (domain.Question, error) {
	var q domain.Question
	err := row.Scan(&q.ID, &q.Type, &q.Difficulty, &q.Category, &q.Question, &q.CorrectAnswer, &q.IncorrectAnswers)
	return q, err
}
