package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"brainbuster-service/internal/domain"
)

// QuestionStore keeps the question bank in SQLite. Incorrect answers are a JSON array.
type QuestionStore struct {
	db *sql.DB
}

func NewQuestionStore(db *sql.DB) *QuestionStore {
	return &QuestionStore{db: db}
}

const questionColumns = `id, type, difficulty, category, question, correct_answer, incorrect_answers_json`

func (s *QuestionStore) Get(ctx context.Context, id int64) (domain.Question, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+questionColumns+` FROM questions WHERE id = ?`, id)
	q, err := scanQuestion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	if err != nil {
		return domain.Question{}, fmt.Errorf("get question: %w", err)
	}
	return q, nil
}

func (s *QuestionStore) Create(ctx context.Context, q domain.Question) (domain.Question, error) {
	answers, err := encodeAnswers(q.IncorrectAnswers)
	if err != nil {
		return domain.Question{}, err
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO questions (type, difficulty, category, question, correct_answer, incorrect_answers_json)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		q.Type, q.Difficulty, q.Category, q.Question, q.CorrectAnswer, answers)
	if err != nil {
		return domain.Question{}, fmt.Errorf("create question: %w", err)
	}
	if q.ID, err = res.LastInsertId(); err != nil {
		return domain.Question{}, fmt.Errorf("create question: %w", err)
	}
	return q, nil
}

func (s *QuestionStore) Update(ctx context.Context, q domain.Question) (domain.Question, error) {
	answers, err := encodeAnswers(q.IncorrectAnswers)
	if err != nil {
		return domain.Question{}, err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE questions SET type = ?, difficulty = ?, category = ?, question = ?, correct_answer = ?,
		 incorrect_answers_json = ? WHERE id = ?`,
		q.Type, q.Difficulty, q.Category, q.Question, q.CorrectAnswer, answers, q.ID)
	if err != nil {
		return domain.Question{}, fmt.Errorf("update question: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	return q, nil
}

func (s *QuestionStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM questions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete question: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrQuestionNotFound
	}
	return nil
}

func (s *QuestionStore) Search(ctx context.Context, filter domain.QuestionFilter, page domain.PageRequest) (domain.Page[domain.Question], error) {
	var conds []string
	var args []any
	if filter.Category != "" {
		conds, args = append(conds, "category = ? COLLATE NOCASE"), append(args, filter.Category)
	}
	if filter.Difficulty != "" {
		conds, args = append(conds, "difficulty = ? COLLATE NOCASE"), append(args, filter.Difficulty)
	}
	if filter.Type != "" {
		conds, args = append(conds, "type = ? COLLATE NOCASE"), append(args, filter.Type)
	}
	if filter.Text != "" {
		conds, args = append(conds, "instr(lower(question), lower(?)) > 0"), append(args, filter.Text)
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM questions`+where, args...).Scan(&total); err != nil {
		return domain.Page[domain.Question]{}, fmt.Errorf("count questions: %w", err)
	}

	field, desc := page.SortField()
	dir := "ASC"
	if desc {
		dir = "DESC"
	}
	order := field
	if field != "id" {
		order = field + " COLLATE NOCASE"
	}
	query := fmt.Sprintf("SELECT %s FROM questions%s ORDER BY %s %s, id %s", questionColumns, where, order, dir, dir)
	if page.Size > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, page.Size, page.Offset())
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
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

type scanner interface {
	Scan(dest ...any) error
}

func scanQuestion(row scanner) (domain.Question, error) {
	var q domain.Question
	var answers string
	if err := row.Scan(&q.ID, &q.Type, &q.Difficulty, &q.Category, &q.Question, &q.CorrectAnswer, &answers); err != nil {
		return domain.Question{}, err
	}
	if err := json.Unmarshal([]byte(answers), &q.IncorrectAnswers); err != nil {
		return domain.Question{}, fmt.Errorf("decode incorrect answers of question %d: %w", q.ID, err)
	}
	return q, nil
}

func encodeAnswers(answers []string) (string, error) {
	if answers == nil {
		answers = []string{}
	}
	b, err := json.Marshal(answers)
	if err != nil {
		return "", fmt.Errorf("encode incorrect answers: %w", err)
	}
	return string(b), nil
}
