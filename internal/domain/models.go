package domain

import (
	"strings"
	"time"
)

// Question is a question bank entry.
type Question struct {
	ID               int64    `json:"id" yaml:"id,omitempty"`
	Type             string   `json:"type" yaml:"type"`
	Difficulty       string   `json:"difficulty" yaml:"difficulty"`
	Category         string   `json:"category" yaml:"category"`
	Question         string   `json:"question" yaml:"question"`
	CorrectAnswer    string   `json:"correctAnswer" yaml:"correct_answer"`
	IncorrectAnswers []string `json:"incorrectAnswers" yaml:"incorrect_answers"`
}

// QuestionFilter narrows a question search. Empty fields do not constrain.
type QuestionFilter struct {
	Category   string
	Difficulty string
	Type       string
	Text       string
}

// Matches applies the filter the way every store does: case-insensitive exact match on
// category, difficulty and type, case-insensitive substring on the question text.
func (f QuestionFilter) Matches(q Question) bool {
	if f.Category != "" && !strings.EqualFold(q.Category, f.Category) {
		return false
	}
	if f.Difficulty != "" && !strings.EqualFold(q.Difficulty, f.Difficulty) {
		return false
	}
	if f.Type != "" && !strings.EqualFold(q.Type, f.Type) {
		return false
	}
	if f.Text != "" && !strings.Contains(strings.ToLower(q.Question), strings.ToLower(f.Text)) {
		return false
	}
	return true
}

// Normalized trims all filter fields.
func (f QuestionFilter) Normalized() QuestionFilter {
	return QuestionFilter{
		Category:   strings.TrimSpace(f.Category),
		Difficulty: strings.TrimSpace(f.Difficulty),
		Type:       strings.TrimSpace(f.Type),
		Text:       strings.TrimSpace(f.Text),
	}
}

// PageRequest selects a page of search results. Sort is a field name, optionally
// prefixed with "-" for descending order.
type PageRequest struct {
	Page int
	Size int
	Sort string
}

// SortField resolves the sort column and direction. Unknown fields fall back to id.
func (p PageRequest) SortField() (field string, desc bool) {
	s := strings.TrimSpace(p.Sort)
	if strings.HasPrefix(s, "-") {
		desc = true
		s = s[1:]
	}
	switch s {
	case "id", "type", "difficulty", "category", "question":
		return s, desc
	default:
		return "id", desc
	}
}

// Offset returns the number of rows to skip.
func (p PageRequest) Offset() int {
	if p.Page < 0 || p.Size <= 0 {
		return 0
	}
	return p.Page * p.Size
}

// Page is one page of results.
type Page[T any] struct {
	Content       []T `json:"content"`
	Page          int `json:"page"`
	Size          int `json:"size"`
	TotalElements int `json:"totalElements"`
	TotalPages    int `json:"totalPages"`
}

// NewPage fills in the derived paging fields.
func NewPage[T any](content []T, req PageRequest, total int) Page[T] {
	if content == nil {
		content = []T{}
	}
	pages := 0
	if req.Size > 0 {
		pages = (total + req.Size - 1) / req.Size
	}
	return Page[T]{
		Content:       content,
		Page:          req.Page,
		Size:          req.Size,
		TotalElements: total,
		TotalPages:    pages,
	}
}

// Role names.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is a registered player.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	HighScore    int       `json:"highScore"`
	CreatedAt    time.Time `json:"createdAt"`
}

// HighScoreEntry is a leaderboard row.
type HighScoreEntry struct {
	Username string `json:"username"`
	Score    int    `json:"score"`
}

// SessionState is the lifecycle state of a single-player session.
type SessionState string

const (
	StateCreated  SessionState = "CREATED"
	StateRunning  SessionState = "RUNNING"
	StateFinished SessionState = "FINISHED"
)

// Choice is one presented answer option. Its id carries no information about correctness.
type Choice struct {
	ChoiceID string `json:"choiceId"`
	Text     string `json:"text"`
}

// QuestionPayload is the client view of a session question. It has no field that can
// hold the correct choice.
type QuestionPayload struct {
	QuestionID int64    `json:"questionId"`
	Prompt     string   `json:"prompt"`
	Choices    []Choice `json:"choices"`
	Index      int      `json:"index"`
	Total      int      `json:"total"`
}

// MinQuestions and MaxQuestions bound the size of a session.
const (
	MinQuestions = 1
	MaxQuestions = 100
)

// CreateSessionRequest asks for a new single-player session.
type CreateSessionRequest struct {
	NumQuestions int    `json:"numQuestions"`
	Category     string `json:"category,omitempty"`
	Difficulty   string `json:"difficulty,omitempty"`
}

// Validate enforces the request bounds.
func (r CreateSessionRequest) Validate() error {
	if r.NumQuestions < MinQuestions || r.NumQuestions > MaxQuestions {
		return Invalid("numQuestions", "must be between 1 and 100")
	}
	return nil
}

// SessionCreated is returned by session creation.
type SessionCreated struct {
	SessionID      string       `json:"sessionId"`
	State          SessionState `json:"state"`
	TotalQuestions int          `json:"totalQuestions"`
}

// StartResult is returned by start.
type StartResult struct {
	State   SessionState    `json:"state"`
	Current QuestionPayload `json:"current"`
}

// AnswerResult summarizes the outcome of one answer.
type AnswerResult struct {
	Correct   bool             `json:"correct"`
	Index     int              `json:"index"`
	NextIndex *int             `json:"nextIndex"`
	State     SessionState     `json:"state"`
	Next      *QuestionPayload `json:"next"`
}

// SessionSummary is a read-only snapshot of a session.
type SessionSummary struct {
	SessionID      string       `json:"sessionId"`
	State          SessionState `json:"state"`
	CurrentIndex   int          `json:"currentIndex"`
	TotalQuestions int          `json:"totalQuestions"`
	Answered       int          `json:"answered"`
	CorrectAnswers int          `json:"correctAnswers"`
}

// SessionFinished is emitted once when a session reaches FINISHED.
type SessionFinished struct {
	SessionID      string
	Username       string
	CorrectAnswers int
	Total          int
	FinishedAt     time.Time
}

// AuthResult is returned by register, login and refresh.
type AuthResult struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
	User         User   `json:"user"`
	Message      string `json:"message"`
}
