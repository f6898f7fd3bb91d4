// Package tui is a terminal player for a single-player session.
package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"brainbuster-service/internal/domain"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Game is the slice of the API client the player drives.
type Game interface {
	CreateSession(ctx context.Context, req domain.CreateSessionRequest) (domain.SessionCreated, error)
	Start(ctx context.Context, sessionID string) (domain.StartResult, error)
	Answer(ctx context.Context, sessionID, choiceID string) (domain.AnswerResult, error)
	Summary(ctx context.Context, sessionID string) (domain.SessionSummary, error)
	HighScores(ctx context.Context, limit int) ([]domain.HighScoreEntry, error)
}

// Options configures the session to play.
type Options struct {
	NumQuestions int
	Category     string
	Difficulty   string
	// ShowScores fetches the leaderboard once the session is over.
	ShowScores bool
	NoColor    bool
}

type phase int

const (
	phaseLoading phase = iota
	phaseQuestion
	phaseFeedback
	phaseFinished
)

// Model plays one session.
type Model struct {
	ctx       context.Context
	game      Game
	opts      Options
	phase     phase
	sessionID string
	question  domain.QuestionPayload
	next      *domain.QuestionPayload
	cursor    int
	correct   bool
	summary   domain.SessionSummary
	scores    table.Model
	hasScores bool
	err       error
	styles    styles
}

type startedMsg struct {
	sessionID string
	result    domain.StartResult
}

type answeredMsg struct {
	result domain.AnswerResult
}

type finishedMsg struct {
	summary domain.SessionSummary
	scores  []domain.HighScoreEntry
}

type errMsg struct{ err error }

// NewModel builds a player for game.
func NewModel(ctx context.Context, game Game, opts Options) Model {
	if opts.NumQuestions <= 0 {
		opts.NumQuestions = 10
	}
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "#", Width: 3},
			{Title: "Player", Width: 20},
			{Title: "Score", Width: 6},
		}),
		table.WithRows([]table.Row{}),
		table.WithFocused(false),
	)
	st := newStyles(opts.NoColor)
	t.SetStyles(st.table)
	return Model{ctx: ctx, game: game, opts: opts, scores: t, styles: st}
}

// Init creates and starts the session.
func (m Model) Init() tea.Cmd {
	return m.startSession()
}

// Update handles keys and API responses.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(typed)
	case startedMsg:
		m.sessionID = typed.sessionID
		m.showQuestion(typed.result.Current)
		return m, nil
	case answeredMsg:
		m.correct = typed.result.Correct
		m.next = typed.result.Next
		if typed.result.State == domain.StateFinished {
			return m, m.finish()
		}
		m.phase = phaseFeedback
		return m, nil
	case finishedMsg:
		m.phase = phaseFinished
		m.summary = typed.summary
		m.hasScores = len(typed.scores) > 0
		m.scores.SetRows(scoreRows(typed.scores))
		return m, nil
	case errMsg:
		m.err = typed.err
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" || key == "q" || key == "esc" {
		return m, tea.Quit
	}
	switch m.phase {
	case phaseQuestion:
		switch key {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.question.Choices)-1 {
				m.cursor++
			}
		case "enter", " ":
			return m, m.answer(m.cursor)
		default:
			if n, err := strconv.Atoi(key); err == nil && n >= 1 && n <= len(m.question.Choices) {
				m.cursor = n - 1
				return m, m.answer(m.cursor)
			}
		}
	case phaseFeedback:
		if m.next != nil {
			m.showQuestion(*m.next)
			m.next = nil
		}
	case phaseFinished:
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) showQuestion(q domain.QuestionPayload) {
	m.question = q
	m.cursor = 0
	m.phase = phaseQuestion
}

func (m Model) startSession() tea.Cmd {
	ctx, game, opts := m.ctx, m.game, m.opts
	return func() tea.Msg {
		created, err := game.CreateSession(ctx, domain.CreateSessionRequest{
			NumQuestions: opts.NumQuestions,
			Category:     opts.Category,
			Difficulty:   opts.Difficulty,
		})
		if err != nil {
			return errMsg{err: fmt.Errorf("create session: %w", err)}
		}
		started, err := game.Start(ctx, created.SessionID)
		if err != nil {
			return errMsg{err: fmt.Errorf("start session: %w", err)}
		}
		return startedMsg{sessionID: created.SessionID, result: started}
	}
}

func (m Model) answer(choice int) tea.Cmd {
	if choice < 0 || choice >= len(m.question.Choices) {
		return nil
	}
	ctx, game, id := m.ctx, m.game, m.sessionID
	choiceID := m.question.Choices[choice].ChoiceID
	return func() tea.Msg {
		res, err := game.Answer(ctx, id, choiceID)
		if err != nil {
			return errMsg{err: fmt.Errorf("answer: %w", err)}
		}
		return answeredMsg{result: res}
	}
}

func (m Model) finish() tea.Cmd {
	ctx, game, id, showScores := m.ctx, m.game, m.sessionID, m.opts.ShowScores
	return func() tea.Msg {
		summary, err := game.Summary(ctx, id)
		if err != nil {
			return errMsg{err: fmt.Errorf("summary: %w", err)}
		}
		var scores []domain.HighScoreEntry
		if showScores {
			// best effort
			scores, _ = game.HighScores(ctx, 10)
		}
		return finishedMsg{summary: summary, scores: scores}
	}
}

// Err returns the error that ended the program, if any.
func (m Model) Err() error { return m.err }

// Summary returns the final session summary once finished.
func (m Model) Summary() (domain.SessionSummary, bool) {
	return m.summary, m.phase == phaseFinished
}

// View renders the current phase.
func (m Model) View() string {
	switch m.phase {
	case phaseLoading:
		return m.styles.dim.Render("starting session...")
	case phaseQuestion:
		return m.viewQuestion()
	case phaseFeedback:
		verdict := m.styles.correct.Render("Correct!")
		if !m.correct {
			verdict = m.styles.wrong.Render("Wrong.")
		}
		return lipgloss.JoinVertical(lipgloss.Left, verdict, m.styles.dim.Render("press any key for the next question"))
	case phaseFinished:
		return m.viewFinished()
	}
	return ""
}

func (m Model) viewQuestion() string {
	var b strings.Builder
	for i, c := range m.question.Choices {
		line := fmt.Sprintf("%d. %s", i+1, c.Text)
		if i == m.cursor {
			b.WriteString(m.styles.selected.Render("> " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}
	header := m.styles.title.Render(fmt.Sprintf("Question %d/%d", m.question.Index+1, m.question.Total))
	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		m.question.Prompt,
		"",
		b.String(),
		m.styles.dim.Render("1-9 or enter to answer, q to quit"),
	)
}

func (m Model) viewFinished() string {
	result := m.styles.title.Render(fmt.Sprintf("Finished: %d/%d correct", m.summary.CorrectAnswers, m.summary.TotalQuestions))
	if !m.hasScores {
		return lipgloss.JoinVertical(lipgloss.Left, result, m.styles.dim.Render("press any key to exit"))
	}
	return lipgloss.JoinVertical(lipgloss.Left, result, "", "High scores", m.scores.View(), m.styles.dim.Render("press any key to exit"))
}

func scoreRows(entries []domain.HighScoreEntry) []table.Row {
	rows := make([]table.Row, 0, len(entries))
	for i, e := range entries {
		rows = append(rows, table.Row{strconv.Itoa(i + 1), e.Username, strconv.Itoa(e.Score)})
	}
	return rows
}
