package tui

import (
	"context"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
)

// Run plays one session in the terminal and prints the final score to out.
func Run(ctx context.Context, game Game, opts Options, out io.Writer) error {
	program := tea.NewProgram(NewModel(ctx, game, opts), tea.WithContext(ctx), tea.WithOutput(out), tea.WithAltScreen())
	final, err := program.Run()
	if err != nil {
		return err
	}
	m, ok := final.(Model)
	if !ok {
		return nil
	}
	if m.Err() != nil {
		return m.Err()
	}
	if summary, done := m.Summary(); done {
		fmt.Fprintf(out, "%d/%d correct\n", summary.CorrectAnswers, summary.TotalQuestions)
	}
	return nil
}
