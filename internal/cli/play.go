package cli

import (
	"os"

	"brainbuster-service/internal/client"
	"brainbuster-service/internal/tui"
	"github.com/spf13/cobra"
)

// NewPlayCmd plays a session against a running server in the terminal.
func NewPlayCmd() *cobra.Command {
	var (
		server   string
		token    string
		username string
		password string
		opts     tui.Options
	)
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play a quiz session in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := client.New(server, client.WithToken(token))
			if username != "" {
				if _, err := c.Login(cmd.Context(), username, password); err != nil {
					return err
				}
			}
			opts.ShowScores = token != "" || username != ""
			return tui.Run(cmd.Context(), c, opts, os.Stdout)
		},
	}
	cmd.Flags().StringVar(&server, "server", "http://localhost:8080", "server base URL")
	cmd.Flags().StringVar(&token, "token", os.Getenv("BRAINBUSTER_TOKEN"), "access token; anonymous play when empty")
	cmd.Flags().StringVar(&username, "username", "", "log in before playing")
	cmd.Flags().StringVar(&password, "password", "", "password for --username")
	cmd.Flags().IntVar(&opts.NumQuestions, "questions", 10, "number of questions")
	cmd.Flags().StringVar(&opts.Category, "category", "", "category filter")
	cmd.Flags().StringVar(&opts.Difficulty, "difficulty", "", "difficulty filter")
	cmd.Flags().BoolVar(&opts.NoColor, "no-color", false, "disable colors")
	return cmd
}
