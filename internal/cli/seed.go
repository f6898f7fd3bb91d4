package cli

import (
	"context"

	"brainbuster-service/internal/app"
	"brainbuster-service/internal/config"
	"github.com/spf13/cobra"
)

// NewSeedCmd loads a YAML question bank into the configured store.
func NewSeedCmd(configPath *string) *cobra.Command {
	var (
		file  string
		force bool
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load questions into the configured store",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd.Context(), *configPath, file, force)
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "question file (defaults to seed.questions_file)")
	cmd.Flags().BoolVar(&force, "force", false, "seed even when the bank is not empty")
	return cmd
}

func runSeed(ctx context.Context, configPath, file string, force bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if file == "" {
		file = cfg.Seed.QuestionsFile
	}
	st, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()
	return seedIfEmpty(ctx, app.NewQuestionService(st.questions, nil), file, force)
}
