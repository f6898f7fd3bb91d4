package cli

import (
	"context"
	"fmt"
	"log"

	"brainbuster-service/internal/app"
	"brainbuster-service/internal/config"
	"brainbuster-service/internal/infra/memory"
	"brainbuster-service/internal/infra/postgres"
	"brainbuster-service/internal/infra/sqlite"
	"github.com/jackc/pgx/v4/pgxpool"
)

// stores is the persistence selected by store.driver.
type stores struct {
	questions app.QuestionStore
	users     app.UserStore
	closers   []func()
}

func (s *stores) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func openStores(ctx context.Context, cfg config.Config) (*stores, error) {
	switch cfg.Store.Driver {
	case config.DriverPostgres:
		db := postgres.OpenBun(cfg.Postgres.URL)
		if err := postgres.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate postgres: %w", err)
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		log.Printf("using postgres store")
		return &stores{
			questions: postgres.NewQuestionStore(pool),
			users:     postgres.NewUserStore(db),
			closers:   []func(){func() { db.Close() }, pool.Close},
		}, nil
	case config.DriverSQLite:
		db, err := sqlite.Open(ctx, cfg.SQLite.Path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		log.Printf("using sqlite store")
		return &stores{
			questions: sqlite.NewQuestionStore(db),
			users:     sqlite.NewUserStore(db),
			closers:   []func(){func() { db.Close() }},
		}, nil
	default:
		log.Printf("using in-memory store")
		return &stores{
			questions: memory.NewQuestionStore(),
			users:     memory.NewUserStore(),
		}, nil
	}
}

// seedIfEmpty loads the configured question file into an empty bank.
func seedIfEmpty(ctx context.Context, svc *app.QuestionService, path string, force bool) error {
	if path == "" {
		return nil
	}
	if !force {
		n, err := svc.Count(ctx)
		if err != nil {
			return err
		}
		if n > 0 {
			log.Printf("question bank holds %d questions, skipping seed", n)
			return nil
		}
	}
	qs, err := config.LoadQuestions(path)
	if err != nil {
		return fmt.Errorf("load questions: %w", err)
	}
	stored, err := svc.Seed(ctx, qs)
	if err != nil {
		return err
	}
	log.Printf("seeded %d questions from %s", stored, path)
	return nil
}
