package cli

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"brainbuster-service/internal/app"
	"brainbuster-service/internal/auth"
	"brainbuster-service/internal/config"
	"brainbuster-service/internal/infra/memory"
	redisinfra "brainbuster-service/internal/infra/redis"
	transport "brainbuster-service/internal/transport/http"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

// sessionStore is what the game service and the sweeper need from a session store.
type sessionStore interface {
	app.SessionRepository
	app.SessionSweeper
}

// questionCache fronts the question store for sampling.
type questionCache interface {
	app.QuestionSource
	app.PoolInvalidator
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}

	sessionTTL := config.TTLDuration(cfg.Session.TTL, 30*time.Minute)
	poolTTL := config.TTLDuration(cfg.Quiz.PoolTTL, 10*time.Minute)

	var cache questionCache
	var sessions sessionStore
	if redisClient != nil {
		cache = redisinfra.NewQuestionCache(redisClient, st.questions, poolTTL)
		sessions = redisinfra.NewSessionStore(redisClient, config.TTLDuration(cfg.Redis.TTL, sessionTTL))
	} else {
		cache = memory.NewQuestionCache(st.questions, poolTTL)
		sessions = memory.NewSessionStore()
	}

	questionSvc := app.NewQuestionService(st.questions, cache)
	if err := seedIfEmpty(ctx, questionSvc, cfg.Seed.QuestionsFile, false); err != nil {
		return err
	}

	tokens := auth.NewTokens(cfg.Auth.Secret,
		config.TTLDuration(cfg.Auth.AccessTTL, 24*time.Hour),
		config.TTLDuration(cfg.Auth.RefreshTTL, 7*24*time.Hour))
	userSvc := app.NewUserService(st.users, auth.NewHasher(0), tokens)
	if err := userSvc.EnsureAdmin(ctx, cfg.Auth.AdminUsername, cfg.Auth.AdminPassword); err != nil {
		return err
	}

	reporter := app.NewScoreReporter(st.users, 0)
	rnd := app.NewTimeSeededRand()
	games := app.NewGameService(
		sessions,
		app.NewSampler(cache, rnd, cfg.Quiz.PoolSize),
		app.NewShuffler(rnd, nil),
		app.WithFinishListener(reporter),
	)

	server := &http.Server{
		Addr: ":" + finalPort,
		Handler: transport.NewRouter(transport.RouterConfig{
			Games:          games,
			Questions:      questionSvc,
			Users:          userSvc,
			Tokens:         tokens,
			CORSOrigins:    cfg.Server.CORSOrigins,
			RequestTimeout: config.TTLDuration(cfg.Server.RequestTimeout, 30*time.Second),
		}),
		ReadHeaderTimeout: 15 * time.Second,
	}

	return runGroup(ctx, server, server.ListenAndServe, reporter, func(ctx context.Context) error {
		return app.RunSweeper(ctx, sessions, sessionTTL, config.TTLDuration(cfg.Session.SweepInterval, time.Minute))
	})
}

// runGroup serves until ctx is done, then shuts the server down. The reporter is stopped
// only after Shutdown returns so finish events from in-flight requests are still applied.
func runGroup(ctx context.Context, server *http.Server, serve func() error, reporter *app.ScoreReporter, sweep func(context.Context) error) error {
	reporterCtx, stopReporter := context.WithCancel(context.Background())
	defer stopReporter()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("starting brainbuster on %s", server.Addr)
		if err := serve(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return reporter.Run(reporterCtx)
	})
	g.Go(func() error {
		return sweep(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Println("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := server.Shutdown(shutdownCtx)
		stopReporter()
		return err
	})
	return g.Wait()
}
