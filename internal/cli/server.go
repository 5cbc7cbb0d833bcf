package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"quiz-progression-service/internal/app"
	"quiz-progression-service/internal/catalog"
	"quiz-progression-service/internal/config"
	"quiz-progression-service/internal/infra/memory"
	"quiz-progression-service/internal/infra/postgres"
	redisstore "quiz-progression-service/internal/infra/redis"
	"quiz-progression-service/internal/platform/logger"
	transport "quiz-progression-service/internal/transport/http"
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

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return err
	}
	defer log.Sync()

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		if _, err := postgres.Migrate(ctx, cfg.Postgres.URL); err != nil {
			return err
		}
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}

	engine, err := buildEngine(ctx, cfg, log, pool, redisClient)
	if err != nil {
		return err
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	wsHandler := transport.NewWSHandler(engine, log)
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:        ":" + finalPort,
		Handler:     mux,
		ReadTimeout: 15 * time.Second,
	}

	go func() {
		log.Info("starting quiz progression service", "port", finalPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("failed to start server", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info("shutting down server")
	case <-ctx.Done():
		log.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// buildEngine picks the state store and catalog source from config, then
// registers the catalog and restores persisted progress.
func buildEngine(ctx context.Context, cfg config.Config, log *logger.Logger, pool *pgxpool.Pool, redisClient *redis.Client) (*app.Engine, error) {
	var store app.StateStore
	switch {
	case redisClient != nil:
		store = redisstore.NewStateStore(redisClient, cfg.Redis.Prefix)
	case pool != nil:
		store = postgres.NewStateStore(pool)
	default:
		log.Warn("no redis or postgres configured; progress is kept in memory only")
		store = memory.NewStateStore()
	}

	var source catalog.Source = catalog.NewFileSource(cfg.Catalog.Path)
	if pool != nil {
		source = postgres.NewCatalogSource(pool)
		if redisClient != nil && cfg.Redis.CatalogTTL > 0 {
			ttl := time.Duration(cfg.Redis.CatalogTTL) * time.Second
			source = redisstore.NewCatalogCache(redisClient, source, cfg.Redis.Prefix, ttl)
		}
	}

	quizzes, err := source.LoadQuizzes(ctx)
	if err != nil {
		return nil, err
	}

	engine := app.NewEngine(store,
		app.WithLogger(log),
		app.WithStartingGrant(cfg.Points.StartingGrant),
		app.WithCorrectReward(cfg.Points.CorrectReward),
		app.WithSaveAttempts(cfg.Persistence.SaveAttempts),
	)
	if err := engine.RegisterQuizzes(quizzes...); err != nil {
		// Invalid quizzes are skipped; the rest stay playable.
		log.Warn("some quizzes were rejected", "error", err)
	}
	if err := engine.Restore(ctx); err != nil {
		return nil, err
	}
	log.Info("engine ready", "quizzes", len(engine.Quizzes()), "points", engine.Points().TotalPoints)
	return engine, nil
}
