package cli

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/spf13/cobra"

	"quiz-progression-service/internal/catalog"
	"quiz-progression-service/internal/config"
	"quiz-progression-service/internal/infra/postgres"
	"quiz-progression-service/internal/platform/logger"
)

// NewMigrateCmd applies database migrations and optionally seeds the catalog.
func NewMigrateCmd(configPath *string) *cobra.Command {
	var seed bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrations(cmd.Context(), *configPath, seed)
		},
	}
	cmd.Flags().BoolVar(&seed, "seed", false, "upsert the YAML catalog into the quizzes table")
	return cmd
}

func runMigrations(ctx context.Context, configPath string, seed bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return err
	}
	defer log.Sync()
	group, err := postgres.Migrate(ctx, cfg.Postgres.URL)
	if err != nil {
		return err
	}
	if group.IsZero() {
		log.Info("no new migrations")
	} else {
		log.Info("migrations applied", "group", group.String())
	}

	if !seed {
		return nil
	}
	quizzes, err := catalog.NewFileSource(cfg.Catalog.Path).LoadQuizzes(ctx)
	if err != nil {
		return err
	}
	pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
	if err != nil {
		return err
	}
	defer pool.Close()
	if err := postgres.NewCatalogSource(pool).SaveQuizzes(ctx, quizzes); err != nil {
		return err
	}
	log.Info("catalog seeded", "quizzes", len(quizzes), "path", cfg.Catalog.Path)
	return nil
}
