package integration

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"quiz-progression-service/internal/app"
	"quiz-progression-service/internal/catalog"
	"quiz-progression-service/internal/domain"
	"quiz-progression-service/internal/infra/postgres"
	infraredis "quiz-progression-service/internal/infra/redis"
)

func TestProgressSurvivesRestartEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	if _, err := postgres.Migrate(ctx, pgURL); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	pgCatalog := postgres.NewCatalogSource(pool)
	if err := pgCatalog.SaveQuizzes(ctx, sampleQuizzes()); err != nil {
		t.Fatalf("seed: %v", err)
	}

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()
	source := infraredis.NewCatalogCache(redisClient, pgCatalog, "it:", time.Minute)

	stores := map[string]app.StateStore{
		"postgres": postgres.NewStateStore(pool),
		"redis":    infraredis.NewStateStore(redisClient, "it:"),
	}
	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			first := startEngine(t, ctx, source, store)
			if _, err := first.SubmitAnswer(ctx, "staedte", 1, "Berlin"); err != nil {
				t.Fatalf("submit: %v", err)
			}
			res, err := first.SubmitAnswer(ctx, "staedte", 2, "Muenchen")
			if err != nil {
				t.Fatalf("submit: %v", err)
			}
			if !res.IsCorrect || !res.CompletedQuiz || len(res.Unlocked) != 1 || res.Unlocked[0] != "bonus" {
				t.Fatalf("expected completion unlocking bonus, got %+v", res)
			}
			if _, err := first.UseHint(ctx, "bonus", 1, domain.FirstLetterHintID); err != nil {
				t.Fatalf("use hint: %v", err)
			}

			second := startEngine(t, ctx, source, store)
			state, err := second.QuizState("staedte")
			if err != nil {
				t.Fatalf("quiz state: %v", err)
			}
			if !state.Completed() {
				t.Fatalf("expected restored completion, got %+v", state)
			}
			bonus, _ := second.Quiz("bonus")
			if bonus.InitiallyLocked {
				t.Fatalf("expected bonus to stay unlocked after restart")
			}
			// 50 start + 2*10 correct - 10 first letter
			if got := second.Points().TotalPoints; got != 60 {
				t.Fatalf("expected 60 points, got %d", got)
			}
			hints, err := second.HintState("bonus", 1)
			if err != nil || !hints.Used(domain.FirstLetterHintID) {
				t.Fatalf("expected restored hint usage, got %+v err=%v", hints, err)
			}
			if pending := second.PendingUnlocks(); len(pending) != 1 || pending[0].QuizID != "bonus" {
				t.Fatalf("expected pending bonus unlock, got %+v", pending)
			}
		})
	}
}

func startEngine(t *testing.T, ctx context.Context, source catalog.Source, store app.StateStore) *app.Engine {
	t.Helper()
	quizzes, err := source.LoadQuizzes(ctx)
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	engine := app.NewEngine(store)
	if err := engine.RegisterQuizzes(quizzes...); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := engine.Restore(ctx); err != nil {
		t.Fatalf("restore: %v", err)
	}
	return engine
}

func sampleQuizzes() []domain.Quiz {
	return []domain.Quiz{
		{
			ID:                       "staedte",
			Title:                    "Städte",
			Mode:                     domain.ModeSequential,
			InitialUnlockedQuestions: 1,
			Questions: []domain.Question{
				{ID: 1, Answer: "Berlin"},
				{ID: 2, Answer: "München"},
			},
		},
		{
			ID:              "bonus",
			Title:           "Bonus",
			Mode:            domain.ModeAllUnlocked,
			InitiallyLocked: true,
			UnlockCondition: &domain.UnlockCondition{Type: domain.UnlockPlaythrough, RequiredQuizID: "staedte"},
			Questions:       []domain.Question{{ID: 1, Answer: "Rhein"}},
		},
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(opts), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
