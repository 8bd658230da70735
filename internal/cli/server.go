package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lesson-editor-service/internal/app"
	"lesson-editor-service/internal/config"
	"lesson-editor-service/internal/domain"
	"lesson-editor-service/internal/infra/memory"
	pgstore "lesson-editor-service/internal/infra/postgres"
	redisinfra "lesson-editor-service/internal/infra/redis"
	transport "lesson-editor-service/internal/transport/http"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the lesson editor server",
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

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	staticBank := memory.NewStaticBankLoader(sampleBank())
	var loader memory.BankLoader = staticBank
	if pool != nil {
		loader = pgstore.NewBankLoader(pool)
	}

	bankTTL := config.TTLDuration(cfg.Bank.TTL, 10*time.Minute)
	var bankRepo app.BankRepository
	if redisClient != nil {
		bankRepo = redisinfra.NewBankRepository(redisClient, loader, bankTTL)
	} else {
		bankRepo = memory.NewBankRepository(loader, bankTTL)
	}

	var lessons app.LessonRepository
	if pool != nil {
		lessons = pgstore.NewLessonStore(pool)
	} else {
		lessons = memory.NewLessonStore(staticBank)
	}

	var sessions app.SessionRepository
	if redisClient != nil {
		sessions = redisinfra.NewSessionStore(redisClient, redisTTL)
	} else {
		sessions = memory.NewSessionStore()
	}
	service := app.NewEditorService(sessions, bankRepo, lessons)
	wsHandler := transport.NewWSHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting lesson editor service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleBank provides a minimal candidate set; the Postgres loader replaces
// this in production.
func sampleBank() []domain.Candidate {
	return []domain.Candidate{
		{
			SourceID:       "bank-101",
			Kind:           domain.KindMultipleChoice,
			Prompt:         "Which planet is closest to the sun?",
			Choices:        []string{"Venus", "Mercury", "Mars", "Earth"},
			CorrectChoices: []string{"Mercury"},
		},
		{
			SourceID:       "bank-102",
			Kind:           domain.KindMultipleChoice,
			Prompt:         "What is 7 x 8?",
			Choices:        []string{"54", "56", "64", "48"},
			CorrectChoices: []string{"56"},
		},
		{
			SourceID: "bank-103",
			Kind:     domain.KindShortAnswer,
			Prompt:   "Name the process plants use to turn light into energy.",
		},
	}
}
