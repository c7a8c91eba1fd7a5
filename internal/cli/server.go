package cli

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"email-quiz-service/internal/app"
	"email-quiz-service/internal/config"
	"email-quiz-service/internal/domain"
	"email-quiz-service/internal/infra/memory"
	pgstore "email-quiz-service/internal/infra/postgres"
	redisstore "email-quiz-service/internal/infra/redis"
	transport "email-quiz-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

const (
	defaultSessionTTL   = 24 * time.Hour
	defaultMaxAttempts  = 3
	defaultDedupeWindow = 5 * time.Second
	defaultCacheTTL     = 10 * time.Minute
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz campaign server",
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

	sessionTTL := config.TTLDuration(cfg.Session.TTL, defaultSessionTTL)
	cacheTTL := config.TTLDuration(cfg.Quiz.CacheTTL, defaultCacheTTL)
	dedupeWindow := config.TTLDuration(cfg.Quiz.DedupeWindow, defaultDedupeWindow)
	maxAttempts := cfg.MaxAttempts(defaultMaxAttempts)

	var (
		participants app.ParticipantStore
		questions    app.QuestionStore
		sessions     app.SessionStore
		ledger       app.AttemptLedger
		loader       memory.QuestionLoader
	)

	if cfg.Postgres.URL != "" {
		sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Postgres.URL)))
		db := bun.NewDB(sqldb, pgdialect.New())
		defer db.Close()

		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()

		participants = pgstore.NewParticipantStore(db)
		questions = pgstore.NewQuestionStore(db)
		sessions = pgstore.NewSessionStore(db)
		ledger = pgstore.NewVoteLedger(db)
		loader = pgstore.NewQuestionLoader(pool)
	} else {
		memQuestions := memory.NewQuestionStore()
		seedDemoData(ctx, memQuestions)
		participants = memory.NewParticipantStore()
		questions = memQuestions
		sessions = memory.NewSessionStore()
		ledger = memory.NewLedger()
		loader = memQuestions
	}

	var questionReads app.QuestionRepository
	if redisClient != nil {
		questionReads = redisstore.NewQuestionRepository(redisClient, loader, cacheTTL)
		sessions = redisstore.NewSessionStore(redisClient)
	} else {
		questionReads = memory.NewQuestionCache(loader, cacheTTL)
	}

	gate := app.NewAllowGate(participants)
	tokens := app.NewTokenService(sessions, sessionTTL)
	admission := app.NewAdmissionController(gate, questionReads, ledger, maxAttempts, dedupeWindow)
	results := app.NewResultsService(questionReads, ledger, admission)
	reset := app.NewResetService(ledger, participants, questions, sessions)
	hub := app.NewTallyHub()

	handler := transport.NewHandler(tokens, gate, questionReads, admission, results, reset, participants, ledger, hub, cfg.Auth.ProofSalt, sessionTTL)
	feed := transport.NewTallyFeed(hub, ledger)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	handler.Register(mux)
	mux.HandleFunc("/tally/ws", feed.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting quiz campaign service on :%s", finalPort)
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

// seedDemoData loads a sample question for local runs without Postgres;
// real deployments load questions through Postgres.
func seedDemoData(ctx context.Context, questions *memory.QuestionStore) {
	_, _ = questions.Put(ctx, domain.Question{
		Text:          "What is 2 + 2?",
		Options:       [domain.OptionCount]string{"3", "4", "5"},
		CorrectOption: 2,
		Active:        true,
		CreatedAt:     time.Now(),
	})
}
