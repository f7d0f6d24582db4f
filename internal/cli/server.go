package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"assessment-session-service/internal/app"
	"assessment-session-service/internal/config"
	"assessment-session-service/internal/domain"
	"assessment-session-service/internal/infra/memory"
	pgloader "assessment-session-service/internal/infra/postgres"
	redisinfra "assessment-session-service/internal/infra/redis"
	transport "assessment-session-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the assessment session server",
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
	progressTTL := config.Duration(cfg.Redis.TTL, 24*time.Hour)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	var loader memory.AssessmentLoader = memory.NewStaticAssessmentLoader(sampleAssessments())
	if pool != nil {
		loader = pgloader.NewAssessmentLoader(pool)
	}

	contentTTL := config.Duration(cfg.Assessment.TTL, 10*time.Minute)
	var assessments app.AssessmentRepository
	if redisClient != nil {
		assessments = redisinfra.NewAssessmentRepository(redisClient, loader, contentTTL)
	} else {
		assessments = memory.NewAssessmentRepository(loader, contentTTL)
	}

	var progress app.ProgressStore
	if redisClient != nil {
		progress = redisinfra.NewProgressStore(redisClient, progressTTL)
	} else {
		progress = memory.NewProgressStore()
	}

	var results app.ResultStore
	if pool != nil {
		results = pgloader.NewResultStore(pool)
	} else {
		results = memory.NewResultStore()
	}

	service := app.NewAssessmentService(assessments, progress, results)
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
		log.Printf("starting assessment service on :%s", finalPort)
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

// sampleAssessments provides a minimal placement assessment for running
// without Postgres; swap the loader with the JSONB-backed one in production.
func sampleAssessments() map[string]domain.Assessment {
	return map[string]domain.Assessment{
		"placement-1": {
			ID: "placement-1",
			Questions: []domain.Question{
				{
					ID:               "q1",
					Prompt:           "What is 2 + 2?",
					Type:             domain.QuestionTypeMCQ,
					Options:          []string{"3", "4", "5"},
					CorrectOption:    1,
					TimeLimitSeconds: 60,
					TopicID:          "arithmetic",
					ModuleID:         "numbers",
				},
				{
					ID:               "q2",
					Prompt:           "Name the capital of France.",
					Type:             domain.QuestionTypeText,
					AcceptedAnswers:  []string{"Paris"},
					TimeLimitSeconds: 45,
					TopicID:          "geography",
					ModuleID:         "europe",
				},
			},
		},
	}
}
