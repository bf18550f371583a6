package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"trivia-service/internal/app"
	"trivia-service/internal/config"
	"trivia-service/internal/domain"
	"trivia-service/internal/infra/memory"
	pgstore "trivia-service/internal/infra/postgres"
	rediscache "trivia-service/internal/infra/redis"
	"trivia-service/internal/logger"
	"trivia-service/internal/scheduler"
	transport "trivia-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the trivia server and scheduler",
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
	log := logger.New(cfg.Logger.Level, cfg.Logger.Env)
	defer log.Sync()

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
	cacheTTL := config.Duration(cfg.Redis.TTL, time.Minute)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	var (
		questions   app.QuestionRepository
		answers     app.AnswerRepository
		leaderboard app.LeaderboardRepository
		configs     app.CommunityConfigRepository
	)
	if pool != nil {
		questions = pgstore.NewQuestionRepository(pool)
		answers = pgstore.NewAnswerRepository(pool)
		leaderboard = pgstore.NewLeaderboardRepository(pool)
		configs = pgstore.NewCommunityConfigRepository(pool)
	} else {
		memQuestions := memory.NewQuestionRepository()
		memConfigs := memory.NewCommunityConfigRepository()
		questions = memQuestions
		answers = memory.NewAnswerRepository()
		leaderboard = memory.NewLeaderboardRepository()
		configs = memConfigs
		seedSampleData(ctx, memQuestions, memConfigs, log)
	}

	// The question repository doubles as the cache miss loader.
	var active app.ActiveQuestionCache
	if redisClient != nil {
		active = rediscache.NewActiveQuestionCache(redisClient, questions, cacheTTL)
	} else {
		active = memory.NewActiveQuestionCache(questions, cacheTTL)
	}

	questionTTL := config.Duration(cfg.Trivia.QuestionTTL, 5*time.Minute)
	service := app.NewTriviaService(questions, answers, leaderboard, configs, active, questionTTL, cfg.LeaderboardSize(), log)
	gateway := transport.NewGateway(service, log)

	postInterval := config.Duration(cfg.Trivia.PostInterval, 10*time.Minute)
	gradeInterval := config.Duration(cfg.Trivia.GradeInterval, time.Minute)
	sched := scheduler.New(service, gateway, postInterval, gradeInterval, log)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", gateway.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	schedCtx, stopSched := context.WithCancel(ctx)
	defer stopSched()
	go func() {
		if err := sched.Run(schedCtx); err != nil && schedCtx.Err() == nil {
			log.Error("scheduler stopped", zap.Error(err))
		}
	}()

	go func() {
		log.Info("starting trivia service", zap.String("port", finalPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("failed to start server", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info("shutting down server...")
	case <-ctx.Done():
		log.Info("context canceled, shutting down server...")
	}
	stopSched()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// seedSampleData loads a demo community and a handful of questions so
// a storage-less dev run has something to post; swap in Postgres for
// real deployments.
func seedSampleData(ctx context.Context, questions *memory.QuestionRepository, configs *memory.CommunityConfigRepository, log *zap.Logger) {
	const demoCommunity, demoChannel = 1, 1
	if err := configs.SetChannel(ctx, demoCommunity, demoChannel); err != nil {
		log.Warn("seed community config", zap.Error(err))
		return
	}
	samples := []domain.Question{
		{CommunityID: demoCommunity, AuthorID: 1, Type: domain.QuestionAnswer, Prompt: "What is the capital of France?", Answer: "Paris", Difficulty: 1},
		{CommunityID: demoCommunity, AuthorID: 1, Type: domain.TrueFalse, Prompt: "The Pacific is the largest ocean.", Answer: "true", Difficulty: 1},
		{CommunityID: demoCommunity, AuthorID: 1, Type: domain.ListQuestion, Prompt: "Name the three primary colors.", Answer: "red, yellow, blue", Difficulty: 3},
	}
	for _, q := range samples {
		q.CreatedAt = time.Now()
		if _, err := questions.Insert(ctx, q); err != nil {
			log.Warn("seed question", zap.Error(err))
		}
	}
}
