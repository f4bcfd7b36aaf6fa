package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"

	"airline-assistant-service/internal/domain/entity"
	"airline-assistant-service/internal/domain/repository"
	"airline-assistant-service/internal/infrastructure/config"
	"airline-assistant-service/internal/infrastructure/oracle"
	"airline-assistant-service/internal/infrastructure/persistence"
	"airline-assistant-service/internal/infrastructure/router"
	"airline-assistant-service/internal/interface/httpapi"
	repo "airline-assistant-service/internal/interface/repository"
	"airline-assistant-service/internal/usecase"
	"airline-assistant-service/pkg/logger"
	"airline-assistant-service/pkg/metrics"
	"airline-assistant-service/pkg/utils"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.NewLogger().Fatal("Failed to load config", "error", err)
	}

	// Create logger
	log := logger.NewLoggerWithLevel(cfg.LogLevel)
	defer log.Sync()
	log.Info("Starting Airline Assistant Service", "version", cfg.AppVersion)

	loc, err := cfg.Location()
	if err != nil {
		log.Fatal("Failed to resolve timezone", "error", err)
	}

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up PostgreSQL connection
	log.Info("Connecting to PostgreSQL", "host", cfg.PGHost, "database", cfg.PGDatabase)
	gormDB, err := persistence.NewPostgresDB(ctx, cfg.PostgresDSN())
	if err != nil {
		log.Fatal("Failed to connect to PostgreSQL", "error", err)
	}
	if cfg.RunMigrations {
		if err := persistence.Migrate(ctx, gormDB, goose.DialectPostgres, log); err != nil {
			log.Fatal("Failed to run migrations", "error", err)
		}
	}

	llm := newOracle(ctx, cfg, log)

	// Conversation store
	conversations, closeStore := newConversationStore(ctx, cfg, log)
	defer closeStore()

	// Policy retrieval
	retriever := newRetriever(cfg, log)

	m := metrics.NewMetrics("airline_assistant")
	clock := usecase.Clock(time.Now)

	// Set up repositories
	reservations := repo.NewGormReservationRepository(gormDB)
	schedules := repo.NewGormScheduleRepository(gormDB)
	queries := repo.NewGormQueryRepository(gormDB)

	var machine *usecase.CancellationMachine
	registry := usecase.NewRegistry()
	local := map[entity.CapabilityIntent]func() usecase.Capability{
		entity.IntentReservationQuery: func() usecase.Capability {
			return usecase.NewReadQueryCapability(usecase.ReservationQuerySpec(), llm, queries, 10, log)
		},
		entity.IntentScheduleQuery: func() usecase.Capability {
			return usecase.NewReadQueryCapability(usecase.ScheduleQuerySpec(), llm, queries, 10, log)
		},
		entity.IntentReservationBook: func() usecase.Capability {
			slots := usecase.NewSlotExtractor(llm, utils.NewUtteranceParser(loc, log), clock, log)
			return usecase.NewBookingCapability(slots, schedules, reservations, clock, m, log)
		},
		entity.IntentReservationCancel: func() usecase.Capability {
			machine = usecase.NewCancellationMachine(reservations, usecase.CancellationOptions{
				Retriever:     retriever,
				TopK:          1,
				DefaultPolicy: cfg.CancellationPolicy,
				TTL:           cfg.CancellationTimeout,
				Clock:         clock,
				Metrics:       m,
			}, log)
			return machine
		},
		entity.IntentPolicyQuery: func() usecase.Capability {
			return usecase.NewPolicyCapability(retriever, llm, cfg.RetrieverTopK, log)
		},
	}
	for _, intent := range entity.KnownIntents {
		if url := cfg.ServiceURLs[string(intent)]; url != "" {
			log.Info("Using remote capability service", "intent", intent, "url", url)
			registry.Register(intent, usecase.NewRemoteCapability(intent, repo.NewHTTPCapabilityGateway(url, cfg.CapabilityTimeout, log)))
			continue
		}
		if build, ok := local[intent]; ok {
			registry.Register(intent, build())
		}
	}
	registry.Register(entity.IntentTimeQuery, usecase.NewTimeCapability(loc, clock))

	agent := usecase.NewAgent(usecase.AgentOptions{
		Conversations: conversations,
		Registry:      registry,
		Classifier:    usecase.NewClassifier(llm, router.NewDefaultRuleRouter(log), log),
		Cancellation:  machine,
		Timeout:       cfg.CapabilityTimeout,
		Clock:         clock,
		Metrics:       m,
	}, log)

	handler := httpapi.NewHandler(agent, httpapi.Options{
		Version: cfg.AppVersion,
		Probes: []httpapi.Probe{
			{Name: "conversations", Check: conversations.Ping},
			{Name: "database", Check: pingDatabase(gormDB)},
		},
	}, log)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler.Router(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	// Start HTTP server in a goroutine
	go func() {
		log.Info("Starting HTTP server", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", "error", err)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	log.Info("Received signal", "signal", sig)

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", "error", err)
	}

	cancel()

	if sqlDB, err := gormDB.DB(); err == nil {
		sqlDB.Close()
	}

	log.Info("Service stopped")
}

func newOracle(ctx context.Context, cfg *config.Config, log logger.Logger) repository.Oracle {
	if cfg.OracleProvider == config.ProviderGemini {
		g, err := oracle.NewGemini(ctx, cfg.GeminiAPIKey,
			oracle.WithGeminiModel(cfg.GeminiModel),
			oracle.WithGeminiTemperature(cfg.Temperature))
		if err != nil {
			log.Fatal("Failed to create Gemini client", "error", err)
		}
		log.Info("Using Gemini", "model", cfg.GeminiModel)
		return g
	}

	opts := []oracle.OpenAIOption{
		oracle.WithOpenAIModel(cfg.ModelName),
		oracle.WithOpenAITemperature(cfg.Temperature),
	}
	if cfg.OpenAIBaseURL != "" {
		opts = append(opts, oracle.WithBaseURL(cfg.OpenAIBaseURL))
	}
	o, err := oracle.NewOpenAI(cfg.OpenAIAPIKey, opts...)
	if err != nil {
		log.Fatal("Failed to create OpenAI client", "error", err)
	}
	log.Info("Using OpenAI", "model", cfg.ModelName)
	return o
}

func newConversationStore(ctx context.Context, cfg *config.Config, log logger.Logger) (repository.ConversationRepository, func()) {
	switch cfg.ConversationBackend {
	case config.BackendMongo:
		log.Info("Connecting to MongoDB")
		client, err := persistence.NewMongoClient(ctx, persistence.MongoOptions{
			URI:      cfg.MongoURI,
			Username: cfg.MongoUser,
			Password: cfg.MongoPassword,
			AppName:  "airline-assistant",
		})
		if err != nil {
			log.Fatal("Failed to connect to MongoDB", "error", err)
		}
		store, err := repo.NewMongoConversationRepository(ctx, client.Database(cfg.MongoDB), cfg.ConversationTTL)
		if err != nil {
			log.Fatal("Failed to prepare conversation collection", "error", err)
		}
		return store, disconnectMongo(client, log)

	case config.BackendRedis:
		log.Info("Connecting to Redis")
		client, err := persistence.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatal("Failed to connect to Redis", "error", err)
		}
		return repo.NewRedisConversationRepository(client, cfg.ConversationTTL), closeRedis(client, log)
	}

	log.Info("Using in-memory conversation store")
	return repo.NewMemoryConversationRepository(cfg.ConversationTTL), func() {}
}

func newRetriever(cfg *config.Config, log logger.Logger) repository.Retriever {
	if cfg.RetrieverURL != "" {
		log.Info("Using remote policy retriever", "url", cfg.RetrieverURL)
		return repo.NewHTTPRetriever(cfg.RetrieverURL, log)
	}
	index, err := repo.NewPolicyIndexFromDir(cfg.PolicyDocsDir)
	if err != nil {
		log.Fatal("Failed to index policy documents", "dir", cfg.PolicyDocsDir, "error", err)
	}
	log.Info("Indexed policy documents", "dir", cfg.PolicyDocsDir)
	return index
}

func pingDatabase(db *gorm.DB) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
}

func disconnectMongo(client *mongo.Client, log logger.Logger) func() {
	return func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.Error("MongoDB disconnect error", "error", err)
		}
	}
}

func closeRedis(client *redis.Client, log logger.Logger) func() {
	return func() {
		if err := client.Close(); err != nil {
			log.Error("Redis close error", "error", err)
		}
	}
}
