package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dealer_crm_backend/internal/adapters/storage"
	"dealer_crm_backend/internal/appointments"
	"dealer_crm_backend/internal/assistant"
	"dealer_crm_backend/internal/command"
	"dealer_crm_backend/internal/email"
	"dealer_crm_backend/internal/events"
	"dealer_crm_backend/internal/finance"
	"dealer_crm_backend/internal/forecast"
	apphttp "dealer_crm_backend/internal/http"
	"dealer_crm_backend/internal/http/router"
	"dealer_crm_backend/internal/intake"
	"dealer_crm_backend/internal/inventory"
	"dealer_crm_backend/internal/kpi"
	"dealer_crm_backend/internal/leads"
	"dealer_crm_backend/internal/notification"
	"dealer_crm_backend/internal/pipeline"
	"dealer_crm_backend/internal/policy"
	"dealer_crm_backend/internal/scheduler"
	"dealer_crm_backend/internal/store"
	"dealer_crm_backend/internal/store/memory"
	"dealer_crm_backend/internal/store/mongo"
	"dealer_crm_backend/internal/store/postgres"
	"dealer_crm_backend/platform/ai/moonshot"
	"dealer_crm_backend/platform/config"
	"dealer_crm_backend/platform/db"
	"dealer_crm_backend/platform/logger"
	"dealer_crm_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr, "store", cfg.StoreDriver)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	pol, err := loadPolicy(cfg, log)
	if err != nil {
		log.Error("failed to load policy", "error", err)
		panic("failed to load policy: " + err.Error())
	}

	st, health, closeStore := openStore(ctx, cfg, log)
	defer closeStore()

	redisClient := openRedis(cfg, log)
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	}

	eventBus := events.NewInMemoryBus(log)

	reminderScheduler, sweeps, closeScheduler := initScheduler(cfg, log)
	if closeScheduler != nil {
		defer closeScheduler()
	}

	val := validator.New()

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	var locker intake.Locker
	var throttle notification.Throttle = notification.NewMemoryThrottle()
	if redisClient != nil {
		locker = intake.NewRedisLocker(redisClient, cfg.GetIntakeLockTTL())
		throttle = notification.NewRedisThrottle(redisClient)
	}

	notificationModule := notification.New(newSender(cfg, log), throttle, cfg, log)
	notificationModule.RegisterHandlers(eventBus)
	if redisClient != nil {
		// Route dashboard updates through Redis so scheduler events and other
		// API instances reach this process's stream.
		relay := notification.NewRedisRelay(redisClient, log)
		notificationModule.PublishLiveTo(relay)
		go func() {
			if err := relay.Run(ctx, notificationModule.SSE()); err != nil {
				log.Error("live relay stopped", "error", err)
			}
		}()
	}

	intakeSvc := intake.NewService(st, locker, initProofArchive(ctx, cfg, log), eventBus, pol.Intake, log)
	pipelineSvc := pipeline.NewService(st, eventBus, log)
	leadsSvc := leads.NewService(st, pipelineSvc, initSuggester(cfg, log), log)

	modules := []apphttp.Module{
		intake.NewModule(intakeSvc, val),
		pipeline.NewModule(pipelineSvc, val),
		leads.NewModule(leadsSvc, val),
		appointments.NewModule(st, pipelineSvc, reminderScheduler, val, log),
		finance.NewModule(finance.NewService(st, pipelineSvc, log), val),
		inventory.NewModule(inventory.NewService(st, log), val),
		command.NewModule(command.NewService(st, pol, log)),
		kpi.NewModule(kpi.NewService(st, pol.KPI, log)),
		forecast.NewModule(forecast.NewService(st, pol, log)),
		notificationModule,
	}

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   health,
		EventBus: eventBus,
		Policy:   pol,
		Modules:  modules,
	}
	if sweeps != nil {
		app.Sweeps = sweeps
	}

	engine := router.New(app)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		notificationModule.SSE().Close()
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func loadPolicy(cfg config.PolicyConfig, log *logger.Logger) (policy.Policy, error) {
	path := cfg.GetPolicyFile()
	if path == "" {
		log.Info("POLICY_FILE not configured; using default policy")
		return policy.Default(), nil
	}
	pol, err := policy.LoadFile(path)
	if err != nil {
		return policy.Policy{}, err
	}
	log.Info("policy loaded", "path", path)
	return pol, nil
}

// openStore selects the document store backend. The returned health checker is
// nil for the in-memory driver.
func openStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (store.Store, apphttp.HealthChecker, func()) {
	switch cfg.GetStoreDriver() {
	case config.StoreDriverPostgres:
		var pool *pgxpool.Pool
		if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
			p, err := db.NewPool(ctx, cfg)
			if err != nil {
				return err
			}
			pool = p
			return nil
		}); err != nil {
			log.Error("failed to connect to database", "error", err)
			panic("failed to connect to database: " + err.Error())
		}
		log.Info("database connection established")

		if err := db.RunMigrations(ctx, pool); err != nil {
			log.Error("failed to run database migrations", "error", err)
			panic("failed to run database migrations: " + err.Error())
		}
		log.Info("database migrations complete")
		return postgres.New(pool), db.NewPoolAdapter(pool), pool.Close

	case config.StoreDriverMongo:
		var st *mongo.Store
		if err := withRetry(ctx, log, "mongo connection", 5, 2*time.Second, func() error {
			s, err := mongo.Connect(ctx, cfg.GetMongoURI(), cfg.GetMongoDatabase())
			if err != nil {
				return err
			}
			st = s
			return nil
		}); err != nil {
			log.Error("failed to connect to mongo", "error", err)
			panic("failed to connect to mongo: " + err.Error())
		}
		if err := st.EnsureIndexes(ctx); err != nil {
			log.Error("failed to ensure mongo indexes", "error", err)
			panic("failed to ensure mongo indexes: " + err.Error())
		}
		log.Info("mongo connection established", "database", cfg.GetMongoDatabase())
		return st, st, func() { _ = st.Close(context.Background()) }

	default:
		log.Warn("using in-memory store; data is lost on restart")
		return memory.New(), nil, func() {}
	}
}

func openRedis(cfg config.SchedulerConfig, log *logger.Logger) *redis.Client {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; intake locking and alert throttling are process-local")
		return nil
	}
	opt, err := redis.ParseURL(cfg.GetRedisURL())
	if err != nil {
		log.Error("invalid REDIS_URL", "error", err)
		panic("invalid REDIS_URL: " + err.Error())
	}
	if opt.TLSConfig != nil && cfg.GetRedisTLSInsecure() {
		opt.TLSConfig.InsecureSkipVerify = true
	}
	return redis.NewClient(opt)
}

func initScheduler(cfg config.SchedulerConfig, log *logger.Logger) (scheduler.ReminderScheduler, *scheduler.Client, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; appointment reminders disabled")
		return nil, nil, nil
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize scheduler client", "error", err)
		return nil, nil, nil
	}

	return client, client, func() {
		_ = client.Close()
	}
}

func initProofArchive(ctx context.Context, cfg config.MinIOConfig, log *logger.Logger) intake.ProofStore {
	if !cfg.IsMinIOEnabled() {
		log.Warn("MINIO_ENDPOINT not configured; consent proofs are not archived")
		return nil
	}
	archive, err := storage.NewProofArchive(cfg)
	if err != nil {
		log.Error("failed to initialize proof archive", "error", err)
		panic("failed to initialize proof archive: " + err.Error())
	}
	if err := withRetry(ctx, log, "ensure consent-proofs bucket", 5, 2*time.Second, func() error {
		return archive.EnsureBucketExists(ctx)
	}); err != nil {
		log.Error("failed to ensure storage bucket exists", "error", err, "bucket", cfg.GetMinioBucketConsentProofs())
		panic("failed to ensure storage bucket exists: " + err.Error())
	}
	log.Info("proof archive initialized", "bucket", cfg.GetMinioBucketConsentProofs())
	return archive
}

func initSuggester(cfg config.AIConfig, log *logger.Logger) assistant.Suggester {
	if !cfg.IsAIEnabled() {
		log.Info("MOONSHOT_API_KEY not configured; follow-up suggestions use templates")
		return assistant.StaticSuggester{}
	}
	llm := moonshot.NewModel(moonshot.Config{
		APIKey: cfg.GetMoonshotAPIKey(),
		Model:  cfg.GetMoonshotModel(),
	})
	log.Info("ai suggester enabled", "model", llm.Name())
	return assistant.NewLLMSuggester(llm, log)
}

func newSender(cfg *config.Config, log *logger.Logger) email.Sender {
	if !cfg.IsSMTPEnabled() {
		log.Warn("SMTP not configured; manager emails are dropped")
		return email.NoopSender{}
	}
	return email.NewSMTPSender(cfg)
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
