package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dealer_crm_backend/internal/command"
	"dealer_crm_backend/internal/email"
	"dealer_crm_backend/internal/events"
	"dealer_crm_backend/internal/notification"
	"dealer_crm_backend/internal/policy"
	"dealer_crm_backend/internal/scheduler"
	"dealer_crm_backend/internal/store"
	"dealer_crm_backend/internal/store/memory"
	"dealer_crm_backend/internal/store/mongo"
	"dealer_crm_backend/internal/store/postgres"
	"dealer_crm_backend/platform/config"
	"dealer_crm_backend/platform/db"
	"dealer_crm_backend/platform/logger"

	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env, "store", cfg.StoreDriver)

	if cfg.GetRedisURL() == "" {
		panic("REDIS_URL is required for the scheduler")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pol := policy.Default()
	if path := cfg.GetPolicyFile(); path != "" {
		pol, err = policy.LoadFile(path)
		if err != nil {
			log.Error("failed to load policy", "error", err, "path", path)
			panic("failed to load policy: " + err.Error())
		}
	}

	var st store.Store
	if err := withRetry(ctx, log, "store connection", 5, 2*time.Second, func() error {
		s, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		st = s
		return nil
	}); err != nil {
		log.Error("failed to open store", "error", err)
		panic("failed to open store: " + err.Error())
	}

	eventBus := events.NewInMemoryBus(log)

	redisOpt, err := redis.ParseURL(cfg.GetRedisURL())
	if err != nil {
		panic("invalid REDIS_URL: " + err.Error())
	}
	if redisOpt.TLSConfig != nil && cfg.GetRedisTLSInsecure() {
		redisOpt.TLSConfig.InsecureSkipVerify = true
	}
	redisClient := redis.NewClient(redisOpt)
	defer func() { _ = redisClient.Close() }()

	var sender email.Sender = email.NoopSender{}
	if cfg.IsSMTPEnabled() {
		sender = email.NewSMTPSender(cfg)
	} else {
		log.Warn("SMTP not configured; manager emails are dropped")
	}

	notificationModule := notification.New(sender, notification.NewRedisThrottle(redisClient), cfg, log)
	notificationModule.RegisterHandlers(eventBus)
	notificationModule.PublishLiveTo(notification.NewRedisRelay(redisClient, log))

	alerts := command.NewService(st, pol, log)

	periodic, err := scheduler.NewPeriodic(cfg, pol.BusinessHours.Location(), log)
	if err != nil {
		log.Error("failed to initialize periodic scheduler", "error", err)
		panic("failed to initialize periodic scheduler: " + err.Error())
	}
	go periodic.Run(ctx)

	worker, err := scheduler.NewWorker(cfg, alerts, st, eventBus, log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	worker.Run(ctx)
}

// openStore mirrors the API's driver selection. The scheduler never runs
// migrations; the API owns the schema.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.GetStoreDriver() {
	case config.StoreDriverPostgres:
		pool, err := db.NewPool(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return postgres.New(pool), nil
	case config.StoreDriverMongo:
		return mongo.Connect(ctx, cfg.GetMongoURI(), cfg.GetMongoDatabase())
	default:
		return memory.New(), nil
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

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
