package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"dealer_crm_backend/platform/config"
	"dealer_crm_backend/platform/logger"
)

const defaultSLASweepInterval = time.Minute

// Periodic registers the recurring SLA sweep with asynq.
type Periodic struct {
	scheduler *asynq.Scheduler
	log       *logger.Logger
	entryID   string
}

func NewPeriodic(cfg config.SchedulerConfig, loc *time.Location, log *logger.Logger) (*Periodic, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	scheduler := asynq.NewScheduler(opt, &asynq.SchedulerOpts{Location: loc})

	task, err := NewSLASweepTask(SLASweepPayload{TriggeredBy: "schedule"})
	if err != nil {
		return nil, err
	}
	entryID, err := scheduler.Register(sweepSpec(cfg.GetSLASweepInterval()), task,
		asynq.Queue(queueName(cfg)),
		asynq.MaxRetry(0),
	)
	if err != nil {
		return nil, fmt.Errorf("register sla sweep: %w", err)
	}

	return &Periodic{scheduler: scheduler, log: log, entryID: entryID}, nil
}

// Run starts the scheduler and stops it when ctx ends.
func (p *Periodic) Run(ctx context.Context) {
	if p == nil || p.scheduler == nil {
		return
	}
	if err := p.scheduler.Start(); err != nil {
		p.log.Error("periodic scheduler failed to start", "error", err)
		return
	}
	p.log.Info("periodic scheduler started", "task", TaskSLASweep, "entryId", p.entryID)
	<-ctx.Done()
	p.scheduler.Shutdown()
}

func sweepSpec(interval time.Duration) string {
	if interval <= 0 {
		interval = defaultSLASweepInterval
	}
	return "@every " + interval.String()
}
