package jobs

import (
	"log/slog"

	"github.com/hibiken/asynq"
)

// Scheduler drives the periodic market quote refresh.
type Scheduler interface {
	RegisterTasks() error
	Run()
	Shutdown()
}

type scheduler struct {
	inner       *asynq.Scheduler
	refreshCron string
	log         *slog.Logger
}

// NewScheduler builds the periodic task scheduler. refreshCron is the cron
// spec for the market quote refresh.
func NewScheduler(redisOpt asynq.RedisConnOpt, refreshCron string, log *slog.Logger) Scheduler {
	if log == nil {
		log = slog.Default()
	}

	return &scheduler{
		inner:       asynq.NewScheduler(redisOpt, nil),
		refreshCron: refreshCron,
		log:         log,
	}
}

func (s *scheduler) RegisterTasks() error {
	task, err := NewMarketRefreshTask(nil)
	if err != nil {
		return err
	}

	if _, err := s.inner.Register(s.refreshCron, task); err != nil {
		return err
	}

	s.log.Info("market refresh scheduled", slog.String("cron", s.refreshCron))
	return nil
}

func (s *scheduler) Run() {
	go func() {
		if err := s.inner.Run(); err != nil {
			s.log.Error("scheduler stopped", slog.Any("error", err))
		}
	}()
}

func (s *scheduler) Shutdown() {
	s.log.Info("scheduler shutting down")
	s.inner.Shutdown()
}
