package sync

import (
	"context"
	"errors"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"analytics-sync-service/internal/config"
)

// Scheduler triggers periodic incremental runs in serve mode.
type Scheduler struct {
	cfg     config.SchedulerConfig
	manager *Manager
	log     *zap.Logger
	cron    *cron.Cron
	entryID cron.EntryID
}

func NewScheduler(cfg config.SchedulerConfig, manager *Manager, log *zap.Logger) *Scheduler {
	return &Scheduler{
		cfg:     cfg,
		manager: manager,
		log:     log,
		cron:    cron.New(),
	}
}

func (s *Scheduler) Start() {
	if !s.cfg.Enabled {
		s.log.Info("scheduler is disabled")
		return
	}

	s.log.Info("starting scheduler", zap.String("interval", s.cfg.Interval))

	id, err := s.cron.AddFunc(s.cfg.Interval, s.triggerSync)
	if err != nil {
		s.log.Error("failed to schedule sync job", zap.Error(err))
		return
	}
	s.entryID = id
	s.cron.Start()
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
	s.log.Info("stopped scheduler")
}

func (s *Scheduler) triggerSync() {
	s.log.Info("triggering scheduled incremental sync")

	report, err := s.manager.RunIncremental(context.Background())
	if err != nil {
		if errors.Is(err, ErrRunInProgress) {
			s.log.Info("sync already running, skipping scheduled run")
			return
		}
		s.log.Error("scheduled sync failed", zap.Error(err))
		return
	}
	if report.Degraded {
		s.log.Warn("scheduled sync degraded", zap.String("errors", report.Errors()))
	}
}
