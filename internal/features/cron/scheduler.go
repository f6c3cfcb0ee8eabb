package cron_feature

import (
	"context"
	"fmt"
	"time"

	common_models "go-eventops/internal/common/models"
	"go-eventops/internal/config"
	"go-eventops/internal/features/audit"
	"go-eventops/internal/features/invoice"

	"github.com/robfig/cron/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Scheduler runs the daily overdue-invoice reminder scan. The schedule comes
// from REMINDER_SCHEDULE and must be a standard five-field cron expression.
type Scheduler struct {
	cron         *cron.Cron
	reminders    invoice.ReminderService
	auditService audit.AuditService
	config       *config.Config
	logger       *zap.Logger
}

func NewScheduler(
	reminders invoice.ReminderService,
	auditService audit.AuditService,
	cfg *config.Config,
	logger *zap.Logger,
) *Scheduler {
	return &Scheduler{
		cron:         cron.New(),
		reminders:    reminders,
		auditService: auditService,
		config:       cfg,
		logger:       logger,
	}
}

func (s *Scheduler) Start() error {
	if _, err := cron.ParseStandard(s.config.ReminderSchedule); err != nil {
		return fmt.Errorf("invalid reminder schedule %q: %w", s.config.ReminderSchedule, err)
	}

	_, err := s.cron.AddFunc(s.config.ReminderSchedule, s.runReminderScan)
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("Reminder scheduler started",
		zap.String("schedule", s.config.ReminderSchedule))
	return nil
}

func (s *Scheduler) Stop() {
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	s.logger.Info("Reminder scheduler stopped")
}

func (s *Scheduler) runReminderScan() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	started := time.Now()
	if err := s.reminders.ProcessOverdue(ctx); err != nil {
		s.logger.Error("Reminder scan failed", zap.Error(err))
		return
	}

	_ = s.auditService.LogChange(ctx, common_models.AuditActionCron, "reminder_scan", "", nil, map[string]interface{}{
		"duration_ms": time.Since(started).Milliseconds(),
	})
}

// RegisterSchedulerLifecycle ties the scheduler to the application lifecycle.
func RegisterSchedulerLifecycle(lc fx.Lifecycle, scheduler *Scheduler) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return scheduler.Start()
		},
		OnStop: func(ctx context.Context) error {
			scheduler.Stop()
			return nil
		},
	})
}
