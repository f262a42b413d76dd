package reminders

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler sweeps the pending set once a minute and delivers due
// reminders.
type Scheduler struct {
	store    *Store
	notifier Notifier
	logger   *slog.Logger
	cron     *cron.Cron
}

// NewScheduler builds a scheduler. A nil notifier falls back to logging.
func NewScheduler(store *Store, notifier Notifier, logger *slog.Logger) *Scheduler {
	if notifier == nil {
		notifier = &LogNotifier{Logger: logger}
	}
	return &Scheduler{
		store:    store,
		notifier: notifier,
		logger:   logger,
		cron:     cron.New(),
	}
}

// Start begins the minute sweep. Returns once the job is registered.
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc("* * * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.store.FireDue(ctx, s.notifier); err != nil {
			s.logger.Error("reminder sweep failed", "error", err)
		}
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info("reminder scheduler started")
	return nil
}

// Stop halts the sweep and waits for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("reminder scheduler stopped")
}
