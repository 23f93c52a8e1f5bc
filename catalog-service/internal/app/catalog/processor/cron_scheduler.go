package processor

import (
	"context"
	"time"

	"pdv/catalog-service/internal/app/catalog/service"
	"pdv/pkg/logger"

	"github.com/robfig/cron/v3"
)

// CronScheduler периодически повторяет удаление изображений из outbox
type CronScheduler struct {
	cron       *cron.Cron
	cleanupSvc service.ImageCleanupServiceInterface
}

func NewCronScheduler(cleanupSvc service.ImageCleanupServiceInterface) *CronScheduler {
	cronLogger := logger.With().Str("component", "cron").Logger()
	printf := cron.PrintfLogger(&cronLogger)

	c := cron.New(
		cron.WithLogger(printf),
		cron.WithChain(cron.Recover(printf), cron.SkipIfStillRunning(printf)),
	)

	return &CronScheduler{
		cron:       c,
		cleanupSvc: cleanupSvc,
	}
}

// Start регистрирует задачу очистки и запускает планировщик.
// Первый проход выполняется сразу: после рестарта в outbox могут остаться записи.
func (s *CronScheduler) Start(ctx context.Context, schedule string) error {
	logger.Info().Str("schedule", schedule).Msg("Starting image cleanup scheduler")

	_, err := s.cron.AddFunc(schedule, func() {
		s.RunNow(ctx)
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	logger.Info().Msg("Image cleanup scheduler started")

	s.RunNow(ctx)

	return nil
}

// RunNow выполняет один проход очистки синхронно
func (s *CronScheduler) RunNow(ctx context.Context) service.CleanupResult {
	start := time.Now()

	result, err := s.cleanupSvc.ProcessPending(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Image cleanup pass failed")
		return result
	}

	if result.Processed > 0 {
		logger.Info().
			Int("processed", result.Processed).
			Int("deleted", result.Deleted).
			Int("skipped", result.Skipped).
			Int("failed", result.Failed).
			Dur("duration", time.Since(start)).
			Msg("Image cleanup pass completed")
	}

	return result
}

func (s *CronScheduler) Stop() {
	logger.Info().Msg("Stopping image cleanup scheduler...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info().Msg("Image cleanup scheduler stopped")
}

func (s *CronScheduler) GetEntries() []cron.Entry {
	return s.cron.Entries()
}
