package processor

import (
	"context"

	"adminplus/pkg/logger"
	"adminplus/token-worker/internal/app/token-worker/service"

	"github.com/robfig/cron/v3"
)

type CronScheduler struct {
	cron       *cron.Cron
	revocation service.RevocationServiceInterface
}

func NewCronScheduler(revocation service.RevocationServiceInterface) *CronScheduler {
	c := cron.New(
		cron.WithLogger(cron.PrintfLogger(logger.Logger())),
		// Следующий запуск пропускается, если предыдущая очистка еще идет
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)

	return &CronScheduler{
		cron:       c,
		revocation: revocation,
	}
}

// Start регистрирует задачу очистки refresh токенов и сразу выполняет ее один раз
func (s *CronScheduler) Start(ctx context.Context, schedule string) error {
	if _, err := s.cron.AddFunc(schedule, func() { s.purge(ctx) }); err != nil {
		return err
	}

	s.cron.Start()
	logger.Info().Str("schedule", schedule).Msg("Cron scheduler started")

	s.purge(ctx)
	return nil
}

func (s *CronScheduler) purge(ctx context.Context) {
	if _, err := s.revocation.PurgeRefreshTokens(ctx); err != nil {
		logger.Error().Err(err).Msg("Failed to purge refresh tokens")
	}
}

func (s *CronScheduler) Stop() {
	logger.Info().Msg("Stopping cron scheduler...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info().Msg("Cron scheduler stopped")
}

func (s *CronScheduler) GetEntries() []cron.Entry {
	return s.cron.Entries()
}
