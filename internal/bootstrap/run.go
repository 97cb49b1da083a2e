package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/acadly/complaintdesk/config"
	"github.com/acadly/complaintdesk/internal/adapters/reaper"
)

// ServiceOrchestrationConfig is everything RunServicesWithShutdown needs.
type ServiceOrchestrationConfig struct {
	Config      *config.AppConfig
	Services    ServiceContainer
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// serviceUnit is one SERVICES mode. run blocks until ctx is done or the unit
// fails.
type serviceUnit struct {
	mode config.ServiceMode
	run  func(ctx context.Context) error
}

// RunServicesWithShutdown runs every enabled service until SIGINT or SIGTERM
// arrives or one of them fails; a failure stops the rest.
func RunServicesWithShutdown(cfg *ServiceOrchestrationConfig) error {
	if cfg == nil || cfg.Config == nil {
		return errors.New("service orchestration config with AppConfig is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	enabled, err := cfg.Config.GetEnabledServices()
	if err != nil {
		return fmt.Errorf("determine enabled services: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var units []serviceUnit
	for _, u := range buildUnits(cfg, logger) {
		if enabled[u.mode] {
			units = append(units, u)
		}
	}
	return runUnits(ctx, logger, units)
}

func buildUnits(cfg *ServiceOrchestrationConfig, logger *slog.Logger) []serviceUnit {
	return []serviceUnit{
		{
			mode: config.ServiceModeHTTP,
			run: func(ctx context.Context) error {
				srv := newHTTPServer(&HTTPServerConfig{
					Config:   cfg.Config,
					Services: cfg.Services,
					DB:       cfg.DB,
					Logger:   logger,
				})
				return serveHTTP(ctx, srv, logger)
			},
		},
		{
			mode: config.ServiceModeReaper,
			run: func(ctx context.Context) error {
				runner, err := reaper.NewRunner(reaper.RunnerOptions{
					DB:      cfg.DB,
					Config:  cfg.Config.Reaper,
					Logger:  logger,
					Metrics: cfg.Services.Observability.Metrics,
				})
				if err != nil {
					return fmt.Errorf("create reaper runner: %w", err)
				}
				return runner.Run(ctx)
			},
		},
	}
}

// runUnits runs units concurrently. It returns nil on a clean shutdown and
// the first unit failure otherwise.
func runUnits(ctx context.Context, logger *slog.Logger, units []serviceUnit) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, u := range units {
		g.Go(func() error {
			logger.InfoContext(gctx, "service started", "service", u.mode)
			err := u.run(gctx)
			if err != nil && gctx.Err() != nil && errors.Is(err, context.Canceled) {
				err = nil
			}
			if err != nil {
				logger.ErrorContext(gctx, "service failed", "service", u.mode, "error", err)
				return fmt.Errorf("%s: %w", u.mode, err)
			}
			logger.InfoContext(gctx, "service stopped", "service", u.mode)
			return nil
		})
	}

	return g.Wait()
}
