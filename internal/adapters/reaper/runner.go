// Package reaper runs the notification retention loop as a service mode.
package reaper

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/acadly/complaintdesk/config"
	"github.com/acadly/complaintdesk/internal/core"
	"github.com/acadly/complaintdesk/internal/data"
	"github.com/acadly/complaintdesk/internal/observability/metrics"
	"github.com/acadly/complaintdesk/internal/service"
)

// Runner owns a ReaperService and runs its loop.
type Runner struct {
	reaper *service.ReaperService
	logger *slog.Logger
}

// RunnerOptions holds the dependencies for creating a Runner.
// Either DB or Repo must be set; Repo wins when both are.
type RunnerOptions struct {
	DB      *sql.DB
	Repo    core.NotificationReaperRepository
	Config  config.ReaperConfig
	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

// NewRunner creates a new reaper runner with the given options.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	if opts.DB == nil && opts.Repo == nil {
		return nil, errors.New("database connection is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	repo := opts.Repo
	if repo == nil {
		repo = data.NewNotificationRepo(opts.DB)
	}

	svc, err := service.NewReaperService(service.ReaperServiceOptions{
		Repo:    repo,
		Config:  opts.Config,
		Logger:  opts.Logger,
		Metrics: opts.Metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("wire reaper service: %w", err)
	}

	return &Runner{reaper: svc, logger: opts.Logger}, nil
}

// Run starts the reaper loop and runs until the context is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.InfoContext(ctx, "starting reaper runner")
	return r.reaper.Run(ctx)
}
