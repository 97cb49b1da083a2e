package service

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/acadly/complaintdesk/config"
	"github.com/acadly/complaintdesk/internal/core"
	obserrors "github.com/acadly/complaintdesk/internal/observability/errors"
	"github.com/acadly/complaintdesk/internal/observability/metrics"
)

// ReaperServiceOptions groups dependencies for ReaperService.
type ReaperServiceOptions struct {
	Repo    core.NotificationReaperRepository // Required
	Config  config.ReaperConfig               // Required: sanitized reaper configuration
	Logger  *slog.Logger
	Metrics *metrics.Metrics
	Now     func() time.Time
}

// ReaperService enforces notification retention: read notifications are
// removed after ReadMaxAge and, when UnreadMaxAge is set, unread ones after
// that age.
type ReaperService struct {
	repo    core.NotificationReaperRepository
	config  config.ReaperConfig
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewReaperService constructs a new ReaperService.
func NewReaperService(opts ReaperServiceOptions) (*ReaperService, error) {
	if opts.Repo == nil {
		return nil, errors.New("NotificationReaperRepository is required")
	}
	if opts.Config.Interval <= 0 {
		return nil, errors.New("reaper interval must be positive")
	}
	if opts.Config.BatchSize < 1 {
		return nil, errors.New("reaper batch size must be positive")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "reaper_service")
	logger.Debug("ReaperService initialized",
		"interval", opts.Config.Interval,
		"read_max_age", opts.Config.ReadMaxAge,
		"unread_max_age", opts.Config.UnreadMaxAge,
		"batch_size", opts.Config.BatchSize,
	)

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &ReaperService{
		repo:    opts.Repo,
		config:  opts.Config,
		logger:  logger,
		metrics: opts.Metrics,
		now:     now,
	}, nil
}

// Run starts the reaper loop and runs until the context is cancelled.
// Returns nil on graceful shutdown (context.Canceled), error otherwise.
func (s *ReaperService) Run(ctx context.Context) error {
	s.logger.InfoContext(ctx, "starting reaper service", "interval", s.config.Interval)

	// Jitter keeps replicas that start together from colliding on the advisory lock.
	s.waitWithJitter(ctx)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	if _, err := s.RunOnce(ctx); err != nil {
		s.logCleanupError(ctx, err, "initial cleanup")
	}

	return s.runLoop(ctx, ticker)
}

// waitWithJitter sleeps a random delay up to 10% of the interval.
func (s *ReaperService) waitWithJitter(ctx context.Context) {
	maxJitter := int64(s.config.Interval / 10)
	if maxJitter <= 0 {
		return
	}

	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		s.logger.WarnContext(ctx, "failed to generate jitter, skipping", "error", err)
		return
	}

	jitterNanos := binary.BigEndian.Uint64(buf[:]) % uint64(maxJitter)
	jitter := time.Duration(int64(jitterNanos)) // #nosec G115 - bounded by maxJitter which is int64

	select {
	case <-time.After(jitter):
	case <-ctx.Done():
	}
}

func (s *ReaperService) runLoop(ctx context.Context, ticker *time.Ticker) error {
	for {
		select {
		case <-ctx.Done():
			s.logger.InfoContext(ctx, "reaper service stopping", "reason", ctx.Err())
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()

		case <-ticker.C:
			if _, err := s.RunOnce(ctx); err != nil {
				s.logCleanupError(ctx, err, "cleanup")
			}
		}
	}
}

// ReaperResult reports how many notifications one pass removed.
type ReaperResult struct {
	ReadDeleted   int64
	UnreadDeleted int64
}

// Total returns the number of rows removed in the pass.
func (r ReaperResult) Total() int64 { return r.ReadDeleted + r.UnreadDeleted }

// RunOnce performs a single retention pass. Both steps run even when the
// first fails; their errors are joined.
func (s *ReaperService) RunOnce(ctx context.Context) (ReaperResult, error) {
	start := s.now()
	var (
		res  ReaperResult
		errs []error
	)

	n, err := s.deleteInBatches(ctx, true, s.config.ReadMaxAge)
	res.ReadDeleted = n
	s.metrics.RecordReaperDeleted("delete_read", n)
	if err != nil {
		errs = append(errs, fmt.Errorf("delete read notifications: %w", err))
	}

	if s.config.UnreadMaxAge > 0 {
		n, err = s.deleteInBatches(ctx, false, s.config.UnreadMaxAge)
		res.UnreadDeleted = n
		s.metrics.RecordReaperDeleted("delete_unread", n)
		if err != nil {
			errs = append(errs, fmt.Errorf("delete unread notifications: %w", err))
		}
	}

	joined := errors.Join(errs...)
	s.emitRunMetrics(res, joined, start)

	if joined != nil {
		if isContextCancellation(joined) {
			return res, context.Canceled
		}
		return res, fmt.Errorf("cleanup failed: %w", joined)
	}
	return res, nil
}

// deleteInBatches loops until a batch removes nothing, checking the context
// between batches.
func (s *ReaperService) deleteInBatches(ctx context.Context, read bool, maxAge time.Duration) (int64, error) {
	params := core.DeleteOldNotificationsParams{
		Before:    s.now().Add(-maxAge),
		Read:      read,
		BatchSize: s.config.BatchSize,
	}

	var total int64
	for {
		count, err := s.repo.DeleteOld(ctx, params)
		if err != nil {
			return total, err
		}
		total += count
		if count < int64(params.BatchSize) {
			break
		}
		if ctx.Err() != nil {
			return total, ctx.Err()
		}
	}

	if total > 0 {
		s.logger.InfoContext(ctx, "deleted old notifications",
			"read", read,
			"count", total,
			"max_age", maxAge,
		)
	}
	return total, nil
}

func (s *ReaperService) emitRunMetrics(res ReaperResult, err error, start time.Time) {
	result := metrics.ResultSuccess
	var class string
	switch {
	case err != nil && !isContextCancellation(err):
		result = metrics.ResultError
		class = obserrors.Classify(err)
	case res.Total() == 0:
		result = metrics.ResultNoop
	}
	now := s.now()
	s.metrics.RecordReaperRun(result, class, now.Sub(start), now)
}

func (s *ReaperService) logCleanupError(ctx context.Context, err error, label string) {
	if err == nil {
		return
	}
	if isContextCancellation(err) {
		s.logger.DebugContext(ctx, label+" cancelled by context", "error", err)
		return
	}
	s.logger.ErrorContext(ctx, label+" failed", "error", err)
}

func isContextCancellation(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
