package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/acadly/complaintdesk/internal/core"
	"github.com/acadly/complaintdesk/internal/domain/model"
)

const (
	// DefaultAnalyticsCacheTTL is used when AnalyticsServiceOptions.CacheTTL is unset.
	DefaultAnalyticsCacheTTL = time.Minute

	recentWindow         = 30 * 24 * time.Hour
	analyticsCachePrefix = "analytics:summary:"
)

// AnalyticsServiceOptions groups dependencies for AnalyticsService. Cache is
// optional.
type AnalyticsServiceOptions struct {
	Repo     core.AnalyticsRepository
	Cache    core.CacheRepository
	CacheTTL time.Duration
	Logger   *slog.Logger
	Now      func() time.Time
}

// AnalyticsService builds the complaint activity summary.
type AnalyticsService struct {
	repo   core.AnalyticsRepository
	cache  core.CacheRepository
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time
}

// NewAnalyticsService constructs a new AnalyticsService.
func NewAnalyticsService(opts AnalyticsServiceOptions) *AnalyticsService {
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = DefaultAnalyticsCacheTTL
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &AnalyticsService{
		repo:   opts.Repo,
		cache:  opts.Cache,
		ttl:    ttl,
		logger: logger.With("component", "analytics_service"),
		now:    now,
	}
}

// Summary returns complaint totals, optionally for one department. Results
// are cached briefly; cache failures fall through to the database.
func (s *AnalyticsService) Summary(ctx context.Context, departmentID *string) (*model.AnalyticsSummary, error) {
	key := summaryCacheKey(departmentID)
	if cached := s.fromCache(ctx, key); cached != nil {
		return cached, nil
	}

	now := s.now().UTC()
	scope := model.AnalyticsScope{DepartmentID: departmentID, Since: now.Add(-recentWindow)}
	out := &model.AnalyticsSummary{GeneratedAt: now}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		byStatus, err := s.repo.CountByStatus(gctx, scope)
		if err != nil {
			return err
		}
		out.ByStatus = byStatus
		return nil
	})
	g.Go(func() error {
		byCategory, err := s.repo.CountByCategory(gctx, scope)
		if err != nil {
			return err
		}
		out.ByCategory = byCategory
		return nil
	})
	g.Go(func() error {
		byDept, err := s.repo.CountByDepartment(gctx, scope)
		if err != nil {
			return err
		}
		out.ByDepartment = byDept
		return nil
	})
	g.Go(func() error {
		avg, err := s.repo.AvgResolutionHours(gctx, scope)
		if err != nil {
			return err
		}
		out.AvgResolutionHours = avg
		return nil
	})
	g.Go(func() error {
		recent, err := s.repo.CountCreatedSince(gctx, scope)
		if err != nil {
			return err
		}
		out.CreatedLast30Days = recent
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, n := range out.ByStatus {
		out.Total += n
	}
	if out.ByDepartment == nil {
		out.ByDepartment = []model.DepartmentCount{}
	}

	s.toCache(ctx, key, out)
	return out, nil
}

// Invalidate drops cached summaries for the department and the global view.
func (s *AnalyticsService) Invalidate(ctx context.Context, departmentID string) {
	if s == nil || s.cache == nil {
		return
	}
	keys := []string{summaryCacheKey(nil)}
	if departmentID != "" {
		keys = append(keys, summaryCacheKey(&departmentID))
	}
	if _, err := s.cache.Delete(ctx, keys...); err != nil {
		s.logger.WarnContext(ctx, "analytics cache invalidation failed", "error", err)
	}
}

func (s *AnalyticsService) fromCache(ctx context.Context, key string) *model.AnalyticsSummary {
	if s.cache == nil {
		return nil
	}
	raw, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.WarnContext(ctx, "analytics cache read failed", "key", key, "error", err)
		return nil
	}
	if raw == nil {
		return nil
	}
	var out model.AnalyticsSummary
	if err := json.Unmarshal(raw, &out); err != nil {
		s.logger.WarnContext(ctx, "analytics cache entry unreadable", "key", key, "error", err)
		return nil
	}
	return &out
}

func (s *AnalyticsService) toCache(ctx context.Context, key string, v *model.AnalyticsSummary) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, raw, s.ttl); err != nil {
		s.logger.WarnContext(ctx, "analytics cache write failed", "key", key, "error", err)
	}
}

func summaryCacheKey(departmentID *string) string {
	if departmentID == nil || *departmentID == "" {
		return analyticsCachePrefix + "all"
	}
	return analyticsCachePrefix + *departmentID
}
