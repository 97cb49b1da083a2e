package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/acadly/complaintdesk/internal/domain/model"
	"github.com/acadly/complaintdesk/internal/mocks"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newAnalyticsService(t *testing.T, withCache bool) (*mocks.MockAnalyticsRepository, *mocks.MockCacheRepository, *AnalyticsService) {
	t.Helper()
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockAnalyticsRepository(ctrl)
	cache := mocks.NewMockCacheRepository(ctrl)
	opts := AnalyticsServiceOptions{Repo: repo, Now: func() time.Time { return fixedNow }}
	if withCache {
		opts.Cache = cache
		opts.CacheTTL = 30 * time.Second
	}
	return repo, cache, NewAnalyticsService(opts)
}

func expectAllQueries(repo *mocks.MockAnalyticsRepository) {
	avg := 36.5
	repo.EXPECT().CountByStatus(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, scope model.AnalyticsScope) (map[model.ComplaintStatus]int, error) {
			if !scope.Since.Equal(fixedNow.Add(-30 * 24 * time.Hour)) {
				return nil, errors.New("unexpected since")
			}
			return map[model.ComplaintStatus]int{
				model.ComplaintStatusPending:  2,
				model.ComplaintStatusInReview: 1,
				model.ComplaintStatusResolved: 4,
				model.ComplaintStatusRejected: 0,
			}, nil
		})
	repo.EXPECT().CountByCategory(gomock.Any(), gomock.Any()).Return(map[model.ComplaintCategory]int{
		model.ComplaintCategoryGrade: 5, model.ComplaintCategoryCourse: 1, model.ComplaintCategoryOther: 1,
	}, nil)
	repo.EXPECT().CountByDepartment(gomock.Any(), gomock.Any()).Return(nil, nil)
	repo.EXPECT().AvgResolutionHours(gomock.Any(), gomock.Any()).Return(&avg, nil)
	repo.EXPECT().CountCreatedSince(gomock.Any(), gomock.Any()).Return(3, nil)
}

func TestAnalyticsService_Summary(t *testing.T) {
	repo, _, svc := newAnalyticsService(t, false)
	expectAllQueries(repo)

	sum, err := svc.Summary(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 7, sum.Total)
	assert.Equal(t, 5, sum.ByCategory[model.ComplaintCategoryGrade])
	assert.NotNil(t, sum.ByDepartment)
	require.NotNil(t, sum.AvgResolutionHours)
	assert.InDelta(t, 36.5, *sum.AvgResolutionHours, 0.001)
	assert.Equal(t, 3, sum.CreatedLast30Days)
	assert.Equal(t, fixedNow, sum.GeneratedAt)
}

func TestAnalyticsService_Summary_QueryError(t *testing.T) {
	repo, _, svc := newAnalyticsService(t, false)
	boom := errors.New("db down")
	repo.EXPECT().CountByStatus(gomock.Any(), gomock.Any()).Return(nil, boom)
	repo.EXPECT().CountByCategory(gomock.Any(), gomock.Any()).Return(nil, nil).AnyTimes()
	repo.EXPECT().CountByDepartment(gomock.Any(), gomock.Any()).Return(nil, nil).AnyTimes()
	repo.EXPECT().AvgResolutionHours(gomock.Any(), gomock.Any()).Return(nil, nil).AnyTimes()
	repo.EXPECT().CountCreatedSince(gomock.Any(), gomock.Any()).Return(0, nil).AnyTimes()

	_, err := svc.Summary(context.Background(), nil)
	require.ErrorIs(t, err, boom)
}

func TestAnalyticsService_Summary_CacheMissThenStore(t *testing.T) {
	repo, cache, svc := newAnalyticsService(t, true)
	ctx := context.Background()
	dept := testDeptID
	key := "analytics:summary:" + testDeptID

	cache.EXPECT().Get(ctx, key).Return(nil, nil)
	expectAllQueries(repo)
	cache.EXPECT().Set(ctx, key, gomock.Any(), 30*time.Second).
		DoAndReturn(func(_ context.Context, _ string, raw []byte, _ time.Duration) error {
			var got model.AnalyticsSummary
			require.NoError(t, json.Unmarshal(raw, &got))
			assert.Equal(t, 7, got.Total)
			return nil
		})

	_, err := svc.Summary(ctx, &dept)
	require.NoError(t, err)
}

func TestAnalyticsService_Summary_CacheHit(t *testing.T) {
	_, cache, svc := newAnalyticsService(t, true)
	ctx := context.Background()
	raw, err := json.Marshal(model.AnalyticsSummary{Total: 42})
	require.NoError(t, err)

	cache.EXPECT().Get(ctx, "analytics:summary:all").Return(raw, nil)

	sum, err := svc.Summary(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 42, sum.Total)
}

func TestAnalyticsService_Summary_CacheFailureFallsThrough(t *testing.T) {
	repo, cache, svc := newAnalyticsService(t, true)
	ctx := context.Background()

	cache.EXPECT().Get(ctx, "analytics:summary:all").Return(nil, errors.New("redis down"))
	expectAllQueries(repo)
	cache.EXPECT().Set(ctx, "analytics:summary:all", gomock.Any(), gomock.Any()).Return(errors.New("redis down"))

	sum, err := svc.Summary(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 7, sum.Total)
}

func TestAnalyticsService_Invalidate(t *testing.T) {
	_, cache, svc := newAnalyticsService(t, true)
	ctx := context.Background()

	cache.EXPECT().Delete(ctx, "analytics:summary:all", "analytics:summary:"+testDeptID).Return(true, nil)
	svc.Invalidate(ctx, testDeptID)

	var nilSvc *AnalyticsService
	assert.NotPanics(t, func() { nilSvc.Invalidate(ctx, testDeptID) })
}
