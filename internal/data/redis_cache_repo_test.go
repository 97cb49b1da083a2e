package data

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupCacheRepo(t *testing.T) (*miniredis.Miniredis, *RedisCacheRepo) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, NewRedisCacheRepo(client)
}

func TestRedisCacheRepo_SetGetDelete(t *testing.T) {
	mr, repo := setupCacheRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "analytics:all", []byte(`{"total":3}`), time.Minute))
	assert.True(t, mr.Exists(DefaultCachePrefix+"analytics:all"))
	assert.Equal(t, time.Minute, mr.TTL(DefaultCachePrefix+"analytics:all"))

	got, err := repo.Get(ctx, "analytics:all")
	require.NoError(t, err)
	assert.JSONEq(t, `{"total":3}`, string(got))

	deleted, err := repo.Delete(ctx, "analytics:all", "analytics:other")
	require.NoError(t, err)
	assert.True(t, deleted)

	got, err = repo.Get(ctx, "analytics:all")
	require.NoError(t, err)
	assert.Nil(t, got)

	deleted, err = repo.Delete(ctx, "analytics:all")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestRedisCacheRepo_Expiry(t *testing.T) {
	mr, repo := setupCacheRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "k", []byte("v"), time.Second))
	mr.FastForward(2 * time.Second)

	got, err := repo.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisCacheRepo_EmptyKey(t *testing.T) {
	_, repo := setupCacheRepo(t)
	ctx := context.Background()

	require.Error(t, repo.Set(ctx, "", []byte("v"), 0))
	_, err := repo.Get(ctx, "")
	require.Error(t, err)
	_, err = repo.Delete(ctx, "")
	require.Error(t, err)
	assert.NoError(t, repo.Health(ctx))
}

func TestRedisCacheRepo_HealthFailsWhenDown(t *testing.T) {
	mr, repo := setupCacheRepo(t)
	mr.Close()
	assert.Error(t, repo.Health(context.Background()))
}

// delKeyCounter records how many keys each DEL carried.
type delKeyCounter struct {
	mu     sync.Mutex
	counts []int
}

func (h *delKeyCounter) record(cmd redis.Cmder) {
	if !strings.EqualFold(cmd.Name(), "del") {
		return
	}
	h.mu.Lock()
	h.counts = append(h.counts, len(cmd.Args())-1)
	h.mu.Unlock()
}

func (h *delKeyCounter) DialHook(next redis.DialHook) redis.DialHook { return next }

func (h *delKeyCounter) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		h.record(cmd)
		return next(ctx, cmd)
	}
}

func (h *delKeyCounter) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		for _, cmd := range cmds {
			h.record(cmd)
		}
		return next(ctx, cmds)
	}
}

func TestRedisCacheRepo_DeleteIssuesSingleKeyCommands(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	hook := &delKeyCounter{}
	client.AddHook(hook)
	repo := NewRedisCacheRepo(client)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "analytics:all", []byte("1"), time.Minute))
	require.NoError(t, repo.Set(ctx, "analytics:dept:d1", []byte("2"), time.Minute))

	deleted, err := repo.Delete(ctx, "analytics:all", "analytics:dept:d1", "analytics:dept:d2")
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.False(t, mr.Exists(DefaultCachePrefix+"analytics:all"))
	assert.False(t, mr.Exists(DefaultCachePrefix+"analytics:dept:d1"))

	require.Len(t, hook.counts, 3)
	for _, n := range hook.counts {
		assert.Equal(t, 1, n)
	}
}
