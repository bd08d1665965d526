package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCacheServiceRoundTrip(t *testing.T) {
	svc := NewCacheService(newMemoryCache(), NewMetricsService(), 0, zap.NewNop(), true)
	ctx := context.Background()

	var out []string
	hit, err := svc.Get(ctx, "terms:p1", &out)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, svc.Set(ctx, "terms:p1", []string{"1", "2"}, 0))
	hit, err = svc.Get(ctx, "terms:p1", &out)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []string{"1", "2"}, out)

	require.NoError(t, svc.Invalidate(ctx, "terms:*"))
	hit, _ = svc.Get(ctx, "terms:p1", &out)
	assert.False(t, hit)
}

func TestCacheServiceDisabled(t *testing.T) {
	svc := NewCacheService(newMemoryCache(), nil, 0, zap.NewNop(), false)
	require.NoError(t, svc.Set(context.Background(), "k", "v", 0))
	var out string
	hit, err := svc.Get(context.Background(), "k", &out)
	require.NoError(t, err)
	assert.False(t, hit)

	var nilSvc *CacheService
	assert.False(t, nilSvc.Enabled())
	require.NoError(t, nilSvc.Delete(context.Background(), "k"))
}
