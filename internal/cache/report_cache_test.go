package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/contractor-ledger/internal/model"
)

func setupTestCache(t *testing.T, ttl time.Duration) (*ReportCache, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewReportCache(client, ttl), mr
}

func TestReportCache_SetGet(t *testing.T) {
	c, _ := setupTestCache(t, time.Minute)
	ctx := context.Background()

	want := model.ProfessionEarnings{Profession: "Programmer", Total: decimal.RequireFromString("2683.50")}
	require.NoError(t, c.Set(ctx, "best-profession:20200101-20201231", want))

	var got model.ProfessionEarnings
	hit, err := c.Get(ctx, "best-profession:20200101-20201231", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, want.Profession, got.Profession)
	assert.True(t, want.Total.Equal(got.Total))
}

func TestReportCache_Miss(t *testing.T) {
	c, _ := setupTestCache(t, time.Minute)

	var got []model.ClientPayment
	hit, err := c.Get(context.Background(), "best-clients:missing", &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestReportCache_InvalidateDropsEntries(t *testing.T) {
	c, _ := setupTestCache(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []int{1, 2}))
	require.NoError(t, c.Invalidate(ctx))

	var got []int
	hit, err := c.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, c.Set(ctx, "k", []int{3}))
	hit, err = c.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []int{3}, got)
}

func TestReportCache_TTLExpires(t *testing.T) {
	c, mr := setupTestCache(t, 10*time.Second)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", "v"))
	mr.FastForward(11 * time.Second)

	var got string
	hit, err := c.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestReportCache_NilIsDisabled(t *testing.T) {
	var c *ReportCache
	ctx := context.Background()

	hit, err := c.Get(ctx, "k", new(string))
	assert.NoError(t, err)
	assert.False(t, hit)
	assert.NoError(t, c.Set(ctx, "k", "v"))
	assert.NoError(t, c.Invalidate(ctx))
}

func TestReportCache_RedisDown(t *testing.T) {
	c, mr := setupTestCache(t, time.Minute)
	mr.Close()

	_, err := c.Get(context.Background(), "k", new(string))
	assert.Error(t, err)
}
