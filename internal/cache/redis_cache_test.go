package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cypherlabdev/odds-pipeline-service/internal/models"
	"github.com/cypherlabdev/odds-pipeline-service/internal/service"
)

// testRedisCacheSetup is a helper struct to hold test dependencies
type testRedisCacheSetup struct {
	cache     *RedisCache
	miniRedis *miniredis.Miniredis
	ctx       context.Context
}

// setupTestRedisCache creates a test cache with miniredis
func setupTestRedisCache(t *testing.T) *testRedisCacheSetup {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	config := RedisCacheConfig{
		Addr: mr.Addr(),
		TTL:  5 * time.Minute,
	}

	return &testRedisCacheSetup{
		cache:     NewRedisCache(config, zerolog.Nop()),
		miniRedis: mr,
		ctx:       context.Background(),
	}
}

// cleanup cleans up test resources
func (s *testRedisCacheSetup) cleanup() {
	s.cache.Close()
	s.miniRedis.Close()
}

func testPick(rank int, selection string) models.FeaturedPick {
	return models.FeaturedPick{
		Rank: rank,
		Day:  "2026-10-19",
		Analysis: models.AnalysisResult{
			SelectionID:         selection,
			Selection:           selection,
			Sportsbook:          "fanduel",
			Price:               110,
			Line:                decimal.RequireFromString("275.5"),
			HitProbability:      0.52,
			ExpectedValuePct:    9.2,
			HasEdge:             true,
			RecommendationScore: 96,
		},
		GeneratedAt: time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC),
	}
}

// TestNewRedisCache tests cache creation
func TestNewRedisCache(t *testing.T) {
	setup := setupTestRedisCache(t)
	defer setup.cleanup()

	assert.NotNil(t, setup.cache)
	assert.NotNil(t, setup.cache.client)
	assert.Equal(t, 5*time.Minute, setup.cache.ttl)
}

// TestReplaceFeatured_FullReplace tests that regeneration leaves nothing stale behind
func TestReplaceFeatured_FullReplace(t *testing.T) {
	setup := setupTestRedisCache(t)
	defer setup.cleanup()

	first := []models.FeaturedPick{testPick(1, "a"), testPick(2, "b"), testPick(3, "c")}
	require.NoError(t, setup.cache.ReplaceFeatured(setup.ctx, "2026-10-19", first))

	second := []models.FeaturedPick{testPick(1, "d")}
	require.NoError(t, setup.cache.ReplaceFeatured(setup.ctx, "2026-10-19", second))

	picks, err := setup.cache.GetFeatured(setup.ctx, "2026-10-19")
	require.NoError(t, err)
	require.Len(t, picks, 1)
	assert.Equal(t, "d", picks[0].Analysis.SelectionID)
	assert.True(t, picks[0].Analysis.Line.Equal(decimal.RequireFromString("275.5")))

	ttl := setup.miniRedis.TTL("featured:2026-10-19")
	assert.True(t, ttl > 0)
}

// TestReplaceFeatured_Empty tests that an empty regeneration clears the day
func TestReplaceFeatured_Empty(t *testing.T) {
	setup := setupTestRedisCache(t)
	defer setup.cleanup()

	require.NoError(t, setup.cache.ReplaceFeatured(setup.ctx, "2026-10-19", []models.FeaturedPick{testPick(1, "a")}))
	require.NoError(t, setup.cache.ReplaceFeatured(setup.ctx, "2026-10-19", nil))

	assert.False(t, setup.miniRedis.Exists("featured:2026-10-19"))

	picks, err := setup.cache.GetFeatured(setup.ctx, "2026-10-19")
	require.NoError(t, err)
	assert.Empty(t, picks)
}

// TestGetFeatured_OtherDayUntouched tests day isolation
func TestGetFeatured_OtherDayUntouched(t *testing.T) {
	setup := setupTestRedisCache(t)
	defer setup.cleanup()

	require.NoError(t, setup.cache.ReplaceFeatured(setup.ctx, "2026-10-18", []models.FeaturedPick{testPick(1, "old")}))
	require.NoError(t, setup.cache.ReplaceFeatured(setup.ctx, "2026-10-19", []models.FeaturedPick{testPick(1, "new")}))

	picks, err := setup.cache.GetFeatured(setup.ctx, "2026-10-18")
	require.NoError(t, err)
	require.Len(t, picks, 1)
	assert.Equal(t, "old", picks[0].Analysis.SelectionID)
}

// TestAnalysis_SetGet tests analysis caching round trip and TTL
func TestAnalysis_SetGet(t *testing.T) {
	setup := setupTestRedisCache(t)
	defer setup.cleanup()

	result := testPick(1, "sel").Analysis
	require.NoError(t, setup.cache.SetAnalysis(setup.ctx, "k1", &result))

	got, err := setup.cache.GetAnalysis(setup.ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, result.SelectionID, got.SelectionID)
	assert.Equal(t, result.ExpectedValuePct, got.ExpectedValuePct)

	ttl := setup.miniRedis.TTL("analysis:k1")
	assert.True(t, ttl > 0 && ttl <= 5*time.Minute)

	setup.miniRedis.FastForward(6 * time.Minute)
	_, err = setup.cache.GetAnalysis(setup.ctx, "k1")
	assert.ErrorIs(t, err, service.ErrNotFound)
}

// TestGetAnalysis_Corrupt tests handling of undecodable cache entries
func TestGetAnalysis_Corrupt(t *testing.T) {
	setup := setupTestRedisCache(t)
	defer setup.cleanup()

	require.NoError(t, setup.miniRedis.Set("analysis:bad", "{not json"))

	got, err := setup.cache.GetAnalysis(setup.ctx, "bad")
	assert.Error(t, err)
	assert.Nil(t, got)
	assert.NotErrorIs(t, err, service.ErrNotFound)
}

// TestLock_Exclusive tests that only one holder gets the lock
func TestLock_Exclusive(t *testing.T) {
	setup := setupTestRedisCache(t)
	defer setup.cleanup()

	token, ok, err := setup.cache.AcquireLock(setup.ctx, "run:2026-10-19", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotEmpty(t, token)

	_, ok, err = setup.cache.AcquireLock(setup.ctx, "run:2026-10-19", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	// a stale token does not release someone else's lock
	require.NoError(t, setup.cache.ReleaseLock(setup.ctx, "run:2026-10-19", "not-the-owner"))
	assert.True(t, setup.miniRedis.Exists("lock:run:2026-10-19"))

	require.NoError(t, setup.cache.ReleaseLock(setup.ctx, "run:2026-10-19", token))
	assert.False(t, setup.miniRedis.Exists("lock:run:2026-10-19"))

	_, ok, err = setup.cache.AcquireLock(setup.ctx, "run:2026-10-19", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

// TestLock_Expires tests that a crashed holder's lock times out
func TestLock_Expires(t *testing.T) {
	setup := setupTestRedisCache(t)
	defer setup.cleanup()

	_, ok, err := setup.cache.AcquireLock(setup.ctx, "run", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	setup.miniRedis.FastForward(2 * time.Minute)

	_, ok, err = setup.cache.AcquireLock(setup.ctx, "run", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

// TestLock_Concurrent tests that concurrent acquirers get exactly one lock
func TestLock_Concurrent(t *testing.T) {
	setup := setupTestRedisCache(t)
	defer setup.cleanup()

	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok, err := setup.cache.AcquireLock(setup.ctx, "run", time.Minute)
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, winners)
}

// TestPing_RedisDown tests ping when Redis is down
func TestPing_RedisDown(t *testing.T) {
	setup := setupTestRedisCache(t)

	assert.NoError(t, setup.cache.Ping(setup.ctx))

	setup.miniRedis.Close()
	assert.Error(t, setup.cache.Ping(setup.ctx))

	setup.cache.Close()
}
