package storage

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/monster-tracker/internal/errors"
	"github.com/monster-tracker/internal/models"
)

func setupTestCache(t *testing.T, ttl time.Duration) (*CacheService, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewCacheService(NewRedisCacheFromClient(client), ttl), mr
}

func TestGenerateCacheKey(t *testing.T) {
	assert.Equal(t, "metamob:monsters:kerman:archimonstre", MonstersKey("Kerman", true))
	assert.Equal(t, "metamob:monsters:kerman:all", MonstersKey("kerman", false))
	assert.Equal(t, "metamob:profile:kerman", ProfileKey("KERMAN"))
}

func TestCacheService_MonstersRoundTrip(t *testing.T) {
	cache, mr := setupTestCache(t, time.Hour)
	ctx := testContext(t)

	_, found, err := cache.GetMonsters(ctx, "kerman", true)
	require.NoError(t, err)
	assert.False(t, found)

	records := []models.ItemRecord{{"nom": "Bouftonnerre", "quantite": "2", "couleur": "bleu"}}
	require.NoError(t, cache.SetMonsters(ctx, "kerman", true, records))

	got, found, err := cache.GetMonsters(ctx, "kerman", true)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, records, got)

	_, found, err = cache.GetMonsters(ctx, "kerman", false)
	require.NoError(t, err)
	assert.False(t, found, "filters are cached separately")

	mr.FastForward(2 * time.Hour)
	_, found, err = cache.GetMonsters(ctx, "kerman", true)
	require.NoError(t, err)
	assert.False(t, found, "entries expire after the TTL")
}

func TestCacheService_ProfileAndInvalidate(t *testing.T) {
	cache, _ := setupTestCache(t, time.Hour)
	ctx := testContext(t)

	require.NoError(t, cache.SetProfile(ctx, "kerman", models.UserProfile{models.FieldPseudo: "Kerman"}))
	require.NoError(t, cache.SetMonsters(ctx, "kerman", false, nil))

	profile, found, err := cache.GetProfile(ctx, "kerman")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Kerman", profile.Pseudo())

	require.NoError(t, cache.InvalidateUser(ctx, "kerman"))
	_, found, err = cache.GetProfile(ctx, "kerman")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCacheService_Flush(t *testing.T) {
	cache, mr := setupTestCache(t, time.Hour)
	ctx := testContext(t)

	require.NoError(t, mr.Set("unrelated", "x"))
	require.NoError(t, cache.SetProfile(ctx, "a", models.UserProfile{}))
	require.NoError(t, cache.SetProfile(ctx, "b", models.UserProfile{}))

	n, err := cache.Flush(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.True(t, mr.Exists("unrelated"))
}

func TestCacheService_CorruptEntry(t *testing.T) {
	cache, mr := setupTestCache(t, time.Hour)
	ctx := testContext(t)

	require.NoError(t, mr.Set(ProfileKey("kerman"), "{not json"))
	_, _, err := cache.GetProfile(ctx, "kerman")
	require.Error(t, err)
	assert.True(t, apperrors.IsCategory(err, apperrors.CategoryCache))
}

func TestCacheService_Unavailable(t *testing.T) {
	cache, mr := setupTestCache(t, time.Hour)
	ctx := testContext(t)
	mr.Close()

	_, _, err := cache.GetProfile(ctx, "kerman")
	require.Error(t, err)
	assert.True(t, apperrors.IsRetryable(err))
}
