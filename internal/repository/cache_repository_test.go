package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trialworks/adherence-api/internal/models"
	appErrors "github.com/trialworks/adherence-api/pkg/errors"
)

func newCacheRepoFixture(t *testing.T) (*CacheRepository, *miniredis.Miniredis) {
	t.Helper()
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewCacheRepository(client, nil), server
}

func TestCacheRepositoryRoundTrip(t *testing.T) {
	repo, _ := newCacheRepoFixture(t)
	ctx := context.Background()

	report := &models.WeeklyAdherenceReport{
		ClientTimeZone:   "UTC",
		AdherencePercent: 75,
		CreatedOn:        time.Date(2015, 2, 9, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, repo.Set(ctx, "adh:weekly:study-1:user-1:UTC", report, time.Minute))

	got := &models.WeeklyAdherenceReport{}
	require.NoError(t, repo.Get(ctx, "adh:weekly:study-1:user-1:UTC", got))
	assert.Equal(t, 75, got.AdherencePercent)
	assert.Equal(t, "UTC", got.ClientTimeZone)
}

func TestCacheRepositoryMiss(t *testing.T) {
	repo, _ := newCacheRepoFixture(t)

	got := &models.WeeklyAdherenceReport{}
	err := repo.Get(context.Background(), "adh:weekly:study-1:user-2:UTC", got)
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrCacheMiss))
}

func TestCacheRepositoryDeleteByPattern(t *testing.T) {
	repo, server := newCacheRepoFixture(t)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "adh:weekly:study-1:user-1:UTC", 1, time.Minute))
	require.NoError(t, repo.Set(ctx, "adh:eventstream:study-1:user-1:UTC:false", 2, time.Minute))
	require.NoError(t, repo.Set(ctx, "adh:weekly:study-1:user-2:UTC", 3, time.Minute))

	require.NoError(t, repo.DeleteByPattern(ctx, "adh:*:study-1:user-1*"))

	assert.False(t, server.Exists("adh:weekly:study-1:user-1:UTC"))
	assert.False(t, server.Exists("adh:eventstream:study-1:user-1:UTC:false"))
	assert.True(t, server.Exists("adh:weekly:study-1:user-2:UTC"))
}

func TestCacheRepositoryNilClient(t *testing.T) {
	repo := NewCacheRepository(nil, nil)
	ctx := context.Background()

	err := repo.Get(ctx, "any", &struct{}{})
	assert.True(t, errors.Is(err, appErrors.ErrCacheMiss))
	assert.NoError(t, repo.Set(ctx, "any", 1, time.Minute))
	assert.NoError(t, repo.DeleteByPattern(ctx, "any*"))
}
