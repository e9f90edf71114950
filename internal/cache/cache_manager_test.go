package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Gaurav-cgpa/Cavista/internal/config"
	"github.com/Gaurav-cgpa/Cavista/internal/models"
)

func setupTestCache(t *testing.T) (*miniredis.Miniredis, *redis.Client, *CacheManager) {
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	cfg := &config.Config{}
	cfg.Vitals.Cache.KeyPrefix = "vitals:patient:"
	cfg.Vitals.Cache.LatestSuffix = ":latest"
	cfg.Vitals.Cache.AlertSuffix = ":alerts"
	cfg.Vitals.Cache.LastModifiedSuffix = ":last_modified"
	cfg.Vitals.Cache.AlertTTL = 30
	cfg.Vitals.Cache.LatestTTL = 300

	logger := zap.NewNop()
	cacheManager := NewCacheManager(cfg, redisClient, logger)

	return mr, redisClient, cacheManager
}

func floatPtr(v float64) *float64 { return &v }

func TestCacheManager_LatestReading_RoundTrip(t *testing.T) {
	_, _, cacheManager := setupTestCache(t)
	ctx := context.Background()

	reading := &models.Reading{
		PatientID: "patient-1",
		Timestamp: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		HeartRate: floatPtr(72),
		Glucose:   floatPtr(95),
	}

	require.NoError(t, cacheManager.SetLatestReading(ctx, reading))

	got, err := cacheManager.GetLatestReading(ctx, "patient-1")
	require.NoError(t, err)
	assert.Equal(t, "patient-1", got.PatientID)
	require.NotNil(t, got.HeartRate)
	assert.Equal(t, 72.0, *got.HeartRate)
	assert.Nil(t, got.SleepHours)
}

func TestCacheManager_GetLatestReading_NotCached(t *testing.T) {
	_, _, cacheManager := setupTestCache(t)

	_, err := cacheManager.GetLatestReading(context.Background(), "patient-unknown")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not cached")
}

func TestCacheManager_Alerts_RoundTrip(t *testing.T) {
	mr, _, cacheManager := setupTestCache(t)
	ctx := context.Background()

	batches := []models.AlertBatch{
		{
			Timestamp: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
			IsLatest:  true,
			Alerts: []models.AlertFact{
				{VitalType: models.VitalHeartRate, Value: 130, Severity: models.SeverityEmergency, Message: "Critical heart rate: 130 bpm"},
			},
		},
	}

	require.NoError(t, cacheManager.SetAlerts(ctx, "patient-1", batches))

	got, err := cacheManager.GetAlerts(ctx, "patient-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].IsLatest)
	assert.Equal(t, models.SeverityEmergency, got[0].Alerts[0].Severity)

	// TTL 过期后未命中
	mr.FastForward(31 * time.Second)
	got, err = cacheManager.GetAlerts(ctx, "patient-1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCacheManager_LastModified(t *testing.T) {
	_, _, cacheManager := setupTestCache(t)
	ctx := context.Background()

	// 无标记返回零值
	got, err := cacheManager.LastModified(ctx, "patient-1")
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, cacheManager.TouchLastModified(ctx, "patient-1", at))

	got, err = cacheManager.LastModified(ctx, "patient-1")
	require.NoError(t, err)
	assert.Equal(t, at, got)
}

func TestPublishReading(t *testing.T) {
	_, redisClient, _ := setupTestCache(t)
	ctx := context.Background()

	reading := &models.Reading{
		PatientID: "patient-1",
		Timestamp: time.Now(),
		HeartRate: floatPtr(72),
	}

	id, err := PublishReading(ctx, redisClient, "vitals:readings", reading)

	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Equal(t, int64(1), redisClient.XLen(ctx, "vitals:readings").Val())
}
