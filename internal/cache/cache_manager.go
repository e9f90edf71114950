package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/Gaurav-cgpa/Cavista/internal/config"
	"github.com/Gaurav-cgpa/Cavista/internal/models"
)

// CacheManager 患者维度的 Redis 缓存管理器
// 缓存最新采样与最近一次窗口的报警批次，并维护 last_modified 标记
type CacheManager struct {
	config      *config.Config
	redisClient *redis.Client
	logger      *zap.Logger
}

// NewCacheManager 创建缓存管理器
func NewCacheManager(
	cfg *config.Config,
	redisClient *redis.Client,
	logger *zap.Logger,
) *CacheManager {
	return &CacheManager{
		config:      cfg,
		redisClient: redisClient,
		logger:      logger,
	}
}

func (c *CacheManager) patientKey(patientID, suffix string) string {
	return fmt.Sprintf("%s%s%s", c.config.Vitals.Cache.KeyPrefix, patientID, suffix)
}

// SetLatestReading 缓存患者最新采样
func (c *CacheManager) SetLatestReading(ctx context.Context, reading *models.Reading) error {
	jsonData, err := json.Marshal(reading)
	if err != nil {
		return fmt.Errorf("failed to marshal reading: %w", err)
	}

	key := c.patientKey(reading.PatientID, c.config.Vitals.Cache.LatestSuffix)
	ttl := time.Duration(c.config.Vitals.Cache.LatestTTL) * time.Second

	if err := c.redisClient.Set(ctx, key, jsonData, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set latest reading cache: %w", err)
	}

	return nil
}

// GetLatestReading 读取患者最新采样缓存
func (c *CacheManager) GetLatestReading(ctx context.Context, patientID string) (*models.Reading, error) {
	key := c.patientKey(patientID, c.config.Vitals.Cache.LatestSuffix)

	val, err := c.redisClient.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("latest reading not cached for patient: %s", patientID)
		}
		return nil, fmt.Errorf("failed to get latest reading cache: %w", err)
	}

	var reading models.Reading
	if err := json.Unmarshal([]byte(val), &reading); err != nil {
		return nil, fmt.Errorf("failed to unmarshal latest reading: %w", err)
	}

	return &reading, nil
}

// SetAlerts 缓存最近一次窗口计算出的报警批次（带 TTL）
func (c *CacheManager) SetAlerts(ctx context.Context, patientID string, batches []models.AlertBatch) error {
	jsonData, err := json.Marshal(batches)
	if err != nil {
		return fmt.Errorf("failed to marshal alert batches: %w", err)
	}

	key := c.patientKey(patientID, c.config.Vitals.Cache.AlertSuffix)
	ttl := time.Duration(c.config.Vitals.Cache.AlertTTL) * time.Second

	if err := c.redisClient.Set(ctx, key, jsonData, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set alert cache: %w", err)
	}

	c.logger.Debug("Updated alert cache",
		zap.String("patient_id", patientID),
		zap.Int("batch_count", len(batches)),
	)

	return nil
}

// GetAlerts 读取报警批次缓存（未命中返回 nil, nil）
func (c *CacheManager) GetAlerts(ctx context.Context, patientID string) ([]models.AlertBatch, error) {
	key := c.patientKey(patientID, c.config.Vitals.Cache.AlertSuffix)

	val, err := c.redisClient.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get alert cache: %w", err)
	}

	var batches []models.AlertBatch
	if err := json.Unmarshal([]byte(val), &batches); err != nil {
		return nil, fmt.Errorf("failed to unmarshal alert batches: %w", err)
	}

	return batches, nil
}

// TouchLastModified 更新患者的最近写入标记
func (c *CacheManager) TouchLastModified(ctx context.Context, patientID string, at time.Time) error {
	key := c.patientKey(patientID, c.config.Vitals.Cache.LastModifiedSuffix)

	if err := c.redisClient.Set(ctx, key, strconv.FormatInt(at.Unix(), 10), 0).Err(); err != nil {
		return fmt.Errorf("failed to touch last_modified: %w", err)
	}

	return nil
}

// LastModified 读取患者的最近写入时间（无标记返回零值）
func (c *CacheManager) LastModified(ctx context.Context, patientID string) (time.Time, error) {
	key := c.patientKey(patientID, c.config.Vitals.Cache.LastModifiedSuffix)

	val, err := c.redisClient.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return time.Time{}, nil
		}
		return time.Time{}, fmt.Errorf("failed to get last_modified: %w", err)
	}

	unix, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse last_modified: %w", err)
	}

	return time.Unix(unix, 0).UTC(), nil
}
