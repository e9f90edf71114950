package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/Gaurav-cgpa/Cavista/internal/aggregator"
	"github.com/Gaurav-cgpa/Cavista/internal/cache"
	"github.com/Gaurav-cgpa/Cavista/internal/config"
	"github.com/Gaurav-cgpa/Cavista/internal/escalation"
	"github.com/Gaurav-cgpa/Cavista/internal/models"
	"github.com/Gaurav-cgpa/Cavista/internal/repository"
)

// VitalsService 生命体征核心服务
// 摄取路径：校验 -> 持久化 -> 刷新缓存 -> 发布实时流
// 查询路径：窗口查询 -> 分级聚合 -> 缓存报警 -> 升级处理
type VitalsService struct {
	config       *config.Config
	readingsRepo *repository.ReadingsRepository
	cacheManager *cache.CacheManager
	redisClient  *redis.Client
	engine       *escalation.Engine
	thresholds   models.ThresholdProfile
	logger       *zap.Logger
	now          func() time.Time
}

// NewVitalsService 创建生命体征服务
func NewVitalsService(
	cfg *config.Config,
	readingsRepo *repository.ReadingsRepository,
	cacheManager *cache.CacheManager,
	redisClient *redis.Client,
	engine *escalation.Engine,
	thresholds models.ThresholdProfile,
	logger *zap.Logger,
) *VitalsService {
	return &VitalsService{
		config:       cfg,
		readingsRepo: readingsRepo,
		cacheManager: cacheManager,
		redisClient:  redisClient,
		engine:       engine,
		thresholds:   thresholds,
		logger:       logger,
		now:          time.Now,
	}
}

// IngestReading 校验并持久化一条读数
// 缓存/流发布失败不影响摄取结果（只记日志）
func (s *VitalsService) IngestReading(ctx context.Context, reading *models.Reading) error {
	if err := reading.Validate(); err != nil {
		return err
	}

	if err := s.readingsRepo.Append(ctx, reading); err != nil {
		return err
	}

	if s.cacheManager != nil {
		if err := s.cacheManager.SetLatestReading(ctx, reading); err != nil {
			s.logger.Warn("Failed to cache latest reading",
				zap.String("patient_id", reading.PatientID),
				zap.Error(err),
			)
		}
		if err := s.cacheManager.TouchLastModified(ctx, reading.PatientID, reading.Timestamp); err != nil {
			s.logger.Warn("Failed to touch last modified marker",
				zap.String("patient_id", reading.PatientID),
				zap.Error(err),
			)
		}
	}

	if s.redisClient != nil {
		if _, err := cache.PublishReading(ctx, s.redisClient, s.config.Vitals.Stream, reading); err != nil {
			s.logger.Warn("Failed to publish reading to stream",
				zap.String("patient_id", reading.PatientID),
				zap.String("stream", s.config.Vitals.Stream),
				zap.Error(err),
			)
		}
	}

	return nil
}

// Window 计算患者的窗口视图并驱动升级状态机
func (s *VitalsService) Window(ctx context.Context, patientID string, duration time.Duration) (*aggregator.WindowResult, error) {
	if patientID == "" {
		return nil, fmt.Errorf("patientId is required: %w", models.ErrValidation)
	}
	if duration <= 0 {
		duration = s.config.WindowDuration()
	}

	queryCtx, cancel := context.WithTimeout(ctx, time.Duration(s.config.Vitals.QueryTimeout)*time.Second)
	defer cancel()

	now := s.now()
	readings, err := s.readingsRepo.QueryWindow(queryCtx, patientID, now.Add(-duration))
	if err != nil {
		return nil, err
	}

	result := aggregator.BuildWindow(readings, s.thresholds, now, duration)

	if s.cacheManager != nil && len(result.Alerts) > 0 {
		if err := s.cacheManager.SetAlerts(ctx, patientID, result.Alerts); err != nil {
			s.logger.Warn("Failed to cache alert batches",
				zap.String("patient_id", patientID),
				zap.Error(err),
			)
		}
	}

	if s.engine != nil {
		if err := s.engine.Process(ctx, patientID, patientID, s.config.Notifier.Recipient, result.Alerts); err != nil {
			// 升级失败不影响查询结果
			s.logger.Error("Escalation processing failed",
				zap.String("patient_id", patientID),
				zap.Error(err),
			)
		}
	}

	return &result, nil
}

// PruneReadings 清理早于 before 的历史读数
func (s *VitalsService) PruneReadings(ctx context.Context, before time.Time) (int64, error) {
	return s.readingsRepo.PruneBefore(ctx, before)
}
