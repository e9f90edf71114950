package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Gaurav-cgpa/Cavista/internal/config"
	"github.com/Gaurav-cgpa/Cavista/internal/models"
	"github.com/Gaurav-cgpa/Cavista/internal/repository"
	"github.com/Gaurav-cgpa/Cavista/internal/telemetry"
)

// Ingestor 读数写入接口（service.VitalsService 实现）
type Ingestor interface {
	// IngestReading 校验并持久化一条读数
	IngestReading(ctx context.Context, reading *models.Reading) error
	// PruneReadings 清理早于 before 的历史读数，返回删除行数
	PruneReadings(ctx context.Context, before time.Time) (int64, error)
}

// RunLog 采集运行日志写入接口（repository.IngestRunsRepository 实现）
type RunLog interface {
	CreateIngestRun(ctx context.Context, run *repository.IngestRun) error
}

// Scheduler 采集调度器（轮询模式）
// 每个周期为每个受监测患者从数据源取一条读数并写入
type Scheduler struct {
	config   *config.Config
	source   telemetry.Source
	ingestor Ingestor
	runLog   RunLog // 可为 nil（不留运行日志）
	logger   *zap.Logger
	now      func() time.Time
}

// NewScheduler 创建采集调度器
func NewScheduler(
	cfg *config.Config,
	source telemetry.Source,
	ingestor Ingestor,
	runLog RunLog,
	logger *zap.Logger,
) *Scheduler {
	return &Scheduler{
		config:   cfg,
		source:   source,
		ingestor: ingestor,
		runLog:   runLog,
		logger:   logger,
		now:      time.Now,
	}
}

// Start 启动调度器（阻塞直到 ctx 取消）
func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("Ingestion scheduler started",
		zap.Int("interval", s.config.Scheduler.Interval),
		zap.Int("patient_count", len(s.config.Scheduler.Patients)),
	)

	ticker := time.NewTicker(time.Duration(s.config.Scheduler.Interval) * time.Second)
	defer ticker.Stop()

	// 立即执行一次
	s.RunOnce(ctx)

	// 定期轮询
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Ingestion scheduler stopped")
			return nil
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce 执行一次采集：每个患者取数、写入（带重试），随后做保留期清理
// 单个患者失败不中断整轮
func (s *Scheduler) RunOnce(ctx context.Context) {
	for _, patientID := range s.config.Scheduler.Patients {
		select {
		case <-ctx.Done():
			return
		default:
		}

		s.ingestPatient(ctx, patientID)
	}

	s.pruneExpired(ctx)
}

// ingestPatient 为单个患者采集一条读数，失败按退避重试
func (s *Scheduler) ingestPatient(ctx context.Context, patientID string) {
	start := s.now()
	reading := s.source.Next(patientID, start)

	var err error
	for attempt := 0; attempt <= s.config.Scheduler.RetryMax; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(s.config.Scheduler.RetryBackoff*attempt) * time.Millisecond
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
		}

		err = s.ingestor.IngestReading(ctx, reading)
		if err == nil {
			break
		}

		s.logger.Warn("Failed to ingest reading",
			zap.String("patient_id", patientID),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
	}

	s.recordRun(ctx, patientID, start, err)
}

// recordRun 记录一次采集运行（成功/失败、耗时）
func (s *Scheduler) recordRun(ctx context.Context, patientID string, start time.Time, runErr error) {
	if s.runLog == nil {
		return
	}

	run := &repository.IngestRun{
		JobName:    "vitals-ingest",
		PatientID:  patientID,
		Status:     repository.IngestStatusSuccess,
		RunAt:      start,
		DurationMs: s.now().Sub(start).Milliseconds(),
	}
	if runErr != nil {
		run.Status = repository.IngestStatusFailure
		msg := runErr.Error()
		run.ErrorMessage = &msg
	}

	if err := s.runLog.CreateIngestRun(ctx, run); err != nil {
		s.logger.Error("Failed to record ingest run",
			zap.String("patient_id", patientID),
			zap.Error(err),
		)
	}
}

// pruneExpired 清理超过保留期的历史读数
func (s *Scheduler) pruneExpired(ctx context.Context) {
	retentionDays := s.config.Scheduler.RetentionDays
	if retentionDays <= 0 {
		return
	}

	cutoff := s.now().AddDate(0, 0, -retentionDays)
	removed, err := s.ingestor.PruneReadings(ctx, cutoff)
	if err != nil {
		s.logger.Error("Failed to prune expired readings",
			zap.Time("cutoff", cutoff),
			zap.Error(err),
		)
		return
	}

	if removed > 0 {
		s.logger.Info("Pruned expired readings",
			zap.Int64("removed", removed),
			zap.Time("cutoff", cutoff),
		)
	}
}
