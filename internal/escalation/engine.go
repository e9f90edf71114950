// Package escalation 实现升级通知状态机
//
// 每个 (patientId, episodeKey) 的状态流转：
//
//	Quiet --窗口出现 emergency--> Notified（建记录、恰好通知一次）
//	Notified --同一 episode 持续--> Notified（抑制，不重复通知）
//	Notified --窗口不再有 emergency--> Quiet（episode 关闭，下次再报）
//
// 逐请求直发通知会造成通知风暴，这里用 Redis SETNX 占位做原子闸门；
// 占位提交后不持有任何锁，通知网络调用不会阻塞同患者的并发查询
package escalation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Gaurav-cgpa/Cavista/internal/models"
	"github.com/Gaurav-cgpa/Cavista/internal/notifier"
	"github.com/Gaurav-cgpa/Cavista/internal/repository"
	"github.com/Gaurav-cgpa/Cavista/internal/store"
)

// NotificationLog 通知审计写入接口（repository.NotificationsRepository 实现）
type NotificationLog interface {
	CreateNotification(ctx context.Context, rec *repository.NotificationRecord) error
}

// Engine 升级通知引擎
type Engine struct {
	state    *StateManager
	notifier notifier.Notifier
	notifLog NotificationLog // 可为 nil（不留审计）
	logger   *zap.Logger
	now      func() time.Time
}

// NewEngine 创建升级通知引擎
func NewEngine(
	state *StateManager,
	n notifier.Notifier,
	notifLog NotificationLog,
	logger *zap.Logger,
) *Engine {
	return &Engine{
		state:    state,
		notifier: n,
		notifLog: notifLog,
		logger:   logger,
		now:      time.Now,
	}
}

// Process 处理一次窗口计算结果
// 窗口无 emergency：关闭患者全部 episode（Quiet）
// 窗口有 emergency：占位成功则通知一次，否则抑制并刷新 last_seen_at
func (e *Engine) Process(ctx context.Context, patientID, patientLabel, recipient string, batches []models.AlertBatch) error {
	episodeKey := EpisodeKey(batches)

	if episodeKey == "" {
		// 恢复：episode 关闭，后续 emergency 重新开启并再次通知
		if err := e.state.Clear(ctx, patientID); err != nil {
			return fmt.Errorf("failed to close episodes: %w", err)
		}
		return nil
	}

	now := e.now()
	rec := &models.EscalationRecord{
		PatientID:   patientID,
		EpisodeKey:  episodeKey,
		FirstSeenAt: now,
		LastSeenAt:  now,
	}

	won, err := e.state.Claim(ctx, rec)
	if err != nil {
		return fmt.Errorf("failed to claim episode %s: %w", episodeKey, err)
	}

	if !won {
		// 同一 episode 持续中：抑制重复通知，只刷新 last_seen_at
		e.refreshLastSeen(ctx, patientID, episodeKey, now)
		return nil
	}

	e.logger.Info("Emergency episode opened",
		zap.String("patient_id", patientID),
		zap.String("episode_key", episodeKey),
	)

	// 通知在独立 goroutine 中派发，查询路径不等网络调用
	// 请求 ctx 在响应写出后即取消，派发用独立 ctx
	go e.dispatch(context.Background(), rec, patientLabel, recipient, emergencyBatches(batches))
	return nil
}

// dispatch 发送通知（占位已提交，此处不持有任何锁、不在查询路径上）
// 发送失败只记日志：episode 保持已通知状态，避免重试风暴
func (e *Engine) dispatch(ctx context.Context, rec *models.EscalationRecord, patientLabel, recipient string, batches []models.AlertBatch) {
	if err := e.notifier.Notify(ctx, recipient, patientLabel, batches); err != nil {
		e.logger.Error("Failed to send escalation notification",
			zap.String("patient_id", rec.PatientID),
			zap.String("episode_key", rec.EpisodeKey),
			zap.String("recipient", recipient),
			zap.Error(err),
		)
		return
	}

	rec.NotifiedAt = e.now()
	if err := e.state.Update(ctx, rec); err != nil {
		e.logger.Error("Failed to record notified_at",
			zap.String("patient_id", rec.PatientID),
			zap.String("episode_key", rec.EpisodeKey),
			zap.Error(err),
		)
	}

	if e.notifLog != nil {
		logErr := e.notifLog.CreateNotification(ctx, &repository.NotificationRecord{
			PatientID:  rec.PatientID,
			EpisodeKey: rec.EpisodeKey,
			Channel:    e.notifier.Channel(),
			Recipient:  recipient,
			AlertCount: len(batches),
			SentAt:     rec.NotifiedAt,
		})
		if logErr != nil {
			e.logger.Error("Failed to write notification audit record",
				zap.String("patient_id", rec.PatientID),
				zap.Error(logErr),
			)
		}
	}

	e.logger.Info("Escalation notification sent",
		zap.String("patient_id", rec.PatientID),
		zap.String("episode_key", rec.EpisodeKey),
		zap.String("channel", e.notifier.Channel()),
	)
}

// refreshLastSeen 刷新持续中 episode 的 last_seen_at（保留 first_seen/notified_at）
func (e *Engine) refreshLastSeen(ctx context.Context, patientID, episodeKey string, now time.Time) {
	existing, err := e.state.Get(ctx, patientID, episodeKey)
	if err != nil {
		if !errors.Is(err, store.ErrMiss) {
			e.logger.Warn("Failed to read episode state",
				zap.String("patient_id", patientID),
				zap.String("episode_key", episodeKey),
				zap.Error(err),
			)
		}
		return
	}

	existing.LastSeenAt = now
	if err := e.state.Update(ctx, existing); err != nil {
		e.logger.Warn("Failed to refresh episode state",
			zap.String("patient_id", patientID),
			zap.String("episode_key", episodeKey),
			zap.Error(err),
		)
	}
}

// emergencyBatches 只保留含 emergency 事实的批次（通知内容）
func emergencyBatches(batches []models.AlertBatch) []models.AlertBatch {
	var out []models.AlertBatch
	for _, b := range batches {
		if b.HasEmergency() {
			out = append(out, b)
		}
	}
	return out
}
