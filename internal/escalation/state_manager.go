package escalation

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Gaurav-cgpa/Cavista/internal/config"
	"github.com/Gaurav-cgpa/Cavista/internal/models"
	"github.com/Gaurav-cgpa/Cavista/internal/store"
)

// StateManager episode 去重状态管理器（Redis 持久化）
// 键形如 escalation:state:<patientId>:<episodeKey>，值为 EscalationRecord JSON
// 状态带兜底 TTL，防止患者下线后残留
type StateManager struct {
	config *config.Config
	kv     store.KV
	logger *zap.Logger
}

// NewStateManager 创建状态管理器
func NewStateManager(
	cfg *config.Config,
	kv store.KV,
	logger *zap.Logger,
) *StateManager {
	return &StateManager{
		config: cfg,
		kv:     kv,
		logger: logger,
	}
}

// EpisodeKey 从报警批次派生 episode 键：
// 窗口内处于 emergency 的体征类型集合，排序后以 "+" 连接
// 没有 emergency 事实时返回空串
func EpisodeKey(batches []models.AlertBatch) string {
	set := make(map[models.VitalType]struct{})
	for _, batch := range batches {
		for _, fact := range batch.Alerts {
			if fact.Severity == models.SeverityEmergency {
				set[fact.VitalType] = struct{}{}
			}
		}
	}
	if len(set) == 0 {
		return ""
	}

	types := make([]string, 0, len(set))
	for vt := range set {
		types = append(types, string(vt))
	}
	sort.Strings(types)

	return strings.Join(types, "+")
}

func (s *StateManager) stateKey(patientID, episodeKey string) string {
	return fmt.Sprintf("%s%s:%s", s.config.Vitals.Escalation.StateKeyPrefix, patientID, episodeKey)
}

func (s *StateManager) stateTTL() time.Duration {
	return time.Duration(s.config.Vitals.Escalation.StateTTL) * time.Second
}

// Claim 原子占位（SETNX）：首次发现该 episode 时返回 true
// 已存在（episode 持续中）返回 false —— 通知只由赢得占位的一方发出
func (s *StateManager) Claim(ctx context.Context, rec *models.EscalationRecord) (bool, error) {
	jsonData, err := json.Marshal(rec)
	if err != nil {
		return false, fmt.Errorf("failed to marshal escalation record: %w", err)
	}

	key := s.stateKey(rec.PatientID, rec.EpisodeKey)
	won, err := s.kv.SetNX(ctx, key, string(jsonData), s.stateTTL())
	if err != nil {
		return false, fmt.Errorf("failed to claim episode: %w", err)
	}

	return won, nil
}

// Get 读取 episode 状态（不存在返回 store.ErrMiss）
func (s *StateManager) Get(ctx context.Context, patientID, episodeKey string) (*models.EscalationRecord, error) {
	val, err := s.kv.Get(ctx, s.stateKey(patientID, episodeKey))
	if err != nil {
		return nil, err
	}

	var rec models.EscalationRecord
	if err := json.Unmarshal([]byte(val), &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal escalation record: %w", err)
	}

	return &rec, nil
}

// Update 覆盖写 episode 状态（用于记录 notified_at / last_seen_at，不新建记录）
func (s *StateManager) Update(ctx context.Context, rec *models.EscalationRecord) error {
	jsonData, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal escalation record: %w", err)
	}

	key := s.stateKey(rec.PatientID, rec.EpisodeKey)
	if err := s.kv.Set(ctx, key, string(jsonData), s.stateTTL()); err != nil {
		return fmt.Errorf("failed to update escalation record: %w", err)
	}

	return nil
}

// Clear 清除患者的全部 episode 状态（窗口内不再有 emergency，回到 Quiet）
func (s *StateManager) Clear(ctx context.Context, patientID string) error {
	pattern := fmt.Sprintf("%s%s:*", s.config.Vitals.Escalation.StateKeyPrefix, patientID)

	keys, err := s.kv.ScanKeys(ctx, pattern)
	if err != nil {
		return fmt.Errorf("failed to scan episode keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}

	if err := s.kv.Del(ctx, keys...); err != nil {
		return fmt.Errorf("failed to clear episode state: %w", err)
	}

	s.logger.Debug("Cleared episode state",
		zap.String("patient_id", patientID),
		zap.Int("key_count", len(keys)),
	)

	return nil
}
