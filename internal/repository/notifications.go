package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// NotificationRecord 已发送升级通知的审计记录（notifications 表）
// 与 Redis 中的 episode 去重状态分开：状态是闸门，这里是审计留痕
type NotificationRecord struct {
	NotificationID string    `json:"notification_id" db:"notification_id"`
	PatientID      string    `json:"patient_id" db:"patient_id"`
	EpisodeKey     string    `json:"episode_key" db:"episode_key"`
	Channel        string    `json:"channel" db:"channel"` // email, webhook
	Recipient      string    `json:"recipient" db:"recipient"`
	AlertCount     int       `json:"alert_count" db:"alert_count"`
	SentAt         time.Time `json:"sent_at" db:"sent_at"`
}

// NotificationsRepository 通知审计仓库
type NotificationsRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewNotificationsRepository 创建通知审计仓库
func NewNotificationsRepository(db *sql.DB, logger *zap.Logger) *NotificationsRepository {
	return &NotificationsRepository{
		db:     db,
		logger: logger,
	}
}

// CreateNotification 写入一条通知记录（notification_id 为空时自动生成）
func (r *NotificationsRepository) CreateNotification(ctx context.Context, rec *NotificationRecord) error {
	if rec.PatientID == "" {
		return fmt.Errorf("patient_id is required")
	}
	if rec.EpisodeKey == "" {
		return fmt.Errorf("episode_key is required")
	}
	if rec.NotificationID == "" {
		rec.NotificationID = uuid.New().String()
	}

	query := `
		INSERT INTO notifications (
			notification_id,
			patient_id,
			episode_key,
			channel,
			recipient,
			alert_count,
			sent_at,
			created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
	`

	_, err := r.db.ExecContext(ctx, query,
		rec.NotificationID,
		rec.PatientID,
		rec.EpisodeKey,
		rec.Channel,
		rec.Recipient,
		rec.AlertCount,
		rec.SentAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to create notification record: %w", err)
	}

	return nil
}

// ListByPatient 按患者查询通知记录（sent_at 降序）
func (r *NotificationsRepository) ListByPatient(ctx context.Context, patientID string, limit int) ([]NotificationRecord, error) {
	if patientID == "" {
		return nil, fmt.Errorf("patient_id is required")
	}
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT
			notification_id,
			patient_id,
			episode_key,
			channel,
			recipient,
			alert_count,
			sent_at
		FROM notifications
		WHERE patient_id = $1
		ORDER BY sent_at DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, patientID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var records []NotificationRecord
	for rows.Next() {
		var rec NotificationRecord
		if err := rows.Scan(
			&rec.NotificationID,
			&rec.PatientID,
			&rec.EpisodeKey,
			&rec.Channel,
			&rec.Recipient,
			&rec.AlertCount,
			&rec.SentAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan notification record: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate notifications: %w", err)
	}

	return records, nil
}
