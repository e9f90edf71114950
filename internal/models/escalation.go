package models

import "time"

// EscalationRecord 升级通知记录（同一 episode 内只通知一次的唯一闸门）
// EpisodeKey 由当前处于 emergency 的体征类型集合派生：
// 新出现的 emergency 体征组合即开启新 episode；窗口内不再有 emergency 即关闭
type EscalationRecord struct {
	PatientID   string    `json:"patient_id"`
	EpisodeKey  string    `json:"episode_key"`
	FirstSeenAt time.Time `json:"first_seen_at"`
	LastSeenAt  time.Time `json:"last_seen_at"`
	NotifiedAt  time.Time `json:"notified_at,omitempty"`
}
