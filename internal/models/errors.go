package models

import "errors"

// 错误分类（调用方用 errors.Is 区分）
var (
	// ErrValidation 采样数据不合法（缺 patientId / timestamp），拒绝入库
	ErrValidation = errors.New("invalid reading")

	// ErrStore 存储读写失败（摄取路径由调度器带退避重试，查询路径直接上抛）
	ErrStore = errors.New("store error")

	// ErrStoreTimeout 查询超时（上抛，不自动重试；不返回部分数据）
	ErrStoreTimeout = errors.New("store timeout")

	// ErrNotifier 通知发送失败（记日志，episode 保持已通知状态，不在线重试）
	ErrNotifier = errors.New("notifier error")
)
