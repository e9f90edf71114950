// Package notifier 升级通知投递通道
// 任何满足该契约的渠道（邮件、webhook、短信、工单）都可接入
package notifier

import (
	"context"

	"github.com/Gaurav-cgpa/Cavista/internal/models"
)

// Notifier 升级通知接口
// batches 只包含含 emergency 事实的报警批次
type Notifier interface {
	Notify(ctx context.Context, recipient, patientLabel string, batches []models.AlertBatch) error
	Channel() string
}
