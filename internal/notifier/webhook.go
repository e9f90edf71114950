package notifier

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/Gaurav-cgpa/Cavista/internal/models"
)

// WebhookPayload webhook 通知消息体
type WebhookPayload struct {
	Recipient    string              `json:"recipient"`
	PatientLabel string              `json:"patientLabel"`
	Alerts       []models.AlertBatch `json:"alerts"`
	SentAt       time.Time           `json:"sentAt"`
}

// WebhookNotifier HTTP webhook 通知（短信网关、推送服务、工单系统等都走这个形状）
type WebhookNotifier struct {
	httpClient *resty.Client
	url        string
	logger     *zap.Logger
}

// NewWebhookNotifier 创建 webhook 通知器
func NewWebhookNotifier(url string, timeout time.Duration, logger *zap.Logger) *WebhookNotifier {
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &WebhookNotifier{
		httpClient: client,
		url:        url,
		logger:     logger,
	}
}

func (n *WebhookNotifier) Channel() string { return "webhook" }

// Notify 投递 webhook 通知
func (n *WebhookNotifier) Notify(ctx context.Context, recipient, patientLabel string, batches []models.AlertBatch) error {
	if len(batches) == 0 {
		return nil
	}

	payload := WebhookPayload{
		Recipient:    recipient,
		PatientLabel: patientLabel,
		Alerts:       batches,
		SentAt:       time.Now().UTC(),
	}

	resp, err := n.httpClient.R().
		SetContext(ctx).
		SetBody(payload).
		Post(n.url)
	if err != nil {
		return fmt.Errorf("%w: webhook call failed: %v", models.ErrNotifier, err)
	}

	if resp.IsError() {
		return fmt.Errorf("%w: webhook returned status %d", models.ErrNotifier, resp.StatusCode())
	}

	n.logger.Info("Webhook notification sent",
		zap.String("recipient", recipient),
		zap.Int("status", resp.StatusCode()),
	)

	return nil
}
