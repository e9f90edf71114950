package notifier

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/Gaurav-cgpa/Cavista/internal/models"
)

// EmailNotifier SMTP 邮件通知（HTML 格式的紧急报警邮件）
type EmailNotifier struct {
	dialer *gomail.Dialer
	from   string
	logger *zap.Logger
}

// NewEmailNotifier 创建邮件通知器
func NewEmailNotifier(smtpHost string, smtpPort int, username, password, from string, logger *zap.Logger) *EmailNotifier {
	if from == "" {
		from = username
	}
	return &EmailNotifier{
		dialer: gomail.NewDialer(smtpHost, smtpPort, username, password),
		from:   from,
		logger: logger,
	}
}

func (n *EmailNotifier) Channel() string { return "email" }

// Notify 发送紧急报警邮件
func (n *EmailNotifier) Notify(ctx context.Context, recipient, patientLabel string, batches []models.AlertBatch) error {
	if len(batches) == 0 {
		return nil
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", fmt.Sprintf("Health Monitor Alert <%s>", n.from))
	msg.SetHeader("To", recipient)
	msg.SetHeader("Subject", "URGENT: Critical Health Alert")
	msg.SetHeader("X-Priority", "1")
	msg.SetBody("text/html", buildAlertEmailHTML(patientLabel, batches))

	if err := n.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("%w: failed to send alert email: %v", models.ErrNotifier, err)
	}

	n.logger.Info("Alert email sent",
		zap.String("recipient", recipient),
		zap.Int("batch_count", len(batches)),
	)

	return nil
}

// buildAlertEmailHTML 构建报警邮件正文（只呈现 emergency 级别事实）
func buildAlertEmailHTML(patientLabel string, batches []models.AlertBatch) string {
	var rows strings.Builder

	for _, batch := range batches {
		rows.WriteString(fmt.Sprintf(
			`<p style="font-weight: bold; color: #555;">Time: %s</p>`,
			batch.Timestamp.Local().Format("2006-01-02 15:04:05"),
		))
		rows.WriteString(`<table style="width: 100%; border-collapse: collapse;">
<thead><tr style="background-color: #f5f5f5;">
<th style="padding: 10px; text-align: left;">Vital</th>
<th style="padding: 10px; text-align: left;">Value</th>
<th style="padding: 10px; text-align: left;">Alert</th>
</tr></thead><tbody>`)

		for _, fact := range batch.Alerts {
			if fact.Severity != models.SeverityEmergency {
				continue
			}
			rows.WriteString(fmt.Sprintf(`<tr>
<td style="padding: 10px; border-bottom: 1px solid #ddd;"><strong>%s</strong></td>
<td style="padding: 10px; border-bottom: 1px solid #ddd;">%v %s</td>
<td style="padding: 10px; border-bottom: 1px solid #ddd; color: #d32f2f;">%s</td>
</tr>`, fact.VitalType, fact.Value, fact.VitalType.Unit(), fact.Message))
		}

		rows.WriteString(`</tbody></table>`)
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
<div style="max-width: 600px; margin: 0 auto; padding: 20px;">
<div style="background-color: #d32f2f; color: white; padding: 20px;">
<h1 style="margin: 0; font-size: 24px;">Critical Health Alert</h1>
</div>
<div style="padding: 20px; border: 1px solid #ddd; border-top: none;">
<p>Dear <strong>%s</strong>,</p>
<p style="color: #d32f2f; font-weight: bold;">
We have detected critical abnormalities in your patient's vital signs that require immediate attention.
</p>
<h2 style="color: #d32f2f;">Alert Details:</h2>
%s
<div style="margin-top: 30px; padding: 15px; background-color: #f5f5f5;">
<h3 style="margin-top: 0; color: #555;">Recommended Actions:</h3>
<ul>
<li>Contact the patient immediately</li>
<li>If severe symptoms are reported, call emergency services</li>
<li>Keep monitoring the vitals regularly</li>
</ul>
</div>
<p style="margin-top: 20px; font-size: 12px; color: #777;">
This is an automated alert from the Health Monitoring System. Generated at: %s
</p>
</div>
</div>
</body>
</html>`, patientLabel, rows.String(), time.Now().Local().Format("2006-01-02 15:04:05"))
}
