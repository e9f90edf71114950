package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Gaurav-cgpa/Cavista/internal/config"
	"github.com/Gaurav-cgpa/Cavista/internal/models"
	"github.com/Gaurav-cgpa/Cavista/internal/mqtt"
)

// Subscriber MQTT 订阅接口（mqtt.Client 实现）
type Subscriber interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topics ...string) error
}

// Ingestor 读数写入接口（service.VitalsService 实现）
type Ingestor interface {
	IngestReading(ctx context.Context, reading *models.Reading) error
}

// MQTTConsumer 设备直推读数消费者
// 订阅 vitals/<patientId>/readings，载荷为 JSON 读数，
// 走与调度器相同的校验 + 写入路径
type MQTTConsumer struct {
	config   *config.Config
	client   Subscriber
	ingestor Ingestor
	logger   *zap.Logger
}

// NewMQTTConsumer 创建MQTT消费者
func NewMQTTConsumer(
	cfg *config.Config,
	client Subscriber,
	ingestor Ingestor,
	logger *zap.Logger,
) *MQTTConsumer {
	return &MQTTConsumer{
		config:   cfg,
		client:   client,
		ingestor: ingestor,
		logger:   logger,
	}
}

// Start 启动消费者（阻塞直到 ctx 取消）
func (c *MQTTConsumer) Start(ctx context.Context) error {
	topic := c.config.MQTT.Topic
	if topic == "" {
		return fmt.Errorf("MQTT topic not configured")
	}

	if err := c.client.Subscribe(topic, c.config.MQTT.QoS, c.HandleMessage); err != nil {
		return fmt.Errorf("failed to subscribe to vitals topic: %w", err)
	}

	c.logger.Info("MQTT consumer started",
		zap.String("topic", topic),
	)

	<-ctx.Done()
	return nil
}

// Stop 停止消费者
func (c *MQTTConsumer) Stop(ctx context.Context) error {
	topic := c.config.MQTT.Topic
	if topic != "" {
		if err := c.client.Unsubscribe(topic); err != nil {
			c.logger.Error("Failed to unsubscribe", zap.Error(err))
		}
	}

	c.logger.Info("MQTT consumer stopped")
	return nil
}

// HandleMessage 处理单条MQTT消息
// 患者ID以主题第二段为准，载荷里的 patientId 忽略
func (c *MQTTConsumer) HandleMessage(topic string, payload []byte) error {
	c.logger.Debug("Received MQTT message",
		zap.String("topic", topic),
		zap.Int("payload_size", len(payload)),
	)

	patientID, err := patientIDFromTopic(topic)
	if err != nil {
		return err
	}

	var reading models.Reading
	if err := json.Unmarshal(payload, &reading); err != nil {
		return fmt.Errorf("failed to unmarshal reading payload: %w", err)
	}

	reading.PatientID = patientID
	if reading.Timestamp.IsZero() {
		reading.Timestamp = time.Now()
	}

	if err := c.ingestor.IngestReading(context.Background(), &reading); err != nil {
		return fmt.Errorf("failed to ingest device reading: %w", err)
	}

	c.logger.Info("Ingested device reading",
		zap.String("patient_id", patientID),
		zap.Time("timestamp", reading.Timestamp),
	)

	return nil
}

// patientIDFromTopic 从 vitals/<patientId>/readings 提取患者ID
func patientIDFromTopic(topic string) (string, error) {
	parts := strings.Split(topic, "/")
	if len(parts) != 3 || parts[1] == "" {
		return "", fmt.Errorf("unexpected topic format: %s", topic)
	}
	return parts[1], nil
}
