package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/Gaurav-cgpa/Cavista/internal/models"
)

// PublishReading 将已落库的采样发布到 Redis Streams，供实时消费方订阅
// 消息体：{"data": <reading JSON>, "timestamp": <unix>}
func PublishReading(ctx context.Context, client *redis.Client, stream string, reading *models.Reading) (string, error) {
	jsonBytes, err := json.Marshal(reading)
	if err != nil {
		return "", fmt.Errorf("failed to marshal reading: %w", err)
	}

	id, err := client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: map[string]interface{}{
			"data":      string(jsonBytes),
			"timestamp": time.Now().Unix(),
		},
	}).Result()
	if err != nil {
		return "", fmt.Errorf("failed to publish reading to stream: %w", err)
	}

	return id, nil
}
