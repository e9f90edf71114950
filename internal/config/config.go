package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// GetDSN 获取数据库连接字符串
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// RedisConfig Redis配置
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// MQTTConfig MQTT配置（可选的设备直推摄取通道）
type MQTTConfig struct {
	Enabled  bool
	Broker   string
	ClientID string
	Username string
	Password string
	Topic    string // 如 "vitals/+/readings"
	QoS      byte
}

// Config 监护服务配置
type Config struct {
	Database DatabaseConfig
	Redis    RedisConfig
	MQTT     MQTTConfig

	// 生命体征服务特定配置
	Vitals struct {
		// Redis 缓存配置
		Cache struct {
			KeyPrefix          string // 患者缓存键前缀，如 "vitals:patient:"
			LatestSuffix       string // 最新采样缓存键后缀
			AlertSuffix        string // 报警批次缓存键后缀
			LastModifiedSuffix string // 最近写入标记键后缀
			AlertTTL           int    // 报警缓存 TTL（秒）
			LatestTTL          int    // 最新采样缓存 TTL（秒）
		}

		// 升级通知 episode 状态
		Escalation struct {
			StateKeyPrefix string // 如 "escalation:state:"
			StateTTL       int    // episode 状态兜底 TTL（秒）
		}

		Stream         string // 采样实时流（Redis Streams）
		WindowDuration string // 默认查询窗口，如 "24h"
		QueryTimeout   int    // 窗口查询超时（秒）
	}

	// 摄取调度配置
	Scheduler struct {
		Interval      int      // 摄取间隔（秒），默认 60
		Patients      []string // 受监护患者列表
		RetryMax      int      // 单次追加的最大重试次数
		RetryBackoff  int      // 重试退避基数（毫秒）
		RetentionDays int      // 采样保留天数（0 表示不清理）
	}

	// 通知渠道配置
	Notifier struct {
		Channel   string // "email" 或 "webhook"
		Recipient string // 看护人收件地址
		Email     struct {
			SMTPHost string
			SMTPPort int
			Username string
			Password string
			From     string
		}
		Webhook struct {
			URL     string
			Timeout int // 秒
		}
	}

	HTTP struct {
		Addr string
	}

	Log struct {
		Level  string
		Format string
	}
}

// Load 加载配置（.env 存在时先读入，环境变量优先）
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = getEnvInt("DB_PORT", 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "vitals")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvInt("REDIS_DB", 0)

	cfg.MQTT.Enabled = getEnv("MQTT_ENABLED", "false") == "true"
	cfg.MQTT.Broker = getEnv("MQTT_BROKER", "tcp://localhost:1883")
	cfg.MQTT.ClientID = getEnv("MQTT_CLIENT_ID", "vitals-monitor")
	cfg.MQTT.Username = getEnv("MQTT_USERNAME", "")
	cfg.MQTT.Password = getEnv("MQTT_PASSWORD", "")
	cfg.MQTT.Topic = getEnv("MQTT_TOPIC", "vitals/+/readings")
	cfg.MQTT.QoS = 1

	cfg.Vitals.Cache.KeyPrefix = getEnv("CACHE_KEY_PREFIX", "vitals:patient:")
	cfg.Vitals.Cache.LatestSuffix = ":latest"
	cfg.Vitals.Cache.AlertSuffix = ":alerts"
	cfg.Vitals.Cache.LastModifiedSuffix = ":last_modified"
	cfg.Vitals.Cache.AlertTTL = getEnvInt("CACHE_ALERT_TTL", 30)
	cfg.Vitals.Cache.LatestTTL = getEnvInt("CACHE_LATEST_TTL", 300)

	cfg.Vitals.Escalation.StateKeyPrefix = getEnv("ESCALATION_STATE_PREFIX", "escalation:state:")
	cfg.Vitals.Escalation.StateTTL = getEnvInt("ESCALATION_STATE_TTL", 86400)

	cfg.Vitals.Stream = getEnv("VITALS_STREAM", "vitals:readings")
	cfg.Vitals.WindowDuration = getEnv("VITALS_WINDOW", "24h")
	cfg.Vitals.QueryTimeout = getEnvInt("VITALS_QUERY_TIMEOUT", 5)

	cfg.Scheduler.Interval = getEnvInt("SCHEDULER_INTERVAL", 60)
	cfg.Scheduler.Patients = splitList(getEnv("SCHEDULER_PATIENTS", ""))
	cfg.Scheduler.RetryMax = getEnvInt("SCHEDULER_RETRY_MAX", 3)
	cfg.Scheduler.RetryBackoff = getEnvInt("SCHEDULER_RETRY_BACKOFF", 500)
	cfg.Scheduler.RetentionDays = getEnvInt("SCHEDULER_RETENTION_DAYS", 7)

	cfg.Notifier.Channel = getEnv("NOTIFIER_CHANNEL", "email")
	cfg.Notifier.Recipient = getEnv("NOTIFIER_RECIPIENT", "doctor@email.com")
	cfg.Notifier.Email.SMTPHost = getEnv("SMTP_HOST", "smtp.gmail.com")
	cfg.Notifier.Email.SMTPPort = getEnvInt("SMTP_PORT", 587)
	cfg.Notifier.Email.Username = getEnv("EMAIL_USER", "")
	cfg.Notifier.Email.Password = getEnv("EMAIL_PASSWORD", "")
	cfg.Notifier.Email.From = getEnv("EMAIL_FROM", "")
	cfg.Notifier.Webhook.URL = getEnv("WEBHOOK_URL", "")
	cfg.Notifier.Webhook.Timeout = getEnvInt("WEBHOOK_TIMEOUT", 10)

	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8080")

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	if _, err := time.ParseDuration(cfg.Vitals.WindowDuration); err != nil {
		return nil, fmt.Errorf("invalid VITALS_WINDOW %q: %w", cfg.Vitals.WindowDuration, err)
	}

	// Interval 驱动 time.NewTicker，必须为正
	if cfg.Scheduler.Interval <= 0 {
		return nil, fmt.Errorf("invalid SCHEDULER_INTERVAL %d: must be positive", cfg.Scheduler.Interval)
	}

	return cfg, nil
}

// WindowDuration 默认查询窗口（Load 时已校验）
func (c *Config) WindowDuration() time.Duration {
	d, _ := time.ParseDuration(c.Vitals.WindowDuration)
	return d
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	var out []string
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}
