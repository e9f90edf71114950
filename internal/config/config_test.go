package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultValues(t *testing.T) {
	// 清除环境变量
	os.Clearenv()

	cfg, err := Load()
	require.NoError(t, err)
	assert.NotNil(t, cfg)

	// 验证默认值
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "postgres", cfg.Database.User)
	assert.Equal(t, "vitals", cfg.Database.Database)
	assert.Equal(t, "disable", cfg.Database.SSLMode)

	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 0, cfg.Redis.DB)

	assert.False(t, cfg.MQTT.Enabled)
	assert.Equal(t, "vitals/+/readings", cfg.MQTT.Topic)

	assert.Equal(t, "vitals:patient:", cfg.Vitals.Cache.KeyPrefix)
	assert.Equal(t, ":latest", cfg.Vitals.Cache.LatestSuffix)
	assert.Equal(t, ":alerts", cfg.Vitals.Cache.AlertSuffix)
	assert.Equal(t, 30, cfg.Vitals.Cache.AlertTTL)

	assert.Equal(t, "escalation:state:", cfg.Vitals.Escalation.StateKeyPrefix)
	assert.Equal(t, 86400, cfg.Vitals.Escalation.StateTTL)

	assert.Equal(t, "vitals:readings", cfg.Vitals.Stream)
	assert.Equal(t, 24*time.Hour, cfg.WindowDuration())
	assert.Equal(t, 5, cfg.Vitals.QueryTimeout)

	assert.Equal(t, 60, cfg.Scheduler.Interval)
	assert.Empty(t, cfg.Scheduler.Patients)
	assert.Equal(t, 7, cfg.Scheduler.RetentionDays)

	assert.Equal(t, "email", cfg.Notifier.Channel)
	assert.Equal(t, "doctor@email.com", cfg.Notifier.Recipient)

	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	// 设置环境变量
	os.Setenv("DB_HOST", "test-host")
	os.Setenv("DB_NAME", "test-db")
	os.Setenv("REDIS_ADDR", "test-redis:6380")
	os.Setenv("SCHEDULER_INTERVAL", "15")
	os.Setenv("SCHEDULER_PATIENTS", "patient-1, patient-2,patient-3")
	os.Setenv("VITALS_WINDOW", "12h")
	os.Setenv("NOTIFIER_CHANNEL", "webhook")
	os.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	// 验证环境变量覆盖
	assert.Equal(t, "test-host", cfg.Database.Host)
	assert.Equal(t, "test-db", cfg.Database.Database)
	assert.Equal(t, "test-redis:6380", cfg.Redis.Addr)
	assert.Equal(t, 15, cfg.Scheduler.Interval)
	assert.Equal(t, []string{"patient-1", "patient-2", "patient-3"}, cfg.Scheduler.Patients)
	assert.Equal(t, 12*time.Hour, cfg.WindowDuration())
	assert.Equal(t, "webhook", cfg.Notifier.Channel)
	assert.Equal(t, "debug", cfg.Log.Level)

	// 清理环境变量
	os.Clearenv()
}

func TestLoad_InvalidWindow(t *testing.T) {
	os.Clearenv()
	os.Setenv("VITALS_WINDOW", "one-day")

	cfg, err := Load()

	assert.Error(t, err)
	assert.Nil(t, cfg)

	os.Clearenv()
}

// Interval 进 time.NewTicker，零或负值必须在 Load 时拒绝
func TestLoad_NonPositiveSchedulerInterval(t *testing.T) {
	for _, interval := range []string{"0", "-5"} {
		os.Clearenv()
		os.Setenv("SCHEDULER_INTERVAL", interval)

		cfg, err := Load()

		assert.Error(t, err, "interval %s", interval)
		assert.Nil(t, cfg)
	}

	os.Clearenv()
}

func TestGetEnv(t *testing.T) {
	// 测试默认值
	os.Clearenv()
	value := getEnv("TEST_KEY", "default-value")
	assert.Equal(t, "default-value", value)

	// 测试环境变量存在
	os.Setenv("TEST_KEY", "env-value")
	value = getEnv("TEST_KEY", "default-value")
	assert.Equal(t, "env-value", value)

	// 清理
	os.Unsetenv("TEST_KEY")
}
