package service

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/Gaurav-cgpa/Cavista/internal/cache"
	"github.com/Gaurav-cgpa/Cavista/internal/config"
	"github.com/Gaurav-cgpa/Cavista/internal/consumer"
	"github.com/Gaurav-cgpa/Cavista/internal/escalation"
	httpapi "github.com/Gaurav-cgpa/Cavista/internal/http"
	"github.com/Gaurav-cgpa/Cavista/internal/models"
	"github.com/Gaurav-cgpa/Cavista/internal/mqtt"
	"github.com/Gaurav-cgpa/Cavista/internal/notifier"
	"github.com/Gaurav-cgpa/Cavista/internal/repository"
	"github.com/Gaurav-cgpa/Cavista/internal/scheduler"
	"github.com/Gaurav-cgpa/Cavista/internal/store"
	"github.com/Gaurav-cgpa/Cavista/internal/telemetry"
)

// MonitorService 监护服务（整合各层）
type MonitorService struct {
	config      *config.Config
	db          *sql.DB
	redisClient *redis.Client
	logger      *zap.Logger

	// 各层组件
	readingsRepo  *repository.ReadingsRepository
	ingestRunRepo *repository.IngestRunsRepository
	notifRepo     *repository.NotificationsRepository
	cacheManager  *cache.CacheManager
	stateManager  *escalation.StateManager
	engine        *escalation.Engine
	vitals        *VitalsService
	scheduler     *scheduler.Scheduler
	mqttClient    *mqtt.Client
	mqttConsumer  *consumer.MQTTConsumer
	httpServer    *http.Server
}

// NewMonitorService 创建监护服务
func NewMonitorService(cfg *config.Config, logger *zap.Logger) (*MonitorService, error) {
	// 1. 连接数据库
	db, err := sql.Open("postgres", cfg.Database.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// 2. 连接 Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx := context.Background()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	// 3. 创建 Repository 层
	readingsRepo := repository.NewReadingsRepository(db, logger)
	ingestRunRepo := repository.NewIngestRunsRepository(db, logger)
	notifRepo := repository.NewNotificationsRepository(db, logger)

	// 4. 创建缓存与升级状态层
	cacheManager := cache.NewCacheManager(cfg, redisClient, logger)
	stateManager := escalation.NewStateManager(cfg, store.NewRedisKV(redisClient), logger)

	// 5. 创建通知渠道
	n, err := buildNotifier(cfg, logger)
	if err != nil {
		return nil, err
	}

	engine := escalation.NewEngine(stateManager, n, notifRepo, logger)

	// 6. 创建核心服务
	vitals := NewVitalsService(
		cfg,
		readingsRepo,
		cacheManager,
		redisClient,
		engine,
		models.DefaultThresholds(),
		logger,
	)

	// 7. 创建摄取调度器
	sched := scheduler.NewScheduler(cfg, telemetry.NewSyntheticSource(), vitals, ingestRunRepo, logger)

	svc := &MonitorService{
		config:        cfg,
		db:            db,
		redisClient:   redisClient,
		logger:        logger,
		readingsRepo:  readingsRepo,
		ingestRunRepo: ingestRunRepo,
		notifRepo:     notifRepo,
		cacheManager:  cacheManager,
		stateManager:  stateManager,
		engine:        engine,
		vitals:        vitals,
		scheduler:     sched,
	}

	// 8. 可选的 MQTT 设备直推通道
	if cfg.MQTT.Enabled {
		mqttClient, err := mqtt.NewClient(&cfg.MQTT, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create MQTT client: %w", err)
		}
		svc.mqttClient = mqttClient
		svc.mqttConsumer = consumer.NewMQTTConsumer(cfg, mqttClient, vitals, logger)
	}

	// 9. HTTP 服务
	handler := httpapi.NewVitalsHandler(vitals, cfg.WindowDuration(), logger)
	router := httpapi.NewRouter(logger)
	router.RegisterVitalsRoutes(handler)
	svc.httpServer = &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: router,
	}

	return svc, nil
}

// buildNotifier 按配置选择通知渠道
func buildNotifier(cfg *config.Config, logger *zap.Logger) (notifier.Notifier, error) {
	switch cfg.Notifier.Channel {
	case "email":
		return notifier.NewEmailNotifier(
			cfg.Notifier.Email.SMTPHost,
			cfg.Notifier.Email.SMTPPort,
			cfg.Notifier.Email.Username,
			cfg.Notifier.Email.Password,
			cfg.Notifier.Email.From,
			logger,
		), nil
	case "webhook":
		if cfg.Notifier.Webhook.URL == "" {
			return nil, fmt.Errorf("webhook notifier requires WEBHOOK_URL")
		}
		return notifier.NewWebhookNotifier(
			cfg.Notifier.Webhook.URL,
			time.Duration(cfg.Notifier.Webhook.Timeout)*time.Second,
			logger,
		), nil
	default:
		return nil, fmt.Errorf("unknown notifier channel: %s", cfg.Notifier.Channel)
	}
}

// Start 启动服务（阻塞直到 ctx 取消或 HTTP 服务出错）
func (s *MonitorService) Start(ctx context.Context) error {
	s.logger.Info("Starting vitals monitor service",
		zap.String("http_addr", s.config.HTTP.Addr),
		zap.Bool("mqtt_enabled", s.config.MQTT.Enabled),
	)

	// 摄取调度器
	go func() {
		if err := s.scheduler.Start(ctx); err != nil {
			s.logger.Error("Scheduler stopped with error", zap.Error(err))
		}
	}()

	// MQTT 消费者（可选）
	if s.mqttConsumer != nil {
		go func() {
			if err := s.mqttConsumer.Start(ctx); err != nil {
				s.logger.Error("MQTT consumer stopped with error", zap.Error(err))
			}
		}()
	}

	// HTTP 服务
	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	}
}

// Stop 停止服务
func (s *MonitorService) Stop() error {
	s.logger.Info("Stopping vitals monitor service")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("Failed to shut down HTTP server", zap.Error(err))
	}

	if s.mqttConsumer != nil {
		if err := s.mqttConsumer.Stop(shutdownCtx); err != nil {
			s.logger.Error("Failed to stop MQTT consumer", zap.Error(err))
		}
	}
	if s.mqttClient != nil {
		s.mqttClient.Disconnect()
	}

	if err := s.db.Close(); err != nil {
		s.logger.Error("Failed to close database", zap.Error(err))
	}

	if err := s.redisClient.Close(); err != nil {
		s.logger.Error("Failed to close redis", zap.Error(err))
	}

	return nil
}
