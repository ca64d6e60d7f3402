package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	// Application
	"github.com/dreschagin/guild-insights/internal/application/dto"
	"github.com/dreschagin/guild-insights/internal/application/port"
	"github.com/dreschagin/guild-insights/internal/application/session"
	"github.com/dreschagin/guild-insights/internal/application/usecase"

	// Domain
	"github.com/dreschagin/guild-insights/internal/domain/repository"
	"github.com/dreschagin/guild-insights/internal/domain/service"

	// Infrastructure
	rediscache "github.com/dreschagin/guild-insights/internal/infrastructure/cache/redis"
	"github.com/dreschagin/guild-insights/internal/infrastructure/discordapi"
	"github.com/dreschagin/guild-insights/internal/infrastructure/gateway/discord"
	natsmsg "github.com/dreschagin/guild-insights/internal/infrastructure/messaging/nats"
	wsInfra "github.com/dreschagin/guild-insights/internal/infrastructure/notification/websocket"
	"github.com/dreschagin/guild-insights/internal/infrastructure/observability/cloudwatch"
	"github.com/dreschagin/guild-insights/internal/infrastructure/observability/metrics"
	"github.com/dreschagin/guild-insights/internal/infrastructure/persistence/postgres"
	fbqueue "github.com/dreschagin/guild-insights/internal/infrastructure/queue/firebase"
	s3storage "github.com/dreschagin/guild-insights/internal/infrastructure/storage/s3"

	// Interfaces
	httpInterface "github.com/dreschagin/guild-insights/internal/interfaces/http"
	"github.com/dreschagin/guild-insights/internal/interfaces/http/handler"
	"github.com/dreschagin/guild-insights/internal/interfaces/http/middleware"

	// Shared
	"github.com/dreschagin/guild-insights/pkg/config"
	"github.com/dreschagin/guild-insights/pkg/logger"

	_ "github.com/lib/pq"
)

func main() {
	// 1. Загружаем конфигурацию
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Инициализируем logger
	log := logger.New(os.Getenv("LOG_LEVEL"))
	log.Info("Starting Guild Insights")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Метрики сервиса
	metricsRegistry := prometheus.NewRegistry()
	metricsRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	serviceMetrics := metrics.New(metricsRegistry)

	healthChecks := map[string]handler.HealthCheck{}

	// 4. Dependency Injection - Infrastructure Layer

	// История анализов (PostgreSQL)
	var history repository.AnalysisRepository
	var historyRepo *postgres.PostgresAnalysisRepository
	if cfg.Database.Enabled {
		db, err := sql.Open("postgres", cfg.Database.DSN())
		if err != nil {
			log.Error("Failed to connect to database", err)
			os.Exit(1)
		}
		defer db.Close()

		// Настраиваем connection pool
		db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
		db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
		db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)
		db.SetConnMaxIdleTime(cfg.Database.ConnMaxIdleTime)

		if err := db.PingContext(ctx); err != nil {
			log.Error("Failed to ping database", err)
			os.Exit(1)
		}
		log.Info("Database connected successfully")

		historyRepo = postgres.NewPostgresAnalysisRepository(db)
		history = historyRepo
		healthChecks["postgres"] = db.PingContext
	} else {
		log.Warn("Database is disabled, analysis history is not stored")
	}

	// Кеш последних отчетов (Redis)
	var reportCache port.ReportCache
	if cfg.Redis.Enabled {
		cache, err := rediscache.NewReportCache(rediscache.Options{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			TTL:          cfg.Redis.TTL,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		if err != nil {
			log.Error("Failed to connect to Redis", err)
			os.Exit(1)
		}
		defer cache.Close()

		reportCache = cache
		healthChecks["redis"] = cache.Ping
		log.Info("Redis cache connected")
	}

	// Архив отчетов (S3)
	var archive port.ReportStorage
	if cfg.S3.Enabled {
		storage, err := s3storage.NewReportStorage(ctx, s3storage.Config{
			Bucket:          cfg.S3.Bucket,
			Region:          cfg.S3.Region,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			UsePathStyle:    cfg.S3.UsePathStyle,
			URLMode:         s3storage.URLMode(cfg.S3.URLMode),
			PresignedTTL:    cfg.S3.PresignedTTL,
		})
		if err != nil {
			log.Error("Failed to initialize report storage", err)
			os.Exit(1)
		}
		archive = storage
	}

	// События анализа (NATS)
	var events port.EventPublisher
	if cfg.NATS.Enabled {
		publisher, err := natsmsg.NewNATSPublisher(cfg.NATS.URL, log)
		if err != nil {
			log.Error("Failed to connect to NATS", err)
			os.Exit(1)
		}
		defer publisher.Close()

		events = publisher
		healthChecks["nats"] = func(context.Context) error {
			if !publisher.Connected() {
				return fmt.Errorf("nats is disconnected")
			}
			return nil
		}
	}

	// Метрики вовлеченности гильдий (CloudWatch)
	var guildMetrics *cloudwatch.MetricsPublisher
	var guildMetricsPort port.MetricsPublisher
	if cfg.CloudWatch.Enabled {
		guildMetrics, err = cloudwatch.NewMetricsPublisher(ctx, cloudwatch.MetricsPublisherConfig{
			Namespace:       cfg.CloudWatch.Namespace,
			Region:          cfg.CloudWatch.Region,
			Endpoint:        cfg.CloudWatch.Endpoint,
			AccessKeyID:     cfg.CloudWatch.AccessKeyID,
			SecretAccessKey: cfg.CloudWatch.SecretAccessKey,
			DefaultDimensions: map[string]string{
				"Environment": cfg.CloudWatch.Environment,
			},
			FlushInterval: cfg.CloudWatch.FlushInterval,
			Logger:        log,
		})
		if err != nil {
			log.Error("Failed to initialize CloudWatch publisher", err)
			os.Exit(1)
		}
		guildMetricsPort = guildMetrics
	}

	// Очередь команд бота (Firebase Realtime Database)
	var commandQueue port.CommandQueue
	if cfg.Firebase.Enabled {
		queue, err := fbqueue.NewCommandQueue(ctx, fbqueue.Config{
			DatabaseURL:     cfg.Firebase.DatabaseURL,
			CredentialsFile: cfg.Firebase.CredentialsFile,
			Root:            cfg.Firebase.CommandsRoot,
		}, log)
		if err != nil {
			log.Error("Failed to initialize command queue", err)
			os.Exit(1)
		}
		commandQueue = queue
	} else {
		log.Warn("Firebase is disabled, command submission will fail")
		commandQueue = disabledQueue{}
	}

	users := discordapi.NewUserClient(cfg.DiscordAPI.BaseURL, cfg.DiscordAPI.RatePerSecond, cfg.DiscordAPI.RequestTimeout)

	// WebSocket Hub
	hub := wsInfra.NewHub(log)
	go hub.Run(ctx)

	// Gateway sessions
	sessions := session.NewManager(discord.NewDialer(log), session.Config{
		ReadyTimeout:  cfg.Gateway.ReadyTimeout,
		TeardownGrace: cfg.Gateway.TeardownGrace,
		MaxSessions:   cfg.Gateway.MaxConcurrentSessions,
	}, log).WithObserver(serviceMetrics)

	// 5. Dependency Injection - Domain Layer
	aggregator := service.NewSnapshotAggregator()

	// 6. Dependency Injection - Application Layer (Use Cases)
	reportPublisher := usecase.NewReportPublisher(usecase.ReportSinks{
		Cache:         reportCache,
		History:       history,
		Archive:       archive,
		ArchivePrefix: cfg.S3.KeyPrefix,
		Events:        events,
		EventSubject:  cfg.NATS.Subject,
		Notifier:      hub,
		Metrics:       guildMetricsPort,
		Observer:      serviceMetrics,
	}, 30*time.Second, log)

	analyzeGuildUC := usecase.NewAnalyzeGuildUseCase(sessions, aggregator, reportPublisher, log)
	getLatestReportUC := usecase.NewGetLatestReportUseCase(reportCache, log)
	var getHistoryUC handler.HistoryReader = unavailableHistory{}
	if history != nil {
		getHistoryUC = usecase.NewGetAnalysisHistoryUseCase(history, log)
	}
	submitCommandUC := usecase.NewSubmitCommandUseCase(users, commandQueue, log)

	// 7. Dependency Injection - Interfaces Layer (HTTP Handlers)
	authConfig := middleware.AuthConfig{
		Enabled:     cfg.Security.AuthEnabled,
		BearerToken: cfg.Security.AuthToken,
	}

	analyzeLimiter := middleware.NewIPRateLimiter(cfg.Security.AnalyzeRateLimit, cfg.Security.AnalyzeBurst)
	go analyzeLimiter.Run(ctx, 5*time.Minute)

	router := httpInterface.NewRouter(
		handler.NewGuildAPIHandler(analyzeGuildUC, getLatestReportUC, getHistoryUC, log),
		handler.NewCommandAPIHandler(submitCommandUC, log),
		handler.NewWebSocketHandler(hub, cfg.Security.AllowedOrigins, authConfig, log),
		handler.NewHealthHandler(healthChecks),
		analyzeLimiter,
		httpInterface.Observability{
			Middleware:  serviceMetrics.Middleware,
			Handler:     promhttp.HandlerFor(metricsRegistry, promhttp.HandlerOpts{DisableCompression: true}),
			RateLimited: serviceMetrics.RateLimited,
		},
		cfg.Security,
		log,
	)

	// 8. Запускаем фоновые процессы

	// Очистка старой истории анализов
	if historyRepo != nil && cfg.Database.RetentionDays > 0 {
		go func() {
			ticker := time.NewTicker(cfg.Database.CleanupInterval)
			defer ticker.Stop()

			log.Info("History retention started",
				"retention_days", cfg.Database.RetentionDays,
				"interval", cfg.Database.CleanupInterval.String())

			for {
				select {
				case <-ticker.C:
					if err := historyRepo.DeleteOlderThan(ctx, cfg.Database.RetentionDays); err != nil {
						log.Error("Failed to delete old analysis history", err)
					}
				case <-ctx.Done():
					log.Info("History retention stopped")
					return
				}
			}
		}()
	}

	// 9. Настраиваем HTTP сервер

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Канал для получения сигналов ОС
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Запускаем сервер в отдельной goroutine
	go func() {
		log.Info("HTTP server starting", "port", cfg.Server.Port)

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server failed", err)
			os.Exit(1)
		}
	}()

	// 10. Ожидаем сигнал для graceful shutdown

	<-sigChan
	log.Info("Shutdown signal received, starting graceful shutdown...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown error", err)
	}

	// Дожидаемся фоновой публикации отчетов, затем останавливаем hub и воркеры
	if err := reportPublisher.Wait(shutdownCtx); err != nil {
		log.Warn("Report publishing did not finish before shutdown", "error", err.Error())
	}
	cancel()

	if guildMetrics != nil {
		if err := guildMetrics.Close(shutdownCtx); err != nil {
			log.Error("Failed to flush CloudWatch metrics", err)
		}
	}

	log.Info("Server stopped gracefully")
}

// disabledQueue отклоняет команды, когда Firebase не настроен
type disabledQueue struct{}

func (disabledQueue) Push(context.Context, string, string, *dto.TicketCommandDTO) (string, error) {
	return "", fmt.Errorf("command queue is disabled")
}

// unavailableHistory отвечает ошибкой, когда база данных отключена
type unavailableHistory struct{}

func (unavailableHistory) Execute(context.Context, string, int) (*dto.AnalysisHistoryDTO, error) {
	return nil, fmt.Errorf("analysis history is disabled")
}
