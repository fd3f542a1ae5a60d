package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"formreply/backend/internal/auth"
	jwtpkg "formreply/backend/internal/auth/jwt"
	"formreply/backend/internal/config"
	"formreply/backend/internal/health"
	"formreply/backend/internal/logger"
	"formreply/backend/internal/mailer"
	"formreply/backend/internal/monitoring"
	"formreply/backend/internal/service"
	"formreply/backend/internal/storage"
	"formreply/backend/internal/storage/filesystem"
	"formreply/backend/internal/storage/hybrid"
	"formreply/backend/internal/storage/memory"
	redisstore "formreply/backend/internal/storage/redis"
	sqlstore "formreply/backend/internal/storage/sql"
	httptransport "formreply/backend/internal/transport/http"
)

// main 启动回复调度 HTTP 服务。
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	// 设置 Gin 模式（基于开发环境标志）
	if !cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// 初始化日志系统
	log, err := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Development: cfg.Log.Development,
		LogFile:     cfg.Log.LogFile,
		MaxSize:     100,
		MaxBackups:  3,
		MaxAge:      28,
		Compress:    true,
	})
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	log.Info("starting formreply server",
		zap.String("log_level", cfg.Log.Level),
		zap.Bool("development", cfg.Log.Development),
	)

	// 初始化存储层
	var store storage.Store
	var cache *redisstore.Client

	if cfg.Database.Type != "" && cfg.Database.DSN != "" {
		if cfg.Redis.Enabled {
			// SQL + Redis 混合存储
			hybridStore, err := hybrid.NewStore(
				cfg.Database.Type,
				cfg.Database.DSN,
				cfg.Database.MaxOpenConns,
				cfg.Database.MaxIdleConns,
				cfg.Database.ConnMaxLifetime,
				redisstore.Config{
					Address:  cfg.Redis.Address,
					Password: cfg.Redis.Password,
					DB:       cfg.Redis.DB,
				},
			)
			if err != nil {
				panic(fmt.Sprintf("failed to initialize hybrid storage: %v", err))
			}
			store = hybridStore
			cache = hybridStore.Cache()
			log.Info("using hybrid storage",
				zap.String("type", cfg.Database.Type),
				zap.String("redis", cfg.Redis.Address),
			)
		} else {
			store, err = initializeDatabaseStorage(cfg, log)
			if err != nil {
				panic(fmt.Sprintf("failed to initialize database storage: %v", err))
			}
			log.Info("using database storage", zap.String("type", cfg.Database.Type))
		}
	} else {
		// 内存存储（开发环境）
		store = memory.NewStore()
		log.Info("using memory storage (development mode)")
	}

	// 初始化文件系统存储（附件字节）
	fsStore, err := filesystem.NewStore(cfg.Files.Path, cfg.Files.BaseURL)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize filesystem storage: %v", err))
	}
	log.Info("filesystem storage initialized", zap.String("path", cfg.Files.Path))

	// 初始化监控系统
	metrics := monitoring.NewMetrics()

	// 初始化健康检查
	healthChecker := health.NewHealthChecker(store, cacheOrNil(cache), cfg.Files.Path, log)

	// 初始化邮件投递
	sender := mailer.NewSMTPSender(mailer.SMTPConfig{
		Addr:     cfg.SMTP.Addr,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		UseTLS:   cfg.SMTP.UseTLS,
	}, log)

	// 初始化服务层
	replyService := service.NewReplyService(store, fsStore, sender, cfg.Reply.DefaultFrom, log)
	replyService.SetMetrics(metrics)
	fileService := service.NewFileService(store, fsStore, log)

	// 初始化认证服务
	authService := auth.NewService(store)
	jwtManager := jwtpkg.NewManager(
		cfg.JWT.Secret,
		cfg.JWT.Issuer,
		cfg.JWT.AccessExpiry,
		cfg.JWT.RefreshExpiry,
	)

	log.Info("JWT configuration",
		zap.String("issuer", cfg.JWT.Issuer),
		zap.Duration("access_expiry", cfg.JWT.AccessExpiry),
		zap.Duration("refresh_expiry", cfg.JWT.RefreshExpiry),
	)

	// 创建 HTTP 服务器
	httpAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	router := httptransport.NewRouter(httptransport.RouterDependencies{
		Config:        cfg,
		ReplyService:  replyService,
		FileService:   fileService,
		AuthService:   authService,
		JWTManager:    jwtManager,
		Metrics:       metrics,
		HealthHandler: healthChecker.Handler(),
		Logger:        log,
	})

	httpServer := &http.Server{
		Addr:              httpAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// 信号处理
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	startTime := time.Now()
	group, groupCtx := errgroup.WithContext(ctx)

	// HTTP 服务器 goroutine
	group.Go(func() error {
		log.Info("starting HTTP server", zap.String("address", httpAddr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error", zap.Error(err))
			return err
		}
		return nil
	})

	// 定时清理过期临时附件 goroutine
	group.Go(func() error {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()

		log.Info("starting stale upload cleanup task",
			zap.Duration("interval", 1*time.Hour),
			zap.Duration("temp_ttl", cfg.Files.TempTTL),
		)

		for {
			select {
			case <-groupCtx.Done():
				log.Info("cleanup task stopped")
				return nil
			case <-ticker.C:
				count, err := fileService.SweepTemp(time.Now().Add(-cfg.Files.TempTTL))
				if err != nil {
					log.Error("failed to sweep stale uploads", zap.Error(err))
				} else if count > 0 {
					metrics.RecordFilesSwept(count)
					log.Info("stale uploads cleaned up", zap.Int("count", count))
				}
			}
		}
	})

	// 系统指标 goroutine
	group.Go(func() error {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-groupCtx.Done():
				return nil
			case <-ticker.C:
				metrics.UpdateSystemUptime(time.Since(startTime))
			}
		}
	})

	// 优雅关闭 goroutine
	group.Go(func() error {
		<-groupCtx.Done()
		log.Info("shutdown signal received, gracefully shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error("HTTP server shutdown error", zap.Error(err))
		}

		if err := store.Close(); err != nil {
			log.Warn("storage close warning", zap.Error(err))
		}

		log.Info("server stopped")
		return nil
	})

	// 等待所有 goroutine 完成
	if err := group.Wait(); err != nil && err != context.Canceled {
		log.Fatal("server error", zap.Error(err))
	}

	log.Info("server exited cleanly")
}

// cacheOrNil 将可能为空的缓存客户端转换为健康检查接口
func cacheOrNil(cache *redisstore.Client) health.Pinger {
	if cache == nil {
		return nil
	}
	return cache
}

// initializeDatabaseStorage 初始化纯 SQL 数据库存储
func initializeDatabaseStorage(cfg *config.Config, log *zap.Logger) (storage.Store, error) {
	log.Info("initializing database storage",
		zap.String("database_type", cfg.Database.Type),
	)

	store, err := sqlstore.NewStore(
		cfg.Database.Type,
		cfg.Database.DSN,
		cfg.Database.MaxOpenConns,
		cfg.Database.MaxIdleConns,
		cfg.Database.ConnMaxLifetime,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create sql store: %w", err)
	}

	return store, nil
}
