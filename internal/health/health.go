package health

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/heptiolabs/healthcheck"
	"go.uber.org/zap"

	"formreply/backend/internal/storage"
)

// Pinger 缓存连通性检查
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthChecker 健康检查器
type HealthChecker struct {
	health    healthcheck.Handler
	store     storage.Store
	cache     Pinger
	filesPath string
	logger    *zap.Logger
}

// NewHealthChecker 创建健康检查器，cache 可以为 nil
func NewHealthChecker(store storage.Store, cache Pinger, filesPath string, logger *zap.Logger) *HealthChecker {
	hc := &HealthChecker{
		health:    healthcheck.NewHandler(),
		store:     store,
		cache:     cache,
		filesPath: filesPath,
		logger:    logger,
	}

	hc.addChecks()

	return hc
}

// addChecks 添加健康检查
func (hc *HealthChecker) addChecks() {
	// 数据库连接检查
	hc.health.AddLivenessCheck("database", func() error {
		return hc.store.Health()
	})

	// Redis 连接检查（启用缓存层时）
	if hc.cache != nil {
		hc.health.AddReadinessCheck("redis", func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return hc.cache.Ping(ctx)
		})
	}

	// 附件目录可用性检查
	hc.health.AddReadinessCheck("files", func() error {
		info, err := os.Stat(hc.filesPath)
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return fmt.Errorf("%s is not a directory", hc.filesPath)
		}
		return nil
	})
}

// Handler 返回健康检查处理器
func (hc *HealthChecker) Handler() http.Handler {
	return hc.health
}

// CheckHealth 执行健康检查
func (hc *HealthChecker) CheckHealth() map[string]string {
	results := make(map[string]string)

	// 检查数据库
	if err := hc.store.Health(); err != nil {
		results["database"] = fmt.Sprintf("ERROR: %v", err)
	} else {
		results["database"] = "OK"
	}

	// 检查 Redis
	if hc.cache != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := hc.cache.Ping(ctx); err != nil {
			results["redis"] = fmt.Sprintf("ERROR: %v", err)
		} else {
			results["redis"] = "OK"
		}
	} else {
		results["redis"] = "NOT_AVAILABLE"
	}

	// 检查附件目录
	if _, err := os.Stat(hc.filesPath); err != nil {
		results["files"] = fmt.Sprintf("ERROR: %v", err)
	} else {
		results["files"] = "OK"
	}

	results["timestamp"] = time.Now().Format(time.RFC3339)

	return results
}

// DatabaseHealthCheck 数据库健康检查
func DatabaseHealthCheck(db *sql.DB) healthcheck.Check {
	return func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		return db.PingContext(ctx)
	}
}
