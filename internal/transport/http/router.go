package httptransport

import (
	"net/http"
	"time"

	gincors "github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"formreply/backend/internal/auth"
	jwtpkg "formreply/backend/internal/auth/jwt"
	"formreply/backend/internal/config"
	"formreply/backend/internal/middleware"
	"formreply/backend/internal/monitoring"
	"formreply/backend/internal/service"
)

// RouterDependencies 路由器依赖项
type RouterDependencies struct {
	Config        *config.Config
	ReplyService  *service.ReplyService
	FileService   *service.FileService
	AuthService   *auth.Service
	JWTManager    *jwtpkg.Manager
	Metrics       *monitoring.Metrics // 可为 nil
	HealthHandler http.Handler        // 可为 nil
	Logger        *zap.Logger
}

// NewRouter 创建并返回 Gin 路由实例。
func NewRouter(deps RouterDependencies) *gin.Engine {
	router := gin.New()

	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	// 使用自定义中间件替代默认中间件
	router.Use(middleware.RecoveryHandler(log))
	router.Use(middleware.RequestLogger(log))
	router.Use(middleware.SecurityHeaders())

	// 全局请求体大小限制，附件上传端点单独放宽
	router.Use(middleware.DynamicBodySizeLimit(map[string]int64{
		"/v1/files": middleware.UploadBodyLimit,
	}, middleware.SmallBodyLimit))

	// 监控中间件
	if deps.Metrics != nil {
		mm := middleware.NewMonitoringMiddleware(deps.Metrics, log)
		router.Use(mm.HTTPMetrics())
		router.Use(mm.BusinessMetrics())
	}

	// CORS 配置
	corsConfig := gincors.Config{
		AllowOrigins:     deps.Config.CORS.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	// 如果允许所有来源，则需清空凭证支持。
	for _, origin := range corsConfig.AllowOrigins {
		if origin == "*" {
			corsConfig.AllowCredentials = false
			break
		}
	}
	router.Use(gincors.New(corsConfig))

	// 创建处理器
	replyHandler := NewReplyHandler(deps.ReplyService, log)
	fileHandler := NewFileHandler(deps.FileService, log)
	authHandler := NewAuthHandler(deps.AuthService, deps.JWTManager, log)

	// 创建中间件
	jwtAuth := middleware.NewJWTAuth(deps.JWTManager, deps.AuthService, log)
	formAccess := middleware.NewFormAccess(deps.ReplyService, log)

	// Swagger 文档
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// 健康检查
	if deps.HealthHandler != nil {
		router.GET("/live", gin.WrapH(deps.HealthHandler))
		router.GET("/ready", gin.WrapH(deps.HealthHandler))
	}
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Prometheus 指标
	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics.HTTPHandler()))
	}

	// V1 API
	v1 := router.Group("/v1")
	{
		// ========== Auth Routes ==========
		authRoutes := v1.Group("/auth")
		{
			authRoutes.POST("/login", authHandler.Login)
			authRoutes.POST("/refresh", authHandler.Refresh)
			authRoutes.GET("/me", jwtAuth.RequireAuth(), authHandler.Me)
		}

		// ========== Reply Routes ==========
		formRoutes := v1.Group("/forms/:formID/submissions/:submissionID")
		formRoutes.Use(jwtAuth.RequireAuth())
		{
			// 撰写和提交要求表单配置了可回复的邮件处理器
			formRoutes.GET("/reply", formAccess.RequireReplyAccess(true), replyHandler.Compose)
			formRoutes.POST("/reply", formAccess.RequireReplyAccess(true), replyHandler.Submit)

			// 历史查看不要求处理器仍然存在
			formRoutes.GET("/replies", formAccess.RequireReplyAccess(false), replyHandler.History)
		}

		// ========== File Routes ==========
		fileRoutes := v1.Group("/files")
		fileRoutes.Use(jwtAuth.RequireAuth())
		{
			fileRoutes.POST("", fileHandler.Upload)
			fileRoutes.GET("/:fileID", fileHandler.Download)
		}
	}

	return router
}
