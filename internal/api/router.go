package api

import (
	"time"

	"techmart/config"
	"techmart/internal/api/admin"
	"techmart/internal/api/apis"
	"techmart/internal/api/handler"
	"techmart/internal/middleware"
	"techmart/internal/repository"
	"techmart/internal/scheduler"
	"techmart/internal/service"
	"techmart/pkg/async"
	"techmart/pkg/lock"
	"techmart/pkg/logger"
	"techmart/pkg/payment"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

// SetupRouter 设置API路由
func SetupRouter(cfg *config.Config, logger *logger.Logger, db *sqlx.DB, redisClient *redis.Client) *gin.Engine {
	// 创建Gin引擎
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// 使用中间件
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.CORS())

	// 创建异步工作器
	worker := async.NewWorker(100, logger)
	worker.Start(5) // 启动5个工作协程

	// 初始化存储库
	userRepo := repository.NewUserRepository(db)
	listingRepo := repository.NewListingRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	refundRepo := repository.NewRefundRepository(db)
	settlementRepo := repository.NewSettlementRepository(db)
	tradeCaseRepo := repository.NewTradeCaseRepository(db)
	supportCaseRepo := repository.NewSupportCaseRepository(db)
	auditLogRepo := repository.NewAuditLogRepository(db)
	systemRepo := repository.NewSystemRepository(db)

	// 初始化支付服务商
	var provider payment.Provider
	if cfg.Payment.UseMock {
		provider = payment.NewMockProvider()
	} else {
		provider = payment.NewClient(payment.Config{
			BaseURL:    cfg.Payment.BaseURL,
			Timeout:    time.Duration(cfg.Payment.TimeoutSeconds) * time.Second,
			MaxRetries: cfg.Payment.MaxRetries,
		}, logger)
	}

	// 初始化服务
	userService := service.NewUserService(userRepo, redisClient, logger)
	rulesService := service.NewTradeRuleService(systemRepo, redisClient, logger)
	auditService := service.NewAuditService(auditLogRepo, worker, logger)
	tracker := service.NewMilestoneTracker(tradeCaseRepo, rulesService, logger)
	registry := service.NewCaseRegistry(supportCaseRepo, logger)
	locker := lock.NewRedisLocker(redisClient)
	orderService := service.NewOrderOrchestrator(
		orderRepo, paymentRepo, refundRepo, settlementRepo, listingRepo,
		tracker, registry, rulesService, provider, locker, auditService, logger)

	// 初始化SLA调度器
	slaScheduler := scheduler.NewSlaScheduler(orderService, tracker, registry,
		time.Duration(cfg.Scheduler.SLAIntervalSeconds)*time.Second, logger)
	slaScheduler.Start() // 启动SLA巡检

	// 初始化处理器
	authHandler := handler.NewAuthHandler(userService, logger)
	orderHandler := handler.NewOrderHandler(orderService, tracker, logger)
	paymentHandler := handler.NewPaymentHandler(orderService, logger)

	// 初始化管理员处理器
	orderAdminHandler := admin.NewOrderAdminHandler(orderService, logger)
	caseAdminHandler := admin.NewCaseAdminHandler(registry, logger)
	rulesAdminHandler := admin.NewTradeRulesAdminHandler(rulesService, auditService, logger)

	// 健康检查
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// API版本v1
	v1 := router.Group("/api/v1")

	// 注册不需要认证的路由（登录、支付回执）
	apis.RegisterPublicRoutes(v1, authHandler, paymentHandler)

	// 创建需要认证的API路由组
	authRouter := v1.Group("")
	authRouter.Use(middleware.UserAuth(userService))
	apis.RegisterAuthRoutes(authRouter, orderHandler)

	// 注册管理员API路由
	adminRouter := v1.Group("/admin")
	adminRouter.Use(middleware.AdminAuth(userService))
	admin.RegisterAdminRoutes(adminRouter, orderAdminHandler, caseAdminHandler, rulesAdminHandler)

	return router
}
