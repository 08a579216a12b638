package handler

import (
	"cbibank/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

// SetupRouter 配置路由
func SetupRouter(db *gorm.DB, rdb *redis.Client, cfg *config.Config) *gin.Engine {
	// 设置 gin 为发布模式（减少日志输出）
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// 注册中间件
	r.Use(RecoveryMiddleware())
	r.Use(LoggerMiddleware())
	r.Use(CORSMiddleware())
	r.Use(RateLimitMiddleware(rdb, cfg.Business.RateLimitPerMin))

	// 创建处理器
	h := NewHandler(db, rdb, cfg)

	// 鉴权中间件与登录服务共用一套令牌配置
	auth := AuthMiddleware(h.authService.TokenManager(), h.authService.LoadPrincipal)
	optionalAuth := OptionalAuthMiddleware(h.authService.TokenManager(), h.authService.LoadPrincipal)

	// API 路由组
	api := r.Group("/api")
	{
		// 认证相关（公开）
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", h.Register)
			authGroup.POST("/login", h.Login)
			authGroup.GET("/profile", auth, h.GetProfile)
			authGroup.PUT("/profile", auth, h.UpdateProfile)
		}

		// 存取款相关
		amount := api.Group("/amount", auth)
		{
			amount.POST("/add", h.AddAmount)
			amount.POST("/deduct", h.DeductAmount)
			amount.GET("/balance", h.GetBalance)
		}

		// 定期存款相关
		fd := api.Group("/fd", auth)
		{
			fd.POST("/create", h.CreateFD)
			fd.GET("", h.ListFDs)
			fd.GET("/:fdId", h.GetFDDetails)
			fd.POST("/:fdId/break", h.BreakFD)
		}

		// 交易流水相关
		transactions := api.Group("/transactions", auth)
		{
			transactions.GET("", h.ListTransactions)
			transactions.GET("/stats", h.GetTransactionStats)
			transactions.GET("/statement", h.DownloadStatement)
			transactions.GET("/:transactionId", h.GetTransactionDetails)
		}

		// 银行卡相关
		atm := api.Group("/atm", auth)
		{
			atm.POST("/request", h.RequestCard)
			atm.GET("", h.ListCards)
			atm.GET("/:cardId/details", h.GetCardDetails)
			atm.POST("/set-pin", h.SetPin)
			atm.POST("/change-pin", h.ChangePin)
			atm.POST("/:cardId/toggle-block", h.ToggleBlockCard)
		}

		// 客服工单相关
		contact := api.Group("/contact")
		{
			// 提交入口公开，登录用户自动关联工单归属
			contact.POST("/submit", optionalAuth, h.SubmitTicket)
			contact.GET("/my-tickets", auth, h.MyTickets)
			contact.GET("/ticket/:ticketNumber", auth, h.GetTicketByNumber)

			// 管理端
			admin := contact.Group("/admin", auth, AdminMiddleware())
			{
				admin.GET("/tickets", h.AdminListTickets)
				admin.POST("/respond", h.AdminRespondTicket)
				admin.PUT("/ticket/:ticketId/status", h.AdminUpdateTicketStatus)
			}
		}

		// 网关充值相关
		payment := api.Group("/payment", auth)
		{
			payment.POST("/initiate", h.InitiatePayment)
			payment.POST("/verify", h.VerifyPayment)
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
