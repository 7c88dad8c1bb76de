package server

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/chibuike-kt/bsc-custody-ledger/internal/handler"
	"github.com/chibuike-kt/bsc-custody-ledger/pkg/config"
	"github.com/chibuike-kt/bsc-custody-ledger/pkg/monitor"
)

// Handlers 路由需要的所有 handler
type Handlers struct {
	User     *handler.UserHandler
	Wallet   *handler.WalletHandler
	Withdraw *handler.WithdrawHandler
	Admin    *handler.AdminHandler
	Auth     TokenParser
}

// NewHTTPRouter 初始化并返回一个 Gin Engine
func NewHTTPRouter(h Handlers) *gin.Engine {
	monitor.Init()

	if config.Global.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(monitor.PrometheusMiddleware())

	r.GET("/health", handler.HealthCheck)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	{
		api.POST("/register", h.User.Register)
		api.POST("/login", h.User.Login)

		wallet := api.Group("/wallet", AuthMiddleware(h.Auth))
		{
			wallet.GET("/deposit_address", h.Wallet.GetDepositAddress)
			wallet.GET("/balance", h.Wallet.GetBalance)
			wallet.POST("/withdrawals", h.Withdraw.CreateWithdrawal)
			wallet.GET("/withdrawals/:id", h.Withdraw.GetWithdrawal)
		}

		// 运营接口，部署时应挂在内网
		admin := api.Group("/admin", AuthMiddleware(h.Auth))
		{
			admin.POST("/deposits/freeze_orphaned", h.Admin.FreezeOrphaned)
			admin.POST("/deposits/resolve_frozen", h.Admin.ResolveFrozen)
		}
	}

	return r
}
