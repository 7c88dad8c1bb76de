package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/chibuike-kt/bsc-custody-ledger/internal/deposit"
	"github.com/chibuike-kt/bsc-custody-ledger/internal/handler"
	"github.com/chibuike-kt/bsc-custody-ledger/internal/ledger"
	"github.com/chibuike-kt/bsc-custody-ledger/internal/model"
	"github.com/chibuike-kt/bsc-custody-ledger/internal/server"
	"github.com/chibuike-kt/bsc-custody-ledger/internal/user"
	"github.com/chibuike-kt/bsc-custody-ledger/internal/wallet"
	"github.com/chibuike-kt/bsc-custody-ledger/internal/withdrawal"
	"github.com/chibuike-kt/bsc-custody-ledger/pkg/config"
	"github.com/chibuike-kt/bsc-custody-ledger/pkg/database"
	"github.com/chibuike-kt/bsc-custody-ledger/pkg/logger"
)

func main() {
	config.Init()

	logger.Init(config.Global.App.Env)
	defer logger.Sync()

	dsn := database.BuildDSN(
		config.Global.DB.Host,
		config.Global.DB.User,
		config.Global.DB.Password,
		config.Global.DB.Name,
		config.Global.DB.Port,
	)
	db, err := database.ConnectPostgres(dsn)
	if err != nil {
		logger.Fatal("数据库连接失败", zap.Error(err))
	}

	if config.Global.App.Env == "development" {
		logger.Info("开发环境: 自动迁移 Schema...")
		if err := db.AutoMigrate(model.AllModels()...); err != nil {
			logger.Fatal("数据库自动迁移失败", zap.Error(err))
		}
	}

	ledgerSvc := ledger.NewService(db)
	userSvc := user.NewService(db, config.Global.Auth.JwtSecret, config.Global.Auth.TokenTTL)
	walletSvc := wallet.NewService(db)
	withdrawSvc := withdrawal.NewService(db, ledgerSvc,
		config.Global.Chain.Name, config.Global.Chain.Asset, config.Global.Chain.Currency)
	resolver := deposit.NewResolver(db, ledgerSvc,
		config.Global.Chain.Name, config.Global.Chain.Currency, config.Global.Ledger.TreasuryUserID)

	r := server.NewHTTPRouter(server.Handlers{
		User:     handler.NewUserHandler(userSvc),
		Wallet:   handler.NewWalletHandler(walletSvc, ledgerSvc),
		Withdraw: handler.NewWithdrawHandler(withdrawSvc),
		Admin:    handler.NewAdminHandler(resolver),
		Auth:     userSvc,
	})

	srv := &http.Server{
		Addr:    ":" + config.Global.App.HttpPort,
		Handler: r,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("HTTP Server 启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP Server 异常退出", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("收到退出信号，正在关闭...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP Server 关闭失败", zap.Error(err))
	}

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	logger.Info("系统已退出")
}
