package main

import (
	"context"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/chibuike-kt/bsc-custody-ledger/internal/deposit"
	"github.com/chibuike-kt/bsc-custody-ledger/internal/ledger"
	"github.com/chibuike-kt/bsc-custody-ledger/internal/outbox"
	"github.com/chibuike-kt/bsc-custody-ledger/internal/withdrawal"
	"github.com/chibuike-kt/bsc-custody-ledger/internal/worker"
	"github.com/chibuike-kt/bsc-custody-ledger/pkg/config"
	"github.com/chibuike-kt/bsc-custody-ledger/pkg/database"
	"github.com/chibuike-kt/bsc-custody-ledger/pkg/evm"
	"github.com/chibuike-kt/bsc-custody-ledger/pkg/logger"
	"github.com/chibuike-kt/bsc-custody-ledger/pkg/monitor"
)

func main() {
	config.Init()

	logger.Init(config.Global.App.Env)
	defer logger.Sync()

	monitor.InitBusinessMetrics()

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

	rdb, err := database.ConnectRedis(config.Global.Redis.Addr, config.Global.Redis.Password, config.Global.Redis.DB)
	if err != nil {
		logger.Fatal("Redis 连接失败", zap.Error(err))
	}

	chain := config.Global.Chain
	rpc := evm.NewClient(chain.RpcUrl)

	ledgerSvc := ledger.NewService(db)
	resolver := deposit.NewResolver(db, ledgerSvc, chain.Name, chain.Currency, config.Global.Ledger.TreasuryUserID)
	relay := outbox.NewRelay(db, config.Global.Kafka.Brokers)
	defer relay.Close()

	jobs := worker.Jobs{
		Scanner:    deposit.NewScanner(db, rpc, chain.Name, chain.TokenContract, chain.Asset, chain.ScanChunk, chain.ScanBackfill),
		Confirmer:  deposit.NewConfirmer(db, rpc, chain.Name, chain.Confirmations),
		ReorgCheck: deposit.NewReorgChecker(db, rpc, chain.Name, chain.ReorgWindow),
		Creditor:   deposit.NewCreditor(db, ledgerSvc, chain.Name, chain.Currency),
		Resolver:   resolver,
		Broadcaster: withdrawal.NewBroadcaster(db, rpc, withdrawal.NewNonceAllocator(rpc),
			chain.Name, chain.ChainID, chain.TokenContract, chain.TransferGasLimit,
			withdrawal.HotWallet{Address: chain.HotWalletAddress, PrivateKey: chain.HotWalletKey}),
		Settler: withdrawal.NewSettler(db, rpc, ledgerSvc, chain.Name, config.Global.Ledger.TreasuryUserID),
		Relay:   relay,
	}

	cronSvc := worker.NewCronService(rdb, jobs)
	cronSvc.Start()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logger.Info("收到退出信号，正在关闭...")
	cronSvc.Stop()

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	rdb.Close()
	logger.Info("Worker 已退出")
}
