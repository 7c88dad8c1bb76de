package cmd

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/spf13/cobra"

	"github.com/chibuike-kt/bsc-custody-ledger/internal/ledger"
	"github.com/chibuike-kt/bsc-custody-ledger/pkg/config"
	"github.com/chibuike-kt/bsc-custody-ledger/pkg/database"
	"github.com/chibuike-kt/bsc-custody-ledger/pkg/evm"
	"github.com/chibuike-kt/bsc-custody-ledger/pkg/logger"
	"github.com/chibuike-kt/bsc-custody-ledger/pkg/monitor"
)

// rootCmd 代表基础命令，没有子命令时直接调用
var rootCmd = &cobra.Command{
	Use:   "custody-cli",
	Short: "托管对账流水线命令行工具",
	Long: `手工驱动充值/提现对账流水线的各个阶段。
worker 停摆或排查线上问题时，可以用它单步执行扫描、确认、入账、广播等任务。`,
}

// Execute 将所有子命令添加到根命令并设置标志
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// bootstrap 初始化配置、日志和数据库，所有子命令共用
func bootstrap() (*gorm.DB, *evm.Client, *ledger.Service) {
	config.Init()
	logger.Init(config.Global.App.Env)
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

	rpc := evm.NewClient(config.Global.Chain.RpcUrl)
	return db, rpc, ledger.NewService(db)
}
