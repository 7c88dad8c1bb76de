package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/chibuike-kt/bsc-custody-ledger/internal/withdrawal"
	"github.com/chibuike-kt/bsc-custody-ledger/pkg/config"
)

var broadcastCmd = &cobra.Command{
	Use:   "broadcast",
	Short: "签名并广播待发送的提现交易",
	Run: func(cmd *cobra.Command, args []string) {
		db, rpc, _ := bootstrap()
		chain := config.Global.Chain

		b := withdrawal.NewBroadcaster(db, rpc, withdrawal.NewNonceAllocator(rpc),
			chain.Name, chain.ChainID, chain.TokenContract, chain.TransferGasLimit,
			withdrawal.HotWallet{Address: chain.HotWalletAddress, PrivateKey: chain.HotWalletKey})
		res, err := b.Run(context.Background())
		if err != nil {
			fmt.Printf("广播失败: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("广播完成: 检查 %d 笔, 上链 %d 笔, 待重试 %d 笔\n", res.Checked, res.Broadcast, res.Retried)
	},
}

var confirmWithdrawalsCmd = &cobra.Command{
	Use:   "confirm-withdrawals",
	Short: "核对已广播提现的回执并结算",
	Run: func(cmd *cobra.Command, args []string) {
		db, rpc, ledgerSvc := bootstrap()
		chain := config.Global.Chain

		s := withdrawal.NewSettler(db, rpc, ledgerSvc, chain.Name, config.Global.Ledger.TreasuryUserID)
		res, err := s.Run(context.Background())
		if err != nil {
			fmt.Printf("结算失败: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("结算完成: 检查 %d 笔, 结算 %d 笔, 失败 %d 笔\n", res.Checked, res.Settled, res.Failed)
	},
}

func init() {
	rootCmd.AddCommand(broadcastCmd, confirmWithdrawalsCmd)
}
