package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/chibuike-kt/bsc-custody-ledger/internal/deposit"
	"github.com/chibuike-kt/bsc-custody-ledger/pkg/config"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "扫描链上 Transfer 日志，登记新充值",
	Run: func(cmd *cobra.Command, args []string) {
		db, rpc, _ := bootstrap()
		chain := config.Global.Chain

		s := deposit.NewScanner(db, rpc, chain.Name, chain.TokenContract, chain.Asset, chain.ScanChunk, chain.ScanBackfill)
		res, err := s.Run(context.Background())
		if err != nil {
			fmt.Printf("扫描失败: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("扫描完成: blocks [%d, %d], 日志 %d 条, 新充值 %d 笔\n", res.From, res.To, res.Logs, res.Inserted)
	},
}

var confirmCmd = &cobra.Command{
	Use:   "confirm",
	Short: "刷新待确认充值的确认数",
	Run: func(cmd *cobra.Command, args []string) {
		db, rpc, _ := bootstrap()
		chain := config.Global.Chain

		c := deposit.NewConfirmer(db, rpc, chain.Name, chain.Confirmations)
		res, err := c.Run(context.Background())
		if err != nil {
			fmt.Printf("确认失败: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("确认完成: head %d, 检查 %d 笔, 刷新 %d 笔\n", res.Head, res.Checked, res.Updated)
	},
}

var reorgCheckCmd = &cobra.Command{
	Use:   "reorg-check",
	Short: "核对重组窗口内充值的回执和块哈希",
	Run: func(cmd *cobra.Command, args []string) {
		db, rpc, _ := bootstrap()
		chain := config.Global.Chain

		r := deposit.NewReorgChecker(db, rpc, chain.Name, chain.ReorgWindow)
		res, err := r.Run(context.Background())
		if err != nil {
			fmt.Printf("重组检查失败: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("重组检查完成: 检查 %d 笔, 孤块 %d 笔\n", res.Checked, res.Orphaned)
	},
}

var creditCmd = &cobra.Command{
	Use:   "credit",
	Short: "把已确认的充值记入用户账户",
	Run: func(cmd *cobra.Command, args []string) {
		db, _, ledgerSvc := bootstrap()
		chain := config.Global.Chain

		c := deposit.NewCreditor(db, ledgerSvc, chain.Name, chain.Currency)
		res, err := c.Run(context.Background())
		if err != nil {
			fmt.Printf("入账失败: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("入账完成: 检查 %d 笔, 入账 %d 笔\n", res.Checked, res.Credited)
	},
}

var freezeOrphanedCmd = &cobra.Command{
	Use:   "freeze-orphaned",
	Short: "冻结已入账但被重组孤块的充值",
	Run: func(cmd *cobra.Command, args []string) {
		db, _, ledgerSvc := bootstrap()
		chain := config.Global.Chain

		r := deposit.NewResolver(db, ledgerSvc, chain.Name, chain.Currency, config.Global.Ledger.TreasuryUserID)
		res, err := r.FreezeOrphaned(context.Background())
		if err != nil {
			fmt.Printf("冻结失败: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("冻结完成: 检查 %d 笔, 冻结 %d 笔\n", res.Checked, res.Processed)
	},
}

var resolveAction string
var resolveLimit int

var resolveFrozenCmd = &cobra.Command{
	Use:   "resolve-frozen",
	Short: "处置冻结中的充值 (release 或 clawback)",
	Run: func(cmd *cobra.Command, args []string) {
		db, _, ledgerSvc := bootstrap()
		chain := config.Global.Chain

		r := deposit.NewResolver(db, ledgerSvc, chain.Name, chain.Currency, config.Global.Ledger.TreasuryUserID)
		res, err := r.ResolveFrozen(context.Background(), resolveAction, resolveLimit)
		if err != nil {
			fmt.Printf("处置失败: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("处置完成: 检查 %d 笔, 处理 %d 笔\n", res.Checked, res.Processed)
	},
}

func init() {
	resolveFrozenCmd.Flags().StringVar(&resolveAction, "action", "", "release 或 clawback")
	resolveFrozenCmd.Flags().IntVar(&resolveLimit, "limit", 0, "单次最多处理的笔数")
	_ = resolveFrozenCmd.MarkFlagRequired("action")

	rootCmd.AddCommand(scanCmd, confirmCmd, reorgCheckCmd, creditCmd, freezeOrphanedCmd, resolveFrozenCmd)
}
