package deposit

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/chibuike-kt/bsc-custody-ledger/internal/model"
	"github.com/chibuike-kt/bsc-custody-ledger/pkg/logger"
	"github.com/chibuike-kt/bsc-custody-ledger/pkg/monitor"
)

const reorgBatchLimit = 300

// 孤块原因
const (
	OrphanReasonMissingReceipt    = "missing_receipt"
	OrphanReasonBlockHashMismatch = "block_hash_mismatch"
)

// ReorgChecker 在近期区块窗口内核对回执，发现重组就把充值打回。
// 已入账的充值绝不在这里自动冲正，只转入 orphaned_review 等人工处理。
type ReorgChecker struct {
	db     *gorm.DB
	rpc    ChainRPC
	chain  string
	window uint64
}

func NewReorgChecker(db *gorm.DB, rpc ChainRPC, chain string, window uint64) *ReorgChecker {
	return &ReorgChecker{db: db, rpc: rpc, chain: chain, window: window}
}

// OrphanTarget 重组后的目标状态。
// 基于不确定的重组信号自动借记用户是不安全的，credited 行只进入人工复核态。
func OrphanTarget(status string) string {
	if status == model.DepositStatusCredited {
		return model.DepositStatusOrphanedReview
	}
	return model.DepositStatusOrphaned
}

type ReorgResult struct {
	Head     uint64
	Checked  int
	Orphaned int
}

func (r *ReorgChecker) Run(ctx context.Context) (ReorgResult, error) {
	var res ReorgResult

	head, err := r.rpc.BlockNumber(ctx)
	if err != nil {
		return res, err
	}
	res.Head = head

	var minBlock uint64
	if head > r.window {
		minBlock = head - r.window
	}

	var rows []model.ChainDeposit
	err = r.db.WithContext(ctx).
		Select("id", "tx_hash", "block_hash", "status").
		Where("chain = ? AND block_number >= ? AND status IN ?", r.chain, minBlock,
			[]string{
				model.DepositStatusDetected,
				model.DepositStatusConfirming,
				model.DepositStatusConfirmed,
				model.DepositStatusCredited,
			}).
		Order("block_number DESC").
		Limit(reorgBatchLimit).
		Find(&rows).Error
	if err != nil {
		return res, err
	}
	res.Checked = len(rows)

	for _, row := range rows {
		receipt, err := r.rpc.TransactionReceipt(ctx, row.TxHash)
		if err != nil {
			// RPC 故障只影响这一行，下一轮再查
			logger.Warn("重组检查: 回执查询失败", zap.String("tx", row.TxHash), zap.Error(err))
			continue
		}

		if receipt == nil {
			if err := r.markOrphaned(ctx, row, OrphanReasonMissingReceipt); err != nil {
				return res, err
			}
			res.Orphaned++
			continue
		}

		receiptBlockHash := strings.ToLower(receipt.BlockHash.Hex())
		if row.BlockHash != "" && receiptBlockHash != "" && row.BlockHash != receiptBlockHash {
			if err := r.markOrphaned(ctx, row, OrphanReasonBlockHashMismatch); err != nil {
				return res, err
			}
			res.Orphaned++
		}
	}

	logger.Info("重组检查完成",
		zap.Uint64("head", head), zap.Int("checked", res.Checked), zap.Int("orphaned", res.Orphaned))
	return res, nil
}

func (r *ReorgChecker) markOrphaned(ctx context.Context, row model.ChainDeposit, reason string) error {
	now := time.Now()
	upd := r.db.WithContext(ctx).Model(&model.ChainDeposit{}).
		Where("id = ? AND status = ?", row.ID, row.Status).
		Updates(map[string]interface{}{
			"status":        OrphanTarget(row.Status),
			"orphan_reason": reason,
			"orphaned_at":   &now,
		})
	if upd.Error != nil {
		return upd.Error
	}
	if upd.RowsAffected > 0 {
		monitor.Business.DepositOrphanedTotal.WithLabelValues(r.chain).Inc()
	}
	return nil
}
