package deposit

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/chibuike-kt/bsc-custody-ledger/internal/model"
	"github.com/chibuike-kt/bsc-custody-ledger/pkg/logger"
)

const confirmBatchLimit = 500

// Confirmer 跟踪确认数并推进 detected/confirming → confirmed
type Confirmer struct {
	db       *gorm.DB
	rpc      ChainRPC
	chain    string
	required uint64
}

func NewConfirmer(db *gorm.DB, rpc ChainRPC, chain string, required uint64) *Confirmer {
	return &Confirmer{db: db, rpc: rpc, chain: chain, required: required}
}

// NextConfirmState 根据链头计算确认数和目标状态
func NextConfirmState(head, blockNumber, required uint64) (uint64, string) {
	var confirmations uint64
	if head >= blockNumber {
		confirmations = head - blockNumber + 1
	}
	if confirmations >= required {
		return confirmations, model.DepositStatusConfirmed
	}
	return confirmations, model.DepositStatusConfirming
}

type ConfirmResult struct {
	Head    uint64
	Checked int
	Updated int
}

func (c *Confirmer) Run(ctx context.Context) (ConfirmResult, error) {
	var res ConfirmResult

	head, err := c.rpc.BlockNumber(ctx)
	if err != nil {
		return res, err
	}
	res.Head = head

	var rows []model.ChainDeposit
	err = c.db.WithContext(ctx).
		Select("id", "block_number", "status").
		Where("chain = ? AND status IN ?", c.chain,
			[]string{model.DepositStatusDetected, model.DepositStatusConfirming}).
		Order("block_number ASC").
		Limit(confirmBatchLimit).
		Find(&rows).Error
	if err != nil {
		return res, err
	}
	res.Checked = len(rows)

	for _, row := range rows {
		confirmations, next := NextConfirmState(head, row.BlockNumber, c.required)

		// 状态前置条件做守卫，已经过了这个阶段的行不动
		updates := map[string]interface{}{
			"status":        next,
			"confirmations": confirmations,
		}
		if next == model.DepositStatusConfirmed {
			now := time.Now()
			updates["confirmed_at"] = gorm.Expr("COALESCE(confirmed_at, ?)", now)
		}

		upd := c.db.WithContext(ctx).Model(&model.ChainDeposit{}).
			Where("id = ? AND status IN ?", row.ID,
				[]string{model.DepositStatusDetected, model.DepositStatusConfirming}).
			Updates(updates)
		if upd.Error != nil {
			return res, upd.Error
		}
		res.Updated += int(upd.RowsAffected)
	}

	logger.Info("确认数跟踪完成",
		zap.Uint64("head", head), zap.Int("checked", res.Checked), zap.Int("updated", res.Updated))
	return res, nil
}
