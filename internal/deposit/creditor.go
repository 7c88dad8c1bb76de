package deposit

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/chibuike-kt/bsc-custody-ledger/internal/event"
	"github.com/chibuike-kt/bsc-custody-ledger/internal/ledger"
	"github.com/chibuike-kt/bsc-custody-ledger/internal/model"
	"github.com/chibuike-kt/bsc-custody-ledger/pkg/logger"
	"github.com/chibuike-kt/bsc-custody-ledger/pkg/monitor"
	"github.com/chibuike-kt/bsc-custody-ledger/pkg/txrunner"
)

const creditBatchLimit = 200

// Creditor 把 confirmed 的充值记入用户账户。
// 入账靠凭证 reference 幂等，重复运行安全。
type Creditor struct {
	db       *gorm.DB
	ledger   *ledger.Service
	chain    string
	currency string
}

func NewCreditor(db *gorm.DB, ledgerSvc *ledger.Service, chain, currency string) *Creditor {
	return &Creditor{db: db, ledger: ledgerSvc, chain: chain, currency: currency}
}

type CreditResult struct {
	Checked  int
	Credited int
	Unmapped int
}

func (c *Creditor) Run(ctx context.Context) (CreditResult, error) {
	var res CreditResult

	var rows []model.ChainDeposit
	err := c.db.WithContext(ctx).
		Where("chain = ? AND status = ?", c.chain, model.DepositStatusConfirmed).
		Order("block_number ASC").
		Limit(creditBatchLimit).
		Find(&rows).Error
	if err != nil {
		return res, err
	}
	res.Checked = len(rows)

	for _, dep := range rows {
		userID, err := c.resolveOwner(ctx, dep.ToAddress)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// 地址没有归属用户: 保持 confirmed 不入账，等运营跟进
				res.Unmapped++
				logger.Warn("入账: 充值地址未映射到用户",
					zap.String("deposit", dep.ID), zap.String("to", dep.ToAddress))
				continue
			}
			return res, err
		}

		err = txrunner.Run(c.db.WithContext(ctx), func(tx *gorm.DB) error {
			journalID, err := c.ledger.CreditDeposit(tx, userID, c.currency, dep.AmountRaw, dep.ExternalRef)
			if err != nil {
				return err
			}

			now := time.Now()
			upd := tx.Model(&model.ChainDeposit{}).
				Where("id = ? AND status = ?", dep.ID, model.DepositStatusConfirmed).
				Updates(map[string]interface{}{
					"status":      model.DepositStatusCredited,
					"journal_id":  journalID,
					"credited_at": gorm.Expr("COALESCE(credited_at, ?)", now),
				})
			if upd.Error != nil {
				return upd.Error
			}
			if upd.RowsAffected == 0 {
				return nil // 已被别的实例入账
			}

			if err := model.CreateOutboxMessage(tx, event.TopicDepositCredited, dep.ID, event.DepositCreditedEvent{
				DepositID:   dep.ID,
				UserID:      userID,
				Chain:       c.chain,
				Currency:    c.currency,
				AmountMinor: dep.AmountRaw.String(),
				TxHash:      dep.TxHash,
				JournalID:   journalID,
			}); err != nil {
				return err
			}

			res.Credited++
			return nil
		})
		if err != nil {
			return res, err
		}
	}

	if res.Credited > 0 {
		monitor.Business.DepositCreditedTotal.WithLabelValues(c.chain).Add(float64(res.Credited))
	}
	logger.Info("入账完成",
		zap.Int("checked", res.Checked), zap.Int("credited", res.Credited), zap.Int("unmapped", res.Unmapped))
	return res, nil
}

// resolveOwner 充值地址 → 用户
func (c *Creditor) resolveOwner(ctx context.Context, address string) (string, error) {
	var addr model.WalletAddress
	err := c.db.WithContext(ctx).
		Where("chain = ? AND address = ?", c.chain, address).
		First(&addr).Error
	if err != nil {
		return "", err
	}
	return addr.UserID, nil
}
