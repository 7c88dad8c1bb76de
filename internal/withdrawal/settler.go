package withdrawal

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/chibuike-kt/bsc-custody-ledger/internal/event"
	"github.com/chibuike-kt/bsc-custody-ledger/internal/ledger"
	"github.com/chibuike-kt/bsc-custody-ledger/internal/model"
	"github.com/chibuike-kt/bsc-custody-ledger/pkg/errno"
	"github.com/chibuike-kt/bsc-custody-ledger/pkg/evm"
	"github.com/chibuike-kt/bsc-custody-ledger/pkg/logger"
	"github.com/chibuike-kt/bsc-custody-ledger/pkg/monitor"
	"github.com/chibuike-kt/bsc-custody-ledger/pkg/txrunner"
)

const settleBatchLimit = 30

// ReceiptRPC 确认/结算阶段需要的链节点能力
type ReceiptRPC interface {
	TransactionReceipt(ctx context.Context, txHash string) (*evm.Receipt, error)
}

// Settler 跟踪已广播提现单的回执并结算。
// 回执缺失 → 继续等；链上 revert → 解冻并标记失败；成功 → 记账结算。
type Settler struct {
	db     *gorm.DB
	rpc    ReceiptRPC
	ledger *ledger.Service

	chain          string
	treasuryUserID string
}

func NewSettler(db *gorm.DB, rpc ReceiptRPC, ledgerSvc *ledger.Service, chain, treasuryUserID string) *Settler {
	return &Settler{
		db:             db,
		rpc:            rpc,
		ledger:         ledgerSvc,
		chain:          chain,
		treasuryUserID: treasuryUserID,
	}
}

type SettleResult struct {
	Checked int
	Settled int
	Failed  int
}

func (s *Settler) Run(ctx context.Context) (SettleResult, error) {
	var res SettleResult

	var rows []model.Withdrawal
	err := s.db.WithContext(ctx).
		Where("chain = ? AND status IN ?", s.chain,
			[]string{model.WithdrawalStatusBroadcasted, model.WithdrawalStatusConfirming}).
		Order("updated_at ASC").
		Limit(settleBatchLimit).
		Find(&rows).Error
	if err != nil {
		return res, err
	}
	res.Checked = len(rows)

	for _, w := range rows {
		if w.TxHash == "" {
			continue
		}

		receipt, err := s.rpc.TransactionReceipt(ctx, w.TxHash)
		if err != nil {
			logger.Warn("结算: 回执查询失败", zap.String("withdrawal", w.ID), zap.Error(err))
			continue
		}

		if receipt == nil {
			// 还没上链，进入/保持 confirming
			if err := s.db.WithContext(ctx).Model(&model.Withdrawal{}).
				Where("id = ? AND status = ?", w.ID, model.WithdrawalStatusBroadcasted).
				Update("status", model.WithdrawalStatusConfirming).Error; err != nil {
				return res, err
			}
			continue
		}

		if receipt.Status == 1 {
			if err := s.Settle(ctx, w.ID); err != nil {
				if errors.Is(err, errno.ErrUserBalanceInconsistent) {
					// 完整性破坏: 冻结留在原地，报警等人查
					logger.Error("结算: 用户余额不守恒", zap.String("withdrawal", w.ID))
					continue
				}
				return res, err
			}
			res.Settled++
			monitor.Business.WithdrawalSettledTotal.WithLabelValues(s.chain).Inc()
			continue
		}

		// 链上 revert
		if err := s.failOnChain(ctx, w.ID); err != nil {
			return res, err
		}
		res.Failed++
		monitor.Business.WithdrawalFailedTotal.WithLabelValues(s.chain).Inc()
	}

	logger.Info("结算批次完成",
		zap.Int("checked", res.Checked), zap.Int("settled", res.Settled), zap.Int("failed", res.Failed))
	return res, nil
}

// failOnChain 链上执行失败: 解冻资金 + 标记 failed，行锁保证只做一次
func (s *Settler) failOnChain(ctx context.Context, withdrawalID string) error {
	return txrunner.Run(s.db.WithContext(ctx), func(tx *gorm.DB) error {
		var w model.Withdrawal
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", withdrawalID).
			First(&w).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		if w.Status == model.WithdrawalStatusFailed || w.Status == model.WithdrawalStatusSettled {
			return nil
		}

		acct, err := s.ledger.GetOrCreateAccount(tx, w.UserID, model.AccountTypeSpot, w.Currency)
		if err != nil {
			return err
		}
		if err := s.ledger.ReleaseHold(tx, acct.ID, w.HoldReference); err != nil {
			return err
		}

		if err := tx.Model(&model.Withdrawal{}).Where("id = ?", w.ID).
			Updates(map[string]interface{}{
				"status":     model.WithdrawalStatusFailed,
				"error_code": "tx_failed",
			}).Error; err != nil {
			return err
		}

		return model.CreateOutboxMessage(tx, event.TopicWithdrawalFailed, w.ID, event.WithdrawalFailedEvent{
			WithdrawalID: w.ID,
			UserID:       w.UserID,
			ErrorCode:    "tx_failed",
		})
	})
}

// Settle 链上成功后的最终记账: 借记用户、贷记金库、解冻、标记 settled，一个事务完成。
// 结算凭证 reference 幂等，重放只补解冻和状态。
func (s *Settler) Settle(ctx context.Context, withdrawalID string) error {
	return txrunner.Run(s.db.WithContext(ctx), func(tx *gorm.DB) error {
		var w model.Withdrawal
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", withdrawalID).
			First(&w).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		if w.Status == model.WithdrawalStatusSettled {
			return nil
		}
		if w.Status != model.WithdrawalStatusBroadcasted && w.Status != model.WithdrawalStatusConfirming {
			return nil
		}

		userAcct, err := s.ledger.GetOrCreateAccount(tx, w.UserID, model.AccountTypeSpot, w.Currency)
		if err != nil {
			return err
		}

		journalRef := HoldRef(w.ID)

		// 凭证已存在说明上一次结算记账成功但后续步骤没走完，只补尾巴
		var existing model.Journal
		err = tx.Where("reference = ?", journalRef).First(&existing).Error
		if err == nil {
			if err := s.ledger.ReleaseHold(tx, userAcct.ID, w.HoldReference); err != nil {
				return err
			}
			return tx.Model(&model.Withdrawal{}).Where("id = ?", w.ID).
				Update("status", model.WithdrawalStatusSettled).Error
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		treasuryAcct, err := s.ledger.GetOrCreateAccount(tx, s.treasuryUserID, model.AccountTypeTreasury, w.Currency)
		if err != nil {
			return err
		}

		if err := s.postSettlement(tx, &w, journalRef, userAcct.ID, treasuryAcct.ID); err != nil {
			return err
		}

		if err := s.ledger.ReleaseHold(tx, userAcct.ID, w.HoldReference); err != nil {
			return err
		}
		if err := tx.Model(&model.Withdrawal{}).Where("id = ?", w.ID).
			Update("status", model.WithdrawalStatusSettled).Error; err != nil {
			return err
		}

		return model.CreateOutboxMessage(tx, event.TopicWithdrawalSettled, w.ID, event.WithdrawalSettledEvent{
			WithdrawalID: w.ID,
			UserID:       w.UserID,
			Chain:        w.Chain,
			Currency:     w.Currency,
			AmountMinor:  w.AmountMinor.String(),
			TxHash:       w.TxHash,
		})
	})
}

// postSettlement 结算分录: 锁两个账户 (定序)，借用户贷金库，同步余额缓存
func (s *Settler) postSettlement(tx *gorm.DB, w *model.Withdrawal, journalRef, userAccountID, treasuryAccountID string) error {
	accounts, err := s.ledger.LockPair(tx, userAccountID, treasuryAccountID)
	if err != nil {
		return err
	}
	userAcct := accounts[userAccountID]
	treasuryAcct := accounts[treasuryAccountID]

	// 冻结被尊重的前提下不可能走到这里，走到了就是坏账，升级处理
	if userAcct.BalanceMinor.LessThan(w.AmountMinor) {
		return errno.ErrUserBalanceInconsistent
	}

	journal := model.Journal{
		ID:        uuid.NewString(),
		Type:      ledger.JournalTypeWithdrawal,
		Reference: journalRef,
		Status:    "posted",
	}
	if err := tx.Create(&journal).Error; err != nil {
		return err
	}

	postings := []model.Posting{
		{
			ID:          uuid.NewString(),
			JournalID:   journal.ID,
			AccountID:   userAcct.ID,
			Direction:   model.DirectionDebit,
			AmountMinor: w.AmountMinor,
			Currency:    w.Currency,
		},
		{
			ID:          uuid.NewString(),
			JournalID:   journal.ID,
			AccountID:   treasuryAcct.ID,
			Direction:   model.DirectionCredit,
			AmountMinor: w.AmountMinor,
			Currency:    w.Currency,
		},
	}
	if err := tx.Create(&postings).Error; err != nil {
		return err
	}

	if err := tx.Model(&model.Account{}).Where("id = ?", userAcct.ID).
		Update("balance_minor", userAcct.BalanceMinor.Sub(w.AmountMinor)).Error; err != nil {
		return err
	}
	return tx.Model(&model.Account{}).Where("id = ?", treasuryAcct.ID).
		Update("balance_minor", treasuryAcct.BalanceMinor.Add(w.AmountMinor)).Error
}
