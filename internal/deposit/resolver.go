package deposit

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/chibuike-kt/bsc-custody-ledger/internal/ledger"
	"github.com/chibuike-kt/bsc-custody-ledger/internal/model"
	"github.com/chibuike-kt/bsc-custody-ledger/pkg/errno"
	"github.com/chibuike-kt/bsc-custody-ledger/pkg/logger"
	"github.com/chibuike-kt/bsc-custody-ledger/pkg/txrunner"
)

const resolveBatchLimit = 50

const holdReasonOrphanReview = "orphaned_deposit_review"

// 人工处置动作
const (
	ResolveActionRelease  = "release"
	ResolveActionClawback = "clawback"
)

var ErrInvalidResolveAction = errors.New("invalid resolve action, use release or clawback")

// Resolver 处理重组后进入复核流程的已入账充值:
// 先冻结等额资金 (freeze)，再按人工指令释放或回收 (resolve)。
type Resolver struct {
	db             *gorm.DB
	ledger         *ledger.Service
	chain          string
	currency       string
	treasuryUserID string
}

func NewResolver(db *gorm.DB, ledgerSvc *ledger.Service, chain, currency, treasuryUserID string) *Resolver {
	return &Resolver{
		db:             db,
		ledger:         ledgerSvc,
		chain:          chain,
		currency:       currency,
		treasuryUserID: treasuryUserID,
	}
}

type ResolveResult struct {
	Checked   int
	Processed int
}

// FreezeOrphaned 给 orphaned_review 的充值冻结等额资金 → frozen_review。
// 不做任何冲正，只是把争议资金中性化。
func (r *Resolver) FreezeOrphaned(ctx context.Context) (ResolveResult, error) {
	var res ResolveResult

	var rows []model.ChainDeposit
	err := r.db.WithContext(ctx).
		Where("chain = ? AND status = ?", r.chain, model.DepositStatusOrphanedReview).
		Order("block_number DESC").
		Limit(resolveBatchLimit).
		Find(&rows).Error
	if err != nil {
		return res, err
	}
	res.Checked = len(rows)

	for _, dep := range rows {
		userID, err := r.resolveOwner(ctx, dep.ToAddress)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return res, err
		}

		err = txrunner.Run(r.db.WithContext(ctx), func(tx *gorm.DB) error {
			acct, err := r.ledger.GetOrCreateAccount(tx, userID, model.AccountTypeSpot, r.currency)
			if err != nil {
				return err
			}
			if err := r.ledger.PlaceHold(tx, acct.ID, dep.ExternalRef, dep.AmountRaw, holdReasonOrphanReview); err != nil {
				return err
			}

			upd := tx.Model(&model.ChainDeposit{}).
				Where("id = ? AND status = ?", dep.ID, model.DepositStatusOrphanedReview).
				Update("status", model.DepositStatusFrozenReview)
			if upd.Error != nil {
				return upd.Error
			}
			res.Processed += int(upd.RowsAffected)
			return nil
		})
		if err != nil {
			return res, err
		}
	}

	logger.Info("冻结复核完成", zap.Int("checked", res.Checked), zap.Int("frozen", res.Processed))
	return res, nil
}

// ResolveFrozen 按人工指令处置 frozen_review 的充值。
// release: 解冻，回到 credited；clawback: 冲正后解冻，变为 clawed_back。
// 行锁 + 状态复查保证每笔只处置一次，已处置的静默跳过。
func (r *Resolver) ResolveFrozen(ctx context.Context, action string, limit int) (ResolveResult, error) {
	var res ResolveResult

	if action != ResolveActionRelease && action != ResolveActionClawback {
		return res, ErrInvalidResolveAction
	}
	if limit <= 0 || limit > resolveBatchLimit {
		limit = resolveBatchLimit
	}

	var rows []model.ChainDeposit
	err := r.db.WithContext(ctx).
		Where("chain = ? AND status = ?", r.chain, model.DepositStatusFrozenReview).
		Order("block_number DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return res, err
	}
	res.Checked = len(rows)

	for _, dep := range rows {
		userID, err := r.resolveOwner(ctx, dep.ToAddress)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return res, err
		}

		err = txrunner.Run(r.db.WithContext(ctx), func(tx *gorm.DB) error {
			// 锁充值行，复查状态，防止并发双重处置
			var cur model.ChainDeposit
			err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("id = ?", dep.ID).
				First(&cur).Error
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return nil
				}
				return err
			}
			if cur.Status != model.DepositStatusFrozenReview {
				return nil
			}

			userAcct, err := r.ledger.GetOrCreateAccount(tx, userID, model.AccountTypeSpot, r.currency)
			if err != nil {
				return err
			}

			if action == ResolveActionRelease {
				if err := r.ledger.ReleaseHold(tx, userAcct.ID, dep.ExternalRef); err != nil {
					return err
				}
				return tx.Model(&model.ChainDeposit{}).
					Where("id = ? AND status = ?", dep.ID, model.DepositStatusFrozenReview).
					Update("status", model.DepositStatusCredited).Error
			}

			treasuryAcct, err := r.ledger.GetOrCreateAccount(tx, r.treasuryUserID, model.AccountTypeTreasury, r.currency)
			if err != nil {
				return err
			}
			if _, err := r.ledger.ClawbackDeposit(tx, userAcct.ID, treasuryAcct.ID, r.currency, dep.AmountRaw, dep.ExternalRef); err != nil {
				return err
			}
			if err := r.ledger.ReleaseHold(tx, userAcct.ID, dep.ExternalRef); err != nil {
				return err
			}
			return tx.Model(&model.ChainDeposit{}).
				Where("id = ? AND status = ?", dep.ID, model.DepositStatusFrozenReview).
				Update("status", model.DepositStatusClawedBack).Error
		})
		if err != nil {
			// 余额不守恒属于需要人查的完整性问题，记日志后继续下一笔
			if errors.Is(err, errno.ErrInsufficientFundsForClawback) {
				logger.Error("处置失败: 用户余额不足以回收",
					zap.String("deposit", dep.ID), zap.String("user", userID))
				continue
			}
			return res, err
		}
		res.Processed++
	}

	logger.Info("人工处置完成",
		zap.String("action", action), zap.Int("checked", res.Checked), zap.Int("processed", res.Processed))
	return res, nil
}

func (r *Resolver) resolveOwner(ctx context.Context, address string) (string, error) {
	var addr model.WalletAddress
	err := r.db.WithContext(ctx).
		Where("chain = ? AND address = ?", r.chain, address).
		First(&addr).Error
	if err != nil {
		return "", err
	}
	return addr.UserID, nil
}
