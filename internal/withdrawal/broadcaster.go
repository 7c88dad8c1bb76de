package withdrawal

import (
	"context"
	"errors"
	"math/big"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/chibuike-kt/bsc-custody-ledger/internal/model"
	"github.com/chibuike-kt/bsc-custody-ledger/pkg/evm"
	"github.com/chibuike-kt/bsc-custody-ledger/pkg/logger"
	"github.com/chibuike-kt/bsc-custody-ledger/pkg/monitor"
	"github.com/chibuike-kt/bsc-custody-ledger/pkg/txrunner"
)

const (
	broadcastBatchLimit = 20
	errorCodeMaxLen     = 120
)

// BroadcastRPC 广播阶段需要的链节点能力
type BroadcastRPC interface {
	GasPrice(ctx context.Context) (*big.Int, error)
	SendRawTransaction(ctx context.Context, rawTx string) (string, error)
}

// HotWallet 出金热钱包。生产上私钥应在独立签名组件里，这里按配置注入
type HotWallet struct {
	Address    string
	PrivateKey string
}

// Broadcaster 把 created/retry_broadcast 的提现单签名并广播上链。
// 行锁内复查状态和已有 tx_hash，重试不会二次广播。
type Broadcaster struct {
	db     *gorm.DB
	rpc    BroadcastRPC
	nonces *NonceAllocator

	chain    string
	chainID  int64
	token    string
	gasLimit uint64
	wallet   HotWallet
}

func NewBroadcaster(db *gorm.DB, rpc BroadcastRPC, nonces *NonceAllocator, chain string, chainID int64, token string, gasLimit uint64, wallet HotWallet) *Broadcaster {
	return &Broadcaster{
		db:       db,
		rpc:      rpc,
		nonces:   nonces,
		chain:    chain,
		chainID:  chainID,
		token:    strings.ToLower(token),
		gasLimit: gasLimit,
		wallet:   wallet,
	}
}

type BroadcastResult struct {
	Checked   int
	Broadcast int
	Retried   int
}

func (b *Broadcaster) Run(ctx context.Context) (BroadcastResult, error) {
	var res BroadcastResult

	var rows []model.Withdrawal
	err := b.db.WithContext(ctx).
		Where("chain = ? AND status IN ?", b.chain,
			[]string{model.WithdrawalStatusCreated, model.WithdrawalStatusRetryBroadcast}).
		Order("created_at ASC").
		Limit(broadcastBatchLimit).
		Find(&rows).Error
	if err != nil {
		return res, err
	}
	res.Checked = len(rows)

	for _, w := range rows {
		txHash, err := b.broadcastOne(ctx, w.ID)
		if err != nil {
			// 单笔失败不影响批次里的其他提现单:
			// 标记 retry_broadcast 留给下一轮，冻结保持不动
			res.Retried++
			b.markRetry(ctx, w.ID, err)
			continue
		}
		if txHash != "" {
			res.Broadcast++
		}
	}

	if res.Broadcast > 0 {
		monitor.Business.WithdrawalBroadcastTotal.WithLabelValues(b.chain).Add(float64(res.Broadcast))
	}
	logger.Info("广播批次完成",
		zap.Int("checked", res.Checked), zap.Int("broadcast", res.Broadcast), zap.Int("retried", res.Retried))
	return res, nil
}

func (b *Broadcaster) broadcastOne(ctx context.Context, withdrawalID string) (string, error) {
	var txHash string

	err := txrunner.Run(b.db.WithContext(ctx), func(tx *gorm.DB) error {
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

		if w.Status != model.WithdrawalStatusCreated && w.Status != model.WithdrawalStatusRetryBroadcast {
			return nil
		}
		// 已有哈希说明上一次广播实际成功了，原样返回
		if w.TxHash != "" {
			txHash = w.TxHash
			return nil
		}

		gasPrice, err := b.rpc.GasPrice(ctx)
		if err != nil {
			return err
		}

		nonce, err := b.nonces.Next(ctx, tx, b.chain, b.wallet.Address)
		if err != nil {
			return err
		}

		data, err := evm.TransferCalldata(w.ToAddress, w.AmountMinor.BigInt())
		if err != nil {
			return err
		}

		rawTx, _, err := evm.SignContractCall(b.wallet.PrivateKey, b.chainID, nonce, b.token, gasPrice, b.gasLimit, data)
		if err != nil {
			return err
		}

		if err := tx.Model(&model.Withdrawal{}).Where("id = ?", w.ID).
			Updates(map[string]interface{}{
				"status": model.WithdrawalStatusBroadcasting,
				"nonce":  nonce,
			}).Error; err != nil {
			return err
		}

		hash, err := b.rpc.SendRawTransaction(ctx, rawTx)
		if err != nil {
			return err
		}
		hash = strings.ToLower(hash)

		if err := tx.Model(&model.Withdrawal{}).Where("id = ?", w.ID).
			Updates(map[string]interface{}{
				"status":     model.WithdrawalStatusBroadcasted,
				"tx_hash":    hash,
				"error_code": "",
			}).Error; err != nil {
			return err
		}

		txHash = hash
		return nil
	})
	if err != nil {
		return "", err
	}
	return txHash, nil
}

func (b *Broadcaster) markRetry(ctx context.Context, withdrawalID string, cause error) {
	if err := b.db.WithContext(ctx).Model(&model.Withdrawal{}).
		Where("id = ?", withdrawalID).
		Updates(map[string]interface{}{
			"status":     model.WithdrawalStatusRetryBroadcast,
			"error_code": TruncateErrorCode(cause),
		}).Error; err != nil {
		logger.Error("广播: 标记重试失败", zap.String("withdrawal", withdrawalID), zap.Error(err))
	}
	logger.Warn("广播失败，留待重试", zap.String("withdrawal", withdrawalID), zap.Error(cause))
}

// TruncateErrorCode 把错误压成可入库的短诊断码
func TruncateErrorCode(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if len(msg) > errorCodeMaxLen {
		msg = msg[:errorCodeMaxLen]
	}
	return msg
}
