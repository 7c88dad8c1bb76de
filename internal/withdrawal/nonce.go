package withdrawal

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/chibuike-kt/bsc-custody-ledger/internal/model"
	"github.com/chibuike-kt/bsc-custody-ledger/pkg/evm"
)

// NonceSource 种子来源: 链上 pending 交易计数
type NonceSource interface {
	PendingNonce(ctx context.Context, address string) (uint64, error)
}

// NonceAllocator 维护每个 (chain, wallet) 的单调递增 nonce。
// 分配在计数器行的排他锁内完成，并发调用方拿到的值不会重复。
type NonceAllocator struct {
	rpc NonceSource
}

func NewNonceAllocator(rpc NonceSource) *NonceAllocator {
	return &NonceAllocator{rpc: rpc}
}

// Next 在调用方事务内分配下一个 nonce。
// 首次使用某个钱包时从链上 pending 计数做种子。
func (a *NonceAllocator) Next(ctx context.Context, tx *gorm.DB, chain, walletAddress string) (uint64, error) {
	wallet, err := evm.NormalizeAddress(walletAddress)
	if err != nil {
		return 0, err
	}

	var row model.ChainNonce
	err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("chain = ? AND wallet_address = ?", chain, wallet).
		First(&row).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		seed, err := a.rpc.PendingNonce(ctx, wallet)
		if err != nil {
			return 0, err
		}
		row = model.ChainNonce{
			ID:            uuid.NewString(),
			Chain:         chain,
			WalletAddress: wallet,
			NextNonce:     seed + 1,
		}
		if err := tx.Create(&row).Error; err != nil {
			return 0, err
		}
		return seed, nil
	}
	if err != nil {
		return 0, err
	}

	nonce := row.NextNonce
	if err := tx.Model(&model.ChainNonce{}).
		Where("id = ?", row.ID).
		Update("next_nonce", nonce+1).Error; err != nil {
		return 0, err
	}
	return nonce, nil
}
