package wallet

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/chibuike-kt/bsc-custody-ledger/internal/model"
	"github.com/chibuike-kt/bsc-custody-ledger/pkg/txrunner"
)

// Service 管理用户充值地址的分配
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// 派生索引计数器在 chain_cursors 里的 key
const derivationCursorKey = "deposit_derivation_index"

// GetOrCreateDepositAddress 返回用户在某条链上的充值地址，首次调用时分配。
// 派生索引在每链计数器行的排他锁内分配，(chain, derivation_index) 唯一索引兜底。
func (s *Service) GetOrCreateDepositAddress(ctx context.Context, userID, chain string) (*model.WalletAddress, error) {
	var addr model.WalletAddress
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND chain = ?", userID, chain).
		First(&addr).Error
	if err == nil {
		return &addr, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	err = txrunner.Run(s.db.WithContext(ctx), func(tx *gorm.DB) error {
		next, err := s.nextDerivationIndex(tx, chain)
		if err != nil {
			return err
		}
		fresh := model.WalletAddress{
			ID:              uuid.NewString(),
			UserID:          userID,
			Chain:           chain,
			Address:         DevAddress(chain, next),
			DerivationIndex: next,
			Active:          true,
		}
		// 同一用户并发分配撞 (user_id, chain) 时保留先写入的那条；
		// 派生索引冲突不在豁免范围内，直接报错
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "chain"}},
			DoNothing: true,
		}).Create(&fresh).Error
	})
	if err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND chain = ?", userID, chain).
		First(&addr).Error; err != nil {
		return nil, err
	}
	return &addr, nil
}

// nextDerivationIndex 在计数器行的排他锁内分配下一个派生索引。
// 计数器行不存在时按已有最大索引接着排，空表从 0 开始。
func (s *Service) nextDerivationIndex(tx *gorm.DB, chain string) (int64, error) {
	var cur model.ChainCursor
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("chain = ? AND cursor_key = ?", chain, derivationCursorKey).
		First(&cur).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		var seed int64
		if err := tx.Model(&model.WalletAddress{}).
			Where("chain = ?", chain).
			Select("COALESCE(MAX(derivation_index)+1, 0)").
			Scan(&seed).Error; err != nil {
			return 0, err
		}
		// 并发初始化只有一个能建行，落败方在重读时排到胜者的锁后面
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&model.ChainCursor{
			ID:          uuid.NewString(),
			Chain:       chain,
			CursorKey:   derivationCursorKey,
			CursorValue: uint64(seed),
		}).Error; err != nil {
			return 0, err
		}
		err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("chain = ? AND cursor_key = ?", chain, derivationCursorKey).
			First(&cur).Error
	}
	if err != nil {
		return 0, err
	}

	next := int64(cur.CursorValue)
	if err := tx.Model(&model.ChainCursor{}).
		Where("id = ?", cur.ID).
		Update("cursor_value", cur.CursorValue+1).Error; err != nil {
		return 0, err
	}
	return next, nil
}

// DevAddress 从派生索引确定性生成一个开发用地址。
// 生产部署应换成 HD 钱包派生，这里只保证格式合法且全局唯一。
func DevAddress(chain string, index int64) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("dev-address:%s:%d", chain, index)))
	return "0x" + hex.EncodeToString(sum[:])[:40]
}
