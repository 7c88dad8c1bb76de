package withdrawal

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/chibuike-kt/bsc-custody-ledger/internal/ledger"
	"github.com/chibuike-kt/bsc-custody-ledger/internal/model"
	"github.com/chibuike-kt/bsc-custody-ledger/pkg/errno"
	"github.com/chibuike-kt/bsc-custody-ledger/pkg/evm"
	"github.com/chibuike-kt/bsc-custody-ledger/pkg/txrunner"
)

// Service 提现受理。
// 幂等合同: (user, idempotency key) 唯一；同 key 同请求返回原结果，
// 同 key 不同请求报 IdempotencyKeyReuseMismatch。
type Service struct {
	db     *gorm.DB
	ledger *ledger.Service

	chain    string
	asset    string
	currency string
}

func NewService(db *gorm.DB, ledgerSvc *ledger.Service, chain, asset, currency string) *Service {
	return &Service{
		db:       db,
		ledger:   ledgerSvc,
		chain:    chain,
		asset:    asset,
		currency: currency,
	}
}

// Receipt 受理结果，重放时原样返回
type Receipt struct {
	WithdrawalID   string  `json:"withdrawal_id"`
	Chain          string  `json:"chain"`
	Asset          string  `json:"asset"`
	Currency       string  `json:"currency"`
	ToAddress      string  `json:"to_address"`
	AmountMinor    string  `json:"amount_minor"`
	FeeMinor       string  `json:"fee_minor"`
	Status         string  `json:"status"`
	TxHash         string  `json:"tx_hash,omitempty"`
	Nonce          *uint64 `json:"nonce,omitempty"`
	IdempotencyKey string  `json:"idempotency_key"`
}

// RequestHash 对请求语义字段做规范化哈希，用于识别幂等键复用
func RequestHash(userID, chain, asset, toAddress, amountMinor string) string {
	sum := sha256.Sum256([]byte(strings.Join([]string{userID, chain, asset, toAddress, amountMinor}, "|")))
	return hex.EncodeToString(sum[:])
}

// HoldRef 提现预留资金的冻结引用，也是结算凭证的 reference
func HoldRef(withdrawalID string) string {
	return "withdrawal:" + withdrawalID
}

// Create 受理一笔提现: 校验 → 幂等检查 → 冻结资金 → 落单，全部在一个事务里
func (s *Service) Create(ctx context.Context, userID, idempotencyKey, chain, asset, toAddress, amountMinor string) (*Receipt, error) {
	if chain != s.chain {
		return nil, errno.ErrUnsupportedChain
	}
	if asset != s.asset {
		return nil, errno.ErrUnsupportedAsset
	}

	to, err := evm.NormalizeAddress(toAddress)
	if err != nil {
		return nil, err
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(amountMinor))
	if err != nil || amount.Sign() <= 0 || !amount.IsInteger() {
		return nil, errno.ErrInvalidAmount
	}

	requestHash := RequestHash(userID, chain, asset, to, amount.String())

	var receipt *Receipt
	err = txrunner.Run(s.db.WithContext(ctx), func(tx *gorm.DB) error {
		var existing model.Withdrawal
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND idempotency_key = ?", userID, idempotencyKey).
			First(&existing).Error
		if err == nil {
			if existing.RequestHash != requestHash {
				return errno.ErrIdempotencyKeyReuseMismatch
			}
			receipt = shapeReceipt(&existing)
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		acct, err := s.ledger.GetOrCreateAccount(tx, userID, model.AccountTypeSpot, s.currency)
		if err != nil {
			return err
		}

		withdrawalID := uuid.NewString()
		holdRef := HoldRef(withdrawalID)

		if err := s.ledger.ReserveForWithdrawal(tx, acct.ID, holdRef, amount); err != nil {
			return err
		}

		w := model.Withdrawal{
			ID:             withdrawalID,
			UserID:         userID,
			Chain:          chain,
			Asset:          asset,
			Currency:       s.currency,
			ToAddress:      to,
			AmountMinor:    amount,
			FeeMinor:       decimal.Zero,
			Status:         model.WithdrawalStatusCreated,
			IdempotencyKey: idempotencyKey,
			RequestHash:    requestHash,
			HoldReference:  holdRef,
		}
		if err := tx.Create(&w).Error; err != nil {
			return err
		}

		receipt = shapeReceipt(&w)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return receipt, nil
}

// Get 查询用户自己的提现单
func (s *Service) Get(ctx context.Context, userID, withdrawalID string) (*Receipt, error) {
	var w model.Withdrawal
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", withdrawalID, userID).
		First(&w).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errno.ErrWithdrawalNotFound
		}
		return nil, err
	}
	return shapeReceipt(&w), nil
}

func shapeReceipt(w *model.Withdrawal) *Receipt {
	return &Receipt{
		WithdrawalID:   w.ID,
		Chain:          w.Chain,
		Asset:          w.Asset,
		Currency:       w.Currency,
		ToAddress:      w.ToAddress,
		AmountMinor:    w.AmountMinor.String(),
		FeeMinor:       w.FeeMinor.String(),
		Status:         w.Status,
		TxHash:         w.TxHash,
		Nonce:          w.Nonce,
		IdempotencyKey: w.IdempotencyKey,
	}
}
