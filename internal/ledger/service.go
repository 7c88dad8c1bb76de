package ledger

import (
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/chibuike-kt/bsc-custody-ledger/internal/model"
	"github.com/chibuike-kt/bsc-custody-ledger/pkg/errno"
)

// 凭证类型
const (
	JournalTypeDeposit    = "crypto_deposit"
	JournalTypeWithdrawal = "crypto_withdrawal"
	JournalTypeClawback   = "deposit_clawback"
)

const clawbackRefPrefix = "clawback:"

// Service 复式记账核心。所有余额变动都从这里走。
//
// 方法都接收调用方事务句柄 tx，自身不开事务；
// 需要独立原子性的调用方用 txrunner.Run 包住。
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// DB 返回底层连接，供只读接口在无外层事务时使用
func (s *Service) DB() *gorm.DB {
	return s.db
}

// GetOrCreateAccount 返回指定 (owner, type, currency) 的账户，不存在则以零余额创建。
// 幂等: 并发创建靠唯一索引 + ON CONFLICT DO NOTHING 收敛。
func (s *Service) GetOrCreateAccount(tx *gorm.DB, userID, accountType, currency string) (*model.Account, error) {
	var acct model.Account
	err := tx.Where("user_id = ? AND type = ? AND currency = ?", userID, accountType, currency).
		First(&acct).Error
	if err == nil {
		return &acct, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	fresh := model.Account{
		ID:           uuid.NewString(),
		UserID:       userID,
		Type:         accountType,
		Currency:     currency,
		BalanceMinor: decimal.Zero,
	}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&fresh).Error; err != nil {
		return nil, err
	}

	// 冲突时别人先建好了，重查拿权威行
	if err := tx.Where("user_id = ? AND type = ? AND currency = ?", userID, accountType, currency).
		First(&acct).Error; err != nil {
		return nil, err
	}
	return &acct, nil
}

// lockAccount 以 SELECT ... FOR UPDATE 取账户行
func (s *Service) lockAccount(tx *gorm.DB, accountID string) (*model.Account, error) {
	var acct model.Account
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", accountID).
		First(&acct).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errno.ErrAccountNotFound
		}
		return nil, err
	}
	return &acct, nil
}

// lockAccountPair 按 id 排序后依次加锁，避免两个并发事务以相反顺序
// 锁同一对账户造成死锁
func (s *Service) lockAccountPair(tx *gorm.DB, idA, idB string) (map[string]*model.Account, error) {
	ids := []string{idA, idB}
	sort.Strings(ids)

	out := make(map[string]*model.Account, 2)
	for _, id := range ids {
		acct, err := s.lockAccount(tx, id)
		if err != nil {
			return nil, err
		}
		out[id] = acct
	}
	return out, nil
}

// LockPair 供需要自己写分录的调用方 (如提现结算) 锁定一对账户
func (s *Service) LockPair(tx *gorm.DB, idA, idB string) (map[string]*model.Account, error) {
	return s.lockAccountPair(tx, idA, idB)
}

func validAmount(amount decimal.Decimal) bool {
	return amount.Sign() > 0 && amount.IsInteger()
}

// CreditDeposit 把一笔外部入金记入用户 spot 账户。
// 已存在同 reference 的凭证时直接返回其 id，不会重复入账。
func (s *Service) CreditDeposit(tx *gorm.DB, userID, currency string, amount decimal.Decimal, externalRef string) (string, error) {
	if !validAmount(amount) {
		return "", errno.ErrInvalidAmount
	}

	var existing model.Journal
	err := tx.Where("reference = ?", externalRef).First(&existing).Error
	if err == nil {
		return existing.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	acct, err := s.GetOrCreateAccount(tx, userID, model.AccountTypeSpot, currency)
	if err != nil {
		return "", err
	}
	acct, err = s.lockAccount(tx, acct.ID)
	if err != nil {
		return "", err
	}

	journal := model.Journal{
		ID:        uuid.NewString(),
		Type:      JournalTypeDeposit,
		Reference: externalRef,
		Status:    "posted",
	}
	if err := tx.Create(&journal).Error; err != nil {
		return "", err
	}

	posting := model.Posting{
		ID:          uuid.NewString(),
		JournalID:   journal.ID,
		AccountID:   acct.ID,
		Direction:   model.DirectionCredit,
		AmountMinor: amount,
		Currency:    currency,
	}
	if err := tx.Create(&posting).Error; err != nil {
		return "", err
	}

	newBalance := acct.BalanceMinor.Add(amount)
	if err := tx.Model(&model.Account{}).Where("id = ?", acct.ID).
		Update("balance_minor", newBalance).Error; err != nil {
		return "", err
	}

	return journal.ID, nil
}

// PlaceHold 冻结一笔金额，按 (account, reference) 幂等
func (s *Service) PlaceHold(tx *gorm.DB, accountID, reference string, amount decimal.Decimal, reason string) error {
	if !validAmount(amount) {
		return errno.ErrInvalidAmount
	}

	hold := model.AccountHold{
		ID:          uuid.NewString(),
		AccountID:   accountID,
		Reference:   reference,
		AmountMinor: amount,
		Reason:      reason,
		Status:      model.HoldStatusActive,
	}
	return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&hold).Error
}

// ReleaseHold 把匹配的 active 冻结转为 released，没有匹配则无操作
func (s *Service) ReleaseHold(tx *gorm.DB, accountID, reference string) error {
	now := time.Now()
	return tx.Model(&model.AccountHold{}).
		Where("account_id = ? AND reference = ? AND status = ?", accountID, reference, model.HoldStatusActive).
		Updates(map[string]interface{}{
			"status":      model.HoldStatusReleased,
			"released_at": &now,
		}).Error
}

// ActiveHoldsTotal 账户所有 active 冻结之和
func (s *Service) ActiveHoldsTotal(tx *gorm.DB, accountID string) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := tx.Model(&model.AccountHold{}).
		Where("account_id = ? AND status = ?", accountID, model.HoldStatusActive).
		Select("COALESCE(SUM(amount_minor), 0)").
		Scan(&total).Error
	if err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

// AvailableBalance = max(0, balance − Σ active holds)
func (s *Service) AvailableBalance(tx *gorm.DB, accountID string) (decimal.Decimal, error) {
	var acct model.Account
	if err := tx.Where("id = ?", accountID).First(&acct).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, errno.ErrAccountNotFound
		}
		return decimal.Zero, err
	}

	holds, err := s.ActiveHoldsTotal(tx, accountID)
	if err != nil {
		return decimal.Zero, err
	}
	return Available(acct.BalanceMinor, holds), nil
}

// Available 可用余额计算，抽出来方便测试
func Available(balance, activeHolds decimal.Decimal) decimal.Decimal {
	avail := balance.Sub(activeHolds)
	if avail.Sign() < 0 {
		return decimal.Zero
	}
	return avail
}

// ReserveForWithdrawal 为提现预留资金。
// 锁住账户行后校验可用余额，不足则拒绝。
func (s *Service) ReserveForWithdrawal(tx *gorm.DB, accountID, reference string, amount decimal.Decimal) error {
	if !validAmount(amount) {
		return errno.ErrInvalidAmount
	}

	acct, err := s.lockAccount(tx, accountID)
	if err != nil {
		return err
	}

	holds, err := s.ActiveHoldsTotal(tx, acct.ID)
	if err != nil {
		return err
	}
	if amount.GreaterThan(Available(acct.BalanceMinor, holds)) {
		return errno.ErrInsufficientAvailableBalance
	}

	return s.PlaceHold(tx, acct.ID, reference, amount, "withdrawal_reserve")
}

// ClawbackRef 回收凭证的 reference
func ClawbackRef(externalRef string) string {
	return clawbackRefPrefix + externalRef
}

// ClawbackDeposit 受控冲正: 借记用户、贷记金库。
// 用 clawback:<externalRef> 凭证幂等；用户余额不足以覆盖时报错，绝不打成负数。
func (s *Service) ClawbackDeposit(tx *gorm.DB, userAccountID, treasuryAccountID, currency string, amount decimal.Decimal, externalRef string) (string, error) {
	if !validAmount(amount) {
		return "", errno.ErrInvalidAmount
	}

	ref := ClawbackRef(externalRef)

	var existing model.Journal
	err := tx.Where("reference = ?", ref).First(&existing).Error
	if err == nil {
		return existing.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	accounts, err := s.lockAccountPair(tx, userAccountID, treasuryAccountID)
	if err != nil {
		return "", err
	}
	userAcct := accounts[userAccountID]
	treasuryAcct := accounts[treasuryAccountID]

	if userAcct.BalanceMinor.LessThan(amount) {
		return "", errno.ErrInsufficientFundsForClawback
	}

	journal := model.Journal{
		ID:        uuid.NewString(),
		Type:      JournalTypeClawback,
		Reference: ref,
		Status:    "posted",
	}
	if err := tx.Create(&journal).Error; err != nil {
		return "", err
	}

	postings := []model.Posting{
		{
			ID:          uuid.NewString(),
			JournalID:   journal.ID,
			AccountID:   userAcct.ID,
			Direction:   model.DirectionDebit,
			AmountMinor: amount,
			Currency:    currency,
		},
		{
			ID:          uuid.NewString(),
			JournalID:   journal.ID,
			AccountID:   treasuryAcct.ID,
			Direction:   model.DirectionCredit,
			AmountMinor: amount,
			Currency:    currency,
		},
	}
	if err := tx.Create(&postings).Error; err != nil {
		return "", err
	}

	if err := tx.Model(&model.Account{}).Where("id = ?", userAcct.ID).
		Update("balance_minor", userAcct.BalanceMinor.Sub(amount)).Error; err != nil {
		return "", err
	}
	if err := tx.Model(&model.Account{}).Where("id = ?", treasuryAcct.ID).
		Update("balance_minor", treasuryAcct.BalanceMinor.Add(amount)).Error; err != nil {
		return "", err
	}

	return journal.ID, nil
}

// SpotBalance 只读查询用户某币种 spot 余额，账户不存在视为 0
func (s *Service) SpotBalance(userID, currency string) (decimal.Decimal, error) {
	var acct model.Account
	err := s.db.Where("user_id = ? AND type = ? AND currency = ?", userID, model.AccountTypeSpot, currency).
		First(&acct).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, nil
		}
		return decimal.Zero, err
	}
	return acct.BalanceMinor, nil
}
