package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 账户类型
const (
	AccountTypeSpot     = "spot"
	AccountTypeTreasury = "treasury"
)

// 记账方向
const (
	DirectionDebit  = "debit"
	DirectionCredit = "credit"
)

// User 用户表
type User struct {
	ID           string    `gorm:"primaryKey;type:uuid" json:"id"`
	Username     string    `gorm:"type:varchar(255);not null;unique" json:"username"`
	Email        string    `gorm:"type:varchar(255);not null;unique" json:"email"`
	PasswordHash string    `gorm:"type:varchar(255);not null" json:"-"` // 不返回密码
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Account 资金账户。
// BalanceMinor 是 postings 累计和的缓存，只能和对应 posting 同事务更新，
// 任何余额变动都必须经过 ledger 包。
type Account struct {
	ID           string          `gorm:"primaryKey;type:uuid" json:"id"`
	UserID       string          `gorm:"type:uuid;not null;uniqueIndex:idx_owner_type_currency" json:"user_id"`
	Type         string          `gorm:"type:varchar(16);not null;uniqueIndex:idx_owner_type_currency" json:"type"` // spot, treasury
	Currency     string          `gorm:"type:varchar(32);not null;uniqueIndex:idx_owner_type_currency" json:"currency"`
	BalanceMinor decimal.Decimal `gorm:"type:numeric(36,0);not null;default:0" json:"balance_minor"` // 最小单位整数
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// Journal 记账凭证，创建后不可变。
// Reference 全局唯一，是防止外部事件重复入账的唯一机制。
type Journal struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	Type      string    `gorm:"type:varchar(32);not null" json:"type"` // crypto_deposit, crypto_withdrawal, deposit_clawback
	Reference string    `gorm:"type:varchar(255);not null;unique" json:"reference"`
	Status    string    `gorm:"type:varchar(16);not null;default:'posted'" json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// Posting 凭证分录，一借一贷，创建后不可变
type Posting struct {
	ID          string          `gorm:"primaryKey;type:uuid" json:"id"`
	JournalID   string          `gorm:"type:uuid;not null;index" json:"journal_id"`
	AccountID   string          `gorm:"type:uuid;not null;index" json:"account_id"`
	Direction   string          `gorm:"type:varchar(8);not null" json:"direction"` // debit, credit
	AmountMinor decimal.Decimal `gorm:"type:numeric(36,0);not null" json:"amount_minor"`
	Currency    string          `gorm:"type:varchar(32);not null" json:"currency"`
	CreatedAt   time.Time       `json:"created_at"`
}

// 冻结状态
const (
	HoldStatusActive   = "active"
	HoldStatusReleased = "released"
)

// AccountHold 余额冻结，按 (account_id, reference) 幂等
type AccountHold struct {
	ID          string          `gorm:"primaryKey;type:uuid" json:"id"`
	AccountID   string          `gorm:"type:uuid;not null;uniqueIndex:idx_hold_account_ref" json:"account_id"`
	Reference   string          `gorm:"type:varchar(255);not null;uniqueIndex:idx_hold_account_ref" json:"reference"`
	AmountMinor decimal.Decimal `gorm:"type:numeric(36,0);not null" json:"amount_minor"`
	Reason      string          `gorm:"type:varchar(64);not null" json:"reason"`
	Status      string          `gorm:"type:varchar(16);not null;default:'active';index" json:"status"`
	ReleasedAt  *time.Time      `json:"released_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// WalletAddress 用户充值地址。
// (chain, derivation_index) 唯一，派生索引撞号时报错而不是静默分到同一地址。
type WalletAddress struct {
	ID              string    `gorm:"primaryKey;type:uuid" json:"id"`
	UserID          string    `gorm:"type:uuid;not null;uniqueIndex:idx_addr_user_chain" json:"user_id"`
	Chain           string    `gorm:"type:varchar(16);not null;uniqueIndex:idx_addr_user_chain;uniqueIndex:idx_addr_chain_index" json:"chain"`
	Address         string    `gorm:"type:varchar(64);not null;index" json:"address"` // 存小写
	DerivationIndex int64     `gorm:"not null;uniqueIndex:idx_addr_chain_index" json:"derivation_index"`
	Active          bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt       time.Time `json:"created_at"`
}

// 充值状态机: detected → confirming → confirmed → credited
// 逃逸路径: 未入账的重组 → orphaned；已入账的重组 → orphaned_review → frozen_review → credited/clawed_back
const (
	DepositStatusDetected       = "detected"
	DepositStatusConfirming     = "confirming"
	DepositStatusConfirmed      = "confirmed"
	DepositStatusCredited       = "credited"
	DepositStatusOrphaned       = "orphaned"
	DepositStatusOrphanedReview = "orphaned_review"
	DepositStatusFrozenReview   = "frozen_review"
	DepositStatusClawedBack     = "clawed_back"
)

// ChainDeposit 链上观察到的入账事件。
// ExternalRef = chain:token:txHash:logIndex，唯一索引保证重复扫描不重复入账。
type ChainDeposit struct {
	ID            string          `gorm:"primaryKey;type:uuid" json:"id"`
	Chain         string          `gorm:"type:varchar(16);not null;index" json:"chain"`
	TokenContract string          `gorm:"type:varchar(64);not null" json:"token_contract"`
	TxHash        string          `gorm:"type:varchar(80);not null" json:"tx_hash"`
	LogIndex      uint64          `gorm:"not null" json:"log_index"`
	FromAddress   string          `gorm:"type:varchar(64);not null" json:"from_address"`
	ToAddress     string          `gorm:"type:varchar(64);not null;index" json:"to_address"`
	AmountRaw     decimal.Decimal `gorm:"type:numeric(36,0);not null" json:"amount_raw"`
	BlockNumber   uint64          `gorm:"not null;index" json:"block_number"`
	BlockHash     string          `gorm:"type:varchar(80)" json:"block_hash"`
	Confirmations uint64          `gorm:"not null;default:0" json:"confirmations"`
	Status        string          `gorm:"type:varchar(24);not null;default:'detected';index" json:"status"`
	ExternalRef   string          `gorm:"type:varchar(255);not null;unique" json:"external_ref"`
	OrphanReason  string          `gorm:"type:varchar(64)" json:"orphan_reason,omitempty"`
	JournalID     string          `gorm:"type:uuid" json:"journal_id,omitempty"`
	ConfirmedAt   *time.Time      `json:"confirmed_at,omitempty"`
	CreditedAt    *time.Time      `json:"credited_at,omitempty"`
	OrphanedAt    *time.Time      `json:"orphaned_at,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// ChainCursor 扫描进度游标，单调前进
type ChainCursor struct {
	ID          string    `gorm:"primaryKey;type:uuid" json:"id"`
	Chain       string    `gorm:"type:varchar(16);not null;uniqueIndex:idx_cursor_chain_key" json:"chain"`
	CursorKey   string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_cursor_chain_key" json:"cursor_key"`
	CursorValue uint64    `gorm:"not null" json:"cursor_value"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ChainNonce 每个发送钱包的下一个交易序号，分配必须在行锁内完成
type ChainNonce struct {
	ID            string    `gorm:"primaryKey;type:uuid" json:"id"`
	Chain         string    `gorm:"type:varchar(16);not null;uniqueIndex:idx_nonce_chain_wallet" json:"chain"`
	WalletAddress string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_nonce_chain_wallet" json:"wallet_address"`
	NextNonce     uint64    `gorm:"not null" json:"next_nonce"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// 提现状态机: created → broadcasting → broadcasted → confirming → settled
// created/retry_broadcast → broadcasting 可重试；链上失败 → failed
const (
	WithdrawalStatusCreated        = "created"
	WithdrawalStatusRetryBroadcast = "retry_broadcast"
	WithdrawalStatusBroadcasting   = "broadcasting"
	WithdrawalStatusBroadcasted    = "broadcasted"
	WithdrawalStatusConfirming     = "confirming"
	WithdrawalStatusSettled        = "settled"
	WithdrawalStatusFailed         = "failed"
)

// Withdrawal 提现单。(user_id, idempotency_key) 唯一，防止重复提交。
type Withdrawal struct {
	ID             string          `gorm:"primaryKey;type:uuid" json:"id"`
	UserID         string          `gorm:"type:uuid;not null;uniqueIndex:idx_withdrawal_user_idem" json:"user_id"`
	Chain          string          `gorm:"type:varchar(16);not null" json:"chain"`
	Asset          string          `gorm:"type:varchar(16);not null" json:"asset"`
	Currency       string          `gorm:"type:varchar(32);not null" json:"currency"`
	ToAddress      string          `gorm:"type:varchar(64);not null" json:"to_address"`
	AmountMinor    decimal.Decimal `gorm:"type:numeric(36,0);not null" json:"amount_minor"`
	FeeMinor       decimal.Decimal `gorm:"type:numeric(36,0);not null;default:0" json:"fee_minor"`
	Status         string          `gorm:"type:varchar(24);not null;default:'created';index" json:"status"`
	IdempotencyKey string          `gorm:"type:varchar(128);not null;uniqueIndex:idx_withdrawal_user_idem" json:"idempotency_key"`
	RequestHash    string          `gorm:"type:varchar(64);not null" json:"-"`
	HoldReference  string          `gorm:"type:varchar(255);not null" json:"hold_reference"`
	TxHash         string          `gorm:"type:varchar(80)" json:"tx_hash,omitempty"`
	Nonce          *uint64         `json:"nonce,omitempty"`
	ErrorCode      string          `gorm:"type:varchar(128)" json:"error_code,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func (User) TableName() string          { return "users" }
func (Account) TableName() string       { return "accounts" }
func (Journal) TableName() string       { return "journals" }
func (Posting) TableName() string       { return "postings" }
func (AccountHold) TableName() string   { return "account_holds" }
func (WalletAddress) TableName() string { return "wallet_addresses" }
func (ChainDeposit) TableName() string  { return "chain_deposits" }
func (ChainCursor) TableName() string   { return "chain_cursors" }
func (ChainNonce) TableName() string    { return "chain_nonces" }
func (Withdrawal) TableName() string    { return "withdrawals" }
