package event

// Kafka 主题
const (
	TopicDepositCredited  = "custody_deposit_credited"
	TopicWithdrawalSettled = "custody_withdrawal_settled"
	TopicWithdrawalFailed  = "custody_withdrawal_failed"
)

// DepositCreditedEvent 充值入账成功后的通知载荷
type DepositCreditedEvent struct {
	DepositID   string `json:"deposit_id"`
	UserID      string `json:"user_id"`
	Chain       string `json:"chain"`
	Currency    string `json:"currency"`
	AmountMinor string `json:"amount_minor"`
	TxHash      string `json:"tx_hash"`
	JournalID   string `json:"journal_id"`
}

// WithdrawalSettledEvent 提现结算完成后的通知载荷
type WithdrawalSettledEvent struct {
	WithdrawalID string `json:"withdrawal_id"`
	UserID       string `json:"user_id"`
	Chain        string `json:"chain"`
	Currency     string `json:"currency"`
	AmountMinor  string `json:"amount_minor"`
	TxHash       string `json:"tx_hash"`
}

// WithdrawalFailedEvent 链上失败、资金解冻后的通知载荷
type WithdrawalFailedEvent struct {
	WithdrawalID string `json:"withdrawal_id"`
	UserID       string `json:"user_id"`
	ErrorCode    string `json:"error_code"`
}
