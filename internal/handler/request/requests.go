package request

type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=32"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type DepositAddressRequest struct {
	Chain string `json:"chain" binding:"required"`
}

type CreateWithdrawalRequest struct {
	Chain       string `json:"chain" binding:"required"`
	Asset       string `json:"asset" binding:"required"`
	ToAddress   string `json:"to_address" binding:"required"`
	AmountMinor string `json:"amount_minor" binding:"required"`
}

type ResolveFrozenRequest struct {
	Action string `json:"action" binding:"required,oneof=release clawback"`
	Limit  int    `json:"limit" binding:"omitempty,min=1,max=50"`
}
