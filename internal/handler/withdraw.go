package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/chibuike-kt/bsc-custody-ledger/internal/handler/request"
	"github.com/chibuike-kt/bsc-custody-ledger/internal/handler/response"
	"github.com/chibuike-kt/bsc-custody-ledger/internal/withdrawal"
	"github.com/chibuike-kt/bsc-custody-ledger/pkg/errno"
)

type WithdrawHandler struct {
	withdrawals *withdrawal.Service
}

func NewWithdrawHandler(withdrawals *withdrawal.Service) *WithdrawHandler {
	return &WithdrawHandler{withdrawals: withdrawals}
}

// CreateWithdrawal 申请提现。
// 客户端必须带 Idempotency-Key 头，同 key 重放返回原受理结果。
func (h *WithdrawHandler) CreateWithdrawal(c *gin.Context) {
	idemKey := c.GetHeader("Idempotency-Key")
	if idemKey == "" {
		response.Error(c, errno.ErrMissingIdempotencyKey)
		return
	}

	var req request.CreateWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errno.ErrBind)
		return
	}

	userID := c.GetString("uid")
	receipt, err := h.withdrawals.Create(c.Request.Context(),
		userID, idemKey, req.Chain, req.Asset, req.ToAddress, req.AmountMinor)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, receipt)
}

// GetWithdrawal 查询提现单状态
func (h *WithdrawHandler) GetWithdrawal(c *gin.Context) {
	userID := c.GetString("uid")
	receipt, err := h.withdrawals.Get(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, receipt)
}
