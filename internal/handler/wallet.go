package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/chibuike-kt/bsc-custody-ledger/internal/handler/response"
	"github.com/chibuike-kt/bsc-custody-ledger/internal/ledger"
	"github.com/chibuike-kt/bsc-custody-ledger/internal/model"
	"github.com/chibuike-kt/bsc-custody-ledger/internal/wallet"
	"github.com/chibuike-kt/bsc-custody-ledger/pkg/config"
	"github.com/chibuike-kt/bsc-custody-ledger/pkg/errno"
)

type WalletHandler struct {
	wallets *wallet.Service
	ledger  *ledger.Service
}

func NewWalletHandler(wallets *wallet.Service, ledgerSvc *ledger.Service) *WalletHandler {
	return &WalletHandler{wallets: wallets, ledger: ledgerSvc}
}

// GetDepositAddress 获取（必要时分配）当前用户的充值地址
func (h *WalletHandler) GetDepositAddress(c *gin.Context) {
	chain := c.Query("chain")
	if chain == "" {
		chain = config.Global.Chain.Name
	}
	if chain != config.Global.Chain.Name {
		response.Error(c, errno.ErrUnsupportedChain)
		return
	}

	userID := c.GetString("uid")
	addr, err := h.wallets.GetOrCreateDepositAddress(c.Request.Context(), userID, chain)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{
		"chain":   addr.Chain,
		"address": addr.Address,
	})
}

// GetBalance 查询当前用户余额: 总额、冻结、可用
func (h *WalletHandler) GetBalance(c *gin.Context) {
	currency := c.Query("currency")
	if currency == "" {
		currency = config.Global.Chain.Currency
	}

	userID := c.GetString("uid")
	db := h.ledger.DB().WithContext(c.Request.Context())

	acct, err := h.ledger.GetOrCreateAccount(db, userID, model.AccountTypeSpot, currency)
	if err != nil {
		response.Error(c, err)
		return
	}
	holds, err := h.ledger.ActiveHoldsTotal(db, acct.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{
		"currency":        currency,
		"balance_minor":   acct.BalanceMinor.String(),
		"held_minor":      holds.String(),
		"available_minor": ledger.Available(acct.BalanceMinor, holds).String(),
	})
}
