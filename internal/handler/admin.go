package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/chibuike-kt/bsc-custody-ledger/internal/deposit"
	"github.com/chibuike-kt/bsc-custody-ledger/internal/handler/request"
	"github.com/chibuike-kt/bsc-custody-ledger/internal/handler/response"
	"github.com/chibuike-kt/bsc-custody-ledger/pkg/errno"
)

// AdminHandler 运营侧接口: 孤块审查队列的处置
type AdminHandler struct {
	resolver *deposit.Resolver
}

func NewAdminHandler(resolver *deposit.Resolver) *AdminHandler {
	return &AdminHandler{resolver: resolver}
}

// FreezeOrphaned 把 orphaned_review 的入账批量冻结，进入人工审查
func (h *AdminHandler) FreezeOrphaned(c *gin.Context) {
	res, err := h.resolver.FreezeOrphaned(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

// ResolveFrozen 处置冻结中的入账: release 解冻放行，clawback 冲正回收
func (h *AdminHandler) ResolveFrozen(c *gin.Context) {
	var req request.ResolveFrozenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errno.ErrBind)
		return
	}

	res, err := h.resolver.ResolveFrozen(c.Request.Context(), req.Action, req.Limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}
