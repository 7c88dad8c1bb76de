package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/chibuike-kt/bsc-custody-ledger/internal/handler/request"
	"github.com/chibuike-kt/bsc-custody-ledger/internal/handler/response"
	"github.com/chibuike-kt/bsc-custody-ledger/internal/user"
	"github.com/chibuike-kt/bsc-custody-ledger/pkg/errno"
)

type UserHandler struct {
	users *user.Service
}

func NewUserHandler(users *user.Service) *UserHandler {
	return &UserHandler{users: users}
}

// Register 用户注册接口
func (h *UserHandler) Register(c *gin.Context) {
	var req request.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errno.ErrBind)
		return
	}

	u, err := h.users.Register(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{
		"user_id":  u.ID,
		"username": u.Username,
		"email":    u.Email,
	})
}

// Login 登录换取 token
func (h *UserHandler) Login(c *gin.Context) {
	var req request.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errno.ErrBind)
		return
	}

	token, err := h.users.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"token": token})
}
