package server

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/chibuike-kt/bsc-custody-ledger/internal/handler/response"
	"github.com/chibuike-kt/bsc-custody-ledger/pkg/errno"
)

// TokenParser 校验 token 并给出 userID
type TokenParser interface {
	ParseToken(tokenString string) (string, error)
}

// AuthMiddleware 从 Authorization: Bearer <token> 解析用户身份，
// 放入 uid 供后续 handler 使用
func AuthMiddleware(parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(auth, "Bearer ")
		if !ok || token == "" {
			response.Unauthorized(c, errno.ErrTokenInvalid)
			return
		}

		userID, err := parser.ParseToken(token)
		if err != nil {
			response.Unauthorized(c, errno.ErrTokenInvalid)
			return
		}

		c.Set("uid", userID)
		c.Next()
	}
}
