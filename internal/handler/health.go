package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/chibuike-kt/bsc-custody-ledger/internal/handler/response"
)

// HealthCheck 健康检查
func HealthCheck(c *gin.Context) {
	response.Success(c, gin.H{
		"status":  "UP",
		"service": "custody-server",
	})
}
