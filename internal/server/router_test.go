package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chibuike-kt/bsc-custody-ledger/internal/handler"
	"github.com/chibuike-kt/bsc-custody-ledger/pkg/errno"
)

type stubParser struct {
	uid string
	err error
}

func (p stubParser) ParseToken(string) (string, error) {
	return p.uid, p.err
}

func testRouter(parser TokenParser) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewHTTPRouter(Handlers{
		User:     handler.NewUserHandler(nil),
		Wallet:   handler.NewWalletHandler(nil, nil),
		Withdraw: handler.NewWithdrawHandler(nil),
		Admin:    handler.NewAdminHandler(nil),
		Auth:     parser,
	})
}

func TestHealthEndpoint(t *testing.T) {
	r := testRouter(stubParser{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"UP"`)
}

func TestMetricsEndpoint(t *testing.T) {
	r := testRouter(stubParser{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthMiddlewareRejectsMissingToken(t *testing.T) {
	r := testRouter(stubParser{err: errno.ErrTokenInvalid})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/wallet/balance", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddlewareRejectsBadToken(t *testing.T) {
	r := testRouter(stubParser{err: errno.ErrTokenInvalid})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/wallet/balance", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
