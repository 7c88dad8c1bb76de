package withdrawal

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestHash(t *testing.T) {
	h1 := RequestHash("user-1", "bsc", "USDT", "0xaaaa", "1000")
	h2 := RequestHash("user-1", "bsc", "USDT", "0xaaaa", "1000")
	assert.Equal(t, h1, h2, "同样的请求语义必须得到同样的哈希")
	assert.Len(t, h1, 64)

	// 任何语义字段变化都要产生不同哈希
	assert.NotEqual(t, h1, RequestHash("user-2", "bsc", "USDT", "0xaaaa", "1000"))
	assert.NotEqual(t, h1, RequestHash("user-1", "bsc", "USDT", "0xaaaa", "1001"))
	assert.NotEqual(t, h1, RequestHash("user-1", "bsc", "USDT", "0xbbbb", "1000"))
}

func TestHoldRef(t *testing.T) {
	assert.Equal(t, "withdrawal:abc-123", HoldRef("abc-123"))
}

func TestTruncateErrorCode(t *testing.T) {
	short := TruncateErrorCode(errors.New("nonce too low"))
	assert.Equal(t, "nonce too low", short)

	long := TruncateErrorCode(errors.New(strings.Repeat("x", 500)))
	assert.Len(t, long, errorCodeMaxLen, "超长错误信息要截断后入库")
}
