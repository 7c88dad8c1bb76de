package errno

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecode(t *testing.T) {
	code, msg := Decode(nil)
	assert.Equal(t, OK.Code, code)
	assert.Equal(t, OK.Message, msg)

	code, msg = Decode(ErrInsufficientAvailableBalance)
	assert.Equal(t, 20303, code)
	assert.Equal(t, ErrInsufficientAvailableBalance.Message, msg)

	code, msg = Decode(&ErrInvalidAmount)
	assert.Equal(t, 20301, code)
	assert.Equal(t, ErrInvalidAmount.Message, msg)

	// 未知错误统一映射为 internal error code，但保留原始信息
	code, msg = Decode(errors.New("boom"))
	assert.Equal(t, InternalServerError.Code, code)
	assert.Equal(t, "boom", msg)
}
