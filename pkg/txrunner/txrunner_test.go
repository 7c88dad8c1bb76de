package txrunner

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"序列化失败", errors.New("ERROR: could not serialize access due to concurrent update (SQLSTATE 40001)"), true},
		{"死锁", errors.New("ERROR: deadlock detected (SQLSTATE 40P01)"), true},
		{"锁等待超时", errors.New("Error 1205: Lock wait timeout exceeded; try restarting transaction"), true},
		{"普通约束冲突", errors.New("ERROR: duplicate key value violates unique constraint (SQLSTATE 23505)"), false},
		{"业务错误", errors.New("insufficient available balance"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

func TestRetryStopsAfterMaxAttempts(t *testing.T) {
	calls := 0
	err := retry(func() error {
		calls++
		return errors.New("deadlock detected")
	})
	require.Error(t, err)
	assert.Equal(t, maxAttempts, calls, "可重试错误应该试满次数")
}

func TestRetryDoesNotRetryBusinessErrors(t *testing.T) {
	calls := 0
	sentinel := errors.New("invalid amount")
	err := retry(func() error {
		calls++
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, 1, calls, "不可重试错误只执行一次")
}

func TestRetrySucceedsAfterTransientFailure(t *testing.T) {
	calls := 0
	err := retry(func() error {
		calls++
		if calls < 2 {
			return errors.New("could not serialize access")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}
