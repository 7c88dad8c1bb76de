package deposit

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/chibuike-kt/bsc-custody-ledger/internal/model"
)

func TestNextConfirmState(t *testing.T) {
	const required = 15

	tests := []struct {
		name      string
		head      uint64
		block     uint64
		wantConf  uint64
		wantState string
	}{
		{"刚入块算 1 个确认", 100, 100, 1, model.DepositStatusConfirming},
		{"13 个确认还在等", 112, 100, 13, model.DepositStatusConfirming},
		{"14 个确认还差一个", 113, 100, 14, model.DepositStatusConfirming},
		{"15 个确认达标", 114, 100, 15, model.DepositStatusConfirmed},
		{"远超确认数", 10000, 100, 9901, model.DepositStatusConfirmed},
		{"链头还没到事件块", 99, 100, 0, model.DepositStatusConfirming},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conf, state := NextConfirmState(tt.head, tt.block, required)
			assert.Equal(t, tt.wantConf, conf)
			assert.Equal(t, tt.wantState, state)
		})
	}
}

func TestNextConfirmStateSingleConfirmation(t *testing.T) {
	// required=1 时入块即确认
	conf, state := NextConfirmState(50, 50, 1)
	assert.Equal(t, uint64(1), conf)
	assert.Equal(t, model.DepositStatusConfirmed, state)
}
