package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestAvailable(t *testing.T) {
	tests := []struct {
		name    string
		balance string
		holds   string
		want    string
	}{
		{"无冻结", "1000", "0", "1000"},
		{"部分冻结", "1000", "300", "700"},
		{"全额冻结", "1000", "1000", "0"},
		{"冻结超出余额时钳为零", "1000", "1500", "0"},
		{"零余额", "0", "0", "0"},
		{"超出 uint64 的大额", "340282366920938463463374607431768211456", "1", "340282366920938463463374607431768211455"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Available(dec(tt.balance), dec(tt.holds))
			assert.True(t, dec(tt.want).Equal(got), "want %s got %s", tt.want, got)
		})
	}
}

func TestValidAmount(t *testing.T) {
	assert.True(t, validAmount(dec("1")))
	assert.True(t, validAmount(dec("340282366920938463463374607431768211456")))
	assert.False(t, validAmount(dec("0")))
	assert.False(t, validAmount(dec("-5")))
	assert.False(t, validAmount(dec("1.5")), "最小单位必须是整数")
}

func TestClawbackRef(t *testing.T) {
	ref := ClawbackRef("bsc:usdt:0xabc:3")
	assert.Equal(t, "clawback:bsc:usdt:0xabc:3", ref)
}
