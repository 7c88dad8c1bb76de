package evm

import (
	"encoding/hex"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransferEventTopic(t *testing.T) {
	// ERC-20 Transfer 事件的规范 topic0
	assert.Equal(t,
		"0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef",
		TransferEventTopic.Hex())
}

func TestTransferCalldata(t *testing.T) {
	to := "0x1234567890abcdef1234567890abcdef12345678"
	amount := new(big.Int)
	amount.SetString("1000000000000000000", 10) // 1e18

	data, err := TransferCalldata(to, amount)
	require.NoError(t, err)
	require.Len(t, data, 68, "selector(4) + to(32) + amount(32)")

	encoded := hex.EncodeToString(data)
	assert.Equal(t, "a9059cbb", encoded[:8], "transfer(address,uint256) 选择器")
	assert.Equal(t, "0000000000000000000000001234567890abcdef1234567890abcdef12345678", encoded[8:72])
	assert.Equal(t, "0000000000000000000000000000000000000000000000000de0b6b3a7640000", encoded[72:])
}

func TestTransferCalldataRejectsBadInput(t *testing.T) {
	_, err := TransferCalldata("not-an-address", big.NewInt(1))
	assert.Error(t, err)

	_, err = TransferCalldata("0x1234567890abcdef1234567890abcdef12345678", big.NewInt(0))
	assert.Error(t, err)

	_, err = TransferCalldata("0x1234567890abcdef1234567890abcdef12345678", nil)
	assert.Error(t, err)
}
