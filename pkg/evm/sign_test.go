package evm

import (
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignContractCall(t *testing.T) {
	// 测试专用私钥，不要用于任何真实网络
	privKey := "59c6995e998f97a5a0044966f0945389dc9e86dae88c7a8412f4603b6b78690d"
	contract := "0x55d398326f99059ff775485246999027b3197955"
	chainID := int64(56)
	nonce := uint64(7)
	gasPrice := big.NewInt(3_000_000_000)
	gasLimit := uint64(120000)

	data, err := TransferCalldata("0x1234567890abcdef1234567890abcdef12345678", big.NewInt(500))
	require.NoError(t, err)

	rawHex, txHash, err := SignContractCall(privKey, chainID, nonce, contract, gasPrice, gasLimit, data)
	require.NoError(t, err)
	require.NotEmpty(t, rawHex)
	require.NotEmpty(t, txHash)

	// 反序列化回来核对签名内容
	rawBytes, err := hexutil.Decode(rawHex)
	require.NoError(t, err)

	var tx types.Transaction
	require.NoError(t, tx.UnmarshalBinary(rawBytes))

	assert.Equal(t, nonce, tx.Nonce())
	assert.Equal(t, contract, strings.ToLower(tx.To().Hex()))
	assert.Equal(t, gasLimit, tx.Gas())
	assert.Zero(t, gasPrice.Cmp(tx.GasPrice()))
	assert.Equal(t, data, tx.Data())
	assert.Zero(t, tx.Value().Sign(), "代币转账不带原生币")
	assert.Equal(t, big.NewInt(chainID), tx.ChainId())
	assert.Equal(t, txHash, tx.Hash().Hex())
}

func TestSignContractCallBadKey(t *testing.T) {
	_, _, err := SignContractCall("not-a-key", 56, 0, "0x55d398326f99059ff775485246999027b3197955", big.NewInt(1), 21000, nil)
	assert.Error(t, err)
}
