package deposit

import (
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chibuike-kt/bsc-custody-ledger/internal/model"
	"github.com/chibuike-kt/bsc-custody-ledger/pkg/evm"
)

func TestExternalRef(t *testing.T) {
	ref := ExternalRef("bsc", "usdt", "0xABCDEF", 3)
	assert.Equal(t, "bsc:usdt:0xabcdef:3", ref, "txHash 应该被小写")

	// 同一笔交易的不同 log 必须得到不同引用
	assert.NotEqual(t, ExternalRef("bsc", "usdt", "0xabc", 0), ExternalRef("bsc", "usdt", "0xabc", 1))
}

func TestParseTransferLog(t *testing.T) {
	s := &Scanner{chain: "bsc", token: "0x55d398326f99059ff775485246999027b3197955", asset: "usdt"}

	// 超过 uint64 上限的金额
	amount := new(big.Int)
	amount.SetString("36893488147419103232", 10) // 2^65

	lg := evm.Log{
		Address: common.HexToAddress("0x55d398326f99059ff775485246999027b3197955"),
		Topics: []common.Hash{
			evm.TransferEventTopic,
			common.HexToHash(evm.AddressTopic("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")),
			common.HexToHash(evm.AddressTopic("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")),
		},
		Data:        hexutil.Bytes(common.LeftPadBytes(amount.Bytes(), 32)),
		BlockNumber: 12345,
		BlockHash:   common.HexToHash("0x1111111111111111111111111111111111111111111111111111111111111111"),
		TxHash:      common.HexToHash("0x2222222222222222222222222222222222222222222222222222222222222222"),
		LogIndex:    7,
	}

	dep, err := s.parseTransferLog(lg)
	require.NoError(t, err)

	assert.Equal(t, "bsc", dep.Chain)
	assert.Equal(t, "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", dep.FromAddress)
	assert.Equal(t, "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb", dep.ToAddress)
	assert.Equal(t, "36893488147419103232", dep.AmountRaw.String(), "uint256 金额不能截断")
	assert.Equal(t, uint64(12345), dep.BlockNumber)
	assert.Equal(t, uint64(7), dep.LogIndex)
	assert.Equal(t, model.DepositStatusDetected, dep.Status)
	assert.Equal(t,
		"bsc:usdt:0x2222222222222222222222222222222222222222222222222222222222222222:7",
		dep.ExternalRef)
	assert.Equal(t, strings.ToLower(lg.BlockHash.Hex()), dep.BlockHash)
}

func TestParseTransferLogTooFewTopics(t *testing.T) {
	s := &Scanner{chain: "bsc"}

	_, err := s.parseTransferLog(evm.Log{Topics: []common.Hash{evm.TransferEventTopic}})
	assert.Error(t, err, "没有 indexed from/to 的日志应该被拒绝")
}

func TestTransferTopic(t *testing.T) {
	assert.Equal(t,
		"0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef",
		TransferTopic())
}
