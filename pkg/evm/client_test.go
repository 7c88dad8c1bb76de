package evm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rpcStub 按 method 返回预设的 result/error
func rpcStub(t *testing.T, results map[string]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		result, ok := results[req.Method]
		if !ok {
			fmt.Fprintf(w, `{"jsonrpc":"2.0","id":1,"error":{"code":-32601,"message":"method not found"}}`)
			return
		}
		fmt.Fprintf(w, `{"jsonrpc":"2.0","id":1,"result":%s}`, result)
	}))
}

func TestClientBlockNumber(t *testing.T) {
	srv := rpcStub(t, map[string]string{"eth_blockNumber": `"0x2540be3ff"`})
	defer srv.Close()

	head, err := NewClient(srv.URL).BlockNumber(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(9999999999), head)
}

func TestClientLogs(t *testing.T) {
	srv := rpcStub(t, map[string]string{"eth_getLogs": `[{
		"address": "0x55d398326f99059ff775485246999027b3197955",
		"topics": [
			"0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef",
			"0x000000000000000000000000aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
			"0x000000000000000000000000bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
		],
		"data": "0x0000000000000000000000000000000000000000000000000de0b6b3a7640000",
		"blockNumber": "0x10",
		"blockHash": "0x1111111111111111111111111111111111111111111111111111111111111111",
		"transactionHash": "0x2222222222222222222222222222222222222222222222222222222222222222",
		"logIndex": "0x3"
	}]`})
	defer srv.Close()

	logs, err := NewClient(srv.URL).Logs(context.Background(), LogFilter{FromBlock: "0x1", ToBlock: "0x20"})
	require.NoError(t, err)
	require.Len(t, logs, 1)

	lg := logs[0]
	assert.Equal(t, uint64(16), uint64(lg.BlockNumber))
	assert.Equal(t, uint(3), uint(lg.LogIndex))
	assert.Len(t, lg.Topics, 3)
	assert.Equal(t, "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb", TopicAddress(lg.Topics[2]))
}

func TestClientReceiptNotFound(t *testing.T) {
	// 交易还没上链时节点返回 null，不是错误
	srv := rpcStub(t, map[string]string{"eth_getTransactionReceipt": "null"})
	defer srv.Close()

	receipt, err := NewClient(srv.URL).TransactionReceipt(context.Background(), "0xdead")
	require.NoError(t, err)
	assert.Nil(t, receipt)
}

func TestClientReceiptFound(t *testing.T) {
	srv := rpcStub(t, map[string]string{"eth_getTransactionReceipt": `{
		"status": "0x1",
		"blockNumber": "0x64",
		"blockHash": "0x1111111111111111111111111111111111111111111111111111111111111111",
		"transactionHash": "0x2222222222222222222222222222222222222222222222222222222222222222"
	}`})
	defer srv.Close()

	receipt, err := NewClient(srv.URL).TransactionReceipt(context.Background(), "0x2222")
	require.NoError(t, err)
	require.NotNil(t, receipt)
	assert.Equal(t, uint64(1), uint64(receipt.Status))
	assert.Equal(t, uint64(100), uint64(receipt.BlockNumber))
}

func TestClientRPCError(t *testing.T) {
	srv := rpcStub(t, map[string]string{})
	defer srv.Close()

	_, err := NewClient(srv.URL).BlockNumber(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "method not found")
}

func TestClientSendRawTransaction(t *testing.T) {
	srv := rpcStub(t, map[string]string{
		"eth_sendRawTransaction": `"0x3333333333333333333333333333333333333333333333333333333333333333"`,
	})
	defer srv.Close()

	hash, err := NewClient(srv.URL).SendRawTransaction(context.Background(), "0xf86c...")
	require.NoError(t, err)
	assert.Equal(t, "0x3333333333333333333333333333333333333333333333333333333333333333", hash)
}
