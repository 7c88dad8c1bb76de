package evm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Client 是链节点 JSON-RPC 的薄封装。
// 自身不做任何重试，瞬时失败由调用方 (批处理命令) 决定如何处理。
type Client struct {
	url  string
	http *http.Client
}

func NewClient(url string) *Client {
	return &Client{
		url:  url,
		http: &http.Client{Timeout: 20 * time.Second},
	}
}

type rpcRequest struct {
	Jsonrpc string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

func (c *Client) call(ctx context.Context, method string, params []interface{}, out interface{}) error {
	if params == nil {
		params = []interface{}{}
	}
	body, err := json.Marshal(rpcRequest{Jsonrpc: "2.0", ID: 1, Method: method, Params: params})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return err
	}

	var rpcRes rpcResponse
	if err := json.Unmarshal(raw, &rpcRes); err != nil {
		return fmt.Errorf("rpc invalid response: %w", err)
	}
	if rpcRes.Error != nil {
		return rpcRes.Error
	}
	if out == nil {
		return nil
	}
	if len(rpcRes.Result) == 0 || string(rpcRes.Result) == "null" {
		return nil
	}
	return json.Unmarshal(rpcRes.Result, out)
}

// Log eth_getLogs 返回的单条事件
type Log struct {
	Address     common.Address `json:"address"`
	Topics      []common.Hash  `json:"topics"`
	Data        hexutil.Bytes  `json:"data"`
	BlockNumber hexutil.Uint64 `json:"blockNumber"`
	BlockHash   common.Hash    `json:"blockHash"`
	TxHash      common.Hash    `json:"transactionHash"`
	LogIndex    hexutil.Uint   `json:"logIndex"`
}

// LogFilter eth_getLogs 查询条件。Topics 按位置过滤，nil 表示任意。
type LogFilter struct {
	FromBlock string        `json:"fromBlock"`
	ToBlock   string        `json:"toBlock"`
	Address   string        `json:"address"`
	Topics    []interface{} `json:"topics"`
}

// Receipt 只保留对账需要的字段
type Receipt struct {
	Status      hexutil.Uint64 `json:"status"`
	BlockNumber hexutil.Uint64 `json:"blockNumber"`
	BlockHash   common.Hash    `json:"blockHash"`
	TxHash      common.Hash    `json:"transactionHash"`
}

// BlockNumber 当前链头高度
func (c *Client) BlockNumber(ctx context.Context) (uint64, error) {
	var head hexutil.Uint64
	if err := c.call(ctx, "eth_blockNumber", nil, &head); err != nil {
		return 0, err
	}
	return uint64(head), nil
}

// Logs 按过滤条件查询事件
func (c *Client) Logs(ctx context.Context, filter LogFilter) ([]Log, error) {
	var logs []Log
	if err := c.call(ctx, "eth_getLogs", []interface{}{filter}, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}

// TransactionReceipt 按交易哈希查询回执。
// 交易未上链 (或被重组丢弃) 时返回 (nil, nil)。
func (c *Client) TransactionReceipt(ctx context.Context, txHash string) (*Receipt, error) {
	var receipt Receipt
	empty := common.Hash{}
	if err := c.call(ctx, "eth_getTransactionReceipt", []interface{}{txHash}, &receipt); err != nil {
		return nil, err
	}
	if receipt.TxHash == empty {
		return nil, nil
	}
	return &receipt, nil
}

// PendingNonce 钱包的 pending 交易计数，用作 nonce 种子
func (c *Client) PendingNonce(ctx context.Context, address string) (uint64, error) {
	var nonce hexutil.Uint64
	if err := c.call(ctx, "eth_getTransactionCount", []interface{}{address, "pending"}, &nonce); err != nil {
		return 0, err
	}
	return uint64(nonce), nil
}

// GasPrice 当前建议 gas price (wei)
func (c *Client) GasPrice(ctx context.Context) (*big.Int, error) {
	var price hexutil.Big
	if err := c.call(ctx, "eth_gasPrice", nil, &price); err != nil {
		return nil, err
	}
	return price.ToInt(), nil
}

// SendRawTransaction 广播已签名交易，返回交易哈希
func (c *Client) SendRawTransaction(ctx context.Context, rawTx string) (string, error) {
	var hash common.Hash
	if err := c.call(ctx, "eth_sendRawTransaction", []interface{}{rawTx}, &hash); err != nil {
		return "", err
	}
	return hash.Hex(), nil
}
