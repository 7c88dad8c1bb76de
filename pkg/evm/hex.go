package evm

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/chibuike-kt/bsc-custody-ledger/pkg/errno"
)

// NormalizeAddress 校验并规范化 EVM 地址 (要求 0x 前缀，返回全小写)
func NormalizeAddress(a string) (string, error) {
	a = strings.ToLower(strings.TrimSpace(a))
	if !strings.HasPrefix(a, "0x") || len(a) != 42 || !common.IsHexAddress(a) {
		return "", errno.ErrInvalidAddress
	}
	return a, nil
}

// HexToBig 解析 0x 前缀的十六进制数量。
// 链上 uint256 可能超过 uint64，必须全程走大整数，不允许原生整型截断。
func HexToBig(s string) (*big.Int, error) {
	h := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "0x")
	if h == "" {
		return new(big.Int), nil
	}
	n, ok := new(big.Int).SetString(h, 16)
	if !ok {
		return nil, fmt.Errorf("invalid hex quantity: %q", s)
	}
	return n, nil
}

func BigToHex(n *big.Int) string {
	return "0x" + n.Text(16)
}

func Uint64ToHex(n uint64) string {
	return fmt.Sprintf("0x%x", n)
}

// AddressTopic 把地址左补零到 32 字节，作为 indexed address 的 topic 值
func AddressTopic(addr string) string {
	return "0x" + strings.Repeat("0", 24) + strings.TrimPrefix(strings.ToLower(addr), "0x")
}

// TopicAddress 从 32 字节 topic 还原出地址 (小写)
func TopicAddress(topic common.Hash) string {
	return strings.ToLower(common.BytesToAddress(topic.Bytes()[12:]).Hex())
}
