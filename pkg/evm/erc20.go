package evm

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/chibuike-kt/bsc-custody-ledger/pkg/errno"
)

// TransferEventTopic keccak256("Transfer(address,address,uint256)")
var TransferEventTopic = crypto.Keccak256Hash([]byte("Transfer(address,address,uint256)"))

// transfer(address,uint256) 的 4 字节方法选择器 (a9059cbb)
var transferMethodID = crypto.Keccak256([]byte("transfer(address,uint256)"))[:4]

// TransferCalldata 构造 ERC-20 transfer 调用数据
func TransferCalldata(toAddress string, amount *big.Int) ([]byte, error) {
	to, err := NormalizeAddress(toAddress)
	if err != nil {
		return nil, err
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, errno.ErrInvalidAmount
	}

	data := make([]byte, 0, 4+32+32)
	data = append(data, transferMethodID...)
	data = append(data, common.LeftPadBytes(common.HexToAddress(to).Bytes(), 32)...)
	data = append(data, common.LeftPadBytes(amount.Bytes(), 32)...)
	return data, nil
}
