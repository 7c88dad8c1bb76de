package evm

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// SignContractCall 用私钥对合约调用交易做 EIP-155 签名。
// 返回可直接广播的原始交易十六进制串和交易哈希。
func SignContractCall(privateKeyHex string, chainID int64, nonce uint64, contract string, gasPrice *big.Int, gasLimit uint64, data []byte) (string, string, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return "", "", err
	}

	tx := types.NewTransaction(nonce, common.HexToAddress(contract), new(big.Int), gasLimit, gasPrice, data)

	signed, err := types.SignTx(tx, types.NewEIP155Signer(big.NewInt(chainID)), key)
	if err != nil {
		return "", "", err
	}

	raw, err := signed.MarshalBinary()
	if err != nil {
		return "", "", err
	}

	return hexutil.Encode(raw), strings.ToLower(signed.Hash().Hex()), nil
}
