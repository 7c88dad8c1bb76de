package deposit

import (
	"context"

	"github.com/chibuike-kt/bsc-custody-ledger/pkg/evm"
)

// ChainRPC 是管道各阶段需要的链节点只读能力
type ChainRPC interface {
	BlockNumber(ctx context.Context) (uint64, error)
	Logs(ctx context.Context, filter evm.LogFilter) ([]evm.Log, error)
	TransactionReceipt(ctx context.Context, txHash string) (*evm.Receipt, error)
}
