package deposit

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/chibuike-kt/bsc-custody-ledger/internal/model"
	"github.com/chibuike-kt/bsc-custody-ledger/pkg/evm"
	"github.com/chibuike-kt/bsc-custody-ledger/pkg/logger"
	"github.com/chibuike-kt/bsc-custody-ledger/pkg/monitor"
	"github.com/chibuike-kt/bsc-custody-ledger/pkg/txrunner"
)

const scanCursorKey = "usdt_scan_block"

// Scanner 扫描发往托管地址的 token Transfer 事件。
// 每次运行只推进一个有界区块段，重复/并发运行靠 external_ref 唯一索引保证安全。
type Scanner struct {
	db    *gorm.DB
	rpc   ChainRPC
	chain string
	token string // token 合约地址 (小写)
	asset string // 拼 external_ref 用的资产标签 (小写)

	chunk    uint64 // 每次扫描的最大区块数
	backfill uint64 // 首次运行回溯的区块数
}

func NewScanner(db *gorm.DB, rpc ChainRPC, chain, token, asset string, chunk, backfill uint64) *Scanner {
	return &Scanner{
		db:       db,
		rpc:      rpc,
		chain:    chain,
		token:    strings.ToLower(token),
		asset:    strings.ToLower(asset),
		chunk:    chunk,
		backfill: backfill,
	}
}

// ScanResult 一次扫描的统计
type ScanResult struct {
	Head     uint64
	From     uint64
	To       uint64
	Logs     int
	Inserted int
}

func (s *Scanner) Run(ctx context.Context) (ScanResult, error) {
	var res ScanResult

	// 当前在册的充值地址
	var addresses []string
	if err := s.db.WithContext(ctx).Model(&model.WalletAddress{}).
		Where("chain = ? AND active = ?", s.chain, true).
		Pluck("address", &addresses).Error; err != nil {
		return res, err
	}
	if len(addresses) == 0 {
		logger.Debug("扫描器: 暂无充值地址", zap.String("chain", s.chain))
		return res, nil
	}

	head, err := s.rpc.BlockNumber(ctx)
	if err != nil {
		return res, err
	}
	res.Head = head

	cursor, err := s.loadCursor(ctx, head)
	if err != nil {
		return res, err
	}

	from := cursor + 1
	if from > head {
		return res, nil
	}
	to := from + s.chunk
	if to > head {
		to = head
	}
	res.From, res.To = from, to

	// topic[2] 是 indexed to 地址，左补零到 32 字节
	topicsTo := make([]string, 0, len(addresses))
	for _, a := range addresses {
		topicsTo = append(topicsTo, evm.AddressTopic(a))
	}

	logs, err := s.rpc.Logs(ctx, evm.LogFilter{
		FromBlock: evm.Uint64ToHex(from),
		ToBlock:   evm.Uint64ToHex(to),
		Address:   s.token,
		Topics: []interface{}{
			TransferTopic(),
			nil,
			topicsTo,
		},
	})
	if err != nil {
		return res, err
	}
	res.Logs = len(logs)

	for _, lg := range logs {
		dep, err := s.parseTransferLog(lg)
		if err != nil {
			logger.Warn("扫描器: 跳过无法解析的事件",
				zap.String("tx", lg.TxHash.Hex()), zap.Error(err))
			continue
		}

		// 重复扫描时唯一索引冲突，静默跳过
		insert := s.db.WithContext(ctx).
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(dep)
		if insert.Error != nil {
			return res, insert.Error
		}
		if insert.RowsAffected > 0 {
			res.Inserted++
			monitor.Business.DepositDetectedTotal.WithLabelValues(s.chain).Inc()
		}
	}

	if err := s.advanceCursor(ctx, to); err != nil {
		return res, err
	}
	monitor.Business.ScanCursorLag.WithLabelValues(s.chain).Set(float64(head - to))

	logger.Info("扫描完成",
		zap.Uint64("head", head),
		zap.Uint64("from", from),
		zap.Uint64("to", to),
		zap.Int("logs", res.Logs),
		zap.Int("inserted", res.Inserted))
	return res, nil
}

// loadCursor 读取游标，首次运行默认回溯 backfill 个区块。
// 查询失败必须报错中止本轮，不能当成无游标把扫描窗口拉回去。
func (s *Scanner) loadCursor(ctx context.Context, head uint64) (uint64, error) {
	var cur model.ChainCursor
	err := s.db.WithContext(ctx).
		Where("chain = ? AND cursor_key = ?", s.chain, scanCursorKey).
		First(&cur).Error
	switch {
	case err == nil:
		return cur.CursorValue, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		return 0, err
	}
	if head > s.backfill {
		return head - s.backfill, nil
	}
	return 0, nil
}

// advanceCursor 在独立事务里锁游标行并单调推进
func (s *Scanner) advanceCursor(ctx context.Context, to uint64) error {
	return txrunner.Run(s.db.WithContext(ctx), func(tx *gorm.DB) error {
		var cur model.ChainCursor
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("chain = ? AND cursor_key = ?", s.chain, scanCursorKey).
			First(&cur).Error
		if err == nil {
			// 并发扫描可能已经推得更远，只前进不后退
			return tx.Model(&model.ChainCursor{}).
				Where("id = ? AND cursor_value < ?", cur.ID, to).
				Update("cursor_value", to).Error
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&model.ChainCursor{
			ID:          uuid.NewString(),
			Chain:       s.chain,
			CursorKey:   scanCursorKey,
			CursorValue: to,
		}).Error
	})
}

// TransferTopic ERC-20 Transfer 事件的 topic0
func TransferTopic() string {
	return evm.TransferEventTopic.Hex()
}

// ExternalRef 充值事件的全局唯一引用
func ExternalRef(chain, asset, txHash string, logIndex uint64) string {
	return fmt.Sprintf("%s:%s:%s:%d", chain, asset, strings.ToLower(txHash), logIndex)
}

// parseTransferLog 把一条 Transfer 日志转为充值记录。
// 金额从 32 字节 data 走大整数解码，uint256 不会被截断。
func (s *Scanner) parseTransferLog(lg evm.Log) (*model.ChainDeposit, error) {
	if len(lg.Topics) < 3 {
		return nil, fmt.Errorf("transfer log has %d topics, want 3", len(lg.Topics))
	}

	amount := new(big.Int).SetBytes(lg.Data)
	txHash := strings.ToLower(lg.TxHash.Hex())

	return &model.ChainDeposit{
		ID:            uuid.NewString(),
		Chain:         s.chain,
		TokenContract: s.token,
		TxHash:        txHash,
		LogIndex:      uint64(lg.LogIndex),
		FromAddress:   evm.TopicAddress(lg.Topics[1]),
		ToAddress:     evm.TopicAddress(lg.Topics[2]),
		AmountRaw:     decimal.NewFromBigInt(amount, 0),
		BlockNumber:   uint64(lg.BlockNumber),
		BlockHash:     strings.ToLower(lg.BlockHash.Hex()),
		Status:        model.DepositStatusDetected,
		ExternalRef:   ExternalRef(s.chain, s.asset, txHash, uint64(lg.LogIndex)),
		CreatedAt:     time.Now(),
	}, nil
}
