package outbox

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/chibuike-kt/bsc-custody-ledger/internal/model"
	"github.com/chibuike-kt/bsc-custody-ledger/pkg/logger"
)

const relayBatchLimit = 100

// Relay 把本地消息表里的待投递消息推到 Kafka。
// 至少一次投递: 发送成功才标 SENT，消费者自行去重。
type Relay struct {
	db     *gorm.DB
	writer *kafka.Writer
}

func NewRelay(db *gorm.DB, brokers []string) *Relay {
	return &Relay{
		db: db,
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			BatchTimeout: 100 * time.Millisecond,
		},
	}
}

func (r *Relay) Close() error {
	return r.writer.Close()
}

func (r *Relay) Run(ctx context.Context) (int, error) {
	var rows []model.OutboxMessage
	err := r.db.WithContext(ctx).
		Where("status = ?", model.OutboxStatusPending).
		Order("id ASC").
		Limit(relayBatchLimit).
		Find(&rows).Error
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}

	sent := 0
	for _, msg := range rows {
		err := r.writer.WriteMessages(ctx, kafka.Message{
			Topic: msg.Topic,
			Key:   []byte(msg.MessageKey),
			Value: msg.Payload,
		})
		if err != nil {
			logger.Warn("outbox: 投递失败", zap.Uint64("id", msg.ID), zap.String("topic", msg.Topic), zap.Error(err))
			if err := r.db.WithContext(ctx).Model(&model.OutboxMessage{}).
				Where("id = ?", msg.ID).
				Update("status", model.OutboxStatusFailed).Error; err != nil {
				return sent, err
			}
			continue
		}

		now := time.Now()
		if err := r.db.WithContext(ctx).Model(&model.OutboxMessage{}).
			Where("id = ?", msg.ID).
			Updates(map[string]interface{}{
				"status":  model.OutboxStatusSent,
				"sent_at": &now,
			}).Error; err != nil {
			return sent, err
		}
		sent++
	}

	logger.Info("outbox 批次完成", zap.Int("sent", sent), zap.Int("total", len(rows)))
	return sent, nil
}

// RetryFailed 把 FAILED 的消息重新置回 PENDING，交给下一轮投递
func (r *Relay) RetryFailed(ctx context.Context) error {
	return r.db.WithContext(ctx).Model(&model.OutboxMessage{}).
		Where("status = ?", model.OutboxStatusFailed).
		Update("status", model.OutboxStatusPending).Error
}
