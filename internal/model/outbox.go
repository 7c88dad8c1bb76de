package model

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// Outbox 消息状态
const (
	OutboxStatusPending = "PENDING"
	OutboxStatusSent    = "SENT"
	OutboxStatusFailed  = "FAILED"
)

// OutboxMessage 本地消息表 (Transactional Outbox)。
// 与业务变更同事务写入，由 relay 任务异步投递到 Kafka。
type OutboxMessage struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Topic      string    `gorm:"type:varchar(255);not null" json:"topic"`
	MessageKey string    `gorm:"type:varchar(255);not null" json:"message_key"`
	Payload    []byte    `gorm:"type:text;not null" json:"payload"`
	Status     string    `gorm:"type:varchar(16);not null;default:'PENDING';index" json:"status"`
	SentAt     *time.Time `json:"sent_at,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (OutboxMessage) TableName() string { return "outbox_messages" }

// CreateOutboxMessage 在当前事务内落一条待投递消息
func CreateOutboxMessage(tx *gorm.DB, topic, key string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	msg := OutboxMessage{
		Topic:      topic,
		MessageKey: key,
		Payload:    body,
		Status:     OutboxStatusPending,
	}
	return tx.Create(&msg).Error
}
