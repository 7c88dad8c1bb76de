package txrunner

import (
	"math/rand"
	"strings"
	"time"

	"gorm.io/gorm"
)

// 事务级重试参数。瞬时冲突 (死锁/锁等待超时) 回滚后整体重跑，
// 指数退避加抖动，最多 3 次，其他错误直接上抛。
const (
	maxAttempts = 3
	baseDelay   = 50 * time.Millisecond
	maxDelay    = 400 * time.Millisecond
	maxJitter   = 50 * time.Millisecond
)

// Run 在一个数据库事务内执行 fn。
// fn 必须是可重入的: 重试时会在全新事务里从头执行一遍。
func Run(db *gorm.DB, fn func(tx *gorm.DB) error) error {
	return retry(func() error {
		return db.Transaction(fn)
	})
}

func retry(do func() error) error {
	for attempt := 1; ; attempt++ {
		err := do()
		if err == nil {
			return nil
		}
		if attempt >= maxAttempts || !IsRetryable(err) {
			return err
		}

		delay := baseDelay << (attempt - 1)
		if delay > maxDelay {
			delay = maxDelay
		}
		jitter := time.Duration(rand.Int63n(int64(maxJitter)))
		time.Sleep(delay + jitter)
	}
}

// IsRetryable 判断错误是否属于可重试的瞬时存储冲突
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	msg := strings.ToLower(err.Error())

	// PostgreSQL: serialization_failure / deadlock_detected / lock_not_available
	if strings.Contains(msg, "sqlstate 40001") || strings.Contains(msg, "sqlstate 40p01") {
		return true
	}
	if strings.Contains(msg, "deadlock") {
		return true
	}
	if strings.Contains(msg, "lock wait timeout") {
		return true
	}
	if strings.Contains(msg, "could not serialize access") {
		return true
	}

	return false
}
