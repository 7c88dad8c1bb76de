package deposit

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/chibuike-kt/bsc-custody-ledger/internal/model"
)

func TestOrphanTarget(t *testing.T) {
	// 已入账的充值不能直接标 orphaned，要进人工审查队列
	assert.Equal(t, model.DepositStatusOrphanedReview, OrphanTarget(model.DepositStatusCredited))

	// 没入账的直接作废
	assert.Equal(t, model.DepositStatusOrphaned, OrphanTarget(model.DepositStatusDetected))
	assert.Equal(t, model.DepositStatusOrphaned, OrphanTarget(model.DepositStatusConfirming))
	assert.Equal(t, model.DepositStatusOrphaned, OrphanTarget(model.DepositStatusConfirmed))
}
