package ledger

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/chibuike-kt/bsc-custody-ledger/pkg/errno"
)

func mockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: db, PreferSimpleProtocol: true}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return gdb, mock
}

func TestCreditDepositIdempotentShortCircuit(t *testing.T) {
	gdb, mock := mockDB(t)
	svc := NewService(gdb)

	// 同 reference 的凭证已存在: 返回原 journal id，不再产生任何写入
	mock.ExpectQuery(`SELECT .+ FROM "journals" WHERE reference = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "type", "reference", "status"}).
			AddRow("journal-1", JournalTypeDeposit, "bsc:usdt:0xabc:0", "posted"))

	journalID, err := svc.CreditDeposit(gdb, "user-1", "USDT.BSC", decimal.NewFromInt(100), "bsc:usdt:0xabc:0")
	require.NoError(t, err)
	assert.Equal(t, "journal-1", journalID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreditDepositRejectsInvalidAmount(t *testing.T) {
	gdb, _ := mockDB(t)
	svc := NewService(gdb)

	_, err := svc.CreditDeposit(gdb, "user-1", "USDT.BSC", decimal.Zero, "ref")
	assert.ErrorIs(t, err, errno.ErrInvalidAmount)

	_, err = svc.CreditDeposit(gdb, "user-1", "USDT.BSC", decimal.NewFromFloat(1.5), "ref")
	assert.ErrorIs(t, err, errno.ErrInvalidAmount)
}
