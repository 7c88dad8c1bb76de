package outbox

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func mockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: db, PreferSimpleProtocol: true}), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	return gdb, mock
}

func TestRetryFailedRequeues(t *testing.T) {
	gdb, mock := mockDB(t)
	r := &Relay{db: gdb}

	// FAILED 批量置回 PENDING，交给下一轮投递
	mock.ExpectExec(`UPDATE "outbox_messages" SET .+ WHERE status = \$\d`).
		WillReturnResult(sqlmock.NewResult(0, 2))

	require.NoError(t, r.RetryFailed(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunEmptyBatch(t *testing.T) {
	gdb, mock := mockDB(t)
	r := &Relay{db: gdb}

	mock.ExpectQuery(`SELECT .+ FROM "outbox_messages" WHERE status = \$1 ORDER BY id ASC`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "topic", "message_key", "payload", "status"}))

	sent, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sent, "没有待投递消息时不应碰 Kafka")
	assert.NoError(t, mock.ExpectationsWereMet())
}
