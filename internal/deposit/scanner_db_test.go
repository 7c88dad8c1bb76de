package deposit

import (
	"context"
	"errors"
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
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return gdb, mock
}

func TestLoadCursorExisting(t *testing.T) {
	gdb, mock := mockDB(t)
	s := NewScanner(gdb, nil, "bsc", "0xtoken", "usdt", 100, 200)

	mock.ExpectQuery(`SELECT .+ FROM "chain_cursors" WHERE chain = \$1 AND cursor_key = \$2`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "chain", "cursor_key", "cursor_value"}).
			AddRow("cursor-1", "bsc", "usdt_scan_block", 12345))

	cursor, err := s.loadCursor(context.Background(), 20000)
	require.NoError(t, err)
	assert.Equal(t, uint64(12345), cursor)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadCursorFirstRunBackfill(t *testing.T) {
	gdb, mock := mockDB(t)
	s := NewScanner(gdb, nil, "bsc", "0xtoken", "usdt", 100, 200)

	// 无游标: 从 head 回溯 backfill 个区块
	mock.ExpectQuery(`SELECT .+ FROM "chain_cursors"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	cursor, err := s.loadCursor(context.Background(), 20000)
	require.NoError(t, err)
	assert.Equal(t, uint64(19800), cursor)

	// head 不够回溯时从创世开始
	mock.ExpectQuery(`SELECT .+ FROM "chain_cursors"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	cursor, err = s.loadCursor(context.Background(), 150)
	require.NoError(t, err)
	assert.Zero(t, cursor)
}

func TestLoadCursorPropagatesQueryError(t *testing.T) {
	gdb, mock := mockDB(t)
	s := NewScanner(gdb, nil, "bsc", "0xtoken", "usdt", 100, 200)

	// 查询失败不能当成无游标把窗口拉回 head-backfill
	mock.ExpectQuery(`SELECT .+ FROM "chain_cursors"`).
		WillReturnError(errors.New("connection reset"))

	_, err := s.loadCursor(context.Background(), 20000)
	require.Error(t, err)
	assert.ErrorContains(t, err, "connection reset")
}
