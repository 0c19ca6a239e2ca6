package db

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/angelmondragon/relacksation-backend/pkg/config"
	"github.com/angelmondragon/relacksation-backend/pkg/logger"
)

type ledgerRow struct {
	ID   int
	Note string
}

func sqliteClient(t *testing.T) *Client {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&ledgerRow{}))
	return NewFromConn(conn)
}

func countRows(t *testing.T, c *Client) int64 {
	t.Helper()
	var n int64
	require.NoError(t, c.DB().Model(&ledgerRow{}).Count(&n).Error)
	return n
}

func TestWithTxCommitsOnSuccess(t *testing.T) {
	client := sqliteClient(t)

	err := client.WithTx(context.Background(), func(tx *gorm.DB) error {
		return tx.Create(&ledgerRow{Note: "kept"}).Error
	})

	require.NoError(t, err)
	assert.EqualValues(t, 1, countRows(t, client))
}

func TestWithTxRollsBackOnError(t *testing.T) {
	client := sqliteClient(t)
	boom := errors.New("boom")

	err := client.WithTx(context.Background(), func(tx *gorm.DB) error {
		require.NoError(t, tx.Create(&ledgerRow{Note: "discarded"}).Error)
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Zero(t, countRows(t, client))
}

func TestWithTxRollsBackAndRepanics(t *testing.T) {
	client := sqliteClient(t)

	assert.PanicsWithValue(t, "kaboom", func() {
		_ = client.WithTx(context.Background(), func(tx *gorm.DB) error {
			tx.Create(&ledgerRow{Note: "discarded"})
			panic("kaboom")
		})
	})
	assert.Zero(t, countRows(t, client))
}

func TestPing(t *testing.T) {
	assert.NoError(t, sqliteClient(t).Ping(context.Background()))
}

func TestIsUniqueViolation(t *testing.T) {
	pgxErr := &pgconn.PgError{Code: "23505", ConstraintName: "blocked_dates_active_date_idx"}
	pqErr := &pq.Error{Code: "23505", Constraint: "products_slug_key"}

	assert.True(t, IsUniqueViolation(pgxErr, ""))
	assert.True(t, IsUniqueViolation(pgxErr, "blocked_dates_active_date_idx"))
	assert.False(t, IsUniqueViolation(pgxErr, "products_slug_key"))
	assert.True(t, IsUniqueViolation(fmt.Errorf("insert: %w", pqErr), "products_slug_key"))
	assert.True(t, IsUniqueViolation(errors.New("UNIQUE constraint failed: products.slug"), ""))
	assert.False(t, IsUniqueViolation(errors.New("connection reset"), ""))
	assert.False(t, IsUniqueViolation(nil, ""))
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(fmt.Errorf("load: %w", gorm.ErrRecordNotFound)))
	assert.False(t, IsNotFound(errors.New("other")))
}

func TestNewValidatesConfig(t *testing.T) {
	_, err := New(context.Background(), config.DBConfig{}, nil)
	assert.ErrorContains(t, err, "DSN is required")

	_, err = New(context.Background(), config.DBConfig{DSN: "x", Driver: "mysql"}, nil)
	assert.ErrorContains(t, err, `unsupported database driver "mysql"`)
}

func TestNewOpensSQLite(t *testing.T) {
	client, err := New(context.Background(), config.DBConfig{
		DSN:          "file:" + t.Name() + "?mode=memory&cache=shared",
		Driver:       "sqlite",
		MaxOpenConns: 2,
	}, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	pool, err := client.DB().DB()
	require.NoError(t, err)
	assert.Equal(t, 2, pool.Stats().MaxOpenConnections)
}

func TestQueryLoggerReportsSlowAndFailedStatements(t *testing.T) {
	buf := &bytes.Buffer{}
	logg := logger.New(logger.Options{ServiceName: "db-test", Level: zerolog.DebugLevel, Output: buf, Format: "json"})
	ql := newQueryLogger(logg, 10*time.Millisecond)
	statement := func() (string, int64) { return "SELECT 1", 1 }

	ql.Trace(context.Background(), time.Now(), statement, nil)
	assert.Zero(t, buf.Len(), "fast successful queries stay quiet")

	ql.Trace(context.Background(), time.Now(), statement, gorm.ErrRecordNotFound)
	assert.Zero(t, buf.Len(), "not found is not a failure")

	ql.Trace(context.Background(), time.Now().Add(-time.Second), statement, nil)
	assert.Contains(t, buf.String(), `"message":"slow query"`)
	assert.Contains(t, buf.String(), `"sql":"SELECT 1"`)

	buf.Reset()
	ql.Trace(context.Background(), time.Now(), statement, errors.New("syntax error"))
	assert.Contains(t, buf.String(), `"message":"query failed"`)

	buf.Reset()
	ql.LogMode(gormlogger.Silent).Trace(context.Background(), time.Now(), statement, errors.New("syntax error"))
	assert.Zero(t, buf.Len())
}

func TestQueryLoggerWithoutServiceLoggerDiscards(t *testing.T) {
	assert.Equal(t, gormlogger.Discard, newQueryLogger(nil, time.Second))
}
