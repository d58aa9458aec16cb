package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gdb, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	return gdb, mock
}

func TestDecrementStockFloorsAtZero(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewProductRepository(gdb)

	// the floor lives in the statement itself: quantity is clamped with
	// GREATEST so concurrent decrements can never push it negative
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `products` SET `stock_quantity`=GREATEST\\(stock_quantity - \\?, 0\\),`updated_at`=\\? WHERE id = \\?").
		WithArgs(3, sqlmock.AnyArg(), uint(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.DecrementStock(context.Background(), 7, 3))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDecrementStockClampsOversizedQuantity(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewProductRepository(gdb)

	// ordering more than is in stock still issues the same floored
	// update rather than a raw subtraction
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `products` SET `stock_quantity`=GREATEST\\(stock_quantity - \\?, 0\\),`updated_at`=\\? WHERE id = \\?").
		WithArgs(1000, sqlmock.AnyArg(), uint(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.DecrementStock(context.Background(), 7, 1000))
	require.NoError(t, mock.ExpectationsWereMet())
}
