package cart

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"infotec-chatbot/internal/common/logger"
)

func TestAdd_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT name, brand, price, stock_quantity FROM products`).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"name", "brand", "price", "stock_quantity"}).
			AddRow("Laptop HP Pavilion 15", "HP", 2500.0, 8))
	mock.ExpectExec(`INSERT INTO cart_items`).
		WithArgs("user-1", "sess-1", int64(3), 2, 2500.0).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery(`SELECT COALESCE\(SUM`).
		WithArgs("sess-1").
		WillReturnRows(sqlmock.NewRows([]string{"total"}).AddRow(5000.0))
	mock.ExpectCommit()

	svc := NewPostgresCart(db, 0, logger.NewNoOpLogger())

	result, err := svc.Add(context.Background(), 3, 2, "user-1", "sess-1")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Contains(t, result.Message, "Laptop HP Pavilion 15")
	assert.Equal(t, 5000.0, result.CartTotal)
	assert.Equal(t, 5000.0, result.ItemSubtotal)
	require.NotNil(t, result.Product)
	assert.Equal(t, "HP", result.Product.Brand)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdd_InsufficientStock(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT name, brand, price, stock_quantity FROM products`).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"name", "brand", "price", "stock_quantity"}).
			AddRow("Mouse Logitech G203", "Logitech", 120.0, 1))
	mock.ExpectRollback()

	svc := NewPostgresCart(db, 0, logger.NewNoOpLogger())

	result, err := svc.Add(context.Background(), 3, 5, "user-1", "sess-1")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "Solo quedan 1 unidades")
}

func TestAdd_OutOfStock(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT name, brand, price, stock_quantity FROM products`).
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"name", "brand", "price", "stock_quantity"}).
			AddRow("Teclado Redragon Kumara", "Redragon", 150.0, 0))
	mock.ExpectRollback()

	svc := NewPostgresCart(db, 0, logger.NewNoOpLogger())

	result, err := svc.Add(context.Background(), 9, 1, "user-1", "sess-1")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "agotado")
}

func TestAdd_UnknownProduct(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT name, brand, price, stock_quantity FROM products`).
		WithArgs(int64(404)).
		WillReturnRows(sqlmock.NewRows([]string{"name", "brand", "price", "stock_quantity"}))
	mock.ExpectRollback()

	svc := NewPostgresCart(db, 0, logger.NewNoOpLogger())

	result, err := svc.Add(context.Background(), 404, 1, "user-1", "sess-1")
	require.NoError(t, err)
	assert.False(t, result.Success)
}

func TestAdd_DefaultsQuantityToOne(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT name, brand, price, stock_quantity FROM products`).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"name", "brand", "price", "stock_quantity"}).
			AddRow("Laptop HP Pavilion 15", "HP", 2500.0, 8))
	mock.ExpectExec(`INSERT INTO cart_items`).
		WithArgs("user-1", "sess-1", int64(3), 1, 2500.0).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery(`SELECT COALESCE\(SUM`).
		WithArgs("sess-1").
		WillReturnRows(sqlmock.NewRows([]string{"total"}).AddRow(2500.0))
	mock.ExpectCommit()

	svc := NewPostgresCart(db, 0, logger.NewNoOpLogger())

	result, err := svc.Add(context.Background(), 3, 0, "user-1", "sess-1")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 2500.0, result.ItemSubtotal)
}

func TestAdd_SlowDatabaseHitsDeadline(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT name, brand, price, stock_quantity FROM products`).
		WithArgs(int64(3)).
		WillDelayFor(500 * time.Millisecond).
		WillReturnRows(sqlmock.NewRows([]string{"name", "brand", "price", "stock_quantity"}).
			AddRow("Laptop HP Pavilion 15", "HP", 2500.0, 8))
	mock.ExpectRollback()

	svc := NewPostgresCart(db, 20*time.Millisecond, logger.NewNoOpLogger())

	result, err := svc.Add(context.Background(), 3, 1, "user-1", "sess-1")
	require.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
