package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"infotec-chatbot/internal/common/logger"
)

func productRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "name", "description", "price", "original_price",
		"brand", "category", "stock_quantity", "rating",
	})
}

func TestSearch_KeywordAndPriceCeiling(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := productRows().
		AddRow(1, "Laptop HP Pavilion 15", "Laptop para estudiantes", 2500.0, 2800.0,
			"HP", "laptop", 8, 4.5).
		AddRow(2, "Laptop Lenovo IdeaPad 3", "Laptop económica", 1900.0, nil,
			"Lenovo", "laptop", 3, 4.2)

	mock.ExpectQuery(`SELECT .+ FROM products WHERE stock_quantity > 0 AND .*ILIKE.* AND price <= \$\d+ ORDER BY rating DESC, price ASC`).
		WithArgs("%laptop%", 3000.0, 10).
		WillReturnRows(rows)

	c := NewPostgresCatalog(db, nil, 0, logger.NewNoOpLogger())

	products, err := c.Search(context.Background(), "laptop", 3000, 10)
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "Laptop HP Pavilion 15", products[0].Name)
	assert.Equal(t, 2800.0, products[0].OriginalPrice)
	assert.Equal(t, 0.0, products[1].OriginalPrice)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearch_NoPriceCeiling(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT .+ FROM products WHERE stock_quantity > 0 AND`).
		WithArgs("%monitor%", "%asus%", 10).
		WillReturnRows(productRows())

	c := NewPostgresCatalog(db, nil, 0, logger.NewNoOpLogger())

	products, err := c.Search(context.Background(), "monitor asus", 0, 10)
	require.NoError(t, err)
	assert.Empty(t, products)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByName_ExactMatch(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT .+ FROM products WHERE name ILIKE \$1 AND stock_quantity > 0 LIMIT 1`).
		WithArgs("%HP Pavilion 15%").
		WillReturnRows(productRows().
			AddRow(1, "Laptop HP Pavilion 15", "", 2500.0, nil, "HP", "laptop", 8, 4.5))

	c := NewPostgresCatalog(db, nil, 0, logger.NewNoOpLogger())

	product, err := c.FindByName(context.Background(), "HP Pavilion 15")
	require.NoError(t, err)
	require.NotNil(t, product)
	assert.Equal(t, int64(1), product.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByName_KeywordFallback(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`WHERE name ILIKE \$1 AND stock_quantity > 0 LIMIT 1`).
		WithArgs("%pavilion gamer%").
		WillReturnRows(productRows())
	mock.ExpectQuery(`WHERE stock_quantity > 0 AND name ILIKE \$1 AND name ILIKE \$2 ORDER BY rating DESC LIMIT 1`).
		WithArgs("%pavilion%", "%gamer%").
		WillReturnRows(productRows().
			AddRow(4, "Laptop HP Pavilion Gamer", "", 3900.0, nil, "HP", "laptop", 2, 4.7))

	c := NewPostgresCatalog(db, nil, 0, logger.NewNoOpLogger())

	product, err := c.FindByName(context.Background(), "pavilion gamer")
	require.NoError(t, err)
	require.NotNil(t, product)
	assert.Equal(t, "Laptop HP Pavilion Gamer", product.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByName_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`LIMIT 1`).WillReturnRows(productRows())
	mock.ExpectQuery(`LIMIT 1`).WillReturnRows(productRows())

	c := NewPostgresCatalog(db, nil, 0, logger.NewNoOpLogger())

	product, err := c.FindByName(context.Background(), "inexistente total")
	require.NoError(t, err)
	assert.Nil(t, product)
}

func TestSearch_SlowDatabaseHitsDeadline(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT .+ FROM products`).
		WithArgs("%laptop%", 10).
		WillDelayFor(500 * time.Millisecond).
		WillReturnRows(productRows())

	c := NewPostgresCatalog(db, nil, 20*time.Millisecond, logger.NewNoOpLogger())

	_, err = c.Search(context.Background(), "laptop", 0, 10)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCandidates_CategoryAndUseCase(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT .+ FROM products WHERE stock_quantity > 0 AND \(category ILIKE \$1 OR name ILIKE \$1\) AND \(name ILIKE \$2 OR description ILIKE \$2\) ORDER BY rating DESC, price ASC LIMIT \$3`).
		WithArgs("%laptop%", "%gaming%", 50).
		WillReturnRows(productRows().
			AddRow(7, "Laptop Asus ROG Strix", "Laptop gaming", 5200.0, 5600.0, "Asus", "laptop", 4, 4.8))

	c := NewPostgresCatalog(db, nil, 0, logger.NewNoOpLogger())

	products, err := c.Candidates(context.Background(), "laptop", "gaming", 50)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Asus", products[0].Brand)
	assert.NoError(t, mock.ExpectationsWereMet())
}
