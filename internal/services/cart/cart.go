package cart

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"infotec-chatbot/internal/common/logger"
	"infotec-chatbot/internal/models"
)

// Service adds products to the shopping cart. Business rejections (unknown
// product, not enough stock) come back as a failed CartResult, not an error;
// errors mean the cart backend itself is unavailable.
type Service interface {
	Add(ctx context.Context, productID int64, quantity int, userID, sessionID string) (*models.CartResult, error)
}

// defaultQueryTimeout bounds the cart transaction when no timeout is
// configured.
const defaultQueryTimeout = 5 * time.Second

type PostgresCart struct {
	db      *sql.DB
	timeout time.Duration
	logger  logger.Logger
}

func NewPostgresCart(db *sql.DB, timeout time.Duration, log logger.Logger) *PostgresCart {
	if timeout <= 0 {
		timeout = defaultQueryTimeout
	}
	return &PostgresCart{
		db:      db,
		timeout: timeout,
		logger: log.With(map[string]interface{}{
			"service": "cart",
		}),
	}
}

func (c *PostgresCart) Add(ctx context.Context, productID int64, quantity int, userID, sessionID string) (*models.CartResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if quantity <= 0 {
		quantity = 1
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin cart transaction: %w", err)
	}
	defer tx.Rollback()

	var name, brand string
	var price float64
	var stock int
	err = tx.QueryRowContext(ctx,
		`SELECT name, brand, price, stock_quantity FROM products WHERE id = $1 FOR UPDATE`,
		productID,
	).Scan(&name, &brand, &price, &stock)
	if err == sql.ErrNoRows {
		return &models.CartResult{
			Success: false,
			Message: "El producto ya no está disponible en el catálogo.",
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load product %d: %w", productID, err)
	}

	if stock < quantity {
		msg := fmt.Sprintf("Solo quedan %d unidades de %s en stock.", stock, name)
		if stock == 0 {
			msg = fmt.Sprintf("Lo siento, %s está agotado.", name)
		}
		return &models.CartResult{Success: false, Message: msg}, nil
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO cart_items (user_id, session_id, product_id, quantity, unit_price)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (session_id, product_id)
		 DO UPDATE SET quantity = cart_items.quantity + $4`,
		userID, sessionID, productID, quantity, price)
	if err != nil {
		return nil, fmt.Errorf("insert cart item: %w", err)
	}

	var cartTotal float64
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(quantity * unit_price), 0) FROM cart_items WHERE session_id = $1`,
		sessionID,
	).Scan(&cartTotal)
	if err != nil {
		return nil, fmt.Errorf("cart total: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit cart transaction: %w", err)
	}

	subtotal := price * float64(quantity)
	c.logger.Info("product added to cart", map[string]interface{}{
		"sessionID": sessionID,
		"productID": productID,
		"quantity":  quantity,
	})

	return &models.CartResult{
		Success: true,
		Message: fmt.Sprintf("✅ Agregué %d x %s a tu carrito por S/ %.2f.", quantity, name, subtotal),
		Product: &models.ProductRef{
			Name:  name,
			ID:    productID,
			Price: price,
			Brand: brand,
		},
		CartTotal:    cartTotal,
		ItemSubtotal: subtotal,
	}, nil
}
