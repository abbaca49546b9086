package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"infotec-chatbot/internal/common/logger"
	"infotec-chatbot/internal/models"
)

// Service looks up products in the store catalog.
type Service interface {
	// Search finds in-stock products matching the free-text query. A
	// maxPrice of 0 means no price ceiling.
	Search(ctx context.Context, query string, maxPrice float64, limit int) ([]models.Product, error)
	// FindByName resolves a single product from a (possibly partial) name.
	FindByName(ctx context.Context, name string) (*models.Product, error)
	// Candidates returns in-stock products for a category and optional use
	// case, best rated first.
	Candidates(ctx context.Context, category, useCase string, limit int) ([]models.Product, error)
}

const productColumns = `id, name, description, price, original_price, brand, category, stock_quantity, rating`

// defaultQueryTimeout bounds catalog lookups when no timeout is configured.
const defaultQueryTimeout = 5 * time.Second

// PostgresCatalog serves catalog lookups from Postgres, optionally trying an
// Elasticsearch index first for free-text search.
type PostgresCatalog struct {
	db      *sql.DB
	index   *SearchIndex
	timeout time.Duration
	logger  logger.Logger
}

func NewPostgresCatalog(db *sql.DB, index *SearchIndex, timeout time.Duration, log logger.Logger) *PostgresCatalog {
	if timeout <= 0 {
		timeout = defaultQueryTimeout
	}
	return &PostgresCatalog{
		db:      db,
		index:   index,
		timeout: timeout,
		logger: log.With(map[string]interface{}{
			"service": "catalog",
		}),
	}
}

func (c *PostgresCatalog) Search(ctx context.Context, query string, maxPrice float64, limit int) ([]models.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if c.index != nil {
		products, err := c.index.Search(ctx, query, maxPrice, limit)
		if err == nil {
			return products, nil
		}
		c.logger.Warn("index search failed, falling back to SQL", map[string]interface{}{
			"error": err.Error(),
			"query": query,
		})
	}

	conditions := []string{"stock_quantity > 0"}
	var args []interface{}

	for _, kw := range searchKeywords(query) {
		args = append(args, "%"+kw+"%")
		p := "$" + strconv.Itoa(len(args))
		conditions = append(conditions, fmt.Sprintf(
			"(name ILIKE %[1]s OR description ILIKE %[1]s OR brand ILIKE %[1]s OR category ILIKE %[1]s)", p))
	}

	if maxPrice > 0 {
		args = append(args, maxPrice)
		conditions = append(conditions, "price <= $"+strconv.Itoa(len(args)))
	}

	args = append(args, limit)
	sqlQuery := `SELECT ` + productColumns + ` FROM products WHERE ` +
		strings.Join(conditions, " AND ") +
		` ORDER BY rating DESC, price ASC LIMIT $` + strconv.Itoa(len(args))

	return c.queryProducts(ctx, sqlQuery, args...)
}

func (c *PostgresCatalog) FindByName(ctx context.Context, name string) (*models.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}

	query := `SELECT ` + productColumns + ` FROM products WHERE name ILIKE $1 AND stock_quantity > 0 LIMIT 1`
	products, err := c.queryProducts(ctx, query, "%"+name+"%")
	if err != nil {
		return nil, err
	}
	if len(products) > 0 {
		return &products[0], nil
	}

	// Partial names from conversation rarely match whole. Require every
	// significant keyword to appear somewhere in the name instead.
	keywords := searchKeywords(name)
	if len(keywords) == 0 {
		return nil, nil
	}

	conditions := []string{"stock_quantity > 0"}
	var args []interface{}
	for _, kw := range keywords {
		args = append(args, "%"+kw+"%")
		conditions = append(conditions, "name ILIKE $"+strconv.Itoa(len(args)))
	}

	query = `SELECT ` + productColumns + ` FROM products WHERE ` +
		strings.Join(conditions, " AND ") + ` ORDER BY rating DESC LIMIT 1`
	products, err = c.queryProducts(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if len(products) > 0 {
		return &products[0], nil
	}
	return nil, nil
}

func (c *PostgresCatalog) Candidates(ctx context.Context, category, useCase string, limit int) ([]models.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	conditions := []string{"stock_quantity > 0"}
	var args []interface{}

	if category != "" {
		args = append(args, "%"+category+"%")
		p := "$" + strconv.Itoa(len(args))
		conditions = append(conditions, fmt.Sprintf("(category ILIKE %[1]s OR name ILIKE %[1]s)", p))
	}
	if useCase != "" {
		args = append(args, "%"+useCase+"%")
		p := "$" + strconv.Itoa(len(args))
		conditions = append(conditions, fmt.Sprintf("(name ILIKE %[1]s OR description ILIKE %[1]s)", p))
	}

	args = append(args, limit)
	query := `SELECT ` + productColumns + ` FROM products WHERE ` +
		strings.Join(conditions, " AND ") +
		` ORDER BY rating DESC, price ASC LIMIT $` + strconv.Itoa(len(args))

	return c.queryProducts(ctx, query, args...)
}

func (c *PostgresCatalog) queryProducts(ctx context.Context, query string, args ...interface{}) ([]models.Product, error) {
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		var p models.Product
		var originalPrice sql.NullFloat64
		var rating sql.NullFloat64
		err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &originalPrice,
			&p.Brand, &p.Category, &p.StockQuantity, &rating)
		if err != nil {
			return nil, err
		}
		p.OriginalPrice = originalPrice.Float64
		p.Rating = rating.Float64
		products = append(products, p)
	}
	return products, rows.Err()
}

// searchKeywords keeps the query words worth matching against the catalog.
func searchKeywords(query string) []string {
	var keywords []string
	for _, word := range strings.Fields(strings.ToLower(query)) {
		if len([]rune(word)) >= 3 {
			keywords = append(keywords, word)
		}
	}
	return keywords
}
