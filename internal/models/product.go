package models

// Product is the catalog record as returned by the Catalog Service.
type Product struct {
	ID             int64             `json:"id" db:"id"`
	Name           string            `json:"name" db:"name"`
	Description    string            `json:"description,omitempty" db:"description"`
	Price          float64           `json:"price" db:"price"`
	OriginalPrice  float64           `json:"originalPrice,omitempty" db:"original_price"`
	Brand          string            `json:"brand" db:"brand"`
	Category       string            `json:"category,omitempty" db:"category"`
	StockQuantity  int               `json:"stockQuantity" db:"stock_quantity"`
	Rating         float64           `json:"rating,omitempty" db:"rating"`
	Specifications map[string]string `json:"specifications,omitempty" db:"specifications"`
}

// DiscountPercent returns the rounded discount relative to the original
// price, or 0 when the product is not discounted.
func (p *Product) DiscountPercent() int {
	if p.OriginalPrice <= p.Price || p.OriginalPrice == 0 {
		return 0
	}
	return int((1-p.Price/p.OriginalPrice)*100 + 0.5)
}

// Ref projects the product down to the fields kept in session history for
// ordinal back-references.
func (p *Product) Ref() ProductRef {
	return ProductRef{
		Name:  p.Name,
		ID:    p.ID,
		Price: p.Price,
		Brand: p.Brand,
	}
}

// ProductRef is the lightweight projection stored on a Turn. It is never a
// substitute for the full catalog record.
type ProductRef struct {
	Name  string  `json:"name"`
	ID    int64   `json:"id,omitempty"`
	Price float64 `json:"price,omitempty"`
	Brand string  `json:"brand,omitempty"`
}

// Refs converts a product slice to its session projection, capped at limit.
func Refs(products []Product, limit int) []ProductRef {
	if limit > 0 && len(products) > limit {
		products = products[:limit]
	}
	refs := make([]ProductRef, 0, len(products))
	for i := range products {
		refs = append(refs, products[i].Ref())
	}
	return refs
}

// CartResult carries the Cart Service's verdict on an add operation. A
// business rejection (no stock, unknown product) is a failed result, not an
// error.
type CartResult struct {
	Success      bool        `json:"success"`
	Message      string      `json:"message"`
	Product      *ProductRef `json:"product,omitempty"`
	CartTotal    float64     `json:"cartTotal,omitempty"`
	ItemSubtotal float64     `json:"itemSubtotal,omitempty"`
}
