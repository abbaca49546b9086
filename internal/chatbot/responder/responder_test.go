package responder

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"infotec-chatbot/internal/models"
)

func TestPrepared(t *testing.T) {
	tests := []struct {
		message string
		want    string
		found   bool
	}{
		{"¿hacen envíos a provincia?", "🚚", true},
		{"¿qué garantía tienen las laptops?", "🛡️", true},
		{"¿puedo pagar en cuotas?", "💳", true},
		{"¿tienes otros modelos?", "más modelos", true},
		{"busco una laptop", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			reply, ok := Prepared(tt.message)
			assert.Equal(t, tt.found, ok)
			if tt.found {
				assert.Contains(t, reply, tt.want)
			}
		})
	}
}

func TestCasual(t *testing.T) {
	reply, ok := Casual("hola")
	assert.True(t, ok)
	assert.Equal(t, Greeting, reply)

	reply, ok = Casual("")
	assert.True(t, ok)
	assert.Equal(t, Greeting, reply)

	reply, ok = Casual("muchas gracias")
	assert.True(t, ok)
	assert.Equal(t, Thanks, reply)

	_, ok = Casual("necesito un monitor")
	assert.False(t, ok)
}

func TestProductList_DiscountAndStock(t *testing.T) {
	products := []models.Product{
		{Name: "Laptop HP Pavilion 15", Price: 2500, OriginalPrice: 2800, Rating: 4.5, StockQuantity: 8},
		{Name: "Laptop Lenovo V15 G4", Price: 1800, StockQuantity: 2},
	}

	out := ProductList(products)
	assert.Contains(t, out, "**1. Laptop HP Pavilion 15**")
	assert.Contains(t, out, "~~S/ 2800.00~~")
	assert.Contains(t, out, "(-11%)")
	assert.Contains(t, out, "**2. Laptop Lenovo V15 G4**")
	assert.Contains(t, out, "¡Solo quedan 2 en stock!")
}

func TestSpecSheet_StructuredSpecifications(t *testing.T) {
	p := models.Product{
		Name:          "Laptop Asus Vivobook 16X",
		Price:         3200,
		Brand:         "Asus",
		StockQuantity: 5,
		Specifications: map[string]string{
			"procesador": "Intel Core i7-12700H",
			"ram":        "16 GB DDR4",
		},
	}

	out := SpecSheet(p)
	assert.Contains(t, out, "Procesador: Intel Core i7-12700H")
	assert.Contains(t, out, "Memoria RAM: 16 GB DDR4")
	assert.Contains(t, out, "¿Te lo agrego al carrito?")
}

func TestSpecSheet_DerivesFromName(t *testing.T) {
	p := models.Product{
		Name:          "Laptop Lenovo V15 G4 Intel Core i5 8GB RAM 512GB SSD 15.6\"",
		Price:         2100,
		Brand:         "Lenovo",
		StockQuantity: 4,
	}

	out := SpecSheet(p)
	assert.Contains(t, out, "Procesador: Intel Core i5")
	assert.Contains(t, out, "Memoria RAM: 8 GB")
	assert.Contains(t, out, "Almacenamiento: 512GB SSD")
	assert.Contains(t, out, "Pantalla: 15.6\"")
}

func TestSpecSheet_OutOfStock(t *testing.T) {
	p := models.Product{Name: "Mouse Logitech G203", Price: 120}
	out := SpecSheet(p)
	assert.Contains(t, out, "agotado")
	assert.NotContains(t, out, "carrito")
}

func TestComparison_PointsAtCheaper(t *testing.T) {
	a := models.Product{Name: "Laptop A", Price: 2000}
	b := models.Product{Name: "Laptop B", Price: 2500}

	out := Comparison(a, b, []string{"precio"})
	assert.Contains(t, out, "El más económico es **Laptop A**")
	assert.Contains(t, out, "ahorras S/ 500.00")
	assert.Contains(t, out, "Comparando: precio")
}

func TestCartMessage(t *testing.T) {
	ok := &models.CartResult{
		Success:   true,
		Message:   "✅ Agregué 1 x Laptop A a tu carrito por S/ 2000.00.",
		CartTotal: 2000,
	}
	out := CartMessage(ok)
	assert.Contains(t, out, "Total del carrito: S/ 2000.00")

	failed := &models.CartResult{Success: false, Message: "Lo siento, Laptop A está agotado."}
	assert.Equal(t, failed.Message, CartMessage(failed))
}

func TestOrdinalClarification(t *testing.T) {
	out := OrdinalClarification(2)
	assert.Contains(t, out, "segunda")

	generic := OrdinalClarification(9)
	assert.True(t, strings.Contains(generic, "nombre"))
}
