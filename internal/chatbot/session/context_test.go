package session

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"infotec-chatbot/internal/models"
)

func TestBuildContextString_Empty(t *testing.T) {
	assert.Equal(t, "", BuildContextString(nil))
}

func TestBuildContextString_UsesOnlyRecentTurns(t *testing.T) {
	var history []models.Turn
	for i := 1; i <= 6; i++ {
		history = append(history, models.NewTurn(
			fmt.Sprintf("mensaje %d", i), "ok", models.IntentGeneralConversation, nil, nil))
	}

	out := BuildContextString(history)
	assert.NotContains(t, out, "mensaje 2")
	assert.Contains(t, out, "mensaje 3")
	assert.Contains(t, out, "mensaje 6")
}

func TestBuildContextString_SummarizesLongMessages(t *testing.T) {
	long := strings.Repeat("a", 150)
	history := []models.Turn{
		models.NewTurn(long, "ok", models.IntentGeneralConversation, nil, nil),
	}

	out := BuildContextString(history)
	assert.Contains(t, out, strings.Repeat("a", 100)+"...")
	assert.NotContains(t, out, strings.Repeat("a", 101))
}

func TestBuildContextString_ListsShownProducts(t *testing.T) {
	history := []models.Turn{
		models.NewTurn("busco laptops", "aquí tienes", models.IntentSearchProduct, nil,
			[]models.ProductRef{
				{Name: "Laptop HP Pavilion 15"},
				{Name: "Laptop Lenovo IdeaPad 3"},
			}),
	}

	out := BuildContextString(history)
	assert.Contains(t, out, "Bot mostró productos: Laptop HP Pavilion 15, Laptop Lenovo IdeaPad 3")
	assert.Contains(t, out, "[search_product]")
}

func TestBuildContextString_SameHistorySameOutput(t *testing.T) {
	history := []models.Turn{
		models.NewTurn("busco laptops", "aquí tienes", models.IntentSearchProduct, nil,
			[]models.ProductRef{{Name: "Laptop HP Pavilion 15"}}),
		models.NewTurn(strings.Repeat("b", 120), "ok", models.IntentGeneralConversation, nil, nil),
	}

	first := BuildContextString(history)
	second := BuildContextString(history)
	assert.Equal(t, first, second)
}

func TestBuildContextString_ScrapesLegacyTurns(t *testing.T) {
	legacy := models.Turn{
		UserMessage:   "recomiéndame laptops",
		BotResponse:   "**1. Laptop HP Pavilion 15**\n💰 **S/ 2500**\n**2. Laptop Asus Vivobook 16**\n💰 **S/ 2900**",
		Intent:        models.IntentRecommendCategory,
		ProductsShown: true,
	}

	out := BuildContextString([]models.Turn{legacy})
	assert.Contains(t, out, "Laptop HP Pavilion 15")
	assert.Contains(t, out, "Laptop Asus Vivobook 16")
}
