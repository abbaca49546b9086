package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"infotec-chatbot/internal/models"
)

func TestStatsFor_CountsAndTimestamps(t *testing.T) {
	first := models.NewTurn("hola", "¡Hola! 👋", models.IntentGeneralConversation, nil, nil)
	first.Timestamp = time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	shown := models.NewTurn("busco laptop", "lista", models.IntentSearchProduct, nil,
		[]models.ProductRef{{ID: 1, Name: "Laptop HP"}})
	shown.Timestamp = time.Date(2026, 8, 1, 10, 1, 0, 0, time.UTC)
	last := models.NewTurn("gracias", "de nada", models.IntentGeneralConversation, nil, nil)
	last.Timestamp = time.Date(2026, 8, 1, 10, 2, 0, 0, time.UTC)

	stats := StatsFor("s1", []models.Turn{first, shown, last})

	assert.Equal(t, "s1", stats.SessionID)
	assert.Equal(t, 3, stats.TurnCount)
	assert.Equal(t, 1, stats.ProductsShownCount)
	assert.Equal(t, 2, stats.IntentCount["general_conversation"])
	assert.Equal(t, 1, stats.IntentCount["search_product"])
	assert.Equal(t, "general_conversation", stats.LastIntent)
	assert.Equal(t, first.Timestamp, stats.FirstTimestamp)
	assert.Equal(t, last.Timestamp, stats.LastTimestamp)
}

func TestStatsFor_EmptyHistory(t *testing.T) {
	stats := StatsFor("vacio", nil)

	require.Equal(t, 0, stats.TurnCount)
	assert.Equal(t, 0, stats.ProductsShownCount)
	assert.Empty(t, stats.LastIntent)
	assert.True(t, stats.FirstTimestamp.IsZero())
	assert.True(t, stats.LastTimestamp.IsZero())
}
