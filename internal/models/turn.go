package models

import "time"

// MaxShownProducts bounds the product projection persisted per turn.
const MaxShownProducts = 5

// Turn is one request/response exchange. Turns are immutable once created
// and owned exclusively by their session.
type Turn struct {
	Timestamp     time.Time              `json:"timestamp"`
	UserMessage   string                 `json:"userMessage"`
	BotResponse   string                 `json:"botResponse"`
	Intent        Intent                 `json:"intent"`
	Entities      map[string]interface{} `json:"entities,omitempty"`
	ProductsShown bool                   `json:"productsShown"`
	Products      []ProductRef           `json:"products,omitempty"`
}

// NewTurn builds a turn, enforcing the per-turn product cap.
func NewTurn(userMessage, botResponse string, intent Intent, entities map[string]interface{}, products []ProductRef) Turn {
	if len(products) > MaxShownProducts {
		products = products[:MaxShownProducts]
	}
	return Turn{
		Timestamp:     time.Now().UTC(),
		UserMessage:   userMessage,
		BotResponse:   botResponse,
		Intent:        intent,
		Entities:      entities,
		ProductsShown: len(products) > 0,
		Products:      products,
	}
}
