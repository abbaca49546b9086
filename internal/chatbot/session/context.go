package session

import (
	"fmt"
	"strings"

	"infotec-chatbot/internal/chatbot/rules"
	"infotec-chatbot/internal/models"
)

// contextTurns is how far back the generator prompt looks.
const contextTurns = 4

// BuildContextString flattens recent history into the plain-text block fed
// to generator prompts. User messages are summarized to keep the prompt
// small; bot turns that showed products list the product names instead of
// the full reply.
func BuildContextString(history []models.Turn) string {
	if len(history) == 0 {
		return ""
	}
	if len(history) > contextTurns {
		history = history[len(history)-contextTurns:]
	}

	var parts []string
	for _, turn := range history {
		line := "Usuario: " + truncate(turn.UserMessage, 100)
		if turn.Intent != "" {
			line += fmt.Sprintf(" [%s]", turn.Intent)
		}
		parts = append(parts, line)

		names := shownProductNames(turn)
		if len(names) > 0 {
			parts = append(parts, "Bot mostró productos: "+strings.Join(names, ", "))
		} else {
			parts = append(parts, "Bot: "+truncate(turn.BotResponse, 100))
		}
	}
	return strings.Join(parts, "\n")
}

// shownProductNames prefers the structured projection saved on the turn and
// falls back to scraping the formatted reply for turns that predate it.
func shownProductNames(turn models.Turn) []string {
	if !turn.ProductsShown {
		return nil
	}
	if len(turn.Products) > 0 {
		names := make([]string, 0, len(turn.Products))
		for _, p := range turn.Products {
			names = append(names, p.Name)
		}
		if len(names) > models.MaxShownProducts {
			names = names[:models.MaxShownProducts]
		}
		return names
	}
	names := rules.ScrapeProductNames(turn.BotResponse)
	if len(names) > models.MaxShownProducts {
		names = names[:models.MaxShownProducts]
	}
	return names
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
