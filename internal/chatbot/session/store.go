// Package session keeps the bounded per-conversation history the chatbot
// uses to resolve back-references like "la segunda". Two backends exist: an
// in-process sharded map and Redis for multi-instance deployments.
package session

import (
	"context"
	"time"

	"infotec-chatbot/internal/models"
)

// MaxTurns is the history window retained per session. Older turns are
// discarded oldest first.
const MaxTurns = 10

// Store persists conversation turns per session.
type Store interface {
	// History returns the retained turns, oldest first. An unknown session
	// yields an empty history, not an error.
	History(ctx context.Context, sessionID string) ([]models.Turn, error)
	// Save appends a turn and truncates the history to the window.
	Save(ctx context.Context, sessionID string, turn models.Turn) error
	// Clear drops one session.
	Clear(ctx context.Context, sessionID string) error
	// ClearAll drops every session and reports how many were removed.
	ClearAll(ctx context.Context) (int, error)
	// ActiveSessions lists session ids with retained history.
	ActiveSessions(ctx context.Context) ([]string, error)
}

// Stats summarizes one session's retained history.
type Stats struct {
	SessionID          string         `json:"sessionId"`
	TurnCount          int            `json:"turnCount"`
	ProductsShownCount int            `json:"productsShownCount"`
	IntentCount        map[string]int `json:"intentCount"`
	LastIntent         string         `json:"lastIntent,omitempty"`
	FirstTimestamp     time.Time      `json:"firstTimestamp,omitempty"`
	LastTimestamp      time.Time      `json:"lastTimestamp,omitempty"`
}

// StatsFor computes summary stats from a history slice.
func StatsFor(sessionID string, history []models.Turn) Stats {
	stats := Stats{
		SessionID:   sessionID,
		TurnCount:   len(history),
		IntentCount: make(map[string]int),
	}
	for _, turn := range history {
		stats.IntentCount[string(turn.Intent)]++
		if turn.ProductsShown {
			stats.ProductsShownCount++
		}
	}
	if len(history) > 0 {
		stats.LastIntent = string(history[len(history)-1].Intent)
		stats.FirstTimestamp = history[0].Timestamp
		stats.LastTimestamp = history[len(history)-1].Timestamp
	}
	return stats
}
