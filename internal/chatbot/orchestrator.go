// Package chatbot is the dialogue orchestration entry point: classify the
// message, extract entities, dispatch the action and persist the turn.
package chatbot

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"infotec-chatbot/internal/chatbot/classifier"
	"infotec-chatbot/internal/chatbot/dispatcher"
	"infotec-chatbot/internal/chatbot/extractor"
	"infotec-chatbot/internal/chatbot/responder"
	"infotec-chatbot/internal/chatbot/session"
	"infotec-chatbot/internal/common/logger"
	"infotec-chatbot/internal/common/metrics"
	"infotec-chatbot/internal/common/observability"
	"infotec-chatbot/internal/models"
)

// Response is the unified envelope returned for every message. HandleMessage
// never fails: internal faults produce an apology with intent "error".
type Response struct {
	Response       string                 `json:"response"`
	Intent         string                 `json:"intent"`
	Entities       map[string]interface{} `json:"entities"`
	Products       []models.ProductRef    `json:"products,omitempty"`
	CartAction     *models.CartResult     `json:"cartAction,omitempty"`
	ConversationID string                 `json:"conversationId"`
}

type Orchestrator struct {
	classifier *classifier.Classifier
	dispatcher *dispatcher.Dispatcher
	store      session.Store
	obs        *observability.Observability
	logger     logger.Logger
}

func NewOrchestrator(cls *classifier.Classifier, disp *dispatcher.Dispatcher, store session.Store,
	obs *observability.Observability, log logger.Logger) *Orchestrator {
	return &Orchestrator{
		classifier: cls,
		dispatcher: disp,
		store:      store,
		obs:        obs,
		logger: log.With(map[string]interface{}{
			"component": "orchestrator",
		}),
	}
}

// HandleMessage processes one user message end to end.
func (o *Orchestrator) HandleMessage(ctx context.Context, message, sessionID, userID string) (resp Response) {
	start := time.Now()
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	var span trace.Span
	ctx, span = o.obs.Tracer().Start(ctx, "chatbot.handle_message")
	span.SetAttributes(attribute.String("session.id", sessionID))
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("panic while handling message", map[string]interface{}{
				"sessionID": sessionID,
				"panic":     r,
			})
			resp = Response{
				Response:       responder.ApologyGeneric,
				Intent:         string(models.IntentError),
				Entities:       map[string]interface{}{"_original_message": message},
				ConversationID: sessionID,
			}
		}
		metrics.MessagesProcessed.WithLabelValues(resp.Intent).Inc()
		metrics.MessageDuration.WithLabelValues(resp.Intent).Observe(time.Since(start).Seconds())
		o.obs.RecordMessage(ctx, resp.Intent)
		o.obs.RecordDuration(ctx, time.Since(start), resp.Intent)
		span.SetAttributes(attribute.String("chat.intent", resp.Intent))
	}()

	if strings.TrimSpace(message) == "" {
		return o.handleEmptyMessage(ctx, sessionID)
	}

	history, err := o.store.History(ctx, sessionID)
	if err != nil {
		o.logger.Warn("session history unavailable, continuing without context", map[string]interface{}{
			"sessionID": sessionID,
			"error":     err.Error(),
		})
		history = nil
	}

	verdict := o.classifier.Classify(ctx, message, history)
	entities := extractor.Extract(message, history)

	// Deterministic rule hits outrank the classifier; the classifier covers
	// everything the rules cannot see.
	intent := verdict.Intent
	if entities.Action != "" {
		intent = entities.Action
	}
	// A small-talk verdict with product attributes in the message is really a
	// product search.
	if intent == models.IntentGeneralConversation && extractor.ShouldShowProducts(entities) {
		intent = models.IntentSearchProduct
	}
	mergeVerdict(&entities, verdict)

	out := o.dispatcher.Dispatch(ctx, intent, entities, sessionID, userID, history)

	o.logger.Info("message handled", map[string]interface{}{
		"sessionID":  sessionID,
		"intent":     string(intent),
		"confidence": verdict.Confidence,
		"products":   len(out.Products),
	})
	o.refreshSessionGauge(ctx)

	return Response{
		Response:       out.Response,
		Intent:         string(intent),
		Entities:       entities.Map(),
		Products:       models.Refs(out.Products, models.MaxShownProducts),
		CartAction:     out.CartAction,
		ConversationID: sessionID,
	}
}

func (o *Orchestrator) handleEmptyMessage(ctx context.Context, sessionID string) Response {
	turn := models.NewTurn("", responder.Greeting, models.IntentGeneralConversation,
		map[string]interface{}{"_original_message": ""}, nil)
	if err := o.store.Save(ctx, sessionID, turn); err != nil {
		o.logger.Error("failed to persist turn", map[string]interface{}{
			"sessionID": sessionID,
			"error":     err.Error(),
		})
	}
	return Response{
		Response:       responder.Greeting,
		Intent:         string(models.IntentGeneralConversation),
		Entities:       map[string]interface{}{"_original_message": ""},
		ConversationID: sessionID,
	}
}

// mergeVerdict folds classifier provenance and entity hints into the bag
// without overriding anything the rules already extracted.
func mergeVerdict(entities *extractor.Entities, verdict models.IntentResult) {
	entities.Meta = map[string]interface{}{
		"_confidence": verdict.Confidence,
	}
	if verdict.Reasoning != "" {
		entities.Meta["_reasoning"] = verdict.Reasoning
	}

	if entities.ProductNumber == 0 {
		if n, ok := verdict.Entities["numero_producto"]; ok {
			switch v := n.(type) {
			case int:
				entities.ProductNumber = v
			case float64:
				entities.ProductNumber = int(v)
			}
			entities.ContextualRef = true
		}
	}
}

func (o *Orchestrator) refreshSessionGauge(ctx context.Context) {
	ids, err := o.store.ActiveSessions(ctx)
	if err != nil {
		return
	}
	metrics.ActiveSessions.Set(float64(len(ids)))
}

// ClearSession drops one conversation.
func (o *Orchestrator) ClearSession(ctx context.Context, sessionID string) error {
	return o.store.Clear(ctx, sessionID)
}

// ClearAllSessions drops every conversation and reports how many.
func (o *Orchestrator) ClearAllSessions(ctx context.Context) (int, error) {
	return o.store.ClearAll(ctx)
}

// SessionStats summarizes one session's retained history.
func (o *Orchestrator) SessionStats(ctx context.Context, sessionID string) (session.Stats, error) {
	history, err := o.store.History(ctx, sessionID)
	if err != nil {
		return session.Stats{}, err
	}
	return session.StatsFor(sessionID, history), nil
}

// ActiveSessions lists sessions with retained history.
func (o *Orchestrator) ActiveSessions(ctx context.Context) ([]string, error) {
	return o.store.ActiveSessions(ctx)
}
