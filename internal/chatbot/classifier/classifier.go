// Package classifier decides the dialogue act for a message. The primary
// path asks the text generator for a structured verdict and validates it
// against a JSON schema; any failure along that path drops silently to a
// deterministic keyword classifier so a verdict is always produced.
package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"infotec-chatbot/internal/chatbot/rules"
	"infotec-chatbot/internal/chatbot/session"
	"infotec-chatbot/internal/common/logger"
	"infotec-chatbot/internal/common/metrics"
	"infotec-chatbot/internal/models"
	"infotec-chatbot/internal/services/genai"
)

// verdictSchema constrains the generator's reply before it is trusted.
const verdictSchema = `{
	"type": "object",
	"required": ["intent", "confidence"],
	"properties": {
		"intent": {
			"type": "string",
			"enum": ["tech_question", "search_product", "compare_products",
			         "view_specifications", "add_to_cart", "recommend_category",
			         "general_conversation"]
		},
		"confidence": {"type": "number", "minimum": 0, "maximum": 1},
		"reasoning": {"type": "string"},
		"should_show_products": {"type": "boolean"},
		"entities": {"type": "object"}
	}
}`

var jsonBlock = regexp.MustCompile(`\{[\s\S]*\}`)

const contextTurnsForPrompt = 3

type Classifier struct {
	generator genai.Generator
	schema    *gojsonschema.Schema
	logger    logger.Logger
}

// New builds a classifier. A nil generator is valid and forces the
// deterministic path for every message.
func New(generator genai.Generator, log logger.Logger) (*Classifier, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(verdictSchema))
	if err != nil {
		return nil, fmt.Errorf("compile verdict schema: %w", err)
	}
	return &Classifier{
		generator: generator,
		schema:    schema,
		logger: log.With(map[string]interface{}{
			"component": "classifier",
		}),
	}, nil
}

// Classify returns a verdict for the message. It never fails: generator
// errors and unparseable replies fall back to keyword heuristics.
func (c *Classifier) Classify(ctx context.Context, message string, history []models.Turn) models.IntentResult {
	if c.generator != nil {
		if result, ok := c.classifyWithGenerator(ctx, message, history); ok {
			return result
		}
	}

	metrics.FallbackClassifications.Inc()
	return c.classifyWithKeywords(message, history)
}

func (c *Classifier) classifyWithGenerator(ctx context.Context, message string, history []models.Turn) (models.IntentResult, bool) {
	reply, err := c.generator.Generate(ctx, c.buildPrompt(message, history))
	if err != nil {
		c.logger.Warn("generator classification unavailable", map[string]interface{}{
			"error": err.Error(),
		})
		return models.IntentResult{}, false
	}

	raw := jsonBlock.FindString(reply)
	if raw == "" {
		c.logger.Warn("generator reply has no JSON block", nil)
		return models.IntentResult{}, false
	}

	validation, err := c.schema.Validate(gojsonschema.NewStringLoader(raw))
	if err != nil || !validation.Valid() {
		c.logger.Warn("generator verdict failed schema validation", map[string]interface{}{
			"reply": raw,
		})
		return models.IntentResult{}, false
	}

	var verdict struct {
		Intent             string                 `json:"intent"`
		Confidence         float64                `json:"confidence"`
		Reasoning          string                 `json:"reasoning"`
		ShouldShowProducts bool                   `json:"should_show_products"`
		Entities           map[string]interface{} `json:"entities"`
	}
	if err := json.Unmarshal([]byte(raw), &verdict); err != nil {
		return models.IntentResult{}, false
	}

	return models.IntentResult{
		Intent:             models.ParseIntent(verdict.Intent),
		Confidence:         verdict.Confidence,
		Reasoning:          verdict.Reasoning,
		ShouldShowProducts: verdict.ShouldShowProducts,
		Entities:           verdict.Entities,
	}, true
}

func (c *Classifier) buildPrompt(message string, history []models.Turn) string {
	var b strings.Builder
	b.WriteString("Eres el clasificador de intenciones de un chatbot de una tienda de tecnología.\n")
	b.WriteString("Clasifica el mensaje del usuario en UNA de estas categorías:\n")
	b.WriteString("- tech_question: pregunta técnica general (ej. AMD vs Intel), sin productos del catálogo\n")
	b.WriteString("- search_product: busca o quiere ver productos\n")
	b.WriteString("- compare_products: compara dos productos o marcas concretas\n")
	b.WriteString("- view_specifications: pide especificaciones de un producto (puede ser una referencia como \"la segunda\")\n")
	b.WriteString("- add_to_cart: quiere comprar o agregar al carrito\n")
	b.WriteString("- recommend_category: pide una recomendación (\"¿cuál es mejor?\")\n")
	b.WriteString("- general_conversation: saludo, agradecimiento o charla general\n\n")

	if len(history) > contextTurnsForPrompt {
		history = history[len(history)-contextTurnsForPrompt:]
	}
	if contextStr := session.BuildContextString(history); contextStr != "" {
		b.WriteString("Conversación reciente:\n")
		b.WriteString(contextStr)
		b.WriteString("\n\n")
	}

	b.WriteString("Mensaje del usuario: ")
	b.WriteString(message)
	b.WriteString("\n\nResponde SOLO con JSON: {\"intent\": ..., \"confidence\": 0.0-1.0, ")
	b.WriteString("\"reasoning\": ..., \"should_show_products\": true/false, \"entities\": {...}}")
	return b.String()
}

// classifyWithKeywords is the deterministic path. Branch confidences are
// fixed so downstream low-confidence handling behaves the same as with
// generator verdicts. Product requests outrank tech comparisons here even
// though the generator path may judge the same message the other way.
func (c *Classifier) classifyWithKeywords(message string, history []models.Turn) models.IntentResult {
	lower := strings.ToLower(strings.TrimSpace(message))
	words := strings.Fields(lower)

	if n, ok := specReference(lower, words); ok {
		entities := map[string]interface{}{}
		if n > 0 {
			entities["numero_producto"] = n
			entities["referencia_contextual"] = true
		}
		return models.IntentResult{
			Intent:             models.IntentViewSpecifications,
			Confidence:         0.9,
			Reasoning:          "referencia a especificaciones detectada por palabras clave",
			ShouldShowProducts: true,
			Entities:           entities,
		}
	}

	if containsAny(lower, rules.GreetingKeywords) && len(words) <= 4 {
		return models.IntentResult{
			Intent:     models.IntentGeneralConversation,
			Confidence: 0.6,
			Reasoning:  "saludo detectado por palabras clave",
		}
	}

	if productRequest(lower) {
		return models.IntentResult{
			Intent:             models.IntentSearchProduct,
			Confidence:         0.8,
			Reasoning:          "solicitud de productos detectada por palabras clave",
			ShouldShowProducts: true,
		}
	}

	if containsAny(lower, rules.TechComparisonKeywords) && containsAny(lower, rules.TechBrandsComponents) {
		return models.IntentResult{
			Intent:     models.IntentTechQuestion,
			Confidence: 0.7,
			Reasoning:  "comparación técnica detectada por palabras clave",
		}
	}

	// With nothing matched, a user answering a product listing is most
	// likely refining the search.
	if lastTurnShowedProducts(history) {
		return models.IntentResult{
			Intent:             models.IntentSearchProduct,
			Confidence:         0.6,
			Reasoning:          "continuación tras lista de productos",
			ShouldShowProducts: true,
		}
	}

	return models.IntentResult{
		Intent:     models.IntentGeneralConversation,
		Confidence: 0.6,
		Reasoning:  "sin patrones reconocidos",
	}
}

func specReference(lower string, words []string) (int, bool) {
	hasSpec := containsAny(lower, rules.SpecKeywords)
	ordinal := 0
	if len(words) <= 6 {
		for _, rule := range rules.Ordinals {
			for _, form := range rule.Words {
				for _, w := range words {
					if w == form {
						ordinal = rule.Position
					}
				}
			}
			if ordinal > 0 {
				break
			}
		}
	}
	if hasSpec {
		return ordinal, true
	}
	if ordinal > 0 && len(words) <= 3 {
		return ordinal, true
	}
	return 0, false
}

func productRequest(lower string) bool {
	if !containsAny(lower, rules.ProductTypes) {
		return false
	}
	if containsAny(lower, rules.ProductRequestKeywords) {
		return true
	}
	// "mejor laptop que tienes" style ranking questions about the catalog.
	return strings.Contains(lower, "mejor") && strings.Contains(lower, "tien")
}

func lastTurnShowedProducts(history []models.Turn) bool {
	if len(history) == 0 {
		return false
	}
	return history[len(history)-1].ProductsShown
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
