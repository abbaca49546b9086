// Package dispatcher routes a classified message to its handler. Each intent
// is a terminal branch: it calls the collaborators it needs, turns failures
// into specific apologies, and always persists the turn before returning.
package dispatcher

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"infotec-chatbot/internal/chatbot/extractor"
	"infotec-chatbot/internal/chatbot/responder"
	"infotec-chatbot/internal/chatbot/rules"
	"infotec-chatbot/internal/chatbot/session"
	commonerrors "infotec-chatbot/internal/common/errors"
	"infotec-chatbot/internal/common/logger"
	"infotec-chatbot/internal/common/metrics"
	"infotec-chatbot/internal/models"
	"infotec-chatbot/internal/services/cart"
	"infotec-chatbot/internal/services/catalog"
	"infotec-chatbot/internal/services/genai"
)

const recommendTopN = 3

// Outcome is the unified result of one dispatched message.
type Outcome struct {
	Response      string
	ProductsShown bool
	Products      []models.Product
	CartAction    *models.CartResult
}

type Dispatcher struct {
	catalog        catalog.Service
	cart           cart.Service
	generator      genai.Generator
	store          session.Store
	company        responder.Company
	searchLimit    int
	candidateLimit int
	logger         logger.Logger
}

func New(cat catalog.Service, crt cart.Service, gen genai.Generator, store session.Store,
	searchLimit, candidateLimit int, log logger.Logger) *Dispatcher {
	if searchLimit <= 0 {
		searchLimit = 10
	}
	if candidateLimit <= 0 {
		candidateLimit = 50
	}
	return &Dispatcher{
		catalog:        cat,
		cart:           crt,
		generator:      gen,
		store:          store,
		company:        responder.DefaultCompany,
		searchLimit:    searchLimit,
		candidateLimit: candidateLimit,
		logger: log.With(map[string]interface{}{
			"component": "dispatcher",
		}),
	}
}

// Dispatch executes the handler for the intent and saves the resulting turn.
// It never returns an error: every failure becomes an apologetic response.
func (d *Dispatcher) Dispatch(ctx context.Context, intent models.Intent, entities extractor.Entities,
	sessionID, userID string, history []models.Turn) Outcome {

	var out Outcome
	switch intent {
	case models.IntentTechQuestion:
		out = d.handleTechQuestion(ctx, entities, history)
	case models.IntentSearchProduct:
		out = d.handleSearch(ctx, entities)
	case models.IntentCompareProducts:
		out = d.handleComparison(ctx, entities)
	case models.IntentViewSpecifications:
		out = d.handleSpecifications(ctx, entities, history)
	case models.IntentAddToCart:
		out = d.handleAddToCart(ctx, entities, sessionID, userID, history)
	case models.IntentRecommendCategory:
		out = d.handleRecommendation(ctx, entities)
	case models.IntentGeneralConversation:
		out = d.handleConversation(ctx, entities, history)
	default:
		d.logger.Warn("unhandled intent", map[string]interface{}{
			"intent": string(intent),
		})
		out = Outcome{Response: responder.DefaultSmallTalk}
	}

	turn := models.NewTurn(entities.OriginalMessage, out.Response, intent,
		entities.Map(), models.Refs(out.Products, models.MaxShownProducts))
	if err := d.store.Save(ctx, sessionID, turn); err != nil {
		d.logger.Error("failed to persist turn", map[string]interface{}{
			"sessionID": sessionID,
			"error":     err.Error(),
		})
	}
	return out
}

func (d *Dispatcher) handleTechQuestion(ctx context.Context, entities extractor.Entities, history []models.Turn) Outcome {
	prompt := d.company.PromptPreamble() +
		"\nResponde la siguiente pregunta técnica de forma clara y breve, sin mencionar productos específicos del catálogo." +
		"\nPregunta: " + entities.OriginalMessage
	if contextStr := session.BuildContextString(history); contextStr != "" {
		prompt += "\nConversación previa:\n" + contextStr
	}

	reply, err := d.generate(ctx, prompt)
	if err != nil {
		if canned, ok := responder.TechAnswerFallbacks[entities.QuestionType]; ok {
			return Outcome{Response: canned}
		}
		return Outcome{Response: responder.TechAnswerGeneric}
	}
	return Outcome{Response: reply}
}

func (d *Dispatcher) handleSearch(ctx context.Context, entities extractor.Entities) Outcome {
	query := extractor.BuildQuery(entities)
	maxPrice := float64(entities.Budget)

	products, err := d.catalog.Search(ctx, query, maxPrice, d.searchLimit)
	if err != nil {
		d.collaboratorFailed("catalog", err)
		return Outcome{Response: responder.ApologyCatalog}
	}

	if len(products) == 0 && query != rules.DefaultSearchTerm {
		products, err = d.catalog.Search(ctx, rules.DefaultSearchTerm, maxPrice, d.searchLimit)
		if err != nil {
			d.collaboratorFailed("catalog", err)
			return Outcome{Response: responder.ApologyCatalog}
		}
	}
	if len(products) == 0 {
		return Outcome{Response: responder.NoResults}
	}

	return Outcome{
		Response:      responder.ProductList(products),
		ProductsShown: true,
		Products:      products,
	}
}

func (d *Dispatcher) handleComparison(ctx context.Context, entities extractor.Entities) Outcome {
	var resolved []models.Product

	for _, name := range entities.CompareProducts {
		p, err := d.catalog.FindByName(ctx, name)
		if err != nil {
			d.collaboratorFailed("catalog", err)
			continue
		}
		if p != nil {
			resolved = append(resolved, *p)
		}
	}
	for _, brand := range entities.CompareBrands {
		products, err := d.catalog.Search(ctx, brand, 0, 1)
		if err != nil {
			d.collaboratorFailed("catalog", err)
			continue
		}
		if len(products) > 0 {
			resolved = append(resolved, products[0])
		}
	}

	if len(resolved) >= 2 {
		return Outcome{
			Response:      responder.Comparison(resolved[0], resolved[1], entities.CompareAttrs),
			ProductsShown: true,
			Products:      resolved[:2],
		}
	}

	// Fewer than two catalog matches: answer from general knowledge rather
	// than blocking the user on missing data.
	targets := append(append([]string{}, entities.CompareProducts...), entities.CompareBrands...)
	prompt := d.company.PromptPreamble() +
		fmt.Sprintf("\nCompara brevemente %s considerando %s. Responde en español, en pocas líneas.",
			strings.Join(targets, " y "), strings.Join(entities.CompareAttrs, ", "))
	reply, err := d.generate(ctx, prompt)
	if err != nil {
		return Outcome{Response: responder.TechAnswerGeneric}
	}
	return Outcome{Response: reply}
}

func (d *Dispatcher) handleSpecifications(ctx context.Context, entities extractor.Entities, history []models.Turn) Outcome {
	name := entities.SpecificProduct
	if name == "" && entities.ContextualRef {
		n := entities.ProductNumber
		if n == 0 {
			n = 1
		}
		name = extractor.ResolveOrdinal(history, n)
		if name == "" {
			return Outcome{Response: responder.OrdinalClarification(n)}
		}
	}
	if name == "" {
		return Outcome{Response: responder.OrdinalClarification(0)}
	}

	product, err := d.catalog.FindByName(ctx, name)
	if err != nil {
		d.collaboratorFailed("catalog", err)
		return Outcome{Response: responder.ApologyCatalog}
	}
	if product == nil {
		return d.similarProducts(ctx, name)
	}

	return Outcome{
		Response:      responder.SpecSheet(*product),
		ProductsShown: true,
		Products:      []models.Product{*product},
	}
}

// similarProducts is the relaxed lookup after a find-by-name miss: search by
// the name's significant keywords and offer up to three alternatives.
func (d *Dispatcher) similarProducts(ctx context.Context, name string) Outcome {
	products, err := d.catalog.Search(ctx, name, 0, recommendTopN)
	if err != nil || len(products) == 0 {
		return Outcome{Response: fmt.Sprintf("No encontré \"%s\" en el catálogo. 😕 ¿Me confirmas el nombre del producto?", name)}
	}
	response := fmt.Sprintf("No encontré exactamente \"%s\", pero tengo estas opciones similares:\n\n", name) +
		responder.ProductList(products)
	return Outcome{Response: response, ProductsShown: true, Products: products}
}

func (d *Dispatcher) handleAddToCart(ctx context.Context, entities extractor.Entities,
	sessionID, userID string, history []models.Turn) Outcome {

	name := entities.SpecificProduct
	if name == "" && entities.ContextualRef {
		n := entities.ProductNumber
		if n == 0 {
			n = 1
		}
		name = extractor.ResolveOrdinal(history, n)
	}
	if name == "" {
		return Outcome{Response: responder.CartClarification}
	}

	product, err := d.catalog.FindByName(ctx, name)
	if err != nil {
		d.collaboratorFailed("catalog", err)
		return Outcome{Response: responder.ApologyCart}
	}
	if product == nil {
		return d.similarProducts(ctx, name)
	}

	quantity := entities.Quantity
	if quantity == 0 {
		quantity = 1
	}

	result, err := d.cart.Add(ctx, product.ID, quantity, userID, sessionID)
	if err != nil {
		d.collaboratorFailed("cart", err)
		return Outcome{Response: responder.ApologyCart}
	}

	out := Outcome{
		Response:   responder.CartMessage(result),
		CartAction: result,
	}
	if result.Success {
		out.ProductsShown = true
		out.Products = []models.Product{*product}
	}
	return out
}

func (d *Dispatcher) handleRecommendation(ctx context.Context, entities extractor.Entities) Outcome {
	useCase := rules.SearchKeywordForUseCase[entities.UseCase]
	candidates, err := d.catalog.Candidates(ctx, entities.Category, useCase, d.candidateLimit)
	if err != nil {
		d.collaboratorFailed("catalog", err)
		return Outcome{Response: responder.ApologyCatalog}
	}
	if len(candidates) == 0 {
		return Outcome{Response: responder.NoResults}
	}

	top := d.rankWithGenerator(ctx, entities, candidates)
	if len(top) == 0 {
		top = rankByRating(candidates)
	}

	response := "Estas son mis recomendaciones: ⭐\n\n" + responder.ProductList(top)
	return Outcome{Response: response, ProductsShown: true, Products: top}
}

// rankWithGenerator asks the generator to pick the best candidates and maps
// the returned names back onto catalog records. Any failure yields nil so
// the deterministic sort takes over.
func (d *Dispatcher) rankWithGenerator(ctx context.Context, entities extractor.Entities, candidates []models.Product) []models.Product {
	if d.generator == nil {
		return nil
	}

	var list strings.Builder
	for _, p := range candidates {
		fmt.Fprintf(&list, "- %s (S/ %.2f, rating %.1f)\n", p.Name, p.Price, p.Rating)
	}

	prompt := d.company.PromptPreamble() +
		fmt.Sprintf("\nEl cliente pidió: %s\nDe esta lista de productos en stock, elige los %d mejores para su necesidad "+
			"y responde SOLO con los nombres elegidos, uno por línea:\n%s",
			entities.OriginalMessage, recommendTopN, list.String())

	reply, err := d.generate(ctx, prompt)
	if err != nil {
		return nil
	}

	var top []models.Product
	for _, line := range strings.Split(reply, "\n") {
		line = strings.ToLower(strings.TrimLeft(strings.TrimSpace(line), "-*0123456789. "))
		if line == "" {
			continue
		}
		for _, p := range candidates {
			if strings.Contains(strings.ToLower(p.Name), line) || strings.Contains(line, strings.ToLower(p.Name)) {
				top = append(top, p)
				break
			}
		}
		if len(top) == recommendTopN {
			break
		}
	}
	return top
}

func rankByRating(candidates []models.Product) []models.Product {
	sorted := make([]models.Product, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Rating != sorted[j].Rating {
			return sorted[i].Rating > sorted[j].Rating
		}
		return sorted[i].Price < sorted[j].Price
	})
	if len(sorted) > recommendTopN {
		sorted = sorted[:recommendTopN]
	}
	return sorted
}

func (d *Dispatcher) handleConversation(ctx context.Context, entities extractor.Entities, history []models.Turn) Outcome {
	if reply, ok := responder.Casual(entities.OriginalMessage); ok {
		return Outcome{Response: reply}
	}
	if reply, ok := responder.Prepared(entities.OriginalMessage); ok {
		return Outcome{Response: reply}
	}

	prompt := d.company.PromptPreamble() +
		"\nResponde amablemente y en español al cliente. Si la conversación lo permite, invítalo a contarte qué equipo busca."
	if contextStr := session.BuildContextString(history); contextStr != "" {
		prompt += "\nConversación previa:\n" + contextStr
	}
	prompt += "\nCliente: " + entities.OriginalMessage

	reply, err := d.generate(ctx, prompt)
	if err != nil {
		return Outcome{Response: responder.DefaultSmallTalk}
	}
	return Outcome{Response: reply}
}

func (d *Dispatcher) generate(ctx context.Context, prompt string) (string, error) {
	if d.generator == nil {
		return "", commonerrors.ErrGenerationFailed
	}
	reply, err := d.generator.Generate(ctx, prompt)
	if err != nil {
		d.collaboratorFailed("generator", err)
		return "", err
	}
	return reply, nil
}

func (d *Dispatcher) collaboratorFailed(service string, err error) {
	metrics.CollaboratorFailures.WithLabelValues(service, string(commonerrors.CodeOf(err))).Inc()
	d.logger.Warn("collaborator call failed", map[string]interface{}{
		"service": service,
		"error":   err.Error(),
	})
}
