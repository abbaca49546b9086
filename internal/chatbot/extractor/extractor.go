// Package extractor turns a raw user message into a structured entity bag by
// running the rule tables in precedence order. Extraction never fails: rules
// that do not match simply leave their field unset.
package extractor

import (
	"strconv"
	"strings"

	"infotec-chatbot/internal/chatbot/rules"
	"infotec-chatbot/internal/models"
)

// Entities is the typed entity bag for one message. Action is the single
// mutually-exclusive dispatch key; the remaining fields are independent
// attributes that may coexist with any action.
type Entities struct {
	OriginalMessage string
	Action          models.Intent

	Category        string
	Brand           string
	Budget          int
	Quantity        int
	UseCase         string
	SpecificProduct string

	QuestionType string

	CompareProducts []string
	CompareBrands   []string
	CompareAttrs    []string

	ProductNumber int
	ContextualRef bool

	// Meta carries provenance such as classifier confidence and reasoning.
	// It never influences dispatch.
	Meta map[string]interface{}
}

// Map flattens the bag into the wire representation saved on turns and
// returned in the response envelope. The original message is always present.
func (e *Entities) Map() map[string]interface{} {
	out := map[string]interface{}{
		"_original_message": e.OriginalMessage,
	}
	if e.Action != "" {
		out["accion"] = string(e.Action)
	}
	if e.Category != "" {
		out["producto"] = e.Category
	}
	if e.Brand != "" {
		out["marca"] = e.Brand
	}
	if e.Budget > 0 {
		out["presupuesto"] = e.Budget
	}
	if e.Quantity > 0 {
		out["cantidad"] = e.Quantity
	}
	if e.UseCase != "" {
		out["uso"] = e.UseCase
	}
	if e.SpecificProduct != "" {
		out["producto_especifico"] = e.SpecificProduct
	}
	if e.QuestionType != "" {
		out["tipo_pregunta"] = e.QuestionType
	}
	if e.ProductNumber > 0 {
		out["numero_producto"] = e.ProductNumber
	}
	if e.ContextualRef {
		out["referencia_contextual"] = true
	}
	if len(e.CompareProducts) > 0 {
		out["productos_comparar"] = e.CompareProducts
	}
	if len(e.CompareBrands) > 0 {
		out["marcas_comparar"] = e.CompareBrands
	}
	if len(e.CompareAttrs) > 0 {
		out["atributos_comparar"] = e.CompareAttrs
	}
	for k, v := range e.Meta {
		out[k] = v
	}
	return out
}

// Extract runs the precedence cascade over the message. The first matching
// rule family claims the action; independent attribute extraction always
// runs afterwards and never sets one.
func Extract(message string, history []models.Turn) Entities {
	e := Entities{OriginalMessage: message}
	lower := strings.ToLower(strings.TrimSpace(message))
	if lower == "" {
		return e
	}

	switch {
	case matchRecommendationQuery(lower):
		e.Action = models.IntentRecommendCategory

	case matchTechQuestion(lower, &e):
		e.Action = models.IntentTechQuestion

	case matchComparison(lower, &e):
		e.Action = models.IntentCompareProducts

	case matchCartIntent(lower, &e):
		e.Action = models.IntentAddToCart

	case matchSpecRequest(lower, &e):
		e.Action = models.IntentViewSpecifications
	}

	extractAttributes(lower, &e)
	return e
}

func matchRecommendationQuery(lower string) bool {
	for _, re := range rules.RecommendationQueries {
		if re.MatchString(lower) {
			return true
		}
	}
	return false
}

func matchTechQuestion(lower string, e *Entities) bool {
	for _, rule := range rules.TechQuestions {
		if rule.Pattern.MatchString(lower) {
			e.QuestionType = rule.Type
			return true
		}
	}
	return false
}

func matchComparison(lower string, e *Entities) bool {
	for _, re := range rules.Comparisons {
		match := re.FindStringSubmatch(lower)
		if match == nil {
			continue
		}
		for _, target := range match[1:] {
			target = cleanComparisonTarget(target)
			if target == "" {
				continue
			}
			if isKnownBrand(target) {
				e.CompareBrands = append(e.CompareBrands, target)
			} else {
				e.CompareProducts = append(e.CompareProducts, target)
			}
		}
		if len(e.CompareBrands)+len(e.CompareProducts) < 2 {
			e.CompareBrands = nil
			e.CompareProducts = nil
			continue
		}
		e.CompareAttrs = extractComparisonAttributes(lower)
		return true
	}
	return false
}

func cleanComparisonTarget(target string) string {
	target = strings.TrimSpace(target)
	target = strings.Trim(target, "?!.,¿¡")
	for _, suffix := range []string{" en precio", " en rendimiento", " en bateria", " en batería", " en pantalla"} {
		target = strings.TrimSuffix(target, suffix)
	}
	return strings.TrimSpace(target)
}

func isKnownBrand(target string) bool {
	for _, brand := range rules.Brands {
		if target == brand {
			return true
		}
	}
	return false
}

func extractComparisonAttributes(lower string) []string {
	var attrs []string
	for _, rule := range rules.ComparisonAttributes {
		for _, re := range rule.Patterns {
			if re.MatchString(lower) {
				attrs = append(attrs, rule.Name)
				break
			}
		}
	}
	if len(attrs) == 0 {
		attrs = []string{rules.DefaultComparisonAttribute}
	}
	return attrs
}

func matchCartIntent(lower string, e *Entities) bool {
	matched := false
	for _, phrase := range rules.CartPhrases {
		if strings.Contains(lower, phrase) {
			matched = true
			break
		}
	}
	if !matched {
		return false
	}

	if name := matchSpecificProduct(lower); name != "" {
		e.SpecificProduct = name
	} else if hasContextualRef(lower) {
		e.ContextualRef = true
	} else if n, ok := matchOrdinal(lower); ok {
		e.ProductNumber = n
		e.ContextualRef = true
	}
	return true
}

func matchSpecRequest(lower string, e *Entities) bool {
	specPhrase := false
	for _, phrase := range rules.SpecPhrases {
		if strings.Contains(lower, phrase) {
			specPhrase = true
			break
		}
	}

	n, hasOrdinal := matchOrdinal(lower)

	if !specPhrase && !hasOrdinal {
		return false
	}
	if !specPhrase && hasOrdinal && !isShortMessage(lower) {
		return false
	}

	if hasOrdinal {
		e.ProductNumber = n
		e.ContextualRef = true
	} else if hasContextualRef(lower) {
		e.ContextualRef = true
	}
	return true
}

// matchOrdinal finds a 1-indexed product position. Word forms match anywhere;
// bare digits only count in short messages, where "2" plausibly means "the
// second one" rather than part of a model number.
func matchOrdinal(lower string) (int, bool) {
	words := strings.FieldsFunc(lower, func(r rune) bool {
		return r == ' ' || r == ',' || r == '?' || r == '!' || r == '¿' || r == '¡' || r == '.'
	})
	short := len(words) <= 6
	for _, rule := range rules.Ordinals {
		for _, form := range rule.Words {
			isDigit := form >= "0" && form <= "9" && len(form) == 1
			if isDigit && !short {
				continue
			}
			for _, word := range words {
				if word == form {
					return rule.Position, true
				}
			}
		}
	}
	return 0, false
}

func isShortMessage(lower string) bool {
	return len(strings.Fields(lower)) <= 6
}

func hasContextualRef(lower string) bool {
	for _, re := range rules.ContextualRefs {
		if re.MatchString(lower) {
			return true
		}
	}
	return false
}

func matchSpecificProduct(lower string) string {
	for _, re := range rules.SpecificProducts {
		if match := re.FindString(lower); match != "" {
			return strings.TrimSpace(match)
		}
	}
	return ""
}

// extractAttributes fills the independent fields. It runs after the action
// cascade and never touches the action.
func extractAttributes(lower string, e *Entities) {
	for _, rule := range rules.Categories {
		if rule.Pattern.MatchString(lower) {
			e.Category = rule.Name
			break
		}
	}

	for _, brand := range rules.Brands {
		if containsWord(lower, brand) {
			e.Brand = brand
			break
		}
	}

	if match := rules.Budget.FindStringSubmatch(lower); match != nil {
		if n, err := strconv.Atoi(match[1]); err == nil {
			e.Budget = n
		}
	}

	if e.Quantity == 0 {
		if match := rules.Quantity.FindStringSubmatch(lower); match != nil {
			if n, err := strconv.Atoi(match[1]); err == nil {
				e.Quantity = n
			}
		}
	}

	for _, rule := range rules.UseCases {
		for _, kw := range rule.Keywords {
			if strings.Contains(lower, kw) {
				e.UseCase = rule.Name
				break
			}
		}
		if e.UseCase != "" {
			break
		}
	}

	if e.SpecificProduct == "" {
		e.SpecificProduct = matchSpecificProduct(lower)
	}
}

func containsWord(text, word string) bool {
	idx := strings.Index(text, word)
	for idx >= 0 {
		before := idx == 0 || !isLetter(text[idx-1])
		afterIdx := idx + len(word)
		after := afterIdx >= len(text) || !isLetter(text[afterIdx])
		if before && after {
			return true
		}
		next := strings.Index(text[idx+1:], word)
		if next < 0 {
			return false
		}
		idx += 1 + next
	}
	return false
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// ShouldShowProducts decides whether the response should carry a product
// listing. Tech questions never show products regardless of other entities.
func ShouldShowProducts(e Entities) bool {
	switch e.Action {
	case models.IntentTechQuestion:
		return false
	case models.IntentViewSpecifications, models.IntentAddToCart, models.IntentRecommendCategory:
		return true
	case models.IntentCompareProducts:
		return len(e.CompareProducts)+len(e.CompareBrands) > 0
	}
	return e.SpecificProduct != "" || e.Category != "" || e.Brand != "" ||
		e.Budget > 0 || e.UseCase != ""
}

// BuildQuery synthesizes the catalog search string. A specific product name
// wins outright; otherwise category, brand and use-case keywords are joined.
// The generic fallback term is a deliberate low-confidence default.
func BuildQuery(e Entities) string {
	if e.SpecificProduct != "" {
		return e.SpecificProduct
	}

	var parts []string
	if e.Category != "" {
		parts = append(parts, e.Category)
	}
	if e.Brand != "" {
		parts = append(parts, e.Brand)
	}
	if kw, ok := rules.SearchKeywordForUseCase[e.UseCase]; ok {
		parts = append(parts, kw)
	}
	if len(parts) == 0 {
		return rules.DefaultSearchTerm
	}
	return strings.Join(parts, " ")
}

// ResolveOrdinal maps a 1-indexed back-reference to a product name from the
// most recent turn that showed products. The structured projection wins;
// replies saved before it existed are scraped. An empty return means the
// reference could not be resolved and callers must ask for clarification.
func ResolveOrdinal(history []models.Turn, n int) string {
	if n <= 0 {
		return ""
	}
	for i := len(history) - 1; i >= 0; i-- {
		turn := history[i]
		if !turn.ProductsShown {
			continue
		}

		var names []string
		if len(turn.Products) > 0 {
			for _, p := range turn.Products {
				names = append(names, p.Name)
			}
		} else {
			names = rules.ScrapeProductNames(turn.BotResponse)
		}
		if len(names) == 0 {
			continue
		}
		if n > len(names) {
			return ""
		}
		return names[n-1]
	}
	return ""
}

// LastShownProduct returns the most recently shown product name, used to
// resolve bare contextual references like "agrégalo".
func LastShownProduct(history []models.Turn) string {
	return ResolveOrdinal(history, 1)
}
