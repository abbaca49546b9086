package models

// Intent is the classified dialogue act for a single user message. It doubles
// as the action tag that drives dispatch, so every value maps to exactly one
// handler branch.
type Intent string

const (
	IntentTechQuestion        Intent = "tech_question"
	IntentSearchProduct       Intent = "search_product"
	IntentCompareProducts     Intent = "compare_products"
	IntentViewSpecifications  Intent = "view_specifications"
	IntentAddToCart           Intent = "add_to_cart"
	IntentRecommendCategory   Intent = "recommend_category"
	IntentGeneralConversation Intent = "general_conversation"
	IntentError               Intent = "error"
)

// Valid reports whether the intent is one of the known dispatchable values.
func (i Intent) Valid() bool {
	switch i {
	case IntentTechQuestion, IntentSearchProduct, IntentCompareProducts,
		IntentViewSpecifications, IntentAddToCart, IntentRecommendCategory,
		IntentGeneralConversation, IntentError:
		return true
	}
	return false
}

// ParseIntent maps a raw intent string to an Intent, defaulting unknown
// values to general conversation so a misbehaving generator can never push
// the dispatcher into a dead branch.
func ParseIntent(s string) Intent {
	in := Intent(s)
	if in.Valid() {
		return in
	}
	return IntentGeneralConversation
}

// IntentResult is the classifier's verdict for one message. It lives only as
// long as the turn that produced it.
type IntentResult struct {
	Intent             Intent                 `json:"intent"`
	Confidence         float64                `json:"confidence"`
	Reasoning          string                 `json:"reasoning"`
	ShouldShowProducts bool                   `json:"shouldShowProducts"`
	Entities           map[string]interface{} `json:"entities,omitempty"`
}
