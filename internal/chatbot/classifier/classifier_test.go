package classifier

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	commonerrors "infotec-chatbot/internal/common/errors"
	"infotec-chatbot/internal/common/logger"
	"infotec-chatbot/internal/models"
)

type fakeGenerator struct {
	reply string
	err   error
}

func (f *fakeGenerator) Generate(_ context.Context, _ string) (string, error) {
	return f.reply, f.err
}

func newClassifier(t *testing.T, gen *fakeGenerator) *Classifier {
	t.Helper()
	var c *Classifier
	var err error
	if gen == nil {
		c, err = New(nil, logger.NewNoOpLogger())
	} else {
		c, err = New(gen, logger.NewNoOpLogger())
	}
	require.NoError(t, err)
	return c
}

func TestClassify_GeneratorVerdictAccepted(t *testing.T) {
	gen := &fakeGenerator{reply: `Claro, aquí está:
{"intent": "search_product", "confidence": 0.92, "reasoning": "busca una laptop",
 "should_show_products": true, "entities": {"producto": "laptop"}}`}
	c := newClassifier(t, gen)

	result := c.Classify(context.Background(), "busco una laptop", nil)
	assert.Equal(t, models.IntentSearchProduct, result.Intent)
	assert.Equal(t, 0.92, result.Confidence)
	assert.True(t, result.ShouldShowProducts)
	assert.Equal(t, "laptop", result.Entities["producto"])
}

func TestClassify_GeneratorTimeoutFallsBack(t *testing.T) {
	gen := &fakeGenerator{err: commonerrors.ErrGeneratorTimeout}
	c := newClassifier(t, gen)

	result := c.Classify(context.Background(), "busco una laptop gaming", nil)
	assert.Equal(t, models.IntentSearchProduct, result.Intent)
	assert.Equal(t, 0.8, result.Confidence)
	assert.True(t, result.Intent.Valid())
}

func TestClassify_MalformedReplyFallsBack(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{"no json", "no tengo una respuesta estructurada"},
		{"unknown intent", `{"intent": "hacer_magia", "confidence": 0.9}`},
		{"confidence out of range", `{"intent": "search_product", "confidence": 7}`},
		{"missing fields", `{"reasoning": "no sé"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newClassifier(t, &fakeGenerator{reply: tt.reply})
			result := c.Classify(context.Background(), "hola", nil)
			assert.True(t, result.Intent.Valid())
			assert.Equal(t, models.IntentGeneralConversation, result.Intent)
		})
	}
}

func TestClassify_NilGeneratorUsesKeywords(t *testing.T) {
	c := newClassifier(t, nil)

	tests := []struct {
		message    string
		intent     models.Intent
		confidence float64
	}{
		{"dame las especificaciones", models.IntentViewSpecifications, 0.9},
		{"la segunda", models.IntentViewSpecifications, 0.9},
		{"busco una laptop", models.IntentSearchProduct, 0.8},
		{"cuál es mejor amd o intel", models.IntentTechQuestion, 0.7},
		{"hola", models.IntentGeneralConversation, 0.6},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			result := c.Classify(context.Background(), tt.message, nil)
			assert.Equal(t, tt.intent, result.Intent)
			assert.Equal(t, tt.confidence, result.Confidence)
		})
	}
}

func TestClassify_ProductRequestOutranksTechComparison(t *testing.T) {
	c := newClassifier(t, nil)

	result := c.Classify(context.Background(), "quiero ver la mejor laptop intel que tienes", nil)
	assert.Equal(t, models.IntentSearchProduct, result.Intent)
}

func TestClassify_OrdinalEntityHints(t *testing.T) {
	c := newClassifier(t, nil)

	result := c.Classify(context.Background(), "especificaciones de la tercera", nil)
	assert.Equal(t, models.IntentViewSpecifications, result.Intent)
	assert.Equal(t, 3, result.Entities["numero_producto"])
	assert.Equal(t, true, result.Entities["referencia_contextual"])
}

func TestClassify_AfterProductListingDefaultsToSearch(t *testing.T) {
	c := newClassifier(t, nil)
	history := []models.Turn{
		models.NewTurn("busco laptops", "aquí tienes", models.IntentSearchProduct, nil,
			[]models.ProductRef{{Name: "Laptop HP Pavilion 15"}}),
	}

	result := c.Classify(context.Background(), "algo más barato por favor", history)
	assert.Equal(t, models.IntentSearchProduct, result.Intent)
	assert.Equal(t, 0.6, result.Confidence)
}
