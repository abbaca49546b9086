package genai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"infotec-chatbot/internal/common/config"
	commonerrors "infotec-chatbot/internal/common/errors"
	"infotec-chatbot/internal/common/logger"
)

func testConfig(baseURL string) *config.GeneratorConfig {
	return &config.GeneratorConfig{
		BaseURL:     baseURL,
		Timeout:     2 * time.Second,
		MaxRetries:  1,
		MaxTokens:   300,
		Temperature: 0.7,
	}
}

func TestGenerate_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/ai/generate", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "hola", body["prompt"])

		json.NewEncoder(w).Encode(map[string]interface{}{
			"text": "¡Hola! ¿En qué puedo ayudarte?",
		})
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), logger.NewNoOpLogger())

	text, err := client.Generate(context.Background(), "hola")
	require.NoError(t, err)
	assert.Equal(t, "¡Hola! ¿En qué puedo ayudarte?", text)
}

func TestGenerate_RetriesThenSucceeds(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"text": "respuesta"})
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), logger.NewNoOpLogger())

	text, err := client.Generate(context.Background(), "pregunta")
	require.NoError(t, err)
	assert.Equal(t, "respuesta", text)
	assert.Equal(t, 2, calls)
}

func TestGenerate_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
		json.NewEncoder(w).Encode(map[string]interface{}{"text": "tarde"})
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.Timeout = 50 * time.Millisecond
	client := NewClient(cfg, logger.NewNoOpLogger())

	_, err := client.Generate(context.Background(), "hola")
	assert.True(t, errors.Is(err, commonerrors.ErrGeneratorTimeout))
}

func TestGenerate_PersistentFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), logger.NewNoOpLogger())

	_, err := client.Generate(context.Background(), "hola")
	assert.True(t, errors.Is(err, commonerrors.ErrGenerationFailed))
}

func TestGenerate_EmptyCompletion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"text": "   "})
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), logger.NewNoOpLogger())

	_, err := client.Generate(context.Background(), "hola")
	assert.True(t, errors.Is(err, commonerrors.ErrGenerationFailed))
}
