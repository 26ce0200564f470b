package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOllamaClient(t *testing.T) {
	t.Run("requires base url", func(t *testing.T) {
		_, err := NewOllamaClient(Config{Model: "llama3"}, nil)
		assert.Error(t, err)
	})

	t.Run("requires model", func(t *testing.T) {
		_, err := NewOllamaClient(Config{BaseURL: "http://localhost:11434"}, nil)
		assert.Error(t, err)
	})
}

func TestGenerate(t *testing.T) {
	t.Run("sends prompt and returns response", func(t *testing.T) {
		var gotReq map[string]any
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/api/generate", r.URL.Path)
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
			json.NewEncoder(w).Encode(map[string]any{"response": "hello there", "done": true})
		}))
		defer srv.Close()

		client, err := NewOllamaClient(Config{BaseURL: srv.URL, Model: "llama3"}, nil)
		require.NoError(t, err)

		resp, err := client.Generate(context.Background(), "say hello")
		require.NoError(t, err)
		assert.Equal(t, "hello there", resp)

		assert.Equal(t, "llama3", gotReq["model"])
		assert.Equal(t, "say hello", gotReq["prompt"])
		assert.Equal(t, false, gotReq["stream"])
	})

	t.Run("non-200 status is a hard failure", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "model not loaded", http.StatusInternalServerError)
		}))
		defer srv.Close()

		client, err := NewOllamaClient(Config{BaseURL: srv.URL, Model: "llama3"}, nil)
		require.NoError(t, err)

		_, err = client.Generate(context.Background(), "hi")
		assert.ErrorIs(t, err, ErrGenerateFailed)
	})

	t.Run("unreachable server is a hard failure", func(t *testing.T) {
		client, err := NewOllamaClient(Config{BaseURL: "http://127.0.0.1:1", Model: "llama3"}, nil)
		require.NoError(t, err)

		_, err = client.Generate(context.Background(), "hi")
		assert.ErrorIs(t, err, ErrGenerateFailed)
	})
}
