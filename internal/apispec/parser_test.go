package apispec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const petstoreSpec = `{
  "openapi": "3.0.0",
  "info": {"title": "Petstore", "version": "1.2.0"},
  "paths": {
    "/pets": {
      "get": {"summary": "List pets"},
      "post": {"description": "Create a pet"}
    },
    "/pets/{id}": {
      "get": {}
    }
  }
}`

func TestParse(t *testing.T) {
	t.Run("extracts summary", func(t *testing.T) {
		summary, err := Parse([]byte(petstoreSpec))
		require.NoError(t, err)

		assert.Equal(t, "Petstore", summary.Title)
		assert.Equal(t, "1.2.0", summary.Version)
		require.Len(t, summary.Endpoints, 3)

		assert.Equal(t, Endpoint{Method: "GET", URL: "/pets", Description: "List pets"}, summary.Endpoints[0])
		assert.Equal(t, Endpoint{Method: "POST", URL: "/pets", Description: "Create a pet"}, summary.Endpoints[1])
		assert.Equal(t, Endpoint{Method: "GET", URL: "/pets/{id}", Description: "No description"}, summary.Endpoints[2])
	})

	t.Run("missing title and version degrade to placeholders", func(t *testing.T) {
		summary, err := Parse([]byte(`{"openapi":"3.0.0","info":{},"paths":{}}`))
		require.NoError(t, err)
		assert.Equal(t, "No title", summary.Title)
		assert.Equal(t, "No version", summary.Version)
		assert.Empty(t, summary.Endpoints)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		_, err := Parse([]byte(`{not json`))
		assert.ErrorIs(t, err, ErrInvalidJSON)
	})

	t.Run("valid JSON but not OpenAPI", func(t *testing.T) {
		_, err := Parse([]byte(`{"knowledge": "just a document"}`))
		assert.ErrorIs(t, err, ErrNotOpenAPI)
	})

	t.Run("missing paths key", func(t *testing.T) {
		_, err := Parse([]byte(`{"openapi":"3.0.0","info":{"title":"x"}}`))
		assert.ErrorIs(t, err, ErrNotOpenAPI)
	})
}
