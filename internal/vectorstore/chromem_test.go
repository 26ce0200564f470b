package vectorstore_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/fyrsmithlabs/assistantd/internal/vectorstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// testEmbedder returns deterministic normalized vectors.
type testEmbedder struct {
	vectorSize int
}

func (e *testEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		embeddings[i] = e.makeEmbedding(text)
	}
	return embeddings, nil
}

func (e *testEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return e.makeEmbedding(text), nil
}

// makeEmbedding creates a normalized embedding based on text hash.
func (e *testEmbedder) makeEmbedding(text string) []float32 {
	embedding := make([]float32, e.vectorSize)
	hash := 0
	for _, c := range text {
		hash = (hash*31 + int(c)) % 1000
	}
	var sumSq float32
	for i := range embedding {
		embedding[i] = float32((hash+i)%100) / 100.0
		sumSq += embedding[i] * embedding[i]
	}
	// chromem requires normalized vectors
	if sumSq > 0 {
		norm := float32(1.0) / sqrt32(sumSq)
		for i := range embedding {
			embedding[i] *= norm
		}
	}
	return embedding
}

func sqrt32(x float32) float32 {
	if x <= 0 {
		return 0
	}
	z := x / 2
	for i := 0; i < 10; i++ {
		z = (z + x/z) / 2
	}
	return z
}

func newTestStore(t *testing.T) *vectorstore.ChromemStore {
	t.Helper()

	config := vectorstore.ChromemConfig{
		Path:       t.TempDir(),
		Compress:   false, // Faster for tests
		VectorSize: 64,
	}

	store, err := vectorstore.NewChromemStore(config, &testEmbedder{vectorSize: 64}, zap.NewNop())
	require.NoError(t, err)
	return store
}

func TestNewChromemStore(t *testing.T) {
	t.Run("requires embedder", func(t *testing.T) {
		_, err := vectorstore.NewChromemStore(vectorstore.ChromemConfig{Path: t.TempDir()}, nil, zap.NewNop())
		assert.ErrorIs(t, err, vectorstore.ErrInvalidConfig)
	})

	t.Run("rejects invalid vector size", func(t *testing.T) {
		cfg := vectorstore.ChromemConfig{Path: t.TempDir(), VectorSize: -1}
		_, err := vectorstore.NewChromemStore(cfg, &testEmbedder{vectorSize: 64}, zap.NewNop())
		assert.ErrorIs(t, err, vectorstore.ErrInvalidConfig)
	})
}

func TestAddDocuments(t *testing.T) {
	ctx := context.Background()

	t.Run("creates collection lazily and returns ids", func(t *testing.T) {
		store := newTestStore(t)

		docs := []vectorstore.Document{
			{ID: "a", Content: "alpha", Metadata: map[string]string{"file": "a.md"}},
			{ID: "b", Content: "bravo", Metadata: map[string]string{"file": "a.md"}},
		}

		ids, err := store.AddDocuments(ctx, "tenant_acme", docs)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, ids)

		count, err := store.Count("tenant_acme")
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})

	t.Run("rejects empty batch", func(t *testing.T) {
		store := newTestStore(t)
		_, err := store.AddDocuments(ctx, "tenant_acme", nil)
		assert.ErrorIs(t, err, vectorstore.ErrEmptyDocuments)
	})

	t.Run("rejects invalid collection name", func(t *testing.T) {
		store := newTestStore(t)
		_, err := store.AddDocuments(ctx, "../evil", []vectorstore.Document{{ID: "a", Content: "x"}})
		assert.ErrorIs(t, err, vectorstore.ErrInvalidCollectionName)
	})

	t.Run("auto-generates missing ids", func(t *testing.T) {
		store := newTestStore(t)
		ids, err := store.AddDocuments(ctx, "tenant_acme", []vectorstore.Document{{Content: "no id"}})
		require.NoError(t, err)
		require.Len(t, ids, 1)
		assert.NotEmpty(t, ids[0])
	})
}

func TestSearch(t *testing.T) {
	ctx := context.Background()

	t.Run("missing collection returns sentinel", func(t *testing.T) {
		store := newTestStore(t)
		_, err := store.Search(ctx, "tenant_nobody", "anything", 5)
		assert.ErrorIs(t, err, vectorstore.ErrCollectionNotFound)
	})

	t.Run("caps k at collection size", func(t *testing.T) {
		store := newTestStore(t)
		_, err := store.AddDocuments(ctx, "tenant_acme", []vectorstore.Document{
			{ID: "a", Content: "only document"},
		})
		require.NoError(t, err)

		results, err := store.Search(ctx, "tenant_acme", "only document", 5)
		require.NoError(t, err)
		assert.Len(t, results, 1)
		assert.Equal(t, "only document", results[0].Content)
	})

	t.Run("rejects empty query", func(t *testing.T) {
		store := newTestStore(t)
		_, err := store.Search(ctx, "tenant_acme", "", 5)
		assert.Error(t, err)
	})

	t.Run("results carry metadata", func(t *testing.T) {
		store := newTestStore(t)
		_, err := store.AddDocuments(ctx, "tenant_acme", []vectorstore.Document{
			{ID: "a", Content: "return policy text", Metadata: map[string]string{"file": "policy.md", "tenant_id": "acme"}},
		})
		require.NoError(t, err)

		results, err := store.Search(ctx, "tenant_acme", "return policy text", 1)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "policy.md", results[0].Metadata["file"])
	})
}

func TestTenantPartitioning(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	for i := 0; i < 3; i++ {
		_, err := store.AddDocuments(ctx, "tenant_a", []vectorstore.Document{
			{ID: fmt.Sprintf("a-%d", i), Content: fmt.Sprintf("tenant a secret %d", i)},
		})
		require.NoError(t, err)
	}
	_, err := store.AddDocuments(ctx, "tenant_b", []vectorstore.Document{
		{ID: "b-0", Content: "tenant b data"},
	})
	require.NoError(t, err)

	// Tenant B sees only its own document regardless of k.
	results, err := store.Search(ctx, "tenant_b", "tenant a secret 0", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "b-0", results[0].ID)

	countA, err := store.Count("tenant_a")
	require.NoError(t, err)
	assert.Equal(t, 3, countA)
}

func TestValidateCollectionName(t *testing.T) {
	assert.NoError(t, vectorstore.ValidateCollectionName("tenant_acme"))
	assert.Error(t, vectorstore.ValidateCollectionName(""))
	assert.Error(t, vectorstore.ValidateCollectionName("../evil"))
	assert.Error(t, vectorstore.ValidateCollectionName("has space"))
}
