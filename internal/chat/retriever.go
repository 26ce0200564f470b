package chat

import (
	"context"
	"errors"
	"fmt"

	"github.com/fyrsmithlabs/assistantd/internal/tenant"
	"github.com/fyrsmithlabs/assistantd/internal/vectorstore"
	"go.uber.org/zap"
)

// Retriever fetches grounding context from a tenant's vector
// collection.
type Retriever struct {
	store  vectorstore.Store
	topK   int
	logger *zap.Logger
}

// NewRetriever creates a context retriever. topK bounds the number of
// fragments returned per query.
func NewRetriever(store vectorstore.Store, topK int, logger *zap.Logger) (*Retriever, error) {
	if store == nil {
		return nil, fmt.Errorf("vector store is required")
	}
	if topK <= 0 {
		return nil, fmt.Errorf("topK must be positive, got %d", topK)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Retriever{
		store:  store,
		topK:   topK,
		logger: logger.Named("retriever"),
	}, nil
}

// Context returns up to topK text fragments from the tenant's
// collection, most similar to the query first.
//
// A tenant with no collection yet (nothing ingested) gets an empty
// slice, not an error - that is a normal outcome.
func (r *Retriever) Context(ctx context.Context, id tenant.ID, query string) ([]string, error) {
	results, err := r.store.Search(ctx, id.Collection(), query, r.topK)
	if err != nil {
		if errors.Is(err, vectorstore.ErrCollectionNotFound) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("retrieving context: %w", err)
	}

	fragments := make([]string, len(results))
	for i, res := range results {
		fragments[i] = res.Content
	}

	r.logger.Debug("retrieved context",
		zap.String("tenant", id.String()),
		zap.Int("fragments", len(fragments)),
	)

	return fragments, nil
}
