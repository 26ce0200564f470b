package chat

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/assistantd/internal/escalation"
	"github.com/fyrsmithlabs/assistantd/internal/vectorstore"
)

// fakeSearchStore serves canned fragments and records queries.
type fakeSearchStore struct {
	mu        sync.Mutex
	fragments map[string][]string // collection -> fragment contents
	queries   []string
	searchErr error
}

func (f *fakeSearchStore) AddDocuments(ctx context.Context, collection string, docs []vectorstore.Document) ([]string, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeSearchStore) Search(ctx context.Context, collection, query string, k int) ([]vectorstore.SearchResult, error) {
	f.mu.Lock()
	f.queries = append(f.queries, query)
	f.mu.Unlock()

	if f.searchErr != nil {
		return nil, f.searchErr
	}
	fragments, ok := f.fragments[collection]
	if !ok {
		return nil, vectorstore.ErrCollectionNotFound
	}
	results := make([]vectorstore.SearchResult, 0, k)
	for i, frag := range fragments {
		if i >= k {
			break
		}
		results = append(results, vectorstore.SearchResult{ID: fmt.Sprintf("r%d", i), Content: frag})
	}
	return results, nil
}

// fakeModel returns a fixed response and records prompts.
type fakeModel struct {
	mu       sync.Mutex
	response string
	err      error
	prompts  []string
}

func (f *fakeModel) Generate(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func newTestOrchestrator(t *testing.T, store *fakeSearchStore, model *fakeModel) (*Orchestrator, *escalation.Log) {
	t.Helper()
	log, err := escalation.NewLog(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	retriever, err := NewRetriever(store, 5, zap.NewNop())
	require.NoError(t, err)
	orch, err := NewOrchestrator(retriever, model, log, zap.NewNop())
	require.NoError(t, err)
	return orch, log
}

func TestChatReturnsModelResponse(t *testing.T) {
	store := &fakeSearchStore{fragments: map[string][]string{}}
	model := &fakeModel{response: "Here is a joke."}
	orch, _ := newTestOrchestrator(t, store, model)

	resp, err := orch.Chat(context.Background(), "test-tenant", "Tell me a joke.")
	require.NoError(t, err)
	assert.Equal(t, "Here is a joke.", resp)
}

func TestChatQueriesWithUserMessage(t *testing.T) {
	store := &fakeSearchStore{fragments: map[string][]string{
		"tenant_acme": {"refund policy is 30 days"},
	}}
	model := &fakeModel{response: "You have 30 days."}
	orch, _ := newTestOrchestrator(t, store, model)

	_, err := orch.Chat(context.Background(), "acme", "what is the refund policy?")
	require.NoError(t, err)

	require.Len(t, store.queries, 1)
	assert.Equal(t, "what is the refund policy?", store.queries[0],
		"retrieval must use the user's message, not an empty query")
}

func TestChatIncludesContextInPrompt(t *testing.T) {
	store := &fakeSearchStore{fragments: map[string][]string{
		"tenant_acme": {"refund policy is 30 days", "support is 9-5"},
	}}
	model := &fakeModel{response: "ok"}
	orch, _ := newTestOrchestrator(t, store, model)

	_, err := orch.Chat(context.Background(), "acme", "refunds?")
	require.NoError(t, err)

	require.Len(t, model.prompts, 1)
	assert.Contains(t, model.prompts[0], "refund policy is 30 days")
	assert.Contains(t, model.prompts[0], "User: refunds?")
}

func TestChatWithNoCollection(t *testing.T) {
	store := &fakeSearchStore{fragments: map[string][]string{}}
	model := &fakeModel{response: "hello"}
	orch, _ := newTestOrchestrator(t, store, model)

	resp, err := orch.Chat(context.Background(), "fresh-tenant", "hi")
	require.NoError(t, err)
	assert.Equal(t, "hello", resp)
	assert.Equal(t, []string{"User: hi"}, model.prompts)
}

func TestChatRecordsEscalation(t *testing.T) {
	store := &fakeSearchStore{fragments: map[string][]string{}}
	model := &fakeModel{response: "This needs an Escalation to a human."}
	orch, log := newTestOrchestrator(t, store, model)

	_, err := orch.Chat(context.Background(), "acme", "I want to escalate")
	require.NoError(t, err)

	records, err := log.List("acme")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "I want to escalate", records[0].Message)
	assert.Equal(t, "This needs an Escalation to a human.", records[0].Response)
	assert.NotEmpty(t, records[0].Date)
}

func TestChatWithoutEscalationKeyword(t *testing.T) {
	store := &fakeSearchStore{fragments: map[string][]string{}}
	model := &fakeModel{response: "All good, nothing to do."}
	orch, log := newTestOrchestrator(t, store, model)

	_, err := orch.Chat(context.Background(), "acme", "status?")
	require.NoError(t, err)

	records, err := log.List("acme")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestChatModelFailure(t *testing.T) {
	store := &fakeSearchStore{fragments: map[string][]string{}}
	model := &fakeModel{err: errors.New("model unreachable")}
	orch, log := newTestOrchestrator(t, store, model)

	_, err := orch.Chat(context.Background(), "acme", "hi")
	require.Error(t, err)

	records, err := log.List("acme")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestChatStoreFailure(t *testing.T) {
	store := &fakeSearchStore{searchErr: errors.New("store down")}
	model := &fakeModel{response: "unused"}
	orch, _ := newTestOrchestrator(t, store, model)

	_, err := orch.Chat(context.Background(), "acme", "hi")
	assert.Error(t, err)
	assert.Empty(t, model.prompts, "model not called when retrieval fails")
}

func TestSequentialEscalationsAreOrdered(t *testing.T) {
	store := &fakeSearchStore{fragments: map[string][]string{}}
	model := &fakeModel{response: "escalation required"}
	orch, log := newTestOrchestrator(t, store, model)

	const n = 5
	for i := 0; i < n; i++ {
		_, err := orch.Chat(context.Background(), "acme", fmt.Sprintf("msg-%d", i))
		require.NoError(t, err)
	}

	records, err := log.List("acme")
	require.NoError(t, err)
	require.Len(t, records, n)
	for i, rec := range records {
		assert.Equal(t, fmt.Sprintf("msg-%d", i), rec.Message)
	}
}

func TestConcurrentEscalationsLoseNothing(t *testing.T) {
	store := &fakeSearchStore{fragments: map[string][]string{}}
	model := &fakeModel{response: "escalation required"}
	orch, log := newTestOrchestrator(t, store, model)

	const k = 20
	var wg sync.WaitGroup
	for i := 0; i < k; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := orch.Chat(context.Background(), "acme", fmt.Sprintf("msg-%d", i))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	records, err := log.List("acme")
	require.NoError(t, err)
	assert.Len(t, records, k)
}

func TestIsEscalation(t *testing.T) {
	assert.True(t, IsEscalation("needs ESCALATION now"))
	assert.True(t, IsEscalation("escalation"))
	assert.False(t, IsEscalation("escalat"))
	assert.False(t, IsEscalation("all fine"))
}
