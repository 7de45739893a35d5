package rag

import (
	"context"

	"github.com/qaforge/casegen/internal/knowledge"
)

// VectorIndex is the slice of the vector store the pipeline needs. The
// interface lives with its consumer; production wires a knowledge.Store
// through KnowledgeIndex, tests supply a mock.
type VectorIndex interface {
	// AddDocuments embeds and stores the documents in one request.
	AddDocuments(ctx context.Context, docs []knowledge.Document) error

	// SimilaritySearch returns the k most similar documents to the query.
	SimilaritySearch(ctx context.Context, query string, k int) ([]knowledge.Document, error)
}

// ModelClient is the generative model surface the pipeline needs.
// Implemented by genai.Client in production and by mocks in tests.
type ModelClient interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// KnowledgeIndex adapts a knowledge.Store to the VectorIndex interface,
// scoping all operations to test-case documents.
type KnowledgeIndex struct {
	store *knowledge.Store
}

// NewKnowledgeIndex wraps a knowledge store.
func NewKnowledgeIndex(store *knowledge.Store) *KnowledgeIndex {
	return &KnowledgeIndex{store: store}
}

// AddDocuments forwards to the store's single-request embed-and-upsert.
func (i *KnowledgeIndex) AddDocuments(ctx context.Context, docs []knowledge.Document) error {
	return i.store.AddDocuments(ctx, docs)
}

// SimilaritySearch runs a top-k search restricted to test-case documents.
func (i *KnowledgeIndex) SimilaritySearch(ctx context.Context, query string, k int) ([]knowledge.Document, error) {
	results, err := i.store.SimilaritySearch(ctx, query,
		knowledge.WithTopK(k),
		knowledge.WithFilter("source_type", knowledge.SourceTestCases))
	if err != nil {
		return nil, err
	}
	docs := make([]knowledge.Document, 0, len(results))
	for _, res := range results {
		docs = append(docs, res.Document)
	}
	return docs, nil
}

var _ VectorIndex = (*KnowledgeIndex)(nil)
