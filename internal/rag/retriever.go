package rag

import (
	"context"
	"fmt"

	"github.com/qaforge/casegen/internal/knowledge"
	"github.com/qaforge/casegen/internal/log"
)

// Retriever wraps the vector index behind a fixed top-k contract. Pure
// delegation; no caching, no re-ranking.
type Retriever struct {
	index  VectorIndex
	topK   int
	logger log.Logger
}

// RetrieverOption configures a Retriever.
type RetrieverOption func(*Retriever)

// WithTopK sets the fixed result count. Values outside [1, MaxTopK] keep
// the default of DefaultTopK.
func WithTopK(k int) RetrieverOption {
	return func(r *Retriever) {
		if k >= 1 && k <= MaxTopK {
			r.topK = k
		}
	}
}

// NewRetriever creates a retriever over the index.
func NewRetriever(index VectorIndex, logger log.Logger, opts ...RetrieverOption) *Retriever {
	r := &Retriever{
		index:  index,
		topK:   DefaultTopK,
		logger: logger.With("component", "retriever"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// TopK returns the fixed result count.
func (r *Retriever) TopK() int {
	return r.topK
}

// Search returns the top-k documents most similar to the query. An empty
// result is not an error.
func (r *Retriever) Search(ctx context.Context, query string) ([]knowledge.Document, error) {
	docs, err := r.index.SimilaritySearch(ctx, query, r.topK)
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}
	r.logger.Debug("retrieved documents", "count", len(docs), "top_k", r.topK)
	return docs, nil
}

// Probe reports whether anything is indexed yet, using a minimal search.
// Errors read as "not embedded".
func (r *Retriever) Probe(ctx context.Context) bool {
	docs, err := r.index.SimilaritySearch(ctx, "test", 1)
	if err != nil {
		r.logger.Debug("probe failed", "error", err)
		return false
	}
	return len(docs) > 0
}
