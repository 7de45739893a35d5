package rag

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/qaforge/casegen/internal/knowledge"
	"github.com/qaforge/casegen/internal/log"
)

// EmbedResult reports the outcome of one embedding pass. Partial success
// is success: Errors accounts for every skipped or failed document without
// failing the call.
type EmbedResult struct {
	EmbeddedCount  int      `json:"embedded_count"`
	TotalDocuments int      `json:"total_documents"`
	Errors         []string `json:"errors,omitempty"`
}

// IndexWriter embeds documents into the vector index in adaptively sized
// batches. Batch size is derived from the average document size against
// EmbedBatchBudget; oversized batches and failed batches fall back to
// per-document embedding, and oversized documents are skipped.
type IndexWriter struct {
	index        VectorIndex
	logger       log.Logger
	batchLimiter *rate.Limiter
	docLimiter   *rate.Limiter
}

// IndexWriterOption configures an IndexWriter.
type IndexWriterOption func(*indexWriterConfig)

type indexWriterConfig struct {
	batchDelay time.Duration
	docDelay   time.Duration
}

// WithBatchDelay overrides the inter-batch pacing delay. Zero disables
// pacing; tests use this.
func WithBatchDelay(d time.Duration) IndexWriterOption {
	return func(cfg *indexWriterConfig) { cfg.batchDelay = d }
}

// WithDocumentDelay overrides the inter-document pacing delay used in
// per-document fallback mode.
func WithDocumentDelay(d time.Duration) IndexWriterOption {
	return func(cfg *indexWriterConfig) { cfg.docDelay = d }
}

// NewIndexWriter creates a writer for the given index.
func NewIndexWriter(index VectorIndex, logger log.Logger, opts ...IndexWriterOption) *IndexWriter {
	cfg := indexWriterConfig{
		batchDelay: DefaultBatchDelay,
		docDelay:   DefaultDocumentDelay,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &IndexWriter{
		index:        index,
		logger:       logger.With("component", "index_writer"),
		batchLimiter: rate.NewLimiter(rate.Every(cfg.batchDelay), 1),
		docLimiter:   rate.NewLimiter(rate.Every(cfg.docDelay), 1),
	}
}

// Embed writes the documents to the index. It returns a non-nil error only
// when nothing could be embedded at all or the context was cancelled;
// otherwise the per-document problems are reported in EmbedResult.Errors.
func (w *IndexWriter) Embed(ctx context.Context, docs []knowledge.Document) (EmbedResult, error) {
	res := EmbedResult{TotalDocuments: len(docs)}
	if len(docs) == 0 {
		return res, nil
	}

	total := 0
	for _, doc := range docs {
		total += len(doc.Content)
	}
	batchSize := batchSizeFor(total, len(docs))

	w.logger.Debug("embedding documents",
		"count", len(docs), "total_chars", total, "batch_size", batchSize)

	for start := 0; start < len(docs); start += batchSize {
		if err := w.batchLimiter.Wait(ctx); err != nil {
			return res, fmt.Errorf("embedding interrupted: %w", err)
		}

		end := start + batchSize
		if end > len(docs) {
			end = len(docs)
		}
		batch := docs[start:end]

		aggregate := 0
		for _, doc := range batch {
			aggregate += len(doc.Content)
		}

		if aggregate > BatchSplitThreshold {
			w.logger.Debug("batch over split threshold, embedding individually",
				"aggregate_chars", aggregate)
			if err := w.embedIndividually(ctx, batch, &res); err != nil {
				return res, err
			}
			continue
		}

		if err := w.index.AddDocuments(ctx, batch); err != nil {
			w.logger.Warn("batch embed failed, falling back to per-document",
				"batch_size", len(batch), "error", err)
			if err := w.embedIndividually(ctx, batch, &res); err != nil {
				return res, err
			}
			continue
		}
		res.EmbeddedCount += len(batch)
	}

	if res.EmbeddedCount == 0 {
		return res, fmt.Errorf("embedding failed for all %d documents: %v",
			res.TotalDocuments, res.Errors)
	}

	w.logger.Info("embedding complete",
		"embedded", res.EmbeddedCount, "total", res.TotalDocuments, "errors", len(res.Errors))
	return res, nil
}

// embedIndividually embeds each document of a batch on its own, recording
// failures and size skips in the result. Only context cancellation aborts.
func (w *IndexWriter) embedIndividually(ctx context.Context, batch []knowledge.Document, res *EmbedResult) error {
	for _, doc := range batch {
		if err := w.docLimiter.Wait(ctx); err != nil {
			return fmt.Errorf("embedding interrupted: %w", err)
		}

		if len(doc.Content) > MaxDocumentEmbedSize {
			res.Errors = append(res.Errors, fmt.Sprintf(
				"document %s skipped: %d chars exceeds limit %d",
				doc.ID, len(doc.Content), MaxDocumentEmbedSize))
			continue
		}

		if err := w.index.AddDocuments(ctx, []knowledge.Document{doc}); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf(
				"document %s failed: %v", doc.ID, err))
			continue
		}
		res.EmbeddedCount++
	}
	return nil
}

// batchSizeFor derives the batch size from the average document size so a
// batch's aggregate content lands near EmbedBatchBudget.
func batchSizeFor(totalChars, docCount int) int {
	avg := totalChars / docCount
	if avg < 1 {
		avg = 1
	}
	size := EmbedBatchBudget / avg
	if size < 1 {
		return 1
	}
	if size > MaxBatchSize {
		return MaxBatchSize
	}
	return size
}
