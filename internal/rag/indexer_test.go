package rag

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qaforge/casegen/internal/knowledge"
	"github.com/qaforge/casegen/internal/log"
	"github.com/qaforge/casegen/internal/testutil"
)

// newTestWriter disables pacing so tests run instantly.
func newTestWriter(index VectorIndex) *IndexWriter {
	return NewIndexWriter(index, log.NewNop(),
		WithBatchDelay(0), WithDocumentDelay(0))
}

func docsOfSize(count, size int) []knowledge.Document {
	docs := make([]knowledge.Document, count)
	for i := range docs {
		docs[i] = knowledge.Document{
			ID:      string(rune('a' + i)),
			Content: strings.Repeat("x", size),
		}
	}
	return docs
}

func TestBatchSizeFor(t *testing.T) {
	tests := []struct {
		name       string
		totalChars int
		docCount   int
		want       int
	}{
		{"avg 400 clamps to max", 2800, 7, 10},
		{"avg 4000 gives 5", 20000, 5, 5},
		{"avg larger than budget gives 1", 60000, 2, 1},
		{"tiny docs clamp to max", 10, 10, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, batchSizeFor(tt.totalChars, tt.docCount))
		})
	}
}

func TestEmbed_SingleBatch(t *testing.T) {
	index := &testutil.MockIndex{}
	writer := newTestWriter(index)

	res, err := writer.Embed(context.Background(), docsOfSize(7, 400))
	require.NoError(t, err)
	assert.Equal(t, 7, res.EmbeddedCount)
	assert.Equal(t, 7, res.TotalDocuments)
	assert.Empty(t, res.Errors)
	assert.Equal(t, []int{7}, index.AddCalls, "avg 400 chars fits one batch of 10")
}

func TestEmbed_EmptyInput(t *testing.T) {
	index := &testutil.MockIndex{}
	res, err := newTestWriter(index).Embed(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, res.TotalDocuments)
	assert.Empty(t, index.AddCalls)
}

func TestEmbed_SplitsOversizedBatch(t *testing.T) {
	// Average size 7050 gives batch size 2. The second batch aggregates
	// 28000 chars, over the split threshold, so it must go per-document.
	docs := []knowledge.Document{
		{ID: "small-1", Content: strings.Repeat("a", 100)},
		{ID: "small-2", Content: strings.Repeat("b", 100)},
		{ID: "big-1", Content: strings.Repeat("c", 14000)},
		{ID: "big-2", Content: strings.Repeat("d", 14000)},
	}

	index := &testutil.MockIndex{}
	res, err := newTestWriter(index).Embed(context.Background(), docs)
	require.NoError(t, err)
	assert.Equal(t, 4, res.EmbeddedCount)
	assert.Empty(t, res.Errors)
	assert.Equal(t, []int{2, 1, 1}, index.AddCalls,
		"oversized batch falls back to per-document requests")
}

func TestEmbed_BatchFailureFallsBackPerDocument(t *testing.T) {
	index := &testutil.MockIndex{AddFailuresLeft: 1}
	res, err := newTestWriter(index).Embed(context.Background(), docsOfSize(3, 100))
	require.NoError(t, err)

	// First call is the failed batch of 3; then 3 individual retries.
	assert.Equal(t, []int{3, 1, 1, 1}, index.AddCalls)
	assert.Equal(t, 3, res.EmbeddedCount)
	assert.Empty(t, res.Errors)
}

func TestEmbed_OversizedDocumentSkipped(t *testing.T) {
	docs := []knowledge.Document{
		{ID: "ok", Content: strings.Repeat("a", 100)},
		{ID: "giant", Content: strings.Repeat("b", MaxDocumentEmbedSize+1)},
	}

	index := &testutil.MockIndex{}
	res, err := newTestWriter(index).Embed(context.Background(), docs)
	require.NoError(t, err)
	assert.Equal(t, 1, res.EmbeddedCount)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "giant")
	assert.Contains(t, res.Errors[0], "skipped")
}

func TestEmbed_AccountingProperty(t *testing.T) {
	// Every document is either embedded or accounted for in Errors.
	docs := append(docsOfSize(3, 100),
		knowledge.Document{ID: "giant", Content: strings.Repeat("z", MaxDocumentEmbedSize+1)})

	index := &testutil.MockIndex{}
	res, err := newTestWriter(index).Embed(context.Background(), docs)
	require.NoError(t, err)
	assert.Equal(t, res.TotalDocuments, res.EmbeddedCount+len(res.Errors))
	assert.LessOrEqual(t, res.EmbeddedCount, res.TotalDocuments)
}

func TestEmbed_TotalFailureIsFatal(t *testing.T) {
	index := &testutil.MockIndex{AddErr: errors.New("index unreachable")}
	res, err := newTestWriter(index).Embed(context.Background(), docsOfSize(2, 100))

	require.Error(t, err)
	assert.Zero(t, res.EmbeddedCount)
	assert.Len(t, res.Errors, 2, "each document's failure is recorded")
}

func TestEmbed_PartialFailureIsSuccess(t *testing.T) {
	// Batch fails once, then the first individual retry fails too; the
	// remaining documents embed fine.
	index := &testutil.MockIndex{AddFailuresLeft: 2}
	res, err := newTestWriter(index).Embed(context.Background(), docsOfSize(3, 100))

	require.NoError(t, err, "partial embedding is success")
	assert.Equal(t, 2, res.EmbeddedCount)
	assert.Len(t, res.Errors, 1)
}

func TestEmbed_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	index := &testutil.MockIndex{}
	// Non-zero delay forces the limiter to observe the cancelled context.
	writer := NewIndexWriter(index, log.NewNop(),
		WithBatchDelay(time.Hour), WithDocumentDelay(0))

	_, err := writer.Embed(ctx, docsOfSize(2, 100))
	assert.ErrorIs(t, err, context.Canceled)
}
