package rag

import "time"

// Size budgets for embedding and prompt construction. The remote embedding
// service enforces a hard ~36 KB per-request payload ceiling; everything
// here exists to stay comfortably inside it and inside the model's prompt
// window.
const (
	// EmbedBatchBudget is the soft aggregate-content target for one
	// embedding batch. Batch size is derived from it and the average
	// document size.
	EmbedBatchBudget = 20000

	// BatchSplitThreshold forces per-document embedding when a batch's
	// aggregate content exceeds it.
	BatchSplitThreshold = 25000

	// MaxDocumentEmbedSize is the largest single document the writer will
	// send. Larger documents are skipped and reported, not retried.
	MaxDocumentEmbedSize = 30000

	// MaxBatchSize caps how many documents go into one embedding request.
	MaxBatchSize = 10
)

// Prompt construction budgets.
const (
	// ContextBudget caps the retrieved-documents context in a prompt.
	ContextBudget = 15000

	// MaxPromptSize is the ceiling on a fully formatted prompt. Exceeding
	// it triggers a rebuild with ReducedContextBudget.
	MaxPromptSize = 30000

	// ReducedContextBudget is the context cap after a prompt overflow.
	ReducedContextBudget = 10000

	// RetryContextBudget is the context cap for the single retry after a
	// model invocation failure.
	RetryContextBudget = 5000

	// QueryDocumentationCap bounds the retrieval query built from the
	// original documentation in per-call generation.
	QueryDocumentationCap = 20000

	// MinUsableTail is the smallest truncated-document remainder worth
	// including in the context; anything shorter is dropped instead.
	MinUsableTail = 100
)

// Retrievable-document field caps.
const (
	// MaxDocumentTextSize bounds the whole document text.
	MaxDocumentTextSize = 1500

	MaxPurposeSize  = 200
	MaxScenarioSize = 200
	MaxTestDataSize = 150
	MaxListItemSize = 100
	MaxNoteSize     = 100
)

// Retrieval defaults.
const (
	// DefaultTopK is the retriever's fixed result count.
	DefaultTopK = 5

	// MaxTopK bounds configurable top-k values.
	MaxTopK = 10
)

// Courtesy pacing between remote calls. Not a correctness mechanism, just
// respect for the remote quota.
const (
	DefaultBatchDelay    = time.Second
	DefaultDocumentDelay = 150 * time.Millisecond
)
