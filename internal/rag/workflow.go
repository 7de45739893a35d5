package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/qaforge/casegen/internal/knowledge"
	"github.com/qaforge/casegen/internal/log"
	"github.com/qaforge/casegen/internal/planner"
	"github.com/qaforge/casegen/internal/testcase"
)

var (
	// ErrNotInitialized indicates Initialize was never called. This is a
	// configuration error, fatal to the call.
	ErrNotInitialized = errors.New("workflow not initialized")

	// ErrNotEmbedded indicates no documents are embedded yet. Distinct
	// from a search returning zero documents, which is not an error.
	ErrNotEmbedded = errors.New("no documents embedded")
)

// Result is the outcome of one generation run. RawResponse, FinalPrompt
// and ContextUsed expose exactly what the model saw and said, for
// debugging and audit.
type Result struct {
	GeneratedCases []testcase.Record `json:"generated_cases"`
	RawResponse    string            `json:"raw_response"`
	FinalPrompt    string            `json:"final_prompt"`
	ContextUsed    string            `json:"context_used"`
}

// Workflow is the retrieve-then-generate pipeline: retrieve similar
// historical test cases, build a size-bounded prompt, invoke the model,
// parse the response. Model failures are absorbed by context-shrink
// retries and, as a last resort, a synthetic error response; only
// configuration errors surface as Go errors.
//
// A Workflow is not safe for concurrent use; callers serialize access.
type Workflow struct {
	model     ModelClient
	index     VectorIndex
	retriever *Retriever
	writer    *IndexWriter
	parser    *Parser
	logger    log.Logger

	state State
	runID string
}

// WorkflowOption configures a Workflow.
type WorkflowOption func(*Workflow)

// WithRetriever replaces the default retriever.
func WithRetriever(r *Retriever) WorkflowOption {
	return func(w *Workflow) { w.retriever = r }
}

// WithIndexWriter replaces the default index writer. Tests use this to
// disable pacing delays.
func WithIndexWriter(iw *IndexWriter) WorkflowOption {
	return func(w *Workflow) { w.writer = iw }
}

// NewWorkflow creates a workflow over the given model and index. The
// workflow starts Uninitialized; call Initialize before generating.
func NewWorkflow(model ModelClient, index VectorIndex, logger log.Logger, opts ...WorkflowOption) *Workflow {
	w := &Workflow{
		model:  model,
		index:  index,
		logger: logger.With("component", "workflow"),
		state:  StateUninitialized,
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.retriever == nil {
		w.retriever = NewRetriever(index, logger)
	}
	if w.writer == nil {
		w.writer = NewIndexWriter(index, logger)
	}
	w.parser = NewParser(logger)
	return w
}

// State returns the current lifecycle state.
func (w *Workflow) State() State {
	return w.state
}

// IsEmbedded reports whether at least one document has been embedded.
func (w *Workflow) IsEmbedded() bool {
	return w.state == StateEmbedded
}

// Initialize checks the wiring and marks the workflow ready. Calling it
// again is a no-op and never regresses the state.
func (w *Workflow) Initialize() error {
	if w.state != StateUninitialized {
		return nil
	}
	if w.model == nil || w.index == nil {
		return fmt.Errorf("%w: model and index are required", ErrNotInitialized)
	}
	w.runID = uuid.New().String()
	w.state = StateInitialized
	w.logger = w.logger.With("run_id", w.runID)
	w.logger.Debug("workflow initialized")
	return nil
}

// Resume reports whether the workflow can act as Embedded: either it
// already is, or a probe shows the index holds documents from a previous
// run, in which case the state advances. Requires Initialize first.
func (w *Workflow) Resume(ctx context.Context) bool {
	switch w.state {
	case StateUninitialized:
		return false
	case StateEmbedded:
		return true
	}
	if w.retriever.Probe(ctx) {
		w.state = StateEmbedded
		return true
	}
	return false
}

// Embed writes the documents through the index writer and, on at least one
// success, advances the state to Embedded. Re-embedding is additive.
func (w *Workflow) Embed(ctx context.Context, docs []knowledge.Document) (EmbedResult, error) {
	if w.state == StateUninitialized {
		return EmbedResult{}, ErrNotInitialized
	}

	res, err := w.writer.Embed(ctx, docs)
	if res.EmbeddedCount > 0 {
		w.state = StateEmbedded
	}
	return res, err
}

// GenerateTestCases retrieves similar test cases for the documentation and
// generates new ones. Zero retrieved documents is a valid input to
// generation, not an error.
func (w *Workflow) GenerateTestCases(ctx context.Context, documentation, customPrompt string) (Result, error) {
	if err := w.checkReady(); err != nil {
		return Result{}, err
	}

	docs, err := w.retriever.Search(ctx, documentation)
	if err != nil {
		return Result{}, fmt.Errorf("retrieve: %w", err)
	}
	return w.generate(ctx, documentation, docs, customPrompt), nil
}

// GenerateForCall runs one focused call of a generation plan. The query is
// built from the original documentation, capped at QueryDocumentationCap,
// and the prompt gets a preamble pinning the model to the call's focus
// area.
func (w *Workflow) GenerateForCall(ctx context.Context, plan *planner.Plan, callID int, customPrompt string) (Result, error) {
	if err := w.checkReady(); err != nil {
		return Result{}, err
	}

	cc, err := planner.ContextFor(plan, callID)
	if err != nil {
		return Result{}, err
	}

	query := cc.OriginalDocumentation
	if len(query) > QueryDocumentationCap {
		query = query[:QueryDocumentationCap]
	}

	docs, err := w.retriever.Search(ctx, query)
	if err != nil {
		return Result{}, fmt.Errorf("retrieve: %w", err)
	}

	preamble := fmt.Sprintf(focusPreamble,
		cc.CallID, cc.TotalCalls,
		cc.FocusArea, cc.Description, cc.ContentScope, cc.EstimatedTestCases)
	template := preamble + promptTemplate(customPrompt)

	w.logger.Info("generating for call",
		"call_id", cc.CallID, "focus_area", cc.FocusArea, "retrieved", len(docs))
	return w.generateWithTemplate(ctx, query, docs, template), nil
}

func (w *Workflow) checkReady() error {
	switch w.state {
	case StateUninitialized:
		return ErrNotInitialized
	case StateInitialized:
		return ErrNotEmbedded
	}
	return nil
}

func (w *Workflow) generate(ctx context.Context, question string, docs []knowledge.Document, customPrompt string) Result {
	return w.generateWithTemplate(ctx, question, docs, promptTemplate(customPrompt))
}

// generateWithTemplate builds the bounded prompt and invokes the model,
// shrinking context on prompt overflow and once more on invocation
// failure. A second failure produces a synthetic error response instead of
// a Go error.
func (w *Workflow) generateWithTemplate(ctx context.Context, question string, docs []knowledge.Document, template string) Result {
	contextText := buildContext(docs, ContextBudget)
	prompt := formatPrompt(template, contextText, question)

	if len(prompt) > MaxPromptSize {
		w.logger.Debug("prompt over limit, shrinking context",
			"prompt_chars", len(prompt))
		contextText = buildContext(docs, ReducedContextBudget)
		prompt = formatPrompt(template, contextText, question)
	}

	raw, err := w.model.Generate(ctx, prompt)
	if err != nil {
		w.logger.Warn("model invocation failed, retrying with reduced context", "error", err)
		contextText = buildContext(docs, RetryContextBudget)
		prompt = formatPrompt(template, contextText, question)

		raw, err = w.model.Generate(ctx, prompt)
		if err != nil {
			w.logger.Error("model invocation failed after retry", "error", err)
			return Result{
				GeneratedCases: []testcase.Record{},
				RawResponse:    fmt.Sprintf("ERROR: test case generation failed after retry: %v", err),
				FinalPrompt:    prompt,
				ContextUsed:    contextText,
			}
		}
	}

	cases := w.parser.Parse(raw)
	w.logger.Info("generation complete",
		"cases", len(cases), "prompt_chars", len(prompt), "context_chars", len(contextText))

	return Result{
		GeneratedCases: cases,
		RawResponse:    raw,
		FinalPrompt:    prompt,
		ContextUsed:    contextText,
	}
}

// contextTruncationNotice marks a context that lost documents to the
// budget.
const contextTruncationNotice = "\n\n[Context truncated to fit size limits]"

// buildContext concatenates document text up to the budget. A document
// that does not fully fit is tail-truncated when more than MinUsableTail
// characters of room remain, otherwise dropped; either way the notice is
// appended and no further documents are considered.
func buildContext(docs []knowledge.Document, budget int) string {
	var b strings.Builder
	truncated := false

	for _, doc := range docs {
		text := doc.Content
		sep := ""
		if b.Len() > 0 {
			sep = "\n\n"
		}

		if b.Len()+len(sep)+len(text) <= budget {
			b.WriteString(sep)
			b.WriteString(text)
			continue
		}

		remaining := budget - b.Len() - len(sep)
		if remaining > MinUsableTail {
			b.WriteString(sep)
			b.WriteString(text[:remaining])
		}
		truncated = true
		break
	}

	if truncated {
		b.WriteString(contextTruncationNotice)
	}
	return b.String()
}
