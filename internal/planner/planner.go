// Package planner decomposes large API documentation into a bounded
// generation plan: a condensed copy of the documentation plus an ordered
// list of focused calls, each scoped to a sub-domain with an estimated
// test-case yield. Plans are created once per documentation analysis,
// consumed across the generation calls, then discarded.
package planner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/qaforge/casegen/internal/log"
)

// PlanningInputBudget caps the documentation sent to the planning model.
// Larger inputs are condensed by Optimize before the model sees them.
const PlanningInputBudget = 25000

// fillSectionLimit is the largest non-priority section Optimize will pull
// into the condensed documentation.
const fillSectionLimit = 2000

// minPartialSection is the smallest tail-truncated priority section worth
// keeping when the budget runs out mid-section.
const minPartialSection = 1000

var (
	// ErrInvalidPlan indicates the model's plan failed structural
	// validation. Plans are all-or-nothing; a partially valid plan is
	// rejected in full.
	ErrInvalidPlan = errors.New("invalid generation plan")

	// ErrCallNotFound indicates no call in the plan matches the id.
	ErrCallNotFound = errors.New("generation call not found")
)

// Call is one unit of focused generation work.
type Call struct {
	CallID             int    `json:"call_id"`
	FocusArea          string `json:"focus_area"`
	Description        string `json:"description"`
	ContentScope       string `json:"content_scope"`
	EstimatedTestCases int    `json:"estimated_test_cases"`
}

// ComplexityAnalysis is the model's assessment of the documentation.
type ComplexityAnalysis struct {
	TotalEndpoints  int    `json:"total_endpoints"`
	BusinessFlows   int    `json:"business_flows"`
	ComplexityLevel string `json:"complexity_level"`
	Reasoning       string `json:"reasoning"`
}

// Plan is the wire contract between the planning and generation phases.
// OriginalDocumentation is threaded through unmodified for phase-2 use and
// never appears in the model's JSON.
type Plan struct {
	CombinedDocumentation   string             `json:"combined_documentation"`
	EstimatedCallsNeeded    int                `json:"estimated_calls_needed"`
	GenerationCalls         []Call             `json:"generation_calls"`
	TotalEstimatedTestCases int                `json:"total_estimated_test_cases"`
	ComplexityAnalysis      ComplexityAnalysis `json:"complexity_analysis"`
	OriginalDocumentation   string             `json:"-"`
}

// CallContext is the focused context bundle for one generation call.
type CallContext struct {
	CallID                int
	TotalCalls            int
	FocusArea             string
	Description           string
	ContentScope          string
	EstimatedTestCases    int
	CombinedDocumentation string
	OriginalDocumentation string
}

// ModelClient is the generative model surface the planner needs.
type ModelClient interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Engine creates generation plans.
type Engine struct {
	model  ModelClient
	logger log.Logger
}

// NewEngine creates a planning engine.
func NewEngine(model ModelClient, logger log.Logger) *Engine {
	return &Engine{
		model:  model,
		logger: logger.With("component", "planner"),
	}
}

// CreatePlan condenses the documentation, asks the model for a
// decomposition plan and validates it structurally. Validation is
// all-or-nothing: a plan missing any required field is rejected, never
// patched up.
func (e *Engine) CreatePlan(ctx context.Context, documentation string) (*Plan, error) {
	optimized := Optimize(documentation)

	e.logger.Debug("creating plan",
		"documentation_chars", len(documentation), "optimized_chars", len(optimized))

	raw, err := e.model.Generate(ctx, fmt.Sprintf(planningPrompt, optimized))
	if err != nil {
		return nil, fmt.Errorf("planning model call: %w", err)
	}

	payload, ok := extractJSONObject(raw)
	if !ok {
		return nil, fmt.Errorf("%w: no JSON object in model response", ErrInvalidPlan)
	}

	plan, err := decodePlan(payload)
	if err != nil {
		return nil, err
	}
	plan.OriginalDocumentation = documentation

	e.logger.Info("plan created",
		"calls", len(plan.GenerationCalls),
		"estimated_test_cases", plan.TotalEstimatedTestCases,
		"complexity", plan.ComplexityAnalysis.ComplexityLevel)
	return plan, nil
}

// ContextFor looks up a call by id and returns its focused context. The
// per-call estimate defaults to 50 when the plan omits it.
func ContextFor(plan *Plan, callID int) (CallContext, error) {
	if plan == nil {
		return CallContext{}, fmt.Errorf("%w: nil plan", ErrCallNotFound)
	}
	for _, call := range plan.GenerationCalls {
		if call.CallID != callID {
			continue
		}
		estimate := call.EstimatedTestCases
		if estimate <= 0 {
			estimate = 50
		}
		return CallContext{
			CallID:                call.CallID,
			TotalCalls:            len(plan.GenerationCalls),
			FocusArea:             call.FocusArea,
			Description:           call.Description,
			ContentScope:          call.ContentScope,
			EstimatedTestCases:    estimate,
			CombinedDocumentation: plan.CombinedDocumentation,
			OriginalDocumentation: plan.OriginalDocumentation,
		}, nil
	}
	return CallContext{}, fmt.Errorf("%w: call_id %d", ErrCallNotFound, callID)
}

// requiredPlanFields are the top-level keys a plan must carry.
var requiredPlanFields = []string{
	"combined_documentation",
	"estimated_calls_needed",
	"generation_calls",
	"total_estimated_test_cases",
}

// requiredCallFields are the keys every generation call must carry.
// estimated_test_cases is optional and defaults at lookup time.
var requiredCallFields = []string{
	"call_id",
	"focus_area",
	"description",
	"content_scope",
}

// decodePlan parses and validates the model's plan JSON.
func decodePlan(payload string) (*Plan, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(payload), &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPlan, err)
	}
	for _, key := range requiredPlanFields {
		if _, ok := fields[key]; !ok {
			return nil, fmt.Errorf("%w: missing field %q", ErrInvalidPlan, key)
		}
	}

	var rawCalls []map[string]json.RawMessage
	if err := json.Unmarshal(fields["generation_calls"], &rawCalls); err != nil {
		return nil, fmt.Errorf("%w: generation_calls: %v", ErrInvalidPlan, err)
	}
	if len(rawCalls) == 0 {
		return nil, fmt.Errorf("%w: generation_calls is empty", ErrInvalidPlan)
	}
	seen := make(map[int]bool, len(rawCalls))
	for i, rawCall := range rawCalls {
		for _, key := range requiredCallFields {
			if _, ok := rawCall[key]; !ok {
				return nil, fmt.Errorf("%w: call %d missing field %q", ErrInvalidPlan, i, key)
			}
		}
		var id int
		if err := json.Unmarshal(rawCall["call_id"], &id); err != nil {
			return nil, fmt.Errorf("%w: call %d has non-integer call_id", ErrInvalidPlan, i)
		}
		if seen[id] {
			return nil, fmt.Errorf("%w: duplicate call_id %d", ErrInvalidPlan, id)
		}
		seen[id] = true
	}

	var plan Plan
	if err := json.Unmarshal([]byte(payload), &plan); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPlan, err)
	}
	return &plan, nil
}

// extractJSONObject returns the substring from the first '{' to the last
// '}'. Models routinely wrap JSON in prose or code fences; this strips
// both without caring which.
func extractJSONObject(raw string) (string, bool) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return raw[start : end+1], true
}
