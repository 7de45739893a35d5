package planner

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qaforge/casegen/internal/log"
	"github.com/qaforge/casegen/internal/testutil"
)

const validPlanJSON = `{
  "combined_documentation": "deduplicated docs",
  "estimated_calls_needed": 2,
  "generation_calls": [
    {
      "call_id": 1,
      "focus_area": "authentication",
      "description": "auth test cases",
      "content_scope": "login endpoints",
      "estimated_test_cases": 40
    },
    {
      "call_id": 2,
      "focus_area": "error handling",
      "description": "error test cases",
      "content_scope": "error responses"
    }
  ],
  "total_estimated_test_cases": 90,
  "complexity_analysis": {
    "total_endpoints": 12,
    "business_flows": 4,
    "complexity_level": "medium",
    "reasoning": "moderate endpoint count"
  }
}`

func TestCreatePlan(t *testing.T) {
	model := &testutil.MockModel{Default: "Here is the plan:\n" + validPlanJSON + "\nDone."}
	engine := NewEngine(model, log.NewNop())

	plan, err := engine.CreatePlan(context.Background(), "API documentation")
	require.NoError(t, err)
	assert.Equal(t, "deduplicated docs", plan.CombinedDocumentation)
	assert.Equal(t, 2, plan.EstimatedCallsNeeded)
	require.Len(t, plan.GenerationCalls, 2)
	assert.Equal(t, "authentication", plan.GenerationCalls[0].FocusArea)
	assert.Equal(t, 90, plan.TotalEstimatedTestCases)
	assert.Equal(t, "medium", plan.ComplexityAnalysis.ComplexityLevel)
	assert.Equal(t, "API documentation", plan.OriginalDocumentation,
		"original documentation threaded through unmodified")
}

func TestCreatePlan_ModelError(t *testing.T) {
	model := &testutil.MockModel{FailuresLeft: 1, Err: errors.New("quota")}
	engine := NewEngine(model, log.NewNop())

	_, err := engine.CreatePlan(context.Background(), "doc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota")
}

func TestCreatePlan_NoJSONInResponse(t *testing.T) {
	model := &testutil.MockModel{Default: "I cannot produce a plan for this."}
	engine := NewEngine(model, log.NewNop())

	_, err := engine.CreatePlan(context.Background(), "doc")
	assert.ErrorIs(t, err, ErrInvalidPlan)
}

func TestCreatePlan_OptimizesLargeInput(t *testing.T) {
	model := &testutil.MockModel{Default: validPlanJSON}
	engine := NewEngine(model, log.NewNop())

	doc := strings.Repeat("endpoint details\n\n", 3000) // ~54k chars
	plan, err := engine.CreatePlan(context.Background(), doc)
	require.NoError(t, err)

	prompt := model.LastPrompt()
	assert.Less(t, len(prompt), len(doc),
		"oversized documentation is condensed before planning")
	assert.Equal(t, doc, plan.OriginalDocumentation)
}

func TestDecodePlan_Validation(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"missing combined_documentation", `{
			"estimated_calls_needed": 1,
			"generation_calls": [{"call_id": 1, "focus_area": "a", "description": "d", "content_scope": "c"}],
			"total_estimated_test_cases": 10}`},
		{"missing generation_calls", `{
			"combined_documentation": "d",
			"estimated_calls_needed": 1,
			"total_estimated_test_cases": 10}`},
		{"empty generation_calls", `{
			"combined_documentation": "d",
			"estimated_calls_needed": 1,
			"generation_calls": [],
			"total_estimated_test_cases": 10}`},
		{"call missing call_id", `{
			"combined_documentation": "d",
			"estimated_calls_needed": 1,
			"generation_calls": [{"focus_area": "a", "description": "d", "content_scope": "c"}],
			"total_estimated_test_cases": 10}`},
		{"call missing content_scope", `{
			"combined_documentation": "d",
			"estimated_calls_needed": 1,
			"generation_calls": [{"call_id": 1, "focus_area": "a", "description": "d"}],
			"total_estimated_test_cases": 10}`},
		{"duplicate call_id", `{
			"combined_documentation": "d",
			"estimated_calls_needed": 2,
			"generation_calls": [
				{"call_id": 1, "focus_area": "a", "description": "d", "content_scope": "c"},
				{"call_id": 1, "focus_area": "b", "description": "d", "content_scope": "c"}],
			"total_estimated_test_cases": 10}`},
		{"not json", `plainly not json`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodePlan(tt.payload)
			assert.ErrorIs(t, err, ErrInvalidPlan)
		})
	}
}

func TestDecodePlan_MinimalValid(t *testing.T) {
	payload := `{
		"combined_documentation": "d",
		"estimated_calls_needed": 1,
		"generation_calls": [{"call_id": 1, "focus_area": "a", "description": "d", "content_scope": "c"}],
		"total_estimated_test_cases": 10}`

	plan, err := decodePlan(payload)
	require.NoError(t, err)
	require.Len(t, plan.GenerationCalls, 1)
	assert.Equal(t, 1, plan.GenerationCalls[0].CallID)
}

func TestContextFor(t *testing.T) {
	plan := &Plan{
		CombinedDocumentation: "combined",
		OriginalDocumentation: "original",
		GenerationCalls: []Call{
			{CallID: 1, FocusArea: "auth", Description: "d", ContentScope: "c", EstimatedTestCases: 40},
			{CallID: 2, FocusArea: "errors", Description: "d", ContentScope: "c"},
		},
	}

	cc, err := ContextFor(plan, 1)
	require.NoError(t, err)
	assert.Equal(t, "auth", cc.FocusArea)
	assert.Equal(t, 40, cc.EstimatedTestCases)
	assert.Equal(t, 2, cc.TotalCalls)
	assert.Equal(t, "combined", cc.CombinedDocumentation)
	assert.Equal(t, "original", cc.OriginalDocumentation)

	cc, err = ContextFor(plan, 2)
	require.NoError(t, err)
	assert.Equal(t, 50, cc.EstimatedTestCases, "missing estimate defaults to 50")

	_, err = ContextFor(plan, 3)
	assert.ErrorIs(t, err, ErrCallNotFound)

	_, err = ContextFor(nil, 1)
	assert.ErrorIs(t, err, ErrCallNotFound)
}

func TestExtractJSONObject(t *testing.T) {
	payload, ok := extractJSONObject("prose {\"a\": 1} trailing")
	require.True(t, ok)
	assert.Equal(t, `{"a": 1}`, payload)

	payload, ok = extractJSONObject("```json\n{\"a\": {\"b\": 2}}\n```")
	require.True(t, ok)
	assert.Equal(t, `{"a": {"b": 2}}`, payload)

	_, ok = extractJSONObject("no braces here")
	assert.False(t, ok)

	_, ok = extractJSONObject("} reversed {")
	assert.False(t, ok)
}
