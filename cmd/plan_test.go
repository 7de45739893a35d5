package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qaforge/casegen/internal/planner"
)

func TestPlanFileRoundTrip(t *testing.T) {
	plan := &planner.Plan{
		CombinedDocumentation: "combined",
		EstimatedCallsNeeded:  1,
		GenerationCalls: []planner.Call{
			{CallID: 1, FocusArea: "auth", Description: "d", ContentScope: "c", EstimatedTestCases: 30},
		},
		TotalEstimatedTestCases: 30,
		OriginalDocumentation:   "the full original documentation",
	}

	path := filepath.Join(t.TempDir(), "plan.json")
	require.NoError(t, savePlan(path, plan))

	loaded, err := loadPlan(path)
	require.NoError(t, err)
	assert.Equal(t, plan.CombinedDocumentation, loaded.CombinedDocumentation)
	assert.Equal(t, plan.GenerationCalls, loaded.GenerationCalls)
	assert.Equal(t, plan.OriginalDocumentation, loaded.OriginalDocumentation,
		"original documentation survives the file round trip")
}

func TestLoadPlan_Missing(t *testing.T) {
	_, err := loadPlan(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestLoadDocumentation_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "api.md")
	require.NoError(t, os.WriteFile(path, []byte("# API"), 0o644))

	doc, err := loadDocumentation(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "# API", doc)
}
