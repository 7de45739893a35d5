package coverage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qaforge/casegen/internal/testcase"
)

const flowDoc = `# Checkout

| Step | Actor | Description | Note | Related tables |
|------|-------|-------------|------|----------------|
| 1 | Customer | adds item to cart | | carts |
| 2 | Customer | pays for order | | orders |

On timeout the gateway retries.`

func TestAnalyze(t *testing.T) {
	records := []testcase.Record{
		{ID: "CART-001", Purpose: "cart", Scenario: "customer adds item to cart successfully"},
		{ID: "CART-002", Purpose: "cart", Scenario: "cart rejects unknown item"},
		{ID: "AUTH-001", Purpose: "login", Scenario: "valid login"},
	}

	analysis := Analyze(records, flowDoc)

	assert.Equal(t, 3, analysis.TotalTestCases)
	assert.Equal(t, map[string]int{"CART": 2, "AUTH": 1}, analysis.CoverageAreas)
	assert.Equal(t, 2, analysis.TotalFlowSteps)
	assert.Equal(t, 1, analysis.CoveredFlowSteps, "only the cart step is mentioned")
	assert.InDelta(t, 50.0, analysis.CoveragePercent, 0.01)

	require.Len(t, analysis.MissingScenarios, 1)
	assert.Contains(t, analysis.MissingScenarios[0], "pays for order")

	// The doc mentions timeouts; no test case does.
	require.NotEmpty(t, analysis.Recommendations)
	assert.Contains(t, analysis.Recommendations[0], "timeout")
}

func TestAnalyze_NoFlows(t *testing.T) {
	analysis := Analyze(nil, "plain prose documentation")
	assert.Zero(t, analysis.TotalFlowSteps)
	assert.Zero(t, analysis.CoveragePercent)
	assert.Empty(t, analysis.MissingScenarios)
}

func TestCategory(t *testing.T) {
	assert.Equal(t, "AUTH", category("AUTH-001"))
	assert.Equal(t, "TC", category("TC-1-extra"))
	assert.Equal(t, "nodash", category("nodash"))
	assert.Equal(t, "-leading", category("-leading"))
}

func TestAnalyze_RecommendationsSkipCovered(t *testing.T) {
	records := []testcase.Record{
		{ID: "T-1", Purpose: "p", Scenario: "request timeout returns 504"},
	}
	analysis := Analyze(records, "On timeout the gateway retries.")
	assert.Empty(t, analysis.Recommendations, "covered keyword yields no recommendation")
}
