// Package coverage analyzes how well a set of test cases covers the
// business flows described in API documentation. The analysis is lexical,
// not semantic: a flow step counts as covered when its label shows up in a
// test case's combined text. Good enough to point a QA engineer at the
// gaps.
package coverage

import (
	"fmt"
	"sort"
	"strings"

	"github.com/qaforge/casegen/internal/docs"
	"github.com/qaforge/casegen/internal/testcase"
)

// Analysis summarizes coverage of documentation by a test-case set.
type Analysis struct {
	TotalTestCases   int            `json:"total_test_cases"`
	CoverageAreas    map[string]int `json:"coverage_areas"`
	CoveredFlowSteps int            `json:"covered_flow_steps"`
	TotalFlowSteps   int            `json:"total_flow_steps"`
	CoveragePercent  float64        `json:"coverage_percent"`
	MissingScenarios []string       `json:"missing_scenarios,omitempty"`
	Recommendations  []string       `json:"recommendations,omitempty"`
}

// scenarioHints maps documentation keywords to scenario categories worth
// having test cases for.
var scenarioHints = []struct {
	docKeyword string
	scenario   string
}{
	{"timeout", "timeout"},
	{"error", "error_handling"},
	{"concurrent", "concurrency"},
	{"parallel", "concurrency"},
	{"permission", "authorization"},
	{"auth", "authentication"},
}

// Analyze inspects the records against the documentation's flow tables.
func Analyze(records []testcase.Record, documentation string) Analysis {
	analysis := Analysis{
		TotalTestCases: len(records),
		CoverageAreas:  make(map[string]int),
	}

	combined := make([]string, len(records))
	for i, rec := range records {
		analysis.CoverageAreas[category(rec.ID)]++
		combined[i] = strings.ToLower(strings.Join(append([]string{
			rec.ID, rec.Purpose, rec.Scenario, rec.TestData, rec.Note,
		}, append(rec.Steps, rec.Expected...)...), " "))
	}

	flows := docs.ExtractFlows(documentation)
	analysis.TotalFlowSteps = len(flows)
	for _, flow := range flows {
		if flowCovered(flow, combined) {
			analysis.CoveredFlowSteps++
		} else if flow.Description != "" {
			analysis.MissingScenarios = append(analysis.MissingScenarios,
				fmt.Sprintf("flow step %s: %s", flow.Step, flow.Description))
		}
	}
	if analysis.TotalFlowSteps > 0 {
		analysis.CoveragePercent = 100 * float64(analysis.CoveredFlowSteps) /
			float64(analysis.TotalFlowSteps)
	}

	analysis.Recommendations = recommend(documentation, combined)
	return analysis
}

// category derives a coverage area from the id prefix before the first
// hyphen, e.g. "AUTH-001" belongs to "AUTH".
func category(id string) string {
	if idx := strings.Index(id, "-"); idx > 0 {
		return id[:idx]
	}
	return id
}

// flowCovered reports whether any test case mentions the flow's
// description or actor-plus-step label.
func flowCovered(flow docs.Flow, combined []string) bool {
	label := strings.ToLower(strings.TrimSpace(flow.Description))
	if label == "" {
		return false
	}
	for _, text := range combined {
		if strings.Contains(text, label) {
			return true
		}
	}
	return false
}

// recommend suggests scenario categories the documentation implies but no
// test case mentions.
func recommend(documentation string, combined []string) []string {
	lowerDoc := strings.ToLower(documentation)
	seen := make(map[string]bool)
	var recs []string

	for _, hint := range scenarioHints {
		if !strings.Contains(lowerDoc, hint.docKeyword) || seen[hint.scenario] {
			continue
		}
		covered := false
		for _, text := range combined {
			if strings.Contains(text, hint.docKeyword) {
				covered = true
				break
			}
		}
		if !covered {
			recs = append(recs, fmt.Sprintf(
				"documentation mentions %q but no test case covers %s",
				hint.docKeyword, hint.scenario))
			seen[hint.scenario] = true
		}
	}
	sort.Strings(recs)
	return recs
}
