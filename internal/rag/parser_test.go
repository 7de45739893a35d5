package rag

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qaforge/casegen/internal/log"
	"github.com/qaforge/casegen/internal/testcase"
)

func newTestParser() *Parser {
	return NewParser(log.NewNop())
}

func TestParse_FencedArray(t *testing.T) {
	raw := "Here are the test cases:\n```json\n" + `[
  {"id": "TC-1", "purpose": "login", "scenerio": "valid login"},
  {"id": "TC-2", "purpose": "login", "scenerio": "wrong password"}
]` + "\n```\nLet me know if you need more."

	records := newTestParser().Parse(raw)
	require.Len(t, records, 2)
	assert.Equal(t, "TC-1", records[0].ID)
	assert.Equal(t, "wrong password", records[1].Scenario)
}

func TestParse_FencedArrayWithoutLanguageTag(t *testing.T) {
	raw := "```\n" + `[{"id": "TC-1", "purpose": "p", "scenerio": "s"}]` + "\n```"
	records := newTestParser().Parse(raw)
	require.Len(t, records, 1)
}

func TestParse_FencedObject(t *testing.T) {
	raw := "```json\n" + `{"id": "TC-1", "purpose": "p", "scenerio": "s"}` + "\n```"
	records := newTestParser().Parse(raw)
	require.Len(t, records, 1)
	assert.Equal(t, "TC-1", records[0].ID)
}

func TestParse_FencedObjectWrappingTestCases(t *testing.T) {
	raw := "```json\n" + `{"test_cases": [
  {"id": "TC-1", "purpose": "p", "scenerio": "s"},
  {"id": "TC-2", "purpose": "p", "scenerio": "s2"}
]}` + "\n```"
	records := newTestParser().Parse(raw)
	require.Len(t, records, 2)
}

func TestParse_BareArray(t *testing.T) {
	raw := `The cases follow: [{"id": "TC-1", "purpose": "p", "scenerio": "s"}] done.`
	records := newTestParser().Parse(raw)
	require.Len(t, records, 1)
	assert.Equal(t, "TC-1", records[0].ID)
}

func TestParse_BareObjects(t *testing.T) {
	raw := `First: {"id": "TC-1", "purpose": "p", "scenerio": "s"}
and second: {"id": "TC-2", "purpose": "p", "scenerio": "s2"} end.`
	records := newTestParser().Parse(raw)
	require.Len(t, records, 2)
	assert.Equal(t, "TC-2", records[1].ID)
}

func TestParse_BareObjects_SkipsMalformed(t *testing.T) {
	raw := `{"id": "TC-1", "purpose": "p", "scenerio": "s"} {"id": broken}`
	records := newTestParser().Parse(raw)
	require.Len(t, records, 1, "a malformed neighbor does not discard valid objects")
}

func TestParse_LineFallback(t *testing.T) {
	raw := `ID: TC-10
Purpose: authentication
Scenario: expired token rejected
Test data: token=expired
Steps: request with token | inspect response
Expected: 401 returned | error body present
Note: security critical

ID: TC-11
Purpose: authentication
Scenerio: missing token rejected`

	records := newTestParser().Parse(raw)
	require.Len(t, records, 2)

	assert.Equal(t, "TC-10", records[0].ID)
	assert.Equal(t, "expired token rejected", records[0].Scenario)
	assert.Equal(t, "token=expired", records[0].TestData)
	assert.Equal(t, []string{"request with token", "inspect response"}, records[0].Steps)
	assert.Equal(t, []string{"401 returned", "error body present"}, records[0].Expected)
	assert.Equal(t, "security critical", records[0].Note)

	assert.Equal(t, "TC-11", records[1].ID)
	assert.Equal(t, "missing token rejected", records[1].Scenario,
		"wire spelling accepted in line fallback")
}

func TestParse_LineFallback_CaseInsensitive(t *testing.T) {
	raw := "id: TC-1\nPURPOSE: p\nscenario: s"
	records := newTestParser().Parse(raw)
	require.Len(t, records, 1)
	assert.Equal(t, "p", records[0].Purpose)
}

func TestParse_DropsInvalidCandidates(t *testing.T) {
	raw := "```json\n" + `[
  {"id": "TC-1", "purpose": "p", "scenerio": "s"},
  {"id": "TC-2", "purpose": "p"},
  {"purpose": "p", "scenerio": "s"}
]` + "\n```"
	records := newTestParser().Parse(raw)
	require.Len(t, records, 1, "candidates missing required fields are dropped silently")
	assert.Equal(t, "TC-1", records[0].ID)
}

func TestParse_ScenarioAlias(t *testing.T) {
	raw := "```json\n" + `[{"id": "TC-1", "purpose": "p", "scenario": "aliased"}]` + "\n```"
	records := newTestParser().Parse(raw)
	require.Len(t, records, 1)
	assert.Equal(t, "aliased", records[0].Scenario)
}

func TestParse_RoundTrip(t *testing.T) {
	rec := testcase.Record{
		ID:       "TC-RT-1",
		Purpose:  "round trip",
		Scenario: "serialized and parsed back",
		TestData: "payload",
		Steps:    []string{"serialize", "parse"},
		Expected: []string{"identical record"},
		Note:     "property check",
	}

	data, err := json.Marshal([]testcase.Record{rec})
	require.NoError(t, err)

	records := newTestParser().Parse("```json\n" + string(data) + "\n```")
	require.Len(t, records, 1)
	assert.Equal(t, rec.ID, records[0].ID)
	assert.Equal(t, rec.Purpose, records[0].Purpose)
	assert.Equal(t, rec.Scenario, records[0].Scenario)
	assert.Equal(t, rec.TestData, records[0].TestData)
	assert.Equal(t, rec.Steps, records[0].Steps)
	assert.Equal(t, rec.Expected, records[0].Expected)
	assert.Equal(t, rec.Note, records[0].Note)
}

func TestParse_NeverFails(t *testing.T) {
	inputs := []string{
		"",
		"   \n\t  ",
		"no structured content at all",
		"```json\n[{\"id\": \"truncated",
		"{{{{{",
		"]]]][[[[",
		"```json\nnull\n```",
		"```json\n42\n```",
		`{"id": 1}`,
	}
	p := newTestParser()
	for _, input := range inputs {
		records := p.Parse(input)
		assert.NotNil(t, records, "input %q", input)
	}
}
