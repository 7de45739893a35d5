// Package testcase defines the test-case record model shared by the store,
// the RAG pipeline and the CLI.
//
// The JSON field "scenerio" keeps the historical wire spelling; Go code
// uses Scenario throughout. Records are uniquely identified by the
// (id, purpose) pair — two records may share an id when their purposes
// differ.
package testcase

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

var (
	// ErrMissingID indicates the record has no id.
	ErrMissingID = errors.New("test case id is required")

	// ErrMissingPurpose indicates the record has no purpose.
	ErrMissingPurpose = errors.New("test case purpose is required")

	// ErrMissingScenario indicates the record has no scenario.
	ErrMissingScenario = errors.New("test case scenario is required")
)

// FallbackID is used when id normalization produces an empty string.
const FallbackID = "cleaned_id"

// Record is a single persisted test case.
type Record struct {
	ID        string   `json:"id"`
	Purpose   string   `json:"purpose"`
	Scenario  string   `json:"scenerio"`
	TestData  string   `json:"test_data"`
	Steps     []string `json:"steps"`
	Expected  []string `json:"expected"`
	Note      string   `json:"note"`
	CreatedAt string   `json:"created_at,omitempty"`
	UpdatedAt string   `json:"updated_at,omitempty"`
}

// Key returns the composite uniqueness key of the record.
func (r Record) Key() string {
	return r.ID + "\x00" + r.Purpose
}

// Validate checks the structural requirements of a record: non-empty id,
// purpose and scenario. Other fields may be empty.
func (r Record) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return ErrMissingID
	}
	if strings.TrimSpace(r.Purpose) == "" {
		return ErrMissingPurpose
	}
	if strings.TrimSpace(r.Scenario) == "" {
		return ErrMissingScenario
	}
	return nil
}

// Touch sets creation/update timestamps. CreatedAt is only set when empty
// so that upserts preserve the original creation time.
func (r *Record) Touch(now time.Time) {
	ts := now.Format(time.RFC3339)
	if r.CreatedAt == "" {
		r.CreatedAt = ts
	}
	r.UpdatedAt = ts
}

// invalidIDChars matches every run of characters that may not appear in a
// test-case id.
var invalidIDChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// collapseUnderscores matches runs of two or more underscores.
var collapseUnderscores = regexp.MustCompile(`_{2,}`)

// CleanID normalizes an id to [A-Za-z0-9_-]+. Invalid characters are
// replaced by underscores, runs collapsed, and leading/trailing separators
// trimmed. An id that normalizes to nothing becomes FallbackID.
func CleanID(id string) string {
	cleaned := invalidIDChars.ReplaceAllString(id, "_")
	cleaned = collapseUnderscores.ReplaceAllString(cleaned, "_")
	cleaned = strings.Trim(cleaned, "_-")
	if cleaned == "" {
		return FallbackID
	}
	return cleaned
}

// Normalize builds a Record from a loosely-typed candidate map, as produced
// by the response parser. Missing optional fields get defaults, "scenario"
// is accepted as an alias for "scenerio", and list-typed fields are coerced
// from strings or []any.
func Normalize(candidate map[string]any) Record {
	rec := Record{
		ID:       CleanID(stringField(candidate, "id")),
		Purpose:  stringField(candidate, "purpose"),
		TestData: stringField(candidate, "test_data"),
		Note:     stringField(candidate, "note"),
		Steps:    listField(candidate, "steps"),
		Expected: listField(candidate, "expected"),
	}

	rec.Scenario = stringField(candidate, "scenerio")
	if rec.Scenario == "" {
		rec.Scenario = stringField(candidate, "scenario")
	}

	if rec.TestData == "" {
		rec.TestData = "Test data"
	}
	if rec.Note == "" {
		rec.Note = "Generated test case"
	}
	if len(rec.Steps) == 0 {
		rec.Steps = []string{"Manual test step"}
	}
	if len(rec.Expected) == 0 {
		rec.Expected = []string{"Expected result"}
	}

	return rec
}

// stringField extracts a string value; non-string scalars are formatted.
func stringField(m map[string]any, key string) string {
	v, ok := m[key]
	if !ok || v == nil {
		return ""
	}
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case float64, int, bool:
		return fmt.Sprint(s)
	default:
		return ""
	}
}

// listField extracts a string slice; a scalar string becomes a single-item
// list, []any items are stringified, anything else is dropped.
func listField(m map[string]any, key string) []string {
	v, ok := m[key]
	if !ok || v == nil {
		return nil
	}
	switch items := v.(type) {
	case []string:
		return items
	case string:
		if strings.TrimSpace(items) == "" {
			return nil
		}
		return []string{items}
	case []any:
		out := make([]string, 0, len(items))
		for _, item := range items {
			if s, ok := item.(string); ok {
				out = append(out, s)
			} else if item != nil {
				out = append(out, fmt.Sprint(item))
			}
		}
		return out
	default:
		return nil
	}
}
