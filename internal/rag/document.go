package rag

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/qaforge/casegen/internal/knowledge"
	"github.com/qaforge/casegen/internal/testcase"
)

// BuildDocument projects a test-case record into a bounded retrievable
// document. Each field is truncated to its cap, steps and expected results
// are joined with " | ", and the whole text stays under
// MaxDocumentTextSize. Documents are rebuilt fresh on every embedding pass
// and never persisted on their own.
func BuildDocument(rec testcase.Record) knowledge.Document {
	purpose := truncate(rec.Purpose, MaxPurposeSize)
	scenario := truncate(rec.Scenario, MaxScenarioSize)
	testData := truncate(rec.TestData, MaxTestDataSize)
	note := truncate(rec.Note, MaxNoteSize)

	lines := []string{
		"Test Case: " + rec.ID,
		"Purpose: " + purpose,
		"Scenario: " + scenario,
	}
	if testData != "" {
		lines = append(lines, "Test Data: "+testData)
	}
	if steps := joinCapped(rec.Steps); steps != "" {
		lines = append(lines, "Steps: "+steps)
	}
	if expected := joinCapped(rec.Expected); expected != "" {
		lines = append(lines, "Expected Results: "+expected)
	}
	if note != "" {
		lines = append(lines, "Note: "+note)
	}

	text := truncate(strings.Join(lines, "\n"), MaxDocumentTextSize)

	return knowledge.Document{
		ID:      documentID(rec),
		Content: text,
		Metadata: map[string]string{
			"test_case_id": rec.ID,
			"purpose":      purpose,
			"scenario":     scenario,
			"test_data":    testData,
			"source_type":  knowledge.SourceTestCases,
		},
	}
}

// BuildDocuments converts a record slice, preserving order.
func BuildDocuments(records []testcase.Record) []knowledge.Document {
	docs := make([]knowledge.Document, 0, len(records))
	for _, rec := range records {
		docs = append(docs, BuildDocument(rec))
	}
	return docs
}

// documentID derives a stable index key from the record's composite
// (id, purpose) key, so re-embedding the same record overwrites its row
// instead of accumulating duplicates.
func documentID(rec testcase.Record) string {
	sum := sha256.Sum256([]byte(rec.ID + "\x00" + rec.Purpose))
	return fmt.Sprintf("%s_%s", testcase.CleanID(rec.ID), hex.EncodeToString(sum[:4]))
}

// truncate cuts s to at most max runes.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

// joinCapped joins list items with " | ", each item capped at
// MaxListItemSize. Blank items are dropped.
func joinCapped(items []string) string {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		parts = append(parts, truncate(item, MaxListItemSize))
	}
	return strings.Join(parts, " | ")
}
