package rag

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/qaforge/casegen/internal/log"
	"github.com/qaforge/casegen/internal/testcase"
)

// Parser extracts structured test-case records from free-form model
// output. The model's format is not contractually guaranteed, so parsing
// is a cascade of independent strategies; the first one yielding at least
// one valid record wins. Parse never fails: unusable input produces an
// empty slice, and candidates failing validation are dropped silently.
type Parser struct {
	logger     log.Logger
	strategies []strategy
}

type strategy struct {
	name    string
	extract func(raw string) []map[string]any
}

// NewParser creates a parser with the full strategy cascade.
func NewParser(logger log.Logger) *Parser {
	return &Parser{
		logger: logger.With("component", "parser"),
		strategies: []strategy{
			{"fenced_json_array", extractFencedArray},
			{"fenced_json_object", extractFencedObject},
			{"bare_json_array", extractBareArray},
			{"bare_json_objects", extractBareObjects},
			{"line_fallback", extractLines},
		},
	}
}

// Parse returns every valid record it can extract from raw. Always
// returns a non-nil slice.
func (p *Parser) Parse(raw string) []testcase.Record {
	if strings.TrimSpace(raw) == "" {
		return []testcase.Record{}
	}

	for _, s := range p.strategies {
		records := normalizeCandidates(s.extract(raw))
		if len(records) > 0 {
			p.logger.Debug("parsed response", "strategy", s.name, "records", len(records))
			return records
		}
	}

	p.logger.Debug("no strategy matched", "response_chars", len(raw))
	return []testcase.Record{}
}

// normalizeCandidates converts candidate maps to records, dropping any
// that fail structural validation.
func normalizeCandidates(candidates []map[string]any) []testcase.Record {
	var records []testcase.Record
	for _, candidate := range candidates {
		rec := testcase.Normalize(candidate)
		if rec.Validate() != nil {
			continue
		}
		records = append(records, rec)
	}
	return records
}

// fencedBlockRE captures the body of a fenced code block, with or without
// a language tag.
var fencedBlockRE = regexp.MustCompile("(?s)```[a-zA-Z]*\\s*(.*?)```")

func fencedBlocks(raw string) []string {
	matches := fencedBlockRE.FindAllStringSubmatch(raw, -1)
	blocks := make([]string, 0, len(matches))
	for _, m := range matches {
		blocks = append(blocks, strings.TrimSpace(m[1]))
	}
	return blocks
}

func extractFencedArray(raw string) []map[string]any {
	for _, block := range fencedBlocks(raw) {
		if !strings.HasPrefix(block, "[") {
			continue
		}
		var candidates []map[string]any
		if err := json.Unmarshal([]byte(block), &candidates); err == nil {
			return candidates
		}
	}
	return nil
}

func extractFencedObject(raw string) []map[string]any {
	for _, block := range fencedBlocks(raw) {
		if !strings.HasPrefix(block, "{") {
			continue
		}
		if candidates := decodeObject(block); candidates != nil {
			return candidates
		}
	}
	return nil
}

// decodeObject turns one JSON object into candidates. An object wrapping
// an array under "test_cases" is unwrapped; anything else is a single
// candidate.
func decodeObject(payload string) []map[string]any {
	var obj map[string]any
	if err := json.Unmarshal([]byte(payload), &obj); err != nil {
		return nil
	}
	if wrapped, ok := obj["test_cases"].([]any); ok {
		var candidates []map[string]any
		for _, item := range wrapped {
			if m, ok := item.(map[string]any); ok {
				candidates = append(candidates, m)
			}
		}
		return candidates
	}
	return []map[string]any{obj}
}

func extractBareArray(raw string) []map[string]any {
	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start < 0 || end <= start {
		return nil
	}
	payload := raw[start : end+1]
	if !strings.Contains(payload, `"id"`) {
		return nil
	}
	var candidates []map[string]any
	if err := json.Unmarshal([]byte(payload), &candidates); err != nil {
		return nil
	}
	return candidates
}

// extractBareObjects scans for balanced top-level {...} spans containing
// an "id" key and decodes each independently, so one malformed object does
// not discard its neighbors.
func extractBareObjects(raw string) []map[string]any {
	var candidates []map[string]any
	depth := 0
	start := -1
	inString := false
	escaped := false

	for i, r := range raw {
		if inString {
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '"':
				inString = false
			}
			continue
		}
		switch r {
		case '"':
			if depth > 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 && start >= 0 {
				span := raw[start : i+1]
				if strings.Contains(span, `"id"`) {
					var obj map[string]any
					if err := json.Unmarshal([]byte(span), &obj); err == nil {
						candidates = append(candidates, obj)
					}
				}
				start = -1
			}
		}
	}
	return candidates
}

// lineMarkers maps line prefixes to candidate keys for the text fallback.
// Order matters: "scenerio" before "scenario" is irrelevant here since
// prefixes are distinct, but "test data" carries a space.
var lineMarkers = []struct {
	prefix string
	key    string
	isList bool
}{
	{"purpose:", "purpose", false},
	{"scenario:", "scenerio", false},
	{"scenerio:", "scenerio", false},
	{"test data:", "test_data", false},
	{"steps:", "steps", true},
	{"expected:", "expected", true},
	{"note:", "note", false},
}

// extractLines is the last-resort strategy: scan for "ID:"-style markers,
// one record per ID boundary, steps/expected split on '|'.
func extractLines(raw string) []map[string]any {
	var candidates []map[string]any
	var current map[string]any

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "-* "))
		lower := strings.ToLower(line)

		if strings.HasPrefix(lower, "id:") {
			if current != nil {
				candidates = append(candidates, current)
			}
			current = map[string]any{"id": strings.TrimSpace(line[len("id:"):])}
			continue
		}
		if current == nil {
			continue
		}

		for _, marker := range lineMarkers {
			if !strings.HasPrefix(lower, marker.prefix) {
				continue
			}
			value := strings.TrimSpace(line[len(marker.prefix):])
			if marker.isList {
				current[marker.key] = splitPipe(value)
			} else {
				current[marker.key] = value
			}
			break
		}
	}
	if current != nil {
		candidates = append(candidates, current)
	}
	return candidates
}

// splitPipe splits on '|', trimming items and dropping empties.
func splitPipe(s string) []string {
	var items []string
	for _, part := range strings.Split(s, "|") {
		part = strings.TrimSpace(part)
		if part != "" {
			items = append(items, part)
		}
	}
	return items
}
