package rag

import (
	"testing"

	"github.com/qaforge/casegen/internal/log"
)

func FuzzParse(f *testing.F) {
	f.Add("")
	f.Add("plain prose, nothing structured")
	f.Add("```json\n[{\"id\": \"TC-1\", \"purpose\": \"p\", \"scenerio\": \"s\"}]\n```")
	f.Add("```json\n[{\"id\": \"trunc")
	f.Add(`{"id": "TC-1", "purpose": "p", "scenerio": "s"}`)
	f.Add("ID: TC-1\nPurpose: p\nScenario: s")
	f.Add("{\"id\": \"\\\"escaped\\\" quotes\"}")
	f.Add("[[[{{{]]]}}}")

	p := NewParser(log.NewNop())
	f.Fuzz(func(t *testing.T, raw string) {
		records := p.Parse(raw)
		if records == nil {
			t.Fatal("Parse returned nil slice")
		}
	})
}
