// Package testutil provides shared test doubles for the generation
// pipeline: a scriptable model client and an in-memory vector index.
// Production code must never import this package.
package testutil

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/qaforge/casegen/internal/knowledge"
)

// MockModel is a scriptable ModelClient. Responses are matched by prompt
// substring; FailuresLeft injects that many errors before responses flow.
type MockModel struct {
	mu sync.Mutex

	// Responses maps a prompt substring to the canned response. The first
	// matching entry in Patterns order wins.
	Responses map[string]string

	// Patterns fixes the match order for Responses. Optional; unordered
	// map iteration is fine when patterns do not overlap.
	Patterns []string

	// Default is returned when nothing matches. Empty means "[]".
	Default string

	// FailuresLeft makes the next N calls return Err.
	FailuresLeft int

	// Err is the injected failure. Required when FailuresLeft > 0.
	Err error

	// CallCount and Prompts record every invocation.
	CallCount int
	Prompts   []string
}

// Generate implements the model client surface.
func (m *MockModel) Generate(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CallCount++
	m.Prompts = append(m.Prompts, prompt)

	if m.FailuresLeft > 0 {
		m.FailuresLeft--
		return "", m.Err
	}

	if len(m.Patterns) > 0 {
		for _, pattern := range m.Patterns {
			if strings.Contains(prompt, pattern) {
				return m.Responses[pattern], nil
			}
		}
	} else {
		for pattern, response := range m.Responses {
			if strings.Contains(prompt, pattern) {
				return response, nil
			}
		}
	}

	if m.Default != "" {
		return m.Default, nil
	}
	return "[]", nil
}

// LastPrompt returns the most recent prompt, or "".
func (m *MockModel) LastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Prompts) == 0 {
		return ""
	}
	return m.Prompts[len(m.Prompts)-1]
}

// MockIndex is an in-memory vector index. Search is substring match over
// content, not real similarity, which is enough for pipeline tests.
type MockIndex struct {
	mu sync.Mutex

	// AddErr fails every AddDocuments call.
	AddErr error

	// AddFailuresLeft fails that many AddDocuments calls, then recovers.
	AddFailuresLeft int

	// SearchErr fails every SimilaritySearch call.
	SearchErr error

	// Docs holds everything added, in arrival order.
	Docs []knowledge.Document

	// AddCalls records the size of each AddDocuments call.
	AddCalls []int
}

// AddDocuments stores the documents unless a failure is scripted.
func (m *MockIndex) AddDocuments(ctx context.Context, docs []knowledge.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.AddCalls = append(m.AddCalls, len(docs))

	if m.AddFailuresLeft > 0 {
		m.AddFailuresLeft--
		if m.AddErr != nil {
			return m.AddErr
		}
		return errors.New("injected add failure")
	}
	if m.AddErr != nil {
		return m.AddErr
	}
	m.Docs = append(m.Docs, docs...)
	return nil
}

// SimilaritySearch returns up to k documents whose content shares a word
// with the query, falling back to arrival order.
func (m *MockIndex) SimilaritySearch(ctx context.Context, query string, k int) ([]knowledge.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.SearchErr != nil {
		return nil, m.SearchErr
	}

	var matched, rest []knowledge.Document
	lowerQuery := strings.ToLower(query)
	for _, doc := range m.Docs {
		if containsAnyWord(strings.ToLower(doc.Content), lowerQuery) {
			matched = append(matched, doc)
		} else {
			rest = append(rest, doc)
		}
	}
	results := append(matched, rest...)
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// Count returns the number of stored documents.
func (m *MockIndex) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Docs)
}

func containsAnyWord(content, query string) bool {
	for _, word := range strings.Fields(query) {
		if strings.Contains(content, word) {
			return true
		}
	}
	return false
}
