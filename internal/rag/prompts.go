package rag

import "strings"

// Prompt templates use {context} and {question} placeholders. Callers may
// supply a custom template with the same placeholders; otherwise the
// default template plus the general rules suffix is used.

const defaultPromptTemplate = `You are a senior QA engineer writing structured test cases.

Reference test cases retrieved from the existing suite:
{context}

API documentation to cover:
{question}

Write test cases covering the documentation above. Use the reference test cases for style and granularity, but do not repeat them.`

const generalRules = `

Rules:
- Respond with a JSON array of test case objects and nothing else.
- Each object must have exactly these keys: "id", "purpose", "scenerio", "test_data", "steps", "expected", "note".
- "steps" and "expected" are arrays of strings, one action or assertion per entry.
- "id" uses only letters, digits, hyphens and underscores.
- Cover normal flows, error conditions and boundary values.`

// formatPrompt substitutes the placeholders in a template.
func formatPrompt(template, context, question string) string {
	return strings.NewReplacer(
		"{context}", context,
		"{question}", question,
	).Replace(template)
}

// promptTemplate picks the caller's custom template or the default with
// the general rules appended.
func promptTemplate(custom string) string {
	if strings.TrimSpace(custom) != "" {
		return custom
	}
	return defaultPromptTemplate + generalRules
}

// focusPreamble frames a per-call generation prompt so the model stays
// inside the planned sub-domain.
const focusPreamble = `This is generation call %d of %d from a larger test plan.

Focus area: %s
Description: %s
Content scope: %s
Target: about %d test cases for this focus area.

Generate test cases ONLY for this focus area. Ignore parts of the documentation outside the stated content scope; other calls cover them.

`
