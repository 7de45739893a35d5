package planner

import "strings"

// truncationNotice is appended when Optimize had to drop content.
const truncationNotice = "\n\n[Documentation condensed for planning; some sections omitted]"

// priorityKeywords mark sections that carry API structure or business
// rules and get first claim on the planning budget.
var priorityKeywords = []string{
	"endpoint", "api", "method", "parameter", "request", "response",
	"error", "status", "code", "example", "header",
	"## ", "### ",
	"business rule", "flow", "validation", "authentication", "authorization",
}

// Optimize condenses documentation to fit PlanningInputBudget. Input at or
// under the budget is returned unchanged. Otherwise sections containing
// priority keywords are packed first, remaining budget is filled with
// short generic sections, and a truncation notice marks dropped content.
// The result is always non-empty and never exceeds the budget plus the
// notice.
func Optimize(doc string) string {
	if len(doc) <= PlanningInputBudget {
		return doc
	}

	sections := strings.Split(doc, "\n\n")
	var kept []string
	used := 0
	dropped := false

	appendSection := func(sec string) bool {
		need := len(sec)
		if used > 0 {
			need += 2
		}
		if used+need > PlanningInputBudget {
			return false
		}
		kept = append(kept, sec)
		used += need
		return true
	}

	// Pass 1: priority sections, tail-truncating the one that closes the
	// budget when enough of it still fits.
	for _, sec := range sections {
		if !isPriority(sec) {
			continue
		}
		if appendSection(sec) {
			continue
		}
		remaining := PlanningInputBudget - used - 2
		if remaining >= minPartialSection {
			kept = append(kept, sec[:remaining])
			used = PlanningInputBudget
		}
		dropped = true
	}

	// Pass 2: short generic sections fill whatever budget is left.
	for _, sec := range sections {
		if isPriority(sec) {
			continue
		}
		if len(sec) > fillSectionLimit {
			dropped = true
			continue
		}
		if !appendSection(sec) {
			dropped = true
		}
	}

	result := strings.Join(kept, "\n\n")
	if result == "" {
		// Nothing sectioned cleanly; keep a plain prefix so planning
		// always has material to work with.
		result = doc[:PlanningInputBudget]
		dropped = true
	}
	if dropped {
		result += truncationNotice
	}
	return result
}

func isPriority(section string) bool {
	lower := strings.ToLower(section)
	for _, kw := range priorityKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
